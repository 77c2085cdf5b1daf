package migrate

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/temirov/lab2hub/internal/githubapi"
	"github.com/temirov/lab2hub/internal/mirror"
	"github.com/temirov/lab2hub/internal/projectdata"
	pathutils "github.com/temirov/lab2hub/internal/utils/path"
)

const (
	defaultSourceBaseURLConstant        = "https://gitlab.com"
	defaultSourceMaxRetriesConstant     = 3
	defaultWorkspacePrefixConstant      = "lab2hub-"
	nameMapFieldConstant                = "name_map"
	nameMapFileFieldConstant            = "name_map_file"
	organizationFieldConstant           = "destination.organization"
	ownerTypeFieldConstant              = "destination.owner_type"
	engineFieldConstant                 = "mirror.engine"
	toolDirectoryFieldConstant          = "project_data.tool_directory"
	stepsFieldConstant                  = "steps"
	nameMapReadErrorTemplate            = "read name map file %s: %w"
	nameMapParseErrorTemplate           = "parse name overrides: %w"
	nameMapEmptyKeyErrorMessage         = "name overrides contain an empty project path"
	missingOrganizationErrorMessage     = "destination organization must be provided when the repository step is enabled"
	missingToolDirectoryErrorMessage    = "tool directory must be provided when the project data step is enabled"
	noStepsEnabledErrorMessage          = "at least one of repositories, wikis or project_data must be enabled"
	configurationKeyTemplate            = "%s.%s"
	sourceBaseURLKeyConstant            = "source.base_url"
	sourceTokenKeyConstant              = "source.token"
	sourceGroupKeyConstant              = "source.group"
	sourceMembershipOnlyKeyConstant     = "source.membership_only"
	sourceMaxRetriesKeyConstant         = "source.max_retries"
	destinationBaseURLKeyConstant       = "destination.base_url"
	destinationTokenKeyConstant         = "destination.token"
	destinationOrganizationKeyConstant  = "destination.organization"
	destinationOwnerTypeKeyConstant     = "destination.owner_type"
	destinationPrivateKeyConstant       = "destination.private"
	nameMapKeyConstant                  = "name_map"
	nameMapFileKeyConstant              = "name_map_file"
	ignoreKeyConstant                   = "ignore"
	stepsRepositoriesKeyConstant        = "steps.repositories"
	stepsWikisKeyConstant               = "steps.wikis"
	stepsProjectDataKeyConstant         = "steps.project_data"
	mirrorEngineKeyConstant             = "mirror.engine"
	mirrorWorkspaceParentKeyConstant    = "mirror.workspace_parent"
	mirrorWorkspacePrefixKeyConstant    = "mirror.workspace_prefix"
	mirrorResumeEmptyKeyConstant        = "mirror.resume_empty_destinations"
	projectDataToolDirectoryKeyConstant = "project_data.tool_directory"
	projectDataSettingsFileKeyConstant  = "project_data.settings_file"
	projectDataScriptKeyConstant        = "project_data.script"
	dryRunKeyConstant                   = "dry_run"
)

// Configuration validation errors.
var (
	ErrNoStepsEnabled              = errors.New(noStepsEnabledErrorMessage)
	ErrOrganizationNotConfigured   = errors.New(missingOrganizationErrorMessage)
	ErrToolDirectoryNotConfigured  = errors.New(missingToolDirectoryErrorMessage)
	ErrEmptyNameOverrideProjectKey = errors.New(nameMapEmptyKeyErrorMessage)
)

// SourceConfiguration describes the GitLab instance projects are read from.
type SourceConfiguration struct {
	BaseURL        string `mapstructure:"base_url"`
	Token          string `mapstructure:"token"`
	Group          string `mapstructure:"group"`
	MembershipOnly bool   `mapstructure:"membership_only"`
	MaxRetries     int    `mapstructure:"max_retries"`
}

// DestinationConfiguration describes the GitHub owner receiving the repositories.
type DestinationConfiguration struct {
	BaseURL      string `mapstructure:"base_url"`
	Token        string `mapstructure:"token"`
	Organization string `mapstructure:"organization"`
	OwnerType    string `mapstructure:"owner_type"`
	Private      bool   `mapstructure:"private"`
}

// StepsConfiguration toggles the per-project steps.
type StepsConfiguration struct {
	Repositories bool `mapstructure:"repositories"`
	Wikis        bool `mapstructure:"wikis"`
	ProjectData  bool `mapstructure:"project_data"`
}

// MirrorConfiguration selects the mirror engine and its workspace.
type MirrorConfiguration struct {
	Engine                  string `mapstructure:"engine"`
	WorkspaceParent         string `mapstructure:"workspace_parent"`
	WorkspacePrefix         string `mapstructure:"workspace_prefix"`
	ResumeEmptyDestinations bool   `mapstructure:"resume_empty_destinations"`
}

// ProjectDataConfiguration locates the external data migration tool.
type ProjectDataConfiguration struct {
	ToolDirectory string `mapstructure:"tool_directory"`
	SettingsFile  string `mapstructure:"settings_file"`
	Script        string `mapstructure:"script"`
}

// CommandConfiguration captures persisted configuration for the migrate command.
// Name overrides stay a raw JSON or YAML document so project paths keep their case and dots.
type CommandConfiguration struct {
	Source      SourceConfiguration      `mapstructure:"source"`
	Destination DestinationConfiguration `mapstructure:"destination"`
	NameMap     string                   `mapstructure:"name_map"`
	NameMapFile string                   `mapstructure:"name_map_file"`
	Ignore      []string                 `mapstructure:"ignore"`
	Steps       StepsConfiguration       `mapstructure:"steps"`
	Mirror      MirrorConfiguration      `mapstructure:"mirror"`
	ProjectData ProjectDataConfiguration `mapstructure:"project_data"`
	DryRun      bool                     `mapstructure:"dry_run"`
}

// DefaultCommandConfiguration returns baseline configuration values for the migrate command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Source: SourceConfiguration{
			BaseURL:    defaultSourceBaseURLConstant,
			MaxRetries: defaultSourceMaxRetriesConstant,
		},
		Destination: DestinationConfiguration{
			OwnerType: string(githubapi.OrganizationOwnerType),
			Private:   true,
		},
		Steps: StepsConfiguration{
			Repositories: true,
		},
		Mirror: MirrorConfiguration{
			Engine:          string(mirror.EngineGitCLI),
			WorkspacePrefix: defaultWorkspacePrefixConstant,
		},
		ProjectData: ProjectDataConfiguration{
			SettingsFile: projectdata.DefaultSettingsFileName,
			Script:       projectdata.DefaultScriptName,
		},
	}
}

// DefaultConfigurationValues flattens the defaults into keys rooted at prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	values := map[string]any{
		sourceBaseURLKeyConstant:            defaults.Source.BaseURL,
		sourceTokenKeyConstant:              defaults.Source.Token,
		sourceGroupKeyConstant:              defaults.Source.Group,
		sourceMembershipOnlyKeyConstant:     defaults.Source.MembershipOnly,
		sourceMaxRetriesKeyConstant:         defaults.Source.MaxRetries,
		destinationBaseURLKeyConstant:       defaults.Destination.BaseURL,
		destinationTokenKeyConstant:         defaults.Destination.Token,
		destinationOrganizationKeyConstant:  defaults.Destination.Organization,
		destinationOwnerTypeKeyConstant:     defaults.Destination.OwnerType,
		destinationPrivateKeyConstant:       defaults.Destination.Private,
		nameMapKeyConstant:                  defaults.NameMap,
		nameMapFileKeyConstant:              defaults.NameMapFile,
		ignoreKeyConstant:                   []string{},
		stepsRepositoriesKeyConstant:        defaults.Steps.Repositories,
		stepsWikisKeyConstant:               defaults.Steps.Wikis,
		stepsProjectDataKeyConstant:         defaults.Steps.ProjectData,
		mirrorEngineKeyConstant:             defaults.Mirror.Engine,
		mirrorWorkspaceParentKeyConstant:    defaults.Mirror.WorkspaceParent,
		mirrorWorkspacePrefixKeyConstant:    defaults.Mirror.WorkspacePrefix,
		mirrorResumeEmptyKeyConstant:        defaults.Mirror.ResumeEmptyDestinations,
		projectDataToolDirectoryKeyConstant: defaults.ProjectData.ToolDirectory,
		projectDataSettingsFileKeyConstant:  defaults.ProjectData.SettingsFile,
		projectDataScriptKeyConstant:        defaults.ProjectData.Script,
		dryRunKeyConstant:                   defaults.DryRun,
	}

	trimmedPrefix := strings.TrimSpace(prefix)
	if len(trimmedPrefix) == 0 {
		return values
	}

	prefixed := make(map[string]any, len(values))
	for key, value := range values {
		prefixed[fmt.Sprintf(configurationKeyTemplate, trimmedPrefix, key)] = value
	}
	return prefixed
}

// Sanitize trims configured values, expands home-relative paths and drops blank ignore entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	homeExpander := pathutils.NewHomeExpander()
	defaults := DefaultCommandConfiguration()

	sanitized := configuration
	sanitized.Source.BaseURL = strings.TrimSpace(configuration.Source.BaseURL)
	sanitized.Source.Token = strings.TrimSpace(configuration.Source.Token)
	sanitized.Source.Group = strings.Trim(strings.TrimSpace(configuration.Source.Group), "/")
	sanitized.Destination.BaseURL = strings.TrimSpace(configuration.Destination.BaseURL)
	sanitized.Destination.Token = strings.TrimSpace(configuration.Destination.Token)
	sanitized.Destination.Organization = strings.TrimSpace(configuration.Destination.Organization)
	sanitized.Destination.OwnerType = strings.TrimSpace(configuration.Destination.OwnerType)
	sanitized.NameMap = strings.TrimSpace(configuration.NameMap)
	sanitized.NameMapFile = homeExpander.ResolvePath(configuration.NameMapFile)
	sanitized.Mirror.Engine = strings.TrimSpace(configuration.Mirror.Engine)
	sanitized.Mirror.WorkspaceParent = homeExpander.ResolvePath(configuration.Mirror.WorkspaceParent)
	sanitized.Mirror.WorkspacePrefix = strings.TrimSpace(configuration.Mirror.WorkspacePrefix)
	sanitized.ProjectData.ToolDirectory = homeExpander.ResolvePath(configuration.ProjectData.ToolDirectory)
	sanitized.ProjectData.SettingsFile = strings.TrimSpace(configuration.ProjectData.SettingsFile)
	sanitized.ProjectData.Script = strings.TrimSpace(configuration.ProjectData.Script)

	if len(sanitized.Source.BaseURL) == 0 {
		sanitized.Source.BaseURL = defaults.Source.BaseURL
	}
	if len(sanitized.Destination.OwnerType) == 0 {
		sanitized.Destination.OwnerType = defaults.Destination.OwnerType
	}
	if len(sanitized.Mirror.WorkspacePrefix) == 0 {
		sanitized.Mirror.WorkspacePrefix = defaults.Mirror.WorkspacePrefix
	}
	if len(sanitized.ProjectData.SettingsFile) == 0 {
		sanitized.ProjectData.SettingsFile = defaults.ProjectData.SettingsFile
	}
	if len(sanitized.ProjectData.Script) == 0 {
		sanitized.ProjectData.Script = defaults.ProjectData.Script
	}

	sanitized.Ignore = sanitizeProjectPaths(configuration.Ignore)
	return sanitized
}

// Validate checks the settings that can be verified without touching the network.
func (configuration CommandConfiguration) Validate() error {
	if !configuration.Steps.Repositories && !configuration.Steps.Wikis && !configuration.Steps.ProjectData {
		return ConfigurationFailure{Field: stepsFieldConstant, Cause: ErrNoStepsEnabled}
	}
	if configuration.Steps.Repositories && len(configuration.Destination.Organization) == 0 {
		return ConfigurationFailure{Field: organizationFieldConstant, Cause: ErrOrganizationNotConfigured}
	}
	if _, ownerTypeError := githubapi.ParseOwnerType(configuration.Destination.OwnerType); ownerTypeError != nil {
		return ConfigurationFailure{Field: ownerTypeFieldConstant, Cause: ownerTypeError}
	}
	if _, engineError := mirror.ParseEngineName(configuration.Mirror.Engine); engineError != nil {
		return ConfigurationFailure{Field: engineFieldConstant, Cause: engineError}
	}
	if configuration.Steps.ProjectData && len(configuration.ProjectData.ToolDirectory) == 0 {
		return ConfigurationFailure{Field: toolDirectoryFieldConstant, Cause: ErrToolDirectoryNotConfigured}
	}
	return nil
}

// NameOverrides parses the override document from name_map_file when set, otherwise from name_map.
// The document is a JSON or YAML mapping of full source paths to destination names.
func (configuration CommandConfiguration) NameOverrides(fileReader func(path string) ([]byte, error)) (map[string]string, error) {
	if fileReader == nil {
		fileReader = os.ReadFile
	}

	document := []byte(configuration.NameMap)
	fieldName := nameMapFieldConstant
	if len(configuration.NameMapFile) > 0 {
		fieldName = nameMapFileFieldConstant
		fileContent, readError := fileReader(configuration.NameMapFile)
		if readError != nil {
			return nil, ConfigurationFailure{Field: fieldName, Cause: fmt.Errorf(nameMapReadErrorTemplate, configuration.NameMapFile, readError)}
		}
		document = fileContent
	}

	overrides, parseError := ParseNameOverrides(document)
	if parseError != nil {
		return nil, ConfigurationFailure{Field: fieldName, Cause: parseError}
	}
	return overrides, nil
}

// ParseNameOverrides decodes a JSON or YAML mapping. An empty document yields an empty map.
func ParseNameOverrides(document []byte) (map[string]string, error) {
	overrides := map[string]string{}
	if len(strings.TrimSpace(string(document))) == 0 {
		return overrides, nil
	}

	var decoded map[string]string
	if unmarshalError := yaml.Unmarshal(document, &decoded); unmarshalError != nil {
		return nil, fmt.Errorf(nameMapParseErrorTemplate, unmarshalError)
	}

	for projectPath, destinationName := range decoded {
		trimmedPath := strings.TrimSpace(projectPath)
		if len(trimmedPath) == 0 {
			return nil, fmt.Errorf(nameMapParseErrorTemplate, ErrEmptyNameOverrideProjectKey)
		}
		overrides[trimmedPath] = strings.TrimSpace(destinationName)
	}
	return overrides, nil
}

func sanitizeProjectPaths(projectPaths []string) []string {
	if len(projectPaths) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(projectPaths))
	sanitized := make([]string, 0, len(projectPaths))
	for _, projectPath := range projectPaths {
		trimmedPath := strings.Trim(strings.TrimSpace(projectPath), "/")
		if len(trimmedPath) == 0 {
			continue
		}
		if _, duplicate := seen[trimmedPath]; duplicate {
			continue
		}
		seen[trimmedPath] = struct{}{}
		sanitized = append(sanitized, trimmedPath)
	}
	return sanitized
}

