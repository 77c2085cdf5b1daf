package migrate

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/lab2hub/internal/catalog"
	"github.com/temirov/lab2hub/internal/credentials"
	"github.com/temirov/lab2hub/internal/execshell"
	"github.com/temirov/lab2hub/internal/githubapi"
	"github.com/temirov/lab2hub/internal/gitlabapi"
	"github.com/temirov/lab2hub/internal/mirror"
	"github.com/temirov/lab2hub/internal/projectdata"
	"github.com/temirov/lab2hub/internal/report"
	"github.com/temirov/lab2hub/internal/ui"
	"github.com/temirov/lab2hub/internal/utils"
	"github.com/temirov/lab2hub/internal/utils/flags"
)

const (
	commandUseConstant                      = "migrate"
	commandShortDescriptionConstant         = "Mirror GitLab projects into a GitHub organization"
	commandLongDescriptionConstant          = "migrate lists every project of the source GitLab instance and ensures each one has a mirrored repository in the destination GitHub organization. Existing repositories are never overwritten, so the command can be rerun safely."
	organizationFlagNameConstant            = "organization"
	organizationFlagUsageConstant           = "Destination GitHub organization or user"
	groupFlagNameConstant                   = "group"
	groupFlagUsageConstant                  = "Limit the source catalog to a GitLab group and its subgroups"
	ignoreFlagNameConstant                  = "ignore"
	ignoreFlagUsageConstant                 = "Source project path to skip (repeatable)"
	nameMapFlagNameConstant                 = "name-map"
	nameMapFlagUsageConstant                = "JSON or YAML map of source project paths to destination names"
	nameMapFileFlagNameConstant             = "name-map-file"
	nameMapFileFlagUsageConstant            = "JSON or YAML file mapping source project paths to destination names"
	engineFlagNameConstant                  = "engine"
	engineFlagUsageConstant                 = "Mirror engine"
	toolDirectoryFlagNameConstant           = "tool-directory"
	toolDirectoryFlagUsageConstant          = "Directory of the external project data migration tool"
	dryRunFlagNameConstant                  = "dry-run"
	dryRunFlagUsageConstant                 = "Report decisions without creating, pushing or writing anything"
	repositoriesFlagNameConstant            = "repositories"
	repositoriesFlagUsageConstant           = "Create and mirror destination repositories"
	wikisFlagNameConstant                   = "wikis"
	wikisFlagUsageConstant                  = "Convert wiki pages into issues"
	projectDataFlagNameConstant             = "project-data"
	projectDataFlagUsageConstant            = "Run the external project data migration tool"
	resumeEmptyFlagNameConstant             = "resume-empty-destinations"
	resumeEmptyFlagUsageConstant            = "Mirror into existing destinations that have no commits"
	sourceTokenFieldConstant                = "source.token"
	destinationTokenFieldConstant           = "destination.token"
	sourceClientFieldConstant               = "source"
	destinationClientFieldConstant          = "destination"
	logMessageCatalogFetchFailedConstant    = "Source catalog fetch failed"
	logMessageConfigurationRejectedConstant = "Migration configuration rejected"
	logMessageRunInterruptedConstant        = "Migration run interrupted"
	logFieldFieldConstant                   = "field"
	logFieldProcessedCountConstant          = "processed"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandExecutor runs the git and npm processes used by the mirror and data tool steps.
type CommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteNpm(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RunSettings carries the validated inputs used to construct collaborators.
type RunSettings struct {
	Configuration    CommandConfiguration
	SourceToken      string
	DestinationToken string
	Executor         CommandExecutor
	Logger           *zap.Logger
}

// Collaborators groups the platform clients and step implementations of a run.
type Collaborators struct {
	Lister       catalog.ProjectLister
	Destination  Destination
	Mirrorer     Mirrorer
	WikiMigrator WikiMigrator
	DataTool     DataTool
}

// CollaboratorProvider constructs the collaborators of a run.
type CollaboratorProvider func(executionContext context.Context, settings RunSettings) (Collaborators, error)

type commandOptions struct {
	debugLoggingEnabled bool
	configuration       CommandConfiguration
}

// CommandBuilder assembles the migrate Cobra command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConsoleLoggerProvider        LoggerProvider
	Executor                     CommandExecutor
	CollaboratorProvider         CollaboratorProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	EnvironmentLookup            credentials.EnvironmentLookup
	FileReader                   credentials.FileReader
}

// Build constructs the migrate command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runMigrate,
	}

	defaults := DefaultCommandConfiguration()
	command.Flags().String(organizationFlagNameConstant, "", organizationFlagUsageConstant)
	command.Flags().String(groupFlagNameConstant, "", groupFlagUsageConstant)
	command.Flags().StringSlice(ignoreFlagNameConstant, nil, ignoreFlagUsageConstant)
	command.Flags().String(nameMapFlagNameConstant, "", nameMapFlagUsageConstant)
	command.Flags().String(nameMapFileFlagNameConstant, "", nameMapFileFlagUsageConstant)
	command.Flags().String(
		engineFlagNameConstant,
		defaults.Mirror.Engine,
		flags.FormatChoiceUsage(defaults.Mirror.Engine, []string{string(mirror.EngineGitCLI), string(mirror.EngineGoGit)}, engineFlagUsageConstant),
	)
	command.Flags().String(toolDirectoryFlagNameConstant, "", toolDirectoryFlagUsageConstant)
	flags.AddToggleFlag(command.Flags(), nil, dryRunFlagNameConstant, defaults.DryRun, dryRunFlagUsageConstant)
	flags.AddToggleFlag(command.Flags(), nil, repositoriesFlagNameConstant, defaults.Steps.Repositories, repositoriesFlagUsageConstant)
	flags.AddToggleFlag(command.Flags(), nil, wikisFlagNameConstant, defaults.Steps.Wikis, wikisFlagUsageConstant)
	flags.AddToggleFlag(command.Flags(), nil, projectDataFlagNameConstant, defaults.Steps.ProjectData, projectDataFlagUsageConstant)
	flags.AddToggleFlag(command.Flags(), nil, resumeEmptyFlagNameConstant, defaults.Mirror.ResumeEmptyDestinations, resumeEmptyFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) runMigrate(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger(options.debugLoggingEnabled)
	configuration := options.configuration
	executionContext := command.Context()
	if executionContext == nil {
		executionContext = context.Background()
	}

	if validationError := configuration.Validate(); validationError != nil {
		builder.logConfigurationFailure(logger, validationError)
		return validationError
	}

	nameOverrides, overridesError := configuration.NameOverrides(builder.FileReader)
	if overridesError != nil {
		builder.logConfigurationFailure(logger, overridesError)
		return overridesError
	}

	sourceToken, destinationToken, tokenError := builder.resolveTokens(executionContext, configuration)
	if tokenError != nil {
		builder.logConfigurationFailure(logger, tokenError)
		return tokenError
	}

	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return executorError
	}

	collaborators, collaboratorsError := builder.resolveCollaborators(executionContext, RunSettings{
		Configuration:    configuration,
		SourceToken:      sourceToken,
		DestinationToken: destinationToken,
		Executor:         executor,
		Logger:           logger,
	})
	if collaboratorsError != nil {
		builder.logConfigurationFailure(logger, collaboratorsError)
		return collaboratorsError
	}

	fetcher, fetcherError := catalog.NewFetcher(collaborators.Lister, logger)
	if fetcherError != nil {
		return fetcherError
	}

	projects, fetchError := fetcher.FetchAllProjects(executionContext)
	if fetchError != nil {
		logger.Error(logMessageCatalogFetchFailedConstant, zap.Error(fetchError))
		return FetchFailure{Cause: fetchError}
	}

	reconciler, reconcilerError := NewReconciler(ReconcilerDependencies{
		Destination:  collaborators.Destination,
		Mirrorer:     collaborators.Mirrorer,
		WikiMigrator: collaborators.WikiMigrator,
		DataTool:     collaborators.DataTool,
		Reporter:     report.NewWriterReporter(command.OutOrStdout(), builder.humanReadableLogging()),
		Logger:       logger,
	}, ReconcilerConfiguration{
		Organization:            configuration.Destination.Organization,
		NameOverrides:           nameOverrides,
		IgnoreSet:               NewIgnoreSet(configuration.Ignore),
		Steps:                   StepToggles(configuration.Steps),
		Private:                 configuration.Destination.Private,
		ResumeEmptyDestinations: configuration.Mirror.ResumeEmptyDestinations,
		DryRun:                  configuration.DryRun,
	})
	if reconcilerError != nil {
		return reconcilerError
	}

	runReport, interruption := reconciler.Reconcile(executionContext, projects)
	if interruption != nil {
		logger.Warn(
			logMessageRunInterruptedConstant,
			zap.Int(logFieldProcessedCountConstant, len(runReport.Outcomes)),
			zap.Error(interruption),
		)
		return interruption
	}

	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (commandOptions, error) {
	configuration := builder.resolveConfiguration()

	debugEnabled := false
	if command != nil {
		contextAccessor := utils.NewCommandContextAccessor()
		if logLevel, available := contextAccessor.LogLevel(command.Context()); available {
			if strings.EqualFold(logLevel, string(utils.LogLevelDebug)) {
				debugEnabled = true
			}
		}
	}

	if command == nil {
		return commandOptions{debugLoggingEnabled: debugEnabled, configuration: configuration}, nil
	}

	flagSet := command.Flags()
	if flagSet.Changed(organizationFlagNameConstant) {
		configuration.Destination.Organization, _ = flagSet.GetString(organizationFlagNameConstant)
	}
	if flagSet.Changed(groupFlagNameConstant) {
		configuration.Source.Group, _ = flagSet.GetString(groupFlagNameConstant)
	}
	if flagSet.Changed(ignoreFlagNameConstant) {
		ignoredProjects, _ := flagSet.GetStringSlice(ignoreFlagNameConstant)
		configuration.Ignore = append(configuration.Ignore, ignoredProjects...)
	}
	if flagSet.Changed(nameMapFlagNameConstant) {
		configuration.NameMap, _ = flagSet.GetString(nameMapFlagNameConstant)
	}
	if flagSet.Changed(nameMapFileFlagNameConstant) {
		configuration.NameMapFile, _ = flagSet.GetString(nameMapFileFlagNameConstant)
	}
	if flagSet.Changed(engineFlagNameConstant) {
		configuration.Mirror.Engine, _ = flagSet.GetString(engineFlagNameConstant)
	}
	if flagSet.Changed(toolDirectoryFlagNameConstant) {
		configuration.ProjectData.ToolDirectory, _ = flagSet.GetString(toolDirectoryFlagNameConstant)
	}

	toggleTargets := map[string]*bool{
		dryRunFlagNameConstant:       &configuration.DryRun,
		repositoriesFlagNameConstant: &configuration.Steps.Repositories,
		wikisFlagNameConstant:        &configuration.Steps.Wikis,
		projectDataFlagNameConstant:  &configuration.Steps.ProjectData,
		resumeEmptyFlagNameConstant:  &configuration.Mirror.ResumeEmptyDestinations,
	}
	for flagName, target := range toggleTargets {
		if !flagSet.Changed(flagName) {
			continue
		}
		toggleValue, toggleError := flagSet.GetBool(flagName)
		if toggleError != nil {
			return commandOptions{}, toggleError
		}
		*target = toggleValue
	}

	return commandOptions{
		debugLoggingEnabled: debugEnabled,
		configuration:       configuration.Sanitize(),
	}, nil
}

func (builder *CommandBuilder) resolveTokens(executionContext context.Context, configuration CommandConfiguration) (string, string, error) {
	resolver := credentials.NewTokenResolver(builder.EnvironmentLookup, builder.FileReader)

	sourceToken, sourceError := resolver.Resolve(executionContext, configuration.Source.Token, credentials.GitLabTokenEnvironmentVariables)
	if sourceError != nil {
		return "", "", ConfigurationFailure{Field: sourceTokenFieldConstant, Cause: sourceError}
	}

	if !configuration.Steps.Repositories {
		return sourceToken, "", nil
	}

	destinationToken, destinationError := resolver.Resolve(executionContext, configuration.Destination.Token, credentials.GitHubTokenEnvironmentVariables)
	if destinationError != nil {
		return "", "", ConfigurationFailure{Field: destinationTokenFieldConstant, Cause: destinationError}
	}

	return sourceToken, destinationToken, nil
}

func (builder *CommandBuilder) resolveLogger(enableDebug bool) *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if enableDebug {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.DebugLevel))
	}
	return logger
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (CommandExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}

	var executorOptions []execshell.ShellExecutorOption
	if builder.humanReadableLogging() {
		consoleLogger := logger
		if builder.ConsoleLoggerProvider != nil {
			if providedLogger := builder.ConsoleLoggerProvider(); providedLogger != nil {
				consoleLogger = providedLogger
			}
		}
		executorOptions = append(executorOptions, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(consoleLogger)))
	}

	shellExecutor, creationError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), executorOptions...)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

func (builder *CommandBuilder) resolveCollaborators(executionContext context.Context, settings RunSettings) (Collaborators, error) {
	if builder.CollaboratorProvider != nil {
		return builder.CollaboratorProvider(executionContext, settings)
	}
	return NewCollaborators(executionContext, settings)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}

	provided := builder.ConfigurationProvider()
	return provided.Sanitize()
}

func (builder *CommandBuilder) humanReadableLogging() bool {
	if builder.HumanReadableLoggingProvider == nil {
		return false
	}
	return builder.HumanReadableLoggingProvider()
}

func (builder *CommandBuilder) logConfigurationFailure(logger *zap.Logger, failure error) {
	fields := []zap.Field{zap.Error(failure)}
	var configurationFailure ConfigurationFailure
	if errors.As(failure, &configurationFailure) {
		fields = append(fields, zap.String(logFieldFieldConstant, configurationFailure.Field))
	}
	logger.Error(logMessageConfigurationRejectedConstant, fields...)
}

// NewCollaborators wires the GitLab and GitHub clients, the mirror engine and the project data steps.
func NewCollaborators(executionContext context.Context, settings RunSettings) (Collaborators, error) {
	configuration := settings.Configuration

	gitlabClient, gitlabError := gitlabapi.NewClient(gitlabapi.Configuration{
		BaseURL:        configuration.Source.BaseURL,
		Token:          settings.SourceToken,
		Group:          configuration.Source.Group,
		MembershipOnly: configuration.Source.MembershipOnly,
		MaxRetries:     configuration.Source.MaxRetries,
	}, settings.Logger)
	if gitlabError != nil {
		return Collaborators{}, ConfigurationFailure{Field: sourceClientFieldConstant, Cause: gitlabError}
	}

	collaborators := Collaborators{Lister: gitlabClient}

	if configuration.Steps.Repositories {
		ownerType, ownerTypeError := githubapi.ParseOwnerType(configuration.Destination.OwnerType)
		if ownerTypeError != nil {
			return Collaborators{}, ConfigurationFailure{Field: ownerTypeFieldConstant, Cause: ownerTypeError}
		}

		githubClient, githubError := githubapi.NewClient(executionContext, githubapi.Configuration{
			Token:     settings.DestinationToken,
			BaseURL:   configuration.Destination.BaseURL,
			OwnerType: ownerType,
		}, settings.Logger)
		if githubError != nil {
			return Collaborators{}, ConfigurationFailure{Field: destinationClientFieldConstant, Cause: githubError}
		}
		collaborators.Destination = githubClient

		mirrorer, mirrorerError := newMirrorer(settings)
		if mirrorerError != nil {
			return Collaborators{}, mirrorerError
		}
		collaborators.Mirrorer = mirrorer
	}

	if configuration.Steps.Wikis {
		wikiMigrator, wikiError := projectdata.NewWikiMigrator(gitlabClient, settings.Logger)
		if wikiError != nil {
			return Collaborators{}, wikiError
		}
		collaborators.WikiMigrator = wikiMigrator
	}

	if configuration.Steps.ProjectData {
		dataTool, dataToolError := projectdata.NewDataTool(settings.Executor, projectdata.DataToolConfiguration{
			Directory:    configuration.ProjectData.ToolDirectory,
			SettingsFile: configuration.ProjectData.SettingsFile,
			Script:       configuration.ProjectData.Script,
		})
		if dataToolError != nil {
			return Collaborators{}, ConfigurationFailure{Field: toolDirectoryFieldConstant, Cause: dataToolError}
		}
		collaborators.DataTool = dataTool
	}

	return collaborators, nil
}

func newMirrorer(settings RunSettings) (*mirror.Mirrorer, error) {
	configuration := settings.Configuration

	engineName, engineNameError := mirror.ParseEngineName(configuration.Mirror.Engine)
	if engineNameError != nil {
		return nil, ConfigurationFailure{Field: engineFieldConstant, Cause: engineNameError}
	}

	engine, engineError := mirror.NewEngine(engineName, settings.Executor)
	if engineError != nil {
		return nil, ConfigurationFailure{Field: engineFieldConstant, Cause: engineError}
	}

	return mirror.NewMirrorer(
		engine,
		mirror.NewWorkspace(mirror.OSFileSystem{}, configuration.Mirror.WorkspaceParent),
		mirror.Configuration{
			EngineName:             engineName,
			WorkspacePrefix:        configuration.Mirror.WorkspacePrefix,
			SourceCredentials:      mirror.URLCredentials{Username: mirror.GitLabTokenUsername, Token: settings.SourceToken},
			DestinationCredentials: mirror.URLCredentials{Username: mirror.GitHubTokenUsername, Token: settings.DestinationToken},
		},
		settings.Logger,
	)
}
