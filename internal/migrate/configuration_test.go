package migrate_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/lab2hub/internal/migrate"
)

func TestParseNameOverrides(testInstance *testing.T) {
	testCases := []struct {
		name          string
		document      string
		expected      map[string]string
		expectedError error
		expectFailure bool
	}{
		{name: "empty_document", document: "  ", expected: map[string]string{}},
		{name: "json_document", document: `{"team2/a": "a-team2", "Team.One/B": "b"}`, expected: map[string]string{"team2/a": "a-team2", "Team.One/B": "b"}},
		{name: "yaml_document", document: "team2/a: a-team2\ngroup/sub/c: c-sub\n", expected: map[string]string{"team2/a": "a-team2", "group/sub/c": "c-sub"}},
		{name: "malformed_document", document: `{"team2/a": [`, expectFailure: true},
		{name: "list_instead_of_mapping", document: "- a\n- b\n", expectFailure: true},
		{name: "blank_project_key", document: `{" ": "x"}`, expectedError: migrate.ErrEmptyNameOverrideProjectKey, expectFailure: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			overrides, parseError := migrate.ParseNameOverrides([]byte(testCase.document))
			if testCase.expectFailure {
				require.Error(subTest, parseError)
				if testCase.expectedError != nil {
					require.ErrorIs(subTest, parseError, testCase.expectedError)
				}
				return
			}
			require.NoError(subTest, parseError)
			require.Equal(subTest, testCase.expected, overrides)
		})
	}
}

func TestCommandConfigurationNameOverridesSource(testInstance *testing.T) {
	fileContents := map[string]string{
		"/etc/lab2hub/names.yaml": "team2/a: from-file\n",
	}
	fileReader := func(path string) ([]byte, error) {
		content, exists := fileContents[path]
		if !exists {
			return nil, errors.New("no such file")
		}
		return []byte(content), nil
	}

	testCases := []struct {
		name          string
		configuration migrate.CommandConfiguration
		expected      map[string]string
		failedField   string
	}{
		{
			name:          "inline_document",
			configuration: migrate.CommandConfiguration{NameMap: `{"team2/a": "inline"}`},
			expected:      map[string]string{"team2/a": "inline"},
		},
		{
			name:          "file_wins_over_inline_document",
			configuration: migrate.CommandConfiguration{NameMap: `{"team2/a": "inline"}`, NameMapFile: "/etc/lab2hub/names.yaml"},
			expected:      map[string]string{"team2/a": "from-file"},
		},
		{
			name:          "missing_file",
			configuration: migrate.CommandConfiguration{NameMapFile: "/missing.yaml"},
			failedField:   "name_map_file",
		},
		{
			name:          "malformed_inline_document",
			configuration: migrate.CommandConfiguration{NameMap: `{"team2/a":`},
			failedField:   "name_map",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			overrides, overridesError := testCase.configuration.NameOverrides(fileReader)
			if len(testCase.failedField) > 0 {
				var configurationFailure migrate.ConfigurationFailure
				require.ErrorAs(subTest, overridesError, &configurationFailure)
				require.Equal(subTest, testCase.failedField, configurationFailure.Field)
				return
			}
			require.NoError(subTest, overridesError)
			require.Equal(subTest, testCase.expected, overrides)
		})
	}
}

func TestCommandConfigurationValidate(testInstance *testing.T) {
	validConfiguration := func() migrate.CommandConfiguration {
		configuration := migrate.DefaultCommandConfiguration()
		configuration.Destination.Organization = "acme"
		return configuration
	}

	testCases := []struct {
		name          string
		mutate        func(configuration *migrate.CommandConfiguration)
		expectedField string
		expectedError error
	}{
		{name: "defaults_with_organization", mutate: func(*migrate.CommandConfiguration) {}},
		{
			name:          "missing_organization",
			mutate:        func(configuration *migrate.CommandConfiguration) { configuration.Destination.Organization = "" },
			expectedField: "destination.organization",
			expectedError: migrate.ErrOrganizationNotConfigured,
		},
		{
			name: "organization_not_needed_without_repository_step",
			mutate: func(configuration *migrate.CommandConfiguration) {
				configuration.Destination.Organization = ""
				configuration.Steps = migrate.StepsConfiguration{Wikis: true}
			},
		},
		{
			name:          "no_steps_enabled",
			mutate:        func(configuration *migrate.CommandConfiguration) { configuration.Steps = migrate.StepsConfiguration{} },
			expectedField: "steps",
			expectedError: migrate.ErrNoStepsEnabled,
		},
		{
			name:          "unknown_engine",
			mutate:        func(configuration *migrate.CommandConfiguration) { configuration.Mirror.Engine = "rsync" },
			expectedField: "mirror.engine",
		},
		{
			name:          "unknown_owner_type",
			mutate:        func(configuration *migrate.CommandConfiguration) { configuration.Destination.OwnerType = "team" },
			expectedField: "destination.owner_type",
		},
		{
			name:          "project_data_without_tool_directory",
			mutate:        func(configuration *migrate.CommandConfiguration) { configuration.Steps.ProjectData = true },
			expectedField: "project_data.tool_directory",
			expectedError: migrate.ErrToolDirectoryNotConfigured,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			configuration := validConfiguration()
			testCase.mutate(&configuration)

			validationError := configuration.Validate()
			if len(testCase.expectedField) == 0 {
				require.NoError(subTest, validationError)
				return
			}

			var configurationFailure migrate.ConfigurationFailure
			require.ErrorAs(subTest, validationError, &configurationFailure)
			require.Equal(subTest, testCase.expectedField, configurationFailure.Field)
			if testCase.expectedError != nil {
				require.ErrorIs(subTest, validationError, testCase.expectedError)
			}
		})
	}
}

func TestCommandConfigurationSanitize(testInstance *testing.T) {
	configuration := migrate.CommandConfiguration{
		Source:      migrate.SourceConfiguration{BaseURL: "  ", Group: " /platform/tools/ "},
		Destination: migrate.DestinationConfiguration{Organization: " acme ", OwnerType: ""},
		Ignore:      []string{" team1/a ", "", "team1/a", "/team1/b/"},
		Mirror:      migrate.MirrorConfiguration{Engine: " go-git ", WorkspacePrefix: ""},
		ProjectData: migrate.ProjectDataConfiguration{ToolDirectory: "/opt/tool/../tool", Script: " "},
	}

	sanitized := configuration.Sanitize()

	require.Equal(testInstance, "https://gitlab.com", sanitized.Source.BaseURL)
	require.Equal(testInstance, "platform/tools", sanitized.Source.Group)
	require.Equal(testInstance, "acme", sanitized.Destination.Organization)
	require.Equal(testInstance, "org", sanitized.Destination.OwnerType)
	require.Equal(testInstance, []string{"team1/a", "team1/b"}, sanitized.Ignore)
	require.Equal(testInstance, "go-git", sanitized.Mirror.Engine)
	require.Equal(testInstance, "lab2hub-", sanitized.Mirror.WorkspacePrefix)
	require.Equal(testInstance, "/opt/tool", sanitized.ProjectData.ToolDirectory)
	require.Equal(testInstance, "settings.ts", sanitized.ProjectData.SettingsFile)
	require.Equal(testInstance, "start", sanitized.ProjectData.Script)
}

func TestDefaultConfigurationValuesArePrefixed(testInstance *testing.T) {
	values := migrate.DefaultConfigurationValues("tools.migration")

	require.Equal(testInstance, true, values["tools.migration.steps.repositories"])
	require.Equal(testInstance, false, values["tools.migration.steps.wikis"])
	require.Equal(testInstance, "git", values["tools.migration.mirror.engine"])
	require.Equal(testInstance, "https://gitlab.com", values["tools.migration.source.base_url"])
	require.Equal(testInstance, true, values["tools.migration.destination.private"])
	require.NotContains(testInstance, values, "steps.repositories")

	unprefixed := migrate.DefaultConfigurationValues("")
	require.Contains(testInstance, unprefixed, "dry_run")
}
