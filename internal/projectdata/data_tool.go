package projectdata

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/temirov/lab2hub/internal/execshell"
)

const (
	npmRunSubcommandConstant       = "run"
	missingExecutorErrorMessage    = "data tool executor not configured"
	missingDirectoryErrorMessage   = "data tool directory not configured"
	missingScriptErrorMessage      = "data tool script not configured"
	missingSettingsFileMessage     = "data tool settings file not configured"
	runDataToolErrorTemplate       = "run data tool script %s: %w"
	rewriteSettingsErrorTemplate   = "prepare data tool settings: %w"
	defaultSettingsFileNameLiteral = "settings.ts"
	defaultScriptNameLiteral       = "start"
)

// Data tool validation errors.
var (
	ErrDataToolExecutorNotConfigured  = errors.New(missingExecutorErrorMessage)
	ErrDataToolDirectoryNotConfigured = errors.New(missingDirectoryErrorMessage)
	ErrDataToolScriptNotConfigured    = errors.New(missingScriptErrorMessage)
	ErrDataToolSettingsNotConfigured  = errors.New(missingSettingsFileMessage)
)

// DefaultSettingsFileName is the settings file rewritten before each run of the data tool.
const DefaultSettingsFileName = defaultSettingsFileNameLiteral

// DefaultScriptName is the npm script that starts the data tool.
const DefaultScriptName = defaultScriptNameLiteral

// NpmExecutor runs npm commands.
type NpmExecutor interface {
	ExecuteNpm(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// DataToolConfiguration locates the external data migration tool.
type DataToolConfiguration struct {
	Directory    string
	SettingsFile string
	Script       string
}

// DataTool points the external migration tool at one project and runs it.
type DataTool struct {
	executor      NpmExecutor
	configuration DataToolConfiguration
}

// NewDataTool validates the configuration and constructs a DataTool.
func NewDataTool(executor NpmExecutor, configuration DataToolConfiguration) (*DataTool, error) {
	if executor == nil {
		return nil, ErrDataToolExecutorNotConfigured
	}
	configuration.Directory = strings.TrimSpace(configuration.Directory)
	configuration.SettingsFile = strings.TrimSpace(configuration.SettingsFile)
	configuration.Script = strings.TrimSpace(configuration.Script)
	if len(configuration.Directory) == 0 {
		return nil, ErrDataToolDirectoryNotConfigured
	}
	if len(configuration.SettingsFile) == 0 {
		return nil, ErrDataToolSettingsNotConfigured
	}
	if len(configuration.Script) == 0 {
		return nil, ErrDataToolScriptNotConfigured
	}
	return &DataTool{executor: executor, configuration: configuration}, nil
}

// SettingsPath returns the absolute or directory-relative path of the settings file.
func (tool *DataTool) SettingsPath() string {
	if filepath.IsAbs(tool.configuration.SettingsFile) {
		return tool.configuration.SettingsFile
	}
	return filepath.Join(tool.configuration.Directory, tool.configuration.SettingsFile)
}

// Run rewrites the settings file for the project and runs the npm script inside the tool directory.
// Only the exit status of the script is observed.
func (tool *DataTool) Run(executionContext context.Context, projectID int, repositoryName string) error {
	if rewriteError := RewriteSettingsFile(tool.SettingsPath(), projectID, repositoryName); rewriteError != nil {
		return fmt.Errorf(rewriteSettingsErrorTemplate, rewriteError)
	}

	_, executionError := tool.executor.ExecuteNpm(executionContext, execshell.CommandDetails{
		Arguments:        []string{npmRunSubcommandConstant, tool.configuration.Script},
		WorkingDirectory: tool.configuration.Directory,
	})
	if executionError != nil {
		return fmt.Errorf(runDataToolErrorTemplate, tool.configuration.Script, executionError)
	}
	return nil
}
