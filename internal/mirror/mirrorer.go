package mirror

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/lab2hub/internal/execshell"
)

const (
	missingEngineErrorMessage       = "mirror engine not configured"
	missingWorkspaceErrorMessage    = "mirror workspace not configured"
	sourceCredentialsErrorTemplate  = "prepare source URL: %w"
	destinationCredentialsTemplate  = "prepare destination URL: %w"
	mirrorStartedMessageConstant    = "Mirroring repository"
	mirrorCompletedMessageConstant  = "Mirrored repository"
	sourceLogFieldNameConstant      = "source"
	destinationLogFieldNameConstant = "destination"
	engineLogFieldNameConstant      = "engine"
)

// Mirrorer validation errors.
var (
	ErrEngineNotConfigured    = errors.New(missingEngineErrorMessage)
	ErrWorkspaceNotConfigured = errors.New(missingWorkspaceErrorMessage)
)

// Configuration carries the credentials embedded into remote URLs and the workspace naming.
type Configuration struct {
	EngineName             EngineName
	WorkspacePrefix        string
	SourceCredentials      URLCredentials
	DestinationCredentials URLCredentials
}

// Mirrorer performs full-fidelity repository mirrors inside scoped workspaces.
type Mirrorer struct {
	engine        Engine
	workspace     *Workspace
	configuration Configuration
	logger        *zap.Logger
}

// NewMirrorer constructs a Mirrorer.
func NewMirrorer(engine Engine, workspace *Workspace, configuration Configuration, logger *zap.Logger) (*Mirrorer, error) {
	if engine == nil {
		return nil, ErrEngineNotConfigured
	}
	if workspace == nil {
		return nil, ErrWorkspaceNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirrorer{engine: engine, workspace: workspace, configuration: configuration, logger: logger}, nil
}

// Mirror copies every ref of sourceCloneURL onto destinationCloneURL, overwriting destination refs.
func (mirrorer *Mirrorer) Mirror(executionContext context.Context, sourceCloneURL string, destinationCloneURL string) error {
	authenticatedSourceURL, sourceError := AuthenticatedURL(sourceCloneURL, mirrorer.configuration.SourceCredentials)
	if sourceError != nil {
		return fmt.Errorf(sourceCredentialsErrorTemplate, sourceError)
	}
	authenticatedDestinationURL, destinationError := AuthenticatedURL(destinationCloneURL, mirrorer.configuration.DestinationCredentials)
	if destinationError != nil {
		return fmt.Errorf(destinationCredentialsTemplate, destinationError)
	}

	logFields := []zap.Field{
		zap.String(sourceLogFieldNameConstant, execshell.RedactCredentials(sourceCloneURL)),
		zap.String(destinationLogFieldNameConstant, execshell.RedactCredentials(destinationCloneURL)),
		zap.String(engineLogFieldNameConstant, string(mirrorer.configuration.EngineName)),
	}
	mirrorer.logger.Debug(mirrorStartedMessageConstant, logFields...)

	transferError := mirrorer.workspace.WithWorkspace(mirrorer.configuration.WorkspacePrefix, func(workspaceDirectory string) error {
		return mirrorer.engine.Transfer(executionContext, workspaceDirectory, authenticatedSourceURL, authenticatedDestinationURL)
	})
	if transferError != nil {
		return transferError
	}

	mirrorer.logger.Info(mirrorCompletedMessageConstant, logFields...)
	return nil
}

// NewEngine builds the engine selected by name.
func NewEngine(engineName EngineName, executor GitExecutor) (Engine, error) {
	switch engineName {
	case EngineGoGit:
		return NewGoGitEngine(), nil
	case EngineGitCLI, "":
		cliEngine, creationError := NewGitCLIEngine(executor)
		if creationError != nil {
			return nil, creationError
		}
		return cliEngine, nil
	default:
		return nil, fmt.Errorf(unknownEngineErrorTemplate, engineName, EngineGitCLI, EngineGoGit)
	}
}
