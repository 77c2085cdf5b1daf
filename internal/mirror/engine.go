package mirror

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/temirov/lab2hub/internal/execshell"
)

// EngineName selects the mirror implementation.
type EngineName string

// Supported engines.
const (
	EngineGitCLI EngineName = "git"
	EngineGoGit  EngineName = "go-git"
)

const (
	gitCloneSubcommandConstant     = "clone"
	gitPushSubcommandConstant      = "push"
	gitMirrorFlagConstant          = "--mirror"
	gitNoVerifyFlagConstant        = "--no-verify"
	currentDirectoryConstant       = "."
	mirrorRefSpecConstant          = "+refs/*:refs/*"
	referencePrefixConstant        = "refs/"
	hiddenPullReferencePrefix      = "refs/pull/"
	deleteRefSpecPrefixConstant    = ":"
	destinationRemoteNameConstant  = "destination"
	listReferencesErrorTemplate    = "list destination refs: %w"
	localReferencesErrorTemplate   = "list mirrored refs: %w"
	pruneErrorTemplate             = "delete stale destination refs: %w"
	cloneErrorTemplate             = "mirror clone: %w"
	pushErrorTemplate              = "mirror push: %w"
	unknownEngineErrorTemplate     = "unknown mirror engine %q (expected %s or %s)"
	missingGitExecutorErrorMessage = "git executor not configured"
	gitTerminalPromptVariableName  = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledValue = "0"
)

// ErrGitExecutorNotConfigured indicates that the git CLI engine has no executor.
var ErrGitExecutorNotConfigured = errors.New(missingGitExecutorErrorMessage)

// ParseEngineName normalizes an engine name. An empty value selects the git CLI engine.
func ParseEngineName(value string) (EngineName, error) {
	switch EngineName(strings.ToLower(strings.TrimSpace(value))) {
	case "", EngineGitCLI, "cli":
		return EngineGitCLI, nil
	case EngineGoGit, "gogit":
		return EngineGoGit, nil
	default:
		return "", fmt.Errorf(unknownEngineErrorTemplate, value, EngineGitCLI, EngineGoGit)
	}
}

// Engine copies all refs from sourceURL to destinationURL using workspaceDirectory as scratch space.
type Engine interface {
	Transfer(executionContext context.Context, workspaceDirectory string, sourceURL string, destinationURL string) error
}

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// GitCLIEngine mirrors with "git clone --mirror" followed by "git push --no-verify --mirror".
type GitCLIEngine struct {
	executor GitExecutor
}

// NewGitCLIEngine constructs a GitCLIEngine.
func NewGitCLIEngine(executor GitExecutor) (*GitCLIEngine, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &GitCLIEngine{executor: executor}, nil
}

// Transfer clones a bare mirror into the workspace and pushes every ref to the destination, bypassing hooks.
func (engine *GitCLIEngine) Transfer(executionContext context.Context, workspaceDirectory string, sourceURL string, destinationURL string) error {
	environment := map[string]string{gitTerminalPromptVariableName: gitTerminalPromptDisabledValue}

	_, cloneError := engine.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            []string{gitCloneSubcommandConstant, gitMirrorFlagConstant, sourceURL, currentDirectoryConstant},
		WorkingDirectory:     workspaceDirectory,
		EnvironmentVariables: environment,
	})
	if cloneError != nil {
		return fmt.Errorf(cloneErrorTemplate, cloneError)
	}

	_, pushError := engine.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            []string{gitPushSubcommandConstant, gitNoVerifyFlagConstant, gitMirrorFlagConstant, destinationURL},
		WorkingDirectory:     workspaceDirectory,
		EnvironmentVariables: environment,
	})
	if pushError != nil {
		return fmt.Errorf(pushErrorTemplate, pushError)
	}
	return nil
}

// GoGitEngine mirrors in-process: a bare mirror clone, then a forced, pruning push of every ref.
type GoGitEngine struct{}

// NewGoGitEngine constructs a GoGitEngine.
func NewGoGitEngine() *GoGitEngine {
	return &GoGitEngine{}
}

// Transfer implements Engine.
func (engine *GoGitEngine) Transfer(executionContext context.Context, workspaceDirectory string, sourceURL string, destinationURL string) error {
	plainSourceURL, sourceCredentials, sourceError := splitURLCredentials(sourceURL)
	if sourceError != nil {
		return fmt.Errorf(cloneErrorTemplate, sourceError)
	}
	plainDestinationURL, destinationCredentials, destinationError := splitURLCredentials(destinationURL)
	if destinationError != nil {
		return fmt.Errorf(pushErrorTemplate, destinationError)
	}

	repository, cloneError := git.PlainCloneContext(executionContext, workspaceDirectory, true, &git.CloneOptions{
		URL:    plainSourceURL,
		Auth:   basicAuth(sourceCredentials),
		Mirror: true,
	})
	if cloneError != nil {
		return fmt.Errorf(cloneErrorTemplate, redactError(cloneError))
	}

	destinationAuth := basicAuth(destinationCredentials)
	pushError := repository.PushContext(executionContext, &git.PushOptions{
		RemoteURL: plainDestinationURL,
		RefSpecs:  []config.RefSpec{config.RefSpec(mirrorRefSpecConstant)},
		Auth:      destinationAuth,
		Force:     true,
	})
	if pushError != nil && !errors.Is(pushError, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf(pushErrorTemplate, redactError(pushError))
	}

	return deleteStaleReferences(executionContext, repository, plainDestinationURL, destinationAuth)
}

// deleteStaleReferences removes destination refs that the mirror clone does not have.
func deleteStaleReferences(executionContext context.Context, repository *git.Repository, destinationURL string, auth transport.AuthMethod) error {
	destinationRemote := git.NewRemote(repository.Storer, &config.RemoteConfig{
		Name: destinationRemoteNameConstant,
		URLs: []string{destinationURL},
	})
	remoteReferences, listError := destinationRemote.ListContext(executionContext, &git.ListOptions{Auth: auth})
	if listError != nil {
		if errors.Is(listError, transport.ErrEmptyRemoteRepository) {
			return nil
		}
		return fmt.Errorf(listReferencesErrorTemplate, redactError(listError))
	}

	localReferenceNames, localError := mirroredReferenceNames(repository)
	if localError != nil {
		return fmt.Errorf(localReferencesErrorTemplate, localError)
	}

	deletions := make([]config.RefSpec, 0)
	for _, remoteReference := range remoteReferences {
		referenceName := remoteReference.Name().String()
		if !strings.HasPrefix(referenceName, referencePrefixConstant) || strings.HasPrefix(referenceName, hiddenPullReferencePrefix) {
			continue
		}
		if _, mirrored := localReferenceNames[referenceName]; mirrored {
			continue
		}
		deletions = append(deletions, config.RefSpec(deleteRefSpecPrefixConstant+referenceName))
	}
	if len(deletions) == 0 {
		return nil
	}

	deletionError := repository.PushContext(executionContext, &git.PushOptions{
		RemoteURL: destinationURL,
		RefSpecs:  deletions,
		Auth:      auth,
	})
	if deletionError != nil && !errors.Is(deletionError, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf(pruneErrorTemplate, redactError(deletionError))
	}
	return nil
}

func mirroredReferenceNames(repository *git.Repository) (map[string]struct{}, error) {
	references, iterationError := repository.References()
	if iterationError != nil {
		return nil, iterationError
	}
	names := make(map[string]struct{})
	forEachError := references.ForEach(func(reference *plumbing.Reference) error {
		names[reference.Name().String()] = struct{}{}
		return nil
	})
	return names, forEachError
}

func basicAuth(credentials URLCredentials) transport.AuthMethod {
	if len(credentials.Token) == 0 {
		return nil
	}
	return &githttp.BasicAuth{Username: credentials.Username, Password: credentials.Token}
}

func redactError(failure error) error {
	return errors.New(execshell.RedactCredentials(failure.Error()))
}
