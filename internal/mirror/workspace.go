package mirror

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	defaultWorkspacePrefixConstant   = "lab2hub-"
	workspacePatternSuffixConstant   = "*"
	createWorkspaceErrorTemplate     = "create workspace: %w"
	resolveWorkingDirErrorTemplate   = "resolve working directory: %w"
	enterWorkspaceErrorTemplate      = "enter workspace %s: %w"
	restoreWorkingDirErrorTemplate   = "restore working directory %s: %w"
	removeWorkspaceErrorTemplate     = "remove workspace %s: %w"
	systemTemporaryDirectoryConstant = ""
)

// Workspace acquires temporary directories and switches the process into them.
type Workspace struct {
	fileSystem      WorkspaceFileSystem
	parentDirectory string
}

// NewWorkspace constructs a Workspace rooted in parentDirectory, or the system temporary directory when empty.
func NewWorkspace(fileSystem WorkspaceFileSystem, parentDirectory string) *Workspace {
	if fileSystem == nil {
		fileSystem = OSFileSystem{}
	}
	return &Workspace{fileSystem: fileSystem, parentDirectory: strings.TrimSpace(parentDirectory)}
}

// Acquire creates a uniquely named directory and makes it the working directory. The returned path is
// absolute even when the parent directory is relative. The release function restores the previous
// working directory and removes the created directory.
func (workspace *Workspace) Acquire(prefix string) (string, func() error, error) {
	if len(strings.TrimSpace(prefix)) == 0 {
		prefix = defaultWorkspacePrefixConstant
	}

	previousDirectory, getwdError := workspace.fileSystem.Getwd()
	if getwdError != nil {
		return "", nil, fmt.Errorf(resolveWorkingDirErrorTemplate, getwdError)
	}

	parentDirectory := workspace.parentDirectory
	if len(parentDirectory) == 0 {
		parentDirectory = systemTemporaryDirectoryConstant
	}
	workspaceDirectory, createError := workspace.fileSystem.MkdirTemp(parentDirectory, prefix+workspacePatternSuffixConstant)
	if createError != nil {
		return "", nil, fmt.Errorf(createWorkspaceErrorTemplate, createError)
	}
	if !filepath.IsAbs(workspaceDirectory) {
		workspaceDirectory = filepath.Join(previousDirectory, workspaceDirectory)
	}

	if chdirError := workspace.fileSystem.Chdir(workspaceDirectory); chdirError != nil {
		removeError := workspace.fileSystem.RemoveAll(workspaceDirectory)
		return "", nil, errors.Join(fmt.Errorf(enterWorkspaceErrorTemplate, workspaceDirectory, chdirError), wrapRemoveError(workspaceDirectory, removeError))
	}

	release := func() error {
		var restoreFailure error
		if chdirError := workspace.fileSystem.Chdir(previousDirectory); chdirError != nil {
			restoreFailure = fmt.Errorf(restoreWorkingDirErrorTemplate, previousDirectory, chdirError)
		}
		return errors.Join(restoreFailure, wrapRemoveError(workspaceDirectory, workspace.fileSystem.RemoveAll(workspaceDirectory)))
	}
	return workspaceDirectory, release, nil
}

// WithWorkspace runs body inside a freshly acquired workspace and always releases it.
func (workspace *Workspace) WithWorkspace(prefix string, body func(workspaceDirectory string) error) (resultError error) {
	workspaceDirectory, release, acquireError := workspace.Acquire(prefix)
	if acquireError != nil {
		return acquireError
	}
	defer func() {
		resultError = errors.Join(resultError, release())
	}()
	return body(workspaceDirectory)
}

func wrapRemoveError(workspaceDirectory string, removeError error) error {
	if removeError == nil {
		return nil
	}
	return fmt.Errorf(removeWorkspaceErrorTemplate, workspaceDirectory, removeError)
}
