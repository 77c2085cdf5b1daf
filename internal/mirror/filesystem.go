package mirror

import "os"

// WorkspaceFileSystem exposes the filesystem operations a workspace needs.
type WorkspaceFileSystem interface {
	MkdirTemp(parentDirectory string, pattern string) (string, error)
	Getwd() (string, error)
	Chdir(directory string) error
	RemoveAll(path string) error
}

// OSFileSystem implements WorkspaceFileSystem using the operating system primitives.
type OSFileSystem struct{}

// MkdirTemp creates a uniquely named directory.
func (OSFileSystem) MkdirTemp(parentDirectory string, pattern string) (string, error) {
	return os.MkdirTemp(parentDirectory, pattern)
}

// Getwd returns the process working directory.
func (OSFileSystem) Getwd() (string, error) {
	return os.Getwd()
}

// Chdir changes the process working directory.
func (OSFileSystem) Chdir(directory string) error {
	return os.Chdir(directory)
}

// RemoveAll deletes a path and its children.
func (OSFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}
