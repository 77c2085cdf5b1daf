package testsupport

import (
	"context"
	"fmt"
	"strings"

	"github.com/temirov/lab2hub/internal/catalog"
	"github.com/temirov/lab2hub/internal/execshell"
	"github.com/temirov/lab2hub/internal/githubapi"
	"github.com/temirov/lab2hub/internal/projectdata"
	"github.com/temirov/lab2hub/internal/report"
)

const (
	cloneURLTemplate      = "https://github.example.com/%s/%s.git"
	repositoryKeyTemplate = "%s/%s"
)

// ProjectListerStub serves pre-built pages of projects.
type ProjectListerStub struct {
	Pages          [][]catalog.ProjectRecord
	PageErrors     map[int]error
	RequestedPages []int
}

// ListProjects records the requested page and returns the configured page, or an empty page past the end.
func (lister *ProjectListerStub) ListProjects(_ context.Context, page int, _ int) ([]catalog.ProjectRecord, error) {
	lister.RequestedPages = append(lister.RequestedPages, page)
	if pageError, exists := lister.PageErrors[page]; exists {
		return nil, pageError
	}
	if page < 1 || page > len(lister.Pages) {
		return nil, nil
	}
	return append([]catalog.ProjectRecord{}, lister.Pages[page-1]...), nil
}

// DestinationStub is an in-memory destination organization.
type DestinationStub struct {
	Repositories      map[string]bool
	EmptyRepositories map[string]bool
	ExistsErrors      map[string]error
	CreateErrors      map[string]error
	ContentErrors     map[string]error
	CreatedPrivate    map[string]bool
	Descriptions      map[string]string
	ExistenceChecks   []string
	CreatedNames      []string
	ContentChecks     []string
}

// NewDestinationStub constructs a DestinationStub that already hosts existingNames under owner.
func NewDestinationStub(owner string, existingNames ...string) *DestinationStub {
	destination := &DestinationStub{
		Repositories:      map[string]bool{},
		EmptyRepositories: map[string]bool{},
		ExistsErrors:      map[string]error{},
		CreateErrors:      map[string]error{},
		ContentErrors:     map[string]error{},
		CreatedPrivate:    map[string]bool{},
		Descriptions:      map[string]string{},
	}
	for _, existingName := range existingNames {
		destination.Repositories[repositoryKey(owner, existingName)] = true
	}
	return destination
}

// RepositoryExists reports whether the repository was seeded or created.
func (destination *DestinationStub) RepositoryExists(_ context.Context, owner string, name string) (bool, error) {
	key := repositoryKey(owner, name)
	destination.ExistenceChecks = append(destination.ExistenceChecks, key)
	if existsError, exists := destination.ExistsErrors[key]; exists {
		return false, existsError
	}
	return destination.Repositories[key], nil
}

// GetRepository returns the repository when present.
func (destination *DestinationStub) GetRepository(_ context.Context, owner string, name string) (githubapi.Repository, error) {
	key := repositoryKey(owner, name)
	if !destination.Repositories[key] {
		return githubapi.Repository{}, githubapi.ErrRepositoryNotFound
	}
	return githubapi.Repository{FullName: key, CloneURL: CloneURL(owner, name)}, nil
}

// CreateRepository records the creation and marks the repository as present and empty.
func (destination *DestinationStub) CreateRepository(_ context.Context, owner string, name string, description string, private bool) (githubapi.Repository, error) {
	key := repositoryKey(owner, name)
	if createError, exists := destination.CreateErrors[key]; exists {
		return githubapi.Repository{}, createError
	}
	destination.CreatedNames = append(destination.CreatedNames, key)
	destination.Repositories[key] = true
	destination.EmptyRepositories[key] = true
	destination.CreatedPrivate[key] = private
	destination.Descriptions[key] = description
	return githubapi.Repository{FullName: key, CloneURL: CloneURL(owner, name)}, nil
}

// HasContent reports false only for repositories marked empty.
func (destination *DestinationStub) HasContent(_ context.Context, owner string, name string) (bool, error) {
	key := repositoryKey(owner, name)
	destination.ContentChecks = append(destination.ContentChecks, key)
	if contentError, exists := destination.ContentErrors[key]; exists {
		return false, contentError
	}
	return !destination.EmptyRepositories[key], nil
}

// MirrorRequest captures one mirror invocation.
type MirrorRequest struct {
	SourceCloneURL      string
	DestinationCloneURL string
}

// MirrorerStub records mirror requests and fails for configured sources.
type MirrorerStub struct {
	Requests      []MirrorRequest
	SourceErrors  map[string]error
	OnMirror      func(request MirrorRequest)
	ContextErrors []error
}

// Mirror records the request and returns the configured error for the source.
func (mirrorer *MirrorerStub) Mirror(executionContext context.Context, sourceCloneURL string, destinationCloneURL string) error {
	request := MirrorRequest{SourceCloneURL: sourceCloneURL, DestinationCloneURL: destinationCloneURL}
	mirrorer.Requests = append(mirrorer.Requests, request)
	mirrorer.ContextErrors = append(mirrorer.ContextErrors, executionContext.Err())
	if mirrorer.OnMirror != nil {
		mirrorer.OnMirror(request)
	}
	if mirrorError, exists := mirrorer.SourceErrors[sourceCloneURL]; exists {
		return mirrorError
	}
	return nil
}

// WikiMigratorStub records wiki migrations.
type WikiMigratorStub struct {
	Projects      []projectdata.WikiProject
	CreatedIssues int
	ProjectErrors map[string]error
}

// MigrateWikis records the project and returns the configured result.
func (migrator *WikiMigratorStub) MigrateWikis(_ context.Context, project projectdata.WikiProject) (int, error) {
	migrator.Projects = append(migrator.Projects, project)
	if wikiError, exists := migrator.ProjectErrors[project.PathWithNamespace]; exists {
		return 0, wikiError
	}
	return migrator.CreatedIssues, nil
}

// DataToolRun captures one data tool invocation.
type DataToolRun struct {
	ProjectID      int
	RepositoryName string
}

// DataToolStub records data tool runs.
type DataToolStub struct {
	Runs     []DataToolRun
	RunError error
}

// Run records the invocation.
func (tool *DataToolStub) Run(_ context.Context, projectID int, repositoryName string) error {
	tool.Runs = append(tool.Runs, DataToolRun{ProjectID: projectID, RepositoryName: repositoryName})
	return tool.RunError
}

// ReporterStub collects report lines and summaries.
type ReporterStub struct {
	Lines     []string
	Summaries []report.Summary
}

// Printf records the formatted line.
func (reporter *ReporterStub) Printf(format string, args ...any) {
	reporter.Lines = append(reporter.Lines, strings.TrimSuffix(fmt.Sprintf(format, args...), "\n"))
}

// PrintSummary records the summary.
func (reporter *ReporterStub) PrintSummary(summary report.Summary) {
	reporter.Summaries = append(reporter.Summaries, summary)
}

// CommandExecutorStub records git and npm invocations without running processes.
type CommandExecutorStub struct {
	GitCommands []execshell.CommandDetails
	NpmCommands []execshell.CommandDetails
}

// ExecuteGit records the git command.
func (executor *CommandExecutorStub) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.GitCommands = append(executor.GitCommands, details)
	return execshell.ExecutionResult{ExitCode: 0}, nil
}

// ExecuteNpm records the npm command.
func (executor *CommandExecutorStub) ExecuteNpm(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.NpmCommands = append(executor.NpmCommands, details)
	return execshell.ExecutionResult{ExitCode: 0}, nil
}

// CloneURL returns the clone URL the DestinationStub reports for a repository.
func CloneURL(owner string, name string) string {
	return fmt.Sprintf(cloneURLTemplate, owner, name)
}

func repositoryKey(owner string, name string) string {
	return fmt.Sprintf(repositoryKeyTemplate, owner, name)
}
