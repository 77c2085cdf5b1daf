package migrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/lab2hub/internal/catalog"
	"github.com/temirov/lab2hub/internal/githubapi"
	"github.com/temirov/lab2hub/internal/projectdata"
	"github.com/temirov/lab2hub/internal/report"
)

const (
	missingDestinationErrorMessage      = "destination client not configured"
	missingMirrorerErrorMessage         = "mirrorer not configured"
	missingWikiMigratorErrorMessage     = "wiki migrator not configured"
	missingDataToolErrorMessage         = "data tool not configured"
	existenceCheckErrorTemplate         = "check destination %s: %w"
	contentCheckErrorTemplate           = "inspect destination %s: %w"
	createRepositoryErrorTemplate       = "create destination %s: %w"
	lookupRepositoryErrorTemplate       = "look up destination %s: %w"
	mirrorErrorTemplate                 = "mirror into %s: %w"
	qualifiedNameTemplate               = "%s/%s"
	migratingLineTemplate               = "Migrating %s to %s..."
	resumingLineTemplate                = "Resuming migration of %s into empty %s..."
	alreadyExistsLineTemplate           = "%s already exists"
	createdEmptyLineTemplate            = "%s has no commits; created %s without pushing"
	dataOnlyLineTemplate                = "Migrating project data of %s to %s..."
	failedLineTemplate                  = "Failed migrating %s: %v"
	dryRunMigrateLineTemplate           = "Would migrate %s to %s"
	dryRunCreateEmptyLineTemplate       = "Would create empty %s for %s"
	dryRunResumeLineTemplate            = "Would resume migration of %s into empty %s"
	logMessageProjectIgnoredConstant    = "Skipping ignored project"
	logMessageProjectStartedConstant    = "Reconciling project"
	logMessageStepFailedConstant        = "Project migration step failed"
	logMessageWikisMigratedConstant     = "Wiki pages converted to issues"
	logMessageDataStepsSkippedConstant  = "Project data steps skipped in dry run"
	logMessageRunCompletedConstant      = "Migration run completed"
	logFieldProjectConstant             = "project"
	logFieldDestinationConstant         = "destination"
	logFieldStepConstant                = "step"
	logFieldCreatedIssuesConstant       = "created_issues"
	logFieldMigratedCountConstant       = "migrated"
	logFieldAlreadyPresentCountConstant = "already_present"
	logFieldTotalCountConstant          = "total"
	logFieldCreatedEmptyCountConstant   = "created_empty"
	logFieldSkippedCountConstant        = "skipped"
	logFieldFailedCountConstant         = "failed"
	logFieldDryRunConstant              = "dry_run"
)

// Reconciler dependency errors.
var (
	ErrDestinationNotConfigured  = errors.New(missingDestinationErrorMessage)
	ErrMirrorerNotConfigured     = errors.New(missingMirrorerErrorMessage)
	ErrWikiMigratorNotConfigured = errors.New(missingWikiMigratorErrorMessage)
	ErrDataToolNotConfigured     = errors.New(missingDataToolErrorMessage)
)

// Destination manages repositories on the destination platform.
type Destination interface {
	RepositoryExists(executionContext context.Context, owner string, name string) (bool, error)
	GetRepository(executionContext context.Context, owner string, name string) (githubapi.Repository, error)
	CreateRepository(executionContext context.Context, owner string, name string, description string, private bool) (githubapi.Repository, error)
	HasContent(executionContext context.Context, owner string, name string) (bool, error)
}

// Mirrorer copies every ref of a source repository into a destination repository.
type Mirrorer interface {
	Mirror(executionContext context.Context, sourceCloneURL string, destinationCloneURL string) error
}

// WikiMigrator converts the wiki of a source project into issues.
type WikiMigrator interface {
	MigrateWikis(executionContext context.Context, project projectdata.WikiProject) (int, error)
}

// DataTool runs the external project data migration for one project.
type DataTool interface {
	Run(executionContext context.Context, projectID int, repositoryName string) error
}

// StepToggles enables the per-project steps independently.
type StepToggles struct {
	Repositories bool
	Wikis        bool
	ProjectData  bool
}

// ReconcilerConfiguration holds the immutable inputs of a run.
type ReconcilerConfiguration struct {
	Organization            string
	NameOverrides           map[string]string
	IgnoreSet               map[string]struct{}
	Steps                   StepToggles
	Private                 bool
	ResumeEmptyDestinations bool
	DryRun                  bool
}

// ReconcilerDependencies lists the collaborators used by the reconciler.
// Only the collaborators of enabled steps are required.
type ReconcilerDependencies struct {
	Destination  Destination
	Mirrorer     Mirrorer
	WikiMigrator WikiMigrator
	DataTool     DataTool
	Reporter     report.Reporter
	Logger       *zap.Logger
}

// Reconciler brings the destination organization in line with the source catalog.
type Reconciler struct {
	dependencies  ReconcilerDependencies
	configuration ReconcilerConfiguration
	logger        *zap.Logger
	reporter      report.Reporter
}

// NewReconciler validates the dependencies required by the enabled steps.
func NewReconciler(dependencies ReconcilerDependencies, configuration ReconcilerConfiguration) (*Reconciler, error) {
	if configuration.Steps.Repositories {
		if dependencies.Destination == nil {
			return nil, ErrDestinationNotConfigured
		}
		if dependencies.Mirrorer == nil {
			return nil, ErrMirrorerNotConfigured
		}
	}
	if configuration.Steps.Wikis && dependencies.WikiMigrator == nil {
		return nil, ErrWikiMigratorNotConfigured
	}
	if configuration.Steps.ProjectData && dependencies.DataTool == nil {
		return nil, ErrDataToolNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reporter := dependencies.Reporter
	if reporter == nil {
		reporter = report.NewWriterReporter(io.Discard, false)
	}

	return &Reconciler{
		dependencies:  dependencies,
		configuration: configuration,
		logger:        logger,
		reporter:      reporter,
	}, nil
}

// NewIgnoreSet builds an ignore set from full project paths, dropping blanks.
func NewIgnoreSet(projectPaths []string) map[string]struct{} {
	ignoreSet := make(map[string]struct{}, len(projectPaths))
	for _, projectPath := range projectPaths {
		trimmedPath := strings.TrimSpace(projectPath)
		if len(trimmedPath) == 0 {
			continue
		}
		ignoreSet[trimmedPath] = struct{}{}
	}
	return ignoreSet
}

// Reconcile processes the catalog strictly in order. Per-project failures are recorded in the report;
// only cancellation of the context stops the loop early.
func (reconciler *Reconciler) Reconcile(executionContext context.Context, projects []catalog.ProjectRecord) (RunReport, error) {
	runReport := RunReport{
		Outcomes: make([]ProjectOutcome, 0, len(projects)),
		DryRun:   reconciler.configuration.DryRun,
	}

	for _, project := range projects {
		if contextError := executionContext.Err(); contextError != nil {
			return runReport, contextError
		}

		projectOutcome, interruption := reconciler.reconcileProject(executionContext, project)
		runReport.Outcomes = append(runReport.Outcomes, projectOutcome)
		if interruption != nil {
			return runReport, interruption
		}
	}

	summary := runReport.Summary()
	reconciler.reporter.PrintSummary(summary)
	reconciler.logger.Info(
		logMessageRunCompletedConstant,
		zap.Int(logFieldMigratedCountConstant, summary.Migrated),
		zap.Int(logFieldAlreadyPresentCountConstant, summary.AlreadyPresent),
		zap.Int(logFieldTotalCountConstant, summary.Total),
		zap.Int(logFieldCreatedEmptyCountConstant, summary.CreatedEmpty),
		zap.Int(logFieldSkippedCountConstant, summary.Skipped),
		zap.Int(logFieldFailedCountConstant, summary.Failed),
		zap.Bool(logFieldDryRunConstant, summary.DryRun),
	)

	return runReport, nil
}

func (reconciler *Reconciler) reconcileProject(executionContext context.Context, project catalog.ProjectRecord) (ProjectOutcome, error) {
	if _, ignored := reconciler.configuration.IgnoreSet[project.PathWithNamespace]; ignored {
		reconciler.logger.Info(logMessageProjectIgnoredConstant, zap.String(logFieldProjectConstant, project.PathWithNamespace))
		return ProjectOutcome{Project: project.PathWithNamespace, Outcome: OutcomeSkipped}, nil
	}

	destinationName := DestinationName(project, reconciler.configuration.NameOverrides)
	projectOutcome := ProjectOutcome{Project: project.PathWithNamespace, DestinationName: destinationName}

	reconciler.logger.Debug(
		logMessageProjectStartedConstant,
		zap.String(logFieldProjectConstant, project.PathWithNamespace),
		zap.String(logFieldDestinationConstant, reconciler.qualifiedName(destinationName)),
	)

	if reconciler.configuration.Steps.Repositories {
		repositoryOutcome, repositoryError := reconciler.reconcileRepository(executionContext, project, destinationName)
		if repositoryError != nil {
			projectOutcome.Outcome = OutcomeFailed
			if interruptionError := interruption(executionContext, repositoryError); interruptionError != nil {
				return projectOutcome, interruptionError
			}
			reconciler.recordFailure(&projectOutcome, StepRepository, repositoryError)
			return projectOutcome, nil
		}
		projectOutcome.Outcome = repositoryOutcome
	} else {
		projectOutcome.Outcome = OutcomeDataOnly
		if reconciler.configuration.Steps.Wikis || reconciler.configuration.Steps.ProjectData {
			reconciler.reporter.Printf(dataOnlyLineTemplate, project.PathWithNamespace, reconciler.qualifiedName(destinationName))
		}
	}

	return projectOutcome, reconciler.migrateProjectData(executionContext, project, &projectOutcome)
}

func (reconciler *Reconciler) reconcileRepository(executionContext context.Context, project catalog.ProjectRecord, destinationName string) (Outcome, error) {
	organization := reconciler.configuration.Organization
	qualifiedName := reconciler.qualifiedName(destinationName)

	exists, existsError := reconciler.dependencies.Destination.RepositoryExists(executionContext, organization, destinationName)
	if existsError != nil {
		return "", fmt.Errorf(existenceCheckErrorTemplate, qualifiedName, existsError)
	}
	if exists {
		return reconciler.reconcileExistingRepository(executionContext, project, destinationName)
	}

	if reconciler.configuration.DryRun {
		if project.IsEmpty {
			reconciler.reporter.Printf(dryRunCreateEmptyLineTemplate, qualifiedName, project.PathWithNamespace)
			return OutcomeCreatedEmpty, nil
		}
		reconciler.reporter.Printf(dryRunMigrateLineTemplate, project.PathWithNamespace, qualifiedName)
		return OutcomeMigrated, nil
	}

	reconciler.reporter.Printf(migratingLineTemplate, project.PathWithNamespace, qualifiedName)

	repository, createError := reconciler.dependencies.Destination.CreateRepository(
		executionContext,
		organization,
		destinationName,
		project.Description,
		reconciler.configuration.Private,
	)
	if createError != nil {
		return "", fmt.Errorf(createRepositoryErrorTemplate, qualifiedName, createError)
	}

	if project.IsEmpty {
		reconciler.reporter.Printf(createdEmptyLineTemplate, project.PathWithNamespace, qualifiedName)
		return OutcomeCreatedEmpty, nil
	}

	if mirrorError := reconciler.dependencies.Mirrorer.Mirror(executionContext, project.CloneURL, repository.CloneURL); mirrorError != nil {
		return "", fmt.Errorf(mirrorErrorTemplate, qualifiedName, mirrorError)
	}

	return OutcomeMigrated, nil
}

func (reconciler *Reconciler) reconcileExistingRepository(executionContext context.Context, project catalog.ProjectRecord, destinationName string) (Outcome, error) {
	organization := reconciler.configuration.Organization
	qualifiedName := reconciler.qualifiedName(destinationName)

	if !reconciler.configuration.ResumeEmptyDestinations || project.IsEmpty {
		reconciler.reporter.Printf(alreadyExistsLineTemplate, qualifiedName)
		return OutcomeAlreadyExists, nil
	}

	hasContent, contentError := reconciler.dependencies.Destination.HasContent(executionContext, organization, destinationName)
	if contentError != nil {
		return "", fmt.Errorf(contentCheckErrorTemplate, qualifiedName, contentError)
	}
	if hasContent {
		reconciler.reporter.Printf(alreadyExistsLineTemplate, qualifiedName)
		return OutcomeAlreadyExists, nil
	}

	if reconciler.configuration.DryRun {
		reconciler.reporter.Printf(dryRunResumeLineTemplate, project.PathWithNamespace, qualifiedName)
		return OutcomeMigrated, nil
	}

	repository, lookupError := reconciler.dependencies.Destination.GetRepository(executionContext, organization, destinationName)
	if lookupError != nil {
		return "", fmt.Errorf(lookupRepositoryErrorTemplate, qualifiedName, lookupError)
	}

	reconciler.reporter.Printf(resumingLineTemplate, project.PathWithNamespace, qualifiedName)

	if mirrorError := reconciler.dependencies.Mirrorer.Mirror(executionContext, project.CloneURL, repository.CloneURL); mirrorError != nil {
		return "", fmt.Errorf(mirrorErrorTemplate, qualifiedName, mirrorError)
	}

	return OutcomeMigrated, nil
}

func (reconciler *Reconciler) migrateProjectData(executionContext context.Context, project catalog.ProjectRecord, projectOutcome *ProjectOutcome) error {
	steps := reconciler.configuration.Steps
	if !steps.Wikis && !steps.ProjectData {
		return nil
	}

	if reconciler.configuration.DryRun {
		reconciler.logger.Debug(logMessageDataStepsSkippedConstant, zap.String(logFieldProjectConstant, project.PathWithNamespace))
		return nil
	}

	if steps.Wikis {
		createdIssues, wikiError := reconciler.dependencies.WikiMigrator.MigrateWikis(executionContext, projectdata.WikiProject{
			ID:                project.ID,
			PathWithNamespace: project.PathWithNamespace,
		})
		projectOutcome.WikiIssuesCreated = createdIssues
		if wikiError != nil {
			if interruptionError := interruption(executionContext, wikiError); interruptionError != nil {
				return interruptionError
			}
			reconciler.recordFailure(projectOutcome, StepWikis, wikiError)
		} else {
			reconciler.logger.Info(
				logMessageWikisMigratedConstant,
				zap.String(logFieldProjectConstant, project.PathWithNamespace),
				zap.Int(logFieldCreatedIssuesConstant, createdIssues),
			)
		}
	}

	if steps.ProjectData {
		if dataError := reconciler.dependencies.DataTool.Run(executionContext, project.ID, projectOutcome.DestinationName); dataError != nil {
			if interruptionError := interruption(executionContext, dataError); interruptionError != nil {
				return interruptionError
			}
			reconciler.recordFailure(projectOutcome, StepProjectData, dataError)
		}
	}

	return nil
}

func (reconciler *Reconciler) recordFailure(projectOutcome *ProjectOutcome, step Step, cause error) {
	failure := ProjectFailure{Project: projectOutcome.Project, Step: step, Cause: cause}
	projectOutcome.Failures = append(projectOutcome.Failures, failure)

	reconciler.reporter.Printf(failedLineTemplate, projectOutcome.Project, cause)
	reconciler.logger.Warn(
		logMessageStepFailedConstant,
		zap.String(logFieldProjectConstant, projectOutcome.Project),
		zap.String(logFieldStepConstant, string(step)),
		zap.Error(cause),
	)
}

func (reconciler *Reconciler) qualifiedName(destinationName string) string {
	if len(reconciler.configuration.Organization) == 0 {
		return destinationName
	}
	return fmt.Sprintf(qualifiedNameTemplate, reconciler.configuration.Organization, destinationName)
}

// interruption reports a step failure as a run interruption only when the run context itself is done.
func interruption(executionContext context.Context, failure error) error {
	contextError := executionContext.Err()
	if contextError == nil {
		return nil
	}
	if errors.Is(failure, contextError) {
		return failure
	}
	return errors.Join(contextError, failure)
}
