package migrate

import (
	"github.com/temirov/lab2hub/internal/report"
)

// Outcome classifies what the reconciler did with one project.
type Outcome string

// Project outcomes.
const (
	OutcomeSkipped       Outcome = "skipped"
	OutcomeAlreadyExists Outcome = "already_exists"
	OutcomeCreatedEmpty  Outcome = "created_empty"
	OutcomeMigrated      Outcome = "migrated"
	OutcomeDataOnly      Outcome = "data_only"
	OutcomeFailed        Outcome = "failed"
)

// ProjectOutcome records the result of reconciling one project.
// Outcome reflects the repository step; Failures also collects wiki and data tool errors.
type ProjectOutcome struct {
	Project           string
	DestinationName   string
	Outcome           Outcome
	WikiIssuesCreated int
	Failures          []ProjectFailure
}

// Failed reports whether any step of the project failed.
func (outcome ProjectOutcome) Failed() bool {
	return outcome.Outcome == OutcomeFailed || len(outcome.Failures) > 0
}

// RunReport aggregates the outcomes of a run in catalog order.
type RunReport struct {
	Outcomes []ProjectOutcome
	DryRun   bool
}

// Summary counts the outcomes. Total is the catalog size, ignored projects included.
func (runReport RunReport) Summary() report.Summary {
	summary := report.Summary{Total: len(runReport.Outcomes), DryRun: runReport.DryRun}
	for _, projectOutcome := range runReport.Outcomes {
		switch projectOutcome.Outcome {
		case OutcomeMigrated:
			summary.Migrated++
		case OutcomeAlreadyExists:
			summary.AlreadyPresent++
		case OutcomeCreatedEmpty:
			summary.CreatedEmpty++
		case OutcomeSkipped:
			summary.Skipped++
		}
		if projectOutcome.Failed() {
			summary.Failed++
		}
	}
	return summary
}

// Failures flattens every recorded project failure.
func (runReport RunReport) Failures() []ProjectFailure {
	var failures []ProjectFailure
	for _, projectOutcome := range runReport.Outcomes {
		failures = append(failures, projectOutcome.Failures...)
	}
	return failures
}
