package migrate

import (
	"fmt"
)

const (
	fetchFailureTemplateConstant         = "fetch source catalog: %v"
	configurationFailureTemplateConstant = "invalid configuration %s: %v"
	projectFailureTemplateConstant       = "%s step for %s failed: %v"
)

// Step names a per-project migration step.
type Step string

// Migration steps in the order they run for each project.
const (
	StepRepository  Step = "repository"
	StepWikis       Step = "wikis"
	StepProjectData Step = "project_data"
)

// FetchFailure aborts the run when the source catalog cannot be listed completely.
type FetchFailure struct {
	Cause error
}

func (failure FetchFailure) Error() string {
	return fmt.Sprintf(fetchFailureTemplateConstant, failure.Cause)
}

// Unwrap exposes the underlying listing error.
func (failure FetchFailure) Unwrap() error {
	return failure.Cause
}

// ConfigurationFailure reports invalid startup configuration detected before any network call.
type ConfigurationFailure struct {
	Field string
	Cause error
}

func (failure ConfigurationFailure) Error() string {
	return fmt.Sprintf(configurationFailureTemplateConstant, failure.Field, failure.Cause)
}

// Unwrap exposes the validation error.
func (failure ConfigurationFailure) Unwrap() error {
	return failure.Cause
}

// ProjectFailure is a per-project error. It is recorded and logged but never stops the run.
type ProjectFailure struct {
	Project string
	Step    Step
	Cause   error
}

func (failure ProjectFailure) Error() string {
	return fmt.Sprintf(projectFailureTemplateConstant, failure.Step, failure.Project, failure.Cause)
}

// Unwrap exposes the step error.
func (failure ProjectFailure) Unwrap() error {
	return failure.Cause
}
