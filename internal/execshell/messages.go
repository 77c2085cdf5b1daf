package execshell

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	redactedUserInfoConstant                = "***"
	schemeSeparatorConstant                 = "://"
	credentialReplacementConstant           = schemeSeparatorConstant + redactedUserInfoConstant + "@"
	currentDirectoryArgumentConstant        = "."
	flagPrefixConstant                      = "-"
)

const (
	gitCloneSubcommandNameConstant = "clone"
	gitPushSubcommandNameConstant  = "push"
	gitMirrorFlagConstant          = "--mirror"
	npmRunSubcommandNameConstant   = "run"
)

const (
	gitMirrorCloneStartTemplateConstant            = "Cloning mirror of %s into %s"
	gitMirrorCloneSuccessTemplateConstant          = "Cloned mirror of %s into %s"
	gitMirrorCloneFailureTemplateConstant          = "Failed to clone mirror of %s into %s (exit code %d%s)"
	gitMirrorCloneExecutionFailureTemplateConstant = "Unable to clone mirror of %s into %s: %s"
	gitMirrorPushStartTemplateConstant             = "Pushing mirror from %s to %s"
	gitMirrorPushSuccessTemplateConstant           = "Pushed mirror from %s to %s"
	gitMirrorPushFailureTemplateConstant           = "Failed to push mirror from %s to %s (exit code %d%s)"
	gitMirrorPushExecutionFailureTemplateConstant  = "Unable to push mirror from %s to %s: %s"
	npmRunStartTemplateConstant                    = "Running npm script %s in %s"
	npmRunSuccessTemplateConstant                  = "npm script %s finished in %s"
	npmRunFailureTemplateConstant                  = "npm script %s failed in %s (exit code %d%s)"
	npmRunExecutionFailureTemplateConstant         = "Unable to run npm script %s in %s: %s"
)

var credentialPattern = regexp.MustCompile(`://[^/@\s]+@`)

// RedactCredentials replaces URL userinfo found anywhere in the text.
func RedactCredentials(text string) string {
	return credentialPattern.ReplaceAllString(text, credentialReplacementConstant)
}

// RedactArguments returns a copy of the arguments with URL userinfo removed.
func RedactArguments(arguments []string) []string {
	redacted := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		redacted = append(redacted, redactArgument(argument))
	}
	return redacted
}

func redactArgument(argument string) string {
	parsedURL, parseError := url.Parse(argument)
	if parseError != nil || parsedURL.User == nil || len(parsedURL.Host) == 0 {
		return RedactCredentials(argument)
	}
	parsedURL.User = nil
	return strings.Replace(parsedURL.String(), schemeSeparatorConstant, credentialReplacementConstant, 1)
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	switch command.Name {
	case CommandGit:
		return formatter.describeGitMessage(command, result, failure, stage)
	case CommandNpm:
		return formatter.describeNpmMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 || !containsArgument(arguments, gitMirrorFlagConstant) {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch strings.TrimSpace(arguments[0]) {
	case gitCloneSubcommandNameConstant:
		return formatter.describeGitMirrorCloneMessage(command, result, failure, stage)
	case gitPushSubcommandNameConstant:
		return formatter.describeGitMirrorPushMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitMirrorCloneMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	positionalArguments := formatter.extractPositionalArguments(command.Details.Arguments[1:])
	sourceURL := formatter.ensureValue(redactArgument(formatter.argumentAtIndex(positionalArguments, 0)))
	targetDirectory := formatter.argumentAtIndex(positionalArguments, 1)
	if len(targetDirectory) == 0 || targetDirectory == currentDirectoryArgumentConstant {
		targetDirectory = formatter.describeWorkingDirectory(command)
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitMirrorCloneStartTemplateConstant, sourceURL, targetDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitMirrorCloneSuccessTemplateConstant, sourceURL, targetDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitMirrorCloneFailureTemplateConstant, sourceURL, targetDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitMirrorCloneExecutionFailureTemplateConstant, sourceURL, targetDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitMirrorPushMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	positionalArguments := formatter.extractPositionalArguments(command.Details.Arguments[1:])
	destinationURL := formatter.ensureValue(redactArgument(formatter.argumentAtIndex(positionalArguments, 0)))
	workingDirectory := formatter.describeWorkingDirectory(command)

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitMirrorPushStartTemplateConstant, workingDirectory, destinationURL)
	case messageStageSuccess:
		return fmt.Sprintf(gitMirrorPushSuccessTemplateConstant, workingDirectory, destinationURL)
	case messageStageFailure:
		return fmt.Sprintf(gitMirrorPushFailureTemplateConstant, workingDirectory, destinationURL, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitMirrorPushExecutionFailureTemplateConstant, workingDirectory, destinationURL, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeNpmMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) < 2 || strings.TrimSpace(arguments[0]) != npmRunSubcommandNameConstant {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	scriptName := formatter.ensureValue(strings.TrimSpace(arguments[1]))
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(npmRunStartTemplateConstant, scriptName, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(npmRunSuccessTemplateConstant, scriptName, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(npmRunFailureTemplateConstant, scriptName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(npmRunExecutionFailureTemplateConstant, scriptName, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(RedactArguments(command.Details.Arguments), commandArgumentsJoinSeparatorConstant))
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, RedactCredentials(trimmedStandardError))
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return RedactCredentials(failure.Error())
}

func (formatter CommandMessageFormatter) extractPositionalArguments(arguments []string) []string {
	positionalArguments := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		trimmedArgument := strings.TrimSpace(argument)
		if len(trimmedArgument) == 0 || strings.HasPrefix(trimmedArgument, flagPrefixConstant) {
			continue
		}
		positionalArguments = append(positionalArguments, trimmedArgument)
	}
	return positionalArguments
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index < 0 || index >= len(arguments) {
		return emptyStringConstant
	}
	return strings.TrimSpace(arguments[index])
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	if len(strings.TrimSpace(value)) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return value
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}
