package execshell

import (
	"fmt"
	"path/filepath"
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
	commandArgumentsJoinSeparatorConstant  = " "
	workingDirectorySuffixTemplateConstant = "%s (in %s)"
	standardErrorSuffixTemplateConstant    = ": %s"
	unknownFailureMessageConstant          = "unknown error"
	defaultWorkingDirectoryLabelConstant   = "current directory"
	fallbackUnknownValueLabelConstant      = "unknown"
	flagPrefixConstant                     = "-"
	gitShallowLabelConstant                = "shallow"
	gitFetchAllRemotesLabelConstant        = "all remotes"
	gitUpstreamReferenceConstant           = "@{u}"
	gitHeadReferenceConstant               = "HEAD"
	gitAbbrevRefFlagConstant               = "--abbrev-ref"
	gitBranchFlagConstant                  = "--branch"
	gitDepthFlagConstant                   = "--depth"
	gitTagsFlagConstant                    = "--tags"
	githubRepoFlagConstant                 = "--repo"
	githubPullRequestSubcommandConstant    = "pr"
)

// commandNarrative holds the four lifecycle templates of one command together with the
// values they describe. Failure templates receive the subjects followed by the exit code and
// the stderr suffix; execution failure templates receive the subjects followed by the cause.
type commandNarrative struct {
	started     string
	succeeded   string
	exited      string
	unreachable string
	subjects    []any

	startedSubjects   []any
	succeededSubjects []any
}

var genericNarrative = commandNarrative{
	started:     "Running %s",
	succeeded:   "Completed %s",
	exited:      "%s failed with exit code %d%s",
	unreachable: "%s failed: %s",
}

var gitNarratives = map[string]func(command ShellCommand, result ExecutionResult) (commandNarrative, bool){
	"clone":     describeClone,
	"fetch":     describeFetch,
	"reset":     describeReset,
	"merge":     describeMerge,
	"remote":    describeRemote,
	"rev-parse": describeCurrentBranch,
	"status":    describeStatus,
	"push":      describePush,
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage describes a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return renderNarrative(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage describes a command that exited with code zero.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return renderNarrative(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage describes a command that exited with a non-zero code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return renderNarrative(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage describes a command that could not be run.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return renderNarrative(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func renderNarrative(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	narrative, known := selectNarrative(command, result)
	if !known {
		narrative = genericNarrative
		narrative.subjects = []any{describeCommandLine(command)}
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(narrative.started, firstNonEmpty(narrative.startedSubjects, narrative.subjects)...)
	case messageStageSuccess:
		return fmt.Sprintf(narrative.succeeded, firstNonEmpty(narrative.succeededSubjects, narrative.subjects)...)
	case messageStageFailure:
		values := append(append([]any(nil), narrative.subjects...), result.ExitCode, standardErrorSuffix(result.StandardError))
		return fmt.Sprintf(narrative.exited, values...)
	default:
		values := append(append([]any(nil), narrative.subjects...), describeFailure(failure))
		return fmt.Sprintf(narrative.unreachable, values...)
	}
}

func selectNarrative(command ShellCommand, result ExecutionResult) (commandNarrative, bool) {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return commandNarrative{}, false
	}
	subcommand := strings.TrimSpace(arguments[0])

	switch command.Name {
	case CommandGit:
		describe, registered := gitNarratives[subcommand]
		if !registered {
			return commandNarrative{}, false
		}
		return describe(command, result)
	case CommandGitHub:
		if subcommand != githubPullRequestSubcommandConstant {
			return commandNarrative{}, false
		}
		return commandNarrative{
			started:     "Running gh pr %s for %s",
			succeeded:   "Completed gh pr %s for %s",
			exited:      "gh pr %s failed for %s (exit code %d%s)",
			unreachable: "Unable to run gh pr %s for %s: %s",
			subjects:    []any{valueOrUnknown(argumentAt(arguments, 1)), valueOrUnknown(flagValue(arguments, githubRepoFlagConstant))},
		}, true
	default:
		return commandNarrative{}, false
	}
}

func describeClone(command ShellCommand, _ ExecutionResult) (commandNarrative, bool) {
	positional := positionalArguments(command.Details.Arguments[1:], gitBranchFlagConstant, gitDepthFlagConstant)
	source := valueOrUnknown(argumentAt(positional, 0))
	destination := argumentAt(positional, 1)
	switch {
	case len(destination) == 0:
		destination = workingDirectoryLabel(command)
	case len(strings.TrimSpace(command.Details.WorkingDirectory)) > 0:
		destination = filepath.Join(command.Details.WorkingDirectory, destination)
	}

	narrative := commandNarrative{
		started:     "Cloning %s into %s",
		succeeded:   "Cloned %s into %s",
		exited:      "Failed to clone %s into %s (exit code %d%s)",
		unreachable: "Unable to clone %s into %s: %s",
		subjects:    []any{source, destination},
	}

	referenceLabels := make([]string, 0, 2)
	if branch := flagValue(command.Details.Arguments, gitBranchFlagConstant); len(branch) > 0 {
		referenceLabels = append(referenceLabels, branch)
	}
	if containsArgument(command.Details.Arguments, gitDepthFlagConstant) {
		referenceLabels = append(referenceLabels, gitShallowLabelConstant)
	}
	if len(referenceLabels) > 0 {
		narrative.started = "Cloning %s (%s) into %s"
		narrative.startedSubjects = []any{source, strings.Join(referenceLabels, ", "), destination}
	}
	return narrative, true
}

func describeFetch(command ShellCommand, _ ExecutionResult) (commandNarrative, bool) {
	remoteName := argumentAt(positionalArguments(command.Details.Arguments[1:]), 0)
	if len(remoteName) == 0 {
		remoteName = gitFetchAllRemotesLabelConstant
	}
	narrative := commandNarrative{
		started:     "Fetching from %s in %s",
		succeeded:   "Fetched from %s in %s",
		exited:      "Failed to fetch from %s in %s (exit code %d%s)",
		unreachable: "Unable to fetch from %s in %s: %s",
		subjects:    []any{remoteName, workingDirectoryLabel(command)},
	}
	if containsArgument(command.Details.Arguments, gitTagsFlagConstant) {
		narrative.started = "Fetching tags from %s in %s"
	}
	return narrative, true
}

func describeReset(command ShellCommand, _ ExecutionResult) (commandNarrative, bool) {
	return commandNarrative{
		started:     "Resetting %s to %s",
		succeeded:   "%s now at %s",
		exited:      "Failed to reset %s to %s (exit code %d%s)",
		unreachable: "Unable to reset %s to %s: %s",
		subjects:    []any{workingDirectoryLabel(command), valueOrUnknown(argumentAt(positionalArguments(command.Details.Arguments[1:]), 0))},
	}, true
}

func describeMerge(command ShellCommand, _ ExecutionResult) (commandNarrative, bool) {
	reference := argumentAt(positionalArguments(command.Details.Arguments[1:]), 0)
	if len(reference) == 0 {
		reference = gitUpstreamReferenceConstant
	}
	return commandNarrative{
		started:     "Fast-forwarding %s to %s",
		succeeded:   "Fast-forwarded %s to %s",
		exited:      "Failed to fast-forward %s to %s (exit code %d%s)",
		unreachable: "Unable to fast-forward %s to %s: %s",
		subjects:    []any{workingDirectoryLabel(command), reference},
	}, true
}

func describeRemote(command ShellCommand, result ExecutionResult) (commandNarrative, bool) {
	arguments := command.Details.Arguments
	remoteName := valueOrUnknown(argumentAt(arguments, 2))
	workingDirectory := workingDirectoryLabel(command)
	targetURL := valueOrUnknown(argumentAt(arguments, 3))

	switch strings.TrimSpace(argumentAt(arguments, 1)) {
	case "get-url":
		return commandNarrative{
			started:           "Checking %s remote for %s",
			succeeded:         "%s remote for %s points to %s",
			exited:            "No %s remote readable for %s (exit code %d%s)",
			unreachable:       "Unable to read %s remote for %s: %s",
			subjects:          []any{remoteName, workingDirectory},
			succeededSubjects: []any{remoteName, workingDirectory, valueOrUnknown(result.StandardOutput)},
		}, true
	case "set-url":
		return commandNarrative{
			started:     "Updating %s remote for %s to %s",
			succeeded:   "%s remote for %s now points to %s",
			exited:      "Failed to update %s remote for %s to %s (exit code %d%s)",
			unreachable: "Unable to update %s remote for %s to %s: %s",
			subjects:    []any{remoteName, workingDirectory, targetURL},
		}, true
	case "add":
		return commandNarrative{
			started:     "Adding %s remote to %s pointing to %s",
			succeeded:   "Added %s remote to %s pointing to %s",
			exited:      "Failed to add %s remote to %s pointing to %s (exit code %d%s)",
			unreachable: "Unable to add %s remote to %s pointing to %s: %s",
			subjects:    []any{remoteName, workingDirectory, targetURL},
		}, true
	default:
		return commandNarrative{}, false
	}
}

func describeCurrentBranch(command ShellCommand, result ExecutionResult) (commandNarrative, bool) {
	arguments := command.Details.Arguments
	if !containsArgument(arguments, gitAbbrevRefFlagConstant) || !containsArgument(arguments, gitHeadReferenceConstant) {
		return commandNarrative{}, false
	}
	workingDirectory := workingDirectoryLabel(command)
	narrative := commandNarrative{
		started:           "Identifying current branch in %s",
		succeeded:         "Current branch in %s is %s",
		exited:            "Failed to identify current branch in %s (exit code %d%s)",
		unreachable:       "Unable to identify current branch in %s: %s",
		subjects:          []any{workingDirectory},
		succeededSubjects: []any{workingDirectory, strings.TrimSpace(result.StandardOutput)},
	}
	if branchName := strings.TrimSpace(result.StandardOutput); len(branchName) == 0 || branchName == gitHeadReferenceConstant {
		narrative.succeeded = "%s is in a detached HEAD state"
		narrative.succeededSubjects = nil
	}
	return narrative, true
}

func describeStatus(command ShellCommand, _ ExecutionResult) (commandNarrative, bool) {
	return commandNarrative{
		started:     "Reviewing working tree status in %s",
		succeeded:   "Collected working tree status for %s",
		exited:      "Failed to review working tree status in %s (exit code %d%s)",
		unreachable: "Unable to review working tree status in %s: %s",
		subjects:    []any{workingDirectoryLabel(command)},
	}, true
}

func describePush(command ShellCommand, _ ExecutionResult) (commandNarrative, bool) {
	positional := positionalArguments(command.Details.Arguments[1:])
	return commandNarrative{
		started:     "Pushing %s to %s from %s",
		succeeded:   "Pushed %s to %s from %s",
		exited:      "Failed to push %s to %s from %s (exit code %d%s)",
		unreachable: "Unable to push %s to %s from %s: %s",
		subjects:    []any{valueOrUnknown(argumentAt(positional, 1)), valueOrUnknown(argumentAt(positional, 0)), workingDirectoryLabel(command)},
	}, true
}

func describeCommandLine(command ShellCommand) string {
	commandLine := strings.Join(append([]string{string(command.Name)}, command.Details.Arguments...), commandArgumentsJoinSeparatorConstant)
	workingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(workingDirectory) == 0 {
		return commandLine
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, commandLine, workingDirectory)
}

func workingDirectoryLabel(command ShellCommand) string {
	workingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(workingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return workingDirectory
}

func standardErrorSuffix(standardError string) string {
	trimmed := strings.TrimSpace(standardError)
	if len(trimmed) == 0 {
		return ""
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmed)
}

func describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func valueOrUnknown(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func firstNonEmpty(preferred []any, fallback []any) []any {
	if len(preferred) > 0 {
		return preferred
	}
	return fallback
}

func containsArgument(arguments []string, target string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == target {
			return true
		}
	}
	return false
}

func argumentAt(arguments []string, index int) string {
	if index < 0 || index >= len(arguments) {
		return ""
	}
	return arguments[index]
}

// positionalArguments drops flags and the values of the listed value-taking flags.
func positionalArguments(arguments []string, valueFlags ...string) []string {
	positional := make([]string, 0, len(arguments))
	for argumentIndex := 0; argumentIndex < len(arguments); argumentIndex++ {
		argument := strings.TrimSpace(arguments[argumentIndex])
		if containsArgument(valueFlags, argument) {
			argumentIndex++
			continue
		}
		if strings.HasPrefix(argument, flagPrefixConstant) {
			continue
		}
		positional = append(positional, argument)
	}
	return positional
}

func flagValue(arguments []string, flagName string) string {
	for argumentIndex := 0; argumentIndex < len(arguments)-1; argumentIndex++ {
		if strings.TrimSpace(arguments[argumentIndex]) == flagName {
			return strings.TrimSpace(arguments[argumentIndex+1])
		}
	}
	return ""
}
