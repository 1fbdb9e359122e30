package ui

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/manifold/internal/execshell"
)

const (
	gitRemoteSubcommandConstant = "remote"
	gitGetURLSubcommandConstant = "get-url"
)

// inspectionSubcommands never change a repository; their progress is only shown at debug level.
var inspectionSubcommands = map[string]struct{}{
	"rev-parse": {},
	"rev-list":  {},
	"status":    {},
	"log":       {},
}

// ConsoleCommandEventLogger narrates git and gh invocations on a human-readable zap logger.
// Commands that modify a repository are announced at info level when they start; read-only
// queries and successful completions are debug output. Failures are always reported.
type ConsoleCommandEventLogger struct {
	logger    *zap.Logger
	formatter execshell.CommandMessageFormatter
}

// NewConsoleCommandEventLogger constructs a console event logger backed by the provided zap logger.
func NewConsoleCommandEventLogger(logger *zap.Logger) *ConsoleCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleCommandEventLogger{logger: logger}
}

// CommandStarted announces the command.
func (eventLogger *ConsoleCommandEventLogger) CommandStarted(command execshell.ShellCommand) {
	startLevel := zapcore.InfoLevel
	if isInspection(command) {
		startLevel = zapcore.DebugLevel
	}
	eventLogger.write(startLevel, func() string { return eventLogger.formatter.BuildStartedMessage(command) })
}

// CommandCompleted reports the exit status of the command.
func (eventLogger *ConsoleCommandEventLogger) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if result.ExitCode == 0 {
		eventLogger.write(zapcore.DebugLevel, func() string { return eventLogger.formatter.BuildSuccessMessage(command) })
		return
	}
	eventLogger.write(zapcore.WarnLevel, func() string { return eventLogger.formatter.BuildFailureMessage(command, result) })
}

// CommandExecutionFailed reports a command that could not be run.
func (eventLogger *ConsoleCommandEventLogger) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	eventLogger.write(zapcore.ErrorLevel, func() string { return eventLogger.formatter.BuildExecutionFailureMessage(command, failure) })
}

// write formats the message only when the logger accepts the level.
func (eventLogger *ConsoleCommandEventLogger) write(level zapcore.Level, buildMessage func() string) {
	if eventLogger == nil || !eventLogger.logger.Core().Enabled(level) {
		return
	}
	if checkedEntry := eventLogger.logger.Check(level, buildMessage()); checkedEntry != nil {
		checkedEntry.Write()
	}
}

func isInspection(command execshell.ShellCommand) bool {
	arguments := command.Details.Arguments
	if command.Name != execshell.CommandGit || len(arguments) == 0 {
		return false
	}
	if arguments[0] == gitRemoteSubcommandConstant {
		return len(arguments) > 1 && arguments[1] == gitGetURLSubcommandConstant
	}
	_, inspection := inspectionSubcommands[arguments[0]]
	return inspection
}
