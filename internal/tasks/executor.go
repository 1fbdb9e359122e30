package tasks

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/manifold/internal/repos/shared"
)

const (
	taskHeaderTemplateConstant          = ":: %s\n"
	taskProgressTemplateConstant        = "* (%d/%d) %s\n"
	taskFailureHeaderTemplateConstant   = "Error: %s failed\n"
	taskFailureItemTemplateConstant     = "* %s: %s\n"
	taskFailureBareItemTemplateConstant = "* %s\n"
	executorFailedTemplateConstant      = "%s failed for %d item(s)"
	taskItemFailedLogMessageConstant    = "task item failed"
	taskCompletedLogMessageConstant     = "task completed"
	logFieldTaskConstant                = "task"
	logFieldItemConstant                = "item"
	logFieldItemCountConstant           = "items"
	logFieldFailureCountConstant        = "failures"
)

// Task describes one workflow applied to every item of a sequence.
type Task[T any] interface {
	Description() string
	DisplayItem(item T) string
	Process(executionContext context.Context, item T) error
}

// QuietTask is implemented by tasks whose items should not produce progress lines.
type QuietTask interface {
	Quiet() bool
}

// Failure records one item that could not be processed.
type Failure[T any] struct {
	Item  T
	Error error
}

// FailureSummary is the display form of a Failure.
type FailureSummary struct {
	Item    string
	Message string
	Cause   error
}

// ExecutorFailedError aggregates every per-item failure of a sequence.
type ExecutorFailedError struct {
	Description string
	Failures    []FailureSummary
}

// Error summarizes the failed sequence.
func (executorError *ExecutorFailedError) Error() string {
	return fmt.Sprintf(executorFailedTemplateConstant, executorError.Description, len(executorError.Failures))
}

// Unwrap exposes the individual item errors to errors.Is and errors.As.
func (executorError *ExecutorFailedError) Unwrap() []error {
	causes := make([]error, 0, len(executorError.Failures))
	for _, failure := range executorError.Failures {
		if failure.Cause != nil {
			causes = append(causes, failure.Cause)
		}
	}
	return causes
}

// Dependencies supplies the output sinks of a sequence run.
type Dependencies struct {
	Reporter shared.Reporter
	Logger   *zap.Logger
}

// RunSequence processes items in order and never stops on an item failure.
// Empty input prints nothing. When any item fails, the failures are listed after the pass
// and an *ExecutorFailedError is returned.
func RunSequence[T any](executionContext context.Context, dependencies Dependencies, task Task[T], items []T) error {
	if len(items) == 0 {
		return nil
	}

	reporter := dependencies.Reporter
	if reporter == nil {
		reporter = shared.NewWriterReporter(nil)
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	description := task.Description()
	reporter.Printf(taskHeaderTemplateConstant, description)

	quiet := false
	if quietTask, implementsQuiet := task.(QuietTask); implementsQuiet {
		quiet = quietTask.Quiet()
	}

	var failures []Failure[T]
	for itemIndex, item := range items {
		if !quiet {
			reporter.Printf(taskProgressTemplateConstant, itemIndex+1, len(items), task.DisplayItem(item))
		}
		if processError := task.Process(executionContext, item); processError != nil {
			logger.Debug(
				taskItemFailedLogMessageConstant,
				zap.String(logFieldTaskConstant, description),
				zap.String(logFieldItemConstant, task.DisplayItem(item)),
				zap.Error(processError),
			)
			failures = append(failures, Failure[T]{Item: item, Error: processError})
		}
	}

	logger.Debug(
		taskCompletedLogMessageConstant,
		zap.String(logFieldTaskConstant, description),
		zap.Int(logFieldItemCountConstant, len(items)),
		zap.Int(logFieldFailureCountConstant, len(failures)),
	)

	if len(failures) == 0 {
		return nil
	}

	reporter.Printf(taskFailureHeaderTemplateConstant, description)
	summaries := make([]FailureSummary, 0, len(failures))
	for _, failure := range failures {
		summary := FailureSummary{
			Item:    task.DisplayItem(failure.Item),
			Message: strings.TrimSpace(failure.Error.Error()),
			Cause:   failure.Error,
		}
		if len(summary.Message) == 0 {
			reporter.Printf(taskFailureBareItemTemplateConstant, summary.Item)
		} else {
			reporter.Printf(taskFailureItemTemplateConstant, summary.Item, summary.Message)
		}
		summaries = append(summaries, summary)
	}

	return &ExecutorFailedError{Description: description, Failures: summaries}
}
