package workspace

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/manifold/internal/manifest"
)

const (
	historyHeadingTemplateConstant  = "%s\n%s\n%s\n"
	headingUnderlineConstant        = "-"
	historyFailedLogMessageConstant = "git log failed"
	logFieldSourceConstant          = "source"
)

// Log prints the one-line history between fromReference and toReference of every repository
// that has any, under a heading naming the repository. Every repository is visited even after a failure.
func (workspace *Workspace) Log(executionContext context.Context, repositories []manifest.Repository, fromReference string, toReference string) error {
	if workspace.dependencies.History == nil {
		return ErrHistoryReaderNotConfigured
	}

	var failedSources []string
	for _, repository := range repositories {
		output, logError := workspace.dependencies.History.Log(executionContext, workspace.RepositoryPath(repository.Source), fromReference, toReference)
		if logError != nil {
			workspace.dependencies.Logger.Warn(historyFailedLogMessageConstant, zap.String(logFieldSourceConstant, repository.Source), zap.Error(logError))
			failedSources = append(failedSources, repository.Source)
		}
		if len(strings.TrimSpace(output)) == 0 {
			continue
		}
		underline := strings.Repeat(headingUnderlineConstant, len(repository.Source))
		workspace.dependencies.Reporter.Printf(historyHeadingTemplateConstant, repository.Source, underline, output)
	}

	if len(failedSources) > 0 {
		return HistoryError{Sources: failedSources}
	}
	return nil
}
