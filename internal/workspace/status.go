package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/temirov/manifold/internal/gitrepo"
	"github.com/temirov/manifold/internal/manifest"
	"github.com/temirov/manifold/internal/repos/shared"
	"github.com/temirov/manifold/internal/ui"
)

const (
	statusDescriptionConstant    = "Collecting statuses"
	statusProjectHeaderConstant  = "project"
	statusRefHeaderConstant      = "ref"
	statusPositionHeaderConstant = "position"
	statusStateHeaderConstant    = "state"
	aheadTemplateConstant        = "↑%d %s"
	behindTemplateConstant       = "↓%d %s"
	singularCommitConstant       = "commit"
	pluralCommitsConstant        = "commits"
	dirtyStateConstant           = "(dirty)"
	missingStateConstant         = "(missing)"
	emptyStateConstant           = "(empty)"
	positionSeparatorConstant    = " "
)

// RepositoryStatusEntry is the status of one workspace repository.
type RepositoryStatusEntry struct {
	Source  string
	Status  gitrepo.RepositoryStatus
	Ahead   int
	Behind  int
	Missing bool
}

// Reference returns the tag, else the branch, else the abbreviated hash.
func (entry RepositoryStatusEntry) Reference() string {
	switch {
	case len(entry.Status.Tag) > 0:
		return entry.Status.Tag
	case len(entry.Status.Branch) > 0:
		return entry.Status.Branch
	default:
		return entry.Status.ShortHash
	}
}

// Position describes commits ahead of and behind the upstream, such as "↑1 commit ↓2 commits".
func (entry RepositoryStatusEntry) Position() string {
	var parts []string
	if entry.Ahead != 0 {
		parts = append(parts, fmt.Sprintf(aheadTemplateConstant, entry.Ahead, commitNoun(entry.Ahead)))
	}
	if entry.Behind != 0 {
		parts = append(parts, fmt.Sprintf(behindTemplateConstant, entry.Behind, commitNoun(entry.Behind)))
	}
	return strings.Join(parts, positionSeparatorConstant)
}

// State flags missing, empty and dirty repositories.
func (entry RepositoryStatusEntry) State() string {
	switch {
	case entry.Missing:
		return missingStateConstant
	case entry.Status.Empty:
		return emptyStateConstant
	case entry.Status.Dirty:
		return dirtyStateConstant
	default:
		return ""
	}
}

// RenderStatuses lays the entries out as an aligned table.
func RenderStatuses(entries []RepositoryStatusEntry) string {
	table := ui.NewTable(statusProjectHeaderConstant, statusRefHeaderConstant, statusPositionHeaderConstant, statusStateHeaderConstant)
	for _, entry := range entries {
		table.AppendRow(entry.Source, entry.Reference(), entry.Position(), entry.State())
	}
	return table.Render()
}

// Status inspects every repository. Repositories absent from disk are reported as missing rather than failing.
func (workspace *Workspace) Status(executionContext context.Context, repositories []manifest.Repository) ([]RepositoryStatusEntry, error) {
	if workspace.dependencies.StatusInspector == nil {
		return nil, ErrStatusInspectorNotConfigured
	}
	if workspace.dependencies.History == nil {
		return nil, ErrHistoryReaderNotConfigured
	}

	collector := &statusCollector{workspace: workspace}
	if sequenceError := runSequence[manifest.Repository](executionContext, workspace, collector, repositories); sequenceError != nil {
		return collector.entries, sequenceError
	}
	return collector.entries, nil
}

type statusCollector struct {
	workspace *Workspace
	entries   []RepositoryStatusEntry
}

func (task *statusCollector) Description() string {
	return statusDescriptionConstant
}

func (task *statusCollector) DisplayItem(repository manifest.Repository) string {
	return repository.Source
}

func (task *statusCollector) Quiet() bool {
	return true
}

func (task *statusCollector) Process(executionContext context.Context, repository manifest.Repository) error {
	repositoryPath := task.workspace.RepositoryPath(repository.Source)
	if _, statError := task.workspace.dependencies.FileSystem.Stat(repositoryPath); statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			task.entries = append(task.entries, RepositoryStatusEntry{Source: repository.Source, Missing: true})
			return nil
		}
		return statError
	}

	repositoryStatus, inspectError := task.workspace.dependencies.StatusInspector.Inspect(repositoryPath)
	if inspectError != nil {
		return inspectError
	}

	entry := RepositoryStatusEntry{Source: repository.Source, Status: repositoryStatus}
	if len(repositoryStatus.Branch) > 0 {
		ahead, behind, countError := task.workspace.dependencies.History.AheadBehind(executionContext, repositoryPath, shared.UpstreamReferenceConstant)
		if countError == nil {
			entry.Ahead = ahead
			entry.Behind = behind
		}
	}
	task.entries = append(task.entries, entry)
	return nil
}

func commitNoun(count int) string {
	if count == 1 {
		return singularCommitConstant
	}
	return pluralCommitsConstant
}
