package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/manifold/internal/execshell"
	"github.com/temirov/manifold/internal/gitrepo"
	"github.com/temirov/manifold/internal/manifest"
	"github.com/temirov/manifold/internal/repos/remotes"
	"github.com/temirov/manifold/internal/repos/shared"
	"github.com/temirov/manifold/internal/tasks"
	"github.com/temirov/manifold/internal/ui"
)

const (
	directoryPermissionsConstant          = fs.FileMode(0o755)
	badBranchesHeaderConstant             = "Error: %s\n"
	badBranchesTableTemplateConstant      = "%s\n"
	badBranchProjectHeaderConstant        = "project"
	badBranchActualHeaderConstant         = "actual"
	badBranchExpectedHeaderConstant       = "expected"
	missingRepositoriesLogMessageConstant = "repositories missing from workspace"
	badBranchesLogMessageConstant         = "repositories on unexpected branches"
	logFieldCountConstant                 = "count"
	logFieldWorkspaceRootConstant         = "workspace_root"
)

// StatusInspector reads the checked-out state of a repository.
type StatusInspector interface {
	Inspect(repositoryPath string) (gitrepo.RepositoryStatus, error)
}

// HistoryReader reads commit history of a repository.
type HistoryReader interface {
	Log(executionContext context.Context, repositoryPath string, fromReference string, toReference string) (string, error)
	AheadBehind(executionContext context.Context, repositoryPath string, upstreamReference string) (int, int, error)
}

// CommandRunner runs arbitrary commands.
type CommandRunner interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// Dependencies enumerates the collaborators of a Workspace.
// StatusInspector, History and Commands are only required by Status, Log and Foreach.
type Dependencies struct {
	GitManager      shared.GitRepositoryManager
	FileSystem      shared.FileSystem
	StatusInspector StatusInspector
	History         HistoryReader
	Commands        CommandRunner
	Reporter        shared.Reporter
	Logger          *zap.Logger
}

// Workspace applies manifest state to the repositories checked out under its root.
// Every operation processes repositories sequentially and keeps going after an item fails.
type Workspace struct {
	rootPath      string
	configuration Configuration
	dependencies  Dependencies
	reconciler    *remotes.Reconciler
}

// New constructs a Workspace rooted at rootPath.
func New(rootPath string, configuration Configuration, dependencies Dependencies) (*Workspace, error) {
	if len(strings.TrimSpace(rootPath)) == 0 {
		return nil, ErrWorkspaceRootRequired
	}
	if dependencies.GitManager == nil {
		return nil, ErrGitManagerNotConfigured
	}
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if dependencies.Reporter == nil {
		dependencies.Reporter = shared.NewWriterReporter(nil)
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}

	reconciler, reconcilerError := remotes.NewReconciler(remotes.Dependencies{
		GitManager: dependencies.GitManager,
		Reporter:   dependencies.Reporter,
	})
	if reconcilerError != nil {
		return nil, reconcilerError
	}

	return &Workspace{
		rootPath:      rootPath,
		configuration: configuration,
		dependencies:  dependencies,
		reconciler:    reconciler,
	}, nil
}

// RootPath returns the workspace root directory.
func (workspace *Workspace) RootPath() string {
	return workspace.rootPath
}

// Configuration returns the configuration the workspace was constructed with.
func (workspace *Workspace) Configuration() Configuration {
	return workspace.configuration
}

// RepositoryPath maps a workspace-relative, slash-separated path to the local file system.
func (workspace *Workspace) RepositoryPath(source string) string {
	return filepath.Join(workspace.rootPath, filepath.FromSlash(source))
}

// SelectRepositories returns the repositories of parsedManifest selected by the active groups.
func (workspace *Workspace) SelectRepositories(parsedManifest *manifest.Manifest) ([]manifest.Repository, error) {
	return parsedManifest.SelectRepositories(workspace.configuration.Groups)
}

// CloneMissing clones every repository whose directory does not exist yet.
// A shallow workspace rejects fixed revisions before any repository is cloned.
func (workspace *Workspace) CloneMissing(executionContext context.Context, repositories []manifest.Repository) error {
	var missingRepositories []manifest.Repository
	for _, repository := range repositories {
		_, statError := workspace.dependencies.FileSystem.Stat(workspace.RepositoryPath(repository.Source))
		if statError == nil {
			continue
		}
		if !errors.Is(statError, fs.ErrNotExist) {
			return statError
		}
		missingRepositories = append(missingRepositories, repository)
	}

	for _, repository := range missingRepositories {
		if validationError := workspace.checkShallowRevision(repository); validationError != nil {
			return validationError
		}
	}

	workspace.dependencies.Logger.Debug(
		missingRepositoriesLogMessageConstant,
		zap.String(logFieldWorkspaceRootConstant, workspace.rootPath),
		zap.Int(logFieldCountConstant, len(missingRepositories)),
	)
	return tasks.RunSequence[manifest.Repository](executionContext, workspace.taskDependencies(), cloner{workspace: workspace}, missingRepositories)
}

// SetRemotes points the origin remote of every repository at its manifest URL.
func (workspace *Workspace) SetRemotes(executionContext context.Context, repositories []manifest.Repository) error {
	task := remoteSetter{workspace: workspace, reconciler: workspace.reconciler}
	return tasks.RunSequence[manifest.Repository](executionContext, workspace.taskDependencies(), task, repositories)
}

// Sync fetches every repository and moves it to its pinned reference or fast-forwards its branch.
// Repositories found on another branch are listed once the batch completes, whether or not it failed,
// and surface as *BadBranchesError, joined with the batch failure when both occur.
func (workspace *Workspace) Sync(executionContext context.Context, repositories []manifest.Repository) error {
	task := &syncer{workspace: workspace}
	sequenceError := tasks.RunSequence[manifest.Repository](executionContext, workspace.taskDependencies(), task, repositories)

	badBranchesError := workspace.reportBadBranches(task.badBranches)
	switch {
	case badBranchesError == nil:
		return sequenceError
	case sequenceError == nil:
		return badBranchesError
	default:
		return errors.Join(sequenceError, badBranchesError)
	}
}

// CopyFiles applies the copy directives, leaving every destination read-only.
func (workspace *Workspace) CopyFiles(executionContext context.Context, directives []manifest.CopyDirective) error {
	return tasks.RunSequence[manifest.CopyDirective](executionContext, workspace.taskDependencies(), fileCopier{workspace: workspace}, directives)
}

func (workspace *Workspace) reportBadBranches(badBranches []BadBranch) error {
	if len(badBranches) == 0 {
		return nil
	}
	badBranchesError := &BadBranchesError{BadBranches: append([]BadBranch(nil), badBranches...)}
	workspace.dependencies.Logger.Debug(badBranchesLogMessageConstant, zap.Int(logFieldCountConstant, len(badBranches)))

	table := ui.NewTable(badBranchProjectHeaderConstant, badBranchActualHeaderConstant, badBranchExpectedHeaderConstant)
	for _, badBranch := range badBranches {
		table.AppendRow(badBranch.Source, badBranch.Actual, badBranch.Expected)
	}
	workspace.dependencies.Reporter.Printf(badBranchesHeaderConstant, badBranchesError.Error())
	workspace.dependencies.Reporter.Printf(badBranchesTableTemplateConstant, table.Render())
	return badBranchesError
}

func (workspace *Workspace) checkShallowRevision(repository manifest.Repository) error {
	if !workspace.configuration.Shallow || len(repository.Revision) == 0 {
		return nil
	}
	return ConfigurationError{Message: fmt.Sprintf(shallowWithRevisionTemplateConstant, repository.Revision)}
}

func runSequence[T any](executionContext context.Context, workspace *Workspace, task tasks.Task[T], items []T) error {
	return tasks.RunSequence[T](executionContext, workspace.taskDependencies(), task, items)
}

func (workspace *Workspace) taskDependencies() tasks.Dependencies {
	return tasks.Dependencies{Reporter: workspace.dependencies.Reporter, Logger: workspace.dependencies.Logger}
}
