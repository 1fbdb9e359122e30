package workspace

import (
	"context"
	"fmt"

	"github.com/temirov/manifold/internal/manifest"
	"github.com/temirov/manifold/internal/repos/shared"
)

const (
	syncerDescriptionConstant = "Synchronize workspace"
)

// syncer records bad branches across items; one instance serves one batch.
type syncer struct {
	workspace   *Workspace
	badBranches []BadBranch
}

func (task *syncer) Description() string {
	return syncerDescriptionConstant
}

func (task *syncer) DisplayItem(repository manifest.Repository) string {
	return repository.Source
}

func (task *syncer) Process(executionContext context.Context, repository manifest.Repository) error {
	gitManager := task.workspace.dependencies.GitManager
	repositoryPath := task.workspace.RepositoryPath(repository.Source)

	if fetchError := gitManager.Fetch(executionContext, repositoryPath, shared.OriginRemoteNameConstant, true); fetchError != nil {
		return FetchError{Source: repository.Source, Cause: fetchError}
	}

	if resolvedReference, pinned := ResolveReference(repository); pinned {
		return task.syncToReference(executionContext, repository, repositoryPath, resolvedReference)
	}

	currentBranch, branchError := gitManager.GetCurrentBranch(executionContext, repositoryPath)
	if branchError != nil {
		return ResetError{Source: repository.Source, Message: notOnAnyBranchMessageConstant, Cause: branchError}
	}
	if currentBranch != repository.Branch {
		task.badBranches = append(task.badBranches, BadBranch{
			Source:   repository.Source,
			Actual:   currentBranch,
			Expected: repository.Branch,
		})
	}

	if mergeError := gitManager.MergeFastForward(executionContext, repositoryPath, shared.UpstreamReferenceConstant); mergeError != nil {
		return MergeError{Source: repository.Source, Cause: mergeError}
	}
	return nil
}

func (task *syncer) syncToReference(executionContext context.Context, repository manifest.Repository, repositoryPath string, reference string) error {
	gitManager := task.workspace.dependencies.GitManager
	clean, statusError := gitManager.CheckCleanWorktree(executionContext, repositoryPath)
	if statusError != nil {
		return ResetError{Source: repository.Source, Message: updateReferenceFailedMessageConstant, Cause: statusError}
	}
	if !clean {
		return ResetError{Source: repository.Source, Message: fmt.Sprintf(dirtyWorktreeTemplateConstant, repository.Source)}
	}
	if resetError := gitManager.ResetHard(executionContext, repositoryPath, reference); resetError != nil {
		return ResetError{Source: repository.Source, Message: updateReferenceFailedMessageConstant, Cause: resetError}
	}
	return nil
}
