package workspace

import (
	"context"

	"github.com/temirov/manifold/internal/manifest"
	"github.com/temirov/manifold/internal/repos/remotes"
)

const (
	remoteSetterDescriptionConstant = "Setting remote URLs"
)

type remoteSetter struct {
	workspace  *Workspace
	reconciler *remotes.Reconciler
}

func (task remoteSetter) Description() string {
	return remoteSetterDescriptionConstant
}

func (task remoteSetter) DisplayItem(repository manifest.Repository) string {
	return repository.Source
}

func (task remoteSetter) Quiet() bool {
	return true
}

func (task remoteSetter) Process(executionContext context.Context, repository manifest.Repository) error {
	_, reconcileError := task.reconciler.Reconcile(executionContext, remotes.Options{
		RepositoryPath: task.workspace.RepositoryPath(repository.Source),
		DisplayName:    repository.Source,
		ExpectedURL:    repository.URL,
	})
	if reconcileError != nil {
		return RemoteReconcileError{Source: repository.Source, URL: repository.URL, Cause: reconcileError}
	}
	return nil
}
