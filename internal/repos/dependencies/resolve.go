package dependencies

import (
	"go.uber.org/zap"

	"github.com/temirov/manifold/internal/execshell"
	"github.com/temirov/manifold/internal/githubcli"
	"github.com/temirov/manifold/internal/gitrepo"
	"github.com/temirov/manifold/internal/repos/filesystem"
	"github.com/temirov/manifold/internal/repos/shared"
)

// ResolveFileSystem returns the provided filesystem or an OS-backed default.
func ResolveFileSystem(existing shared.FileSystem) shared.FileSystem {
	if existing != nil {
		return existing
	}
	return filesystem.OSFileSystem{}
}

// ResolveShellExecutor returns the provided executor or constructs one over the OS command runner.
// A non-nil observer receives command lifecycle events.
func ResolveShellExecutor(existing *execshell.ShellExecutor, logger *zap.Logger, observer execshell.CommandEventObserver) (*execshell.ShellExecutor, error) {
	if existing != nil {
		return existing, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	commandRunner := execshell.NewOSCommandRunner()
	if observer != nil {
		return execshell.NewShellExecutorWithObserver(logger, commandRunner, observer)
	}
	return execshell.NewShellExecutor(logger, commandRunner)
}

// ResolveGitRepositoryManager returns the provided repository manager or constructs one from the executor.
func ResolveGitRepositoryManager(existing *gitrepo.RepositoryManager, executor shared.GitExecutor) (*gitrepo.RepositoryManager, error) {
	if existing != nil {
		return existing, nil
	}
	return gitrepo.NewRepositoryManager(executor)
}

// ResolveGitHubClient returns the provided client or creates a GitHub CLI-backed implementation.
func ResolveGitHubClient(existing *githubcli.Client, executor githubcli.GitHubCommandExecutor) (*githubcli.Client, error) {
	if existing != nil {
		return existing, nil
	}
	return githubcli.NewClient(executor)
}
