package shared

import (
	"context"
	"errors"
	"io/fs"

	"github.com/temirov/manifold/internal/execshell"
)

const (
	// OriginRemoteNameConstant identifies the remote every workspace repository is synchronized against.
	OriginRemoteNameConstant = "origin"
	// UpstreamReferenceConstant names the tracking branch of the current branch.
	UpstreamReferenceConstant = "@{u}"
)

var (
	// ErrRemoteNotFound indicates the requested remote is not configured in the repository.
	ErrRemoteNotFound = errors.New("remote not configured")
	// ErrDetachedHead indicates the repository is not on any branch.
	ErrDetachedHead = errors.New("not on any branch")
	// ErrNoUpstream indicates the current branch has no tracking branch.
	ErrNoUpstream = errors.New("no upstream configured")
)

// FileSystem exposes filesystem operations required by workspace services.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	Abs(path string) (string, error)
	MkdirAll(path string, permissions fs.FileMode) error
	Chmod(path string, permissions fs.FileMode) error
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, permissions fs.FileMode) error
}

// GitExecutor exposes the subset of shell execution used by repository services.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// CloneOptions describes a single clone invocation.
type CloneOptions struct {
	RemoteURL       string
	Reference       string
	Shallow         bool
	ParentDirectory string
	DestinationName string
}

// GitRepositoryManager exposes repository-level git operations.
type GitRepositoryManager interface {
	Clone(executionContext context.Context, options CloneOptions) error
	Fetch(executionContext context.Context, repositoryPath string, remoteName string, includeTags bool) error
	ResetHard(executionContext context.Context, repositoryPath string, reference string) error
	MergeFastForward(executionContext context.Context, repositoryPath string, reference string) error
	CheckoutBranch(executionContext context.Context, repositoryPath string, branchName string) error
	SetUpstream(executionContext context.Context, repositoryPath string, branchName string, upstreamReference string) error
	CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error)
	GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error)
	SetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error
	AddRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error
}
