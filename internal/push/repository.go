package push

import (
	"context"
	"errors"
	"strings"

	"github.com/temirov/manifold/internal/gitrepo"
	"github.com/temirov/manifold/internal/repos/shared"
)

const remoteBranchSeparatorConstant = "/"

// RepositoryGit is the git access the push workflow needs.
type RepositoryGit interface {
	GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	GetUpstreamBranch(executionContext context.Context, repositoryPath string) (string, error)
	GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error)
	Push(executionContext context.Context, repositoryPath string, remoteName string, refspec string, force bool) error
}

// RepositoryInfo describes the branch being pushed and the hosted project it belongs to.
type RepositoryInfo struct {
	Path          string
	CurrentBranch string
	RemoteBranch  string
	RemoteURL     string
	ProjectName   string
}

// GroupName returns the first namespace segment of the project name.
func (info RepositoryInfo) GroupName() string {
	groupName, _, _ := strings.Cut(info.ProjectName, remoteBranchSeparatorConstant)
	return groupName
}

// ReadRepositoryInfo inspects the repository at repositoryPath. The remote branch is the
// tracking branch when one is configured and the local branch name otherwise.
func ReadRepositoryInfo(executionContext context.Context, git RepositoryGit, repositoryPath string) (RepositoryInfo, error) {
	currentBranch, branchError := git.GetCurrentBranch(executionContext, repositoryPath)
	if branchError != nil {
		return RepositoryInfo{}, RepositoryInfoError{Path: repositoryPath, Cause: branchError}
	}

	remoteBranch := currentBranch
	upstreamBranch, upstreamError := git.GetUpstreamBranch(executionContext, repositoryPath)
	switch {
	case upstreamError == nil:
		remoteBranch = strings.TrimPrefix(upstreamBranch, shared.OriginRemoteNameConstant+remoteBranchSeparatorConstant)
	case !errors.Is(upstreamError, shared.ErrNoUpstream):
		return RepositoryInfo{}, RepositoryInfoError{Path: repositoryPath, Cause: upstreamError}
	}

	remoteURL, remoteError := git.GetRemoteURL(executionContext, repositoryPath, shared.OriginRemoteNameConstant)
	if remoteError != nil {
		return RepositoryInfo{}, RepositoryInfoError{Path: repositoryPath, Cause: remoteError}
	}
	parsedRemote, parseError := gitrepo.ParseRemoteURL(remoteURL)
	if parseError != nil {
		return RepositoryInfo{}, RepositoryInfoError{Path: repositoryPath, Cause: parseError}
	}

	return RepositoryInfo{
		Path:          repositoryPath,
		CurrentBranch: currentBranch,
		RemoteBranch:  remoteBranch,
		RemoteURL:     remoteURL,
		ProjectName:   parsedRemote.ProjectName(),
	}, nil
}
