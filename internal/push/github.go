package push

import (
	"context"
	"strings"

	"github.com/temirov/manifold/internal/githubcli"
	"github.com/temirov/manifold/internal/repos/shared"
)

const (
	foundPullRequestTemplateConstant    = "Found existing pull request: #%d\n"
	creatingPullRequestTemplateConstant = "Creating pull request %s -> %s\n"
	closingPullRequestTemplateConstant  = "Closing pull request #%d\n"
	requestingReviewTemplateConstant    = "Requesting review from %s\n"
	assigningTemplateConstant           = "Assigning to %s\n"
	mergingPullRequestTemplateConstant  = "Merging #%d\n"
	seePullRequestTemplateConstant      = ":: See pull request at %s\n"
	reviewerSeparatorConstant           = ", "
)

// GitHubClient is the subset of githubcli.Client the GitHub review service uses.
type GitHubClient interface {
	ResolveRepoMetadata(executionContext context.Context, repository string) (githubcli.RepositoryMetadata, error)
	FindOpenPullRequest(executionContext context.Context, repository string, headBranch string) (githubcli.PullRequest, bool, error)
	CreatePullRequest(executionContext context.Context, repository string, options githubcli.PullRequestCreateOptions) (githubcli.PullRequest, error)
	EditPullRequest(executionContext context.Context, repository string, number int, options githubcli.PullRequestEditOptions) error
	ClosePullRequest(executionContext context.Context, repository string, number int) error
	MergePullRequest(executionContext context.Context, repository string, number int, method githubcli.MergeMethod) error
}

// GitHubReviewService keeps a pull request in step with the pushed branch.
type GitHubReviewService struct {
	client      GitHubClient
	mergeMethod githubcli.MergeMethod
	reporter    shared.Reporter
}

// NewGitHubReviewService constructs the service. mergeMethod applies when a merge is requested.
func NewGitHubReviewService(client GitHubClient, mergeMethod githubcli.MergeMethod, reporter shared.Reporter) (*GitHubReviewService, error) {
	if client == nil {
		return nil, ErrClientNotConfigured
	}
	if reporter == nil {
		reporter = shared.NewWriterReporter(nil)
	}
	return &GitHubReviewService{client: client, mergeMethod: mergeMethod, reporter: reporter}, nil
}

// EnsureReview finds or opens the pull request for info.RemoteBranch, then closes it or
// applies the requested title, base, reviewers, assignee and merge.
func (service *GitHubReviewService) EnsureReview(executionContext context.Context, info RepositoryInfo, options Options) error {
	pullRequest, ensureError := service.ensurePullRequest(executionContext, info, options)
	if ensureError != nil {
		return ensureError
	}

	if options.Close {
		service.reporter.Printf(closingPullRequestTemplateConstant, pullRequest.Number)
		return service.client.ClosePullRequest(executionContext, info.ProjectName, pullRequest.Number)
	}

	editOptions := githubcli.PullRequestEditOptions{
		Title:      options.Title,
		BaseBranch: options.TargetBranch,
		Reviewers:  options.Reviewers,
	}
	if len(options.Reviewers) > 0 {
		service.reporter.Printf(requestingReviewTemplateConstant, strings.Join(options.Reviewers, reviewerSeparatorConstant))
	}
	if len(options.Assignee) > 0 {
		service.reporter.Printf(assigningTemplateConstant, options.Assignee)
		editOptions.Assignees = []string{options.Assignee}
	}
	if editError := service.client.EditPullRequest(executionContext, info.ProjectName, pullRequest.Number, editOptions); editError != nil {
		return editError
	}

	if options.Merge {
		service.reporter.Printf(mergingPullRequestTemplateConstant, pullRequest.Number)
		if mergeError := service.client.MergePullRequest(executionContext, info.ProjectName, pullRequest.Number, service.mergeMethod); mergeError != nil {
			return mergeError
		}
	}

	service.reporter.Printf(seePullRequestTemplateConstant, pullRequest.URL)
	return nil
}

func (service *GitHubReviewService) ensurePullRequest(executionContext context.Context, info RepositoryInfo, options Options) (githubcli.PullRequest, error) {
	existing, found, findError := service.client.FindOpenPullRequest(executionContext, info.ProjectName, info.RemoteBranch)
	if findError != nil {
		return githubcli.PullRequest{}, findError
	}
	if found {
		service.reporter.Printf(foundPullRequestTemplateConstant, existing.Number)
		return existing, nil
	}

	title := options.Title
	if len(title) == 0 {
		title = info.RemoteBranch
	}
	targetBranch := options.TargetBranch
	if len(targetBranch) == 0 {
		metadata, metadataError := service.client.ResolveRepoMetadata(executionContext, info.ProjectName)
		if metadataError != nil {
			return githubcli.PullRequest{}, metadataError
		}
		targetBranch = metadata.DefaultBranch
	}

	service.reporter.Printf(creatingPullRequestTemplateConstant, info.RemoteBranch, targetBranch)
	return service.client.CreatePullRequest(executionContext, info.ProjectName, githubcli.PullRequestCreateOptions{
		Title:      title,
		BaseBranch: targetBranch,
		HeadBranch: info.RemoteBranch,
	})
}
