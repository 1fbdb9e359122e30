package push

import (
	"context"
	"strings"

	"github.com/temirov/manifold/internal/gitlab"
	"github.com/temirov/manifold/internal/repos/shared"
)

const (
	wipTitlePrefixConstant               = "WIP: "
	foundMergeRequestTemplateConstant    = "Found existing merge request: !%d\n"
	creatingMergeRequestTemplateConstant = "Creating merge request %s -> %s\n"
	closingMergeRequestTemplateConstant  = "Closing merge request !%d\n"
	acceptingMergeRequestMessageConstant = "Merging when build succeeds\n"
	seeMergeRequestTemplateConstant      = ":: See merge request at %s\n"
)

// GitLabClient is the subset of gitlab.Client the GitLab review service uses.
type GitLabClient interface {
	GetProjectID(executionContext context.Context, projectName string) (int, error)
	GetDefaultBranch(executionContext context.Context, projectID int) (string, error)
	FindOpenMergeRequest(executionContext context.Context, projectID int, sourceBranch string) (gitlab.MergeRequest, bool, error)
	CreateMergeRequest(executionContext context.Context, projectID int, options gitlab.MergeRequestCreateOptions) (gitlab.MergeRequest, error)
	UpdateMergeRequest(executionContext context.Context, mergeRequest gitlab.MergeRequest, options gitlab.MergeRequestUpdateOptions) (gitlab.MergeRequest, error)
	CloseMergeRequest(executionContext context.Context, mergeRequest gitlab.MergeRequest) error
	AcceptMergeRequest(executionContext context.Context, mergeRequest gitlab.MergeRequest) error
	FindUser(executionContext context.Context, projectID int, groupName string, query string) (gitlab.User, error)
}

// GitLabReviewService keeps a merge request in step with the pushed branch.
type GitLabReviewService struct {
	client   GitLabClient
	reporter shared.Reporter
}

// NewGitLabReviewService constructs the service.
func NewGitLabReviewService(client GitLabClient, reporter shared.Reporter) (*GitLabReviewService, error) {
	if client == nil {
		return nil, ErrClientNotConfigured
	}
	if reporter == nil {
		reporter = shared.NewWriterReporter(nil)
	}
	return &GitLabReviewService{client: client, reporter: reporter}, nil
}

// EnsureReview finds or opens the merge request for info.RemoteBranch, then closes it or
// updates title, target and assignee, flags the source branch for removal and optionally accepts it.
func (service *GitLabReviewService) EnsureReview(executionContext context.Context, info RepositoryInfo, options Options) error {
	projectID, projectError := service.client.GetProjectID(executionContext, info.ProjectName)
	if projectError != nil {
		return projectError
	}

	mergeRequest, ensureError := service.ensureMergeRequest(executionContext, projectID, info, options)
	if ensureError != nil {
		return ensureError
	}

	if options.Close {
		service.reporter.Printf(closingMergeRequestTemplateConstant, mergeRequest.IID)
		return service.client.CloseMergeRequest(executionContext, mergeRequest)
	}

	updateOptions := gitlab.MergeRequestUpdateOptions{
		Title:              resolveMergeRequestTitle(mergeRequest.Title, options),
		TargetBranch:       options.TargetBranch,
		RemoveSourceBranch: true,
	}
	if len(options.Assignee) > 0 {
		assignee, assigneeError := service.client.FindUser(executionContext, projectID, info.GroupName(), options.Assignee)
		if assigneeError != nil {
			return assigneeError
		}
		service.reporter.Printf(assigningTemplateConstant, assignee.Name)
		updateOptions.AssigneeID = assignee.ID
	}
	if _, updateError := service.client.UpdateMergeRequest(executionContext, mergeRequest, updateOptions); updateError != nil {
		return updateError
	}

	if options.Merge {
		service.reporter.Printf(acceptingMergeRequestMessageConstant)
		if acceptError := service.client.AcceptMergeRequest(executionContext, mergeRequest); acceptError != nil {
			return acceptError
		}
	}

	service.reporter.Printf(seeMergeRequestTemplateConstant, mergeRequest.WebURL)
	return nil
}

func (service *GitLabReviewService) ensureMergeRequest(executionContext context.Context, projectID int, info RepositoryInfo, options Options) (gitlab.MergeRequest, error) {
	existing, found, findError := service.client.FindOpenMergeRequest(executionContext, projectID, info.RemoteBranch)
	if findError != nil {
		return gitlab.MergeRequest{}, findError
	}
	if found {
		service.reporter.Printf(foundMergeRequestTemplateConstant, existing.IID)
		return existing, nil
	}

	targetBranch := options.TargetBranch
	if len(targetBranch) == 0 {
		defaultBranch, branchError := service.client.GetDefaultBranch(executionContext, projectID)
		if branchError != nil {
			return gitlab.MergeRequest{}, branchError
		}
		targetBranch = defaultBranch
	}

	service.reporter.Printf(creatingMergeRequestTemplateConstant, info.RemoteBranch, targetBranch)
	return service.client.CreateMergeRequest(executionContext, projectID, gitlab.MergeRequestCreateOptions{
		SourceBranch: info.RemoteBranch,
		TargetBranch: targetBranch,
		Title:        info.RemoteBranch,
	})
}

// resolveMergeRequestTitle prefers an explicit title, else toggles the WIP prefix of the current one.
func resolveMergeRequestTitle(currentTitle string, options Options) string {
	switch {
	case len(options.Title) > 0:
		return options.Title
	case options.Ready:
		return strings.TrimPrefix(currentTitle, wipTitlePrefixConstant)
	case options.WIP && !strings.HasPrefix(currentTitle, wipTitlePrefixConstant):
		return wipTitlePrefixConstant + currentTitle
	default:
		return currentTitle
	}
}
