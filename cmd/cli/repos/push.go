package repos

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/manifold/internal/credentials"
	"github.com/temirov/manifold/internal/githubcli"
	"github.com/temirov/manifold/internal/gitlab"
	"github.com/temirov/manifold/internal/push"
	"github.com/temirov/manifold/internal/repos/dependencies"
)

const (
	pushGitHubUseConstant              = "push-github"
	pushGitHubShortDescriptionConstant = "Push the current branch and open or update its pull request"
	pushGitHubLongDescriptionConstant  = "push-github pushes the branch checked out in the current repository to origin, then creates or updates the matching GitHub pull request through the gh CLI."
	pushGitLabUseConstant              = "push-gitlab"
	pushGitLabShortDescriptionConstant = "Push the current branch and open or update its merge request"
	pushGitLabLongDescriptionConstant  = "push-gitlab pushes the branch checked out in the current repository to origin, then creates or updates the matching merge request on the GitLab server declared by the manifest."
	pushForceFlagNameConstant          = "force"
	pushForceFlagUsageConstant         = "Force the push"
	pushTargetFlagNameConstant         = "target"
	pushTargetFlagUsageConstant        = "Target branch; defaults to the project's default branch"
	pushTitleFlagNameConstant          = "title"
	pushTitleFlagUsageConstant         = "Title of the review; defaults to the branch name"
	pushAssigneeFlagNameConstant       = "assignee"
	pushAssigneeFlagUsageConstant      = "Assign the review to this user"
	pushReviewersFlagNameConstant      = "reviewers"
	pushReviewersFlagUsageConstant     = "Request reviews from these users"
	pushCloseFlagNameConstant          = "close"
	pushCloseFlagUsageConstant         = "Close the review instead of updating it"
	pushMergeFlagNameConstant          = "merge"
	pushMergeFlagUsageConstant         = "Merge the pull request once updated"
	pushAcceptFlagNameConstant         = "accept"
	pushAcceptFlagUsageConstant        = "Merge the merge request when its pipeline succeeds"
	pushWIPFlagNameConstant            = "wip"
	pushWIPFlagUsageConstant           = "Mark the merge request as work in progress"
	pushReadyFlagNameConstant          = "ready"
	pushReadyFlagUsageConstant         = "Remove the work in progress marker"
	gitLabTokenMissingMessageConstant  = "GitLab token not set; configure gitlab.token, MANIFOLD_GITLAB_TOKEN or GITLAB_TOKEN"
)

// GitLabClientFactory creates a GitLab API client for the server at serverURL.
type GitLabClientFactory func(serverURL string, token string, logger *zap.Logger) (push.GitLabClient, error)

// PushGitHubCommandBuilder assembles the push-github command.
type PushGitHubCommandBuilder struct {
	CommandDependencies
	GitHubClient push.GitHubClient
}

// Build constructs the push-github command.
func (builder *PushGitHubCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   pushGitHubUseConstant,
		Short: pushGitHubShortDescriptionConstant,
		Long:  pushGitHubLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}
	registerCommonPushFlags(command)
	command.Flags().StringSlice(pushReviewersFlagNameConstant, nil, pushReviewersFlagUsageConstant)
	command.Flags().Bool(pushMergeFlagNameConstant, false, pushMergeFlagUsageConstant)
	return command, nil
}

func (builder *PushGitHubCommandBuilder) run(command *cobra.Command, arguments []string) error {
	options := readCommonPushOptions(command)
	options.Reviewers, _ = command.Flags().GetStringSlice(pushReviewersFlagNameConstant)
	options.Merge, _ = command.Flags().GetBool(pushMergeFlagNameConstant)

	environment, environmentError := builder.resolveEnvironment(command)
	if environmentError != nil {
		return environmentError
	}
	mergeMethod, mergeMethodError := githubcli.ParseMergeMethod(environment.configuration.GitHub.MergeMethod)
	if mergeMethodError != nil {
		return mergeMethodError
	}

	client := builder.GitHubClient
	if client == nil {
		resolvedClient, clientError := dependencies.ResolveGitHubClient(nil, environment.gitExecutor)
		if clientError != nil {
			return clientError
		}
		client = resolvedClient
	}

	reviewService, serviceError := push.NewGitHubReviewService(client, mergeMethod, environment.reporter)
	if serviceError != nil {
		return serviceError
	}
	return builder.push(command, environment, reviewService, options)
}

// PushGitLabCommandBuilder assembles the push-gitlab command.
type PushGitLabCommandBuilder struct {
	CommandDependencies
	GitLabClientFactory GitLabClientFactory
}

// Build constructs the push-gitlab command.
func (builder *PushGitLabCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   pushGitLabUseConstant,
		Short: pushGitLabShortDescriptionConstant,
		Long:  pushGitLabLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}
	registerCommonPushFlags(command)
	command.Flags().Bool(pushAcceptFlagNameConstant, false, pushAcceptFlagUsageConstant)
	command.Flags().Bool(pushWIPFlagNameConstant, false, pushWIPFlagUsageConstant)
	command.Flags().Bool(pushReadyFlagNameConstant, false, pushReadyFlagUsageConstant)
	return command, nil
}

func (builder *PushGitLabCommandBuilder) run(command *cobra.Command, arguments []string) error {
	options := readCommonPushOptions(command)
	options.Merge, _ = command.Flags().GetBool(pushAcceptFlagNameConstant)
	options.WIP, _ = command.Flags().GetBool(pushWIPFlagNameConstant)
	options.Ready, _ = command.Flags().GetBool(pushReadyFlagNameConstant)
	if validationError := options.Validate(); validationError != nil {
		return validationError
	}

	environment, environmentError := builder.resolveEnvironment(command)
	if environmentError != nil {
		return environmentError
	}
	token, tokenFound := credentials.ResolveGitLabToken(environment.configuration.GitLab.Token, nil)
	if !tokenFound {
		return errors.New(gitLabTokenMissingMessageConstant)
	}
	loaded, loadError := builder.loadWorkspace(command, environment, false)
	if loadError != nil {
		return loadError
	}
	serverURL, serverError := loaded.manifest.GitLabURL()
	if serverError != nil {
		return serverError
	}

	factory := builder.GitLabClientFactory
	if factory == nil {
		factory = newGitLabClient
	}
	client, clientError := factory(serverURL, token, environment.logger)
	if clientError != nil {
		return clientError
	}

	reviewService, serviceError := push.NewGitLabReviewService(client, environment.reporter)
	if serviceError != nil {
		return serviceError
	}
	return builder.push(command, environment, reviewService, options)
}

func (commandDependencies CommandDependencies) push(command *cobra.Command, environment commandEnvironment, reviewService push.ReviewService, options push.Options) error {
	repositoryPath, workingDirectoryError := commandDependencies.workingDirectory()
	if workingDirectoryError != nil {
		return workingDirectoryError
	}
	pusher, pusherError := push.NewPusher(push.Dependencies{
		Git:           environment.gitManager,
		ReviewService: reviewService,
		Reporter:      environment.reporter,
	})
	if pusherError != nil {
		return pusherError
	}
	return pusher.Push(command.Context(), repositoryPath, options)
}

func newGitLabClient(serverURL string, token string, logger *zap.Logger) (push.GitLabClient, error) {
	client, clientError := gitlab.NewClient(serverURL, token, gitlab.WithLogger(logger))
	if clientError != nil {
		return nil, clientError
	}
	return client, nil
}

func registerCommonPushFlags(command *cobra.Command) {
	command.Flags().BoolP(pushForceFlagNameConstant, "f", false, pushForceFlagUsageConstant)
	command.Flags().StringP(pushTargetFlagNameConstant, "t", "", pushTargetFlagUsageConstant)
	command.Flags().String(pushTitleFlagNameConstant, "", pushTitleFlagUsageConstant)
	command.Flags().StringP(pushAssigneeFlagNameConstant, "a", "", pushAssigneeFlagUsageConstant)
	command.Flags().Bool(pushCloseFlagNameConstant, false, pushCloseFlagUsageConstant)
}

func readCommonPushOptions(command *cobra.Command) push.Options {
	var options push.Options
	options.Force, _ = command.Flags().GetBool(pushForceFlagNameConstant)
	options.TargetBranch, _ = command.Flags().GetString(pushTargetFlagNameConstant)
	options.Title, _ = command.Flags().GetString(pushTitleFlagNameConstant)
	options.Assignee, _ = command.Flags().GetString(pushAssigneeFlagNameConstant)
	options.Close, _ = command.Flags().GetBool(pushCloseFlagNameConstant)
	return options
}
