package push

import (
	"context"
	"fmt"

	"github.com/temirov/manifold/internal/repos/shared"
)

const (
	pushingTemplateConstant = "Pushing %s to %s/%s\n"
	refspecTemplateConstant = "%s:%s"
)

// Options carries the user's requests for the push and the review that follows it.
type Options struct {
	Force        bool
	TargetBranch string
	Title        string
	Assignee     string
	Reviewers    []string
	Close        bool
	Merge        bool
	WIP          bool
	Ready        bool
}

// Validate rejects contradictory requests.
func (options Options) Validate() error {
	if options.WIP && options.Ready {
		return ErrConflictingTitleState
	}
	return nil
}

// ReviewService opens or updates the review tracking a pushed branch.
type ReviewService interface {
	EnsureReview(executionContext context.Context, info RepositoryInfo, options Options) error
}

// Dependencies captures collaborators required to push.
type Dependencies struct {
	Git           RepositoryGit
	ReviewService ReviewService
	Reporter      shared.Reporter
}

// Pusher pushes the current branch then hands over to the review service.
type Pusher struct {
	dependencies Dependencies
}

// NewPusher validates dependencies and constructs a Pusher.
func NewPusher(dependencies Dependencies) (*Pusher, error) {
	if dependencies.Git == nil {
		return nil, ErrGitManagerNotConfigured
	}
	if dependencies.ReviewService == nil {
		return nil, ErrReviewServiceNotConfigured
	}
	if dependencies.Reporter == nil {
		dependencies.Reporter = shared.NewWriterReporter(nil)
	}
	return &Pusher{dependencies: dependencies}, nil
}

// Push pushes the branch checked out at repositoryPath to origin and ensures its review.
func (pusher *Pusher) Push(executionContext context.Context, repositoryPath string, options Options) error {
	if validationError := options.Validate(); validationError != nil {
		return validationError
	}

	info, infoError := ReadRepositoryInfo(executionContext, pusher.dependencies.Git, repositoryPath)
	if infoError != nil {
		return infoError
	}

	refspec := fmt.Sprintf(refspecTemplateConstant, info.CurrentBranch, info.RemoteBranch)
	pusher.dependencies.Reporter.Printf(pushingTemplateConstant, info.CurrentBranch, shared.OriginRemoteNameConstant, info.RemoteBranch)
	if pushError := pusher.dependencies.Git.Push(executionContext, info.Path, shared.OriginRemoteNameConstant, refspec, options.Force); pushError != nil {
		return PushError{Refspec: refspec, Remote: shared.OriginRemoteNameConstant, Cause: pushError}
	}

	return pusher.dependencies.ReviewService.EnsureReview(executionContext, info, options)
}
