package push

import (
	"errors"
	"fmt"
)

const (
	gitManagerNotConfiguredMessageConstant    = "git repository manager not configured"
	reviewServiceNotConfiguredMessageConstant = "review service not configured"
	clientNotConfiguredMessageConstant        = "hosting client not configured"
	conflictingTitleStateMessageConstant      = "wip and ready cannot be requested together"
	repositoryInfoErrorTemplateConstant       = "read repository %s: %v"
	pushFailedTemplateConstant                = "push %s to %s: %v"
)

var (
	// ErrGitManagerNotConfigured indicates the pusher was constructed without git access.
	ErrGitManagerNotConfigured = errors.New(gitManagerNotConfiguredMessageConstant)
	// ErrReviewServiceNotConfigured indicates the pusher was constructed without a review service.
	ErrReviewServiceNotConfigured = errors.New(reviewServiceNotConfiguredMessageConstant)
	// ErrClientNotConfigured indicates a review service was constructed without its hosting client.
	ErrClientNotConfigured = errors.New(clientNotConfiguredMessageConstant)
	// ErrConflictingTitleState indicates both WIP and Ready were requested.
	ErrConflictingTitleState = errors.New(conflictingTitleStateMessageConstant)
)

// RepositoryInfoError reports a failure to read the branch or remote of the repository.
type RepositoryInfoError struct {
	Path  string
	Cause error
}

// Error names the repository.
func (infoError RepositoryInfoError) Error() string {
	return fmt.Sprintf(repositoryInfoErrorTemplateConstant, infoError.Path, infoError.Cause)
}

// Unwrap exposes the underlying cause.
func (infoError RepositoryInfoError) Unwrap() error {
	return infoError.Cause
}

// PushError reports a failed git push.
type PushError struct {
	Refspec string
	Remote  string
	Cause   error
}

// Error names the refspec.
func (pushError PushError) Error() string {
	return fmt.Sprintf(pushFailedTemplateConstant, pushError.Refspec, pushError.Remote, pushError.Cause)
}

// Unwrap exposes the underlying cause.
func (pushError PushError) Unwrap() error {
	return pushError.Cause
}
