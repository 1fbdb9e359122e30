package gitlab

import (
	"errors"
	"fmt"
	"strings"
)

const (
	apiErrorTemplateConstant               = "%d - %s"
	badStatusCodeTemplateConstant          = "Bad status code: %d"
	projectNotFoundTemplateConstant        = "Project not found: %s"
	noUserMatchingTemplateConstant         = "no user found matching %s"
	ambiguousUserTemplateConstant          = "several users match %s: %s"
	candidateSeparatorConstant             = ", "
	serverURLRequiredMessageConstant       = "gitlab server url required"
	tokenRequiredMessageConstant           = "gitlab token required"
	requestFailedTemplateConstant          = "%s %s: %w"
	responseDecodingFailedTemplateConstant = "decode %s response: %w"
	expectingJSONTemplateConstant          = "Expecting json result, got %s"
	invalidNextPageTemplateConstant        = "invalid %s header %q"
	invalidRateLimitMessageConstant        = "rate limit burst must be positive"
	requestEncodingFailedTemplateConstant  = "encode %s request: %w"
)

var (
	// ErrServerURLRequired indicates the client was constructed without a server URL.
	ErrServerURLRequired = errors.New(serverURLRequiredMessageConstant)
	// ErrTokenRequired indicates the client was constructed without a private token.
	ErrTokenRequired = errors.New(tokenRequiredMessageConstant)
	// ErrInvalidRateLimit indicates a non-positive limiter burst.
	ErrInvalidRateLimit = errors.New(invalidRateLimitMessageConstant)
)

// APIError reports a 4xx or 5xx answer from the GitLab API.
type APIError struct {
	URL        string
	StatusCode int
	Message    string
}

// Error renders "status - message", or the bare status when GitLab sent no message.
func (apiError APIError) Error() string {
	if len(apiError.Message) == 0 {
		return fmt.Sprintf(badStatusCodeTemplateConstant, apiError.StatusCode)
	}
	return fmt.Sprintf(apiErrorTemplateConstant, apiError.StatusCode, apiError.Message)
}

// NoUserMatchingError indicates no project or group member matched the query.
type NoUserMatchingError struct {
	Query string
}

// Error names the query.
func (matchError NoUserMatchingError) Error() string {
	return fmt.Sprintf(noUserMatchingTemplateConstant, matchError.Query)
}

// AmbiguousUserError indicates several members matched the query and none matched exactly.
type AmbiguousUserError struct {
	Query      string
	Candidates []string
}

// Error lists the candidates.
func (ambiguousError AmbiguousUserError) Error() string {
	return fmt.Sprintf(ambiguousUserTemplateConstant, ambiguousError.Query, strings.Join(ambiguousError.Candidates, candidateSeparatorConstant))
}
