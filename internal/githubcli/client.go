package githubcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/temirov/manifold/internal/execshell"
)

const (
	repoSubcommandConstant                  = "repo"
	viewSubcommandConstant                  = "view"
	pullRequestSubcommandConstant           = "pr"
	listSubcommandConstant                  = "list"
	createSubcommandConstant                = "create"
	editSubcommandConstant                  = "edit"
	closeSubcommandConstant                 = "close"
	mergeSubcommandConstant                 = "merge"
	jsonFlagConstant                        = "--json"
	repoFlagConstant                        = "--repo"
	stateFlagConstant                       = "--state"
	baseFlagConstant                        = "--base"
	headFlagConstant                        = "--head"
	titleFlagConstant                       = "--title"
	bodyFlagConstant                        = "--body"
	limitFlagConstant                       = "--limit"
	addAssigneeFlagConstant                 = "--add-assignee"
	addReviewerFlagConstant                 = "--add-reviewer"
	flagPrefixConstant                      = "--"
	repositoryFieldNameConstant             = "repository"
	headBranchFieldNameConstant             = "head_branch"
	baseBranchFieldNameConstant             = "base_branch"
	titleFieldNameConstant                  = "title"
	stateFieldNameConstant                  = "state"
	numberFieldNameConstant                 = "number"
	mergeMethodFieldNameConstant            = "merge_method"
	requiredValueMessageConstant            = "value required"
	positiveValueMessageConstant            = "positive value required"
	unsupportedValueTemplateConstant        = "unsupported value %q"
	executorNotConfiguredMessageConstant    = "github cli executor not configured"
	pullRequestLimitDefaultValueConstant    = 100
	pullRequestJSONFieldsConstant           = "number,title,headRefName,baseRefName,url"
	repoViewJSONFieldsConstant              = "nameWithOwner,defaultBranchRef"
	pullRequestURLSeparatorConstant         = "/"
	operationErrorMessageTemplateConstant   = "%s operation failed"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant   = "%s response decoding failed: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	unexpectedCreateOutputTemplateConstant  = "unexpected gh pr create output %q"
	repositoryMetadataOperationNameConstant = OperationName("ResolveRepoMetadata")
	listPullRequestsOperationNameConstant   = OperationName("ListPullRequests")
	createPullRequestOperationNameConstant  = OperationName("CreatePullRequest")
	editPullRequestOperationNameConstant    = OperationName("EditPullRequest")
	closePullRequestOperationNameConstant   = OperationName("ClosePullRequest")
	mergePullRequestOperationNameConstant   = OperationName("MergePullRequest")
)

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// PullRequestState describes acceptable GitHub pull request states.
type PullRequestState string

// Pull request state enumerations.
const (
	PullRequestStateOpen   PullRequestState = PullRequestState("open")
	PullRequestStateClosed PullRequestState = PullRequestState("closed")
	PullRequestStateMerged PullRequestState = PullRequestState("merged")
)

// MergeMethod selects how gh pr merge combines the pull request.
type MergeMethod string

// Merge methods supported by gh pr merge.
const (
	MergeMethodMerge  MergeMethod = MergeMethod("merge")
	MergeMethodSquash MergeMethod = MergeMethod("squash")
	MergeMethodRebase MergeMethod = MergeMethod("rebase")
)

// ParseMergeMethod validates a textual merge method. An empty value selects MergeMethodMerge.
func ParseMergeMethod(value string) (MergeMethod, error) {
	switch MergeMethod(strings.ToLower(strings.TrimSpace(value))) {
	case "", MergeMethodMerge:
		return MergeMethodMerge, nil
	case MergeMethodSquash:
		return MergeMethodSquash, nil
	case MergeMethodRebase:
		return MergeMethodRebase, nil
	default:
		return "", InvalidInputError{FieldName: mergeMethodFieldNameConstant, Message: fmt.Sprintf(unsupportedValueTemplateConstant, value)}
	}
}

// RepositoryMetadata holds the canonical name and default branch of a GitHub repository.
type RepositoryMetadata struct {
	NameWithOwner string
	DefaultBranch string
}

// PullRequest mirrors the fields requested from gh pr list.
type PullRequest struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	HeadRefName string `json:"headRefName"`
	BaseRefName string `json:"baseRefName"`
	URL         string `json:"url"`
}

// PullRequestListOptions configures ListPullRequests queries.
type PullRequestListOptions struct {
	State       PullRequestState
	BaseBranch  string
	HeadBranch  string
	ResultLimit int
}

// PullRequestCreateOptions describes a pull request to open.
type PullRequestCreateOptions struct {
	Title      string
	BaseBranch string
	HeadBranch string
	Body       string
}

// PullRequestEditOptions lists the changes applied to an existing pull request. Empty fields are left alone.
type PullRequestEditOptions struct {
	Title      string
	BaseBranch string
	Assignees  []string
	Reviewers  []string
}

func (options PullRequestEditOptions) isEmpty() bool {
	return len(options.Title) == 0 && len(options.BaseBranch) == 0 && len(options.Assignees) == 0 && len(options.Reviewers) == 0
}

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor GitHubCommandExecutor
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates output parsing failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// NewClient constructs a GitHub CLI client.
func NewClient(executor GitHubCommandExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor}, nil
}

// ResolveRepoMetadata reads the canonical name and default branch of repository with gh repo view.
func (client *Client) ResolveRepoMetadata(executionContext context.Context, repository string) (RepositoryMetadata, error) {
	repositoryIdentifier, repositoryError := requireRepository(repository)
	if repositoryError != nil {
		return RepositoryMetadata{}, repositoryError
	}

	executionResult, executionError := client.run(executionContext, []string{
		repoSubcommandConstant, viewSubcommandConstant, repositoryIdentifier, jsonFlagConstant, repoViewJSONFieldsConstant,
	})
	if executionError != nil {
		return RepositoryMetadata{}, OperationError{Operation: repositoryMetadataOperationNameConstant, Cause: executionError}
	}

	response, decodingError := decodeResponse[struct {
		NameWithOwner    string `json:"nameWithOwner"`
		DefaultBranchRef struct {
			Name string `json:"name"`
		} `json:"defaultBranchRef"`
	}](repositoryMetadataOperationNameConstant, executionResult)
	if decodingError != nil {
		return RepositoryMetadata{}, decodingError
	}
	return RepositoryMetadata{NameWithOwner: response.NameWithOwner, DefaultBranch: response.DefaultBranchRef.Name}, nil
}

// ListPullRequests returns pull requests in the given state, optionally narrowed to a base and head branch.
func (client *Client) ListPullRequests(executionContext context.Context, repository string, options PullRequestListOptions) ([]PullRequest, error) {
	repositoryIdentifier, repositoryError := requireRepository(repository)
	if repositoryError != nil {
		return nil, repositoryError
	}
	if len(options.State) == 0 {
		return nil, InvalidInputError{FieldName: stateFieldNameConstant, Message: requiredValueMessageConstant}
	}

	resultLimit := options.ResultLimit
	if resultLimit <= 0 {
		resultLimit = pullRequestLimitDefaultValueConstant
	}

	arguments := []string{pullRequestSubcommandConstant, listSubcommandConstant, repoFlagConstant, repositoryIdentifier, stateFlagConstant, string(options.State)}
	arguments = appendOptionalFlag(arguments, baseFlagConstant, options.BaseBranch)
	arguments = appendOptionalFlag(arguments, headFlagConstant, options.HeadBranch)
	arguments = append(arguments, jsonFlagConstant, pullRequestJSONFieldsConstant, limitFlagConstant, strconv.Itoa(resultLimit))

	executionResult, executionError := client.run(executionContext, arguments)
	if executionError != nil {
		return nil, OperationError{Operation: listPullRequestsOperationNameConstant, Cause: executionError}
	}
	return decodeResponse[[]PullRequest](listPullRequestsOperationNameConstant, executionResult)
}

// FindOpenPullRequest returns the open pull request whose head is headBranch, if any.
func (client *Client) FindOpenPullRequest(executionContext context.Context, repository string, headBranch string) (PullRequest, bool, error) {
	trimmedHead := strings.TrimSpace(headBranch)
	if len(trimmedHead) == 0 {
		return PullRequest{}, false, InvalidInputError{FieldName: headBranchFieldNameConstant, Message: requiredValueMessageConstant}
	}

	pullRequests, listError := client.ListPullRequests(executionContext, repository, PullRequestListOptions{
		State:      PullRequestStateOpen,
		HeadBranch: trimmedHead,
	})
	if listError != nil {
		return PullRequest{}, false, listError
	}
	for _, pullRequest := range pullRequests {
		if pullRequest.HeadRefName == trimmedHead {
			return pullRequest, true, nil
		}
	}
	return PullRequest{}, false, nil
}

// CreatePullRequest opens a pull request with gh pr create and returns its number and URL.
func (client *Client) CreatePullRequest(executionContext context.Context, repository string, options PullRequestCreateOptions) (PullRequest, error) {
	repositoryIdentifier, repositoryError := requireRepository(repository)
	if repositoryError != nil {
		return PullRequest{}, repositoryError
	}
	requiredFields := []struct {
		name  string
		value string
	}{
		{name: titleFieldNameConstant, value: options.Title},
		{name: baseBranchFieldNameConstant, value: options.BaseBranch},
		{name: headBranchFieldNameConstant, value: options.HeadBranch},
	}
	for _, requiredField := range requiredFields {
		if len(strings.TrimSpace(requiredField.value)) == 0 {
			return PullRequest{}, InvalidInputError{FieldName: requiredField.name, Message: requiredValueMessageConstant}
		}
	}

	executionResult, executionError := client.run(executionContext, []string{
		pullRequestSubcommandConstant,
		createSubcommandConstant,
		repoFlagConstant,
		repositoryIdentifier,
		titleFlagConstant,
		options.Title,
		baseFlagConstant,
		options.BaseBranch,
		headFlagConstant,
		options.HeadBranch,
		bodyFlagConstant,
		options.Body,
	})
	if executionError != nil {
		return PullRequest{}, OperationError{Operation: createPullRequestOperationNameConstant, Cause: executionError}
	}

	pullRequestURL := lastNonEmptyLine(executionResult.StandardOutput)
	number, numberError := strconv.Atoi(pullRequestURL[strings.LastIndex(pullRequestURL, pullRequestURLSeparatorConstant)+1:])
	if numberError != nil {
		return PullRequest{}, ResponseDecodingError{
			Operation: createPullRequestOperationNameConstant,
			Cause:     fmt.Errorf(unexpectedCreateOutputTemplateConstant, executionResult.StandardOutput),
		}
	}

	return PullRequest{
		Number:      number,
		Title:       options.Title,
		HeadRefName: options.HeadBranch,
		BaseRefName: options.BaseBranch,
		URL:         pullRequestURL,
	}, nil
}

// EditPullRequest applies title, base, assignee and reviewer changes. Nothing runs when options are empty.
func (client *Client) EditPullRequest(executionContext context.Context, repository string, number int, options PullRequestEditOptions) error {
	repositoryIdentifier, validationError := requirePullRequest(repository, number)
	if validationError != nil {
		return validationError
	}
	if options.isEmpty() {
		return nil
	}

	arguments := []string{pullRequestSubcommandConstant, editSubcommandConstant, strconv.Itoa(number), repoFlagConstant, repositoryIdentifier}
	arguments = appendOptionalFlag(arguments, titleFlagConstant, options.Title)
	arguments = appendOptionalFlag(arguments, baseFlagConstant, options.BaseBranch)
	for _, assignee := range options.Assignees {
		arguments = append(arguments, addAssigneeFlagConstant, assignee)
	}
	for _, reviewer := range options.Reviewers {
		arguments = append(arguments, addReviewerFlagConstant, reviewer)
	}

	if _, executionError := client.run(executionContext, arguments); executionError != nil {
		return OperationError{Operation: editPullRequestOperationNameConstant, Cause: executionError}
	}
	return nil
}

// ClosePullRequest closes the pull request without merging it.
func (client *Client) ClosePullRequest(executionContext context.Context, repository string, number int) error {
	repositoryIdentifier, validationError := requirePullRequest(repository, number)
	if validationError != nil {
		return validationError
	}
	arguments := []string{pullRequestSubcommandConstant, closeSubcommandConstant, strconv.Itoa(number), repoFlagConstant, repositoryIdentifier}
	if _, executionError := client.run(executionContext, arguments); executionError != nil {
		return OperationError{Operation: closePullRequestOperationNameConstant, Cause: executionError}
	}
	return nil
}

// MergePullRequest merges the pull request with the provided method.
func (client *Client) MergePullRequest(executionContext context.Context, repository string, number int, method MergeMethod) error {
	repositoryIdentifier, validationError := requirePullRequest(repository, number)
	if validationError != nil {
		return validationError
	}
	if len(method) == 0 {
		method = MergeMethodMerge
	}
	arguments := []string{
		pullRequestSubcommandConstant,
		mergeSubcommandConstant,
		strconv.Itoa(number),
		repoFlagConstant,
		repositoryIdentifier,
		flagPrefixConstant + string(method),
	}
	if _, executionError := client.run(executionContext, arguments); executionError != nil {
		return OperationError{Operation: mergePullRequestOperationNameConstant, Cause: executionError}
	}
	return nil
}

func (client *Client) run(executionContext context.Context, arguments []string) (execshell.ExecutionResult, error) {
	return client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{Arguments: arguments})
}

func decodeResponse[Response any](operation OperationName, result execshell.ExecutionResult) (Response, error) {
	var response Response
	if decodingError := json.Unmarshal([]byte(result.StandardOutput), &response); decodingError != nil {
		return response, ResponseDecodingError{Operation: operation, Cause: decodingError}
	}
	return response, nil
}

func appendOptionalFlag(arguments []string, flagName string, value string) []string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return arguments
	}
	return append(arguments, flagName, trimmedValue)
}

func requireRepository(repository string) (string, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return "", InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return repositoryIdentifier, nil
}

func requirePullRequest(repository string, number int) (string, error) {
	repositoryIdentifier, repositoryError := requireRepository(repository)
	if repositoryError != nil {
		return "", repositoryError
	}
	if number <= 0 {
		return "", InvalidInputError{FieldName: numberFieldNameConstant, Message: positiveValueMessageConstant}
	}
	return repositoryIdentifier, nil
}

func lastNonEmptyLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
