package githubcli_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/manifold/internal/execshell"
	"github.com/temirov/manifold/internal/githubcli"
)

const (
	testRepositoryIdentifierConstant = "owner/example"
	testBaseBranchConstant           = "main"
	testPullRequestTitleConstant     = "Example"
	testPullRequestHeadConstant      = "feature/example"
	testPullRequestURLConstant       = "https://github.com/owner/example/pull/42"
)

type stubGitHubExecutor struct {
	executeFunc     func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error)
	recordedDetails []execshell.CommandDetails
}

func (executor *stubGitHubExecutor) ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedDetails = append(executor.recordedDetails, details)
	if executor.executeFunc != nil {
		return executor.executeFunc(executionContext, details)
	}
	return execshell.ExecutionResult{}, nil
}

func respondWith(output string, failure error) *stubGitHubExecutor {
	return &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
		return execshell.ExecutionResult{StandardOutput: output}, failure
	}}
}

var ghExitFailure = execshell.CommandFailedError{
	Command: execshell.ShellCommand{Name: execshell.CommandGitHub},
	Result:  execshell.ExecutionResult{ExitCode: 1, StandardError: "HTTP 404: Not Found"},
}

func TestNewClientRequiresExecutor(testInstance *testing.T) {
	client, creationError := githubcli.NewClient(nil)
	require.ErrorIs(testInstance, creationError, githubcli.ErrExecutorNotConfigured)
	require.Nil(testInstance, client)
}

func TestResolveRepoMetadata(testInstance *testing.T) {
	testCases := []struct {
		name             string
		repository       string
		executor         *stubGitHubExecutor
		expectedMetadata githubcli.RepositoryMetadata
		expectedError    any
	}{
		{
			name:             "default_branch_read",
			repository:       " " + testRepositoryIdentifierConstant + " ",
			executor:         respondWith(`{"nameWithOwner":"owner/example","defaultBranchRef":{"name":"trunk"}}`, nil),
			expectedMetadata: githubcli.RepositoryMetadata{NameWithOwner: testRepositoryIdentifierConstant, DefaultBranch: "trunk"},
		},
		{name: "malformed_output", repository: testRepositoryIdentifierConstant, executor: respondWith("<html>", nil), expectedError: githubcli.ResponseDecodingError{}},
		{name: "gh_exit_failure", repository: testRepositoryIdentifierConstant, executor: respondWith("", ghExitFailure), expectedError: githubcli.OperationError{}},
		{name: "blank_repository", repository: "  ", executor: &stubGitHubExecutor{}, expectedError: githubcli.InvalidInputError{}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			client, creationError := githubcli.NewClient(testCase.executor)
			require.NoError(testInstance, creationError)

			metadata, resolutionError := client.ResolveRepoMetadata(context.Background(), testCase.repository)
			if testCase.expectedError != nil {
				require.IsType(testInstance, testCase.expectedError, resolutionError)
				return
			}
			require.NoError(testInstance, resolutionError)
			require.Equal(testInstance, testCase.expectedMetadata, metadata)
			require.Equal(testInstance, []string{"repo", "view", testRepositoryIdentifierConstant, "--json", "nameWithOwner,defaultBranchRef"}, testCase.executor.recordedDetails[0].Arguments)
		})
	}
}

func TestListPullRequests(testInstance *testing.T) {
	listOutput := `[{"number":42,"title":"Example","headRefName":"feature/example","baseRefName":"main","url":"https://github.com/owner/example/pull/42"}]`

	testCases := []struct {
		name              string
		repository        string
		options           githubcli.PullRequestListOptions
		executor          *stubGitHubExecutor
		expectedRequests  []githubcli.PullRequest
		expectedArguments []string
		expectedError     any
	}{
		{
			name:       "base_filter_and_limit",
			repository: testRepositoryIdentifierConstant,
			options:    githubcli.PullRequestListOptions{State: githubcli.PullRequestStateOpen, BaseBranch: testBaseBranchConstant, ResultLimit: 50},
			executor:   respondWith(listOutput, nil),
			expectedRequests: []githubcli.PullRequest{{
				Number: 42, Title: testPullRequestTitleConstant, HeadRefName: testPullRequestHeadConstant, BaseRefName: testBaseBranchConstant, URL: testPullRequestURLConstant,
			}},
			expectedArguments: []string{
				"pr", "list", "--repo", testRepositoryIdentifierConstant, "--state", "open",
				"--base", testBaseBranchConstant,
				"--json", "number,title,headRefName,baseRefName,url", "--limit", "50",
			},
		},
		{
			name:             "head_filter_with_blank_base",
			repository:       testRepositoryIdentifierConstant,
			options:          githubcli.PullRequestListOptions{State: githubcli.PullRequestStateMerged, BaseBranch: " ", HeadBranch: testPullRequestHeadConstant},
			executor:         respondWith("[]", nil),
			expectedRequests: []githubcli.PullRequest{},
			expectedArguments: []string{
				"pr", "list", "--repo", testRepositoryIdentifierConstant, "--state", "merged",
				"--head", testPullRequestHeadConstant,
				"--json", "number,title,headRefName,baseRefName,url", "--limit", "100",
			},
		},
		{
			name:          "malformed_output",
			repository:    testRepositoryIdentifierConstant,
			options:       githubcli.PullRequestListOptions{State: githubcli.PullRequestStateOpen},
			executor:      respondWith("not-json", nil),
			expectedError: githubcli.ResponseDecodingError{},
		},
		{
			name:       "gh_not_runnable",
			repository: testRepositoryIdentifierConstant,
			options:    githubcli.PullRequestListOptions{State: githubcli.PullRequestStateClosed},
			executor: respondWith("", execshell.CommandExecutionError{
				Command: execshell.ShellCommand{Name: execshell.CommandGitHub},
				Cause:   errors.New("executable file not found"),
			}),
			expectedError: githubcli.OperationError{},
		},
		{name: "missing_repository", options: githubcli.PullRequestListOptions{State: githubcli.PullRequestStateOpen}, executor: &stubGitHubExecutor{}, expectedError: githubcli.InvalidInputError{}},
		{name: "missing_state", repository: testRepositoryIdentifierConstant, executor: &stubGitHubExecutor{}, expectedError: githubcli.InvalidInputError{}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			client, creationError := githubcli.NewClient(testCase.executor)
			require.NoError(testInstance, creationError)

			pullRequests, listError := client.ListPullRequests(context.Background(), testCase.repository, testCase.options)
			if testCase.expectedError != nil {
				require.IsType(testInstance, testCase.expectedError, listError)
				return
			}
			require.NoError(testInstance, listError)
			require.Equal(testInstance, testCase.expectedRequests, pullRequests)
			require.Len(testInstance, testCase.executor.recordedDetails, 1)
			require.Equal(testInstance, testCase.expectedArguments, testCase.executor.recordedDetails[0].Arguments)
		})
	}
}

func TestFindOpenPullRequest(testInstance *testing.T) {
	testCases := []struct {
		name          string
		output        string
		expectedFound bool
		expectedIndex int
	}{
		{
			name:          "matching_head",
			output:        `[{"number":7,"title":"Other","headRefName":"feature/example-2"},{"number":42,"title":"Example","headRefName":"feature/example"}]`,
			expectedFound: true,
			expectedIndex: 42,
		},
		{
			name:   "no_match",
			output: `[{"number":7,"title":"Other","headRefName":"feature/example-2"}]`,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := respondWith(testCase.output, nil)
			client, creationError := githubcli.NewClient(executor)
			require.NoError(testInstance, creationError)

			pullRequest, found, findError := client.FindOpenPullRequest(context.Background(), testRepositoryIdentifierConstant, testPullRequestHeadConstant)
			require.NoError(testInstance, findError)
			require.Equal(testInstance, testCase.expectedFound, found)
			require.Equal(testInstance, testCase.expectedIndex, pullRequest.Number)
		})
	}

	testInstance.Run("head_required", func(testInstance *testing.T) {
		client, creationError := githubcli.NewClient(&stubGitHubExecutor{})
		require.NoError(testInstance, creationError)

		_, _, findError := client.FindOpenPullRequest(context.Background(), testRepositoryIdentifierConstant, " ")
		require.IsType(testInstance, githubcli.InvalidInputError{}, findError)
	})
}

func TestCreatePullRequest(testInstance *testing.T) {
	validOptions := githubcli.PullRequestCreateOptions{
		Title:      testPullRequestTitleConstant,
		BaseBranch: testBaseBranchConstant,
		HeadBranch: testPullRequestHeadConstant,
	}

	testCases := []struct {
		name        string
		options     githubcli.PullRequestCreateOptions
		executor    *stubGitHubExecutor
		expectError bool
		errorType   any
	}{
		{
			name:     "create_success",
			options:  validOptions,
			executor: respondWith("\nCreating pull request for feature/example into main\n\n"+testPullRequestURLConstant+"\n", nil),
		},
		{
			name:        "create_unparsable_output",
			options:     validOptions,
			executor:    respondWith("done", nil),
			expectError: true,
			errorType:   githubcli.ResponseDecodingError{},
		},
		{
			name:        "create_command_failure",
			options:     validOptions,
			executor:    respondWith("", ghExitFailure),
			expectError: true,
			errorType:   githubcli.OperationError{},
		},
		{
			name:        "create_title_validation",
			options:     githubcli.PullRequestCreateOptions{BaseBranch: testBaseBranchConstant, HeadBranch: testPullRequestHeadConstant},
			executor:    &stubGitHubExecutor{},
			expectError: true,
			errorType:   githubcli.InvalidInputError{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			client, creationError := githubcli.NewClient(testCase.executor)
			require.NoError(testInstance, creationError)

			pullRequest, createError := client.CreatePullRequest(context.Background(), testRepositoryIdentifierConstant, testCase.options)
			if testCase.expectError {
				require.Error(testInstance, createError)
				require.IsType(testInstance, testCase.errorType, createError)
				return
			}
			require.NoError(testInstance, createError)
			require.Equal(testInstance, 42, pullRequest.Number)
			require.Equal(testInstance, testPullRequestURLConstant, pullRequest.URL)
			require.Equal(testInstance, []string{
				"pr", "create", "--repo", testRepositoryIdentifierConstant,
				"--title", testPullRequestTitleConstant,
				"--base", testBaseBranchConstant,
				"--head", testPullRequestHeadConstant,
				"--body", "",
			}, testCase.executor.recordedDetails[0].Arguments)
		})
	}
}

func TestPullRequestMutations(testInstance *testing.T) {
	testCases := []struct {
		name              string
		mutate            func(client *githubcli.Client) error
		expectedArguments []string
	}{
		{
			name: "edit_all_fields",
			mutate: func(client *githubcli.Client) error {
				return client.EditPullRequest(context.Background(), testRepositoryIdentifierConstant, 42, githubcli.PullRequestEditOptions{
					Title:      "New title",
					BaseBranch: "release",
					Assignees:  []string{"alice"},
					Reviewers:  []string{"bob", "carol"},
				})
			},
			expectedArguments: []string{
				"pr", "edit", "42", "--repo", testRepositoryIdentifierConstant,
				"--title", "New title", "--base", "release",
				"--add-assignee", "alice", "--add-reviewer", "bob", "--add-reviewer", "carol",
			},
		},
		{
			name: "edit_nothing",
			mutate: func(client *githubcli.Client) error {
				return client.EditPullRequest(context.Background(), testRepositoryIdentifierConstant, 42, githubcli.PullRequestEditOptions{})
			},
		},
		{
			name: "close",
			mutate: func(client *githubcli.Client) error {
				return client.ClosePullRequest(context.Background(), testRepositoryIdentifierConstant, 42)
			},
			expectedArguments: []string{"pr", "close", "42", "--repo", testRepositoryIdentifierConstant},
		},
		{
			name: "merge_squash",
			mutate: func(client *githubcli.Client) error {
				return client.MergePullRequest(context.Background(), testRepositoryIdentifierConstant, 42, githubcli.MergeMethodSquash)
			},
			expectedArguments: []string{"pr", "merge", "42", "--repo", testRepositoryIdentifierConstant, "--squash"},
		},
		{
			name: "merge_default_method",
			mutate: func(client *githubcli.Client) error {
				return client.MergePullRequest(context.Background(), testRepositoryIdentifierConstant, 42, "")
			},
			expectedArguments: []string{"pr", "merge", "42", "--repo", testRepositoryIdentifierConstant, "--merge"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &stubGitHubExecutor{}
			client, creationError := githubcli.NewClient(executor)
			require.NoError(testInstance, creationError)

			require.NoError(testInstance, testCase.mutate(client))
			if testCase.expectedArguments == nil {
				require.Empty(testInstance, executor.recordedDetails)
				return
			}
			require.Len(testInstance, executor.recordedDetails, 1)
			require.Equal(testInstance, testCase.expectedArguments, executor.recordedDetails[0].Arguments)
		})
	}
}

func TestPullRequestMutationValidation(testInstance *testing.T) {
	client, creationError := githubcli.NewClient(&stubGitHubExecutor{})
	require.NoError(testInstance, creationError)

	require.IsType(testInstance, githubcli.InvalidInputError{}, client.ClosePullRequest(context.Background(), testRepositoryIdentifierConstant, 0))
	require.IsType(testInstance, githubcli.InvalidInputError{}, client.MergePullRequest(context.Background(), " ", 1, githubcli.MergeMethodMerge))

	failingClient, failingCreationError := githubcli.NewClient(respondWith("", ghExitFailure))
	require.NoError(testInstance, failingCreationError)
	require.IsType(testInstance, githubcli.OperationError{}, failingClient.ClosePullRequest(context.Background(), testRepositoryIdentifierConstant, 3))
}

func TestParseMergeMethod(testInstance *testing.T) {
	testCases := []struct {
		input          string
		expectedMethod githubcli.MergeMethod
		expectError    bool
	}{
		{input: "", expectedMethod: githubcli.MergeMethodMerge},
		{input: "Squash", expectedMethod: githubcli.MergeMethodSquash},
		{input: "rebase", expectedMethod: githubcli.MergeMethodRebase},
		{input: "octopus", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("input_%q", testCase.input), func(testInstance *testing.T) {
			method, parseError := githubcli.ParseMergeMethod(testCase.input)
			if testCase.expectError {
				require.IsType(testInstance, githubcli.InvalidInputError{}, parseError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedMethod, method)
		})
	}
}
