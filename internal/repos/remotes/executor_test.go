package remotes_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/manifold/internal/repos/remotes"
	"github.com/temirov/manifold/internal/repos/shared"
)

const (
	remotesTestRepositoryPath = "/tmp/workspace/foo"
	remotesTestDisplayName    = "foo"
	remotesTestExpectedURL    = "git@example.com:org/foo.git"
	remotesTestStaleURL       = "git@example.com:old/foo.git"
)

type stubGitManager struct {
	shared.GitRepositoryManager
	currentURL  string
	lookupError error
	setError    error
	addError    error
	urlsSet     []string
	urlsAdded   []string
}

func (manager *stubGitManager) GetRemoteURL(ctx context.Context, repositoryPath string, remoteName string) (string, error) {
	if manager.lookupError != nil {
		return "", manager.lookupError
	}
	return manager.currentURL, nil
}

func (manager *stubGitManager) SetRemoteURL(ctx context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	if manager.setError != nil {
		return manager.setError
	}
	manager.urlsSet = append(manager.urlsSet, remoteURL)
	return nil
}

func (manager *stubGitManager) AddRemote(ctx context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	if manager.addError != nil {
		return manager.addError
	}
	manager.urlsAdded = append(manager.urlsAdded, remoteURL)
	return nil
}

func TestReconcilerBehaviors(testInstance *testing.T) {
	testCases := []struct {
		name            string
		gitManager      *stubGitManager
		expectedOutcome remotes.Outcome
		expectedOutput  string
		expectedSet     []string
		expectedAdded   []string
	}{
		{
			name:            "matching_remote_is_untouched",
			gitManager:      &stubGitManager{currentURL: remotesTestExpectedURL},
			expectedOutcome: remotes.OutcomeUnchanged,
		},
		{
			name:            "stale_remote_is_rewritten",
			gitManager:      &stubGitManager{currentURL: remotesTestStaleURL},
			expectedOutcome: remotes.OutcomeUpdated,
			expectedOutput:  fmt.Sprintf("%s: %s -> %s\n", remotesTestDisplayName, remotesTestStaleURL, remotesTestExpectedURL),
			expectedSet:     []string{remotesTestExpectedURL},
		},
		{
			name:            "missing_remote_is_added",
			gitManager:      &stubGitManager{lookupError: fmt.Errorf("%w: origin", shared.ErrRemoteNotFound)},
			expectedOutcome: remotes.OutcomeAdded,
			expectedAdded:   []string{remotesTestExpectedURL},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			outputBuffer := &bytes.Buffer{}
			reconciler, constructionError := remotes.NewReconciler(remotes.Dependencies{
				GitManager: testCase.gitManager,
				Reporter:   shared.NewWriterReporter(outputBuffer),
			})
			require.NoError(subTest, constructionError)

			outcome, reconcileError := reconciler.Reconcile(context.Background(), remotes.Options{
				RepositoryPath: remotesTestRepositoryPath,
				DisplayName:    remotesTestDisplayName,
				ExpectedURL:    remotesTestExpectedURL,
			})

			require.NoError(subTest, reconcileError)
			require.Equal(subTest, testCase.expectedOutcome, outcome)
			require.Equal(subTest, testCase.expectedOutput, outputBuffer.String())
			require.Equal(subTest, testCase.expectedSet, testCase.gitManager.urlsSet)
			require.Equal(subTest, testCase.expectedAdded, testCase.gitManager.urlsAdded)
		})
	}
}

func TestReconcilerPropagatesFailures(testInstance *testing.T) {
	unexpectedError := errors.New("permission denied")

	testCases := []struct {
		name       string
		gitManager *stubGitManager
	}{
		{name: "lookup_failure", gitManager: &stubGitManager{lookupError: unexpectedError}},
		{name: "set_failure", gitManager: &stubGitManager{currentURL: remotesTestStaleURL, setError: unexpectedError}},
		{name: "add_failure", gitManager: &stubGitManager{lookupError: shared.ErrRemoteNotFound, addError: unexpectedError}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			reconciler, constructionError := remotes.NewReconciler(remotes.Dependencies{GitManager: testCase.gitManager})
			require.NoError(subTest, constructionError)

			_, reconcileError := reconciler.Reconcile(context.Background(), remotes.Options{
				RepositoryPath: remotesTestRepositoryPath,
				ExpectedURL:    remotesTestExpectedURL,
			})
			require.ErrorIs(subTest, reconcileError, unexpectedError)
		})
	}
}

func TestNewReconcilerRequiresGitManager(testInstance *testing.T) {
	_, constructionError := remotes.NewReconciler(remotes.Dependencies{})
	require.ErrorIs(testInstance, constructionError, remotes.ErrGitManagerNotConfigured)
}

func TestReconcileRequiresExpectedURL(testInstance *testing.T) {
	reconciler, constructionError := remotes.NewReconciler(remotes.Dependencies{GitManager: &stubGitManager{}})
	require.NoError(testInstance, constructionError)

	_, reconcileError := reconciler.Reconcile(context.Background(), remotes.Options{RepositoryPath: remotesTestRepositoryPath})
	require.ErrorIs(testInstance, reconcileError, remotes.ErrExpectedURLRequired)
}
