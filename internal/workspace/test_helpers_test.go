package workspace_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/manifold/internal/repos/filesystem"
	"github.com/temirov/manifold/internal/repos/shared"
	"github.com/temirov/manifold/internal/workspace"
)

var errScriptedFailure = errors.New("scripted git failure")

// gitCall is one recorded repository manager invocation. Path is relative to the workspace root.
type gitCall struct {
	Operation string
	Path      string
	Arguments []string
}

type recordingGitManager struct {
	workspaceRoot   string
	calls           []gitCall
	failures        map[string]error
	currentBranches map[string]string
	dirtyPaths      map[string]bool
	remoteURLs      map[string]string
}

func newRecordingGitManager(workspaceRoot string) *recordingGitManager {
	return &recordingGitManager{
		workspaceRoot:   workspaceRoot,
		failures:        map[string]error{},
		currentBranches: map[string]string{},
		dirtyPaths:      map[string]bool{},
		remoteURLs:      map[string]string{},
	}
}

// failOn makes operation fail for the repository at the workspace-relative path.
func (manager *recordingGitManager) failOn(operation string, relativePath string) {
	manager.failures[operation+" "+relativePath] = errScriptedFailure
}

func (manager *recordingGitManager) record(operation string, absolutePath string, arguments ...string) (string, error) {
	relativePath, relativeError := filepath.Rel(manager.workspaceRoot, absolutePath)
	if relativeError != nil {
		relativePath = absolutePath
	}
	relativePath = filepath.ToSlash(relativePath)
	manager.calls = append(manager.calls, gitCall{Operation: operation, Path: relativePath, Arguments: arguments})
	return relativePath, manager.failures[operation+" "+relativePath]
}

func (manager *recordingGitManager) operationsFor(relativePath string) []string {
	var operations []string
	for _, call := range manager.calls {
		if call.Path == relativePath {
			operations = append(operations, call.Operation)
		}
	}
	return operations
}

func (manager *recordingGitManager) Clone(ctx context.Context, options shared.CloneOptions) error {
	destination := filepath.Join(options.ParentDirectory, options.DestinationName)
	arguments := []string{options.RemoteURL, options.Reference}
	if options.Shallow {
		arguments = append(arguments, "shallow")
	}
	if _, failure := manager.record("clone", destination, arguments...); failure != nil {
		return failure
	}
	return os.MkdirAll(destination, 0o755)
}

func (manager *recordingGitManager) Fetch(ctx context.Context, repositoryPath string, remoteName string, includeTags bool) error {
	arguments := []string{remoteName}
	if includeTags {
		arguments = append(arguments, "tags")
	}
	_, failure := manager.record("fetch", repositoryPath, arguments...)
	return failure
}

func (manager *recordingGitManager) ResetHard(ctx context.Context, repositoryPath string, reference string) error {
	_, failure := manager.record("reset", repositoryPath, reference)
	return failure
}

func (manager *recordingGitManager) MergeFastForward(ctx context.Context, repositoryPath string, reference string) error {
	_, failure := manager.record("merge", repositoryPath, reference)
	return failure
}

func (manager *recordingGitManager) CheckoutBranch(ctx context.Context, repositoryPath string, branchName string) error {
	_, failure := manager.record("checkout", repositoryPath, branchName)
	return failure
}

func (manager *recordingGitManager) SetUpstream(ctx context.Context, repositoryPath string, branchName string, upstreamReference string) error {
	_, failure := manager.record("upstream", repositoryPath, branchName, upstreamReference)
	return failure
}

func (manager *recordingGitManager) CheckCleanWorktree(ctx context.Context, repositoryPath string) (bool, error) {
	relativePath, failure := manager.record("status", repositoryPath)
	if failure != nil {
		return false, failure
	}
	return !manager.dirtyPaths[relativePath], nil
}

func (manager *recordingGitManager) GetCurrentBranch(ctx context.Context, repositoryPath string) (string, error) {
	relativePath, failure := manager.record("branch", repositoryPath)
	if failure != nil {
		return "", failure
	}
	branchName, known := manager.currentBranches[relativePath]
	if !known {
		return "", shared.ErrDetachedHead
	}
	return branchName, nil
}

func (manager *recordingGitManager) GetRemoteURL(ctx context.Context, repositoryPath string, remoteName string) (string, error) {
	relativePath, failure := manager.record("get-url", repositoryPath, remoteName)
	if failure != nil {
		return "", failure
	}
	remoteURL, known := manager.remoteURLs[relativePath]
	if !known {
		return "", shared.ErrRemoteNotFound
	}
	return remoteURL, nil
}

func (manager *recordingGitManager) SetRemoteURL(ctx context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	relativePath, failure := manager.record("set-url", repositoryPath, remoteName, remoteURL)
	if failure == nil {
		manager.remoteURLs[relativePath] = remoteURL
	}
	return failure
}

func (manager *recordingGitManager) AddRemote(ctx context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	relativePath, failure := manager.record("add-remote", repositoryPath, remoteName, remoteURL)
	if failure == nil {
		manager.remoteURLs[relativePath] = remoteURL
	}
	return failure
}

type workspaceFixture struct {
	rootPath   string
	gitManager *recordingGitManager
	output     *bytes.Buffer
	workspace  *workspace.Workspace
}

func newWorkspaceFixture(testInstance *testing.T, configuration workspace.Configuration, existingSources ...string) workspaceFixture {
	testInstance.Helper()
	rootPath := testInstance.TempDir()
	for _, source := range existingSources {
		require.NoError(testInstance, os.MkdirAll(filepath.Join(rootPath, filepath.FromSlash(source)), 0o755))
	}

	gitManager := newRecordingGitManager(rootPath)
	outputBuffer := &bytes.Buffer{}
	createdWorkspace, creationError := workspace.New(rootPath, configuration, workspace.Dependencies{
		GitManager: gitManager,
		FileSystem: filesystem.OSFileSystem{},
		Reporter:   shared.NewWriterReporter(outputBuffer),
	})
	require.NoError(testInstance, creationError)

	return workspaceFixture{rootPath: rootPath, gitManager: gitManager, output: outputBuffer, workspace: createdWorkspace}
}

func outputLines(outputBuffer *bytes.Buffer) []string {
	return strings.Split(strings.TrimRight(outputBuffer.String(), "\n"), "\n")
}
