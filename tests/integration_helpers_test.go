package tests

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	integrationGitExecutableConstant   = "git"
	integrationDefaultBranchConstant   = "master"
	integrationGitTimeoutConstant      = 30 * time.Second
	integrationCommandTimeoutConstant  = 3 * time.Minute
	integrationRunSubcommandConstant   = "run"
	integrationModulePathConstant      = "."
	integrationWorkspaceFlagConstant   = "--workspace"
	integrationLogLevelFlagConstant    = "--log-level"
	integrationErrorLogLevelConstant   = "error"
	integrationUpstreamDirectoryName   = "upstream"
	integrationStagingDirectorySuffix  = "-staging"
	integrationBareRepositorySuffix    = ".git"
	integrationMissingGitSkipMessage   = "git executable not available"
	integrationInitialCommitMessage    = "Initial commit"
	integrationFilePermissionsConstant = 0o644
)

// runIntegrationCommand runs the manifold entrypoint through go run from the module root.
func runIntegrationCommand(testInstance *testing.T, repositoryRoot string, timeout time.Duration, arguments []string) (string, error) {
	testInstance.Helper()
	executionContext, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	commandArguments := append([]string{integrationRunSubcommandConstant, integrationModulePathConstant}, arguments...)
	command := exec.CommandContext(executionContext, "go", commandArguments...)
	command.Dir = repositoryRoot
	command.Env = append([]string{}, os.Environ()...)

	outputBytes, runError := command.CombinedOutput()
	return string(outputBytes), runError
}

// runManifold runs manifold against workspaceRoot and fails the test on error.
func runManifold(testInstance *testing.T, workspaceRoot string, arguments ...string) string {
	testInstance.Helper()
	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	fullArguments := append([]string{
		integrationWorkspaceFlagConstant, workspaceRoot,
		integrationLogLevelFlagConstant, integrationErrorLogLevelConstant,
	}, arguments...)
	output, runError := runIntegrationCommand(testInstance, filepath.Dir(workingDirectory), integrationCommandTimeoutConstant, fullArguments)
	requireNoError(testInstance, runError, output)
	return output
}

func requireGitExecutable(testInstance *testing.T) {
	testInstance.Helper()
	if _, lookupError := exec.LookPath(integrationGitExecutableConstant); lookupError != nil {
		testInstance.Skip(integrationMissingGitSkipMessage)
	}
}

func runGit(testInstance *testing.T, directory string, arguments ...string) string {
	testInstance.Helper()
	executionContext, cancel := context.WithTimeout(context.Background(), integrationGitTimeoutConstant)
	defer cancel()

	command := exec.CommandContext(executionContext, integrationGitExecutableConstant, arguments...)
	command.Dir = directory
	outputBytes, runError := command.CombinedOutput()
	requireNoError(testInstance, runError, string(outputBytes))
	return strings.TrimSpace(string(outputBytes))
}

// upstreamServer hosts bare repositories under a temporary directory; their paths serve as clone URLs.
type upstreamServer struct {
	root string
}

func newUpstreamServer(testInstance *testing.T) upstreamServer {
	testInstance.Helper()
	requireGitExecutable(testInstance)
	return upstreamServer{root: filepath.Join(testInstance.TempDir(), integrationUpstreamDirectoryName)}
}

// createRepository creates a bare repository named name seeded with files on the default branch.
func (server upstreamServer) createRepository(testInstance *testing.T, name string, files map[string]string) string {
	testInstance.Helper()
	bareURL := server.url(name)
	require.NoError(testInstance, os.MkdirAll(bareURL, 0o755))
	runGit(testInstance, bareURL, "init", "--bare", "--initial-branch="+integrationDefaultBranchConstant)

	stagingPath := filepath.Join(server.root, name+integrationStagingDirectorySuffix)
	require.NoError(testInstance, os.MkdirAll(stagingPath, 0o755))
	runGit(testInstance, stagingPath, "init", "--initial-branch="+integrationDefaultBranchConstant)
	runGit(testInstance, stagingPath, "remote", "add", "origin", bareURL)
	server.commit(testInstance, name, files, integrationInitialCommitMessage)
	return bareURL
}

// commit writes files into the staging clone of name, commits them and pushes the default branch.
func (server upstreamServer) commit(testInstance *testing.T, name string, files map[string]string, message string) string {
	testInstance.Helper()
	stagingPath := filepath.Join(server.root, name+integrationStagingDirectorySuffix)
	for relativePath, content := range files {
		filePath := filepath.Join(stagingPath, relativePath)
		require.NoError(testInstance, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(testInstance, os.WriteFile(filePath, []byte(content), integrationFilePermissionsConstant))
	}
	runGit(testInstance, stagingPath, "add", "--all")
	runGit(testInstance, stagingPath, "commit", "--message", message)
	runGit(testInstance, stagingPath, "push", "origin", integrationDefaultBranchConstant)
	return runGit(testInstance, stagingPath, "rev-parse", "HEAD")
}

// tag creates a lightweight tag on the current staging commit of name and pushes it.
func (server upstreamServer) tag(testInstance *testing.T, name string, tagName string) {
	testInstance.Helper()
	stagingPath := filepath.Join(server.root, name+integrationStagingDirectorySuffix)
	runGit(testInstance, stagingPath, "tag", tagName)
	runGit(testInstance, stagingPath, "push", "origin", tagName)
}

func (server upstreamServer) url(name string) string {
	return filepath.Join(server.root, name+integrationBareRepositorySuffix)
}

func requireNoError(testInstance *testing.T, err error, output string) {
	testInstance.Helper()
	if err != nil {
		testInstance.Fatalf("command failed: %v\n%s", err, output)
	}
}
