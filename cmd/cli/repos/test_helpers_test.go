package repos_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	repos "github.com/temirov/manifold/cmd/cli/repos"
	"github.com/temirov/manifold/internal/execshell"
	"github.com/temirov/manifold/internal/gitrepo"
	"github.com/temirov/manifold/internal/utils"
	"github.com/temirov/manifold/internal/workspace"
)

const (
	testManifestURLConstant = "git@example.com:team/manifest.git"
	testManifestConstant    = `
repos:
  - src: foo
    url: git@example.com:team/foo.git
  - src: lib/bar
    url: git@example.com:team/bar.git
    tag: v1.0
  - src: spam
    url: git@example.com:team/spam.git
groups:
  backend:
    repos: [foo, lib/bar]
gitlab:
  url: https://gitlab.example.com
`
)

// executedGitCommand is one git invocation; Path is relative to the workspace root.
type executedGitCommand struct {
	Path      string
	Arguments string
}

// scriptedGitExecutor emulates the git CLI over the file system of a temporary workspace.
// Clones create their destination directory, and the manifest clone receives the manifest document.
type scriptedGitExecutor struct {
	workspaceRoot   string
	manifest        string
	commands        []executedGitCommand
	remoteURLs      map[string]string
	currentBranches map[string]string
	upstreams       map[string]string
	logs            map[string]string
}

func newScriptedGitExecutor(workspaceRoot string) *scriptedGitExecutor {
	return &scriptedGitExecutor{
		workspaceRoot:   workspaceRoot,
		manifest:        testManifestConstant,
		remoteURLs:      map[string]string{},
		currentBranches: map[string]string{},
		upstreams:       map[string]string{},
		logs:            map[string]string{},
	}
}

func (executor *scriptedGitExecutor) relative(absolutePath string) string {
	relativePath, relativeError := filepath.Rel(executor.workspaceRoot, absolutePath)
	if relativeError != nil {
		return absolutePath
	}
	return filepath.ToSlash(relativePath)
}

func (executor *scriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	arguments := details.Arguments
	relativePath := executor.relative(details.WorkingDirectory)
	if len(arguments) > 0 && arguments[0] == "clone" {
		destination := filepath.Join(details.WorkingDirectory, arguments[len(arguments)-1])
		relativePath = executor.relative(destination)
	}
	executor.commands = append(executor.commands, executedGitCommand{Path: relativePath, Arguments: strings.Join(arguments, " ")})

	failure := func() (execshell.ExecutionResult, error) {
		command := execshell.ShellCommand{Name: execshell.CommandGit, Details: details}
		result := execshell.ExecutionResult{ExitCode: 1}
		return result, execshell.CommandFailedError{Command: command, Result: result}
	}

	switch {
	case arguments[0] == "clone":
		destination := filepath.Join(details.WorkingDirectory, arguments[len(arguments)-1])
		if mkdirError := os.MkdirAll(destination, 0o755); mkdirError != nil {
			return execshell.ExecutionResult{}, mkdirError
		}
		executor.remoteURLs[relativePath] = arguments[1]
		if arguments[1] == testManifestURLConstant {
			if writeError := os.WriteFile(filepath.Join(destination, workspace.ManifestFileNameConstant), []byte(executor.manifest), 0o644); writeError != nil {
				return execshell.ExecutionResult{}, writeError
			}
		}
	case len(arguments) >= 3 && arguments[0] == "remote" && arguments[1] == "get-url":
		remoteURL, known := executor.remoteURLs[relativePath]
		if !known {
			return failure()
		}
		return execshell.ExecutionResult{StandardOutput: remoteURL + "\n"}, nil
	case len(arguments) >= 4 && arguments[0] == "remote":
		executor.remoteURLs[relativePath] = arguments[3]
	case arguments[0] == "rev-parse" && strings.Contains(strings.Join(arguments, " "), "@{u}"):
		upstream, known := executor.upstreams[relativePath]
		if !known {
			return failure()
		}
		return execshell.ExecutionResult{StandardOutput: upstream + "\n"}, nil
	case arguments[0] == "rev-parse":
		branch, known := executor.currentBranches[relativePath]
		if !known {
			branch = "master"
		}
		return execshell.ExecutionResult{StandardOutput: branch + "\n"}, nil
	case arguments[0] == "rev-list":
		return execshell.ExecutionResult{StandardOutput: "0\t0\n"}, nil
	case arguments[0] == "log":
		return execshell.ExecutionResult{StandardOutput: executor.logs[relativePath]}, nil
	}
	return execshell.ExecutionResult{}, nil
}

func (executor *scriptedGitExecutor) ExecuteGitHubCLI(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return execshell.ExecutionResult{}, nil
}

// commandsFor lists the git arguments run for the workspace-relative path.
func (executor *scriptedGitExecutor) commandsFor(relativePath string) []string {
	var arguments []string
	for _, command := range executor.commands {
		if command.Path == relativePath {
			arguments = append(arguments, command.Arguments)
		}
	}
	return arguments
}

type recordingCommandRunner struct {
	commands []execshell.ShellCommand
}

func (runner *recordingCommandRunner) Execute(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.commands = append(runner.commands, command)
	return execshell.ExecutionResult{}, nil
}

type fixedStatusInspector struct {
	status gitrepo.RepositoryStatus
}

func (inspector fixedStatusInspector) Inspect(string) (gitrepo.RepositoryStatus, error) {
	return inspector.status, nil
}

// commandFixture is a temporary workspace with scripted collaborators.
type commandFixture struct {
	workspaceRoot string
	git           *scriptedGitExecutor
	runner        *recordingCommandRunner
	configuration repos.CommandConfiguration
	dependencies  repos.CommandDependencies
}

func newCommandFixture(testInstance *testing.T) *commandFixture {
	testInstance.Helper()
	workspaceRoot, rootError := filepath.EvalSymlinks(testInstance.TempDir())
	require.NoError(testInstance, rootError)

	fixture := &commandFixture{
		workspaceRoot: workspaceRoot,
		git:           newScriptedGitExecutor(workspaceRoot),
		runner:        &recordingCommandRunner{},
		configuration: repos.DefaultCommandConfiguration(),
	}
	fixture.dependencies = repos.CommandDependencies{
		LoggerProvider:           func() *zap.Logger { return zap.NewNop() },
		ConfigurationProvider:    func() repos.CommandConfiguration { return fixture.configuration },
		WorkingDirectoryProvider: func() (string, error) { return fixture.workspaceRoot, nil },
		GitExecutor:              fixture.git,
		CommandRunner:            fixture.runner,
		StatusInspector:          fixedStatusInspector{status: gitrepo.RepositoryStatus{Branch: "master", ShortHash: "1234567"}},
	}
	return fixture
}

// commandBuilder is implemented by every command builder of the package.
type commandBuilder interface {
	Build() (*cobra.Command, error)
}

func executeCommand(testInstance *testing.T, builder commandBuilder, arguments ...string) (string, error) {
	testInstance.Helper()
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetContext(context.Background())
	command.SetOut(outputBuffer)
	command.SetErr(outputBuffer)
	command.SetArgs(arguments)
	executionError := command.Execute()
	return outputBuffer.String(), executionError
}

// executeInWorkspace runs a command with the workspace root carried by the command context.
func executeInWorkspace(testInstance *testing.T, builder commandBuilder, workspaceRoot string, arguments ...string) (string, error) {
	testInstance.Helper()
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetContext(utils.NewCommandContextAccessor().WithWorkspaceRoot(context.Background(), workspaceRoot))
	command.SetOut(outputBuffer)
	command.SetErr(outputBuffer)
	command.SetArgs(arguments)
	executionError := command.Execute()
	return outputBuffer.String(), executionError
}

func (fixture *commandFixture) initialize(testInstance *testing.T, arguments ...string) {
	testInstance.Helper()
	builder := &repos.InitCommandBuilder{CommandDependencies: fixture.dependencies}
	_, initError := executeCommand(testInstance, builder, append([]string{testManifestURLConstant}, arguments...)...)
	require.NoError(testInstance, initError)
}
