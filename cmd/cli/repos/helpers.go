package repos

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/manifold/internal/execshell"
	"github.com/temirov/manifold/internal/gitrepo"
	"github.com/temirov/manifold/internal/manifest"
	"github.com/temirov/manifold/internal/repos/dependencies"
	"github.com/temirov/manifold/internal/repos/shared"
	"github.com/temirov/manifold/internal/ui"
	"github.com/temirov/manifold/internal/utils"
	pathutils "github.com/temirov/manifold/internal/utils/path"
	"github.com/temirov/manifold/internal/workspace"
)

var repositoryHomeDirectoryExpander = pathutils.NewHomeExpander()

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// WorkingDirectoryProvider yields the directory a command was started from.
type WorkingDirectoryProvider func() (string, error)

// CommandDependencies carries the collaborators shared by the workspace commands.
// Nil collaborators fall back to the git CLI, go-git and the operating system.
type CommandDependencies struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	WorkingDirectoryProvider     WorkingDirectoryProvider
	GitExecutor                  shared.GitExecutor
	CommandRunner                workspace.CommandRunner
	StatusInspector              workspace.StatusInspector
	FileSystem                   shared.FileSystem
}

// commandEnvironment is the resolved set of collaborators for one command invocation.
type commandEnvironment struct {
	logger        *zap.Logger
	reporter      shared.Reporter
	configuration CommandConfiguration
	fileSystem    shared.FileSystem
	gitExecutor   shared.GitExecutor
	gitManager    *gitrepo.RepositoryManager
	commandRunner workspace.CommandRunner
	inspector     workspace.StatusInspector
}

func (commandDependencies CommandDependencies) resolveEnvironment(command *cobra.Command) (commandEnvironment, error) {
	logger := resolveLogger(commandDependencies.LoggerProvider)
	environment := commandEnvironment{
		logger:        logger,
		reporter:      shared.NewWriterReporter(command.OutOrStdout()),
		configuration: commandDependencies.resolveConfiguration(),
		fileSystem:    dependencies.ResolveFileSystem(commandDependencies.FileSystem),
		gitExecutor:   commandDependencies.GitExecutor,
		commandRunner: commandDependencies.CommandRunner,
		inspector:     commandDependencies.StatusInspector,
	}

	if environment.gitExecutor == nil || environment.commandRunner == nil {
		executorLogger := logger
		var observer execshell.CommandEventObserver
		if commandDependencies.HumanReadableLoggingProvider != nil && commandDependencies.HumanReadableLoggingProvider() {
			executorLogger = zap.NewNop()
			observer = ui.NewConsoleCommandEventLogger(logger)
		}
		shellExecutor, executorError := dependencies.ResolveShellExecutor(nil, executorLogger, observer)
		if executorError != nil {
			return commandEnvironment{}, executorError
		}
		if environment.gitExecutor == nil {
			environment.gitExecutor = shellExecutor
		}
		if environment.commandRunner == nil {
			environment.commandRunner = shellExecutor
		}
	}

	gitManager, managerError := dependencies.ResolveGitRepositoryManager(nil, environment.gitExecutor)
	if managerError != nil {
		return commandEnvironment{}, managerError
	}
	environment.gitManager = gitManager

	if environment.inspector == nil {
		environment.inspector = gitrepo.NewStatusInspector()
	}
	return environment, nil
}

func (commandDependencies CommandDependencies) resolveConfiguration() CommandConfiguration {
	if commandDependencies.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return commandDependencies.ConfigurationProvider().sanitize()
}

func (commandDependencies CommandDependencies) workingDirectory() (string, error) {
	if commandDependencies.WorkingDirectoryProvider != nil {
		return commandDependencies.WorkingDirectoryProvider()
	}
	return os.Getwd()
}

// workspaceDependencies maps the environment onto the collaborators of a workspace.
func (environment commandEnvironment) workspaceDependencies() workspace.Dependencies {
	return workspace.Dependencies{
		GitManager:      environment.gitManager,
		FileSystem:      environment.fileSystem,
		StatusInspector: environment.inspector,
		History:         environment.gitManager,
		Commands:        environment.commandRunner,
		Reporter:        environment.reporter,
		Logger:          environment.logger,
	}
}

// resolveWorkspaceRoot prefers an explicit root, then the closest enclosing workspace of the working directory.
func (commandDependencies CommandDependencies) resolveWorkspaceRoot(command *cobra.Command, environment commandEnvironment) (string, error) {
	explicitRoot, explicit, explicitError := explicitWorkspaceRoot(command, environment)
	if explicit || explicitError != nil {
		return explicitRoot, explicitError
	}
	workingDirectory, workingDirectoryError := commandDependencies.workingDirectory()
	if workingDirectoryError != nil {
		return "", workingDirectoryError
	}
	return workspace.FindRoot(environment.fileSystem, workingDirectory)
}

// explicitWorkspaceRoot returns the root carried by the command context, else the configured root.
func explicitWorkspaceRoot(command *cobra.Command, environment commandEnvironment) (string, bool, error) {
	candidate := ""
	if contextRoot, found := utils.NewCommandContextAccessor().WorkspaceRoot(command.Context()); found {
		candidate = strings.TrimSpace(contextRoot)
	}
	if len(candidate) == 0 {
		candidate = environment.configuration.Workspace.Root
	}
	if len(candidate) == 0 {
		return "", false, nil
	}
	absoluteRoot, absoluteError := environment.fileSystem.Abs(repositoryHomeDirectoryExpander.Expand(candidate))
	return absoluteRoot, true, absoluteError
}

// loadedWorkspace is a configured workspace together with its manifest and active repositories.
type loadedWorkspace struct {
	workspace    *workspace.Workspace
	local        *workspace.LocalManifest
	manifest     *manifest.Manifest
	repositories []manifest.Repository
}

// loadWorkspace opens the workspace enclosing the command, optionally refreshing the manifest clone first.
func (commandDependencies CommandDependencies) loadWorkspace(command *cobra.Command, environment commandEnvironment, updateManifest bool) (loadedWorkspace, error) {
	workspaceRoot, rootError := commandDependencies.resolveWorkspaceRoot(command, environment)
	if rootError != nil {
		return loadedWorkspace{}, rootError
	}

	workspaceDependencies := environment.workspaceDependencies()
	localManifest, localError := workspace.NewLocalManifest(workspaceRoot, workspaceDependencies)
	if localError != nil {
		return loadedWorkspace{}, localError
	}
	configuration, configurationError := localManifest.LoadConfiguration()
	if configurationError != nil {
		return loadedWorkspace{}, configurationError
	}
	if updateManifest {
		if updateError := localManifest.Update(command.Context()); updateError != nil {
			return loadedWorkspace{}, updateError
		}
	}
	parsedManifest, loadError := localManifest.Load()
	if loadError != nil {
		return loadedWorkspace{}, loadError
	}

	activeWorkspace, workspaceError := workspace.New(workspaceRoot, configuration, workspaceDependencies)
	if workspaceError != nil {
		return loadedWorkspace{}, workspaceError
	}
	repositories, selectionError := activeWorkspace.SelectRepositories(parsedManifest)
	if selectionError != nil {
		return loadedWorkspace{}, selectionError
	}
	return loadedWorkspace{workspace: activeWorkspace, local: localManifest, manifest: parsedManifest, repositories: repositories}, nil
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func displayCommandHelp(command *cobra.Command) error {
	if command == nil {
		return nil
	}
	return command.Help()
}
