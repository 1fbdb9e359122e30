package workspace

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/temirov/manifold/internal/execshell"
	"github.com/temirov/manifold/internal/manifest"
)

const (
	foreachDescriptionTemplateConstant = "Running `%s` on every repo"
	foreachBannerTemplateConstant      = "%s\n$ %s\n"
	shellExecutableConstant            = execshell.CommandName("sh")
	shellCommandFlagConstant           = "-c"
	commandWordSeparatorConstant       = " "
)

// ForeachOptions describes the command run in every repository.
// With Shell the words are joined and handed to sh -c. Output receives the command's output as it runs.
type ForeachOptions struct {
	Command []string
	Shell   bool
	Output  io.Writer
}

// Foreach runs the command in each repository. A non-zero exit fails that repository only.
func (workspace *Workspace) Foreach(executionContext context.Context, repositories []manifest.Repository, options ForeachOptions) error {
	if workspace.dependencies.Commands == nil {
		return ErrCommandRunnerNotConfigured
	}
	if len(options.Command) == 0 || len(strings.TrimSpace(options.Command[0])) == 0 {
		return ErrCommandRequired
	}
	task := commandRunnerTask{workspace: workspace, options: options, commandText: strings.Join(options.Command, commandWordSeparatorConstant)}
	return runSequence[manifest.Repository](executionContext, workspace, task, repositories)
}

type commandRunnerTask struct {
	workspace   *Workspace
	options     ForeachOptions
	commandText string
}

func (task commandRunnerTask) Description() string {
	return fmt.Sprintf(foreachDescriptionTemplateConstant, task.commandText)
}

func (task commandRunnerTask) DisplayItem(repository manifest.Repository) string {
	return repository.Source
}

func (task commandRunnerTask) Process(executionContext context.Context, repository manifest.Repository) error {
	task.workspace.dependencies.Reporter.Printf(foreachBannerTemplateConstant, repository.Source, task.commandText)

	command := execshell.ShellCommand{
		Name: execshell.CommandName(task.options.Command[0]),
		Details: execshell.CommandDetails{
			Arguments:        append([]string(nil), task.options.Command[1:]...),
			WorkingDirectory: task.workspace.RepositoryPath(repository.Source),
			OutputSink:       task.options.Output,
		},
	}
	if task.options.Shell {
		command.Name = shellExecutableConstant
		command.Details.Arguments = []string{shellCommandFlagConstant, task.commandText}
	}

	_, executionError := task.workspace.dependencies.Commands.Execute(executionContext, command)
	return executionError
}
