package repos

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/temirov/manifold/internal/workspace"
)

const (
	foreachUseConstant              = "foreach [--shell] -- <command> [arguments...]"
	foreachShortDescriptionConstant = "Run a command in every repository"
	foreachLongDescriptionConstant  = "foreach runs the command from the root of each repository and reports the repositories where it failed."
	foreachExampleConstant          = "manifold foreach -- git status --short\nmanifold foreach --shell -- 'ls | wc -l'"
	foreachShellFlagNameConstant    = "shell"
	foreachShellFlagUsageConstant   = "Run the command through sh -c"
	foreachCommandRequiredMessage   = "command is required"
	foreachSucceededMessageConstant = "OK\n"
)

// ForeachCommandBuilder assembles the foreach command.
type ForeachCommandBuilder struct {
	CommandDependencies
}

// Build constructs the foreach command.
func (builder *ForeachCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     foreachUseConstant,
		Short:   foreachShortDescriptionConstant,
		Long:    foreachLongDescriptionConstant,
		Example: foreachExampleConstant,
		RunE:    builder.run,
	}
	command.Flags().Bool(foreachShellFlagNameConstant, false, foreachShellFlagUsageConstant)
	return command, nil
}

func (builder *ForeachCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) == 0 {
		_ = displayCommandHelp(command)
		return errors.New(foreachCommandRequiredMessage)
	}
	useShell, _ := command.Flags().GetBool(foreachShellFlagNameConstant)

	environment, environmentError := builder.resolveEnvironment(command)
	if environmentError != nil {
		return environmentError
	}
	loaded, loadError := builder.loadWorkspace(command, environment, false)
	if loadError != nil {
		return loadError
	}

	options := workspace.ForeachOptions{Command: arguments, Shell: useShell, Output: command.OutOrStdout()}
	if foreachError := loaded.workspace.Foreach(command.Context(), loaded.repositories, options); foreachError != nil {
		return foreachError
	}
	environment.reporter.Printf(foreachSucceededMessageConstant)
	return nil
}
