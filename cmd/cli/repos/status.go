package repos

import (
	"github.com/spf13/cobra"

	"github.com/temirov/manifold/internal/workspace"
)

const (
	statusUseConstant              = "status"
	statusShortDescriptionConstant = "Show the state of every repository"
	statusLongDescriptionConstant  = "status lists the checked-out reference of each repository with its distance from upstream and whether it has local changes."
	statusTableTemplateConstant    = "%s\n"
)

// StatusCommandBuilder assembles the status command.
type StatusCommandBuilder struct {
	CommandDependencies
}

// Build constructs the status command.
func (builder *StatusCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   statusUseConstant,
		Short: statusShortDescriptionConstant,
		Long:  statusLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}
	return command, nil
}

func (builder *StatusCommandBuilder) run(command *cobra.Command, arguments []string) error {
	environment, environmentError := builder.resolveEnvironment(command)
	if environmentError != nil {
		return environmentError
	}
	loaded, loadError := builder.loadWorkspace(command, environment, false)
	if loadError != nil {
		return loadError
	}

	entries, statusError := loaded.workspace.Status(command.Context(), loaded.repositories)
	if len(entries) > 0 {
		environment.reporter.Printf(statusTableTemplateConstant, workspace.RenderStatuses(entries))
	}
	return statusError
}
