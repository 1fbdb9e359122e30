package repos

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

const (
	logUseConstant              = "log --from <ref> [--to <ref>]"
	logShortDescriptionConstant = "Show the history between two references in every repository"
	logLongDescriptionConstant  = "log prints the one-line history between two references of each repository that has any."
	logFromFlagNameConstant     = "from"
	logFromFlagUsageConstant    = "Start of the range, such as a release tag"
	logToFlagNameConstant       = "to"
	logToFlagUsageConstant      = "End of the range"
	logDefaultToConstant        = "HEAD"
	logFromRequiredMessage      = "--from is required"
)

// LogCommandBuilder assembles the log command.
type LogCommandBuilder struct {
	CommandDependencies
}

// Build constructs the log command.
func (builder *LogCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   logUseConstant,
		Short: logShortDescriptionConstant,
		Long:  logLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}
	command.Flags().String(logFromFlagNameConstant, "", logFromFlagUsageConstant)
	command.Flags().String(logToFlagNameConstant, logDefaultToConstant, logToFlagUsageConstant)
	return command, nil
}

func (builder *LogCommandBuilder) run(command *cobra.Command, arguments []string) error {
	fromReference, _ := command.Flags().GetString(logFromFlagNameConstant)
	toReference, _ := command.Flags().GetString(logToFlagNameConstant)
	if len(strings.TrimSpace(fromReference)) == 0 {
		_ = displayCommandHelp(command)
		return errors.New(logFromRequiredMessage)
	}

	environment, environmentError := builder.resolveEnvironment(command)
	if environmentError != nil {
		return environmentError
	}
	loaded, loadError := builder.loadWorkspace(command, environment, false)
	if loadError != nil {
		return loadError
	}
	return loaded.workspace.Log(command.Context(), loaded.repositories, strings.TrimSpace(fromReference), strings.TrimSpace(toReference))
}
