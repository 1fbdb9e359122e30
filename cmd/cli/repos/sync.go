package repos

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/manifold/internal/manifest"
)

const (
	syncUseConstant              = "sync"
	syncShortDescriptionConstant = "Update the manifest and every repository of the workspace"
	syncLongDescriptionConstant  = "sync refreshes the manifest, clones new repositories, fixes remotes, fast-forwards branches or resets to pinned references, then copies files."
	syncDoneMessageConstant      = "Done\n"
)

// SyncCommandBuilder assembles the sync command.
type SyncCommandBuilder struct {
	CommandDependencies
}

// Build constructs the sync command.
func (builder *SyncCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   syncUseConstant,
		Short: syncShortDescriptionConstant,
		Long:  syncLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}
	return command, nil
}

func (builder *SyncCommandBuilder) run(command *cobra.Command, arguments []string) error {
	environment, environmentError := builder.resolveEnvironment(command)
	if environmentError != nil {
		return environmentError
	}
	loaded, loadError := builder.loadWorkspace(command, environment, true)
	if loadError != nil {
		return loadError
	}

	activeGroups := loaded.workspace.Configuration().Groups
	if len(activeGroups) > 0 {
		environment.reporter.Printf(usingGroupsTemplateConstant, strings.Join(activeGroups, groupNameSeparatorConstant))
	}

	if cloneError := loaded.workspace.CloneMissing(command.Context(), loaded.repositories); cloneError != nil {
		return cloneError
	}
	if remotesError := loaded.workspace.SetRemotes(command.Context(), loaded.repositories); remotesError != nil {
		return remotesError
	}

	if syncError := loaded.workspace.Sync(command.Context(), loaded.repositories); syncError != nil {
		return syncError
	}
	if copyError := loaded.workspace.CopyFiles(command.Context(), manifest.CopyDirectives(loaded.repositories)); copyError != nil {
		return copyError
	}
	environment.reporter.Printf(syncDoneMessageConstant)
	return nil
}
