package repos

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/manifold/internal/manifest"
	"github.com/temirov/manifold/internal/workspace"
)

const (
	initUseConstant              = "init <manifest-url>"
	initShortDescriptionConstant = "Create a workspace from a manifest repository"
	initLongDescriptionConstant  = "init clones the manifest repository into the workspace, then clones, configures and copies files for every selected repository."
	initExampleConstant          = "manifold init git@example.com:team/manifest.git --group backend"
	initBranchFlagNameConstant   = "branch"
	initBranchFlagUsageConstant  = "Manifest branch to use"
	initTagFlagNameConstant      = "tag"
	initTagFlagUsageConstant     = "Manifest tag to use instead of a branch"
	initGroupFlagNameConstant    = "group"
	initGroupFlagUsageConstant   = "Repository group to select; may be repeated"
	initShallowFlagNameConstant  = "shallow"
	initShallowFlagUsageConstant = "Clone repositories with a history depth of one"
	manifestURLRequiredMessage   = "manifest url is required"
	configuringWorkspaceTemplate = "Configuring workspace in %s\n"
	workspaceInitializedMessage  = "Workspace initialized\n"
	usingGroupsTemplateConstant  = "* Using groups: %s\n"
	groupNameSeparatorConstant   = ","
)

// InitCommandBuilder assembles the init command.
type InitCommandBuilder struct {
	CommandDependencies
}

// Build constructs the init command.
func (builder *InitCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     initUseConstant,
		Short:   initShortDescriptionConstant,
		Long:    initLongDescriptionConstant,
		Example: initExampleConstant,
		RunE:    builder.run,
	}
	command.Flags().String(initBranchFlagNameConstant, "", initBranchFlagUsageConstant)
	command.Flags().String(initTagFlagNameConstant, "", initTagFlagUsageConstant)
	command.Flags().StringArray(initGroupFlagNameConstant, nil, initGroupFlagUsageConstant)
	command.Flags().Bool(initShallowFlagNameConstant, false, initShallowFlagUsageConstant)
	return command, nil
}

func (builder *InitCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) == 0 || len(strings.TrimSpace(arguments[0])) == 0 {
		_ = displayCommandHelp(command)
		return errors.New(manifestURLRequiredMessage)
	}

	configuration := workspace.Configuration{ManifestURL: strings.TrimSpace(arguments[0])}
	configuration.ManifestBranch, _ = command.Flags().GetString(initBranchFlagNameConstant)
	configuration.Tag, _ = command.Flags().GetString(initTagFlagNameConstant)
	configuration.Groups, _ = command.Flags().GetStringArray(initGroupFlagNameConstant)
	configuration.Shallow, _ = command.Flags().GetBool(initShallowFlagNameConstant)

	environment, environmentError := builder.resolveEnvironment(command)
	if environmentError != nil {
		return environmentError
	}
	workspaceRoot, rootError := builder.initWorkspaceRoot(command, environment)
	if rootError != nil {
		return rootError
	}
	environment.reporter.Printf(configuringWorkspaceTemplate, repositoryHomeDirectoryExpander.Abbreviate(workspaceRoot))

	workspaceDependencies := environment.workspaceDependencies()
	localManifest, localError := workspace.NewLocalManifest(workspaceRoot, workspaceDependencies)
	if localError != nil {
		return localError
	}
	if configureError := localManifest.Configure(command.Context(), configuration); configureError != nil {
		return configureError
	}
	persistedConfiguration, configurationError := localManifest.LoadConfiguration()
	if configurationError != nil {
		return configurationError
	}
	parsedManifest, loadError := localManifest.Load()
	if loadError != nil {
		return loadError
	}

	activeWorkspace, workspaceError := workspace.New(workspaceRoot, persistedConfiguration, workspaceDependencies)
	if workspaceError != nil {
		return workspaceError
	}
	repositories, selectionError := activeWorkspace.SelectRepositories(parsedManifest)
	if selectionError != nil {
		return selectionError
	}
	if len(persistedConfiguration.Groups) > 0 {
		environment.reporter.Printf(usingGroupsTemplateConstant, strings.Join(persistedConfiguration.Groups, groupNameSeparatorConstant))
	}

	if applyError := applyRepositories(command, activeWorkspace, repositories); applyError != nil {
		return applyError
	}
	environment.reporter.Printf(workspaceInitializedMessage)
	return nil
}

// initWorkspaceRoot is the explicit workspace root when one is set, else the working directory.
func (builder *InitCommandBuilder) initWorkspaceRoot(command *cobra.Command, environment commandEnvironment) (string, error) {
	explicitRoot, explicit, explicitError := explicitWorkspaceRoot(command, environment)
	if explicit || explicitError != nil {
		return explicitRoot, explicitError
	}
	workingDirectory, workingDirectoryError := builder.workingDirectory()
	if workingDirectoryError != nil {
		return "", workingDirectoryError
	}
	return environment.fileSystem.Abs(workingDirectory)
}

// applyRepositories clones what is missing, points remotes at the manifest and copies files.
func applyRepositories(command *cobra.Command, activeWorkspace *workspace.Workspace, repositories []manifest.Repository) error {
	if cloneError := activeWorkspace.CloneMissing(command.Context(), repositories); cloneError != nil {
		return cloneError
	}
	if remotesError := activeWorkspace.SetRemotes(command.Context(), repositories); remotesError != nil {
		return remotesError
	}
	return activeWorkspace.CopyFiles(command.Context(), manifest.CopyDirectives(repositories))
}
