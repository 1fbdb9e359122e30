package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/manifold/internal/manifest"
	"github.com/temirov/manifold/internal/repos/shared"
)

const (
	remoteBranchTemplateConstant         = "%s/%s"
	updatingManifestMessageConstant      = "Updating manifest\n"
	manifestGitFailureTemplateConstant   = "%s manifest clone in %s: %w"
	manifestConfigureOperationConstant   = "configure"
	manifestCloneOperationConstant       = "clone"
	manifestUpdateOperationConstant      = "update"
	manifestParseFailedTemplateConstant  = "parse manifest %s: %w"
	manifestConfiguredLogMessageConstant = "manifest configured"
	logFieldManifestURLConstant          = "manifest_url"
	logFieldManifestBranchConstant       = "manifest_branch"
)

// LocalManifest manages the clone of the manifest repository kept in the hidden workspace directory,
// together with the persisted workspace configuration.
type LocalManifest struct {
	workspaceRoot string
	dependencies  Dependencies
}

// NewLocalManifest constructs a LocalManifest for the workspace at workspaceRoot.
func NewLocalManifest(workspaceRoot string, dependencies Dependencies) (*LocalManifest, error) {
	if len(strings.TrimSpace(workspaceRoot)) == 0 {
		return nil, ErrWorkspaceRootRequired
	}
	if dependencies.GitManager == nil {
		return nil, ErrGitManagerNotConfigured
	}
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if dependencies.Reporter == nil {
		dependencies.Reporter = shared.NewWriterReporter(nil)
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	return &LocalManifest{workspaceRoot: workspaceRoot, dependencies: dependencies}, nil
}

// ClonePath returns the directory of the manifest clone.
func (localManifest *LocalManifest) ClonePath() string {
	return filepath.Join(localManifest.workspaceRoot, HiddenDirectoryNameConstant, ManifestCloneDirectoryNameConstant)
}

// ManifestPath returns the manifest document inside the clone.
func (localManifest *LocalManifest) ManifestPath() string {
	return filepath.Join(localManifest.ClonePath(), ManifestFileNameConstant)
}

// Configure clones or re-targets the manifest clone according to configuration, then persists it.
func (localManifest *LocalManifest) Configure(executionContext context.Context, configuration Configuration) error {
	if len(strings.TrimSpace(configuration.ManifestURL)) == 0 {
		return ConfigurationError{Message: manifestURLRequiredMessageConstant}
	}
	if len(configuration.ManifestBranch) == 0 {
		configuration.ManifestBranch = manifest.DefaultBranchConstant
	}

	cloneExists, statError := localManifest.cloneExists()
	if statError != nil {
		return statError
	}
	if cloneExists {
		if resetError := localManifest.resetClone(executionContext, configuration); resetError != nil {
			return fmt.Errorf(manifestGitFailureTemplateConstant, manifestConfigureOperationConstant, localManifest.ClonePath(), resetError)
		}
	} else if cloneError := localManifest.cloneManifest(executionContext, configuration); cloneError != nil {
		return fmt.Errorf(manifestGitFailureTemplateConstant, manifestCloneOperationConstant, localManifest.ClonePath(), cloneError)
	}

	localManifest.dependencies.Logger.Debug(
		manifestConfiguredLogMessageConstant,
		zap.String(logFieldManifestURLConstant, configuration.ManifestURL),
		zap.String(logFieldManifestBranchConstant, configuration.ManifestBranch),
	)
	return SaveConfiguration(localManifest.dependencies.FileSystem, localManifest.workspaceRoot, configuration)
}

// Update fast-forwards the manifest clone to its upstream branch.
func (localManifest *LocalManifest) Update(executionContext context.Context) error {
	localManifest.dependencies.Reporter.Printf(updatingManifestMessageConstant)

	cloneExists, statError := localManifest.cloneExists()
	if statError != nil {
		return statError
	}
	if !cloneExists {
		return ConfigurationError{Message: fmt.Sprintf(manifestCloneMissingTemplateConstant, localManifest.ClonePath())}
	}

	gitManager := localManifest.dependencies.GitManager
	clonePath := localManifest.ClonePath()
	if fetchError := gitManager.Fetch(executionContext, clonePath, shared.OriginRemoteNameConstant, false); fetchError != nil {
		return fmt.Errorf(manifestGitFailureTemplateConstant, manifestUpdateOperationConstant, clonePath, fetchError)
	}
	if resetError := gitManager.ResetHard(executionContext, clonePath, shared.UpstreamReferenceConstant); resetError != nil {
		return fmt.Errorf(manifestGitFailureTemplateConstant, manifestUpdateOperationConstant, clonePath, resetError)
	}
	return nil
}

// Load parses the manifest document of the clone.
func (localManifest *LocalManifest) Load() (*manifest.Manifest, error) {
	manifestPath := localManifest.ManifestPath()
	contents, readError := localManifest.dependencies.FileSystem.ReadFile(manifestPath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return nil, ConfigurationError{Message: fmt.Sprintf(manifestFileMissingTemplateConstant, manifestPath)}
		}
		return nil, readError
	}
	parsedManifest, parseError := manifest.Parse(contents)
	if parseError != nil {
		return nil, fmt.Errorf(manifestParseFailedTemplateConstant, manifestPath, parseError)
	}
	return parsedManifest, nil
}

// LoadConfiguration reads the persisted workspace configuration.
func (localManifest *LocalManifest) LoadConfiguration() (Configuration, error) {
	return LoadConfiguration(localManifest.dependencies.FileSystem, localManifest.workspaceRoot)
}

func (localManifest *LocalManifest) cloneExists() (bool, error) {
	_, statError := localManifest.dependencies.FileSystem.Stat(localManifest.ClonePath())
	if statError == nil {
		return true, nil
	}
	if errors.Is(statError, fs.ErrNotExist) {
		return false, nil
	}
	return false, statError
}

func (localManifest *LocalManifest) resetClone(executionContext context.Context, configuration Configuration) error {
	gitManager := localManifest.dependencies.GitManager
	clonePath := localManifest.ClonePath()
	remoteBranch := fmt.Sprintf(remoteBranchTemplateConstant, shared.OriginRemoteNameConstant, configuration.ManifestBranch)

	if setError := gitManager.SetRemoteURL(executionContext, clonePath, shared.OriginRemoteNameConstant, configuration.ManifestURL); setError != nil {
		return setError
	}
	if fetchError := gitManager.Fetch(executionContext, clonePath, shared.OriginRemoteNameConstant, false); fetchError != nil {
		return fetchError
	}
	if checkoutError := gitManager.CheckoutBranch(executionContext, clonePath, configuration.ManifestBranch); checkoutError != nil {
		return checkoutError
	}
	if upstreamError := gitManager.SetUpstream(executionContext, clonePath, configuration.ManifestBranch, remoteBranch); upstreamError != nil {
		return upstreamError
	}

	resetReference := remoteBranch
	if len(configuration.Tag) > 0 {
		resetReference = configuration.Tag
	}
	return gitManager.ResetHard(executionContext, clonePath, resetReference)
}

func (localManifest *LocalManifest) cloneManifest(executionContext context.Context, configuration Configuration) error {
	clonePath := localManifest.ClonePath()
	parentDirectory := filepath.Dir(clonePath)
	if mkdirError := localManifest.dependencies.FileSystem.MkdirAll(parentDirectory, directoryPermissionsConstant); mkdirError != nil {
		return mkdirError
	}

	reference := configuration.Tag
	if len(reference) == 0 {
		reference = configuration.ManifestBranch
	}
	return localManifest.dependencies.GitManager.Clone(executionContext, shared.CloneOptions{
		RemoteURL:       configuration.ManifestURL,
		Reference:       reference,
		ParentDirectory: parentDirectory,
		DestinationName: ManifestCloneDirectoryNameConstant,
	})
}
