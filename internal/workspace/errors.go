package workspace

import (
	"errors"
	"fmt"
	"strings"
)

const (
	configurationErrorTemplateConstant       = "%s: %v"
	cloneFailedMessageConstant               = "cloning failed"
	resetToReferenceFailedTemplateConstant   = "resetting to %s failed"
	fetchFailedMessageConstant               = "fetch failed"
	dirtyWorktreeTemplateConstant            = "%s dirty, skipping"
	updateReferenceFailedMessageConstant     = "updating ref failed"
	notOnAnyBranchMessageConstant            = "not on any branch"
	updateBranchFailedMessageConstant        = "updating branch failed"
	remoteReconcileFailedTemplateConstant    = "%s: failed to set remote url to %s"
	copyFailedTemplateConstant               = "%s -> %s: %v"
	badBranchesMessageConstant               = "some projects were not on the correct branch"
	gitManagerNotConfiguredMessageConstant   = "git repository manager not configured"
	fileSystemNotConfiguredMessageConstant   = "file system not configured"
	workspaceRootRequiredMessageConstant     = "workspace root required"
	shallowWithRevisionTemplateConstant      = "cannot use --shallow with a fixed sha1 (%s); consider using a tag instead"
	manifestURLRequiredMessageConstant       = "manifest url is required"
	workspaceNotConfiguredTemplateConstant   = "workspace not configured: %s not found; did you run `manifold init`?"
	manifestCloneMissingTemplateConstant     = "could not find manifest in %s; did you run `manifold init`?"
	manifestFileMissingTemplateConstant      = "no manifest found in %s; did you run `manifold init`?"
	invalidConfigurationTemplateConstant     = "invalid workspace configuration %s"
	configurationWriteFailedTemplateConstant = "write workspace configuration %s: %w"
	statusInspectorMissingMessageConstant    = "status inspector not configured"
	historyReaderMissingMessageConstant      = "history reader not configured"
	commandRunnerMissingMessageConstant      = "command runner not configured"
	commandRequiredMessageConstant           = "command required"
	historyFailedTemplateConstant            = "git log failed for %s"
	historySourceSeparatorConstant           = ", "
	workspaceNotFoundTemplateConstant        = "could not find a workspace in %s or any of its parents; did you run `manifold init`?"
)

var (
	// ErrGitManagerNotConfigured indicates a workspace was constructed without a repository manager.
	ErrGitManagerNotConfigured = errors.New(gitManagerNotConfiguredMessageConstant)
	// ErrFileSystemNotConfigured indicates a workspace was constructed without a file system.
	ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessageConstant)
	// ErrWorkspaceRootRequired indicates a workspace was constructed without a root directory.
	ErrWorkspaceRootRequired = errors.New(workspaceRootRequiredMessageConstant)
	// ErrStatusInspectorNotConfigured indicates Status was called on a workspace without a status inspector.
	ErrStatusInspectorNotConfigured = errors.New(statusInspectorMissingMessageConstant)
	// ErrHistoryReaderNotConfigured indicates Status or Log was called on a workspace without a history reader.
	ErrHistoryReaderNotConfigured = errors.New(historyReaderMissingMessageConstant)
	// ErrCommandRunnerNotConfigured indicates Foreach was called on a workspace without a command runner.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerMissingMessageConstant)
	// ErrCommandRequired indicates Foreach was called without a command.
	ErrCommandRequired = errors.New(commandRequiredMessageConstant)
)

// ConfigurationError reports missing or invalid workspace state, detected without touching any repository.
type ConfigurationError struct {
	Message string
	Cause   error
}

// Error describes the configuration problem.
func (configurationError ConfigurationError) Error() string {
	if configurationError.Cause == nil {
		return configurationError.Message
	}
	return fmt.Sprintf(configurationErrorTemplateConstant, configurationError.Message, configurationError.Cause)
}

// Unwrap exposes the underlying failure.
func (configurationError ConfigurationError) Unwrap() error {
	return configurationError.Cause
}

// CloneError reports a failed clone of a repository.
type CloneError struct {
	Source string
	Cause  error
}

// Error describes the clone failure.
func (cloneError CloneError) Error() string {
	return cloneFailedMessageConstant
}

// Unwrap exposes the git failure.
func (cloneError CloneError) Unwrap() error {
	return cloneError.Cause
}

// FetchError reports a failed fetch from origin.
type FetchError struct {
	Source string
	Cause  error
}

// Error describes the fetch failure.
func (fetchError FetchError) Error() string {
	return fetchFailedMessageConstant
}

// Unwrap exposes the git failure.
func (fetchError FetchError) Unwrap() error {
	return fetchError.Cause
}

// ResetError reports a repository that could not be moved to its pinned reference,
// including the dirty working tree guard and a detached HEAD on a floating repository.
type ResetError struct {
	Source  string
	Message string
	Cause   error
}

// Error describes the reset failure.
func (resetError ResetError) Error() string {
	return resetError.Message
}

// Unwrap exposes the underlying failure, if any.
func (resetError ResetError) Unwrap() error {
	return resetError.Cause
}

// MergeError reports a fast-forward that could not be performed.
type MergeError struct {
	Source string
	Cause  error
}

// Error describes the merge failure.
func (mergeError MergeError) Error() string {
	return updateBranchFailedMessageConstant
}

// Unwrap exposes the git failure.
func (mergeError MergeError) Unwrap() error {
	return mergeError.Cause
}

// RemoteReconcileError reports an origin remote that could not be brought in line with the manifest.
type RemoteReconcileError struct {
	Source string
	URL    string
	Cause  error
}

// Error describes the remote failure.
func (remoteError RemoteReconcileError) Error() string {
	return fmt.Sprintf(remoteReconcileFailedTemplateConstant, remoteError.Source, remoteError.URL)
}

// Unwrap exposes the underlying failure.
func (remoteError RemoteReconcileError) Unwrap() error {
	return remoteError.Cause
}

// CopyError reports a copy directive that could not be applied.
type CopyError struct {
	Source      string
	Destination string
	Cause       error
}

// Error describes the copy failure.
func (copyError CopyError) Error() string {
	return fmt.Sprintf(copyFailedTemplateConstant, copyError.Source, copyError.Destination, copyError.Cause)
}

// Unwrap exposes the file system failure.
func (copyError CopyError) Unwrap() error {
	return copyError.Cause
}

// BadBranch records a floating repository checked out on another branch than the manifest declares.
type BadBranch struct {
	Source   string
	Actual   string
	Expected string
}

// BadBranchesError is raised after synchronization when any repository was on the wrong branch.
type BadBranchesError struct {
	BadBranches []BadBranch
}

// Error summarizes the branch mismatches.
func (badBranchesError *BadBranchesError) Error() string {
	return badBranchesMessageConstant
}

// HistoryError lists the repositories where git log failed.
type HistoryError struct {
	Sources []string
}

// Error names the failed repositories.
func (historyError HistoryError) Error() string {
	return fmt.Sprintf(historyFailedTemplateConstant, strings.Join(historyError.Sources, historySourceSeparatorConstant))
}
