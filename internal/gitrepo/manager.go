package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/temirov/manifold/internal/execshell"
	"github.com/temirov/manifold/internal/repos/shared"
)

const (
	gitCloneSubcommandConstant       = "clone"
	gitFetchSubcommandConstant       = "fetch"
	gitResetSubcommandConstant       = "reset"
	gitMergeSubcommandConstant       = "merge"
	gitCheckoutSubcommandConstant    = "checkout"
	gitBranchSubcommandConstant      = "branch"
	gitStatusSubcommandConstant      = "status"
	gitRevParseSubcommandConstant    = "rev-parse"
	gitRevListSubcommandConstant     = "rev-list"
	gitRemoteSubcommandConstant      = "remote"
	gitPushSubcommandConstant        = "push"
	gitLogSubcommandConstant         = "log"
	gitRemoteGetURLActionConstant    = "get-url"
	gitRemoteSetURLActionConstant    = "set-url"
	gitRemoteAddActionConstant       = "add"
	gitBranchFlagConstant            = "--branch"
	gitDepthFlagConstant             = "--depth"
	gitShallowDepthConstant          = "1"
	gitTagsFlagConstant              = "--tags"
	gitPruneFlagConstant             = "--prune"
	gitHardFlagConstant              = "--hard"
	gitFastForwardOnlyFlagConstant   = "--ff-only"
	gitForceResetBranchFlagConstant  = "-B"
	gitSetUpstreamToFlagConstant     = "--set-upstream-to"
	gitPorcelainFlagConstant         = "--porcelain"
	gitAbbrevRefFlagConstant         = "--abbrev-ref"
	gitSymbolicFullNameFlagConstant  = "--symbolic-full-name"
	gitLeftRightFlagConstant         = "--left-right"
	gitCountFlagConstant             = "--count"
	gitForceFlagConstant             = "--force"
	gitOnelineFlagConstant           = "--oneline"
	gitNoColorFlagConstant           = "--color=never"
	gitHeadReferenceConstant         = "HEAD"
	gitSymmetricRangeTemplate        = "%s...%s"
	gitTerminalPromptEnvironmentName = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledValue   = "0"

	executorNotConfiguredMessageConstant  = "git executor not configured"
	repositoryPathRequiredMessageConstant = "repository path required"
	remoteURLRequiredMessageConstant      = "remote url required"
	unexpectedCountOutputTemplateConstant = "unexpected rev-list output %q"
	remoteLookupFailedTemplateConstant    = "%w: %s"
	upstreamHeadTemplateConstant          = "%s...%s"
)

var (
	// ErrGitExecutorNotConfigured indicates the manager was constructed without an executor.
	ErrGitExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
	// ErrRepositoryPathRequired indicates an operation was requested without a repository path.
	ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)
	// ErrRemoteURLRequired indicates a remote write was requested without a URL.
	ErrRemoteURLRequired = errors.New(remoteURLRequiredMessageConstant)
)

// RepositoryManager performs repository-level git operations through the git CLI.
type RepositoryManager struct {
	executor shared.GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager around the provided executor.
func NewRepositoryManager(executor shared.GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// Clone clones options.RemoteURL into ParentDirectory/DestinationName.
// The reference is passed through --branch, so it may name a branch or a tag.
func (manager *RepositoryManager) Clone(executionContext context.Context, options shared.CloneOptions) error {
	if len(strings.TrimSpace(options.RemoteURL)) == 0 {
		return ErrRemoteURLRequired
	}
	arguments := []string{gitCloneSubcommandConstant, options.RemoteURL}
	if len(options.Reference) > 0 {
		arguments = append(arguments, gitBranchFlagConstant, options.Reference)
	}
	if options.Shallow {
		arguments = append(arguments, gitDepthFlagConstant, gitShallowDepthConstant)
	}
	arguments = append(arguments, options.DestinationName)
	return manager.run(executionContext, options.ParentDirectory, arguments...)
}

// Fetch updates remote-tracking references, pruning deleted ones.
func (manager *RepositoryManager) Fetch(executionContext context.Context, repositoryPath string, remoteName string, includeTags bool) error {
	arguments := []string{gitFetchSubcommandConstant}
	if includeTags {
		arguments = append(arguments, gitTagsFlagConstant)
	}
	arguments = append(arguments, gitPruneFlagConstant, remoteName)
	return manager.runInRepository(executionContext, repositoryPath, arguments...)
}

// ResetHard moves the current branch and working tree to reference.
func (manager *RepositoryManager) ResetHard(executionContext context.Context, repositoryPath string, reference string) error {
	return manager.runInRepository(executionContext, repositoryPath, gitResetSubcommandConstant, gitHardFlagConstant, reference)
}

// MergeFastForward fast-forwards the current branch to reference, failing when histories diverged.
func (manager *RepositoryManager) MergeFastForward(executionContext context.Context, repositoryPath string, reference string) error {
	return manager.runInRepository(executionContext, repositoryPath, gitMergeSubcommandConstant, gitFastForwardOnlyFlagConstant, reference)
}

// CheckoutBranch creates or resets branchName and checks it out.
func (manager *RepositoryManager) CheckoutBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	return manager.runInRepository(executionContext, repositoryPath, gitCheckoutSubcommandConstant, gitForceResetBranchFlagConstant, branchName)
}

// SetUpstream configures the tracking branch of branchName.
func (manager *RepositoryManager) SetUpstream(executionContext context.Context, repositoryPath string, branchName string, upstreamReference string) error {
	return manager.runInRepository(executionContext, repositoryPath, gitBranchSubcommandConstant, branchName, gitSetUpstreamToFlagConstant, upstreamReference)
}

// CheckCleanWorktree reports whether the working tree has no staged, unstaged or untracked changes.
func (manager *RepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error) {
	output, statusError := manager.output(executionContext, repositoryPath, gitStatusSubcommandConstant, gitPorcelainFlagConstant)
	if statusError != nil {
		return false, statusError
	}
	return len(strings.TrimSpace(output)) == 0, nil
}

// GetCurrentBranch returns the checked-out branch name, or shared.ErrDetachedHead.
func (manager *RepositoryManager) GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	output, revParseError := manager.output(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitAbbrevRefFlagConstant, gitHeadReferenceConstant)
	if revParseError != nil {
		return "", revParseError
	}
	branchName := strings.TrimSpace(output)
	if len(branchName) == 0 || branchName == gitHeadReferenceConstant {
		return "", shared.ErrDetachedHead
	}
	return branchName, nil
}

// GetUpstreamBranch returns the tracking reference of the current branch, such as origin/main.
func (manager *RepositoryManager) GetUpstreamBranch(executionContext context.Context, repositoryPath string) (string, error) {
	output, revParseError := manager.output(
		executionContext,
		repositoryPath,
		gitRevParseSubcommandConstant,
		gitAbbrevRefFlagConstant,
		gitSymbolicFullNameFlagConstant,
		shared.UpstreamReferenceConstant,
	)
	if revParseError != nil {
		var failedError execshell.CommandFailedError
		if errors.As(revParseError, &failedError) {
			return "", shared.ErrNoUpstream
		}
		return "", revParseError
	}
	return strings.TrimSpace(output), nil
}

// GetRemoteURL returns the URL of remoteName. A remote that git cannot resolve yields shared.ErrRemoteNotFound.
func (manager *RepositoryManager) GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error) {
	output, lookupError := manager.output(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteGetURLActionConstant, remoteName)
	if lookupError != nil {
		var failedError execshell.CommandFailedError
		if errors.As(lookupError, &failedError) {
			return "", fmt.Errorf(remoteLookupFailedTemplateConstant, shared.ErrRemoteNotFound, remoteName)
		}
		return "", lookupError
	}
	return strings.TrimSpace(output), nil
}

// SetRemoteURL points an existing remote at remoteURL.
func (manager *RepositoryManager) SetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	if len(strings.TrimSpace(remoteURL)) == 0 {
		return ErrRemoteURLRequired
	}
	return manager.runInRepository(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteSetURLActionConstant, remoteName, remoteURL)
}

// AddRemote registers a new remote.
func (manager *RepositoryManager) AddRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	if len(strings.TrimSpace(remoteURL)) == 0 {
		return ErrRemoteURLRequired
	}
	return manager.runInRepository(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteAddActionConstant, remoteName, remoteURL)
}

// Push pushes refspec to remoteName.
func (manager *RepositoryManager) Push(executionContext context.Context, repositoryPath string, remoteName string, refspec string, force bool) error {
	arguments := []string{gitPushSubcommandConstant, remoteName, refspec}
	if force {
		arguments = append(arguments, gitForceFlagConstant)
	}
	return manager.runInRepository(executionContext, repositoryPath, arguments...)
}

// Log returns the one-line history between fromReference and toReference.
func (manager *RepositoryManager) Log(executionContext context.Context, repositoryPath string, fromReference string, toReference string) (string, error) {
	output, logError := manager.output(
		executionContext,
		repositoryPath,
		gitLogSubcommandConstant,
		gitNoColorFlagConstant,
		gitOnelineFlagConstant,
		fmt.Sprintf(gitSymmetricRangeTemplate, fromReference, toReference),
	)
	if logError != nil {
		return "", logError
	}
	return strings.TrimRight(output, "\n"), nil
}

// AheadBehind counts commits on HEAD missing from upstream and commits on upstream missing from HEAD.
func (manager *RepositoryManager) AheadBehind(executionContext context.Context, repositoryPath string, upstreamReference string) (int, int, error) {
	output, countError := manager.output(
		executionContext,
		repositoryPath,
		gitRevListSubcommandConstant,
		gitLeftRightFlagConstant,
		gitCountFlagConstant,
		fmt.Sprintf(upstreamHeadTemplateConstant, gitHeadReferenceConstant, upstreamReference),
	)
	if countError != nil {
		return 0, 0, countError
	}
	fields := strings.Fields(output)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf(unexpectedCountOutputTemplateConstant, output)
	}
	aheadCount, aheadError := strconv.Atoi(fields[0])
	if aheadError != nil {
		return 0, 0, fmt.Errorf(unexpectedCountOutputTemplateConstant, output)
	}
	behindCount, behindError := strconv.Atoi(fields[1])
	if behindError != nil {
		return 0, 0, fmt.Errorf(unexpectedCountOutputTemplateConstant, output)
	}
	return aheadCount, behindCount, nil
}

func (manager *RepositoryManager) runInRepository(executionContext context.Context, repositoryPath string, arguments ...string) error {
	_, executionError := manager.output(executionContext, repositoryPath, arguments...)
	return executionError
}

func (manager *RepositoryManager) run(executionContext context.Context, workingDirectory string, arguments ...string) error {
	_, executionError := manager.executor.ExecuteGit(executionContext, manager.details(workingDirectory, arguments))
	return executionError
}

func (manager *RepositoryManager) output(executionContext context.Context, repositoryPath string, arguments ...string) (string, error) {
	if len(strings.TrimSpace(repositoryPath)) == 0 {
		return "", ErrRepositoryPathRequired
	}
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, manager.details(repositoryPath, arguments))
	if executionError != nil {
		return "", executionError
	}
	return executionResult.StandardOutput, nil
}

func (manager *RepositoryManager) details(workingDirectory string, arguments []string) execshell.CommandDetails {
	return execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     workingDirectory,
		EnvironmentVariables: map[string]string{gitTerminalPromptEnvironmentName: gitTerminalPromptDisabledValue},
	}
}
