package remotes

import (
	"context"
	"errors"
	"strings"

	"github.com/temirov/manifold/internal/repos/shared"
)

const (
	remoteChangedTemplateConstant            = "%s: %s -> %s\n"
	gitManagerNotConfiguredMessageConstant   = "git repository manager not configured"
	expectedRemoteURLRequiredMessageConstant = "expected remote url required"
)

var (
	// ErrGitManagerNotConfigured indicates the reconciler was constructed without a repository manager.
	ErrGitManagerNotConfigured = errors.New(gitManagerNotConfiguredMessageConstant)
	// ErrExpectedURLRequired indicates reconciliation was requested without a target URL.
	ErrExpectedURLRequired = errors.New(expectedRemoteURLRequiredMessageConstant)
)

// Outcome describes what reconciliation changed.
type Outcome int

// Reconciliation outcomes.
const (
	OutcomeUnchanged Outcome = iota
	OutcomeAdded
	OutcomeUpdated
)

// Options identifies the repository and the URL its origin remote must point at.
type Options struct {
	RepositoryPath string
	DisplayName    string
	ExpectedURL    string
}

// Dependencies captures collaborators required to reconcile remotes.
type Dependencies struct {
	GitManager shared.GitRepositoryManager
	Reporter   shared.Reporter
}

// Reconciler brings the origin remote of a repository in line with the manifest URL.
type Reconciler struct {
	dependencies Dependencies
}

// NewReconciler constructs a Reconciler from the provided dependencies.
func NewReconciler(dependencies Dependencies) (*Reconciler, error) {
	if dependencies.GitManager == nil {
		return nil, ErrGitManagerNotConfigured
	}
	if dependencies.Reporter == nil {
		dependencies.Reporter = shared.NewWriterReporter(nil)
	}
	return &Reconciler{dependencies: dependencies}, nil
}

// Reconcile adds the origin remote when missing and rewrites it when it differs.
// A matching remote is left untouched. Rewrites are reported as "name: old -> new".
func (reconciler *Reconciler) Reconcile(executionContext context.Context, options Options) (Outcome, error) {
	expectedURL := strings.TrimSpace(options.ExpectedURL)
	if len(expectedURL) == 0 {
		return OutcomeUnchanged, ErrExpectedURLRequired
	}

	gitManager := reconciler.dependencies.GitManager
	currentURL, lookupError := gitManager.GetRemoteURL(executionContext, options.RepositoryPath, shared.OriginRemoteNameConstant)
	if lookupError != nil {
		if !errors.Is(lookupError, shared.ErrRemoteNotFound) {
			return OutcomeUnchanged, lookupError
		}
		if addError := gitManager.AddRemote(executionContext, options.RepositoryPath, shared.OriginRemoteNameConstant, expectedURL); addError != nil {
			return OutcomeUnchanged, addError
		}
		return OutcomeAdded, nil
	}

	if currentURL == expectedURL {
		return OutcomeUnchanged, nil
	}

	if setError := gitManager.SetRemoteURL(executionContext, options.RepositoryPath, shared.OriginRemoteNameConstant, expectedURL); setError != nil {
		return OutcomeUnchanged, setError
	}

	displayName := options.DisplayName
	if len(displayName) == 0 {
		displayName = options.RepositoryPath
	}
	reconciler.dependencies.Reporter.Printf(remoteChangedTemplateConstant, displayName, currentURL, expectedURL)
	return OutcomeUpdated, nil
}
