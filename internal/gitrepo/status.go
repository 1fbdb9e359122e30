package gitrepo

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

const (
	shortHashLengthConstant             = 7
	openRepositoryErrorTemplateConstant = "open repository %s: %w"
	readHeadErrorTemplateConstant       = "read HEAD of %s: %w"
	readTagsErrorTemplateConstant       = "read tags of %s: %w"
	readWorktreeErrorTemplateConstant   = "read worktree of %s: %w"
)

// RepositoryStatus summarizes the checked-out state of a repository.
type RepositoryStatus struct {
	Branch    string
	Tag       string
	ShortHash string
	Detached  bool
	Dirty     bool
	Empty     bool
}

// StatusInspector reads repository state in-process through go-git.
type StatusInspector struct{}

// NewStatusInspector constructs a StatusInspector.
func NewStatusInspector() *StatusInspector {
	return &StatusInspector{}
}

// Inspect reports branch, tag, abbreviated hash and cleanliness of the repository at repositoryPath.
func (inspector *StatusInspector) Inspect(repositoryPath string) (RepositoryStatus, error) {
	repository, openError := git.PlainOpen(repositoryPath)
	if openError != nil {
		return RepositoryStatus{}, fmt.Errorf(openRepositoryErrorTemplateConstant, repositoryPath, openError)
	}

	headReference, headError := repository.Head()
	if headError != nil {
		if errors.Is(headError, plumbing.ErrReferenceNotFound) {
			return RepositoryStatus{Empty: true}, nil
		}
		return RepositoryStatus{}, fmt.Errorf(readHeadErrorTemplateConstant, repositoryPath, headError)
	}

	status := RepositoryStatus{ShortHash: abbreviateHash(headReference.Hash())}
	if headReference.Name().IsBranch() {
		status.Branch = headReference.Name().Short()
	} else {
		status.Detached = true
	}

	tagName, tagError := findTagAt(repository, headReference.Hash())
	if tagError != nil {
		return RepositoryStatus{}, fmt.Errorf(readTagsErrorTemplateConstant, repositoryPath, tagError)
	}
	status.Tag = tagName

	worktree, worktreeError := repository.Worktree()
	if worktreeError != nil {
		return RepositoryStatus{}, fmt.Errorf(readWorktreeErrorTemplateConstant, repositoryPath, worktreeError)
	}
	worktreeStatus, statusError := worktree.Status()
	if statusError != nil {
		return RepositoryStatus{}, fmt.Errorf(readWorktreeErrorTemplateConstant, repositoryPath, statusError)
	}
	status.Dirty = !worktreeStatus.IsClean()

	return status, nil
}

// findTagAt returns the alphabetically first tag, lightweight or annotated, pointing at target.
func findTagAt(repository *git.Repository, target plumbing.Hash) (string, error) {
	tagReferences, tagsError := repository.Tags()
	if tagsError != nil {
		return "", tagsError
	}
	defer tagReferences.Close()

	var matchingTags []string
	iterationError := tagReferences.ForEach(func(reference *plumbing.Reference) error {
		if reference.Hash() == target {
			matchingTags = append(matchingTags, reference.Name().Short())
			return nil
		}
		tagObject, tagObjectError := repository.TagObject(reference.Hash())
		if tagObjectError != nil {
			return nil
		}
		if tagObject.Target == target {
			matchingTags = append(matchingTags, reference.Name().Short())
		}
		return nil
	})
	if iterationError != nil {
		return "", iterationError
	}
	if len(matchingTags) == 0 {
		return "", nil
	}
	sort.Strings(matchingTags)
	return matchingTags[0], nil
}

func abbreviateHash(hash plumbing.Hash) string {
	return hash.String()[:shortHashLengthConstant]
}
