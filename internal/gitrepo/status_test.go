package gitrepo_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/temirov/manifold/internal/gitrepo"
)

func commitFile(testInstance *testing.T, repository *git.Repository, repositoryPath string, fileName string, contents string) plumbing.Hash {
	testInstance.Helper()
	require.NoError(testInstance, os.WriteFile(filepath.Join(repositoryPath, fileName), []byte(contents), 0o644))
	worktree, worktreeError := repository.Worktree()
	require.NoError(testInstance, worktreeError)
	_, addError := worktree.Add(fileName)
	require.NoError(testInstance, addError)
	commitHash, commitError := worktree.Commit("update "+fileName, &git.CommitOptions{
		Author: &object.Signature{Name: "Tester", Email: "tester@example.com", When: time.Unix(1700000000, 0)},
	})
	require.NoError(testInstance, commitError)
	return commitHash
}

func TestStatusInspectorInspect(testInstance *testing.T) {
	repositoryPath := testInstance.TempDir()
	repository, initError := git.PlainInit(repositoryPath, false)
	require.NoError(testInstance, initError)

	inspector := gitrepo.NewStatusInspector()

	emptyStatus, emptyError := inspector.Inspect(repositoryPath)
	require.NoError(testInstance, emptyError)
	require.True(testInstance, emptyStatus.Empty)

	commitHash := commitFile(testInstance, repository, repositoryPath, "README.md", "hello\n")
	_, tagError := repository.CreateTag("v1.0", commitHash, nil)
	require.NoError(testInstance, tagError)

	cleanStatus, cleanError := inspector.Inspect(repositoryPath)
	require.NoError(testInstance, cleanError)
	require.Equal(testInstance, "master", cleanStatus.Branch)
	require.Equal(testInstance, "v1.0", cleanStatus.Tag)
	require.Equal(testInstance, commitHash.String()[:7], cleanStatus.ShortHash)
	require.False(testInstance, cleanStatus.Dirty)
	require.False(testInstance, cleanStatus.Detached)

	require.NoError(testInstance, os.WriteFile(filepath.Join(repositoryPath, "README.md"), []byte("changed\n"), 0o644))
	dirtyStatus, dirtyError := inspector.Inspect(repositoryPath)
	require.NoError(testInstance, dirtyError)
	require.True(testInstance, dirtyStatus.Dirty)
}

func TestStatusInspectorDetachedHeadWithAnnotatedTag(testInstance *testing.T) {
	repositoryPath := testInstance.TempDir()
	repository, initError := git.PlainInit(repositoryPath, false)
	require.NoError(testInstance, initError)

	firstCommit := commitFile(testInstance, repository, repositoryPath, "a.txt", "a\n")
	commitFile(testInstance, repository, repositoryPath, "b.txt", "b\n")

	_, tagError := repository.CreateTag("v0.1", firstCommit, &git.CreateTagOptions{
		Tagger:  &object.Signature{Name: "Tester", Email: "tester@example.com", When: time.Unix(1700000000, 0)},
		Message: "first release",
	})
	require.NoError(testInstance, tagError)

	worktree, worktreeError := repository.Worktree()
	require.NoError(testInstance, worktreeError)
	require.NoError(testInstance, worktree.Checkout(&git.CheckoutOptions{Hash: firstCommit}))

	status, inspectError := gitrepo.NewStatusInspector().Inspect(repositoryPath)
	require.NoError(testInstance, inspectError)
	require.True(testInstance, status.Detached)
	require.Empty(testInstance, status.Branch)
	require.Equal(testInstance, "v0.1", status.Tag)
}

func TestStatusInspectorRejectsNonRepository(testInstance *testing.T) {
	_, inspectError := gitrepo.NewStatusInspector().Inspect(testInstance.TempDir())
	require.Error(testInstance, inspectError)
}
