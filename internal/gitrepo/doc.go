// Package gitrepo contains helpers for interrogating and manipulating Git repositories.
//
// RepositoryManager drives the git CLI for every state-changing operation
// (clone, fetch, reset, merge, remote edits, push). StatusInspector reads
// branch, tag and worktree state in-process. ParseRemoteURL extracts the
// hosting project path from a remote URL.
package gitrepo
