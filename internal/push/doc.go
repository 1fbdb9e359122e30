// Package push pushes the current branch of a repository and makes sure a
// pull request (GitHub) or merge request (GitLab) tracks it.
package push
