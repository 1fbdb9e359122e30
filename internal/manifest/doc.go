// Package manifest parses the workspace manifest: the repositories, their
// pinned references and copy directives, the named groups that select
// subsets of repositories, and the optional GitLab settings.
package manifest
