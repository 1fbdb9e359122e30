// Package githubcli wraps the GitHub CLI for manifold pull request workflows.
//
// It layers typed request and response structures for gh subcommands and
// integrates with execshell so interactions with GitHub can be stubbed during testing.
package githubcli
