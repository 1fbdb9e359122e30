// Package remotes reconciles the origin remote of workspace repositories with the manifest.
package remotes
