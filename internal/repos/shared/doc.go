// Package shared declares the collaborators used across workspace services:
// the git executor, the repository manager, the filesystem and the reporter
// that renders user-facing progress.
package shared
