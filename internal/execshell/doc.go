// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner with zap logging and lifecycle
// notifications, and OSCommandRunner runs processes through os/exec. Every
// git and gh invocation in manifold goes through this package.
package execshell
