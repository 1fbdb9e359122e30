// Package cli constructs the manifold command-line interface. It wires the
// Cobra command hierarchy to the Viper configuration loader and the zap
// logger, and registers the workspace commands from the repos package.
package cli
