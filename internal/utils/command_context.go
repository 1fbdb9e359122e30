package utils

import "context"

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	workspaceRootContextKeyConstant         = commandContextKey("workspaceRoot")
)

type commandContextKey string

// CommandContextAccessor manages values stored in command execution contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath attaches the configuration file path to the provided context.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	return accessor.withString(parentContext, configurationFilePathContextKeyConstant, configurationFilePath)
}

// ConfigurationFilePath extracts the configuration file path from the provided context.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	return accessor.stringValue(executionContext, configurationFilePathContextKeyConstant)
}

// WithWorkspaceRoot attaches the resolved workspace root directory to the provided context.
func (accessor CommandContextAccessor) WithWorkspaceRoot(parentContext context.Context, workspaceRoot string) context.Context {
	return accessor.withString(parentContext, workspaceRootContextKeyConstant, workspaceRoot)
}

// WorkspaceRoot extracts the workspace root directory from the provided context.
func (accessor CommandContextAccessor) WorkspaceRoot(executionContext context.Context) (string, bool) {
	return accessor.stringValue(executionContext, workspaceRootContextKeyConstant)
}

func (accessor CommandContextAccessor) withString(parentContext context.Context, key commandContextKey, value string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, key, value)
}

func (accessor CommandContextAccessor) stringValue(executionContext context.Context, key commandContextKey) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	value, valueAvailable := executionContext.Value(key).(string)
	if !valueAvailable || len(value) == 0 {
		return "", false
	}
	return value, true
}
