package repos

import "strings"

const (
	workspaceConfigurationKeyConstant   = "workspace"
	githubConfigurationKeyConstant      = "github"
	gitlabConfigurationKeyConstant      = "gitlab"
	configurationRootKeyConstant        = "root"
	configurationMergeMethodKeyConstant = "merge_method"
	configurationTokenKeyConstant       = "token"
	defaultMergeMethodConstant          = "merge"
)

// CommandConfiguration captures the configuration sections read by workspace commands.
type CommandConfiguration struct {
	Workspace WorkspaceConfiguration `mapstructure:"workspace"`
	GitHub    GitHubConfiguration    `mapstructure:"github"`
	GitLab    GitLabConfiguration    `mapstructure:"gitlab"`
}

// WorkspaceConfiguration pins the workspace root instead of discovering it from the working directory.
type WorkspaceConfiguration struct {
	Root string `mapstructure:"root"`
}

// GitHubConfiguration configures push-github.
type GitHubConfiguration struct {
	MergeMethod string `mapstructure:"merge_method"`
}

// GitLabConfiguration configures push-gitlab.
type GitLabConfiguration struct {
	Token string `mapstructure:"token"`
}

// DefaultCommandConfiguration returns baseline configuration values for workspace commands.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		GitHub: GitHubConfiguration{MergeMethod: defaultMergeMethodConstant},
	}
}

// DefaultConfigurationValues produces Viper defaults for workspace commands.
func DefaultConfigurationValues() map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		workspaceConfigurationKeyConstant + "." + configurationRootKeyConstant:     defaults.Workspace.Root,
		githubConfigurationKeyConstant + "." + configurationMergeMethodKeyConstant: defaults.GitHub.MergeMethod,
		gitlabConfigurationKeyConstant + "." + configurationTokenKeyConstant:       defaults.GitLab.Token,
	}
}

func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Workspace.Root = strings.TrimSpace(configuration.Workspace.Root)
	if len(sanitized.Workspace.Root) > 0 {
		sanitized.Workspace.Root = repositoryHomeDirectoryExpander.Expand(sanitized.Workspace.Root)
	}
	sanitized.GitHub.MergeMethod = strings.TrimSpace(configuration.GitHub.MergeMethod)
	if len(sanitized.GitHub.MergeMethod) == 0 {
		sanitized.GitHub.MergeMethod = defaultMergeMethodConstant
	}
	sanitized.GitLab.Token = strings.TrimSpace(configuration.GitLab.Token)
	return sanitized
}
