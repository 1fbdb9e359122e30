package credentials

import (
	"os"
	"strings"
)

// Environment variable names consulted for GitLab authentication.
const (
	EnvGitLabToken    = "GITLAB_TOKEN"
	EnvGitLabAPIToken = "GITLAB_API_TOKEN"
)

var gitLabTokenPreference = []string{
	EnvGitLabToken,
	EnvGitLabAPIToken,
}

// ResolveGitLabToken returns configuredToken when set, otherwise the first non-empty
// GitLab token observed in the provided environment map or the process environment.
func ResolveGitLabToken(configuredToken string, environment map[string]string) (string, bool) {
	if trimmedToken := strings.TrimSpace(configuredToken); len(trimmedToken) > 0 {
		return trimmedToken, true
	}
	for _, key := range gitLabTokenPreference {
		if value, ok := lookup(environment, key); ok {
			return value, true
		}
	}
	for _, key := range gitLabTokenPreference {
		if value, ok := os.LookupEnv(key); ok {
			value = strings.TrimSpace(value)
			if len(value) > 0 {
				return value, true
			}
		}
	}
	return "", false
}

func lookup(environment map[string]string, key string) (string, bool) {
	if environment == nil {
		return "", false
	}
	value, exists := environment[key]
	if !exists {
		return "", false
	}
	value = strings.TrimSpace(value)
	if len(value) == 0 {
		return "", false
	}
	return value, true
}
