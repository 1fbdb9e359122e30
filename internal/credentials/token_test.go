package credentials_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/manifold/internal/credentials"
)

func TestResolveGitLabToken(testInstance *testing.T) {
	testCases := []struct {
		name            string
		configuredToken string
		environment     map[string]string
		processToken    string
		expectedToken   string
		expectedFound   bool
	}{
		{name: "configured_token_wins", configuredToken: " configured ", environment: map[string]string{credentials.EnvGitLabToken: "mapped"}, processToken: "process", expectedToken: "configured", expectedFound: true},
		{name: "environment_map_preference", environment: map[string]string{credentials.EnvGitLabAPIToken: "api", credentials.EnvGitLabToken: "primary"}, expectedToken: "primary", expectedFound: true},
		{name: "blank_map_values_ignored", environment: map[string]string{credentials.EnvGitLabToken: "  "}, processToken: "process", expectedToken: "process", expectedFound: true},
		{name: "nothing_set"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			testInstance.Setenv(credentials.EnvGitLabToken, testCase.processToken)
			testInstance.Setenv(credentials.EnvGitLabAPIToken, "")

			token, found := credentials.ResolveGitLabToken(testCase.configuredToken, testCase.environment)
			require.Equal(testInstance, testCase.expectedFound, found)
			require.Equal(testInstance, testCase.expectedToken, token)
		})
	}
}
