package tests

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	_ = os.Setenv("GIT_AUTHOR_NAME", "Manifold Tests")
	_ = os.Setenv("GIT_AUTHOR_EMAIL", "tests@example.com")
	_ = os.Setenv("GIT_COMMITTER_NAME", "Manifold Tests")
	_ = os.Setenv("GIT_COMMITTER_EMAIL", "tests@example.com")
	_ = os.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	_ = os.Setenv("MANIFOLD_GITLAB_TOKEN", "")
	os.Exit(m.Run())
}
