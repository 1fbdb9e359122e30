package workspace_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/temirov/manifold/internal/repos/filesystem"
	"github.com/temirov/manifold/internal/repos/shared"
	"github.com/temirov/manifold/internal/workspace"
)

const (
	manifestRepositoryURL = "git@example.com:org/manifest.git"
	manifestClonePath     = ".manifold/manifest"
)

func newLocalManifestFixture(testInstance *testing.T) (*workspace.LocalManifest, *recordingGitManager, *bytes.Buffer, string) {
	testInstance.Helper()
	workspaceRoot := testInstance.TempDir()
	gitManager := newRecordingGitManager(workspaceRoot)
	outputBuffer := &bytes.Buffer{}
	localManifest, creationError := workspace.NewLocalManifest(workspaceRoot, workspace.Dependencies{
		GitManager: gitManager,
		FileSystem: filesystem.OSFileSystem{},
		Reporter:   shared.NewWriterReporter(outputBuffer),
	})
	require.NoError(testInstance, creationError)
	return localManifest, gitManager, outputBuffer, workspaceRoot
}

func TestConfigureClonesManifestAndSavesConfiguration(testInstance *testing.T) {
	testCases := []struct {
		name              string
		configuration     workspace.Configuration
		expectedReference string
	}{
		{name: "branch", configuration: workspace.Configuration{ManifestURL: manifestRepositoryURL}, expectedReference: "master"},
		{name: "tag", configuration: workspace.Configuration{ManifestURL: manifestRepositoryURL, ManifestBranch: "devel", Tag: "v3"}, expectedReference: "v3"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			localManifest, gitManager, _, workspaceRoot := newLocalManifestFixture(subTest)

			require.NoError(subTest, localManifest.Configure(context.Background(), testCase.configuration))
			require.Equal(subTest, []gitCall{{Operation: "clone", Path: manifestClonePath, Arguments: []string{manifestRepositoryURL, testCase.expectedReference}}}, gitManager.calls)

			savedConfiguration, loadError := workspace.LoadConfiguration(filesystem.OSFileSystem{}, workspaceRoot)
			require.NoError(subTest, loadError)
			require.Equal(subTest, manifestRepositoryURL, savedConfiguration.ManifestURL)
			require.Equal(subTest, testCase.configuration.Tag, savedConfiguration.Tag)
		})
	}
}

func TestConfigureRetargetsExistingClone(testInstance *testing.T) {
	localManifest, gitManager, _, _ := newLocalManifestFixture(testInstance)
	require.NoError(testInstance, os.MkdirAll(localManifest.ClonePath(), 0o755))

	require.NoError(testInstance, localManifest.Configure(context.Background(), workspace.Configuration{ManifestURL: manifestRepositoryURL, ManifestBranch: "devel"}))

	expectedCalls := []gitCall{
		{Operation: "set-url", Path: manifestClonePath, Arguments: []string{"origin", manifestRepositoryURL}},
		{Operation: "fetch", Path: manifestClonePath, Arguments: []string{"origin"}},
		{Operation: "checkout", Path: manifestClonePath, Arguments: []string{"devel"}},
		{Operation: "upstream", Path: manifestClonePath, Arguments: []string{"devel", "origin/devel"}},
		{Operation: "reset", Path: manifestClonePath, Arguments: []string{"origin/devel"}},
	}
	if difference := cmp.Diff(expectedCalls, gitManager.calls); len(difference) > 0 {
		testInstance.Fatalf("unexpected git calls (-want +got):\n%s", difference)
	}
}

func TestConfigureRequiresManifestURL(testInstance *testing.T) {
	localManifest, gitManager, _, _ := newLocalManifestFixture(testInstance)

	configureError := localManifest.Configure(context.Background(), workspace.Configuration{})

	var configurationError workspace.ConfigurationError
	require.ErrorAs(testInstance, configureError, &configurationError)
	require.Empty(testInstance, gitManager.calls)
}

func TestConfigureReportsCloneFailure(testInstance *testing.T) {
	localManifest, gitManager, _, workspaceRoot := newLocalManifestFixture(testInstance)
	gitManager.failOn("clone", manifestClonePath)

	configureError := localManifest.Configure(context.Background(), workspace.Configuration{ManifestURL: manifestRepositoryURL})
	require.ErrorIs(testInstance, configureError, errScriptedFailure)
	require.NoFileExists(testInstance, workspace.ConfigurationPath(workspaceRoot))
}

func TestUpdateFastForwardsManifestClone(testInstance *testing.T) {
	localManifest, gitManager, outputBuffer, _ := newLocalManifestFixture(testInstance)
	require.NoError(testInstance, os.MkdirAll(localManifest.ClonePath(), 0o755))

	require.NoError(testInstance, localManifest.Update(context.Background()))
	require.Equal(testInstance, []gitCall{
		{Operation: "fetch", Path: manifestClonePath, Arguments: []string{"origin"}},
		{Operation: "reset", Path: manifestClonePath, Arguments: []string{"@{u}"}},
	}, gitManager.calls)
	require.Equal(testInstance, "Updating manifest\n", outputBuffer.String())
}

func TestUpdateWithoutCloneSuggestsInit(testInstance *testing.T) {
	localManifest, gitManager, _, _ := newLocalManifestFixture(testInstance)

	updateError := localManifest.Update(context.Background())

	var configurationError workspace.ConfigurationError
	require.ErrorAs(testInstance, updateError, &configurationError)
	require.Contains(testInstance, updateError.Error(), "manifold init")
	require.Empty(testInstance, gitManager.calls)
}

func TestLoadParsesManifestFromClone(testInstance *testing.T) {
	localManifest, _, _, _ := newLocalManifestFixture(testInstance)

	_, missingError := localManifest.Load()
	var configurationError workspace.ConfigurationError
	require.ErrorAs(testInstance, missingError, &configurationError)

	require.NoError(testInstance, os.MkdirAll(localManifest.ClonePath(), 0o755))
	manifestContents := "repos:\n  - src: foo\n    url: git@example.com:org/foo.git\n"
	require.NoError(testInstance, os.WriteFile(filepath.Join(localManifest.ClonePath(), "manifest.yml"), []byte(manifestContents), 0o644))

	parsedManifest, loadError := localManifest.Load()
	require.NoError(testInstance, loadError)
	require.Len(testInstance, parsedManifest.AllRepositories(), 1)
}
