package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/temirov/manifold/internal/manifest"
	"github.com/temirov/manifold/internal/repos/shared"
)

const (
	// HiddenDirectoryNameConstant names the directory holding workspace state under the root.
	HiddenDirectoryNameConstant = ".manifold"
	// ManifestCloneDirectoryNameConstant names the local clone of the manifest repository.
	ManifestCloneDirectoryNameConstant = "manifest"
	// ConfigurationFileNameConstant names the persisted workspace configuration.
	ConfigurationFileNameConstant = "manifest.yml"
	// ManifestFileNameConstant names the manifest document inside the manifest clone.
	ManifestFileNameConstant = "manifest.yml"

	hiddenDirectoryPermissionsConstant = fs.FileMode(0o755)
	configurationPermissionsConstant   = fs.FileMode(0o644)
	mapstructureTagNameConstant        = "mapstructure"
)

// Configuration is the persisted state of a workspace, written by init and read on every later run.
type Configuration struct {
	ManifestURL    string   `mapstructure:"url" yaml:"url"`
	ManifestBranch string   `mapstructure:"branch" yaml:"branch"`
	Tag            string   `mapstructure:"tag" yaml:"tag,omitempty"`
	Groups         []string `mapstructure:"groups" yaml:"groups,omitempty"`
	Shallow        bool     `mapstructure:"shallow" yaml:"shallow"`
}

// ConfigurationPath returns the location of the persisted configuration under workspaceRoot.
func ConfigurationPath(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, HiddenDirectoryNameConstant, ConfigurationFileNameConstant)
}

// LoadConfiguration reads and strictly decodes the persisted configuration.
// Unknown keys, wrong value types and a missing url are ConfigurationError values.
func LoadConfiguration(fileSystem shared.FileSystem, workspaceRoot string) (Configuration, error) {
	configurationPath := ConfigurationPath(workspaceRoot)
	contents, readError := fileSystem.ReadFile(configurationPath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return Configuration{}, ConfigurationError{Message: fmt.Sprintf(workspaceNotConfiguredTemplateConstant, configurationPath)}
		}
		return Configuration{}, ConfigurationError{Message: fmt.Sprintf(invalidConfigurationTemplateConstant, configurationPath), Cause: readError}
	}

	rawValues := map[string]any{}
	if unmarshalError := yaml.Unmarshal(contents, &rawValues); unmarshalError != nil {
		return Configuration{}, ConfigurationError{Message: fmt.Sprintf(invalidConfigurationTemplateConstant, configurationPath), Cause: unmarshalError}
	}

	configuration := Configuration{ManifestBranch: manifest.DefaultBranchConstant}
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &configuration,
		TagName:     mapstructureTagNameConstant,
	})
	if decoderError != nil {
		return Configuration{}, decoderError
	}
	if decodeError := decoder.Decode(rawValues); decodeError != nil {
		return Configuration{}, ConfigurationError{Message: fmt.Sprintf(invalidConfigurationTemplateConstant, configurationPath), Cause: decodeError}
	}

	if len(strings.TrimSpace(configuration.ManifestURL)) == 0 {
		return Configuration{}, ConfigurationError{Message: fmt.Sprintf(invalidConfigurationTemplateConstant, configurationPath), Cause: errors.New(manifestURLRequiredMessageConstant)}
	}
	return configuration, nil
}

// SaveConfiguration writes configuration to the workspace, replacing any previous state.
func SaveConfiguration(fileSystem shared.FileSystem, workspaceRoot string, configuration Configuration) error {
	if len(configuration.ManifestBranch) == 0 {
		configuration.ManifestBranch = manifest.DefaultBranchConstant
	}
	contents, marshalError := yaml.Marshal(configuration)
	if marshalError != nil {
		return marshalError
	}

	configurationPath := ConfigurationPath(workspaceRoot)
	if mkdirError := fileSystem.MkdirAll(filepath.Dir(configurationPath), hiddenDirectoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(configurationWriteFailedTemplateConstant, configurationPath, mkdirError)
	}
	if writeError := fileSystem.WriteFile(configurationPath, contents, configurationPermissionsConstant); writeError != nil {
		return fmt.Errorf(configurationWriteFailedTemplateConstant, configurationPath, writeError)
	}
	return nil
}
