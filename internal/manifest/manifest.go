package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultBranchConstant is the branch assumed for repositories that declare none.
	DefaultBranchConstant = "master"
	// DefaultGroupNameConstant is the group selected when no groups are requested.
	DefaultGroupNameConstant = "default"

	documentLocationConstant           = "manifest"
	reposFieldConstant                 = "repos"
	repositoryLocationTemplateConstant = "repos[%d]"
	copyLocationTemplateConstant       = "repos[%d].copy[%d]"
	groupLocationTemplateConstant      = "groups.%s"
	gitLabLocationConstant             = "gitlab"
	requiredFieldTemplateConstant      = "%s is required"
	duplicateSourceTemplateConstant    = "duplicate src %s"
	invalidDocumentMessageConstant     = "invalid manifest document"
	readManifestErrorTemplateConstant  = "read manifest %s: %w"
	parseManifestErrorTemplateConstant = "parse manifest %s: %w"
	srcFieldConstant                   = "src"
	urlFieldConstant                   = "url"
)

// CopyDirective copies Source to Destination, both relative to the workspace root.
type CopyDirective struct {
	Source      string
	Destination string
}

// Repository describes one repository of the workspace.
type Repository struct {
	Source   string
	URL      string
	Branch   string
	Tag      string
	Revision string
	Copies   []CopyDirective
}

// GitLabConfiguration carries the GitLab server settings declared by the manifest.
type GitLabConfiguration struct {
	URL string
}

// Manifest is the parsed, validated manifest document.
type Manifest struct {
	repositories []Repository
	groupList    *GroupList
	gitLab       *GitLabConfiguration
}

type manifestDocument struct {
	Repos  []repositoryDocument     `yaml:"repos"`
	Groups map[string]groupDocument `yaml:"groups"`
	GitLab *gitLabDocument          `yaml:"gitlab"`
}

type repositoryDocument struct {
	Source string         `yaml:"src"`
	URL    string         `yaml:"url"`
	Branch string         `yaml:"branch"`
	Tag    string         `yaml:"tag"`
	SHA1   string         `yaml:"sha1"`
	Copy   []copyDocument `yaml:"copy"`
}

type copyDocument struct {
	Source      string `yaml:"src"`
	Destination string `yaml:"dest"`
}

type groupDocument struct {
	Repos    []string `yaml:"repos"`
	Includes []string `yaml:"includes"`
}

type gitLabDocument struct {
	URL string `yaml:"url"`
}

// Load reads and parses the manifest file at manifestPath.
func Load(manifestPath string) (*Manifest, error) {
	contents, readError := os.ReadFile(manifestPath)
	if readError != nil {
		return nil, fmt.Errorf(readManifestErrorTemplateConstant, manifestPath, readError)
	}
	parsedManifest, parseError := Parse(contents)
	if parseError != nil {
		return nil, fmt.Errorf(parseManifestErrorTemplateConstant, manifestPath, parseError)
	}
	return parsedManifest, nil
}

// Parse decodes a manifest document. Unknown keys and missing required fields yield ValidationError.
func Parse(contents []byte) (*Manifest, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(contents))
	decoder.KnownFields(true)

	var document manifestDocument
	if decodeError := decoder.Decode(&document); decodeError != nil && !errors.Is(decodeError, io.EOF) {
		return nil, ValidationError{Location: documentLocationConstant, Message: invalidDocumentMessageConstant, Cause: decodeError}
	}
	if document.Repos == nil {
		return nil, ValidationError{Location: documentLocationConstant, Message: fmt.Sprintf(requiredFieldTemplateConstant, reposFieldConstant)}
	}

	repositories := make([]Repository, 0, len(document.Repos))
	sources := make([]string, 0, len(document.Repos))
	seenSources := make(map[string]struct{}, len(document.Repos))
	for repositoryIndex, repositoryEntry := range document.Repos {
		repository, repositoryError := buildRepository(repositoryIndex, repositoryEntry)
		if repositoryError != nil {
			return nil, repositoryError
		}
		if _, duplicate := seenSources[repository.Source]; duplicate {
			return nil, ValidationError{
				Location: fmt.Sprintf(repositoryLocationTemplateConstant, repositoryIndex),
				Message:  fmt.Sprintf(duplicateSourceTemplateConstant, repository.Source),
			}
		}
		seenSources[repository.Source] = struct{}{}
		repositories = append(repositories, repository)
		sources = append(sources, repository.Source)
	}

	groupList := NewGroupList(sources)
	groupNames := make([]string, 0, len(document.Groups))
	for groupName := range document.Groups {
		groupNames = append(groupNames, groupName)
	}
	sort.Strings(groupNames)
	for _, groupName := range groupNames {
		groupEntry := document.Groups[groupName]
		if groupEntry.Repos == nil {
			return nil, ValidationError{
				Location: fmt.Sprintf(groupLocationTemplateConstant, groupName),
				Message:  fmt.Sprintf(requiredFieldTemplateConstant, reposFieldConstant),
			}
		}
		if addError := groupList.Add(groupName, groupEntry.Repos, groupEntry.Includes); addError != nil {
			return nil, addError
		}
	}

	parsedManifest := &Manifest{repositories: repositories, groupList: groupList}
	if document.GitLab != nil {
		if len(strings.TrimSpace(document.GitLab.URL)) == 0 {
			return nil, ValidationError{Location: gitLabLocationConstant, Message: fmt.Sprintf(requiredFieldTemplateConstant, urlFieldConstant)}
		}
		parsedManifest.gitLab = &GitLabConfiguration{URL: document.GitLab.URL}
	}
	return parsedManifest, nil
}

func buildRepository(repositoryIndex int, entry repositoryDocument) (Repository, error) {
	location := fmt.Sprintf(repositoryLocationTemplateConstant, repositoryIndex)
	if len(strings.TrimSpace(entry.Source)) == 0 {
		return Repository{}, ValidationError{Location: location, Message: fmt.Sprintf(requiredFieldTemplateConstant, srcFieldConstant)}
	}
	if len(strings.TrimSpace(entry.URL)) == 0 {
		return Repository{}, ValidationError{Location: location, Message: fmt.Sprintf(requiredFieldTemplateConstant, urlFieldConstant)}
	}

	branch := entry.Branch
	if len(branch) == 0 {
		branch = DefaultBranchConstant
	}

	copies := make([]CopyDirective, 0, len(entry.Copy))
	for copyIndex, copyEntry := range entry.Copy {
		if len(strings.TrimSpace(copyEntry.Source)) == 0 {
			return Repository{}, ValidationError{
				Location: fmt.Sprintf(copyLocationTemplateConstant, repositoryIndex, copyIndex),
				Message:  fmt.Sprintf(requiredFieldTemplateConstant, srcFieldConstant),
			}
		}
		destination := copyEntry.Destination
		if len(destination) == 0 {
			destination = copyEntry.Source
		}
		copies = append(copies, CopyDirective{
			Source:      path.Join(entry.Source, copyEntry.Source),
			Destination: destination,
		})
	}

	return Repository{
		Source:   entry.Source,
		URL:      entry.URL,
		Branch:   branch,
		Tag:      entry.Tag,
		Revision: entry.SHA1,
		Copies:   copies,
	}, nil
}

// AllRepositories returns every repository in manifest order.
func (parsedManifest *Manifest) AllRepositories() []Repository {
	return append([]Repository(nil), parsedManifest.repositories...)
}

// SelectRepositories returns the repositories selected by groupNames in manifest order.
// Without group names the default group is used when declared; otherwise the repositories
// that belong to no group are selected, which is every repository when no groups exist.
func (parsedManifest *Manifest) SelectRepositories(groupNames []string) ([]Repository, error) {
	var selectedSources []string
	if len(groupNames) == 0 {
		if _, hasDefault := parsedManifest.groupList.Group(DefaultGroupNameConstant); hasDefault {
			groupNames = []string{DefaultGroupNameConstant}
		} else {
			selectedSources = parsedManifest.groupList.UngroupedElements()
		}
	}

	if len(groupNames) > 0 {
		groupSources, selectionError := parsedManifest.groupList.Elements(groupNames)
		if selectionError != nil {
			return nil, selectionError
		}
		selectedSources = groupSources
	}

	selectedRepositories := make([]Repository, 0, len(selectedSources))
	for _, source := range selectedSources {
		repository, lookupError := parsedManifest.Repository(source)
		if lookupError != nil {
			return nil, lookupError
		}
		selectedRepositories = append(selectedRepositories, repository)
	}
	return selectedRepositories, nil
}

// Groups exposes the group list of the manifest.
func (parsedManifest *Manifest) Groups() *GroupList {
	return parsedManifest.groupList
}

// Repository returns the repository declared at source.
func (parsedManifest *Manifest) Repository(source string) (Repository, error) {
	for _, repository := range parsedManifest.repositories {
		if repository.Source == source {
			return repository, nil
		}
	}
	return Repository{}, RepositoryNotFoundError{Source: source}
}

// URLFor returns the remote URL of the repository declared at source.
func (parsedManifest *Manifest) URLFor(source string) (string, error) {
	repository, lookupError := parsedManifest.Repository(source)
	if lookupError != nil {
		return "", lookupError
	}
	return repository.URL, nil
}

// GitLabURL returns the GitLab server URL, or ErrNoGitLabConfiguration.
func (parsedManifest *Manifest) GitLabURL() (string, error) {
	if parsedManifest.gitLab == nil {
		return "", ErrNoGitLabConfiguration
	}
	return parsedManifest.gitLab.URL, nil
}

// CopyDirectives returns the copy directives declared by repositories, in their order.
func CopyDirectives(repositories []Repository) []CopyDirective {
	var directives []CopyDirective
	for _, repository := range repositories {
		directives = append(directives, repository.Copies...)
	}
	return directives
}
