package manifest

import (
	"errors"
	"fmt"
)

const (
	groupNotFoundTemplateConstant             = "no such group: %s"
	groupInvalidIncludeTemplateConstant       = "invalid include detected for %s: no such group: %s"
	unknownElementTemplateConstant            = "%s: unknown element: %s"
	repositoryNotFoundTemplateConstant        = "no repository found in '%s'"
	validationErrorTemplateConstant           = "%s: %s"
	missingGitLabConfigurationMessageConstant = "no gitlab configuration found in manifest"
)

// ErrNoGitLabConfiguration indicates the manifest declares no gitlab section.
var ErrNoGitLabConfiguration = errors.New(missingGitLabConfigurationMessageConstant)

// GroupNotFoundError reports a group name that the manifest does not declare.
// ParentGroup is set when the missing group was reached through an include.
type GroupNotFoundError struct {
	GroupName   string
	ParentGroup string
}

// Error describes the missing group.
func (groupError GroupNotFoundError) Error() string {
	if len(groupError.ParentGroup) > 0 {
		return fmt.Sprintf(groupInvalidIncludeTemplateConstant, groupError.ParentGroup, groupError.GroupName)
	}
	return fmt.Sprintf(groupNotFoundTemplateConstant, groupError.GroupName)
}

// UnknownElementError reports a group that lists a repository absent from the manifest.
type UnknownElementError struct {
	GroupName string
	Element   string
}

// Error describes the unknown element.
func (elementError UnknownElementError) Error() string {
	return fmt.Sprintf(unknownElementTemplateConstant, elementError.GroupName, elementError.Element)
}

// RepositoryNotFoundError reports a lookup of a src the manifest does not declare.
type RepositoryNotFoundError struct {
	Source string
}

// Error describes the missing repository.
func (notFoundError RepositoryNotFoundError) Error() string {
	return fmt.Sprintf(repositoryNotFoundTemplateConstant, notFoundError.Source)
}

// ValidationError reports a manifest document that does not match the expected schema.
type ValidationError struct {
	Location string
	Message  string
	Cause    error
}

// Error describes the validation failure.
func (validationError ValidationError) Error() string {
	return fmt.Sprintf(validationErrorTemplateConstant, validationError.Location, validationError.Message)
}

// Unwrap exposes the underlying decoding error, if any.
func (validationError ValidationError) Unwrap() error {
	return validationError.Cause
}
