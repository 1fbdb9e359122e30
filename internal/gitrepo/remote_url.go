package gitrepo

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	schemeSeparatorConstant         = "://"
	scpHostDelimiterConstant        = ":"
	userDelimiterConstant           = "@"
	pathSeparatorConstant           = "/"
	gitSuffixConstant               = ".git"
	remoteURLParseTemplateConstant  = "%s: %s"
	invalidRemoteURLMessageConstant = "invalid remote url"
	requiredValueMessageConstant    = "value required"
	unsupportedSchemeTemplate       = "unsupported scheme %q"
	missingProjectPathMessage       = "expected a namespace and a project name"
)

// RemoteProtocol names the transport of a git remote.
type RemoteProtocol string

// Transports understood by ParseRemoteURL.
const (
	RemoteProtocolSSH   RemoteProtocol = RemoteProtocol("ssh")
	RemoteProtocolHTTPS RemoteProtocol = RemoteProtocol("https")
	RemoteProtocolHTTP  RemoteProtocol = RemoteProtocol("http")
	RemoteProtocolGit   RemoteProtocol = RemoteProtocol("git")
)

var protocolsByScheme = map[string]RemoteProtocol{
	"ssh":     RemoteProtocolSSH,
	"git+ssh": RemoteProtocolSSH,
	"https":   RemoteProtocolHTTPS,
	"http":    RemoteProtocolHTTP,
	"git":     RemoteProtocolGit,
}

// RemoteURL is a git remote split into host and project path.
// Owner may span several path segments for hosts with nested groups.
type RemoteURL struct {
	Protocol   RemoteProtocol
	Host       string
	Owner      string
	Repository string
}

// ProjectName returns the namespace/project path that hosting APIs use to address the repository.
func (remote RemoteURL) ProjectName() string {
	return remote.Owner + pathSeparatorConstant + remote.Repository
}

// RemoteURLParseError indicates a remote string could not be parsed.
type RemoteURLParseError struct {
	Input   string
	Message string
}

// Error describes the parse failure.
func (parseError RemoteURLParseError) Error() string {
	return fmt.Sprintf(remoteURLParseTemplateConstant, parseError.Input, parseError.Message)
}

// ParseRemoteURL accepts scheme URLs (ssh, https, http, git) and scp-like user@host:path remotes.
// Credentials, ports and a trailing .git are dropped.
func ParseRemoteURL(remote string) (RemoteURL, error) {
	trimmedRemote := strings.TrimSpace(remote)
	if len(trimmedRemote) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: requiredValueMessageConstant}
	}

	if strings.Contains(trimmedRemote, schemeSeparatorConstant) {
		return parseSchemeRemote(trimmedRemote)
	}
	return parseSCPRemote(trimmedRemote)
}

func parseSchemeRemote(remote string) (RemoteURL, error) {
	parsedURL, parseError := url.Parse(remote)
	if parseError != nil {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}
	protocol, supported := protocolsByScheme[strings.ToLower(parsedURL.Scheme)]
	if !supported {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: fmt.Sprintf(unsupportedSchemeTemplate, parsedURL.Scheme)}
	}
	return splitProjectPath(remote, protocol, parsedURL.Hostname(), parsedURL.Path)
}

// parseSCPRemote handles [user@]host:namespace/project. A slash before the colon means a local path.
func parseSCPRemote(remote string) (RemoteURL, error) {
	colonIndex := strings.Index(remote, scpHostDelimiterConstant)
	if colonIndex <= 0 || strings.Contains(remote[:colonIndex], pathSeparatorConstant) {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}
	host := remote[:colonIndex]
	if userIndex := strings.LastIndex(host, userDelimiterConstant); userIndex != -1 {
		host = host[userIndex+1:]
	}
	return splitProjectPath(remote, RemoteProtocolSSH, host, remote[colonIndex+1:])
}

func splitProjectPath(input string, protocol RemoteProtocol, host string, path string) (RemoteURL, error) {
	if len(strings.TrimSpace(host)) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: input, Message: invalidRemoteURLMessageConstant}
	}
	projectPath := strings.TrimSuffix(strings.Trim(path, pathSeparatorConstant), gitSuffixConstant)
	separatorIndex := strings.LastIndex(projectPath, pathSeparatorConstant)
	if separatorIndex <= 0 || separatorIndex == len(projectPath)-1 {
		return RemoteURL{}, RemoteURLParseError{Input: input, Message: missingProjectPathMessage}
	}
	return RemoteURL{
		Protocol:   protocol,
		Host:       host,
		Owner:      projectPath[:separatorIndex],
		Repository: projectPath[separatorIndex+1:],
	}, nil
}
