package gitlab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	apiPathConstant                    = "/api/v4"
	privateTokenHeaderConstant         = "PRIVATE-TOKEN"
	contentTypeHeaderConstant          = "Content-Type"
	jsonContentTypeConstant            = "application/json"
	nextPageHeaderConstant             = "X-Next-Page"
	pageParameterConstant              = "page"
	perPageParameterConstant           = "per_page"
	stateParameterConstant             = "state"
	queryParameterConstant             = "query"
	openedStateConstant                = "opened"
	maximumPageSizeConstant            = "100"
	firstPageConstant                  = 1
	projectPathTemplateConstant        = "/projects/%s"
	mergeRequestsPathTemplateConstant  = "/projects/%d/merge_requests"
	mergeRequestPathTemplateConstant   = "/projects/%d/merge_requests/%d"
	acceptMergeRequestTemplateConstant = "/projects/%d/merge_requests/%d/merge"
	projectMembersPathTemplateConstant = "/projects/%d/members"
	groupMembersPathTemplateConstant   = "/groups/%s/members"
	closeStateEventConstant            = "close"
	errorResponseKeyConstant           = "error"
	messageResponseKeyConstant         = "message"
	errorDetailsIndentConstant         = "  "
	requestLogMessageConstant          = "gitlab request"
	methodLogFieldConstant             = "method"
	urlLogFieldConstant                = "url"
	statusLogFieldConstant             = "status"
	defaultRequestsPerSecondConstant   = 10
	defaultBurstConstant               = 5
	serverErrorStatusThresholdConstant = 500
	clientErrorStatusThresholdConstant = 400
	trailingSlashConstant              = "/"
)

// Project carries the project fields manifold reads.
type Project struct {
	ID            int    `json:"id"`
	DefaultBranch string `json:"default_branch"`
}

// MergeRequest carries the merge request fields manifold reads.
type MergeRequest struct {
	ID              int    `json:"id"`
	IID             int    `json:"iid"`
	ProjectID       int    `json:"project_id"`
	TargetProjectID int    `json:"target_project_id"`
	Title           string `json:"title"`
	SourceBranch    string `json:"source_branch"`
	TargetBranch    string `json:"target_branch"`
	State           string `json:"state"`
	WebURL          string `json:"web_url"`
}

// User is a project or group member.
type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// MergeRequestCreateOptions describes a merge request to open.
type MergeRequestCreateOptions struct {
	SourceBranch string
	TargetBranch string
	Title        string
}

// MergeRequestUpdateOptions lists the merge request attributes to change. Zero values are omitted.
type MergeRequestUpdateOptions struct {
	Title              string `json:"title,omitempty"`
	TargetBranch       string `json:"target_branch,omitempty"`
	AssigneeID         int    `json:"assignee_id,omitempty"`
	RemoveSourceBranch bool   `json:"remove_source_branch,omitempty"`
	StateEvent         string `json:"state_event,omitempty"`
}

type createMergeRequestPayload struct {
	SourceBranch string `json:"source_branch"`
	TargetBranch string `json:"target_branch"`
	Title        string `json:"title"`
	ProjectID    int    `json:"project_id"`
}

type acceptMergeRequestPayload struct {
	MergeWhenPipelineSucceeds bool `json:"merge_when_pipeline_succeeds"`
}

// Option customizes a Client.
type Option func(*Client) error

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(client *Client) error {
		if httpClient != nil {
			client.httpClient = httpClient
		}
		return nil
	}
}

// WithLogger attaches a zap logger that records every request at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(client *Client) error {
		if logger != nil {
			client.logger = logger
		}
		return nil
	}
}

// WithRateLimit bounds the request rate.
func WithRateLimit(requestsPerSecond rate.Limit, burst int) Option {
	return func(client *Client) error {
		if burst <= 0 {
			return ErrInvalidRateLimit
		}
		client.limiter = rate.NewLimiter(requestsPerSecond, burst)
		return nil
	}
}

// Client talks to one GitLab server.
type Client struct {
	apiURL     string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient constructs a client for the server at serverURL authenticated by token.
func NewClient(serverURL string, token string, options ...Option) (*Client, error) {
	trimmedServerURL := strings.TrimSuffix(strings.TrimSpace(serverURL), trailingSlashConstant)
	if len(trimmedServerURL) == 0 {
		return nil, ErrServerURLRequired
	}
	if len(strings.TrimSpace(token)) == 0 {
		return nil, ErrTokenRequired
	}

	client := &Client{
		apiURL:     trimmedServerURL + apiPathConstant,
		token:      token,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(defaultRequestsPerSecondConstant), defaultBurstConstant),
		logger:     zap.NewNop(),
	}
	for _, option := range options {
		if optionError := option(client); optionError != nil {
			return nil, optionError
		}
	}
	return client, nil
}

// GetProjectID resolves a namespaced project name such as group/project to its numeric id.
func (client *Client) GetProjectID(executionContext context.Context, projectName string) (int, error) {
	var project Project
	requestPath := fmt.Sprintf(projectPathTemplateConstant, url.PathEscape(projectName))
	if requestError := client.doJSON(executionContext, http.MethodGet, requestPath, nil, nil, &project); requestError != nil {
		var apiError APIError
		if errors.As(requestError, &apiError) && apiError.StatusCode == http.StatusNotFound {
			return 0, APIError{URL: apiError.URL, StatusCode: apiError.StatusCode, Message: fmt.Sprintf(projectNotFoundTemplateConstant, projectName)}
		}
		return 0, requestError
	}
	return project.ID, nil
}

// GetDefaultBranch returns the default branch of the project.
func (client *Client) GetDefaultBranch(executionContext context.Context, projectID int) (string, error) {
	var project Project
	requestPath := fmt.Sprintf(projectPathTemplateConstant, strconv.Itoa(projectID))
	if requestError := client.doJSON(executionContext, http.MethodGet, requestPath, nil, nil, &project); requestError != nil {
		return "", requestError
	}
	return project.DefaultBranch, nil
}

// FindOpenMergeRequest walks every page of opened merge requests and returns the one whose source is sourceBranch.
func (client *Client) FindOpenMergeRequest(executionContext context.Context, projectID int, sourceBranch string) (MergeRequest, bool, error) {
	parameters := url.Values{}
	parameters.Set(stateParameterConstant, openedStateConstant)
	parameters.Set(perPageParameterConstant, maximumPageSizeConstant)

	requestPath := fmt.Sprintf(mergeRequestsPathTemplateConstant, projectID)
	nextPage := firstPageConstant
	for nextPage > 0 {
		parameters.Set(pageParameterConstant, strconv.Itoa(nextPage))
		var mergeRequests []MergeRequest
		response, requestError := client.request(executionContext, http.MethodGet, requestPath, parameters, nil, &mergeRequests)
		if requestError != nil {
			return MergeRequest{}, false, requestError
		}
		for _, mergeRequest := range mergeRequests {
			if mergeRequest.SourceBranch == sourceBranch {
				return mergeRequest, true, nil
			}
		}
		parsedPage, pageError := parseNextPage(response.Header.Get(nextPageHeaderConstant))
		if pageError != nil {
			return MergeRequest{}, false, pageError
		}
		nextPage = parsedPage
	}
	return MergeRequest{}, false, nil
}

// CreateMergeRequest opens a merge request in the project.
func (client *Client) CreateMergeRequest(executionContext context.Context, projectID int, options MergeRequestCreateOptions) (MergeRequest, error) {
	payload := createMergeRequestPayload{
		SourceBranch: options.SourceBranch,
		TargetBranch: options.TargetBranch,
		Title:        options.Title,
		ProjectID:    projectID,
	}
	var created MergeRequest
	requestPath := fmt.Sprintf(mergeRequestsPathTemplateConstant, projectID)
	if requestError := client.doJSON(executionContext, http.MethodPost, requestPath, nil, payload, &created); requestError != nil {
		return MergeRequest{}, requestError
	}
	return created, nil
}

// UpdateMergeRequest changes the attributes of an existing merge request.
func (client *Client) UpdateMergeRequest(executionContext context.Context, mergeRequest MergeRequest, options MergeRequestUpdateOptions) (MergeRequest, error) {
	var updated MergeRequest
	requestPath := fmt.Sprintf(mergeRequestPathTemplateConstant, mergeRequest.TargetProjectID, mergeRequest.IID)
	if requestError := client.doJSON(executionContext, http.MethodPut, requestPath, nil, options, &updated); requestError != nil {
		return MergeRequest{}, requestError
	}
	return updated, nil
}

// CloseMergeRequest closes the merge request without merging it.
func (client *Client) CloseMergeRequest(executionContext context.Context, mergeRequest MergeRequest) error {
	_, updateError := client.UpdateMergeRequest(executionContext, mergeRequest, MergeRequestUpdateOptions{StateEvent: closeStateEventConstant})
	return updateError
}

// AcceptMergeRequest asks GitLab to merge once the pipeline succeeds.
func (client *Client) AcceptMergeRequest(executionContext context.Context, mergeRequest MergeRequest) error {
	requestPath := fmt.Sprintf(acceptMergeRequestTemplateConstant, mergeRequest.ProjectID, mergeRequest.IID)
	payload := acceptMergeRequestPayload{MergeWhenPipelineSucceeds: true}
	return client.doJSON(executionContext, http.MethodPut, requestPath, nil, payload, nil)
}

// GetProjectMembers lists project members matching query.
func (client *Client) GetProjectMembers(executionContext context.Context, projectID int, query string) ([]User, error) {
	return client.members(executionContext, fmt.Sprintf(projectMembersPathTemplateConstant, projectID), query)
}

// GetGroupMembers lists group members matching query.
func (client *Client) GetGroupMembers(executionContext context.Context, groupName string, query string) ([]User, error) {
	return client.members(executionContext, fmt.Sprintf(groupMembersPathTemplateConstant, url.PathEscape(groupName)), query)
}

// FindUser searches project then group members for query. Candidates are de-duplicated by name.
// A single candidate wins; among several, the first exact name or username match wins.
func (client *Client) FindUser(executionContext context.Context, projectID int, groupName string, query string) (User, error) {
	projectMembers, projectError := client.GetProjectMembers(executionContext, projectID, query)
	if projectError != nil {
		return User{}, projectError
	}
	groupMembers, groupError := client.GetGroupMembers(executionContext, groupName, query)
	if groupError != nil {
		return User{}, groupError
	}

	seenNames := make(map[string]struct{})
	candidates := make([]User, 0, len(projectMembers)+len(groupMembers))
	for _, member := range append(projectMembers, groupMembers...) {
		if _, seen := seenNames[member.Name]; seen {
			continue
		}
		seenNames[member.Name] = struct{}{}
		candidates = append(candidates, member)
	}

	switch len(candidates) {
	case 0:
		return User{}, NoUserMatchingError{Query: query}
	case 1:
		return candidates[0], nil
	}

	candidateNames := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if strings.EqualFold(candidate.Name, query) || strings.EqualFold(candidate.Username, query) {
			return candidate, nil
		}
		candidateNames = append(candidateNames, candidate.Name)
	}
	return User{}, AmbiguousUserError{Query: query, Candidates: candidateNames}
}

func (client *Client) members(executionContext context.Context, requestPath string, query string) ([]User, error) {
	parameters := url.Values{}
	if len(query) > 0 {
		parameters.Set(queryParameterConstant, query)
	}
	var users []User
	if requestError := client.doJSON(executionContext, http.MethodGet, requestPath, parameters, nil, &users); requestError != nil {
		return nil, requestError
	}
	return users, nil
}

func (client *Client) doJSON(executionContext context.Context, method string, requestPath string, parameters url.Values, payload any, destination any) error {
	_, requestError := client.request(executionContext, method, requestPath, parameters, payload, destination)
	return requestError
}

// request performs one throttled call and decodes a successful JSON body into destination.
func (client *Client) request(executionContext context.Context, method string, requestPath string, parameters url.Values, payload any, destination any) (*http.Response, error) {
	requestURL := client.apiURL + requestPath
	if len(parameters) > 0 {
		requestURL += "?" + parameters.Encode()
	}

	var body io.Reader
	if payload != nil {
		encodedPayload, encodeError := json.Marshal(payload)
		if encodeError != nil {
			return nil, fmt.Errorf(requestEncodingFailedTemplateConstant, requestPath, encodeError)
		}
		body = bytes.NewReader(encodedPayload)
	}

	if waitError := client.limiter.Wait(executionContext); waitError != nil {
		return nil, fmt.Errorf(requestFailedTemplateConstant, method, requestURL, waitError)
	}

	httpRequest, buildError := http.NewRequestWithContext(executionContext, method, requestURL, body)
	if buildError != nil {
		return nil, fmt.Errorf(requestFailedTemplateConstant, method, requestURL, buildError)
	}
	httpRequest.Header.Set(privateTokenHeaderConstant, client.token)
	if payload != nil {
		httpRequest.Header.Set(contentTypeHeaderConstant, jsonContentTypeConstant)
	}

	httpResponse, doError := client.httpClient.Do(httpRequest)
	if doError != nil {
		return nil, fmt.Errorf(requestFailedTemplateConstant, method, requestURL, doError)
	}
	defer httpResponse.Body.Close()

	client.logger.Debug(requestLogMessageConstant,
		zap.String(methodLogFieldConstant, method),
		zap.String(urlLogFieldConstant, requestURL),
		zap.Int(statusLogFieldConstant, httpResponse.StatusCode),
	)

	responseBody, readError := io.ReadAll(httpResponse.Body)
	if readError != nil {
		return nil, fmt.Errorf(requestFailedTemplateConstant, method, requestURL, readError)
	}
	if statusError := checkStatus(requestURL, httpResponse.StatusCode, responseBody); statusError != nil {
		return nil, statusError
	}
	if destination != nil {
		if decodeError := json.Unmarshal(responseBody, destination); decodeError != nil {
			return nil, fmt.Errorf(responseDecodingFailedTemplateConstant, requestPath, decodeError)
		}
	}
	return httpResponse, nil
}

// checkStatus turns error statuses into APIError. Client errors prefer the "error" then
// "message" keys of the JSON body; server errors carry the raw body.
func checkStatus(requestURL string, statusCode int, responseBody []byte) error {
	if statusCode >= serverErrorStatusThresholdConstant {
		return APIError{URL: requestURL, StatusCode: statusCode, Message: string(responseBody)}
	}
	if statusCode < clientErrorStatusThresholdConstant {
		return nil
	}

	var details map[string]any
	if decodeError := json.Unmarshal(responseBody, &details); decodeError != nil {
		return APIError{URL: requestURL, StatusCode: statusCode, Message: fmt.Sprintf(expectingJSONTemplateConstant, string(responseBody))}
	}
	for _, key := range []string{errorResponseKeyConstant, messageResponseKeyConstant} {
		value, present := details[key]
		if !present {
			continue
		}
		if text, isText := value.(string); isText {
			return APIError{URL: requestURL, StatusCode: statusCode, Message: text}
		}
		encodedValue, _ := json.Marshal(value)
		return APIError{URL: requestURL, StatusCode: statusCode, Message: string(encodedValue)}
	}
	encodedDetails, _ := json.MarshalIndent(details, "", errorDetailsIndentConstant)
	return APIError{URL: requestURL, StatusCode: statusCode, Message: string(encodedDetails)}
}

func parseNextPage(header string) (int, error) {
	trimmedHeader := strings.TrimSpace(header)
	if len(trimmedHeader) == 0 {
		return 0, nil
	}
	page, parseError := strconv.Atoi(trimmedHeader)
	if parseError != nil {
		return 0, fmt.Errorf(invalidNextPageTemplateConstant, nextPageHeaderConstant, header)
	}
	return page, nil
}
