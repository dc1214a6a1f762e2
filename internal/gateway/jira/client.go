// Package jira implements gateway.TicketGateway against the Jira REST API v2.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/relay-service/internal/domain"
	"github.com/spec-kit/relay-service/internal/gateway"
	apperrors "github.com/spec-kit/relay-service/pkg/util/errorutil"
)

const gatewayName = "jira"

// Client talks to a Jira Cloud site with basic auth (email + API token).
type Client struct {
	baseURL  string
	email    string
	apiToken string
	http     *http.Client
}

// NewClient builds a client. httpClient may be nil.
func NewClient(baseURL, email, apiToken string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		email:    email,
		apiToken: apiToken,
		http:     httpClient,
	}
}

var _ gateway.TicketGateway = (*Client)(nil)

type issueFields struct {
	Summary string `json:"summary"`
	Status  *struct {
		Name string `json:"name"`
	} `json:"status,omitempty"`
	Assignee *userResponse `json:"assignee,omitempty"`
}

type issueResponse struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields issueFields `json:"fields"`
}

type userResponse struct {
	AccountID    string `json:"accountId"`
	EmailAddress string `json:"emailAddress"`
	DisplayName  string `json:"displayName"`
}

// CreateIssue POST /rest/api/2/issue.
func (c *Client) CreateIssue(ctx context.Context, input domain.IssueInput) (*domain.Issue, error) {
	payload := map[string]any{
		"fields": map[string]any{
			"project":     map[string]string{"key": input.ProjectKey},
			"summary":     input.Summary,
			"description": input.Description,
			"issuetype":   map[string]string{"name": string(input.IssueType)},
		},
	}
	var created struct {
		ID  string `json:"id"`
		Key string `json:"key"`
	}
	if err := c.do(ctx, http.MethodPost, "/rest/api/2/issue", nil, payload, &created); err != nil {
		return nil, apperrors.NewGatewayError(gatewayName, "create issue", err)
	}
	key, ok := domain.ParseTicketKey(created.Key)
	if !ok {
		return nil, apperrors.NewGatewayError(gatewayName, "create issue", fmt.Errorf("unexpected issue key %q", created.Key))
	}
	return &domain.Issue{Key: key, Summary: input.Summary, URL: c.BrowseURL(key)}, nil
}

// GetIssue GET /rest/api/2/issue/{key}.
func (c *Client) GetIssue(ctx context.Context, key domain.TicketKey) (*domain.Issue, error) {
	query := url.Values{"fields": {"summary,status,assignee"}}
	var resp issueResponse
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/issue/"+url.PathEscape(key.String()), query, nil, &resp); err != nil {
		return nil, apperrors.NewGatewayError(gatewayName, "get issue", err)
	}
	return c.toIssue(resp), nil
}

// TransitionIssue looks up the transition whose target status matches and applies it.
func (c *Client) TransitionIssue(ctx context.Context, key domain.TicketKey, status string) error {
	path := "/rest/api/2/issue/" + url.PathEscape(key.String()) + "/transitions"
	var available struct {
		Transitions []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			To   struct {
				Name string `json:"name"`
			} `json:"to"`
		} `json:"transitions"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &available); err != nil {
		return apperrors.NewGatewayError(gatewayName, "list transitions", err)
	}

	transitionID := ""
	for _, tr := range available.Transitions {
		if strings.EqualFold(tr.To.Name, status) || strings.EqualFold(tr.Name, status) {
			transitionID = tr.ID
			break
		}
	}
	if transitionID == "" {
		return apperrors.NewGatewayError(gatewayName, "transition", fmt.Errorf("no transition to %q for %s", status, key))
	}

	payload := map[string]any{"transition": map[string]string{"id": transitionID}}
	if err := c.do(ctx, http.MethodPost, path, nil, payload, nil); err != nil {
		return apperrors.NewGatewayError(gatewayName, "transition", err)
	}
	return nil
}

// AddComment POST /rest/api/2/issue/{key}/comment.
func (c *Client) AddComment(ctx context.Context, key domain.TicketKey, body string) error {
	path := "/rest/api/2/issue/" + url.PathEscape(key.String()) + "/comment"
	if err := c.do(ctx, http.MethodPost, path, nil, map[string]string{"body": body}, nil); err != nil {
		return apperrors.NewGatewayError(gatewayName, "add comment", err)
	}
	return nil
}

// GetUser GET /rest/api/2/user?accountId=.
func (c *Client) GetUser(ctx context.Context, accountID string) (*domain.TrackerUser, error) {
	var resp userResponse
	err := c.do(ctx, http.MethodGet, "/rest/api/2/user", url.Values{"accountId": {accountID}}, nil, &resp)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			return nil, nil
		}
		return nil, apperrors.NewGatewayError(gatewayName, "get user", err)
	}
	return &domain.TrackerUser{AccountID: resp.AccountID, Email: resp.EmailAddress, DisplayName: resp.DisplayName}, nil
}

// SearchIssues runs a text JQL search ordered by most recent update.
func (c *Client) SearchIssues(ctx context.Context, query string) ([]domain.Issue, error) {
	params := url.Values{
		"jql":        {SearchJQL(query)},
		"maxResults": {strconv.Itoa(gateway.SearchLimit)},
		"fields":     {"summary,status,assignee"},
	}
	var resp struct {
		Issues []issueResponse `json:"issues"`
	}
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/search", params, nil, &resp); err != nil {
		return nil, apperrors.NewGatewayError(gatewayName, "search", err)
	}
	issues := make([]domain.Issue, 0, len(resp.Issues))
	for _, raw := range resp.Issues {
		if len(issues) == gateway.SearchLimit {
			break
		}
		issues = append(issues, *c.toIssue(raw))
	}
	return issues, nil
}

// SearchJQL builds a free-text query ordered by recency.
func SearchJQL(query string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(strings.TrimSpace(query))
	return fmt.Sprintf(`text ~ "%s" ORDER BY updated DESC`, escaped)
}

// BrowseURL links to the issue in the web UI.
func (c *Client) BrowseURL(key domain.TicketKey) string {
	return c.baseURL + "/browse/" + key.String()
}

func (c *Client) toIssue(resp issueResponse) *domain.Issue {
	issue := &domain.Issue{
		Key:     domain.TicketKey(resp.Key),
		Summary: resp.Fields.Summary,
		URL:     c.BrowseURL(domain.TicketKey(resp.Key)),
	}
	if resp.Fields.Status != nil {
		issue.Status = resp.Fields.Status.Name
	}
	if a := resp.Fields.Assignee; a != nil {
		issue.Assignee = &domain.TrackerUser{AccountID: a.AccountID, Email: a.EmailAddress, DisplayName: a.DisplayName}
	}
	return issue
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.email, c.apiToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return apperrors.NewNotFound("jira resource", map[string]any{"path": path})
	}
	if res.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %s", method, path, readErrorMessages(res))
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func readErrorMessages(res *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	var envelope struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	if json.Unmarshal(raw, &envelope) == nil {
		parts := append([]string{}, envelope.ErrorMessages...)
		for field, msg := range envelope.Errors {
			parts = append(parts, field+": "+msg)
		}
		if len(parts) > 0 {
			return fmt.Sprintf("status %d: %s", res.StatusCode, strings.Join(parts, "; "))
		}
	}
	return fmt.Sprintf("status %d", res.StatusCode)
}
