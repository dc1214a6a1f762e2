// Package slack implements gateway.NotificationGateway against the Slack Web API.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spec-kit/relay-service/internal/gateway"
	apperrors "github.com/spec-kit/relay-service/pkg/util/errorutil"
)

const gatewayName = "slack"

// Client posts messages with a bot token.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient builds a client. httpClient may be nil.
func NewClient(token, baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = "https://slack.com/api"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{token: token, baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

var _ gateway.NotificationGateway = (*Client)(nil)

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	User  struct {
		ID string `json:"id"`
	} `json:"user"`
}

// PostMessage calls chat.postMessage.
func (c *Client) PostMessage(ctx context.Context, channel, text string) error {
	if channel == "" {
		return apperrors.NewGatewayError(gatewayName, "post message", fmt.Errorf("missing channel"))
	}
	if _, err := c.post(ctx, "chat.postMessage", map[string]string{"channel": channel, "text": text}); err != nil {
		return apperrors.NewGatewayError(gatewayName, "post message", err)
	}
	return nil
}

// SendDirectMessage resolves email with users.lookupByEmail and posts to the user id.
func (c *Client) SendDirectMessage(ctx context.Context, email, text string) (bool, error) {
	userID, err := c.lookupByEmail(ctx, email)
	if err != nil {
		return false, apperrors.NewGatewayError(gatewayName, "lookup user", err)
	}
	if userID == "" {
		return false, nil
	}
	if err := c.PostMessage(ctx, userID, text); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) lookupByEmail(ctx context.Context, email string) (string, error) {
	if strings.TrimSpace(email) == "" {
		return "", nil
	}
	endpoint := c.baseURL + "/users.lookupByEmail?" + url.Values{"email": {email}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.send(req)
	if err != nil {
		return "", err
	}
	if !resp.OK {
		if resp.Error == "users_not_found" {
			return "", nil
		}
		return "", apiError(resp)
	}
	return resp.User.ID, nil
}

func (c *Client) post(ctx context.Context, method string, payload any) (*apiResponse, error) {
	if c.token == "" {
		return nil, fmt.Errorf("missing slack token")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, apiError(resp)
	}
	return resp, nil
}

func (c *Client) send(req *http.Request) (*apiResponse, error) {
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("slack returned %d", res.StatusCode)
	}
	var resp apiResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode slack response: %w", err)
	}
	return &resp, nil
}

func apiError(resp *apiResponse) error {
	if resp.Error == "" {
		return fmt.Errorf("slack api error")
	}
	return fmt.Errorf("%s", resp.Error)
}
