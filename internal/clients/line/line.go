// Package line is a minimal client for the LINE Messaging API, covering
// the profile, group and push-message endpoints this service needs.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Outbound platform calls are bounded so a slow upstream never wedges
// name resolution or notification delivery.
const defaultRequestTimeout = 10 * time.Second

// APIError is a non-2xx response from the Messaging API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("line api returned status %d: %s", e.StatusCode, e.Message)
}

// Client calls the LINE Messaging API.
type Client struct {
	baseURL     string
	accessToken string
	logger      zerolog.Logger
	httpClient  *http.Client
}

// New creates a new Client. accessToken may be empty; calls other than
// GetBotProfile will then fail with 401 upstream, which callers treat as
// a best-effort lookup failure.
func New(baseURL, accessToken string, logger zerolog.Logger) (*Client, error) {
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse line API URL: %w", err)
	}
	return &Client{
		baseURL:     parsedURL.String(),
		accessToken: accessToken,
		logger:      logger,
		httpClient:  &http.Client{Timeout: defaultRequestTimeout},
	}, nil
}

// HasCredentials reports whether a channel access token is configured.
func (c *Client) HasCredentials() bool {
	return c.accessToken != ""
}

// GetBotProfile fetches the bot's own profile using the given token
// rather than the configured one, so the diagnostics endpoint can probe
// arbitrary tokens.
func (c *Client) GetBotProfile(ctx context.Context, accessToken string) (*BotProfile, error) {
	var profile BotProfile
	if err := c.get(ctx, "/bot/profile", accessToken, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetGroupMemberProfile fetches the display name of one group member.
func (c *Client) GetGroupMemberProfile(ctx context.Context, groupID, userID string) (*Profile, error) {
	var profile Profile
	path := fmt.Sprintf("/bot/group/%s/member/%s", url.PathEscape(groupID), url.PathEscape(userID))
	if err := c.get(ctx, path, c.accessToken, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetGroupSummary fetches the group's display name and member count.
func (c *Client) GetGroupSummary(ctx context.Context, groupID string) (*GroupSummary, error) {
	var summary GroupSummary
	path := fmt.Sprintf("/bot/group/%s/summary", url.PathEscape(groupID))
	if err := c.get(ctx, path, c.accessToken, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// GetGroupMemberIDs fetches the user IDs of the group's members. The
// paging continuation token is not followed; callers only sample the
// first page.
func (c *Client) GetGroupMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	var resp memberIDsResponse
	path := fmt.Sprintf("/bot/group/%s/members/ids", url.PathEscape(groupID))
	if err := c.get(ctx, path, c.accessToken, &resp); err != nil {
		return nil, err
	}
	return resp.MemberIDs, nil
}

// PushTextMessage pushes a text message into the conversation identified
// by to (a group or user ID).
func (c *Client) PushTextMessage(ctx context.Context, to, text string) error {
	payload := pushMessageRequest{
		To: to,
		Messages: []textMessage{
			{Type: "text", Text: text},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bot/message/push", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to push message: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 300 {
		return newAPIError(resp)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create line API request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call line API: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return newAPIError(resp)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read line API response body: %w", err)
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to unmarshal line API response: %w", err)
	}
	return nil
}

// Maximum response body size to read for error messages.
const maxErrorBodySize = 1024

func newAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    string(body),
	}
}

// ClassifyConnectionError turns a token probe failure into the message
// shown to the operator running the connection test.
func ClassifyConnectionError(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized:
			return "Access token is invalid or expired"
		case http.StatusForbidden:
			return "Access token lacks the required permissions"
		}
		return fmt.Sprintf("LINE API returned status %d", apiErr.StatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Connection to the LINE API timed out; check network connectivity"
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "Could not resolve the LINE API host; check network connectivity"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Connection to the LINE API timed out; check network connectivity"
	}
	return "Connection failed; check the access token and network"
}
