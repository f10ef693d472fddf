package webhooksender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/DIMO-Network/server-garage/pkg/richerrors"
	"github.com/line-tools/mention-relay/internal/mentionstore"
)

const (
	// WebhookFailureCode is the code returned when a webhook delivery fails
	WebhookFailureCode = -1

	// Default timeout for webhook requests
	defaultWebhookTimeout = 10 * time.Second
	// Maximum response body size to read for error logging
	maxResponseBodySize = 1024
)

// NotificationPayload is the body POSTed to the configured callback URL.
type NotificationPayload struct {
	Type string              `json:"type"`
	Data mentionstore.Record `json:"data"`
}

// WebhookSender delivers mention notifications to a generic callback URL
type WebhookSender struct {
	client *http.Client
}

// NewWebhookSender creates a new WebhookSender with proper HTTP client configuration
func NewWebhookSender(client *http.Client) *WebhookSender {
	if client == nil {
		client = &http.Client{
			Timeout: defaultWebhookTimeout,
		}
	}
	return &WebhookSender{
		client: client,
	}
}

// SendMention POSTs {"type":"mention","data":<record>} to targetURL.
// Returns error for failures, nil for success.
func (w *WebhookSender) SendMention(ctx context.Context, targetURL string, rec mentionstore.Record) error {
	body, err := json.Marshal(NotificationPayload{
		Type: "mention",
		Data: rec,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewBuffer(body))
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return richerrors.Error{
				Code: WebhookFailureCode,
				Err:  fmt.Errorf("invalid URL: %w", err),
			}
		}
		return fmt.Errorf("failed to create webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "MentionRelay-Webhook/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return richerrors.Error{
			Code: WebhookFailureCode,
			Err:  fmt.Errorf("failed to POST to webhook: %w", err),
		}
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode >= 400 {
		// Read response body for error details (limited size for security)
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
		return richerrors.Error{
			Code: WebhookFailureCode,
			Err:  fmt.Errorf("webhook returned status code %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	return nil
}
