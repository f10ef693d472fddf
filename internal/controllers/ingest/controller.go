//go:generate go tool mockgen -source=controller.go -destination=controller_mock_test.go -package=ingest

// Package ingest is the webhook ingestion entry point: it verifies
// inbound payloads, detects mentions in text messages, records them and
// hands them to the notifier.
package ingest

import (
	"context"
	"fmt"

	"github.com/DIMO-Network/server-garage/pkg/richerrors"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/line-tools/mention-relay/internal/mention"
	"github.com/line-tools/mention-relay/internal/mentionstore"
	"github.com/line-tools/mention-relay/internal/signature"
	"github.com/rs/zerolog"
)

// SignatureHeader is the platform's signature header on webhook calls.
const SignatureHeader = "X-Line-Signature"

// UnknownName is substituted when display-name resolution fails.
const UnknownName = "unknown"

// NameResolver resolves sender and group display names, best-effort.
type NameResolver interface {
	MemberDisplayName(ctx context.Context, groupID, userID string) (string, error)
	GroupDisplayName(ctx context.Context, groupID string) (string, error)
}

// Dispatcher schedules best-effort notification delivery for a record.
type Dispatcher interface {
	Dispatch(rec mentionstore.Record)
}

// Controller handles the /webhook routes.
type Controller struct {
	logger   zerolog.Logger
	verifier *signature.Verifier
	store    *mentionstore.Store
	resolver NameResolver
	notifier Dispatcher
}

// NewController creates the ingestion controller. resolver may be nil
// when no platform credentials are configured; every name then falls
// back to UnknownName.
func NewController(
	logger zerolog.Logger,
	verifier *signature.Verifier,
	store *mentionstore.Store,
	resolver NameResolver,
	notifier Dispatcher,
) *Controller {
	return &Controller{
		logger:   logger,
		verifier: verifier,
		store:    store,
		resolver: resolver,
		notifier: notifier,
	}
}

// HandleWebhook processes one inbound webhook batch. Once the signature
// checks out the platform always gets a success acknowledgment, whatever
// happens to the individual events; anything else would make it retry
// deliveries whose failures are ours to deal with.
func (ct *Controller) HandleWebhook(c *fiber.Ctx) error {
	body := c.Body()

	if !ct.verifier.Verify(body, c.Get(SignatureHeader)) {
		ct.logger.Warn().Msg("Webhook signature verification failed")
		return richerrors.Error{
			ExternalMsg: "Signature verification failed",
			Err:         fmt.Errorf("signature mismatch on webhook payload"),
			Code:        fiber.StatusBadRequest,
		}
	}

	var payload WebhookRequest
	if err := c.BodyParser(&payload); err != nil {
		return richerrors.Error{
			ExternalMsg: "Invalid request payload",
			Err:         err,
			Code:        fiber.StatusBadRequest,
		}
	}

	ct.logger.Info().Int("events", len(payload.Events)).Msg("Received webhook batch")

	for i := range payload.Events {
		ct.processEventIsolated(c.Context(), &payload.Events[i])
	}

	return c.JSON(fiber.Map{"success": true})
}

// HandleLiveness answers the platform's GET probe on the webhook URL.
func (ct *Controller) HandleLiveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"message": "webhook endpoint is live",
	})
}

// processEventIsolated is the per-event error boundary: a failure or
// panic in one event must not abort the rest of the batch.
func (ct *Controller) processEventIsolated(ctx context.Context, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			ct.logger.Error().
				Interface("panic", r).
				Str("event_type", event.Type).
				Msg("Panic while processing webhook event")
		}
	}()

	if err := ct.processEvent(ctx, event); err != nil {
		ct.logger.Error().Err(err).Msg("Failed to process webhook event")
	}
}

func (ct *Controller) processEvent(ctx context.Context, event *Event) error {
	if event.Type != "message" || event.Message == nil || event.Message.Type != "text" {
		ct.logger.Debug().Str("event_type", event.Type).Msg("Ignoring non-text event")
		return nil
	}

	text := event.Message.Text
	mentions := mention.Extract(text)
	if len(mentions) == 0 {
		return nil
	}

	userName, groupName := ct.resolveNames(ctx, event.Source.GroupID, event.Source.UserID)

	rec := mentionstore.Record{
		ID:        uuid.New().String(),
		GroupID:   event.Source.GroupID,
		GroupName: groupName,
		UserID:    event.Source.UserID,
		UserName:  userName,
		Message:   text,
		Mentions:  mentions,
		Timestamp: event.Timestamp,
		MessageID: event.Message.ID,
	}

	ct.store.Append(rec)
	ct.notifier.Dispatch(rec)

	ct.logger.Info().
		Str("group_id", rec.GroupID).
		Str("user_id", rec.UserID).
		Strs("mentions", mentions).
		Msg("Mention detected")
	return nil
}

// resolveNames looks up display names, degrading to UnknownName on any
// lookup failure. A missing resolver means no credentials are
// configured; that is the same degradation, just decided up front.
func (ct *Controller) resolveNames(ctx context.Context, groupID, userID string) (userName, groupName string) {
	userName, groupName = UnknownName, UnknownName
	if ct.resolver == nil {
		return userName, groupName
	}

	if name, err := ct.resolver.MemberDisplayName(ctx, groupID, userID); err != nil {
		ct.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to resolve user display name")
	} else if name != "" {
		userName = name
	}

	if name, err := ct.resolver.GroupDisplayName(ctx, groupID); err != nil {
		ct.logger.Warn().Err(err).Str("group_id", groupID).Msg("Failed to resolve group display name")
	} else if name != "" {
		groupName = name
	}
	return userName, groupName
}
