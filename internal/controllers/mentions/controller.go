// Package mentions exposes the read-side REST API: stored mention
// records, per-group aggregates, health, and the LINE diagnostics
// proxies.
package mentions

import (
	"context"
	"strconv"
	"time"

	"github.com/DIMO-Network/server-garage/pkg/richerrors"
	"github.com/gofiber/fiber/v2"
	"github.com/line-tools/mention-relay/internal/clients/line"
	"github.com/line-tools/mention-relay/internal/mentionstore"
	"github.com/rs/zerolog"
)

const defaultQueryLimit = 20

// How many member profiles the members endpoint resolves per request.
const memberProfileSample = 10

// PlatformClient is the part of the LINE client the diagnostics
// endpoints use.
type PlatformClient interface {
	GetBotProfile(ctx context.Context, accessToken string) (*line.BotProfile, error)
	GetGroupSummary(ctx context.Context, groupID string) (*line.GroupSummary, error)
	GetGroupMemberIDs(ctx context.Context, groupID string) ([]string, error)
	GetGroupMemberProfile(ctx context.Context, groupID, userID string) (*line.Profile, error)
}

// Controller handles the query and diagnostics routes.
type Controller struct {
	logger zerolog.Logger
	store  *mentionstore.Store
	client PlatformClient
}

// NewController creates the query controller.
func NewController(logger zerolog.Logger, store *mentionstore.Store, client PlatformClient) *Controller {
	return &Controller{
		logger: logger,
		store:  store,
		client: client,
	}
}

// ListMentions returns stored mention records, newest first, optionally
// filtered by groupId and capped by limit (default 20).
func (ct *Controller) ListMentions(c *fiber.Ctx) error {
	groupID := c.Query("groupId")

	limit := defaultQueryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return richerrors.Error{
				ExternalMsg: "limit must be a positive integer",
				Err:         err,
				Code:        fiber.StatusBadRequest,
			}
		}
		limit = parsed
	}

	return c.JSON(ct.store.Query(groupID, limit))
}

// ListGroups returns per-group mention aggregates.
func (ct *Controller) ListGroups(c *fiber.Ctx) error {
	return c.JSON(ct.store.GroupSummaries())
}

// GroupStats returns the detailed aggregate for one group.
func (ct *Controller) GroupStats(c *fiber.Ctx) error {
	groupID := c.Params("groupId")
	return c.JSON(ct.store.GroupStats(groupID))
}

// Health reports liveness and the current store size.
func (ct *Controller) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"mentions":  ct.store.Len(),
	})
}

// TestConnectionRequest is the body of POST /api/line/test-connection.
type TestConnectionRequest struct {
	AccessToken string `json:"accessToken"`
}

// TestConnection probes the platform's profile endpoint with the given
// access token and classifies any failure for the operator.
func (ct *Controller) TestConnection(c *fiber.Ctx) error {
	var payload TestConnectionRequest
	if err := c.BodyParser(&payload); err != nil {
		return richerrors.Error{
			ExternalMsg: "Invalid request payload",
			Err:         err,
			Code:        fiber.StatusBadRequest,
		}
	}
	if payload.AccessToken == "" {
		return richerrors.Error{
			ExternalMsg: "accessToken is required",
			Code:        fiber.StatusBadRequest,
		}
	}

	profile, err := ct.client.GetBotProfile(c.Context(), payload.AccessToken)
	if err != nil {
		ct.logger.Warn().Err(err).Msg("LINE connection test failed")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   line.ClassifyConnectionError(err),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"profile": profile,
	})
}

// GroupInfo proxies the group summary endpoint.
func (ct *Controller) GroupInfo(c *fiber.Ctx) error {
	groupID := c.Params("groupId")

	summary, err := ct.client.GetGroupSummary(c.Context(), groupID)
	if err != nil {
		ct.logger.Warn().Err(err).Str("group_id", groupID).Msg("Failed to fetch group summary")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Unable to fetch group info",
		})
	}
	return c.JSON(summary)
}

// GroupMembers lists the group's member IDs and resolves profiles for a
// sample of them. Individual profile failures degrade to an entry with
// only the user ID.
func (ct *Controller) GroupMembers(c *fiber.Ctx) error {
	groupID := c.Params("groupId")

	memberIDs, err := ct.client.GetGroupMemberIDs(c.Context(), groupID)
	if err != nil {
		ct.logger.Warn().Err(err).Str("group_id", groupID).Msg("Failed to fetch group member IDs")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Unable to fetch group members",
		})
	}

	sample := memberIDs
	if len(sample) > memberProfileSample {
		sample = sample[:memberProfileSample]
	}

	members := make([]line.Profile, 0, len(sample))
	for _, userID := range sample {
		profile, err := ct.client.GetGroupMemberProfile(c.Context(), groupID, userID)
		if err != nil {
			ct.logger.Debug().Err(err).Str("user_id", userID).Msg("Member profile lookup failed")
			members = append(members, line.Profile{UserID: userID, DisplayName: "unknown"})
			continue
		}
		members = append(members, *profile)
	}

	return c.JSON(fiber.Map{"members": members})
}
