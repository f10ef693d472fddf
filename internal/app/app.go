package app

import (
	"fmt"
	"time"

	"github.com/DIMO-Network/server-garage/pkg/fibercommon"
	"github.com/gofiber/fiber/v2"
	"github.com/line-tools/mention-relay/internal/clients/line"
	"github.com/line-tools/mention-relay/internal/config"
	"github.com/line-tools/mention-relay/internal/controllers/ingest"
	"github.com/line-tools/mention-relay/internal/controllers/mentions"
	"github.com/line-tools/mention-relay/internal/mentionstore"
	"github.com/line-tools/mention-relay/internal/services/emailsender"
	"github.com/line-tools/mention-relay/internal/services/notifier"
	"github.com/line-tools/mention-relay/internal/services/webhooksender"
	"github.com/line-tools/mention-relay/internal/signature"
	"github.com/rs/zerolog"
)

const (
	profileCacheTTL     = 5 * time.Minute
	profileCacheCleanup = 10 * time.Minute
)

// CreateServer builds the whole service: store, verifier, LINE client,
// notification sinks and the Fiber app with all routes registered. The
// returned Notifier is also handed back so the caller can drain
// in-flight notifications on shutdown.
func CreateServer(settings *config.Settings, logger zerolog.Logger) (*fiber.App, *notifier.Notifier, error) {
	verifier := signature.NewVerifier(settings.LineChannelSecret)
	if !verifier.Enforcing() {
		logger.Warn().Msg("LINE_CHANNEL_SECRET is not set; webhook signature verification is DISABLED")
	}

	baseURL := settings.LineAPIBaseURL
	if baseURL == "" {
		baseURL = config.DefaultLineAPIBaseURL
	}
	lineClient, err := line.New(baseURL, settings.LineAccessToken, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create line client: %w", err)
	}

	var resolver ingest.NameResolver
	if lineClient.HasCredentials() {
		resolver = line.NewProfileCache(profileCacheTTL, profileCacheCleanup, lineClient)
	} else {
		logger.Info().Msg("LINE_ACCESS_TOKEN is not set; display names will not be resolved")
	}

	store := mentionstore.New(&logger)
	notif := notifier.New(logger, buildSinks(settings, logger, lineClient)...)

	app := CreateFiberApp(logger, verifier, store, resolver, notif, lineClient)
	return app, notif, nil
}

// CreateFiberApp sets up the API routes.
func CreateFiberApp(
	logger zerolog.Logger,
	verifier *signature.Verifier,
	store *mentionstore.Store,
	resolver ingest.NameResolver,
	notif *notifier.Notifier,
	lineClient *line.Client,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return fibercommon.ErrorHandler(c, err)
		},
		DisableStartupMessage: true,
	})
	app.Use(fibercommon.ContextLoggerMiddleware)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Welcome to the Mention Relay!")
	})

	ingestController := ingest.NewController(logger, verifier, store, resolver, notif)
	queryController := mentions.NewController(logger, store, lineClient)

	logger.Info().Msg("Registering routes...")

	// Webhook ingestion
	app.Post("/webhook", ingestController.HandleWebhook)
	app.Get("/webhook", ingestController.HandleLiveness)

	// Mention queries and aggregates
	app.Get("/api/mentions", queryController.ListMentions)
	app.Get("/api/groups", queryController.ListGroups)
	app.Get("/api/groups/:groupId/stats", queryController.GroupStats)

	// Platform diagnostics
	app.Post("/api/line/test-connection", queryController.TestConnection)
	app.Get("/api/line/group/:groupId", queryController.GroupInfo)
	app.Get("/api/line/group/:groupId/members", queryController.GroupMembers)

	app.Get("/health", queryController.Health)

	return app
}

// buildSinks assembles the notification sinks enabled by configuration.
func buildSinks(settings *config.Settings, logger zerolog.Logger, lineClient *line.Client) []notifier.Sink {
	var sinks []notifier.Sink

	if settings.EnableEmailNotification {
		sender := emailsender.NewSender(emailsender.Config{
			Host:     settings.SMTPHost,
			Port:     settings.SMTPPort,
			User:     settings.SMTPUser,
			Password: settings.SMTPPass,
			From:     settings.SMTPUser,
			To:       settings.NotificationEmail,
		})
		sinks = append(sinks, notifier.NewEmailSink(sender))
		logger.Info().Str("to", settings.NotificationEmail).Msg("Email notifications enabled")
	}

	if settings.WebhookURL != "" {
		sinks = append(sinks, notifier.NewWebhookSink(webhooksender.NewWebhookSender(nil), settings.WebhookURL))
		logger.Info().Str("url", settings.WebhookURL).Msg("Webhook notifications enabled")
	}

	if settings.EnableGroupReply {
		if lineClient.HasCredentials() {
			sinks = append(sinks, notifier.NewGroupReplySink(lineClient))
			logger.Info().Msg("Group reply notifications enabled")
		} else {
			logger.Warn().Msg("ENABLE_GROUP_REPLY is set but LINE_ACCESS_TOKEN is missing; group replies disabled")
		}
	}

	return sinks
}
