// Package notifier fans a recorded mention out to the configured
// notification sinks. Delivery is best-effort: dispatch is decoupled from
// the webhook request that produced the record, and one sink failing
// never stops another sink from being attempted.
package notifier

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/line-tools/mention-relay/internal/mentionstore"
	"github.com/rs/zerolog"
)

// Each sink attempt gets its own deadline so a stalled sink cannot pin
// a goroutine forever or eat the budget of the sinks after it.
const defaultDispatchTimeout = 10 * time.Second

// Sink is one notification channel.
type Sink interface {
	// Name identifies the sink in logs.
	Name() string
	// Send delivers the notification for rec.
	Send(ctx context.Context, rec mentionstore.Record) error
}

// Notifier dispatches mention records to its sinks.
type Notifier struct {
	logger  zerolog.Logger
	sinks   []Sink
	timeout time.Duration
	wg      sync.WaitGroup
}

// New creates a Notifier over the given sinks. A Notifier with no sinks
// is valid and dispatches nothing.
func New(logger zerolog.Logger, sinks ...Sink) *Notifier {
	return &Notifier{
		logger:  logger,
		sinks:   sinks,
		timeout: defaultDispatchTimeout,
	}
}

// Dispatch schedules delivery of rec to every sink and returns
// immediately. The spawned goroutine owns its error boundary: sink
// failures are logged and swallowed, and a panicking sink is contained.
func (n *Notifier) Dispatch(rec mentionstore.Record) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.deliver(rec)
	}()
}

// Wait blocks until every in-flight dispatch has finished. Used on
// shutdown and in tests.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) deliver(rec mentionstore.Record) {
	for _, sink := range n.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		n.sendOne(ctx, sink, rec)
		cancel()
	}
}

func (n *Notifier) sendOne(ctx context.Context, sink Sink, rec mentionstore.Record) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error().
				Str("sink", sink.Name()).
				Interface("panic", r).
				Msg("Notification sink panicked")
		}
	}()

	if err := sink.Send(ctx, rec); err != nil {
		n.logger.Error().
			Err(err).
			Str("sink", sink.Name()).
			Str("group_id", rec.GroupID).
			Msg("Notification sink failed")
		return
	}
	n.logger.Info().
		Str("sink", sink.Name()).
		Str("group_id", rec.GroupID).
		Msg("Notification sent")
}

// EmailSender is the part of the email sender the notifier uses.
type EmailSender interface {
	SendMentionAlert(ctx context.Context, rec mentionstore.Record) error
}

// EmailSink delivers mention alerts by email.
type EmailSink struct {
	sender EmailSender
}

func NewEmailSink(sender EmailSender) *EmailSink {
	return &EmailSink{sender: sender}
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Send(ctx context.Context, rec mentionstore.Record) error {
	return s.sender.SendMentionAlert(ctx, rec)
}

// WebhookSender is the part of the webhook sender the notifier uses.
type WebhookSender interface {
	SendMention(ctx context.Context, targetURL string, rec mentionstore.Record) error
}

// WebhookSink POSTs mention notifications to a callback URL.
type WebhookSink struct {
	sender    WebhookSender
	targetURL string
}

func NewWebhookSink(sender WebhookSender, targetURL string) *WebhookSink {
	return &WebhookSink{sender: sender, targetURL: targetURL}
}

func (s *WebhookSink) Name() string { return "webhook" }

func (s *WebhookSink) Send(ctx context.Context, rec mentionstore.Record) error {
	return s.sender.SendMention(ctx, s.targetURL, rec)
}

// MessagePusher is the part of the chat client the reply sink uses.
type MessagePusher interface {
	PushTextMessage(ctx context.Context, to, text string) error
}

// GroupReplySink pushes a confirmation message back into the group the
// mention came from.
type GroupReplySink struct {
	pusher MessagePusher
}

func NewGroupReplySink(pusher MessagePusher) *GroupReplySink {
	return &GroupReplySink{pusher: pusher}
}

func (s *GroupReplySink) Name() string { return "group-reply" }

func (s *GroupReplySink) Send(ctx context.Context, rec mentionstore.Record) error {
	if rec.GroupID == "" {
		return fmt.Errorf("record has no group to reply to")
	}
	text := fmt.Sprintf("🔔 Mention recorded: %s mentioned %s",
		rec.UserName, strings.Join(rec.Mentions, ", "))
	return s.pusher.PushTextMessage(ctx, rec.GroupID, text)
}
