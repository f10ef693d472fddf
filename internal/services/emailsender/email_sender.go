// Package emailsender delivers mention alerts over SMTP.
package emailsender

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/line-tools/mention-relay/internal/mentionstore"
)

// Config holds the SMTP relay settings.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	// From is the SMTP envelope sender (MAIL FROM).
	From string
	// To is the mailbox that receives mention alerts.
	To string
}

// Sender sends mention alert emails through a configured SMTP relay.
type Sender struct {
	config Config
	auth   smtp.Auth
	// send is swapped in tests; sendSMTP dials a real relay.
	send func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSender creates a Sender. Authentication is only used when both user
// and password are configured.
func NewSender(config Config) *Sender {
	var auth smtp.Auth
	if config.User != "" && config.Password != "" {
		auth = smtp.PlainAuth("", config.User, config.Password, config.Host)
	}
	return &Sender{
		config: config,
		auth:   auth,
		send:   sendSMTP,
	}
}

// SendMentionAlert composes and sends the alert email for rec. The
// context deadline bounds the whole SMTP session.
func (s *Sender) SendMentionAlert(ctx context.Context, rec mentionstore.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := fmt.Sprintf("Mention alert - %s in %s", rec.UserName, rec.GroupName)
	body := composeBody(rec)

	msg := []string{
		fmt.Sprintf("From: %s", sanitizeHeader(s.config.From)),
		fmt.Sprintf("To: %s", sanitizeHeader(s.config.To)),
		fmt.Sprintf("Subject: %s", sanitizeHeader(subject)),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
		"",
		body,
	}

	addr := fmt.Sprintf("%s:%s", s.config.Host, s.config.Port)
	if err := s.send(ctx, addr, s.auth, s.config.From, []string{s.config.To}, []byte(strings.Join(msg, "\r\n"))); err != nil {
		return fmt.Errorf("failed to send mention alert email: %w", err)
	}
	return nil
}

// sendSMTP speaks the session itself instead of calling smtp.SendMail:
// SendMail dials with no deadline, so a relay that accepts the
// connection and then stalls would hold the caller past its context.
// Dialing with the context and pinning its deadline on the connection
// bounds every read and write of the exchange.
func sendSMTP(ctx context.Context, addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return err
		}
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
				return err
			}
		}
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func composeBody(rec mentionstore.Record) string {
	when := time.UnixMilli(rec.Timestamp).UTC().Format("2006-01-02 15:04:05 MST")
	group := rec.GroupName
	if group == "" {
		group = rec.GroupID
	}
	return strings.Join([]string{
		"<h2>New mention</h2>",
		fmt.Sprintf("<p><strong>User:</strong> %s</p>", html.EscapeString(rec.UserName)),
		fmt.Sprintf("<p><strong>Group:</strong> %s (%s)</p>", html.EscapeString(group), html.EscapeString(rec.GroupID)),
		fmt.Sprintf("<p><strong>Message:</strong> %s</p>", html.EscapeString(rec.Message)),
		fmt.Sprintf("<p><strong>Mentions:</strong> %s</p>", html.EscapeString(strings.Join(rec.Mentions, ", "))),
		fmt.Sprintf("<p><strong>Time:</strong> %s</p>", when),
	}, "\n")
}

// Header injection through user-controlled names would let a sender
// smuggle extra recipients.
func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}
