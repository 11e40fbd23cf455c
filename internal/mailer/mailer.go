// internal/mailer/mailer.go
// Package mailer delivers helpdesk emails through an HTTP mail API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mwiater/pythia/internal/appconfig"
	"github.com/mwiater/pythia/internal/database"
	"github.com/mwiater/pythia/internal/errdefs"
)

// Message is one outbound email.
type Message struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Client ships messages through the configured mail API. A nil client is
// valid and drops every message.
type Client struct {
	endpoint string
	apiKey   string
	from     string
	client   *http.Client
	log      *logrus.Logger
}

// NewClient builds a client from the application configuration. Returns nil
// when no mail endpoint is configured.
func NewClient(cfg appconfig.Config, log *logrus.Logger) *Client {
	if !cfg.MailerEnabled() {
		return nil
	}
	if log == nil {
		log = logrus.New()
	}
	return &Client{
		endpoint: strings.TrimRight(strings.TrimSpace(cfg.Mailer.Endpoint), "/"),
		apiKey:   cfg.Mailer.APIKey,
		from:     cfg.Mailer.From,
		client:   &http.Client{Timeout: 15 * time.Second},
		log:      log,
	}
}

// Send posts one message to the mail API. The sender falls back to the
// configured from address when the message leaves it empty.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c == nil {
		return nil
	}
	if strings.TrimSpace(msg.To) == "" {
		return errdefs.Validation("message has no recipient")
	}
	if msg.From == "" {
		msg.From = c.from
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return errdefs.RemoteService("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return errdefs.RemoteService("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errdefs.RemoteService("send message: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errdefs.RemoteService("send message: %s", resp.Status)
	}

	c.log.WithField("to", msg.To).Info("Closing notice sent")
	return nil
}

// ClosingNotice renders the email sent when the helpdesk closes a contact.
func ClosingNotice(contact *database.Contact) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s %s,\n\n", contact.FirstName, contact.LastName)
	b.WriteString("Thank you for contacting us. You asked:\n\n")
	fmt.Fprintf(&b, "%s\n\n", contact.Question)
	if strings.TrimSpace(contact.Answer) != "" {
		b.WriteString("Our answer:\n\n")
		fmt.Fprintf(&b, "%s\n\n", contact.Answer)
	}
	b.WriteString("Your request is now closed. If you need anything else, just reply to this message.\n\n")
	b.WriteString("Your Helpdesk Team\n")

	return Message{
		To:      contact.Email,
		Subject: "Your request has been resolved",
		Body:    b.String(),
	}
}
