// Package relay submits campaign messages to the external mail relay
// over authenticated SMTP.
package relay

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// SubmitError is a relay rejection or transport failure during
// submission. Message carries the upstream error verbatim.
type SubmitError struct {
	Stage   string
	Message string
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("relay %s: %s", e.Stage, e.Message)
}

// Config holds relay connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// Client submits messages to the relay with STARTTLS and SASL PLAIN.
type Client struct {
	cfg     Config
	builder *Builder
	logger  *slog.Logger
}

// NewClient creates a relay client.
func NewClient(cfg Config, builder *Builder, logger *slog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:     cfg,
		builder: builder,
		logger:  logger.With("component", "relay"),
	}
}

// Submit builds and sends one message to its single recipient.
func (c *Client) Submit(ctx context.Context, msg *Message) error {
	data, err := c.builder.Build(msg)
	if err != nil {
		return &SubmitError{Stage: "build", Message: err.Error()}
	}

	addr := net.JoinHostPort(c.cfg.Host, fmt.Sprintf("%d", c.cfg.Port))

	dialer := &net.Dialer{Timeout: c.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return &SubmitError{Stage: "connect", Message: err.Error()}
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(c.cfg.Timeout))
	}

	client, err := smtp.NewClientStartTLS(conn, &tls.Config{
		ServerName: c.cfg.Host,
		MinVersion: tls.VersionTLS12,
	})
	if err != nil {
		conn.Close()
		return &SubmitError{Stage: "starttls", Message: err.Error()}
	}
	defer client.Close()

	if err := client.Auth(sasl.NewPlainClient("", c.cfg.Username, c.cfg.Password)); err != nil {
		return &SubmitError{Stage: "auth", Message: err.Error()}
	}

	if err := client.SendMail(c.builder.fromEmail, []string{msg.To}, bytes.NewReader(data)); err != nil {
		return &SubmitError{Stage: "send", Message: err.Error()}
	}

	if err := client.Quit(); err != nil {
		c.logger.Debug("relay quit failed", "error", err)
	}

	c.logger.Info("message submitted",
		"attempt_id", msg.AttemptID,
		"to", msg.To,
		"company", msg.CompanyName,
	)
	return nil
}
