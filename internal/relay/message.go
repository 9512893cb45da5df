package relay

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"text/template"
	"time"

	"github.com/breakoutai/automail/internal/email"
)

// Message is one outbound email before MIME encoding.
type Message struct {
	AttemptID   string
	To          string
	Subject     string
	Body        string
	CompanyName string
}

// Builder renders messages into multipart/alternative MIME, a plain part
// plus a styled HTML part, with the headers the relay expects.
type Builder struct {
	fromEmail   string
	fromName    string
	mailerName  string
	trackingURL string // base URL for the 1x1 pixel, empty disables it
}

// NewBuilder creates a message builder for the configured sender.
func NewBuilder(fromEmail, fromName, trackingURL string) *Builder {
	return &Builder{
		fromEmail:   fromEmail,
		fromName:    fromName,
		mailerName:  "BreakoutAI Email System v2.0",
		trackingURL: trackingURL,
	}
}

// Build renders the full RFC 5322 message. A blank subject falls back to
// a partnership line for the company; a blank body falls back to a
// courtesy note. Subject newlines are stripped unconditionally.
func (b *Builder) Build(msg *Message) ([]byte, error) {
	subject := strings.ReplaceAll(msg.Subject, "\n", "")
	if subject == "" {
		subject = fmt.Sprintf("Partnership Opportunity for %s", msg.CompanyName)
	}

	body := msg.Body
	if body == "" {
		body = "Thank you for your time."
	}

	domain := email.ExtractDomain(b.fromEmail)
	if domain == "" {
		domain = "localhost"
	}

	var pixel string
	if b.trackingURL != "" {
		pixel = fmt.Sprintf(`<img src="%s/pixel/%s" width="1" height="1" style="display:none;">`,
			strings.TrimSuffix(b.trackingURL, "/"), msg.AttemptID)
	}

	data := messageData{
		FromName:  b.fromName,
		FromEmail: b.fromEmail,
		To:        msg.To,
		Subject:   subject,
		Date:      time.Now().Format(time.RFC1123Z),
		MessageID: fmt.Sprintf("<%s@%s>", msg.AttemptID, domain),
		Mailer:    b.mailerName,
		Boundary:  fmt.Sprintf("==Boundary_%s==", msg.AttemptID),
		PlainBody: body,
		HTMLBody:  html.EscapeString(body),
		Pixel:     pixel,
	}

	var buf bytes.Buffer
	if err := messageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to build message: %w", err)
	}

	return buf.Bytes(), nil
}

type messageData struct {
	FromName  string
	FromEmail string
	To        string
	Subject   string
	Date      string
	MessageID string
	Mailer    string
	Boundary  string
	PlainBody string
	HTMLBody  string
	Pixel     string
}

var messageTemplate = template.Must(template.New("message").Parse(
	`From: {{.FromName}} <{{.FromEmail}}>
To: {{.To}}
Subject: {{.Subject}}
Date: {{.Date}}
Message-ID: {{.MessageID}}
Reply-To: {{.FromEmail}}
Return-Path: {{.FromEmail}}
X-Mailer: {{.Mailer}}
X-Priority: 3
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="{{.Boundary}}"

--{{.Boundary}}
Content-Type: text/plain; charset=utf-8
Content-Transfer-Encoding: 8bit

{{.PlainBody}}

--{{.Boundary}}
Content-Type: text/html; charset=utf-8
Content-Transfer-Encoding: 8bit

<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
<div style="background-color: #f8f9fa; padding: 20px; border-radius: 10px;">
<div style="background-color: white; padding: 30px; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1);">
<div style="white-space: pre-line; margin-bottom: 20px;">{{.HTMLBody}}</div>
<hr style="border: none; height: 1px; background-color: #e9ecef; margin: 20px 0;">
<div style="font-size: 12px; color: #6c757d; text-align: center;">
<p>This email was sent by the AutoMail Email System</p>
<p>If you'd like to unsubscribe, please reply with "UNSUBSCRIBE" in the subject line.</p>
</div>
</div>
</div>
{{.Pixel}}
</body>
</html>

--{{.Boundary}}--
`))
