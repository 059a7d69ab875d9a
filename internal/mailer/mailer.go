package mailer

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/buildwise-ai/buildwise-backend/internal/logging"
	"github.com/buildwise-ai/buildwise-backend/internal/metrics"
)

// Message is one outbound email. From falls back to the sender's default.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
	From    string
}

// Sender delivers a message through one email provider.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("mail recipient is required")
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("mail subject is required")
	}
	if m.HTML == "" && m.Text == "" {
		return fmt.Errorf("mail body is required")
	}
	return nil
}

// Log writes messages to the log instead of delivering them. Used in development.
type Log struct {
	From string
}

func (Log) Name() string { return "log" }

func (l Log) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		record(l.Name(), err)
		return err
	}
	from := msg.From
	if from == "" {
		from = l.From
	}
	logging.FromContext(ctx).Info("mail (not delivered)",
		"from", from, "to", msg.To, "subject", msg.Subject, "text", msg.Text)
	record(l.Name(), nil)
	return nil
}

func record(provider string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.MailSent.WithLabelValues(provider, outcome).Inc()
}

// buildMIME renders msg as an RFC 5322 message with text and HTML alternatives.
func buildMIME(from string, msg Message) []byte {
	boundary := fmt.Sprintf("bw_%d", time.Now().UnixNano())

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary)

	part := func(contentType, body string) {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		fmt.Fprintf(&b, "Content-Type: %s; charset=UTF-8\r\n", contentType)
		b.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
		b.WriteString(base64.StdEncoding.EncodeToString([]byte(body)))
		b.WriteString("\r\n")
	}
	if msg.Text != "" {
		part("text/plain", msg.Text)
	}
	if msg.HTML != "" {
		part("text/html", msg.HTML)
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}
