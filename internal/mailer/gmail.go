package mailer

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Gmail delivers mail through the Gmail API as a service account impersonating sender.
type Gmail struct {
	svc    *gmail.Service
	sender string
}

// NewGmail loads a service account key from credentialsPath and delegates to sender.
func NewGmail(ctx context.Context, credentialsPath, sender string) (*Gmail, error) {
	raw, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read gmail credentials: %w", err)
	}
	jwtCfg, err := google.JWTConfigFromJSON(raw, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("parse gmail credentials: %w", err)
	}
	jwtCfg.Subject = sender

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(jwtCfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("gmail client: %w", err)
	}
	return &Gmail{svc: svc, sender: sender}, nil
}

// NewGmailWithService wraps an already configured service.
func NewGmailWithService(svc *gmail.Service, sender string) *Gmail {
	return &Gmail{svc: svc, sender: sender}
}

func (g *Gmail) Name() string { return "gmail" }

func (g *Gmail) Send(ctx context.Context, msg Message) (err error) {
	defer func() { record(g.Name(), err) }()

	if err := msg.validate(); err != nil {
		return err
	}
	from := msg.From
	if from == "" {
		from = g.sender
	}

	raw := base64.URLEncoding.EncodeToString(buildMIME(from, msg))
	if _, err := g.svc.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}
	return nil
}
