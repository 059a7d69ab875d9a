package verification

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	"github.com/buildwise-ai/buildwise-backend/internal/logging"
	"github.com/buildwise-ai/buildwise-backend/internal/mailer"
)

type Service struct {
	store  *Store
	sender mailer.Sender
}

func NewService(store *Store, sender mailer.Sender) *Service {
	return &Service{store: store, sender: sender}
}

// Send issues a code and mails it. Delivery is the point of the call, so a
// mail failure revokes the code and is returned to the caller.
func (s *Service) Send(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	code, err := s.store.Issue(ctx, email)
	if err != nil {
		return err
	}

	msg := mailer.Message{
		To:      email,
		Subject: "Your BuildWise verification code",
		Text:    fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(s.store.ttl.Minutes())),
		HTML: fmt.Sprintf(`<p>Your verification code is</p><p style="font-size:24px;letter-spacing:4px"><b>%s</b></p><p>It expires in %d minutes.</p>`,
			code, int(s.store.ttl.Minutes())),
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.store.Revoke(ctx, email)
		return apperr.Wrap(apperr.KindProcessingFailed, err, "could not send verification email")
	}

	logging.FromContext(ctx).Info("verification code sent", "email", maskEmail(email), "provider", s.sender.Name())
	return nil
}

func (s *Service) Verify(ctx context.Context, email, code string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return apperr.MissingField("code")
	}
	return s.store.Verify(ctx, email, code)
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperr.MissingField("email")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", apperr.BadRequest("email", "email must be a valid email")
	}
	return email, nil
}

func maskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return email
	}
	return local[:1] + "***@" + domain
}
