package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/buildwise-ai/buildwise-backend/internal/admin/domain"
	"github.com/buildwise-ai/buildwise-backend/internal/admin/repository"
	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	"github.com/buildwise-ai/buildwise-backend/internal/logging"
	"github.com/buildwise-ai/buildwise-backend/internal/mailer"
)

const (
	ActionApprove = "approve"
	ActionDeny    = "deny"

	MinPasswordLength = 8
)

// Promoter grants the admin role to a synced user.
type Promoter interface {
	PromoteByEmail(ctx context.Context, email string) error
}

type Config struct {
	// ApproverEmail receives the review links. Empty skips the mail.
	ApproverEmail string
	// BaseURL prefixes the review links, e.g. https://api.buildwise.ai.
	BaseURL  string
	HashCost int
}

type RegisterInput struct {
	Username      string
	Email         string
	Password      string
	Justification string
}

type Service struct {
	repo     repository.Repository
	sender   mailer.Sender
	promoter Promoter
	cfg      Config
	// notify governs the approver and requester mails and the role grant.
	notify apperr.Policy
	now    func() time.Time
}

func New(repo repository.Repository, sender mailer.Sender, promoter Promoter, cfg Config) *Service {
	if cfg.HashCost == 0 {
		cfg.HashCost = bcrypt.DefaultCost
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Service{
		repo:     repo,
		sender:   sender,
		promoter: promoter,
		cfg:      cfg,
		notify:   apperr.BestEffort,
		now:      time.Now,
	}
}

// Register stores a pending request and mails the approver a review link.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.Request, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, apperr.MissingField("username")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, apperr.MissingField("email")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.BadRequest("email", "email must be a valid email")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, apperr.BadRequest("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.HashCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	req := &domain.Request{
		ID:            uuid.NewString(),
		Token:         uuid.NewString(),
		Username:      username,
		Email:         email,
		PasswordHash:  string(hash),
		Justification: strings.TrimSpace(in.Justification),
		Status:        domain.StatusPending,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.Create(ctx, req); err != nil {
		if errors.Is(err, domain.ErrDuplicatePending) {
			return nil, apperr.Conflict("an admin request for this email is already pending")
		}
		return nil, apperr.Internal(err)
	}
	logging.FromContext(ctx).Info("admin request registered", "request_id", req.ID, "username", username)

	if s.cfg.ApproverEmail != "" {
		err := s.sender.Send(ctx, s.approverMail(req))
		if err := s.notify.SideEffect(ctx, "admin_approver_mail", err); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// Review applies an approve or deny action to the request holding token.
func (s *Service) Review(ctx context.Context, token, action string) (*domain.Request, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.MissingField("token")
	}

	var status domain.Status
	switch strings.ToLower(strings.TrimSpace(action)) {
	case ActionApprove:
		status = domain.StatusApproved
	case ActionDeny:
		status = domain.StatusDenied
	case "":
		return nil, apperr.MissingField("action")
	default:
		return nil, apperr.BadRequest("action", "action must be one of: approve, deny")
	}

	req, err := s.repo.Decide(ctx, token, status, s.now().UTC())
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, apperr.NotFound("admin request not found")
	case errors.Is(err, domain.ErrAlreadyProcessed):
		return nil, apperr.BadRequest("token", "request already processed")
	case err != nil:
		return nil, apperr.Internal(err)
	}
	logging.FromContext(ctx).Info("admin request reviewed", "request_id", req.ID, "status", string(req.Status))

	if status == domain.StatusApproved && s.promoter != nil {
		err := s.promoter.PromoteByEmail(ctx, req.Email)
		if err := s.notify.SideEffect(ctx, "admin_role_grant", err); err != nil {
			return nil, err
		}
	}
	err = s.sender.Send(ctx, requesterMail(req))
	if err := s.notify.SideEffect(ctx, "admin_requester_mail", err); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *Service) List(ctx context.Context, status string) ([]domain.Request, error) {
	st := domain.Status(strings.ToLower(strings.TrimSpace(status)))
	if st != "" && !st.Valid() {
		return nil, apperr.BadRequest("status", "status must be one of: pending, approved, denied")
	}
	items, err := s.repo.List(ctx, st)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return items, nil
}

func (s *Service) reviewLink(token, action string) string {
	q := url.Values{"token": {token}, "action": {action}}
	return s.cfg.BaseURL + "/api/v1/admin/requests/review?" + q.Encode()
}

func (s *Service) approverMail(req *domain.Request) mailer.Message {
	approve := s.reviewLink(req.Token, ActionApprove)
	deny := s.reviewLink(req.Token, ActionDeny)
	return mailer.Message{
		To:      s.cfg.ApproverEmail,
		Subject: "Admin access request from " + req.Username,
		Text: fmt.Sprintf("%s <%s> requested admin access.\n\nReason: %s\n\nApprove: %s\nDeny: %s\n",
			req.Username, req.Email, req.Justification, approve, deny),
		HTML: fmt.Sprintf(`<p><b>%s</b> (%s) requested admin access.</p><p>Reason: %s</p><p><a href="%s">Approve</a> | <a href="%s">Deny</a></p>`,
			html.EscapeString(req.Username), html.EscapeString(req.Email), html.EscapeString(req.Justification),
			html.EscapeString(approve), html.EscapeString(deny)),
	}
}

func requesterMail(req *domain.Request) mailer.Message {
	verdict := "approved"
	if req.Status == domain.StatusDenied {
		verdict = "denied"
	}
	return mailer.Message{
		To:      req.Email,
		Subject: "Your BuildWise admin request was " + verdict,
		Text:    fmt.Sprintf("Hi %s,\n\nyour request for admin access was %s.\n", req.Username, verdict),
		HTML:    fmt.Sprintf("<p>Hi %s,</p><p>your request for admin access was <b>%s</b>.</p>", html.EscapeString(req.Username), verdict),
	}
}
