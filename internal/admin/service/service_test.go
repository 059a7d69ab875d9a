package service

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/buildwise-ai/buildwise-backend/internal/admin/domain"
	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	"github.com/buildwise-ai/buildwise-backend/internal/mailer"
)

type memRepo struct {
	mu   sync.Mutex
	reqs []*domain.Request
}

func (m *memRepo) Create(_ context.Context, req *domain.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reqs {
		if r.Email == req.Email && r.Status == domain.StatusPending {
			return domain.ErrDuplicatePending
		}
	}
	cp := *req
	m.reqs = append(m.reqs, &cp)
	return nil
}

func (m *memRepo) Decide(_ context.Context, token string, status domain.Status, at time.Time) (*domain.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reqs {
		if r.Token != token {
			continue
		}
		if r.Status != domain.StatusPending {
			return nil, domain.ErrAlreadyProcessed
		}
		r.Status = status
		r.ReviewedAt = &at
		cp := *r
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memRepo) List(_ context.Context, status domain.Status) ([]domain.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Request{}
	for _, r := range m.reqs {
		if status == "" || r.Status == status {
			out = append(out, *r)
		}
	}
	return out, nil
}

type captureSender struct {
	sent []mailer.Message
	err  error
}

func (c *captureSender) Name() string { return "capture" }

func (c *captureSender) Send(_ context.Context, m mailer.Message) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, m)
	return nil
}

type stubPromoter struct {
	emails []string
	err    error
}

func (p *stubPromoter) PromoteByEmail(_ context.Context, email string) error {
	p.emails = append(p.emails, email)
	return p.err
}

type fixture struct {
	svc      *Service
	repo     *memRepo
	mail     *captureSender
	promoter *stubPromoter
}

func newFixture() *fixture {
	f := &fixture{repo: &memRepo{}, mail: &captureSender{}, promoter: &stubPromoter{}}
	f.svc = New(f.repo, f.mail, f.promoter, Config{
		ApproverEmail: "approver@buildwise.test",
		BaseURL:       "https://api.buildwise.test/",
		HashCost:      bcrypt.MinCost,
	})
	return f
}

var validInput = RegisterInput{
	Username:      "ada",
	Email:         "Ada@Example.com",
	Password:      "correct horse",
	Justification: "I run the Kandy office",
}

var linkRe = regexp.MustCompile(`https://api\.buildwise\.test/api/v1/admin/requests/review\?\S+`)

func tokenFromMail(t *testing.T, m mailer.Message) string {
	t.Helper()
	link := linkRe.FindString(m.Text)
	require.NotEmpty(t, link)
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestRegister(t *testing.T) {
	f := newFixture()

	req, err := f.svc.Register(context.Background(), validInput)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, req.Status)
	assert.Equal(t, "ada@example.com", req.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(req.PasswordHash), []byte("correct horse")))
	assert.NotEqual(t, "correct horse", req.PasswordHash)

	require.Len(t, f.mail.sent, 1)
	m := f.mail.sent[0]
	assert.Equal(t, "approver@buildwise.test", m.To)
	assert.Equal(t, req.Token, tokenFromMail(t, m))
	assert.Contains(t, m.Text, "action=approve")
	assert.Contains(t, m.Text, "action=deny")
}

func TestRegister_DuplicatePendingIsConflict(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Register(context.Background(), validInput)
	require.NoError(t, err)

	_, err = f.svc.Register(context.Background(), validInput)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Len(t, f.repo.reqs, 1)
}

func TestRegister_MailFailureStillRegisters(t *testing.T) {
	f := newFixture()
	f.mail.err = errors.New("smtp down")

	req, err := f.svc.Register(context.Background(), validInput)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, req.Status)
	assert.Len(t, f.repo.reqs, 1)
}

func TestRegister_Validation(t *testing.T) {
	cases := map[string]struct {
		edit  func(*RegisterInput)
		field string
	}{
		"username":       {func(in *RegisterInput) { in.Username = " " }, "username"},
		"email":          {func(in *RegisterInput) { in.Email = "" }, "email"},
		"invalid email":  {func(in *RegisterInput) { in.Email = "not-an-email" }, "email"},
		"short password": {func(in *RegisterInput) { in.Password = "short" }, "password"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			in := validInput
			tc.edit(&in)

			_, err := f.svc.Register(context.Background(), in)
			assert.Equal(t, tc.field, apperr.As(err).Field)
			assert.Empty(t, f.repo.reqs)
		})
	}
}

func TestReview_Approve(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, validInput)
	require.NoError(t, err)

	req, err := f.svc.Review(ctx, reg.Token, "approve")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, req.Status)
	assert.NotNil(t, req.ReviewedAt)
	assert.Equal(t, []string{"ada@example.com"}, f.promoter.emails)

	last := f.mail.sent[len(f.mail.sent)-1]
	assert.Equal(t, "ada@example.com", last.To)
	assert.Contains(t, last.Subject, "approved")
}

func TestReview_TokenUsedTwice(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, validInput)
	require.NoError(t, err)

	_, err = f.svc.Review(ctx, reg.Token, "approve")
	require.NoError(t, err)

	_, err = f.svc.Review(ctx, reg.Token, "deny")
	require.Error(t, err)
	e := apperr.As(err)
	assert.Equal(t, apperr.KindBadRequest, e.Kind)
	assert.Equal(t, "request already processed", e.Message)

	assert.Equal(t, domain.StatusApproved, f.repo.reqs[0].Status)
	assert.Len(t, f.promoter.emails, 1)
}

func TestReview_Deny(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, validInput)
	require.NoError(t, err)

	req, err := f.svc.Review(ctx, reg.Token, "DENY")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDenied, req.Status)
	assert.Empty(t, f.promoter.emails)

	// a fresh request is allowed once the previous one is decided
	_, err = f.svc.Register(ctx, validInput)
	assert.NoError(t, err)
}

func TestReview_SideEffectFailuresDoNotUndoApproval(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, validInput)
	require.NoError(t, err)

	f.promoter.err = apperr.NotFound("no synced user")
	f.mail.err = errors.New("smtp down")

	req, err := f.svc.Review(ctx, reg.Token, "approve")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, req.Status)
}

func TestReview_BadInput(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Review(ctx, "unknown", "approve")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.svc.Review(ctx, "", "approve")
	assert.Equal(t, "token", apperr.As(err).Field)

	_, err = f.svc.Review(ctx, "tok", "escalate")
	assert.Equal(t, "action", apperr.As(err).Field)
}

func TestList(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Register(ctx, validInput)
	require.NoError(t, err)

	items, err := f.svc.List(ctx, "pending")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = f.svc.List(ctx, "archived")
	assert.Equal(t, "status", apperr.As(err).Field)
}
