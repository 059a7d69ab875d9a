package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
)

const (
	CodeLength         = 6
	DefaultTTL         = 10 * time.Minute
	DefaultResendAfter = 60 * time.Second
	DefaultMaxAttempts = 5

	keyPrefix = "buildwise:verify"
)

// Store keeps one bcrypt-hashed code per email in Redis.
type Store struct {
	client      redis.Cmdable
	ttl         time.Duration
	resendAfter time.Duration
	maxAttempts int
	cost        int
}

type StoreOption func(*Store)

func WithTTL(d time.Duration) StoreOption { return func(s *Store) { s.ttl = d } }

func WithResendAfter(d time.Duration) StoreOption { return func(s *Store) { s.resendAfter = d } }

func WithMaxAttempts(n int) StoreOption { return func(s *Store) { s.maxAttempts = n } }

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(c int) StoreOption { return func(s *Store) { s.cost = c } }

func NewStore(client redis.Cmdable, opts ...StoreOption) *Store {
	s := &Store{
		client:      client,
		ttl:         DefaultTTL,
		resendAfter: DefaultResendAfter,
		maxAttempts: DefaultMaxAttempts,
		cost:        bcrypt.DefaultCost,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Issue creates a fresh code for email, replacing any earlier one. A second
// call within the resend window is rejected with TooManyRequests.
func (s *Store) Issue(ctx context.Context, email string) (string, error) {
	allowed, err := s.client.SetNX(ctx, s.resendKey(email), "1", s.resendAfter).Result()
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("verification resend guard: %w", err))
	}
	if !allowed {
		return "", apperr.TooManyRequests("a code was sent recently, try again in a minute")
	}

	code, err := generateCode(CodeLength)
	if err != nil {
		s.Revoke(ctx, email)
		return "", apperr.Internal(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		s.Revoke(ctx, email)
		return "", apperr.Internal(err)
	}

	key := s.codeKey(email)
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key, "hash", string(hash), "attempts", 0)
		p.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		s.Revoke(ctx, email)
		return "", apperr.Internal(fmt.Errorf("store verification code: %w", err))
	}
	return code, nil
}

// claimAttempt counts an attempt against an existing code and returns the new
// count with the stored hash, or -1 when no code is stored.
var claimAttempt = redis.NewScript(`
local hash = redis.call("HGET", KEYS[1], "hash")
if not hash then
  return {-1, ""}
end
local n = redis.call("HINCRBY", KEYS[1], "attempts", 1)
return {n, hash}
`)

// Verify checks code against the stored hash. Every call counts as an attempt
// before the comparison; a match consumes the code.
func (s *Store) Verify(ctx context.Context, email, code string) error {
	key := s.codeKey(email)
	res, err := claimAttempt.Run(ctx, s.client, []string{key}).Slice()
	if err != nil {
		return apperr.Internal(fmt.Errorf("load verification code: %w", err))
	}
	attempts, hash, err := parseClaim(res)
	if err != nil {
		return apperr.Internal(err)
	}
	if attempts < 0 || hash == "" {
		return apperr.NotFound("verification code expired or not found")
	}
	if attempts > int64(s.maxAttempts) {
		_ = s.client.Del(ctx, key).Err()
		return apperr.TooManyRequests("too many verification attempts, request a new code")
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(strings.TrimSpace(code))) != nil {
		if attempts >= int64(s.maxAttempts) {
			_ = s.client.Del(ctx, key).Err()
		}
		return apperr.BadRequest("code", "incorrect verification code")
	}

	if err := s.client.Del(ctx, key, s.resendKey(email)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return apperr.Internal(err)
	}
	return nil
}

func parseClaim(res []interface{}) (int64, string, error) {
	if len(res) != 2 {
		return 0, "", fmt.Errorf("verification attempt: unexpected reply %v", res)
	}
	n, ok := res[0].(int64)
	if !ok {
		return 0, "", fmt.Errorf("verification attempt: unexpected count %T", res[0])
	}
	hash, _ := res[1].(string)
	return n, hash, nil
}

// Revoke drops the code and the resend guard for email.
func (s *Store) Revoke(ctx context.Context, email string) {
	_ = s.client.Del(ctx, s.codeKey(email), s.resendKey(email)).Err()
}

func (s *Store) codeKey(email string) string { return keyPrefix + ":code:" + email }

func (s *Store) resendKey(email string) string { return keyPrefix + ":resend:" + email }

func generateCode(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
