package verification

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	"github.com/buildwise-ai/buildwise-backend/internal/mailer"
)

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

var codeRe = regexp.MustCompile(`\b(\d{6})\b`)

func (c *captureSender) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, c.sent)
	m := codeRe.FindStringSubmatch(c.sent[len(c.sent)-1].Text)
	require.Len(t, m, 2)
	return m[1]
}

func setup(t *testing.T) (*Service, *captureSender, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sender := &captureSender{}
	store := NewStore(client, WithHashCost(bcrypt.MinCost))
	return NewService(store, sender), sender, mr
}

func TestSendAndVerify(t *testing.T) {
	svc, sender, mr := setup(t)
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, " User@Example.com "))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "user@example.com", sender.sent[0].To)

	hash := mr.HGet(keyPrefix+":code:user@example.com", "hash")
	code := sender.lastCode(t)
	assert.NotContains(t, hash, code)
	assert.Equal(t, DefaultTTL, mr.TTL(keyPrefix+":code:user@example.com"))

	require.NoError(t, svc.Verify(ctx, "user@example.com", code))

	err := svc.Verify(ctx, "user@example.com", code)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestSend_ResendWithinWindowIsRejected(t *testing.T) {
	svc, _, mr := setup(t)
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, "a@b.co"))
	err := svc.Send(ctx, "a@b.co")
	assert.Equal(t, apperr.KindTooManyRequests, apperr.KindOf(err))

	mr.FastForward(DefaultResendAfter + time.Second)
	assert.NoError(t, svc.Send(ctx, "a@b.co"))
}

func TestVerify_WrongCodeCountsAttempts(t *testing.T) {
	svc, sender, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, "a@b.co"))
	good := sender.lastCode(t)
	bad := "000000"
	if good == bad {
		bad = "111111"
	}

	for i := 0; i < DefaultMaxAttempts; i++ {
		err := svc.Verify(ctx, "a@b.co", bad)
		e := apperr.As(err)
		require.Equal(t, apperr.KindBadRequest, e.Kind)
		assert.Equal(t, "code", e.Field)
	}

	// the code is burnt after the last allowed attempt
	err := svc.Verify(ctx, "a@b.co", good)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestVerify_ConcurrentGuessesShareTheAttemptCap(t *testing.T) {
	svc, sender, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, "a@b.co"))
	good := sender.lastCode(t)
	bad := "000000"
	if good == bad {
		bad = "111111"
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		kinds = map[apperr.Kind]int{}
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k := apperr.KindOf(svc.Verify(ctx, "a@b.co", bad))
			mu.Lock()
			kinds[k]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, DefaultMaxAttempts, kinds[apperr.KindBadRequest])
	assert.Equal(t, 40-DefaultMaxAttempts, kinds[apperr.KindTooManyRequests]+kinds[apperr.KindNotFound])

	err := svc.Verify(ctx, "a@b.co", good)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestVerify_Expired(t *testing.T) {
	svc, sender, mr := setup(t)
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, "a@b.co"))
	code := sender.lastCode(t)

	mr.FastForward(DefaultTTL + time.Second)
	err := svc.Verify(ctx, "a@b.co", code)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestSend_MailFailureRevokesCode(t *testing.T) {
	svc, sender, mr := setup(t)
	sender.err = errors.New("smtp down")

	err := svc.Send(context.Background(), "a@b.co")
	assert.Equal(t, apperr.KindProcessingFailed, apperr.KindOf(err))
	assert.False(t, mr.Exists(keyPrefix+":code:a@b.co"))
	assert.False(t, mr.Exists(keyPrefix+":resend:a@b.co"))
}

func TestSend_InvalidEmail(t *testing.T) {
	svc, _, _ := setup(t)

	e := apperr.As(svc.Send(context.Background(), "not-an-email"))
	assert.Equal(t, apperr.KindBadRequest, e.Kind)
	assert.Equal(t, "email", e.Field)
}
