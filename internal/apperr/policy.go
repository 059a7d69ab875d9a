package apperr

import (
	"context"

	"github.com/buildwise-ai/buildwise-backend/internal/logging"
	"github.com/buildwise-ai/buildwise-backend/internal/metrics"
)

// Policy declares how an endpoint treats failures of secondary side effects
// (notification mail, template copy) that follow its primary write.
type Policy struct {
	BestEffortSideEffect bool
}

var (
	// Strict propagates side-effect failures to the caller.
	Strict = Policy{}
	// BestEffort logs side-effect failures and reports success.
	BestEffort = Policy{BestEffortSideEffect: true}
)

// SideEffect applies the policy to the outcome of the named side effect.
func (p Policy) SideEffect(ctx context.Context, name string, err error) error {
	if err == nil {
		return nil
	}
	if !p.BestEffortSideEffect {
		return err
	}
	metrics.SideEffectFailures.WithLabelValues(name).Inc()
	logging.FromContext(ctx).Warn("side effect failed, continuing",
		"side_effect", name, "error", err)
	return nil
}
