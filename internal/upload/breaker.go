package upload

import (
	"context"
	"errors"
	"io"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/premiumrays/digital-goods-backend/internal/apperr"
	"github.com/premiumrays/digital-goods-backend/internal/metrics"
)

// BreakerSettings tune BreakerStore. Zero values take the defaults below.
type BreakerSettings struct {
	// MinRequests before the failure ratio is considered.
	MinRequests uint32
	// FailureRatio at or above which the breaker opens.
	FailureRatio float64
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// BreakerStore fails fast while a remote store keeps erroring, so uploads
// return 503 instead of tying up requests on a dead upstream.
type BreakerStore struct {
	next Store
	cb   *gobreaker.CircuitBreaker[Stored]
	name string
}

func NewBreakerStore(name string, next Store, settings BreakerSettings, log *zap.Logger) *BreakerStore {
	if settings.MinRequests == 0 {
		settings.MinRequests = 5
	}
	if settings.FailureRatio == 0 {
		settings.FailureRatio = 0.6
	}
	if settings.OpenTimeout == 0 {
		settings.OpenTimeout = time.Minute
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[Stored](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= settings.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("upload circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
		// a canceled upload says nothing about the upstream
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &BreakerStore{next: next, cb: cb, name: name}
}

func (b *BreakerStore) Save(ctx context.Context, name string, r io.Reader) (Stored, error) {
	stored, err := b.cb.Execute(func() (Stored, error) {
		return b.next.Save(ctx, name, r)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		return Stored{}, apperr.Unavailable("upload store is not accepting files, retry later")
	case err != nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		return Stored{}, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return stored, nil
}

// State reports the breaker state, mostly for tests and health output.
func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
