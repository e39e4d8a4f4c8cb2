package backend

import (
	"context"

	"github.com/sony/gobreaker"

	"notifstore/internal/config"
	"notifstore/internal/logger"
	apperrors "notifstore/pkg/errors"
	"notifstore/pkg/metrics"
)

// BreakerIndex wraps an Index with a circuit breaker so a struggling
// backend sheds load instead of queueing timeouts.
type BreakerIndex struct {
	inner Index
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerIndex builds a breaker-protected index from config settings.
func NewBreakerIndex(inner Index, name string, cfg config.CircuitBreakerConfig, log logger.Logger) *BreakerIndex {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnw("circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
			metrics.SetCircuitBreakerState(name, int(to))
		},
		// Client errors such as NotFound or Validation must not trip the
		// breaker; only backend failures count.
		IsSuccessful: func(err error) bool {
			return err == nil || !apperrors.IsInternal(err)
		},
	}
	return &BreakerIndex{inner: inner, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *BreakerIndex) execute(fn func() (interface{}, error)) (interface{}, error) {
	res, err := b.cb.Execute(fn)
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, apperrors.ErrInternal.WithMessage("document store unavailable").WithCause(err)
	}
	return res, err
}

func (b *BreakerIndex) Ensure(ctx context.Context) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.inner.Ensure(ctx)
	})
	return err
}

func (b *BreakerIndex) Put(ctx context.Context, id string, body []byte) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.inner.Put(ctx, id, body)
	})
	return err
}

func (b *BreakerIndex) Get(ctx context.Context, id string) (*Doc, error) {
	res, err := b.execute(func() (interface{}, error) {
		return b.inner.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	doc, _ := res.(*Doc)
	return doc, nil
}

func (b *BreakerIndex) MultiGet(ctx context.Context, ids []string) (map[string]Doc, error) {
	res, err := b.execute(func() (interface{}, error) {
		return b.inner.MultiGet(ctx, ids)
	})
	if err != nil {
		return nil, err
	}
	return res.(map[string]Doc), nil
}

func (b *BreakerIndex) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	res, err := b.execute(func() (interface{}, error) {
		return b.inner.Search(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return res.(*SearchResult), nil
}

func (b *BreakerIndex) Update(ctx context.Context, id string, body []byte) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.inner.Update(ctx, id, body)
	})
	return err
}

func (b *BreakerIndex) Delete(ctx context.Context, id string) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.inner.Delete(ctx, id)
	})
	return err
}

func (b *BreakerIndex) BulkDelete(ctx context.Context, ids []string) (map[string]DeleteStatus, error) {
	res, err := b.execute(func() (interface{}, error) {
		return b.inner.BulkDelete(ctx, ids)
	})
	if err != nil {
		return nil, err
	}
	return res.(map[string]DeleteStatus), nil
}
