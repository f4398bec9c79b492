package resilience

import (
	"context"
	"fmt"

	"github.com/MrWong99/gymvox/pkg/lexicon"
)

// Backend wraps a [lexicon.Backend] with a [Breaker]. While the breaker is
// open every call fails with an error wrapping [ErrOpen] without touching
// the inner backend.
type Backend struct {
	inner   lexicon.Backend
	breaker *Breaker
}

var _ lexicon.Backend = (*Backend)(nil)

// NewBackend guards inner with a breaker built from cfg.
func NewBackend(inner lexicon.Backend, cfg BreakerConfig) *Backend {
	return &Backend{inner: inner, breaker: NewBreaker(cfg)}
}

// Breaker exposes the breaker, e.g. for readiness checks.
func (b *Backend) Breaker() *Breaker { return b.breaker }

func (b *Backend) LoadAliases(ctx context.Context) (map[string]string, error) {
	var out map[string]string
	err := b.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = b.inner.LoadAliases(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("resilience: load aliases: %w", err)
	}
	return out, nil
}

func (b *Backend) SaveAlias(ctx context.Context, alias, canonical string) error {
	if err := b.breaker.Do(ctx, func(ctx context.Context) error {
		return b.inner.SaveAlias(ctx, alias, canonical)
	}); err != nil {
		return fmt.Errorf("resilience: save alias: %w", err)
	}
	return nil
}

func (b *Backend) DeleteAlias(ctx context.Context, alias string) error {
	if err := b.breaker.Do(ctx, func(ctx context.Context) error {
		return b.inner.DeleteAlias(ctx, alias)
	}); err != nil {
		return fmt.Errorf("resilience: delete alias: %w", err)
	}
	return nil
}
