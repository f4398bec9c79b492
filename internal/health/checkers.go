package health

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrWong99/gymvox/pkg/lexicon"
)

// Lexicon fails while the lexicon holds no exercise names or aliases, which
// would make every exercise phrase unknown.
func Lexicon(store *lexicon.Store) Checker {
	return Checker{
		Name: "lexicon",
		Check: func(context.Context) error {
			if store.Snapshot().Len() == 0 {
				return errors.New("lexicon is empty")
			}
			return nil
		},
	}
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping wraps a database ping as a [Checker].
func Ping(name string, p Pinger) Checker {
	return Checker{
		Name: name,
		Check: func(ctx context.Context) error {
			if err := p.Ping(ctx); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
			return nil
		},
	}
}
