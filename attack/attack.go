// Package attack holds what the oracle attacks in its subpackages share: options, the errors that distinguish a
// misbehaving oracle from a failing one, and the unique-candidate search.
//
// Every attack treats a negative oracle answer ("invalid padding", "block does not match") as information and any error
// returned by the oracle as fatal. The two are never conflated: an attack either returns the complete plaintext or an
// error, never a partial or guessed result.
package attack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/codahale/aesbreak/internal/search"
)

var (
	// ErrOracleInconsistent is returned when a search that must have exactly one answer found none or several. It means
	// the oracle does not behave like the construction the attack assumes.
	ErrOracleInconsistent = errors.New("aesbreak/attack: oracle inconsistent")

	// ErrOracle wraps errors returned by an oracle call itself, as opposed to negative answers.
	ErrOracle = errors.New("aesbreak/attack: oracle call failed")
)

// Options configure an attack run.
type Options struct {
	// Logger receives progress at debug level. Defaults to discarding everything.
	Logger *slog.Logger

	// Workers is the number of goroutines used for each 256-way candidate search. Defaults to GOMAXPROCS; 1 searches
	// sequentially. The recovered plaintext does not depend on it.
	Workers int
}

// An Option modifies Options.
type Option func(*Options)

// WithLogger sets the logger an attack reports progress to.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithWorkers sets the number of goroutines used per candidate search.
func WithWorkers(n int) Option {
	return func(o *Options) {
		o.Workers = n
	}
}

// NewOptions applies opts over the defaults.
func NewOptions(opts ...Option) Options {
	o := Options{
		Logger:  slog.New(slog.DiscardHandler),
		Workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// OracleError wraps err, returned by an oracle call, with ErrOracle.
func OracleError(err error) error {
	return fmt.Errorf("%w: %w", ErrOracle, err)
}

// FindUnique tries every byte value with match and returns the single one it accepts. If none or several are accepted,
// it returns an error wrapping ErrOracleInconsistent. Errors returned by match are returned as-is.
func (o Options) FindUnique(ctx context.Context, match func(ctx context.Context, candidate byte) (bool, error)) (byte, error) {
	b, err := search.Unique(ctx, o.Workers, match)
	if errors.Is(err, search.ErrNoMatch) || errors.Is(err, search.ErrAmbiguous) {
		return 0, fmt.Errorf("%w: %w", ErrOracleInconsistent, err)
	}
	return b, err
}
