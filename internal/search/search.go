// Package search implements the exhaustive single-byte search at the heart of the oracle attacks: every one of the 256
// candidates is tried, and exactly one must match.
package search

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/cpu"
)

var (
	// ErrNoMatch is returned when no candidate matched.
	ErrNoMatch = errors.New("no candidate matched")

	// ErrAmbiguous is returned when more than one candidate matched.
	ErrAmbiguous = errors.New("more than one candidate matched")
)

// A MatchFunc reports whether candidate is the byte being searched for. A non-nil error aborts the search.
type MatchFunc func(ctx context.Context, candidate byte) (bool, error)

// slot holds one worker's matches, padded so that neighbouring workers do not share a cache line.
type slot struct {
	_       cpu.CacheLinePad
	matches []byte
	_       cpu.CacheLinePad
}

// Unique evaluates match for all 256 byte values using up to workers goroutines and returns the only candidate for
// which it returned true. The result is independent of the number of workers.
//
// It returns an error wrapping ErrNoMatch or ErrAmbiguous if zero or several candidates matched, the first error
// returned by match, or the context's error if it is canceled.
func Unique(ctx context.Context, workers int, match MatchFunc) (byte, error) {
	workers = max(1, min(workers, 256))
	slots := make([]slot, workers)

	if workers == 1 {
		for c := range 256 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			ok, err := match(ctx, byte(c))
			if err != nil {
				return 0, err
			}
			if ok {
				slots[0].matches = append(slots[0].matches, byte(c))
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		for w := range workers {
			g.Go(func() error {
				for c := w; c < 256; c += workers {
					if err := gctx.Err(); err != nil {
						return err
					}
					ok, err := match(gctx, byte(c))
					if err != nil {
						return err
					}
					if ok {
						slots[w].matches = append(slots[w].matches, byte(c))
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return 0, err
		}
	}

	var matches []byte
	for i := range slots {
		matches = append(matches, slots[i].matches...)
	}
	slices.Sort(matches)

	switch len(matches) {
	case 0:
		return 0, ErrNoMatch
	case 1:
		return matches[0], nil
	default:
		return 0, fmt.Errorf("%w: %x", ErrAmbiguous, matches)
	}
}
