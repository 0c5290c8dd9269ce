package attack

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"runtime"
	"strings"
	"testing"
)

func TestNewOptions(t *testing.T) {
	o := NewOptions()
	if o.Logger == nil {
		t.Error("default Logger is nil")
	}
	if got, want := o.Workers, runtime.GOMAXPROCS(0); got != want {
		t.Errorf("default Workers = %d, want = %d", got, want)
	}

	buf := new(bytes.Buffer)
	l := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	o = NewOptions(WithLogger(l), WithWorkers(3))
	if got, want := o.Workers, 3; got != want {
		t.Errorf("Workers = %d, want = %d", got, want)
	}
	o.Logger.Debug("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("WithLogger did not take effect: %q", buf.String())
	}

	if NewOptions(WithLogger(nil)).Logger == nil {
		t.Error("WithLogger(nil) left a nil Logger")
	}
}

func TestOracleError(t *testing.T) {
	cause := errors.New("connection reset")
	err := OracleError(cause)
	if !errors.Is(err, ErrOracle) || !errors.Is(err, cause) {
		t.Errorf("OracleError() = %v, want %v wrapping %v", err, ErrOracle, cause)
	}
}

func TestFindUnique(t *testing.T) {
	for _, workers := range []int{1, 4} {
		o := NewOptions(WithWorkers(workers))

		got, err := o.FindUnique(t.Context(), func(_ context.Context, c byte) (bool, error) {
			return c == 'x', nil
		})
		if err != nil || got != 'x' {
			t.Errorf("FindUnique(workers=%d) = %q, %v, want = 'x', nil", workers, got, err)
		}

		for _, f := range []func(byte) bool{
			func(byte) bool { return false },
			func(c byte) bool { return c < 2 },
		} {
			_, err := o.FindUnique(t.Context(), func(_ context.Context, c byte) (bool, error) {
				return f(c), nil
			})
			if !errors.Is(err, ErrOracleInconsistent) {
				t.Errorf("FindUnique(workers=%d) err = %v, want = %v", workers, err, ErrOracleInconsistent)
			}
		}

		cause := OracleError(errors.New("boom"))
		_, err = o.FindUnique(t.Context(), func(context.Context, byte) (bool, error) {
			return false, cause
		})
		if !errors.Is(err, ErrOracle) || errors.Is(err, ErrOracleInconsistent) {
			t.Errorf("FindUnique(workers=%d) err = %v, want = %v", workers, err, cause)
		}
	}
}
