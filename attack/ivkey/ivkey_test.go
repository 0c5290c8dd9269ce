package ivkey

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/codahale/aesbreak/attack"
	"github.com/codahale/aesbreak/internal/testdata"
	"github.com/codahale/aesbreak/modes"
	"github.com/codahale/aesbreak/oracle"
)

func TestRecover(t *testing.T) {
	key := testdata.New("aesbreak ivkey").Data(16)
	s, err := oracle.NewLeakyComments(key)
	if err != nil {
		t.Fatal(err)
	}

	for _, input := range []string{"", "AAAA", "a much longer comment which spans several blocks of text"} {
		ct, err := s.Encrypt([]byte(input))
		if err != nil {
			t.Fatal(err)
		}

		got, err := Recover(t.Context(), s, ct)
		if err != nil {
			t.Fatal(err)
		}
		if want := key; !bytes.Equal(got, want) {
			t.Errorf("Recover(%q) = %x, want = %x", input, got, want)
		}
	}
}

func TestRecoverNoLeak(t *testing.T) {
	_, err := Recover(t.Context(), Func(func([]byte) ([]byte, error) {
		return nil, nil
	}), make([]byte, 48))
	if !errors.Is(err, ErrNoLeak) {
		t.Errorf("Recover() err = %v, want = %v", err, ErrNoLeak)
	}
}

func TestRecoverOracleError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Recover(t.Context(), Func(func([]byte) ([]byte, error) {
		return nil, boom
	}), make([]byte, 48))
	if !errors.Is(err, attack.ErrOracle) || !errors.Is(err, boom) {
		t.Errorf("Recover() err = %v, want = %v wrapping %v", err, attack.ErrOracle, boom)
	}
}

func TestRecoverInconsistent(t *testing.T) {
	_, err := Recover(t.Context(), Func(func([]byte) ([]byte, error) {
		return []byte("short"), nil
	}), make([]byte, 48))
	if !errors.Is(err, attack.ErrOracleInconsistent) {
		t.Errorf("Recover() err = %v, want = %v", err, attack.ErrOracleInconsistent)
	}
}

func TestRecoverInvalidLength(t *testing.T) {
	for _, n := range []int{0, 15, 17} {
		if _, err := Recover(t.Context(), Func(nil), make([]byte, n)); !errors.Is(err, modes.ErrCiphertextLength) {
			t.Errorf("Recover(%d bytes) err = %v, want = %v", n, err, modes.ErrCiphertextLength)
		}
	}
}

func TestRecoverCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if _, err := Recover(ctx, Func(nil), make([]byte, 48)); !errors.Is(err, context.Canceled) {
		t.Errorf("Recover() err = %v, want = %v", err, context.Canceled)
	}
}
