package paddingoracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/codahale/aesbreak/attack"
	"github.com/codahale/aesbreak/internal/testdata"
	"github.com/codahale/aesbreak/modes"
	"github.com/codahale/aesbreak/oracle"
)

func newServer(t *testing.T, domain string) *oracle.PaddingServer {
	t.Helper()

	drbg := testdata.New(domain)
	s, err := oracle.NewPaddingServer(drbg.Data(16), drbg.Data(16))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRecover(t *testing.T) {
	s := newServer(t, "aesbreak paddingoracle recover")
	plaintext := []byte("000000Now that the party is jumping\n" +
		"000001With the bass kicked in and the Vega's are pumpin'\n" +
		"000002Quick to the point, to the point, no faking")

	for _, workers := range []int{1, 8} {
		t.Run(fmt.Sprint("workers=", workers), func(t *testing.T) {
			ct, err := s.Encrypt(plaintext)
			if err != nil {
				t.Fatal(err)
			}

			got, err := Recover(t.Context(), s, s.IV(), ct, attack.WithWorkers(workers))
			if err != nil {
				t.Fatal(err)
			}
			if want := plaintext; !bytes.Equal(got, want) {
				t.Errorf("Recover() = %q, want = %q", got, want)
			}
		})
	}
}

// Every plaintext length modulo the block size exercises a different final pad, including the ones which make a
// \x02\x02 or longer padding look valid on the first guess.
func TestRecoverLengths(t *testing.T) {
	s := newServer(t, "aesbreak paddingoracle lengths")
	drbg := testdata.New("aesbreak paddingoracle lengths plaintext")

	for n := range 34 {
		plaintext := drbg.Data(n)
		ct, err := s.Encrypt(plaintext)
		if err != nil {
			t.Fatal(err)
		}

		got, err := Recover(t.Context(), s, s.IV(), ct)
		if err != nil {
			t.Fatalf("Recover(%d bytes): %v", n, err)
		}
		if want := plaintext; !bytes.Equal(got, want) {
			t.Errorf("Recover(%d bytes) = %x, want = %x", n, got, want)
		}
	}
}

func TestRecoverInvalidArguments(t *testing.T) {
	s := newServer(t, "aesbreak paddingoracle invalid")

	if _, err := Recover(t.Context(), s, make([]byte, 15), make([]byte, 32)); !errors.Is(err, modes.ErrInvalidIVLength) {
		t.Errorf("Recover(short IV) err = %v, want = %v", err, modes.ErrInvalidIVLength)
	}

	for _, n := range []int{0, 15, 33} {
		if _, err := Recover(t.Context(), s, s.IV(), make([]byte, n)); !errors.Is(err, modes.ErrCiphertextLength) {
			t.Errorf("Recover(%d bytes) err = %v, want = %v", n, err, modes.ErrCiphertextLength)
		}
	}
}

func TestRecoverOracleError(t *testing.T) {
	s := newServer(t, "aesbreak paddingoracle oracle error")
	ct, err := s.Encrypt([]byte("a plaintext which spans more than one block"))
	if err != nil {
		t.Fatal(err)
	}

	// An oracle which reports a padding failure as an error must abort the attack, not count as a negative answer.
	boom := errors.New("decryption failed")
	for _, failAt := range []int32{1, 300, 2000} {
		var calls atomic.Int32
		_, err := Recover(t.Context(), Func(func(ciphertext []byte) (bool, error) {
			if calls.Add(1) >= failAt {
				return false, boom
			}
			return s.ValidPadding(ciphertext)
		}), s.IV(), ct, attack.WithWorkers(4))
		if !errors.Is(err, attack.ErrOracle) || !errors.Is(err, boom) {
			t.Errorf("Recover(fail at %d) err = %v, want = %v wrapping %v", failAt, err, attack.ErrOracle, boom)
		}
	}
}

func TestRecoverInconsistent(t *testing.T) {
	tests := []struct {
		name string
		f    Func
	}{
		{"always valid", func([]byte) (bool, error) { return true, nil }},
		{"never valid", func([]byte) (bool, error) { return false, nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Recover(t.Context(), tt.f, make([]byte, 16), make([]byte, 32))
			if !errors.Is(err, attack.ErrOracleInconsistent) {
				t.Errorf("Recover() err = %v, want = %v", err, attack.ErrOracleInconsistent)
			}
		})
	}
}

func TestRecoverCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	s := newServer(t, "aesbreak paddingoracle canceled")
	ct, err := s.Encrypt([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Recover(ctx, s, s.IV(), ct); !errors.Is(err, context.Canceled) {
		t.Errorf("Recover() err = %v, want = %v", err, context.Canceled)
	}
}

func ExampleRecover() {
	s, _ := oracle.NewPaddingServer([]byte("YELLOW SUBMARINE"), []byte("0123456789abcdef"))
	ct, _ := s.Encrypt([]byte("Ice, Ice, baby"))

	plaintext, err := Recover(context.Background(), s, s.IV(), ct)
	if err != nil {
		panic(err)
	}
	fmt.Printf("%s\n", plaintext)
	// Output:
	// Ice, Ice, baby
}
