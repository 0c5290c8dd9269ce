// Package ivkey recovers the key of a CBC system which uses its key as the IV, through an oracle which leaks the
// plaintext of messages it rejects.
//
// The forged ciphertext C0 || 0 || C0 || C1 || ... decrypts to P'0 = D(C0) XOR key and P'2 = D(C0), so
// key = P'0 XOR P'2. The scrambled middle block almost always contains a byte the oracle rejects.
package ivkey

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/codahale/aesbreak/aes"
	"github.com/codahale/aesbreak/attack"
	"github.com/codahale/aesbreak/internal/mem"
	"github.com/codahale/aesbreak/modes"
)

// ErrNoLeak is returned when the oracle accepted the forged message and so leaked nothing.
var ErrNoLeak = errors.New("aesbreak/ivkey: oracle did not leak plaintext")

// An Oracle decrypts a ciphertext and returns its plaintext if it rejected the message, or nil if it accepted it.
type Oracle interface {
	Leak(ciphertext []byte) ([]byte, error)
}

// Func adapts a function to an Oracle.
type Func func(ciphertext []byte) ([]byte, error)

// Leak calls f(ciphertext).
func (f Func) Leak(ciphertext []byte) ([]byte, error) {
	return f(ciphertext)
}

// Recover returns the key, which is also the IV, ciphertext was encrypted under.
func Recover(ctx context.Context, o Oracle, ciphertext []byte, opts ...attack.Option) ([]byte, error) {
	const bs = aes.BlockSize

	options := attack.NewOptions(opts...)
	if len(ciphertext) == 0 || len(ciphertext)%bs != 0 {
		return nil, fmt.Errorf("%w: %d bytes", modes.ErrCiphertextLength, len(ciphertext))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Keeping the original blocks after C0 keeps the final padding intact.
	c0 := ciphertext[:bs]
	forged := slices.Concat(c0, make([]byte, bs), c0, ciphertext[bs:])

	leaked, err := o.Leak(forged)
	if err != nil {
		return nil, attack.OracleError(err)
	}
	if leaked == nil {
		return nil, ErrNoLeak
	}
	if len(leaked) < 3*bs {
		return nil, fmt.Errorf("%w: leaked %d bytes", attack.ErrOracleInconsistent, len(leaked))
	}
	options.Logger.DebugContext(ctx, "oracle leaked plaintext", "len", len(leaked))

	key := make([]byte, bs)
	mem.XOR(key, leaked[:bs], leaked[2*bs:3*bs])
	return key, nil
}
