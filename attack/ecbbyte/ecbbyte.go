// Package ecbbyte recovers a secret which an ECB oracle appends to attacker input, one byte at a time.
//
// The oracle computes ECB(prefix || input || secret) for a fixed unknown prefix, possibly empty, and a fixed unknown
// secret. Probe learns the block size, the prefix length, and the secret length from ciphertext lengths and repeated
// blocks. Recover then aligns each unknown secret byte at the end of a block whose other bytes are known, and finds it by
// matching that block against all 256 possible completions.
package ecbbyte

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/codahale/aesbreak/attack"
)

// ErrNotECB is returned when the oracle never produces two identical blocks for identical input blocks.
var ErrNotECB = errors.New("aesbreak/ecbbyte: oracle does not use ECB")

// maxBlockSize bounds the search for a growth in ciphertext length. PKCS#7 cannot pad blocks larger than this.
const maxBlockSize = 255

// An Oracle encrypts prefix || input || secret with ECB under a fixed key.
type Oracle interface {
	Encrypt(input []byte) ([]byte, error)
}

// Func adapts a function to an Oracle.
type Func func(input []byte) ([]byte, error)

// Encrypt calls f(input).
func (f Func) Encrypt(input []byte) ([]byte, error) {
	return f(input)
}

// Params are the properties of an oracle learned by Probe.
type Params struct {
	BlockSize int // the cipher's block size
	PrefixLen int // the length of the fixed data before the attacker's input
	SecretLen int // the length of the secret after the attacker's input
}

// Probe learns the block size, prefix length, and secret length of o.
//
// The ciphertext length only grows when prefix, filler, and secret together fill a whole block, so the first filler
// length n at which it grows gives both the block size (the size of the jump) and the total length of prefix and secret
// (the initial ciphertext length minus n). The prefix length comes from the shortest filler which yields two adjacent
// identical blocks, checked with two different filler bytes so that a prefix ending in, or a secret starting with, the
// filler byte cannot shift the result.
func Probe(ctx context.Context, o Oracle, opts ...attack.Option) (Params, error) {
	options := attack.NewOptions(opts...)

	base, err := encrypt(ctx, o, nil)
	if err != nil {
		return Params{}, err
	}
	initial := len(base)

	var p Params
	total := -1
	for n := 1; n <= maxBlockSize; n++ {
		ct, err := encrypt(ctx, o, filler('A', n))
		if err != nil {
			return Params{}, err
		}
		if len(ct) > initial {
			p.BlockSize = len(ct) - initial
			total = initial - n
			break
		}
	}
	if total < 0 || p.BlockSize < 2 || initial%p.BlockSize != 0 {
		return Params{}, fmt.Errorf("%w: no consistent block size", attack.ErrOracleInconsistent)
	}
	options.Logger.DebugContext(ctx, "found block size", "block_size", p.BlockSize, "total", total)

	p.PrefixLen = -1
	bs := p.BlockSize
	for n := 2 * bs; n < 3*bs; n++ {
		a, err := encrypt(ctx, o, filler('A', n))
		if err != nil {
			return Params{}, err
		}
		b, err := encrypt(ctx, o, filler('B', n))
		if err != nil {
			return Params{}, err
		}
		if k := fillerPair(a, b, bs); k >= 0 {
			p.PrefixLen = (k+2)*bs - n
			break
		}
	}
	if p.PrefixLen < 0 {
		return Params{}, ErrNotECB
	}

	p.SecretLen = total - p.PrefixLen
	if p.SecretLen < 0 {
		return Params{}, fmt.Errorf("%w: prefix of %d bytes exceeds content of %d bytes", attack.ErrOracleInconsistent,
			p.PrefixLen, total)
	}
	options.Logger.DebugContext(ctx, "probed oracle", "prefix_len", p.PrefixLen, "secret_len", p.SecretLen)
	return p, nil
}

// Recover returns the secret o appends to its input.
func Recover(ctx context.Context, o Oracle, opts ...attack.Option) ([]byte, error) {
	options := attack.NewOptions(opts...)

	p, err := Probe(ctx, o, opts...)
	if err != nil {
		return nil, err
	}

	bs := p.BlockSize
	align := (bs - p.PrefixLen%bs) % bs
	first := (p.PrefixLen + align) / bs

	secret := make([]byte, 0, p.SecretLen)
	for i := 1; i <= p.SecretLen; i++ {
		// Push secret byte i-1 to the last position of its block.
		pad := filler('A', align+(bs-i%bs)%bs)
		target := first + (i-1)/bs

		ref, err := encrypt(ctx, o, pad)
		if err != nil {
			return nil, err
		}
		want := block(ref, bs, target)
		if want == nil {
			return nil, fmt.Errorf("%w: ciphertext too short for block %d", attack.ErrOracleInconsistent, target)
		}

		known := slices.Concat(pad, secret)
		b, err := options.FindUnique(ctx, func(ctx context.Context, c byte) (bool, error) {
			ct, err := encrypt(ctx, o, append(slices.Clip(known), c))
			if err != nil {
				return false, err
			}
			return bytes.Equal(block(ct, bs, target), want), nil
		})
		if err != nil {
			return nil, fmt.Errorf("secret byte %d: %w", i-1, err)
		}
		secret = append(secret, b)

		if i%bs == 0 || i == p.SecretLen {
			options.Logger.DebugContext(ctx, "recovered block", "block", (i-1)/bs, "recovered", len(secret))
		}
	}
	return secret, nil
}

func encrypt(ctx context.Context, o Oracle, input []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ct, err := o.Encrypt(input)
	if err != nil {
		return nil, attack.OracleError(err)
	}
	return ct, nil
}

// fillerPair returns the index of the first pair of adjacent identical blocks which appears at the same place in both
// ciphertexts and differs between them, or -1 if there is none.
func fillerPair(a, b []byte, bs int) int {
	for k := 0; (k+2)*bs <= min(len(a), len(b)); k++ {
		a0, a1 := block(a, bs, k), block(a, bs, k+1)
		b0, b1 := block(b, bs, k), block(b, bs, k+1)
		if bytes.Equal(a0, a1) && bytes.Equal(b0, b1) && !bytes.Equal(a0, b0) {
			return k
		}
	}
	return -1
}

// block returns the i-th block of b, or nil if b is too short.
func block(b []byte, bs, i int) []byte {
	if (i+1)*bs > len(b) {
		return nil
	}
	return b[i*bs : (i+1)*bs]
}

func filler(c byte, n int) []byte {
	return bytes.Repeat([]byte{c}, n)
}
