// Package bitflip injects chosen plaintext into CBC and CTR ciphertexts without the key.
//
// In CBC, plaintext block i is D(C[i]) XOR C[i-1], so XORing a difference into C[i-1] applies the same difference to
// plaintext block i and scrambles plaintext block i-1. In CTR, plaintext is ciphertext XOR keystream, so a difference
// XORed into the ciphertext appears at the same offset of the plaintext and nowhere else.
package bitflip

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/codahale/aesbreak/aes"
	"github.com/codahale/aesbreak/attack"
	"github.com/codahale/aesbreak/internal/mem"
	"github.com/codahale/aesbreak/modes"
)

var (
	// ErrFirstBlock is returned when a CBC flip targets the first block, which has no preceding ciphertext block.
	ErrFirstBlock = errors.New("aesbreak/bitflip: cannot flip the first CBC block")

	// ErrOutOfRange is returned when a flip extends past the end of the ciphertext.
	ErrOutOfRange = errors.New("aesbreak/bitflip: flip out of range")

	// ErrPayloadTooLong is returned when a CBC payload does not fit in a single block.
	ErrPayloadTooLong = errors.New("aesbreak/bitflip: payload longer than a block")
)

const bs = aes.BlockSize

// An Oracle encrypts attacker input wrapped in fixed data, under a fixed key and IV or nonce.
type Oracle interface {
	Encrypt(input []byte) ([]byte, error)
}

// Func adapts a function to an Oracle.
type Func func(input []byte) ([]byte, error)

// Encrypt calls f(input).
func (f Func) Encrypt(input []byte) ([]byte, error) {
	return f(input)
}

// CBC returns a copy of ciphertext in which the plaintext known, at the given absolute plaintext offset, decrypts as
// want instead. The block before the one being changed decrypts to garbage, so offset must be at least one block in,
// and the changed region should not span a block boundary. It panics if known and want differ in length.
func CBC(ciphertext []byte, offset int, known, want []byte) ([]byte, error) {
	checkLengths(known, want)
	if offset < bs {
		return nil, fmt.Errorf("%w: offset %d", ErrFirstBlock, offset)
	}
	if err := checkRange(ciphertext, offset, len(known)); err != nil {
		return nil, err
	}
	return flip(ciphertext, offset-bs, known, want), nil
}

// CTR returns a copy of ciphertext in which the plaintext known, at the given absolute offset, decrypts as want
// instead. No other byte changes. It panics if known and want differ in length.
func CTR(ciphertext []byte, offset int, known, want []byte) ([]byte, error) {
	checkLengths(known, want)
	if err := checkRange(ciphertext, offset, len(known)); err != nil {
		return nil, err
	}
	return flip(ciphertext, offset, known, want), nil
}

// PrefixLen returns the offset at which o places attacker input in its plaintext.
//
// In CTR, the first ciphertext byte which differs between the inputs "A" and "B" is at the prefix length. In CBC, the
// first differing block contains the start of the input; growing a run of identical bytes until a differing final byte
// no longer changes that block gives the offset within it.
func PrefixLen(ctx context.Context, o Oracle, kind modes.Kind) (int, error) {
	a, err := encrypt(ctx, o, []byte("A"))
	if err != nil {
		return 0, err
	}
	b, err := encrypt(ctx, o, []byte("B"))
	if err != nil {
		return 0, err
	}
	d := firstDiff(a, b)
	if d < 0 {
		return 0, fmt.Errorf("%w: input does not affect ciphertext", attack.ErrOracleInconsistent)
	}

	switch kind {
	case modes.KindCTR:
		return d, nil
	case modes.KindCBC:
	default:
		return 0, fmt.Errorf("%w: %v", modes.ErrUnknownKind, kind)
	}

	first := d / bs
	for n := 1; n <= bs; n++ {
		run := bytes.Repeat([]byte{'A'}, n)
		x, err := encrypt(ctx, o, append(run, 'X'))
		if err != nil {
			return 0, err
		}
		y, err := encrypt(ctx, o, append(run, 'Y'))
		if err != nil {
			return 0, err
		}
		if d := firstDiff(x, y); d < 0 || d/bs > first {
			return first*bs + bs - n, nil
		}
	}
	return 0, fmt.Errorf("%w: block %d never stabilized", attack.ErrOracleInconsistent, first)
}

// Inject returns a ciphertext from o whose plaintext contains want at the position of the attacker's input.
//
// It submits placeholder bytes of the same length, which the oracle has no reason to filter, and flips them into want.
// In CBC the placeholder is preceded by enough filler to align it and one sacrificial block, and want must fit in a
// single block.
func Inject(ctx context.Context, o Oracle, kind modes.Kind, want []byte, opts ...attack.Option) ([]byte, error) {
	options := attack.NewOptions(opts...)
	if kind == modes.KindCBC && len(want) > bs {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLong, len(want))
	}

	prefixLen, err := PrefixLen(ctx, o, kind)
	if err != nil {
		return nil, err
	}
	options.Logger.DebugContext(ctx, "found input offset", "kind", kind, "offset", prefixLen)

	placeholder := bytes.Repeat([]byte{'A'}, len(want))
	if kind == modes.KindCTR {
		ct, err := encrypt(ctx, o, placeholder)
		if err != nil {
			return nil, err
		}
		return CTR(ct, prefixLen, placeholder, want)
	}

	align := (bs - prefixLen%bs) % bs
	input := bytes.Repeat([]byte{'A'}, align+bs+len(want))
	ct, err := encrypt(ctx, o, input)
	if err != nil {
		return nil, err
	}
	return CBC(ct, prefixLen+align+bs, placeholder, want)
}

func flip(ciphertext []byte, at int, known, want []byte) []byte {
	out := mem.Clone(ciphertext)
	for i := range known {
		out[at+i] ^= known[i] ^ want[i]
	}
	return out
}

func checkLengths(known, want []byte) {
	if len(known) != len(want) {
		panic("aesbreak/bitflip: known and want have different lengths")
	}
}

func checkRange(ciphertext []byte, offset, n int) error {
	if offset < 0 || offset > len(ciphertext) || n > len(ciphertext)-offset {
		return fmt.Errorf("%w: offset=%d len=%d size=%d", ErrOutOfRange, offset, n, len(ciphertext))
	}
	return nil
}

func firstDiff(a, b []byte) int {
	for i := range min(len(a), len(b)) {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return min(len(a), len(b))
	}
	return -1
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
