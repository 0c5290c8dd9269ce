// Package detect tells ECB apart from chained modes by looking for repeated ciphertext blocks.
package detect

import (
	"bytes"
	"context"
	"fmt"

	"github.com/codahale/aesbreak/attack"
	"github.com/codahale/aesbreak/modes"
)

// An Oracle encrypts attacker input, possibly wrapped in other data, under an unknown mode.
type Oracle interface {
	Encrypt(input []byte) ([]byte, error)
}

// Func adapts a function to an Oracle.
type Func func(input []byte) ([]byte, error)

// Encrypt calls f(input).
func (f Func) Encrypt(input []byte) ([]byte, error) {
	return f(input)
}

// RepeatedBlocks returns the number of blockSize-byte blocks of ciphertext which are copies of an earlier block. A
// trailing partial block is ignored.
func RepeatedBlocks(ciphertext []byte, blockSize int) int {
	if blockSize <= 0 {
		panic("aesbreak/detect: invalid block size")
	}

	seen := make(map[string]struct{}, len(ciphertext)/blockSize)
	n := 0
	for i := 0; i+blockSize <= len(ciphertext); i += blockSize {
		k := string(ciphertext[i : i+blockSize])
		if _, ok := seen[k]; ok {
			n++
		}
		seen[k] = struct{}{}
	}
	return n
}

// IsECB reports whether ciphertext contains a repeated block.
func IsECB(ciphertext []byte, blockSize int) bool {
	return RepeatedBlocks(ciphertext, blockSize) > 0
}

// MostRepeated returns the index of the ciphertext with the most repeated blocks and that count. It returns -1 if no
// ciphertext has a repeated block.
func MostRepeated(ciphertexts [][]byte, blockSize int) (index, count int) {
	index = -1
	for i, ct := range ciphertexts {
		if n := RepeatedBlocks(ct, blockSize); n > count {
			index, count = i, n
		}
	}
	return index, count
}

// Mode submits three blocks of identical bytes to o and classifies the result. However the input is surrounded, at
// least two whole blocks of it are aligned, and under ECB they encrypt identically. Anything without a repeated block is
// reported as modes.KindCBC.
func Mode(ctx context.Context, o Oracle, opts ...attack.Option) (modes.Kind, error) {
	options := attack.NewOptions(opts...)
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	const blockSize = 16
	ct, err := o.Encrypt(bytes.Repeat([]byte{'A'}, 3*blockSize))
	if err != nil {
		return 0, attack.OracleError(err)
	}

	n := RepeatedBlocks(ct, blockSize)
	options.Logger.DebugContext(ctx, "scored ciphertext", "len", len(ct), "repeated", n)
	if len(ct)%blockSize != 0 {
		return 0, fmt.Errorf("%w: ciphertext length %d", attack.ErrOracleInconsistent, len(ct))
	}
	if n > 0 {
		return modes.KindECB, nil
	}
	return modes.KindCBC, nil
}
