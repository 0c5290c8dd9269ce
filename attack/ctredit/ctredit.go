// Package ctredit recovers the plaintext of a CTR ciphertext from an oracle which lets the caller overwrite part of the
// plaintext and returns the re-encrypted stream.
//
// Editing reuses the keystream at the edited offset, so writing zeros returns the keystream itself.
package ctredit

import (
	"context"
	"fmt"

	"github.com/codahale/aesbreak/attack"
	"github.com/codahale/aesbreak/internal/mem"
)

// An Oracle replaces the plaintext at offset with newtext and returns the new ciphertext of the whole document.
type Oracle interface {
	Edit(offset int, newtext []byte) ([]byte, error)
}

// Func adapts a function to an Oracle.
type Func func(offset int, newtext []byte) ([]byte, error)

// Edit calls f(offset, newtext).
func (f Func) Edit(offset int, newtext []byte) ([]byte, error) {
	return f(offset, newtext)
}

// chunkSize is the largest edit submitted in one oracle call.
const chunkSize = 4096

// Recover returns the plaintext of ciphertext, the document o holds.
func Recover(ctx context.Context, o Oracle, ciphertext []byte, opts ...attack.Option) ([]byte, error) {
	options := attack.NewOptions(opts...)

	plaintext := make([]byte, len(ciphertext))
	zeros := make([]byte, min(chunkSize, len(ciphertext)))
	for offset := 0; offset < len(ciphertext); offset += chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n := min(chunkSize, len(ciphertext)-offset)
		edited, err := o.Edit(offset, zeros[:n])
		if err != nil {
			return nil, attack.OracleError(err)
		}
		if len(edited) != len(ciphertext) {
			return nil, fmt.Errorf("%w: edit returned %d bytes, want %d", attack.ErrOracleInconsistent, len(edited),
				len(ciphertext))
		}

		mem.XOR(plaintext[offset:offset+n], ciphertext[offset:offset+n], edited[offset:offset+n])
		options.Logger.DebugContext(ctx, "recovered keystream", "offset", offset, "len", n)
	}
	return plaintext, nil
}
