// Package paddingoracle recovers CBC plaintext from an oracle which only reports whether a ciphertext decrypts to
// validly padded plaintext.
//
// For each ciphertext block C[i], the attack forges a preceding block C' and submits C' || C[i]. The decrypted last
// block is D(C[i]) XOR C', so by fixing the bytes of C' after position j to produce the pad value p = 16 - j and trying
// every value of C'[j], exactly one value yields valid padding. That value reveals D(C[i])[j], and XORing it with the
// real preceding block (or the IV) gives the plaintext byte.
package paddingoracle

import (
	"context"
	"fmt"
	"slices"

	"github.com/codahale/aesbreak/aes"
	"github.com/codahale/aesbreak/attack"
	"github.com/codahale/aesbreak/modes"
	"github.com/codahale/aesbreak/pkcs7"
)

// An Oracle reports whether a CBC ciphertext, decrypted with a fixed key and IV, has valid PKCS#7 padding. A false
// answer is information; an error means the question could not be answered.
type Oracle interface {
	ValidPadding(ciphertext []byte) (bool, error)
}

// Func adapts a function to an Oracle.
type Func func(ciphertext []byte) (bool, error)

// ValidPadding calls f(ciphertext).
func (f Func) ValidPadding(ciphertext []byte) (bool, error) {
	return f(ciphertext)
}

// Recover returns the unpadded plaintext of ciphertext, which was encrypted with the given IV, using only o.
func Recover(ctx context.Context, o Oracle, iv, ciphertext []byte, opts ...attack.Option) ([]byte, error) {
	const bs = aes.BlockSize

	options := attack.NewOptions(opts...)
	if len(iv) != bs {
		return nil, fmt.Errorf("%w: %d", modes.ErrInvalidIVLength, len(iv))
	}
	if len(ciphertext) == 0 || len(ciphertext)%bs != 0 {
		return nil, fmt.Errorf("%w: %d bytes", modes.ErrCiphertextLength, len(ciphertext))
	}

	n := len(ciphertext) / bs
	plaintext := make([]byte, len(ciphertext))
	for i := n - 1; i >= 0; i-- {
		prev := iv
		if i > 0 {
			prev = ciphertext[(i-1)*bs : i*bs]
		}
		cur := ciphertext[i*bs : (i+1)*bs]

		if err := recoverBlock(ctx, o, options, prev, cur, plaintext[i*bs:(i+1)*bs]); err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		options.Logger.DebugContext(ctx, "recovered block", "block", i, "of", n)
	}

	out, err := pkcs7.Unpad(plaintext, bs)
	if err != nil {
		return nil, fmt.Errorf("%w: recovered plaintext: %w", attack.ErrOracleInconsistent, err)
	}
	return out, nil
}

// recoverBlock writes the plaintext of cur, which follows prev, into dst.
func recoverBlock(ctx context.Context, o Oracle, options attack.Options, prev, cur, dst []byte) error {
	bs := len(cur)
	for j := bs - 1; j >= 0; j-- {
		p := byte(bs - j)

		var forged [aes.BlockSize]byte
		for k := j + 1; k < bs; k++ {
			forged[k] = dst[k] ^ prev[k] ^ p
		}

		g, err := options.FindUnique(ctx, func(ctx context.Context, g byte) (bool, error) {
			f := forged
			f[j] = g
			ok, err := query(ctx, o, f[:], cur)
			if err != nil || !ok || j != bs-1 {
				return ok, err
			}

			// A hit on the last byte might have produced \x02\x02 or longer rather than \x01. Changing the second to
			// last byte breaks every padding except \x01.
			f[j-1] ^= 1
			return query(ctx, o, f[:], cur)
		})
		if err != nil {
			return fmt.Errorf("byte %d: %w", j, err)
		}
		dst[j] = g ^ prev[j] ^ p
	}
	return nil
}

func query(ctx context.Context, o Oracle, forged, cur []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := o.ValidPadding(slices.Concat(forged, cur))
	if err != nil {
		return false, attack.OracleError(err)
	}
	return ok, nil
}
