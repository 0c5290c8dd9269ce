// Package modes implements the ECB, CBC, and CTR block cipher modes of operation over a 16-byte block cipher.
//
// ECB and CBC pad plaintexts with PKCS#7 and strip the padding on decryption; CTR is a stream mode and accepts inputs
// of any length. None of the modes provide authenticity: every one of them is malleable, and ECB is deterministic at
// block granularity.
//
// Encryption and decryption methods append their output to dst and return the resulting slice. To reuse the input's
// storage, pass input[:0] as dst; otherwise the remaining capacity of dst must not overlap the input.
package modes

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidIVLength is returned when a CBC initialization vector is not exactly one block long.
	ErrInvalidIVLength = errors.New("aesbreak/modes: invalid IV length")

	// ErrInvalidNonceLength is returned when a CTR nonce is not exactly NonceSize bytes long.
	ErrInvalidNonceLength = errors.New("aesbreak/modes: invalid nonce length")

	// ErrCiphertextLength is returned when an ECB or CBC ciphertext is empty or not a multiple of the block size.
	ErrCiphertextLength = errors.New("aesbreak/modes: ciphertext length is not a positive multiple of the block size")

	// ErrEditOutOfRange is returned when a CTR edit would extend past the end of the ciphertext.
	ErrEditOutOfRange = errors.New("aesbreak/modes: edit out of range")

	// ErrUnknownKind is returned by ParseKind for unrecognized mode names.
	ErrUnknownKind = errors.New("aesbreak/modes: unknown mode")
)

// A Block is a block cipher operating on single blocks. *aes.Cipher implements it.
type Block interface {
	BlockSize() int
	Encrypt(dst, src []byte) error
	Decrypt(dst, src []byte) error
}

// Kind identifies a mode of operation.
type Kind int

const (
	KindECB Kind = iota
	KindCBC
	KindCTR
)

func (k Kind) String() string {
	switch k {
	case KindECB:
		return "ecb"
	case KindCBC:
		return "cbc"
	case KindCTR:
		return "ctr"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind returns the Kind named by s, ignoring case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "ecb":
		return KindECB, nil
	case "cbc":
		return KindCBC, nil
	case "ctr":
		return KindCTR, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

func checkCiphertext(ciphertext []byte, blockSize int) error {
	if len(ciphertext) == 0 || len(ciphertext)%blockSize != 0 {
		return fmt.Errorf("%w: %d bytes", ErrCiphertextLength, len(ciphertext))
	}
	return nil
}
