// Package pkcs7 implements PKCS#7 padding (RFC 5652, Section 6.3).
package pkcs7

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidPadding is returned when data does not end in well-formed PKCS#7 padding for the block size.
var ErrInvalidPadding = errors.New("aesbreak/pkcs7: invalid padding")

// Pad returns a copy of data followed by between 1 and blockSize padding bytes, each equal to the number of bytes
// added. Data which is already block-aligned gets a full block of padding.
//
// Pad panics if blockSize is not in [1, 255].
func Pad(data []byte, blockSize int) []byte {
	checkBlockSize(blockSize)
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data), len(data)+n)
	copy(out, data)
	for range n {
		out = append(out, byte(n))
	}
	return out
}

// Unpad returns data without its PKCS#7 padding. The result aliases data.
//
// Unpad returns ErrInvalidPadding if data is empty, if the last byte is zero or greater than blockSize or len(data), or
// if the trailing bytes do not all equal the last byte. It panics if blockSize is not in [1, 255].
func Unpad(data []byte, blockSize int) ([]byte, error) {
	checkBlockSize(blockSize)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidPadding)
	}

	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, fmt.Errorf("%w: pad length %d", ErrInvalidPadding, n)
	}

	if slices.ContainsFunc(data[len(data)-n:], func(b byte) bool { return int(b) != n }) {
		return nil, fmt.Errorf("%w: malformed pad bytes", ErrInvalidPadding)
	}

	return data[:len(data)-n], nil
}

// Valid returns true if data ends in well-formed padding for blockSize.
func Valid(data []byte, blockSize int) bool {
	_, err := Unpad(data, blockSize)
	return err == nil
}

func checkBlockSize(blockSize int) {
	if blockSize < 1 || blockSize > 255 {
		panic("aesbreak/pkcs7: block size must be in [1, 255]")
	}
}
