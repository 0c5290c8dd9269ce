// Package mem contains byte-slice helpers shared by the cipher modes and attacks.
package mem

import (
	"crypto/subtle"
	"slices"
)

// XOR XORs a and b into dst, which must be at least as long as the shorter of the two. It returns the number of bytes
// written. Uses subtle.XORBytes for slices larger than 16 bytes and a scalar loop for single blocks.
func XOR(dst, a, b []byte) int {
	n := min(len(a), len(b))
	if n > 16 {
		return subtle.XORBytes(dst, a, b)
	}
	for i := range n {
		dst[i] = a[i] ^ b[i]
	}
	return n
}

// SliceForAppend takes a slice and a requested number of bytes. It returns a slice with the contents of the given slice
// followed by that many bytes and a second slice that aliases into it and contains only the extra bytes. If the
// original slice has sufficient capacity, then no allocation is performed.
func SliceForAppend(in []byte, n int) (head, tail []byte) {
	head = slices.Grow(in, n)
	head = head[:len(in)+n]
	tail = head[len(in):]
	return head, tail
}

// Block returns the i-th size-byte block of b. It panics if b has fewer than (i+1)*size bytes.
func Block(b []byte, size, i int) []byte {
	return b[i*size : (i+1)*size : (i+1)*size]
}

// Blocks splits b into size-byte blocks, the last of which may be short. The blocks alias b.
func Blocks(b []byte, size int) [][]byte {
	return slices.Collect(slices.Chunk(b, size))
}

// Clone returns a copy of b which never aliases it, even when b is empty.
func Clone(b []byte) []byte {
	return append(make([]byte, 0, len(b)), b...)
}
