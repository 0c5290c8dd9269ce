// Package testdata provides a deterministic random bit generator for seeding tests, fuzz corpora, and benchmarks.
package testdata

import (
	"crypto/sha3"
)

// DRBG is a SHAKE128-based deterministic random bit generator. It is not safe for concurrent use.
type DRBG struct {
	h *sha3.SHAKE
}

// New returns a DRBG whose output is a function of the given domain string.
func New(domain string) *DRBG {
	h := sha3.NewSHAKE128()
	_, _ = h.Write([]byte(domain))
	return &DRBG{h: h}
}

// Read fills p with pseudorandom bytes. It never returns an error.
func (d *DRBG) Read(p []byte) (int, error) {
	return d.h.Read(p)
}

// Data returns n pseudorandom bytes.
func (d *DRBG) Data(n int) []byte {
	b := make([]byte, n)
	_, _ = d.h.Read(b)
	return b
}

// Intn returns a pseudorandom int in [0, n). It panics if n <= 0.
func (d *DRBG) Intn(n int) int {
	if n <= 0 {
		panic("testdata: invalid argument to Intn")
	}
	b := d.Data(8)
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return int(v % uint64(n))
}
