package benchmarks_test

import (
	"fmt"
	"testing"

	"github.com/codahale/aesbreak/aes"
	"github.com/codahale/aesbreak/attack"
	"github.com/codahale/aesbreak/attack/paddingoracle"
	"github.com/codahale/aesbreak/modes"
	"github.com/codahale/aesbreak/oracle"
	"github.com/codahale/aesbreak/pkcs7"
)

func newCipher(b *testing.B, keySize int) *aes.Cipher {
	b.Helper()

	c, err := aes.New(make([]byte, keySize))
	if err != nil {
		b.Fatal(err)
	}
	return c
}

func BenchmarkAESEncrypt(b *testing.B) {
	for _, keySize := range []int{16, 24, 32} {
		b.Run(fmt.Sprint(keySize*8), func(b *testing.B) {
			c := newCipher(b, keySize)
			var block [aes.BlockSize]byte
			b.SetBytes(int64(len(block)))
			b.ReportAllocs()
			for b.Loop() {
				_ = c.Encrypt(block[:], block[:])
			}
		})
	}
}

func BenchmarkAESDecrypt(b *testing.B) {
	for _, keySize := range []int{16, 24, 32} {
		b.Run(fmt.Sprint(keySize*8), func(b *testing.B) {
			c := newCipher(b, keySize)
			var block [aes.BlockSize]byte
			b.SetBytes(int64(len(block)))
			b.ReportAllocs()
			for b.Loop() {
				_ = c.Decrypt(block[:], block[:])
			}
		})
	}
}

func BenchmarkKeySchedule(b *testing.B) {
	key := make([]byte, 32)
	b.ReportAllocs()
	for b.Loop() {
		_, _ = aes.New(key)
	}
}

func BenchmarkECB(b *testing.B) {
	ecb := modes.NewECB(newCipher(b, 16))

	for _, length := range lengths {
		b.Run(length.name, func(b *testing.B) {
			input := make([]byte, length.n)
			output := make([]byte, 0, length.n+aes.BlockSize)
			b.SetBytes(int64(len(input)))
			b.ReportAllocs()
			for b.Loop() {
				_, _ = ecb.Encrypt(output[:0], input)
			}
		})
	}
}

func BenchmarkCBC(b *testing.B) {
	cbc, err := modes.NewCBC(newCipher(b, 16), make([]byte, aes.BlockSize))
	if err != nil {
		b.Fatal(err)
	}

	for _, length := range lengths {
		b.Run(length.name, func(b *testing.B) {
			input := make([]byte, length.n)
			output := make([]byte, 0, length.n+aes.BlockSize)
			b.SetBytes(int64(len(input)))
			b.ReportAllocs()
			for b.Loop() {
				_, _ = cbc.Encrypt(output[:0], input)
			}
		})
	}
}

func BenchmarkCTR(b *testing.B) {
	ctr, err := modes.NewCTR(newCipher(b, 16), make([]byte, modes.NonceSize))
	if err != nil {
		b.Fatal(err)
	}

	for _, length := range lengths {
		b.Run(length.name, func(b *testing.B) {
			input := make([]byte, length.n)
			b.SetBytes(int64(len(input)))
			b.ReportAllocs()
			for b.Loop() {
				_, _ = ctr.XORKeyStream(input[:0], input)
			}
		})
	}
}

func BenchmarkPad(b *testing.B) {
	input := make([]byte, 1000)
	b.SetBytes(int64(len(input)))
	b.ReportAllocs()
	for b.Loop() {
		_ = pkcs7.Pad(input, aes.BlockSize)
	}
}

func BenchmarkPaddingOracle(b *testing.B) {
	s, err := oracle.NewPaddingServer(make([]byte, 16), make([]byte, 16))
	if err != nil {
		b.Fatal(err)
	}
	ct, err := s.Encrypt([]byte("one block of txt"))
	if err != nil {
		b.Fatal(err)
	}

	for _, workers := range []int{1, 4} {
		b.Run(fmt.Sprint("workers=", workers), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := paddingoracle.Recover(b.Context(), s, s.IV(), ct, attack.WithWorkers(workers)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

var lengths = []struct {
	name string
	n    int
}{
	{"16B", 16},
	{"64B", 64},
	{"256B", 256},
	{"1KiB", 1024},
	{"16KiB", 16 * 1024},
}
