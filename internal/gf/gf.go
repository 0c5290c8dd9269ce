// Package gf implements the GF(2^8) arithmetic AES is built from: doubling ("xtime"), multiplication, inversion, and the
// S-box and round-constant tables derived from them.
//
// The tables are computed once when the package is initialized and are never modified afterward.
package gf

// Poly is the low byte of the AES reduction polynomial x^8 + x^4 + x^3 + x + 1.
const Poly = 0x1b

var (
	sbox    [256]byte //nolint:gochecknoglobals // computed once, read-only
	invSbox [256]byte //nolint:gochecknoglobals // computed once, read-only
	rcon    [15]byte  //nolint:gochecknoglobals // computed once, read-only
)

func init() {
	for i := range 256 {
		s := affine(Inverse(byte(i)))
		sbox[i] = s
		invSbox[s] = byte(i)
	}

	r := byte(1)
	for i := range rcon {
		rcon[i] = r
		r = Xtime(r)
	}
}

// Xtime multiplies b by x (i.e. 2) in GF(2^8): the byte is doubled and, if its high bit was set, reduced by Poly.
func Xtime(b byte) byte {
	return b<<1 ^ (b>>7)*Poly
}

// Mul multiplies a and b in GF(2^8).
func Mul(a, b byte) byte {
	var p byte
	for b != 0 {
		if b&1 == 1 {
			p ^= a
		}
		a = Xtime(a)
		b >>= 1
	}
	return p
}

// Inverse returns the multiplicative inverse of b in GF(2^8), computed as b^254. Zero maps to zero.
func Inverse(b byte) byte {
	// x^254 using an addition chain of squarings.
	x2 := Mul(b, b)
	x4 := Mul(x2, x2)
	x8 := Mul(x4, x4)
	x16 := Mul(x8, x8)
	x32 := Mul(x16, x16)
	x64 := Mul(x32, x32)
	x128 := Mul(x64, x64)

	res := Mul(x2, x4)
	res = Mul(res, x8)
	res = Mul(res, x16)
	res = Mul(res, x32)
	res = Mul(res, x64)
	return Mul(res, x128)
}

// SubByte returns the AES S-box value for b.
func SubByte(b byte) byte {
	return sbox[b]
}

// InvSubByte returns the inverse AES S-box value for b.
func InvSubByte(b byte) byte {
	return invSbox[b]
}

// Rcon returns the i-th round constant (x^(i-1) in GF(2^8)), for i in [1, 15].
func Rcon(i int) byte {
	return rcon[i-1]
}

func affine(b byte) byte {
	return b ^ rotl(b, 1) ^ rotl(b, 2) ^ rotl(b, 3) ^ rotl(b, 4) ^ 0x63
}

func rotl(b byte, n uint) byte {
	return b<<n | b>>(8-n)
}
