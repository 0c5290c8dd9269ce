package oracle

import (
	"io"
	"slices"
	"sync"

	"github.com/codahale/aesbreak/modes"
)

// ECBSuffix encrypts attacker input under ECB with a hidden key, sandwiched between a fixed prefix and an unknown
// secret:
//
//	ECB(prefix || input || secret)
type ECBSuffix struct {
	ecb            *modes.ECB
	prefix, secret []byte
}

// NewECBSuffix returns an ECBSuffix server with the given key, prefix, and secret. The prefix may be empty.
func NewECBSuffix(key, prefix, secret []byte) (*ECBSuffix, error) {
	c, err := newCipher(key)
	if err != nil {
		return nil, err
	}
	return &ECBSuffix{
		ecb:    modes.NewECB(c),
		prefix: slices.Clone(prefix),
		secret: slices.Clone(secret),
	}, nil
}

// Encrypt returns ECB(prefix || input || secret).
func (o *ECBSuffix) Encrypt(input []byte) ([]byte, error) {
	msg := make([]byte, 0, len(o.prefix)+len(input)+len(o.secret))
	msg = append(msg, o.prefix...)
	msg = append(msg, input...)
	msg = append(msg, o.secret...)
	return o.ecb.Encrypt(nil, msg)
}

// RandomMode encrypts attacker input under a fresh random key each time, with 5 to 10 random bytes added on either
// side, using ECB or CBC chosen at random. It remembers the last mode it chose so that a guess can be checked.
type RandomMode struct {
	mu   sync.Mutex
	r    io.Reader
	last modes.Kind
}

// NewRandomMode returns a RandomMode server drawing randomness from r, or crypto/rand.Reader if r is nil.
func NewRandomMode(r io.Reader) *RandomMode {
	return &RandomMode{r: r}
}

// Encrypt encrypts input under a random key and mode.
func (o *RandomMode) Encrypt(input []byte) ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	key, err := RandomKey(o.r)
	if err != nil {
		return nil, err
	}
	c, err := newCipher(key)
	if err != nil {
		return nil, err
	}

	msg, err := o.surround(input)
	if err != nil {
		return nil, err
	}

	coin, err := randomIntn(o.r, 2)
	if err != nil {
		return nil, err
	}

	if coin == 0 {
		o.last = modes.KindECB
		return modes.NewECB(c).Encrypt(nil, msg)
	}

	iv, err := RandomBytes(o.r, c.BlockSize())
	if err != nil {
		return nil, err
	}
	cbc, err := modes.NewCBC(c, iv)
	if err != nil {
		return nil, err
	}
	o.last = modes.KindCBC
	return cbc.Encrypt(nil, msg)
}

// Last returns the mode used by the most recent call to Encrypt.
func (o *RandomMode) Last() modes.Kind {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

func (o *RandomMode) surround(input []byte) ([]byte, error) {
	n, err := randomIntn(o.r, 6)
	if err != nil {
		return nil, err
	}
	before, err := RandomBytes(o.r, 5+n)
	if err != nil {
		return nil, err
	}

	if n, err = randomIntn(o.r, 6); err != nil {
		return nil, err
	}
	after, err := RandomBytes(o.r, 5+n)
	if err != nil {
		return nil, err
	}

	return slices.Concat(before, input, after), nil
}
