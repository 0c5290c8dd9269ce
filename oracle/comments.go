package oracle

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/codahale/aesbreak/modes"
)

const (
	commentBefore = "comment1=cooking%20MCs;userdata="
	commentAfter  = ";comment2=%20like%20a%20pound%20of%20bacon"
	adminMarker   = ";admin=true;"
)

var commentSanitizer = strings.NewReplacer(";", "", "=", "")

func commentFor(input []byte) []byte {
	return slices.Concat([]byte(commentBefore), []byte(commentSanitizer.Replace(string(input))), []byte(commentAfter))
}

// Comments wraps attacker input in a fixed comment string, removing ';' and '=' from it, and encrypts the result with
// CBC or CTR:
//
//	comment1=cooking%20MCs;userdata=<input>;comment2=%20like%20a%20pound%20of%20bacon
//
// A ciphertext whose plaintext contains ";admin=true;" grants admin rights.
type Comments struct {
	kind modes.Kind
	cbc  *modes.CBC
	ctr  *modes.CTR
}

// NewComments returns a Comments server for the given mode, which must be modes.KindCBC or modes.KindCTR. iv is the
// CBC IV or the CTR nonce.
func NewComments(kind modes.Kind, key, iv []byte) (*Comments, error) {
	c, err := newCipher(key)
	if err != nil {
		return nil, err
	}

	s := &Comments{kind: kind}
	switch kind {
	case modes.KindCBC:
		s.cbc, err = modes.NewCBC(c, iv)
	case modes.KindCTR:
		s.ctr, err = modes.NewCTR(c, iv)
	default:
		err = fmt.Errorf("%w: %v", modes.ErrUnknownKind, kind)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Kind returns the server's mode.
func (s *Comments) Kind() modes.Kind {
	return s.kind
}

// Encrypt returns the encrypted comment string for input.
func (s *Comments) Encrypt(input []byte) ([]byte, error) {
	msg := commentFor(input)
	if s.kind == modes.KindCTR {
		return s.ctr.XORKeyStream(nil, msg)
	}
	return s.cbc.Encrypt(nil, msg)
}

// Decrypt returns the plaintext of an encrypted comment string.
func (s *Comments) Decrypt(ciphertext []byte) ([]byte, error) {
	if s.kind == modes.KindCTR {
		return s.ctr.XORKeyStream(nil, ciphertext)
	}
	return s.cbc.Decrypt(nil, ciphertext)
}

// IsAdmin reports whether the decrypted comment string contains ";admin=true;".
func (s *Comments) IsAdmin(ciphertext []byte) (bool, error) {
	plaintext, err := s.Decrypt(ciphertext)
	if err != nil {
		return false, err
	}
	return bytes.Contains(plaintext, []byte(adminMarker)), nil
}

// InvalidMessageError is returned by LeakyComments.Read when a decrypted message is not ASCII. It carries the whole
// plaintext.
type InvalidMessageError struct {
	Plaintext []byte
}

func (e *InvalidMessageError) Error() string {
	return fmt.Sprintf("aesbreak/oracle: invalid message: %q", e.Plaintext)
}

// LeakyComments is a CBC comment server which uses its key as the IV and, when a message fails its ASCII check, reports
// the offending plaintext in the error.
type LeakyComments struct {
	cbc *modes.CBC
}

// NewLeakyComments returns a LeakyComments server with the given key, which is also its IV.
func NewLeakyComments(key []byte) (*LeakyComments, error) {
	c, err := newCipher(key)
	if err != nil {
		return nil, err
	}
	cbc, err := modes.NewCBC(c, key)
	if err != nil {
		return nil, err
	}
	return &LeakyComments{cbc: cbc}, nil
}

// Encrypt returns the encrypted comment string for input.
func (s *LeakyComments) Encrypt(input []byte) ([]byte, error) {
	return s.cbc.Encrypt(nil, commentFor(input))
}

// Read decrypts a comment string. If the plaintext contains any byte of 0x80 or above, it returns an
// *InvalidMessageError.
func (s *LeakyComments) Read(ciphertext []byte) ([]byte, error) {
	plaintext, err := s.cbc.Decrypt(nil, ciphertext)
	if err != nil {
		return nil, err
	}
	if slices.ContainsFunc(plaintext, func(b byte) bool { return b >= 0x80 }) {
		return nil, &InvalidMessageError{Plaintext: plaintext}
	}
	return plaintext, nil
}

// Leak calls Read and returns the plaintext carried by an *InvalidMessageError, or nil if the message was accepted.
// Other errors are returned as-is.
func (s *LeakyComments) Leak(ciphertext []byte) ([]byte, error) {
	_, err := s.Read(ciphertext)
	var e *InvalidMessageError
	if errors.As(err, &e) {
		return e.Plaintext, nil
	}
	return nil, err
}
