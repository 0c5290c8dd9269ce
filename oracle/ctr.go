package oracle

import (
	"github.com/codahale/aesbreak/modes"
)

// EditableCTR holds a CTR-encrypted document and lets callers overwrite any part of its plaintext, returning the new
// ciphertext. The stored document itself never changes.
type EditableCTR struct {
	ctr        *modes.CTR
	ciphertext []byte
}

// NewEditableCTR encrypts plaintext with the given key and nonce.
func NewEditableCTR(key, nonce, plaintext []byte) (*EditableCTR, error) {
	c, err := newCipher(key)
	if err != nil {
		return nil, err
	}
	ctr, err := modes.NewCTR(c, nonce)
	if err != nil {
		return nil, err
	}
	ciphertext, err := ctr.XORKeyStream(nil, plaintext)
	if err != nil {
		return nil, err
	}
	return &EditableCTR{ctr: ctr, ciphertext: ciphertext}, nil
}

// Ciphertext returns a copy of the encrypted document.
func (e *EditableCTR) Ciphertext() []byte {
	return append([]byte(nil), e.ciphertext...)
}

// Edit returns the ciphertext of the document with the plaintext at offset replaced by newtext.
func (e *EditableCTR) Edit(offset int, newtext []byte) ([]byte, error) {
	return e.ctr.Edit(e.ciphertext, offset, newtext)
}
