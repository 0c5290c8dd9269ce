package oracle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/codahale/aesbreak/modes"
)

const (
	profileBefore = "email="
	profileAfter  = "&uid=10&role="
	profileUID    = 10
	profileRole   = "user"
)

var profileSanitizer = strings.NewReplacer("&", "", "=", "")

// A Profile is a decoded user record.
type Profile struct {
	Email string
	UID   int
	Role  string
}

// Profiles issues ECB-encrypted user records of the form
//
//	email=<email>&uid=10&role=user
//
// with '&' and '=' removed from the email address.
type Profiles struct {
	ecb *modes.ECB
}

// NewProfiles returns a Profiles server with the given key.
func NewProfiles(key []byte) (*Profiles, error) {
	c, err := newCipher(key)
	if err != nil {
		return nil, err
	}
	return &Profiles{ecb: modes.NewECB(c)}, nil
}

// Layout returns the fixed text which precedes the email address and the fixed text between the email address and
// the role.
func (p *Profiles) Layout() (before, after string) {
	return profileBefore, profileAfter
}

// Profile returns the encrypted record for a new user with the given email address.
func (p *Profiles) Profile(email string) ([]byte, error) {
	return p.ecb.Encrypt(nil, []byte(Encode(email, profileUID, profileRole)))
}

// Parse decrypts and decodes a record.
func (p *Profiles) Parse(ciphertext []byte) (Profile, error) {
	plaintext, err := p.ecb.Decrypt(nil, ciphertext)
	if err != nil {
		return Profile{}, err
	}
	return Decode(string(plaintext))
}

// Encode returns the record for the given fields, removing '&' and '=' from email.
func Encode(email string, uid int, role string) string {
	return profileBefore + profileSanitizer.Replace(email) + "&uid=" + strconv.Itoa(uid) + "&role=" + role
}

// Decode parses a record. Unknown keys are ignored; email, uid, and role are required.
func Decode(s string) (Profile, error) {
	fields := make(map[string]string)
	for pair := range strings.SplitSeq(s, "&") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return Profile{}, fmt.Errorf("%w: %q", ErrMalformedProfile, pair)
		}
		fields[k] = v
	}

	email, ok := fields["email"]
	if !ok {
		return Profile{}, fmt.Errorf("%w: no email", ErrMalformedProfile)
	}
	role, ok := fields["role"]
	if !ok {
		return Profile{}, fmt.Errorf("%w: no role", ErrMalformedProfile)
	}
	uid, err := strconv.Atoi(fields["uid"])
	if err != nil {
		return Profile{}, fmt.Errorf("%w: uid: %w", ErrMalformedProfile, err)
	}
	return Profile{Email: email, UID: uid, Role: role}, nil
}
