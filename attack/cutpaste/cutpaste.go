// Package cutpaste forges ECB-encrypted records by splicing blocks from different oracle responses.
//
// The oracle encrypts records of the form Before || email || After || role, where the attacker controls only email and
// the role is fixed. ECB encrypts each block independently, so a block holding a padded role value can be taken from
// one response and appended to another whose record ends exactly at After.
package cutpaste

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/codahale/aesbreak/aes"
	"github.com/codahale/aesbreak/attack"
	"github.com/codahale/aesbreak/pkcs7"
)

// ErrUnencodable is returned when the requested role contains a byte the oracle would remove or interpret.
var ErrUnencodable = errors.New("aesbreak/cutpaste: role cannot be encoded")

// defaultReserved are the separators of a key=value&key=value record.
const defaultReserved = "&="

// An Oracle returns the encrypted record for a new user with the given email address.
type Oracle interface {
	Profile(email string) ([]byte, error)
}

// Func adapts a function to an Oracle.
type Func func(email string) ([]byte, error)

// Profile calls f(email).
func (f Func) Profile(email string) ([]byte, error) {
	return f(email)
}

// A Template describes the record an oracle encrypts.
type Template struct {
	Before   string // the fixed text before the email address
	After    string // the fixed text between the email address and the role
	Reserved string // bytes the oracle strips from email addresses; "&=" if empty
}

func (t Template) reserved() string {
	if t.Reserved == "" {
		return defaultReserved
	}
	return t.Reserved
}

// Forge returns a ciphertext which decrypts to Before || email || After || role, for some email address.
//
// It makes two queries. The first email address pushes a padded copy of role to a block boundary, so its ciphertext
// blocks are a valid final block for any record. The second is sized so that After ends on a block boundary; its blocks
// up to that point are followed by the first query's role blocks.
func Forge(ctx context.Context, o Oracle, tmpl Template, role string, opts ...attack.Option) ([]byte, error) {
	const bs = aes.BlockSize

	options := attack.NewOptions(opts...)
	padded := pkcs7.Pad([]byte(role), bs)
	if strings.ContainsAny(string(padded), tmpl.reserved()) {
		return nil, fmt.Errorf("%w: %q", ErrUnencodable, role)
	}

	fill := (bs - len(tmpl.Before)%bs) % bs
	roleStart := len(tmpl.Before) + fill
	ct, err := profile(ctx, o, string(bytes.Repeat([]byte{'A'}, fill))+string(padded))
	if err != nil {
		return nil, err
	}
	if len(ct) < roleStart+len(padded) {
		return nil, fmt.Errorf("%w: role query returned %d bytes", attack.ErrOracleInconsistent, len(ct))
	}
	roleBlocks := ct[roleStart : roleStart+len(padded)]
	options.Logger.DebugContext(ctx, "isolated role blocks", "offset", roleStart, "len", len(padded))

	fill = (bs - (len(tmpl.Before)+len(tmpl.After))%bs) % bs
	head := len(tmpl.Before) + fill + len(tmpl.After)
	ct, err = profile(ctx, o, string(bytes.Repeat([]byte{'A'}, fill)))
	if err != nil {
		return nil, err
	}
	if len(ct) < head {
		return nil, fmt.Errorf("%w: aligned query returned %d bytes", attack.ErrOracleInconsistent, len(ct))
	}
	options.Logger.DebugContext(ctx, "aligned record", "email_len", fill, "head", head)

	forged := make([]byte, 0, head+len(roleBlocks))
	forged = append(forged, ct[:head]...)
	forged = append(forged, roleBlocks...)
	return forged, nil
}

func profile(ctx context.Context, o Oracle, email string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ct, err := o.Profile(email)
	if err != nil {
		return nil, attack.OracleError(err)
	}
	return ct, nil
}
