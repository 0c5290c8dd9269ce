package cutpaste

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/codahale/aesbreak/attack"
	"github.com/codahale/aesbreak/internal/testdata"
	"github.com/codahale/aesbreak/oracle"
)

func newProfiles(t *testing.T) (*oracle.Profiles, Template) {
	t.Helper()

	p, err := oracle.NewProfiles(testdata.New("aesbreak cutpaste key").Data(16))
	if err != nil {
		t.Fatal(err)
	}
	before, after := p.Layout()
	return p, Template{Before: before, After: after}
}

func TestForge(t *testing.T) {
	p, tmpl := newProfiles(t)

	for _, role := range []string{"admin", "", "root", "superuser-with-a-long-role-name"} {
		t.Run(role, func(t *testing.T) {
			ct, err := Forge(t.Context(), p, tmpl, role)
			if err != nil {
				t.Fatal(err)
			}

			got, err := p.Parse(ct)
			if err != nil {
				t.Fatal(err)
			}
			if want := role; got.Role != want {
				t.Errorf("Role = %q, want = %q", got.Role, want)
			}
			if want := 10; got.UID != want {
				t.Errorf("UID = %d, want = %d", got.UID, want)
			}
		})
	}
}

func TestForgeTemplates(t *testing.T) {
	tests := []Template{
		{Before: "", After: "&role="},
		{Before: "email=0123456789", After: "&role="},
		{Before: "e=", After: "&uid=100000000000000&role="},
	}

	for _, tmpl := range tests {
		ecb, err := oracle.NewECBSuffix(testdata.New("aesbreak cutpaste templates").Data(16), nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		o := Func(func(email string) ([]byte, error) {
			return ecb.Encrypt([]byte(tmpl.Before + email + tmpl.After + "user"))
		})

		ct, err := Forge(t.Context(), o, tmpl, "admin")
		if err != nil {
			t.Fatal(err)
		}

		// Under ECB, the splice is indistinguishable from an honest encryption of the forged record.
		want, err := ecb.Encrypt([]byte(tmpl.Before + "AAAAAAAAAAAAAAAA"[:len(ct)-len(tmpl.Before)-len(tmpl.After)-16] +
			tmpl.After + "admin"))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(ct, want) {
			t.Errorf("Forge(%+v) = %x, want = %x", tmpl, ct, want)
		}
	}
}

func TestForgeUnencodable(t *testing.T) {
	p, tmpl := newProfiles(t)

	for _, role := range []string{"admin&uid=0", "a=b"} {
		if _, err := Forge(t.Context(), p, tmpl, role); !errors.Is(err, ErrUnencodable) {
			t.Errorf("Forge(%q) err = %v, want = %v", role, err, ErrUnencodable)
		}
	}

	tmpl.Reserved = "x"
	if _, err := Forge(t.Context(), p, tmpl, "xyzzy"); !errors.Is(err, ErrUnencodable) {
		t.Errorf("Forge(reserved x) err = %v, want = %v", err, ErrUnencodable)
	}
}

func TestForgeOracleError(t *testing.T) {
	p, tmpl := newProfiles(t)
	boom := errors.New("boom")

	for _, failAt := range []int{1, 2} {
		calls := 0
		_, err := Forge(t.Context(), Func(func(email string) ([]byte, error) {
			calls++
			if calls == failAt {
				return nil, boom
			}
			return p.Profile(email)
		}), tmpl, "admin")
		if !errors.Is(err, attack.ErrOracle) || !errors.Is(err, boom) {
			t.Errorf("Forge(fail at %d) err = %v, want = %v wrapping %v", failAt, err, attack.ErrOracle, boom)
		}
	}
}

func TestForgeInconsistent(t *testing.T) {
	_, tmpl := newProfiles(t)

	_, err := Forge(t.Context(), Func(func(string) ([]byte, error) {
		return make([]byte, 16), nil
	}), tmpl, "admin")
	if !errors.Is(err, attack.ErrOracleInconsistent) {
		t.Errorf("Forge() err = %v, want = %v", err, attack.ErrOracleInconsistent)
	}
}

func TestForgeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	p, tmpl := newProfiles(t)
	if _, err := Forge(ctx, p, tmpl, "admin"); !errors.Is(err, context.Canceled) {
		t.Errorf("Forge() err = %v, want = %v", err, context.Canceled)
	}
}
