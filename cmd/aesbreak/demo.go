package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/codahale/aesbreak/attack"
	"github.com/codahale/aesbreak/attack/bitflip"
	"github.com/codahale/aesbreak/attack/ctredit"
	"github.com/codahale/aesbreak/attack/cutpaste"
	"github.com/codahale/aesbreak/attack/detect"
	"github.com/codahale/aesbreak/attack/ecbbyte"
	"github.com/codahale/aesbreak/attack/ivkey"
	"github.com/codahale/aesbreak/attack/paddingoracle"
	"github.com/codahale/aesbreak/modes"
	"github.com/codahale/aesbreak/oracle"
)

const defaultSecret = "Rollin' in my 5.0\n" +
	"With my rag-top down so my hair can blow\n" +
	"The girlies on standby waving just to say hi\n" +
	"Did you stop? No, I just drove by\n"

var attackCmd = &cobra.Command{
	Use:   "attack",
	Short: "Run an attack against a simulated server",
	Long: `Run an attack against a simulated server holding a random key. Attacks which recover a secret read it
from --secret-file, or use a built-in text.`,
}

func init() {
	rootCmd.AddCommand(attackCmd)
	attackCmd.PersistentFlags().String("secret-file", "", "file holding the secret the server protects")
	cobra.CheckErr(viper.BindPFlag("secret-file", attackCmd.PersistentFlags().Lookup("secret-file")))

	demos := []struct {
		use, short string
		run        func(ctx context.Context, w io.Writer, secret []byte, opts []attack.Option) error
		flags      func(cmd *cobra.Command)
	}{
		{"ecb-byte", "Recover a secret appended to input by an ECB server", demoECBByte, func(cmd *cobra.Command) {
			cmd.Flags().Int("prefix", 0, "length of the random prefix the server adds")
		}},
		{"padding-oracle", "Decrypt a CBC ciphertext using only padding validity", demoPaddingOracle, nil},
		{"cut-paste", "Forge an ECB-encrypted profile with a chosen role", demoCutPaste, func(cmd *cobra.Command) {
			cmd.Flags().String("role", "admin", "role to forge")
		}},
		{"bit-flip", "Inject ;admin=true; into an encrypted comment", demoBitFlip, func(cmd *cobra.Command) {
			cmd.Flags().StringP("mode", "m", "cbc", "server mode: cbc or ctr")
		}},
		{"detect", "Tell ECB from CBC through a random-mode server", demoDetect, func(cmd *cobra.Command) {
			cmd.Flags().Int("rounds", 20, "number of guesses")
		}},
		{"ctr-edit", "Decrypt a CTR stream through a random-access edit function", demoCTREdit, nil},
		{"iv-key", "Recover a CBC key used as the IV from a leaky server", demoIVKey, nil},
	}

	for _, d := range demos {
		cmd := &cobra.Command{
			Use:     d.use,
			Short:   d.short,
			Args:    cobra.NoArgs,
			PreRunE: bindFlags,
			RunE: func(cmd *cobra.Command, _ []string) error {
				secret, err := readSecret()
				if err != nil {
					return err
				}
				return d.run(cmd.Context(), cmd.OutOrStdout(), secret, attackOptions())
			},
		}
		if d.flags != nil {
			d.flags(cmd)
		}
		attackCmd.AddCommand(cmd)
	}
}

func attackOptions() []attack.Option {
	return []attack.Option{attack.WithLogger(log), attack.WithWorkers(viper.GetInt("workers"))}
}

func readSecret() ([]byte, error) {
	name := viper.GetString("secret-file")
	if name == "" {
		return []byte(defaultSecret), nil
	}
	return os.ReadFile(name)
}

func demoECBByte(ctx context.Context, w io.Writer, secret []byte, opts []attack.Option) error {
	key, err := oracle.RandomKey(nil)
	if err != nil {
		return err
	}
	prefix, err := oracle.RandomBytes(nil, max(0, viper.GetInt("prefix")))
	if err != nil {
		return err
	}
	o, err := oracle.NewECBSuffix(key, prefix, secret)
	if err != nil {
		return err
	}

	recovered, err := ecbbyte.Recover(ctx, o, opts...)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s", recovered)
	return err
}

func demoPaddingOracle(ctx context.Context, w io.Writer, secret []byte, opts []attack.Option) error {
	key, err := oracle.RandomKey(nil)
	if err != nil {
		return err
	}
	iv, err := oracle.RandomBytes(nil, 16)
	if err != nil {
		return err
	}
	s, err := oracle.NewPaddingServer(key, iv)
	if err != nil {
		return err
	}
	ct, err := s.Encrypt(secret)
	if err != nil {
		return err
	}

	recovered, err := paddingoracle.Recover(ctx, s, s.IV(), ct, opts...)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s", recovered)
	return err
}

func demoCutPaste(ctx context.Context, w io.Writer, _ []byte, opts []attack.Option) error {
	key, err := oracle.RandomKey(nil)
	if err != nil {
		return err
	}
	p, err := oracle.NewProfiles(key)
	if err != nil {
		return err
	}

	before, after := p.Layout()
	ct, err := cutpaste.Forge(ctx, p, cutpaste.Template{Before: before, After: after}, viper.GetString("role"), opts...)
	if err != nil {
		return err
	}
	profile, err := p.Parse(ct)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "email=%q uid=%d role=%q\n", profile.Email, profile.UID, profile.Role)
	return err
}

func demoBitFlip(ctx context.Context, w io.Writer, _ []byte, opts []attack.Option) error {
	kind, err := modes.ParseKind(viper.GetString("mode"))
	if err != nil {
		return err
	}
	key, err := oracle.RandomKey(nil)
	if err != nil {
		return err
	}
	iv, err := oracle.RandomBytes(nil, ivSize(kind))
	if err != nil {
		return err
	}
	s, err := oracle.NewComments(kind, key, iv)
	if err != nil {
		return err
	}

	ct, err := bitflip.Inject(ctx, s, kind, []byte(";admin=true;"), opts...)
	if err != nil {
		return err
	}
	admin, err := s.IsAdmin(ct)
	if err != nil {
		return err
	}
	plaintext, err := s.Decrypt(ct)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "admin=%v\n%q\n", admin, plaintext)
	return err
}

func demoDetect(ctx context.Context, w io.Writer, _ []byte, opts []attack.Option) error {
	o := oracle.NewRandomMode(nil)
	rounds, correct := max(1, viper.GetInt("rounds")), 0
	for range rounds {
		guess, err := detect.Mode(ctx, o, opts...)
		if err != nil {
			return err
		}
		if guess == o.Last() {
			correct++
		}
	}
	_, err := fmt.Fprintf(w, "%d/%d correct\n", correct, rounds)
	return err
}

func demoCTREdit(ctx context.Context, w io.Writer, secret []byte, opts []attack.Option) error {
	key, err := oracle.RandomKey(nil)
	if err != nil {
		return err
	}
	nonce, err := oracle.RandomBytes(nil, modes.NonceSize)
	if err != nil {
		return err
	}
	e, err := oracle.NewEditableCTR(key, nonce, secret)
	if err != nil {
		return err
	}

	recovered, err := ctredit.Recover(ctx, e, e.Ciphertext(), opts...)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s", recovered)
	return err
}

func demoIVKey(ctx context.Context, w io.Writer, _ []byte, opts []attack.Option) error {
	key, err := oracle.RandomKey(nil)
	if err != nil {
		return err
	}
	s, err := oracle.NewLeakyComments(key)
	if err != nil {
		return err
	}
	ct, err := s.Encrypt([]byte("nothing to see here"))
	if err != nil {
		return err
	}

	recovered, err := ivkey.Recover(ctx, s, ct, opts...)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "key=%x recovered=%x\n", key, recovered)
	return err
}
