package main

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bgallie/filters/ascii85"
	"github.com/bgallie/filters/flate"
	"github.com/bgallie/filters/lines"
	"github.com/bgallie/filters/pem"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/codahale/aesbreak/aes"
	"github.com/codahale/aesbreak/modes"
	"github.com/codahale/aesbreak/oracle"
)

const (
	armorPEM     = "pem"
	armorASCII85 = "ascii85"
	armorNone    = "none"

	pemType = "AESBREAK ENCRYPTED MESSAGE"
)

var (
	errNoKey        = errors.New("no key: use --key, AESBREAK_KEY, or a terminal")
	errUnknownArmor = errors.New("unknown armor")
	errShortMessage = errors.New("message shorter than its IV")
)

// cryptConfig holds the settings shared by encrypt and decrypt.
type cryptConfig struct {
	key      []byte
	iv       []byte
	kind     modes.Kind
	armor    string
	compress bool
}

var encryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "Encrypt a file",
	Long: `Encrypt a file with AES in ECB, CBC, or CTR mode. The IV or nonce, random unless given, is written
before the ciphertext, and the result is armored as PEM (the default) or ASCII85, or left binary.`,
	Args:    cobra.NoArgs,
	PreRunE: bindFlags,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadCryptConfig()
		if err != nil {
			return err
		}
		fin, fout, err := openFiles()
		if err != nil {
			return err
		}
		defer closeFiles(fin, fout)

		return encryptFile(cfg, fin, fout)
	},
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt",
	Short: "Decrypt a file",
	Long: `Decrypt a file written by encrypt. PEM input is detected automatically and its headers supply the
mode and compression; ASCII85 input must be selected with --armor.`,
	Args:    cobra.NoArgs,
	PreRunE: bindFlags,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadCryptConfig()
		if err != nil {
			return err
		}
		fin, fout, err := openFiles()
		if err != nil {
			return err
		}
		defer closeFiles(fin, fout)

		return decryptFile(cfg, fin, fout)
	},
}

func init() {
	rootCmd.AddCommand(encryptCmd, decryptCmd)
	for _, cmd := range []*cobra.Command{encryptCmd, decryptCmd} {
		f := cmd.Flags()
		f.StringP("key", "k", "", "hex-encoded 16, 24, or 32-byte key (prompted for if unset)")
		f.String("iv", "", "hex-encoded CBC IV or CTR nonce (random if unset)")
		f.StringP("mode", "m", "cbc", "mode of operation: ecb, cbc, or ctr")
		f.StringP("armor", "a", armorPEM, "ciphertext encoding: pem, ascii85, or none")
		f.BoolP("compress", "c", false, "compress plaintext with flate before encrypting")
		f.StringP("input", "i", "-", "input file")
		f.StringP("output", "o", "-", "output file")
	}
}

func loadCryptConfig() (cryptConfig, error) {
	var cfg cryptConfig

	kind, err := modes.ParseKind(viper.GetString("mode"))
	if err != nil {
		return cfg, err
	}
	cfg.kind = kind

	if cfg.armor, err = parseArmor(viper.GetString("armor")); err != nil {
		return cfg, err
	}
	cfg.compress = viper.GetBool("compress")

	if cfg.key, err = readKey(); err != nil {
		return cfg, err
	}

	if s := viper.GetString("iv"); s != "" {
		if cfg.iv, err = hex.DecodeString(s); err != nil {
			return cfg, fmt.Errorf("decoding IV: %w", err)
		}
	}
	return cfg, nil
}

// readKey returns the key from the --key flag, AESBREAK_KEY, or the config file, or prompts for it if stdin is a
// terminal.
func readKey() ([]byte, error) {
	s := viper.GetString("key")
	if s == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, "Enter the hex-encoded key: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, err
		}
		s = string(b)
	}
	if s == "" {
		return nil, errNoKey
	}

	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("decoding key: %w", err)
	}
	if _, err := aes.New(key); err != nil {
		return nil, err
	}
	return key, nil
}

func parseArmor(s string) (string, error) {
	switch s = strings.ToLower(s); s {
	case armorPEM, armorASCII85, armorNone:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", errUnknownArmor, s)
	}
}

func openFiles() (fin, fout *os.File, err error) {
	fin, fout = os.Stdin, os.Stdout
	if name := viper.GetString("input"); name != "" && name != "-" {
		if fin, err = os.Open(name); err != nil {
			return nil, nil, err
		}
	}
	if name := viper.GetString("output"); name != "" && name != "-" {
		if fout, err = os.Create(name); err != nil {
			_ = fin.Close()
			return nil, nil, err
		}
	}
	return fin, fout, nil
}

func closeFiles(fin, fout *os.File) {
	if fin != os.Stdin {
		_ = fin.Close()
	}
	if fout != os.Stdout {
		if err := fout.Close(); err != nil {
			log.Error("closing output", "err", err)
		}
	}
}

// encryptFile reads plaintext from fin, compressing it if configured, and writes the armored IV and ciphertext to
// fout.
func encryptFile(cfg cryptConfig, fin *os.File, fout io.Writer) error {
	var src io.Reader = fin
	if cfg.compress {
		src = flate.ToFlate(fin)
	}
	plaintext, err := io.ReadAll(src)
	if err != nil {
		return err
	}

	iv := cfg.iv
	if iv == nil && ivSize(cfg.kind) > 0 {
		if iv, err = oracle.RandomBytes(nil, ivSize(cfg.kind)); err != nil {
			return err
		}
	}

	msg, err := seal(cfg.key, cfg.kind, iv, plaintext)
	if err != nil {
		return err
	}
	log.Debug("encrypted", "mode", cfg.kind, "plaintext", len(plaintext), "message", len(msg))

	switch cfg.armor {
	case armorPEM:
		blck := pem.Block{
			Type: pemType,
			Headers: map[string]string{
				"Mode":        cfg.kind.String(),
				"Compression": strconv.FormatBool(cfg.compress),
			},
		}
		_, err = io.Copy(fout, pem.ToPem(bufio.NewReader(bytes.NewReader(msg)), blck))
	case armorASCII85:
		_, err = io.Copy(fout, lines.SplitToLines(ascii85.ToASCII85(pipe(msg))))
	default:
		_, err = fout.Write(msg)
	}
	return err
}

// decryptFile reads an armored message from fin and writes its plaintext, decompressed if configured, to fout.
func decryptFile(cfg cryptConfig, fin *os.File, fout io.Writer) error {
	bRdr := bufio.NewReader(fin)

	var src io.Reader = bRdr
	if b, err := bRdr.Peek(5); err == nil && string(b) == "-----" {
		pRdr, blck := pem.FromPem(bRdr)
		src = pRdr
		if m, ok := blck.Headers["Mode"]; ok {
			kind, err := modes.ParseKind(m)
			if err != nil {
				return err
			}
			cfg.kind = kind
		}
		if c, ok := blck.Headers["Compression"]; ok {
			cfg.compress = c == "true"
		}
	} else if cfg.armor == armorASCII85 {
		src = ascii85.FromASCII85(lines.CombineLines(bRdr))
	}

	msg, err := io.ReadAll(src)
	if err != nil {
		return err
	}

	plaintext, err := open(cfg.key, cfg.kind, msg)
	if err != nil {
		return err
	}
	log.Debug("decrypted", "mode", cfg.kind, "message", len(msg), "plaintext", len(plaintext))

	if cfg.compress {
		_, err = io.Copy(fout, flate.FromFlate(pipe(plaintext)))
		return err
	}
	_, err = fout.Write(plaintext)
	return err
}

// seal encrypts plaintext and returns the IV or nonce followed by the ciphertext.
func seal(key []byte, kind modes.Kind, iv, plaintext []byte) ([]byte, error) {
	c, err := aes.New(key)
	if err != nil {
		return nil, err
	}

	switch kind {
	case modes.KindECB:
		return modes.NewECB(c).Encrypt(nil, plaintext)
	case modes.KindCBC:
		m, err := modes.NewCBC(c, iv)
		if err != nil {
			return nil, err
		}
		return m.Encrypt(m.IV(), plaintext)
	case modes.KindCTR:
		m, err := modes.NewCTR(c, iv)
		if err != nil {
			return nil, err
		}
		return m.XORKeyStream(bytes.Clone(iv), plaintext)
	default:
		return nil, fmt.Errorf("%w: %v", modes.ErrUnknownKind, kind)
	}
}

// open splits the IV or nonce from msg and decrypts the rest.
func open(key []byte, kind modes.Kind, msg []byte) ([]byte, error) {
	c, err := aes.New(key)
	if err != nil {
		return nil, err
	}

	n := ivSize(kind)
	if len(msg) < n {
		return nil, fmt.Errorf("%w: %d bytes", errShortMessage, len(msg))
	}
	iv, ct := msg[:n], msg[n:]

	switch kind {
	case modes.KindECB:
		return modes.NewECB(c).Decrypt(nil, ct)
	case modes.KindCBC:
		m, err := modes.NewCBC(c, iv)
		if err != nil {
			return nil, err
		}
		return m.Decrypt(nil, ct)
	case modes.KindCTR:
		m, err := modes.NewCTR(c, iv)
		if err != nil {
			return nil, err
		}
		return m.XORKeyStream(nil, ct)
	default:
		return nil, fmt.Errorf("%w: %v", modes.ErrUnknownKind, kind)
	}
}

func ivSize(kind modes.Kind) int {
	switch kind {
	case modes.KindCBC:
		return aes.BlockSize
	case modes.KindCTR:
		return modes.NonceSize
	default:
		return 0
	}
}

// pipe returns a reader which yields b.
func pipe(b []byte) *io.PipeReader {
	r, w := io.Pipe()
	go func() {
		_, err := w.Write(b)
		_ = w.CloseWithError(err)
	}()
	return r
}
