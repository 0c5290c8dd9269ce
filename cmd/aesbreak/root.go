package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version is set at build time.
var Version = "dev"

var (
	cfgFile string
	log     = slog.New(slog.DiscardHandler)
)

var rootCmd = &cobra.Command{
	Use:   "aesbreak",
	Short: "AES, its modes of operation, and the oracle attacks which break them",
	Long: `aesbreak encrypts and decrypts files with a from-scratch AES in ECB, CBC, or CTR mode, and runs
demonstrations of byte-at-a-time ECB decryption, CBC padding oracles, ECB cut-and-paste, CBC and
CTR bit-flipping, and related attacks against simulated servers.`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		log = newLogger(cmd.ErrOrStderr(), viper.GetBool("verbose"))
		if f := viper.ConfigFileUsed(); f != "" {
			log.Debug("using config file", "path", f)
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.aesbreak.yaml)")
	pf.BoolP("verbose", "v", false, "log attack progress to stderr")
	pf.Int("workers", runtime.GOMAXPROCS(0), "goroutines used for each 256-way candidate search")
	cobra.CheckErr(viper.BindPFlags(pf))
}

// initConfig reads in the config file and AESBREAK_* environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".aesbreak")
	}

	viper.SetEnvPrefix("aesbreak")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			cobra.CheckErr(fmt.Errorf("reading config: %w", err))
		}
	}
}

// bindFlags binds the running command's local flags into viper, so that a flag, an AESBREAK_* variable, or a config
// entry can supply each setting. encrypt and decrypt share flag names, so only the running command may bind them.
func bindFlags(cmd *cobra.Command, _ []string) error {
	var err error
	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if err == nil {
			err = viper.BindPFlag(f.Name, f)
		}
	})
	return err
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
