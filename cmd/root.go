package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/chipper/config"
	"github.com/RyanBlaney/chipper/logging"
)

const envPrefix = "CHIPPER"

var configFile string

// flagKeys maps command line flags onto configuration keys
var flagKeys = map[string]string{
	"log-level":           "log_level",
	"workers":             "batch.workers",
	"padding":             "segmentation.padding",
	"high-pass":           "segmentation.high_pass_filter",
	"percent-keep":        "segmentation.percent_signal_keep",
	"min-silence":         "segmentation.min_silence",
	"min-syllable":        "segmentation.min_syllable",
	"window-size":         "sonogram.window_size",
	"hop-size":            "sonogram.hop_size",
	"note-threshold":      "analysis.note_threshold",
	"syllable-similarity": "analysis.syllable_similarity",
	"output-dir":          "output.directory",
	"table":               "output.table",
	"sqlite":              "output.sqlite_dsn",
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chipper",
	Short: "Bird song syllable segmentation and analysis",
	Long: `Chipper segments bird song recordings into syllables and computes
bout, syllable and note statistics from the segmented output.

Typical workflow:
  # segment every recording in a directory
  chipper segment --percent-keep 3 --min-silence 10 ./songs

  # analyze the segmented bouts into a tab separated table
  chipper analyze --note-threshold 60 --syllable-similarity 50 ./songs`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd, viper.GetViper()); err != nil {
			return err
		}
		logging.SetLevel(logging.ParseLevel(viper.GetString("log_level")))
		return nil
	},
}

// Execute adds all child commands to the root command and runs it until
// completion or interrupt
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default is $HOME/.config/chipper/chipper.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().IntP("workers", "w", 0,
		"files processed in parallel (default one per CPU)")
}

// initConfig reads in the config file, .env and environment variables
func initConfig() {
	_ = godotenv.Load()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "chipper"))
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath("/etc/chipper")
		viper.AddConfigPath(".")
		viper.SetConfigName("chipper")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}

// bindFlags binds each cobra flag to its configuration key. Flags left at
// their default never shadow a value from the file or environment.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var errs []error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}

		if f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				errs = append(errs, err)
			}
		}

		envVar := envPrefix + "_" + strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
		if err := v.BindEnv(key, envVar); err != nil {
			errs = append(errs, err)
		}
	})

	return errors.Join(errs...)
}

// loadConfig returns the effective configuration
func loadConfig() (config.Config, error) {
	return config.Load(viper.GetViper())
}
