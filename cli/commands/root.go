// Package commands implements the CLI command structure using Cobra.
package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/petal-labs/venice"
	"github.com/petal-labs/venice/cli/config"
	"github.com/petal-labs/venice/cli/keystore"
)

var (
	// Global flags
	cfgFile    string
	model      string
	baseURL    string
	jsonOutput bool
	verbose    bool

	// Loaded configuration
	cfg *config.Config
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "venice",
	Short: "Venice - CLI for the Venice AI API",
	Long: `Venice is a command-line interface for the Venice AI API.

Use it to manage API keys, chat with models, and inspect model metadata.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.venice/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "model ID (e.g. llama-3.3-70b)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "API base URL override")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit JSON output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
}

// initConfig reads in config file and sets defaults.
func initConfig() error {
	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	var err error
	cfg, err = config.LoadConfig(path)
	if err != nil {
		return err
	}

	// Apply config defaults if flags not set
	if model == "" && cfg.DefaultModel != "" {
		model = cfg.DefaultModel
	}
	if baseURL == "" && cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}

	return nil
}

// newClient builds an API client from the keystore key and global flags.
// VENICE_API_KEY takes precedence over the keystore so CI environments
// work without a keystore file.
func newClient() (*venice.Client, error) {
	apiKey := os.Getenv(venice.DefaultAPIKeyEnvVar)
	if apiKey == "" {
		ks, err := keystore.NewKeystore()
		if err != nil {
			return nil, fmt.Errorf("failed to open keystore: %w", err)
		}
		apiKey, err = ks.Get(cfg.KeyRef())
		if err != nil {
			if _, ok := err.(*keystore.ErrKeyNotFound); ok {
				return nil, fmt.Errorf("no API key found: run 'venice keys set' or set %s", venice.DefaultAPIKeyEnvVar)
			}
			return nil, fmt.Errorf("failed to read API key: %w", err)
		}
	}

	var opts []venice.Option
	if baseURL != "" {
		opts = append(opts, venice.WithBaseURL(baseURL))
	}
	if cfg.TimeoutSeconds > 0 {
		opts = append(opts, venice.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
	}

	return venice.New(apiKey, opts...), nil
}

// exitError wraps an error with an exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) ExitCode() int {
	return e.code
}

func exitWithCode(code int, err error) error {
	return &exitError{code: code, err: err}
}
