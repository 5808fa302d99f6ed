// Package cli implements the catchat command line client.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	overrideURL  string
	outputFormat string

	appConfig *Config
	failed    bool
)

// errCommandFailed is returned by Execute after a command reported an error.
var errCommandFailed = errors.New("command failed")

// Execute runs the CLI.
func Execute() error {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	failed = false
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	if failed {
		return errCommandFailed
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "catchat",
	Short: "Talk to a Cat Chat SSE server",
	Long: `catchat connects to a Cat Chat SSE server, prints its greeting stream and
checks its health. The server URL comes from --server, the config file, or
defaults to ` + defaultServer + `.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Config commands load/save the file manually.
		if strings.HasPrefix(cmd.CommandPath(), "catchat config") {
			return nil
		}
		var err error
		appConfig, err = LoadConfig(cfgFile)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigPath(), "Path to the catchat config file")
	rootCmd.PersistentFlags().StringVar(&overrideURL, "server", "", "Override server URL")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table|json|yaml")

	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(configCmd)
}

func resolvedServer() string {
	if overrideURL != "" {
		return overrideURL
	}
	if appConfig != nil && appConfig.Server != "" {
		return appConfig.Server
	}
	return defaultServer
}

func newClient() *Client {
	return &Client{
		BaseURL: resolvedServer(),
		Timeout: 15 * time.Second,
	}
}

func exitWithError(cmd *cobra.Command, err error) {
	cmd.SilenceUsage = true
	failed = true
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
}
