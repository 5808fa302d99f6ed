package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
}

var configSetServerCmd = &cobra.Command{
	Use:   "set-server <url>",
	Short: "Save the default server URL",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		u, err := url.ParseRequestURI(args[0])
		if err != nil || u.Host == "" {
			exitWithError(cmd, fmt.Errorf("invalid server URL %q", args[0]))
			return
		}
		cfg, err := LoadConfig(cfgFile)
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		cfg.Server = args[0]
		if err := SaveConfig(cfg, cfgFile); err != nil {
			exitWithError(cmd, err)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Server set to %s.\n", args[0])
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show the configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := LoadConfig(cfgFile)
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		out := cmd.OutOrStdout()
		switch outputFormat {
		case "json":
			_ = printJSON(out, cfg)
		case "yaml":
			_ = printYAML(out, cfg)
		default:
			server := cfg.Server
			if server == "" {
				server = defaultServer + " (default)"
			}
			fmt.Fprintf(out, "Config file: %s\n", cfgFile)
			fmt.Fprintf(out, "Server: %s\n", server)
		}
	},
}

func init() {
	configCmd.AddCommand(configSetServerCmd)
	configCmd.AddCommand(configViewCmd)
}
