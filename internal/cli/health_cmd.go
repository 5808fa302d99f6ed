package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the server is up",
	Run: func(cmd *cobra.Command, args []string) {
		var health Health
		if err := newClient().GetJSON(cmd.Context(), "/", &health); err != nil {
			exitWithError(cmd, err)
			return
		}

		out := cmd.OutOrStdout()
		switch outputFormat {
		case "json":
			_ = printJSON(out, health)
		case "yaml":
			_ = printYAML(out, health)
		default:
			tw := newTable(out)
			fmt.Fprintf(tw, "Field\tValue\n")
			fmt.Fprintf(tw, "Server\t%s\n", resolvedServer())
			fmt.Fprintf(tw, "Status\t%s\n", health.Status)
			fmt.Fprintf(tw, "Message\t%s\n", health.Message)
			flushTable(tw)
		}
	},
}
