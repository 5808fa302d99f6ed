package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

var listenCount int

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print greetings from the event stream as they arrive",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		err := listen(ctx, cmd.OutOrStdout(), newClient(), listenCount)
		if err != nil && !errors.Is(err, context.Canceled) {
			exitWithError(cmd, err)
		}
	},
}

func init() {
	listenCmd.Flags().IntVar(&listenCount, "count", 0, "Stop after this many greetings (0 = until interrupted)")
}

func listen(ctx context.Context, w io.Writer, client *Client, count int) error {
	format := strings.ToLower(outputFormat)
	switch format {
	case "table", "", "json":
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}

	received := 0
	return client.StreamFrames(ctx, func(f Frame) bool {
		switch {
		case format == "json":
			if err := printJSONLine(w, f); err != nil {
				printErrorLine("write frame: %v", err)
				return false
			}
		case f.IsConnected():
			fmt.Fprintf(w, "Connected to %s at %s\n", client.BaseURL, f.Timestamp)
		default:
			fmt.Fprintf(w, "[%s] %s %s\n", f.Timestamp, f.Message, f.Image)
		}
		if !f.IsConnected() {
			received++
		}
		return count <= 0 || received < count
	})
}
