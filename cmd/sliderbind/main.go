package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/sliderbind/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	root := rootCmd()
	if err := root.Execute(); err != nil {
		format, _ := root.PersistentFlags().GetString("error-format")
		printError(os.Stderr, err, format)
		os.Exit(1)
	}
}

// printError writes err in the given format: "text", "compact" or "json".
// Errors without a code are reported as SB202.
func printError(w io.Writer, err error, format string) {
	e := errors.FromError(err, "SB202")
	switch format {
	case "json":
		fmt.Fprintln(w, e.FormatJSON())
	case "compact":
		fmt.Fprintln(w, e.FormatCompact())
	default:
		errors.Fprint(w, e)
	}
}

func rootCmd() *cobra.Command {
	var (
		noColor     bool
		errorFormat string
	)

	root := &cobra.Command{
		Use:   "sliderbind",
		Short: "Server-driven slider inputs over WebSocket",
		Long: `sliderbind serves pages whose jslider inputs are bound on the server.

Slider drags are relayed to the server with a 250ms debounce, and
server code can push new values and labels back to any input.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor || os.Getenv("NO_COLOR") != "" {
				errors.DisableColors()
			} else {
				errors.EnableColors()
			}
			switch errorFormat {
			case "text", "compact", "json":
				return nil
			default:
				return errors.New("SB200").WithField("--error-format").
					WithDetail(fmt.Sprintf("%q is not one of text, compact or json", errorFormat))
			}
		},
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	root.PersistentFlags().StringVar(&errorFormat, "error-format", "text", "Error output: text, compact or json")

	root.AddCommand(
		serveCmd(),
		initCmd(),
		stateCmd(),
		pushCmd(),
		errorsCmd(),
		versionCmd(),
	)
	return root
}

// success prints a success message.
func success(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an indented message.
func info(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", fmt.Sprintf(format, args...))
}
