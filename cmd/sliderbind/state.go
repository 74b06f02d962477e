package main

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vango-dev/sliderbind/internal/errors"
	"github.com/vango-dev/sliderbind/pkg/binding"
	"github.com/vango-dev/sliderbind/pkg/jslider"
	"github.com/vango-dev/sliderbind/pkg/protocol"
	"github.com/vango-dev/sliderbind/pkg/snapshot"
)

const defaultServerURL = "http://localhost:8080"

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
)

type clientFlags struct {
	server  string
	timeout time.Duration
}

func (f *clientFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.server, "server", defaultServerURL, "Base URL of the running server")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 10*time.Second, "Request timeout")
}

func (f *clientFlags) client() *apiClient {
	return newAPIClient(f.server, f.timeout)
}

func stateCmd() *cobra.Command {
	var (
		cf     clientFlags
		asJSON bool
		save   bool
	)

	cmd := &cobra.Command{
		Use:   "state SESSION",
		Short: "Show the inputs of a live session",
		Long: `Print the label, value and settings of every input bound in a session.

The session id is logged by the server when the WebSocket connects.

Examples:
  sliderbind state 6f1c0d2e-...
  sliderbind state 6f1c0d2e-... --json
  sliderbind state 6f1c0d2e-... --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cf.client()
			if save {
				key, err := c.saveSnapshot(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				success(cmd, "Snapshot saved as %s", key)
				return nil
			}
			snap, raw, err := c.state(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(raw)))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), renderState(snap))
			return nil
		},
	}
	cf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON state")
	cmd.Flags().BoolVar(&save, "save", false, "Save a snapshot instead of printing")
	return cmd
}

func pushCmd() *cobra.Command {
	var (
		cf    clientFlags
		value string
		label string
	)

	cmd := &cobra.Command{
		Use:   "push SESSION INPUT",
		Short: "Send a value or label to an input of a live session",
		Long: `Queue an input message on a session. The widget moves and its new
value is relayed back to the server.

Examples:
  sliderbind push 6f1c0d2e-... price --value 250
  sliderbind push 6f1c0d2e-... range --value "10;90" --label "Window"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := buildInputMessage(args[1], value, label, cmd.Flags().Changed("label"))
			if err != nil {
				return err
			}
			if err := cf.client().push(cmd.Context(), args[0], msg); err != nil {
				return err
			}
			success(cmd, "Queued message for %s", args[1])
			return nil
		},
	}
	cf.register(cmd)
	cmd.Flags().StringVar(&value, "value", "", `New value: "v" or "low;high"`)
	cmd.Flags().StringVar(&label, "label", "", "New label text")
	return cmd
}

func buildInputMessage(id, value, label string, labelSet bool) (*protocol.InputMessage, error) {
	var msg binding.Message
	if value != "" {
		parts := jslider.ParseValue(value)
		for _, p := range parts {
			if math.IsNaN(p) {
				return nil, errors.New("SB200").WithField("--value").
					WithDetail(fmt.Sprintf("%q is not a number or a low;high pair", value))
			}
		}
		v := binding.Single(parts[0])
		if len(parts) == 2 {
			v = binding.Pair(parts[0], parts[1])
		}
		msg.Value = &v
	}
	if labelSet {
		msg.Label = &label
	}
	if msg.IsEmpty() {
		return nil, errors.New("SB200").
			WithDetail("Nothing to send.").
			WithSuggestion("Pass --value, --label or both")
	}
	return &protocol.InputMessage{ID: id, Message: msg}, nil
}

func renderState(snap *snapshot.Snapshot) string {
	ids := make([]string, 0, len(snap.States))
	for id := range snap.States {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := [][]string{{"INPUT", "LABEL", "VALUE", "RANGE", "STEP"}}
	for _, id := range ids {
		st := snap.States[id]
		rows = append(rows, []string{
			id,
			st.Label,
			st.Value.String(),
			formatNumber(st.Min) + ".." + formatNumber(st.Max),
			formatNumber(st.Step),
		})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", headerStyle.Render("Session"), snap.SessionID)
	if snap.Page != "" {
		fmt.Fprintf(&b, "%s %s\n", headerStyle.Render("Page   "), snap.Page)
	}
	b.WriteString("\n")
	writeTable(&b, rows, func(col int, cell string) string {
		switch {
		case col == 2:
			return valueStyle.Render(cell)
		case col > 2:
			return dimStyle.Render(cell)
		}
		return cell
	})
	if len(ids) == 0 {
		b.WriteString(dimStyle.Render("no bound inputs") + "\n")
	}
	return b.String()
}

// writeTable lays rows out in padded columns. The first row is the header;
// style renders the other cells.
func writeTable(b *strings.Builder, rows [][]string, style func(col int, cell string) string) {
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	for r, row := range rows {
		for i, cell := range row {
			padded := cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if r == 0 {
				padded = headerStyle.Render(padded)
			} else {
				padded = style(i, padded)
			}
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(padded)
		}
		b.WriteString("\n")
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
