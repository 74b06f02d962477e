package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/sliderbind/internal/errors"
)

func errorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "errors [CODE]",
		Short: "List error codes or explain one",
		Long: `Without arguments, list every error code the command line reports.
With a code, print its explanation.

Examples:
  sliderbind errors
  sliderbind errors SB102`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return explainCode(cmd, strings.ToUpper(args[0]))
			}
			fmt.Fprint(cmd.OutOrStdout(), renderCodes())
			return nil
		},
	}
}

func explainCode(cmd *cobra.Command, code string) error {
	t, ok := errors.GetTemplate(code)
	if !ok {
		return errors.New("SB200").WithField("CODE").
			WithDetail(fmt.Sprintf("%q is not a registered error code", code)).
			WithSuggestion("Run `sliderbind errors` to list the codes")
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", headerStyle.Render(code), t.Message)
	fmt.Fprintf(out, "%s %s\n", dimStyle.Render("category"), t.Category)
	if t.Detail != "" {
		fmt.Fprintf(out, "\n%s\n", t.Detail)
	}
	return nil
}

func renderCodes() string {
	rows := [][]string{{"CODE", "CATEGORY", "MESSAGE"}}
	for _, code := range errors.GetAllCodes() {
		t, _ := errors.GetTemplate(code)
		rows = append(rows, []string{code, string(t.Category), t.Message})
	}
	var b strings.Builder
	writeTable(&b, rows, func(col int, cell string) string {
		if col == 1 {
			return dimStyle.Render(cell)
		}
		return cell
	})
	return b.String()
}
