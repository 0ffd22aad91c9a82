package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/clfib/internal/store"
	"github.com/spf13/cobra"
)

var traceCmd = &cobra.Command{
	Use:   "trace <path>",
	Short: "List runs recorded with --trace",
	Long:  `Display every dispatch record in a trace file, oldest first.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTrace,
}

func init() {
	rootCmd.AddCommand(traceCmd)
}

func runTrace(cmd *cobra.Command, args []string) error {
	path := args[0]

	reader, err := store.NewTraceReader(path)
	if errors.Is(err, store.ErrNotFound) {
		fmt.Fprintf(cmd.OutOrStdout(), "No runs recorded in %s.\n", path)
		return nil
	}
	if err != nil {
		return err
	}
	defer reader.Close()

	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read trace: %w", err)
	}

	printRecords(cmd.OutOrStdout(), records)
	return nil
}

func printRecords(out io.Writer, records []store.DispatchRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tTIMESTAMP\tN\tRESULT\tBACKEND\tDEVICE\tELAPSED\tERROR")
	fmt.Fprintln(w, "------\t---------\t-\t------\t-------\t------\t-------\t-----")

	for _, r := range records {
		// Truncate run ID for display
		displayID := r.RunID
		if len(displayID) > 8 {
			displayID = displayID[:8]
		}

		result := fmt.Sprint(r.Result)
		errText := "-"
		if r.Error != "" {
			result = "-"
			errText = firstLine(r.Error)
		}

		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			displayID,
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.N,
			result,
			r.Backend,
			orDash(r.Device),
			r.Elapsed.Round(time.Microsecond),
			errText,
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nTotal runs: %d\n", len(records))
}

// firstLine drops build logs that follow the error summary.
func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
