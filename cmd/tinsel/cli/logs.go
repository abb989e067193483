package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newLogsCmd() *cobra.Command {
	var (
		limit      int
		offset     int
		status     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "logs [batchId]",
		Short: "Show the email batch log",
		Long:  "List logged batches newest first, or show one batch with its full recipient list.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runLogsGet(cmd, args[0], jsonOutput)
			}
			return runLogsList(cmd, limit, offset, status, jsonOutput)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Page size (1-100)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of batches to skip")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status: queued, sent, error")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runLogsList(cmd *cobra.Command, limit, offset int, status string, jsonOutput bool) error {
	sm, err := newSession()
	if err != nil {
		return err
	}
	if !sm.Authenticated() {
		return fmt.Errorf("not signed in (run: tinsel login)")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	resp, err := sm.ListLogs(ctx, limit, offset, status)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if resp.Total == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No batches logged.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tHOLIDAY\tSTATUS\tRECIPIENTS\tCREATED")
	for _, b := range resp.Logs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			b.ID, b.HolidayName, b.Status, b.RecipientCount,
			b.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
	fmt.Fprintf(cmd.OutOrStdout(), "\nShowing %d of %d batch(es).\n", len(resp.Logs), resp.Total)
	return nil
}

func runLogsGet(cmd *cobra.Command, batchID string, jsonOutput bool) error {
	sm, err := newSession()
	if err != nil {
		return err
	}
	if !sm.Authenticated() {
		return fmt.Errorf("not signed in (run: tinsel login)")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	resp, err := sm.GetLog(ctx, batchID)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp.Batch)
	}

	b := resp.Batch
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Batch:    %s\n", b.ID)
	fmt.Fprintf(out, "Holiday:  %s\n", b.HolidayName)
	fmt.Fprintf(out, "Sender:   %s\n", b.SenderName)
	fmt.Fprintf(out, "Status:   %s\n", b.Status)
	if b.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:    %s\n", b.ErrorMessage)
	}
	fmt.Fprintf(out, "Created:  %s\n", b.CreatedAt.Local().Format(time.RFC1123))
	fmt.Fprintf(out, "Recipients (%d):\n", len(b.Recipients))
	for _, addr := range b.Recipients {
		fmt.Fprintf(out, "  %s\n", addr)
	}
	return nil
}
