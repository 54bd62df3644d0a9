package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func queueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "Show events awaiting delivery",
		Long: `List the events persisted in the delivery queue, oldest first. A
non-empty queue after the daemon has been running usually means the
backend is unreachable and retries are backing off.`,
		RunE: runQueueStatus,
	}
}

func runQueueStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	queued, err := store.ListQueuedEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to list queued events: %w", err)
	}

	if len(queued) == 0 {
		fmt.Println("delivery queue is empty")
		return nil
	}

	now := time.Now()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EVENT ID\tAMOUNT\tMERCHANT\tATTEMPTS\tNEXT ATTEMPT")
	for _, qe := range queued {
		next := "due now"
		if qe.NextAttemptAt.After(now) {
			next = "in " + qe.NextAttemptAt.Sub(now).Round(time.Second).String()
		}
		fmt.Fprintf(w, "%s\t₹%.2f\t%s\t%d\t%s\n",
			qe.Event.EventID,
			float64(qe.Event.ParsedAmountPaise)/100,
			qe.Event.ParsedMerchantRaw,
			qe.AttemptCount,
			next)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d event(s) queued\n", len(queued))
	return nil
}
