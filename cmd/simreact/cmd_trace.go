package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pumped-fn/pumped-react/internal/logging"
	"github.com/pumped-fn/pumped-react/internal/trace"
)

func newTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace --db <file> [--recording <id>]",
		Short: "Print a stored recording, or list recordings",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			recordingID, _ := cmd.Flags().GetString("recording")
			watchName, _ := cmd.Flags().GetString("watch")
			level, _ := cmd.Flags().GetString("log-level")
			format, _ := cmd.Flags().GetString("log-format")

			ctx := cmd.Context()
			logger := logging.NewLogger(level, format, cmd.ErrOrStderr())

			store, err := trace.Open(ctx, dbPath, trace.WithLogger(logger))
			if err != nil {
				return err
			}
			defer closeLogged(logger, "trace store", store.Close)

			if recordingID == "" {
				recordings, err := store.Recordings(ctx)
				if err != nil {
					return err
				}
				printRecordings(cmd.OutOrStdout(), recordings)
				return nil
			}

			id, err := uuid.Parse(recordingID)
			if err != nil {
				return fmt.Errorf("invalid recording id %q: %w", recordingID, err)
			}

			rec, err := store.Recording(ctx, id)
			if err != nil {
				return err
			}

			entries, err := store.Entries(ctx, id)
			if err != nil {
				return err
			}

			printEntries(cmd.OutOrStdout(), rec, entries, watchName)
			return nil
		},
	}

	cmd.Flags().String("db", "", "Trace database written by run --record")
	cmd.Flags().String("recording", "", "Recording id (lists recordings when omitted)")
	cmd.Flags().String("watch", "", "Only print entries of this watch")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func printRecordings(out io.Writer, recordings []trace.Recording) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSCENARIO\tSTARTED")
	for _, r := range recordings {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, r.Scenario, r.StartedAt.Format(time.RFC3339))
	}
	tw.Flush()
}

func printEntries(out io.Writer, rec trace.Recording, entries []trace.Entry, watchName string) {
	fmt.Fprintf(out, "recording %s (%s)\n", rec.ID, rec.Scenario)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tTICK\tWATCH\tVALUE")
	for _, e := range entries {
		if watchName != "" && e.Watch != watchName {
			continue
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", e.Seq, e.Tick, e.Watch, e.Value)
	}
	tw.Flush()
}
