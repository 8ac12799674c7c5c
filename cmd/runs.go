package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/rankgrid/internal/model"
	"github.com/sells-group/rankgrid/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent scan runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		limit, _ := cmd.Flags().GetInt("limit")
		status, _ := cmd.Flags().GetString("status")

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.ListScans(ctx, store.ScanFilter{
			Status: model.ScanStatus(status),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "list scans")
		}

		if len(runs) == 0 {
			fmt.Println("no scan runs found")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tSTATUS\tKEYWORD\tTARGET\tGRID\tFOUND")
		for _, run := range runs {
			found := "-"
			if run.Status == model.ScanStatusComplete {
				found = fmt.Sprintf("%d/%d", run.Summary.FoundCount, run.Summary.TotalPoints)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%dx%d\t%s\n",
				run.ID,
				run.CreatedAt.Format("2006-01-02 15:04"),
				run.Status,
				run.Request.Keyword,
				run.Request.Target,
				run.Request.GridSize, run.Request.GridSize,
				found,
			)
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "max runs to list")
	runsCmd.Flags().String("status", "", "filter by status (running, complete, failed)")
	rootCmd.AddCommand(runsCmd)
}
