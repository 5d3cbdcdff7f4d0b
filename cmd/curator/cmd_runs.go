package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShagReza/DataCuration-EASMS/internal/config"
	"github.com/ShagReza/DataCuration-EASMS/internal/store"
)

func newRunsCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List recorded runs, or show one run with its datasets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			paths, err := config.GetPaths(cfg.Paths)
			if err != nil {
				return err
			}
			ledger, err := store.Open(paths.DatabaseFile, logger)
			if err != nil {
				return err
			}
			defer ledger.Close()

			if len(args) == 1 {
				run, err := ledger.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printRun(cmd, run)
				return nil
			}

			runs, err := ledger.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tMODE\tSTATUS\tSTARTED\tDURATION")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Mode, r.Status,
					r.StartedAt.Local().Format(time.DateTime), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", store.DefaultListLimit, "maximum number of runs to list")
	return cmd
}

func printRun(cmd *cobra.Command, run *store.Run) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:      %s\n", run.ID)
	fmt.Fprintf(out, "Mode:     %s\n", run.Mode)
	fmt.Fprintf(out, "Input:    %s\n", run.InputDir)
	fmt.Fprintf(out, "Status:   %s\n", run.Status)
	if run.Error != "" {
		fmt.Fprintf(out, "Error:    %s\n", run.Error)
	}
	fmt.Fprintf(out, "Started:  %s\n", run.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "Finished: %s\n", run.FinishedAt.Format(time.RFC3339))
	if len(run.Datasets) == 0 {
		return
	}

	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tROWS IN\tROWS OUT\tP-VALUE MISSING\tDUPLICATES\tCONFLICTS\tDROPPED GROUPS")
	for _, d := range run.Datasets {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			d.Dataset, d.RowsIn, d.RowsOut, d.PValueMissing, d.DuplicatesDropped, d.ConflictGroups, d.GroupsDropped)
	}
	tw.Flush()
}
