package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ShagReza/DataCuration-EASMS/internal/app"
	"github.com/ShagReza/DataCuration-EASMS/internal/config"
	"github.com/ShagReza/DataCuration-EASMS/internal/operations"
)

var runCommands = map[string]struct {
	use   string
	short string
}{
	config.ModeFull:  {"curate", "Score, resolve conflicts, label and export every dataset"},
	config.ModeScore: {"score", "Add score columns to every dataset and rewrite it in place"},
	config.ModeLabel: {"label", "Label already scored datasets and export them"},
}

func newRunCmd(opts *rootOptions, mode string) *cobra.Command {
	var asJSON bool
	meta := runCommands[mode]

	cmd := &cobra.Command{
		Use:   meta.use,
		Short: meta.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd, opts, mode, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run response as JSON")
	return cmd
}

func runBatch(cmd *cobra.Command, opts *rootOptions, mode string, asJSON bool) error {
	cfg, logger, err := opts.setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	resp, runErr := a.RunBatch(ctx, operations.Request{Mode: mode})
	if resp != nil {
		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(resp); err != nil {
				return err
			}
		} else {
			printResponse(out, resp)
		}
	}
	if runErr != nil {
		return fmt.Errorf("%s run failed: %w", mode, runErr)
	}
	return nil
}

func printResponse(out io.Writer, resp *operations.Response) {
	fmt.Fprintf(out, "Run:      %s\n", resp.ID)
	fmt.Fprintf(out, "Mode:     %s\n", resp.Mode)
	fmt.Fprintf(out, "Status:   %s\n", resp.Status)
	fmt.Fprintf(out, "Duration: %s\n", resp.Duration)
	if resp.SummaryWorkbook != "" {
		fmt.Fprintf(out, "Summary:  %s\n", resp.SummaryWorkbook)
	}
	if len(resp.Datasets) == 0 {
		return
	}

	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tROWS IN\tROWS OUT\tDUPLICATES\tCONFLICTS\tLABELLED\tOUTPUT")
	for _, d := range resp.Datasets {
		s := d.Summary()
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			s.Dataset, s.RowsIn, s.RowsOut, s.DuplicatesDropped, s.ConflictGroups, s.Labels.Total(), s.Output)
	}
	tw.Flush()
}
