package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"imageset/internal/catalog"
)

func newRunsCommand(cmdCtx *commandContext) *cobra.Command {
	var limit int
	var failuresOf string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recorded ingest runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Catalog.Enabled {
				return fmt.Errorf("the run catalog is disabled in the configuration")
			}

			store, err := catalog.Open(cfg.Catalog.Path)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if failuresOf != "" {
				runID, err := resolveRunID(cmd, store, failuresOf)
				if err != nil {
					return err
				}
				failures, err := store.ListFailures(cmd.Context(), runID)
				if err != nil {
					return err
				}
				if len(failures) == 0 {
					fmt.Fprintln(out, "No recorded failures for that run")
					return nil
				}
				rows := make([][]string, 0, len(failures))
				for _, f := range failures {
					rows = append(rows, []string{f.Path, f.Kind, f.Detail})
				}
				fmt.Fprintln(out, renderTable([]string{"Path", "Kind", "Detail"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft}))
				return nil
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					run.SetType,
					formatTimestamp(run.StartedAt),
					run.Status,
					formatCount(run.TrainCount),
					formatCount(run.ValCount),
					formatCount(run.Skipped),
					formatCount(run.FailureCount),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Type", "Started", "Status", "Train", "Val", "Skipped", "Failures"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight}))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().StringVar(&failuresOf, "failures", "", "Show the recorded failures for a run id")

	return cmd
}

// resolveRunID accepts a full run id or a unique prefix of one.
func resolveRunID(cmd *cobra.Command, store *catalog.Store, ref string) (string, error) {
	runs, err := store.ListRuns(cmd.Context(), 1000)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, run := range runs {
		if strings.HasPrefix(run.ID, ref) {
			matches = append(matches, run.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("no run matches %q", ref)
	default:
		return "", fmt.Errorf("run id %q is ambiguous (%d matches)", ref, len(matches))
	}
}

func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

func formatTimestamp(value string) string {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return value
	}
	return ts.Local().Format("2006-01-02 15:04")
}
