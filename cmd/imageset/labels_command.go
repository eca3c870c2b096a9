package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"imageset/internal/catalog"
)

func newLabelsCommand(cmdCtx *commandContext) *cobra.Command {
	var runRef string

	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Show the label map a run derived",
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

			ref := runRef
			if ref == "" {
				runs, err := store.ListRuns(cmd.Context(), 1)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					return fmt.Errorf("no runs recorded yet")
				}
				ref = runs[0].ID
			}

			runID, err := resolveRunID(cmd, store, ref)
			if err != nil {
				return err
			}
			entries, err := store.LabelMap(cmd.Context(), runID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No label map recorded for that run")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{strconv.Itoa(entry.Label), entry.Token})
			}
			fmt.Fprintln(out, renderTable([]string{"Label", "Token"}, rows,
				[]columnAlignment{alignRight, alignLeft}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&runRef, "run", "r", "", "Run id or prefix (defaults to the latest run)")

	return cmd
}
