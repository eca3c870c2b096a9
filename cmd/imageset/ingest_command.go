package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"imageset/internal/catalog"
	"imageset/internal/config"
	"imageset/internal/imaging"
	"imageset/internal/ingest"
	"imageset/internal/logging"
	"imageset/internal/manifest"
	"imageset/internal/preflight"
	"imageset/internal/progress"
	"imageset/internal/runlock"
	"imageset/internal/services"
	"imageset/internal/services/magick"
)

var setTypes = []string{"i1k", "directory", "csv", "cifar10"}

func newIngestCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		setType     string
		inputDir    string
		outDir      string
		targetSize  int
		workers     int
		filePattern string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Extract, label, and transform a source dataset",
		Long: `Ingest reads a source dataset, writes every image into a
label-partitioned output tree, and emits train/val CSV manifests plus
per-label target files. Re-running over the same output directory skips
images that already exist, so an interrupted run can be resumed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if !validSetType(setType) {
				return fmt.Errorf("unknown set type %q (valid: %s)", setType, strings.Join(setTypes, ", "))
			}

			// Flag overrides apply to this run only.
			run := *cfg
			if inputDir != "" {
				if run.Paths.InputDir, err = config.ExpandPath(inputDir); err != nil {
					return fmt.Errorf("resolve input dir: %w", err)
				}
			}
			if outDir != "" {
				if run.Paths.OutputDir, err = config.ExpandPath(outDir); err != nil {
					return fmt.Errorf("resolve output dir: %w", err)
				}
			}
			if cmd.Flags().Changed("target-size") {
				run.Ingest.TargetSize = targetSize
			}
			if cmd.Flags().Changed("workers") {
				run.Ingest.Workers = workers
			}
			if filePattern != "" {
				run.Ingest.FilePattern = filePattern
			}
			if err := run.Validate(); err != nil {
				return err
			}

			return runIngest(cmd, &run, setType)
		},
	}

	cmd.Flags().StringVarP(&setType, "set-type", "t", "i1k", "Source format: "+strings.Join(setTypes, ", "))
	cmd.Flags().StringVarP(&inputDir, "input-dir", "i", "", "Directory holding the source dataset")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "Output directory for images and manifests")
	cmd.Flags().IntVarP(&targetSize, "target-size", "s", 0, "Resize so the shorter side equals this (0 keeps original)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Parallel extraction workers (0 uses all CPUs)")
	cmd.Flags().StringVar(&filePattern, "file-pattern", "", "Glob for the directory set type (default *.jpg)")

	return cmd
}

func runIngest(cmd *cobra.Command, cfg *config.Config, setType string) error {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	out := cmd.OutOrStdout()

	results := preflight.RunAll(cmd.Context(), cfg)
	if !preflight.AllPassed(results) {
		fmt.Fprintln(out, renderPreflight(results))
		return fmt.Errorf("preflight checks failed")
	}

	lock, err := runlock.New(cfg.Paths.OutputDir)
	if err != nil {
		return err
	}
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	var store *catalog.Store
	var runID string
	if cfg.Catalog.Enabled {
		store, err = catalog.Open(cfg.Catalog.Path)
		if err != nil {
			return fmt.Errorf("open catalog: %w", err)
		}
		defer store.Close()

		run, err := store.BeginRun(cmd.Context(), setType,
			cfg.Paths.InputDir, cfg.Paths.OutputDir, cfg.Ingest.TargetSize)
		if err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		runID = run.ID
	}

	reporter := progress.New(logger)
	ingester, err := buildIngester(cfg, setType, logger, reporter)
	if err != nil {
		return err
	}

	logger.Info("ingest starting",
		slog.String("set_type", setType),
		slog.String("input_dir", cfg.Paths.InputDir),
		slog.String("output_dir", cfg.Paths.OutputDir),
		slog.Int("target_size", cfg.Ingest.TargetSize))

	res, runErr := ingester.Run(cmd.Context())
	reporter.Done()
	if runErr != nil {
		if store != nil {
			_ = store.AbortRun(context.WithoutCancel(cmd.Context()), runID)
		}
		return runErr
	}

	if err := writeManifests(cfg.Paths.OutputDir, res); err != nil {
		if store != nil {
			_ = store.AbortRun(context.WithoutCancel(cmd.Context()), runID)
		}
		return err
	}

	if store != nil {
		if err := recordRun(cmd.Context(), store, runID, res); err != nil {
			logger.Warn("catalog update failed", slog.String("error", err.Error()))
		}
	}

	printSummary(out, res)
	if len(res.Failures) > 0 {
		return fmt.Errorf("%d files failed; see the log for details", len(res.Failures))
	}
	return nil
}

func buildIngester(cfg *config.Config, setType string, logger *slog.Logger, reporter progress.Reporter) (ingest.Ingester, error) {
	onProgress := func(set ingest.SetName, completed, total int) {
		reporter.Update(string(set), completed, total)
	}

	switch setType {
	case "i1k":
		resizer, err := buildResizer(cfg)
		if err != nil {
			return nil, err
		}
		return &ingest.ArchivePipeline{
			InputDir:   cfg.Paths.InputDir,
			OutDir:     cfg.Paths.OutputDir,
			TargetSize: cfg.Ingest.TargetSize,
			Workers:    cfg.Ingest.Workers,
			Seed:       cfg.Ingest.Seed,
			Resizer:    resizer,
			Logger:     logging.WithComponent(logger, "pipeline"),
			Progress:   onProgress,
		}, nil
	case "directory":
		return &ingest.DirectoryPipeline{
			InputDir:        cfg.Paths.InputDir,
			FilePattern:     cfg.Ingest.FilePattern,
			ValidationPct:   cfg.Ingest.ValidationPct,
			ClassSamplesMax: cfg.Ingest.ClassSamplesMax,
			Seed:            cfg.Ingest.Seed,
			Logger:          logging.WithComponent(logger, "directory"),
		}, nil
	case "csv":
		return &ingest.CSVPipeline{
			InputDir: cfg.Paths.InputDir,
			Logger:   logging.WithComponent(logger, "csv"),
		}, nil
	case "cifar10":
		return &ingest.CIFAR10Pipeline{
			InputDir:   cfg.Paths.InputDir,
			OutDir:     cfg.Paths.OutputDir,
			TargetSize: cfg.Ingest.TargetSize,
			Seed:       cfg.Ingest.Seed,
			Logger:     logging.WithComponent(logger, "cifar10"),
			Progress:   onProgress,
		}, nil
	default:
		return nil, fmt.Errorf("unknown set type %q", setType)
	}
}

func buildResizer(cfg *config.Config) (imaging.Resizer, error) {
	switch cfg.Imaging.Resizer {
	case "native", "":
		return imaging.NewNative(cfg.Imaging.JPEGQuality), nil
	case "magick":
		return magick.NewCLI(magick.WithBinary(cfg.Imaging.MagickBinary)), nil
	default:
		return nil, fmt.Errorf("unknown resizer %q", cfg.Imaging.Resizer)
	}
}

// writeManifests emits the train/val CSV lists, the per-label target files
// they reference, and the label map when the run derived one.
func writeManifests(outDir string, res *ingest.Result) error {
	if err := manifest.EnsureOutDir(outDir); err != nil {
		return err
	}

	labels := manifest.Labels(append(append([]manifest.Pair(nil), res.Train...), res.Val...))
	targets, err := manifest.TargetFiles(outDir, labels)
	if err != nil {
		return err
	}

	if err := manifest.WriteCSV(manifest.TrainCSVPath(outDir), res.Train, targets); err != nil {
		return err
	}
	if err := manifest.WriteCSV(manifest.ValCSVPath(outDir), res.Val, targets); err != nil {
		return err
	}
	if len(res.Tokens) > 0 {
		if err := manifest.WriteLabelMap(manifest.LabelMapPath(outDir), res.Tokens); err != nil {
			return err
		}
	}
	return nil
}

func recordRun(ctx context.Context, store *catalog.Store, runID string, res *ingest.Result) error {
	ctx = context.WithoutCancel(ctx)

	if len(res.Failures) > 0 {
		failures := make([]catalog.Failure, len(res.Failures))
		for i, f := range res.Failures {
			failures[i] = catalog.Failure{
				Path:   f.Path,
				Kind:   services.Kind(f.Err),
				Detail: f.Err.Error(),
			}
		}
		if err := store.RecordFailures(ctx, runID, failures); err != nil {
			return err
		}
	}
	if err := store.RecordLabelMap(ctx, runID, res.Tokens); err != nil {
		return err
	}
	return store.FinishRun(ctx, runID, catalog.Summary{
		TrainCount:  len(res.Train),
		ValCount:    len(res.Val),
		Transformed: res.Transformed,
		Skipped:     res.Skipped,
		PixelMean:   res.PixelMean,
	})
}

func printSummary(out io.Writer, res *ingest.Result) {
	rows := [][]string{
		{"Train images", formatCount(len(res.Train))},
		{"Val images", formatCount(len(res.Val))},
		{"Transformed", formatCount(res.Transformed)},
		{"Skipped (already present)", formatCount(res.Skipped)},
		{"Failures", formatCount(len(res.Failures))},
	}
	if len(res.Tokens) > 0 {
		rows = append(rows, []string{"Classes", formatCount(len(res.Tokens))})
	}
	if len(res.PixelMean) == 3 {
		rows = append(rows, []string{"Pixel mean (BGR)",
			fmt.Sprintf("%.2f, %.2f, %.2f", res.PixelMean[0], res.PixelMean[1], res.PixelMean[2])})
	}
	fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, rows,
		[]columnAlignment{alignLeft, alignRight}))
}

func validSetType(setType string) bool {
	for _, t := range setTypes {
		if t == setType {
			return true
		}
	}
	return false
}
