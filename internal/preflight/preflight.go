package preflight

import (
	"context"

	"imageset/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks that apply to every ingest run. Source-format
// specific checks (archive presence, batch files) live with their pipelines;
// these cover the resources every run touches.
func RunAll(_ context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	results = append(results, CheckDirectoryReadable("Input directory", cfg.Paths.InputDir))
	results = append(results, CheckFreeSpace("Output free space", cfg.Paths.OutputDir, cfg.Imaging.MinFreeSpaceGiB))

	if cfg.Imaging.Resizer == "magick" {
		results = append(results, CheckConvertBinary(cfg.Imaging.MagickBinary))
	}

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
