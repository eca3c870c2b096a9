package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"imageset/internal/manifest"
	"imageset/internal/services"
)

// DirectoryPipeline ingests a labeled directory tree: one subdirectory per
// class, labeled by sorted basename. No images are copied or transformed;
// the manifests reference the source files in place, split per class into
// train and validation slices.
type DirectoryPipeline struct {
	InputDir        string
	FilePattern     string
	ValidationPct   float64
	ClassSamplesMax int
	Seed            int64
	Logger          *slog.Logger
}

// Run crawls the tree and returns the split pairs.
func (p *DirectoryPipeline) Run(_ context.Context) (*Result, error) {
	if _, err := os.Stat(p.InputDir); errors.Is(err, fs.ErrNotExist) {
		return nil, services.Wrap(services.ErrResourceMissing, "directory", "verify input", p.InputDir, nil)
	}

	entries, err := os.ReadDir(p.InputDir)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "directory", "read input dir", p.InputDir, err)
	}

	var classes []string
	for _, entry := range entries {
		if entry.IsDir() {
			classes = append(classes, entry.Name())
		}
	}
	if len(classes) == 0 {
		return nil, services.Wrap(services.ErrParse, "directory", "discover classes",
			"no class subdirectories in "+p.InputDir, nil)
	}
	sort.Strings(classes)

	pattern := p.FilePattern
	if pattern == "" {
		pattern = "*.jpg"
	}

	res := &Result{Tokens: classes}
	for label, class := range classes {
		files, err := filepath.Glob(filepath.Join(p.InputDir, class, pattern))
		if err != nil {
			return nil, services.Wrap(services.ErrIO, "directory", "glob class", class, err)
		}
		sort.Strings(files)
		if p.ClassSamplesMax > 0 && len(files) > p.ClassSamplesMax {
			files = files[:p.ClassSamplesMax]
		}

		pairs := make([]manifest.Pair, len(files))
		for i, file := range files {
			pairs[i] = manifest.Pair{Path: file, Label: label}
		}
		valIdx := int(p.ValidationPct * float64(len(pairs)))
		res.Val = append(res.Val, pairs[:valIdx]...)
		res.Train = append(res.Train, pairs[valIdx:]...)
	}

	if p.Logger != nil {
		p.Logger.Info("directory crawl complete",
			slog.Int("classes", len(classes)),
			slog.Int("train", len(res.Train)),
			slog.Int("val", len(res.Val)))
	}

	ShufflePairs(res.Train, p.Seed)
	return res, nil
}

var _ Ingester = (*DirectoryPipeline)(nil)
