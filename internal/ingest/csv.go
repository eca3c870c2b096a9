package ingest

import (
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"imageset/internal/manifest"
	"imageset/internal/services"
)

// CSVPipeline ingests pre-built gzip CSV file lists (`train_file.csv.gz`
// and `val_file.csv.gz` in the input directory, lines of `path,label`).
// Relative paths are resolved against the input directory. The split is
// taken as-is; no validation percentage applies.
type CSVPipeline struct {
	InputDir string
	Logger   *slog.Logger
}

// Run parses both file lists.
func (p *CSVPipeline) Run(_ context.Context) (*Result, error) {
	res := &Result{}
	for _, set := range []SetName{SetTrain, SetVal} {
		infile := filepath.Join(p.InputDir, string(set)+"_file.csv.gz")
		if _, err := os.Stat(infile); errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrResourceMissing, "csv", "verify input",
				infile+" not found; it must be created before running the csv set type", nil)
		}

		pairs, err := p.parseFileList(infile)
		if err != nil {
			return nil, err
		}
		switch set {
		case SetTrain:
			res.Train = pairs
		case SetVal:
			res.Val = pairs
		}
	}

	if p.Logger != nil {
		p.Logger.Info("csv lists parsed",
			slog.Int("train", len(res.Train)), slog.Int("val", len(res.Val)))
	}
	return res, nil
}

func (p *CSVPipeline) parseFileList(path string) ([]manifest.Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "csv", "open", path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, services.Wrap(services.ErrParse, "csv", "decompress", path, err)
	}
	defer gz.Close()

	var pairs []manifest.Pair
	scanner := bufio.NewScanner(gz)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		file, labelText, ok := strings.Cut(text, ",")
		if !ok {
			return nil, services.Wrap(services.ErrParse, "csv", "parse",
				fmt.Sprintf("%s line %d: missing comma", path, line), nil)
		}
		label, err := strconv.Atoi(strings.TrimSpace(labelText))
		if err != nil {
			return nil, services.Wrap(services.ErrParse, "csv", "parse",
				fmt.Sprintf("%s line %d: bad label %q", path, line, labelText), err)
		}
		file = strings.TrimSpace(file)
		if !filepath.IsAbs(file) {
			file = filepath.Join(p.InputDir, file)
		}
		pairs = append(pairs, manifest.Pair{Path: file, Label: label})
	}
	if err := scanner.Err(); err != nil {
		return nil, services.Wrap(services.ErrParse, "csv", "scan", path, err)
	}
	return pairs, nil
}

var _ Ingester = (*CSVPipeline)(nil)
