package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"imageset/internal/imaging"
	"imageset/internal/manifest"
	"imageset/internal/services"
	"imageset/internal/tarstream"
)

// Processor handles one work item at a time: derive the label, open the
// member (a nested archive for train, a single file for val), and transform
// every contained image into the label's output subdirectory.
type Processor struct {
	Resizer imaging.Resizer
	Logger  *slog.Logger
}

// Process implements the per-item contract. The returned error is fatal for
// this item only (label lookup or container access); per-file decode and
// write failures are recorded in the result and do not stop the item.
func (p *Processor) Process(ctx context.Context, item WorkItem) (*ItemResult, error) {
	label, err := labelFor(item)
	if err != nil {
		return nil, err
	}

	outDir := filepath.Join(item.ImageDir, strconv.Itoa(label))
	// Concurrent create-if-missing; another worker may win the race.
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrIO, "process", "create label dir", outDir, err)
	}

	// Members enumerated by List carry their data offset, so each worker
	// lands on its member directly instead of re-scanning the archive.
	top, entry, err := tarstream.OpenMember(item.ArchivePath, item.Member)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "process", "open member", item.Member.Name, err)
	}
	defer top.Close()

	res := &ItemResult{}
	switch item.Set {
	case SetTrain:
		inner, err := tarstream.OpenStream(entry.Stream())
		if err != nil {
			return nil, services.Wrap(services.ErrArchiveRead, "process", "open nested archive", item.Member.Name, err)
		}
		for {
			file, err := inner.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, services.Wrap(services.ErrArchiveRead, "process", "read nested archive", item.Member.Name, err)
			}
			p.processFile(ctx, file, outDir, label, item.TargetSize, res)
		}
	case SetVal:
		p.processFile(ctx, entry, outDir, label, item.TargetSize, res)
	default:
		return nil, fmt.Errorf("unknown set %q", item.Set)
	}
	return res, nil
}

func (p *Processor) processFile(ctx context.Context, file *tarstream.Entry, outDir string, label, targetSize int, res *ItemResult) {
	outPath := filepath.Join(outDir, filepath.Base(file.Name))

	// Idempotent re-run support: a file that exists was written completely
	// (writes are atomic), so it only needs a manifest entry.
	if _, err := os.Stat(outPath); err == nil {
		res.Skipped++
		res.Pairs = append(res.Pairs, manifest.Pair{Path: outPath, Label: label})
		return
	}

	data, err := file.Bytes()
	if err != nil {
		p.record(res, outPath, services.Wrap(services.ErrIO, "process", "extract", file.Name, err))
		return
	}
	if err := imaging.Transform(ctx, p.Resizer, data, targetSize, outPath); err != nil {
		p.record(res, outPath, err)
		return
	}

	res.Transformed++
	res.Pairs = append(res.Pairs, manifest.Pair{Path: outPath, Label: label})
}

func (p *Processor) record(res *ItemResult, path string, err error) {
	res.Failures = append(res.Failures, Failure{Path: path, Err: err})
	if p.Logger != nil {
		p.Logger.Warn("file failed", slog.String("path", path), slog.String("error", err.Error()))
	}
}

func labelFor(item WorkItem) (int, error) {
	name := item.Member.Name
	switch item.Set {
	case SetTrain:
		if len(name) < trainTokenLen {
			return 0, services.Wrap(services.ErrLabelNotFound, "process", "derive key",
				fmt.Sprintf("member name %q too short", name), nil)
		}
		token := name[:trainTokenLen]
		label, ok := item.Dict.TrainLabel(token)
		if !ok {
			return 0, services.Wrap(services.ErrLabelNotFound, "process", "train lookup", token, nil)
		}
		return label, nil
	case SetVal:
		if len(name) < valKeyStart+valKeyTrim {
			return 0, services.Wrap(services.ErrLabelNotFound, "process", "derive key",
				fmt.Sprintf("member name %q too short", name), nil)
		}
		key := name[valKeyStart : len(name)-valKeyTrim]
		label, ok := item.Dict.ValLabel(key)
		if !ok {
			return 0, services.Wrap(services.ErrLabelNotFound, "process", "val lookup", key, nil)
		}
		return label, nil
	default:
		return 0, fmt.Errorf("unknown set %q", item.Set)
	}
}
