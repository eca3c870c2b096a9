package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"imageset/internal/imaging"
	"imageset/internal/services"
	"imageset/internal/tarstream"
)

// Source archive layout expected by the archive pipeline.
const (
	TrainArchiveName  = "ILSVRC2012_img_train.tar"
	ValArchiveName    = "ILSVRC2012_img_val.tar"
	DevkitArchiveName = "ILSVRC2012_devkit_t12.tar.gz"

	metaEntryName        = "ILSVRC2012_devkit_t12/data/meta.mat"
	groundTruthEntryName = "ILSVRC2012_devkit_t12/data/ILSVRC2012_validation_ground_truth.txt"

	downloadHint = "ensure the ILSVRC2012 archives are downloaded (http://www.image-net.org/download-imageurls)"
)

// Ingester produces the aggregate manifest pairs for one source format.
type Ingester interface {
	Run(ctx context.Context) (*Result, error)
}

// ArchivePipeline ingests the nested-archive layout: a training archive of
// per-class inner archives plus a flat validation archive, labeled via the
// devkit's taxonomy and ground-truth resources.
type ArchivePipeline struct {
	InputDir   string
	OutDir     string
	TargetSize int
	Workers    int
	Seed       int64
	Resizer    imaging.Resizer
	Logger     *slog.Logger
	Progress   func(set SetName, completed, total int)
}

// Run drives both sets through the worker pool and returns the aggregate.
// Fatal errors (missing sources, unreadable containers, dictionary failure)
// abort before any parallel work; per-item failures are collected in the
// result instead.
func (p *ArchivePipeline) Run(ctx context.Context) (*Result, error) {
	trainTar := filepath.Join(p.InputDir, TrainArchiveName)
	valTar := filepath.Join(p.InputDir, ValArchiveName)
	devkit := filepath.Join(p.InputDir, DevkitArchiveName)

	var missing []string
	for _, path := range []string{trainTar, valTar, devkit} {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		return nil, services.Wrap(services.ErrResourceMissing, "pipeline", "verify sources",
			strings.Join(missing, ", ")+"; "+downloadHint, nil)
	}

	dict, err := BuildDictionary(devkit, metaEntryName, groundTruthEntryName)
	if err != nil {
		return nil, err
	}
	p.logger().Info("label dictionary built", slog.Int("classes", dict.Classes()))

	processor := &Processor{Resizer: p.Resizer, Logger: p.logger()}
	res := &Result{Tokens: dict.Tokens()}

	sets := []struct {
		name    SetName
		archive string
	}{
		{SetTrain, trainTar},
		{SetVal, valTar},
	}
	for _, set := range sets {
		imageDir := filepath.Join(p.OutDir, string(set.name))
		if err := os.MkdirAll(imageDir, 0o755); err != nil {
			return nil, services.Wrap(services.ErrIO, "pipeline", "create image dir", imageDir, err)
		}

		members, err := tarstream.List(set.archive)
		if err != nil {
			return nil, services.Wrap(services.ErrArchiveRead, "pipeline", "enumerate", set.archive, err)
		}
		p.logger().Info("extracting set",
			slog.String("set", string(set.name)), slog.Int("members", len(members)))

		items := make([]WorkItem, len(members))
		for i, member := range members {
			items[i] = WorkItem{
				TargetSize:  p.TargetSize,
				ArchivePath: set.archive,
				ImageDir:    imageDir,
				Set:         set.name,
				Dict:        dict,
				Member:      member,
			}
		}

		var progress Progress
		if p.Progress != nil {
			name := set.name
			progress = func(completed, total int) { p.Progress(name, completed, total) }
		}
		res.absorb(set.name, RunAll(ctx, p.Workers, items, processor.Process, progress))
	}

	ShufflePairs(res.Train, p.Seed)
	return res, nil
}

func (p *ArchivePipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

var _ Ingester = (*ArchivePipeline)(nil)
