package ingest

import (
	"imageset/internal/manifest"
	"imageset/internal/tarstream"
)

// SetName distinguishes the two output partitions.
type SetName string

const (
	SetTrain SetName = "train"
	SetVal   SetName = "val"
)

// WorkItem is one unit of parallel work: a single top-level archive member,
// either a class's nested archive for the training set or one image file
// for the validation set. Immutable once queued; consumed by exactly one worker.
type WorkItem struct {
	TargetSize  int
	ArchivePath string
	ImageDir    string
	Set         SetName
	Dict        *Dictionary
	Member      tarstream.Member
}

// Failure records one isolated error, tied to the path that produced it.
type Failure struct {
	Path string
	Err  error
}

// ItemResult aggregates one work item's contribution to the manifest.
type ItemResult struct {
	Pairs       []manifest.Pair
	Transformed int
	Skipped     int
	Failures    []Failure
}

// Result is the aggregate of a whole ingest run.
type Result struct {
	Train []manifest.Pair
	Val   []manifest.Pair
	// Tokens is the class-token order that produced the labels, when the
	// set type derives labels from names (i1k, directory). Empty otherwise.
	Tokens      []string
	Transformed int
	Skipped     int
	Failures    []Failure
	// PixelMean is the per-channel training pixel mean in BGR order,
	// recorded by the cifar10 set type only.
	PixelMean []float64
}

func (r *Result) absorb(set SetName, items []*ItemResult) {
	for _, item := range items {
		if item == nil {
			continue
		}
		switch set {
		case SetTrain:
			r.Train = append(r.Train, item.Pairs...)
		case SetVal:
			r.Val = append(r.Val, item.Pairs...)
		}
		r.Transformed += item.Transformed
		r.Skipped += item.Skipped
		r.Failures = append(r.Failures, item.Failures...)
	}
}
