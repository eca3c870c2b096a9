package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"imageset/internal/fileutil"
)

// Pair maps one output image file to its integer class label. Pairs are the
// atomic unit of the manifest; their order only matters after the training
// set's deterministic shuffle.
type Pair struct {
	Path  string
	Label int
}

// TargetFiles writes one `<label>.txt` file per distinct label under outDir,
// each containing the decimal label, and returns the label → path mapping.
// It runs once over the aggregated labels after the parallel phase, just
// before the manifests are written, so no synchronization is involved.
func TargetFiles(outDir string, labels []int) (map[int]string, error) {
	distinct := make(map[int]struct{}, len(labels))
	for _, label := range labels {
		distinct[label] = struct{}{}
	}

	targets := make(map[int]string, len(distinct))
	for label := range distinct {
		path := filepath.Join(outDir, strconv.Itoa(label)+".txt")
		if err := fileutil.WriteFileAtomic(path, []byte(strconv.Itoa(label)), 0o644); err != nil {
			return nil, fmt.Errorf("write label file %d: %w", label, err)
		}
		targets[label] = path
	}
	return targets, nil
}

// Labels returns the distinct labels of a pair list, for feeding TargetFiles.
func Labels(pairs []Pair) []int {
	seen := make(map[int]struct{}, len(pairs))
	labels := make([]int, 0, len(pairs))
	for _, pair := range pairs {
		if _, ok := seen[pair.Label]; ok {
			continue
		}
		seen[pair.Label] = struct{}{}
		labels = append(labels, pair.Label)
	}
	sort.Ints(labels)
	return labels
}

// WriteCSV writes the manifest for one set: a line per pair of the form
// `<image path>,<label file path>`.
func WriteCSV(path string, pairs []Pair, targets map[int]string) error {
	var b strings.Builder
	for _, pair := range pairs {
		target, ok := targets[pair.Label]
		if !ok {
			return fmt.Errorf("no label file for label %d", pair.Label)
		}
		b.WriteString(pair.Path)
		b.WriteByte(',')
		b.WriteString(target)
		b.WriteByte('\n')
	}
	if err := fileutil.WriteFileAtomic(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}

// WriteLabelMap persists the class-token → label assignment of one run as
// `token,label` lines. The assignment is an artifact of the metadata
// resource that produced it and is not reconstructible from the labels
// alone, so it always travels with the manifest.
func WriteLabelMap(path string, tokens []string) error {
	var b strings.Builder
	for label, token := range tokens {
		b.WriteString(token)
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(label))
		b.WriteByte('\n')
	}
	if err := fileutil.WriteFileAtomic(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write label map %s: %w", path, err)
	}
	return nil
}

// TrainCSVPath and ValCSVPath name the per-set manifest files under outDir.
func TrainCSVPath(outDir string) string { return filepath.Join(outDir, "train_file.csv") }

// ValCSVPath returns the validation manifest path under outDir.
func ValCSVPath(outDir string) string { return filepath.Join(outDir, "val_file.csv") }

// LabelMapPath returns the token → label map path under outDir.
func LabelMapPath(outDir string) string { return filepath.Join(outDir, "label_map.csv") }

// EnsureOutDir creates the manifest/output root.
func EnsureOutDir(outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", outDir, err)
	}
	return nil
}
