package ingest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"imageset/internal/fileutil"
	"imageset/internal/manifest"
	"imageset/internal/services"
)

const (
	cifarBatchDirName = "cifar-10-batches-bin"
	cifarImageSide    = 32
	cifarPlaneBytes   = cifarImageSide * cifarImageSide
	cifarRecordBytes  = 1 + 3*cifarPlaneBytes

	cifarDownloadHint = "download cifar-10-binary.tar.gz from https://www.cs.toronto.edu/~kriz/cifar.html and extract it into the input directory"
)

var cifarTrainBatches = []string{
	"data_batch_1.bin", "data_batch_2.bin", "data_batch_3.bin",
	"data_batch_4.bin", "data_batch_5.bin",
}

// CIFAR10Pipeline ingests the CIFAR-10 binary batches: each record is one
// label byte followed by 3072 planar RGB bytes for a 32x32 image. Images
// are optionally padded up to the target size with their own channel means
// and written as PNGs into the label-partitioned tree. The training-set
// per-channel pixel mean is recorded in BGR order.
type CIFAR10Pipeline struct {
	InputDir   string
	OutDir     string
	TargetSize int
	Seed       int64
	Logger     *slog.Logger
	Progress   func(set SetName, completed, total int)
}

// Run converts both sets sequentially. The batches are small enough that
// the per-record numeric work, not I/O fan-out, dominates.
func (p *CIFAR10Pipeline) Run(ctx context.Context) (*Result, error) {
	batchDir, err := p.locateBatches()
	if err != nil {
		return nil, err
	}

	padSize := 0
	if p.TargetSize > cifarImageSide {
		padSize = (p.TargetSize - cifarImageSide) / 2
	}

	res := &Result{}
	sets := []struct {
		name    SetName
		batches []string
	}{
		{SetTrain, cifarTrainBatches},
		{SetVal, []string{"test_batch.bin"}},
	}
	var trainSums [3]float64
	var trainPixels float64
	for _, set := range sets {
		imageDir := filepath.Join(p.OutDir, string(set.name))
		if err := os.MkdirAll(imageDir, 0o755); err != nil {
			return nil, services.Wrap(services.ErrIO, "cifar10", "create image dir", imageDir, err)
		}

		total, err := countRecords(batchDir, set.batches)
		if err != nil {
			return nil, err
		}

		index := 0
		for _, batch := range set.batches {
			path := filepath.Join(batchDir, batch)
			err := p.convertBatch(ctx, path, imageDir, padSize, set.name, total, &index, res, &trainSums, &trainPixels)
			if err != nil {
				return nil, err
			}
		}
	}

	if trainPixels > 0 {
		// BGR order, matching downstream consumers that read via OpenCV.
		res.PixelMean = []float64{
			trainSums[2] / trainPixels,
			trainSums[1] / trainPixels,
			trainSums[0] / trainPixels,
		}
	}

	ShufflePairs(res.Train, p.Seed)
	return res, nil
}

func (p *CIFAR10Pipeline) locateBatches() (string, error) {
	candidates := []string{
		filepath.Join(p.InputDir, cifarBatchDirName),
		p.InputDir,
	}
	for _, dir := range candidates {
		if _, err := os.Stat(filepath.Join(dir, "test_batch.bin")); err == nil {
			return dir, nil
		}
	}
	return "", services.Wrap(services.ErrResourceMissing, "cifar10", "locate batches",
		"no CIFAR-10 binary batches under "+p.InputDir+"; "+cifarDownloadHint, nil)
}

func countRecords(batchDir string, batches []string) (int, error) {
	total := 0
	for _, batch := range batches {
		info, err := os.Stat(filepath.Join(batchDir, batch))
		if errors.Is(err, fs.ErrNotExist) {
			return 0, services.Wrap(services.ErrResourceMissing, "cifar10", "verify batch",
				batch+"; "+cifarDownloadHint, nil)
		}
		if err != nil {
			return 0, services.Wrap(services.ErrIO, "cifar10", "stat batch", batch, err)
		}
		total += int(info.Size() / cifarRecordBytes)
	}
	return total, nil
}

func (p *CIFAR10Pipeline) convertBatch(ctx context.Context, path, imageDir string, padSize int, set SetName, total int, index *int, res *Result, trainSums *[3]float64, trainPixels *float64) error {
	f, err := os.Open(path)
	if err != nil {
		return services.Wrap(services.ErrIO, "cifar10", "open batch", path, err)
	}
	defer f.Close()

	reader := bufio.NewReaderSize(f, 1<<20)
	record := make([]byte, cifarRecordBytes)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := io.ReadFull(reader, record); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return services.Wrap(services.ErrParse, "cifar10", "read batch",
					fmt.Sprintf("%s: truncated record", path), nil)
			}
			return services.Wrap(services.ErrIO, "cifar10", "read batch", path, err)
		}

		label := int(record[0])
		pixels := record[1:]

		if set == SetTrain {
			for c := 0; c < 3; c++ {
				plane := pixels[c*cifarPlaneBytes : (c+1)*cifarPlaneBytes]
				for _, v := range plane {
					trainSums[c] += float64(v)
				}
			}
			*trainPixels += cifarPlaneBytes
		}

		labelDir := filepath.Join(imageDir, strconv.Itoa(label))
		if err := os.MkdirAll(labelDir, 0o755); err != nil {
			return services.Wrap(services.ErrIO, "cifar10", "create label dir", labelDir, err)
		}
		outPath := filepath.Join(labelDir, strconv.Itoa(*index)+".png")

		if _, err := os.Stat(outPath); err == nil {
			res.Skipped++
		} else {
			if err := writeCIFARImage(pixels, padSize, outPath); err != nil {
				return err
			}
			res.Transformed++
		}

		pair := manifest.Pair{Path: outPath, Label: label}
		switch set {
		case SetTrain:
			res.Train = append(res.Train, pair)
		case SetVal:
			res.Val = append(res.Val, pair)
		}

		*index++
		if p.Progress != nil {
			p.Progress(set, *index, total)
		}
	}
}

// writeCIFARImage converts one planar RGB record into a PNG, padding each
// side by padSize pixels filled with that image's per-channel mean.
func writeCIFARImage(pixels []byte, padSize int, outPath string) error {
	var means [3]uint8
	for c := 0; c < 3; c++ {
		sum := 0
		plane := pixels[c*cifarPlaneBytes : (c+1)*cifarPlaneBytes]
		for _, v := range plane {
			sum += int(v)
		}
		means[c] = uint8(sum / cifarPlaneBytes)
	}

	side := cifarImageSide + 2*padSize
	img := image.NewNRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			offset := img.PixOffset(x, y)
			sx, sy := x-padSize, y-padSize
			if sx >= 0 && sx < cifarImageSide && sy >= 0 && sy < cifarImageSide {
				pixel := sy*cifarImageSide + sx
				img.Pix[offset] = pixels[pixel]
				img.Pix[offset+1] = pixels[cifarPlaneBytes+pixel]
				img.Pix[offset+2] = pixels[2*cifarPlaneBytes+pixel]
			} else {
				img.Pix[offset] = means[0]
				img.Pix[offset+1] = means[1]
				img.Pix[offset+2] = means[2]
			}
			img.Pix[offset+3] = 0xff
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return services.Wrap(services.ErrIO, "cifar10", "encode png", outPath, err)
	}
	if err := fileutil.WriteFileAtomic(outPath, buf.Bytes(), 0o644); err != nil {
		return services.Wrap(services.ErrIO, "cifar10", "write png", outPath, err)
	}
	return nil
}

var _ Ingester = (*CIFAR10Pipeline)(nil)
