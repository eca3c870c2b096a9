package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"

	"imageset/internal/fileutil"
	"imageset/internal/services"
)

// Resizer scales encoded image bytes so the shorter side equals targetSize,
// returning re-encoded bytes. Implementations must leave the input alone
// when no scaling is needed.
type Resizer interface {
	Resize(ctx context.Context, data []byte, targetSize int) ([]byte, error)
}

// Native resizes in-process using the x/image catalog's Catmull-Rom filter
// and re-encodes as JPEG.
type Native struct {
	// Quality is the JPEG encode quality, 1-100.
	Quality int
}

// NewNative constructs a Native resizer with the given encode quality.
func NewNative(quality int) *Native {
	if quality <= 0 || quality > 100 {
		quality = 95
	}
	return &Native{Quality: quality}
}

// Resize decodes, scales down so the shorter side equals targetSize, and
// re-encodes. Input bytes are returned untouched when the geometry already
// fits.
func (n *Native) Resize(_ context.Context, data []byte, targetSize int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, services.Wrap(services.ErrDecode, "imaging", "decode", "", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	newWidth, newHeight := Scaled(width, height, targetSize)
	if newWidth == width && newHeight == height {
		return data, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: n.Quality}); err != nil {
		return nil, services.Wrap(services.ErrIO, "imaging", "encode", "", err)
	}
	return buf.Bytes(), nil
}

// Scaled applies the shorter-side rule: when the shorter dimension exceeds
// targetSize both dimensions scale by targetSize/shorter with the longer
// side truncated to an integer. A targetSize of zero means no scaling.
func Scaled(width, height, targetSize int) (int, int) {
	if targetSize <= 0 {
		return width, height
	}
	if width < height {
		if width > targetSize {
			scale := float64(targetSize) / float64(width)
			return targetSize, int(float64(height) * scale)
		}
		return width, height
	}
	if height > targetSize {
		scale := float64(targetSize) / float64(height)
		return int(float64(width) * scale), targetSize
	}
	return width, height
}

// Transform decodes the image geometry, conditionally resizes through the
// provided Resizer, and persists the result at outputPath. When no resize
// applies the original bytes are written verbatim so the pixels are never
// recompressed.
func Transform(ctx context.Context, resizer Resizer, data []byte, targetSize int, outputPath string) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return services.Wrap(services.ErrDecode, "imaging", "decode config", outputPath, err)
	}

	out := data
	newWidth, newHeight := Scaled(cfg.Width, cfg.Height, targetSize)
	if newWidth != cfg.Width || newHeight != cfg.Height {
		out, err = resizer.Resize(ctx, data, targetSize)
		if err != nil {
			return fmt.Errorf("resize %s: %w", outputPath, err)
		}
	}

	if err := fileutil.WriteFileAtomic(outputPath, out, 0o644); err != nil {
		return services.Wrap(services.ErrIO, "imaging", "write", outputPath, err)
	}
	return nil
}
