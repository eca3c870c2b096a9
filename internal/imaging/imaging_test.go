package imaging_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"imageset/internal/imaging"
	"imageset/internal/services"
)

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Pix[(y*width+x)*4] = uint8(x % 256)
			img.Pix[(y*width+x)*4+3] = 0xff
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestScaledShorterSideRule(t *testing.T) {
	cases := []struct {
		w, h, target int
		wantW, wantH int
	}{
		{200, 300, 100, 100, 150},
		{300, 200, 100, 150, 100},
		{80, 80, 100, 80, 80},
		{200, 300, 0, 200, 300},
		{100, 100, 100, 100, 100},
		{333, 500, 256, 256, 384},
	}
	for _, tc := range cases {
		gotW, gotH := imaging.Scaled(tc.w, tc.h, tc.target)
		if gotW != tc.wantW || gotH != tc.wantH {
			t.Fatalf("Scaled(%d,%d,%d) = (%d,%d), want (%d,%d)",
				tc.w, tc.h, tc.target, gotW, gotH, tc.wantW, tc.wantH)
		}
	}
}

func TestTransformResizesLargeImage(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "resized.jpg")
	data := encodeJPEG(t, 200, 300)

	if err := imaging.Transform(context.Background(), imaging.NewNative(95), data, 100, out); err != nil {
		t.Fatalf("Transform: %v", err)
	}

	written, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	w, h := decodeSize(t, written)
	if w != 100 || h != 150 {
		t.Fatalf("unexpected output geometry: %dx%d", w, h)
	}
}

func TestTransformPassesThroughSmallImage(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "copy.jpg")
	data := encodeJPEG(t, 80, 80)

	if err := imaging.Transform(context.Background(), imaging.NewNative(95), data, 100, out); err != nil {
		t.Fatalf("Transform: %v", err)
	}

	written, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(written, data) {
		t.Fatal("expected byte-identical pass-through for small image")
	}
}

func TestTransformZeroTargetNeverResizes(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "orig.jpg")
	data := encodeJPEG(t, 600, 400)

	if err := imaging.Transform(context.Background(), imaging.NewNative(95), data, 0, out); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	written, _ := os.ReadFile(out)
	if !bytes.Equal(written, data) {
		t.Fatal("expected byte-identical output with target size 0")
	}
}

func TestTransformRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	err := imaging.Transform(context.Background(), imaging.NewNative(95), []byte("not an image"), 100, filepath.Join(dir, "x.jpg"))
	if !errors.Is(err, services.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestTransformMissingDirectoryIsIOError(t *testing.T) {
	dir := t.TempDir()
	data := encodeJPEG(t, 10, 10)
	err := imaging.Transform(context.Background(), imaging.NewNative(95), data, 0, filepath.Join(dir, "missing", "x.jpg"))
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected io error, got %v", err)
	}
}

func TestNativeResizeAspectRatioWithinOnePixel(t *testing.T) {
	data := encodeJPEG(t, 333, 500)
	out, err := imaging.NewNative(95).Resize(context.Background(), data, 256)
	if err != nil {
		t.Fatalf("Resize: %v", err)
	}
	w, h := decodeSize(t, out)
	if w != 256 {
		t.Fatalf("shorter side not at target: %dx%d", w, h)
	}
	want := float64(500) / float64(333) * 256
	if diff := float64(h) - want; diff < -1 || diff > 1 {
		t.Fatalf("aspect ratio drift: got %d want ~%.1f", h, want)
	}
}
