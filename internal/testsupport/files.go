package testsupport

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TarEntry is one regular file destined for a fixture archive.
type TarEntry struct {
	Name string
	Data []byte
}

// TarBytes builds an in-memory tar containing the entries in order.
func TarBytes(t testing.TB, entries ...TarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, entry := range entries {
		hdr := &tar.Header{
			Name:     entry.Name,
			Mode:     0o644,
			Size:     int64(len(entry.Data)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header %s: %v", entry.Name, err)
		}
		if _, err := tw.Write(entry.Data); err != nil {
			t.Fatalf("tar body %s: %v", entry.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	return buf.Bytes()
}

// WriteTar writes a fixture tar file and returns its path.
func WriteTar(t testing.TB, path string, entries ...TarEntry) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, TarBytes(t, entries...), 0o644); err != nil {
		t.Fatalf("write tar %s: %v", path, err)
	}
	return path
}

// WriteTarGz writes a gzip-compressed fixture tar file and returns its path.
func WriteTarGz(t testing.TB, path string, entries ...TarEntry) string {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(TarBytes(t, entries...)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write tar.gz %s: %v", path, err)
	}
	return path
}

// MetaBlob fabricates a taxonomy blob in the on-disk shape the label
// dictionary expects: 136 filler bytes followed by a zlib stream whose
// decompressed text mentions each token.
func MetaBlob(t testing.TB, tokens ...string) []byte {
	t.Helper()
	var payload bytes.Buffer
	zw := zlib.NewWriter(&payload)
	if _, err := zw.Write([]byte(strings.Join(tokens, " synset "))); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	blob := make([]byte, 136, 136+payload.Len())
	return append(blob, payload.Bytes()...)
}

// JPEGBytes encodes a width x height JPEG fixture with a simple gradient.
func JPEGBytes(t testing.TB, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 4
			img.Pix[i] = uint8((x * 7) % 256)
			img.Pix[i+1] = uint8((y * 3) % 256)
			img.Pix[i+3] = 0xff
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		t.Fatalf("encode jpeg fixture: %v", err)
	}
	return buf.Bytes()
}

// WriteFile fills the target path with the given contents, creating parent
// directories as needed.
func WriteFile(t testing.TB, path string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
