package tarstream

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrEntryNotFound is returned by Find when the named member is not present
// at or after the reader's current position.
var ErrEntryNotFound = errors.New("tar entry not found")

const (
	gzipMagic0 = 0x1f
	gzipMagic1 = 0x8b
)

// Member describes one regular-file entry inside an archive. Offset is the
// byte position of the member's data within the uncompressed container, or
// zero when unknown.
type Member struct {
	Name   string
	Size   int64
	Offset int64
}

// Entry is a stream-extractable archive member. The byte stream is only
// valid until the owning Reader advances.
type Entry struct {
	Member
	r io.Reader
}

// Stream returns the entry's byte stream for a single sequential read.
func (e *Entry) Stream() io.Reader {
	return e.r
}

// Bytes drains the entry's stream. Call at most once per entry.
func (e *Entry) Bytes() ([]byte, error) {
	return io.ReadAll(e.r)
}

// Reader walks a tar container sequentially without buffering member
// contents. Gzip-compressed containers are detected by magic bytes.
type Reader struct {
	tr     *tar.Reader
	count  *countingReader
	closer io.Closer
}

// countingReader tracks the position within the uncompressed tar stream.
// tar.Reader consumes exactly the header blocks before handing back an
// entry, so the count after Next is the entry's data offset.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Open opens the archive at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := wrap(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// OpenStream reads a tar container from r. Used for nested archives whose
// bytes arrive from an outer entry's stream.
func OpenStream(r io.Reader) (*Reader, error) {
	return wrap(r)
}

func wrap(r io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	magic, err := br.Peek(2)
	if err != nil {
		return nil, fmt.Errorf("read archive header: %w", err)
	}
	var src io.Reader = br
	if magic[0] == gzipMagic0 && magic[1] == gzipMagic1 {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		src = gz
	}
	cr := &countingReader{r: src}
	return &Reader{tr: tar.NewReader(cr), count: cr}, nil
}

// Next advances to the next regular-file entry, skipping directories and
// other special members. Returns io.EOF after the last entry.
func (r *Reader) Next() (*Entry, error) {
	for {
		hdr, err := r.tr.Next()
		if err != nil {
			return nil, err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		return &Entry{
			Member: Member{Name: hdr.Name, Size: hdr.Size, Offset: r.count.n},
			r:      r.tr,
		}, nil
	}
}

// Find scans forward to the named member. Members before the current
// position are not revisited.
func (r *Reader) Find(name string) (*Entry, error) {
	for {
		entry, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
		}
		if err != nil {
			return nil, err
		}
		if entry.Name == name {
			return entry, nil
		}
	}
}

// OpenMember opens the archive at path positioned on the given member.
// When the member carries a data offset and the container is plain tar,
// the file is seeked straight to the member's bytes; gzip containers and
// members without a recorded offset fall back to a forward scan. The
// returned Reader only owns the file handle and must be closed.
func OpenMember(path string, m Member) (*Reader, *Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if m.Offset > 0 {
		var magic [2]byte
		if _, err := io.ReadFull(f, magic[:]); err != nil {
			_ = f.Close()
			return nil, nil, fmt.Errorf("read archive header: %w", err)
		}
		if magic[0] != gzipMagic0 || magic[1] != gzipMagic1 {
			if _, err := f.Seek(m.Offset, io.SeekStart); err != nil {
				_ = f.Close()
				return nil, nil, fmt.Errorf("seek to member %s: %w", m.Name, err)
			}
			return &Reader{closer: f}, &Entry{Member: m, r: io.LimitReader(f, m.Size)}, nil
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			_ = f.Close()
			return nil, nil, fmt.Errorf("rewind archive: %w", err)
		}
	}
	r, err := wrap(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	r.closer = f
	entry, err := r.Find(m.Name)
	if err != nil {
		_ = r.Close()
		return nil, nil, err
	}
	return r, entry, nil
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// List enumerates the regular-file members of the archive at path without
// reading their contents.
func List(path string) ([]Member, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var members []Member
	for {
		entry, err := r.Next()
		if errors.Is(err, io.EOF) {
			return members, nil
		}
		if err != nil {
			return nil, err
		}
		members = append(members, entry.Member)
	}
}
