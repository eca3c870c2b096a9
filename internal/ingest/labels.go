package ingest

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"imageset/internal/services"
	"imageset/internal/tarstream"
)

const (
	// metaZlibOffset is where the zlib stream starts inside the matrix-format
	// taxonomy blob. The surrounding container format is undocumented; the
	// offset and token scan below mirror how the blob is actually laid out.
	metaZlibOffset = 136

	trainTokenLen = 9
	valKeyStart   = 15
	valKeyTrim    = 5
)

var tokenPattern = regexp.MustCompile(`n\d+`)

// Dictionary holds the two label mappings built once at pipeline start:
// class token → label for the training set and zero-padded file index →
// label for the validation set. Immutable after construction.
type Dictionary struct {
	tokens []string
	train  map[string]int
	val    map[string]int
}

// Tokens returns the class tokens in label order (token i has label i).
func (d *Dictionary) Tokens() []string {
	return append([]string(nil), d.tokens...)
}

// Classes returns the number of distinct class tokens.
func (d *Dictionary) Classes() int {
	return len(d.tokens)
}

// TrainLabel resolves a class token.
func (d *Dictionary) TrainLabel(token string) (int, bool) {
	label, ok := d.train[token]
	return label, ok
}

// ValLabel resolves an 8-digit validation file index.
func (d *Dictionary) ValLabel(key string) (int, bool) {
	label, ok := d.val[key]
	return label, ok
}

// BuildDictionary reads the devkit archive and extracts both mappings. The
// metadata entry yields class tokens in encounter order; token i is assigned
// label i. Ground-truth line i (1-based) yields the validation label for key
// %08d, offset to zero-based by subtracting one from the stored value.
func BuildDictionary(devkitPath, metaEntry, groundTruthEntry string) (*Dictionary, error) {
	reader, err := tarstream.Open(devkitPath)
	if err != nil {
		return nil, services.Wrap(services.ErrResourceMissing, "labels", "open devkit", devkitPath, err)
	}
	defer reader.Close()

	var metaBytes, truthBytes []byte
	for {
		entry, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrParse, "labels", "read devkit", devkitPath, err)
		}
		switch entry.Name {
		case metaEntry:
			if metaBytes, err = entry.Bytes(); err != nil {
				return nil, services.Wrap(services.ErrParse, "labels", "read metadata entry", metaEntry, err)
			}
		case groundTruthEntry:
			if truthBytes, err = entry.Bytes(); err != nil {
				return nil, services.Wrap(services.ErrParse, "labels", "read ground truth entry", groundTruthEntry, err)
			}
		}
	}
	// An entry the devkit never contained is an absent input resource,
	// not a malformed one.
	if metaBytes == nil {
		return nil, services.Wrap(services.ErrResourceMissing, "labels", "locate metadata entry", metaEntry+" not in devkit", nil)
	}
	if truthBytes == nil {
		return nil, services.Wrap(services.ErrResourceMissing, "labels", "locate ground truth entry", groundTruthEntry+" not in devkit", nil)
	}

	tokens, err := extractTokens(metaBytes)
	if err != nil {
		return nil, err
	}
	val, err := parseGroundTruth(truthBytes)
	if err != nil {
		return nil, err
	}

	train := make(map[string]int, len(tokens))
	for i, token := range tokens {
		train[token] = i
	}
	return &Dictionary{tokens: tokens, train: train, val: val}, nil
}

func extractTokens(meta []byte) ([]string, error) {
	if len(meta) <= metaZlibOffset {
		return nil, services.Wrap(services.ErrParse, "labels", "decompress metadata", "blob too short", nil)
	}
	zr, err := zlib.NewReader(bytes.NewReader(meta[metaZlibOffset:]))
	if err != nil {
		return nil, services.Wrap(services.ErrParse, "labels", "decompress metadata", "", err)
	}
	defer zr.Close()

	// Tolerate a truncated tail; everything useful precedes it.
	decompressed, err := io.ReadAll(zr)
	if len(decompressed) == 0 {
		return nil, services.Wrap(services.ErrParse, "labels", "decompress metadata", "empty stream", err)
	}

	matches := tokenPattern.FindAll(decompressed, -1)
	seen := make(map[string]struct{}, len(matches))
	tokens := make([]string, 0, len(matches))
	for _, match := range matches {
		token := string(match)
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}
	if len(tokens) == 0 {
		return nil, services.Wrap(services.ErrParse, "labels", "scan metadata", "no class tokens found", nil)
	}
	return tokens, nil
}

func parseGroundTruth(truth []byte) (map[string]int, error) {
	val := make(map[string]int)
	scanner := bufio.NewScanner(bytes.NewReader(truth))
	line := 0
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		line++
		value, err := strconv.Atoi(text)
		if err != nil {
			return nil, services.Wrap(services.ErrParse, "labels", "parse ground truth",
				fmt.Sprintf("line %d: %q", line, text), err)
		}
		val[fmt.Sprintf("%08d", line)] = value - 1
	}
	if err := scanner.Err(); err != nil {
		return nil, services.Wrap(services.ErrParse, "labels", "scan ground truth", "", err)
	}
	if line == 0 {
		return nil, services.Wrap(services.ErrParse, "labels", "parse ground truth", "no lines", nil)
	}
	return val, nil
}
