package services_test

import (
	"errors"
	"strings"
	"testing"

	"imageset/internal/services"
)

func TestWrapTagsMarkerAndDetail(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrDecode, "transform", "decode", "bad jpeg", base)
	if !errors.Is(err, services.ErrDecode) {
		t.Fatalf("expected decode marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "transform: decode: bad jpeg") {
		t.Fatalf("unexpected detail: %v", err)
	}
}

func TestWrapDefaultsToIOMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected io marker default, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %v", err)
	}
}

func TestFatalClassification(t *testing.T) {
	fatal := []error{services.ErrResourceMissing, services.ErrArchiveRead, services.ErrParse}
	for _, marker := range fatal {
		if !services.Fatal(services.Wrap(marker, "pipeline", "setup", "", nil)) {
			t.Fatalf("expected %v to be fatal", marker)
		}
	}
	isolated := []error{services.ErrLabelNotFound, services.ErrDecode, services.ErrIO}
	for _, marker := range isolated {
		if services.Fatal(services.Wrap(marker, "worker", "process", "", nil)) {
			t.Fatalf("expected %v to be isolated", marker)
		}
	}
}

func TestKindNames(t *testing.T) {
	cases := map[string]error{
		"resource_missing": services.ErrResourceMissing,
		"archive_read":     services.ErrArchiveRead,
		"parse":            services.ErrParse,
		"label_not_found":  services.ErrLabelNotFound,
		"decode":           services.ErrDecode,
		"io":               services.ErrIO,
		"unknown":          errors.New("untagged"),
	}
	for want, err := range cases {
		if got := services.Kind(err); got != want {
			t.Fatalf("Kind(%v) = %q, want %q", err, got, want)
		}
	}
}
