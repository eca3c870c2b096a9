package magick

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"testing"

	"imageset/internal/services"
)

func TestNewCLIWithBinary(t *testing.T) {
	cli := NewCLI(WithBinary("/opt/magick/convert"))
	if cli.binary != "/opt/magick/convert" {
		t.Fatalf("expected binary override to be applied, got %q", cli.binary)
	}
}

func TestResizeRequiresBytes(t *testing.T) {
	cli := NewCLI()
	if _, err := cli.Resize(context.Background(), nil, 256); err == nil {
		t.Fatal("expected error when image bytes are empty")
	}
}

func TestResizeZeroTargetPassesThrough(t *testing.T) {
	cli := NewCLI()
	data := []byte("jpeg bytes")
	out, err := cli.Resize(context.Background(), data, 0)
	if err != nil {
		t.Fatalf("Resize returned error: %v", err)
	}
	if string(out) != string(data) {
		t.Fatal("expected unmodified bytes when target size is 0")
	}
}

func TestResizeBuildsConvertPipeline(t *testing.T) {
	var capturedArgs []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		capturedArgs = append([]string(nil), args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "MAGICK_HELPER_MODE=echo")
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})

	cli := NewCLI()
	out, err := cli.Resize(context.Background(), []byte("payload"), 256)
	if err != nil {
		t.Fatalf("Resize returned error: %v", err)
	}
	if string(out) != "payload" {
		t.Fatalf("expected helper to echo stdin, got %q", out)
	}

	want := []string{"jpg:-", "-resize", "256x256^>", "-interpolate", "Catrom", "jpg:-"}
	if strings.Join(capturedArgs, " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected convert args: %v", capturedArgs)
	}
}

func TestResizeSurfacesToolFailure(t *testing.T) {
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "MAGICK_HELPER_MODE=fail")
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})

	cli := NewCLI()
	_, err := cli.Resize(context.Background(), []byte("payload"), 256)
	if !errors.Is(err, services.ErrDecode) {
		t.Fatalf("expected decode-tagged failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "corrupt data") {
		t.Fatalf("expected stderr detail in error, got %v", err)
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	switch os.Getenv("MAGICK_HELPER_MODE") {
	case "echo":
		data, _ := io.ReadAll(os.Stdin)
		_, _ = os.Stdout.Write(data)
	case "fail":
		fmt.Fprintln(os.Stderr, "convert: corrupt data")
		os.Exit(1)
	}
}
