package render_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/scadtools/scadrender/internal/render"
	"github.com/scadtools/scadrender/internal/scadview"
)

const testScript = "difference() {\n  cube(size = 10, center = true);\n  sphere(r = 6.5, $fn = 100);\n}\n"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeTestPNG encodes a small valid PNG fixture.
func writeTestPNG(t *testing.T, path string) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture png: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write fixture png: %v", err)
	}
	return buf.Bytes()
}

// writeFakeRenderer installs an executable shell script standing in for the
// external renderer. The script sees the real argv, with the output path as
// the value following -o.
func writeFakeRenderer(t *testing.T, dir, body string) string {
	t.Helper()

	path := filepath.Join(dir, "fake-openscad")
	script := "#!/bin/sh\nout=\"$2\"\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake renderer: %v", err)
	}
	return path
}

func newTestRenderer(t *testing.T, binary string, timeout time.Duration) (*render.Renderer, string, string) {
	t.Helper()

	dataDir := t.TempDir()
	tempDir := t.TempDir()
	r, err := render.New(render.Options{
		Binary:  binary,
		Timeout: timeout,
		DataDir: dataDir,
		TempDir: tempDir,
	}, discardLogger())
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r, dataDir, tempDir
}

func requireEmptyDir(t *testing.T, dir string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("temp dir not empty after request: %v", names)
	}
}

func TestRender_SuccessArchivesScriptAndImage(t *testing.T) {
	t.Parallel()

	fixtureDir := t.TempDir()
	pngPath := filepath.Join(fixtureDir, "fixture.png")
	pngBytes := writeTestPNG(t, pngPath)
	binary := writeFakeRenderer(t, fixtureDir, fmt.Sprintf("cp %q \"$out\"", pngPath))
	r, dataDir, tempDir := newTestRenderer(t, binary, 5*time.Second)

	img, err := r.Render(context.Background(), render.Request{
		Script:    testScript,
		BaseName:  "part1",
		View:      scadview.ViewTop,
		ImageSize: render.DefaultImageSize,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if img.Format != "png" || img.MediaType != "image/png" {
		t.Fatalf("unexpected envelope: format=%q media_type=%q", img.Format, img.MediaType)
	}
	if img.Width != 4 || img.Height != 4 {
		t.Fatalf("unexpected dimensions: %dx%d", img.Width, img.Height)
	}
	if !bytes.Equal(img.Data, pngBytes) {
		t.Fatalf("envelope bytes differ from rendered file")
	}

	scriptPath := render.ArchivedScriptPath(dataDir, "part1")
	archivedScript, err := os.ReadFile(scriptPath)
	if err != nil {
		t.Fatalf("read archived script: %v", err)
	}
	if string(archivedScript) != testScript {
		t.Fatalf("archived script differs from input:\n%s", archivedScript)
	}

	imagePath := render.ArchivedImagePath(dataDir, "part1", scadview.ViewTop)
	archivedImage, err := os.ReadFile(imagePath)
	if err != nil {
		t.Fatalf("read archived image: %v", err)
	}
	if !bytes.Equal(archivedImage, pngBytes) {
		t.Fatalf("archived image differs from rendered file")
	}

	requireEmptyDir(t, tempDir)
}

func TestRender_PassesFixedFlagOrder(t *testing.T) {
	t.Parallel()

	fixtureDir := t.TempDir()
	pngPath := filepath.Join(fixtureDir, "fixture.png")
	writeTestPNG(t, pngPath)
	argsPath := filepath.Join(fixtureDir, "args.txt")
	binary := writeFakeRenderer(t, fixtureDir,
		fmt.Sprintf("printf '%%s\\n' \"$@\" > %q\ncp %q \"$out\"", argsPath, pngPath))
	r, _, _ := newTestRenderer(t, binary, 5*time.Second)

	_, err := r.Render(context.Background(), render.Request{
		Script:    testScript,
		BaseName:  "flags",
		View:      scadview.View3D,
		ImageSize: render.ImageSize{Width: 320, Height: 240},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	raw, err := os.ReadFile(argsPath)
	if err != nil {
		t.Fatalf("read recorded args: %v", err)
	}
	args := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(args) != 10 {
		t.Fatalf("expected 10 argv entries, got %d: %q", len(args), args)
	}
	if args[0] != "-o" {
		t.Fatalf("argv[0] = %q, want -o", args[0])
	}
	want := []string{"--autocenter", "--viewall", "--imgsize=320,240", "--camera", "70,70,50,0,0,0", "--projection", "perspective"}
	for i, flag := range want {
		if args[2+i] != flag {
			t.Fatalf("argv[%d] = %q, want %q", 2+i, args[2+i], flag)
		}
	}
	if !strings.HasSuffix(args[9], "flags.scad") {
		t.Fatalf("final argv entry %q is not the script path", args[9])
	}
}

func TestRender_NonZeroExitCarriesStderr(t *testing.T) {
	t.Parallel()

	fixtureDir := t.TempDir()
	binary := writeFakeRenderer(t, fixtureDir, "echo 'CGAL error: bad polyhedron' >&2\nexit 3")
	r, _, tempDir := newTestRenderer(t, binary, 5*time.Second)

	_, err := r.Render(context.Background(), render.Request{
		Script:    testScript,
		BaseName:  "bad",
		View:      scadview.ViewFront,
		ImageSize: render.DefaultImageSize,
	})

	var toolErr *render.ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected ToolError, got %v", err)
	}
	if toolErr.MissingOutput {
		t.Fatalf("non-zero exit must not be flagged as missing output")
	}
	if toolErr.ExitCode != 3 {
		t.Fatalf("exit code = %d, want 3", toolErr.ExitCode)
	}
	if !strings.Contains(toolErr.Stderr, "CGAL error: bad polyhedron") {
		t.Fatalf("stderr not captured: %q", toolErr.Stderr)
	}
	requireEmptyDir(t, tempDir)
}

func TestRender_ZeroExitMissingOutputIsDistinct(t *testing.T) {
	t.Parallel()

	fixtureDir := t.TempDir()
	binary := writeFakeRenderer(t, fixtureDir, "exit 0")
	r, _, tempDir := newTestRenderer(t, binary, 5*time.Second)

	_, err := r.Render(context.Background(), render.Request{
		Script:    testScript,
		BaseName:  "empty",
		View:      scadview.ViewLeft,
		ImageSize: render.DefaultImageSize,
	})

	var toolErr *render.ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected ToolError, got %v", err)
	}
	if !toolErr.MissingOutput {
		t.Fatalf("expected MissingOutput variant, got %+v", toolErr)
	}
	if !strings.Contains(err.Error(), "produced no output") {
		t.Fatalf("missing-output message must be distinct, got: %v", err)
	}
	requireEmptyDir(t, tempDir)
}

func TestRender_TimeoutLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	fixtureDir := t.TempDir()
	binary := writeFakeRenderer(t, fixtureDir, "exec sleep 5")
	r, _, tempDir := newTestRenderer(t, binary, 100*time.Millisecond)

	start := time.Now()
	_, err := r.Render(context.Background(), render.Request{
		Script:    testScript,
		BaseName:  "slow",
		View:      scadview.ViewTop,
		ImageSize: render.DefaultImageSize,
	})
	if !errors.Is(err, render.ErrRenderTimeout) {
		t.Fatalf("expected ErrRenderTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("timeout did not terminate the process promptly: %s", elapsed)
	}

	var timeoutErr *render.TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if timeoutErr.Timeout != 100*time.Millisecond {
		t.Fatalf("timeout = %s, want 100ms", timeoutErr.Timeout)
	}
	requireEmptyDir(t, tempDir)
}

func TestRender_InvalidViewRejectedBeforeSpawn(t *testing.T) {
	t.Parallel()

	fixtureDir := t.TempDir()
	markerPath := filepath.Join(fixtureDir, "invoked")
	binary := writeFakeRenderer(t, fixtureDir, fmt.Sprintf("touch %q\nexit 0", markerPath))
	r, _, _ := newTestRenderer(t, binary, 5*time.Second)

	_, err := r.Render(context.Background(), render.Request{
		Script:    testScript,
		BaseName:  "part1",
		View:      "sideways",
		ImageSize: render.DefaultImageSize,
	})
	if !errors.Is(err, scadview.ErrInvalidView) {
		t.Fatalf("expected ErrInvalidView, got %v", err)
	}
	if _, statErr := os.Stat(markerPath); !os.IsNotExist(statErr) {
		t.Fatalf("renderer must not be spawned for an invalid view")
	}
}

func TestRender_RequestValidation(t *testing.T) {
	t.Parallel()

	fixtureDir := t.TempDir()
	binary := writeFakeRenderer(t, fixtureDir, "exit 0")
	r, _, _ := newTestRenderer(t, binary, 5*time.Second)

	tests := []struct {
		name    string
		req     render.Request
		wantErr error
	}{
		{
			name:    "empty script",
			req:     render.Request{Script: "   ", BaseName: "a", View: scadview.ViewTop, ImageSize: render.DefaultImageSize},
			wantErr: render.ErrScriptEmpty,
		},
		{
			name:    "path traversal base name",
			req:     render.Request{Script: testScript, BaseName: "../etc/passwd", View: scadview.ViewTop, ImageSize: render.DefaultImageSize},
			wantErr: render.ErrBaseNameInvalid,
		},
		{
			name:    "separator in base name",
			req:     render.Request{Script: testScript, BaseName: "a/b", View: scadview.ViewTop, ImageSize: render.DefaultImageSize},
			wantErr: render.ErrBaseNameInvalid,
		},
		{
			name:    "zero image dimension",
			req:     render.Request{Script: testScript, BaseName: "a", View: scadview.ViewTop, ImageSize: render.ImageSize{Width: 0, Height: 600}},
			wantErr: render.ErrImageSizeInvalid,
		},
		{
			name:    "oversized image",
			req:     render.Request{Script: testScript, BaseName: "a", View: scadview.ViewTop, ImageSize: render.ImageSize{Width: 9000, Height: 600}},
			wantErr: render.ErrImageSizeInvalid,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := r.Render(context.Background(), tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestRender_InvalidOutputYieldsDecodeError(t *testing.T) {
	t.Parallel()

	fixtureDir := t.TempDir()
	binary := writeFakeRenderer(t, fixtureDir, "echo 'this is not a png' > \"$out\"")
	r, _, tempDir := newTestRenderer(t, binary, 5*time.Second)

	_, err := r.Render(context.Background(), render.Request{
		Script:    testScript,
		BaseName:  "garbage",
		View:      scadview.ViewTop,
		ImageSize: render.DefaultImageSize,
	})

	var decodeErr *render.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	requireEmptyDir(t, tempDir)
}

func TestRender_IdenticalInputsProduceIdenticalArchives(t *testing.T) {
	t.Parallel()

	fixtureDir := t.TempDir()
	pngPath := filepath.Join(fixtureDir, "fixture.png")
	writeTestPNG(t, pngPath)
	binary := writeFakeRenderer(t, fixtureDir, fmt.Sprintf("cp %q \"$out\"", pngPath))
	r, dataDir, _ := newTestRenderer(t, binary, 5*time.Second)

	req := render.Request{
		Script:    testScript,
		BaseName:  "stable",
		View:      scadview.ViewFront,
		ImageSize: render.DefaultImageSize,
	}
	if _, err := r.Render(context.Background(), req); err != nil {
		t.Fatalf("first render: %v", err)
	}
	first, err := os.ReadFile(render.ArchivedImagePath(dataDir, "stable", scadview.ViewFront))
	if err != nil {
		t.Fatalf("read first archive: %v", err)
	}

	if _, err := r.Render(context.Background(), req); err != nil {
		t.Fatalf("second render: %v", err)
	}
	second, err := os.ReadFile(render.ArchivedImagePath(dataDir, "stable", scadview.ViewFront))
	if err != nil {
		t.Fatalf("read second archive: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Fatalf("archives differ across identical invocations")
	}
}

func TestRenderFile_PlacesImageAtTarget(t *testing.T) {
	t.Parallel()

	fixtureDir := t.TempDir()
	pngPath := filepath.Join(fixtureDir, "fixture.png")
	pngBytes := writeTestPNG(t, pngPath)
	binary := writeFakeRenderer(t, fixtureDir, fmt.Sprintf("cp %q \"$out\"", pngPath))
	r, _, tempDir := newTestRenderer(t, binary, 5*time.Second)

	outDir := t.TempDir()
	outPath := filepath.Join(outDir, "model_top.png")
	err := r.RenderFile(context.Background(), testScript, scadview.ViewTop, render.DefaultImageSize, outPath)
	if err != nil {
		t.Fatalf("render file: %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, pngBytes) {
		t.Fatalf("output bytes differ from rendered file")
	}
	requireEmptyDir(t, tempDir)
}

func TestParseImageSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    render.ImageSize
		wantErr bool
	}{
		{input: "800,600", want: render.ImageSize{Width: 800, Height: 600}},
		{input: " 320 , 240 ", want: render.ImageSize{Width: 320, Height: 240}},
		{input: "800", wantErr: true},
		{input: "800,600,2", wantErr: true},
		{input: "0,600", wantErr: true},
		{input: "-1,600", wantErr: true},
		{input: "800,tall", wantErr: true},
		{input: "5000,600", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()

			got, err := render.ParseImageSize(tc.input)
			if tc.wantErr {
				if !errors.Is(err, render.ErrImageSizeInvalid) {
					t.Fatalf("ParseImageSize(%q): expected ErrImageSizeInvalid, got %v", tc.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseImageSize(%q): %v", tc.input, err)
			}
			if got != tc.want {
				t.Fatalf("ParseImageSize(%q) = %+v, want %+v", tc.input, got, tc.want)
			}
		})
	}
}
