// Package render turns OpenSCAD script text into raster images by invoking
// the external renderer binary. It owns staging, invocation, decoding,
// archiving, and guaranteed cleanup for one request at a time; concurrent
// requests are independent because each one works in a private temp
// directory.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/scadtools/scadrender/internal/scadview"
)

const (
	// DefaultBinary is the external renderer's conventional executable name.
	DefaultBinary = "openscad"
	// DefaultTimeout bounds one renderer invocation.
	DefaultTimeout = 30 * time.Second

	scadDirName   = "scad"
	renderDirName = "render"
)

// Options configures a Renderer.
type Options struct {
	// Binary is the renderer executable; defaults to DefaultBinary.
	Binary string
	// ExtraArgs are pass-through renderer flags inserted before the fixed
	// flag set.
	ExtraArgs []string
	// Timeout bounds each invocation; defaults to DefaultTimeout.
	Timeout time.Duration
	// DataDir is the durable archive root; the "latest render" polling
	// location for external monitors.
	DataDir string
	// TempDir is the parent for per-request working directories; defaults to
	// the system temp directory.
	TempDir string
}

// Renderer runs external render invocations. Safe for concurrent use.
type Renderer struct {
	binary    string
	extraArgs []string
	timeout   time.Duration
	dataDir   string
	tempDir   string
	logger    *slog.Logger
}

// New validates options and returns a Renderer.
func New(opts Options, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		return nil, errors.New("new renderer: nil logger")
	}
	if strings.TrimSpace(opts.DataDir) == "" {
		return nil, errors.New("new renderer: empty DataDir")
	}
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	return &Renderer{
		binary:    opts.Binary,
		extraArgs: append([]string(nil), opts.ExtraArgs...),
		timeout:   opts.Timeout,
		dataDir:   opts.DataDir,
		tempDir:   opts.TempDir,
		logger:    logger,
	}, nil
}

// Render runs one request through the full pipeline: validate, stage, invoke,
// load, archive. On success the script and image are archived under the data
// directory (last writer wins) and the decoded image envelope is returned.
// Temporary files are removed on every exit path.
func (r *Renderer) Render(ctx context.Context, req Request) (Image, error) {
	if err := req.validate(); err != nil {
		return Image{}, err
	}

	workDir, err := os.MkdirTemp(r.tempDir, "scadrender-")
	if err != nil {
		return Image{}, &IOError{Op: "create work dir", Path: r.tempDir, Err: err}
	}
	defer r.cleanup(workDir)

	scriptPath := filepath.Join(workDir, req.BaseName+".scad")
	outputPath := filepath.Join(workDir, req.BaseName+".png")

	if err := stageScript(scriptPath, req.Script); err != nil {
		return Image{}, err
	}

	camera, err := scadview.Lookup(req.View)
	if err != nil {
		return Image{}, err
	}
	if err := r.invoke(ctx, scriptPath, outputPath, camera, req.ImageSize); err != nil {
		return Image{}, err
	}

	img, err := loadImage(outputPath)
	if err != nil {
		return Image{}, err
	}

	if err := archiveFile(scriptPath, filepath.Join(r.dataDir, scadDirName), req.BaseName+".scad"); err != nil {
		return Image{}, err
	}
	imageName := fmt.Sprintf("%s_%s.png", req.BaseName, req.View)
	if err := archiveFile(outputPath, filepath.Join(r.dataDir, renderDirName), imageName); err != nil {
		return Image{}, err
	}

	r.logger.Info("render archived",
		slog.String("base_name", req.BaseName),
		slog.String("view", string(req.View)),
		slog.String("script", ArchivedScriptPath(r.dataDir, req.BaseName)),
		slog.String("image", ArchivedImagePath(r.dataDir, req.BaseName, req.View)),
	)
	return img, nil
}

// RenderFile renders script text for one view and atomically places the
// produced image at outPath. It shares the invocation pipeline with Render
// but skips the archive side effects; the batch CLI uses it.
func (r *Renderer) RenderFile(ctx context.Context, script string, view scadview.View, size ImageSize, outPath string) error {
	req := Request{Script: script, BaseName: DefaultBaseName, View: view, ImageSize: size}
	if err := req.validate(); err != nil {
		return err
	}

	workDir, err := os.MkdirTemp(r.tempDir, "scadrender-")
	if err != nil {
		return &IOError{Op: "create work dir", Path: r.tempDir, Err: err}
	}
	defer r.cleanup(workDir)

	scriptPath := filepath.Join(workDir, "model.scad")
	outputPath := filepath.Join(workDir, "model.png")

	if err := stageScript(scriptPath, script); err != nil {
		return err
	}
	camera, err := scadview.Lookup(view)
	if err != nil {
		return err
	}
	if err := r.invoke(ctx, scriptPath, outputPath, camera, size); err != nil {
		return err
	}
	if _, err := loadImage(outputPath); err != nil {
		return err
	}
	return archiveFile(outputPath, filepath.Dir(outPath), filepath.Base(outPath))
}

// cleanup removes a request's working directory. Already-absent paths are
// fine; anything else is logged and swallowed so it never masks the primary
// error.
func (r *Renderer) cleanup(workDir string) {
	err := os.RemoveAll(workDir)
	if err == nil || os.IsNotExist(err) {
		return
	}
	r.logger.Warn("cleanup of render work dir failed",
		slog.String("path", workDir),
		slog.Any("error", err),
	)
}

// stageScript writes script text verbatim to a private temporary path.
func stageScript(path, script string) error {
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		return &IOError{Op: "stage script", Path: path, Err: err}
	}
	return nil
}

// ArchivedScriptPath returns the durable "latest script" location for a base
// name.
func ArchivedScriptPath(dataDir, baseName string) string {
	return filepath.Join(dataDir, scadDirName, baseName+".scad")
}

// ArchivedImagePath returns the durable "latest render" location for a base
// name and view.
func ArchivedImagePath(dataDir, baseName string, view scadview.View) string {
	return filepath.Join(dataDir, renderDirName, fmt.Sprintf("%s_%s.png", baseName, view))
}
