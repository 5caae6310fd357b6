// Command scadgen builds an OpenSCAD model programmatically and renders it to
// PNG images in all four camera views.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/scadtools/scadrender/internal/render"
	"github.com/scadtools/scadrender/internal/scadgen"
	"github.com/scadtools/scadrender/internal/scadview"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("scadgen", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var example string
	var outputDir string
	var baseName string
	var binary string
	var sizeSpec string
	var timeout time.Duration

	fs.StringVar(&example, "example", "", "render a built-in example model (complex, gear)")
	fs.StringVar(&outputDir, "o", ".", "output directory for images")
	fs.StringVar(&baseName, "n", "solid_render", "base name for output files")
	fs.StringVar(&binary, "binary", render.DefaultBinary, "renderer executable")
	fs.StringVar(&sizeSpec, "size", render.DefaultImageSize.String(), "image size as W,H")
	fs.DurationVar(&timeout, "timeout", render.DefaultTimeout, "per-view render timeout")

	if err := fs.Parse(args); err != nil {
		return err
	}

	model, err := selectModel(example, out)
	if err != nil {
		return err
	}
	size, err := render.ParseImageSize(sizeSpec)
	if err != nil {
		return err
	}
	if !render.ValidBaseName(baseName) {
		return fmt.Errorf("invalid base name %q", baseName)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	renderer, err := render.New(render.Options{
		Binary:  binary,
		Timeout: timeout,
		DataDir: outputDir,
	}, logger)
	if err != nil {
		return err
	}

	script := scadgen.Source(model)
	fmt.Fprintf(out, "Rendering views to %q...\n", outputDir)

	group, ctx := errgroup.WithContext(context.Background())
	for _, view := range scadview.All() {
		group.Go(func() error {
			outPath := filepath.Join(outputDir, fmt.Sprintf("%s_%s.png", baseName, view))
			if err := renderer.RenderFile(ctx, script, view, size, outPath); err != nil {
				return fmt.Errorf("render %s view: %w", view, err)
			}
			fmt.Fprintf(out, "Rendered: %s\n", outPath)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	fmt.Fprintf(out, "Successfully rendered %d views:\n", len(scadview.All()))
	for _, view := range scadview.All() {
		fmt.Fprintf(out, "  - %s_%s.png\n", baseName, view)
	}
	return nil
}

func selectModel(example string, out io.Writer) (scadgen.Node, error) {
	switch example {
	case "":
		fmt.Fprintln(out, "Creating default example: cube with sphere cutout...")
		return scadgen.DefaultExample(), nil
	default:
		build, ok := scadgen.Examples[example]
		if !ok {
			return nil, fmt.Errorf("unknown example %q (available: complex, gear)", example)
		}
		fmt.Fprintf(out, "Creating %s example model...\n", example)
		return build(), nil
	}
}
