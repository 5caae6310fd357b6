package render

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/scadtools/scadrender/internal/scadview"
)

// invoke runs one external render. The flag order and spellings follow the
// renderer's calling convention and must not be reordered: -o, --autocenter,
// --viewall, --imgsize=W,H, --camera <6-tuple>, --projection <mode>, then the
// positional script path. Output is captured, never streamed. One attempt, no
// retries.
func (r *Renderer) invoke(ctx context.Context, scriptPath, outputPath string, camera scadview.Camera, size ImageSize) error {
	args := make([]string, 0, len(r.extraArgs)+10)
	args = append(args, r.extraArgs...)
	args = append(args,
		"-o", outputPath,
		"--autocenter",
		"--viewall",
		"--imgsize="+size.String(),
		"--camera", camera.EyeCenter,
		"--projection", string(camera.Projection),
		scriptPath,
	)

	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(timeoutCtx, r.binary, args...)
	// Don't let an orphaned child of the renderer hold the output pipes open
	// past the deadline.
	cmd.WaitDelay = time.Second

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("running renderer",
		slog.String("binary", r.binary),
		slog.Any("args", args),
	)

	err := cmd.Run()
	if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Timeout: r.timeout}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ToolError{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		// The process never started (binary missing, not executable).
		return &ToolError{ExitCode: -1, Stderr: err.Error()}
	}

	if _, err := os.Stat(outputPath); err != nil {
		if os.IsNotExist(err) {
			// Distinct from a non-zero exit: the tool claimed success but
			// wrote nothing, which points at a tool or environment defect
			// rather than a script error.
			return &ToolError{MissingOutput: true, Stderr: stderr.String()}
		}
		return &IOError{Op: "stat render output", Path: outputPath, Err: err}
	}
	return nil
}
