package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// tesseract and poppler put the useful diagnostic on the last stderr lines.
const stderrTailBytes = 512

// Runner lets tests stub the external binaries.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	attrs := []any{
		"binary", filepath.Base(name),
		"argc", len(args),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		attrs = append(attrs, "exit_code", exitCode(err), "stderr_tail", stderrTail(stderr.Bytes()), "error", err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			attrs = append(attrs, "ctx_err", ctxErr)
		}
		slog.Warn("ocr_tool_failed", attrs...)
	} else {
		slog.Debug("ocr_tool_ok", append(attrs, "stdout_bytes", stdout.Len())...)
	}
	return stdout.Bytes(), stderr.Bytes(), err
}

// toolFailure wraps a failed invocation with the binary name and the tail
// of its stderr.
func toolFailure(tool string, err error, stderr []byte) error {
	tail := stderrTail(stderr)
	if tail == "" {
		return fmt.Errorf("%s: %w", filepath.Base(tool), err)
	}
	return fmt.Errorf("%s: %w: %s", filepath.Base(tool), err, tail)
}

// stderrTail keeps the last stderrTailBytes of output on one line, cut on a
// rune boundary.
func stderrTail(stderr []byte) string {
	s := strings.Join(strings.Fields(string(stderr)), " ")
	if len(s) <= stderrTailBytes {
		return s
	}
	cut := len(s) - stderrTailBytes
	for cut < len(s) && !utf8.RuneStart(s[cut]) {
		cut++
	}
	return "..." + s[cut:]
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
