package embedding

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os/exec"
	"time"

	"github.com/hyperjump/lookalike/internal/upload"
	"github.com/hyperjump/lookalike/pkg/utils"
	"go.uber.org/zap"
)

// CommandEmbedder runs an external program once per image. The program is
// invoked as `command args... <image path>` and must print
// {"embedding": [...]} or {"error": "..."} on stdout.
type CommandEmbedder struct {
	command    string
	args       []string
	tempDir    string
	dimensions int
	logger     *zap.Logger
}

// CommandOption configures a CommandEmbedder.
type CommandOption func(*CommandEmbedder)

// WithTempDir sets where uploaded images are written for the process.
func WithTempDir(dir string) CommandOption {
	return func(e *CommandEmbedder) { e.tempDir = dir }
}

// WithDimensions declares the embedding length the program produces.
func WithDimensions(d int) CommandOption {
	return func(e *CommandEmbedder) { e.dimensions = d }
}

// WithCommandLogger sets a logger for process diagnostics.
func WithCommandLogger(l *zap.Logger) CommandOption {
	return func(e *CommandEmbedder) { e.logger = l }
}

// NewCommandEmbedder creates an embedder that runs command with args.
func NewCommandEmbedder(command string, args []string, opts ...CommandOption) (*CommandEmbedder, error) {
	if command == "" {
		return nil, errors.New("embedding command is required")
	}
	e := &CommandEmbedder{
		command: command,
		args:    append([]string(nil), args...),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Embed writes image to a temporary file, runs the program on it and parses
// its output. The file is removed on every return path and the process is
// killed when ctx ends.
func (e *CommandEmbedder) Embed(ctx context.Context, image []byte) ([]float32, error) {
	var vec []float32
	err := upload.WithTempFile(e.tempDir, image, imageExt(image), func(path string) error {
		args := append(append([]string(nil), e.args...), path)
		cmd := exec.CommandContext(ctx, e.command, args...)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		cmd.WaitDelay = 2 * time.Second

		start := time.Now()
		runErr := cmd.Run()
		e.logger.Debug("embedding command finished",
			zap.String("command", e.command),
			zap.Duration("took", time.Since(start)),
			zap.Int("stdout_bytes", stdout.Len()),
			zap.Error(runErr),
		)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return AsUnavailable(e.Name(), ctxErr)
		}

		out, parseErr := ParseOutput(stdout.Bytes())
		if runErr != nil {
			if stderr.Len() > 0 {
				e.logger.Warn("embedding command stderr", zap.String("stderr", utils.Truncate(stderr.String(), 2000)))
			}
			var reported *ReportedError
			if errors.As(parseErr, &reported) {
				return Unavailable(e.Name(), "embedder process failed", reported)
			}
			return Unavailable(e.Name(), "embedder process failed", runErr)
		}
		if parseErr != nil {
			return Unavailable(e.Name(), "malformed embedder output", parseErr)
		}
		vec = out
		return nil
	})
	if err != nil {
		return nil, AsUnavailable(e.Name(), err)
	}
	return vec, nil
}

// Dimensions returns the configured embedding length (0 when unknown).
func (e *CommandEmbedder) Dimensions() int { return e.dimensions }

// Name returns "command".
func (e *CommandEmbedder) Name() string { return "command" }

// Close is a no-op; no process outlives a call.
func (e *CommandEmbedder) Close() error { return nil }

// imageExt returns a file extension matching the sniffed image type so
// programs that dispatch on extension see a sensible name.
func imageExt(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	default:
		return ""
	}
}

var _ Embedder = (*CommandEmbedder)(nil)
