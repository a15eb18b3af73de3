package rendering

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

var ErrRenderFailed = errors.New("wkhtmltopdf failed")

type WkhtmltopdfConfig struct {
	// BinaryPath is looked up in PATH when not absolute.
	BinaryPath string
	// Timeout bounds a single render. Zero means no limit beyond the caller's context.
	Timeout time.Duration
	// IgnoreExitStatus keeps going after a non-zero exit as long as some PDF was written.
	IgnoreExitStatus bool
	Logger           *zap.Logger
}

type Wkhtmltopdf struct {
	config WkhtmltopdfConfig
	logger *zap.Logger
}

func NewWkhtmltopdf(cfg WkhtmltopdfConfig) *Wkhtmltopdf {
	if cfg.BinaryPath == "" {
		cfg.BinaryPath = "wkhtmltopdf"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Wkhtmltopdf{config: cfg, logger: logger}
}

// Render converts the HTML file at htmlPath into a PDF at pdfPath. Recoverable load
// errors inside the page (missing images, broken links) are tolerated by wkhtmltopdf itself.
func (w *Wkhtmltopdf) Render(ctx context.Context, htmlPath, pdfPath string, opts Options) error {
	if w.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.config.Timeout)
		defer cancel()
	}

	args := w.buildArgs(htmlPath, pdfPath, opts)
	w.logger.Debug("executing wkhtmltopdf",
		zap.String("binary", w.config.BinaryPath),
		zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, w.config.BinaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// children that inherited the pipes must not hold Wait open after a kill
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %v", ErrRenderFailed, ctxErr)
		}

		w.logger.Error("wkhtmltopdf failed",
			zap.Error(err),
			zap.String("stderr", stderr.String()),
			zap.String("stdout", stdout.String()))

		var exitErr *exec.ExitError
		if !w.config.IgnoreExitStatus || !errors.As(err, &exitErr) {
			return fmt.Errorf("%w: %v: %s", ErrRenderFailed, err, stderr.String())
		}
		if _, statErr := os.Stat(pdfPath); statErr != nil {
			return fmt.Errorf("%w: no output after non-zero exit: %v", ErrRenderFailed, statErr)
		}
		w.logger.Warn("wkhtmltopdf exited non-zero, keeping its output", zap.String("pdf", pdfPath))
	}

	w.logger.Debug("wkhtmltopdf finished",
		zap.String("pdf", pdfPath),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func (w *Wkhtmltopdf) buildArgs(htmlPath, pdfPath string, opts Options) []string {
	args := []string{"--load-error-handling", "ignore"}
	args = append(args, opts.Args()...)
	return append(args, htmlPath, pdfPath)
}
