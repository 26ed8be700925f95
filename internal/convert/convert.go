// Package convert renders the DOCX artifact into PDF by invoking an
// external LibreOffice out of process. Conversion failing never invalidates
// the DOCX; the caller keeps the primary artifact either way.
package convert

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Fen1x123/medconsultant/internal/common"
)

// Runner lets us stub the external tool in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

type Converter struct {
	soffice string
	runner  Runner
	logger  *slog.Logger
}

func NewConverter(soffice string, logger *slog.Logger) *Converter {
	return NewConverterWithRunner(soffice, execRunner{}, logger)
}

func NewConverterWithRunner(soffice string, r Runner, logger *slog.Logger) *Converter {
	if soffice == "" {
		soffice = "soffice"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{soffice: soffice, runner: r, logger: logger}
}

// ToPDF converts DOCX bytes through a scratch directory that is removed on
// every exit path. Tool missing, tool crashing, and no output file all
// surface as a conversion error; there is no automatic retry.
func (c *Converter) ToPDF(ctx context.Context, docxBytes []byte) ([]byte, error) {
	start := time.Now()

	tmpDir, err := os.MkdirTemp("", "mc-conv-*")
	if err != nil {
		return nil, common.NewAppError("CONVERT_ERROR", "scratch dir: "+err.Error(), common.ErrConversion)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			c.logger.Warn("failed to remove scratch dir", "dir", tmpDir, "error", err)
		}
	}()

	in := filepath.Join(tmpDir, uuid.New().String()+".docx")
	if err := os.WriteFile(in, docxBytes, 0o600); err != nil {
		return nil, common.NewAppError("CONVERT_ERROR", "write docx: "+err.Error(), common.ErrConversion)
	}

	// soffice --headless --convert-to pdf --outdir <tmp> <in.docx>
	_, errb, err := c.runner.Run(ctx, c.soffice, "--headless", "--convert-to", "pdf", "--outdir", tmpDir, in)
	if err != nil {
		c.logger.Error("convert.pdf.failed",
			"error", err,
			"stderr", truncate(string(errb), 2048),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewAppError("CONVERT_ERROR", fmt.Sprintf("%s: %v", c.soffice, err), common.ErrConversion)
	}

	matches, _ := filepath.Glob(filepath.Join(tmpDir, "*.pdf"))
	if len(matches) == 0 {
		return nil, common.NewAppError("CONVERT_ERROR", "converter produced no output file", common.ErrConversion)
	}
	out, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, common.NewAppError("CONVERT_ERROR", "read output: "+err.Error(), common.ErrConversion)
	}

	c.logger.Info("convert.pdf.ok",
		"in_bytes", len(docxBytes),
		"out_bytes", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
