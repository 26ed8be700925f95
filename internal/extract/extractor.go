// Package extract turns raw document bytes into machine-readable text and
// images. Extraction is best-effort per file: failures degrade to partial or
// empty content with warnings and never abort a run.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/Fen1x123/medconsultant/constants"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Pdfimages string // binary name or absolute path; if empty -> "pdfimages"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit

	TessdataDir string
}

// Result is the extracted content of one file. Text and Images may both be
// empty; Warnings collects every non-fatal failure hit along the way.
type Result struct {
	Text     string
	Images   [][]byte
	Format   constants.Format
	Method   string
	Duration time.Duration
	Warnings []string
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Pdfimages == "" {
		cfg.Pdfimages = "pdfimages"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Extract dispatches on the format variant resolved from the file name.
// It always returns a well-formed Result; there is no fatal error path.
func (e *Extractor) Extract(ctx context.Context, name string, data []byte) Result {
	start := time.Now()
	format := constants.MapExtToFormat(constants.NormalizeExt(filepath.Ext(name)))
	res := Result{Format: format}

	switch format {
	case constants.PDF:
		res.Text, res.Images, res.Method, res.Warnings = e.extractPDF(ctx, data)
	case constants.DOCX:
		text, images, warns, err := extractDocx(data)
		res.Text, res.Images, res.Warnings, res.Method = text, images, warns, "docx-zip"
		if err != nil {
			res.Warnings = append(res.Warnings, err.Error())
		}
	case constants.TEXT:
		res.Text = decodeText(data)
		res.Method = "text-decode"
	case constants.DICOM:
		text, images, warns, err := extractDICOM(data)
		res.Text, res.Images, res.Warnings, res.Method = text, images, warns, "dicom-parse"
		if err != nil {
			res.Warnings = append(res.Warnings, err.Error())
		}
	case constants.IMAGE:
		res.Images = [][]byte{data}
		res.Method = "image-passthrough"
	default:
		res.Warnings = append(res.Warnings, fmt.Sprintf("unsupported extension on %q", name))
	}

	res.Duration = time.Since(start)
	if len(res.Warnings) > 0 {
		e.logger.Warn("extract.partial",
			"name", name,
			"format", string(format),
			"warnings", len(res.Warnings),
			"text_len", len(res.Text),
			"images", len(res.Images),
		)
	} else {
		e.logger.Debug("extract.ok",
			"name", name,
			"format", string(format),
			"method", res.Method,
			"text_len", len(res.Text),
			"images", len(res.Images),
			"elapsed_ms", res.Duration.Milliseconds(),
		)
	}
	return res
}
