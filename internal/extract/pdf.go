package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfTextStrategy is one candidate way of getting text out of a PDF.
// Strategies are tried in order; the first non-whitespace result wins.
type pdfTextStrategy struct {
	name string
	run  func(ctx context.Context) (string, error)
}

// extractPDF runs the text strategy chain and enumerates embedded raster
// images. Everything that fails turns into a warning; the file proceeds
// with whatever was obtained.
func (e *Extractor) extractPDF(ctx context.Context, data []byte) (text string, images [][]byte, method string, warnings []string) {
	tmpDir, err := os.MkdirTemp("", "mc-pdf-*")
	if err != nil {
		return "", nil, "", []string{fmt.Sprintf("scratch dir: %v", err)}
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("failed to remove scratch dir", "dir", tmpDir, "error", err)
		}
	}()

	path := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", nil, "", []string{fmt.Sprintf("scratch file: %v", err)}
	}

	strategies := []pdfTextStrategy{
		{"pdf-text", func(context.Context) (string, error) { return pdfPlainText(data) }},
		{"pdftotext", func(ctx context.Context) (string, error) { return e.pdfToText(ctx, path) }},
		{"pdf-ocr", func(ctx context.Context) (string, error) { return e.pdfToOCR(ctx, path) }},
	}
	for _, s := range strategies {
		t, err := s.run(ctx)
		if err != nil {
			warnings = append(warnings, s.name+": "+err.Error())
			continue
		}
		if strings.TrimSpace(t) != "" {
			text, method = t, s.name
			break
		}
	}

	imgs, w := e.pdfImages(ctx, path, tmpDir)
	images = append(images, imgs...)
	warnings = append(warnings, w...)
	return text, images, method, warnings
}

// pdfPlainText walks pages in-process. The reader is known to panic on some
// malformed font tables, so the panic is converted to an error and the next
// strategy takes over.
func pdfPlainText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		s, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(s)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext: %v: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (string, error) {
	prefix := filepath.Join(filepath.Dir(path), "page")
	// pdftoppm -r 300 -png <in.pdf> <dir/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm: %v: %s", err, truncate(string(errb), 512))
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("pdftoppm produced no pages")
	}

	var b strings.Builder
	for _, img := range matches {
		txt, err := e.tesseractOCR(ctx, img)
		if err != nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(txt)
	}
	return b.String(), nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %v: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

// pdfImages enumerates embedded raster images via pdfimages into the
// scratch dir. A failing tool is a warning, never an error.
func (e *Extractor) pdfImages(ctx context.Context, path, tmpDir string) ([][]byte, []string) {
	prefix := filepath.Join(tmpDir, "img")
	// pdfimages -png <in.pdf> <dir/img>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdfimages, "-png", path, prefix)
	if err != nil {
		return nil, []string{fmt.Sprintf("pdfimages: %v: %s", err, truncate(string(errb), 512))}
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)

	var images [][]byte
	var warns []string
	for _, m := range matches {
		b, err := os.ReadFile(m)
		if err != nil {
			warns = append(warns, fmt.Sprintf("read %s: %v", filepath.Base(m), err))
			continue
		}
		images = append(images, b)
	}
	return images, warns
}
