// Package pipeline coordinates one report-generation request: extract →
// assemble → model call → render, in strict sequence. Extraction is
// re-run on every request because notes and dates may have changed.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Fen1x123/medconsultant/internal/convert"
	"github.com/Fen1x123/medconsultant/internal/extract"
	"github.com/Fen1x123/medconsultant/internal/imaging"
	"github.com/Fen1x123/medconsultant/internal/llm"
	"github.com/Fen1x123/medconsultant/internal/prompt"
	"github.com/Fen1x123/medconsultant/internal/report"
	"github.com/Fen1x123/medconsultant/internal/session"
)

type Processor struct {
	Logger     *slog.Logger
	Extractor  *extract.Extractor
	Normalizer *imaging.Normalizer
	Assembler  *prompt.Assembler
	Model      llm.Completer
	Converter  *convert.Converter

	now func() time.Time
}

func NewProcessor(
	logger *slog.Logger,
	ex *extract.Extractor,
	norm *imaging.Normalizer,
	asm *prompt.Assembler,
	model llm.Completer,
	conv *convert.Converter,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Logger:     logger,
		Extractor:  ex,
		Normalizer: norm,
		Assembler:  asm,
		Model:      model,
		Converter:  conv,
		now:        time.Now,
	}
}

// GenerateResult carries the primary artifact of one successful run.
type GenerateResult struct {
	Artifact report.Artifact
	DOCX     []byte
	Blocks   int
	Warnings []string
}

// Generate runs the full synchronous pipeline. A model failure is fatal to
// this request only: the session state stays intact for a retry. File-level
// extraction problems are collected as warnings and never abort the batch.
func (p *Processor) Generate(ctx context.Context, store *session.Store, patient session.PatientContext, globalNote string) (GenerateResult, error) {
	start := p.now()
	var out GenerateResult

	files := store.Files()
	pfiles := make([]prompt.File, 0, len(files))
	for _, f := range files {
		res := p.Extractor.Extract(ctx, f.Name, f.Data)
		for _, w := range res.Warnings {
			out.Warnings = append(out.Warnings, f.Name+": "+w)
		}

		imgs := make([]prompt.Image, 0, len(res.Images))
		for _, raw := range res.Images {
			n := p.Normalizer.Normalize(raw)
			imgs = append(imgs, prompt.Image{Data: n, MIME: imaging.MIME(n)})
		}
		pfiles = append(pfiles, prompt.File{
			Name:   f.Name,
			Date:   f.Date,
			Note:   f.Note,
			Text:   res.Text,
			Images: imgs,
		})
	}

	blocks := p.Assembler.Assemble(patient, globalNote, pfiles)
	out.Blocks = len(blocks)

	body, err := p.Model.Complete(ctx, blocks)
	if err != nil {
		p.Logger.Error("pipeline.model.failed", "err", err, "elapsed_ms", time.Since(start).Milliseconds())
		return out, err
	}

	art := report.Render(patient, p.now(), body)
	docxBytes, err := art.DOCX()
	if err != nil {
		p.Logger.Error("pipeline.render.failed", "err", err)
		return out, fmt.Errorf("render report: %w", err)
	}

	out.Artifact = art
	out.DOCX = docxBytes
	p.Logger.Info("pipeline.generate.ok",
		"files", len(files),
		"blocks", out.Blocks,
		"warnings", len(out.Warnings),
		"docx_bytes", len(docxBytes),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// ConvertPDF derives the secondary artifact. A failure here leaves the
// DOCX from Generate fully deliverable.
func (p *Processor) ConvertPDF(ctx context.Context, docxBytes []byte) ([]byte, error) {
	return p.Converter.ToPDF(ctx, docxBytes)
}
