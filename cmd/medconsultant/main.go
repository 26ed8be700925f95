// Command medconsultant ingests medical documents, asks the configured
// model for a consultation report, and writes the DOCX (and optionally
// PDF and a session-manifest XLSX) artifacts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Fen1x123/medconsultant/internal/common"
	"github.com/Fen1x123/medconsultant/internal/convert"
	"github.com/Fen1x123/medconsultant/internal/export"
	"github.com/Fen1x123/medconsultant/internal/extract"
	"github.com/Fen1x123/medconsultant/internal/imaging"
	"github.com/Fen1x123/medconsultant/internal/ingest"
	"github.com/Fen1x123/medconsultant/internal/llm/openai"
	"github.com/Fen1x123/medconsultant/internal/pipeline"
	"github.com/Fen1x123/medconsultant/internal/prompt"
	"github.com/Fen1x123/medconsultant/internal/session"
	"github.com/Fen1x123/medconsultant/internal/timeline"
)

const reportBasename = "MedConsultant_Report"

type multiFlag []string

func (m *multiFlag) String() string     { return strings.Join(*m, ",") }
func (m *multiFlag) Set(v string) error { *m = append(*m, v); return nil }

func main() {
	var (
		patientPath = flag.String("patient", "", "path to a patient context JSON file {name, age, sex}")
		patientName = flag.String("name", "", "patient name (overrides -patient)")
		patientAge  = flag.String("age", "", "patient age")
		patientSex  = flag.String("sex", "", "patient sex")
		globalNote  = flag.String("note", "", "global analysis instructions (sent to the model, never rendered)")
		outDir      = flag.String("out", ".", "output directory for artifacts")
		wantPDF     = flag.Bool("pdf", false, "also convert the report to PDF")
		wantXLSX    = flag.Bool("xlsx", false, "also export the session manifest XLSX")
		watch       = flag.Bool("watch", false, "watch the given directories and regenerate on new files")
	)
	var setNotes, setDates multiFlag
	flag.Var(&setNotes, "set-note", "per-file note as name=text (repeatable)")
	flag.Var(&setDates, "set-date", "per-file date correction as name=YYYY-MM-DD (repeatable)")
	flag.Parse()

	// Structured logger that outputs messages with variables but no time/level
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(2)
	}
	if flag.NArg() == 0 {
		logger.Error("no input files or directories given")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	patient := session.PatientContext{Name: *patientName, Age: *patientAge, Sex: *patientSex}
	if *patientPath != "" {
		pc, err := session.LoadPatientContext(*patientPath)
		if err != nil {
			logger.Error("failed to load patient context", "path", *patientPath, "error", err)
			os.Exit(1)
		}
		if patient.Name == "" {
			patient.Name = pc.Name
		}
		if patient.Age == "" {
			patient.Age = pc.Age
		}
		if patient.Sex == "" {
			patient.Sex = pc.Sex
		}
	}

	store := session.NewStore(logger)
	inferencer := timeline.NewInferencer(logger)
	ingestor := ingest.NewFSIngestor(store, inferencer, logger)

	extractor := extract.NewExtractor(extract.Config{
		TessdataDir: os.Getenv("TESSDATA_PREFIX"),
	}, logger)
	normalizer := imaging.NewNormalizer(cfg.Prompt.MaxImageDim, logger)
	assembler := prompt.NewAssembler(cfg.Prompt.MaxTextChars, logger)
	model := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	converter := convert.NewConverter(cfg.Convert.Soffice, logger)
	processor := pipeline.NewProcessor(logger, extractor, normalizer, assembler, model, converter)

	ingestArgs(ctx, ingestor, flag.Args(), logger)
	applyEdits(store, setNotes, setDates, logger)

	if *watch {
		runWatch(ctx, processor, ingestor, store, patient, *globalNote, *outDir, *wantPDF, *wantXLSX, logger)
		return
	}

	if err := generateOnce(ctx, processor, store, patient, *globalNote, *outDir, *wantPDF, *wantXLSX, logger); err != nil {
		os.Exit(1)
	}
}

func ingestArgs(ctx context.Context, ingestor *ingest.FSIngestor, args []string, logger *slog.Logger) {
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			logger.Error("cannot stat input", "path", arg, "error", err)
			continue
		}
		if st.IsDir() {
			results, stats, err := ingestor.IngestDirectory(ctx, arg, true)
			if err != nil {
				logger.Error("directory ingestion failed", "root", arg, "error", err)
				continue
			}
			for _, r := range results {
				if r.Err != "" {
					logger.Warn("ingest.skipped", "path", r.SourcePath, "error", r.Err)
				}
			}
			logger.Info("ingest.dir.done",
				"root", arg,
				"scanned", stats.Scanned,
				"matched", stats.Matched,
				"succeeded", stats.Succeeded,
				"failed", stats.Failed,
			)
			continue
		}
		if _, err := ingestor.IngestPath(ctx, arg); err != nil {
			logger.Warn("ingest.skipped", "path", arg, "error", err)
		}
	}
}

func applyEdits(store *session.Store, notes, dates multiFlag, logger *slog.Logger) {
	for _, kv := range notes {
		name, val, ok := strings.Cut(kv, "=")
		if !ok {
			logger.Warn("ignoring malformed -set-note", "value", kv)
			continue
		}
		if err := store.SetNote(name, val); err != nil {
			logger.Warn("note not applied", "name", name, "error", err)
		}
	}
	for _, kv := range dates {
		name, val, ok := strings.Cut(kv, "=")
		if !ok {
			logger.Warn("ignoring malformed -set-date", "value", kv)
			continue
		}
		d, err := time.ParseInLocation("2006-01-02", val, time.UTC)
		if err != nil {
			logger.Warn("date not applied", "name", name, "value", val, "error", err)
			continue
		}
		if err := store.SetDate(name, d); err != nil {
			logger.Warn("date not applied", "name", name, "error", err)
		}
	}
}

func generateOnce(
	ctx context.Context,
	processor *pipeline.Processor,
	store *session.Store,
	patient session.PatientContext,
	globalNote, outDir string,
	wantPDF, wantXLSX bool,
	logger *slog.Logger,
) error {
	if store.Len() == 0 {
		logger.Error("no files in session; nothing to analyze")
		return fmt.Errorf("empty session")
	}

	res, err := processor.Generate(ctx, store, patient, globalNote)
	if err != nil {
		logger.Error("report generation failed", "error", err)
		return err
	}
	for _, w := range res.Warnings {
		logger.Warn("extraction warning", "detail", w)
	}

	docxPath := filepath.Join(outDir, reportBasename+".docx")
	if err := os.WriteFile(docxPath, res.DOCX, 0o644); err != nil {
		logger.Error("failed to write report", "path", docxPath, "error", err)
		return err
	}
	logger.Info("report written", "path", docxPath, "bytes", len(res.DOCX))

	if wantPDF {
		// a conversion failure leaves the DOCX artifact deliverable
		pdfBytes, err := processor.ConvertPDF(ctx, res.DOCX)
		if err != nil {
			logger.Error("pdf conversion failed; docx remains available", "error", err)
		} else {
			pdfPath := filepath.Join(outDir, reportBasename+".pdf")
			if err := os.WriteFile(pdfPath, pdfBytes, 0o644); err != nil {
				logger.Error("failed to write pdf", "path", pdfPath, "error", err)
			} else {
				logger.Info("pdf written", "path", pdfPath, "bytes", len(pdfBytes))
			}
		}
	}

	if wantXLSX {
		svc := export.NewService(logger)
		xlsxBytes, err := svc.ManifestXLSX(store, patient)
		if err != nil {
			logger.Error("manifest export failed", "error", err)
		} else {
			xlsxPath := filepath.Join(outDir, reportBasename+"_manifest.xlsx")
			if err := os.WriteFile(xlsxPath, xlsxBytes, 0o644); err != nil {
				logger.Error("failed to write manifest", "path", xlsxPath, "error", err)
			} else {
				logger.Info("manifest written", "path", xlsxPath, "bytes", len(xlsxBytes))
			}
		}
	}
	return nil
}

func runWatch(
	ctx context.Context,
	processor *pipeline.Processor,
	ingestor *ingest.FSIngestor,
	store *session.Store,
	patient session.PatientContext,
	globalNote, outDir string,
	wantPDF, wantXLSX bool,
	logger *slog.Logger,
) {
	var roots []string
	for _, arg := range flag.Args() {
		if st, err := os.Stat(arg); err == nil && st.IsDir() {
			roots = append(roots, arg)
		}
	}
	if len(roots) == 0 {
		logger.Error("watch mode requires at least one directory argument")
		os.Exit(1)
	}

	evCh, errCh, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:    roots,
		Debounce: 500 * time.Millisecond,
	})
	if err != nil {
		logger.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}

	logger.Info("watching for new documents", "roots", strings.Join(roots, ","))
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if ok {
				logger.Warn("watcher error", "error", err)
			}
		case path, ok := <-evCh:
			if !ok {
				return
			}
			if _, err := ingestor.IngestPath(ctx, path); err != nil {
				logger.Warn("ingest.skipped", "path", path, "error", err)
				continue
			}
			if err := generateOnce(ctx, processor, store, patient, globalNote, outDir, wantPDF, wantXLSX, logger); err != nil {
				logger.Warn("regeneration failed; session retained", "error", err)
			}
		}
	}
}
