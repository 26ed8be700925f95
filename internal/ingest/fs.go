// Package ingest loads documents from the filesystem into the session
// store, inferring a date for each file as it enters.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Fen1x123/medconsultant/constants"
	"github.com/Fen1x123/medconsultant/internal/session"
	"github.com/Fen1x123/medconsultant/internal/timeline"
)

// FSIngestor reads from the local filesystem into a session store.
type FSIngestor struct {
	Store       *session.Store
	Inferencer  *timeline.Inferencer
	AllowedExts map[string]struct{} // lowercased sans '.'; nil -> default set
	logger      *slog.Logger
}

func NewFSIngestor(store *session.Store, inf *timeline.Inferencer, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{Store: store, Inferencer: inf, logger: logger}
}

// IngestionResult describes one ingested (or failed) path.
type IngestionResult struct {
	SourcePath string
	Name       string
	Date       time.Time
	Bytes      int
	Err        string
}

// DirStats aggregates a directory walk.
type DirStats struct {
	Scanned   int
	Matched   int
	Succeeded int
	Failed    int
}

func (i *FSIngestor) allowed(ext string) bool {
	ext = constants.NormalizeExt(ext)
	if i.AllowedExts != nil {
		_, ok := i.AllowedExts[ext]
		return ok
	}
	_, ok := constants.AllowedExtensions[ext]
	return ok
}

// IngestPath loads one file into the session. The file's date is inferred
// here; a later user correction survives re-ingestion of the same name.
func (i *FSIngestor) IngestPath(ctx context.Context, path string) (IngestionResult, error) {
	var out IngestionResult

	abs, err := filepath.Abs(path)
	if err != nil {
		i.logger.Error("ingest.abs_path", "path", path, "error", err)
		return out, err
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !i.allowed(ext) {
		i.logger.Warn("ingest.unsupported_ext", "path", abs, "ext", ext)
		return out, fmt.Errorf("unsupported or missing extension")
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		i.logger.Error("ingest.read", "path", abs, "error", err)
		return out, err
	}

	name := filepath.Base(abs)
	now := time.Now().UTC()
	date := i.Inferencer.Infer(name, data, now)
	f := i.Store.Upload(name, data, date)

	out = IngestionResult{
		SourcePath: abs,
		Name:       f.Name,
		Date:       f.Date,
		Bytes:      len(data),
	}
	i.logger.Info("ingest.ok", "name", name, "bytes", len(data), "date", f.Date.Format("2006-01-02"))
	return out, nil
}

// IngestDirectory walks root, skips hidden entries if requested, and calls
// IngestPath for each matching file. Per-file failures never abort the
// walk; the caller gets per-file results plus aggregate stats.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if !i.allowed(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, path)
		if err != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}

		results = append(results, r)
		stats.Succeeded++
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}

// isHidden checks if a file or directory is hidden (starts with '.').
func isHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}
