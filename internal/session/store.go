// Package session holds the in-memory state of one consultation: the
// uploaded source files with their clinician notes and inferred dates.
// Nothing here survives the process; persistence is out of scope.
package session

import (
	"log/slog"
	"sort"
	"time"

	"github.com/Fen1x123/medconsultant/internal/common"
)

// PatientContext carries the demographic header of one report run.
// Free-form display strings, no validation.
type PatientContext struct {
	Name string `json:"name"`
	Age  string `json:"age"`
	Sex  string `json:"sex"`
}

// SourceFile is one uploaded document plus its session-local metadata.
// Date is always set after upload: inferred, or defaulted to the ingestion
// date. Once a user corrects it, DateOverridden pins the value against
// re-inference on re-upload.
type SourceFile struct {
	Name           string
	Data           []byte
	Note           string
	Date           time.Time
	DateOverridden bool

	order int // original upload position, tiebreaker for date sorting
}

// Store is the single mutable session state. All mutation goes through the
// methods below; pipeline stages receive the store as an explicit input.
type Store struct {
	files  map[string]*SourceFile
	nextID int
	logger *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{files: make(map[string]*SourceFile), logger: logger}
}

// Upload adds a file to the session. Re-uploading the same name overwrites
// the payload but keeps the original upload slot, the note, and a
// user-corrected date.
func (s *Store) Upload(name string, data []byte, date time.Time) *SourceFile {
	if prev, ok := s.files[name]; ok {
		prev.Data = data
		if !prev.DateOverridden {
			prev.Date = dateOnly(date)
		}
		s.logger.Debug("session.upload.overwrite", "name", name, "bytes", len(data))
		return prev
	}
	f := &SourceFile{
		Name:  name,
		Data:  data,
		Date:  dateOnly(date),
		order: s.nextID,
	}
	s.nextID++
	s.files[name] = f
	s.logger.Debug("session.upload", "name", name, "bytes", len(data), "date", f.Date.Format("2006-01-02"))
	return f
}

// SetNote attaches a private clinician note to a file. The note is sent to
// the model but never rendered into the report.
func (s *Store) SetNote(name, note string) error {
	f, ok := s.files[name]
	if !ok {
		return common.NewAppError("SESSION_ERROR", "no such file: "+name, common.ErrNotFound)
	}
	f.Note = note
	return nil
}

// SetDate replaces a file's inferred date with a user correction. The
// corrected date is authoritative for all downstream ordering.
func (s *Store) SetDate(name string, date time.Time) error {
	f, ok := s.files[name]
	if !ok {
		return common.NewAppError("SESSION_ERROR", "no such file: "+name, common.ErrNotFound)
	}
	f.Date = dateOnly(date)
	f.DateOverridden = true
	s.logger.Debug("session.date.override", "name", name, "date", f.Date.Format("2006-01-02"))
	return nil
}

// Get returns the file record for name, or nil.
func (s *Store) Get(name string) *SourceFile {
	return s.files[name]
}

// Files returns the session files in upload order.
func (s *Store) Files() []*SourceFile {
	out := make([]*SourceFile, 0, len(s.files))
	for _, f := range s.files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].order < out[j].order })
	return out
}

// Len reports the number of files in the session.
func (s *Store) Len() int { return len(s.files) }

// Clear drops all session files.
func (s *Store) Clear() {
	s.files = make(map[string]*SourceFile)
	s.nextID = 0
	s.logger.Debug("session.clear")
}

// UploadOrder exposes a file's original upload slot for stable sorting.
func (f *SourceFile) UploadOrder() int { return f.order }

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
