// Package prompt builds the ordered block sequence sent to the model. The
// ordering is load-bearing: the model's trend reasoning depends on files
// arriving in chronological order.
package prompt

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Fen1x123/medconsultant/internal/session"
)

type BlockKind int

const (
	BlockText BlockKind = iota
	BlockImage
)

// Block is one unit of the structured model request.
type Block struct {
	Kind  BlockKind
	Text  string
	Image []byte
	MIME  string
}

// Image is a normalized payload ready for inline transfer.
type Image struct {
	Data []byte
	MIME string
}

// File is the per-source-file input to assembly: session metadata plus the
// freshly extracted content.
type File struct {
	Name   string
	Date   time.Time
	Note   string
	Text   string
	Images []Image
}

type Assembler struct {
	maxTextChars int
	logger       *slog.Logger
}

func NewAssembler(maxTextChars int, logger *slog.Logger) *Assembler {
	if maxTextChars <= 0 {
		maxTextChars = 15000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{maxTextChars: maxTextChars, logger: logger}
}

// Assemble emits: instruction header, global note (if any), then per-file
// blocks in ascending date order with ties broken by the caller's order
// (stable sort). Within a file the text block precedes its images. The
// output is deterministic for identical input.
func (a *Assembler) Assemble(patient session.PatientContext, globalNote string, files []File) []Block {
	blocks := []Block{{Kind: BlockText, Text: header(patient)}}

	if note := strings.TrimSpace(globalNote); note != "" {
		blocks = append(blocks, Block{Kind: BlockText, Text: "Global instructions: " + note})
	}

	sorted := make([]File, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	for _, f := range sorted {
		blocks = append(blocks, fileBlocks(f, a.maxTextChars)...)
	}

	if len(sorted) == 0 {
		blocks = append(blocks, Block{Kind: BlockText, Text: "no data"})
	}

	a.logger.Debug("prompt.assembled", "files", len(sorted), "blocks", len(blocks))
	return blocks
}

// fileBlocks renders one file: header+note+text block, then image blocks.
// Policy: the clinician note rides the text block when text exists,
// otherwise it captions the first image.
func fileBlocks(f File, maxTextChars int) []Block {
	note := strings.TrimSpace(f.Note)
	text := strings.TrimSpace(f.Text)

	var b strings.Builder
	fmt.Fprintf(&b, "=== %s (%s) ===\n", f.Name, f.Date.Format("2006-01-02"))
	switch {
	case text != "":
		if note != "" {
			b.WriteString("Clinician note: " + note + "\n")
		}
		b.WriteString(capText(text, maxTextChars))
	case len(f.Images) > 0:
		b.WriteString("No extractable text; see attached image(s).")
	default:
		b.WriteString("No extractable content.")
		if note != "" {
			b.WriteString("\nClinician note: " + note)
		}
	}

	blocks := []Block{{Kind: BlockText, Text: b.String()}}
	for i, img := range f.Images {
		if i == 0 && text == "" && note != "" {
			blocks = append(blocks, Block{Kind: BlockText, Text: "Clinician note: " + note})
		}
		blocks = append(blocks, Block{Kind: BlockImage, Image: img.Data, MIME: img.MIME})
	}
	return blocks
}

func header(p session.PatientContext) string {
	return strings.Join([]string{
		"Patient: " + p.Summary() + ".",
		"You are a senior consulting physician with twenty years of clinical practice.",
		"Write a consultation report with exactly this structure:",
		"1) Examinations performed",
		"2) Findings for each examination",
		"3) Overall clinical conclusion",
		"4) Prescribed treatment (doses, frequency, duration)",
		"5) Recommendations (lifestyle, further tests, monitoring schedule)",
		"Source documents follow in chronological order; weigh trends across dates.",
		"Do not use bullet markers, emoji, or headings in all capitals.",
		"Do not advise the patient to consult a doctor and do not refer to yourself as an automated system.",
	}, "\n")
}

// capText cuts at a rune boundary so a multi-byte character is never
// split at the cap.
func capText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
