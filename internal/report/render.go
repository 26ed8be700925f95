// Package report turns the model's completion into the primary structured
// document. Rendering is a pure transform: no branching on content, no
// re-interpretation of the model's text.
package report

import (
	"strings"
	"time"

	"github.com/Fen1x123/medconsultant/internal/session"
)

const (
	Title         = "Medical Consultation Report"
	separatorRune = "═"
	separatorLen  = 40
)

// Artifact is the rendered report before any secondary-format conversion.
type Artifact struct {
	Title       string
	GeneratedAt time.Time
	Patient     session.PatientContext
	Body        []string // one entry per line of model output, trimmed
}

// Render splits the body on line breaks, trims each line, and keeps blank
// lines as empty paragraphs.
func Render(patient session.PatientContext, generatedAt time.Time, body string) Artifact {
	lines := strings.Split(body, "\n")
	paragraphs := make([]string, len(lines))
	for i, l := range lines {
		paragraphs[i] = strings.TrimSpace(l)
	}
	return Artifact{
		Title:       Title,
		GeneratedAt: generatedAt,
		Patient:     patient,
		Body:        paragraphs,
	}
}

// Paragraphs returns the full paragraph sequence: title, timestamp line,
// patient summary, separator, then the body.
func (a Artifact) Paragraphs() []string {
	out := make([]string, 0, len(a.Body)+4)
	out = append(out,
		a.Title,
		a.GeneratedAt.Format("02.01.2006 15:04"),
		a.Patient.Summary(),
		strings.Repeat(separatorRune, separatorLen),
	)
	return append(out, a.Body...)
}
