package report

import (
	"bytes"
	"fmt"
	"strings"

	docx "github.com/fumiama/go-docx"
)

const (
	titleColor    = "0066CC"
	titleHalfSize = "44" // 22pt
)

// DOCX serializes the artifact as a Word document: bold colored title run,
// then one plain paragraph per remaining line.
func (a Artifact) DOCX() ([]byte, error) {
	w := docx.New().WithDefaultTheme()

	w.AddParagraph().AddText(a.Title).Size(titleHalfSize).Color(titleColor).Bold()
	w.AddParagraph().AddText(a.GeneratedAt.Format("02.01.2006 15:04"))
	w.AddParagraph().AddText(a.Patient.Summary())
	w.AddParagraph().AddText(strings.Repeat(separatorRune, separatorLen))

	for _, line := range a.Body {
		p := w.AddParagraph()
		if line != "" {
			p.AddText(line)
		}
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("docx write: %w", err)
	}
	return buf.Bytes(), nil
}
