package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// extractDocx reads a Word document as the OOXML zip it is: paragraph text
// from word/document.xml in document order, plus every word/media blob
// independent of where the paragraphs reference it.
func extractDocx(data []byte) (string, [][]byte, []string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, nil, fmt.Errorf("open docx: %w", err)
	}

	var warns []string
	var text string
	var mediaNames []string
	media := make(map[string][]byte)

	for _, f := range zr.File {
		switch {
		case f.Name == "word/document.xml":
			b, err := readZipFile(f)
			if err != nil {
				warns = append(warns, fmt.Sprintf("document.xml: %v", err))
				continue
			}
			text = docxParagraphText(b)
		case strings.HasPrefix(f.Name, "word/media/"):
			b, err := readZipFile(f)
			if err != nil {
				warns = append(warns, fmt.Sprintf("%s: %v", f.Name, err))
				continue
			}
			media[f.Name] = b
			mediaNames = append(mediaNames, f.Name)
		}
	}

	// media entries in name order, so repeated extraction is deterministic
	sort.Strings(mediaNames)
	images := make([][]byte, 0, len(mediaNames))
	for _, n := range mediaNames {
		images = append(images, media[n])
	}
	return text, images, warns, nil
}

// docxParagraphText concatenates the <w:t> runs, one line per <w:p>.
func docxParagraphText(doc []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	var b strings.Builder
	var inText bool
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
