package timeline

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/Fen1x123/medconsultant/constants"
)

// pdfInfoDate reads CreationDate, then ModDate, from the PDF Info
// dictionary. The reader can panic on malformed input; that counts as
// "no match".
func pdfInfoDate(name string, data []byte) (t time.Time, ok bool) {
	if constants.MapExtToFormat(filepath.Ext(name)) != constants.PDF {
		return time.Time{}, false
	}
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return time.Time{}, false
	}
	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return time.Time{}, false
	}
	for _, key := range []string{"CreationDate", "ModDate"} {
		v := info.Key(key)
		if v.IsNull() {
			continue
		}
		if d, ok := parsePDFDate(v.RawString()); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

// parsePDFDate handles the native "D:YYYYMMDD..." encoding.
func parsePDFDate(s string) (time.Time, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "D:")
	if len(s) < 8 {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("20060102", s[:8], time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// docxCreatedDate reads the dcterms:created core property.
func docxCreatedDate(name string, data []byte) (time.Time, bool) {
	if constants.MapExtToFormat(filepath.Ext(name)) != constants.DOCX {
		return time.Time{}, false
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return time.Time{}, false
	}
	for _, f := range zr.File {
		if f.Name != "docProps/core.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return time.Time{}, false
		}
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(rc)
		_ = rc.Close()
		return parseCoreCreated(buf.Bytes())
	}
	return time.Time{}, false
}

func parseCoreCreated(core []byte) (time.Time, bool) {
	dec := xml.NewDecoder(bytes.NewReader(core))
	var inCreated bool
	var value strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "created" {
				inCreated = true
			}
		case xml.EndElement:
			if t.Name.Local == "created" && value.Len() > 0 {
				return parseW3CDate(value.String())
			}
		case xml.CharData:
			if inCreated {
				value.Write(t)
			}
		}
	}
	return time.Time{}, false
}

func parseW3CDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), true
		}
	}
	return time.Time{}, false
}

// dicomStudyDate reads StudyDate, then AcquisitionDate, in the DA encoding.
func dicomStudyDate(name string, data []byte) (time.Time, bool) {
	if constants.MapExtToFormat(filepath.Ext(name)) != constants.DICOM {
		return time.Time{}, false
	}
	ds, err := dicom.Parse(bytes.NewReader(data), int64(len(data)), nil)
	if err != nil {
		return time.Time{}, false
	}
	for _, t := range []tag.Tag{tag.StudyDate, tag.AcquisitionDate} {
		el, err := ds.FindElementByTag(t)
		if err != nil || el == nil {
			continue
		}
		vals, ok := el.Value.GetValue().([]string)
		if !ok || len(vals) == 0 {
			continue
		}
		if d, err := time.ParseInLocation("20060102", strings.TrimSpace(vals[0]), time.UTC); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
