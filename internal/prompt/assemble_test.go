package prompt

import (
	"reflect"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/Fen1x123/medconsultant/internal/session"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var patient = session.PatientContext{Name: "Ivanov I.I.", Age: "54", Sex: "male"}

func TestAssembleChronologicalOrder(t *testing.T) {
	a := NewAssembler(0, nil)
	files := []File{
		{Name: "late.txt", Date: day(2025, 5, 1), Text: "late"},
		{Name: "early.txt", Date: day(2023, 1, 1), Text: "early"},
		{Name: "mid.txt", Date: day(2024, 6, 15), Text: "mid"},
	}

	blocks := a.Assemble(patient, "", files)

	var order []string
	for _, b := range blocks[1:] {
		if b.Kind == BlockText && strings.HasPrefix(b.Text, "=== ") {
			order = append(order, strings.Fields(b.Text)[1])
		}
	}
	want := []string{"early.txt", "mid.txt", "late.txt"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("file order = %v, want %v", order, want)
	}
}

func TestAssembleStableTies(t *testing.T) {
	a := NewAssembler(0, nil)
	d := day(2024, 1, 1)
	files := []File{
		{Name: "first.txt", Date: d, Text: "a"},
		{Name: "second.txt", Date: d, Text: "b"},
		{Name: "third.txt", Date: d, Text: "c"},
	}

	blocks := a.Assemble(patient, "", files)
	var order []string
	for _, b := range blocks[1:] {
		order = append(order, strings.Fields(b.Text)[1])
	}
	want := []string{"first.txt", "second.txt", "third.txt"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("equal-date order = %v, want input order %v", order, want)
	}
}

func TestAssembleDeterministic(t *testing.T) {
	a := NewAssembler(0, nil)
	files := []File{
		{Name: "a.txt", Date: day(2024, 1, 1), Text: "a", Note: "n"},
		{Name: "b.png", Date: day(2024, 2, 1), Images: []Image{{Data: []byte{1, 2}, MIME: "image/png"}}},
	}
	one := a.Assemble(patient, "note", files)
	two := a.Assemble(patient, "note", files)
	if !reflect.DeepEqual(one, two) {
		t.Error("two assemblies of identical input differ")
	}
}

func TestAssembleHeaderAndGlobalNote(t *testing.T) {
	a := NewAssembler(0, nil)
	blocks := a.Assemble(patient, "  focus on cardiology  ", []File{{Name: "a.txt", Date: day(2024, 1, 1), Text: "x"}})

	if !strings.Contains(blocks[0].Text, patient.Summary()) {
		t.Error("header missing patient summary")
	}
	for _, frag := range []string{"1) Examinations performed", "5) Recommendations"} {
		if !strings.Contains(blocks[0].Text, frag) {
			t.Errorf("header missing %q", frag)
		}
	}
	if blocks[1].Text != "Global instructions: focus on cardiology" {
		t.Errorf("global note block = %q", blocks[1].Text)
	}
}

func TestAssembleNoteRidesTextBlock(t *testing.T) {
	a := NewAssembler(0, nil)
	blocks := a.Assemble(patient, "", []File{
		{Name: "a.txt", Date: day(2024, 1, 1), Text: "body", Note: "check dosage"},
	})
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(blocks))
	}
	if !strings.Contains(blocks[1].Text, "Clinician note: check dosage") {
		t.Errorf("note not in text block: %q", blocks[1].Text)
	}
}

func TestAssembleNoteCaptionsFirstImage(t *testing.T) {
	a := NewAssembler(0, nil)
	blocks := a.Assemble(patient, "", []File{
		{Name: "xray.png", Date: day(2024, 1, 1), Note: "left knee",
			Images: []Image{{Data: []byte{1}, MIME: "image/png"}, {Data: []byte{2}, MIME: "image/png"}}},
	})
	// header, file text block, note caption, image, image
	if len(blocks) != 5 {
		t.Fatalf("blocks = %d, want 5", len(blocks))
	}
	if blocks[2].Kind != BlockText || blocks[2].Text != "Clinician note: left knee" {
		t.Errorf("caption block = %+v", blocks[2])
	}
	if blocks[3].Kind != BlockImage || blocks[4].Kind != BlockImage {
		t.Error("images did not follow the caption")
	}
}

func TestAssembleEmptySession(t *testing.T) {
	a := NewAssembler(0, nil)
	blocks := a.Assemble(patient, "", nil)
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want header plus placeholder", len(blocks))
	}
	if blocks[1].Text != "no data" {
		t.Errorf("placeholder = %q", blocks[1].Text)
	}
}

func TestAssembleCapsText(t *testing.T) {
	a := NewAssembler(100, nil)
	long := strings.Repeat("x", 500)
	blocks := a.Assemble(patient, "", []File{{Name: "a.txt", Date: day(2024, 1, 1), Text: long}})

	body := blocks[1].Text
	idx := strings.Index(body, "\n")
	if idx < 0 {
		t.Fatal("file block has no header line")
	}
	if got := len(body) - idx - 1; got != 100 {
		t.Errorf("capped text length = %d, want 100", got)
	}
}

func TestCapTextKeepsRunesWhole(t *testing.T) {
	// Cyrillic runes are two bytes; an odd cap lands mid-rune.
	long := strings.Repeat("анамнез", 100)
	got := capText(long, 101)

	if len(got) > 101 {
		t.Errorf("capped length = %d, want at most 101", len(got))
	}
	if !utf8.ValidString(got) {
		t.Error("truncation split a multi-byte rune")
	}
	if len(got) == 0 {
		t.Error("cap removed everything")
	}
	if capText("short", 100) != "short" {
		t.Error("text under the cap was modified")
	}
}
