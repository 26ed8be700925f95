package timeline

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestInferFilenameYearFirst(t *testing.T) {
	inf := NewInferencer(nil)
	ingested := date(2026, 8, 30)

	cases := []struct {
		name string
		want time.Time
	}{
		{"2025-07-02_scan.pdf", date(2025, 7, 2)},
		{"mrt_2024.01.15.txt", date(2024, 1, 15)},
		{"report_2023_12_31_final.docx", date(2023, 12, 31)},
	}
	for _, tc := range cases {
		got := inf.Infer(tc.name, nil, ingested)
		if !got.Equal(tc.want) {
			t.Errorf("Infer(%q) = %s, want %s", tc.name, got.Format("2006-01-02"), tc.want.Format("2006-01-02"))
		}
	}
}

func TestInferFilenameDayFirst(t *testing.T) {
	inf := NewInferencer(nil)
	ingested := date(2026, 8, 30)

	got := inf.Infer("02-07-2025_scan.pdf", nil, ingested)
	want := date(2025, 7, 2)
	if !got.Equal(want) {
		t.Errorf("Infer(day-first) = %s, want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}

func TestInferYearFirstWinsOverDayFirst(t *testing.T) {
	inf := NewInferencer(nil)
	ingested := date(2026, 8, 30)

	// Both layouts are present; the year-first source runs first.
	got := inf.Infer("2025-07-02_vs_03-08-2024.txt", nil, ingested)
	want := date(2025, 7, 2)
	if !got.Equal(want) {
		t.Errorf("Infer = %s, want year-first match %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}

func TestInferRejectsImpossibleDates(t *testing.T) {
	inf := NewInferencer(nil)
	ingested := date(2026, 8, 30)

	// month 13 and Feb 30 must fall through to the default, not normalize
	for _, name := range []string{"2025-13-01_scan.pdf", "2025-02-30_scan.pdf"} {
		got := inf.Infer(name, nil, ingested)
		if !got.Equal(ingested) {
			t.Errorf("Infer(%q) = %s, want ingestion default %s",
				name, got.Format("2006-01-02"), ingested.Format("2006-01-02"))
		}
	}
}

func TestInferDefaultsToIngestionDate(t *testing.T) {
	inf := NewInferencer(nil)
	ingested := time.Date(2026, 8, 30, 14, 22, 9, 0, time.UTC)

	got := inf.Infer("undated_scan.txt", []byte("no dates here"), ingested)
	want := date(2026, 8, 30)
	if !got.Equal(want) {
		t.Errorf("Infer default = %s, want %s (time stripped)", got, want)
	}
}

func TestCalendarDate(t *testing.T) {
	if _, ok := calendarDate("2025", "12", "31"); !ok {
		t.Error("calendarDate rejected a valid date")
	}
	if _, ok := calendarDate("2025", "00", "10"); ok {
		t.Error("calendarDate accepted month 0")
	}
	if _, ok := calendarDate("2025", "04", "31"); ok {
		t.Error("calendarDate accepted April 31")
	}
}

func TestParsePDFDate(t *testing.T) {
	got, ok := parsePDFDate("D:20240115093000+01'00'")
	if !ok {
		t.Fatal("parsePDFDate failed on a well-formed value")
	}
	if want := date(2024, 1, 15); !got.Equal(want) {
		t.Errorf("parsePDFDate = %s, want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}
	if _, ok := parsePDFDate("garbage"); ok {
		t.Error("parsePDFDate accepted garbage")
	}
}
