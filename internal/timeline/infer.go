// Package timeline assigns a calendar date to every ingested file. The
// inference order is an explicit list of sources tried first-match-wins;
// the chain always ends in the ingestion-date default, so the result is
// never absent.
package timeline

import (
	"log/slog"
	"regexp"
	"strconv"
	"time"
)

// Source is one candidate way of dating a file. Probe returns false when
// the source has nothing to say; any internal parse failure is treated the
// same way and the chain continues.
type Source struct {
	Name  string
	Probe func(name string, data []byte) (time.Time, bool)
}

type Inferencer struct {
	sources []Source
	logger  *slog.Logger
}

func NewInferencer(logger *slog.Logger) *Inferencer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inferencer{
		logger: logger,
		sources: []Source{
			{"filename-year-first", filenameYearFirst},
			{"filename-day-first", filenameDayFirst},
			{"pdf-info", pdfInfoDate},
			{"docx-created", docxCreatedDate},
			{"dicom-study-date", dicomStudyDate},
		},
	}
}

// Infer returns the first date any source yields, or the ingestion date.
func (i *Inferencer) Infer(name string, data []byte, ingestedAt time.Time) time.Time {
	for _, s := range i.sources {
		if d, ok := s.Probe(name, data); ok {
			i.logger.Debug("timeline.inferred", "name", name, "source", s.Name, "date", d.Format("2006-01-02"))
			return d
		}
	}
	i.logger.Debug("timeline.default", "name", name, "date", ingestedAt.Format("2006-01-02"))
	return dateOnly(ingestedAt)
}

// The 4-digit group can only sit in the year position, so it alone decides
// which layout matched.
var (
	reYearFirst = regexp.MustCompile(`(?:^|[^0-9])(\d{4})[._-](\d{1,2})[._-](\d{1,2})(?:[^0-9]|$)`)
	reDayFirst  = regexp.MustCompile(`(?:^|[^0-9])(\d{1,2})[._-](\d{1,2})[._-](\d{4})(?:[^0-9]|$)`)
)

func filenameYearFirst(name string, _ []byte) (time.Time, bool) {
	m := reYearFirst.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	return calendarDate(m[1], m[2], m[3])
}

func filenameDayFirst(name string, _ []byte) (time.Time, bool) {
	m := reDayFirst.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	return calendarDate(m[3], m[2], m[1])
}

// calendarDate builds a date from string components and rejects anything
// time.Date would silently normalize (month 13, Feb 30).
func calendarDate(year, month, day string) (time.Time, bool) {
	y, err1 := strconv.Atoi(year)
	m, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || t.Month() != time.Month(m) || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
