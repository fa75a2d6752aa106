package extract

import (
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/oaicorpus/internal/corpus"
	"github.com/lehigh-university-libraries/oaicorpus/internal/record"
)

// yearLength is the number of leading characters of a date that hold the year
const yearLength = 4

// Extractor turns accepted records into summary/description pairs
type Extractor struct {
	ReferencePrefix string
}

// NewExtractor creates an extractor that picks references starting with prefix
func NewExtractor(prefix string) *Extractor {
	return &Extractor{ReferencePrefix: prefix}
}

// Values is the selector view the extractor needs; *record.Record satisfies it
type Values interface {
	Values(selector string) []string
	Texts(selector string) []string
}

// Extract returns the summary and description of rec.
// Any missing or malformed field fails the whole record.
func (e *Extractor) Extract(rec Values) (corpus.Summary, string, error) {
	titles := rec.Values(record.Title)
	if len(titles) == 0 {
		return corpus.Summary{}, "", &MissingFieldError{Field: record.Title}
	}

	// an empty trailing <dc:date/> is still the last date
	year, err := Year(rec.Texts(record.Date))
	if err != nil {
		return corpus.Summary{}, "", err
	}

	ref, ok := e.Reference(rec.Values(record.Identifier))
	if !ok {
		return corpus.Summary{}, "", &MissingFieldError{Field: record.Identifier}
	}

	descriptions := rec.Values(record.Description)
	if len(descriptions) == 0 {
		return corpus.Summary{}, "", &MissingFieldError{Field: record.Description}
	}

	authors := append([]string{}, rec.Values(record.Creator)...)

	summary := corpus.Summary{
		Title:     NormalizeTitle(titles[0]),
		Authors:   authors,
		Year:      year,
		Reference: ref,
	}
	return summary, NormalizeDescription(descriptions[0]), nil
}

// Reference returns the first identifier starting with the reference prefix
func (e *Extractor) Reference(identifiers []string) (string, bool) {
	for _, id := range identifiers {
		if strings.HasPrefix(id, e.ReferencePrefix) {
			return id, true
		}
	}
	return "", false
}

// Year parses the year from the last date; later dates are revisions and win.
func Year(dates []string) (int, error) {
	if len(dates) == 0 {
		return 0, &MalformedDateError{}
	}

	last := dates[len(dates)-1]
	prefix := []rune(last)
	if len(prefix) > yearLength {
		prefix = prefix[:yearLength]
	}

	year, err := strconv.Atoi(strings.TrimSpace(string(prefix)))
	if err != nil {
		return 0, &MalformedDateError{Value: last, Err: err}
	}
	return year, nil
}

// NormalizeTitle deletes line breaks without inserting spaces
func NormalizeTitle(title string) string {
	return strings.ReplaceAll(title, "\n", "")
}

// NormalizeDescription joins wrapped lines with a space and trims the result
func NormalizeDescription(description string) string {
	return strings.TrimSpace(strings.ReplaceAll(description, "\n", " "))
}
