package xmlimport

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Parsed is one well-formed question entry from an upload. Fields map
// onto the question model; persistence is the caller's job.
type Parsed struct {
	Text               string
	Options            []string
	CorrectAnswerIndex int
	Explanation        string
	Grade              string
	Marks              float64
	NegativeMarking    float64
}

// Result reports what a parse pass accepted and what it dropped. Skipped
// carries one human-readable reason per dropped entry.
type Result struct {
	Questions []Parsed
	Skipped   []string
}

type questionsDoc struct {
	XMLName   xml.Name      `xml:"questions"`
	Questions []questionDoc `xml:"question"`
}

type questionDoc struct {
	Text            string   `xml:"text"`
	Options         []string `xml:"options>option"`
	CorrectAnswer   int      `xml:"correctAnswer"`
	Explanation     string   `xml:"explanation"`
	Grade           string   `xml:"grade"`
	Marks           float64  `xml:"marks"`
	NegativeMarking float64  `xml:"negativeMarking"`
}

// Parse reads a <questions> document and validates each entry. Malformed
// entries are skipped with a reason rather than failing the whole batch;
// only an unparseable document is an error.
func Parse(r io.Reader) (Result, error) {
	var doc questionsDoc
	decoder := xml.NewDecoder(r)
	if err := decoder.Decode(&doc); err != nil {
		return Result{}, fmt.Errorf("parse xml: %w", err)
	}

	var result Result
	for i, entry := range doc.Questions {
		parsed, reason := validate(entry)
		if reason != "" {
			result.Skipped = append(result.Skipped, fmt.Sprintf("entry %d: %s", i+1, reason))
			continue
		}
		result.Questions = append(result.Questions, parsed)
	}
	return result, nil
}

func validate(entry questionDoc) (Parsed, string) {
	text := strings.TrimSpace(entry.Text)
	if text == "" {
		return Parsed{}, "missing question text"
	}

	options := make([]string, 0, len(entry.Options))
	for _, option := range entry.Options {
		if trimmed := strings.TrimSpace(option); trimmed != "" {
			options = append(options, trimmed)
		}
	}
	if len(options) < 2 {
		return Parsed{}, "needs at least two options"
	}
	if entry.CorrectAnswer < 0 || entry.CorrectAnswer >= len(options) {
		return Parsed{}, fmt.Sprintf("correctAnswer %d out of range", entry.CorrectAnswer)
	}
	if entry.NegativeMarking < 0 {
		return Parsed{}, "negativeMarking must not be negative"
	}

	marks := entry.Marks
	if marks <= 0 {
		marks = 1
	}

	return Parsed{
		Text:               text,
		Options:            options,
		CorrectAnswerIndex: entry.CorrectAnswer,
		Explanation:        strings.TrimSpace(entry.Explanation),
		Grade:              strings.TrimSpace(entry.Grade),
		Marks:              marks,
		NegativeMarking:    entry.NegativeMarking,
	}, ""
}
