package xmlimport

import (
	"strings"
	"testing"
)

const sampleBatch = `<?xml version="1.0" encoding="UTF-8"?>
<questions>
  <question>
    <text>Which organelle carries out photosynthesis?</text>
    <options>
      <option>Mitochondrion</option>
      <option>Chloroplast</option>
      <option>Ribosome</option>
      <option>Nucleus</option>
    </options>
    <correctAnswer>1</correctAnswer>
    <explanation>Chloroplasts contain chlorophyll.</explanation>
    <grade>11</grade>
    <marks>10</marks>
    <negativeMarking>2</negativeMarking>
  </question>
  <question>
    <text></text>
    <options>
      <option>a</option>
      <option>b</option>
    </options>
    <correctAnswer>0</correctAnswer>
  </question>
  <question>
    <text>Out of range answer</text>
    <options>
      <option>a</option>
      <option>b</option>
    </options>
    <correctAnswer>5</correctAnswer>
  </question>
  <question>
    <text>Defaults applied</text>
    <options>
      <option>yes</option>
      <option>no</option>
    </options>
    <correctAnswer>0</correctAnswer>
  </question>
</questions>`

func TestParseBatch(t *testing.T) {
	result, err := Parse(strings.NewReader(sampleBatch))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(result.Questions) != 2 {
		t.Fatalf("expected 2 imported, got %d", len(result.Questions))
	}
	if len(result.Skipped) != 2 {
		t.Fatalf("expected 2 skipped, got %d: %v", len(result.Skipped), result.Skipped)
	}

	first := result.Questions[0]
	if first.CorrectAnswerIndex != 1 || len(first.Options) != 4 {
		t.Fatalf("unexpected first question: %+v", first)
	}
	if first.Marks != 10 || first.NegativeMarking != 2 {
		t.Fatalf("marks not carried: %+v", first)
	}

	// Entries without marks default to 1.
	if result.Questions[1].Marks != 1 {
		t.Fatalf("expected default marks 1, got %v", result.Questions[1].Marks)
	}
}

func TestParseRejectsBrokenDocument(t *testing.T) {
	if _, err := Parse(strings.NewReader("<questions><question>")); err == nil {
		t.Fatal("expected error for truncated document")
	}
}

func TestParseEmptyDocument(t *testing.T) {
	result, err := Parse(strings.NewReader("<questions></questions>"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(result.Questions) != 0 || len(result.Skipped) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}
