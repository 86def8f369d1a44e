package content

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"quest-service/internal/domain"
)

func TestLoadFileYAML(t *testing.T) {
	doc := `
settings:
  shuffle_questions: true
  show_correct_answers: false
  attempts_allowed: 2
  time_limit_minutes: 5
questions:
  - id: q1
    type: single_choice
    text: "2 + 2?"
    options:
      - {id: a, text: "3"}
      - {id: b, text: "4"}
    correct_answer: 1
    points: 1
  - id: q2
    type: multiple_choice
    text: Primes?
    options:
      - {id: a, text: "2"}
      - {id: b, text: "4"}
      - {id: c, text: "5"}
    correct_answer: ["0", "2"]
    points: 2
  - id: q3
    type: text
    text: Capital of France?
    correct_answer: Paris
    points: 1
`
	path := filepath.Join(t.TempDir(), "quest.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !c.Settings.ShuffleQuestions || c.Settings.AttemptsAllowed != 2 || *c.Settings.TimeLimitMinutes != 5 {
		t.Fatalf("unexpected settings %+v", c.Settings)
	}
	if len(c.Questions) != 3 || c.Questions[2].Order != 2 {
		t.Fatalf("unexpected questions %+v", c.Questions)
	}
	if c.Questions[0].Correct != (domain.SingleKey{Index: "1"}) {
		t.Fatalf("single key: %#v", c.Questions[0].Correct)
	}
	if !reflect.DeepEqual(c.Questions[1].Correct, domain.MultiKey{Indexes: []string{"0", "2"}}) {
		t.Fatalf("multi key: %#v", c.Questions[1].Correct)
	}
	if err := ValidateContent(c); err != nil {
		t.Fatalf("expected loaded content to validate: %v", err)
	}
}

func TestParseJSONDefaultsSettings(t *testing.T) {
	c, err := Parse([]byte(`{"questions":[]}`), ".json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(c.Settings, domain.DefaultSettings()) {
		t.Fatalf("expected default settings, got %+v", c.Settings)
	}
}

func TestParsePartialSettingsKeepDefaults(t *testing.T) {
	for ext, doc := range map[string]string{
		".json": `{"settings":{"shuffle_questions":true,"attempts_allowed":1}}`,
		".yaml": "settings:\n  shuffle_questions: true\n  attempts_allowed: 3\n",
	} {
		c, err := Parse([]byte(doc), ext)
		if err != nil {
			t.Fatalf("parse %s: %v", ext, err)
		}
		if !c.Settings.ShuffleQuestions || !c.Settings.ShowCorrectAnswers || c.Settings.TimeLimitMinutes != nil {
			t.Fatalf("%s: omitted settings fields lost their defaults: %+v", ext, c.Settings)
		}
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	if _, err := Parse([]byte(`{"questions":[],"extra":1}`), ".json"); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestEncodeRoundTrips(t *testing.T) {
	limit := 15
	c := domain.EmptyContent()
	c.Settings.TimeLimitMinutes = &limit
	c.Questions = []domain.Question{
		{ID: "q1", Type: domain.SingleChoice, Text: "2 + 2?", Options: []domain.Option{{ID: "a", Text: "3"}, {ID: "b", Text: "4"}}, Correct: domain.SingleKey{Index: "1"}, Points: 1},
		{ID: "q2", Type: domain.MultipleChoice, Text: "Primes?", Options: []domain.Option{{ID: "a", Text: "2"}, {ID: "b", Text: "4"}}, Correct: domain.MultiKey{Indexes: []string{"0"}}, Points: 2, Order: 1},
		{ID: "q3", Type: domain.Text, Text: "Capital?", Correct: domain.TextKey{Text: "Paris"}, Points: 1, Order: 2, Explanation: "It is Paris."},
	}

	for _, ext := range []string{".json", ".yaml"} {
		data, err := Encode(c, ext)
		if err != nil {
			t.Fatalf("encode %s: %v", ext, err)
		}
		back, err := Parse(data, ext)
		if err != nil {
			t.Fatalf("parse %s: %v\n%s", ext, err, data)
		}
		if !reflect.DeepEqual(back, c) {
			t.Fatalf("%s round trip mismatch:\n got %+v\nwant %+v", ext, back, c)
		}
	}
}
