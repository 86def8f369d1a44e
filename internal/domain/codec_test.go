package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestQuestionUnmarshalCorrectAnswerByType(t *testing.T) {
	raw := `{"questions":[
		{"id":"a","type":"single_choice","text":"?","options":[{"id":"o1","text":"x"},{"id":"o2","text":"y"}],"correct_answer":1,"points":1,"order":0},
		{"id":"b","type":"multiple_choice","text":"?","options":[{"id":"o1","text":"x"},{"id":"o2","text":"y"}],"correct_answer":["0",1],"points":2,"order":1},
		{"id":"c","type":"text","text":"?","correct_answer":"Paris","points":1,"order":2},
		{"id":"d","type":"single_choice","text":"?","points":1,"order":3}
	],"settings":{"shuffle_questions":false,"show_correct_answers":true,"attempts_allowed":1}}`

	var content QuestContent
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := content.Questions[0].Correct; got != (SingleKey{Index: "1"}) {
		t.Fatalf("single: got %#v", got)
	}
	if got := content.Questions[1].Correct; !reflect.DeepEqual(got, MultiKey{Indexes: []string{"0", "1"}}) {
		t.Fatalf("multi: got %#v", got)
	}
	if got := content.Questions[2].Correct; got != (TextKey{Text: "Paris"}) {
		t.Fatalf("text: got %#v", got)
	}
	if content.Questions[3].Correct != nil {
		t.Fatalf("missing correct_answer must stay unset")
	}
}

func TestQuestionMarshalKeepsPolymorphicShape(t *testing.T) {
	q := Question{
		ID:      "m",
		Type:    MultipleChoice,
		Text:    "Pick",
		Options: []Option{{ID: "o1", Text: "x"}, {ID: "o2", Text: "y"}},
		Correct: MultiKey{Indexes: []string{"0", "1"}},
		Points:  1,
	}
	data, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("unmarshal generic: %v", err)
	}
	if _, ok := generic["correct_answer"].([]any); !ok {
		t.Fatalf("expected array correct_answer, got %#v", generic["correct_answer"])
	}

	// A key of the wrong variant is not written at all.
	q.Correct = SingleKey{Index: "0"}
	data, _ = json.Marshal(q)
	generic = nil
	_ = json.Unmarshal(data, &generic)
	if _, ok := generic["correct_answer"]; ok {
		t.Fatalf("mismatched key must be omitted, got %s", data)
	}
}

func TestPercentage(t *testing.T) {
	if p, ok := (Result{Score: 2, Total: 3}).Percentage(); !ok || p != 67 {
		t.Fatalf("expected 67, got %d %v", p, ok)
	}
	if p, ok := (Result{Score: 1, Total: 1}).Percentage(); !ok || p != 100 {
		t.Fatalf("expected 100, got %d %v", p, ok)
	}
	if _, ok := (Result{}).Percentage(); ok {
		t.Fatalf("zero total must not produce a percentage")
	}
}
