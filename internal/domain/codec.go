package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// questionWire is the JSON shape of a question. correct_answer is a string
// for single_choice and text, and an array of strings for multiple_choice.
type questionWire struct {
	ID            string          `json:"id"`
	Type          QuestionType    `json:"type"`
	Text          string          `json:"text"`
	Options       []Option        `json:"options,omitempty"`
	CorrectAnswer json.RawMessage `json:"correct_answer,omitempty"`
	Points        int             `json:"points"`
	Explanation   string          `json:"explanation,omitempty"`
	Order         int             `json:"order"`
}

// MarshalJSON implements json.Marshaler.
func (q Question) MarshalJSON() ([]byte, error) {
	w := questionWire{
		ID:          q.ID,
		Type:        q.Type,
		Text:        q.Text,
		Options:     q.Options,
		Points:      q.Points,
		Explanation: q.Explanation,
		Order:       q.Order,
	}
	if key, ok := q.Key(); ok {
		var (
			raw []byte
			err error
		)
		switch k := key.(type) {
		case SingleKey:
			raw, err = json.Marshal(k.Index)
		case MultiKey:
			indexes := k.Indexes
			if indexes == nil {
				indexes = []string{}
			}
			raw, err = json.Marshal(indexes)
		case TextKey:
			raw, err = json.Marshal(k.Text)
		}
		if err != nil {
			return nil, err
		}
		w.CorrectAnswer = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler. Numeric indexes are accepted and
// converted to their decimal string form.
func (q *Question) UnmarshalJSON(data []byte) error {
	var w questionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*q = Question{
		ID:          w.ID,
		Type:        w.Type,
		Text:        w.Text,
		Options:     w.Options,
		Points:      w.Points,
		Explanation: w.Explanation,
		Order:       w.Order,
	}
	raw := bytes.TrimSpace(w.CorrectAnswer)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	switch w.Type {
	case SingleChoice:
		s, err := scalarString(raw)
		if err != nil {
			return fmt.Errorf("question %q correct_answer: %w", w.ID, err)
		}
		q.Correct = SingleKey{Index: s}
	case MultipleChoice:
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			// A lone scalar is treated as a one-element set.
			s, serr := scalarString(raw)
			if serr != nil {
				return fmt.Errorf("question %q correct_answer: %w", w.ID, err)
			}
			q.Correct = MultiKey{Indexes: []string{s}}
			return nil
		}
		indexes := make([]string, 0, len(items))
		for _, item := range items {
			s, err := scalarString(item)
			if err != nil {
				return fmt.Errorf("question %q correct_answer: %w", w.ID, err)
			}
			indexes = append(indexes, s)
		}
		q.Correct = MultiKey{Indexes: indexes}
	case Text:
		s, err := scalarString(raw)
		if err != nil {
			return fmt.Errorf("question %q correct_answer: %w", w.ID, err)
		}
		q.Correct = TextKey{Text: s}
	}
	return nil
}

func scalarString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return "", fmt.Errorf("expected string or number, got %s", string(raw))
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	return n.String(), nil
}
