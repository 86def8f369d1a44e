package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"quest-service/internal/domain"
)

// LoadFile reads quest content from a JSON or YAML file. Missing settings
// fields fall back to the defaults and questions are renumbered by position.
func LoadFile(path string) (domain.QuestContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.QuestContent{}, fmt.Errorf("read content file: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes content from data; ext selects the format (".json", otherwise YAML).
func Parse(data []byte, ext string) (domain.QuestContent, error) {
	if strings.ToLower(ext) != ".json" {
		converted, err := yamlToJSON(data)
		if err != nil {
			return domain.QuestContent{}, err
		}
		data = converted
	}

	var wire struct {
		Questions []domain.Question     `json:"questions"`
		Settings  *domain.QuestSettings `json:"settings"`
	}
	// Fields missing from a partial settings object keep their defaults.
	defaults := domain.DefaultSettings()
	wire.Settings = &defaults
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&wire); err != nil {
		return domain.QuestContent{}, fmt.Errorf("parse content: %w", err)
	}

	out := domain.EmptyContent()
	if wire.Settings != nil {
		out.Settings = *wire.Settings
	}
	if len(wire.Questions) > 0 {
		out.Questions = Renumber(wire.Questions)
	}
	return out, nil
}

// YAML is routed through JSON so the question codec handles correct_answer once.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse content yaml: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert content yaml: %w", err)
	}
	return out, nil
}

// Encode renders content as indented JSON when ext is ".json" and as YAML otherwise.
func Encode(c domain.QuestContent, ext string) ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}
	if strings.ToLower(ext) == ".json" {
		return append(data, '\n'), nil
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode content yaml: %w", err)
	}
	return out, nil
}
