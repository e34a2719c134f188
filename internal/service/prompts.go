package service

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

// Prompts are the system messages sent to GigaChat
type Prompts struct {
	JSONReminder       string `yaml:"json_reminder"`
	FindMeal           string `yaml:"find_meal"`
	RecognizeByText    string `yaml:"recognize_by_text"`
	RecognizeFoundFood string `yaml:"recognize_found_food"`
	Recommendation     string `yaml:"recommendation"`
}

// LoadPrompts parses the embedded prompt set
func LoadPrompts() (*Prompts, error) {
	return ParsePrompts(promptsYAML)
}

// ParsePrompts parses a prompt set and checks every prompt is present
func ParsePrompts(data []byte) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts: %w", err)
	}
	for name, v := range map[string]string{
		"json_reminder":        p.JSONReminder,
		"find_meal":            p.FindMeal,
		"recognize_by_text":    p.RecognizeByText,
		"recognize_found_food": p.RecognizeFoundFood,
		"recommendation":       p.Recommendation,
	} {
		if v == "" {
			return nil, fmt.Errorf("prompt %q is empty", name)
		}
	}
	return &p, nil
}
