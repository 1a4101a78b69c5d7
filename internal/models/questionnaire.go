// questionnaire.go
package models

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Field is one input control inside a wizard step.
type Field struct {
	Name    string   `yaml:"name" json:"name"`
	Label   string   `yaml:"label" json:"label"`
	Type    string   `yaml:"type" json:"type"`
	Tooltip string   `yaml:"tooltip,omitempty" json:"tooltip,omitempty"`
	Min     *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max     *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	Options []Option `yaml:"options,omitempty" json:"options,omitempty"`
}

// Option struct for field choices
type Option struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// Step groups the fields shown on one wizard page.
type Step struct {
	ID          string  `yaml:"id" json:"id"`
	Title       string  `yaml:"title" json:"title"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Fields      []Field `yaml:"fields" json:"fields"`
}

// Questionnaire holds the ordered wizard steps.
type Questionnaire struct {
	Steps []Step `yaml:"steps" json:"steps"`
}

const (
	FieldTypeSelect = "select"
	FieldTypeNumber = "number"
)

// LoadQuestionnaire reads and validates the questionnaire YAML file.
func LoadQuestionnaire(path string) (*Questionnaire, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read questionnaire file: %w", err)
	}

	var q Questionnaire
	if err := yaml.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questionnaire YAML: %w", err)
	}
	if err := q.normalize(); err != nil {
		return nil, err
	}
	return &q, nil
}

// StepCount is N, the number of wizard steps.
func (q *Questionnaire) StepCount() int {
	return len(q.Steps)
}

// normalize fills missing bounds and options from the attribute model and rejects
// fields that do not map onto HealthAttributes.
func (q *Questionnaire) normalize() error {
	if len(q.Steps) == 0 {
		return errors.New("questionnaire has no steps")
	}
	for si := range q.Steps {
		step := &q.Steps[si]
		for fi := range step.Fields {
			f := &step.Fields[fi]
			if bounds, ok := NumericBounds[f.Name]; ok {
				f.Type = FieldTypeNumber
				if f.Min == nil {
					f.Min = &bounds.Min
				}
				if f.Max == nil {
					f.Max = &bounds.Max
				}
				continue
			}
			allowed, ok := CategoricalOptions[f.Name]
			if !ok {
				return fmt.Errorf("step %q: unknown field %q", step.ID, f.Name)
			}
			f.Type = FieldTypeSelect
			if len(f.Options) == 0 {
				for _, v := range allowed {
					f.Options = append(f.Options, Option{Value: v, Label: v})
				}
				continue
			}
			for _, opt := range f.Options {
				if !contains(allowed, opt.Value) {
					return fmt.Errorf("step %q: field %q has unsupported option %q", step.ID, f.Name, opt.Value)
				}
			}
		}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
