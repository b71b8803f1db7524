// Package registry loads the static assessment reference data: the mapping
// from multiple-choice option values to numeric scores, and the built-in
// career profile catalog used when the database is unavailable.
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"assessment-engine/internal/common/validation"
	"assessment-engine/internal/models"

	_ "embed"
)

//go:embed default.json
var defaultDocument []byte

// Registry holds schema-validated reference data.
type Registry struct {
	AnswerValues map[string]int         `json:"answerValues"`
	Profiles     []models.CareerProfile `json:"profiles"`
}

// Load reads and validates a registry document from disk.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

// Default returns the embedded registry. The embedded document is validated
// like any other; a corrupt build is a programming error, hence the panic.
func Default() *Registry {
	reg, err := parse(defaultDocument)
	if err != nil {
		panic(fmt.Sprintf("embedded registry document invalid: %v", err))
	}
	return reg
}

func parse(data []byte) (*Registry, error) {
	if result := validation.ValidateDocument(data, registrySchema); !result.Valid {
		return nil, fmt.Errorf("registry document failed validation: %s", result.ErrorSummary())
	}

	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("registry document unmarshal: %w", err)
	}
	return &reg, nil
}

// Value maps a chosen option to its numeric score. The boolean is false for
// options missing from the table.
func (r *Registry) Value(option string) (int, bool) {
	v, ok := r.AnswerValues[option]
	return v, ok
}
