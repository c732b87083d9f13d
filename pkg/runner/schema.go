package runner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidProposal marks proposal data that failed schema validation.
var ErrInvalidProposal = errors.New("invalid proposal data")

// proposalSchema is the shape every submission must satisfy before any
// stage runs. Additional fields are allowed and passed through untouched.
var proposalSchema = map[string]any{
	"type":     "object",
	"required": []any{"title", "vendor", "amount"},
	"properties": map[string]any{
		"title":             map[string]any{"type": "string", "minLength": 1},
		"description":       map[string]any{"type": "string"},
		"vendor":            map[string]any{"type": "string", "minLength": 1},
		"category":          map[string]any{"type": "string"},
		"amount":            map[string]any{"type": "number", "exclusiveMinimum": 0},
		"duration_months":   map[string]any{"type": "integer", "minimum": 0},
		"regulatory_domain": map[string]any{"type": "string"},
		"expedited":         map[string]any{"type": "boolean"},
	},
}

func validateProposalData(data map[string]any) error {
	schemaLoader := gojsonschema.NewGoLoader(proposalSchema)
	dataLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProposal, err)
	}

	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}

		return fmt.Errorf("%w: %s", ErrInvalidProposal, strings.Join(problems, "; "))
	}

	return nil
}
