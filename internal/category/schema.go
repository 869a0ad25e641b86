package category

import (
	"fmt"

	"github.com/imadezze/ClassificationAlloBrain/internal/llm"
)

func categoryItemSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":        map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"boundary":    map[string]any{"type": "string"},
			"examples": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required":             []string{"name", "description", "boundary", "examples"},
		"additionalProperties": false,
	}
}

// discoverySchema constrains discovery output to exactly count categories.
// The name carries the count so differently-sized schemas do not collide in
// the gateway's compiled-schema cache.
func discoverySchema(count int) *llm.Schema {
	return &llm.Schema{
		Name:        fmt.Sprintf("category-discovery-%d", count),
		Description: "A fixed-size set of categories proposed for a data column",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"categories": map[string]any{
					"type":     "array",
					"items":    categoryItemSchema(),
					"minItems": count,
					"maxItems": count,
				},
			},
			"required":             []string{"categories"},
			"additionalProperties": false,
		},
	}
}

// refinementSchema allows any number of categories: feedback may merge,
// split, add, or remove them.
func refinementSchema() *llm.Schema {
	return &llm.Schema{
		Name:        "category-refinement",
		Description: "A revised set of categories after applying user feedback",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"categories": map[string]any{
					"type":     "array",
					"items":    categoryItemSchema(),
					"minItems": 1,
				},
			},
			"required":             []string{"categories"},
			"additionalProperties": false,
		},
	}
}

// decodeSet accepts both the schema-shaped {"categories": [...]} object and
// a bare JSON array. Providers with native structured output return the
// former; plain-text completions tend to produce the latter.
func decodeSet(raw []byte) (Set, error) {
	var wrapped struct {
		Categories Set `json:"categories"`
	}
	if err := llm.DecodeJSON(raw, &wrapped); err == nil && wrapped.Categories != nil {
		return wrapped.Categories, nil
	}

	var s Set
	if err := llm.DecodeJSON(raw, &s); err != nil {
		return nil, err
	}
	return s, nil
}
