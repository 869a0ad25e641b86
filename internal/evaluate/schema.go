package evaluate

import (
	"fmt"

	"github.com/imadezze/ClassificationAlloBrain/internal/llm"
)

func syntheticSchema(count int) *llm.Schema {
	levels := make([]any, len(difficultyLevels))
	for i, l := range difficultyLevels {
		levels[i] = l
	}
	return &llm.Schema{
		Name:        fmt.Sprintf("synthetic-examples-%d", count),
		Description: "Generated test examples for one category",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"examples": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"text":       map[string]any{"type": "string"},
							"difficulty": map[string]any{"type": "string", "enum": levels},
						},
						"required":             []string{"text", "difficulty"},
						"additionalProperties": false,
					},
					"minItems": count,
					"maxItems": count,
				},
			},
			"required":             []string{"examples"},
			"additionalProperties": false,
		},
	}
}

func judgeSchema() *llm.Schema {
	return &llm.Schema{
		Name:        "judge-evaluation",
		Description: "An independent judge's assessment of one classification",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"independent_category": map[string]any{"type": "string"},
				"agreement": map[string]any{
					"type": "string",
					"enum": []any{string(AgreementAgree), string(AgreementDisagree), string(AgreementPartial)},
				},
				"quality": map[string]any{
					"type": "string",
					"enum": []any{"excellent", "good", "acceptable", "poor"},
				},
				"reasoning": map[string]any{"type": "string"},
			},
			"required":             []string{"independent_category", "agreement", "quality", "reasoning"},
			"additionalProperties": false,
		},
	}
}
