package classify

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/imadezze/ClassificationAlloBrain/internal/llm"
)

// classificationSchema constrains the answer to the vocabulary: category is
// an enum of the legal names, confidence an enum of the three levels. The
// schema name carries a hash of the names because compiled schemas are
// cached by name and each session has its own enum.
func classificationSchema(names []string) *llm.Schema {
	enum := make([]any, len(names))
	for i, n := range names {
		enum[i] = n
	}

	h := fnv.New32a()
	h.Write([]byte(strings.Join(names, "\x00")))

	return &llm.Schema{
		Name:        fmt.Sprintf("classification-%08x", h.Sum32()),
		Description: "A single category assignment with confidence",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"category": map[string]any{
					"type": "string",
					"enum": enum,
				},
				"confidence": map[string]any{
					"type": "string",
					"enum": []any{ConfidenceHigh, ConfidenceMedium, ConfidenceLow},
				},
				"reasoning": map[string]any{"type": "string"},
			},
			"required":             []string{"category", "confidence", "reasoning"},
			"additionalProperties": false,
		},
	}
}
