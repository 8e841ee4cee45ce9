package quiz

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// generationSchema is the strict shape the completion capability must return:
// exactly five questions with four options each, and five answer letters.
// Anything that does not validate is a malformed quiz, never a partial success.
const generationSchema = `{
	"type": "object",
	"required": ["questions", "answers"],
	"properties": {
		"questions": {
			"type": "array",
			"minItems": 5,
			"maxItems": 5,
			"items": {
				"type": "object",
				"required": ["question", "options"],
				"properties": {
					"question": {"type": "string", "minLength": 1},
					"options": {
						"type": "array",
						"minItems": 4,
						"maxItems": 4,
						"items": {"type": "string", "minLength": 1}
					}
				}
			}
		},
		"answers": {
			"type": "array",
			"minItems": 5,
			"maxItems": 5,
			"items": {"type": "string", "pattern": "^[a-dA-D]$"}
		}
	}
}`

var generationSchemaLoader = gojsonschema.NewStringLoader(generationSchema)

// generationPayload is the parsed completion output.
type generationPayload struct {
	Questions []Question `json:"questions"`
	Answers   []string   `json:"answers"`
}

// stripFences removes markdown code-fence wrappers and a leading "json" tag
// that completion models tend to add despite instructions.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "json\n")
	return strings.TrimSpace(s)
}

// parseGeneration validates raw completion output against the generation
// schema and returns the payload with answer letters lower-cased.
func parseGeneration(raw string) (*generationPayload, error) {
	cleaned := stripFences(raw)

	result, err := gojsonschema.Validate(generationSchemaLoader, gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return nil, fmt.Errorf("validate generation output: %w", err)
	}
	if !result.Valid() {
		var issues []string
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return nil, fmt.Errorf("generation output rejected by schema: %s", strings.Join(issues, "; "))
	}

	var payload generationPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("decode generation output: %w", err)
	}

	for i, letter := range payload.Answers {
		payload.Answers[i] = strings.ToLower(letter)
	}
	return &payload, nil
}
