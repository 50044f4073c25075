package emit

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// GenerateJSONSchema produces a JSON Schema Draft 2020-12 document from
// the Document Go type, grounded on the teacher's invopop/jsonschema
// reflection of its own document types (§4.7 "self-describing schema").
func GenerateJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false

	s := r.Reflect(&Document{})
	s.ID = "https://urdwyrd.dev/schemas/urd-v1.json"
	s.Title = "Urd compiled world document"
	s.Description = "Schema for .urd.json documents emitted by the Urd compiler"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}
