package emit

import (
	"encoding/json"
	"fmt"
	"strings"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// SelfValidate re-parses an emitted document's own bytes and checks
// them against the schema generated from Document, catching any drift
// between the Go struct tags and the values actually written —
// grounded on the teacher's validateSemantic pass (§4.7 P8).
func SelfValidate(docJSON []byte) error {
	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}

	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return fmt.Errorf("unmarshal schema: %w", err)
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("urd-v1.json", schemaDoc); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	sch, err := c.Compile("urd-v1.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(docJSON, &doc); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}

	if err := sch.Validate(doc); err != nil {
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			var msgs []string
			for _, cause := range flattenValidationErrors(ve) {
				msgs = append(msgs, fmt.Sprintf("%s: %v", strings.Join(cause.InstanceLocation, "/"), cause.ErrorKind))
			}
			return fmt.Errorf("document failed self-validation:\n%s", strings.Join(msgs, "\n"))
		}
		return err
	}
	return nil
}

func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}
