package ollama

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const zeroShotSchema = `{
  "type": "object",
  "required": ["scores"],
  "properties": {
    "scores": {
      "type": "object",
      "additionalProperties": {"type": "number"}
    }
  }
}`

const entitiesSchema = `{
  "type": "object",
  "required": ["entities"],
  "properties": {
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["text", "label"],
        "properties": {
          "text": {"type": "string"},
          "label": {"type": "string"}
        }
      }
    }
  }
}`

var (
	zeroShotValidator = mustCompileSchema("zero_shot.json", zeroShotSchema)
	entitiesValidator = mustCompileSchema("entities.json", entitiesSchema)
)

func mustCompileSchema(name, raw string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return schema
}

// decodeValidated extracts the JSON object from a model reply, checks it
// against schema and decodes it into out.
func decodeValidated(schema *jsonschema.Schema, reply string, out any) error {
	data := []byte(extractJSONObject(reply))

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: parse json: %v", errModelOutput, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", errModelOutput, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode: %v", errModelOutput, err)
	}
	return nil
}
