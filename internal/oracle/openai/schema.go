package openai

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Response schemas, compiled once. The model is instructed to answer with
// JSON matching these shapes; anything that fails validation is discarded
// and the caller degrades to an unknown result.

const tierSchemaJSON = `{
  "type": "object",
  "properties": {
    "tier": {"type": "string", "enum": ["compilation", "limited review", "audit", "indeterminate"]}
  },
  "required": ["tier"],
  "additionalProperties": false
}`

const equationSchemaJSON = `{
  "type": "object",
  "properties": {
    "assets": {"type": ["number", "null"]},
    "liabilities": {"type": ["number", "null"]},
    "equity": {"type": ["number", "null"]},
    "difference": {"type": ["number", "null"]},
    "confidence": {"type": "string", "enum": ["high", "medium", "low", "none"]}
  },
  "required": ["confidence"],
  "additionalProperties": false
}`

const opinionsSchemaJSON = `{
  "type": "object",
  "properties": {
    "cashflow_opinion": {"type": "string", "enum": ["present", "absent", "unknown"]},
    "credit_opinion": {"type": "string", "enum": ["present", "absent", "unknown"]}
  },
  "required": ["cashflow_opinion", "credit_opinion"],
  "additionalProperties": false
}`

const coverageSchemaJSON = `{
  "type": "object",
  "properties": {
    "final_year": {"type": ["integer", "null"]},
    "duration_years": {"type": ["integer", "null"]},
    "confidence": {"type": "string", "enum": ["high", "medium", "low", "none"]}
  },
  "required": ["confidence"],
  "additionalProperties": false
}`

var (
	tierSchema     = mustCompile("tier.json", tierSchemaJSON)
	equationSchema = mustCompile("equation.json", equationSchemaJSON)
	opinionsSchema = mustCompile("opinions.json", opinionsSchemaJSON)
	coverageSchema = mustCompile("coverage.json", coverageSchemaJSON)
)

func mustCompile(name, raw string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader([]byte(raw))); err != nil {
		panic(fmt.Sprintf("add schema resource %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

func validate(schema *jsonschema.Schema, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
