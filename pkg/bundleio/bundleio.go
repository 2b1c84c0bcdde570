// Package bundleio serializes proof bundles for the external persistence
// and transport layer. The JSON field names are load-bearing: the verifier
// recomputes hashes over this exact structural shape, so decoding validates
// incoming documents against a schema before handing them to verification.
package bundleio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Mindburn-Labs/fak/pkg/artifact"
	"github.com/Mindburn-Labs/fak/pkg/faults"
)

const bundleSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["id", "witnesses", "metadata"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "witnesses": {
      "type": "array",
      "maxItems": 100,
      "items": {
        "type": "object",
        "required": [
          "proof_id", "execution_trace", "capability_manifest",
          "cost_ledger", "policy_ir", "invariants", "counterexamples"
        ],
        "properties": {
          "proof_id": {"type": "string", "minLength": 1},
          "execution_trace": {
            "type": "object",
            "required": ["id", "steps", "metadata"],
            "properties": {"id": {"type": "string", "minLength": 1}}
          },
          "capability_manifest": {
            "type": "object",
            "required": ["id", "agent_id", "capabilities", "authority_graph", "metadata"],
            "properties": {
              "id": {"type": "string", "minLength": 1},
              "agent_id": {"type": "string", "minLength": 1}
            }
          },
          "cost_ledger": {
            "type": "object",
            "required": ["id", "entries", "total_cost", "metadata"],
            "properties": {
              "id": {"type": "string", "minLength": 1},
              "total_cost": {"type": "number", "minimum": 0}
            }
          },
          "policy_ir": {
            "type": "object",
            "required": ["id", "ast", "compiled_enforcement", "metadata"],
            "properties": {"id": {"type": "string", "minLength": 1}}
          },
          "invariants": {
            "type": ["array", "null"],
            "items": {
              "type": "object",
              "required": ["name", "invariant_type"],
              "properties": {
                "name": {"type": "string", "minLength": 1},
                "invariant_type": {
                  "enum": [
                    "behavioral_soundness", "authority_non_escalation",
                    "economic_invariance", "semantic_preservation"
                  ]
                }
              }
            }
          },
          "counterexamples": {
            "type": ["array", "null"],
            "items": {
              "type": "object",
              "required": ["invariant_name", "error_type"],
              "properties": {
                "error_type": {"enum": ["violation", "timeout", "check_error"]}
              }
            }
          }
        }
      }
    },
    "metadata": {"type": ["object", "null"]}
  }
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	const schemaURL = "https://fak.schemas.local/proof_bundle.schema.json"
	if err := c.AddResource(schemaURL, strings.NewReader(bundleSchema)); err != nil {
		panic(fmt.Sprintf("bundleio: schema load failed: %v", err))
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		panic(fmt.Sprintf("bundleio: schema compile failed: %v", err))
	}
	return schema
}

// Encode serializes a bundle to its wire JSON after validating it.
func Encode(bundle *artifact.ProofBundle) ([]byte, error) {
	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(bundle)
	if err != nil {
		return nil, &faults.Serialization{Message: err.Error()}
	}
	return raw, nil
}

// Decode parses wire JSON into a bundle, rejecting documents that do not
// match the bundle schema before any verification logic sees them.
func Decode(data []byte) (*artifact.ProofBundle, error) {
	var generic any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, &faults.Serialization{Message: err.Error()}
	}
	if err := compiledSchema.Validate(generic); err != nil {
		return nil, &faults.Validation{Field: "bundle", Message: err.Error()}
	}

	var bundle artifact.ProofBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, &faults.Serialization{Message: err.Error()}
	}
	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	return &bundle, nil
}
