package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaVersion is bumped whenever unifiedAnalysisSchemaJSON's shape changes
// in a backward-incompatible way. It is not recorded in UnifiedAnalysis; it
// is exposed through SchemaVersion and compared by CompareSchemaVersion.
const schemaVersion = "1.0.0"

const unifiedAnalysisSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["sha256", "evidence_type", "analyzed_at", "model_id", "labels", "case_ids"],
  "properties": {
    "sha256": {"type": "string", "pattern": "^[a-f0-9]{64}$"},
    "evidence_type": {"type": "string", "enum": ["document", "image", "email", "other"]},
    "analyzed_at": {"type": "string"},
    "model_id": {"type": "string", "minLength": 1},
    "model_revision": {"type": "string"},
    "labels": {"type": "array", "items": {"type": "string"}},
    "case_ids": {"type": "array", "items": {"type": "string"}},
    "document_analysis": {"$ref": "#/$defs/documentAnalysis"},
    "image_analysis": {"$ref": "#/$defs/imageAnalysis"},
    "email_analysis": {"$ref": "#/$defs/emailAnalysis"}
  },
  "$defs": {
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "entity": {
      "type": "object",
      "required": ["name", "type", "confidence", "context"],
      "properties": {
        "name": {"type": "string"},
        "type": {"type": "string", "enum": ["person", "organization", "location", "date", "legal_term"]},
        "confidence": {"$ref": "#/$defs/confidence"},
        "context": {"type": "string"}
      }
    },
    "documentAnalysis": {
      "type": "object",
      "required": ["summary", "entities", "document_type", "sentiment", "legal_significance", "confidence"],
      "properties": {
        "summary": {"type": "string"},
        "entities": {"type": "array", "items": {"$ref": "#/$defs/entity"}},
        "document_type": {"type": "string", "enum": ["email", "letter", "contract", "filing", "other"]},
        "sentiment": {"type": "string", "enum": ["hostile", "neutral", "professional"]},
        "legal_significance": {"type": "string", "enum": ["critical", "high", "medium", "low"]},
        "risk_flags": {"type": "array", "items": {"type": "string"}},
        "confidence": {"$ref": "#/$defs/confidence"}
      }
    },
    "imageAnalysis": {
      "type": "object",
      "required": ["scene_description", "confidence"],
      "properties": {
        "scene_description": {"type": "string"},
        "ocr_text": {"type": "string"},
        "detected_objects": {"type": "array", "items": {"type": "string"}},
        "confidence": {"$ref": "#/$defs/confidence"}
      }
    },
    "emailAnalysis": {
      "type": "object",
      "required": ["participants", "thread_summary", "communication_pattern", "legal_significance", "confidence"],
      "properties": {
        "participants": {"type": "array", "items": {"$ref": "#/$defs/participant"}},
        "thread_summary": {"type": "string"},
        "communication_pattern": {"type": "string", "enum": ["professional", "escalating", "hostile", "retaliatory"]},
        "escalation_detected": {"type": "boolean"},
        "legal_significance": {"type": "string", "enum": ["critical", "high", "medium", "low"]},
        "risk_flags": {"type": "array", "items": {"type": "string"}},
        "confidence": {"$ref": "#/$defs/confidence"}
      }
    },
    "participant": {
      "type": "object",
      "required": ["name", "address", "role", "deference_score"],
      "properties": {
        "name": {"type": "string"},
        "address": {"type": "string"},
        "role": {"type": "string", "enum": ["sender", "recipient", "cc", "bcc"]},
        "deference_score": {"$ref": "#/$defs/confidence"}
      }
    }
  }
}`

var (
	compileOnce     sync.Once
	compiledSchema  *jsonschema.Schema
	compileErr      error
)

func compiled() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		url := "https://evidence-toolkit.local/schema/unified_analysis.json"
		if err := c.AddResource(url, strings.NewReader(unifiedAnalysisSchemaJSON)); err != nil {
			compileErr = fmt.Errorf("analysis: load schema resource: %w", err)
			return
		}
		s, err := c.Compile(url)
		if err != nil {
			compileErr = fmt.Errorf("analysis: compile schema: %w", err)
			return
		}
		compiledSchema = s
	})
	return compiledSchema, compileErr
}

// ValidateSchema checks u against the current UnifiedAnalysis JSON Schema
// (invariant I5's closed-shape half; Validate() covers the semantic half).
// It is run both on construction and on every reload from disk, since a
// derived file may have been hand-edited or written by an older revision.
func ValidateSchema(u *UnifiedAnalysis) error {
	schema, err := compiled()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("analysis: marshal for schema validation: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("analysis: unmarshal for schema validation: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("analysis: schema validation failed: %w", err)
	}
	return nil
}

// SchemaVersion reports the version of the current UnifiedAnalysis schema.
func SchemaVersion() string { return schemaVersion }
