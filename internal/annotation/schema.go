package annotation

import (
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// corpusSchema describes the subset of the Label Studio export that is read.
const corpusSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["data", "annotations"],
    "properties": {
      "data": {
        "type": "object",
        "required": ["text"],
        "properties": {"text": {"type": "string"}}
      },
      "annotations": {
        "type": "array",
        "minItems": 1,
        "items": {
          "type": "object",
          "required": ["result"],
          "properties": {
            "result": {
              "type": "array",
              "items": {
                "type": "object",
                "required": ["value"],
                "properties": {
                  "value": {
                    "type": "object",
                    "required": ["start", "end", "labels"],
                    "properties": {
                      "start": {"type": "integer", "minimum": 0},
                      "end": {"type": "integer", "minimum": 0},
                      "labels": {"type": "array", "minItems": 1, "items": {"type": "string"}}
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func corpusValidator() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("corpus.json", strings.NewReader(corpusSchema)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("corpus.json")
	})
	return compiledSchema, schemaErr
}
