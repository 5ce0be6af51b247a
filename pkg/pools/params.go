package pools

import (
	"fmt"
	"os"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/xeipuuv/gojsonschema"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const weightedParamsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["initialFee", "seedTokens", "owner"],
  "properties": {
    "name":       { "type": "string" },
    "symbol":     { "type": "string" },
    "initialFee": { "type": "string", "pattern": "^[0-9]+(\\.[0-9]+)?$" },
    "value":      { "type": "string", "pattern": "^[0-9]+(\\.[0-9]+)?$" },
    "owner":      { "type": "string", "pattern": "^0x[0-9a-fA-F]{40}$" },
    "seedTokens": {
      "type": "array",
      "minItems": 2,
      "items": {
        "type": "object",
        "required": ["tokenAddress", "weight", "symbol"],
        "properties": {
          "id":           { "type": "integer" },
          "tokenAddress": { "type": "string", "pattern": "^0x[0-9a-fA-F]{40}$" },
          "weight":       { "type": "integer", "minimum": 1, "maximum": 99 },
          "amount":       { "type": "string" },
          "symbol":       { "type": "string", "minLength": 1 }
        }
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(weightedParamsSchema))
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile params schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// ParseWeightedParams validates raw JSON against the params schema and
// decodes it. Schema violations come back as a *ValidationError.
func ParseWeightedParams(raw []byte) (WeightedFactoryParams, error) {
	var p WeightedFactoryParams
	s, err := loadSchema()
	if err != nil {
		return p, err
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return p, fmt.Errorf("validate params: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return p, &ValidationError{Message: strings.Join(msgs, "; ")}
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("decode params: %w", err)
	}
	return p, nil
}

// LoadWeightedParams reads and parses a params file.
func LoadWeightedParams(path string) (WeightedFactoryParams, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return WeightedFactoryParams{}, fmt.Errorf("read params: %w", err)
	}
	return ParseWeightedParams(raw)
}
