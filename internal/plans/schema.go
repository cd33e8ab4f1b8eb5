package plans

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// catalogSchema is the contract the billing plans payload must satisfy
// before any of it is shown or purchased.
const catalogSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["id", "name", "price", "credits"],
		"properties": {
			"id": {"type": "string", "minLength": 1},
			"name": {"type": "string", "minLength": 1},
			"price": {"type": "number", "minimum": 0},
			"credits": {"type": "integer", "minimum": 0},
			"is_best_value": {"type": "boolean"},
			"features": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["feature", "included"],
					"properties": {
						"feature": {"type": "string"},
						"included": {"type": "boolean"}
					}
				}
			}
		}
	}
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// validateCatalog checks raw against the catalog schema.
func validateCatalog(raw []byte) error {
	compileOnce.Do(func() {
		var def any
		if err := json.Unmarshal([]byte(catalogSchema), &def); err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://billing-plans.json", def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("schema://billing-plans.json")
	})
	if compileErr != nil {
		return compileErr
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := compiledSchema.Validate(parsed); err != nil {
		return fmt.Errorf("catalog validation failed: %w", err)
	}
	return nil
}
