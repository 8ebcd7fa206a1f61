package themes

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrManifestInvalid is returned when theme.json fails schema validation.
var ErrManifestInvalid = errors.New("themes: manifest invalid")

// manifestSchema constrains theme.json just enough to catch broken manifests
// before the registry sees them: a non-empty name plus string-valued asset
// and template maps. Unknown keys pass through so manifests can carry extra
// metadata.
const manifestSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"version": {"type": "string"},
		"description": {"type": "string"},
		"author": {"type": "string"},
		"templates": {
			"type": "object",
			"additionalProperties": {"type": "string"}
		},
		"assets": {
			"type": "object",
			"properties": {
				"files": {
					"type": "object",
					"additionalProperties": {"type": "string"}
				}
			}
		},
		"variants": {"type": "object"}
	}
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func themeSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("theme.schema.json", strings.NewReader(manifestSchema)); err != nil {
			schemaErr = fmt.Errorf("themes: add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("theme.schema.json")
	})
	return compiledSchema, schemaErr
}

// ValidateManifest checks raw theme.json bytes against the manifest schema.
// Validation failures are reported with their instance locations so a broken
// manifest names the offending field.
func ValidateManifest(raw []byte) error {
	schema, err := themeSchema()
	if err != nil {
		return err
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrManifestInvalid, err)
	}

	if err := schema.Validate(payload); err != nil {
		var validation *jsonschema.ValidationError
		if errors.As(err, &validation) {
			return fmt.Errorf("%w: %s", ErrManifestInvalid, strings.Join(validationIssues(validation), "; "))
		}
		return fmt.Errorf("%w: %v", ErrManifestInvalid, err)
	}
	return nil
}

// validationIssues flattens a validation error tree into leaf messages
// prefixed with their instance location.
func validationIssues(err *jsonschema.ValidationError) []string {
	if len(err.Causes) == 0 {
		location := err.InstanceLocation
		if location == "" {
			location = "/"
		}
		return []string{fmt.Sprintf("%s: %s", location, err.Message)}
	}

	var issues []string
	for _, cause := range err.Causes {
		issues = append(issues, validationIssues(cause)...)
	}
	return issues
}
