package config

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/*.json
var schemaFS embed.FS

const (
	containmentSchemaURL = "https://composer.reglet.dev/schema/containment.json"
	targetsSchemaURL     = "https://composer.reglet.dev/schema/targets.json"
)

// schemas holds the compiled document schemas.
type schemas struct {
	containment *jsonschema.Schema
	targets     *jsonschema.Schema
}

func compileSchemas() (*schemas, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	for url, file := range map[string]string{
		containmentSchemaURL: "schema/containment.schema.json",
		targetsSchemaURL:     "schema/targets.schema.json",
	} {
		data, err := schemaFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", file, err)
		}
		if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to add schema resource %s: %w", file, err)
		}
	}

	containment, err := compiler.Compile(containmentSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile containment schema: %w", err)
	}
	targets, err := compiler.Compile(targetsSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile targets schema: %w", err)
	}
	return &schemas{containment: containment, targets: targets}, nil
}

// validateYAML checks a YAML document against schema. The document is
// converted to its JSON form first so numbers and maps have the shapes the
// validator expects.
func validateYAML(schema *jsonschema.Schema, data []byte) error {
	raw, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("failed to decode YAML: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode YAML: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return formatSchemaValidationError(validationErr)
		}
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// formatSchemaValidationError formats a JSON Schema validation error into a readable message.
func formatSchemaValidationError(err *jsonschema.ValidationError) error {
	var messages []string

	var collectErrors func(*jsonschema.ValidationError)
	collectErrors = func(e *jsonschema.ValidationError) {
		if e.Message != "" && len(e.Causes) == 0 {
			location := e.InstanceLocation
			if location == "" {
				location = "(root)"
			}
			messages = append(messages, fmt.Sprintf("%s: %s", location, e.Message))
		}
		for _, cause := range e.Causes {
			collectErrors(cause)
		}
	}

	collectErrors(err)

	if len(messages) == 0 {
		return fmt.Errorf("schema validation failed")
	}

	return fmt.Errorf("schema validation failed:\n    - %s", strings.Join(messages, "\n    - "))
}
