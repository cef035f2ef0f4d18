// Package schemas provides JSON Schema validation for documents exchanged with the generator.
// Schemas are embedded at compile time.
package schemas

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed *.schema.json
var schemaFiles embed.FS

// Embedded schema names.
const (
	Proposal = "proposal.schema.json"
	Figure   = "figure.schema.json"
)

var (
	compiled   = make(map[string]*compiledSchema)
	compiledMu sync.RWMutex
)

// compiledSchema pairs a schema with the position of each top-level property
// as declared in the file.
type compiledSchema struct {
	schema *gojsonschema.Schema
	order  map[string]int
}

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// First returns the first field error, which is the one reported to callers.
func (ve *ValidationError) First() FieldError {
	if len(ve.Errors) == 0 {
		return FieldError{Field: "(root)", Message: "invalid document"}
	}
	return ve.Errors[0]
}

// ValidateDocument validates an already-decoded document against an embedded schema.
func ValidateDocument(name string, doc any) error {
	c, err := load(name)
	if err != nil {
		return err
	}

	result, err := c.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to validate document against %s: %w", name, err)
	}
	return toValidationError(result, c.order)
}

func load(name string) (*compiledSchema, error) {
	compiledMu.RLock()
	if c, ok := compiled[name]; ok {
		compiledMu.RUnlock()
		return c, nil
	}
	compiledMu.RUnlock()

	data, err := schemaFiles.ReadFile(name)
	if err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "schema not found", Cause: err}
	}

	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "schema failed to compile", Cause: err}
	}
	order, err := propertyOrder(data)
	if err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "schema properties unreadable", Cause: err}
	}

	c := &compiledSchema{schema: s, order: order}
	compiledMu.Lock()
	compiled[name] = c
	compiledMu.Unlock()
	return c, nil
}

// propertyOrder reads the keys of the top-level "properties" object in
// declaration order.
func propertyOrder(data []byte) (map[string]int, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}
	order := make(map[string]int)
	props, ok := top["properties"]
	if !ok {
		return order, nil
	}

	dec := json.NewDecoder(bytes.NewReader(props))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v in properties", tok)
		}
		order[key] = len(order)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func toValidationError(result *gojsonschema.Result, order map[string]int) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		// A missing property is reported on its parent; name the property instead.
		if desc.Type() == "required" {
			if prop, ok := desc.Details()["property"].(string); ok {
				field = strings.TrimPrefix(field+"."+prop, "(root).")
			}
		}
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	// gojsonschema walks object properties in map order; report errors in
	// the order the schema declares the properties.
	rank := func(field string) int {
		if field == "(root)" {
			return -1
		}
		if i, ok := order[strings.SplitN(field, ".", 2)[0]]; ok {
			return i
		}
		return len(order)
	}
	sort.SliceStable(validationErr.Errors, func(i, j int) bool {
		ri, rj := rank(validationErr.Errors[i].Field), rank(validationErr.Errors[j].Field)
		if ri != rj {
			return ri < rj
		}
		return validationErr.Errors[i].Field < validationErr.Errors[j].Field
	})
	return validationErr
}
