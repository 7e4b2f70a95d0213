package codec

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/abdul-hamid-achik/apidriver/packages/apiclient"
)

// ErrSchemaMismatch is wrapped by SchemaError.
var ErrSchemaMismatch = errors.New("schema validation failed")

// SchemaError lists every violation found in a response body.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSchemaMismatch, strings.Join(e.Violations, "; "))
}

func (e *SchemaError) Unwrap() error { return ErrSchemaMismatch }

// ValidateSchema compiles schema once and returns a decoder that rejects
// bodies not matching it before handing them to next. A nil next yields the
// raw body.
func ValidateSchema(schema []byte, next apiclient.Decoder) (apiclient.Decoder, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return func(body []byte) (any, error) {
		result, err := compiled.Validate(gojsonschema.NewBytesLoader(body))
		if err != nil {
			return nil, fmt.Errorf("schema validation error: %w", err)
		}
		if !result.Valid() {
			violations := make([]string, 0, len(result.Errors()))
			for _, desc := range result.Errors() {
				violations = append(violations, desc.String())
			}
			return nil, &SchemaError{Violations: violations}
		}
		if next == nil {
			return body, nil
		}
		return next(body)
	}, nil
}

// ValidateSchemaFile reads a schema from disk and calls ValidateSchema.
func ValidateSchemaFile(path string, next apiclient.Decoder) (apiclient.Decoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return ValidateSchema(data, next)
}
