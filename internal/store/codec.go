// Package store persists task collections to a single file on disk.
package store

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/tasktracker-go/internal/task"
)

//go:embed tasks.schema.json
var schemaSource string

const schemaURL = "tasks.schema.json"

// Codec converts a whole task collection to and from its on-disk bytes.
type Codec interface {
	Encode(c task.Collection) ([]byte, error)
	Decode(data []byte) (task.Collection, error)
}

// ValidationResult contains the outcome of checking raw file content.
type ValidationResult struct {
	Valid  bool
	Empty  bool // content was empty, whitespace or null
	Tasks  int
	Errors []error

	// Records holds the decoded collection when Valid and not Empty.
	Records task.Collection
}

// JSONCodec stores the collection as a JSON array with 2-space indentation
// and a trailing newline. Decoding checks the document against the embedded
// JSON Schema and then validates each record.
type JSONCodec struct{}

// NewJSONCodec returns the default codec.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Encode marshals the collection. A nil collection encodes as [].
func (JSONCodec) Encode(c task.Collection) ([]byte, error) {
	if c == nil {
		c = task.Collection{}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tasks: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses data. Empty content decodes to an empty collection; anything
// that is not a valid collection returns an error wrapping ErrCorruptStore.
func (c JSONCodec) Decode(data []byte) (task.Collection, error) {
	result, tasks := c.check(data)
	if !result.Valid {
		return nil, fmt.Errorf("%w: %w", ErrCorruptStore, result.Errors[0])
	}
	if tasks == nil {
		tasks = task.Collection{}
	}
	return tasks, nil
}

// Check validates raw content and reports every problem found.
func (c JSONCodec) Check(data []byte) *ValidationResult {
	result, _ := c.check(data)
	return result
}

func (JSONCodec) check(data []byte) (*ValidationResult, task.Collection) {
	result := &ValidationResult{
		Valid:  true,
		Errors: make([]error, 0),
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		result.Empty = true
		return result, nil
	}

	var doc interface{}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, &task.ValidationError{
			Err: fmt.Errorf("parse tasks: %w", err),
		})
		return result, nil
	}

	schema, err := compiledSchema()
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err)
		return result, nil
	}
	if err := schema.Validate(doc); err != nil {
		result.Valid = false
		appendSchemaErrors(result, err)
		return result, nil
	}

	var tasks task.Collection
	if err := json.Unmarshal(trimmed, &tasks); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, &task.ValidationError{
			Err: fmt.Errorf("decode tasks: %w", err),
		})
		return result, nil
	}
	result.Tasks = len(tasks)

	if err := tasks.Validate(); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err)
		return result, nil
	}

	result.Records = tasks
	return result, tasks
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaSource)); err != nil {
			schemaErr = fmt.Errorf("load task schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile task schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

func appendSchemaErrors(result *ValidationResult, err error) {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		result.Errors = append(result.Errors, err)
		return
	}
	collectSchemaErrors(result, ve)
}

func collectSchemaErrors(result *ValidationResult, err *jsonschema.ValidationError) {
	if len(err.Causes) == 0 {
		result.Errors = append(result.Errors, &task.ValidationError{
			Path: jsonPointerToPath(err.InstanceLocation),
			Err:  errors.New(err.Message),
		})
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(result, cause)
	}
}

// jsonPointerToPath turns "/2/status" into "[2].status".
func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	var b strings.Builder
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			fmt.Fprintf(&b, "[%d]", idx)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}
