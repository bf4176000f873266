package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/tsawler/docstruct/model"
)

var (
	// ErrSchemaMismatch is returned when a response lacks a required key
	ErrSchemaMismatch = errors.New("llm: response does not match schema")

	// ErrDisabled is the result error of tasks run without a service
	ErrDisabled = errors.New("llm: disabled")
)

// Schema names the expected response shape. Required lists the top-level
// keys the JSON object must carry.
type Schema struct {
	Name     string
	Required []string
}

// Request is one model call for one block.
type Request struct {
	Prompt string
	Image  image.Image
	Block  model.BlockID
	Schema Schema
}

// Service is the model-call collaborator. Implementations must be safe
// for concurrent use and bound their own call duration.
type Service interface {
	Call(ctx context.Context, req Request) (json.RawMessage, error)
}

// ServiceFunc adapts a function to the Service interface
type ServiceFunc func(ctx context.Context, req Request) (json.RawMessage, error)

// Call calls f(ctx, req)
func (f ServiceFunc) Call(ctx context.Context, req Request) (json.RawMessage, error) {
	return f(ctx, req)
}

// validate checks that resp is a JSON object carrying every required key.
func validate(resp json.RawMessage, schema Schema) error {
	if len(schema.Required) == 0 {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(resp, &obj); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSchemaMismatch, schema.Name, err)
	}
	for _, key := range schema.Required {
		if _, ok := obj[key]; !ok {
			return fmt.Errorf("%w: %s: missing %q", ErrSchemaMismatch, schema.Name, key)
		}
	}
	return nil
}
