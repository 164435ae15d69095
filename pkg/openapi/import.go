// Package openapi derives a form schema from an OpenAPI operation's request
// body, so questionnaires can be bootstrapped from an existing API contract
// instead of authored by hand. Only object-shaped JSON request bodies are
// considered; properties that do not map onto a question type are skipped
// rather than failing the import.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formflow/pkg/schema"
)

var errOperationNotFound = errors.New("openapi import: operation not found")

// Import loads an OpenAPI document and converts the named operation's
// request body into a FormSchema with a single section. The result has
// already passed schema.Validate.
func Import(ctx context.Context, doc []byte, operationID string) (schema.FormSchema, error) {
	if err := ctx.Err(); err != nil {
		return schema.FormSchema{}, err
	}
	if len(doc) == 0 {
		return schema.FormSchema{}, errors.New("openapi import: document payload is empty")
	}
	if operationID == "" {
		return schema.FormSchema{}, errors.New("openapi import: operation id is required")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(doc)
	if err != nil {
		return schema.FormSchema{}, fmt.Errorf("openapi import: load document: %w", err)
	}
	if spec.Paths == nil || spec.Paths.Len() == 0 {
		return schema.FormSchema{}, errors.New("openapi import: document does not contain any paths")
	}

	operation := findOperation(spec, operationID)
	if operation == nil {
		return schema.FormSchema{}, fmt.Errorf("%w: %q", errOperationNotFound, operationID)
	}

	body := requestBodySchema(operation.RequestBody)
	if body == nil || len(body.Properties) == 0 {
		return schema.FormSchema{}, fmt.Errorf("openapi import: operation %q has no object request body", operationID)
	}

	section := schema.Section{
		ID:          operationID,
		Title:       sectionTitle(operation, operationID),
		Description: operation.Description,
		Required:    true,
	}

	required := make(map[string]bool, len(body.Required))
	for _, name := range body.Required {
		required[name] = true
	}

	// Map iteration is randomized; sort property names so imported schemas
	// are stable across runs.
	names := make([]string, 0, len(body.Properties))
	for name := range body.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ref := body.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		question, ok := convertProperty(name, ref.Value, required[name])
		if !ok {
			continue
		}
		section.Questions = append(section.Questions, question)
	}
	if len(section.Questions) == 0 {
		return schema.FormSchema{}, fmt.Errorf("openapi import: operation %q maps to no questions", operationID)
	}

	form := schema.FormSchema{
		ID:       operationID,
		Version:  spec.Info.Version,
		Title:    sectionTitle(operation, operationID),
		Sections: []schema.Section{section},
	}
	if err := form.Validate(); err != nil {
		return schema.FormSchema{}, err
	}
	return form, nil
}

func findOperation(spec *openapi3.T, operationID string) *openapi3.Operation {
	for _, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for _, op := range []*openapi3.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Patch,
		} {
			if op != nil && op.OperationID == operationID {
				return op
			}
		}
	}
	return nil
}

func requestBodySchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	mt, ok := body.Value.Content["application/json"]
	if !ok || mt.Schema == nil {
		return nil
	}
	return mt.Schema.Value
}

func sectionTitle(op *openapi3.Operation, fallback string) string {
	if op.Summary != "" {
		return op.Summary
	}
	if len(op.Tags) > 0 {
		return op.Tags[0]
	}
	return fallback
}
