package toolkit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	"github.com/loanlab/underwriter/pkg/inference"
)

// Handler is the function signature for tool execution.
type Handler func(ctx context.Context, args map[string]any) (map[string]any, error)

// Parameter describes one tool argument.
type Parameter struct {
	Name        string
	Type        string // string, number, integer, boolean, array, object
	Description string
	Required    bool
	Items       map[string]any // element schema for array parameters
}

// Definition defines a tool's contract and its executable. The schema
// advertised to the model and the schema the validator enforces are
// generated from the same Parameters list, so the two cannot drift.
type Definition struct {
	Name        string
	Description string
	Parameters  []Parameter
	Handler     Handler
}

// Registry maps tool names to definitions and validates arguments
// before execution. Each agent type owns its own registry.
type Registry struct {
	tools   map[string]*Definition
	schemas map[string]*gojsonschema.Schema
	order   []string
	logger  zerolog.Logger
	mu      sync.RWMutex
}

// NewRegistry creates an empty tool registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		tools:   make(map[string]*Definition),
		schemas: make(map[string]*gojsonschema.Schema),
		logger:  logger,
	}
}

// Register adds a tool to the registry.
func (r *Registry) Register(def Definition) error {
	if err := validateDefinition(def); err != nil {
		return fmt.Errorf("invalid tool definition: %w", err)
	}

	schema, err := compileSchema(def)
	if err != nil {
		return fmt.Errorf("failed to compile schema for '%s': %w", def.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("tool already registered: %s", def.Name)
	}

	r.tools[def.Name] = &def
	r.schemas[def.Name] = schema
	r.order = append(r.order, def.Name)

	r.logger.Debug().Str("tool", def.Name).Msg("Tool registered")

	return nil
}

// Get returns a tool definition by name, or nil.
func (r *Registry) Get(name string) *Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.tools[name]
}

// Names returns registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Schemas renders the wire-facing tool schema list, in registration
// order, for the model request.
func (r *Registry) Schemas() []inference.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemas := make([]inference.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		def := r.tools[name]
		schemas = append(schemas, inference.ToolSchema{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: inputSchema(def),
		})
	}

	return schemas
}

// Validate checks arguments against the tool's contract. A missing or
// null required argument fails with a field-level *ValidationError; an
// unknown tool fails with an *ExecutionError.
func (r *Registry) Validate(name string, args map[string]any) error {
	r.mu.RLock()
	def := r.tools[name]
	schema := r.schemas[name]
	r.mu.RUnlock()

	if def == nil {
		return &ExecutionError{Tool: name, Err: fmt.Errorf("unknown tool: %s", name)}
	}

	for _, param := range def.Parameters {
		if !param.Required {
			continue
		}
		value, present := args[param.Name]
		if !present {
			return &ValidationError{
				Field:   param.Name,
				Message: fmt.Sprintf("required argument '%s' missing for tool '%s'", param.Name, name),
			}
		}
		if value == nil {
			return &ValidationError{
				Field:   param.Name,
				Message: fmt.Sprintf("argument '%s' cannot be null", param.Name),
			}
		}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return &ValidationError{Field: "(arguments)", Message: err.Error()}
	}
	if !result.Valid() {
		first := result.Errors()[0]
		return &ValidationError{Field: first.Field(), Message: first.Description()}
	}

	return nil
}

// Execute validates arguments, looks up the tool, and invokes it. Any
// error or panic raised by the handler is translated into an
// *ExecutionError naming the tool; ValidationErrors pass through
// untouched so field-level detail survives.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (result map[string]any, err error) {
	if err := r.Validate(name, args); err != nil {
		return nil, err
	}

	r.mu.RLock()
	def := r.tools[name]
	r.mu.RUnlock()

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().Str("tool", name).Interface("panic", rec).Msg("Tool panicked")
			result = nil
			err = &ExecutionError{Tool: name, Err: fmt.Errorf("%v", rec)}
		}
	}()

	result, err = def.Handler(ctx, args)
	if err != nil {
		var validationErr *ValidationError
		var execErr *ExecutionError
		if errors.As(err, &validationErr) || errors.As(err, &execErr) {
			return nil, err
		}
		return nil, &ExecutionError{Tool: name, Err: err}
	}

	return result, nil
}

func validateDefinition(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if def.Description == "" {
		return fmt.Errorf("tool description cannot be empty")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool handler cannot be nil")
	}

	validTypes := map[string]bool{
		"string": true, "number": true, "boolean": true,
		"object": true, "array": true, "integer": true,
	}
	for _, param := range def.Parameters {
		if param.Name == "" {
			return fmt.Errorf("parameter name cannot be empty")
		}
		if !validTypes[param.Type] {
			return fmt.Errorf("invalid parameter type %s for %s", param.Type, param.Name)
		}
	}

	return nil
}

// inputSchema builds the JSON Schema map shared by the wire contract
// and the validator.
func inputSchema(def *Definition) map[string]any {
	properties := make(map[string]any)
	required := []string{}

	for _, param := range def.Parameters {
		paramSchema := map[string]any{
			"type":        param.Type,
			"description": param.Description,
		}
		if param.Items != nil {
			paramSchema["items"] = param.Items
		}
		properties[param.Name] = paramSchema

		if param.Required {
			required = append(required, param.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

func compileSchema(def Definition) (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(inputSchema(&def)))
}
