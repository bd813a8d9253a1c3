package toolkit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(zerolog.New(os.Stdout).Level(zerolog.Disabled))
}

func echoTool() Definition {
	return Definition{
		Name:        "echo",
		Description: "Echoes its input",
		Parameters: []Parameter{
			{Name: "text", Type: "string", Description: "Text to echo", Required: true},
			{Name: "repeat", Type: "integer", Description: "Repeat count"},
		},
		Handler: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return map[string]any{"text": args["text"]}, nil
		},
	}
}

func TestRegister(t *testing.T) {
	t.Run("should register a valid tool", func(t *testing.T) {
		reg := newTestRegistry(t)
		require.NoError(t, reg.Register(echoTool()))
		assert.NotNil(t, reg.Get("echo"))
		assert.Equal(t, []string{"echo"}, reg.Names())
	})

	t.Run("should reject duplicate names", func(t *testing.T) {
		reg := newTestRegistry(t)
		require.NoError(t, reg.Register(echoTool()))
		err := reg.Register(echoTool())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "already registered")
	})

	t.Run("should reject a nil handler", func(t *testing.T) {
		reg := newTestRegistry(t)
		def := echoTool()
		def.Handler = nil
		assert.Error(t, reg.Register(def))
	})

	t.Run("should reject an invalid parameter type", func(t *testing.T) {
		reg := newTestRegistry(t)
		def := echoTool()
		def.Parameters[0].Type = "text"
		assert.Error(t, reg.Register(def))
	})
}

func TestSchemas(t *testing.T) {
	t.Run("should render wire schemas in registration order", func(t *testing.T) {
		reg := newTestRegistry(t)
		require.NoError(t, reg.Register(echoTool()))

		second := echoTool()
		second.Name = "echo2"
		require.NoError(t, reg.Register(second))

		schemas := reg.Schemas()
		require.Len(t, schemas, 2)
		assert.Equal(t, "echo", schemas[0].Name)
		assert.Equal(t, "echo2", schemas[1].Name)

		props := schemas[0].InputSchema["properties"].(map[string]any)
		assert.Contains(t, props, "text")
		assert.Equal(t, []string{"text"}, schemas[0].InputSchema["required"])
	})

	t.Run("should include items for array parameters", func(t *testing.T) {
		reg := newTestRegistry(t)
		def := Definition{
			Name:        "sum",
			Description: "Sums numbers",
			Parameters: []Parameter{
				{Name: "values", Type: "array", Description: "Numbers", Required: true, Items: map[string]any{"type": "number"}},
			},
			Handler: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				return nil, nil
			},
		}
		require.NoError(t, reg.Register(def))

		props := reg.Schemas()[0].InputSchema["properties"].(map[string]any)
		values := props["values"].(map[string]any)
		assert.Equal(t, map[string]any{"type": "number"}, values["items"])
	})
}

func TestValidate(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.Register(echoTool()))

	t.Run("should accept valid arguments", func(t *testing.T) {
		assert.NoError(t, reg.Validate("echo", map[string]any{"text": "hi"}))
	})

	t.Run("should fail with field-level error when required argument missing", func(t *testing.T) {
		err := reg.Validate("echo", map[string]any{})

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "text", validationErr.Field)
	})

	t.Run("should fail when required argument is null", func(t *testing.T) {
		err := reg.Validate("echo", map[string]any{"text": nil})

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "text", validationErr.Field)
		assert.Contains(t, validationErr.Message, "null")
	})

	t.Run("should fail on wrong argument type", func(t *testing.T) {
		err := reg.Validate("echo", map[string]any{"text": "hi", "repeat": "three"})

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("should fail with execution error for unknown tool", func(t *testing.T) {
		err := reg.Validate("nope", map[string]any{})

		var execErr *ExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.Equal(t, "nope", execErr.Tool)
	})
}

func TestExecute(t *testing.T) {
	t.Run("should execute a registered tool", func(t *testing.T) {
		reg := newTestRegistry(t)
		require.NoError(t, reg.Register(echoTool()))

		result, err := reg.Execute(context.Background(), "echo", map[string]any{"text": "hi"})
		require.NoError(t, err)
		assert.Equal(t, "hi", result["text"])
	})

	t.Run("should translate handler errors preserving the message", func(t *testing.T) {
		reg := newTestRegistry(t)
		def := echoTool()
		def.Handler = func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return nil, fmt.Errorf("disk on fire")
		}
		require.NoError(t, reg.Register(def))

		_, err := reg.Execute(context.Background(), "echo", map[string]any{"text": "hi"})

		var execErr *ExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.Equal(t, "echo", execErr.Tool)
		assert.Contains(t, execErr.Error(), "disk on fire")
	})

	t.Run("should pass validation errors from handlers through", func(t *testing.T) {
		reg := newTestRegistry(t)
		def := echoTool()
		def.Handler = func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return nil, &ValidationError{Field: "text", Message: "too long"}
		}
		require.NoError(t, reg.Register(def))

		_, err := reg.Execute(context.Background(), "echo", map[string]any{"text": "hi"})

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "text", validationErr.Field)
	})

	t.Run("should recover from a panicking handler", func(t *testing.T) {
		reg := newTestRegistry(t)
		def := echoTool()
		def.Handler = func(ctx context.Context, args map[string]any) (map[string]any, error) {
			panic("boom")
		}
		require.NoError(t, reg.Register(def))

		result, err := reg.Execute(context.Background(), "echo", map[string]any{"text": "hi"})
		assert.Nil(t, result)

		var execErr *ExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.Contains(t, execErr.Error(), "boom")
	})

	t.Run("should fail for unknown tool", func(t *testing.T) {
		reg := newTestRegistry(t)

		_, err := reg.Execute(context.Background(), "ghost", map[string]any{})

		var execErr *ExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.False(t, errors.Is(err, context.Canceled))
	})
}
