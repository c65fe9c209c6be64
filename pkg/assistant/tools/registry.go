// Package tools is the typed catalog of operations the assistant may propose.
//
// Every tool is registered once at startup. The ledger looks tools up by
// name, validates the model's arguments against the tool's Go type and runs
// the handler inside the caller's transaction.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"fleet-assistant-be/internal/apperror"
	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/pkg/llm"

	"github.com/go-playground/validator/v10"
)

// Scope is what a handler may touch: the caller and the store bound to the
// current transaction.
type Scope struct {
	Actor entity.Actor
	Store Store
}

// Handler decodes, validates and runs one tool invocation.
type Handler struct {
	check  func(raw json.RawMessage) error
	invoke func(ctx context.Context, scope Scope, raw json.RawMessage) (any, error)
}

// Validate checks raw against the handler's argument type without running it.
func (h Handler) Validate(raw json.RawMessage) error {
	return h.check(raw)
}

func (h Handler) Invoke(ctx context.Context, scope Scope, raw json.RawMessage) (any, error) {
	return h.invoke(ctx, scope, raw)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their json name so the model can fix its own arguments
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// New builds a Handler for arguments of type A. Unknown fields are rejected
// and A's validate tags are enforced before fn is called.
func New[A any](fn func(ctx context.Context, scope Scope, args A) (any, error)) Handler {
	decode := func(raw json.RawMessage) (A, error) {
		var args A
		if len(bytes.TrimSpace(raw)) == 0 {
			raw = json.RawMessage(`{}`)
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&args); err != nil {
			return args, apperror.InvalidArguments(err, nil)
		}
		if err := validate.Struct(args); err != nil {
			return args, apperror.InvalidArguments(err, validationFields(err))
		}
		return args, nil
	}

	return Handler{
		check: func(raw json.RawMessage) error {
			_, err := decode(raw)
			return err
		},
		invoke: func(ctx context.Context, scope Scope, raw json.RawMessage) (any, error) {
			args, err := decode(raw)
			if err != nil {
				return nil, err
			}
			return fn(ctx, scope, args)
		},
	}
}

func validationFields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			fields[fe.Field()] = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
		} else {
			fields[fe.Field()] = fe.Tag()
		}
	}
	return fields
}

type Definition struct {
	Name                 string
	Description          string
	Capability           entity.Capability
	RequiresConfirmation bool
	// Parameters is the JSON schema shown to the model.
	Parameters map[string]any
	Handler    Handler
	// Writes marks tools whose execution changes business data.
	Writes bool
}

type Registry struct {
	definitions map[string]Definition
	names       []string
}

// NewRegistry panics on a duplicate or unnamed definition; the catalog is
// fixed at startup so this is a programming error.
func NewRegistry(definitions ...Definition) *Registry {
	r := &Registry{definitions: make(map[string]Definition, len(definitions))}
	for _, def := range definitions {
		if def.Name == "" {
			panic("tools: definition without a name")
		}
		if _, dup := r.definitions[def.Name]; dup {
			panic(fmt.Sprintf("tools: duplicate definition %q", def.Name))
		}
		r.definitions[def.Name] = def
		r.names = append(r.names, def.Name)
	}
	sort.Strings(r.names)
	return r
}

func (r *Registry) Lookup(name string) (Definition, bool) {
	def, ok := r.definitions[name]
	return def, ok
}

// Catalog lists definitions sorted by name.
func (r *Registry) Catalog() []Definition {
	out := make([]Definition, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.definitions[name])
	}
	return out
}

// LLMTools is the catalog in the shape providers expect.
func (r *Registry) LLMTools() []llm.Tool {
	out := make([]llm.Tool, 0, len(r.names))
	for _, def := range r.Catalog() {
		out = append(out, llm.Tool{Name: def.Name, Description: def.Description, Parameters: def.Parameters})
	}
	return out
}

// Validate reports ToolNotFound or InvalidArguments without running anything.
func (r *Registry) Validate(name string, args json.RawMessage) error {
	def, ok := r.definitions[name]
	if !ok {
		return apperror.ToolNotFound(name)
	}
	return def.Handler.Validate(args)
}
