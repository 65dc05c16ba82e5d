package dispatch

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/raysh454/formfetch/internal/fields"
)

// ErrConfigurationMissing is returned when a method has no binding or its
// binding lacks a required field.
var ErrConfigurationMissing = errors.New("configuration missing")

// Binding is the field triple for one method. URL and Response are
// required, Data is optional.
type Binding struct {
	URL      fields.Source
	Data     fields.Source
	Response fields.Sink

	// Target keys write ordering. Bindings sharing a Response sink should
	// share a Target. Defaults to TargetName(method).
	Target string
}

// Bindings maps an upper-cased method to its Binding.
type Bindings map[string]Binding

// TargetName is the conventional name of a method's output field,
// e.g. "postResponse".
func TargetName(method string) string {
	return strings.ToLower(method) + "Response"
}

func normalizeMethod(method string) string {
	return strings.ToUpper(strings.TrimSpace(method))
}

// Set binds method, filling in the default Target.
func (b Bindings) Set(method string, binding Binding) {
	method = normalizeMethod(method)
	if binding.Target == "" {
		binding.Target = TargetName(method)
	}
	b[method] = binding
}

// Lookup resolves and validates the binding for method.
func (b Bindings) Lookup(method string) (Binding, error) {
	method = normalizeMethod(method)
	if method == "" {
		return Binding{}, fmt.Errorf("%w: empty method", ErrConfigurationMissing)
	}
	binding, ok := b[method]
	if !ok {
		return Binding{}, fmt.Errorf("%w: no binding for method %s", ErrConfigurationMissing, method)
	}
	return binding.validate(method)
}

func (b Binding) validate(method string) (Binding, error) {
	if b.URL == nil {
		return Binding{}, fmt.Errorf("%w: %s has no url field", ErrConfigurationMissing, method)
	}
	if b.Response == nil {
		return Binding{}, fmt.Errorf("%w: %s has no response field", ErrConfigurationMissing, method)
	}
	if b.Target == "" {
		b.Target = TargetName(method)
	}
	return b, nil
}

// Methods returns the bound methods, sorted.
func (b Bindings) Methods() []string {
	out := make([]string, 0, len(b))
	for m := range b {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
