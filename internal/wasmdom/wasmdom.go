//go:build js && wasm

package wasmdom

import (
	"context"
	"fmt"
	"strings"

	"honnef.co/go/js/dom/v2"

	"github.com/raysh454/formfetch/internal/dispatch"
	"github.com/raysh454/formfetch/internal/fields"
)

// DefaultMethods are bound when Bind is given none.
var DefaultMethods = []string{"GET", "POST", "PUT", "DELETE"}

// Element is a field backed by the element with a given id. The element is
// looked up on every access.
type Element struct {
	doc dom.Document
	id  string
}

func NewElement(doc dom.Document, id string) *Element {
	return &Element{doc: doc, id: id}
}

func (e *Element) lookup() (dom.Element, error) {
	el := e.doc.GetElementByID(e.id)
	if el == nil {
		return nil, fmt.Errorf("#%s: %w", e.id, fields.ErrElementMissing)
	}
	return el, nil
}

// Value returns the element's value property, or "" for elements without one.
func (e *Element) Value(_ context.Context) (string, error) {
	el, err := e.lookup()
	if err != nil {
		return "", err
	}
	v := el.Underlying().Get("value")
	if v.IsUndefined() || v.IsNull() {
		return "", nil
	}
	return v.String(), nil
}

// SetText replaces the element's innerText.
func (e *Element) SetText(_ context.Context, text string) error {
	el, err := e.lookup()
	if err != nil {
		return err
	}
	el.Underlying().Set("innerText", text)
	return nil
}

// Bind builds bindings for methods from elements named "<m>Url", "<m>Data"
// and "<m>Response", m being the lower-cased method. A method whose URL or
// response element is absent is left unbound.
func Bind(doc dom.Document, methods ...string) dispatch.Bindings {
	if len(methods) == 0 {
		methods = DefaultMethods
	}
	b := dispatch.Bindings{}
	for _, m := range methods {
		prefix := strings.ToLower(strings.TrimSpace(m))
		if prefix == "" {
			continue
		}
		if doc.GetElementByID(prefix+"Url") == nil || doc.GetElementByID(prefix+"Response") == nil {
			continue
		}
		binding := dispatch.Binding{
			URL:      NewElement(doc, prefix+"Url"),
			Response: NewElement(doc, prefix+"Response"),
		}
		if doc.GetElementByID(prefix+"Data") != nil {
			binding.Data = NewElement(doc, prefix+"Data")
		}
		b.Set(m, binding)
	}
	return b
}
