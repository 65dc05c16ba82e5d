//go:build js && wasm

package wasmdom_test

import (
	"context"
	"errors"
	"syscall/js"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"honnef.co/go/js/dom/v2"

	"github.com/raysh454/formfetch/internal/fields"
	"github.com/raysh454/formfetch/internal/wasmdom"
)

// Run in a browser, e.g. with wasmbrowsertest as the go_js_wasm_exec runner.

func document(t *testing.T) dom.HTMLDocument {
	t.Helper()
	if js.Global().Get("document").IsUndefined() {
		t.Skip("no DOM in this wasm host")
	}
	return dom.GetWindow().Document().(dom.HTMLDocument)
}

func addElement(t *testing.T, doc dom.HTMLDocument, tag, id, value string) dom.Element {
	t.Helper()
	el := doc.CreateElement(tag)
	el.SetID(id)
	if value != "" {
		el.Underlying().Set("value", value)
	}
	doc.Body().AppendChild(el)
	t.Cleanup(func() { doc.Body().RemoveChild(el) })
	return el
}

func TestElement_ValueAndSetText(t *testing.T) {
	doc := document(t)
	addElement(t, doc, "input", "ffUrl", "http://x/")
	out := addElement(t, doc, "pre", "ffResponse", "")

	v, err := wasmdom.NewElement(doc, "ffUrl").Value(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://x/", v)

	v, err = wasmdom.NewElement(doc, "ffResponse").Value(context.Background())
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, wasmdom.NewElement(doc, "ffResponse").SetText(context.Background(), "done"))
	assert.Equal(t, "done", out.Underlying().Get("innerText").String())
}

func TestElement_MissingElement(t *testing.T) {
	doc := document(t)
	_, err := wasmdom.NewElement(doc, "nope").Value(context.Background())
	assert.True(t, errors.Is(err, fields.ErrElementMissing), "%v", err)
	err = wasmdom.NewElement(doc, "nope").SetText(context.Background(), "x")
	assert.True(t, errors.Is(err, fields.ErrElementMissing), "%v", err)
}

func TestBind_SkipsIncompleteTriples(t *testing.T) {
	doc := document(t)
	addElement(t, doc, "input", "getUrl", "/a")
	addElement(t, doc, "pre", "getResponse", "")
	addElement(t, doc, "input", "postUrl", "/b")
	addElement(t, doc, "textarea", "postData", "{}")
	addElement(t, doc, "pre", "postResponse", "")
	addElement(t, doc, "input", "putUrl", "/c")

	b := wasmdom.Bind(doc)
	assert.ElementsMatch(t, []string{"GET", "POST"}, b.Methods())

	get, err := b.Lookup("GET")
	require.NoError(t, err)
	assert.Nil(t, get.Data)
	post, err := b.Lookup("post")
	require.NoError(t, err)
	assert.NotNil(t, post.Data)
}
