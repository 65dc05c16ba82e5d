package dispatch_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/formfetch/internal/dispatch"
	"github.com/raysh454/formfetch/internal/webclient"
)

func TestBuildRequest_BodyBearingMethods(t *testing.T) {
	t.Parallel()
	cases := []struct {
		variant  dispatch.Variant
		method   string
		wantBody bool
	}{
		{dispatch.VariantJSON, "POST", true},
		{dispatch.VariantJSON, "PUT", true},
		{dispatch.VariantJSON, "GET", false},
		{dispatch.VariantJSON, "DELETE", false},
		{dispatch.VariantText, "POST", true},
		{dispatch.VariantText, "PUT", false},
		{dispatch.VariantText, "GET", false},
		{dispatch.VariantText, "DELETE", false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.variant.Name+"/"+tc.method, func(t *testing.T) {
			t.Parallel()
			req, err := dispatch.BuildRequest(tc.variant, tc.method, "http://x/", `{"a": 1}`)
			require.NoError(t, err)
			assert.Equal(t, tc.method, req.Method)
			assert.Equal(t, "http://x/", req.URL)
			if tc.wantBody {
				assert.Equal(t, `{"a":1}`, string(req.Body))
				assert.Equal(t, "application/json", req.Headers.Get("Content-Type"))
			} else {
				assert.Empty(t, req.Body)
				assert.Nil(t, req.Headers)
			}
		})
	}
}

func TestBuildRequest_NoDataNeverAttachesBody(t *testing.T) {
	t.Parallel()
	for _, v := range []dispatch.Variant{dispatch.VariantJSON, dispatch.VariantText} {
		for _, m := range []string{"GET", "POST", "PUT", "DELETE", "PATCH"} {
			req, err := dispatch.BuildRequest(v, m, "http://x/", "")
			require.NoError(t, err)
			assert.Empty(t, req.Body, "%s/%s", v.Name, m)
			assert.Nil(t, req.Headers, "%s/%s", v.Name, m)
		}
	}
}

func TestBuildRequest_ReserializationKeepsKeyOrder(t *testing.T) {
	t.Parallel()
	req, err := dispatch.BuildRequest(dispatch.VariantJSON, "POST", "http://x/",
		"{\n  \"z\": [1, 2, {\"b\": null}],\n  \"a\": \"x y\"\n}\n")
	require.NoError(t, err)
	assert.Equal(t, `{"z":[1,2,{"b":null}],"a":"x y"}`, string(req.Body))
}

func TestBuildRequest_CanonicalizesScalarsAndDuplicates(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		`{"a":1.0,"b":"\u00e9","a2":1e2}`:    `{"a":1,"b":"é","a2":100}`,
		`{"a":1,"b":2,"a":3}`:                `{"a":3,"b":2}`,
		`[-0, 0.10, 1E-7, 1e21, 1e400]`:      `[0,0.1,1e-7,1e+21,null]`,
		`{"b":1,"2":2,"1":3,"01":4}`:         `{"1":3,"2":2,"b":1,"01":4}`,
		`"tab\there \/ \u0041"`:              `"tab\there / A"`,
		`12345678901234567890`:               `12345678901234567000`,
		`{"nested":{"x":[true,false,null]}}`: `{"nested":{"x":[true,false,null]}}`,
	}
	for data, want := range cases {
		req, err := dispatch.BuildRequest(dispatch.VariantJSON, "POST", "http://x/", data)
		require.NoError(t, err, data)
		assert.Equal(t, want, string(req.Body), data)
	}
}

func TestBuildRequest_InvalidJSON(t *testing.T) {
	t.Parallel()
	for _, data := range []string{"{", "not json", `{"a":1} trailing`, `{"a":1} 2`, "   ", `{"a":}`} {
		_, err := dispatch.BuildRequest(dispatch.VariantJSON, "POST", "http://x/", data)
		require.Error(t, err, "data %q", data)
		assert.True(t, errors.Is(err, dispatch.ErrInvalidJSON), "data %q: %v", data, err)
	}
}

func TestBuildRequest_InvalidJSONIgnoredWithoutBody(t *testing.T) {
	t.Parallel()
	req, err := dispatch.BuildRequest(dispatch.VariantText, "PUT", "http://x/", "not json")
	require.NoError(t, err)
	assert.Empty(t, req.Body)
}

func TestRender_JSONPrettyPrintsWithSingleSpace(t *testing.T) {
	t.Parallel()
	text, err := dispatch.Render(dispatch.VariantJSON, &webclient.Response{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"ok":true,"items":[1,{"n":"x"}],"empty":{}}` + "\n"),
	})
	require.NoError(t, err)
	want := "{\n \"ok\": true,\n \"items\": [\n  1,\n  {\n   \"n\": \"x\"\n  }\n ],\n \"empty\": {}\n}"
	assert.Equal(t, want, text)
}

func TestRender_JSONCanonicalizes(t *testing.T) {
	t.Parallel()
	text, err := dispatch.Render(dispatch.VariantJSON, &webclient.Response{
		Body: []byte(`{"n":1E2,"s":"\u0041","n":2.50,"list":[]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "{\n \"n\": 2.5,\n \"s\": \"A\",\n \"list\": []\n}", text)
}

func TestRender_JSONScalarBody(t *testing.T) {
	t.Parallel()
	text, err := dispatch.Render(dispatch.VariantJSON, &webclient.Response{Body: []byte(" 1.50e1 ")})
	require.NoError(t, err)
	assert.Equal(t, "15", text)
}

func TestRender_JSONRejectsNonJSON(t *testing.T) {
	t.Parallel()
	for _, body := range []string{"", "<html></html>", "{\"a\":"} {
		_, err := dispatch.Render(dispatch.VariantJSON, &webclient.Response{Body: []byte(body)})
		assert.Error(t, err, "body %q", body)
	}
}

func TestRender_TextIsVerbatim(t *testing.T) {
	t.Parallel()
	body := "  <h1>404 Not Found</h1>\r\n"
	text, err := dispatch.Render(dispatch.VariantText, &webclient.Response{StatusCode: 404, Body: []byte(body)})
	require.NoError(t, err)
	assert.Equal(t, body, text)
}

func TestRenderError(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Error: boom", dispatch.RenderError(errors.New("boom")))
}

func TestParseVariant(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]string{"": "json", "JSON": "json", "a": "json", "text": "text", "B": "text"} {
		v, err := dispatch.ParseVariant(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, v.Name, in)
	}
	_, err := dispatch.ParseVariant("xml")
	assert.ErrorIs(t, err, dispatch.ErrUnknownVariant)
}

func TestParseOrdering(t *testing.T) {
	t.Parallel()
	o, err := dispatch.ParseOrdering("last-writer")
	require.NoError(t, err)
	assert.Equal(t, dispatch.OrderLastWriter, o)
	assert.Equal(t, "last-writer", o.String())

	o, err = dispatch.ParseOrdering("")
	require.NoError(t, err)
	assert.Equal(t, dispatch.OrderLatestInvocation, o)

	_, err = dispatch.ParseOrdering("random")
	assert.Error(t, err)
}

func TestBindings_Lookup(t *testing.T) {
	t.Parallel()
	b := dispatch.Bindings{}
	b.Set("post", dispatch.Binding{URL: staticURL("http://x/"), Response: newSink()})
	b["PUT"] = dispatch.Binding{Response: newSink()}
	b["DELETE"] = dispatch.Binding{URL: staticURL("http://x/")}

	got, err := b.Lookup("Post")
	require.NoError(t, err)
	assert.Equal(t, "postResponse", got.Target)

	for _, m := range []string{"GET", "PUT", "DELETE", ""} {
		_, err := b.Lookup(m)
		assert.ErrorIs(t, err, dispatch.ErrConfigurationMissing, m)
	}
	assert.Equal(t, []string{"DELETE", "POST", "PUT"}, b.Methods())
}
