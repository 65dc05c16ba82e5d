package webclient_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/raysh454/formfetch/internal/logging"
	"github.com/raysh454/formfetch/internal/webclient"
)

// noopLogger discards everything.
type noopLogger struct{}

func (n *noopLogger) Debug(msg string, fields ...logging.Field) {}
func (n *noopLogger) Info(msg string, fields ...logging.Field)  {}
func (n *noopLogger) Warn(msg string, fields ...logging.Field)  {}
func (n *noopLogger) Error(msg string, fields ...logging.Field) {}
func (n *noopLogger) With(fields ...logging.Field) logging.Logger {
	return n
}

func newNetHTTP(t *testing.T, hc *http.Client) *webclient.NetHTTPClient {
	t.Helper()
	client, err := webclient.NewNetHTTPClient(webclient.Config{}, &noopLogger{}, hc)
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// ─── Do ────────────────────────────────────────────────────────────────

func TestNetHTTPClient_Do_GET_ReturnsBodyAndHeaders(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Custom", "hello")
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer ts.Close()

	client := newNetHTTP(t, ts.Client())
	resp, err := client.Do(context.Background(), &webclient.Request{Method: "GET", URL: ts.URL})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if string(resp.Body) != `{"ok":true}` {
		t.Errorf("unexpected body %q", resp.Body)
	}
	if resp.Headers.Get("X-Custom") != "hello" {
		t.Errorf("expected X-Custom hello, got %q", resp.Headers.Get("X-Custom"))
	}
	if resp.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}

func TestNetHTTPClient_Do_POST_SendsBodyAndHeaders(t *testing.T) {
	t.Parallel()
	var gotMethod, gotBody, gotType string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	client := newNetHTTP(t, ts.Client())
	resp, err := client.Do(context.Background(), &webclient.Request{
		Method:  "post",
		URL:     ts.URL,
		Headers: http.Header{"Content-Type": {"application/json"}},
		Body:    []byte(`{"a":1}`),
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotMethod != "POST" {
		t.Errorf("expected upper-cased POST, got %s", gotMethod)
	}
	if gotBody != `{"a":1}` {
		t.Errorf("unexpected body %q", gotBody)
	}
	if gotType != "application/json" {
		t.Errorf("unexpected content type %q", gotType)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("expected 201, got %d", resp.StatusCode)
	}
}

func TestNetHTTPClient_Do_NonSuccessStatusIsNotAnError(t *testing.T) {
	t.Parallel()
	for _, code := range []int{http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusInternalServerError} {
		code := code
		t.Run(http.StatusText(code), func(t *testing.T) {
			t.Parallel()
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(code)
				_, _ = io.WriteString(w, "nope")
			}))
			defer ts.Close()

			client := newNetHTTP(t, ts.Client())
			resp, err := client.Do(context.Background(), &webclient.Request{Method: "GET", URL: ts.URL})
			if err != nil {
				t.Fatalf("Do: %v", err)
			}
			if resp.StatusCode != code || string(resp.Body) != "nope" {
				t.Errorf("expected %d/nope, got %d/%q", code, resp.StatusCode, resp.Body)
			}
		})
	}
}

func TestNetHTTPClient_Do_NilRequest(t *testing.T) {
	t.Parallel()
	client := newNetHTTP(t, nil)
	if _, err := client.Do(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil request")
	}
}

func TestNetHTTPClient_Do_ConnectionRefused(t *testing.T) {
	t.Parallel()
	client := newNetHTTP(t, &http.Client{Timeout: time.Second})
	_, err := client.Do(context.Background(), &webclient.Request{Method: "GET", URL: "http://127.0.0.1:1"})
	if err == nil {
		t.Fatal("expected error for connection refused")
	}
}

func TestNetHTTPClient_Do_ContextCanceled(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	client := newNetHTTP(t, ts.Client())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Do(ctx, &webclient.Request{Method: "GET", URL: ts.URL}); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestNetHTTPClient_DefaultClientKeepsCookies(t *testing.T) {
	t.Parallel()
	var seen string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err == nil {
			seen = c.Value
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
	}))
	defer ts.Close()

	client := newNetHTTP(t, nil)
	for i := 0; i < 2; i++ {
		if _, err := client.Do(context.Background(), &webclient.Request{Method: "GET", URL: ts.URL}); err != nil {
			t.Fatalf("Get #%d: %v", i, err)
		}
	}
	if seen != "abc" {
		t.Errorf("expected cookie to be replayed, got %q", seen)
	}
}

func TestNetHTTPClient_Do_BodyCap(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "0123456789")
	}))
	defer ts.Close()

	for limit, wantErr := range map[int64]bool{0: false, 10: false, 9: true} {
		client, err := webclient.NewNetHTTPClient(webclient.Config{MaxBodyBytes: limit}, &noopLogger{}, ts.Client())
		if err != nil {
			t.Fatalf("NewNetHTTPClient: %v", err)
		}
		resp, err := client.Do(context.Background(), &webclient.Request{Method: "GET", URL: ts.URL})
		if wantErr {
			if !errors.Is(err, webclient.ErrBodyTooLarge) {
				t.Errorf("limit %d: expected ErrBodyTooLarge, got %v", limit, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("limit %d: Do: %v", limit, err)
		}
		if string(resp.Body) != "0123456789" {
			t.Errorf("limit %d: unexpected body %q", limit, resp.Body)
		}
	}
}

func TestResponse_MediaType(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"application/JSON; charset=utf-8": "application/json",
		"text/html":                       "text/html",
		"":                                "",
		";;":                              "",
	}
	for ct, want := range cases {
		resp := &webclient.Response{Headers: http.Header{"Content-Type": {ct}}}
		if got := resp.MediaType(); got != want {
			t.Errorf("MediaType(%q) = %q, want %q", ct, got, want)
		}
	}
	var nilResp *webclient.Response
	if nilResp.MediaType() != "" {
		t.Error("nil response should have no media type")
	}
}
