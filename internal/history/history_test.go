package history_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/formfetch/internal/dispatch"
	"github.com/raysh454/formfetch/internal/fields"
	"github.com/raysh454/formfetch/internal/history"
	"github.com/raysh454/formfetch/internal/logging"
	"github.com/raysh454/formfetch/internal/testutil"
	"github.com/raysh454/formfetch/internal/webclient"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	s, err := history.Open(filepath.Join(t.TempDir(), "history.db"), logging.NewWriterLogger("history_test", io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// ─── Store ─────────────────────────────────────────────────────────────

func TestStore_SaveGetRoundTrip(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	ctx := context.Background()

	started := time.Unix(1700000000, 123)
	rec := history.Record{
		ID:          "r1",
		Method:      "POST",
		Target:      "postResponse",
		URL:         "http://x/echo",
		RequestBody: `{"a":1}`,
		StatusCode:  201,
		Text:        "{\n \"ok\": true\n}",
		Written:     true,
		StartedAt:   started,
		EndedAt:     started.Add(time.Second),
	}
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, rec.Method, got.Method)
	assert.Equal(t, rec.RequestBody, got.RequestBody)
	assert.Equal(t, rec.Text, got.Text)
	assert.Equal(t, 201, got.StatusCode)
	assert.True(t, got.Written)
	assert.False(t, got.Stale)
	assert.True(t, rec.StartedAt.Equal(got.StartedAt))
	assert.True(t, rec.EndedAt.Equal(got.EndedAt))
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, history.ErrNotFound)
}

func TestStore_SaveRequiresID(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	assert.Error(t, s.Save(context.Background(), history.Record{Method: "GET"}))
}

func TestStore_ListNewestFirstWithLimit(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	ctx := context.Background()
	base := time.Now()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Save(ctx, history.Record{
			ID: id, Method: "GET", Target: "getResponse",
			StartedAt: base, EndedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})

	two, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestStore_ListEmpty(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	out, err := s.List(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

// ─── Diff ──────────────────────────────────────────────────────────────

func TestStore_Diff(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, s.Save(ctx, history.Record{ID: "base", Method: "GET", Target: "t", Text: "{\n \"n\": 1\n}", StartedAt: now, EndedAt: now}))
	require.NoError(t, s.Save(ctx, history.Record{ID: "head", Method: "GET", Target: "t", Text: "{\n \"n\": 2\n}", StartedAt: now, EndedAt: now}))

	d, err := s.Diff(ctx, "base", "head")
	require.NoError(t, err)
	assert.Equal(t, "base", d.BaseID)
	assert.Equal(t, "head", d.HeadID)
	assert.False(t, d.Equal)
	assert.Equal(t, []history.Chunk{{Type: "removed", Content: "1"}, {Type: "added", Content: "2"}}, d.Chunks)
	assert.NotEmpty(t, d.Patch)

	_, err = s.Diff(ctx, "base", "missing")
	assert.ErrorIs(t, err, history.ErrNotFound)
}

func TestDiffText_Equal(t *testing.T) {
	t.Parallel()
	d := history.DiffText("same", "same")
	assert.True(t, d.Equal)
	assert.Empty(t, d.Chunks)
	assert.Empty(t, d.Patch)
}

// ─── Observer ──────────────────────────────────────────────────────────

func TestStore_ObserverRecordsDispatches(t *testing.T) {
	t.Parallel()
	s := openStore(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = io.WriteString(w, `{"tea":true}`)
	}))
	defer ts.Close()

	client, err := webclient.NewNetHTTPClient(webclient.DefaultConfig(), &testutil.DummyLogger{}, nil)
	require.NoError(t, err)
	defer client.Close()

	sink := fields.NewText("")
	bindings := dispatch.Bindings{}
	bindings.Set("POST", dispatch.Binding{
		URL:      fields.Static(ts.URL),
		Data:     fields.Static(`{"cup": 1}`),
		Response: sink,
	})
	failing := testutil.FailingField{}
	bindings.Set("GET", dispatch.Binding{URL: failing, Response: fields.NewText("")})

	d := dispatch.New(client, bindings, &testutil.DummyLogger{}, dispatch.WithObserver(s.Observer()))
	ctx := context.Background()

	ok, err := d.Dispatch(ctx, "post")
	require.NoError(t, err)
	bad, err := d.Dispatch(ctx, "GET")
	require.NoError(t, err)
	d.Wait()

	rec, err := s.Get(ctx, ok.ID)
	require.NoError(t, err)
	assert.Equal(t, "POST", rec.Method)
	assert.Equal(t, "postResponse", rec.Target)
	assert.Equal(t, ts.URL, rec.URL)
	assert.Equal(t, `{"cup":1}`, rec.RequestBody)
	assert.Equal(t, http.StatusTeapot, rec.StatusCode)
	assert.Equal(t, "{\n \"tea\": true\n}", rec.Text)
	assert.True(t, rec.Written)
	assert.Empty(t, rec.Error)

	rec, err = s.Get(ctx, bad.ID)
	require.NoError(t, err)
	assert.Contains(t, rec.Error, "read url field")
	assert.Equal(t, "Error: "+rec.Error, rec.Text)
	assert.Zero(t, rec.StatusCode)
}
