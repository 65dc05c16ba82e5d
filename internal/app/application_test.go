package app_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/formfetch/internal/app"
	"github.com/raysh454/formfetch/internal/dispatch"
	"github.com/raysh454/formfetch/internal/fields"
	"github.com/raysh454/formfetch/internal/testutil"
)

func testConfig(t *testing.T) *app.Config {
	t.Helper()
	cfg := app.DefaultConfig()
	cfg.StorageRoot = t.TempDir()
	return cfg
}

func TestNewApplication_RejectsBadSettings(t *testing.T) {
	t.Parallel()
	for name, mutate := range map[string]func(*app.Config){
		"variant":  func(c *app.Config) { c.Variant = "xml" },
		"ordering": func(c *app.Config) { c.Ordering = "random" },
		"backend":  func(c *app.Config) { c.WebClient.Client = "curl" },
	} {
		cfg := testConfig(t)
		mutate(cfg)
		_, err := app.NewApplication(cfg, &testutil.DummyLogger{})
		assert.Error(t, err, name)
	}
}

func TestApplication_DispatchRecordsHistory(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "plain")
	}))
	defer ts.Close()

	cfg := testConfig(t)
	cfg.Variant = "text"
	cfg.Timeout = 5 * time.Second
	a, err := app.NewApplication(cfg, &testutil.DummyLogger{})
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.History)
	assert.Equal(t, dispatch.VariantText.Name, a.Variant().Name)

	out := fields.NewText("")
	b := dispatch.Bindings{}
	b.Set("GET", dispatch.Binding{URL: fields.Static(ts.URL), Response: out})

	task, err := a.NewDispatcher(b).Dispatch(context.Background(), "GET")
	require.NoError(t, err)
	res, err := task.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "plain", res.Text)
	assert.Equal(t, "plain", out.String())

	rec, err := a.History.Get(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, "plain", rec.Text)
}

func TestApplication_HistoryDisabled(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.History = false
	a, err := app.NewApplication(cfg, &testutil.DummyLogger{})
	require.NoError(t, err)
	defer a.Close()
	assert.Nil(t, a.History)

	srv, err := a.NewServer()
	require.NoError(t, err)
	assert.NotNil(t, srv.HTTPServer())
}
