package app_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/formfetch/internal/app"
	"github.com/raysh454/formfetch/internal/webclient"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := app.LoadConfig("")
	require.NoError(t, err)
	def := app.DefaultConfig()
	assert.Equal(t, def.Variant, cfg.Variant)
	assert.Equal(t, def.Ordering, cfg.Ordering)
	assert.Equal(t, def.StorageRoot, cfg.StorageRoot)
	assert.Equal(t, def.WebClient, cfg.WebClient)
	assert.Equal(t, def.Server.ListenAddr, cfg.Server.ListenAddr)
	assert.Equal(t, def.Testbed, cfg.Testbed)
	assert.True(t, cfg.History)
	assert.Zero(t, cfg.Timeout)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formfetch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
variant: text
ordering: last-writer
timeout: 2s
webclient:
  backend: chromedp
  headless: false
  idle_after: 250ms
server:
  listen_addr: ":9000"
  allowed_origins: ["http://a.test"]
testbed:
  port: 9999
`), 0o644))

	t.Setenv("FORMFETCH_TIMEOUT", "7s")
	t.Setenv("FORMFETCH_TESTBED_DOCUMENT_ROOT", "/srv/www")

	cfg, err := app.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Variant)
	assert.Equal(t, "last-writer", cfg.Ordering)
	assert.Equal(t, 7*time.Second, cfg.Timeout)
	assert.Equal(t, webclient.ClientChromedp, cfg.WebClient.Client)
	assert.False(t, cfg.WebClient.Headless)
	assert.Equal(t, 250*time.Millisecond, cfg.WebClient.IdleAfter)
	assert.Equal(t, ":9000", cfg.Server.ListenAddr)
	assert.Equal(t, []string{"http://a.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 9999, cfg.Testbed.Port)
	assert.Equal(t, "/srv/www", cfg.Testbed.DocumentRoot)
	assert.Equal(t, "www/uploads", cfg.Testbed.UploadsDir)
	assert.True(t, cfg.History)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := app.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
