package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreDefaultsWithoutFile(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	cfg := store.Get()
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 2.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 50, cfg.Scrape.PageMaxSize)
	assert.Equal(t, time.Hour, cfg.Scheduler.Interval())
}

func TestLoadMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
[upstream]
base_url = "https://registrar.example.edu"
username = "svc"
password = "hunter2"

[rate_limit]
requests_per_second = 0.5

[scheduler]
terms = ["202610", "202620"]
interval_minutes = 15
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewStore(dir)
	require.NoError(t, err)

	cfg := store.Get()
	assert.Equal(t, "https://registrar.example.edu", cfg.Upstream.BaseURL)
	assert.Equal(t, 0.5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, []string{"202610", "202620"}, cfg.Scheduler.Terms)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.Interval())

	// Sections absent from the file keep their defaults.
	assert.Equal(t, 3, cfg.Scrape.PageRetries)
	assert.Equal(t, 30*time.Second, cfg.Upstream.Timeout())
}

func TestSetRoundTrips(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	cfg := store.Get()
	cfg.Upstream.BaseURL = "https://registrar.example.edu"
	cfg.Scheduler.Terms = []string{"202610"}
	require.NoError(t, store.Set(cfg))

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, reopened.Get())

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not = [valid"), 0600))

	_, err := NewStore(dir)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.Error(t, cfg.Validate(), "base URL is mandatory")

	cfg.Upstream.BaseURL = "https://registrar.example.edu"
	require.NoError(t, cfg.Validate())

	cfg.RateLimit.RequestsPerSecond = -1
	require.Error(t, cfg.Validate())
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	var mu sync.Mutex
	var got []Config
	watcher := NewWatcher(store, func(cfg Config) {
		mu.Lock()
		got = append(got, cfg)
		mu.Unlock()
	})
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	content := `
[rate_limit]
requests_per_second = 9.0
`
	require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0600))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0
	}, 3*time.Second, 20*time.Millisecond)

	mu.Lock()
	assert.Equal(t, 9.0, got[0].RateLimit.RequestsPerSecond)
	mu.Unlock()
	assert.Equal(t, 9.0, store.Get().RateLimit.RequestsPerSecond)
}

func TestWatcherKeepsSettingsOnBrokenReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	watcher := NewWatcher(store)
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	require.NoError(t, os.WriteFile(store.Path(), []byte("not = [valid"), 0600))
	time.Sleep(300 * time.Millisecond)

	// The previous snapshot survives a bad write.
	assert.Equal(t, Default(), store.Get())

	watcher.Stop()
	watcher.Stop() // second stop is a no-op
}
