package themes

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/soundscape/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/logger"
	"github.com/tejashwikalptaru/soundscape/internal/testutil"
)

const neonYAML = `themes:
  - name: Neon
    color: "#39ff14"
    transition_color: "#ff00ff"
    background_color: "#000000"
  - name: Ultraviolet
    color: "0x2607a6"
    transition_color: "#ffffff"
    background_color: "#000000"
`

type staticState struct {
	st domain.ApplicationState
}

func (s staticState) State() domain.ApplicationState { return s.st }

// collector records intents published by the watcher
type collector struct {
	mu      sync.Mutex
	added   []domain.ThemeAddedEvent
	updated []domain.ThemeUpdatedEvent
}

func (c *collector) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.added), len(c.updated)
}

func newTestWatcher(t *testing.T, path string) (*Watcher, *collector) {
	t.Helper()
	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	c := &collector{}
	bus.Subscribe(domain.EventThemeAdded, func(e domain.Event) {
		c.mu.Lock()
		c.added = append(c.added, e.(domain.ThemeAddedEvent))
		c.mu.Unlock()
	})
	bus.Subscribe(domain.EventThemeUpdated, func(e domain.Event) {
		c.mu.Lock()
		c.updated = append(c.updated, e.(domain.ThemeUpdatedEvent))
		c.mu.Unlock()
	})

	w, err := NewWatcher(log, bus, staticState{domain.ApplicationState{Themes: domain.DefaultThemes()}}, path)
	require.NoError(t, err)
	return w, c
}

func TestParse(t *testing.T) {
	themes, err := Parse([]byte(neonYAML))
	require.NoError(t, err)

	require.Len(t, themes, 2)
	assert.Equal(t, "Neon", themes[0].Name)
	assert.Equal(t, domain.Hex(0x39ff14), themes[0].Color)
	assert.Equal(t, domain.Hex(0x2607a6), themes[1].Color)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "themes: []"},
		{"bad color", "themes:\n  - name: X\n    color: \"#zzzzzz\"\n"},
		{"unknown field", "themes:\n  - name: X\n    colour: \"#ffffff\"\n"},
		{"blank name", "themes:\n  - name: \"\"\n"},
		{"duplicate", "themes:\n  - name: X\n  - name: X\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "themes.yaml")

	require.NoError(t, Save(path, domain.DefaultThemes()))
	got, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultThemes(), got)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	var repoErr *domain.RepositoryError
	assert.ErrorAs(t, err, &repoErr)
}

func TestWatcher_Sync(t *testing.T) {
	path := filepath.Join(t.TempDir(), "themes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(neonYAML), 0o600))
	w, c := newTestWatcher(t, path)
	defer w.Close()

	added, updated, err := w.Sync()
	require.NoError(t, err)

	assert.Equal(t, 1, added)
	assert.Equal(t, 1, updated)
	require.Len(t, c.added, 1)
	assert.Equal(t, "Neon", c.added[0].Theme.Name)
	require.Len(t, c.updated, 1)
	assert.Equal(t, 0, c.updated[0].ThemeIndex, "Ultraviolet is the first default theme")
	assert.Equal(t, domain.Hex(0xffffff), c.updated[0].Theme.TransitionColor)
}

func TestWatcher_SyncUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "themes.yaml")
	require.NoError(t, Save(path, domain.DefaultThemes()))
	w, _ := newTestWatcher(t, path)
	defer w.Close()

	added, updated, err := w.Sync()
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Zero(t, updated)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreWatcherGoroutines()...)

	path := filepath.Join(t.TempDir(), "themes.yaml")
	w, c := newTestWatcher(t, path)
	w.Start()
	w.Start()

	require.NoError(t, os.WriteFile(path, []byte(neonYAML), 0o600))

	require.Eventually(t, func() bool {
		added, _ := c.counts()
		return added > 0
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestNewWatcher_MissingDirectory(t *testing.T) {
	log := logger.NewTestLogger()
	_, err := NewWatcher(log, eventbus.NewSyncEventBus(log), staticState{}, filepath.Join(t.TempDir(), "gone", "themes.yaml"))

	var repoErr *domain.RepositoryError
	assert.ErrorAs(t, err, &repoErr)
}
