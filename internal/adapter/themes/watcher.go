package themes

import (
	"log/slog"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/ports"
)

// Watcher publishes ThemeAdded and ThemeUpdated intents for the contents of a
// theme file, once on Sync and again whenever the file changes.
// Themes removed from the file are left in the application.
type Watcher struct {
	logger *slog.Logger
	bus    ports.EventBus
	state  ports.StateReader
	path   string

	fsw     *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewWatcher creates a watcher for path. The parent directory is watched so
// that editors which replace the file on save are still seen.
func NewWatcher(logger *slog.Logger, bus ports.EventBus, state ports.StateReader, path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, domain.NewRepositoryError("NewWatcher", "themes", "failed to create fsnotify watcher", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, domain.NewRepositoryError("NewWatcher", "themes", "failed to watch "+path, err)
	}
	return &Watcher{
		logger: logger.With(slog.String("adapter", "theme-watcher"), slog.String("path", path)),
		bus:    bus,
		state:  state,
		path:   filepath.Clean(path),
		fsw:    fsw,
		done:   make(chan struct{}),
	}, nil
}

// Sync loads the file and publishes intents for every new or changed theme.
// It returns how many intents of each kind were published.
func (w *Watcher) Sync() (added, updated int, err error) {
	loaded, err := Load(w.path)
	if err != nil {
		return 0, 0, err
	}

	current := w.state.State().Themes
	for _, t := range loaded {
		idx := slices.IndexFunc(current, func(c domain.Theme) bool { return c.Name == t.Name })
		switch {
		case idx < 0:
			w.bus.Publish(domain.NewThemeAddedEvent(t))
			added++
		case current[idx] != t:
			w.bus.Publish(domain.NewThemeUpdatedEvent(idx, t))
			updated++
		}
	}
	if added+updated > 0 {
		w.logger.Info("themes synced", slog.Int("added", added), slog.Int("updated", updated))
	}
	return added, updated, nil
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.wg.Add(1)
	go w.loop()
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || !(event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create)) {
				continue
			}
			if _, _, err := w.Sync(); err != nil {
				// A half-written file fails to parse; the next write retries
				w.logger.Warn("theme file not applied", slog.Any("error", err))
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", slog.Any("error", err))
		case <-w.done:
			return
		}
	}
}

// Close stops watching and waits for the loop to exit.
func (w *Watcher) Close() error {
	w.mu.Lock()
	select {
	case <-w.done:
		w.mu.Unlock()
		return nil
	default:
		close(w.done)
	}
	w.mu.Unlock()

	w.wg.Wait()
	return w.fsw.Close()
}
