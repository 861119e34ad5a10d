package scene

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/ports"
	"github.com/tejashwikalptaru/soundscape/internal/render"
)

// Manager owns the live scene and swaps it when the selection changes.
//
// Every call that touches scene nodes holds the manager's mutex, so a frame
// never observes a scene mid-swap or a tunable mid-update. Callers must go
// through ApplyField rather than invoking ConfigField.OnChange themselves.
type Manager struct {
	logger   *slog.Logger
	graph    *render.Graph
	registry []Descriptor

	binCount   int
	themes     []domain.Theme
	themeIndex int

	current      Scene
	currentIndex int

	mu sync.Mutex
}

// NewManager creates a manager with no live scene. Call SetCurrentScene to build one.
func NewManager(logger *slog.Logger, graph *render.Graph, registry []Descriptor, binCount int, themes []domain.Theme, themeIndex int) (*Manager, error) {
	if len(registry) == 0 {
		return nil, domain.ErrEmptyRegistry
	}
	if binCount <= 0 {
		return nil, domain.NewValidationError("binCount", binCount, "frequency bin count must be positive", domain.ErrInvalidFieldValue)
	}
	if err := validateThemes(themes, themeIndex); err != nil {
		return nil, err
	}
	return &Manager{
		logger:       logger.With(slog.String("component", "scene_manager")),
		graph:        graph,
		registry:     slices.Clone(registry),
		binCount:     binCount,
		themes:       slices.Clone(themes),
		themeIndex:   themeIndex,
		currentIndex: -1,
	}, nil
}

// SetCurrentScene destroys the live scene and builds the one at index.
// If the factory fails the manager is left without a live scene.
func (m *Manager) SetCurrentScene(index int) error {
	if index < 0 || index >= len(m.registry) {
		return domain.NewValidationError("sceneIndex", index, "scene index out of range", domain.ErrInvalidIndex)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rebuild(index)
}

func (m *Manager) rebuild(index int) error {
	if m.current != nil {
		m.current.Destroy()
		m.current = nil
		m.currentIndex = -1
	}

	d := m.registry[index]
	s, err := d.Factory(m.binCount, m.themes, m.themeIndex)
	if err != nil {
		m.logger.Error("failed to build scene", slog.String("scene", d.Name), slog.Any("error", err))
		return domain.NewServiceError("SceneManager", "SetCurrentScene", "failed to build "+d.Name, err)
	}
	m.current = s
	m.currentIndex = index
	m.logger.Debug("scene built", slog.String("scene", d.Name), slog.Int("binCount", m.binCount))
	return nil
}

// SetCurrentThemeIndex selects the theme used by scenes built from now on.
func (m *Manager) SetCurrentThemeIndex(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.themes) {
		return domain.NewValidationError("themeIndex", index, "theme index out of range", domain.ErrInvalidIndex)
	}
	m.themeIndex = index
	return nil
}

// ChangeTheme recolors the live scene.
func (m *Manager) ChangeTheme(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return domain.ErrNotInitialized
	}
	return m.current.ChangeTheme(index)
}

// SetThemes replaces the collection for the live scene and for future builds.
func (m *Manager) SetThemes(themes []domain.Theme, index int) error {
	if err := validateThemes(themes, index); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.themes = slices.Clone(themes)
	m.themeIndex = index
	if m.current == nil {
		return nil
	}
	return m.current.SetThemes(themes, index)
}

// SetFrequencyBinCount rebuilds the live scene for a new frame length.
func (m *Manager) SetFrequencyBinCount(n int) error {
	if n <= 0 {
		return domain.NewValidationError("binCount", n, "frequency bin count must be positive", domain.ErrInvalidFieldValue)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if n == m.binCount {
		return nil
	}
	m.binCount = n
	if m.current == nil {
		return nil
	}
	return m.rebuild(m.currentIndex)
}

// FrequencyBinCount returns the bin count scenes are built for.
func (m *Manager) FrequencyBinCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.binCount
}

// Animate passes one frame to the live scene. It is a no-op without one.
func (m *Manager) Animate(frame []uint8, elapsed float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.Animate(frame, elapsed)
	}
}

// Snapshot flattens the graph into dst.
func (m *Manager) Snapshot(dst *render.Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.graph.Snapshot(dst)
}

// Scheme returns the live scene's tunables ordered for display.
func (m *Manager) Scheme() []ConfigField {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	return SortFields(m.current.Scheme())
}

// ApplyField validates value and applies it to the live scene's tunable key.
func (m *Manager) ApplyField(key string, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return domain.ErrNotInitialized
	}
	for _, f := range m.current.Scheme() {
		if f.Key == key {
			return f.Apply(value)
		}
	}
	return domain.NewValidationError("key", key, "unknown field for "+m.current.Name(), domain.ErrInvalidFieldValue)
}

// SceneNames returns the registry names in index order.
func (m *Manager) SceneNames() []string {
	return Names(m.registry)
}

// Descriptors returns a copy of the registry.
func (m *Manager) Descriptors() []Descriptor {
	return slices.Clone(m.registry)
}

// CurrentIndex returns the live scene's registry index, or -1.
func (m *Manager) CurrentIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentIndex
}

// CurrentScene returns the live scene, or nil.
// The returned scene must not be mutated outside the manager.
func (m *Manager) CurrentScene() Scene {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Destroy tears down the live scene.
func (m *Manager) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.Destroy()
		m.current = nil
		m.currentIndex = -1
	}
}

var _ ports.SceneController = (*Manager)(nil)
