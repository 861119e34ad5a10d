package scene

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/logger"
	"github.com/tejashwikalptaru/soundscape/internal/render"
)

// Helper to create a manager over the built-in registry
func newTestManager(t *testing.T, binCount int) (*Manager, *render.Graph) {
	t.Helper()
	graph := render.NewGraph()
	log := logger.NewTestLogger()
	m, err := NewManager(log, graph, DefaultRegistry(log, graph, newMapStore()), binCount, domain.DefaultThemes(), 0)
	require.NoError(t, err)
	return m, graph
}

func TestNewManager_Validation(t *testing.T) {
	log := logger.NewTestLogger()
	graph := render.NewGraph()
	registry := DefaultRegistry(log, graph, nil)

	_, err := NewManager(log, graph, nil, 8, domain.DefaultThemes(), 0)
	assert.ErrorIs(t, err, domain.ErrEmptyRegistry)

	_, err = NewManager(log, graph, registry, 0, domain.DefaultThemes(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidFieldValue)

	_, err = NewManager(log, graph, registry, 8, domain.DefaultThemes(), 99)
	assert.ErrorIs(t, err, domain.ErrInvalidIndex)
}

func TestManager_SceneNames(t *testing.T) {
	m, _ := newTestManager(t, 8)
	assert.Equal(t, []string{"Chaotic", "Flat Circle", "Spiral"}, m.SceneNames())
	assert.Len(t, m.Descriptors(), 3)
}

func TestManager_SetCurrentScene(t *testing.T) {
	m, graph := newTestManager(t, 8)
	assert.Equal(t, -1, m.CurrentIndex())
	assert.Nil(t, m.CurrentScene())

	require.NoError(t, m.SetCurrentScene(1))
	assert.Equal(t, 1, m.CurrentIndex())
	assert.Equal(t, FlatCircleName, m.CurrentScene().Name())
	assert.Equal(t, 8, graph.MeshCount())
}

func TestManager_SetCurrentSceneOutOfRange(t *testing.T) {
	m, _ := newTestManager(t, 8)
	require.NoError(t, m.SetCurrentScene(0))

	for _, idx := range []int{-1, 3} {
		err := m.SetCurrentScene(idx)
		assert.ErrorIs(t, err, domain.ErrInvalidIndex)
	}
	assert.Equal(t, 0, m.CurrentIndex(), "live scene is kept")
	assert.Equal(t, ChaoticName, m.CurrentScene().Name())
}

func TestManager_SwitchDestroysPrevious(t *testing.T) {
	m, graph := newTestManager(t, 8)
	disposed := 0
	graph.SetDisposeHook(func(*render.Node) { disposed++ })

	require.NoError(t, m.SetCurrentScene(0))
	first := m.CurrentScene()
	require.NoError(t, m.SetCurrentScene(2))

	assert.Equal(t, 8, disposed)
	assert.Equal(t, 8, graph.MeshCount(), "only the new scene is attached")
	assert.Nil(t, first.Root().Parent())
	assert.Equal(t, SpiralName, m.CurrentScene().Name())

	require.NoError(t, m.SetCurrentScene(2))
	assert.Equal(t, 16, disposed, "reselecting rebuilds")
}

func TestManager_FactoryFailureLeavesNoScene(t *testing.T) {
	log := logger.NewTestLogger()
	graph := render.NewGraph()
	boom := errors.New("boom")
	registry := append(DefaultRegistry(log, graph, nil), Descriptor{
		Name: "Broken",
		Factory: func(int, []domain.Theme, int) (Scene, error) {
			return nil, boom
		},
	})
	m, err := NewManager(log, graph, registry, 8, domain.DefaultThemes(), 0)
	require.NoError(t, err)
	require.NoError(t, m.SetCurrentScene(0))

	err = m.SetCurrentScene(3)
	assert.ErrorIs(t, err, boom)
	var svcErr *domain.ServiceError
	assert.ErrorAs(t, err, &svcErr)

	assert.Nil(t, m.CurrentScene())
	assert.Equal(t, -1, m.CurrentIndex())
	assert.Zero(t, graph.MeshCount())
	assert.NotPanics(t, func() { m.Animate([]uint8{1, 2}, 0) })
	assert.ErrorIs(t, m.ChangeTheme(0), domain.ErrNotInitialized)
}

func TestManager_ChangeThemeDoesNotRebuild(t *testing.T) {
	m, graph := newTestManager(t, 8)
	require.NoError(t, m.SetCurrentScene(0))
	disposed := 0
	graph.SetDisposeHook(func(*render.Node) { disposed++ })

	root := m.CurrentScene().Root()
	require.NoError(t, m.ChangeTheme(3))

	assert.Same(t, root, m.CurrentScene().Root())
	assert.Zero(t, disposed)
	assert.Equal(t, domain.DefaultThemes()[3], m.CurrentScene().CurrentTheme())
	assert.ErrorIs(t, m.ChangeTheme(10), domain.ErrInvalidIndex)
}

func TestManager_ThemeIndexAppliesToFutureScenes(t *testing.T) {
	m, _ := newTestManager(t, 8)
	require.NoError(t, m.SetCurrentScene(0))

	require.NoError(t, m.SetCurrentThemeIndex(2))
	assert.Equal(t, domain.DefaultThemes()[0], m.CurrentScene().CurrentTheme(), "live scene untouched")

	require.NoError(t, m.SetCurrentScene(1))
	assert.Equal(t, domain.DefaultThemes()[2], m.CurrentScene().CurrentTheme())

	assert.ErrorIs(t, m.SetCurrentThemeIndex(4), domain.ErrInvalidIndex)
}

func TestManager_SetThemes(t *testing.T) {
	m, _ := newTestManager(t, 8)
	require.NoError(t, m.SetCurrentScene(0))

	custom := []domain.Theme{{Name: "Solo", Color: domain.Hex(0x111111), TransitionColor: domain.Hex(0x222222)}}
	require.NoError(t, m.SetThemes(custom, 0))
	assert.Equal(t, custom[0], m.CurrentScene().CurrentTheme())

	require.NoError(t, m.SetCurrentScene(2))
	assert.Equal(t, custom[0], m.CurrentScene().CurrentTheme())

	assert.ErrorIs(t, m.SetThemes(custom, 1), domain.ErrInvalidIndex)
	assert.ErrorIs(t, m.SetThemes(nil, 0), domain.ErrInvalidTheme)
}

func TestManager_SetFrequencyBinCountRebuilds(t *testing.T) {
	m, graph := newTestManager(t, 8)
	require.NoError(t, m.SetCurrentScene(1))

	require.NoError(t, m.SetFrequencyBinCount(32))
	assert.Equal(t, 32, m.FrequencyBinCount())
	assert.Equal(t, 32, graph.MeshCount())
	assert.Equal(t, 1, m.CurrentIndex())

	assert.ErrorIs(t, m.SetFrequencyBinCount(0), domain.ErrInvalidFieldValue)
	assert.Equal(t, 32, m.FrequencyBinCount())
}

func TestManager_ApplyField(t *testing.T) {
	m, _ := newTestManager(t, 6)
	assert.ErrorIs(t, m.ApplyField("scaleDivisor", 2), domain.ErrNotInitialized)

	require.NoError(t, m.SetCurrentScene(0))
	require.NoError(t, m.ApplyField("scaleDivisor", 2))
	m.Animate([]uint8{10, 50, 195}, 0)

	bars := group(m.CurrentScene(), 0)
	assert.Equal(t, 97.5, bars[2].Scale.Y)

	assert.ErrorIs(t, m.ApplyField("scaleDivisor", 0), domain.ErrInvalidFieldValue)
	assert.ErrorIs(t, m.ApplyField("radius", 10), domain.ErrInvalidFieldValue)
}

func TestManager_SchemeSorted(t *testing.T) {
	m, _ := newTestManager(t, 8)
	assert.Nil(t, m.Scheme())

	require.NoError(t, m.SetCurrentScene(2))
	keys := []string{}
	for _, f := range m.Scheme() {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"boxSize", "rotationSpeed", "reversed"}, keys)
}

func TestManager_SnapshotReflectsAnimation(t *testing.T) {
	m, _ := newTestManager(t, 4)
	require.NoError(t, m.SetCurrentScene(1))

	m.Animate([]uint8{100, 100}, 0)
	var frame render.Frame
	m.Snapshot(&frame)

	require.Len(t, frame.Primitives, 4)
	assert.Equal(t, 100.0, frame.Primitives[0].Size.X)
	assert.Equal(t, domain.DefaultThemes()[0].BackgroundColor, frame.Background)
}

func TestManager_Destroy(t *testing.T) {
	m, graph := newTestManager(t, 8)
	require.NoError(t, m.SetCurrentScene(0))

	m.Destroy()
	m.Destroy()
	assert.Nil(t, m.CurrentScene())
	assert.Zero(t, graph.MeshCount())
}

func TestManager_AnimateDoesNotAllocate(t *testing.T) {
	m, _ := newTestManager(t, 64)
	require.NoError(t, m.SetCurrentScene(2))
	frame := make([]uint8, 64)

	allocs := testing.AllocsPerRun(100, func() {
		m.Animate(frame, 0.5)
	})
	assert.Zero(t, allocs)
}

func TestManager_ConcurrentSwapAndAnimate(t *testing.T) {
	m, _ := newTestManager(t, 16)
	require.NoError(t, m.SetCurrentScene(0))

	frame := make([]uint8, 16)
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		var out render.Frame
		for i := 0; i < 200; i++ {
			m.Animate(frame, float64(i))
			m.Snapshot(&out)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			assert.NoError(t, m.SetCurrentScene(i%3))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_ = m.ChangeTheme(i % 4)
			_ = m.ApplyField("boxSize", 2)
		}
	}()
	wg.Wait()

	assert.NotNil(t, m.CurrentScene())
}
