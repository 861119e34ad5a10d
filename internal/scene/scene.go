// Package scene contains the audio-reactive scene variants and the manager
// that owns the live one.
//
// A scene builds its primitives under a detached root group and attaches the
// root to the graph only once construction has finished. Animate mutates the
// primitives in place and never allocates.
package scene

import (
	"math"
	"slices"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/render"
)

// numberOfGroups is the number of mirrored primitive groups every variant uses.
const numberOfGroups = 2

// Scene is an audio-reactive arrangement of primitives.
type Scene interface {
	Name() string

	// Animate applies one frequency frame. elapsed is the driver's monotonic
	// clock in seconds.
	Animate(frame []uint8, elapsed float64)

	// ChangeTheme recolors the live primitives. Geometry is not rebuilt.
	ChangeTheme(index int) error

	// SetThemes replaces the theme collection and selects index.
	SetThemes(themes []domain.Theme, index int) error

	CurrentTheme() domain.Theme

	// Destroy releases every geometry and material. Calling it twice is a no-op.
	Destroy()

	// Scheme describes the scene's tunables.
	Scheme() []ConfigField

	Root() *render.Node
}

// Factory builds a scene for the given bin count and themes.
type Factory func(binCount int, themes []domain.Theme, themeIndex int) (Scene, error)

// Descriptor is a registry entry. Its position in the registry is the scene index.
type Descriptor struct {
	Name    string
	Factory Factory
}

// Quantity is the number of primitives per group for a bin count.
func Quantity(binCount int) int {
	return max(binCount/2, 1)
}

// base carries what every variant shares.
type base struct {
	name       string
	graph      *render.Graph
	root       *render.Node
	groups     []*render.Node
	themes     []domain.Theme
	themeIndex int
	quantity   int
	destroyed  bool
}

func newBase(name string, graph *render.Graph, binCount int, themes []domain.Theme, themeIndex int) (base, error) {
	if binCount <= 0 {
		return base{}, domain.NewValidationError("binCount", binCount, "frequency bin count must be positive", domain.ErrInvalidFieldValue)
	}
	if err := validateThemes(themes, themeIndex); err != nil {
		return base{}, err
	}

	b := base{
		name:       name,
		graph:      graph,
		root:       render.NewGroup(name),
		themes:     slices.Clone(themes),
		themeIndex: themeIndex,
		quantity:   Quantity(binCount),
	}
	for i := 0; i < numberOfGroups; i++ {
		g := render.NewGroup("group")
		b.root.Add(g)
		b.groups = append(b.groups, g)
	}
	return b, nil
}

func validateThemes(themes []domain.Theme, index int) error {
	if len(themes) == 0 {
		return domain.NewValidationError("themes", 0, "theme collection is empty", domain.ErrInvalidTheme)
	}
	if index < 0 || index >= len(themes) {
		return domain.NewValidationError("themeIndex", index, "theme index out of range", domain.ErrInvalidIndex)
	}
	return nil
}

// attach hands the finished root to the graph.
func (b *base) attach() {
	b.graph.Attach(b.root)
	b.graph.SetBackground(b.theme().BackgroundColor)
}

func (b *base) Name() string { return b.name }

func (b *base) Root() *render.Node { return b.root }

func (b *base) theme() domain.Theme { return b.themes[b.themeIndex] }

func (b *base) CurrentTheme() domain.Theme { return b.theme() }

func (b *base) ChangeTheme(index int) error {
	if b.destroyed {
		return domain.ErrSceneDestroyed
	}
	if index < 0 || index >= len(b.themes) {
		return domain.NewValidationError("themeIndex", index, "theme index out of range", domain.ErrInvalidIndex)
	}
	b.themeIndex = index
	b.repaint()
	return nil
}

func (b *base) SetThemes(themes []domain.Theme, index int) error {
	if b.destroyed {
		return domain.ErrSceneDestroyed
	}
	if err := validateThemes(themes, index); err != nil {
		return err
	}
	b.themes = slices.Clone(themes)
	b.themeIndex = index
	b.repaint()
	return nil
}

// repaint resets every primitive to the theme's rest color.
func (b *base) repaint() {
	th := b.theme()
	for _, g := range b.groups {
		for _, m := range g.Children() {
			m.Material.Color = th.Color
		}
	}
	b.graph.SetBackground(th.BackgroundColor)
}

func (b *base) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	b.graph.Dispose(b.root)
}

// addBox creates a primitive in group g with the theme's rest color.
func (b *base) addBox(g *render.Node, geometry *render.Geometry) *render.Node {
	m := render.NewMesh("box", geometry, render.NewMaterial(b.theme().Color))
	g.Add(m)
	return m
}

// at reads bin i, treating bins past the frame as silence.
func at(frame []uint8, i int) float64 {
	if i < 0 || i >= len(frame) {
		return 0
	}
	return float64(frame[i])
}

func degToRad(deg float64) float64 { return deg * math.Pi / 180 }

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
