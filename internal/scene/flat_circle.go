package scene

import (
	"math"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/render"
)

// FlatCircleName is the registry name of the flat circle scene.
const FlatCircleName = "Flat Circle"

const (
	defaultFlatCircleRadius = 250
	flatCircleDivisor       = 195
)

// FlatCircle mirrors two rings of bars that grow outwards along their own axis.
type FlatCircle struct {
	base
	radius float64
}

// NewFlatCircle builds the flat circle scene and attaches it to graph.
func NewFlatCircle(graph *render.Graph, binCount int, themes []domain.Theme, themeIndex int) (*FlatCircle, error) {
	b, err := newBase(FlatCircleName, graph, binCount, themes, themeIndex)
	if err != nil {
		return nil, err
	}
	s := &FlatCircle{base: b, radius: defaultFlatCircleRadius}

	for j, g := range s.groups {
		factor := groupFactor(j)
		for i := 0; i < s.quantity; i++ {
			m := s.addBox(g, render.NewBox(1, 1, 1).Translate(factor*0.5, 0, 0))
			m.Rotation.Z = s.angle(j, i)
		}
	}
	s.layout()

	s.attach()
	return s, nil
}

func groupFactor(j int) float64 {
	if j%numberOfGroups == 0 {
		return -1
	}
	return 1
}

func (s *FlatCircle) angle(group, i int) float64 {
	return groupFactor(group) * float64(i) * (2 * math.Pi / float64(s.quantity))
}

// layout places every bar on the circle of the current radius.
func (s *FlatCircle) layout() {
	for j, g := range s.groups {
		for i, m := range g.Children() {
			a := s.angle(j, i)
			m.Position = render.Vec3{X: math.Cos(a) * s.radius, Y: math.Sin(a) * s.radius}
		}
	}
}

// Radius returns the current ring radius.
func (s *FlatCircle) Radius() float64 { return s.radius }

// Animate stretches bar i to max(f[i], 1) along its radial axis.
func (s *FlatCircle) Animate(frame []uint8, _ float64) {
	if s.destroyed {
		return
	}
	th := s.theme()
	s.graph.SetBackground(th.BackgroundColor)
	for _, g := range s.groups {
		for i, m := range g.Children() {
			f := at(frame, i)
			m.Scale.X = math.Max(f, 1)
			m.Material.Color = domain.Lerp(th.Color, th.TransitionColor, math.Min(math.Abs(f)/flatCircleDivisor, 1))
		}
	}
}

// Scheme exposes the ring radius.
func (s *FlatCircle) Scheme() []ConfigField {
	return []ConfigField{
		{
			Key:     "radius",
			Label:   "Radius",
			Kind:    FieldNumber,
			Order:   1,
			Default: s.radius,
			Min:     1,
			HasMin:  true,
			OnChange: func(v float64) error {
				s.radius = v
				s.layout()
				return nil
			},
		},
	}
}

var _ Scene = (*FlatCircle)(nil)
