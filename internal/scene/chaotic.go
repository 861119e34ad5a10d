package scene

import (
	"math"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/render"
)

// ChaoticName is the registry name of the chaotic scene.
const ChaoticName = "Chaotic"

const chaoticRadius = 250

// Chaotic lays bars out along a wound ring and stretches them vertically.
// Colors are normalised by the previous frame's lowest bin.
type Chaotic struct {
	base
	scaleDivisor float64
	runningMax   float64
}

// NewChaotic builds the chaotic scene and attaches it to graph.
func NewChaotic(graph *render.Graph, binCount int, themes []domain.Theme, themeIndex int) (*Chaotic, error) {
	b, err := newBase(ChaoticName, graph, binCount, themes, themeIndex)
	if err != nil {
		return nil, err
	}
	s := &Chaotic{base: b, scaleDivisor: 1}

	q := float64(s.quantity)
	for j, g := range s.groups {
		g.Position.Z = float64(j) * 10
		g.Rotation.Z = float64(j) * math.Pi

		for i := 0; i < s.quantity; i++ {
			angle := float64(i) * (q / 360)
			m := s.addBox(g, render.NewBox(1, 1, 1))
			m.Position = render.Vec3{
				X: math.Cos(degToRad(angle)) * chaoticRadius,
				Y: math.Sin(degToRad(angle)) * chaoticRadius,
				Z: float64(i),
			}
			m.Rotation.Z = angle
		}
	}

	s.attach()
	return s, nil
}

// Animate stretches bar i to max(f[i]/scaleDivisor, 1).
func (s *Chaotic) Animate(frame []uint8, _ float64) {
	if s.destroyed {
		return
	}
	th := s.theme()
	for _, g := range s.groups {
		for i, m := range g.Children() {
			f := at(frame, i)
			m.Scale.Y = math.Max(f/s.scaleDivisor, 1)

			factor := 1.0
			if s.runningMax > 0 {
				factor = math.Min(math.Abs(f)/s.runningMax, 1)
			}
			m.Material.Color = domain.Lerp(th.Color, th.TransitionColor, factor)
		}
	}
	s.runningMax = at(frame, 0)
}

// Scheme exposes the scale divisor.
func (s *Chaotic) Scheme() []ConfigField {
	return []ConfigField{
		{
			Key:     "scaleDivisor",
			Label:   "Scale Divisor",
			Kind:    FieldNumber,
			Order:   1,
			Default: s.scaleDivisor,
			Min:     0.1,
			HasMin:  true,
			OnChange: func(v float64) error {
				s.scaleDivisor = v
				return nil
			},
		},
	}
}

var _ Scene = (*Chaotic)(nil)
