package scene

import (
	"log/slog"
	"math"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/ports"
	"github.com/tejashwikalptaru/soundscape/internal/render"
)

// SpiralName is the registry name of the spiral scene.
const SpiralName = "Spiral"

// Persisted tunable keys.
const (
	spiralPrefix           = "SpiralScene."
	SpiralBoxSizeKey       = spiralPrefix + "boxSize"
	SpiralRotationSpeedKey = spiralPrefix + "rotationSpeed"
	SpiralReversedKey      = spiralPrefix + "reversed"
)

const (
	defaultSpiralBoxSize       = 1
	defaultSpiralRotationSpeed = 10
	defaultSpiralReversed      = true
)

// Spiral winds bars into a rotating cone whose depth follows the spectrum.
// Its tunables survive restarts through the TunableStore.
type Spiral struct {
	base
	logger *slog.Logger
	store  ports.TunableStore

	boxSize       float64
	rotationSpeed float64
	reversed      bool
	maxScalar     float64
}

// NewSpiral builds the spiral scene and attaches it to graph.
// store may be nil, in which case tunables start at their defaults and are not saved.
func NewSpiral(logger *slog.Logger, graph *render.Graph, store ports.TunableStore, binCount int, themes []domain.Theme, themeIndex int) (*Spiral, error) {
	b, err := newBase(SpiralName, graph, binCount, themes, themeIndex)
	if err != nil {
		return nil, err
	}
	s := &Spiral{
		base:          b,
		logger:        logger,
		store:         store,
		boxSize:       defaultSpiralBoxSize,
		rotationSpeed: defaultSpiralRotationSpeed,
		reversed:      defaultSpiralReversed,
	}
	if store != nil {
		s.boxSize = math.Max(store.LoadFloat(SpiralBoxSizeKey, defaultSpiralBoxSize), 0)
		s.rotationSpeed = math.Max(store.LoadFloat(SpiralRotationSpeedKey, defaultSpiralRotationSpeed), 1)
		s.reversed = store.LoadBool(SpiralReversedKey, defaultSpiralReversed)
	}

	q := float64(s.quantity)
	for j, g := range s.groups {
		g.Position.Z = float64(j)
		g.Rotation.Z = float64(j) * math.Pi

		for i := 0; i < s.quantity; i++ {
			fi := float64(i)
			angle := fi * (q / 360)
			radius := fi * (150 / q)
			m := s.addBox(g, render.NewBox(1, 1, fi*(100/q)))
			m.Position = render.Vec3{
				X: math.Cos(degToRad(angle)) * radius,
				Y: math.Sin(degToRad(angle)) * radius,
				Z: 1.2 * fi * (fi / q),
			}
			m.Rotation.Z = angle
			m.Scale = render.Vec3{X: s.boxSize, Y: s.boxSize, Z: s.boxSize}
		}
	}

	s.attach()
	return s, nil
}

// Animate spins the whole spiral and pushes bars along -z.
// With reversed set, bar i reads bin len-1-i.
func (s *Spiral) Animate(frame []uint8, elapsed float64) {
	if s.destroyed {
		return
	}
	th := s.theme()
	s.graph.SetBackground(th.BackgroundColor)
	s.root.Rotation.Z = -elapsed * s.rotationSpeed

	q := float64(s.quantity)
	for _, g := range s.groups {
		for i, m := range g.Children() {
			idx := i
			if s.reversed {
				idx = len(frame) - 1 - i
			}
			scalar := at(frame, idx)
			val := lerp(20, 150, float64(i)/q)
			m.Scale.Z = -math.Max(scalar/val, 1)

			factor := 1.0
			if s.maxScalar > 0 {
				factor = math.Min(scalar/s.maxScalar, 1)
			}
			m.Material.Color = domain.Lerp(th.Color, th.TransitionColor, factor)
		}
	}
	s.maxScalar = at(frame, 0)
}

// BoxSize returns the bar cross-section scale.
func (s *Spiral) BoxSize() float64 { return s.boxSize }

// RotationSpeed returns radians per second.
func (s *Spiral) RotationSpeed() float64 { return s.rotationSpeed }

// Reversed reports whether bins are read from the top.
func (s *Spiral) Reversed() bool { return s.reversed }

func (s *Spiral) saveFloat(key string, v float64) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveFloat(key, v); err != nil {
		s.logger.Warn("failed to save tunable", slog.String("key", key), slog.Any("error", err))
	}
}

// Scheme exposes box size, rotation speed and reversed indexing.
func (s *Spiral) Scheme() []ConfigField {
	return []ConfigField{
		{
			Key:     "boxSize",
			Label:   "Box Size",
			Kind:    FieldNumber,
			Order:   1,
			Default: s.boxSize,
			HasMin:  true,
			OnChange: func(v float64) error {
				s.boxSize = v
				for _, g := range s.groups {
					for _, m := range g.Children() {
						m.Scale = render.Vec3{X: v, Y: v, Z: v}
					}
				}
				s.saveFloat(SpiralBoxSizeKey, v)
				return nil
			},
		},
		{
			Key:     "rotationSpeed",
			Label:   "Rotation Speed",
			Kind:    FieldNumber,
			Order:   2,
			Default: s.rotationSpeed,
			Min:     1,
			HasMin:  true,
			OnChange: func(v float64) error {
				s.rotationSpeed = v
				s.saveFloat(SpiralRotationSpeedKey, v)
				return nil
			},
		},
		{
			Key:     "reversed",
			Label:   "Reverse FFT Indexing",
			Kind:    FieldCheckbox,
			Order:   3,
			Default: BoolValue(s.reversed),
			OnChange: func(v float64) error {
				s.reversed = v == 1
				if s.store == nil {
					return nil
				}
				if err := s.store.SaveBool(SpiralReversedKey, s.reversed); err != nil {
					s.logger.Warn("failed to save tunable", slog.String("key", SpiralReversedKey), slog.Any("error", err))
				}
				return nil
			},
		},
	}
}

var _ Scene = (*Spiral)(nil)
