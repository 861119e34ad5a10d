package scene

import (
	"log/slog"

	"github.com/samber/lo"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/ports"
	"github.com/tejashwikalptaru/soundscape/internal/render"
)

// DefaultRegistry returns the built-in scenes in display order.
// tunables may be nil.
func DefaultRegistry(logger *slog.Logger, graph *render.Graph, tunables ports.TunableStore) []Descriptor {
	return []Descriptor{
		{
			Name: ChaoticName,
			Factory: func(binCount int, themes []domain.Theme, themeIndex int) (Scene, error) {
				return build(NewChaotic(graph, binCount, themes, themeIndex))
			},
		},
		{
			Name: FlatCircleName,
			Factory: func(binCount int, themes []domain.Theme, themeIndex int) (Scene, error) {
				return build(NewFlatCircle(graph, binCount, themes, themeIndex))
			},
		},
		{
			Name: SpiralName,
			Factory: func(binCount int, themes []domain.Theme, themeIndex int) (Scene, error) {
				return build(NewSpiral(logger, graph, tunables, binCount, themes, themeIndex))
			},
		},
	}
}

// Names returns the descriptor names in registry order.
func Names(registry []Descriptor) []string {
	return lo.Map(registry, func(d Descriptor, _ int) string { return d.Name })
}

// build keeps a failed constructor from yielding a non-nil Scene holding a nil pointer.
func build[S Scene](s S, err error) (Scene, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
