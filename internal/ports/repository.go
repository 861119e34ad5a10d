package ports

import (
	"github.com/tejashwikalptaru/soundscape/internal/domain"
)

// TunableStore persists scene tunables under caller-chosen keys.
// Load methods return the fallback when nothing was saved.
type TunableStore interface {
	LoadFloat(key string, fallback float64) float64
	SaveFloat(key string, value float64) error
	LoadBool(key string, fallback bool) bool
	SaveBool(key string, value bool) error
}

// SettingsRepository is the persisted-settings collaborator.
//
// Thread-safety: Implementations must be thread-safe.
type SettingsRepository interface {
	TunableStore

	LoadInt(key string, fallback int) int
	SaveInt(key string, value int) error

	// SaveThemes stores the theme collection as a serializable array.
	SaveThemes(themes []domain.Theme) error

	// LoadThemes returns nil (not an error) when no collection was saved.
	LoadThemes() ([]domain.Theme, error)

	SaveSongs(songs []domain.Song) error
	LoadSongs() ([]domain.Song, error)

	// Clear removes every value written by the repository.
	Clear() error
}
