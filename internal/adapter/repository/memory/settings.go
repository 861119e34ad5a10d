package memory

import (
	"encoding/json"
	"sort"
	"sync"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/ports"
)

const (
	keyThemes = "settings.themes"
	keySongs  = "settings.songs"
	keyIndex  = "settings.keys"
)

// SettingsRepository implements ports.SettingsRepository using Fyne preferences.
// Collections are stored as JSON strings; scalar values use the native
// preference types. Every key written is recorded so Clear can remove it.
//
// Thread-safe: All operations protected by sync.RWMutex.
type SettingsRepository struct {
	prefs fyne.Preferences
	keys  map[string]struct{}
	mu    sync.RWMutex
}

// NewSettingsRepository creates a new settings repository.
// The preferences parameter should be obtained from fyne.CurrentApp().Preferences().
func NewSettingsRepository(prefs fyne.Preferences) *SettingsRepository {
	r := &SettingsRepository{
		prefs: prefs,
		keys:  make(map[string]struct{}),
	}
	var known []string
	if data := prefs.String(keyIndex); data != "" && json.Unmarshal([]byte(data), &known) == nil {
		for _, k := range known {
			r.keys[k] = struct{}{}
		}
	}
	return r
}

// track records key in the persisted key index. Caller holds the write lock.
func (r *SettingsRepository) track(key string) {
	if _, ok := r.keys[key]; ok {
		return
	}
	r.keys[key] = struct{}{}

	known := make([]string, 0, len(r.keys))
	for k := range r.keys {
		known = append(known, k)
	}
	sort.Strings(known)
	data, err := json.Marshal(known)
	if err == nil {
		r.prefs.SetString(keyIndex, string(data))
	}
}

// LoadFloat retrieves a float value or the fallback.
func (r *SettingsRepository) LoadFloat(key string, fallback float64) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prefs.FloatWithFallback(key, fallback)
}

// SaveFloat persists a float value.
func (r *SettingsRepository) SaveFloat(key string, value float64) error {
	if key == "" {
		return domain.NewRepositoryError("SaveFloat", "settings", "key cannot be empty", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetFloat(key, value)
	r.track(key)
	return nil
}

// LoadBool retrieves a bool value or the fallback.
func (r *SettingsRepository) LoadBool(key string, fallback bool) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prefs.BoolWithFallback(key, fallback)
}

// SaveBool persists a bool value.
func (r *SettingsRepository) SaveBool(key string, value bool) error {
	if key == "" {
		return domain.NewRepositoryError("SaveBool", "settings", "key cannot be empty", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetBool(key, value)
	r.track(key)
	return nil
}

// LoadInt retrieves an int value or the fallback.
func (r *SettingsRepository) LoadInt(key string, fallback int) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prefs.IntWithFallback(key, fallback)
}

// SaveInt persists an int value.
func (r *SettingsRepository) SaveInt(key string, value int) error {
	if key == "" {
		return domain.NewRepositoryError("SaveInt", "settings", "key cannot be empty", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetInt(key, value)
	r.track(key)
	return nil
}

// SaveThemes persists the theme collection as a JSON array.
func (r *SettingsRepository) SaveThemes(themes []domain.Theme) error {
	data, err := json.Marshal(themes)
	if err != nil {
		return domain.NewRepositoryError("SaveThemes", "settings", "failed to marshal themes", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetString(keyThemes, string(data))
	r.track(keyThemes)
	return nil
}

// LoadThemes retrieves the saved theme collection.
func (r *SettingsRepository) LoadThemes() ([]domain.Theme, error) {
	r.mu.RLock()
	data := r.prefs.String(keyThemes)
	r.mu.RUnlock()

	if data == "" {
		return nil, nil
	}

	var themes []domain.Theme
	if err := json.Unmarshal([]byte(data), &themes); err != nil {
		return nil, domain.NewRepositoryError("LoadThemes", "settings", "failed to unmarshal themes", err)
	}
	return themes, nil
}

// SaveSongs persists the song list as a JSON array.
func (r *SettingsRepository) SaveSongs(songs []domain.Song) error {
	data, err := json.Marshal(songs)
	if err != nil {
		return domain.NewRepositoryError("SaveSongs", "settings", "failed to marshal songs", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetString(keySongs, string(data))
	r.track(keySongs)
	return nil
}

// LoadSongs retrieves the saved song list.
func (r *SettingsRepository) LoadSongs() ([]domain.Song, error) {
	r.mu.RLock()
	data := r.prefs.String(keySongs)
	r.mu.RUnlock()

	if data == "" {
		return []domain.Song{}, nil
	}

	var songs []domain.Song
	if err := json.Unmarshal([]byte(data), &songs); err != nil {
		return nil, domain.NewRepositoryError("LoadSongs", "settings", "failed to unmarshal songs", err)
	}
	return songs, nil
}

// Clear removes all saved settings.
func (r *SettingsRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k := range r.keys {
		r.prefs.RemoveValue(k)
	}
	r.prefs.RemoveValue(keyIndex)
	r.keys = make(map[string]struct{})
	return nil
}

// Verify interface implementation
var _ ports.SettingsRepository = (*SettingsRepository)(nil)
