package ports

import (
	"context"
	"time"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
)

// FrequencyProvider produces the frequency frame for the current playback instant.
//
// FrequencyData fills dst in place with one 0..255 magnitude per bin and must be
// cheap enough to call once per animation tick. If dst is longer than the
// analyser's bin count the tail is zeroed.
type FrequencyProvider interface {
	FrequencyBinCount() int
	FrequencyData(dst []uint8)
}

// Transport controls playback of the song list.
//
// SetSong may block on I/O and honours ctx. Duration returns false until the
// loaded song's length is known.
//
// Thread-safety: Implementations must be thread-safe.
type Transport interface {
	SetPlaylist(songs []domain.Song)
	SetSong(ctx context.Context, index int) error
	Play() error
	Pause() error
	Stop() error
	PlayFromSecond(seconds float64) error
	SetVolume(volume float64) error
	Volume() float64
	IsPlaying() bool
	CurrentTime() time.Duration
	Duration() (time.Duration, bool)

	// OnEnded registers a callback fired when playback reaches the end of the song.
	OnEnded(fn func())
}

// MetadataReader extracts artist and title from an audio source.
type MetadataReader interface {
	ReadSong(path string) (domain.Song, error)
}
