package playback

import (
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/tejashwikalptaru/soundscape/internal/adapter/audio/analyzer"
)

// Output is the sink the engine plays into. SpeakerOutput wraps the beep
// speaker; tests substitute a manual sink.
type Output interface {
	Init(rate beep.SampleRate, bufferSize int) error
	Play(s ...beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

type speakerOutput struct {
	once sync.Once
	err  error
}

// SpeakerOutput returns the process-wide speaker. It initialises at most once.
func SpeakerOutput() Output {
	return defaultSpeaker
}

var defaultSpeaker = &speakerOutput{}

func (s *speakerOutput) Init(rate beep.SampleRate, bufferSize int) error {
	s.once.Do(func() {
		s.err = speaker.Init(rate, bufferSize)
	})
	return s.err
}

func (s *speakerOutput) Play(streamers ...beep.Streamer) { speaker.Play(streamers...) }
func (s *speakerOutput) Clear()                          { speaker.Clear() }
func (s *speakerOutput) Lock()                           { speaker.Lock() }
func (s *speakerOutput) Unlock()                         { speaker.Unlock() }

// tap passes audio through while copying it into the analyser.
type tap struct {
	s beep.Streamer
	a *analyzer.Analyzer
}

func (t *tap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.s.Stream(samples)
	if n > 0 {
		t.a.Write(samples[:n])
	}
	return n, ok
}

func (t *tap) Err() error { return t.s.Err() }
