package service

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/ports"
)

// DefaultSupportedFormats are the extensions picked up by a scan.
var DefaultSupportedFormats = []string{".mp3", ".wav", ".flac", ".ogg", ".m4a"}

// ScanResult counts what a scan did.
type ScanResult struct {
	Added   int
	Skipped int
}

// LibraryService imports songs from disk by publishing SongUploaded intents.
// Files whose tags cannot be read are skipped, as are songs the store rejects.
type LibraryService struct {
	// Dependencies (injected)
	logger *slog.Logger
	reader ports.MetadataReader
	bus    ports.EventBus

	// State
	supportedExts []string
	scanning      bool
	cancelScan    context.CancelFunc

	// Concurrency control
	mu sync.RWMutex
}

// NewLibraryService creates a library service. With no exts, DefaultSupportedFormats is used.
func NewLibraryService(
	logger *slog.Logger,
	reader ports.MetadataReader,
	bus ports.EventBus,
	exts ...string,
) *LibraryService {
	if len(exts) == 0 {
		exts = DefaultSupportedFormats
	}
	return &LibraryService{
		logger:        logger.With(slog.String("service", "library")),
		reader:        reader,
		bus:           bus,
		supportedExts: slices.Clone(exts),
	}
}

// ScanFolder walks folderPath recursively and imports every supported file.
func (s *LibraryService) ScanFolder(ctx context.Context, folderPath string) (ScanResult, error) {
	ctx, done, err := s.begin(ctx, "ScanFolder")
	if err != nil {
		return ScanResult{}, err
	}
	defer done()

	files, err := s.collectAudioFiles(ctx, folderPath)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return ScanResult{}, err
		}
		return ScanResult{}, domain.NewServiceError("LibraryService", "ScanFolder", "failed to walk "+folderPath, err)
	}
	return s.importFiles(ctx, files)
}

// ScanFiles imports the given files. Unsupported formats are skipped.
func (s *LibraryService) ScanFiles(ctx context.Context, filePaths []string) (ScanResult, error) {
	ctx, done, err := s.begin(ctx, "ScanFiles")
	if err != nil {
		return ScanResult{}, err
	}
	defer done()

	supported := make([]string, 0, len(filePaths))
	skipped := 0
	for _, p := range filePaths {
		if s.IsFormatSupported(p) {
			supported = append(supported, p)
		} else {
			skipped++
		}
	}
	res, err := s.importFiles(ctx, supported)
	res.Skipped += skipped
	return res, err
}

// begin marks a scan as running and derives a cancellable context for it.
func (s *LibraryService) begin(parent context.Context, op string) (context.Context, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scanning {
		return nil, nil, domain.NewServiceError("LibraryService", op, "scan already in progress", nil)
	}
	ctx, cancel := context.WithCancel(parent)
	s.scanning = true
	s.cancelScan = cancel

	return ctx, func() {
		cancel()
		s.mu.Lock()
		s.scanning = false
		s.cancelScan = nil
		s.mu.Unlock()
	}, nil
}

func (s *LibraryService) importFiles(ctx context.Context, files []string) (ScanResult, error) {
	var (
		res     ScanResult
		mu      sync.Mutex
		pending string
		outcome bool
	)
	watch := func(id string, accepted bool) {
		mu.Lock()
		if id == pending {
			outcome = accepted
		}
		mu.Unlock()
	}
	acceptSub := s.bus.Subscribe(domain.EventSongAccepted, func(e domain.Event) {
		if ev, ok := e.(domain.SongAcceptedEvent); ok {
			watch(ev.Song.ID, true)
		}
	})
	rejectSub := s.bus.Subscribe(domain.EventSongRejected, func(e domain.Event) {
		if ev, ok := e.(domain.SongRejectedEvent); ok {
			watch(ev.Song.ID, false)
		}
	})
	pendingSet := func(id string) {
		mu.Lock()
		pending, outcome = id, false
		mu.Unlock()
	}
	defer s.bus.Unsubscribe(acceptSub)
	defer s.bus.Unsubscribe(rejectSub)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		song, err := s.reader.ReadSong(path)
		if err != nil {
			s.logger.Debug("skipping unreadable file", slog.String("path", path), slog.Any("error", err))
			res.Skipped++
			continue
		}

		event := domain.NewSongUploadedEvent(song.ArtistName, song.SongName, song.Src)
		pendingSet(event.ID)
		s.bus.Publish(event)

		mu.Lock()
		if outcome {
			res.Added++
		} else {
			res.Skipped++
		}
		mu.Unlock()
	}

	s.logger.Info("library scan finished", slog.Int("added", res.Added), slog.Int("skipped", res.Skipped))
	return res, nil
}

// CancelScan cancels the running scan.
func (s *LibraryService) CancelScan() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.scanning {
		return domain.NewServiceError("LibraryService", "CancelScan", "no scan in progress", nil)
	}
	s.cancelScan()
	return nil
}

// IsScanning returns true if a scan is currently in progress.
func (s *LibraryService) IsScanning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanning
}

// IsFormatSupported checks if a file format is supported.
func (s *LibraryService) IsFormatSupported(filePath string) bool {
	return slices.Contains(s.supportedExts, strings.ToLower(filepath.Ext(filePath)))
}

// SupportedFormats returns a copy of the supported extensions.
func (s *LibraryService) SupportedFormats() []string {
	return slices.Clone(s.supportedExts)
}

// collectAudioFiles recursively collects all audio files in a directory.
func (s *LibraryService) collectAudioFiles(ctx context.Context, folderPath string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(folderPath, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == folderPath {
				return err
			}
			// Skip entries we can't access
			return nil
		}
		if !d.IsDir() && s.IsFormatSupported(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// Shutdown cancels any running scan.
func (s *LibraryService) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scanning && s.cancelScan != nil {
		s.cancelScan()
	}
	return nil
}
