// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/tejashwikalptaru/soundscape/internal/adapter/audio/analyzer"
	"github.com/tejashwikalptaru/soundscape/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/soundscape/internal/adapter/audio/playback"
	"github.com/tejashwikalptaru/soundscape/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/soundscape/internal/adapter/metadata"
	"github.com/tejashwikalptaru/soundscape/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/soundscape/internal/adapter/themes"
	"github.com/tejashwikalptaru/soundscape/internal/adapter/transport"
	fyneui "github.com/tejashwikalptaru/soundscape/internal/adapter/ui/fyne"
	"github.com/tejashwikalptaru/soundscape/internal/animation"
	"github.com/tejashwikalptaru/soundscape/internal/config"
	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/input"
	"github.com/tejashwikalptaru/soundscape/internal/logger"
	"github.com/tejashwikalptaru/soundscape/internal/ports"
	"github.com/tejashwikalptaru/soundscape/internal/render"
	"github.com/tejashwikalptaru/soundscape/internal/scene"
	"github.com/tejashwikalptaru/soundscape/internal/service"
)

// audioEngine is what the playback backends provide.
type audioEngine interface {
	ports.Transport
	ports.FrequencyProvider
}

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for main.go
type Application struct {
	// Core dependencies
	cfg     config.Config
	logger  *slog.Logger
	fyneApp fyne.App

	// Infrastructure
	eventBus ports.EventBus
	engine   audioEngine
	settings *memory.SettingsRepository

	// Services
	settingsService *service.SettingsService
	store           *service.StateStore
	coordinator     *service.SceneCoordinator
	tracker         *service.ProgressTracker
	libraryService  *service.LibraryService

	// Rendering
	graph  *render.Graph
	scenes *scene.Manager
	orbit  *animation.OrbitControls
	driver *animation.Driver

	// Optional adapters
	watcher     *themes.Watcher
	broadcaster *transport.Broadcaster
	dispatcher  *input.Dispatcher

	// UI, nil when headless
	presenter  *fyneui.Presenter
	mainWindow *fyneui.MainWindow

	initial domain.ApplicationState

	ctx          context.Context
	cancel       context.CancelFunc
	background   sync.WaitGroup
	startOnce    sync.Once
	shutdownOnce sync.Once
	shutdownErr  error
}

// Options carries what NewApplication needs besides the configuration.
type Options struct {
	// Logger overrides the logger built from the configuration
	Logger *slog.Logger

	// FyneApp allows injecting a test Fyne app (nil for production)
	FyneApp fyne.App
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function. Nothing runs until Start.
func NewApplication(cfg config.Config, opts Options) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{cfg: cfg}
	app.ctx, app.cancel = context.WithCancel(context.Background())

	// Step 1: Create logger
	app.logger = opts.Logger
	if app.logger == nil {
		app.logger = logger.NewLogger(cfg.LoggerConfig())
	}
	app.logger.Info("initializing application",
		slog.String("app_id", cfg.UI.AppID),
		slog.String("version", GetVersionInfo().FullString()),
		slog.String("backend", cfg.Audio.Backend))

	// Step 2: Create the Fyne application; its preferences back the settings
	app.fyneApp = opts.FyneApp
	if app.fyneApp == nil {
		app.fyneApp = fyneapp.NewWithID(cfg.UI.AppID)
	}

	// Step 3: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus(app.logger)

	// Step 4: Create an audio engine
	engine, exts, err := newEngine(app.logger, cfg.Audio)
	if err != nil {
		return nil, err
	}
	app.engine = engine

	// Step 5: Load persisted state
	app.settings = memory.NewSettingsRepository(app.fyneApp.Preferences())
	app.graph = render.NewGraph()
	registry := scene.DefaultRegistry(app.logger, app.graph, app.settings)
	app.settingsService = service.NewSettingsService(app.logger, app.settings, app.eventBus)
	app.initial = app.settingsService.LoadState(len(registry))
	if !cfg.Animation.StartRunning {
		app.initial.IsAnimationRunning = false
	}

	// Step 6: Create the store and the scene pipeline
	app.store = service.NewStateStore(app.logger, app.eventBus, app.engine, len(registry), app.initial)
	app.scenes, err = scene.NewManager(app.logger, app.graph, registry, app.engine.FrequencyBinCount(),
		app.initial.Themes, app.initial.ThemeIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to create scene manager: %w", err)
	}
	app.orbit = animation.NewOrbitControls(cfg.Animation.FPS)

	// Step 7: Create sinks; the driver pushes every frame to them
	var sinks []ports.FrameSink
	if cfg.Server.Enabled {
		app.broadcaster = transport.NewBroadcaster(app.logger, app.eventBus, app.store, app.scenes, cfg.Server.FrameInterval)
		sinks = append(sinks, app.broadcaster)
	}
	if !cfg.UI.Headless {
		app.mainWindow = fyneui.NewMainWindow(app.fyneApp, app.scenes.SceneNames())
		sinks = append(sinks, app.mainWindow.Surface())
	}

	app.driver, err = animation.NewDriver(app.logger, animation.Config{FPS: cfg.Animation.FPS},
		app.engine, app.scenes, app.orbit, sinks...)
	if err != nil {
		return nil, fmt.Errorf("failed to create animation driver: %w", err)
	}

	// Step 8: Create the remaining services
	app.coordinator = service.NewSceneCoordinator(app.logger, app.eventBus, app.scenes, app.orbit, app.driver)
	app.tracker = service.NewProgressTracker(app.logger, app.engine, app.eventBus, app.store, 0)
	app.libraryService = service.NewLibraryService(app.logger, metadata.NewTagReader(app.logger), app.eventBus, exts...)
	app.dispatcher = input.NewDispatcher(app.logger, app.eventBus, app.store,
		input.DefaultKeymap(cfg.Keyboard.RequireModifier))

	if cfg.Themes.File != "" {
		app.watcher, err = themes.NewWatcher(app.logger, app.eventBus, app.store, cfg.Themes.File)
		if err != nil {
			return nil, err
		}
	}

	// Step 9: Create Presenter and wire with UI
	if app.mainWindow != nil {
		app.presenter = fyneui.NewPresenter(app.logger, app.eventBus, app.store, app.scenes, app.libraryService, app.mainWindow)
		app.mainWindow.SetPresenter(app.presenter)
		app.mainWindow.SetOrbiter(app.orbit)
		app.mainWindow.SetFrameLoop(app.driver)
		app.mainWindow.BindKeys(app.dispatcher)
	}

	return app, nil
}

func newEngine(log *slog.Logger, cfg config.AudioConfig) (audioEngine, []string, error) {
	switch cfg.Backend {
	case config.BackendMock:
		return mock.NewEngine(log, cfg.BinCount()), service.DefaultSupportedFormats, nil
	default:
		a, err := analyzer.New(analyzer.Config{
			FFTSize:     cfg.FFTSize,
			Smoothing:   cfg.Smoothing,
			MinDecibels: cfg.MinDecibels,
			MaxDecibels: cfg.MaxDecibels,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create analyser: %w", err)
		}
		engine := playback.NewEngine(log, playback.Config{
			SampleRate:    cfg.SampleRate,
			InitialVolume: cfg.InitialVolume,
		}, playback.SpeakerOutput(), a)
		return engine, playback.SupportedExtensions, nil
	}
}

// Start subscribes every service and starts the background loops. The store
// subscribes first so that it handles each intent before other observers.
func (a *Application) Start() error {
	var err error
	a.startOnce.Do(func() {
		a.store.Start()
		a.settingsService.Start(a.initial)

		if err = a.coordinator.Start(a.store.State()); err != nil {
			return
		}
		if a.presenter != nil {
			a.presenter.Start()
		}
		a.tracker.Start()

		if a.watcher != nil {
			if _, _, syncErr := a.watcher.Sync(); syncErr != nil {
				a.logger.Warn("theme file not applied", slog.Any("error", syncErr))
			}
			if a.cfg.Themes.Watch {
				a.watcher.Start()
			}
		}

		if dir := a.cfg.Library.SongsDir; dir != "" {
			a.goBackground(func(ctx context.Context) {
				res, scanErr := a.libraryService.ScanFolder(ctx, dir)
				if scanErr != nil && !errors.Is(scanErr, context.Canceled) {
					a.logger.Warn("library scan failed", slog.String("dir", dir), slog.Any("error", scanErr))
					return
				}
				a.logger.Info("library scanned", slog.Int("added", res.Added), slog.Int("skipped", res.Skipped))
			})
		}

		if a.broadcaster != nil {
			a.goBackground(func(ctx context.Context) {
				if serveErr := a.broadcaster.ListenAndServe(ctx, a.cfg.Server.Listen); serveErr != nil {
					a.logger.Error("frame server stopped", slog.Any("error", serveErr))
				}
			})
		}
	})
	return err
}

func (a *Application) goBackground(fn func(ctx context.Context)) {
	a.background.Add(1)
	go func() {
		defer a.background.Done()
		fn(a.ctx)
	}()
}

// Run starts the application and blocks until the window is closed or, when
// headless, until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.Start(); err != nil {
		return err
	}
	a.logger.Info("Soundscape started")

	if a.mainWindow == nil {
		<-ctx.Done()
		return nil
	}

	go func() {
		select {
		case <-ctx.Done():
			fyne.Do(a.fyneApp.Quit)
		case <-a.ctx.Done():
		}
	}()
	a.mainWindow.ShowAndRun()
	return nil
}

// Shutdown stops every component in reverse order of creation.
// It's safe to call multiple times (idempotent).
func (a *Application) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")
		var errs []error
		collect := func(name string, err error) {
			if err != nil {
				a.logger.Warn("shutdown step failed", slog.String("component", name), slog.Any("error", err))
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}

		if a.presenter != nil {
			a.presenter.Shutdown()
		}
		a.cancel()
		a.background.Wait()

		if a.watcher != nil {
			collect("themes", a.watcher.Close())
		}
		if a.broadcaster != nil {
			collect("broadcaster", a.broadcaster.Close())
		}
		collect("library", a.libraryService.Shutdown())
		collect("progress", a.tracker.Shutdown())
		collect("driver", a.driver.Shutdown())
		collect("coordinator", a.coordinator.Shutdown())
		a.scenes.Destroy()
		collect("settings", a.settingsService.Shutdown())
		collect("store", a.store.Shutdown())
		if c, ok := a.engine.(io.Closer); ok {
			collect("engine", c.Close())
		}
		collect("eventbus", a.eventBus.Close())

		a.shutdownErr = errors.Join(errs...)
		a.logger.Info("application shutdown complete")
	})
	return a.shutdownErr
}

// State returns the current state snapshot.
func (a *Application) State() domain.ApplicationState {
	return a.store.State()
}

// GetEventBus returns the event bus.
func (a *Application) GetEventBus() ports.EventBus {
	return a.eventBus
}

// GetFyneApp returns the Fyne application.
func (a *Application) GetFyneApp() fyne.App {
	return a.fyneApp
}

// SceneNames returns the registered scene names.
func (a *Application) SceneNames() []string {
	return a.scenes.SceneNames()
}

// Driver returns the animation driver.
func (a *Application) Driver() *animation.Driver {
	return a.driver
}
