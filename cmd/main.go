// Package main is the entry point for Soundscape, an audio-reactive
// visualizer.
//
// Build:
//
//	go build -o build/soundscape ./cmd
//
// Run:
//
//	./build/soundscape run --config soundscape.yaml
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/soundscape/internal/app"
	"github.com/tejashwikalptaru/soundscape/internal/config"
	"github.com/tejashwikalptaru/soundscape/internal/logger"
	"github.com/tejashwikalptaru/soundscape/internal/render"
	"github.com/tejashwikalptaru/soundscape/internal/scene"
)

type runOptions struct {
	configPath string
	logLevel   string
	headless   bool
	listen     string
	songsDir   string
	backend    string
	fps        int
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "soundscape",
		Short:         "Audio-reactive 3D visualizer",
		Version:       app.GetVersionInfo().Short(),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.SetHelpCommand(&cobra.Command{Hidden: true})

	root.AddCommand(newRunCommand(), newScenesCommand(), newVersionCommand())
	return root
}

func newRunCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the visualizer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, cfg, opts)
			return run(cmd.Context(), *cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to the YAML config file (default "+config.DefaultPath+")")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVar(&opts.headless, "headless", false, "Run without a window")
	flags.StringVarP(&opts.listen, "listen", "l", "", "Serve state and frames over WebSocket on this address")
	flags.StringVarP(&opts.songsDir, "songs", "s", "", "Folder scanned into the song list at startup")
	flags.StringVarP(&opts.backend, "backend", "b", "", "Audio backend: beep or mock")
	flags.IntVar(&opts.fps, "fps", 0, "Animation frame rate cap")
	return cmd
}

// applyFlags overrides config values with flags the user actually set.
func applyFlags(cmd *cobra.Command, cfg *config.Config, opts runOptions) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("headless") {
		cfg.UI.Headless = opts.headless
	}
	if flags.Changed("listen") {
		cfg.Server.Enabled = true
		cfg.Server.Listen = opts.listen
	}
	if flags.Changed("songs") {
		cfg.Library.SongsDir = opts.songsDir
	}
	if flags.Changed("backend") {
		cfg.Audio.Backend = opts.backend
	}
	if flags.Changed("fps") {
		cfg.Animation.FPS = opts.fps
	}
}

func run(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApplication(cfg, app.Options{})
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}

	runErr := application.Run(ctx)
	if err := application.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
	}
	return runErr
}

func newScenesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scenes",
		Short: "List the available scenes",
		Run: func(cmd *cobra.Command, _ []string) {
			registry := scene.DefaultRegistry(logger.NewLogger(logger.DefaultConfig()), render.NewGraph(), nil)
			for i, name := range scene.Names(registry) {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", i, name)
			}
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), app.GetVersionInfo().FullString())
		},
	}
}
