package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/ringscope/internal/audio"
	"github.com/olivier-w/ringscope/internal/media"
	"github.com/olivier-w/ringscope/internal/player"
	"github.com/olivier-w/ringscope/internal/session"
	"github.com/olivier-w/ringscope/internal/ui"
	"github.com/olivier-w/ringscope/internal/visualizer"
	"github.com/olivier-w/ringscope/internal/window"
)

type options struct {
	cutoffs audio.Cutoffs
	fps     int
	window  bool
	trails  bool
	logPath string
	path    string
}

var errCancelled = errors.New("cancelled")

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, errCancelled) || errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("ringscope", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: ringscope [flags] [file]\n\nsupported formats: %s\n\n", media.SupportedExtsList())
		fs.PrintDefaults()
	}

	var opts options
	def := session.DefaultConfig()
	fs.Float64Var(&opts.cutoffs.Bass, "bass", def.Cutoffs.Bass, "bass lowpass cutoff in Hz")
	fs.Float64Var(&opts.cutoffs.Mid, "mid", def.Cutoffs.Mid, "mid bandpass centre in Hz")
	fs.Float64Var(&opts.cutoffs.Treble, "treble", def.Cutoffs.Treble, "treble highpass cutoff in Hz")
	fs.IntVar(&opts.fps, "fps", 60, "terminal frame rate")
	fs.BoolVar(&opts.window, "window", false, "draw in a desktop window instead of the terminal")
	fs.BoolVar(&opts.trails, "trails", def.Trails, "fade the previous frame instead of wiping it")
	fs.StringVar(&opts.logPath, "log", "", "write a debug log to `file`")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 1 {
		return options{}, fmt.Errorf("expected at most one file, got %d", fs.NArg())
	}
	if opts.fps < 1 || opts.fps > 240 {
		return options{}, fmt.Errorf("fps must be between 1 and 240, got %d", opts.fps)
	}
	opts.path = fs.Arg(0)
	return opts, nil
}

func run(args []string) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	logger, closeLog, err := openLogger(opts.logPath)
	if err != nil {
		return err
	}
	defer closeLog()

	path := opts.path
	if path == "" {
		path, err = browse()
		if err != nil {
			return err
		}
	}
	if err := checkFile(path); err != nil {
		return err
	}

	meta := player.ReadMetadata(path)
	p, err := player.Open(path)
	if err != nil {
		return fmt.Errorf("creating player: %w", err)
	}
	defer p.Close()
	logger.Debug("opened media", "path", path, "rate", p.SampleRate(), "channels", p.ChannelCount(), "duration", p.Duration())

	cfg := session.DefaultConfig()
	cfg.Cutoffs = opts.cutoffs
	cfg.Trails = opts.trails

	if opts.window {
		surface := window.NewSurface()
		sched := window.NewScheduler()
		s := session.New(cfg, session.Deps{Surface: surface, Scheduler: sched, Logger: logger})
		s.Handle(session.SourceReady{Media: p})
		return window.NewGame(p, s, sched, surface, meta.Title, cfg.Cutoffs).Run()
	}

	canvas := visualizer.NewCanvas(48, 24)
	sched := ui.NewFrameScheduler(opts.fps)
	s := session.New(cfg, session.Deps{Surface: canvas, Scheduler: sched, Logger: logger})
	s.Handle(session.SourceReady{Media: p})

	model := ui.New(p, s, sched, canvas, ui.Options{Metadata: meta, Cutoffs: cfg.Cutoffs, FPS: opts.fps})
	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(ui.Model); ok && m.Err() != nil {
		return m.Err()
	}
	return p.Err()
}

// openLogger returns a debug logger writing to path, or a discarding one
// when path is empty. Stdout belongs to the renderer either way.
func openLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	f, err := tea.LogToFile(path, "ringscope")
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { f.Close() }, nil
}

func browse() (string, error) {
	browser := ui.NewBrowser(".")
	if browser.HasError() {
		return "", browser.Error()
	}
	final, err := tea.NewProgram(browser, tea.WithAltScreen()).Run()
	if err != nil {
		return "", err
	}
	bm, ok := final.(ui.BrowserModel)
	if !ok {
		return "", fmt.Errorf("unexpected model type from browser")
	}
	result := bm.Result()
	if result.Cancelled {
		return "", errCancelled
	}
	return result.Path, nil
}

func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if ext := filepath.Ext(path); !media.IsSupportedExt(ext) {
		return fmt.Errorf("unsupported format %s (supported: %s)", ext, media.SupportedExtsList())
	}
	return nil
}
