package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"pokepet/internal/catalog"
	"pokepet/internal/config"
	"pokepet/internal/engine"
	"pokepet/internal/notify"
	"pokepet/internal/pet"
	"pokepet/internal/schedule"
	"pokepet/internal/store"
	"pokepet/internal/ui"
	"pokepet/internal/web"
)

type options struct {
	configPath  string
	backend     string
	savePath    string
	webAddr     string
	alerts      bool
	logFile     string
	logLevel    string
	fresh       bool
	status      bool
	headless    bool
	printConfig bool
}

func parseFlags(args []string) (options, map[string]bool, error) {
	var o options
	fs := flag.NewFlagSet("pokepet", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "YAML config file (default ~/.config/pokepet/config.yaml if present)")
	fs.StringVar(&o.backend, "backend", "", "save backend: file, sqlite or memory")
	fs.StringVar(&o.savePath, "save-path", "", "save directory (file) or database file (sqlite)")
	fs.StringVar(&o.webAddr, "web", "", "serve the read-only web mirror on this address")
	fs.BoolVar(&o.alerts, "alerts", false, "send desktop notifications while the terminal is in the background")
	fs.StringVar(&o.logFile, "log-file", "", "log file (default ~/.config/pokepet/pokepet.log)")
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error")
	fs.BoolVar(&o.fresh, "fresh", false, "ignore the saved Pokémon and catch a new one")
	fs.BoolVar(&o.status, "status", false, "show the saved Pokémon and exit")
	fs.BoolVar(&o.headless, "headless", false, "run without the terminal UI, printing messages to stdout")
	fs.BoolVar(&o.printConfig, "print-config", false, "print the effective configuration and exit")
	if err := fs.Parse(args); err != nil {
		return o, nil, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return o, set, nil
}

// loadConfig layers defaults, file, environment and flags.
func loadConfig(o options, set map[string]bool) (*config.Config, error) {
	path, optional := o.configPath, false
	if path == "" {
		path, optional = config.DefaultPath(), true
	}
	cfg, err := config.Load(path, optional)
	if err != nil {
		return nil, err
	}
	if err := cfg.FromEnv(); err != nil {
		return nil, err
	}

	if set["backend"] {
		cfg.Save.Backend = o.backend
	}
	if set["save-path"] {
		cfg.Save.Path = o.savePath
	}
	if set["web"] {
		cfg.Web.Addr = o.webAddr
	}
	if set["alerts"] {
		cfg.Alerts.Enabled = o.alerts
	}
	if set["log-file"] {
		cfg.Log.File = o.logFile
	}
	if set["log-level"] {
		cfg.Log.Level = o.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openLog returns a logger writing to the configured file. The terminal
// belongs to the UI.
func openLog(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	path := cfg.Log.File
	if path == "" {
		dir, err := store.DefaultDir()
		if err != nil {
			return nil, nil, err
		}
		path = filepath.Join(dir, "pokepet.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	return logger, f, nil
}

func openKV(cfg *config.Config) (store.KV, error) {
	switch cfg.Save.Backend {
	case config.BackendMemory:
		return store.NewMemoryKV(), nil
	case config.BackendSQLite:
		path := cfg.Save.Path
		if path == "" {
			dir, err := store.DefaultDir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "pokepet.db")
		}
		return store.OpenSQLite(path)
	default:
		dir := cfg.Save.Path
		if dir == "" {
			var err error
			if dir, err = store.DefaultDir(); err != nil {
				return nil, err
			}
		}
		return store.NewFileKV(dir)
	}
}

// app holds everything both front ends share.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	writer   *store.Writer
	catalog  *catalog.Client
	notifier *notify.Notifier
	hub      *web.Hub
	out      io.Writer
}

func run(args []string) error {
	o, set, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(o, set)
	if err != nil {
		return err
	}
	if o.printConfig {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	logger, logCloser, err := openLog(cfg)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	kv, err := openKV(cfg)
	if err != nil {
		return err
	}
	defer kv.Close()

	st := store.New(kv, store.Options{Key: cfg.Save.Key, StaleAfter: cfg.Save.StaleAfter, Logger: logger})

	if o.status {
		return showStatus(cfg, st)
	}

	catOpts := cfg.CatalogOptions()
	catOpts.Logger = logger
	cat, err := catalog.New(catOpts)
	if err != nil {
		return err
	}

	a := &app{
		cfg:      cfg,
		log:      logger,
		writer:   store.NewWriter(st),
		catalog:  cat,
		notifier: notify.New(notify.Options{Enabled: cfg.Alerts.Enabled, Logger: logger}),
		out:      os.Stdout,
	}
	defer a.writer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Web.Addr != "" {
		a.hub = web.NewHub(a.writer.LastSaved, logger)
		go a.hub.Run(ctx)
		srv := web.NewServer(a.hub, logger)
		if _, err := srv.Start(cfg.Web.Addr); err != nil {
			return fmt.Errorf("starting web mirror: %w", err)
		}
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shutCtx)
		}()
	}

	var restore *ui.Restored
	if o.fresh {
		if err := st.Clear(ctx); err != nil {
			logger.Warn("clearing saved pet", "err", err)
		}
	} else if rec, ok := st.Load(ctx); ok {
		restore = &ui.Restored{Pet: rec.Pet(), Needs: rec.Needs(), Sleeping: rec.IsSleeping}
	}

	logger.Info("starting pokepet", "backend", cfg.Save.Backend, "restored", restore != nil, "headless", o.headless)
	if o.headless {
		return a.runHeadless(ctx, restore)
	}
	return a.runUI(ctx, restore)
}

// subscribe attaches the shared observers in delivery order.
func (a *app) subscribe(e *engine.Engine) {
	e.Subscribe(store.NewPersister(a.writer))
	e.Subscribe(a.notifier)
	if a.hub != nil {
		e.Subscribe(a.hub)
	}
}

func (a *app) runUI(ctx context.Context, restore *ui.Restored) error {
	var program *tea.Program
	loop := schedule.NewLoop(ui.Post(func(msg tea.Msg) { program.Send(msg) }))

	e := engine.New(a.cfg.Engine(), loop, a.log)
	events := &engine.Recorder{}
	e.Subscribe(events)
	a.subscribe(e)
	defer e.Stop()

	model := ui.NewModel(ui.Deps{
		Engine:    e,
		Events:    events,
		Catalog:   a.catalog,
		Focus:     a.notifier,
		LastSaved: a.writer.LastSaved,
		Logger:    a.log,
		Restore:   restore,
	})
	program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus(), tea.WithContext(ctx))

	_, err := program.Run()
	a.notifier.Wait()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func showStatus(cfg *config.Config, st *store.Store) error {
	rec, ok := st.Load(context.Background())
	if !ok {
		fmt.Println("No saved Pokémon.")
		return nil
	}
	p := rec.Pet()
	mode := pet.Awake
	if rec.IsSleeping {
		mode = pet.Asleep
	}
	return ui.DisplayStats(ui.StatsModel{
		Name:      pet.DisplayName(p),
		Species:   pet.Capitalize(p.Display.Name),
		Needs:     rec.Needs(),
		Mode:      mode,
		SavedAt:   rec.SavedAt(),
		Threshold: cfg.Game.CriticalThreshold,
	})
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Alas, there's been an error: %v\n", err)
		os.Exit(1)
	}
}
