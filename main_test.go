package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokepet/internal/catalog"
	"pokepet/internal/config"
	"pokepet/internal/engine"
	"pokepet/internal/notify"
	"pokepet/internal/pet"
	"pokepet/internal/store"
	"pokepet/internal/ui"
)

// withHome points the default config and state directories at a temp dir.
func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestParseFlagsRecordsOnlySetFlags(t *testing.T) {
	o, set, err := parseFlags([]string{"-backend", "sqlite", "-alerts=false", "-fresh"})
	require.NoError(t, err)

	assert.Equal(t, "sqlite", o.backend)
	assert.True(t, o.fresh)
	assert.True(t, set["backend"])
	assert.True(t, set["alerts"])
	assert.False(t, set["web"])
	assert.False(t, set["log-level"])
}

func TestParseFlagsRejectsUnknown(t *testing.T) {
	_, _, err := parseFlags([]string{"-nope"})
	assert.Error(t, err)
}

func TestLoadConfigPrecedence(t *testing.T) {
	home := withHome(t)
	dir := filepath.Join(home, ".config", "pokepet")
	require.NoError(t, os.MkdirAll(dir, 0755))
	yaml := "save:\n  backend: sqlite\nlog:\n  level: warn\nweb:\n  addr: 127.0.0.1:9000\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))
	t.Setenv("POKEPET_LOG_LEVEL", "debug")

	o, set, err := parseFlags([]string{"-backend", "memory"})
	require.NoError(t, err)
	cfg, err := loadConfig(o, set)
	require.NoError(t, err)

	assert.Equal(t, config.BackendMemory, cfg.Save.Backend, "flag beats file")
	assert.Equal(t, "debug", cfg.Log.Level, "env beats file")
	assert.Equal(t, "127.0.0.1:9000", cfg.Web.Addr, "file beats defaults")
	assert.False(t, cfg.Alerts.Enabled, "unset flag leaves default")
}

func TestLoadConfigMissingDefaultFile(t *testing.T) {
	withHome(t)
	cfg, err := loadConfig(options{}, map[string]bool{})
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadConfigExplicitFileMustExist(t *testing.T) {
	withHome(t)
	_, err := loadConfig(options{configPath: filepath.Join(t.TempDir(), "missing.yaml")}, map[string]bool{})
	assert.Error(t, err)
}

func TestLoadConfigInvalid(t *testing.T) {
	withHome(t)
	o, set, err := parseFlags([]string{"-backend", "floppy"})
	require.NoError(t, err)
	_, err = loadConfig(o, set)
	assert.ErrorContains(t, err, "save.backend")
}

func TestOpenKV(t *testing.T) {
	tests := []struct {
		backend string
		path    func(dir string) string
	}{
		{config.BackendFile, func(dir string) string { return dir }},
		{config.BackendSQLite, func(dir string) string { return filepath.Join(dir, "pets.db") }},
		{config.BackendMemory, func(string) string { return "" }},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			withHome(t)
			cfg := config.Default()
			cfg.Save.Backend = tt.backend
			cfg.Save.Path = tt.path(t.TempDir())

			kv, err := openKV(cfg)
			require.NoError(t, err)
			defer kv.Close()

			ctx := context.Background()
			require.NoError(t, kv.Put(ctx, "pet", []byte(`{"a":1}`)))
			got, err := kv.Get(ctx, "pet")
			require.NoError(t, err)
			assert.JSONEq(t, `{"a":1}`, string(got))
		})
	}
}

func TestOpenKVDefaultsUnderHome(t *testing.T) {
	home := withHome(t)
	cfg := config.Default()
	cfg.Save.Backend = config.BackendSQLite

	kv, err := openKV(cfg)
	require.NoError(t, err)
	require.NoError(t, kv.Close())
	assert.FileExists(t, filepath.Join(home, ".config", "pokepet", "pokepet.db"))
}

func TestOpenLog(t *testing.T) {
	home := withHome(t)
	cfg := config.Default()
	cfg.Log.Level = "debug"

	logger, closer, err := openLog(cfg)
	require.NoError(t, err)
	logger.Debug("hello", "n", 1)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(home, ".config", "pokepet", "pokepet.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=hello n=1")
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := printer(&buf)

	p.Notify(engine.Event{Kind: engine.EventChanged})
	p.Notify(engine.Event{Kind: engine.EventMessage, Message: "Pikachu enjoyed the food!"})
	p.Notify(engine.Event{Kind: engine.EventCritical, Message: "Pikachu is hungry!"})
	p.Notify(engine.Event{Kind: engine.EventGameOver})

	assert.Equal(t, "Pikachu enjoyed the food!\nPikachu is hungry!\n", buf.String())
}

// headlessApp wires an app against a memory store and the given catalog.
func headlessApp(t *testing.T, catalogURL string, out io.Writer) *app {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Default()

	opts := cfg.CatalogOptions()
	opts.BaseURL = catalogURL
	opts.Logger = logger
	cat, err := catalog.New(opts)
	require.NoError(t, err)

	w := store.NewWriter(store.New(store.NewMemoryKV(), store.Options{Logger: logger}))
	t.Cleanup(w.Close)
	return &app{
		cfg:      cfg,
		log:      logger,
		writer:   w,
		catalog:  cat,
		notifier: notify.New(notify.Options{Logger: logger}),
		out:      out,
	}
}

func TestHeadlessExitsWhenFirstCatchFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	var out bytes.Buffer
	a := headlessApp(t, srv.URL, &out)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := a.runHeadless(ctx, nil)

	require.ErrorIs(t, err, catalog.ErrNetwork)
	assert.NoError(t, ctx.Err(), "returned without waiting for cancellation")
	assert.Equal(t, catalog.FailureMessage+"\n", out.String())
}

func TestHeadlessRestoresSavedPet(t *testing.T) {
	var out bytes.Buffer
	a := headlessApp(t, "http://127.0.0.1:1", &out)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	restore := &ui.Restored{
		Pet:   pet.New(25, pet.DisplayData{Name: "pikachu"}),
		Needs: pet.Needs{Hunger: 80, Happiness: 80, Energy: 80},
	}

	require.NoError(t, a.runHeadless(ctx, restore))
	assert.Contains(t, out.String(), "Welcome back! Your Pikachu missed you!")
}
