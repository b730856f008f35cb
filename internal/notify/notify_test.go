package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"pokepet/internal/engine"
	"pokepet/internal/pet"
	"pokepet/internal/schedule"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{name, args})
	return f.err
}

func (f *fakeRunner) got() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func newTestNotifier(enabled bool, goos string, r *fakeRunner) *Notifier {
	return New(Options{
		Enabled: enabled,
		GOOS:    goos,
		Run:     r.run,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func critical(msg string) engine.Event {
	return engine.Event{Kind: engine.EventCritical, Gauge: pet.Hunger, Message: msg}
}

func TestNotifierGating(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		focused bool
		want    int
	}{
		{"enabled and in background", true, false, 1},
		{"enabled but focused", true, true, 0},
		{"disabled in background", false, false, 0},
		{"disabled and focused", false, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{}
			n := newTestNotifier(tt.enabled, "linux", r)
			n.SetFocused(tt.focused)

			n.Notify(critical("Pikachu is hungry!"))
			n.Wait()

			assert.Len(t, r.got(), tt.want)
		})
	}
}

func TestNotifierStartsFocused(t *testing.T) {
	r := &fakeRunner{}
	n := newTestNotifier(true, "linux", r)

	n.Notify(critical("Pikachu is hungry!"))
	n.Wait()

	assert.Empty(t, r.got())
}

func TestNotifierIgnoresOrdinaryEvents(t *testing.T) {
	r := &fakeRunner{}
	n := newTestNotifier(true, "linux", r)
	n.SetFocused(false)

	n.Notify(engine.Event{Kind: engine.EventChanged})
	n.Notify(engine.Event{Kind: engine.EventMessage, Message: "You fed Pikachu."})
	n.Wait()

	assert.Empty(t, r.got())
}

func TestNotifierSendsGameOver(t *testing.T) {
	r := &fakeRunner{}
	n := newTestNotifier(true, "linux", r)
	n.SetFocused(false)

	n.Notify(engine.Event{
		Kind:     engine.EventGameOver,
		Gauge:    pet.Hunger,
		Cause:    engine.CauseStarved,
		Snapshot: engine.Snapshot{Name: "Pikachu", Mode: pet.GameOver},
	})
	n.Wait()

	assert.Equal(t, []call{{"notify-send", []string{"--app-name=pokepet", Title, "Oh no! Pikachu starved and ran away!"}}}, r.got())
}

func TestNotifierGameOverFromEngine(t *testing.T) {
	r := &fakeRunner{}
	n := newTestNotifier(true, "linux", r)
	n.SetFocused(false)

	sched := schedule.NewManual()
	e := engine.New(engine.DefaultConfig(), sched, slog.New(slog.NewTextHandler(io.Discard, nil)))
	e.Subscribe(n)
	e.Restore(pet.New(25, pet.DisplayData{Name: "pikachu"}), pet.Needs{Hunger: 2, Happiness: 50, Energy: 50}, false)
	n.Wait()
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()

	e.DecayTick()
	n.Wait()

	got := r.got()
	assert.Equal(t, pet.GameOver, e.Snapshot().Mode)
	if assert.Len(t, got, 1) {
		assert.Equal(t, "Oh no! Pikachu starved and ran away!", got[0].args[2])
	}
}

func TestNotifierGameOverFocused(t *testing.T) {
	r := &fakeRunner{}
	n := newTestNotifier(true, "linux", r)

	n.Notify(engine.Event{Kind: engine.EventGameOver, Cause: engine.CauseSad, Snapshot: engine.Snapshot{Name: "Eevee"}})
	n.Wait()

	assert.Empty(t, r.got())
}

func TestNotifierSendsLinuxCommand(t *testing.T) {
	r := &fakeRunner{}
	n := newTestNotifier(true, "linux", r)
	n.SetFocused(false)

	n.Notify(critical("Pikachu is bored!"))
	n.Wait()

	assert.Equal(t, []call{{"notify-send", []string{"--app-name=pokepet", Title, "Pikachu is bored!"}}}, r.got())
}

func TestNotifierRunFailureIsLogged(t *testing.T) {
	r := &fakeRunner{err: errors.New("exit status 1")}
	n := newTestNotifier(true, "linux", r)
	n.SetFocused(false)

	n.Notify(critical("Pikachu is tired!"))
	n.Wait()

	assert.Len(t, r.got(), 1)
}

func TestNotifierUnsupportedPlatform(t *testing.T) {
	r := &fakeRunner{}
	n := newTestNotifier(true, "plan9", r)
	n.SetFocused(false)

	n.Notify(critical("Pikachu is tired!"))
	n.Wait()

	assert.Empty(t, r.got())
}

func TestCommandDarwinQuotes(t *testing.T) {
	name, args, ok := Command("darwin", "T", `Say "hi" \ bye`)

	assert.True(t, ok)
	assert.Equal(t, "osascript", name)
	assert.Equal(t, []string{"-e", `display notification "Say \"hi\" \\ bye" with title "T"`}, args)
}
