// Package notify sends low-gauge alerts to the desktop while the terminal is
// in the background.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"pokepet/internal/engine"
)

// Title heads every desktop notification.
const Title = "Pokémon Tamagotchi"

const sendTimeout = 5 * time.Second

// Runner executes an external command.
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

type Options struct {
	// Enabled is the user's permission to show notifications.
	Enabled bool
	GOOS    string
	Run     Runner
	Logger  *slog.Logger
}

// Notifier is an engine observer. It only sends when alerts are enabled and
// the terminal does not have focus.
type Notifier struct {
	enabled bool
	goos    string
	run     Runner
	log     *slog.Logger

	mu      sync.Mutex
	focused bool
	wg      sync.WaitGroup
}

func New(opts Options) *Notifier {
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.Run == nil {
		opts.Run = execRunner
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Notifier{
		enabled: opts.Enabled,
		goos:    opts.GOOS,
		run:     opts.Run,
		log:     opts.Logger,
		focused: true,
	}
}

// SetFocused records whether the terminal currently has focus.
func (n *Notifier) SetFocused(focused bool) {
	n.mu.Lock()
	n.focused = focused
	n.mu.Unlock()
}

func (n *Notifier) allowed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.enabled && !n.focused
}

// Notify implements engine.Observer. Critical alerts and game over are sent;
// commands run in the background.
func (n *Notifier) Notify(ev engine.Event) {
	body, ok := alertBody(ev)
	if !ok || !n.allowed() {
		return
	}
	name, args, ok := Command(n.goos, Title, body)
	if !ok {
		n.log.Debug("no desktop notifier for platform", "goos", n.goos)
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := n.run(ctx, name, args...); err != nil {
			n.log.Warn("desktop notification failed", "cmd", name, "err", err)
		}
	}()
}

func alertBody(ev engine.Event) (string, bool) {
	switch ev.Kind {
	case engine.EventCritical:
		return ev.Message, true
	case engine.EventGameOver:
		return fmt.Sprintf("Oh no! %s %s and ran away!", ev.Snapshot.Name, ev.Cause), true
	}
	return "", false
}

// Wait blocks until every notification started so far has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// Command builds the platform's notification command.
func Command(goos, title, body string) (string, []string, bool) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return "notify-send", []string{"--app-name=pokepet", title, body}, true
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s", appleQuote(body), appleQuote(title))
		return "osascript", []string{"-e", script}, true
	}
	return "", nil, false
}

func appleQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
