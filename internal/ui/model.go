package ui

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"pokepet/internal/catalog"
	"pokepet/internal/engine"
	"pokepet/internal/pet"
)

const (
	messageDuration = 3 * time.Second
	fetchTimeout    = 15 * time.Second
	maxNicknameLen  = 20
)

// Fetcher picks a random catalog creature.
type Fetcher interface {
	FetchRandom(ctx context.Context) (catalog.Entry, error)
}

// FocusListener is told when the terminal gains or loses focus.
type FocusListener interface {
	SetFocused(bool)
}

// Deps is what the model drives. Engine and Events are required; Events must
// be subscribed to Engine.
type Deps struct {
	Engine    *engine.Engine
	Events    *engine.Recorder
	Catalog   Fetcher
	Focus     FocusListener
	LastSaved func() time.Time
	Logger    *slog.Logger

	// Restore, when set, resumes a saved pet instead of fetching a new one.
	Restore *Restored
}

// Restored is a saved pet to resume on start.
type Restored struct {
	Pet      pet.Pet
	Needs    pet.Needs
	Sleeping bool
}

// Model is the Bubble Tea model. All engine calls happen inside Update.
type Model struct {
	deps Deps
	log  *slog.Logger

	Snap           engine.Snapshot
	Choice         int
	Quitting       bool
	Message        string
	MessageExpires time.Time
	Alert          string
	AlertExpires   time.Time
	Animation      Animation

	Loading  bool
	fetchSeq int

	Renaming bool
	Input    []rune
}

// RunMsg carries a timer callback onto the update loop.
type RunMsg func()

type restoreMsg struct{ r Restored }

type fetchedMsg struct {
	seq   int
	entry catalog.Entry
	err   error
}

type animTickMsg struct {
	started time.Time
}

// NewModel creates the model. Nothing touches the engine until Init runs.
func NewModel(d Deps) Model {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return Model{deps: d, log: logger, Snap: d.Engine.Snapshot()}
}

// Post returns a function for schedule.NewLoop that delivers callbacks
// through send, usually (*tea.Program).Send.
func Post(send func(tea.Msg)) func(func()) {
	return func(fn func()) { send(RunMsg(fn)) }
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	if r := m.deps.Restore; r != nil {
		restored := *r
		return func() tea.Msg { return restoreMsg{restored} }
	}
	return func() tea.Msg { return newPetMsg{} }
}

type newPetMsg struct{}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case RunMsg:
		msg()

	case restoreMsg:
		m.deps.Engine.Restore(msg.r.Pet, msg.r.Needs, msg.r.Sleeping)

	case newPetMsg:
		cmd = m.newPet()

	case fetchedMsg:
		if msg.seq != m.fetchSeq {
			m.log.Debug("dropping stale catalog result", "seq", msg.seq, "current", m.fetchSeq)
			break
		}
		m.Loading = false
		if msg.err != nil {
			m.setMessage(catalog.FailureMessage)
			break
		}
		m.Choice = 0
		m.deps.Engine.Start(pet.New(msg.entry.ID, msg.entry.Display()))

	case tea.FocusMsg:
		if m.deps.Focus != nil {
			m.deps.Focus.SetFocused(true)
		}

	case tea.BlurMsg:
		if m.deps.Focus != nil {
			m.deps.Focus.SetFocused(false)
		}

	case animTickMsg:
		// Drop ticks that belong to an older animation
		if m.Animation.Type == AnimNone || !m.Animation.StartTime.Equal(msg.started) {
			break
		}
		m.Animation.Frame++
		if m.Animation.Done() {
			m.Animation = Animation{}
			break
		}
		cmd = animTick(m.Animation)

	case tea.KeyMsg:
		cmd = m.handleKey(msg)
	}

	m.drainEvents()
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		m.Quitting = true
		return tea.Quit
	}
	if m.Renaming {
		m.handleRenameKey(msg)
		return nil
	}

	// While an animation is playing, ignore inputs except quit
	if m.Animation.Type != AnimNone {
		if msg.String() == "q" {
			m.Quitting = true
			return tea.Quit
		}
		return nil
	}

	items := m.menu()
	switch msg.String() {
	case "q":
		m.Quitting = true
		return tea.Quit
	case "up", "k":
		if m.Choice > 0 {
			m.Choice--
		}
	case "down", "j":
		if m.Choice < len(items)-1 {
			m.Choice++
		}
	case "enter", " ":
		if m.Choice < len(items) {
			return m.do(items[m.Choice].action)
		}
	default:
		for _, it := range items {
			if it.key == msg.String() {
				return m.do(it.action)
			}
		}
	}
	return nil
}

type action int

const (
	actFeed action = iota
	actPlay
	actSleep
	actRename
	actNewPet
	actQuit
)

type menuItem struct {
	label  string
	key    string
	action action
}

// menu lists what the player can do right now.
func (m Model) menu() []menuItem {
	if !m.Snap.Active || m.Snap.Mode == pet.GameOver {
		return []menuItem{
			{"New Pokémon", "n", actNewPet},
			{"Quit", "q", actQuit},
		}
	}
	sleep := "Sleep"
	if m.Snap.Mode == pet.Asleep {
		sleep = "Wake"
	}
	return []menuItem{
		{"Feed", "f", actFeed},
		{"Play", "p", actPlay},
		{sleep, "s", actSleep},
		{"Rename", "r", actRename},
		{"New Pokémon", "n", actNewPet},
		{"Quit", "q", actQuit},
	}
}

func (m *Model) do(a action) tea.Cmd {
	e := m.deps.Engine
	switch a {
	case actFeed:
		if r := e.Feed(); r.Accepted {
			return m.startAnimation(AnimFeed)
		}
	case actPlay:
		if r := e.Play(); r.Accepted {
			return m.startAnimation(AnimPlay)
		}
	case actSleep:
		wasAsleep := m.Snap.Mode == pet.Asleep
		if r := e.ToggleSleep(); r.Accepted && !wasAsleep {
			return m.startAnimation(AnimSleep)
		}
	case actRename:
		m.Renaming = true
		m.Input = []rune(truncateRunes(m.Snap.Name, maxNicknameLen))
	case actNewPet:
		return m.newPet()
	case actQuit:
		m.Quitting = true
		return tea.Quit
	}
	return nil
}

func (m *Model) handleRenameKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEsc:
		m.Renaming = false
		m.Input = nil
	case tea.KeyEnter:
		name := strings.TrimSpace(string(m.Input))
		// The prefilled species name is not a nickname.
		if m.Snap.Pet.Nickname != "" || name != m.Snap.Name {
			m.deps.Engine.Rename(name)
		}
		m.Renaming = false
		m.Input = nil
	case tea.KeyBackspace:
		if len(m.Input) > 0 {
			m.Input = m.Input[:len(m.Input)-1]
		}
	case tea.KeySpace:
		m.appendInput(' ')
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			m.appendInput(r)
		}
	}
}

func (m *Model) appendInput(r rune) {
	if len(m.Input) >= maxNicknameLen || !unicode.IsPrint(r) {
		return
	}
	m.Input = append(m.Input, r)
}

// newPet starts a fetch. Results of earlier fetches are ignored from here on.
func (m *Model) newPet() tea.Cmd {
	if m.deps.Catalog == nil {
		m.setMessage(catalog.FailureMessage)
		return nil
	}
	m.fetchSeq++
	m.Loading = true
	seq := m.fetchSeq
	c := m.deps.Catalog
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		e, err := c.FetchRandom(ctx)
		return fetchedMsg{seq: seq, entry: e, err: err}
	}
}

// drainEvents applies everything the engine reported since the last update.
func (m *Model) drainEvents() {
	for _, ev := range m.deps.Events.Drain() {
		switch ev.Kind {
		case engine.EventMessage:
			m.setMessage(ev.Message)
		case engine.EventCritical:
			m.setAlert(ev.Message)
		case engine.EventGameOver:
			m.Animation = Animation{}
			m.Choice = 0
			m.Alert = ""
		}
	}
	m.Snap = m.deps.Engine.Snapshot()
	if items := m.menu(); m.Choice >= len(items) {
		m.Choice = len(items) - 1
	}
}

func (m *Model) setMessage(msg string) {
	m.Message = msg
	m.MessageExpires = pet.TimeNow().Add(messageDuration)
}

// setAlert collects the alerts of one tick on a single line.
func (m *Model) setAlert(msg string) {
	now := pet.TimeNow()
	switch {
	case m.Alert == "" || !now.Before(m.AlertExpires):
		m.Alert = msg
	case !strings.Contains(m.Alert, msg):
		m.Alert += "  " + msg
	}
	m.AlertExpires = now.Add(messageDuration)
}

func (m *Model) startAnimation(animType AnimationType) tea.Cmd {
	m.Animation = Animation{
		Type:      animType,
		Frame:     0,
		StartTime: pet.TimeNow(),
	}
	return animTick(m.Animation)
}

func animTick(a Animation) tea.Cmd {
	return tea.Tick(FrameDuration(a.Type), func(time.Time) tea.Msg {
		return animTickMsg{started: a.StartTime}
	})
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
