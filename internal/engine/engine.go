// Package engine is the pet's state machine. It owns the active pet, its
// needs and mode, and the two timers that drive them: the decay ticker and
// the sleep auto-wake timer. All methods must be called from one goroutine.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"pokepet/internal/pet"
	"pokepet/internal/schedule"
)

// Config holds the engine's tunables.
type Config struct {
	TickPeriod        time.Duration
	SleepDuration     time.Duration
	CriticalThreshold float64
	Awake             pet.Delta
	Asleep            pet.Delta
}

// DefaultConfig returns the standard game balance.
func DefaultConfig() Config {
	return Config{
		TickPeriod:        pet.DefaultTickPeriod,
		SleepDuration:     pet.DefaultSleepDuration,
		CriticalThreshold: pet.LowStatThreshold,
		Awake: pet.Delta{
			Hunger:    pet.AwakeHungerDelta,
			Happiness: pet.AwakeHappinessDelta,
			Energy:    pet.AwakeEnergyDelta,
		},
		Asleep: pet.Delta{
			Hunger:    pet.AsleepHungerDelta,
			Happiness: pet.AsleepHappinessDelta,
			Energy:    pet.AsleepEnergyDelta,
		},
	}
}

// Snapshot is a read-only copy of the engine state.
type Snapshot struct {
	Active bool       `json:"active"`
	Pet    pet.Pet    `json:"pet"`
	Name   string     `json:"name"`
	Needs  pet.Needs  `json:"needs"`
	Mode   pet.Mode   `json:"mode"`
	Status pet.Status `json:"status"`
	Cause  Cause      `json:"cause,omitempty"`
}

// Result reports whether an action was applied. A rejected action is not an
// error; Message explains it to the player.
type Result struct {
	Accepted bool
	Message  string
}

// Engine is the decay/action state machine.
type Engine struct {
	cfg       Config
	sched     schedule.Scheduler
	log       *slog.Logger
	observers []Observer

	active bool
	pet    pet.Pet
	needs  pet.Needs
	mode   pet.Mode
	cause  Cause

	ticker     schedule.Handle
	sleepTimer schedule.Handle
	tickGen    int
	sleepGen   int

	lastMessage string
}

// New creates an engine with no pet. Call Start or Restore to begin.
func New(cfg Config, sched schedule.Scheduler, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, sched: sched, log: logger}
}

// Subscribe adds an observer. Observers are notified in subscription order.
func (e *Engine) Subscribe(o Observer) {
	e.observers = append(e.observers, o)
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Start replaces the active pet with p at full needs, awake, and re-arms the
// decay ticker. Timers owned by the previous pet are canceled first.
func (e *Engine) Start(p pet.Pet) {
	e.stopTimers()
	e.active = true
	e.pet = p
	e.needs = pet.Fresh()
	e.mode = pet.Awake
	e.cause = CauseNone
	e.armTicker()

	e.log.Info("new pet", "catalog_id", p.CatalogID, "name", pet.DisplayName(p))
	e.message(fmt.Sprintf("A wild %s appeared!", pet.Capitalize(p.Display.Name)))
	e.emit(Event{Kind: EventChanged})
}

// Restore resumes a saved pet. A sleeping pet gets a fresh auto-wake timer.
func (e *Engine) Restore(p pet.Pet, needs pet.Needs, sleeping bool) {
	e.stopTimers()
	e.active = true
	e.pet = p
	e.needs = needs.Clamp()
	e.mode = pet.Awake
	e.cause = CauseNone
	e.armTicker()
	if sleeping {
		e.mode = pet.Asleep
		e.armSleepTimer()
	}

	e.log.Info("restored pet", "catalog_id", p.CatalogID, "name", pet.DisplayName(p), "mode", e.mode)
	e.message(fmt.Sprintf("Welcome back! Your %s missed you!", pet.DisplayName(p)))
	e.evaluate()
}

// Stop cancels every timer the engine owns. The state is left as is.
func (e *Engine) Stop() {
	e.stopTimers()
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Active: e.active,
		Pet:    e.pet,
		Name:   pet.DisplayName(e.pet),
		Needs:  e.needs,
		Mode:   e.mode,
		Status: e.Status(),
		Cause:  e.cause,
	}
}

// Status derives the current status label.
func (e *Engine) Status() pet.Status {
	return pet.GetStatus(e.needs, e.mode, e.cfg.CriticalThreshold)
}

// DecayTick applies one tick of decay for the current mode.
func (e *Engine) DecayTick() {
	if !e.active || e.mode == pet.GameOver {
		return
	}
	delta := e.cfg.Awake
	if e.mode == pet.Asleep {
		delta = e.cfg.Asleep
	}
	e.needs = e.needs.Apply(delta)
	e.log.Debug("decay tick", "mode", e.mode, "hunger", e.needs.Hunger, "happiness", e.needs.Happiness, "energy", e.needs.Energy)
	e.evaluate()
}

// Feed raises hunger and costs a little energy.
func (e *Engine) Feed() Result {
	if r, ok := e.rejectUnlessActive(); !ok {
		return r
	}
	name := pet.DisplayName(e.pet)
	if e.mode == pet.Asleep {
		return e.reject(fmt.Sprintf("%s is sleeping! Don't disturb it.", name))
	}
	if e.needs.Hunger >= pet.MaxStat {
		return e.reject(fmt.Sprintf("%s is not hungry right now.", name))
	}

	e.needs = e.needs.Apply(pet.Delta{Hunger: pet.FeedHungerIncrease, Energy: -pet.FeedEnergyDecrease})
	e.log.Info("fed pet", "hunger", e.needs.Hunger, "energy", e.needs.Energy)
	return e.accept(fmt.Sprintf("You fed %s. It's less hungry now!", name))
}

// Play raises happiness at the cost of energy and hunger.
func (e *Engine) Play() Result {
	if r, ok := e.rejectUnlessActive(); !ok {
		return r
	}
	name := pet.DisplayName(e.pet)
	if e.mode == pet.Asleep {
		return e.reject(fmt.Sprintf("%s is sleeping! Let it rest.", name))
	}
	if e.needs.Energy < pet.PlayMinEnergy {
		return e.reject(fmt.Sprintf("%s is too tired to play.", name))
	}

	e.needs = e.needs.Apply(pet.Delta{
		Hunger:    -pet.PlayHungerDecrease,
		Happiness: pet.PlayHappinessIncrease,
		Energy:    -pet.PlayEnergyDecrease,
	})
	e.log.Info("played with pet", "happiness", e.needs.Happiness, "energy", e.needs.Energy, "hunger", e.needs.Hunger)
	return e.accept(fmt.Sprintf("You played with %s. It had lots of fun!", name))
}

// Sleep puts the pet to sleep and arms the auto-wake timer. Sleeping while
// already asleep changes nothing.
func (e *Engine) Sleep() Result {
	if r, ok := e.rejectUnlessActive(); !ok {
		return r
	}
	if e.mode == pet.Asleep {
		return Result{}
	}
	e.mode = pet.Asleep
	e.armSleepTimer()
	e.log.Info("pet fell asleep", "wake_in", e.cfg.SleepDuration)
	e.message(fmt.Sprintf("%s went to sleep. Zzz...", pet.DisplayName(e.pet)))
	e.emit(Event{Kind: EventChanged})
	return Result{Accepted: true, Message: e.lastMessage}
}

// Wake wakes the pet and cancels the auto-wake timer. Waking an awake pet
// changes nothing.
func (e *Engine) Wake() Result {
	if r, ok := e.rejectUnlessActive(); !ok {
		return r
	}
	if e.mode != pet.Asleep {
		return Result{}
	}
	e.mode = pet.Awake
	e.cancelSleepTimer()
	e.log.Info("pet woke up")
	e.message(fmt.Sprintf("%s woke up!", pet.DisplayName(e.pet)))
	e.emit(Event{Kind: EventChanged})
	return Result{Accepted: true, Message: e.lastMessage}
}

// ToggleSleep wakes a sleeping pet or puts an awake one to sleep.
func (e *Engine) ToggleSleep() Result {
	if e.mode == pet.Asleep {
		return e.Wake()
	}
	return e.Sleep()
}

// Rename sets or clears the pet's nickname.
func (e *Engine) Rename(name string) Result {
	if !e.active {
		return Result{}
	}
	e.pet = pet.Rename(e.pet, name)
	e.log.Info("renamed pet", "nickname", e.pet.Nickname)
	e.emit(Event{Kind: EventChanged})
	return Result{Accepted: true}
}

// CheckGameOver moves to GameOver the moment any gauge is at or below zero.
// It reports whether the pet is (now) gone.
func (e *Engine) CheckGameOver() bool {
	if !e.active {
		return false
	}
	if e.mode == pet.GameOver {
		return true
	}
	g, depleted := e.needs.Depleted()
	if !depleted {
		return false
	}

	e.mode = pet.GameOver
	e.cause = CauseFor(g)
	e.stopTimers()

	e.log.Info("game over", "cause", string(e.cause), "gauge", g.String())
	e.message(fmt.Sprintf("Oh no! %s %s and ran away!", pet.DisplayName(e.pet), e.cause))
	e.emit(Event{Kind: EventGameOver, Gauge: g, Cause: e.cause})
	return true
}

// CheckCriticalStats emits one alert per gauge at or below the critical
// threshold and returns the gauges it alerted on. A pet that ran away raises
// no alerts.
func (e *Engine) CheckCriticalStats() []pet.Gauge {
	if !e.active || e.mode == pet.GameOver {
		return nil
	}
	var low []pet.Gauge
	name := pet.DisplayName(e.pet)
	for _, g := range pet.Gauges {
		if e.needs.Get(g) > e.cfg.CriticalThreshold {
			continue
		}
		low = append(low, g)
		e.emit(Event{Kind: EventCritical, Gauge: g, Message: fmt.Sprintf("%s is %s!", name, alertWord(g))})
	}
	return low
}

func alertWord(g pet.Gauge) string {
	switch g {
	case pet.Hunger:
		return "hungry"
	case pet.Happiness:
		return "bored"
	default:
		return "tired"
	}
}

// evaluate runs after every change to the needs: game over first, then the
// low-gauge alerts, then the change notification.
func (e *Engine) evaluate() {
	if !e.CheckGameOver() {
		e.CheckCriticalStats()
	}
	e.emit(Event{Kind: EventChanged})
}

func (e *Engine) armTicker() {
	e.tickGen++
	gen := e.tickGen
	e.ticker = e.sched.Every(e.cfg.TickPeriod, func() {
		if gen != e.tickGen {
			return
		}
		e.DecayTick()
	})
}

func (e *Engine) armSleepTimer() {
	e.cancelSleepTimer()
	gen := e.sleepGen
	e.sleepTimer = e.sched.After(e.cfg.SleepDuration, func() {
		if gen != e.sleepGen || e.mode != pet.Asleep {
			return
		}
		e.log.Debug("auto-wake timer fired")
		e.Wake()
	})
}

func (e *Engine) cancelSleepTimer() {
	e.sleepGen++
	schedule.Stop(e.sleepTimer)
	e.sleepTimer = nil
}

func (e *Engine) stopTimers() {
	e.tickGen++
	schedule.Stop(e.ticker)
	e.ticker = nil
	e.cancelSleepTimer()
}

func (e *Engine) rejectUnlessActive() (Result, bool) {
	if !e.active {
		return e.reject("No Pokémon yet."), false
	}
	if e.mode == pet.GameOver {
		return e.reject(fmt.Sprintf("%s ran away. Get a new Pokémon!", pet.DisplayName(e.pet))), false
	}
	return Result{}, true
}

func (e *Engine) reject(msg string) Result {
	e.log.Debug("action rejected", "reason", msg)
	e.message(msg)
	return Result{Message: msg}
}

// accept reports an applied action and then re-evaluates the needs, so a
// game-over message always follows the action's own message.
func (e *Engine) accept(msg string) Result {
	e.message(msg)
	e.evaluate()
	return Result{Accepted: true, Message: msg}
}

func (e *Engine) message(msg string) {
	e.lastMessage = msg
	e.emit(Event{Kind: EventMessage, Message: msg})
}

func (e *Engine) emit(ev Event) {
	ev.Snapshot = e.Snapshot()
	for _, o := range e.observers {
		o.Notify(ev)
	}
}
