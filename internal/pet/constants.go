package pet

import "time"

// TimeNow is the wall clock used for timestamps. Tests replace it.
var TimeNow = time.Now

// Game constants
const (
	MaxStat          = 100.0
	MinStat          = 0.0
	LowStatThreshold = 30.0 // Critical threshold for status labels and alerts

	DefaultTickPeriod    = 3 * time.Second  // Decay tick period
	DefaultSleepDuration = 20 * time.Second // Auto-wake after this long asleep

	// Per-tick decay while awake
	AwakeHungerDelta    = -2.0
	AwakeHappinessDelta = -2.0
	AwakeEnergyDelta    = -1.0

	// Per-tick change while asleep
	AsleepHungerDelta    = -0.5
	AsleepHappinessDelta = -0.5
	AsleepEnergyDelta    = 5.0

	FeedHungerIncrease    = 20.0
	FeedEnergyDecrease    = 5.0
	PlayHappinessIncrease = 25.0
	PlayEnergyDecrease    = 15.0
	PlayHungerDecrease    = 5.0
	PlayMinEnergy         = 20.0 // Below this the pet is too tired to play

	// Status emojis
	StatusEmojiHealthy  = "😸"
	StatusEmojiSleeping = "😴"
	StatusEmojiHungry   = "🙀"
	StatusEmojiBored    = "😿"
	StatusEmojiTired    = "😾"
	StatusEmojiRanAway  = "💨"
)

// Mode is the engine's lifecycle state for the active pet.
type Mode int

const (
	Awake Mode = iota
	Asleep
	GameOver
)

func (m Mode) String() string {
	switch m {
	case Awake:
		return "awake"
	case Asleep:
		return "asleep"
	case GameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// MarshalText renders the mode by name in JSON.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Gauge identifies one of the three needs.
type Gauge int

const (
	Hunger Gauge = iota
	Happiness
	Energy
)

// Gauges lists every gauge in game-over priority order.
var Gauges = []Gauge{Hunger, Happiness, Energy}

func (g Gauge) String() string {
	switch g {
	case Hunger:
		return "hunger"
	case Happiness:
		return "happiness"
	case Energy:
		return "energy"
	default:
		return "unknown"
	}
}
