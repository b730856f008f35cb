package pet

// Status is the derived label shown for the pet. It is never stored.
type Status string

const (
	StatusHealthy  Status = "Healthy"
	StatusSleeping Status = "Sleeping"
	StatusHungry   Status = "Hungry"
	StatusBored    Status = "Bored"
	StatusTired    Status = "Tired"
	StatusRanAway  Status = "Ran Away"
)

// GetStatus derives the status label from the current needs and mode.
func GetStatus(n Needs, mode Mode, threshold float64) Status {
	switch {
	case mode == GameOver:
		return StatusRanAway
	case mode == Asleep:
		return StatusSleeping
	case n.Hunger <= threshold:
		return StatusHungry
	case n.Happiness <= threshold:
		return StatusBored
	case n.Energy <= threshold:
		return StatusTired
	default:
		return StatusHealthy
	}
}

// Emoji returns the icon used next to the status label.
func (s Status) Emoji() string {
	switch s {
	case StatusSleeping:
		return StatusEmojiSleeping
	case StatusHungry:
		return StatusEmojiHungry
	case StatusBored:
		return StatusEmojiBored
	case StatusTired:
		return StatusEmojiTired
	case StatusRanAway:
		return StatusEmojiRanAway
	default:
		return StatusEmojiHealthy
	}
}

// GetStatusWithLabel returns the status with its icon for the UI.
func GetStatusWithLabel(s Status) string {
	return s.Emoji() + " " + string(s)
}
