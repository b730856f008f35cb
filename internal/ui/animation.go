package ui

import (
	"fmt"
	"time"
)

// AnimationType selects the sequence played after an action.
type AnimationType int

const (
	AnimNone AnimationType = iota
	AnimFeed
	AnimPlay
	AnimSleep
)

// Animation is the sequence currently on screen. StartTime identifies it so
// ticks from an earlier sequence can be dropped.
type Animation struct {
	Type      AnimationType
	Frame     int
	StartTime time.Time
}

type sequence struct {
	frames  []string
	pace    time.Duration
	caption string // formatted with the pet's name
}

var sequences = map[AnimationType]sequence{
	AnimFeed: {
		pace:    180 * time.Millisecond,
		caption: "%s is eating...",
		frames: []string{
			"  🍓          ◕‿◕",
			"      🍓      ◕‿◕",
			"          🍓  ◕o◕",
			"             ◕ڡ◕  nom",
			"             ◕ڡ◕  nom nom",
		},
	},
	AnimPlay: {
		pace:    200 * time.Millisecond,
		caption: "%s is playing!",
		frames: []string{
			"  ◓              ◕‿◕",
			"       ◓         ◕‿◕",
			"            ◓    ◕o◕",
			"                ◓◕‿◕/",
			"            ◓   \\◕‿◕",
			"  ◓              ◕ᴗ◕  ♪",
		},
	},
	AnimSleep: {
		pace:    300 * time.Millisecond,
		caption: "%s is getting sleepy...",
		frames: []string{
			"  ◕‿◕",
			"  -‿◕   z",
			"  -‿-   z z",
			"  -‿-   z z Z",
		},
	},
}

// FrameDuration is how long each frame of t stays on screen.
func FrameDuration(t AnimationType) time.Duration {
	if s, ok := sequences[t]; ok {
		return s.pace
	}
	return 0
}

// FrameCount is the number of frames in t.
func FrameCount(t AnimationType) int {
	return len(sequences[t].frames)
}

// Done reports whether every frame has been shown.
func (a Animation) Done() bool {
	return a.Frame >= FrameCount(a.Type)
}

// Render draws the current frame with its caption. Past the end it holds the
// last frame.
func (a Animation) Render(name string) string {
	s, ok := sequences[a.Type]
	if !ok || len(s.frames) == 0 {
		return ""
	}
	i := min(a.Frame, len(s.frames)-1)
	return s.frames[i] + "\n\n" + fmt.Sprintf(s.caption, name)
}
