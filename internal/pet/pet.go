package pet

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DisplayData is what the catalog returned for a creature. The engine never
// looks inside it; it is carried along for rendering and persistence.
type DisplayData struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

// Pet is the identity of the active creature.
type Pet struct {
	CatalogID int         `json:"catalogId"`
	Display   DisplayData `json:"displayData"`
	Nickname  string      `json:"nickname,omitempty"`
}

// New creates a pet with no nickname.
func New(catalogID int, display DisplayData) Pet {
	return Pet{CatalogID: catalogID, Display: display}
}

// Rename returns p with a new nickname. Surrounding whitespace is trimmed and
// an empty result clears the nickname so the catalog name is shown again.
func Rename(p Pet, name string) Pet {
	p.Nickname = strings.TrimSpace(name)
	return p
}

// DisplayName is the name every observer shows for the pet.
func DisplayName(p Pet) string {
	if p.Nickname != "" {
		return p.Nickname
	}
	return Capitalize(p.Display.Name)
}

// Capitalize upper-cases the first letter of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Needs holds the three gauges, each in [MinStat, MaxStat].
type Needs struct {
	Hunger    float64 `json:"hunger"`
	Happiness float64 `json:"happiness"`
	Energy    float64 `json:"energy"`
}

// Delta is a signed change applied to every gauge at once.
type Delta struct {
	Hunger    float64 `yaml:"hunger" json:"hunger"`
	Happiness float64 `yaml:"happiness" json:"happiness"`
	Energy    float64 `yaml:"energy" json:"energy"`
}

// Fresh returns the needs of a newly created pet.
func Fresh() Needs {
	return Needs{Hunger: MaxStat, Happiness: MaxStat, Energy: MaxStat}
}

// Apply adds d to n and clamps the result.
func (n Needs) Apply(d Delta) Needs {
	n.Hunger += d.Hunger
	n.Happiness += d.Happiness
	n.Energy += d.Energy
	return n.Clamp()
}

// Clamp forces every gauge into range.
func (n Needs) Clamp() Needs {
	n.Hunger = clamp(n.Hunger)
	n.Happiness = clamp(n.Happiness)
	n.Energy = clamp(n.Energy)
	return n
}

// Get returns the value of a single gauge.
func (n Needs) Get(g Gauge) float64 {
	switch g {
	case Hunger:
		return n.Hunger
	case Happiness:
		return n.Happiness
	case Energy:
		return n.Energy
	}
	return 0
}

// Depleted returns the first gauge at or below zero in priority order.
func (n Needs) Depleted() (Gauge, bool) {
	for _, g := range Gauges {
		if n.Get(g) <= MinStat {
			return g, true
		}
	}
	return 0, false
}

func clamp(v float64) float64 {
	return max(MinStat, min(v, MaxStat))
}
