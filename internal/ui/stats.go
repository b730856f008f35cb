package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"pokepet/internal/pet"
)

// StatsModel is a one-screen Bubble Tea model showing a saved pet.
type StatsModel struct {
	Name      string
	Species   string
	Needs     pet.Needs
	Mode      pet.Mode
	SavedAt   time.Time
	Threshold float64
}

// Init implements tea.Model
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, tea.Quit
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress {
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model
func (m StatsModel) View() string {
	return m.Card() + "\nPress any key to close..."
}

// Card renders the pet as a plain text block.
func (m StatsModel) Card() string {
	status := pet.GetStatus(m.Needs, m.Mode, m.Threshold)

	var s strings.Builder
	s.WriteString(fmt.Sprintf("%s (%s)\n", m.Name, pet.Capitalize(m.Species)))
	s.WriteString(fmt.Sprintf("  Status:    %s\n", pet.GetStatusWithLabel(status)))
	s.WriteString(fmt.Sprintf("  Hunger:    %s %3.0f%%\n", Bar(m.Needs.Hunger, m.Threshold), m.Needs.Hunger))
	s.WriteString(fmt.Sprintf("  Happiness: %s %3.0f%%\n", Bar(m.Needs.Happiness, m.Threshold), m.Needs.Happiness))
	s.WriteString(fmt.Sprintf("  Energy:    %s %3.0f%%\n", Bar(m.Needs.Energy, m.Threshold), m.Needs.Energy))
	if !m.SavedAt.IsZero() {
		s.WriteString(fmt.Sprintf("  Saved:     %s\n", humanize.Time(m.SavedAt)))
	}
	return s.String()
}

// DisplayStats shows the card until a key is pressed.
func DisplayStats(m StatsModel) error {
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running stats display: %w", err)
	}
	return nil
}
