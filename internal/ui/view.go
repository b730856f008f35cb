package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"pokepet/internal/engine"
	"pokepet/internal/pet"
)

const barWidth = 20

var gameStyles = struct {
	title   lipgloss.Style
	status  lipgloss.Style
	menu    lipgloss.Style
	menuBox lipgloss.Style
	stats   lipgloss.Style
	alert   lipgloss.Style
	faint   lipgloss.Style
	barOK   lipgloss.Style
	barLow  lipgloss.Style
}{
	title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFCB05")).
		Padding(0, 1),

	status: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFCB05")).
		Width(48),

	stats: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFCB05")),

	menu: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFCB05")),

	menuBox: lipgloss.NewStyle().
		Padding(0, 2),

	alert: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF3B30")),

	faint: lipgloss.NewStyle().
		Faint(true),

	barOK: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4CD964")),

	barLow: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF3B30")),
}

// View implements tea.Model
func (m Model) View() string {
	if m.Quitting {
		return "Thanks for playing!\n"
	}
	if !m.Snap.Active {
		return m.emptyView()
	}
	if m.Snap.Mode == pet.GameOver {
		return m.gameOverView()
	}
	if m.Animation.Type != AnimNone {
		return m.renderAnimation()
	}

	sections := []string{
		m.renderTitle(),
		"",
		m.renderStats(),
		"",
		m.renderStatus(),
	}

	if alert := m.activeAlert(); alert != "" {
		sections = append(sections, gameStyles.alert.Render(alert))
	}
	if msg := m.activeMessage(); msg != "" {
		sections = append(sections, "", gameStyles.status.Render(msg))
	}

	if m.Renaming {
		sections = append(sections,
			"",
			gameStyles.status.Render("Nickname: "+string(m.Input)+"█"),
			gameStyles.faint.Render("enter to save • esc to cancel • empty clears"),
		)
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	sections = append(sections,
		"",
		m.renderMenu(),
		"",
		gameStyles.faint.Render(m.helpText()),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTitle() string {
	title := gameStyles.title.Render("⚡ " + m.Snap.Name + " ⚡")
	if m.Snap.Pet.Nickname != "" {
		title += gameStyles.faint.Render(" (" + pet.Capitalize(m.Snap.Pet.Display.Name) + ")")
	}
	return title
}

func (m Model) renderStats() string {
	threshold := m.deps.Engine.Config().CriticalThreshold
	rows := []struct {
		name string
		g    pet.Gauge
	}{
		{"Hunger", pet.Hunger},
		{"Happiness", pet.Happiness},
		{"Energy", pet.Energy},
	}

	var lines []string
	for _, r := range rows {
		v := m.Snap.Needs.Get(r.g)
		lines = append(lines, fmt.Sprintf("%-10s %s %3.0f%%", r.name+":", Bar(v, threshold), v))
	}
	return gameStyles.stats.Render(strings.Join(lines, "\n"))
}

// Bar draws a gauge, red at or below threshold.
func Bar(value, threshold float64) string {
	filled := int(value / pet.MaxStat * barWidth)
	if value > 0 && filled == 0 {
		filled = 1
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	if value <= threshold {
		return gameStyles.barLow.Render(bar)
	}
	return gameStyles.barOK.Render(bar)
}

func (m Model) renderStatus() string {
	line := fmt.Sprintf("Status: %s", pet.GetStatusWithLabel(m.Snap.Status))
	if m.Loading {
		line += "  (finding a new Pokémon...)"
	}
	return gameStyles.status.Render(line)
}

func (m Model) renderMenu() string {
	var menuItems []string
	for i, it := range m.menu() {
		cursor := " "
		if m.Choice == i {
			cursor = ">"
		}
		menuItems = append(menuItems, gameStyles.menu.Render(fmt.Sprintf("%s %s [%s]", cursor, it.label, it.key)))
	}
	return gameStyles.menuBox.Render(strings.Join(menuItems, "\n"))
}

func (m Model) helpText() string {
	help := "arrows to move • enter to select • q to quit"
	if m.deps.LastSaved != nil {
		if t := m.deps.LastSaved(); !t.IsZero() {
			help += " • saved " + humanize.Time(t)
		}
	}
	return help
}

func (m Model) activeMessage() string {
	if m.Message != "" && pet.TimeNow().Before(m.MessageExpires) {
		return m.Message
	}
	return ""
}

func (m Model) activeAlert() string {
	if m.Alert != "" && pet.TimeNow().Before(m.AlertExpires) {
		return "⚠ " + m.Alert
	}
	return ""
}

func (m Model) renderAnimation() string {
	animStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFD700")).
		Bold(true).
		Padding(1, 2)

	sections := []string{
		m.renderTitle(),
		"",
		animStyle.Render(m.Animation.Render(m.Snap.Name)),
	}
	if msg := m.activeMessage(); msg != "" {
		sections = append(sections, "", gameStyles.status.Render(msg))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) emptyView() string {
	line := "Looking for a wild Pokémon..."
	if !m.Loading {
		line = "No Pokémon yet."
	}
	sections := []string{
		gameStyles.title.Render("⚡ Pokémon Tamagotchi ⚡"),
		"",
		gameStyles.status.Render(line),
	}
	if msg := m.activeMessage(); msg != "" {
		sections = append(sections, "", gameStyles.status.Render(msg))
	}
	sections = append(sections, "", m.renderMenu())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) gameOverView() string {
	sections := []string{
		gameStyles.title.Render(pet.StatusEmojiRanAway + " " + m.Snap.Name + " " + pet.StatusEmojiRanAway),
		"",
		gameStyles.status.Render(ranAwayLine(m.Snap)),
		gameStyles.status.Render(fmt.Sprintf("Hunger %.0f%% • Happiness %.0f%% • Energy %.0f%%",
			m.Snap.Needs.Hunger, m.Snap.Needs.Happiness, m.Snap.Needs.Energy)),
	}
	if m.Loading {
		sections = append(sections, "", gameStyles.status.Render("Looking for a wild Pokémon..."))
	} else if msg := m.activeMessage(); msg != "" && msg != ranAwayLine(m.Snap) {
		sections = append(sections, "", gameStyles.status.Render(msg))
	}
	sections = append(sections, "", m.renderMenu())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func ranAwayLine(s engine.Snapshot) string {
	return fmt.Sprintf("Oh no! %s %s and ran away!", s.Name, s.Cause)
}
