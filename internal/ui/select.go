package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type SelectOption struct {
	Label       string
	Description string
	Value       string
}

// SelectModel is a single-choice menu
type SelectModel struct {
	title    string
	options  []SelectOption
	cursor   int
	selected int
	quitting bool
	aborted  bool
}

func NewSelect(title string, options []SelectOption) SelectModel {
	return SelectModel{
		title:    title,
		options:  options,
		selected: -1,
	}
}

func (m SelectModel) Init() tea.Cmd {
	return nil
}

func (m SelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "q", "esc":
		m.aborted = true
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.options) > 0 {
			m.selected = m.cursor
		}
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m SelectModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	if m.title != "" {
		b.WriteString(TitleStyle.Render(m.title))
		b.WriteString("\n\n")
	}

	for i, opt := range m.options {
		if i == m.cursor {
			b.WriteString(CursorStyle.Render("▸ "))
			b.WriteString(SelectedStyle.Render(opt.Label))
		} else {
			b.WriteString("  ")
			b.WriteString(UnselectedStyle.Render(opt.Label))
		}
		if opt.Description != "" {
			b.WriteString("\n    ")
			b.WriteString(HelpStyle.Render(opt.Description))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("↑/↓ move • enter select • esc cancel"))
	return b.String()
}

// Selected returns the chosen index, or -1 if cancelled
func (m SelectModel) Selected() int {
	if m.aborted {
		return -1
	}
	return m.selected
}

// SelectedOption returns nil if cancelled
func (m SelectModel) SelectedOption() *SelectOption {
	i := m.Selected()
	if i < 0 || i >= len(m.options) {
		return nil
	}
	return &m.options[i]
}

// Select runs the menu on the terminal and returns the chosen option, or
// nil when the user cancels.
func Select(title string, options []SelectOption) (*SelectOption, error) {
	result, err := tea.NewProgram(NewSelect(title, options)).Run()
	if err != nil {
		return nil, fmt.Errorf("failed to run select: %w", err)
	}
	return result.(SelectModel).SelectedOption(), nil
}
