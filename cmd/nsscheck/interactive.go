package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/libnss/internal/module"
)

var selectedStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4"))

type modelState int

const (
	stateSelectDB modelState = iota
	stateInputKey
	stateShowResult
)

type interactiveModel struct {
	err      error
	mod      *module.Module
	res      *result
	input    textinput.Model
	buflen   int
	selected int
	state    modelState
}

type queryResultMsg struct {
	err error
	res *result
}

func newInteractiveModel(m *module.Module, buflen int) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "empty to enumerate"
	ti.Prompt = "key: "
	ti.Width = 40
	return &interactiveModel{mod: m, buflen: buflen, input: ti, state: stateSelectDB}
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputKey {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectDB && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectDB && m.selected < len(databases)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectDB:
				m.state = stateInputKey
				m.input.SetValue("")
				m.input.Focus()
				return m, textinput.Blink

			case stateInputKey:
				m.input.Blur()
				return m, m.runQuery

			case stateShowResult:
				m.state = stateInputKey
				m.res = nil
				m.err = nil
				m.input.Focus()
				return m, textinput.Blink
			}

		case "esc":
			m.state = stateSelectDB
			m.input.Blur()
			m.res = nil
			m.err = nil
			return m, nil
		}

	case queryResultMsg:
		m.res = msg.res
		m.err = msg.err
		m.state = stateShowResult
		return m, nil
	}

	if m.state == stateInputKey {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) runQuery() tea.Msg {
	res, err := query(m.mod, databases[m.selected], strings.TrimSpace(m.input.Value()), m.buflen)
	return queryResultMsg{res: res, err: err}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("NSS Check"))
	b.WriteString(" ")
	b.WriteString(m.mod.Name)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectDB:
		b.WriteString("Select a database:\n\n")
		for i, db := range databases {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + db))
			} else {
				b.WriteString("  " + db)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter choose • q quit"))

	case stateInputKey:
		fmt.Fprintf(&b, "Query %s\n\n", keyStyle.Render(databases[m.selected]))
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter run • esc back"))

	case stateShowResult:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			b.WriteString("\n")
		} else {
			b.WriteString(render(databases[m.selected], strings.TrimSpace(m.input.Value()), m.res, true))
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter new query • esc databases • q quit"))
	}

	return b.String()
}

func runInteractive(m *module.Module, buflen int) error {
	p := tea.NewProgram(newInteractiveModel(m, buflen), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
