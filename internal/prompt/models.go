package prompt

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// selectModel is a single-choice list. chosen is -1 until the operator picks
// an entry, and stays -1 on abort.
type selectModel struct {
	title   string
	choices []string
	cursor  int
	chosen  int
}

func newSelectModel(title string, choices []string) selectModel {
	return selectModel{title: title, choices: choices, chosen: -1}
}

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case "enter":
		m.chosen = m.cursor
		return m, tea.Quit
	}
	return m, nil
}

func (m selectModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title) + "\n\n")
	for i, choice := range m.choices {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> "+choice) + "\n")
		} else {
			b.WriteString("  " + choice + "\n")
		}
	}
	b.WriteString(helpStyle.Render("\n↑/↓ move · enter select · q quit\n"))
	return b.String()
}

// multiSelectModel is a checkbox list toggled with space.
type multiSelectModel struct {
	title   string
	choices []string
	cursor  int
	checked map[int]bool
	aborted bool
	done    bool
}

func newMultiSelectModel(title string, choices []string) multiSelectModel {
	return multiSelectModel{title: title, choices: choices, checked: make(map[int]bool)}
}

func (m multiSelectModel) Init() tea.Cmd { return nil }

func (m multiSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "q", "esc":
		m.aborted = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case " ":
		m.checked[m.cursor] = !m.checked[m.cursor]
	case "a":
		for i := range m.choices {
			m.checked[i] = true
		}
	case "enter":
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m multiSelectModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title) + "\n\n")
	for i, choice := range m.choices {
		box := "[ ]"
		line := fmt.Sprintf("%s %s", box, choice)
		if m.checked[i] {
			line = selectedStyle.Render(fmt.Sprintf("[x] %s", choice))
		}
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> ") + line + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString(helpStyle.Render("\n↑/↓ move · space toggle · a all · enter confirm · q quit\n"))
	return b.String()
}

// inputModel wraps a textinput for one free-text answer.
type inputModel struct {
	title   string
	input   textinput.Model
	value   string
	aborted bool
}

func newInputModel(title string) inputModel {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 512
	return inputModel{title: title, input: ti}
}

func (m inputModel) Init() tea.Cmd { return textinput.Blink }

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			m.value = m.input.Value()
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	return titleStyle.Render(m.title) + "\n\n" + m.input.View() + "\n"
}

// confirmModel asks a yes/no question; anything but an explicit "y" is no.
type confirmModel struct {
	question string
	answer   bool
	aborted  bool
}

func newConfirmModel(question string) confirmModel {
	return confirmModel{question: question}
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc":
		m.aborted = true
		return m, tea.Quit
	case "y", "Y":
		m.answer = true
		return m, tea.Quit
	case "n", "N", "enter":
		m.answer = false
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	return titleStyle.Render(m.question) + " " + helpStyle.Render("[y/N]") + "\n"
}
