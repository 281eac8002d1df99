// Package prompt implements the operator prompts: single pick, checkbox
// multi-pick, free text and yes/no confirmation, each as a small bubbletea
// model. Headless runs answer every confirmation with yes and never draw.
package prompt

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrAborted indicates the operator quit a prompt without answering.
var ErrAborted = errors.New("prompt aborted")

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Prompter presents prompts to the operator.
type Prompter struct {
	headless bool
}

// New returns a prompter. When headless is set, Confirm answers yes without
// drawing anything.
func New(headless bool) *Prompter {
	return &Prompter{headless: headless}
}

// Select presents a single-choice list and returns the picked value.
func (p *Prompter) Select(title string, choices []string) (string, error) {
	m, err := run(newSelectModel(title, choices))
	if err != nil {
		return "", err
	}
	sm := m.(selectModel)
	if sm.chosen < 0 {
		return "", ErrAborted
	}
	return choices[sm.chosen], nil
}

// MultiSelect presents a checkbox list and returns the checked values in
// list order.
func (p *Prompter) MultiSelect(title string, choices []string) ([]string, error) {
	m, err := run(newMultiSelectModel(title, choices))
	if err != nil {
		return nil, err
	}
	mm := m.(multiSelectModel)
	if mm.aborted {
		return nil, ErrAborted
	}
	var picked []string
	for i, c := range choices {
		if mm.checked[i] {
			picked = append(picked, c)
		}
	}
	return picked, nil
}

// Input presents a free-text prompt and returns the entered line.
func (p *Prompter) Input(title string) (string, error) {
	m, err := run(newInputModel(title))
	if err != nil {
		return "", err
	}
	im := m.(inputModel)
	if im.aborted {
		return "", ErrAborted
	}
	return im.value, nil
}

// Confirm asks a yes/no question, defaulting to no. Headless mode
// auto-accepts.
func (p *Prompter) Confirm(question string) (bool, error) {
	if p.headless {
		return true, nil
	}
	m, err := run(newConfirmModel(question))
	if err != nil {
		return false, err
	}
	cm := m.(confirmModel)
	if cm.aborted {
		return false, ErrAborted
	}
	return cm.answer, nil
}

// Students asks for the student id selection and decodes the two sentinel
// forms: an empty answer selects every student, a trailing "..." resumes
// from the given id. Otherwise the answer is a comma-separated permit-list.
func (p *Prompter) Students() (permit []string, onwards string, err error) {
	answer, err := p.Input("Which students' cards do you want to update?")
	if err != nil {
		return nil, "", err
	}
	return ParseStudents(answer)
}

// ParseStudents decodes the student selection answer.
func ParseStudents(answer string) (permit []string, onwards string, err error) {
	if len(answer) == 0 {
		return nil, "", nil
	}
	if strings.HasSuffix(answer, "...") {
		return nil, strings.TrimSuffix(answer, "..."), nil
	}
	for _, id := range strings.Split(answer, ",") {
		permit = append(permit, strings.TrimSpace(id))
	}
	return permit, "", nil
}

func run(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m).Run()
}
