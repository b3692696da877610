package audit

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/applyflow/applyflow/internal/model"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

// StateChoice is one entry in the state picker. An empty States slice means
// no filter (all records).
type StateChoice struct {
	Label  string
	States []model.State
}

// DefaultStateChoices lists the filters the history browser offers.
func DefaultStateChoices() []StateChoice {
	return []StateChoice{
		{Label: "All records"},
		{Label: "Applied", States: []model.State{model.StateApplied, model.StateTracked}},
		{Label: "Rejected", States: []model.State{model.StateRejected}},
		{Label: "Failed", States: []model.State{model.StateFailed}},
		{Label: "In flight", States: []model.State{
			model.StateDiscovered, model.StateScored, model.StateEligible,
			model.StateOptimizing, model.StateSubmitting,
		}},
	}
}

type pickerModel struct {
	choices []StateChoice
	cursor  int
	chosen  int // -1 = no choice yet, -2 = quit
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.chosen = -2
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
	}
	return m, nil
}

func (m pickerModel) View() string {
	s := pickerTitleStyle.Render("Application History — Select a view")
	s += "\n"

	for i, c := range m.choices {
		label := c.Label
		if len(c.States) > 0 {
			label = fmt.Sprintf("%s (%d states)", c.Label, len(c.States))
		}
		if i == m.cursor {
			s += pickerSelectedStyle.Render("> "+label) + "\n"
		} else {
			s += pickerItemStyle.Render(label) + "\n"
		}
	}

	s += pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit")
	return s
}

// RunStatePicker shows an interactive state-filter selector.
// Returns the index of the chosen filter, or -1 if the user quit.
func RunStatePicker(choices []StateChoice) (int, error) {
	m := pickerModel{
		choices: choices,
		chosen:  -1,
	}

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return -1, err
	}

	final := result.(pickerModel)
	return final.chosen, nil
}
