package monitor

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mdouchement/puzzled"
)

type model struct {
	table table.Model
}

func newTUI() *model {
	columns := []table.Column{
		{Title: "Sensor", Width: 20},
		{Title: "Value", Width: 20},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		Foreground(lipgloss.Color("#00afff")).
		BorderForeground(lipgloss.Color("#00afff")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#ffffff")).
		Bold(false)
	t.SetStyles(s)

	return &model{
		table: t,
	}
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(msg.Height)
	case puzzled.Snapshot:
		m.update(msg)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	return m.table.View()
}

func (m *model) update(snapshot puzzled.Snapshot) {
	rows := make([]table.Row, 0, len(snapshot.Temperatures)+len(snapshot.Fans)+len(snapshot.PWMs))

	for ch, v := range snapshot.Temperatures {
		rows = append(rows, table.Row{
			fmt.Sprintf("temp%d", ch+1),
			fmt.Sprintf("%6.1f °C", float64(v)/1000),
		})
	}

	for ch, v := range snapshot.Fans {
		if v == 0 {
			continue
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("fan%d", ch+1),
			fmt.Sprintf("%4d RPM", v),
		})
	}

	for ch, v := range snapshot.PWMs {
		rows = append(rows, table.Row{
			fmt.Sprintf("pwm%d", ch+1),
			fmt.Sprintf("%3d (%d%%)", v, v*100/255),
		})
	}

	m.table.SetRows(rows)
}
