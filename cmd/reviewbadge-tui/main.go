package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/reviewbadge/reviewbadge/pkg/client"
)

const pollRate = 2 * time.Second

// Styles
var (
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)

	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("196")).
			Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(40)

	providerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Width(14)
)

type tickMsg time.Time

type dataMsg struct {
	counts map[string]int
	badge  string
	err    error
}

type refreshedMsg struct{ err error }

type model struct {
	api     *client.Client
	spinner spinner.Model
	counts  map[string]int
	badge   string
	err     error
	ready   bool
}

func initialModel(api *client.Client) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		api:     api,
		spinner: s,
		counts:  map[string]int{},
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		fetchData(m.api),
		tick(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			cmds = append(cmds, forceRefresh(m.api))
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tickMsg:
		cmds = append(cmds, fetchData(m.api), tick())

	case refreshedMsg:
		if msg.err != nil {
			m.err = msg.err
		}

	case dataMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.counts = msg.counts
			m.badge = msg.badge
		}
		m.ready = true
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if !m.ready {
		return fmt.Sprintf("\n%s Connecting to reviewbadged...", m.spinner.View())
	}

	var body strings.Builder
	body.WriteString(titleStyle.Render("Pending Reviews") + "\n\n")

	ids := make([]string, 0, len(m.counts))
	for id := range m.counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	total := 0
	for _, id := range ids {
		count := m.counts[id]
		total += count
		body.WriteString(fmt.Sprintf("%s %d\n", providerStyle.Render(id), count))
	}

	body.WriteString("\n")
	if m.badge == "" {
		body.WriteString(subtleStyle.Render("badge: (clear)"))
	} else {
		body.WriteString("badge: " + badgeStyle.Render(m.badge))
	}

	pane := paneStyle.Render(body.String())

	var status string
	if m.err != nil {
		status = errorStyle.Render(fmt.Sprintf("Offline: %v", m.err))
	} else {
		status = okStyle.Render(fmt.Sprintf("Online • %d pending", total))
	}
	footer := subtleStyle.Render(fmt.Sprintf("\n%s\nr: refresh now • q: quit", status))

	return lipgloss.JoinVertical(lipgloss.Left, pane, footer)
}

// Commands

func fetchData(api *client.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		counts, err := api.GetReviews(ctx)
		if err != nil {
			return dataMsg{err: err}
		}
		badgeText, err := api.GetBadge(ctx)
		if err != nil {
			return dataMsg{err: err}
		}
		return dataMsg{counts: counts, badge: badgeText}
	}
}

func forceRefresh(api *client.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return refreshedMsg{err: api.Refresh(ctx)}
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func main() {
	endpoint := os.Getenv("REVIEWBADGE_URL")
	p := tea.NewProgram(initialModel(client.NewClient(endpoint)), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
