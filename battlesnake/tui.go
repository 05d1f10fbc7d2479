package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/goalsnek/session"
	"github.com/brensch/goalsnek/strategy"
)

const recentTurns = 12

type dashboard struct {
	listen    string
	registry  *session.Registry
	events    <-chan TurnEvent
	startTime time.Time

	moves     int
	fallbacks map[string]int
	active    int
	recent    []string
}

func newDashboard(listen string, registry *session.Registry, events <-chan TurnEvent) dashboard {
	return dashboard{
		listen:    listen,
		registry:  registry,
		events:    events,
		startTime: time.Now(),
		fallbacks: make(map[string]int),
	}
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForTurn(events <-chan TurnEvent) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

func (m dashboard) Init() tea.Cmd {
	return tea.Batch(waitForTurn(m.events), tickCmd())
}

func (m dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tickMsg:
		m.active = m.registry.Active()
		return m, tickCmd()
	case TurnEvent:
		m.moves++
		d := msg.Decision
		line := fmt.Sprintf("%-12s t%-4d %-5s %-4s %6s", shortID(msg.GameID), msg.Turn, d.Direction, d.Mode, d.Elapsed.Round(time.Microsecond))
		if d.HasTarget {
			line += fmt.Sprintf("  -> (%d,%d)", d.Target.X, d.Target.Y)
		}
		if d.Fallback {
			kind := strategy.ErrorKind(d.Err)
			m.fallbacks[kind]++
			line += "  fallback: " + kind
		}
		m.recent = append([]string{line}, m.recent...)
		if len(m.recent) > recentTurns {
			m.recent = m.recent[:recentTurns]
		}
		return m, waitForTurn(m.events)
	}
	return m, nil
}

func (m dashboard) View() string {
	var b strings.Builder
	uptime := time.Since(m.startTime).Round(time.Second)
	fmt.Fprintf(&b, "goalsnek on %s  up %s\n\n", m.listen, uptime)
	fmt.Fprintf(&b, "Active games:  %d\n", m.active)
	fmt.Fprintf(&b, "Moves:         %d\n", m.moves)
	fallbacks := 0
	for _, n := range m.fallbacks {
		fallbacks += n
	}
	fmt.Fprintf(&b, "Fallbacks:     %d", fallbacks)
	for _, kind := range []string{"no_target", "unreachable", "no_policy_action", "invalid_action_vector", "unknown"} {
		if n := m.fallbacks[kind]; n > 0 {
			fmt.Fprintf(&b, "  %s=%d", kind, n)
		}
	}
	b.WriteString("\n\nRecent turns:\n")
	for _, line := range m.recent {
		b.WriteString(line + "\n")
	}
	b.WriteString("\nPress q to quit.\n")
	return b.String()
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
