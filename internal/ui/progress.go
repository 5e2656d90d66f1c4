// Package ui renders interactive terminal views for long-running commands.
package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"fracas/internal/symcache"
)

// maxRecent is how many of the latest files the index view lists.
const maxRecent = 8

// Event is one file finished by the indexer.
type Event struct {
	Path   string
	Status symcache.Status
}

type indexModel struct {
	title   string
	root    string
	events  <-chan Event
	spinner spinner.Model
	prog    progress.Model
	total   int
	seen    int
	counts  map[symcache.Status]int
	recent  []Event
	width   int
	done    bool
}

type eventMsg Event
type doneMsg struct{}

// NewIndexModel returns a Bubble Tea model that renders indexing progress
// for total files under root. It quits once events is closed.
func NewIndexModel(title, root string, total int, events <-chan Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	return &indexModel{
		title:   title,
		root:    root,
		events:  events,
		spinner: sp,
		prog:    prog,
		total:   total,
		counts:  make(map[symcache.Status]int),
		width:   80,
	}
}

func (m *indexModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *indexModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *indexModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *indexModel) applyEvent(ev Event) tea.Cmd {
	m.counts[ev.Status]++
	if ev.Status != symcache.StatusRemoved {
		m.seen++
	}
	m.recent = append(m.recent, ev)
	if len(m.recent) > maxRecent {
		m.recent = m.recent[len(m.recent)-maxRecent:]
	}
	if m.total <= 0 {
		return nil
	}
	return m.prog.SetPercent(min(float64(m.seen)/float64(m.total), 1))
}

func (m *indexModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := fmt.Sprintf("%s (%d/%d)", m.title, m.seen, m.total)
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	nameWidth := max(m.width-16, 20)
	for _, ev := range m.recent {
		status := ev.Status.String()
		fmt.Fprintf(&b, "  %s %s\n", styleStatus(ev.Status).Render(fmt.Sprintf("%10s", status)), truncate(m.display(ev.Path), nameWidth))
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "  %d indexed, %d unchanged, %d removed, %d failed\n",
		m.counts[symcache.StatusIndexed], m.counts[symcache.StatusUnchanged],
		m.counts[symcache.StatusRemoved], m.counts[symcache.StatusFailed])
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *indexModel) display(path string) string {
	if m.root == "" {
		return path
	}
	if rel, err := filepath.Rel(m.root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}

func styleStatus(status symcache.Status) lipgloss.Style {
	switch status {
	case symcache.StatusIndexed:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case symcache.StatusFailed:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case symcache.StatusRemoved:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
