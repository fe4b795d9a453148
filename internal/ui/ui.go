package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/report"
)

// ErrClosed is returned by Show once the terminal program has exited.
var ErrClosed = errors.New("display closed")

// ExitMessage is printed once the terminal has been restored.
const ExitMessage = "Exiting system monitor..."

const banner = `  _______
 /       \
|  O   O  |
|    ^    |
|   '-'   |
 \_______/`

// Model renders the latest frame handed over by the monitor loop.
type Model struct {
	latest report.Frame
	ready  bool
	width  int
	height int
}

func NewModel() *Model { return &Model{width: 120, height: 40} }

// Messages
type frameMsg report.Frame

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case frameMsg:
		m.latest = report.Frame(msg)
		m.ready = true
	}
	return m, nil
}

// Styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	gaugeFill   = "█"
	gaugeEmpty  = "░"
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("22")).
			Padding(0, 1).
			MarginRight(1)
)

func (m *Model) View() string {
	if !m.ready {
		return titleStyle.Render("System Monitor") + "  " + subtleStyle.Render("waiting for first sample… (q to quit)")
	}
	f := m.latest
	header := titleStyle.Render(banner) + "\n" + titleStyle.Render("System Monitor") + "  " + subtleStyle.Render(f.Header)

	alertLines := make([]string, 0, len(f.Alerts))
	for _, a := range f.Alerts {
		if f.Healthy {
			alertLines = append(alertLines, okStyle.Render(a))
		} else {
			alertLines = append(alertLines, alertStyle.Render(a))
		}
	}
	alertCard := card("Alerts", strings.Join(alertLines, "\n"))

	gauges := make([]string, 0, len(f.Gauges))
	for _, g := range f.Gauges {
		gauges = append(gauges, fmt.Sprintf("%-14s %s", truncate(g.Label, 14), gaugeBar(g.Percent, 28)))
	}
	usageCard := card("Usage", strings.Join(gauges, "\n"))

	info := append([]string(nil), f.Metrics...)
	info = append(info, f.Disks...)
	if f.Battery != "" {
		info = append(info, f.Battery)
	}
	infoCard := card("Report", strings.Join(info, "\n"))

	line := lipgloss.JoinHorizontal(lipgloss.Top, usageCard, infoCard)
	return lipgloss.JoinVertical(lipgloss.Left, header, alertCard, line, subtleStyle.Render("q to quit"))
}

// Helpers
func gaugeBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int((pct / 100) * float64(width))
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s%s] %5.1f%%",
		strings.Repeat(gaugeFill, filled),
		strings.Repeat(gaugeEmpty, width-filled),
		pct)
}

func card(title, body string) string {
	titleStr := labelStyle.Render(title)
	content := titleStr + "\n" + body
	return cardStyle.Render(content)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// TUI is the full-screen terminal display. Quitting the program from the
// keyboard calls onQuit so the monitor loop can stop, as does a program
// failure. Stop returns that failure.
type TUI struct {
	// Out receives ExitMessage after the program has exited.
	Out io.Writer

	onQuit func()
	opts   []tea.ProgramOption

	prog *tea.Program
	done chan struct{}

	mu  sync.Mutex
	err error
}

func NewTUI(onQuit func(), opts ...tea.ProgramOption) *TUI {
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	return &TUI{Out: os.Stdout, onQuit: onQuit, opts: opts, done: make(chan struct{})}
}

func (t *TUI) Start(ctx context.Context) error {
	t.prog = tea.NewProgram(NewModel(), t.opts...)
	go func() {
		_, err := t.prog.Run()
		t.mu.Lock()
		t.err = err
		t.mu.Unlock()
		close(t.done)
		if t.onQuit != nil {
			t.onQuit()
		}
	}()
	return nil
}

func (t *TUI) Show(f report.Frame) error {
	select {
	case <-t.done:
		return ErrClosed
	default:
	}
	t.prog.Send(frameMsg(f))
	return nil
}

// Stop quits the program, waits for the terminal to be restored and
// returns the error the program exited with, if any.
func (t *TUI) Stop() error {
	if t.prog == nil {
		return nil
	}
	t.prog.Quit()
	<-t.done
	if t.Out != nil {
		fmt.Fprintln(t.Out, ExitMessage)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return fmt.Errorf("terminal display: %w", t.err)
	}
	return nil
}
