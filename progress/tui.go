package progress

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

// barState is one bar's mutable counters, guarded by the owning
// TUIManager's mutex.
type barState struct {
	name     string
	total    int64
	received int64
	done     bool
}

// TUIManager renders one main bar and one bar per active segment
// using bubbletea, the way a terminal-attached job reports progress.
type TUIManager struct {
	mu      sync.Mutex
	main    *barState
	bars    []*barState
	program *tea.Program
}

// NewTUIManager starts a bubbletea program rendering name as the main
// bar's label. Call Wait after the job finishes to let the final
// frame render and the program exit.
func NewTUIManager(name string) *TUIManager {
	m := &TUIManager{
		main: &barState{name: name},
	}
	model := &teaModel{mgr: m, bar: progress.New(progress.WithDefaultGradient())}
	m.program = tea.NewProgram(model)
	go func() {
		_, _ = m.program.Run()
	}()
	return m
}

// Wait blocks until the bubbletea program has exited.
func (m *TUIManager) Wait() {
	m.program.Wait()
}

func (m *TUIManager) Main() Observer {
	return &tuiObserver{mgr: m, bar: m.main}
}

func (m *TUIManager) NewChild(name string) Observer {
	m.mu.Lock()
	bar := &barState{name: name}
	m.bars = append(m.bars, bar)
	m.mu.Unlock()
	return &tuiObserver{mgr: m, bar: bar}
}

type tuiObserver struct {
	mgr *TUIManager
	bar *barState
}

func (o *tuiObserver) SetTotal(total int64) {
	o.mgr.mu.Lock()
	o.bar.total = total
	o.mgr.mu.Unlock()
}

func (o *tuiObserver) Increase(n int64) {
	o.mgr.mu.Lock()
	o.bar.received += n
	o.mgr.main.received += n
	o.mgr.mu.Unlock()
	o.mgr.program.Send(tickMsg{})
}

func (o *tuiObserver) Finish() {
	o.mgr.mu.Lock()
	o.bar.done = true
	allDone := o.mgr.main.done || allChildrenDone(o.mgr)
	o.mgr.mu.Unlock()
	if allDone {
		o.mgr.program.Send(tea.Quit())
	}
}

func allChildrenDone(m *TUIManager) bool {
	for _, b := range m.bars {
		if !b.done {
			return false
		}
	}
	return len(m.bars) > 0
}

type tickMsg struct{}

type teaModel struct {
	mgr *TUIManager
	bar progress.Model
}

func (m *teaModel) Init() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *teaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case tickMsg:
		m.mgr.mu.Lock()
		pct := 0.0
		if m.mgr.main.total > 0 {
			pct = float64(m.mgr.main.received) / float64(m.mgr.main.total)
		}
		m.mgr.mu.Unlock()
		cmd := m.bar.SetPercent(pct)
		return m, tea.Batch(cmd, tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} }))
	case progress.FrameMsg:
		updated, cmd := m.bar.Update(msg)
		m.bar = updated.(progress.Model)
		return m, cmd
	case tea.KeyMsg:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *teaModel) View() string {
	m.mgr.mu.Lock()
	name := m.mgr.main.name
	received := m.mgr.main.received
	total := m.mgr.main.total
	var active []barState
	for _, b := range m.mgr.bars {
		if !b.done {
			active = append(active, *b)
		}
	}
	m.mgr.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n%s\n", name, m.bar.View())
	for _, c := range active {
		pct := 0.0
		if c.total > 0 {
			pct = float64(c.received) / float64(c.total)
		}
		fmt.Fprintf(&sb, "%s %s\n", c.name, m.bar.ViewAs(pct))
	}
	fmt.Fprintf(&sb, "%d/%d bytes across %d active segment(s)\n", received, total, len(active))
	return sb.String()
}
