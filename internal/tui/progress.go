package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/gaitbench/internal/experiment"
	"github.com/san-kum/gaitbench/internal/viz"
)

type startMsg struct {
	index int
	label string
}

type stepMsg struct {
	index   int
	elapsed float64
	budget  float64
}

type finishMsg experiment.Outcome

type doneMsg struct {
	report *experiment.Report
	err    error
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type row struct {
	label   string
	status  experiment.Status
	elapsed float64
	budget  float64
	err     error
}

type model struct {
	rows    []row
	current int
	frame   int
	done    bool
	report  *experiment.Report
	err     error
	cancel  context.CancelFunc
	quit    bool
	width   int
}

func newModel(labels []string, budget float64, cancel context.CancelFunc) model {
	rows := make([]row, len(labels))
	for i, l := range labels {
		rows[i] = row{label: l, budget: budget}
	}
	return model{rows: rows, current: -1, cancel: cancel, width: 30}
}

func (m model) Init() tea.Cmd { return tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quit = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.frame++
		return m, tick()
	case startMsg:
		if msg.index < len(m.rows) {
			m.current = msg.index
			m.rows[msg.index].status = experiment.Running
		}
		return m, nil
	case stepMsg:
		if msg.index < len(m.rows) {
			m.rows[msg.index].elapsed = msg.elapsed
			m.rows[msg.index].budget = msg.budget
		}
		return m, nil
	case finishMsg:
		if msg.Index < len(m.rows) {
			r := &m.rows[msg.Index]
			r.status = msg.Status
			r.err = msg.Err
			if msg.Status == experiment.Completed {
				r.elapsed = max(r.elapsed, r.budget)
			}
		}
		return m, nil
	case doneMsg:
		m.done = true
		m.report = msg.report
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(viz.Title.Render("gait experiments"))
	b.WriteString("\n\n")

	for i, r := range m.rows {
		var mark string
		switch r.status {
		case experiment.Running:
			mark = viz.StatusRunning.Render(viz.AnimatedSpinner(m.frame))
		case experiment.Completed:
			mark = viz.StatusOK.Render("✓")
		case experiment.Failed:
			mark = viz.StatusFailed.Render("✗")
		default:
			mark = viz.Subtle.Render("·")
		}

		pct := 0.0
		if r.budget > 0 {
			pct = min(r.elapsed/r.budget, 1)
		}
		fmt.Fprintf(&b, " %s %d %-24s %s %s\n",
			mark, i, r.label, viz.ProgressBar(pct, m.width),
			viz.MetricValue.Render(fmt.Sprintf("%6.2fs", r.elapsed)))
		if r.err != nil {
			b.WriteString("     " + viz.StatusFailed.Render(r.err.Error()) + "\n")
		}
	}

	b.WriteString("\n")
	switch {
	case m.done:
		b.WriteString(viz.Subtle.Render("done"))
	case m.quit:
		b.WriteString(viz.KeyHint.Render("stopping after the current experiment..."))
	default:
		b.WriteString(viz.KeyHint.Render("q: stop after current experiment"))
	}
	b.WriteString("\n")
	return b.String()
}

// Bridge forwards runner events to a running program. Step updates are
// throttled so the program is not flooded at small dt.
type Bridge struct {
	send     func(tea.Msg)
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func NewBridge(send func(tea.Msg)) *Bridge {
	return &Bridge{send: send, interval: 50 * time.Millisecond}
}

func (b *Bridge) OnStep(index int, _ string, elapsed, budget float64) {
	b.mu.Lock()
	now := time.Now()
	if now.Sub(b.last) < b.interval {
		b.mu.Unlock()
		return
	}
	b.last = now
	b.mu.Unlock()
	b.send(stepMsg{index: index, elapsed: elapsed, budget: budget})
}

func (b *Bridge) OnStart(index int, label string) {
	b.send(startMsg{index: index, label: label})
}

func (b *Bridge) OnFinish(outcome experiment.Outcome) {
	b.send(finishMsg(outcome))
}

// RunFunc executes the experiments, reporting through obs.
type RunFunc func(ctx context.Context, obs experiment.Observer) (*experiment.Report, error)

// Run shows live progress while run executes in its own goroutine and
// returns whatever run returned.
func Run(ctx context.Context, labels []string, budget float64, run RunFunc) (*experiment.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newModel(labels, budget, cancel))

	go func() {
		rep, err := run(ctx, NewBridge(p.Send))
		p.Send(doneMsg{report: rep, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m := final.(model)
	return m.report, m.err
}
