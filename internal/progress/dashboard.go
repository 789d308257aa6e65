// Package progress renders compile --watch: a live view of which pipeline
// phase is running and how many phase updates have arrived so far. The
// enqueuer's work-list size is not shown.
package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mabhi256/r8shrink/internal/tui"
	"github.com/mabhi256/r8shrink/utils"
)

// Phase identifies one step of the compile pipeline, in the fixed order
// the pipeline runs them: read, build the root set, compute liveness,
// build the call graph, minify names, distribute into DEX files, write.
type Phase int

const (
	PhaseRead Phase = iota
	PhaseRootSet
	PhaseEnqueue
	PhaseCallGraph
	PhaseMinify
	PhaseDistribute
	PhaseWrite
	PhaseDone
)

const maxPhase = PhaseDone

var phaseTitles = [...]string{
	"read", "root-set", "enqueue", "call-graph", "minify", "distribute", "write", "done",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseTitles) {
		return "unknown"
	}
	return phaseTitles[p]
}

type advanceMsg struct {
	phase  Phase
	detail string
	at     time.Time
}

// Dashboard owns a background bubbletea program; Advance feeds it phase
// transitions from the compile pipeline as they happen.
type Dashboard struct {
	program *tea.Program
	done    chan struct{}
}

func NewDashboard() *Dashboard {
	return &Dashboard{program: tea.NewProgram(newDashboardModel())}
}

func (d *Dashboard) Start() {
	d.done = make(chan struct{})
	go func() {
		defer close(d.done)
		d.program.Run()
	}()
}

func (d *Dashboard) Advance(phase Phase, detail string) {
	if d == nil || d.program == nil {
		return
	}
	d.program.Send(advanceMsg{phase: phase, detail: detail, at: time.Now()})
}

func (d *Dashboard) Stop() {
	if d == nil || d.program == nil {
		return
	}
	d.program.Quit()
	<-d.done
}

type historyEntry struct {
	phase  Phase
	detail string
	at     time.Time
}

type dashboardModel struct {
	current Phase
	focused Phase // cursor moved with left/right, independent of current
	history []historyEntry
	work    sparkline.Model
	samples int
}

func newDashboardModel() dashboardModel {
	return dashboardModel{
		current: -1,
		focused: PhaseRead,
		work:    sparkline.New(44, 5),
	}
}

func (m dashboardModel) Init() tea.Cmd { return nil }

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case advanceMsg:
		m.current = msg.phase
		m.history = append(m.history, historyEntry{phase: msg.phase, detail: msg.detail, at: msg.at})
		m.samples++
		m.work.Push(float64(m.samples))
		m.work.Draw()
		if msg.phase == PhaseDone {
			return m, tea.Quit
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "right", "l":
			utils.CycleEnumPtr(&m.focused, 1, maxPhase)
		case "left", "h":
			utils.CycleEnumPtr(&m.focused, -1, maxPhase)
		}
	}
	return m, nil
}

func (m dashboardModel) View() string {
	var b strings.Builder
	b.WriteString(utils.TitleStyle.Render("compile --watch"))
	b.WriteString("\n\n")

	bars := make([]tui.BarData, 0, len(phaseTitles))
	for i := range phaseTitles {
		p := Phase(i)
		pct := 0.0
		style := utils.MutedStyle
		switch {
		case p < m.current:
			pct, style = 100, utils.GoodStyle
		case p == m.current:
			pct, style = 100, utils.InfoStyle
		}
		suffix := ""
		if p == m.focused {
			suffix = "<-"
		}
		bars = append(bars, tui.BarData{
			Label:      p.String(),
			Value:      pct,
			Percentage: pct,
			Style:      style,
			Suffix:     suffix,
		})
	}
	b.WriteString(tui.CreateHorizontalBarChart("", bars, tui.DefaultBarConfig(24)))
	b.WriteString("\n\n")

	if len(m.history) > 0 {
		last := m.history[len(m.history)-1]
		b.WriteString(utils.InfoStyle.Render(fmt.Sprintf("%-12s %s", last.phase, last.detail)))
		b.WriteString("\n\n")
	}

	b.WriteString(utils.MutedStyle.Render("phase updates over time:"))
	b.WriteString("\n")
	b.WriteString(m.work.View())
	b.WriteString("\n\n")
	b.WriteString(utils.MutedStyle.Render("←/→ move cursor, q to quit"))
	return lipgloss.NewStyle().Padding(0, 1).Render(b.String())
}
