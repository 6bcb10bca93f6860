// Package tui drives the live terminal view: the simulation steps on a
// frame tick while the particle cloud and energy history render beside
// the run diagnostics.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/gravlab/internal/body"
	"github.com/san-kum/gravlab/internal/compute"
	"github.com/san-kum/gravlab/internal/config"
	"github.com/san-kum/gravlab/internal/diag"
	"github.com/san-kum/gravlab/internal/force"
	"github.com/san-kum/gravlab/internal/ic"
	"github.com/san-kum/gravlab/internal/integrate"
	"github.com/san-kum/gravlab/internal/precision"
	"github.com/san-kum/gravlab/internal/viz"
)

const (
	canvasWidth     = 60
	canvasHeight    = 24
	historyCapacity = 600
	frameRate       = 30
	timePerFrame    = 0.01 // simulated time advanced per tick
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(42)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

type TickMsg time.Time

// Model owns the running simulation plus the render state.
type Model struct {
	cfg      *config.Config
	sys      *body.System
	stepper  integrate.Stepper
	eval     *force.Evaluator
	diagTier precision.Tier

	canvas        *viz.Canvas
	pos, vel      []body.Vec3
	pot           []float64
	energyHistory []float64
	latest        diag.Summary

	running bool
	scale   float64
	err     error
}

// NewModel builds the system and stepper from a validated configuration.
func NewModel(cfg *config.Config) (Model, error) {
	m := Model{
		cfg:     cfg,
		canvas:  viz.NewCanvas(canvasWidth, canvasHeight),
		running: true,
		scale:   2.0,
	}
	if err := m.rebuild(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// rebuild constructs system, evaluator and stepper from scratch. Used at
// start and on reset, so a reset replays the exact same realization.
func (m *Model) rebuild() error {
	sys, err := ic.ByName(m.cfg.Problem, m.cfg.N, m.cfg.Eps, m.cfg.Seed)
	if err != nil {
		return err
	}
	policy, err := m.cfg.Policy()
	if err != nil {
		return err
	}
	eval, err := force.New(compute.GetBackend(), policy.Force, m.cfg.ApproxRsqrt)
	if err != nil {
		return err
	}

	var stepper integrate.Stepper
	switch m.cfg.Scheme {
	case "hermite":
		stepper = integrate.NewHermite(sys, eval, policy.Integrate, m.cfg.Eta, m.cfg.DtMax, m.cfg.DtMin)
	default:
		stepper = integrate.NewLeapfrog(sys, eval, policy.Integrate, m.cfg.Dt)
	}
	if err := stepper.Init(); err != nil {
		return err
	}

	m.sys = sys
	m.eval = eval
	m.stepper = stepper
	m.diagTier = policy.Diagnostics
	m.pos = make([]body.Vec3, sys.N)
	m.vel = make([]body.Vec3, sys.N)
	m.pot = make([]float64, sys.N)
	m.energyHistory = m.energyHistory[:0]
	m.observe()
	return nil
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.rebuild(); err != nil {
				m.err = err
			}
		case "+", "=":
			m.scale /= 1.25
		case "-", "_":
			m.scale *= 1.25
		}
	case TickMsg:
		if m.running && m.err == nil {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

// step advances the simulation by one frame's worth of simulated time.
func (m *Model) step() {
	target := m.stepper.Time() + timePerFrame
	for m.stepper.Time() < target {
		if _, err := m.stepper.Advance(); err != nil {
			m.err = err
			m.running = false
			return
		}
	}
	m.observe()
}

// observe synchronizes the state and refreshes the diagnostics.
func (m *Model) observe() {
	m.stepper.Sync(m.pos, m.vel)
	m.eval.Potential(m.sys.Mass, m.pos, m.sys.Eps, m.sys.G, m.pot)
	snap := &body.Snapshot{
		Time: m.stepper.Time(),
		Mass: m.sys.Mass,
		Pos:  m.pos,
		Vel:  m.vel,
		Pot:  m.pot,
	}
	m.latest = diag.Summarize(snap, m.diagTier)
	m.energyHistory = append(m.energyHistory, m.latest.Total)
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
}

func (m Model) View() string {
	m.canvas.Clear()
	for i := 0; i < m.sys.N; i++ {
		m.canvas.Plot(m.pos[i].X, m.pos[i].Y, m.scale)
	}
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.cfg.Problem)) + "\n")
	switch {
	case m.err != nil:
		s.WriteString(fmt.Sprintf("FAILED: %v\n\n", m.err))
	case m.running:
		s.WriteString("RUNNING\n\n")
	default:
		s.WriteString("PAUSED\n\n")
	}

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory,
			asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Total energy"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.3f", m.latest.Time)) + "\n")
	s.WriteString(labelStyle.Render("Kinetic") + valueStyle.Render(fmt.Sprintf("%.6f", m.latest.Kinetic)) + "\n")
	s.WriteString(labelStyle.Render("Potential") + valueStyle.Render(fmt.Sprintf("%.6f", m.latest.Potential)) + "\n")
	s.WriteString(labelStyle.Render("Energy") + valueStyle.Render(fmt.Sprintf("%.6f", m.latest.Total)) + "\n")
	s.WriteString(labelStyle.Render("Virial") + valueStyle.Render(fmt.Sprintf("%.3f", m.latest.Virial)) + "\n")
	s.WriteString(labelStyle.Render("N") + valueStyle.Render(fmt.Sprintf("%d", m.sys.N)) + "\n")
	s.WriteString(labelStyle.Render("Scheme") + valueStyle.Render(m.cfg.Scheme) + "\n")
	s.WriteString(labelStyle.Render("Backend") + valueStyle.Render(compute.GetBackend().Name()) + "\n")
	s.WriteString(labelStyle.Render("Scale") + valueStyle.Render(fmt.Sprintf("%.2f", m.scale)) + "\n")

	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause  R:Reset  Q:Quit\n+/-:Zoom"))

	statsView := statsStyle.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}
