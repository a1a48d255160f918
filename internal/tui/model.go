package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/agbru/pdcbench/internal/errors"
	"github.com/agbru/pdcbench/internal/experiment"
	"github.com/agbru/pdcbench/internal/metrics"
	"github.com/agbru/pdcbench/internal/orchestration"
)

// tickInterval paces elapsed-time refreshes and memory sampling.
const tickInterval = 500 * time.Millisecond

// Layout constants for the TUI dashboard.
const (
	headerHeight             = 1
	footerHeight             = 1
	minBodyHeight            = 8
	MetricsPanelWidthPercent = 35
	ExperimentsPanelHeight   = 9
)

// LayoutManager holds terminal dimensions and provides layout calculations.
type LayoutManager struct {
	width  int
	height int
}

// bodyHeight returns the available height for the main body panels.
func (l LayoutManager) bodyHeight() int {
	return max(l.height-headerHeight-footerHeight, minBodyHeight)
}

// metricsWidth returns the width allocated to the metrics column.
func (l LayoutManager) metricsWidth() int {
	return l.width * MetricsPanelWidthPercent / 100
}

// leftWidth returns the width allocated to the experiments and results column.
func (l LayoutManager) leftWidth() int {
	return l.width - l.metricsWidth()
}

// experimentsHeight returns the height allocated to the experiments panel.
func (l LayoutManager) experimentsHeight() int {
	return min(ExperimentsPanelHeight, l.bodyHeight()/2)
}

// resultsHeight returns the height allocated to the results panel.
func (l LayoutManager) resultsHeight() int {
	return l.bodyHeight() - l.experimentsHeight()
}

// Options configures the dashboard.
type Options struct {
	// Version is shown in the header.
	Version string
	// AutoStart lists modes started as soon as the dashboard opens.
	AutoStart []experiment.Mode
	// Now replaces time.Now in tests.
	Now func() time.Time
	// Watches feeds the live status watch count of the metrics panel.
	Watches metrics.WatchCounter
}

// Model is the root bubbletea model for the TUI dashboard.
type Model struct {
	header      HeaderModel
	experiments ExperimentsModel
	results     ResultsModel
	metrics     MetricsModel
	footer      FooterModel

	keymap KeyMap
	LayoutManager

	parentCtx  context.Context
	ctx        context.Context
	cancel     context.CancelFunc
	ctrl       Controller
	memory     *metrics.MemoryCollector
	autoStart  []experiment.Mode
	generation uint64
	exitCode   int
}

// NewModel creates a dashboard bound to parentCtx. Experiments started from
// the dashboard stop when parentCtx ends or the dashboard quits; only the
// former is reported through the exit code.
func NewModel(parentCtx context.Context, ctrl Controller, opts Options) Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ctx, cancel := context.WithCancel(parentCtx)
	keys := DefaultKeyMap()
	t := now()

	m := Model{
		header:    NewHeaderModel(opts.Version, t),
		metrics:   NewMetricsModel(),
		footer:    NewFooterModel(keys),
		keymap:    keys,
		parentCtx: parentCtx,
		ctx:       ctx,
		cancel:    cancel,
		ctrl:      ctrl,
		memory:    metrics.NewMemoryCollector(opts.Watches),
		autoStart: opts.AutoStart,
		exitCode:  apperrors.ExitSuccess,
	}
	m.experiments.Tick(t)
	m.applyState(ctrl.State())
	return m
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(), sampleMemStatsCmd(m.memory), watchContextCmd(m.parentCtx)}
	for _, mode := range m.autoStart {
		cmds = append(cmds, startCmd(m.ctx, m.ctrl, mode, m.generation))
	}
	return tea.Batch(cmds...)
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layoutPanels()
		return m, nil

	case StateMsg:
		m.applyState(msg.State)
		return m, nil

	case StartResultMsg:
		if msg.Generation != m.generation {
			return m, nil // answer to a request issued before the last reset
		}
		if msg.Err != nil {
			m.footer.SetError(fmt.Sprintf("%s: %v", msg.Mode, describeError(msg.Err)))
		} else {
			m.footer.SetMessage(fmt.Sprintf("%s started", msg.Mode))
		}
		return m, nil

	case ActionDoneMsg:
		if msg.Err != nil {
			m.footer.SetError(fmt.Sprintf("%s: %v", msg.Action, msg.Err))
		} else if msg.Generation == m.generation {
			m.footer.SetMessage(msg.Action + " done")
		}
		return m, nil

	case TickMsg:
		t := time.Time(msg)
		m.header.Tick(t)
		m.experiments.Tick(t)
		return m, tea.Batch(sampleMemStatsCmd(m.memory), tickCmd())

	case MemStatsMsg:
		m.metrics.UpdateMemStats(metrics.MemorySnapshot(msg))
		return m, nil

	case ContextCancelledMsg:
		m.exitCode = apperrors.ExitCodeFor(msg.Err)
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Serial):
		return m.start(experiment.ModeSerial)

	case key.Matches(msg, m.keymap.Parallel):
		return m.start(experiment.ModeParallel)

	case key.Matches(msg, m.keymap.Both):
		return m.start(experiment.Modes()...)

	case key.Matches(msg, m.keymap.Reset):
		m.generation++
		m.footer.SetMessage("resetting...")
		return m, resetCmd(m.ctrl, m.generation)

	case key.Matches(msg, m.keymap.Clear):
		m.generation++
		m.footer.SetMessage("clearing...")
		return m, clearCmd(m.ctrl, m.generation)

	case key.Matches(msg, m.keymap.Up):
		m.results.ScrollUp()
		return m, nil

	case key.Matches(msg, m.keymap.Down):
		m.results.ScrollDown()
		return m, nil
	}

	return m, nil
}

func (m Model) start(modes ...experiment.Mode) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, 0, len(modes))
	for _, mode := range modes {
		cmds = append(cmds, startCmd(m.ctx, m.ctrl, mode, m.generation))
	}
	m.footer.SetMessage("starting...")
	return m, tea.Batch(cmds...)
}

func (m *Model) applyState(st orchestration.State) {
	m.header.SetBatch(st.Batch, st.HasBatch)
	m.experiments.SetState(st)
	m.results.SetResults(st.ResultsMode, st.Results)
}

// View renders the entire dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	left := lipgloss.JoinVertical(lipgloss.Left, m.experiments.View(), m.results.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, m.metrics.View())
	return lipgloss.JoinVertical(lipgloss.Left, m.header.View(), body, m.footer.View())
}

func (m *Model) layoutPanels() {
	m.header.SetWidth(m.width)
	m.footer.SetWidth(m.width)
	m.experiments.SetSize(m.leftWidth(), m.experimentsHeight())
	m.results.SetSize(m.leftWidth(), m.resultsHeight())
	m.metrics.SetSize(m.metricsWidth(), m.bodyHeight())
}

// ExitCode returns the process exit code chosen by the session.
func (m Model) ExitCode() int { return m.exitCode }

// describeError shortens the common start failures for the footer.
func describeError(err error) string {
	switch {
	case errors.Is(err, orchestration.ErrNoBatch):
		return "no active batch, upload files first"
	case errors.Is(err, experiment.ErrAlreadyRunning):
		return "already running"
	}
	return err.Error()
}

// Run is the public entry point for the TUI mode.
// It creates the bubbletea program, runs it, and returns the exit code.
func Run(ctx context.Context, ctrl Controller, opts Options) int {
	// Rebuild styles from the current ui theme (set by app.Run via InitTheme).
	initTUIStyles()

	model := NewModel(ctx, ctrl, opts)
	defer model.cancel()

	ref := &programRef{}
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	// Inject the program reference before running so the subscription can Send.
	ref.SetProgram(p)
	unsubscribe := subscribeState(ref, ctrl)
	defer unsubscribe()

	finalModel, err := p.Run()
	if ctx.Err() != nil {
		return apperrors.ExitCodeFor(context.Cause(ctx))
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return apperrors.ExitErrorGeneric
	}
	if m, ok := finalModel.(Model); ok {
		return m.exitCode
	}
	return apperrors.ExitSuccess
}

// tickCmd returns a command that sends a TickMsg after tickInterval.
func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// sampleMemStatsCmd reads runtime memory stats and returns a MemStatsMsg.
func sampleMemStatsCmd(mc *metrics.MemoryCollector) tea.Cmd {
	return func() tea.Msg {
		return MemStatsMsg(mc.Snapshot())
	}
}

// watchContextCmd waits for context cancellation and sends a message.
func watchContextCmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return ContextCancelledMsg{Err: context.Cause(ctx)}
	}
}
