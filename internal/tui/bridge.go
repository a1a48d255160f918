package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agbru/pdcbench/internal/experiment"
	"github.com/agbru/pdcbench/internal/orchestration"
)

// Controller is the part of the orchestrator the dashboard drives.
// *orchestration.Orchestrator implements it.
type Controller interface {
	Start(ctx context.Context, mode experiment.Mode) error
	Reset(mode experiment.Mode)
	Clear() error
	State() orchestration.State
	Subscribe(fn func(orchestration.State)) (unsubscribe func())
}

// programRef is a shared reference to the tea.Program.
// Because bubbletea copies the model on every Update, we need a pointer
// that survives copies so the bridge goroutines can send messages.
type programRef struct {
	mu      sync.RWMutex
	program *tea.Program
}

// SetProgram sets the tea.Program reference (thread-safe).
func (r *programRef) SetProgram(p *tea.Program) {
	r.mu.Lock()
	r.program = p
	r.mu.Unlock()
}

// Send sends a message to the bubbletea program (thread-safe).
func (r *programRef) Send(msg tea.Msg) {
	r.mu.RLock()
	p := r.program
	r.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

// subscribeState forwards every published orchestrator state to the program.
func subscribeState(ref *programRef, ctrl Controller) (unsubscribe func()) {
	return ctrl.Subscribe(func(st orchestration.State) {
		ref.Send(StateMsg{State: st})
	})
}

// startCmd launches mode. Start returns once the service has answered, so it
// runs off the UI goroutine; polling continues inside the orchestrator.
func startCmd(ctx context.Context, ctrl Controller, mode experiment.Mode, gen uint64) tea.Cmd {
	return func() tea.Msg {
		return StartResultMsg{Mode: mode, Err: ctrl.Start(ctx, mode), Generation: gen}
	}
}

// resetCmd stops and resets both modes.
func resetCmd(ctrl Controller, gen uint64) tea.Cmd {
	return func() tea.Msg {
		for _, m := range experiment.Modes() {
			ctrl.Reset(m)
		}
		return ActionDoneMsg{Action: "reset", Generation: gen}
	}
}

// clearCmd forgets the active batch.
func clearCmd(ctrl Controller, gen uint64) tea.Cmd {
	return func() tea.Msg {
		return ActionDoneMsg{Action: "clear", Err: ctrl.Clear(), Generation: gen}
	}
}
