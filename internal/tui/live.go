package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/kinsim/internal/integrators"
	"github.com/san-kum/kinsim/internal/sim"
	"github.com/san-kum/kinsim/internal/trajectory"
)

// windowMsg reports a completed window while a run is in progress.
type windowMsg struct {
	index   int
	reached float64
	stats   integrators.Stats
}

type resultMsg struct {
	res *sim.Result
	err error
}

// progress forwards completed windows to a running program.
type progress struct {
	send func(tea.Msg)
}

func (p progress) OnWindow(tr *trajectory.Trajectory, st integrators.Stats) {
	p.send(windowMsg{index: tr.Window, reached: tr.Time(tr.Top()), stats: st})
}

// RunFunc runs a simulation with obs attached to its simulator.
type RunFunc func(ctx context.Context, obs sim.Observer) (*sim.Result, error)

// RunLive starts run in the background, shows its progress through the
// windows and then the finished run. Quitting early cancels the run. It
// returns the run's result and error once the viewer closes.
func RunLive(ctx context.Context, title string, windows int, run RunFunc) (*sim.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newModel(title)
	m.total = windows
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	type outcome struct {
		res *sim.Result
		err error
	}
	finished := make(chan outcome, 1)
	go func() {
		res, err := run(ctx, progress{send: p.Send})
		finished <- outcome{res, err}
		p.Send(resultMsg{res: res, err: err})
	}()

	_, uiErr := p.Run()
	cancel()
	out := <-finished
	if out.err != nil {
		return out.res, out.err
	}
	if uiErr != nil && !errors.Is(uiErr, tea.ErrProgramKilled) {
		return out.res, uiErr
	}
	return out.res, nil
}
