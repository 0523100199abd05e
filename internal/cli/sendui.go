package cli

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodix/walletd/internal/tracker"
	"github.com/custodix/walletd/internal/transfer"
)

type broadcastDoneMsg struct {
	outcome transfer.Outcome
	err     error
}

type trackDoneMsg struct {
	record tracker.Record
	err    error
}

// sendModel renders a spinner while the transfer broadcasts and, when
// requested, while the status tracker polls the principal transaction.
type sendModel struct {
	spinner spinner.Model
	status  string

	svc   *transfer.Service
	ctx   context.Context
	req   transfer.Request
	track bool

	outcome transfer.Outcome
	record  tracker.Record
	err     error
	done    bool
}

func newSendModel(ctx context.Context, svc *transfer.Service, req transfer.Request, track bool) sendModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = titleStyle
	return sendModel{
		spinner: s,
		status:  "Broadcasting fee and principal legs...",
		svc:     svc,
		ctx:     ctx,
		req:     req,
		track:   track,
	}
}

func (m sendModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.broadcast())
}

func (m sendModel) broadcast() tea.Cmd {
	return func() tea.Msg {
		outcome, err := m.svc.Execute(m.ctx, m.req)
		return broadcastDoneMsg{outcome: outcome, err: err}
	}
}

func (m sendModel) follow() tea.Cmd {
	return func() tea.Msg {
		record, err := m.svc.Follow(m.ctx, m.req.ChainID, m.outcome)
		return trackDoneMsg{record: record, err: err}
	}
}

func (m sendModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case broadcastDoneMsg:
		m.outcome = msg.outcome
		m.err = msg.err
		if msg.err != nil || !m.track {
			m.done = true
			return m, tea.Quit
		}
		m.status = "Waiting for confirmation..."
		return m, m.follow()

	case trackDoneMsg:
		m.record = msg.record
		if msg.err != nil && m.err == nil {
			m.err = msg.err
		}
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		// The broadcast is past the point of no return once submitted;
		// keys only detach the UI, they do not cancel the transfer.
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m sendModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.status + "\n"
}

// runSendUI executes the transfer behind a live spinner and returns the
// outcome plus the tracking record when tracking was requested.
func runSendUI(ctx context.Context, svc *transfer.Service, req transfer.Request, track bool) (transfer.Outcome, tracker.Record, error) {
	model := newSendModel(ctx, svc, req, track)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		// Terminal trouble: fall back to running without the UI.
		outcome, sendErr := svc.Execute(ctx, req)
		if sendErr != nil || !track {
			return outcome, tracker.Record{}, sendErr
		}
		record, followErr := svc.Follow(ctx, req.ChainID, outcome)
		if followErr != nil {
			return outcome, record, followErr
		}
		return outcome, record, nil
	}

	m := final.(sendModel)
	return m.outcome, m.record, m.err
}
