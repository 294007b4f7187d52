package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pschneider14/venturelens/internal/domain"
)

// Dispatcher bridges the coordinator's push-style sinks into Bubbletea
// messages. Channels hold only the latest value: the UI always renders the
// most recent state, intermediate updates may be dropped.
type Dispatcher struct {
	views  chan domain.DirectoryView
	access chan domain.AccessState
}

// NewDispatcher creates a dispatcher with latest-wins channels.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		views:  make(chan domain.DirectoryView, 1),
		access: make(chan domain.AccessState, 1),
	}
}

// PublishDirectory implements domain.ViewSink.
func (d *Dispatcher) PublishDirectory(view domain.DirectoryView) {
	publishLatest(d.views, view)
}

// PublishAccess implements domain.AccessSink.
func (d *Dispatcher) PublishAccess(state domain.AccessState) {
	publishLatest(d.access, state)
}

func publishLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// directoryMsg carries a directory view-model update.
type directoryMsg domain.DirectoryView

// accessMsg carries an access-state update.
type accessMsg domain.AccessState

func (d *Dispatcher) waitForDirectory() tea.Cmd {
	return func() tea.Msg {
		return directoryMsg(<-d.views)
	}
}

func (d *Dispatcher) waitForAccess() tea.Cmd {
	return func() tea.Msg {
		return accessMsg(<-d.access)
	}
}
