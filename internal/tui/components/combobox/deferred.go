package combobox

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultBlurDelay is how long a blurred combobox keeps its dropdown open.
// A pointer press that moved focus away still lands on the row it hit.
const DefaultBlurDelay = 150 * time.Millisecond

type blurCloseMsg struct {
	id  string
	seq uint64
}

// closeTimer is a cancelable deferred close. Each Schedule or Cancel bumps
// the sequence, so only the tick from the latest Schedule can fire and an
// earlier one is superseded rather than stacked.
type closeTimer struct {
	id      string
	delay   time.Duration
	seq     uint64
	pending bool
}

func newCloseTimer(id string, delay time.Duration) *closeTimer {
	return &closeTimer{id: id, delay: delay}
}

func (t *closeTimer) Schedule() tea.Cmd {
	t.seq++
	t.pending = true
	msg := blurCloseMsg{id: t.id, seq: t.seq}
	return tea.Tick(t.delay, func(time.Time) tea.Msg {
		return msg
	})
}

func (t *closeTimer) Cancel() {
	t.seq++
	t.pending = false
}

func (t *closeTimer) Pending() bool {
	return t.pending
}

// Fire reports whether msg is the live tick for this timer and consumes it.
func (t *closeTimer) Fire(msg blurCloseMsg) bool {
	if !t.pending || msg.id != t.id || msg.seq != t.seq {
		return false
	}
	t.pending = false
	return true
}
