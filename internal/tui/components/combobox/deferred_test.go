package combobox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tick(t *testing.T, timer *closeTimer) blurCloseMsg {
	t.Helper()
	cmd := timer.Schedule()
	require.NotNil(t, cmd)
	msg, ok := cmd().(blurCloseMsg)
	require.True(t, ok)
	return msg
}

func TestCloseTimerFires(t *testing.T) {
	t.Parallel()

	timer := newCloseTimer("f", time.Millisecond)
	msg := tick(t, timer)
	assert.True(t, timer.Pending())
	assert.True(t, timer.Fire(msg))
	assert.False(t, timer.Pending())
	assert.False(t, timer.Fire(msg), "a tick fires once")
}

func TestCloseTimerCancel(t *testing.T) {
	t.Parallel()

	timer := newCloseTimer("f", time.Millisecond)
	msg := tick(t, timer)
	timer.Cancel()
	assert.False(t, timer.Pending())
	assert.False(t, timer.Fire(msg))
}

func TestCloseTimerSupersedes(t *testing.T) {
	t.Parallel()

	timer := newCloseTimer("f", time.Millisecond)
	first := tick(t, timer)
	second := tick(t, timer)
	assert.False(t, timer.Fire(first))
	assert.True(t, timer.Fire(second))
}

func TestCloseTimerIgnoresOtherInstances(t *testing.T) {
	t.Parallel()

	a := newCloseTimer("a", time.Millisecond)
	b := newCloseTimer("b", time.Millisecond)
	msg := tick(t, a)
	tick(t, b)
	assert.False(t, b.Fire(msg))
	assert.True(t, a.Fire(msg))
}
