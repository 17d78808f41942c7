package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, Clamp(-3, 0, 4))
	assert.Equal(t, 4, Clamp(9, 0, 4))
	assert.Equal(t, 2, Clamp(2, 0, 4))
	// swapped bounds
	assert.Equal(t, 4, Clamp(9, 4, 0))
	assert.Equal(t, 0, Clamp(0, 0, 0))
}

func TestCmdHandler(t *testing.T) {
	t.Parallel()

	type ping struct{ n int }
	cmd := CmdHandler(ping{n: 1})
	assert.Equal(t, ping{n: 1}, cmd())
}

func TestEllipsize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Alpha", Ellipsize("Alpha", 10))
	assert.Equal(t, "Alp…", Ellipsize("Alphabet", 4))
	assert.Equal(t, "", Ellipsize("Alpha", 0))
}
