package eventoutput

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHolder(t *testing.T) {
	h := NewHolder()

	first := h.Reset("sess1")
	assert.Same(t, first, h.Output("sess1"))

	second := h.Reset("sess1")
	assert.NotSame(t, first, second)
	assert.Same(t, second, h.Output("sess1"))

	other := h.Output("sess2")
	assert.NotNil(t, other)
	assert.NotSame(t, second, other)

	h.Release("sess1")
	assert.NotSame(t, second, h.Output("sess1"))
}
