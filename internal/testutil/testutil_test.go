package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRNG_Reset(t *testing.T) {
	rng := NewRNG(4711)
	assert.Equal(t, int64(4711), rng.Seed())

	a := make([]byte, 32)
	rng.Fill(a)
	rng.Reset()
	b := make([]byte, 32)
	rng.Fill(b)

	assert.Equal(t, a, b)
	assert.NotEqual(t, make([]byte, 32), a)
}

func TestRNG_Heights(t *testing.T) {
	rng := NewRNG(4711)

	hs := rng.Heights(1000, 800_000, 3)

	assert.Len(t, hs, 1000)
	assert.Equal(t, uint32(800_000), hs[0])
	for i := 1; i < len(hs); i++ {
		assert.GreaterOrEqual(t, hs[i], hs[i-1])
		assert.LessOrEqual(t, hs[i]-hs[i-1], uint32(3))
	}
}
