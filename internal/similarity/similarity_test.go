package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTFIDFFactors(t *testing.T) {
	s := Default()

	assert.InDelta(t, 1.0, s.IDF(9, 10), 0.0001)
	assert.InDelta(t, 3.0, s.TF(9), 0.0001)
	assert.InDelta(t, 1.0/4.0, s.LengthNorm("field", 16), 0.0001)
	assert.InDelta(t, 1.0/4.0, s.QueryNorm(16), 0.0001)
	assert.InDelta(t, 1.0/10.0, s.SloppyFreq(9), 0.0001)
	assert.InDelta(t, 4.0, s.Coord(12, 3), 0.0001)
}

func TestTFIDFEdgeCases(t *testing.T) {
	s := Default()

	assert.Equal(t, float32(0), s.TF(0))
	assert.Equal(t, float32(0), s.TF(-1))
	assert.Equal(t, float32(0), s.LengthNorm("field", 0))
	assert.Equal(t, float32(1), s.QueryNorm(0))
	assert.Equal(t, float32(1), s.SloppyFreq(0))
	assert.Equal(t, float32(1), s.Coord(0, 0))
}
