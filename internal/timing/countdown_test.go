package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRemainingMs(t *testing.T) {
	assert.Equal(t, 45000, RemainingMs(90000, 45000))
	assert.Equal(t, 0, RemainingMs(90000, 90000))
	assert.Equal(t, 0, RemainingMs(90000, 120000))
}

func TestPhase(t *testing.T) {
	assert.Equal(t, PhaseNormal, Phase(31000, DefaultWarningMs))
	assert.Equal(t, PhaseWarning, Phase(30000, DefaultWarningMs))
	assert.Equal(t, PhaseWarning, Phase(1, DefaultWarningMs))
	assert.Equal(t, PhaseExpired, Phase(0, DefaultWarningMs))
	assert.Equal(t, PhaseNormal, Phase(10, 0))
}

func TestElapsedMs(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, 1500, ElapsedMs(start, start.Add(1500*time.Millisecond)))
	assert.Equal(t, 0, ElapsedMs(start, start.Add(-time.Second)))
	assert.Equal(t, MaxDurationMs, ElapsedMs(start, start.Add(3*time.Hour)))
}
