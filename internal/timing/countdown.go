package timing

import "time"

// DefaultWarningMs is when the countdown display switches to its warning state
const DefaultWarningMs = 30_000

// CountdownPhase is the display state of a running countdown
type CountdownPhase string

const (
	PhaseNormal  CountdownPhase = "normal"
	PhaseWarning CountdownPhase = "warning"
	PhaseExpired CountdownPhase = "expired"
)

// RemainingMs returns what is left of presetMs after elapsedMs, never negative
func RemainingMs(presetMs, elapsedMs int) int {
	remaining := presetMs - elapsedMs
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Phase classifies remainingMs against the warning threshold.
// A non-positive warningMs disables the warning phase.
func Phase(remainingMs, warningMs int) CountdownPhase {
	switch {
	case remainingMs <= 0:
		return PhaseExpired
	case warningMs > 0 && remainingMs <= warningMs:
		return PhaseWarning
	default:
		return PhaseNormal
	}
}

// ElapsedMs returns the milliseconds between start and now, clamped to the mask range
func ElapsedMs(start, now time.Time) int {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	ms := d.Milliseconds()
	if ms > MaxDurationMs {
		return MaxDurationMs
	}
	return int(ms)
}
