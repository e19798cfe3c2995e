// Package timing converts masked time strings and decides which areas and
// time limits apply to a scoring run. Every function is pure.
package timing

import (
	"fmt"
	"strings"
)

// MaxDurationMs is the 99:59.99 ceiling of the area mask
const MaxDurationMs = 5_999_999

// Mask describes a fixed-position time input format
type Mask struct {
	Hours      bool
	Hundredths bool
}

var (
	// AreaMask is used for recorded area times and time limits
	AreaMask = Mask{Hundredths: true}
	// CountdownMask is used by the countdown display
	CountdownMask = Mask{}
)

// Pattern returns the mask with '#' for each digit slot
func (m Mask) Pattern() string {
	p := "##:##"
	if m.Hours {
		p = "##:" + p
	}
	if m.Hundredths {
		p += ".##"
	}
	return p
}

// Len returns the number of characters a fully entered string has
func (m Mask) Len() int {
	return len(m.Pattern())
}

type segments struct {
	hours, minutes, seconds, hundredths int
}

func (s segments) ms() int {
	return s.hours*3_600_000 + s.minutes*60_000 + s.seconds*1000 + s.hundredths*10
}

// Parse converts a fully entered time string into milliseconds.
// The mask is picked from the length and separator positions:
// MM:SS, MM:SS.HH, HH:MM:SS or HH:MM:SS.HH. Partially typed strings
// are rejected.
func Parse(text string) (int, error) {
	m, ok := maskFor(text)
	if !ok {
		return 0, &FormatError{Input: text, Reason: "does not match a time mask"}
	}
	return ParseMask(text, m)
}

// ParseMask parses text against exactly one mask
func ParseMask(text string, m Mask) (int, error) {
	seg, err := split(text, m)
	if err != nil {
		return 0, err
	}

	ms := seg.ms()
	if ms > MaxDurationMs {
		return 0, &FormatError{Input: text, Reason: "exceeds 99:59.99"}
	}
	return ms, nil
}

// Format renders ms using the mask conventions of the scoring screens.
// Values are clamped to [0, MaxDurationMs] and truncated to hundredths.
func Format(ms int, includeHours, includeHundredths bool) string {
	if ms < 0 {
		ms = 0
	}
	if ms > MaxDurationMs {
		ms = MaxDurationMs
	}

	totalSeconds := ms / 1000
	seconds := totalSeconds % 60

	var b strings.Builder
	if includeHours {
		fmt.Fprintf(&b, "%02d:%02d:%02d", totalSeconds/3600, (totalSeconds/60)%60, seconds)
	} else {
		fmt.Fprintf(&b, "%02d:%02d", totalSeconds/60, seconds)
	}
	if includeHundredths {
		fmt.Fprintf(&b, ".%02d", (ms%1000)/10)
	}
	return b.String()
}

// ValidateAreaTime checks a value typed into an area field.
// An empty limit skips the time limit check.
func ValidateAreaTime(text, limit string) error {
	m, ok := maskFor(text)
	if !ok {
		return &FormatError{Input: text, Reason: "does not match a time mask"}
	}
	seg, err := split(text, m)
	if err != nil {
		return err
	}
	if seg.seconds >= 60 || (m.Hours && seg.minutes >= 60) {
		return fmt.Errorf("%w: %q", ErrSecondsOutOfRange, text)
	}
	ms := seg.ms()
	if ms > MaxDurationMs {
		return &FormatError{Input: text, Reason: "exceeds 99:59.99"}
	}

	if limit == "" {
		return nil
	}
	limitMs, err := Parse(limit)
	if err != nil {
		return fmt.Errorf("time limit: %w", err)
	}
	if ms > limitMs {
		return fmt.Errorf("%w: %s is over %s", ErrOverTimeLimit, text, limit)
	}
	return nil
}

func maskFor(text string) (Mask, bool) {
	switch len(text) {
	case 5:
		return CountdownMask, true
	case 8:
		switch text[5] {
		case '.':
			return AreaMask, true
		case ':':
			return Mask{Hours: true}, true
		}
	case 11:
		return Mask{Hours: true, Hundredths: true}, true
	}
	return Mask{}, false
}

// split reads segments by fixed character position
func split(text string, m Mask) (segments, error) {
	pattern := m.Pattern()
	if len(text) != len(pattern) {
		return segments{}, &FormatError{Input: text, Reason: "expected " + pattern}
	}
	for i := 0; i < len(pattern); i++ {
		c := text[i]
		if pattern[i] == '#' {
			if c < '0' || c > '9' {
				return segments{}, &FormatError{Input: text, Reason: fmt.Sprintf("non-digit at position %d", i+1)}
			}
			continue
		}
		if c != pattern[i] {
			return segments{}, &FormatError{Input: text, Reason: fmt.Sprintf("expected %q at position %d", pattern[i], i+1)}
		}
	}

	var seg segments
	off := 0
	if m.Hours {
		seg.hours = twoDigits(text[0:2])
		off = 3
	}
	seg.minutes = twoDigits(text[off : off+2])
	seg.seconds = twoDigits(text[off+3 : off+5])
	if m.Hundredths {
		seg.hundredths = twoDigits(text[off+6 : off+8])
	}
	return seg, nil
}

func twoDigits(s string) int {
	return int(s[0]-'0')*10 + int(s[1]-'0')
}
