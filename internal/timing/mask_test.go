package timing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"00:00.00", 0},
		{"02:15.50", 135500},
		{"01:30.00", 90000},
		{"99:59.99", 5_999_990},
		{"01:30", 90000},
		{"00:45", 45000},
		{"01:00:00", 3_600_000},
		{"01:39:59.99", 5_999_990},
		{"00:75.00", 75000},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{
		"",
		"1:30.00",
		"01:30.0",
		"01:3",
		"01-30.00",
		"0a:30.00",
		"01:30,00",
		"-1:30.00",
		"99:99.99",
		"02:00:00.00",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFormat))

			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, in, fe.Input)
		})
	}
}

func TestParseMaskStrict(t *testing.T) {
	_, err := ParseMask("01:30", AreaMask)
	assert.ErrorIs(t, err, ErrFormat)

	ms, err := ParseMask("01:30", CountdownMask)
	require.NoError(t, err)
	assert.Equal(t, 90000, ms)
}

func TestMaskPattern(t *testing.T) {
	assert.Equal(t, "##:##.##", AreaMask.Pattern())
	assert.Equal(t, "##:##", CountdownMask.Pattern())
	assert.Equal(t, "##:##:##.##", Mask{Hours: true, Hundredths: true}.Pattern())
	assert.Equal(t, 8, AreaMask.Len())
}

func TestFormat(t *testing.T) {
	tests := []struct {
		ms               int
		hours, hundredth bool
		want             string
	}{
		{135500, false, true, "02:15.50"},
		{135500, false, false, "02:15"},
		{135500, true, true, "00:02:15.50"},
		{3_725_120, true, false, "01:02:05"},
		{0, false, true, "00:00.00"},
		{-50, false, true, "00:00.00"},
		{9_999_999, false, true, "99:59.99"},
		{1239, false, true, "00:01.23"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.ms, tt.hours, tt.hundredth), "Format(%d, %v, %v)", tt.ms, tt.hours, tt.hundredth)
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, s := range []string{"00:00.00", "02:15.50", "59:59.99", "10:05.07", "99:59.99"} {
		ms, err := Parse(s)
		require.NoError(t, err)
		assert.Equal(t, s, Format(ms, false, true))
	}

	for _, s := range []string{"00:00", "01:30", "45:09"} {
		ms, err := Parse(s)
		require.NoError(t, err)
		assert.Equal(t, s, Format(ms, false, false))
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	check := func(ms int) {
		got, err := Parse(Format(ms, true, true))
		require.NoError(t, err, "ms=%d", ms)
		assert.Equal(t, ms-ms%10, got, "ms=%d", ms)
	}

	for ms := 0; ms <= MaxDurationMs; ms += 7_777 {
		check(ms)
	}
	check(MaxDurationMs)
	check(MaxDurationMs - 9)
	check(3_600_000)
}

func TestValidateAreaTime(t *testing.T) {
	assert.NoError(t, ValidateAreaTime("01:30.00", ""))
	assert.NoError(t, ValidateAreaTime("01:30.00", "01:30.00"))
	assert.NoError(t, ValidateAreaTime("00:59.99", "01:00"))

	assert.ErrorIs(t, ValidateAreaTime("00:75.00", ""), ErrSecondsOutOfRange)
	assert.ErrorIs(t, ValidateAreaTime("00:61:00", ""), ErrSecondsOutOfRange)
	assert.ErrorIs(t, ValidateAreaTime("01:30.01", "01:30.00"), ErrOverTimeLimit)
	assert.ErrorIs(t, ValidateAreaTime("01:3", ""), ErrFormat)
	assert.ErrorIs(t, ValidateAreaTime("01:00.00", "1:00"), ErrFormat)
}
