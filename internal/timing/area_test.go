package timing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAreaActive(t *testing.T) {
	pairs := []ElementLevel{
		{"Interior", "Novice"},
		{"Interior", "Excellent"},
		{"Interior", "Master"},
		{"Handler Discrimination", "Master"},
		{"Handler Discrimination", "Novice"},
		{"Container", "Advanced"},
		{"", ""},
	}
	for _, p := range pairs {
		for count := 0; count <= 4; count++ {
			assert.True(t, IsAreaActive(1, count, p.Element, p.Level), "area 1 for %v count %d", p, count)
		}
	}

	for count := 1; count <= 3; count++ {
		assert.False(t, IsAreaActive(2, count, "Interior", "Excellent"))
		assert.False(t, IsAreaActive(2, count, "Interior", "Master"))
		assert.False(t, IsAreaActive(2, count, "Handler Discrimination", "Master"))
		assert.False(t, IsAreaActive(3, count, "Interior", "Master"))
	}

	assert.False(t, IsAreaActive(2, 1, "Interior", "Novice"))
	assert.True(t, IsAreaActive(2, 2, "Interior", "Novice"))
	assert.True(t, IsAreaActive(2, 3, "Interior", "Novice"))
	assert.False(t, IsAreaActive(3, 2, "Interior", "Novice"))
	assert.True(t, IsAreaActive(3, 3, "Interior", "Novice"))
	assert.True(t, IsAreaActive(2, 2, "Handler Discrimination", "Excellent"))

	assert.False(t, IsAreaActive(0, 3, "Interior", "Novice"))
	assert.False(t, IsAreaActive(4, 3, "Interior", "Novice"))
}

func TestNewAreaConfig(t *testing.T) {
	cfg, err := NewAreaConfig(3, ElementLevel{"Interior", "Master"})
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.ActiveAreas())
	assert.True(t, cfg.IsActive(1))
	assert.False(t, cfg.IsActive(2))

	cfg, err = NewAreaConfig(2, ElementLevel{"Exterior", "Advanced"})
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.ActiveAreas())

	for _, tc := range []struct {
		count int
		el    ElementLevel
		field string
	}{
		{0, ElementLevel{"Interior", "Novice"}, "area count"},
		{4, ElementLevel{"Interior", "Novice"}, "area count"},
		{1, ElementLevel{"", "Novice"}, "element"},
		{1, ElementLevel{"Interior", "  "}, "level"},
	} {
		_, err := NewAreaConfig(tc.count, tc.el)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrConfiguration))

		var ce *ConfigurationError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, tc.field, ce.Field)
	}
}

func TestNextActiveArea(t *testing.T) {
	for maxAreas := 1; maxAreas <= 3; maxAreas++ {
		completed := 0
		for just := 1; just <= 5; just++ {
			next := NextActiveArea(completed, just, maxAreas)
			assert.GreaterOrEqual(t, next, completed)
			assert.LessOrEqual(t, next, maxAreas)
			completed = next
		}
		assert.Equal(t, maxAreas, completed)
	}

	assert.Equal(t, 2, NextActiveArea(2, 1, 3), "re-recording area 1 does not advance")
	assert.Equal(t, 3, NextActiveArea(3, 4, 3))
	assert.Equal(t, 0, NextActiveArea(-2, 0, 3))
	assert.Equal(t, 3, NextActiveArea(2, 3, 7))
}
