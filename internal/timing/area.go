package timing

import (
	"strconv"
	"strings"
)

// MaxAreas is the largest number of timed areas in one run
const MaxAreas = 3

// ElementLevel identifies the competition category of a class
type ElementLevel struct {
	Element string `json:"element"`
	Level   string `json:"level"`
}

// singleAreaClasses always run with one area, whatever the class record says
var singleAreaClasses = map[ElementLevel]bool{
	{Element: "Interior", Level: "Excellent"}:            true,
	{Element: "Interior", Level: "Master"}:               true,
	{Element: "Handler Discrimination", Level: "Master"}: true,
}

// AreaConfig is built once per scoring session from the class record
type AreaConfig struct {
	AreaCount    int          `json:"area_count"`
	ElementLevel ElementLevel `json:"element_level"`
}

// NewAreaConfig validates the configured area count and element/level pair
func NewAreaConfig(areaCount int, el ElementLevel) (AreaConfig, error) {
	if err := validAreaCount(areaCount); err != nil {
		return AreaConfig{}, err
	}
	if strings.TrimSpace(el.Element) == "" {
		return AreaConfig{}, &ConfigurationError{Field: "element", Value: el.Element}
	}
	if strings.TrimSpace(el.Level) == "" {
		return AreaConfig{}, &ConfigurationError{Field: "level", Value: el.Level}
	}
	return AreaConfig{AreaCount: areaCount, ElementLevel: el}, nil
}

// IsAreaActive reports whether the input and timer for area should be shown.
// Area 1 is always active.
func IsAreaActive(area, configuredAreaCount int, element, level string) bool {
	if area < 1 || area > MaxAreas {
		return false
	}
	if area == 1 {
		return true
	}
	if singleAreaClasses[ElementLevel{Element: element, Level: level}] {
		return false
	}
	return configuredAreaCount >= area
}

// IsActive reports whether area is active for this configuration
func (c AreaConfig) IsActive(area int) bool {
	return IsAreaActive(area, c.AreaCount, c.ElementLevel.Element, c.ElementLevel.Level)
}

// ActiveAreas returns how many areas are actually timed
func (c AreaConfig) ActiveAreas() int {
	n := 0
	for area := 1; area <= MaxAreas; area++ {
		if c.IsActive(area) {
			n++
		}
	}
	return n
}

// NextActiveArea advances the completed-area counter after justCompleted
// was recorded. Re-recording an earlier area does not advance it.
// The result stays within [0, maxAreas].
func NextActiveArea(completed, justCompleted, maxAreas int) int {
	if maxAreas > MaxAreas {
		maxAreas = MaxAreas
	}
	if maxAreas < 0 {
		maxAreas = 0
	}

	next := completed
	if justCompleted > completed {
		next = completed + 1
	}

	if next < 0 {
		return 0
	}
	if next > maxAreas {
		return maxAreas
	}
	return next
}

func validAreaCount(n int) error {
	if n < 1 || n > MaxAreas {
		return &ConfigurationError{Field: "area count", Value: strconv.Itoa(n)}
	}
	return nil
}
