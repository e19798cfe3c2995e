package timing

import (
	"fmt"
	"strings"
)

// AreaValues holds the area times entered so far, indexed by area-1
type AreaValues [MaxAreas]string

// Recorded reports whether area has a value. Blank text counts as empty.
func (v AreaValues) Recorded(area int) bool {
	if area < 1 || area > MaxAreas {
		return false
	}
	return !isEmpty(v[area-1])
}

// AreaLimits holds the per-area time limit strings, indexed by area-1
type AreaLimits [MaxAreas]string

// Check parses the limit of every area up to areaCount
func (l AreaLimits) Check(areaCount int) error {
	if err := validAreaCount(areaCount); err != nil {
		return err
	}
	for area := 1; area <= areaCount; area++ {
		if _, err := Parse(l[area-1]); err != nil {
			return fmt.Errorf("area %d time limit: %w", area, err)
		}
	}
	return nil
}

// CurrentArea returns the area the countdown should be armed for: the first
// area with no recorded value. Two-area classes with both areas filled wrap
// back to area 1, as do three-area classes with all three filled.
func CurrentArea(areaCount int, values AreaValues) (int, error) {
	if err := validAreaCount(areaCount); err != nil {
		return 0, err
	}

	switch areaCount {
	case 2:
		if isEmpty(values[0]) {
			return 1, nil
		}
		if isEmpty(values[1]) {
			return 2, nil
		}
	case 3:
		for i := 0; i < 3; i++ {
			if isEmpty(values[i]) {
				return i + 1, nil
			}
		}
	}
	return 1, nil
}

// ResolvePreset returns the countdown preset for the area currently being timed
func ResolvePreset(areaCount int, values AreaValues, limits AreaLimits) (int, error) {
	area, err := CurrentArea(areaCount, values)
	if err != nil {
		return 0, err
	}

	ms, err := Parse(limits[area-1])
	if err != nil {
		return 0, fmt.Errorf("area %d time limit: %w", area, err)
	}
	return ms, nil
}

// ResolvePresetMs is ResolvePreset with the areas and limits passed individually
func ResolvePresetMs(areaCount int, area1, area2, area3, limit1, limit2, limit3 string) (int, error) {
	return ResolvePreset(areaCount,
		AreaValues{area1, area2, area3},
		AreaLimits{limit1, limit2, limit3},
	)
}

func isEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}
