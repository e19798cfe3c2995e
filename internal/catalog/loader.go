// Package catalog loads default class settings (area count and per-area time
// limits) for each element/level from YAML files.
package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/rbeezley/myk9q-scoring/internal/timing"
)

// ClassDefaults are the rulebook settings for one element/level
type ClassDefaults struct {
	Organization string            `json:"organization"`
	Sport        string            `json:"sport"`
	Element      string            `json:"element"`
	Level        string            `json:"level"`
	AreaCount    int               `json:"area_count"`
	TimeLimits   timing.AreaLimits `json:"time_limits"`
}

// Loader manages loading and caching of class defaults
type Loader struct {
	mu       sync.RWMutex
	defaults map[timing.ElementLevel]*ClassDefaults
}

// NewLoader creates an empty loader
func NewLoader() *Loader {
	return &Loader{
		defaults: make(map[timing.ElementLevel]*ClassDefaults),
	}
}

// LoadFromDir loads every *.yaml and *.yml file in dir.
// Files that fail to load are logged and skipped.
func (l *Loader) LoadFromDir(dir string) error {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return fmt.Errorf("failed to glob %s: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	loaded := 0
	for _, file := range files {
		if err := l.LoadFromFile(file); err != nil {
			slog.Warn("failed to load catalog file", "file", file, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("catalog loaded", "dir", dir, "files", loaded, "classes", l.Len())
	return nil
}

// LoadFromFile loads one rulebook file
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return l.Load(data)
}

// Load parses one rulebook document. The whole document is rejected if any
// class in it is invalid.
func (l *Loader) Load(data []byte) error {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	if f.Organization == "" {
		return fmt.Errorf("organization is required")
	}

	parsed := make([]*ClassDefaults, 0, len(f.Classes))
	for i, c := range f.Classes {
		d, err := c.toDefaults(f.Organization, f.Sport)
		if err != nil {
			return fmt.Errorf("class %d (%s %s): %w", i+1, c.Element, c.Level, err)
		}
		parsed = append(parsed, d)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, d := range parsed {
		key := timing.ElementLevel{Element: d.Element, Level: d.Level}
		if prev, ok := l.defaults[key]; ok {
			slog.Warn("duplicate catalog class, keeping first",
				"element", d.Element,
				"level", d.Level,
				"kept", prev.Organization,
				"skipped", d.Organization,
			)
			continue
		}
		l.defaults[key] = d
	}
	return nil
}

// Lookup returns the defaults for element/level, or nil
func (l *Loader) Lookup(element, level string) *ClassDefaults {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.defaults[timing.ElementLevel{Element: element, Level: level}]
}

// List returns all defaults ordered by element and level
func (l *Loader) List() []*ClassDefaults {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*ClassDefaults, 0, len(l.defaults))
	for _, d := range l.defaults {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Element != result[j].Element {
			return result[i].Element < result[j].Element
		}
		return result[i].Level < result[j].Level
	})
	return result
}

// Len returns how many element/level pairs are loaded
func (l *Loader) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.defaults)
}

// --- YAML file structs ---

type catalogFile struct {
	Organization string      `yaml:"organization"`
	Sport        string      `yaml:"sport"`
	Classes      []classFile `yaml:"classes"`
}

type classFile struct {
	Element    string   `yaml:"element"`
	Level      string   `yaml:"level"`
	Areas      int      `yaml:"areas"`
	TimeLimits []string `yaml:"time_limits"`
}

func (c classFile) toDefaults(org, sport string) (*ClassDefaults, error) {
	areas := c.Areas
	if areas == 0 {
		areas = 1
	}

	cfg, err := timing.NewAreaConfig(areas, timing.ElementLevel{
		Element: strings.TrimSpace(c.Element),
		Level:   strings.TrimSpace(c.Level),
	})
	if err != nil {
		return nil, err
	}

	if len(c.TimeLimits) > timing.MaxAreas {
		return nil, fmt.Errorf("at most %d time limits, got %d", timing.MaxAreas, len(c.TimeLimits))
	}
	if len(c.TimeLimits) < cfg.ActiveAreas() {
		return nil, fmt.Errorf("%d active areas but %d time limits", cfg.ActiveAreas(), len(c.TimeLimits))
	}

	d := &ClassDefaults{
		Organization: org,
		Sport:        sport,
		Element:      cfg.ElementLevel.Element,
		Level:        cfg.ElementLevel.Level,
		AreaCount:    areas,
	}
	for i, limit := range c.TimeLimits {
		if _, err := timing.Parse(limit); err != nil {
			return nil, fmt.Errorf("time limit %d: %w", i+1, err)
		}
		d.TimeLimits[i] = limit
	}
	return d, nil
}
