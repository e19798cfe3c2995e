package storage

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rbeezley/myk9q-scoring/internal/models"
	"github.com/rbeezley/myk9q-scoring/internal/timing"
)

type seedFile struct {
	Trial struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"trial"`
	Classes []seedClass  `yaml:"classes"`
	Clients []seedClient `yaml:"clients"`
}

type seedClass struct {
	ID         string      `yaml:"id"`
	Element    string      `yaml:"element"`
	Level      string      `yaml:"level"`
	Areas      int         `yaml:"areas"`
	TimeLimits []string    `yaml:"time_limits"`
	Judge      string      `yaml:"judge"`
	Entries    []seedEntry `yaml:"entries"`
}

type seedEntry struct {
	ID      string `yaml:"id"`
	Armband int    `yaml:"armband"`
	Handler string `yaml:"handler"`
	Dog     string `yaml:"dog"`
}

type seedClient struct {
	Name        string   `yaml:"name"`
	ApiKey      string   `yaml:"api_key"`
	Permissions []string `yaml:"permissions"`
}

// SeedFromFile loads a YAML trial fixture into the repository
func (r *MemoryRepository) SeedFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	return r.Seed(data)
}

// Seed loads a YAML trial fixture. Class time limits are stored as written.
func (r *MemoryRepository) Seed(data []byte) error {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse seed: %w", err)
	}

	for i, sc := range f.Classes {
		if sc.ID == "" {
			return fmt.Errorf("seed class %d: id is required", i)
		}
		if len(sc.TimeLimits) > timing.MaxAreas {
			return fmt.Errorf("seed class %s: at most %d time limits", sc.ID, timing.MaxAreas)
		}
		var limits timing.AreaLimits
		copy(limits[:], sc.TimeLimits)

		r.AddClass(&models.Class{
			ID:         sc.ID,
			TrialID:    f.Trial.ID,
			TrialName:  f.Trial.Name,
			Element:    sc.Element,
			Level:      sc.Level,
			AreaCount:  sc.Areas,
			TimeLimits: limits,
			Judge:      sc.Judge,
		})
		for _, se := range sc.Entries {
			r.AddEntry(&models.Entry{
				ID:      se.ID,
				ClassID: sc.ID,
				Armband: se.Armband,
				Handler: se.Handler,
				DogName: se.Dog,
			})
		}
	}

	for i, c := range f.Clients {
		if c.ApiKey == "" {
			return fmt.Errorf("seed client %d: api_key is required", i)
		}
		r.AddClient(&models.ApiClient{
			ID:          i + 1,
			Name:        c.Name,
			ApiKey:      c.ApiKey,
			IsActive:    true,
			Permissions: c.Permissions,
		})
	}
	return nil
}
