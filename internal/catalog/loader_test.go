package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbeezley/myk9q-scoring/internal/timing"
)

func TestLoad(t *testing.T) {
	l := NewLoader()
	err := l.Load([]byte(`
organization: UKC
sport: Nosework
classes:
  - element: Interior
    level: Novice
    areas: 2
    time_limits: ["01:30.00", "01:30"]
  - element: Vehicle
    level: Novice
    time_limits: ["03:00.00"]
`))
	require.NoError(t, err)
	assert.Equal(t, 2, l.Len())

	d := l.Lookup("Interior", "Novice")
	require.NotNil(t, d)
	assert.Equal(t, "UKC", d.Organization)
	assert.Equal(t, 2, d.AreaCount)
	assert.Equal(t, timing.AreaLimits{"01:30.00", "01:30", ""}, d.TimeLimits)

	v := l.Lookup("Vehicle", "Novice")
	require.NotNil(t, v)
	assert.Equal(t, 1, v.AreaCount, "areas defaults to 1")

	assert.Nil(t, l.Lookup("Interior", "Master"))
}

func TestLoadRejectsInvalidDocuments(t *testing.T) {
	docs := map[string]string{
		"no organization": `classes: []`,
		"bad yaml":        `organization: [`,
		"bad limit": `
organization: AKC
classes:
  - {element: Container, level: Novice, areas: 1, time_limits: ["2:00"]}`,
		"too few limits": `
organization: AKC
classes:
  - {element: Container, level: Novice, areas: 2, time_limits: ["02:00.00"]}`,
		"bad area count": `
organization: AKC
classes:
  - {element: Container, level: Novice, areas: 4, time_limits: ["02:00.00"]}`,
		"missing level": `
organization: AKC
classes:
  - {element: Container, areas: 1, time_limits: ["02:00.00"]}`,
	}

	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			l := NewLoader()
			assert.Error(t, l.Load([]byte(doc)))
			assert.Equal(t, 0, l.Len())
		})
	}
}

func TestSingleAreaClassNeedsOneLimit(t *testing.T) {
	l := NewLoader()
	err := l.Load([]byte(`
organization: AKC
classes:
  - {element: Interior, level: Master, areas: 3, time_limits: ["04:00.00"]}`))
	require.NoError(t, err)
	assert.NotNil(t, l.Lookup("Interior", "Master"))
}

func TestDuplicateKeepsFirst(t *testing.T) {
	l := NewLoader()
	require.NoError(t, l.Load([]byte(`
organization: AKC
classes:
  - {element: Container, level: Novice, time_limits: ["02:00.00"]}`)))
	require.NoError(t, l.Load([]byte(`
organization: UKC
classes:
  - {element: Container, level: Novice, time_limits: ["01:00.00"]}`)))

	assert.Equal(t, "AKC", l.Lookup("Container", "Novice").Organization)
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.yml"), []byte(`
organization: AKC
classes:
  - {element: Buried, level: Novice, time_limits: ["02:00.00"]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(`organization: [`), 0o644))

	l := NewLoader()
	require.NoError(t, l.LoadFromDir(dir))
	assert.Equal(t, 1, l.Len())
}

func TestBundledCatalog(t *testing.T) {
	dir := filepath.Join("..", "..", "catalog")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Skip("catalog directory not found, skipping")
	}

	l := NewLoader()
	require.NoError(t, l.LoadFromDir(dir))
	assert.GreaterOrEqual(t, l.Len(), 20)

	d := l.Lookup("Interior", "Master")
	require.NotNil(t, d)
	assert.Equal(t, "AKC", d.Organization)

	list := l.List()
	require.NotEmpty(t, list)
	assert.Equal(t, "Buried", list[0].Element)
}
