package session

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herdfence/simulator/internal/model/core"
)

func sampleDocument() Document {
	return Document{
		ArenaWidth:      900,
		ArenaHeight:     600,
		TickMs:          100,
		InitialAnimals:  8,
		SpeedMultiplier: 1.25,
		AnimalSize:      6,
		FenceColor:      "#2563eb",
		FenceVertices: []core.Point{
			{X: 100, Y: 100}, {X: 500, Y: 100}, {X: 500, Y: 400}, {X: 100, Y: 400},
		},
		Animals: []AnimalSnapshot{
			{ID: 1, X: 200, Y: 200, BaseSpeed: 1.1, SpeedMultiplier: 1.25},
			{ID: 4, X: 300, Y: 250, BaseSpeed: 0.7, SpeedMultiplier: 1.25},
		},
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	doc := sampleDocument()

	require.NoError(t, Save(path, doc))

	got, err := Load(path, Document{})
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestLoad_MissingFieldsFallBackToCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tickMs": 50}`), 0644))

	current := sampleDocument()
	got, err := Load(path, current)
	require.NoError(t, err)

	assert.Equal(t, 50, got.TickMs)
	assert.Equal(t, current.ArenaWidth, got.ArenaWidth)
	assert.Equal(t, current.SpeedMultiplier, got.SpeedMultiplier)
	assert.Equal(t, current.FenceColor, got.FenceColor)
}

func TestLoad_CorruptAnimalEntrySkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	payload := `{
		"animals": [
			{"id": 1, "x": 10, "y": 20, "baseSpeed": 1.0, "speedMultiplier": 1.0},
			"not an animal",
			{"id": 3, "x": 30, "y": 40, "baseSpeed": 0.9, "speedMultiplier": 1.0}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0644))

	got, err := Load(path, Document{})
	require.NoError(t, err)

	require.Len(t, got.Animals, 2)
	assert.Equal(t, uint(1), got.Animals[0].ID)
	assert.Equal(t, uint(3), got.Animals[1].ID)
}

func TestLoad_UnparseableFileKeepsCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{{{`), 0644))

	current := sampleDocument()
	got, err := Load(path, current)
	assert.Error(t, err)
	assert.Equal(t, current, got)
}

func TestNextID(t *testing.T) {
	assert.Equal(t, uint(1), NextID(Document{}))
	assert.Equal(t, uint(5), NextID(sampleDocument()))
}

func TestToAnimals_RestoresSpeedFields(t *testing.T) {
	doc := sampleDocument()

	animals := ToAnimals(doc.Animals)
	require.Len(t, animals, 2)
	sort.Slice(animals, func(i, j int) bool { return animals[i].ID < animals[j].ID })

	assert.Equal(t, 1.1, animals[0].BaseSpeed)
	assert.Equal(t, 1.25, animals[0].SpeedMultiplier)
	assert.Equal(t, core.Point{X: 200, Y: 200}, animals[0].Pos)
	assert.True(t, animals[0].Inside, "restored animals start compliant")
}

func TestFromAnimals(t *testing.T) {
	animals := []core.Animal{
		{ID: 2, Pos: core.Point{X: 7, Y: 8}, BaseSpeed: 1.5, SpeedMultiplier: 0.5, VX: 3, VY: 4},
	}

	snaps := FromAnimals(animals)
	require.Len(t, snaps, 1)
	assert.Equal(t, AnimalSnapshot{ID: 2, X: 7, Y: 8, BaseSpeed: 1.5, SpeedMultiplier: 0.5}, snaps[0])
}
