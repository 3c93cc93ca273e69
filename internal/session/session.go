// Package session persists and restores the operator-facing simulation
// document: arena geometry, tick cadence, fence, and the animal registry.
package session

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/herdfence/simulator/internal/model/core"
)

// AnimalSnapshot is one persisted animal. Speed fields are reproduced on
// load, never re-randomized.
type AnimalSnapshot struct {
	ID              uint    `json:"id"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	BaseSpeed       float64 `json:"baseSpeed"`
	SpeedMultiplier float64 `json:"speedMultiplier"`
}

// Document is the saved session configuration.
type Document struct {
	ArenaWidth      float64          `json:"arenaWidth"`
	ArenaHeight     float64          `json:"arenaHeight"`
	TickMs          int              `json:"tickMs"`
	InitialAnimals  int              `json:"initialAnimals"`
	SpeedMultiplier float64          `json:"speedMultiplier"`
	AnimalSize      int              `json:"animalSize"`
	FenceColor      string           `json:"fenceColor"`
	FenceVertices   []core.Point     `json:"fenceVertices"`
	Animals         []AnimalSnapshot `json:"animals"`
}

// rawDocument mirrors Document with pointer fields so missing or
// wrong-typed fields can fall back to the caller's current values
// individually instead of failing the whole load.
type rawDocument struct {
	ArenaWidth      *float64          `json:"arenaWidth"`
	ArenaHeight     *float64          `json:"arenaHeight"`
	TickMs          *int              `json:"tickMs"`
	InitialAnimals  *int              `json:"initialAnimals"`
	SpeedMultiplier *float64          `json:"speedMultiplier"`
	AnimalSize      *int              `json:"animalSize"`
	FenceColor      *string           `json:"fenceColor"`
	FenceVertices   []core.Point      `json:"fenceVertices"`
	Animals         []json.RawMessage `json:"animals"`
}

// Save writes the document as indented JSON.
func Save(path string, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}

// Load reads a saved document, recovering field-by-field: any missing or
// malformed field keeps its value from current, and a corrupt animal
// entry is skipped rather than aborting the load.
func Load(path string, current Document) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return current, fmt.Errorf("reading session file: %w", err)
	}

	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return current, fmt.Errorf("parsing session file: %w", err)
	}

	doc := current
	if raw.ArenaWidth != nil {
		doc.ArenaWidth = *raw.ArenaWidth
	}
	if raw.ArenaHeight != nil {
		doc.ArenaHeight = *raw.ArenaHeight
	}
	if raw.TickMs != nil {
		doc.TickMs = *raw.TickMs
	}
	if raw.InitialAnimals != nil {
		doc.InitialAnimals = *raw.InitialAnimals
	}
	if raw.SpeedMultiplier != nil {
		doc.SpeedMultiplier = *raw.SpeedMultiplier
	}
	if raw.AnimalSize != nil {
		doc.AnimalSize = *raw.AnimalSize
	}
	if raw.FenceColor != nil {
		doc.FenceColor = *raw.FenceColor
	}
	doc.FenceVertices = raw.FenceVertices

	doc.Animals = nil
	for _, entry := range raw.Animals {
		var snap AnimalSnapshot
		if err := json.Unmarshal(entry, &snap); err != nil {
			continue
		}
		doc.Animals = append(doc.Animals, snap)
	}

	return doc, nil
}

// NextID returns one past the highest animal id in the document, or 1
// when it holds no animals.
func NextID(doc Document) uint {
	next := uint(1)
	for _, a := range doc.Animals {
		if a.ID >= next {
			next = a.ID + 1
		}
	}
	return next
}

// ToAnimals converts persisted snapshots into registry animals. Restored
// animals are assumed compliant until the next classification, like
// fresh spawns.
func ToAnimals(snaps []AnimalSnapshot) []core.Animal {
	animals := make([]core.Animal, 0, len(snaps))
	for _, s := range snaps {
		animals = append(animals, core.Animal{
			ID:              s.ID,
			Pos:             core.Point{X: s.X, Y: s.Y},
			BaseSpeed:       s.BaseSpeed,
			SpeedMultiplier: s.SpeedMultiplier,
			Inside:          true,
		})
	}
	return animals
}

// FromAnimals converts registry animals into persistable snapshots.
func FromAnimals(animals []core.Animal) []AnimalSnapshot {
	snaps := make([]AnimalSnapshot, 0, len(animals))
	for _, a := range animals {
		snaps = append(snaps, AnimalSnapshot{
			ID:              a.ID,
			X:               a.Pos.X,
			Y:               a.Pos.Y,
			BaseSpeed:       a.BaseSpeed,
			SpeedMultiplier: a.SpeedMultiplier,
		})
	}
	return snaps
}
