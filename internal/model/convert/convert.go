// Package convert provides functions to convert between core engine
// values and GORM models.
package convert

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/herdfence/simulator/internal/geo"
	"github.com/herdfence/simulator/internal/model"
	"github.com/herdfence/simulator/internal/model/core"
)

// pointWKB converts an arena point to its WKB representation.
func pointWKB(p core.Point) []byte {
	return geo.GeomPoint(p).AsBinary()
}

// CoreToAnimalRecord converts a registry animal into its session-scoped
// GORM record.
func CoreToAnimalRecord(a core.Animal, sessionID uint, spawnTime time.Time) model.AnimalRecord {
	return model.AnimalRecord{
		SessionID:       sessionID,
		AnimalID:        a.ID,
		SpawnTime:       spawnTime,
		BaseSpeed:       a.BaseSpeed,
		SpeedMultiplier: a.SpeedMultiplier,
	}
}

// CoreToAlertRecord converts a crossing alert into its GORM record.
func CoreToAlertRecord(alert core.Alert, sessionID uint) model.AlertRecord {
	return model.AlertRecord{
		SessionID: sessionID,
		Time:      alert.Time,
		AnimalID:  alert.AnimalID,
		X:         alert.Pos.X,
		Y:         alert.Pos.Y,
		Position:  pointWKB(alert.Pos),
		Kind:      string(alert.Kind),
		Message:   alert.Message,
	}
}

// AlertRecordToCore converts a stored alert back into the engine value,
// for export from a saved session.
func AlertRecordToCore(r model.AlertRecord) core.Alert {
	return core.Alert{
		Time:     r.Time,
		AnimalID: r.AnimalID,
		Pos:      core.Point{X: r.X, Y: r.Y},
		Kind:     core.AlertKind(r.Kind),
		Message:  r.Message,
	}
}

// StatusToAnimalState converts one animal's tick status into its GORM
// record.
func StatusToAnimalState(id uint, status core.AnimalStatus, sessionID uint, tick uint64, at time.Time) model.AnimalState {
	return model.AnimalState{
		SessionID: sessionID,
		AnimalID:  id,
		Tick:      tick,
		Time:      at,
		X:         status.Pos.X,
		Y:         status.Pos.Y,
		Position:  pointWKB(status.Pos),
		Inside:    status.Inside,
	}
}

// FenceToRecord converts an activated fence into its GORM record. The
// vertex list survives as JSON even when WKB conversion is impossible.
func FenceToRecord(vertices []core.Point, sessionID uint, at time.Time) model.FenceRecord {
	rec := model.FenceRecord{
		SessionID:   sessionID,
		ActivatedAt: at,
		VertexCount: len(vertices),
	}

	if data, err := json.Marshal(vertices); err == nil {
		rec.Vertices = datatypes.JSON(data)
	} else {
		rec.Vertices = datatypes.JSON("[]")
	}

	if ring, err := geo.FenceRing(vertices); err == nil {
		rec.Ring = ring.AsBinary()
	}

	return rec
}

// RecordToVertices decodes a fence record's JSON vertex list.
func RecordToVertices(rec model.FenceRecord) ([]core.Point, error) {
	var vertices []core.Point
	if err := json.Unmarshal(rec.Vertices, &vertices); err != nil {
		return nil, err
	}
	return vertices, nil
}
