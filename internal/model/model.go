package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which
// represent tables in the database schema.
var DatabaseModels = []interface{}{
	&Session{},
	&FenceRecord{},
	&AnimalRecord{},
	&AnimalState{},
	&AlertRecord{},
}

// Session is one recorded simulation run.
type Session struct {
	gorm.Model
	Name            string    `json:"name" gorm:"size:127"`
	StartTime       time.Time `json:"startTime" gorm:"index:idx_session_start"`
	ArenaWidth      float64   `json:"arenaWidth"`
	ArenaHeight     float64   `json:"arenaHeight"`
	TickMs          int       `json:"tickMs"`
	SpeedMultiplier float64   `json:"speedMultiplier"`
	AnimalSize      int       `json:"animalSize"`
	FenceColor      string    `json:"fenceColor" gorm:"size:16"`

	// Origin3857 is the WKB projected arena origin when the session is
	// anchored to a real-world location, empty otherwise.
	Origin3857 []byte `json:"origin3857"`
}

func (*Session) TableName() string {
	return "sessions"
}

// FenceRecord stores each fence activation within a session. The vertex
// list is kept both as JSON (for lossless reload) and as a closed WKB
// ring (for spatial tooling).
type FenceRecord struct {
	ID          uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID   uint           `json:"sessionId" gorm:"index:idx_fence_session_id"`
	Session     Session        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	ActivatedAt time.Time      `json:"activatedAt"`
	VertexCount int            `json:"vertexCount"`
	Vertices    datatypes.JSON `json:"vertices"`
	Ring        []byte         `json:"ring"` // WKB LineString, closed
}

func (*FenceRecord) TableName() string {
	return "fence_records"
}

// AnimalRecord registers one animal for the lifetime of a session.
type AnimalRecord struct {
	ID              uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID       uint      `json:"sessionId" gorm:"index:idx_animal_session_id"`
	Session         Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	AnimalID        uint      `json:"animalId" gorm:"index:idx_animal_animal_id"` // engine id, unique per session
	SpawnTime       time.Time `json:"spawnTime"`
	BaseSpeed       float64   `json:"baseSpeed"`
	SpeedMultiplier float64   `json:"speedMultiplier"`
}

func (*AnimalRecord) TableName() string {
	return "animal_records"
}

// AnimalState tracks one animal's position and containment at a tick.
type AnimalState struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID uint      `json:"sessionId" gorm:"index:idx_animalstate_session_id"`
	Session   Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	AnimalID  uint      `json:"animalId" gorm:"index:idx_animalstate_animal_id"`
	Tick      uint64    `json:"tick" gorm:"index:idx_animalstate_tick"`
	Time      time.Time `json:"time"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Position  []byte    `json:"position"` // WKB point
	Inside    bool      `json:"inside" gorm:"default:true"`
}

func (*AnimalState) TableName() string {
	return "animal_states"
}

// AlertRecord is one fence crossing, append-only within a session.
type AlertRecord struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID uint      `json:"sessionId" gorm:"index:idx_alert_session_id"`
	Session   Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Time      time.Time `json:"time" gorm:"index:idx_alert_time"`
	AnimalID  uint      `json:"animalId"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Position  []byte    `json:"position"` // WKB point
	Kind      string    `json:"kind" gorm:"size:16"`
	Message   string    `json:"message" gorm:"size:255"`
}

func (*AlertRecord) TableName() string {
	return "alert_records"
}
