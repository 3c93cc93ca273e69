package influx

import (
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"

	"github.com/herdfence/simulator/internal/model/core"
)

func TestTickPoint(t *testing.T) {
	at := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	result := core.TickResult{
		Tick: 42,
		Animals: map[uint]core.AnimalStatus{
			1: {Inside: true},
			2: {Inside: false},
		},
		Inside:  1,
		Outside: 1,
		Alerts:  []core.Alert{{AnimalID: 2, Kind: core.AlertLeft}},
	}

	p := TickPoint("morning run", result, at)
	line := influxdb2_write.PointToLineProtocol(p, time.Second)

	assert.Contains(t, line, "containment")
	assert.Contains(t, line, `session=morning\ run`)
	assert.Contains(t, line, "tick=42i")
	assert.Contains(t, line, "inside=1i")
	assert.Contains(t, line, "outside=1i")
	assert.Contains(t, line, "alerts=1i")
}

func TestAlertPoint(t *testing.T) {
	alert := core.Alert{
		Time:     time.Date(2026, 4, 1, 9, 0, 5, 0, time.UTC),
		AnimalID: 7,
		Pos:      core.Point{X: 512.5, Y: 77},
		Kind:     core.AlertReentered,
	}

	p := AlertPoint("morning run", alert)
	line := influxdb2_write.PointToLineProtocol(p, time.Second)

	assert.Contains(t, line, "fence_crossing")
	assert.Contains(t, line, "kind=RE-ENTERED")
	assert.Contains(t, line, "animal_id=7i")
	assert.Contains(t, line, "x=512.5")
}
