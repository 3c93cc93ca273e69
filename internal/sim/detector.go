package sim

import (
	"fmt"
	"time"

	"github.com/herdfence/simulator/internal/model/core"
)

// DetectCrossing compares the freshly classified containment state
// against the animal's stored state and, on a transition, updates the
// stored state and returns the alert to append. Strictly edge-triggered:
// an animal that stays outside produces exactly one LEFT alert, not one
// per tick.
func DetectCrossing(a *core.Animal, nowInside bool, at time.Time) (core.Alert, bool) {
	switch {
	case !nowInside && a.Inside:
		a.Inside = false
		return core.Alert{
			Time:     at,
			AnimalID: a.ID,
			Pos:      a.Pos,
			Kind:     core.AlertLeft,
			Message: fmt.Sprintf("Animal #%d LEFT fence at (%d,%d)",
				a.ID, int(a.Pos.X), int(a.Pos.Y)),
		}, true
	case nowInside && !a.Inside:
		a.Inside = true
		return core.Alert{
			Time:     at,
			AnimalID: a.ID,
			Pos:      a.Pos,
			Kind:     core.AlertReentered,
			Message: fmt.Sprintf("Animal #%d re-entered fence at (%d,%d)",
				a.ID, int(a.Pos.X), int(a.Pos.Y)),
		}, true
	default:
		return core.Alert{}, false
	}
}
