package storage

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/herdfence/simulator/internal/model/core"
)

// alertTimeFormat matches the operator-facing alert log timestamps.
const alertTimeFormat = "2006-01-02 15:04:05"

// WriteAlertsCSV writes alerts as the export table, one row per alert in
// the order given: timestamp, animal_id, x, y, message. Coordinates are
// truncated to whole units, matching the alert messages.
func WriteAlertsCSV(w io.Writer, alerts []core.Alert) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"timestamp", "animal_id", "x", "y", "message"}); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, a := range alerts {
		row := []string{
			a.Time.Format(alertTimeFormat),
			fmt.Sprintf("%d", a.AnimalID),
			fmt.Sprintf("%d", int(a.Pos.X)),
			fmt.Sprintf("%d", int(a.Pos.Y)),
			a.Message,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
