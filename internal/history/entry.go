package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/atmx/sim-engine/internal/model"
	"github.com/atmx/sim-engine/internal/report"
)

// EntryFromReport summarises a report for saving, stamped with now.
func EntryFromReport(r report.Report, now time.Time) model.HistoryEntry {
	return model.HistoryEntry{
		ID:            uuid.New().String(),
		Date:          now.Format("2006-01-02"),
		Time:          now.Format("15:04:05"),
		FinalScore:    r.Grade.Score,
		Grade:         r.Grade.Letter,
		InitialAmount: r.Overview.InitialCash,
		FinalAmount:   r.Overview.FinalValue,
		Profit:        r.Overview.Profit,
		Duration:      report.Duration(r.Overview.Months),
		Comment:       r.Grade.Description,
	}
}
