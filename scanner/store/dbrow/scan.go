package dbrow

import (
	"maps"
	"slices"
	"time"

	"github.com/screwyprof/sortition/scanner"
)

// Scan is the summary row of one archived scan
type Scan struct {
	WindowStart     time.Time `db:"window_start"`
	WindowEnd       time.Time `db:"window_end"`
	FromBlock       int64     `db:"from_block"`
	ToBlock         int64     `db:"to_block"`
	TermExpiresAt   time.Time `db:"term_expires_at"`
	EventsCount     int       `db:"events_count"`
	DiscoveredCount int       `db:"discovered_count"`
	EntitiesCount   int       `db:"entities_count"`
	Incomplete      *string   `db:"incomplete"`
	// id and created_at are assigned by the database
}

// NewScan builds the summary row of result
func NewScan(result scanner.Result) Scan {
	row := Scan{
		WindowStart:     time.Unix(result.Window.Since(), 0).UTC(),
		WindowEnd:       result.Window.Now.UTC(),
		FromBlock:       int64(result.FromBlock),
		ToBlock:         int64(result.ToBlock),
		TermExpiresAt:   time.Unix(result.Term.ExpiresAt, 0).UTC(),
		EventsCount:     len(result.Events),
		DiscoveredCount: result.Discovered,
		EntitiesCount:   len(result.Entities),
	}
	if result.Incomplete != nil {
		msg := result.Incomplete.Error()
		row.Incomplete = &msg
	}
	return row
}

// NominationColumns is the column order of NominationsToRows
var NominationColumns = []string{
	"tx_hash", "log_index", "block_number", "block_hash", "block_timestamp",
	"term_number", "nominator", "pixels", "scan_id",
}

// NominationsToRows converts scan events directly to [][]any for pgx.CopyFromRows
func NominationsToRows(scanID int64, events []scanner.NominationEvent) [][]any {
	rows := make([][]any, len(events))

	for i, ev := range events {
		var ts *time.Time
		if ev.BlockTimestamp != 0 {
			t := time.Unix(int64(ev.BlockTimestamp), 0).UTC()
			ts = &t
		}
		rows[i] = []any{
			ev.TxHash.Hex(),
			int64(ev.LogIndex),
			int64(ev.BlockNumber),
			ev.BlockHash.Hex(),
			ts,
			ev.TermNumber,
			ev.Nominator,
			ev.Pixels,
			scanID,
		}
	}

	return rows
}

// EntityColumns is the column order of EntitiesToRows
var EntityColumns = []string{"scan_id", "token_id", "nominated_token_id", "pixel_count"}

// EntitiesToRows converts scan entities to [][]any ordered by token ID
func EntitiesToRows(scanID int64, entities map[string]scanner.NominatedEntity) [][]any {
	rows := make([][]any, 0, len(entities))

	for _, id := range slices.Sorted(maps.Keys(entities)) {
		e := entities[id]
		rows = append(rows, []any{scanID, e.TokenID, e.NominatedTokenID, e.PixelCount})
	}

	return rows
}
