package dbrow

import (
	"time"
)

// Nomination represents a nomination record as queried from the database
type Nomination struct {
	TxHash         string     `db:"tx_hash"`
	LogIndex       int64      `db:"log_index"`
	BlockNumber    int64      `db:"block_number"`
	BlockHash      string     `db:"block_hash"`
	BlockTimestamp *time.Time `db:"block_timestamp"`
	TermNumber     int64      `db:"term_number"`
	Nominator      string     `db:"nominator"`
	Pixels         int64      `db:"pixels"`
}

// Scan represents a scan summary as queried from the database
type Scan struct {
	ID              int64     `db:"id"`
	WindowStart     time.Time `db:"window_start"`
	WindowEnd       time.Time `db:"window_end"`
	FromBlock       int64     `db:"from_block"`
	ToBlock         int64     `db:"to_block"`
	TermExpiresAt   time.Time `db:"term_expires_at"`
	EventsCount     int       `db:"events_count"`
	DiscoveredCount int       `db:"discovered_count"`
	Incomplete      *string   `db:"incomplete"`
	CreatedAt       time.Time `db:"created_at"`
}

// Entity represents a nominated entity row
type Entity struct {
	TokenID          string `db:"token_id"`
	NominatedTokenID string `db:"nominated_token_id"`
	PixelCount       int64  `db:"pixel_count"`
}
