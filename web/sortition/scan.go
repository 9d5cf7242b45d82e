package sortition

import (
	"context"
	"errors"
	"time"
)

var ErrScanNotFound = errors.New("scan not found")

// ScanFinder loads archived scans. ID 0 selects the most recent one.
type ScanFinder interface {
	FindScan(ctx context.Context, id int64) (*Scan, error)
}

// Scan is the archived summary of one scanner run
type Scan struct {
	ID              int64
	WindowStart     time.Time
	WindowEnd       time.Time
	FromBlock       int64
	ToBlock         int64
	TermExpiresAt   time.Time
	EventsCount     int
	DiscoveredCount int
	Incomplete      string // why entity resolution stopped early, if it did
	CreatedAt       time.Time
	Entities        []Entity
}

// Entity is a nominated entity resolved by a scan
type Entity struct {
	TokenID          string
	NominatedTokenID string
	PixelCount       int64
}
