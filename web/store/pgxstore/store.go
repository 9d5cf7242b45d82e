package pgxstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/screwyprof/sortition/web/sortition"
	"github.com/screwyprof/sortition/web/store/dbrow"
)

var ErrQueryFailed = errors.New("archive query failed")

const (
	scanColumns = "id, window_start, window_end, from_block, to_block, term_expires_at, events_count, discovered_count, incomplete, created_at"

	scanByIDQuery     = "SELECT " + scanColumns + " FROM scans WHERE id = $1"
	latestScanQuery   = "SELECT " + scanColumns + " FROM scans ORDER BY id DESC LIMIT 1"
	scanEntitiesQuery = "SELECT token_id, nominated_token_id, pixel_count FROM nominated_entities WHERE scan_id = $1 ORDER BY pixel_count DESC, token_id"
)

// Finder answers archive read queries using pgx
type Finder struct {
	pool *pgxpool.Pool
}

// New creates a finder over pool. The closer closes the pool.
func New(pool *pgxpool.Pool) (*Finder, func()) {
	return &Finder{pool: pool}, pool.Close
}

// FindNominations returns one page of nominations, newest first
func (f *Finder) FindNominations(ctx context.Context, criteria sortition.NominationsCriteria) (*sortition.NominationsPage, error) {
	query, args := NewNominationsQuery().ForCriteria(criteria).Build()

	rows, err := f.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[dbrow.Nomination])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	hasMore := uint64(len(records)) > criteria.ItemsPerPage()
	if hasMore {
		records = records[:criteria.ItemsPerPage()]
	}

	nominations := make([]sortition.Nomination, len(records))
	for i, r := range records {
		nominations[i] = sortition.Nomination{
			TxHash:         r.TxHash,
			LogIndex:       r.LogIndex,
			BlockNumber:    r.BlockNumber,
			BlockHash:      r.BlockHash,
			BlockTimestamp: r.BlockTimestamp,
			TermNumber:     r.TermNumber,
			Nominator:      r.Nominator,
			Pixels:         r.Pixels,
		}
	}

	return &sortition.NominationsPage{
		Nominations: nominations,
		HasMore:     hasMore,
		Number:      criteria.Page,
		Size:        criteria.Size,
	}, nil
}

// FindScan loads a scan and its entities; id 0 selects the latest scan
func (f *Finder) FindScan(ctx context.Context, id int64) (*sortition.Scan, error) {
	query, args := scanByIDQuery, []any{id}
	if id == 0 {
		query, args = latestScanQuery, nil
	}

	rows, err := f.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[dbrow.Scan])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", sortition.ErrScanNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	rows, err = f.pool.Query(ctx, scanEntitiesQuery, row.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	entities, err := pgx.CollectRows(rows, pgx.RowToStructByName[dbrow.Entity])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	scan := &sortition.Scan{
		ID:              row.ID,
		WindowStart:     row.WindowStart,
		WindowEnd:       row.WindowEnd,
		FromBlock:       row.FromBlock,
		ToBlock:         row.ToBlock,
		TermExpiresAt:   row.TermExpiresAt,
		EventsCount:     row.EventsCount,
		DiscoveredCount: row.DiscoveredCount,
		CreatedAt:       row.CreatedAt,
		Entities:        make([]sortition.Entity, len(entities)),
	}
	if row.Incomplete != nil {
		scan.Incomplete = *row.Incomplete
	}
	for i, e := range entities {
		scan.Entities[i] = sortition.Entity(e)
	}

	return scan, nil
}
