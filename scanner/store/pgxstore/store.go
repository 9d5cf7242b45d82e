package pgxstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/screwyprof/sortition/scanner"
	"github.com/screwyprof/sortition/scanner/store/dbrow"
)

// Sentinel errors for store operations
var (
	ErrTransactionFailed = errors.New("transaction failed")
	ErrTempTableFailed   = errors.New("temporary table operation failed")
	ErrCopyFailed        = errors.New("bulk copy operation failed")
	ErrInsertFailed      = errors.New("insert operation failed")
)

const insertScanSQL = `
	INSERT INTO scans (
		window_start, window_end, from_block, to_block, term_expires_at,
		events_count, discovered_count, entities_count, incomplete
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id`

// Store implements scanner.Archive using pgx
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL store with an existing connection pool
// Returns the store and a closer function
func New(pool *pgxpool.Pool) (*Store, func()) {
	store := &Store{pool: pool}
	closer := func() {
		pool.Close()
	}
	return store, closer
}

// SaveScan stores the scan summary, its nominations and its entities in one
// transaction and returns the scan ID. Nominations already archived by an
// earlier, overlapping scan are skipped.
func (s *Store) SaveScan(ctx context.Context, result scanner.Result) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // No-op if commit succeeds

	row := dbrow.NewScan(result)
	var scanID int64
	err = tx.QueryRow(ctx, insertScanSQL,
		row.WindowStart, row.WindowEnd, row.FromBlock, row.ToBlock, row.TermExpiresAt,
		row.EventsCount, row.DiscoveredCount, row.EntitiesCount, row.Incomplete,
	).Scan(&scanID)
	if err != nil {
		return 0, fmt.Errorf("%w: scans: %w", ErrInsertFailed, err)
	}

	if err := saveNominations(ctx, tx, scanID, result.Events); err != nil {
		return 0, err
	}

	if len(result.Entities) > 0 {
		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"nominated_entities"},
			dbrow.EntityColumns,
			pgx.CopyFromRows(dbrow.EntitiesToRows(scanID, result.Entities)),
		)
		if err != nil {
			return 0, fmt.Errorf("%w: nominated_entities: %w", ErrCopyFailed, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}

	return scanID, nil
}

// saveNominations copies events through a temporary table so duplicates can be skipped
func saveNominations(ctx context.Context, tx pgx.Tx, scanID int64, events []scanner.NominationEvent) error {
	if len(events) == 0 {
		return nil
	}

	_, err := tx.Exec(ctx, `
		CREATE TEMPORARY TABLE temp_nominations (
			tx_hash TEXT,
			log_index BIGINT,
			block_number BIGINT,
			block_hash TEXT,
			block_timestamp TIMESTAMP WITH TIME ZONE,
			term_number BIGINT,
			nominator TEXT,
			pixels BIGINT,
			scan_id BIGINT
		) ON COMMIT DROP
	`)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTempTableFailed, err)
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"temp_nominations"},
		dbrow.NominationColumns,
		pgx.CopyFromRows(dbrow.NominationsToRows(scanID, events)),
	)
	if err != nil {
		return fmt.Errorf("%w: nominations: %w", ErrCopyFailed, err)
	}

	// a rescan may resolve a timestamp an earlier scan left empty
	_, err = tx.Exec(ctx, `
		INSERT INTO nominations (
			tx_hash, log_index, block_number, block_hash, block_timestamp,
			term_number, nominator, pixels, scan_id
		)
		SELECT tx_hash, log_index, block_number, block_hash, block_timestamp,
			term_number, nominator, pixels, scan_id
		FROM temp_nominations
		ON CONFLICT (tx_hash, log_index) DO UPDATE
		SET block_timestamp = COALESCE(nominations.block_timestamp, EXCLUDED.block_timestamp)
	`)
	if err != nil {
		return fmt.Errorf("%w: nominations: %w", ErrInsertFailed, err)
	}

	return nil
}
