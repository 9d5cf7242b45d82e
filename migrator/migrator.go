package migrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/peterldowns/pgtestdb"
	"github.com/peterldowns/pgtestdb/migrators/sqlmigrator"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/screwyprof/sortition/pkg/pgxdb"
	"github.com/screwyprof/sortition/scanner"
	"github.com/screwyprof/sortition/scanner/store/pgxstore"
)

// Migration constants
const (
	migrationsTableName = "schema_migrations"
	schemaHashPrefix    = "schema_only_"
	seededHashPrefix    = "seeded_scans_"
)

// Migration-related errors
var (
	ErrMigrationExecution = errors.New("migration execution failed")
	ErrSeedFailed         = errors.New("seeding archive failed")
)

// SchemaMigrator applies only database schema migrations
// Used for production and tests that need schema-only setup
type SchemaMigrator struct {
	migrationsDir string
}

// NewSchemaMigrator creates a migrator that applies schema migrations only
func NewSchemaMigrator(migrationsDir string) *SchemaMigrator {
	return &SchemaMigrator{
		migrationsDir: migrationsDir,
	}
}

func (m *SchemaMigrator) Hash() (string, error) {
	baseHash, err := migrationsHash(m.migrationsDir)
	if err != nil {
		return "", err
	}
	return schemaHashPrefix + baseHash, nil
}

func (m *SchemaMigrator) Migrate(ctx context.Context, db *sql.DB, conf pgtestdb.Config) error {
	return applyMigrations(db, m.migrationsDir)
}

// SeededMigrator applies schema migrations and archives a fixed set of scans
// Used for web API tests that need nominations to page through
type SeededMigrator struct {
	migrationsDir string
	scans         []scanner.Result
}

// NewSeededMigrator creates a migrator that applies the schema then archives scans in order
func NewSeededMigrator(migrationsDir string, scans ...scanner.Result) *SeededMigrator {
	return &SeededMigrator{
		migrationsDir: migrationsDir,
		scans:         scans,
	}
}

func (m *SeededMigrator) Hash() (string, error) {
	baseHash, err := migrationsHash(m.migrationsDir)
	if err != nil {
		return "", err
	}

	// the seed is fixture data, its shape is enough to tell templates apart
	events := 0
	for _, scan := range m.scans {
		events += len(scan.Events)
	}
	return seededHashPrefix + baseHash + "_" + strconv.Itoa(len(m.scans)) + "_" + strconv.Itoa(events), nil
}

func (m *SeededMigrator) Migrate(ctx context.Context, db *sql.DB, conf pgtestdb.Config) error {
	if err := applyMigrations(db, m.migrationsDir); err != nil {
		return err
	}
	return m.seed(ctx, conf.URL())
}

// seed archives the fixture scans through the same store the scanner uses
func (m *SeededMigrator) seed(ctx context.Context, dbURL string) error {
	slog.InfoContext(ctx, "Seeding archive with fixture scans", slog.Int("scans", len(m.scans)))

	pool, err := pgxdb.NewConnection(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSeedFailed, err)
	}

	store, closer := pgxstore.New(pool)
	defer closer()

	for _, scan := range m.scans {
		if _, err := store.SaveScan(ctx, scan); err != nil {
			return fmt.Errorf("%w: %w", ErrSeedFailed, err)
		}
	}
	return nil
}

// ApplyMigrations applies database migrations using sql-migrate with the provided pgx pool
func ApplyMigrations(pool *pgxpool.Pool, migrationsDir string) error {
	// Create sql.DB from the pgx pool for sql-migrate
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	return applyMigrations(db, migrationsDir)
}

// applyMigrations applies database migrations using sql-migrate
func applyMigrations(db *sql.DB, migrationsDir string) error {
	source := &migrate.FileMigrationSource{Dir: migrationsDir}
	migrationSet := &migrate.MigrationSet{TableName: migrationsTableName}

	_, err := migrationSet.Exec(db, "postgres", source, migrate.Up)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationExecution, err)
	}
	return nil
}

func migrationsHash(migrationsDir string) (string, error) {
	source := &migrate.FileMigrationSource{Dir: migrationsDir}
	migrationSet := &migrate.MigrationSet{TableName: migrationsTableName}

	hash, err := sqlmigrator.New(source, migrationSet).Hash()
	if err != nil {
		return "", fmt.Errorf("failed to calculate migration hash for %s: %w", migrationsDir, err)
	}
	return hash, nil
}
