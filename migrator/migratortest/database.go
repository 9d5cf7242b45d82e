package migratortest

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for pgtestdb
	"github.com/peterldowns/pgtestdb"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/sortition/migrator"
	"github.com/screwyprof/sortition/scanner"
)

// CreateArchiveTestDatabase creates an empty archive with migrations applied.
// Returns the connection pool and its URL.
func CreateArchiveTestDatabase(t *testing.T, migrationsDir string) (*pgxpool.Pool, string) {
	t.Helper()

	return createTestDatabaseWithMigrator(t, migrator.NewSchemaMigrator(migrationsDir))
}

// CreateSeededTestDatabase creates an archive holding the given scans.
// Returns the connection pool and its URL.
func CreateSeededTestDatabase(t *testing.T, migrationsDir string, scans ...scanner.Result) (*pgxpool.Pool, string) {
	t.Helper()

	return createTestDatabaseWithMigrator(t, migrator.NewSeededMigrator(migrationsDir, scans...))
}

// createTestDatabaseWithMigrator creates a test database using the provided migrator
func createTestDatabaseWithMigrator(t *testing.T, migratorInstance pgtestdb.Migrator) (*pgxpool.Pool, string) {
	t.Helper()

	dbConfig := pgtestdb.Custom(t, createTestDatabaseConfig(), migratorInstance)

	pool, err := pgxpool.New(t.Context(), dbConfig.URL())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	t.Logf("testdbconf: %s", dbConfig.URL())

	return pool, dbConfig.URL()
}

// createTestDatabaseConfig creates the standard pgtestdb configuration for sortition tests
func createTestDatabaseConfig() pgtestdb.Config {
	return pgtestdb.Config{
		DriverName: "pgx",
		User:       "sortition",
		Password:   "sortition",
		Host:       "localhost",
		Port:       "5432",
		Options:    "sslmode=disable",
	}
}
