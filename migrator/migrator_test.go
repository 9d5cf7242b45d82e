package migrator_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/sortition/migrator"
	"github.com/screwyprof/sortition/scanner"
)

const migrationsDir = "migrations"

func TestMigratorHash(t *testing.T) {
	t.Parallel()

	t.Run("it separates schema and seeded templates", func(t *testing.T) {
		t.Parallel()

		// Act
		schema, err1 := migrator.NewSchemaMigrator(migrationsDir).Hash()
		seeded, err2 := migrator.NewSeededMigrator(migrationsDir).Hash()

		// Assert
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.True(t, strings.HasPrefix(schema, "schema_only_"))
		assert.True(t, strings.HasPrefix(seeded, "seeded_scans_"))
	})

	t.Run("it is stable for the same seed", func(t *testing.T) {
		t.Parallel()

		// Act
		first, err1 := migrator.NewSeededMigrator(migrationsDir, fixtureScan(3)).Hash()
		second, err2 := migrator.NewSeededMigrator(migrationsDir, fixtureScan(3)).Hash()

		// Assert
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, first, second)
	})

	t.Run("it changes with the seed", func(t *testing.T) {
		t.Parallel()

		// Act
		small, err1 := migrator.NewSeededMigrator(migrationsDir, fixtureScan(3)).Hash()
		large, err2 := migrator.NewSeededMigrator(migrationsDir, fixtureScan(3), fixtureScan(5)).Hash()

		// Assert
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.NotEqual(t, small, large)
	})
}

func fixtureScan(events int) scanner.Result {
	return scanner.Result{
		Window: scanner.TimeWindow{LookbackSeconds: 3600, Now: time.Unix(1_700_000_000, 0)},
		Events: make([]scanner.NominationEvent, events),
	}
}
