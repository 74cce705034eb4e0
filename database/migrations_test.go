package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openMemoryDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func tableNames(t *testing.T, db *gorm.DB) map[string]bool {
	var names []string
	require.NoError(t, db.Raw(
		"SELECT name FROM sqlite_master WHERE type = 'table'").Scan(&names).Error)
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}

func TestMigrateFreshStore(t *testing.T) {
	db := openMemoryDB(t)
	require.NoError(t, Migrate(db))

	version, err := CurrentSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, Migrations[len(Migrations)-1].Version, version)

	tables := tableNames(t, db)
	for _, table := range []string{"customers", "devices", "verifications", "mti_instruments", "users", "schema_version"} {
		assert.True(t, tables[table], "missing table %s", table)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openMemoryDB(t)
	require.NoError(t, Migrate(db))

	// A second run must not retry already-applied statements; the ALTER
	// TABLE steps would fail if it did.
	require.NoError(t, Migrate(db))

	version, err := CurrentSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, Migrations[len(Migrations)-1].Version, version)

	var rows int64
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM schema_version").Scan(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestMigrateSkipsVersionsAtOrBelowStored(t *testing.T) {
	db := openMemoryDB(t)

	// A store claiming a version beyond the known history gets no
	// statements executed at all.
	require.NoError(t, db.Exec(
		"CREATE TABLE schema_version (version INTEGER NOT NULL)").Error)
	require.NoError(t, db.Exec("INSERT INTO schema_version (version) VALUES (99)").Error)

	require.NoError(t, Migrate(db))

	tables := tableNames(t, db)
	assert.False(t, tables["customers"], "migration ran despite the stored version")

	version, err := CurrentSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, 99, version)
}

func TestMigrationVersionsStrictlyIncreasing(t *testing.T) {
	last := 0
	for _, m := range Migrations {
		assert.Greater(t, m.Version, last, "migration %q out of order", m.Name)
		last = m.Version
	}
}

func TestCurrentSchemaVersionNewStore(t *testing.T) {
	db := openMemoryDB(t)
	version, err := CurrentSchemaVersion(db)
	require.NoError(t, err)
	assert.Zero(t, version)
}
