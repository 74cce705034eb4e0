package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

// Migration is one schema upgrade step. Versions are strictly increasing;
// a step whose version is not greater than the stored schema version is
// never executed again.
type Migration struct {
	Version    int
	Name       string
	Statements []string
}

// Migrations is the ordered upgrade history of the store.
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "initial schema",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS customers (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				address TEXT,
				phone TEXT,
				email TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS devices (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				customer_id INTEGER NOT NULL REFERENCES customers(id),
				serial_number TEXT NOT NULL UNIQUE,
				description TEXT NOT NULL,
				manufacturer TEXT,
				model TEXT,
				applied_parts_json TEXT NOT NULL DEFAULT '[]',
				customer_inventory TEXT,
				ams_inventory TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS verifications (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				device_id INTEGER NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
				verification_date TEXT NOT NULL,
				profile_name TEXT NOT NULL,
				results_json TEXT NOT NULL,
				overall_status TEXT NOT NULL,
				visual_inspection_json TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_devices_customer_id ON devices(customer_id)`,
			`CREATE INDEX IF NOT EXISTS idx_verifications_device_id ON verifications(device_id)`,
		},
	},
	{
		Version: 2,
		Name:    "measuring instruments",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS mti_instruments (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				instrument_name TEXT NOT NULL,
				serial_number TEXT,
				fw_version TEXT,
				calibration_date TEXT,
				is_default INTEGER NOT NULL DEFAULT 0
			)`,
			`ALTER TABLE verifications ADD COLUMN mti_instrument TEXT`,
			`ALTER TABLE verifications ADD COLUMN mti_serial TEXT`,
			`ALTER TABLE verifications ADD COLUMN mti_version TEXT`,
			`ALTER TABLE verifications ADD COLUMN mti_cal_date TEXT`,
		},
	},
	{
		Version: 3,
		Name:    "verification scheduling",
		Statements: []string{
			`ALTER TABLE devices ADD COLUMN verification_interval INTEGER`,
			`ALTER TABLE devices ADD COLUMN next_verification_date TEXT`,
		},
	},
	{
		Version: 4,
		Name:    "technician on verification",
		Statements: []string{
			`ALTER TABLE verifications ADD COLUMN technician_name TEXT`,
		},
	},
	{
		Version: 5,
		Name:    "technician accounts",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				username TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				technician_name TEXT,
				is_active INTEGER NOT NULL DEFAULT 1,
				created_at DATETIME
			)`,
		},
	},
}

// Migrate applies every migration newer than the stored schema version, in
// order, each inside its own transaction. Re-running is a no-op.
func Migrate(db *gorm.DB) error {
	if err := db.Exec("CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)").Error; err != nil {
		return fmt.Errorf("unable to create schema_version table: %w", err)
	}

	current, err := currentVersion(db)
	if err != nil {
		return err
	}

	for _, m := range Migrations {
		if m.Version <= current {
			continue
		}
		log.Printf("Applying migration %d (%s)...", m.Version, m.Name)

		err := db.Transaction(func(tx *gorm.DB) error {
			for _, stmt := range m.Statements {
				if err := tx.Exec(stmt).Error; err != nil {
					return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
				}
			}
			return setVersion(tx, current, m.Version)
		})
		if err != nil {
			return err
		}

		current = m.Version
		log.Printf("Database upgraded to schema version %d", current)
	}
	return nil
}

// CurrentSchemaVersion reports the stored schema version, 0 for a new store.
func CurrentSchemaVersion(db *gorm.DB) (int, error) {
	if err := db.Exec("CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)").Error; err != nil {
		return 0, err
	}
	return currentVersion(db)
}

func currentVersion(db *gorm.DB) (int, error) {
	var version *int
	if err := db.Raw("SELECT version FROM schema_version LIMIT 1").Scan(&version).Error; err != nil {
		return 0, fmt.Errorf("unable to read schema version: %w", err)
	}
	if version == nil {
		return 0, nil
	}
	return *version, nil
}

func setVersion(tx *gorm.DB, current, next int) error {
	if current == 0 {
		// First upgrade on a fresh store: the version row does not exist yet.
		var count int64
		if err := tx.Raw("SELECT COUNT(*) FROM schema_version").Scan(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return tx.Exec("INSERT INTO schema_version (version) VALUES (?)", next).Error
		}
	}
	return tx.Exec("UPDATE schema_version SET version = ?", next).Error
}
