package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func defaultMapping() ColumnMapping {
	return ColumnMapping{
		Serial:               "Matricola",
		Description:          "Descrizione",
		Manufacturer:         "Costruttore",
		Model:                "Modello",
		Department:           "Reparto",
		CustomerInventory:    "Inv. Cliente",
		AmsInventory:         "Inv. AMS",
		VerificationInterval: "Intervallo",
	}
}

func writeCSV(t *testing.T, lines []string) string {
	path := filepath.Join(t.TempDir(), "devices.csv")
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runImport(t *testing.T, ctx context.Context, db *gorm.DB, path string, customerID uint) *ImportResult {
	events := make(chan ImportEvent, 256)
	NewImportService(db).run(ctx, path, defaultMapping(), customerID, events)
	close(events)

	var result *ImportResult
	for event := range events {
		switch event.Type {
		case ImportEventFinished:
			result = event.Result
		case ImportEventError:
			t.Fatalf("unexpected import error: %s", event.Err)
		}
	}
	require.NotNil(t, result, "import emitted no final result")
	return result
}

func TestImportCSVAddsDevicesAndReportsSkips(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db, "Ospedale San Carlo")
	createTestDevice(t, db, customer.ID, "SN-EXISTING", nil)

	path := writeCSV(t, []string{
		"Matricola;Descrizione;Costruttore;Modello;Reparto;Intervallo",
		"SN-100;Defibrillatore;Acme;D-10;Cardiologia;12",
		";Pompa infusione;Acme;P-2;;",
		"SN-EXISTING;Monitor;Acme;VS-100;;",
		"SN-101;;Acme;X-1;;",
		"SN-102;Elettrobisturi;Acme;E-5;;Nessuno",
	})

	result := runImport(t, context.Background(), db, path, customer.ID)

	assert.Equal(t, 2, result.Added)
	assert.Equal(t, ImportStatusCompleted, result.Status)
	require.Len(t, result.Skipped, 3)
	assert.Equal(t, "Row 3: missing serial", result.Skipped[0])
	assert.Equal(t, "Row 4: serial 'SN-EXISTING' already exists", result.Skipped[1])
	assert.Equal(t, "Row 5: missing description", result.Skipped[2])

	// The department lands inside the description, in parentheses.
	device, err := NewDeviceService(db).GetDeviceBySerial("SN-100")
	require.NoError(t, err)
	require.NotNil(t, device)
	assert.Equal(t, "Defibrillatore (Cardiologia)", device.Description)
	require.NotNil(t, device.VerificationInterval)
	assert.Equal(t, 12, *device.VerificationInterval)

	// A non-numeric interval coerces to none instead of failing the row.
	device, err = NewDeviceService(db).GetDeviceBySerial("SN-102")
	require.NoError(t, err)
	require.NotNil(t, device)
	assert.Nil(t, device.VerificationInterval)
}

func TestImportEmitsProgressPerInsertedRow(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db, "Ospedale San Carlo")

	path := writeCSV(t, []string{
		"Matricola;Descrizione",
		"SN-200;Ventilatore",
		"SN-201;Aspiratore",
	})

	events := make(chan ImportEvent, 16)
	NewImportService(db).run(context.Background(), path, defaultMapping(), customer.ID, events)
	close(events)

	var progress []int
	for event := range events {
		if event.Type == ImportEventProgress {
			progress = append(progress, event.Progress)
		}
	}
	assert.Equal(t, []int{50, 100}, progress)
}

func TestImportXLSX(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db, "Ospedale San Carlo")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Matricola", "Descrizione", "Costruttore"},
		{"SN-300", "Ecografo", "Acme"},
		{"SN-301", "Centrifuga", "Acme"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "devices.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	result := runImport(t, context.Background(), db, path, customer.ID)
	assert.Equal(t, 2, result.Added)
	assert.Empty(t, result.Skipped)
}

// cancelAfterCtx reports cancellation starting from the n-th Err() call,
// which pins the cooperative per-row check to an exact row boundary.
type cancelAfterCtx struct {
	context.Context
	calls int
	after int
}

func (c *cancelAfterCtx) Err() error {
	c.calls++
	if c.calls > c.after {
		return context.Canceled
	}
	return nil
}

func (c *cancelAfterCtx) Deadline() (time.Time, bool) { return time.Time{}, false }

func TestImportCancellationKeepsInsertedRows(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db, "Ospedale San Carlo")

	path := writeCSV(t, []string{
		"Matricola;Descrizione",
		"SN-400;Monitor",
		"SN-401;Pompa",
		"SN-402;Ventilatore",
	})

	ctx := &cancelAfterCtx{Context: context.Background(), after: 1}
	result := runImport(t, ctx, db, path, customer.ID)

	assert.Equal(t, ImportStatusCancelled, result.Status)
	assert.Equal(t, 1, result.Added)

	// The row inserted before the stop stays, the rest were never touched.
	device, err := NewDeviceService(db).GetDeviceBySerial("SN-400")
	require.NoError(t, err)
	assert.NotNil(t, device)
	device, err = NewDeviceService(db).GetDeviceBySerial("SN-401")
	require.NoError(t, err)
	assert.Nil(t, device)
}

func TestImportMissingFileEmitsError(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db, "Ospedale San Carlo")

	task := NewImportService(db).Start(filepath.Join(t.TempDir(), "absent.csv"), defaultMapping(), customer.ID)

	var sawError bool
	for event := range task.Events {
		if event.Type == ImportEventError {
			sawError = true
		}
	}
	assert.True(t, sawError)
}
