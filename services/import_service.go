package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"backend_stm/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Terminal statuses of a tabular import run.
const (
	ImportStatusCompleted = "completed"
	ImportStatusCancelled = "cancelled"
)

// ImportEventType discriminates the messages a running import emits.
type ImportEventType string

const (
	ImportEventProgress ImportEventType = "progress"
	ImportEventFinished ImportEventType = "finished"
	ImportEventError    ImportEventType = "error"
)

// ImportEvent is one message from a background import to its initiator.
type ImportEvent struct {
	Type     ImportEventType `json:"type"`
	Progress int             `json:"progress,omitempty"`
	Result   *ImportResult   `json:"result,omitempty"`
	Err      string          `json:"error,omitempty"`
}

// ImportResult is the final report of a tabular import: devices added, one
// human-readable reason per skipped row, and whether the run completed or
// was cancelled mid-way. Rows inserted before a cancellation stay inserted.
type ImportResult struct {
	Added   int      `json:"added"`
	Skipped []string `json:"skipped"`
	Status  string   `json:"status"`
}

// ColumnMapping binds the logical device fields to source column headers.
// Serial and Description are required for each row; the rest are optional.
type ColumnMapping struct {
	Serial               string `json:"serial"`
	Description          string `json:"description"`
	Manufacturer         string `json:"manufacturer"`
	Model                string `json:"model"`
	Department           string `json:"department"`
	CustomerInventory    string `json:"customer_inventory"`
	AmsInventory         string `json:"ams_inventory"`
	VerificationInterval string `json:"verification_interval"`
}

// ImportTask handles a background tabular import. Events carries progress,
// the final report and errors as distinct variants; Cancel requests a
// cooperative stop checked once per row.
type ImportTask struct {
	Events <-chan ImportEvent
	cancel context.CancelFunc
}

// Cancel requests a cooperative stop of the import.
func (t *ImportTask) Cancel() {
	log.Println("⚠️  Import cancellation requested")
	t.cancel()
}

// ImportService performs bulk device imports from CSV or XLSX files.
type ImportService struct {
	db *gorm.DB
}

// NewImportService creates a new ImportService.
func NewImportService(db *gorm.DB) *ImportService {
	return &ImportService{db: db}
}

// Start launches the import in the background and returns its task handle.
// The events channel is closed after the terminal message.
func (is *ImportService) Start(path string, mapping ColumnMapping, customerID uint) *ImportTask {
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan ImportEvent, 64)

	go func() {
		defer close(events)
		is.run(ctx, path, mapping, customerID, events)
	}()

	return &ImportTask{Events: events, cancel: cancel}
}

func (is *ImportService) run(ctx context.Context, path string, mapping ColumnMapping, customerID uint, events chan<- ImportEvent) {
	rows, err := readTabularFile(path)
	if err != nil {
		events <- ImportEvent{Type: ImportEventError, Err: fmt.Sprintf("unable to read file: %v", err)}
		return
	}
	if len(rows) == 0 {
		events <- ImportEvent{Type: ImportEventError, Err: "file has no header row"}
		return
	}

	columns := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		columns[strings.TrimSpace(header)] = i
	}
	cell := func(row []string, header string) string {
		idx, ok := columns[header]
		if !ok || header == "" || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	deviceSvc := NewDeviceService(is.db)
	result := ImportResult{Skipped: []string{}}
	dataRows := rows[1:]
	total := len(dataRows)
	cancelled := false

	for i, row := range dataRows {
		// Cooperative cancellation, checked once per row boundary.
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		// 1-indexed source numbering plus the header row.
		rowNum := i + 2

		serial := cell(row, mapping.Serial)
		if serial == "" {
			result.Skipped = append(result.Skipped, fmt.Sprintf("Row %d: missing serial", rowNum))
			continue
		}

		exists, err := deviceSvc.DeviceExists(serial)
		if err != nil {
			result.Skipped = append(result.Skipped, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		if exists {
			result.Skipped = append(result.Skipped, fmt.Sprintf("Row %d: serial '%s' already exists", rowNum, serial))
			continue
		}

		description := cell(row, mapping.Description)
		if description == "" {
			result.Skipped = append(result.Skipped, fmt.Sprintf("Row %d: missing description", rowNum))
			continue
		}
		if department := cell(row, mapping.Department); department != "" {
			description = fmt.Sprintf("%s (%s)", description, department)
		}

		device := models.Device{
			CustomerID:        customerID,
			SerialNumber:      serial,
			Description:       description,
			Manufacturer:      cell(row, mapping.Manufacturer),
			Model:             cell(row, mapping.Model),
			CustomerInventory: cell(row, mapping.CustomerInventory),
			AmsInventory:      cell(row, mapping.AmsInventory),
			AppliedPartsJSON:  "[]",
		}
		if err := deviceSvc.CreateDevice(&device, cell(row, mapping.VerificationInterval)); err != nil {
			result.Skipped = append(result.Skipped, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		result.Added++

		events <- ImportEvent{Type: ImportEventProgress, Progress: (i + 1) * 100 / total}
	}

	result.Status = ImportStatusCompleted
	if cancelled {
		result.Status = ImportStatusCancelled
	}
	log.Printf("Tabular import %s: %d added, %d skipped", result.Status, result.Added, len(result.Skipped))
	events <- ImportEvent{Type: ImportEventFinished, Result: &result}
}

// readTabularFile loads all rows from a ;-separated CSV or an XLSX
// spreadsheet, header row included.
func readTabularFile(path string) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		reader := csv.NewReader(f)
		reader.Comma = ';'
		reader.FieldsPerRecord = -1
		return reader.ReadAll()
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Failed to close spreadsheet file: %v", err)
		}
	}()
	return f.GetRows(f.GetSheetName(0))
}
