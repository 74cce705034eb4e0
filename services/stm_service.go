package services

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"backend_stm/models"

	"gorm.io/gorm"
)

// Archive export outcomes. An empty date is reported distinctly from a
// successful export, it is not an error.
const (
	StmExportSuccess         = "success"
	StmExportNothingToExport = "nothing_to_export"
)

// StmExportResult reports one archive export run.
type StmExportResult struct {
	Status        string `json:"status"`
	Verifications int    `json:"verifications"`
	Path          string `json:"path,omitempty"`
}

// StmImportReport is the final tally of an archive merge import.
type StmImportReport struct {
	VerificationsImported int `json:"verifications_imported"`
	VerificationsSkipped  int `json:"verifications_skipped"`
	DevicesCreated        int `json:"devices_created"`
	CustomersCreated      int `json:"customers_created"`
}

// StmService reads and writes .stm archive documents: self-contained
// verification packages exchanged between installations.
type StmService struct {
	db *gorm.DB
}

// NewStmService creates a new StmService.
func NewStmService(db *gorm.DB) *StmService {
	return &StmService{db: db}
}

// archiveRow is the flattened join used to build export packages.
type archiveRow struct {
	CustomerName         string
	CustomerAddress      string
	SerialNumber         string
	Description          string
	Manufacturer         string
	Model                string
	AppliedPartsJSON     string `gorm:"column:applied_parts_json"`
	CustomerInventory    string
	AmsInventory         string
	VerificationDate     string
	ProfileName          string
	ResultsJSON          string `gorm:"column:results_json"`
	OverallStatus        string
	VisualInspectionJSON string `gorm:"column:visual_inspection_json"`
	MTIInstrument        string `gorm:"column:mti_instrument"`
	MTISerial            string `gorm:"column:mti_serial"`
	MTIVersion           string `gorm:"column:mti_version"`
	MTICalDate           string `gorm:"column:mti_cal_date"`
}

// BuildArchive assembles the archive document for every verification dated
// targetDate, each package self-contained with its customer and device.
func (ss *StmService) BuildArchive(targetDate string) (*models.ArchiveDocument, error) {
	var rows []archiveRow
	err := ss.db.Raw(`
		SELECT
			c.name AS customer_name, c.address AS customer_address,
			d.serial_number, d.description, d.manufacturer, d.model,
			d.applied_parts_json, d.customer_inventory, d.ams_inventory,
			v.verification_date, v.profile_name, v.results_json, v.overall_status,
			v.visual_inspection_json, v.mti_instrument, v.mti_serial, v.mti_version, v.mti_cal_date
		FROM verifications v
		JOIN devices d ON v.device_id = d.id
		JOIN customers c ON d.customer_id = c.id
		WHERE v.verification_date = ?`, targetDate).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("unable to collect verifications for %s: %w", targetDate, err)
	}

	doc := models.ArchiveDocument{
		ExportFormatVersion:  models.ArchiveFormatVersion,
		ExportCreationDate:   time.Now().Format(time.RFC3339),
		VerificationsForDate: targetDate,
		Verifications:        []models.ArchivePackage{},
	}
	for _, row := range rows {
		doc.Verifications = append(doc.Verifications, models.ArchivePackage{
			Customer: models.ArchiveCustomer{
				Name:    row.CustomerName,
				Address: row.CustomerAddress,
			},
			Device: models.ArchiveDevice{
				SerialNumber:      row.SerialNumber,
				Description:       row.Description,
				Manufacturer:      row.Manufacturer,
				Model:             row.Model,
				AppliedPartsJSON:  row.AppliedPartsJSON,
				CustomerInventory: row.CustomerInventory,
				AmsInventory:      row.AmsInventory,
			},
			VerificationDetails: models.ArchiveVerification{
				VerificationDate:     row.VerificationDate,
				ProfileName:          row.ProfileName,
				ResultsJSON:          row.ResultsJSON,
				OverallStatus:        row.OverallStatus,
				VisualInspectionJSON: row.VisualInspectionJSON,
				MTIInfo: models.InstrumentSnapshot{
					Instrument: row.MTIInstrument,
					Serial:     row.MTISerial,
					Version:    row.MTIVersion,
					CalDate:    row.MTICalDate,
				},
			},
		})
	}
	return &doc, nil
}

// ExportDate writes the archive for one calendar date to outputPath. When
// no verification matches the date nothing is written and the result says
// so without raising an error.
func (ss *StmService) ExportDate(targetDate, outputPath string) (*StmExportResult, error) {
	log.Printf("Starting STM export for date %s", targetDate)

	doc, err := ss.BuildArchive(targetDate)
	if err != nil {
		return nil, err
	}
	if len(doc.Verifications) == 0 {
		log.Printf("⚠️  No verification found for date %s, nothing to export", targetDate)
		return &StmExportResult{Status: StmExportNothingToExport}, nil
	}

	raw, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("unable to serialize archive: %w", err)
	}
	if err := os.WriteFile(outputPath, raw, 0o644); err != nil {
		return nil, fmt.Errorf("unable to write archive %s: %w", outputPath, err)
	}

	log.Printf("✅ Export completed: %d verifications saved to %s", len(doc.Verifications), outputPath)
	return &StmExportResult{
		Status:        StmExportSuccess,
		Verifications: len(doc.Verifications),
		Path:          outputPath,
	}, nil
}

// ImportArchive merges an .stm file into the store. Customers match by
// exact name, devices by serial number, verifications deduplicate on
// (device, date, profile). One malformed package never aborts the run: it
// is counted as skipped, logged, and the import continues.
func (ss *StmService) ImportArchive(path string) (*StmImportReport, error) {
	log.Printf("Starting import from archive: %s", path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read .stm file: %w", err)
	}
	var doc models.ArchiveDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unable to parse .stm file: %w", err)
	}

	return ss.ImportDocument(&doc)
}

// ImportDocument merges an already-parsed archive document.
func (ss *StmService) ImportDocument(doc *models.ArchiveDocument) (*StmImportReport, error) {
	report := &StmImportReport{}
	for _, pkg := range doc.Verifications {
		imported, err := ss.importPackage(pkg, report)
		if err != nil {
			log.Printf("Error importing a verification record, skipping it: %v", err)
			report.VerificationsSkipped++
			continue
		}
		if imported {
			report.VerificationsImported++
		} else {
			report.VerificationsSkipped++
		}
	}
	log.Printf("STM import done: %d imported, %d skipped, %d devices created, %d customers created",
		report.VerificationsImported, report.VerificationsSkipped,
		report.DevicesCreated, report.CustomersCreated)
	return report, nil
}

// importPackage merges one package. It returns false with a nil error for a
// duplicate verification and an error for a malformed record.
func (ss *StmService) importPackage(pkg models.ArchivePackage, report *StmImportReport) (bool, error) {
	if pkg.Customer.Name == "" {
		return false, fmt.Errorf("package has no customer name")
	}
	if pkg.Device.SerialNumber == "" {
		return false, fmt.Errorf("package has no device serial number")
	}

	customerID, created, err := NewCustomerService(ss.db).AddOrGetCustomer(pkg.Customer.Name, pkg.Customer.Address)
	if err != nil {
		return false, err
	}
	if created {
		report.CustomersCreated++
	}

	deviceSvc := NewDeviceService(ss.db)
	device, err := deviceSvc.GetDeviceBySerial(pkg.Device.SerialNumber)
	if err != nil {
		return false, err
	}
	if device == nil {
		device = &models.Device{
			CustomerID:        customerID,
			SerialNumber:      pkg.Device.SerialNumber,
			Description:       pkg.Device.Description,
			Manufacturer:      pkg.Device.Manufacturer,
			Model:             pkg.Device.Model,
			AppliedPartsJSON:  pkg.Device.AppliedPartsJSON,
			CustomerInventory: pkg.Device.CustomerInventory,
			AmsInventory:      pkg.Device.AmsInventory,
		}
		if err := deviceSvc.CreateDevice(device, ""); err != nil {
			return false, err
		}
		report.DevicesCreated++
		log.Printf("New device created from archive: %s", device.SerialNumber)
	}

	details := pkg.VerificationDetails
	verificationSvc := NewVerificationService(ss.db)
	exists, err := verificationSvc.VerificationExists(device.ID, details.VerificationDate, details.ProfileName)
	if err != nil {
		return false, err
	}
	if exists {
		log.Printf("⚠️  Verification of %s for S/N %s already present, skipped",
			details.VerificationDate, device.SerialNumber)
		return false, nil
	}

	err = verificationSvc.SaveRaw(&models.Verification{
		DeviceID:             device.ID,
		VerificationDate:     details.VerificationDate,
		ProfileName:          details.ProfileName,
		ResultsJSON:          details.ResultsJSON,
		OverallStatus:        details.OverallStatus,
		VisualInspectionJSON: details.VisualInspectionJSON,
		MTIInstrument:        details.MTIInfo.Instrument,
		MTISerial:            details.MTIInfo.Serial,
		MTIVersion:           details.MTIInfo.Version,
		MTICalDate:           details.MTIInfo.CalDate,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
