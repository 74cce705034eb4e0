package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"backend_stm/models"

	"gorm.io/gorm"
)

// VerificationService stores and reads verification records. Records are
// append-only: nothing here ever updates an existing row.
type VerificationService struct {
	db *gorm.DB
}

// NewVerificationService creates a new VerificationService.
func NewVerificationService(db *gorm.DB) *VerificationService {
	return &VerificationService{db: db}
}

// SaveVerification persists one completed verification. An empty date means
// today.
func (vs *VerificationService) SaveVerification(
	deviceID uint,
	profileName string,
	results []models.TestResult,
	overallStatus string,
	visualInspection models.VisualInspection,
	instrument models.InstrumentSnapshot,
	technicianName string,
	verificationDate string,
) (*models.Verification, error) {
	if verificationDate == "" {
		verificationDate = time.Now().Format(models.DateLayout)
	}

	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("unable to serialize results: %w", err)
	}
	visualJSON, err := json.Marshal(visualInspection)
	if err != nil {
		return nil, fmt.Errorf("unable to serialize visual inspection: %w", err)
	}

	verification := models.Verification{
		DeviceID:             deviceID,
		VerificationDate:     verificationDate,
		ProfileName:          profileName,
		ResultsJSON:          string(resultsJSON),
		OverallStatus:        overallStatus,
		VisualInspectionJSON: string(visualJSON),
		MTIInstrument:        instrument.Instrument,
		MTISerial:            instrument.Serial,
		MTIVersion:           instrument.Version,
		MTICalDate:           instrument.CalDate,
		TechnicianName:       technicianName,
	}

	if err := vs.db.Create(&verification).Error; err != nil {
		return nil, fmt.Errorf("unable to save verification for device %d: %w", deviceID, err)
	}
	log.Printf("Verification of %s saved for device %d", verificationDate, deviceID)
	return &verification, nil
}

// SaveRaw persists a verification whose payloads are already serialized,
// as found in archive documents.
func (vs *VerificationService) SaveRaw(verification *models.Verification) error {
	if verification.VerificationDate == "" {
		verification.VerificationDate = time.Now().Format(models.DateLayout)
	}
	if err := vs.db.Create(verification).Error; err != nil {
		return fmt.Errorf("unable to save verification for device %d: %w", verification.DeviceID, err)
	}
	return nil
}

// VerificationExists checks the composite key used to deduplicate imports:
// one verification per (device, date, profile).
func (vs *VerificationService) VerificationExists(deviceID uint, date, profileName string) (bool, error) {
	var count int64
	err := vs.db.Model(&models.Verification{}).
		Where("device_id = ? AND verification_date = ? AND profile_name = ?", deviceID, date, profileName).
		Count(&count).Error
	return count > 0, err
}

// GetVerification returns one verification with its device preloaded.
func (vs *VerificationService) GetVerification(id uint) (*models.Verification, error) {
	var verification models.Verification
	if err := vs.db.Preload("Device").First(&verification, id).Error; err != nil {
		return nil, err
	}
	return &verification, nil
}

// ListForDevice returns a device's verification history, newest first.
func (vs *VerificationService) ListForDevice(deviceID uint) ([]models.Verification, error) {
	var verifications []models.Verification
	err := vs.db.Where("device_id = ?", deviceID).
		Order("verification_date DESC").
		Find(&verifications).Error
	if err != nil {
		return nil, err
	}
	return verifications, nil
}

// CustomerVerificationRow is one row of the per-customer overview listing.
type CustomerVerificationRow struct {
	CustomerName      string `json:"customer_name"`
	DeviceDescription string `json:"device_description"`
	SerialNumber      string `json:"serial_number"`
	Model             string `json:"model"`
	Manufacturer      string `json:"manufacturer"`
	AmsInventory      string `json:"ams_inventory"`
	VerificationID    uint   `json:"verification_id"`
	VerificationDate  string `json:"verification_date"`
	ProfileName       string `json:"profile_name"`
	OverallStatus     string `json:"overall_status"`
}

// ListForCustomer returns every verification of every device of a customer.
func (vs *VerificationService) ListForCustomer(customerID uint) ([]CustomerVerificationRow, error) {
	var rows []CustomerVerificationRow
	err := vs.db.Raw(`
		SELECT
			c.name AS customer_name,
			d.description AS device_description,
			d.serial_number,
			d.model,
			d.manufacturer,
			d.ams_inventory,
			v.id AS verification_id,
			v.verification_date,
			v.profile_name,
			v.overall_status
		FROM verifications v
		JOIN devices d ON v.device_id = d.id
		JOIN customers c ON d.customer_id = c.id
		WHERE c.id = ?
		ORDER BY d.description, v.verification_date DESC`, customerID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Stats is the dashboard summary.
type Stats struct {
	Devices          int64  `json:"devices"`
	Customers        int64  `json:"customers"`
	LastVerification string `json:"last_verification"`
}

// GetStats returns the dashboard counters.
func (vs *VerificationService) GetStats() (*Stats, error) {
	var stats Stats
	if err := vs.db.Model(&models.Device{}).Count(&stats.Devices).Error; err != nil {
		return nil, err
	}
	if err := vs.db.Model(&models.Customer{}).Count(&stats.Customers).Error; err != nil {
		return nil, err
	}
	var last *string
	if err := vs.db.Model(&models.Verification{}).
		Select("MAX(verification_date)").Scan(&last).Error; err != nil {
		return nil, err
	}
	if last != nil {
		stats.LastVerification = *last
	} else {
		stats.LastVerification = "N/A"
	}
	return &stats, nil
}
