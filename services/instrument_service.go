package services

import (
	"errors"
	"fmt"

	"backend_stm/models"

	"gorm.io/gorm"
)

// ErrInstrumentNotFound is returned when a default-instrument change names a
// missing id. The previous default stays in place.
var ErrInstrumentNotFound = errors.New("instrument not found")

// InstrumentService manages the measuring instruments (MTI).
type InstrumentService struct {
	db *gorm.DB
}

// NewInstrumentService creates a new InstrumentService.
func NewInstrumentService(db *gorm.DB) *InstrumentService {
	return &InstrumentService{db: db}
}

// ListInstruments returns all instruments ordered by name.
func (is *InstrumentService) ListInstruments() ([]models.Instrument, error) {
	var instruments []models.Instrument
	if err := is.db.Order("instrument_name").Find(&instruments).Error; err != nil {
		return nil, err
	}
	return instruments, nil
}

// GetInstrument returns one instrument by id.
func (is *InstrumentService) GetInstrument(id uint) (*models.Instrument, error) {
	var instrument models.Instrument
	if err := is.db.First(&instrument, id).Error; err != nil {
		return nil, err
	}
	return &instrument, nil
}

// CreateInstrument inserts a new instrument.
func (is *InstrumentService) CreateInstrument(instrument *models.Instrument) error {
	if err := is.db.Create(instrument).Error; err != nil {
		return fmt.Errorf("unable to create instrument: %w", err)
	}
	return nil
}

// UpdateInstrument saves an existing instrument's identity fields.
func (is *InstrumentService) UpdateInstrument(instrument *models.Instrument) error {
	err := is.db.Model(&models.Instrument{ID: instrument.ID}).Updates(map[string]interface{}{
		"instrument_name":  instrument.Name,
		"serial_number":    instrument.SerialNumber,
		"fw_version":       instrument.FirmwareVersion,
		"calibration_date": instrument.CalibrationDate,
	}).Error
	if err != nil {
		return fmt.Errorf("unable to update instrument %d: %w", instrument.ID, err)
	}
	return nil
}

// DeleteInstrument removes an instrument.
func (is *InstrumentService) DeleteInstrument(id uint) error {
	if err := is.db.Delete(&models.Instrument{}, id).Error; err != nil {
		return fmt.Errorf("unable to delete instrument %d: %w", id, err)
	}
	return nil
}

// SetDefaultInstrument marks exactly one instrument as default: clear all,
// then set one, inside a single transaction. When the target id does not
// exist the transaction rolls back and the previous default survives, so the
// store never ends up with zero or multiple defaults.
func (is *InstrumentService) SetDefaultInstrument(id uint) error {
	return is.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Instrument{}).Where("is_default = ?", true).
			Update("is_default", false).Error; err != nil {
			return fmt.Errorf("unable to clear default instruments: %w", err)
		}
		res := tx.Model(&models.Instrument{}).Where("id = ?", id).Update("is_default", true)
		if res.Error != nil {
			return fmt.Errorf("unable to set default instrument %d: %w", id, res.Error)
		}
		if res.RowsAffected != 1 {
			return ErrInstrumentNotFound
		}
		return nil
	})
}

// GetDefaultInstrument returns the instrument marked default, nil when none.
func (is *InstrumentService) GetDefaultInstrument() (*models.Instrument, error) {
	var instrument models.Instrument
	err := is.db.Where("is_default = ?", true).First(&instrument).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &instrument, nil
}
