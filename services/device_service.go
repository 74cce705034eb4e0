package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"backend_stm/models"

	"gorm.io/gorm"
)

// ErrDuplicateSerial is returned when an insert would reuse an existing
// serial number. Uniqueness is checked before insert on every path,
// single-add and bulk import alike.
var ErrDuplicateSerial = errors.New("serial number already exists")

// DeviceService implements the device side of the persistence layer.
type DeviceService struct {
	db *gorm.DB
}

// NewDeviceService creates a new DeviceService.
func NewDeviceService(db *gorm.DB) *DeviceService {
	return &DeviceService{db: db}
}

// CreateDevice inserts a device. rawInterval is coerced permissively: any
// value that is not an integer (including sentinel strings like "Nessuno")
// stores as no interval, never as an error.
func (ds *DeviceService) CreateDevice(device *models.Device, rawInterval string) error {
	exists, err := ds.DeviceExists(device.SerialNumber)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateSerial
	}

	if device.AppliedPartsJSON == "" {
		device.AppliedPartsJSON = "[]"
	}
	device.VerificationInterval = models.ParseVerificationInterval(rawInterval)

	if err := ds.db.Create(device).Error; err != nil {
		return fmt.Errorf("unable to create device %s: %w", device.SerialNumber, err)
	}
	return nil
}

// UpdateDevice saves an existing device with the same permissive interval
// coercion as CreateDevice.
func (ds *DeviceService) UpdateDevice(device *models.Device, rawInterval string) error {
	if device.AppliedPartsJSON == "" {
		device.AppliedPartsJSON = "[]"
	}
	device.VerificationInterval = models.ParseVerificationInterval(rawInterval)

	err := ds.db.Model(&models.Device{ID: device.ID}).Updates(map[string]interface{}{
		"serial_number":         device.SerialNumber,
		"description":           device.Description,
		"manufacturer":          device.Manufacturer,
		"model":                 device.Model,
		"applied_parts_json":    device.AppliedPartsJSON,
		"customer_inventory":    device.CustomerInventory,
		"ams_inventory":         device.AmsInventory,
		"verification_interval": device.VerificationInterval,
	}).Error
	if err != nil {
		return fmt.Errorf("unable to update device %d: %w", device.ID, err)
	}
	return nil
}

// DeleteDevice removes a device and its whole verification history in one
// transaction. On any failure nothing is deleted.
func (ds *DeviceService) DeleteDevice(id uint) error {
	err := ds.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("device_id = ?", id).Delete(&models.Verification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Device{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("unable to delete device %d: %w", id, err)
	}
	log.Printf("⚠️  Device %d and all its verifications deleted", id)
	return nil
}

// DeleteAllDevicesForCustomer removes every device of a customer together
// with their verifications, all-or-nothing. Returns the number of devices
// removed.
func (ds *DeviceService) DeleteAllDevicesForCustomer(customerID uint) (int64, error) {
	var removed int64
	err := ds.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("device_id IN (?)",
			tx.Model(&models.Device{}).Select("id").Where("customer_id = ?", customerID),
		).Delete(&models.Verification{}).Error; err != nil {
			return err
		}
		res := tx.Where("customer_id = ?", customerID).Delete(&models.Device{})
		removed = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("unable to delete devices for customer %d: %w", customerID, err)
	}
	log.Printf("⚠️  Removed %d devices for customer %d", removed, customerID)
	return removed, nil
}

// DeviceExists reports whether a serial number is already taken.
func (ds *DeviceService) DeviceExists(serial string) (bool, error) {
	var count int64
	err := ds.db.Model(&models.Device{}).Where("serial_number = ?", serial).Count(&count).Error
	return count > 0, err
}

// GetDevice returns one device by id.
func (ds *DeviceService) GetDevice(id uint) (*models.Device, error) {
	var device models.Device
	if err := ds.db.First(&device, id).Error; err != nil {
		return nil, err
	}
	return &device, nil
}

// GetDeviceBySerial returns a device by serial number, nil when absent.
func (ds *DeviceService) GetDeviceBySerial(serial string) (*models.Device, error) {
	var device models.Device
	err := ds.db.Where("serial_number = ?", serial).First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// SearchDeviceGlobally finds a device by exact serial number or exact AMS
// inventory tag. The UI search and the import dedup path share this single
// definition of identity.
func (ds *DeviceService) SearchDeviceGlobally(term string) (*models.Device, error) {
	var device models.Device
	err := ds.db.Where("serial_number = ? OR ams_inventory = ?", term, term).First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// ListDevicesForCustomer returns the customer's devices ordered by
// description, optionally filtered by a substring across the descriptive
// and inventory fields.
func (ds *DeviceService) ListDevicesForCustomer(customerID uint, search string) ([]models.Device, error) {
	query := ds.db.Where("customer_id = ?", customerID)
	if search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"description LIKE ? OR serial_number LIKE ? OR model LIKE ? OR ams_inventory LIKE ? OR customer_inventory LIKE ?",
			like, like, like, like, like)
	}
	var devices []models.Device
	if err := query.Order("description").Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

// UpdateNextVerificationDate recomputes the device's next due date from
// today plus its interval. A device without an interval is left untouched.
func (ds *DeviceService) UpdateNextVerificationDate(deviceID uint) error {
	device, err := ds.GetDevice(deviceID)
	if err != nil {
		return err
	}
	if device.VerificationInterval == nil {
		return nil
	}

	next := time.Now().AddDate(0, *device.VerificationInterval, 0).Format(models.DateLayout)
	if err := ds.db.Model(&models.Device{ID: deviceID}).
		Update("next_verification_date", next).Error; err != nil {
		return fmt.Errorf("unable to update next verification date for device %d: %w", deviceID, err)
	}
	log.Printf("Next verification for device %d set to %s", deviceID, next)
	return nil
}

// GetDevicesNeedingVerification returns devices whose next due date falls
// within the horizon, ascending by date. Already-overdue devices are
// included together with upcoming ones; that dual semantics is intended.
func (ds *DeviceService) GetDevicesNeedingVerification(horizonDays int) ([]models.Device, error) {
	limit := time.Now().AddDate(0, 0, horizonDays).Format(models.DateLayout)
	var devices []models.Device
	err := ds.db.Preload("Customer").
		Where("next_verification_date IS NOT NULL AND next_verification_date <= ?", limit).
		Order("next_verification_date ASC").
		Find(&devices).Error
	if err != nil {
		return nil, err
	}
	return devices, nil
}
