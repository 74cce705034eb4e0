package models

// Instrument is one measuring instrument the lab owns. At most one is
// marked as the default offered when a session starts.
type Instrument struct {
	ID              uint   `json:"id" gorm:"primarykey"`
	Name            string `json:"name" gorm:"column:instrument_name;not null"`
	SerialNumber    string `json:"serial_number"`
	FirmwareVersion string `json:"firmware_version" gorm:"column:fw_version"`
	CalibrationDate string `json:"calibration_date"`
	IsDefault       bool   `json:"is_default" gorm:"not null;default:false"`
}

func (Instrument) TableName() string { return "mti_instruments" }

// Snapshot freezes the instrument identity for storage on a verification.
func (i *Instrument) Snapshot() InstrumentSnapshot {
	return InstrumentSnapshot{
		Instrument: i.Name,
		Serial:     i.SerialNumber,
		Version:    i.FirmwareVersion,
		CalDate:    i.CalibrationDate,
	}
}
