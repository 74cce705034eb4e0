package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Device is one electromedical unit identified by its serial number.
// Applied parts are stored as a JSON blob so the record round-trips
// unchanged through archive exports.
type Device struct {
	ID                   uint      `json:"id" gorm:"primarykey"`
	CustomerID           uint      `json:"customer_id" gorm:"not null;index"`
	Customer             *Customer `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	SerialNumber         string    `json:"serial_number" gorm:"uniqueIndex;not null"`
	Description          string    `json:"description" gorm:"not null"`
	Manufacturer         string    `json:"manufacturer"`
	Model                string    `json:"model"`
	AppliedPartsJSON     string    `json:"applied_parts_json" gorm:"column:applied_parts_json;not null;default:'[]'"`
	CustomerInventory    string    `json:"customer_inventory"`
	AmsInventory         string    `json:"ams_inventory"`
	VerificationInterval *int      `json:"verification_interval"`
	NextVerificationDate *string   `json:"next_verification_date"`
}

func (Device) TableName() string { return "devices" }

// AppliedParts decodes the applied-parts blob. An empty blob means none.
func (d *Device) AppliedParts() ([]AppliedPart, error) {
	if d.AppliedPartsJSON == "" {
		return nil, nil
	}
	var parts []AppliedPart
	if err := json.Unmarshal([]byte(d.AppliedPartsJSON), &parts); err != nil {
		return nil, err
	}
	return parts, nil
}

// SetAppliedParts replaces the applied-parts blob.
func (d *Device) SetAppliedParts(parts []AppliedPart) error {
	if parts == nil {
		parts = []AppliedPart{}
	}
	raw, err := json.Marshal(parts)
	if err != nil {
		return err
	}
	d.AppliedPartsJSON = string(raw)
	return nil
}

// ParseVerificationInterval coerces a free-form interval field to months.
// Anything that is not an integer, sentinel strings like "Nessuno"
// included, comes back as no interval.
func ParseVerificationInterval(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	months, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &months
}
