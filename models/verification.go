package models

import "encoding/json"

// Overall verification outcomes, stored and reported verbatim.
const (
	StatusPassed = "PASSATO"
	StatusFailed = "FALLITO"
)

// Verification is one completed test session for a device. Results and the
// visual inspection are kept as serialized payloads so they export into
// archives without re-encoding.
type Verification struct {
	ID                   uint    `json:"id" gorm:"primarykey"`
	DeviceID             uint    `json:"device_id" gorm:"not null;index"`
	Device               *Device `json:"device,omitempty" gorm:"foreignKey:DeviceID"`
	VerificationDate     string  `json:"verification_date" gorm:"not null"`
	ProfileName          string  `json:"profile_name" gorm:"not null"`
	ResultsJSON          string  `json:"results_json" gorm:"column:results_json;not null"`
	OverallStatus        string  `json:"overall_status" gorm:"not null"`
	VisualInspectionJSON string  `json:"visual_inspection_json" gorm:"column:visual_inspection_json"`
	MTIInstrument        string  `json:"mti_instrument" gorm:"column:mti_instrument"`
	MTISerial            string  `json:"mti_serial" gorm:"column:mti_serial"`
	MTIVersion           string  `json:"mti_version" gorm:"column:mti_version"`
	MTICalDate           string  `json:"mti_cal_date" gorm:"column:mti_cal_date"`
	TechnicianName       string  `json:"technician_name"`
}

func (Verification) TableName() string { return "verifications" }

// Results decodes the recorded measurements.
func (v *Verification) Results() ([]TestResult, error) {
	if v.ResultsJSON == "" {
		return nil, nil
	}
	var results []TestResult
	if err := json.Unmarshal([]byte(v.ResultsJSON), &results); err != nil {
		return nil, err
	}
	return results, nil
}

// VisualInspection decodes the inspection payload. An empty blob decodes
// to an empty inspection.
func (v *Verification) VisualInspection() (VisualInspection, error) {
	var inspection VisualInspection
	if v.VisualInspectionJSON == "" {
		return inspection, nil
	}
	err := json.Unmarshal([]byte(v.VisualInspectionJSON), &inspection)
	return inspection, err
}

// InstrumentSnapshot rebuilds the instrument identity recorded with the
// verification.
func (v *Verification) InstrumentSnapshot() InstrumentSnapshot {
	return InstrumentSnapshot{
		Instrument: v.MTIInstrument,
		Serial:     v.MTISerial,
		Version:    v.MTIVersion,
		CalDate:    v.MTICalDate,
	}
}
