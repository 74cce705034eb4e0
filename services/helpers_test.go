package services

import (
	"testing"

	"backend_stm/models"
	"backend_stm/testutils"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := testutils.SetupTestDB()
	require.NoError(t, err)
	return db
}

func createTestCustomer(t *testing.T, db *gorm.DB, name string) *models.Customer {
	customer := models.Customer{Name: name, Address: "Via Roma 1"}
	require.NoError(t, db.Create(&customer).Error)
	return &customer
}

func createTestDevice(t *testing.T, db *gorm.DB, customerID uint, serial string, parts []models.AppliedPart) *models.Device {
	device := models.Device{
		CustomerID:   customerID,
		SerialNumber: serial,
		Description:  "Monitor multiparametrico",
		Manufacturer: "Acme",
		Model:        "VS-100",
	}
	require.NoError(t, device.SetAppliedParts(parts))
	require.NoError(t, NewDeviceService(db).CreateDevice(&device, ""))
	return &device
}

func floatPtr(v float64) *float64 { return &v }

// classOneProfile mirrors the shape of a real catalog entry: two generic
// measurements plus one test expanded over the device's applied parts.
func classOneProfile() models.VerificationProfile {
	return models.VerificationProfile{
		Name: "Classe I",
		Tests: []models.Test{
			{
				Name:      "Resistenza conduttore di terra",
				Parameter: "R-PE",
				Limits: map[string]models.Limit{
					models.GenericLimitKey: {Unit: "Ohm", HighValue: floatPtr(0.3)},
				},
			},
			{
				Name:      "Corrente di dispersione apparecchio",
				Parameter: "I-EQ",
				Limits: map[string]models.Limit{
					models.GenericLimitKey: {Unit: "uA", HighValue: floatPtr(500)},
				},
			},
			{
				Name:              "Corrente di dispersione parti applicate",
				Parameter:         "I-AP",
				IsAppliedPartTest: true,
				Limits: map[string]models.Limit{
					"::B":  {Unit: "uA", HighValue: floatPtr(500)},
					"::BF": {Unit: "uA", HighValue: floatPtr(500)},
					"::CF": {Unit: "uA", HighValue: floatPtr(50)},
				},
			},
		},
	}
}

func testSession() SessionInfo {
	return SessionInfo{
		ProfileName:    "Classe I",
		TechnicianName: "Mario Rossi",
		Instrument: models.InstrumentSnapshot{
			Instrument: "Fluke ESA615",
			Serial:     "ESA-001",
			Version:    "2.1",
			CalDate:    "2026-01-15",
		},
		VisualInspection: models.VisualInspection{
			Checklist: []models.ChecklistItem{
				{Item: "Involucro integro", Checked: true},
				{Item: "Cavo di alimentazione integro", Checked: true},
			},
		},
	}
}
