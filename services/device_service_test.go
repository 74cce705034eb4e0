package services

import (
	"testing"
	"time"

	"backend_stm/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDeviceRejectsDuplicateSerial(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db, "Ospedale San Carlo")
	createTestDevice(t, db, customer.ID, "SN-DUP", nil)

	duplicate := models.Device{
		CustomerID:   customer.ID,
		SerialNumber: "SN-DUP",
		Description:  "Un altro apparecchio",
	}
	err := NewDeviceService(db).CreateDevice(&duplicate, "")
	assert.ErrorIs(t, err, ErrDuplicateSerial)
}

func TestVerificationIntervalCoercion(t *testing.T) {
	assert.Nil(t, models.ParseVerificationInterval(""))
	assert.Nil(t, models.ParseVerificationInterval("Nessuno"))
	assert.Nil(t, models.ParseVerificationInterval("12 mesi"))
	require.NotNil(t, models.ParseVerificationInterval(" 24 "))
	assert.Equal(t, 24, *models.ParseVerificationInterval(" 24 "))
	assert.Equal(t, 6, *models.ParseVerificationInterval("6"))
}

func TestDeleteDeviceRemovesHistory(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db, "Ospedale San Carlo")
	device := createTestDevice(t, db, customer.ID, "SN-DEL", nil)
	saveTestVerification(t, db, device.ID, "2026-08-31", "Classe I")

	require.NoError(t, NewDeviceService(db).DeleteDevice(device.ID))

	gone, err := NewDeviceService(db).GetDeviceBySerial("SN-DEL")
	require.NoError(t, err)
	assert.Nil(t, gone)

	var verifications int64
	require.NoError(t, db.Model(&models.Verification{}).Where("device_id = ?", device.ID).Count(&verifications).Error)
	assert.Zero(t, verifications)
}

func TestDeleteAllDevicesForCustomer(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db, "Ospedale San Carlo")
	other := createTestCustomer(t, db, "Clinica Belvedere")
	first := createTestDevice(t, db, customer.ID, "SN-A", nil)
	createTestDevice(t, db, customer.ID, "SN-B", nil)
	kept := createTestDevice(t, db, other.ID, "SN-C", nil)
	saveTestVerification(t, db, first.ID, "2026-08-31", "Classe I")

	removed, err := NewDeviceService(db).DeleteAllDevicesForCustomer(customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	remaining, err := NewDeviceService(db).GetDevice(kept.ID)
	require.NoError(t, err)
	assert.Equal(t, "SN-C", remaining.SerialNumber)
}

func TestDeleteCustomerBlockedWhileDevicesExist(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db, "Ospedale San Carlo")
	createTestDevice(t, db, customer.ID, "SN-BLOCK", nil)

	err := NewCustomerService(db).DeleteCustomer(customer.ID)
	assert.ErrorIs(t, err, ErrCustomerHasDevices)

	_, err = NewDeviceService(db).DeleteAllDevicesForCustomer(customer.ID)
	require.NoError(t, err)
	assert.NoError(t, NewCustomerService(db).DeleteCustomer(customer.ID))
}

func TestAddOrGetCustomerNeverUpdatesAddress(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCustomerService(db)

	id, created, err := svc.AddOrGetCustomer("Ospedale San Carlo", "Via Roma 1")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := svc.AddOrGetCustomer("Ospedale San Carlo", "Via Nuova 99")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id, again)

	customer, err := svc.GetCustomer(id)
	require.NoError(t, err)
	assert.Equal(t, "Via Roma 1", customer.Address)
}

func TestSearchDeviceGloballyMatchesSerialOrAmsTag(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db, "Ospedale San Carlo")
	device := models.Device{
		CustomerID:   customer.ID,
		SerialNumber: "SN-SEARCH",
		Description:  "Monitor",
		AmsInventory: "AMS-42",
	}
	require.NoError(t, NewDeviceService(db).CreateDevice(&device, ""))

	bySerial, err := NewDeviceService(db).SearchDeviceGlobally("SN-SEARCH")
	require.NoError(t, err)
	require.NotNil(t, bySerial)

	byTag, err := NewDeviceService(db).SearchDeviceGlobally("AMS-42")
	require.NoError(t, err)
	require.NotNil(t, byTag)
	assert.Equal(t, bySerial.ID, byTag.ID)

	// Matching is exact, not substring.
	none, err := NewDeviceService(db).SearchDeviceGlobally("SN-SEAR")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestGetDevicesNeedingVerification(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db, "Ospedale San Carlo")
	svc := NewDeviceService(db)

	setDue := func(serial string, daysFromNow int) {
		device := createTestDevice(t, db, customer.ID, serial, nil)
		due := time.Now().AddDate(0, 0, daysFromNow).Format(models.DateLayout)
		require.NoError(t, db.Model(&models.Device{ID: device.ID}).
			Update("next_verification_date", due).Error)
	}
	setDue("SN-OVERDUE", -10)
	setDue("SN-SOON", 5)
	setDue("SN-LATER", 90)
	createTestDevice(t, db, customer.ID, "SN-NO-SCHEDULE", nil)

	due, err := svc.GetDevicesNeedingVerification(30)
	require.NoError(t, err)
	require.Len(t, due, 2)

	// Overdue first, then upcoming, ascending by date; unscheduled
	// devices never appear.
	assert.Equal(t, "SN-OVERDUE", due[0].SerialNumber)
	assert.Equal(t, "SN-SOON", due[1].SerialNumber)
	require.NotNil(t, due[0].Customer)
	assert.Equal(t, "Ospedale San Carlo", due[0].Customer.Name)
}

func TestUpdateNextVerificationDate(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db, "Ospedale San Carlo")
	svc := NewDeviceService(db)

	noInterval := createTestDevice(t, db, customer.ID, "SN-NOINT", nil)
	require.NoError(t, svc.UpdateNextVerificationDate(noInterval.ID))
	reloaded, err := svc.GetDevice(noInterval.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.NextVerificationDate)

	scheduled := createTestDevice(t, db, customer.ID, "SN-INT", nil)
	require.NoError(t, svc.UpdateDevice(scheduled, "6"))
	require.NoError(t, svc.UpdateNextVerificationDate(scheduled.ID))
	reloaded, err = svc.GetDevice(scheduled.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.NextVerificationDate)
	expected := time.Now().AddDate(0, 6, 0).Format(models.DateLayout)
	assert.Equal(t, expected, *reloaded.NextVerificationDate)
}

func TestListDevicesForCustomerFilters(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db, "Ospedale San Carlo")
	svc := NewDeviceService(db)

	monitor := models.Device{CustomerID: customer.ID, SerialNumber: "SN-M1", Description: "Monitor multiparametrico"}
	require.NoError(t, svc.CreateDevice(&monitor, ""))
	pump := models.Device{CustomerID: customer.ID, SerialNumber: "SN-P1", Description: "Pompa infusione"}
	require.NoError(t, svc.CreateDevice(&pump, ""))

	all, err := svc.ListDevicesForCustomer(customer.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := svc.ListDevicesForCustomer(customer.ID, "Pompa")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "SN-P1", filtered[0].SerialNumber)

	bySerial, err := svc.ListDevicesForCustomer(customer.ID, "SN-M1")
	require.NoError(t, err)
	assert.Len(t, bySerial, 1)
}
