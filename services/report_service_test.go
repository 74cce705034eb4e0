package services

import (
	"os"
	"path/filepath"
	"testing"

	"backend_stm/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReportWritesPDF(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db, "Ospedale San Carlo")
	device := createTestDevice(t, db, customer.ID, "SN-PDF-1", []models.AppliedPart{
		{Name: "ECG", PartType: models.PartTypeCF},
	})
	device.Description = "Monitor multiparametrico (Cardiologia)"
	require.NoError(t, NewDeviceService(db).UpdateDevice(device, ""))

	verification := saveTestVerification(t, db, device.ID, "2026-08-31", "Classe I")

	out := filepath.Join(t.TempDir(), ReportFileName(device.SerialNumber))
	svc := NewReportService(ReportOptions{})
	require.NoError(t, svc.CreateReport(out, device, customer,
		verification.InstrumentSnapshot(), verification, "Mario Rossi"))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(1000))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(raw[:4]))
}

func TestCreateReportFailedVerification(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db, "Clinica Belvedere")
	device := createTestDevice(t, db, customer.ID, "SN-PDF-2", nil)

	verification, err := NewVerificationService(db).SaveVerification(
		device.ID, "Classe I",
		[]models.TestResult{
			{Name: "Corrente di dispersione apparecchio (I-EQ)", Limit: "≤ 500 uA", Value: "750", Passed: false},
		},
		models.StatusFailed,
		models.VisualInspection{},
		models.InstrumentSnapshot{Instrument: "Fluke ESA615"},
		"", "2026-08-31")
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, NewReportService(ReportOptions{}).CreateReport(
		out, device, customer, verification.InstrumentSnapshot(), verification, ""))

	_, err = os.Stat(out)
	assert.NoError(t, err)
}

func TestCreateReportMissingLogoIsTolerated(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db, "Ospedale San Carlo")
	device := createTestDevice(t, db, customer.ID, "SN-PDF-3", nil)
	verification := saveTestVerification(t, db, device.ID, "2026-08-31", "Classe I")

	out := filepath.Join(t.TempDir(), "report.pdf")
	svc := NewReportService(ReportOptions{LogoPath: filepath.Join(t.TempDir(), "missing.png")})
	assert.NoError(t, svc.CreateReport(out, device, customer,
		verification.InstrumentSnapshot(), verification, "Mario Rossi"))
}

func TestReportFileName(t *testing.T) {
	name := ReportFileName("SN-42")
	assert.Contains(t, name, "Report_SN-42_")
	assert.Contains(t, name, ".pdf")
}

func TestSplitLimitUnit(t *testing.T) {
	value, unit := splitLimitUnit("≤ 500 µA")
	assert.Equal(t, "≤ 500", value)
	assert.Equal(t, "µA", unit)

	value, unit = splitLimitUnit("≤ 0.3 Ohm")
	assert.Equal(t, "≤ 0.3", value)
	assert.Equal(t, "Ohm", unit)

	value, unit = splitLimitUnit("not specified")
	assert.Equal(t, "not specified", value)
	assert.Empty(t, unit)

	value, unit = splitLimitUnit("")
	assert.Empty(t, value)
	assert.Empty(t, unit)
}

func TestPdfSafe(t *testing.T) {
	assert.Equal(t, "<= 500 uA", pdfSafe("≤ 500 uA"))
	assert.Equal(t, "plain", pdfSafe("plain"))
}

func TestDisplayDate(t *testing.T) {
	assert.Equal(t, "31/08/2026", displayDate("2026-08-31"))
	assert.Equal(t, "garbage", displayDate("garbage"))
}
