package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"backend_stm/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetDeviceVerifications lists a device's verification history, newest first.
func (h *Handler) GetDeviceVerifications(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	verifications, err := services.NewVerificationService(h.db).ListForDevice(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": verifications})
}

// GetVerification returns one verification with its device.
func (h *Handler) GetVerification(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	verification, err := services.NewVerificationService(h.db).GetVerification(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Verification not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": verification})
}

// GenerateReport renders the PDF report for a persisted verification and
// returns the path it was written to.
func (h *Handler) GenerateReport(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	verification, err := services.NewVerificationService(h.db).GetVerification(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Verification not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	if verification.Device == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Verification has no device"})
		return
	}

	customer, err := services.NewCustomerService(h.db).GetCustomer(verification.Device.CustomerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}

	if err := os.MkdirAll(h.cfg.Report.OutDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Unable to create report directory: " + err.Error()})
		return
	}
	outPath := filepath.Join(h.cfg.Report.OutDir, services.ReportFileName(verification.Device.SerialNumber))

	technician := verification.TechnicianName
	if technician == "" {
		technician = c.GetString("technician")
	}

	reportSvc := services.NewReportService(services.ReportOptions{LogoPath: h.cfg.Report.LogoPath})
	err = reportSvc.CreateReport(outPath, verification.Device, customer,
		verification.InstrumentSnapshot(), verification, technician)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Report generation failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"path": outPath}})
}
