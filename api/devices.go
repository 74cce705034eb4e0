package api

import (
	"errors"
	"net/http"
	"strconv"

	"backend_stm/models"
	"backend_stm/services"

	"github.com/gin-gonic/gin"
)

// devicePayload is the request body for device create/update. The interval
// arrives as raw text and is coerced permissively by the persistence layer.
type devicePayload struct {
	CustomerID           uint                 `json:"customer_id"`
	SerialNumber         string               `json:"serial_number"`
	Description          string               `json:"description"`
	Manufacturer         string               `json:"manufacturer"`
	Model                string               `json:"model"`
	AppliedParts         []models.AppliedPart `json:"applied_parts"`
	CustomerInventory    string               `json:"customer_inventory"`
	AmsInventory         string               `json:"ams_inventory"`
	VerificationInterval string               `json:"verification_interval"`
}

func (p *devicePayload) toDevice() (*models.Device, error) {
	device := &models.Device{
		CustomerID:        p.CustomerID,
		SerialNumber:      p.SerialNumber,
		Description:       p.Description,
		Manufacturer:      p.Manufacturer,
		Model:             p.Model,
		CustomerInventory: p.CustomerInventory,
		AmsInventory:      p.AmsInventory,
	}
	if err := device.SetAppliedParts(p.AppliedParts); err != nil {
		return nil, err
	}
	return device, nil
}

// GetCustomerDevices lists a customer's devices with an optional filter.
func (h *Handler) GetCustomerDevices(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	devices, err := services.NewDeviceService(h.db).ListDevicesForCustomer(id, c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": devices})
}

// CreateDevice adds a device, refusing duplicate serial numbers.
func (h *Handler) CreateDevice(c *gin.Context) {
	var payload devicePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid device payload: " + err.Error()})
		return
	}
	if payload.SerialNumber == "" || payload.Description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Serial number and description are required"})
		return
	}

	device, err := payload.toDevice()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}
	err = services.NewDeviceService(h.db).CreateDevice(device, payload.VerificationInterval)
	if errors.Is(err, services.ErrDuplicateSerial) {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "error": "A device with serial '" + payload.SerialNumber + "' already exists"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": device})
}

// GetDevice returns one device.
func (h *Handler) GetDevice(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	device, err := services.NewDeviceService(h.db).GetDevice(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Device not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": device})
}

// UpdateDevice saves an existing device.
func (h *Handler) UpdateDevice(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var payload devicePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid device payload: " + err.Error()})
		return
	}
	device, err := payload.toDevice()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}
	device.ID = id
	if err := services.NewDeviceService(h.db).UpdateDevice(device, payload.VerificationInterval); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": device})
}

// DeleteDevice removes a device and its verification history.
func (h *Handler) DeleteDevice(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := services.NewDeviceService(h.db).DeleteDevice(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// DeleteCustomerDevices removes every device of a customer at once.
func (h *Handler) DeleteCustomerDevices(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	removed, err := services.NewDeviceService(h.db).DeleteAllDevicesForCustomer(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"removed": removed}})
}

// SearchDevice finds a device anywhere in the store by exact serial number
// or AMS inventory tag.
func (h *Handler) SearchDevice(c *gin.Context) {
	term := c.Query("term")
	if term == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Search term is required"})
		return
	}
	device, err := services.NewDeviceService(h.db).SearchDeviceGlobally(term)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	if device == nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "No device matches '" + term + "'"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": device})
}

// GetDevicesDue lists devices overdue or due within the horizon (default 30
// days), ascending by due date.
func (h *Handler) GetDevicesDue(c *gin.Context) {
	horizon, err := strconv.Atoi(c.DefaultQuery("horizon_days", "30"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid horizon_days"})
		return
	}
	devices, err := services.NewDeviceService(h.db).GetDevicesNeedingVerification(horizon)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": devices})
}
