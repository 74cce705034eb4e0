package api

import (
	"errors"
	"net/http"

	"backend_stm/models"
	"backend_stm/services"

	"github.com/gin-gonic/gin"
)

// GetInstruments lists the measuring instruments.
func (h *Handler) GetInstruments(c *gin.Context) {
	instruments, err := services.NewInstrumentService(h.db).ListInstruments()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": instruments})
}

// CreateInstrument adds an instrument.
func (h *Handler) CreateInstrument(c *gin.Context) {
	var instrument models.Instrument
	if err := c.ShouldBindJSON(&instrument); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid instrument payload: " + err.Error()})
		return
	}
	if instrument.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Instrument name is required"})
		return
	}
	if err := services.NewInstrumentService(h.db).CreateInstrument(&instrument); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": instrument})
}

// UpdateInstrument saves an instrument's identity fields.
func (h *Handler) UpdateInstrument(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var instrument models.Instrument
	if err := c.ShouldBindJSON(&instrument); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid instrument payload: " + err.Error()})
		return
	}
	instrument.ID = id
	if err := services.NewInstrumentService(h.db).UpdateInstrument(&instrument); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": instrument})
}

// DeleteInstrument removes an instrument.
func (h *Handler) DeleteInstrument(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := services.NewInstrumentService(h.db).DeleteInstrument(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// SetDefaultInstrument marks one instrument as the session default.
func (h *Handler) SetDefaultInstrument(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	err := services.NewInstrumentService(h.db).SetDefaultInstrument(id)
	if errors.Is(err, services.ErrInstrumentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Instrument not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
