package api

import (
	"net/http"

	"backend_stm/services"

	"github.com/gin-gonic/gin"
)

// ExportStm writes the archive for one calendar date to the given path.
func (h *Handler) ExportStm(c *gin.Context) {
	var p struct {
		Date       string `json:"date"`
		OutputPath string `json:"output_path"`
	}
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid export payload: " + err.Error()})
		return
	}
	if p.Date == "" || p.OutputPath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "date and output_path are required"})
		return
	}

	result, err := services.NewStmService(h.db).ExportDate(p.Date, p.OutputPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": result})
}

// ImportStm merges an .stm archive file into the store.
func (h *Handler) ImportStm(c *gin.Context) {
	var p struct {
		Path string `json:"path"`
	}
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid import payload: " + err.Error()})
		return
	}
	if p.Path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "path is required"})
		return
	}

	report, err := services.NewStmService(h.db).ImportArchive(p.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": report})
}
