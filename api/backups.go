package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListBackups lists the snapshots in the backup directory.
func (h *Handler) ListBackups(c *gin.Context) {
	backups, err := h.backups.ListBackups()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": backups})
}

// CreateBackup takes a snapshot of the store on demand.
func (h *Handler) CreateBackup(c *gin.Context) {
	h.backups.CreateBackup()
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// RestoreBackup overwrites the store with a snapshot. The restored data is
// only visible after a process restart, and the response says so.
func (h *Handler) RestoreBackup(c *gin.Context) {
	var p struct {
		Path string `json:"path"`
	}
	if err := c.ShouldBindJSON(&p); err != nil || p.Path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "path is required"})
		return
	}

	if !h.backups.RestoreFromBackup(p.Path) {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Restore failed, the store was not replaced"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"restart_required": true}})
}
