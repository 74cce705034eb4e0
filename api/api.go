package api

import (
	"net/http"
	"strconv"

	"backend_stm/config"
	"backend_stm/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler carries the shared dependencies of the HTTP surface.
type Handler struct {
	db      *gorm.DB
	catalog config.ProfileCatalog
	cfg     *config.Config
	cache   *services.CacheService
	backups *services.BackupService
	auth    *services.AuthService
}

// NewHandler creates the API handler set.
func NewHandler(db *gorm.DB, catalog config.ProfileCatalog, cfg *config.Config,
	cache *services.CacheService, backups *services.BackupService, auth *services.AuthService) *Handler {
	return &Handler{db: db, catalog: catalog, cfg: cfg, cache: cache, backups: backups, auth: auth}
}

// RegisterRoutes wires every endpoint onto the router. Everything except
// login and registration sits behind the auth middleware.
func (h *Handler) RegisterRoutes(r *gin.Engine, requireAuth gin.HandlerFunc) {
	r.POST("/api/auth/login", h.Login)
	r.POST("/api/auth/register", h.Register)

	authed := r.Group("/api", requireAuth)
	{
		authed.GET("/stats", h.GetStats)
		authed.GET("/profiles", h.GetProfiles)

		authed.GET("/customers", h.GetCustomers)
		authed.POST("/customers", h.CreateCustomer)
		authed.PUT("/customers/:id", h.UpdateCustomer)
		authed.DELETE("/customers/:id", h.DeleteCustomer)
		authed.GET("/customers/:id/devices", h.GetCustomerDevices)
		authed.DELETE("/customers/:id/devices", h.DeleteCustomerDevices)
		authed.GET("/customers/:id/verifications", h.GetCustomerVerifications)

		authed.POST("/devices", h.CreateDevice)
		authed.GET("/devices/search", h.SearchDevice)
		authed.GET("/devices/due", h.GetDevicesDue)
		authed.GET("/devices/:id", h.GetDevice)
		authed.PUT("/devices/:id", h.UpdateDevice)
		authed.DELETE("/devices/:id", h.DeleteDevice)
		authed.GET("/devices/:id/verifications", h.GetDeviceVerifications)

		authed.GET("/verifications/:id", h.GetVerification)
		authed.POST("/verifications/:id/report", h.GenerateReport)

		authed.GET("/instruments", h.GetInstruments)
		authed.POST("/instruments", h.CreateInstrument)
		authed.PUT("/instruments/:id", h.UpdateInstrument)
		authed.DELETE("/instruments/:id", h.DeleteInstrument)
		authed.POST("/instruments/:id/default", h.SetDefaultInstrument)

		authed.GET("/runner/precheck", h.RunnerPrecheck)
		authed.POST("/sessions", h.CreateSession)
		authed.GET("/sessions/:id", h.GetSession)
		authed.POST("/sessions/:id/step", h.SubmitStep)
		authed.POST("/sessions/:id/finalize", h.FinalizeSession)

		authed.POST("/imports", h.StartImport)
		authed.GET("/imports/:id", h.GetImportStatus)
		authed.POST("/imports/:id/cancel", h.CancelImport)

		authed.POST("/stm/export", h.ExportStm)
		authed.POST("/stm/import", h.ImportStm)

		authed.GET("/backups", h.ListBackups)
		authed.POST("/backups", h.CreateBackup)
		authed.POST("/backups/restore", h.RestoreBackup)
	}
}

// GetProfiles lists the loaded verification profiles.
func (h *Handler) GetProfiles(c *gin.Context) {
	type profileInfo struct {
		Key   string `json:"key"`
		Name  string `json:"name"`
		Tests int    `json:"tests"`
	}
	var out []profileInfo
	for _, key := range h.catalog.Keys() {
		p, _ := h.catalog.Get(key)
		out = append(out, profileInfo{Key: key, Name: p.Name, Tests: len(p.Tests)})
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": out})
}

// queryUint parses a required unsigned integer query parameter.
func queryUint(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Query(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}

// paramID parses the :id path segment.
func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}
