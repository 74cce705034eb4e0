package api

import (
	"errors"
	"net/http"
	"sync"

	"backend_stm/models"
	"backend_stm/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// sessions holds the live test runners keyed by session id. Sessions are
// in-memory only: a restart drops them, persisted verifications survive.
var (
	sessionsMu sync.Mutex
	sessions   = make(map[string]*services.TestRunner)
)

func stateName(state services.RunnerState) string {
	switch state {
	case services.StateAwaitingInput:
		return "awaiting_input"
	case services.StateSummary:
		return "summary"
	default:
		return "saved"
	}
}

// runnerSnapshot renders the runner state the same way for every session
// endpoint.
func runnerSnapshot(id string, runner *services.TestRunner) gin.H {
	out := gin.H{
		"session_id": id,
		"state":      stateName(runner.State()),
		"results":    runner.Results(),
	}
	if step, ok := runner.CurrentStep(); ok {
		out["current_step"] = step
	}
	if runner.State() == services.StateSummary {
		out["overall_status"] = runner.OverallStatus()
	}
	return out
}

// RunnerPrecheck reports whether starting the given profile on the given
// device would silently skip the applied-part tests.
func (h *Handler) RunnerPrecheck(c *gin.Context) {
	deviceID, err := queryUint(c, "device_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid device_id"})
		return
	}
	profileKey := c.Query("profile_key")
	profile, ok := h.catalog.Get(profileKey)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Unknown profile: " + profileKey})
		return
	}

	device, err := services.NewDeviceService(h.db).GetDevice(deviceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Device not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}

	// An unreadable applied-parts blob counts as zero parts, same as the
	// runner itself.
	parts, err := device.AppliedParts()
	if err != nil {
		parts = nil
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{
		"profile_needs_applied_parts": profile.NeedsAppliedParts(),
		"device_has_applied_parts":    len(parts) > 0,
		"applied_part_tests_skipped":  profile.NeedsAppliedParts() && len(parts) == 0,
	}})
}

type createSessionPayload struct {
	DeviceID         uint                    `json:"device_id"`
	ProfileKey       string                  `json:"profile_key"`
	TechnicianName   string                  `json:"technician_name"`
	InstrumentID     uint                    `json:"instrument_id"`
	VisualInspection models.VisualInspection `json:"visual_inspection"`
}

// CreateSession starts a verification session and returns its first step.
func (h *Handler) CreateSession(c *gin.Context) {
	var p createSessionPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid session payload: " + err.Error()})
		return
	}

	profile, ok := h.catalog.Get(p.ProfileKey)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Unknown profile: " + p.ProfileKey})
		return
	}

	device, err := services.NewDeviceService(h.db).GetDevice(p.DeviceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Device not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}

	technician := p.TechnicianName
	if technician == "" {
		technician = c.GetString("technician")
	}

	instrumentSvc := services.NewInstrumentService(h.db)
	var snapshot models.InstrumentSnapshot
	if p.InstrumentID != 0 {
		instrument, err := instrumentSvc.GetInstrument(p.InstrumentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Instrument not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
			return
		}
		snapshot = instrument.Snapshot()
	} else if instrument, err := instrumentSvc.GetDefaultInstrument(); err == nil && instrument != nil {
		snapshot = instrument.Snapshot()
	}

	runner := services.NewTestRunner(h.db, profile, *device, services.SessionInfo{
		ProfileName:      profile.Name,
		TechnicianName:   technician,
		Instrument:       snapshot,
		VisualInspection: p.VisualInspection,
	})

	id := uuid.New().String()
	sessionsMu.Lock()
	sessions[id] = runner
	sessionsMu.Unlock()

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": runnerSnapshot(id, runner)})
}

func sessionByID(c *gin.Context) (string, *services.TestRunner, bool) {
	id := c.Param("id")
	sessionsMu.Lock()
	runner, ok := sessions[id]
	sessionsMu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Session not found"})
		return "", nil, false
	}
	return id, runner, true
}

// GetSession returns the current state of a session.
func (h *Handler) GetSession(c *gin.Context) {
	id, runner, ok := sessionByID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": runnerSnapshot(id, runner)})
}

// SubmitStep records one measured value and advances the session.
func (h *Handler) SubmitStep(c *gin.Context) {
	id, runner, ok := sessionByID(c)
	if !ok {
		return
	}

	var p struct {
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid step payload: " + err.Error()})
		return
	}

	err := runner.Submit(p.Value)
	if errors.Is(err, services.ErrInvalidValue) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"status": "error", "error": "Invalid measured value"})
		return
	}
	if errors.Is(err, services.ErrNotAwaitingInput) {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "error": "Session is not awaiting input"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": runnerSnapshot(id, runner)})
}

// FinalizeSession persists the session's verification record.
func (h *Handler) FinalizeSession(c *gin.Context) {
	id, runner, ok := sessionByID(c)
	if !ok {
		return
	}

	verification, err := runner.Finalize()
	if errors.Is(err, services.ErrNotInSummary) {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "error": "Session is not ready to finalize"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}

	sessionsMu.Lock()
	delete(sessions, id)
	sessionsMu.Unlock()

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": verification})
}
