package api

import (
	"net/http"
	"sync"

	"backend_stm/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// importJob tracks one background tabular import for status polling.
type importJob struct {
	mu       sync.Mutex
	task     *services.ImportTask
	progress int
	result   *services.ImportResult
	errMsg   string
	done     bool
}

var (
	importsMu sync.Mutex
	imports   = make(map[string]*importJob)
)

func (j *importJob) snapshot() gin.H {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := gin.H{"progress": j.progress, "done": j.done}
	if j.result != nil {
		out["result"] = j.result
	}
	if j.errMsg != "" {
		out["error"] = j.errMsg
	}
	return out
}

type startImportPayload struct {
	Path       string                 `json:"path"`
	CustomerID uint                   `json:"customer_id"`
	Mapping    services.ColumnMapping `json:"mapping"`
}

// StartImport launches a background device import and returns its job id.
func (h *Handler) StartImport(c *gin.Context) {
	var p startImportPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid import payload: " + err.Error()})
		return
	}
	if p.Path == "" || p.CustomerID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "path and customer_id are required"})
		return
	}

	task := services.NewImportService(h.db).Start(p.Path, p.Mapping, p.CustomerID)
	job := &importJob{task: task}

	id := uuid.New().String()
	importsMu.Lock()
	imports[id] = job
	importsMu.Unlock()

	// Drain the task's events into the job so it can be polled.
	go func() {
		for event := range task.Events {
			job.mu.Lock()
			switch event.Type {
			case services.ImportEventProgress:
				job.progress = event.Progress
			case services.ImportEventFinished:
				job.result = event.Result
				job.progress = 100
			case services.ImportEventError:
				job.errMsg = event.Err
			}
			job.mu.Unlock()
		}
		job.mu.Lock()
		job.done = true
		job.mu.Unlock()
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "success", "data": gin.H{"import_id": id}})
}

func importByID(c *gin.Context) (*importJob, bool) {
	importsMu.Lock()
	job, ok := imports[c.Param("id")]
	importsMu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Import not found"})
		return nil, false
	}
	return job, true
}

// GetImportStatus reports the progress or final result of an import.
func (h *Handler) GetImportStatus(c *gin.Context) {
	job, ok := importByID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": job.snapshot()})
}

// CancelImport requests a cooperative stop; rows already inserted stay.
func (h *Handler) CancelImport(c *gin.Context) {
	job, ok := importByID(c)
	if !ok {
		return
	}
	job.task.Cancel()
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
