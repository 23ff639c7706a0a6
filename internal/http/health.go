package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/symptomchecker/internal/database"
)

// Pinger reports whether the database is reachable. *database.Manager
// implements it.
type Pinger interface {
	Ping() error
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	db      Pinger
	version string
}

func NewHealthController(db Pinger, version string) *HealthController {
	return &HealthController{
		db:      db,
		version: version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	state, healthy := h.databaseState()

	health := HealthResponse{
		Status:  "healthy",
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  map[string]string{"database": state},
	}

	statusCode := http.StatusOK
	if !healthy {
		health.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}

// databaseState reports the store as "ok", "closed" (shut down, will not
// reopen), "not configured" or "error: <cause>".
func (h *HealthController) databaseState() (string, bool) {
	if h.db == nil {
		return "not configured", true
	}
	err := h.db.Ping()
	switch {
	case err == nil:
		return "ok", true
	case errors.Is(err, database.ErrClosed):
		return "closed", false
	default:
		return "error: " + err.Error(), false
	}
}
