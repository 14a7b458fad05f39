package handlers

import (
	"errors"
	"net/http"

	"healthpulse/services/scheduler"
	"healthpulse/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler exposes operator controls for the daily broadcast.
type AdminHandler struct {
	Daily    *scheduler.DailyBroadcast
	Selector scheduler.MessageSelector
}

func NewAdminHandler(daily *scheduler.DailyBroadcast, selector scheduler.MessageSelector) *AdminHandler {
	return &AdminHandler{Daily: daily, Selector: selector}
}

type runDailyRequest struct {
	// Message overrides the catalog for this run.
	Message string `json:"message"`
}

// RunDailyBroadcastHandler triggers a run now and returns its report.
func (ah *AdminHandler) RunDailyBroadcastHandler(c *gin.Context) {
	var req runDailyRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
			return
		}
	}
	selector := ah.Selector
	if req.Message != "" {
		selector = scheduler.FixedSelector(req.Message)
	}

	report, err := ah.Daily.RunDailyBroadcast(c.Request.Context(), selector)
	if err != nil {
		if errors.Is(err, scheduler.ErrRunInProgress) {
			utils.JSONError(c, http.StatusConflict, "Run in progress", err.Error())
			return
		}
		zap.L().Error("Manual daily broadcast failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (ah *AdminHandler) LastDailyReportHandler(c *gin.Context) {
	report, ok := ah.Daily.LastReport()
	if !ok {
		utils.JSONError(c, http.StatusNotFound, "No runs yet", "the daily broadcast has not run in this process")
		return
	}
	c.JSON(http.StatusOK, report)
}

func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": utils.GetHealthStatus()})
}
