package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lmsops/lp-reset-api/internal/dto"
	"github.com/lmsops/lp-reset-api/internal/models"
	appErrors "github.com/lmsops/lp-reset-api/pkg/errors"
	"github.com/lmsops/lp-reset-api/pkg/response"
)

type historyService interface {
	List(ctx context.Context, query dto.HistoryQuery) ([]models.ExecutionSummary, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.ExecutionResult, error)
}

type historyExporter interface {
	HistoryCSV(ctx context.Context, filter models.HistoryFilter) ([]byte, error)
	HistoryPDF(ctx context.Context, filter models.HistoryFilter) ([]byte, error)
}

// HistoryHandler exposes the execution log endpoints.
type HistoryHandler struct {
	service  historyService
	exporter historyExporter
}

// NewHistoryHandler constructs the handler.
func NewHistoryHandler(service historyService, exporter historyExporter) *HistoryHandler {
	return &HistoryHandler{service: service, exporter: exporter}
}

// List godoc
// @Summary List execution history
// @Tags History
// @Produce json
// @Param schedule_id query int false "Filter by schedule"
// @Param method query string false "manual or automatic"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /history [get]
func (h *HistoryHandler) List(c *gin.Context) {
	var query dto.HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	summaries, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, pagination)
}

// Get godoc
// @Summary Get one execution including affected users and objects
// @Tags History
// @Produce json
// @Param id path int true "Execution id"
// @Success 200 {object} response.Envelope
// @Router /history/{id} [get]
func (h *HistoryHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid execution id"))
		return
	}
	result, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Export execution history as CSV or PDF
// @Tags History
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "csv or pdf"
// @Param schedule_id query int false "Filter by schedule"
// @Success 200 {file} file
// @Router /history/export [get]
func (h *HistoryHandler) Export(c *gin.Context) {
	var query dto.HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	filter := models.HistoryFilter{ScheduleID: query.ScheduleID}
	switch query.Method {
	case "manual":
		filter.Method = models.MethodManual
	case "automatic":
		filter.Method = models.MethodAutomatic
	}

	stamp := time.Now().Format("20060102-150405")
	switch c.Query("format") {
	case "csv", "":
		payload, err := h.exporter.HistoryCSV(c.Request.Context(), filter)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=execution-history-%s.csv", stamp))
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.exporter.HistoryPDF(c.Request.Context(), filter)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=execution-history-%s.pdf", stamp))
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown export format"))
	}
}
