package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lmsops/lp-reset-api/internal/dto"
	"github.com/lmsops/lp-reset-api/internal/models"
	appErrors "github.com/lmsops/lp-reset-api/pkg/errors"
	"github.com/lmsops/lp-reset-api/pkg/response"
)

type scheduleService interface {
	List(ctx context.Context, query dto.ScheduleQuery) ([]models.Schedule, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.Schedule, error)
	Create(ctx context.Context, req dto.SchedulePayload) (*models.Schedule, error)
	Update(ctx context.Context, id int64, req dto.SchedulePayload) (*models.Schedule, error)
	Delete(ctx context.Context, id int64) error
	ObjectDisplays(ctx context.Context, refIDs []int64) ([]models.ObjectDisplay, error)
}

type runTrigger interface {
	Run(ctx context.Context, scheduleID int64, method models.ExecutionMethod) (*models.ExecutionResult, error)
	Notify(ctx context.Context, scheduleID int64) error
}

// ScheduleHandler exposes REST endpoints for reset schedules.
type ScheduleHandler struct {
	service scheduleService
	runner  runTrigger
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(service scheduleService, runner runTrigger) *ScheduleHandler {
	return &ScheduleHandler{service: service, runner: runner}
}

// List godoc
// @Summary List reset schedules
// @Tags Schedules
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Param sort_by query string false "Sort column"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	var query dto.ScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	schedules, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, pagination)
}

// Get godoc
// @Summary Get one schedule including its audience and object selections
// @Tags Schedules
// @Produce json
// @Param id path int true "Schedule id"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid schedule id"))
		return
	}
	sched, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sched, nil)
}

// Create godoc
// @Summary Create a reset schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.SchedulePayload true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req dto.SchedulePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid schedule payload"))
		return
	}
	sched, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, sched, nil)
}

// Update godoc
// @Summary Update a reset schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path int true "Schedule id"
// @Param payload body dto.SchedulePayload true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid schedule id"))
		return
	}
	var req dto.SchedulePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid schedule payload"))
		return
	}
	sched, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sched, nil)
}

// Delete godoc
// @Summary Delete a reset schedule
// @Tags Schedules
// @Param id path int true "Schedule id"
// @Success 204
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid schedule id"))
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Run godoc
// @Summary Trigger a manual reset run
// @Tags Schedules
// @Produce json
// @Param id path int true "Schedule id"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules/{id}/run [post]
func (h *ScheduleHandler) Run(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid schedule id"))
		return
	}
	result, err := h.runner.Run(c.Request.Context(), id, models.MethodManual)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Notify godoc
// @Summary Trigger the advance notification pass for a schedule
// @Tags Schedules
// @Param id path int true "Schedule id"
// @Success 204
// @Router /schedules/{id}/notify [post]
func (h *ScheduleHandler) Notify(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid schedule id"))
		return
	}
	if err := h.runner.Notify(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Objects godoc
// @Summary Resolve display data for a schedule's selected objects
// @Tags Schedules
// @Produce json
// @Param id path int true "Schedule id"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/objects [get]
func (h *ScheduleHandler) Objects(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid schedule id"))
		return
	}
	sched, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	displays, err := h.service.ObjectDisplays(c.Request.Context(), sched.SelectedObjects)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, displays, nil)
}
