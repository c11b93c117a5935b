package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmsops/lp-reset-api/internal/dto"
	"github.com/lmsops/lp-reset-api/internal/models"
	appErrors "github.com/lmsops/lp-reset-api/pkg/errors"
)

type scheduleServiceMock struct {
	sched     *models.Schedule
	createErr error
	deleteErr error
}

func (m *scheduleServiceMock) List(_ context.Context, _ dto.ScheduleQuery) ([]models.Schedule, *models.Pagination, error) {
	if m.sched == nil {
		return []models.Schedule{}, &models.Pagination{Page: 1, PageSize: 20}, nil
	}
	return []models.Schedule{*m.sched}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (m *scheduleServiceMock) Get(_ context.Context, id int64) (*models.Schedule, error) {
	if m.sched == nil || m.sched.ID != id {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
	}
	return m.sched, nil
}

func (m *scheduleServiceMock) Create(_ context.Context, req dto.SchedulePayload) (*models.Schedule, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.Schedule{ID: 1, Name: req.Name}, nil
}

func (m *scheduleServiceMock) Update(_ context.Context, id int64, req dto.SchedulePayload) (*models.Schedule, error) {
	return &models.Schedule{ID: id, Name: req.Name}, nil
}

func (m *scheduleServiceMock) Delete(_ context.Context, _ int64) error { return m.deleteErr }

func (m *scheduleServiceMock) ObjectDisplays(_ context.Context, refIDs []int64) ([]models.ObjectDisplay, error) {
	out := make([]models.ObjectDisplay, 0, len(refIDs))
	for _, refID := range refIDs {
		out = append(out, models.ObjectDisplay{RefID: refID, Type: models.TypeCourse, Title: "Course"})
	}
	return out, nil
}

type runTriggerMock struct {
	runErr error
	result *models.ExecutionResult
	ran    []int64
}

func (m *runTriggerMock) Run(_ context.Context, scheduleID int64, method models.ExecutionMethod) (*models.ExecutionResult, error) {
	if m.runErr != nil {
		return nil, m.runErr
	}
	m.ran = append(m.ran, scheduleID)
	if m.result != nil {
		return m.result, nil
	}
	return &models.ExecutionResult{ScheduleID: scheduleID, Method: method}, nil
}

func (m *runTriggerMock) Notify(_ context.Context, _ int64) error { return nil }

func newTestContext(t *testing.T, method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestScheduleHandlerCreate(t *testing.T) {
	handler := NewScheduleHandler(&scheduleServiceMock{}, &runTriggerMock{})
	body, _ := json.Marshal(dto.SchedulePayload{
		Name:          "term reset",
		AudienceMode:  1,
		FrequencyKind: "daily",
	})
	c, w := newTestContext(t, http.MethodPost, "/schedules", body)

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestScheduleHandlerCreateInvalidBody(t *testing.T) {
	handler := NewScheduleHandler(&scheduleServiceMock{}, &runTriggerMock{})
	c, w := newTestContext(t, http.MethodPost, "/schedules", []byte(`not json`))

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerGetNotFound(t *testing.T) {
	handler := NewScheduleHandler(&scheduleServiceMock{}, &runTriggerMock{})
	c, w := newTestContext(t, http.MethodGet, "/schedules/9", nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestScheduleHandlerGetInvalidID(t *testing.T) {
	handler := NewScheduleHandler(&scheduleServiceMock{}, &runTriggerMock{})
	c, w := newTestContext(t, http.MethodGet, "/schedules/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.Get(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerRun(t *testing.T) {
	runner := &runTriggerMock{}
	handler := NewScheduleHandler(&scheduleServiceMock{}, runner)
	c, w := newTestContext(t, http.MethodPost, "/schedules/3/run", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	handler.Run(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{3}, runner.ran)
}

func TestScheduleHandlerRunLockedConflict(t *testing.T) {
	runner := &runTriggerMock{runErr: appErrors.ErrRunLocked}
	handler := NewScheduleHandler(&scheduleServiceMock{}, runner)
	c, w := newTestContext(t, http.MethodPost, "/schedules/3/run", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	handler.Run(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestScheduleHandlerDelete(t *testing.T) {
	handler := NewScheduleHandler(&scheduleServiceMock{}, &runTriggerMock{})
	c, w := newTestContext(t, http.MethodDelete, "/schedules/3", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestScheduleHandlerObjects(t *testing.T) {
	svc := &scheduleServiceMock{sched: &models.Schedule{ID: 3, SelectedObjects: []int64{101, 102}}}
	handler := NewScheduleHandler(svc, &runTriggerMock{})
	c, w := newTestContext(t, http.MethodGet, "/schedules/3/objects", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	handler.Objects(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Course")
}
