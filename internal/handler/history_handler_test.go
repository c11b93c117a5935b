package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmsops/lp-reset-api/internal/dto"
	"github.com/lmsops/lp-reset-api/internal/models"
	appErrors "github.com/lmsops/lp-reset-api/pkg/errors"
)

type historyServiceMock struct {
	summaries []models.ExecutionSummary
	result    *models.ExecutionResult
}

func (m *historyServiceMock) List(_ context.Context, _ dto.HistoryQuery) ([]models.ExecutionSummary, *models.Pagination, error) {
	return m.summaries, &models.Pagination{Page: 1, PageSize: 20, TotalCount: len(m.summaries)}, nil
}

func (m *historyServiceMock) Get(_ context.Context, id int64) (*models.ExecutionResult, error) {
	if m.result == nil || m.result.ID != id {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "execution not found")
	}
	return m.result, nil
}

type historyExporterMock struct{}

func (m *historyExporterMock) HistoryCSV(_ context.Context, _ models.HistoryFilter) ([]byte, error) {
	return []byte("Executed At,Schedule\n"), nil
}

func (m *historyExporterMock) HistoryPDF(_ context.Context, _ models.HistoryFilter) ([]byte, error) {
	return []byte("%PDF-1.3"), nil
}

func TestHistoryHandlerList(t *testing.T) {
	svc := &historyServiceMock{summaries: []models.ExecutionSummary{
		{ID: 11, ScheduleID: 3, ScheduleName: "term reset", Date: time.Now(), Method: models.MethodAutomatic},
	}}
	handler := NewHistoryHandler(svc, &historyExporterMock{})
	c, w := newTestContext(t, http.MethodGet, "/history", nil)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "term reset")
}

func TestHistoryHandlerGetNotFound(t *testing.T) {
	handler := NewHistoryHandler(&historyServiceMock{}, &historyExporterMock{})
	c, w := newTestContext(t, http.MethodGet, "/history/9", nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistoryHandlerExportCSV(t *testing.T) {
	handler := NewHistoryHandler(&historyServiceMock{}, &historyExporterMock{})
	c, w := newTestContext(t, http.MethodGet, "/history/export?format=csv", nil)

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
}

func TestHistoryHandlerExportUnknownFormat(t *testing.T) {
	handler := NewHistoryHandler(&historyServiceMock{}, &historyExporterMock{})
	c, w := newTestContext(t, http.MethodGet, "/history/export?format=xml", nil)

	handler.Export(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
