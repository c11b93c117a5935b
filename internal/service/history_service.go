package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/lmsops/lp-reset-api/internal/dto"
	"github.com/lmsops/lp-reset-api/internal/models"
	appErrors "github.com/lmsops/lp-reset-api/pkg/errors"
)

type historyDetailStore interface {
	List(ctx context.Context, filter models.HistoryFilter) ([]models.ExecutionSummary, int, error)
	FindByID(ctx context.Context, id int64) (*models.ExecutionResult, error)
}

// HistoryService exposes the execution log read side.
type HistoryService struct {
	repo   historyDetailStore
	logger *zap.Logger
}

// NewHistoryService constructs the service.
func NewHistoryService(repo historyDetailStore, logger *zap.Logger) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{repo: repo, logger: logger}
}

// List returns execution summaries with pagination metadata.
func (s *HistoryService) List(ctx context.Context, query dto.HistoryQuery) ([]models.ExecutionSummary, *models.Pagination, error) {
	filter := models.HistoryFilter{
		ScheduleID: query.ScheduleID,
		Page:       query.Page,
		PageSize:   query.PageSize,
	}
	switch query.Method {
	case "manual":
		filter.Method = models.MethodManual
	case "automatic":
		filter.Method = models.MethodAutomatic
	case "":
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown execution method")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	summaries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list executions")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return summaries, pagination, nil
}

// Get loads one execution with its affected sets.
func (s *HistoryService) Get(ctx context.Context, id int64) (*models.ExecutionResult, error) {
	result, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "execution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load execution")
	}
	return result, nil
}
