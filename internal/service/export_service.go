package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/lmsops/lp-reset-api/internal/models"
	appErrors "github.com/lmsops/lp-reset-api/pkg/errors"
	"github.com/lmsops/lp-reset-api/pkg/export"
)

type historyReader interface {
	List(ctx context.Context, filter models.HistoryFilter) ([]models.ExecutionSummary, int, error)
}

// ExportService renders execution history as downloadable CSV or PDF.
type ExportService struct {
	history historyReader
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(history historyReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		history: history,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// HistoryCSV renders the filtered history as CSV bytes.
func (s *ExportService) HistoryCSV(ctx context.Context, filter models.HistoryFilter) ([]byte, error) {
	dataset, err := s.dataset(ctx, filter)
	if err != nil {
		return nil, err
	}
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, nil
}

// HistoryPDF renders the filtered history as a PDF document.
func (s *ExportService) HistoryPDF(ctx context.Context, filter models.HistoryFilter) ([]byte, error) {
	dataset, err := s.dataset(ctx, filter)
	if err != nil {
		return nil, err
	}
	payload, err := s.pdf.Render(dataset, "Execution History")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return payload, nil
}

func (s *ExportService) dataset(ctx context.Context, filter models.HistoryFilter) (export.Dataset, error) {
	// Exports ignore pagination and fetch up to the hard cap.
	filter.Page = 1
	if filter.PageSize <= 0 {
		filter.PageSize = 100
	}
	summaries, _, err := s.history.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load history")
	}

	headers := []string{"Executed At", "Schedule", "Method", "Duration (ms)", "Users", "Objects"}
	rows := make([]map[string]string, 0, len(summaries))
	for _, summary := range summaries {
		rows = append(rows, map[string]string{
			"Executed At":   summary.Date.Format("2006-01-02 15:04:05"),
			"Schedule":      summary.ScheduleName,
			"Method":        summary.Method.String(),
			"Duration (ms)": strconv.FormatInt(summary.DurationMS, 10),
			"Users":         fmt.Sprintf("%d", summary.UserCount),
			"Objects":       fmt.Sprintf("%d", summary.ObjectCount),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}, nil
}
