package handler

import (
	"context"
	"net/http"

	"github.com/iho/gofinance/internal/adapter/http/dto"
	"github.com/iho/gofinance/internal/usecase"
)

// ReportService defines the behavior needed by ReportHandler.
type ReportService interface {
	Summary(ctx context.Context, ownerID string) (*usecase.Summary, error)
}

// ReportHandler serves the dashboard summary.
type ReportHandler struct {
	reportUC ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportUC ReportService) *ReportHandler {
	return &ReportHandler{reportUC: reportUC}
}

// Summary reports balances, debt, net worth and the month's cash flow.
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reportUC.Summary(r.Context(), owner(r))
	if err != nil {
		writeDomainError(w, r, "failed to build summary", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SummaryFromUseCase(summary))
}
