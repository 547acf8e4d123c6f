package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/productivity"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/handler/http/response"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/timezone"
)

type ProductivityHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
	ListDailyScores(w http.ResponseWriter, r *http.Request)
	RecomputeDailyScores(w http.ResponseWriter, r *http.Request)
}

type productivityHandlerImpl struct {
	productivityService productivity.ProductivityService
	translator          *timezone.Translator
}

func NewProductivityHandler(productivityService productivity.ProductivityService, translator *timezone.Translator) ProductivityHandler {
	return &productivityHandlerImpl{
		productivityService: productivityService,
		translator:          translator,
	}
}

// Get implements ProductivityHandler.
func (h *productivityHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := employeeIDParam(w, r)
	if !ok {
		return
	}

	dateRange, ok := parseQueryRange(w, r, h.translator)
	if !ok {
		return
	}

	result, err := h.productivityService.Compute(r.Context(), employeeID, dateRange)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListDailyScores implements ProductivityHandler. date defaults to today.
func (h *productivityHandlerImpl) ListDailyScores(w http.ResponseWriter, r *http.Request) {
	date := h.translator.Today(time.Now())
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := h.translator.ParseDate(raw)
		if err != nil {
			response.HandleError(w, err)
			return
		}
		date = parsed
	}

	scores, err := h.productivityService.GetDailyScores(r.Context(), date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, scores, &response.Meta{TotalItems: len(scores)})
}

// RecomputeDailyScores implements ProductivityHandler.
func (h *productivityHandlerImpl) RecomputeDailyScores(w http.ResponseWriter, r *http.Request) {
	var req productivity.RecomputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode recompute request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	date, err := h.translator.ParseDate(req.Date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.productivityService.RecomputeDailyScores(r.Context(), date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Daily scores recomputed", result)
}
