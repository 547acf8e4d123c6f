package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/idle"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/handler/http/response"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/timezone"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/validator"
)

type IdleHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	ListPeriods(w http.ResponseWriter, r *http.Request)
}

type idleHandlerImpl struct {
	idleService idle.IdleService
	translator  *timezone.Translator
}

func NewIdleHandler(idleService idle.IdleService, translator *timezone.Translator) IdleHandler {
	return &idleHandlerImpl{
		idleService: idleService,
		translator:  translator,
	}
}

// List implements IdleHandler. Runs a full sweep and returns the idle employees.
func (h *idleHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.idleService.CheckAllClockedIn(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, statuses, &response.Meta{TotalItems: len(statuses)})
}

// Get implements IdleHandler.
func (h *idleHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := employeeIDParam(w, r)
	if !ok {
		return
	}

	status, err := h.idleService.CheckIdle(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if status == nil {
		response.HandleError(w, idle.ErrNotClockedIn)
		return
	}

	response.Success(w, status)
}

// ListPeriods implements IdleHandler.
func (h *idleHandlerImpl) ListPeriods(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := employeeIDParam(w, r)
	if !ok {
		return
	}

	dateRange, ok := parseQueryRange(w, r, h.translator)
	if !ok {
		return
	}

	periods, err := h.idleService.ListPeriods(r.Context(), employeeID, dateRange)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, periods, &response.Meta{TotalItems: len(periods)})
}

// employeeIDParam reads and validates the {employeeID} path segment.
func employeeIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	employeeID := chi.URLParam(r, "employeeID")
	if !validator.IsValidUUID(employeeID) {
		response.HandleError(w, validator.ValidationErrors{{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		}})
		return "", false
	}
	return employeeID, true
}

// parseQueryRange reads start_date and end_date, defaulting to today.
func parseQueryRange(w http.ResponseWriter, r *http.Request, translator *timezone.Translator) (timezone.DateRange, bool) {
	start := r.URL.Query().Get("start_date")
	end := r.URL.Query().Get("end_date")
	if start == "" {
		if end != "" {
			response.HandleError(w, validator.ValidationErrors{{
				Field:   "start_date",
				Message: "start_date is required when end_date is set",
			}})
			return timezone.DateRange{}, false
		}
		return timezone.SingleDay(translator.Today(time.Now())), true
	}

	dateRange, err := translator.ParseRange(start, end)
	if err != nil {
		response.HandleError(w, err)
		return timezone.DateRange{}, false
	}
	return dateRange, true
}
