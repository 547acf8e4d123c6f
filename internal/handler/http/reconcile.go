package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/ledger"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/handler/http/response"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/timezone"
)

type ReconcileHandler interface {
	Reconcile(w http.ResponseWriter, r *http.Request)
	TriggerJob(w http.ResponseWriter, r *http.Request)
}

// JobTrigger queues an out-of-schedule run of a named job.
type JobTrigger interface {
	Trigger(name string) error
}

type reconcileHandlerImpl struct {
	reconcileService ledger.ReconcileService
	scheduler        JobTrigger
	translator       *timezone.Translator
}

func NewReconcileHandler(reconcileService ledger.ReconcileService, scheduler JobTrigger, translator *timezone.Translator) ReconcileHandler {
	return &reconcileHandlerImpl{
		reconcileService: reconcileService,
		scheduler:        scheduler,
		translator:       translator,
	}
}

// Reconcile implements ReconcileHandler. The run is synchronous; a run
// already in progress yields 409.
func (h *reconcileHandlerImpl) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req ledger.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode reconcile request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	window, err := h.translator.ParseRange(req.StartDate, req.EndDate)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	stats, err := h.reconcileService.Reconcile(r.Context(), window)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Reconciliation completed", stats)
}

// TriggerJob implements ReconcileHandler.
func (h *reconcileHandlerImpl) TriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.scheduler.Trigger(name); err != nil {
		response.HandleError(w, err)
		return
	}

	response.Accepted(w, "Job "+name+" queued")
}
