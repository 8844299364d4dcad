package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"fieldsched/internal/status/service"
	httputil "fieldsched/pkg/http"
	"fieldsched/pkg/logger"
	"fieldsched/pkg/model"
)

type StatusHandler struct {
	service service.StatusService
	log     *logger.Logger
}

func NewStatusHandler(service service.StatusService, log *logger.Logger) *StatusHandler {
	return &StatusHandler{
		service: service,
		log:     log,
	}
}

// UpdateProjectScheduleStatus sets the project status. With "cascade" it also
// moves the listed assignments, or all of the project's when
// "assignment_ids" is omitted; an empty list cascades to none.
func (h *StatusHandler) UpdateProjectScheduleStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.ProjectStatusUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "UpdateProjectScheduleStatus", err)
		return
	}

	result, err := h.service.UpdateProjectScheduleStatus(r.Context(), ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "UpdateProjectScheduleStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateProjectScheduleStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *StatusHandler) Cycle(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	result, err := h.service.Cycle(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Cycle", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Cycle", "operation", "WriteSuccess", "error", err)
	}
}

func (h *StatusHandler) BulkUpdate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var update model.BulkStatusUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "BulkUpdate", err)
		return
	}

	result, err := h.service.BulkUpdate(r.Context(), &update)
	if err != nil {
		h.writeError(w, "BulkUpdate", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "BulkUpdate", "operation", "WriteSuccess", "error", err)
	}
}

func (h *StatusHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *StatusHandler) RegisterRoutes(router *httprouter.Router) {
	router.PATCH("/api/v1/projects/id/:id/schedule-status", h.UpdateProjectScheduleStatus)
	router.POST("/api/v1/assignments/id/:id/cycle", h.Cycle)
	router.POST("/api/v1/assignments/bulk-status", h.BulkUpdate)
}
