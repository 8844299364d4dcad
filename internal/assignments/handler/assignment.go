package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"fieldsched/internal/assignments/service"
	httputil "fieldsched/pkg/http"
	"fieldsched/pkg/logger"
	"fieldsched/pkg/model"
)

type AssignmentHandler struct {
	service service.AssignmentService
	log     *logger.Logger
}

func NewAssignmentHandler(service service.AssignmentService, log *logger.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
		log:     log,
	}
}

func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.AssignmentCreate
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	detail, err := h.service.Create(r.Context(), &input)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, detail); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *AssignmentHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	detail, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, detail); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AssignmentHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AssignmentHandler) History(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	rows, err := h.service.History(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "History", err)
		return
	}

	if err := httputil.WriteSuccess(w, rows); err != nil {
		h.log.Error("failed to write success response", "handler", "History", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AssignmentHandler) AddDay(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var day model.DayInput
	if err := httputil.DecodeJSON(r, &day); err != nil {
		h.writeError(w, "AddDay", err)
		return
	}

	detail, err := h.service.AddDay(r.Context(), ps.ByName("id"), &day)
	if err != nil {
		h.writeError(w, "AddDay", err)
		return
	}

	if err := httputil.WriteCreated(w, detail); err != nil {
		h.log.Error("failed to write created response", "handler", "AddDay", "operation", "WriteCreated", "error", err)
	}
}

func (h *AssignmentHandler) UpdateDay(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var times model.DayTimes
	if err := httputil.DecodeJSON(r, &times); err != nil {
		h.writeError(w, "UpdateDay", err)
		return
	}

	detail, err := h.service.UpdateDay(r.Context(), ps.ByName("id"), ps.ByName("date"), &times)
	if err != nil {
		h.writeError(w, "UpdateDay", err)
		return
	}

	if err := httputil.WriteSuccess(w, detail); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateDay", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AssignmentHandler) RemoveDay(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.RemoveDay(r.Context(), ps.ByName("id"), ps.ByName("date")); err != nil {
		h.writeError(w, "RemoveDay", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AssignmentHandler) EngineerTimeline(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	query := r.URL.Query()
	result, err := h.service.EngineerTimeline(r.Context(), ps.ByName("engineer_id"), query.Get("from"), query.Get("to"))
	if err != nil {
		h.writeError(w, "EngineerTimeline", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "EngineerTimeline", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AssignmentHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AssignmentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/assignments", h.Create)
	router.GET("/api/v1/assignments/id/:id", h.GetByID)
	router.DELETE("/api/v1/assignments/id/:id", h.Delete)
	router.GET("/api/v1/assignments/id/:id/history", h.History)
	router.POST("/api/v1/assignments/id/:id/days", h.AddDay)
	router.PATCH("/api/v1/assignments/id/:id/days/:date", h.UpdateDay)
	router.DELETE("/api/v1/assignments/id/:id/days/:date", h.RemoveDay)
	router.GET("/api/v1/engineers/:engineer_id/timeline", h.EngineerTimeline)
}
