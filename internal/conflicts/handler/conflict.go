package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"fieldsched/internal/conflicts/service"
	httputil "fieldsched/pkg/http"
	"fieldsched/pkg/logger"
	"fieldsched/pkg/model"
)

type ConflictHandler struct {
	service service.ConflictService
	log     *logger.Logger
}

func NewConflictHandler(service service.ConflictService, log *logger.Logger) *ConflictHandler {
	return &ConflictHandler{
		service: service,
		log:     log,
	}
}

func (h *ConflictHandler) Check(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	entries, err := h.service.Check(r.Context(),
		query.Get("engineer_id"),
		query.Get("start"),
		query.Get("end"),
		query.Get("exclude"),
	)
	if err != nil {
		h.writeError(w, "Check", err)
		return
	}

	if err := httputil.WriteSuccess(w, entries); err != nil {
		h.log.Error("failed to write success response", "handler", "Check", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ConflictHandler) ListUnresolved(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	views, err := h.service.ListUnresolved(r.Context(), r.URL.Query().Get("engineer_id"))
	if err != nil {
		h.writeError(w, "ListUnresolved", err)
		return
	}

	if err := httputil.WriteSuccess(w, views); err != nil {
		h.log.Error("failed to write success response", "handler", "ListUnresolved", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ConflictHandler) Override(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var override model.ConflictOverride
	if err := httputil.DecodeJSON(r, &override); err != nil {
		h.writeError(w, "Override", err)
		return
	}

	conflict, err := h.service.Override(r.Context(), ps.ByName("id"), &override)
	if err != nil {
		h.writeError(w, "Override", err)
		return
	}

	if err := httputil.WriteSuccess(w, conflict); err != nil {
		h.log.Error("failed to write success response", "handler", "Override", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ConflictHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ConflictHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/conflicts/check", h.Check)
	router.GET("/api/v1/conflicts", h.ListUnresolved)
	router.POST("/api/v1/conflicts/id/:id/override", h.Override)
}
