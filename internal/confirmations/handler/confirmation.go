package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"fieldsched/internal/confirmations/service"
	httputil "fieldsched/pkg/http"
	"fieldsched/pkg/logger"
	"fieldsched/pkg/model"
)

// ConfirmationHandler serves the operator routes for confirmation requests.
type ConfirmationHandler struct {
	service service.ConfirmationService
	log     *logger.Logger
}

func NewConfirmationHandler(service service.ConfirmationService, log *logger.Logger) *ConfirmationHandler {
	return &ConfirmationHandler{
		service: service,
		log:     log,
	}
}

func (h *ConfirmationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.ConfirmationCreate
	if err := httputil.DecodeJSON(r, &input); err != nil {
		writeError(h.log, w, "Create", err)
		return
	}

	result, err := h.service.Create(r.Context(), &input)
	if err != nil {
		writeError(h.log, w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, result); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ConfirmationHandler) ListByProject(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requests, err := h.service.ListByProject(r.Context(), r.URL.Query().Get("project_id"))
	if err != nil {
		writeError(h.log, w, "ListByProject", err)
		return
	}

	if err := httputil.WriteSuccess(w, requests); err != nil {
		h.log.Error("failed to write success response", "handler", "ListByProject", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ConfirmationHandler) Resend(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	request, err := h.service.Resend(r.Context(), ps.ByName("id"))
	if err != nil {
		writeError(h.log, w, "Resend", err)
		return
	}

	if err := httputil.WriteSuccess(w, request); err != nil {
		h.log.Error("failed to write success response", "handler", "Resend", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ConfirmationHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Cancel(r.Context(), ps.ByName("id")); err != nil {
		writeError(h.log, w, "Cancel", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ConfirmationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/confirmations", h.Create)
	router.GET("/api/v1/confirmations", h.ListByProject)
	router.POST("/api/v1/confirmations/id/:id/resend", h.Resend)
	router.DELETE("/api/v1/confirmations/id/:id", h.Cancel)
}

func writeError(log *logger.Logger, w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
