package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"fieldsched/internal/confirmations/service"
	httputil "fieldsched/pkg/http"
	"fieldsched/pkg/logger"
	"fieldsched/pkg/model"
)

// PublicHandler serves the unauthenticated customer routes. The token in the
// path is the only credential; rate limiting happens in the service, keyed
// by client address.
type PublicHandler struct {
	service service.ConfirmationService
	log     *logger.Logger
}

func NewPublicHandler(service service.ConfirmationService, log *logger.Logger) *PublicHandler {
	return &PublicHandler{
		service: service,
		log:     log,
	}
}

func (h *PublicHandler) View(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	view, err := h.service.PublicView(r.Context(), httputil.ClientAddress(r), ps.ByName("token"))
	if err != nil {
		writeError(h.log, w, "View", err)
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "View", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PublicHandler) Respond(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var response model.ConfirmationResponse
	if err := httputil.DecodeJSON(r, &response); err != nil {
		writeError(h.log, w, "Respond", err)
		return
	}

	result, err := h.service.Respond(r.Context(), httputil.ClientAddress(r), ps.ByName("token"), &response)
	if err != nil {
		writeError(h.log, w, "Respond", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Respond", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PublicHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/public/confirm/:token", h.View)
	router.POST("/public/confirm/:token", h.Respond)
}
