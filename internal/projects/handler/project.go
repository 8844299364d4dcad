package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"fieldsched/internal/projects/service"
	httputil "fieldsched/pkg/http"
	"fieldsched/pkg/logger"
	"fieldsched/pkg/model"
)

type ProjectHandler struct {
	service service.ProjectService
	log     *logger.Logger
}

func NewProjectHandler(service service.ProjectService, log *logger.Logger) *ProjectHandler {
	return &ProjectHandler{
		service: service,
		log:     log,
	}
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.ProjectCreate
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	project, err := h.service.Create(r.Context(), &input)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, project); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ProjectHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	project, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, project); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ProjectHandler) SetDates(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var dates model.ProjectDates
	if err := httputil.DecodeJSON(r, &dates); err != nil {
		h.writeError(w, "SetDates", err)
		return
	}

	project, err := h.service.SetDates(r.Context(), ps.ByName("id"), &dates)
	if err != nil {
		h.writeError(w, "SetDates", err)
		return
	}

	if err := httputil.WriteSuccess(w, project); err != nil {
		h.log.Error("failed to write success response", "handler", "SetDates", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ProjectHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ProjectHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/projects", h.Create)
	router.GET("/api/v1/projects/id/:id", h.GetByID)
	router.PATCH("/api/v1/projects/id/:id/dates", h.SetDates)
	router.DELETE("/api/v1/projects/id/:id", h.Delete)
}
