package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/report-portal/internal/model"
	"github.com/sakif/report-portal/internal/service"
)

// ReportHandler serves the owner-scoped report routes. Every route sits
// behind auth.RequireAuth; the owner is always the authenticated caller.
type ReportHandler struct {
	svc    *service.ReportService
	opts   Options
	logger *slog.Logger
}

func NewReportHandler(svc *service.ReportService, opts Options, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		svc:    svc,
		opts:   opts,
		logger: logger,
	}
}

// HandleCreate stores the JSON body as a new report.
//
// HTTP: POST /api/reports
// The body may carry any keys; see service.ReportService.Create for the rules.
func (h *ReportHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.opts)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxReportBytes)

	var fields model.Fields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		h.logger.Debug("invalid report body", slog.String("error", err.Error()))
		writeError(w, decodeError(err), h.opts.ExposeErrors)
		return
	}

	report, err := h.svc.Create(r.Context(), userID, fields)
	if err != nil {
		h.fail(w, "create report failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, report)
}

// HandleList returns the caller's reports, newest first.
//
// HTTP: GET /api/reports
func (h *ReportHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.opts)
	if !ok {
		return
	}

	reports, err := h.svc.List(r.Context(), userID)
	if err != nil {
		h.fail(w, "list reports failed", err)
		return
	}

	writeJSON(w, http.StatusOK, reports)
}

// HandleGet returns one of the caller's reports.
//
// HTTP: GET /api/reports/{id}
func (h *ReportHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.opts)
	if !ok {
		return
	}

	report, err := h.svc.GetByID(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get report failed", err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// HandleDelete removes one of the caller's reports.
//
// HTTP: DELETE /api/reports/{id}
func (h *ReportHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.opts)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete report failed", err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Report deleted successfully"})
}

func (h *ReportHandler) fail(w http.ResponseWriter, msg string, err error) {
	if isClientError(err) {
		h.logger.Debug(msg, slog.String("error", err.Error()))
	} else {
		h.logger.Error(msg, slog.String("error", err.Error()))
	}
	writeError(w, err, h.opts.ExposeErrors)
}
