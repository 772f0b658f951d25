package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/report-portal/internal/apperror"
	"github.com/sakif/report-portal/internal/auth"
	"github.com/sakif/report-portal/internal/model"
	"github.com/sakif/report-portal/internal/service"
	"github.com/sakif/report-portal/internal/upload"
)

// multipartOverhead leaves room for boundaries and the text fields next to
// the file when capping the whole request body.
const multipartOverhead = 1 << 20

// UploadHandler relays a multipart image to the object store.
type UploadHandler struct {
	svc    *service.UploadService
	opts   Options
	logger *slog.Logger
}

func NewUploadHandler(svc *service.UploadService, opts Options, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		svc:    svc,
		opts:   opts,
		logger: logger,
	}
}

type uploadResponse struct {
	Report *model.Report `json:"report"`
}

// HandleUpload accepts one file in the "image" field, plus optional
// title, date and description fields.
//
// HTTP: POST /api/upload  (auth optional)
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes+multipartOverhead)

	if err := r.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, apperror.PayloadTooLarge(h.opts.MaxUploadBytes), h.opts.ExposeErrors)
			return
		}
		h.logger.Debug("invalid multipart body", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("image", "No file uploaded"), h.opts.ExposeErrors)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, apperror.ValidationFailed("image", "No file uploaded"), h.opts.ExposeErrors)
		return
	}
	defer file.Close()

	// Anonymous uploads are allowed; a valid token makes the caller the owner.
	ownerID, _ := auth.UserIDFromContext(r.Context())

	report, err := h.svc.UploadImage(r.Context(), ownerID, upload.Image{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, service.UploadMeta{
		Title:       r.FormValue("title"),
		Date:        r.FormValue("date"),
		Description: r.FormValue("description"),
	})
	if err != nil {
		if isClientError(err) {
			h.logger.Debug("upload rejected", slog.String("error", err.Error()))
		} else {
			h.logger.Error("upload failed", slog.String("error", err.Error()))
		}
		writeError(w, err, h.opts.ExposeErrors)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{Report: report})
}
