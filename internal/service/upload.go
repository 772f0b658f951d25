package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/report-portal/internal/model"
	"github.com/sakif/report-portal/internal/repository"
	"github.com/sakif/report-portal/internal/upload"
)

// UploadMeta is the optional form data sent alongside an image.
type UploadMeta struct {
	Title       string
	Date        string
	Description string
}

// UploadService relays an image to the object store and records a report
// pointing at it.
type UploadService struct {
	uploader upload.Uploader
	reports  repository.ReportRepository
	cfg      upload.Config
	logger   *slog.Logger
}

func NewUploadService(
	uploader upload.Uploader,
	reports repository.ReportRepository,
	cfg upload.Config,
	logger *slog.Logger,
) *UploadService {
	return &UploadService{
		uploader: uploader,
		reports:  reports,
		cfg:      cfg,
		logger:   logger,
	}
}

// UploadImage validates img, stores it, then persists a report whose
// imageUrl is the returned locator. ownerID may be empty for anonymous
// uploads; such reports never show up in anyone's list.
//
// If the store write fails after the upload succeeded, the object is left
// in the bucket.
func (s *UploadService) UploadImage(ctx context.Context, ownerID string, img upload.Image, meta UploadMeta) (*model.Report, error) {
	if err := upload.Validate(&img, s.cfg); err != nil {
		return nil, err
	}

	locator, err := s.uploader.Upload(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("service/upload: storing image: %w", err)
	}
	imagesUploaded.Inc()

	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = img.Filename
	}

	report := &model.Report{
		UserID:      ownerID,
		Title:       title,
		ReportType:  model.DefaultReportType,
		Date:        strings.TrimSpace(meta.Date),
		Description: strings.TrimSpace(meta.Description),
		ImageURL:    locator,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("service/upload: saving report: %w", err)
	}

	reportsCreated.WithLabelValues("upload").Inc()
	s.logger.Info("image uploaded",
		slog.String("reportID", report.ID),
		slog.String("userID", ownerID),
		slog.String("contentType", img.ContentType),
		slog.Int64("bytes", img.Size),
	)

	return report, nil
}
