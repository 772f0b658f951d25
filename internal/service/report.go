package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/report-portal/internal/apperror"
	"github.com/sakif/report-portal/internal/model"
	"github.com/sakif/report-portal/internal/repository"
)

// ReportService owns the report rules: ownership, normalisation, defaults.
// Every method takes the caller's user id explicitly; nothing here reads
// HTTP state.
type ReportService struct {
	repo   repository.ReportRepository
	logger *slog.Logger
}

func NewReportService(repo repository.ReportRepository, logger *slog.Logger) *ReportService {
	return &ReportService{
		repo:   repo,
		logger: logger,
	}
}

// Create stores a report submitted as an arbitrary JSON object.
//
//  1. server-owned keys (id, userId, timestamps) are discarded
//  2. organizer and resourcePerson are coerced to string lists
//  3. known fields are type-checked, everything else is kept verbatim
//  4. title is required, reportType defaults to "teaching"
//  5. the owner is always ownerID, whatever the body said
func (s *ReportService) Create(ctx context.Context, ownerID string, fields model.Fields) (*model.Report, error) {
	normalized, err := model.NormalizeReportFields(fields)
	if err != nil {
		var listErr *model.ListFieldError
		if errors.As(err, &listErr) {
			return nil, apperror.ValidationFailed(listErr.Field, listErr.Error())
		}
		return nil, fmt.Errorf("service/report: normalising fields: %w", err)
	}

	report, err := model.DecodeReport(normalized)
	if err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, apperror.ValidationFailed(typeErr.Field,
				fmt.Sprintf("%s has an invalid type", typeErr.Field))
		}
		return nil, fmt.Errorf("service/report: decoding fields: %w", err)
	}

	report.Title = strings.TrimSpace(report.Title)
	if report.Title == "" {
		return nil, apperror.ValidationFailed("title", "Title is required")
	}
	if strings.TrimSpace(report.ReportType) == "" {
		report.ReportType = model.DefaultReportType
	}
	report.UserID = ownerID

	if err := s.repo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("service/report: creating report: %w", err)
	}

	reportsCreated.WithLabelValues("json").Inc()
	s.logger.Info("report created",
		slog.String("reportID", report.ID),
		slog.String("userID", ownerID),
		slog.String("reportType", report.ReportType),
	)

	return report, nil
}

// List returns the owner's reports, newest first.
func (s *ReportService) List(ctx context.Context, ownerID string) ([]model.Report, error) {
	reports, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("service/report: listing reports: %w", err)
	}
	return reports, nil
}

// GetByID returns the report if ownerID owns it; otherwise ErrNotFound.
func (s *ReportService) GetByID(ctx context.Context, ownerID, id string) (*model.Report, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.NotFound("report", id)
	}

	report, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("service/report: getting report %s: %w", id, err)
	}
	return report, nil
}

// Delete removes the report if ownerID owns it; otherwise ErrNotFound.
func (s *ReportService) Delete(ctx context.Context, ownerID, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperror.NotFound("report", id)
	}

	if err := s.repo.DeleteByID(ctx, ownerID, id); err != nil {
		return fmt.Errorf("service/report: deleting report %s: %w", id, err)
	}

	s.logger.Info("report deleted",
		slog.String("reportID", id),
		slog.String("userID", ownerID),
	)
	return nil
}
