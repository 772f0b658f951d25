// Package repository defines the storage contracts the services depend on.
//
// Two backends implement them: repository/sqlite (embedded, used for local
// development and tests) and repository/mongodb (document store, production).
// Services only ever see these interfaces.
package repository

import (
	"context"

	"github.com/sakif/report-portal/internal/model"
)

// UserRepository stores account credentials.
//
// Emails are stored in canonical form (see model.NormalizeEmail) and are
// unique: Create returns apperror.ErrDuplicateEmail when the email is taken,
// even if two registrations race.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// ReportRepository stores reports. Every read and delete is scoped to an
// owner: a report that exists but belongs to someone else is reported as
// apperror.ErrNotFound, exactly like one that does not exist.
type ReportRepository interface {
	// Create assigns ID, CreatedAt and UpdatedAt on the passed report.
	Create(ctx context.Context, report *model.Report) error

	// ListByOwner returns the owner's reports, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Report, error)

	GetByID(ctx context.Context, ownerID, id string) (*model.Report, error)

	// DeleteByID removes the report in a single owner-filtered statement.
	DeleteByID(ctx context.Context, ownerID, id string) error
}
