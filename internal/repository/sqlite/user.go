package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/report-portal/internal/apperror"
	"github.com/sakif/report-portal/internal/model"
	"github.com/sakif/report-portal/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB stores users in the users table.
type UserDB struct {
	conn *sql.DB
}

// Create inserts a new user. The email is canonicalised before it is stored.
//
// There is no "SELECT then INSERT" existence check: two concurrent registrations
// for the same email would both pass it. The UNIQUE constraint on email is the
// single source of truth, and its violation is mapped to apperror.DuplicateEmail.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.Email = model.NormalizeEmail(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.CreatedAt.UnixNano(),
		user.UpdatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.DuplicateEmail(user.Email)
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	return nil
}

// GetByEmail looks a user up by canonical email.
// Returns apperror.ErrNotFound if no user has that email.
func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	user, err := u.scanOne(ctx, `WHERE email = ?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", email)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := u.scanOne(ctx, `WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

func (u *UserDB) scanOne(ctx context.Context, where string, arg any) (*model.User, error) {
	var (
		user               model.User
		created, updatedAt int64
	)
	err := u.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at, updated_at FROM users `+where,
		arg,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &created, &updatedAt)
	if err != nil {
		return nil, err
	}
	user.CreatedAt = time.Unix(0, created).UTC()
	user.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &user, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE/PRIMARY KEY failure.
// The driver may return either the primary or the extended result code.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlitedrv.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
		code == sqlite3.SQLITE_CONSTRAINT
}
