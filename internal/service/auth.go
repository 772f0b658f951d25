// Package service contains the business logic layer of the application.
//
//	Handler (HTTP)  → parses requests, writes responses
//	Service         → validates, enforces rules, orchestrates
//	Repository      → reads/writes the store
//
// Services take repository interfaces, never a concrete store, so tests run
// against in-memory fakes and the server can pick SQLite or MongoDB at start-up.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/report-portal/internal/apperror"
	"github.com/sakif/report-portal/internal/auth"
	"github.com/sakif/report-portal/internal/model"
	"github.com/sakif/report-portal/internal/repository"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 6

// AuthService registers users and logs them in.
//
//	AuthHandler → AuthService → UserRepository
//	                          ↘ TokenService / PasswordService
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		validate:  validator.New(),
		logger:    logger,
	}
}

// AuthResult bundles the user record and a freshly issued token.
type AuthResult struct {
	User  *model.User
	Token string
}

type registerInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

type loginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Register creates an account and returns a token for it.
//
// The email is trimmed and lower-cased before anything else, so
// "Alice@Example.com " and "alice@example.com" are the same account.
// A taken email fails with apperror.ErrDuplicateEmail.
func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	in := registerInput{Email: model.NormalizeEmail(email), Password: password}
	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("Password must be at most %d bytes", auth.MaxPasswordBytes))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{Email: in.Email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))

	return s.issue(user)
}

// Login checks the credentials and returns a token.
//
// Unknown email and wrong password return the same InvalidCredentials error,
// so the response never reveals which emails have accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	in := loginInput{Email: model.NormalizeEmail(email), Password: password}
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Debug("login rejected", slog.String("userID", user.ID))
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	return s.issue(user)
}

// ValidateToken returns the user id a token was issued for.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// validateInput runs the struct tags and converts the first failure into a
// field-level ValidationFailed error.
func (s *AuthService) validateInput(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("service/auth: validating input: %w", err)
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch {
	case field == "email":
		return apperror.ValidationFailed("email", "Please include a valid email")
	case field == "password" && fe.Tag() == "min":
		return apperror.ValidationFailed("password",
			fmt.Sprintf("Please enter a password with %d or more characters", MinPasswordLength))
	default:
		return apperror.ValidationFailed(field, "Password is required")
	}
}
