package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sakif/report-portal/internal/repository"
	"github.com/sakif/report-portal/internal/repository/mongodb"
	sqliteRepo "github.com/sakif/report-portal/internal/repository/sqlite"
)

// store is whichever backend DATABASE_URL selected.
type store struct {
	users   repository.UserRepository
	reports repository.ReportRepository
	close   func(ctx context.Context) error
	kind    string
}

// openStore picks the backend from the URL scheme.
//
//	mongodb://host/db, mongodb+srv://…  → MongoDB
//	sqlite:///var/lib/app.db            → SQLite file
//	file:app.db?cache=shared            → SQLite URI, passed through
//	:memory:                            → SQLite in memory
//	data/app.db                         → SQLite file
func openStore(ctx context.Context, databaseURL, databaseName string) (*store, error) {
	if isMongoURL(databaseURL) {
		s, err := mongodb.Connect(ctx, databaseURL, mongoDatabaseName(databaseURL, databaseName))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = s.Close(ctx)
			return nil, fmt.Errorf("creating indexes: %w", err)
		}
		return &store{
			users:   s.Users(),
			reports: s.Reports(),
			close:   s.Close,
			kind:    "mongodb",
		}, nil
	}

	path := sqlitePath(databaseURL)
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
	}

	db, err := sqliteRepo.New(path)
	if err != nil {
		return nil, err
	}
	return &store{
		users:   db.Users(),
		reports: db.Reports(),
		close:   func(context.Context) error { return db.Close() },
		kind:    "sqlite",
	}, nil
}

func isMongoURL(u string) bool {
	return strings.HasPrefix(u, "mongodb://") || strings.HasPrefix(u, "mongodb+srv://")
}

func sqlitePath(u string) string {
	return strings.TrimPrefix(u, "sqlite://")
}

// mongoDatabaseName returns the database named in the URL path, or fallback.
//
//	mongodb://h1,h2/reports?replicaSet=rs0 → "reports"
//	mongodb://localhost:27017              → fallback
func mongoDatabaseName(uri, fallback string) string {
	rest := uri[strings.Index(uri, "://")+3:]
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return fallback
	}
	name := rest[slash+1:]
	if q := strings.Index(name, "?"); q >= 0 {
		name = name[:q]
	}
	if name == "" {
		return fallback
	}
	return name
}
