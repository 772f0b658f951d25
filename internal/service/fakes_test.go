package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sakif/report-portal/internal/apperror"
	"github.com/sakif/report-portal/internal/model"
	"github.com/sakif/report-portal/internal/upload"
)

// =========================================================================
// FAKES
// =========================================================================
//
// Hand-written in-memory implementations of the repository interfaces.
// Each fake stores copies so a test can't mutate state behind its back.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]model.User
	nextID  int
	// set to simulate a store failure
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, taken := f.byEmail[user.Email]; taken {
		return apperror.DuplicateEmail(user.Email)
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.byEmail[user.Email] = *user
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[email]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	return &u, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, apperror.NotFound("user", id)
}

type fakeReportRepo struct {
	mu      sync.Mutex
	reports map[string]model.Report
	seq     int
	// set to simulate a store failure
	createErr error
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[string]model.Report)}
}

func (f *fakeReportRepo) Create(_ context.Context, r *model.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.seq++
	r.ID = fmt.Sprintf("report-%03d", f.seq)
	// Strictly increasing timestamps keep ordering deterministic.
	r.CreatedAt = time.Unix(int64(f.seq), 0).UTC()
	r.UpdatedAt = r.CreatedAt
	f.reports[r.ID] = *r
	return nil
}

func (f *fakeReportRepo) ListByOwner(_ context.Context, ownerID string) ([]model.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Report, 0)
	for _, r := range f.reports {
		if r.UserID == ownerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeReportRepo) GetByID(_ context.Context, ownerID, id string) (*model.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok || r.UserID != ownerID {
		return nil, apperror.NotFound("report", id)
	}
	return &r, nil
}

func (f *fakeReportRepo) DeleteByID(_ context.Context, ownerID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok || r.UserID != ownerID {
		return apperror.NotFound("report", id)
	}
	delete(f.reports, id)
	return nil
}

type fakeUploader struct {
	calls       int
	contentType string
	body        []byte
	err         error
}

func (f *fakeUploader) Upload(_ context.Context, img upload.Image) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	f.contentType = img.ContentType
	f.body, _ = io.ReadAll(img.Body)
	return fmt.Sprintf("https://cdn.example.com/reports/%d.%s", f.calls, img.Extension()), nil
}
