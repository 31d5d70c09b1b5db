package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"estatehub/internal/model"
	"estatehub/internal/notify"
	"estatehub/internal/permission"
	"estatehub/internal/repository"

	"github.com/google/uuid"
)

// passthroughTx runs fn directly; fakes below are not transactional.
type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (passthroughTx) RunInSnapshot(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// --- listings ---

type fakeListings struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]model.PropertyListing
	clock time.Time
	// beforeCAS runs inside CompareAndSetReview before the status check.
	beforeCAS func(id uuid.UUID)
	// afterLoad runs once a listing has been read, before it is returned.
	afterLoad func(id uuid.UUID)
}

func newFakeListings() *fakeListings {
	return &fakeListings{rows: map[uuid.UUID]model.PropertyListing{}, clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeListings) add(l model.PropertyListing) model.PropertyListing {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		f.clock = f.clock.Add(time.Minute)
		l.CreatedAt = f.clock
	}
	if l.Status == "" {
		l.Status = model.ListingActive
	}
	if l.ReviewStatus == "" {
		l.ReviewStatus = model.ReviewPending
	}
	f.rows[l.ID] = l
	return l
}

func (f *fakeListings) get(id uuid.UUID) model.PropertyListing {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id]
}

func (f *fakeListings) Create(_ context.Context, l *model.PropertyListing) error {
	*l = f.add(*l)
	return nil
}

func (f *fakeListings) GetByID(_ context.Context, id uuid.UUID) (*model.PropertyListing, error) {
	f.mu.Lock()
	l, ok := f.rows[id]
	f.mu.Unlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	if f.afterLoad != nil {
		f.afterLoad(id)
	}
	return &l, nil
}

// GetByIDForUpdate cannot hold a lock here; UpdateContent's status guard
// is what tests exercise.
func (f *fakeListings) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PropertyListing, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeListings) List(_ context.Context, flt repository.ListingFilter) ([]model.PropertyListing, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.PropertyListing
	for _, l := range f.rows {
		if flt.ReviewStatus != "" && flt.ReviewStatus != model.ReviewAll && l.ReviewStatus != flt.ReviewStatus {
			continue
		}
		if flt.OwnerID != nil && l.UserID != *flt.OwnerID {
			continue
		}
		if flt.PublicOnly && !l.PubliclyVisible() {
			continue
		}
		if flt.City != "" && !strings.EqualFold(l.City, flt.City) {
			continue
		}
		if flt.ListingType != "" && l.ListingType != flt.ListingType {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	total := int64(len(out))
	if flt.Limit > 0 {
		if flt.Offset >= len(out) {
			return []model.PropertyListing{}, total, nil
		}
		end := flt.Offset + flt.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[flt.Offset:end]
	}
	return out, total, nil
}

func (f *fakeListings) CountByReviewStatus(context.Context) (map[model.ReviewStatus]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[model.ReviewStatus]int64{}
	for _, s := range model.ReviewStatuses {
		counts[s] = 0
	}
	for _, l := range f.rows {
		counts[l.ReviewStatus]++
	}
	return counts, nil
}

func (f *fakeListings) CompareAndSetReview(_ context.Context, id uuid.UUID, expected model.ReviewStatus, next model.Review) (bool, error) {
	if f.beforeCAS != nil {
		f.beforeCAS(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.rows[id]
	if !ok || l.ReviewStatus != expected {
		return false, nil
	}
	l.Review = next
	f.rows[id] = l
	return true, nil
}

func (f *fakeListings) UpdateContent(_ context.Context, l *model.PropertyListing, expected model.ReviewStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.rows[l.ID]
	if !ok || cur.ReviewStatus != expected {
		return false, nil
	}
	review, status := cur.Review, cur.Status
	cur = *l
	cur.Review, cur.Status = review, status
	f.rows[l.ID] = cur
	return true, nil
}

func (f *fakeListings) SetStatus(_ context.Context, id uuid.UUID, st model.ListingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	l.Status = st
	f.rows[id] = l
	return nil
}

func (f *fakeListings) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

// --- activities ---

type fakeActivities struct {
	mu      sync.Mutex
	entries []model.AdminActivity
}

func (f *fakeActivities) Log(_ context.Context, e *model.AdminActivity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = uuid.New()
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeActivities) Recent(_ context.Context, limit int) ([]model.AdminActivity, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.AdminActivity, 0, limit)
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.entries[i])
	}
	return out, int64(len(f.entries)), nil
}

func (f *fakeActivities) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

// --- publisher ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// --- admins ---

type fakeAdmins struct {
	mu   sync.Mutex
	rows map[uuid.UUID]model.Admin
	// afterEmailLookup runs once GetByEmail has read a row.
	afterEmailLookup func(id uuid.UUID)
	// afterLock runs once GetByIDForUpdate has read a row.
	afterLock func(id uuid.UUID)
}

func newFakeAdmins() *fakeAdmins { return &fakeAdmins{rows: map[uuid.UUID]model.Admin{}} }

func (f *fakeAdmins) Create(_ context.Context, a *model.Admin) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.rows[a.ID] = *a
	return nil
}

func (f *fakeAdmins) GetByID(_ context.Context, id uuid.UUID) (*model.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

// GetByIDForUpdate holds no lock; afterLock stands in for a writer that
// commits while the caller still holds its copy.
func (f *fakeAdmins) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Admin, error) {
	a, err := f.GetByID(ctx, id)
	if err == nil && f.afterLock != nil {
		f.afterLock(id)
	}
	return a, err
}

func (f *fakeAdmins) GetByEmail(_ context.Context, email string) (*model.Admin, error) {
	f.mu.Lock()
	var found *model.Admin
	for _, a := range f.rows {
		if strings.EqualFold(a.Email, email) {
			found = &a
			break
		}
	}
	f.mu.Unlock()
	if found == nil {
		return nil, repository.ErrNotFound
	}
	if f.afterEmailLookup != nil {
		f.afterEmailLookup(found.ID)
	}
	return found, nil
}

func (f *fakeAdmins) List(_ context.Context, offset, limit int) ([]model.Admin, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Admin, 0, len(f.rows))
	for _, a := range f.rows {
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

// Update mirrors the column list of the gorm repository: last login and
// timestamps set elsewhere survive.
func (f *fakeAdmins) Update(_ context.Context, a *model.Admin) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.rows[a.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Name, cur.Email, cur.Password = a.Name, a.Email, a.Password
	cur.Role, cur.Permissions, cur.IsActive = a.Role, a.Permissions, a.IsActive
	f.rows[a.ID] = cur
	return nil
}

func (f *fakeAdmins) TouchLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	cur.LastLoginAt = &at
	f.rows[id] = cur
	return nil
}

func (f *fakeAdmins) set(id uuid.UUID, edit func(a *model.Admin)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.rows[id]
	edit(&a)
	f.rows[id] = a
}

func (f *fakeAdmins) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeAdmins) ExistsWithRole(_ context.Context, role permission.Role) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.rows {
		if a.Role == role {
			return true, nil
		}
	}
	return false, nil
}

// --- sessions ---

type fakeSessions struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]model.AdminSession
	touched int
}

func newFakeSessions() *fakeSessions { return &fakeSessions{rows: map[uuid.UUID]model.AdminSession{}} }

func (f *fakeSessions) Create(_ context.Context, s *model.AdminSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	f.rows[s.ID] = *s
	return nil
}

func (f *fakeSessions) GetByID(_ context.Context, id uuid.UUID) (*model.AdminSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (f *fakeSessions) List(_ context.Context, flt repository.SessionFilter) ([]model.AdminSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.AdminSession
	for _, s := range f.rows {
		if flt.AdminID != nil && s.AdminID != *flt.AdminID {
			continue
		}
		if flt.IsActive != nil && s.IsActive != *flt.IsActive {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSessions) Touch(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.rows[id]
	s.LastActivity = at
	f.rows[id] = s
	f.touched++
	return nil
}

func (f *fakeSessions) Deactivate(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok || !s.IsActive {
		return false, nil
	}
	s.IsActive = false
	f.rows[id] = s
	return true, nil
}

func (f *fakeSessions) DeactivateForAdmin(_ context.Context, adminID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, s := range f.rows {
		if s.AdminID == adminID && s.IsActive {
			s.IsActive = false
			f.rows[id] = s
			n++
		}
	}
	return n, nil
}

func (f *fakeSessions) DeactivateStale(_ context.Context, idleBefore, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, s := range f.rows {
		if s.IsActive && (s.LastActivity.Before(idleBefore) || !now.Before(s.ExpiresAt)) {
			s.IsActive = false
			f.rows[id] = s
			n++
		}
	}
	return n, nil
}

// --- appointments ---

type fakeAppointments struct {
	mu   sync.Mutex
	rows map[uuid.UUID]model.Appointment
}

func newFakeAppointments() *fakeAppointments {
	return &fakeAppointments{rows: map[uuid.UUID]model.Appointment{}}
}

func (f *fakeAppointments) Create(_ context.Context, a *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.rows[a.ID] = *a
	return nil
}

func (f *fakeAppointments) GetByID(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (f *fakeAppointments) List(_ context.Context, flt repository.AppointmentFilter) ([]model.Appointment, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Appointment
	for _, a := range f.rows {
		if flt.Status != "" && a.Status != flt.Status {
			continue
		}
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (f *fakeAppointments) CompareAndSetStatus(_ context.Context, id uuid.UUID, expected, next model.AppointmentStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok || a.Status != expected {
		return false, nil
	}
	a.Status = next
	f.rows[id] = a
	return true, nil
}

func (f *fakeAppointments) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

// --- principals ---

type grantSpec struct {
	m permission.Module
	c permission.Capability
}

func grant(m permission.Module, c permission.Capability) grantSpec { return grantSpec{m, c} }

func actorWith(role permission.Role, grants ...grantSpec) Actor {
	var perms permission.Permissions
	for _, g := range grants {
		perms, _ = perms.With(g.m, g.c, true)
	}
	return Actor{
		Principal: permission.Principal{ID: uuid.New(), Role: role, Permissions: perms},
		SessionID: uuid.New(),
		IP:        "203.0.113.7",
	}
}
