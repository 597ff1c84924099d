package router

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/excellense/internal/model"
	"github.com/iliyamo/excellense/internal/repository"
)

// memUsers and friends are map-backed stand-ins for the MySQL
// repositories, returning the same sentinel errors.

type memUsers struct {
	mu     sync.Mutex
	byID   map[uint64]model.User
	nextID uint64
}

func newMemUsers() *memUsers { return &memUsers{byID: map[uint64]model.User{}} }

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Email = strings.ToLower(u.Email)
	for _, x := range m.byID {
		if x.Email == u.Email || x.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == strings.ToLower(email) || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) List(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.User{}
	for _, u := range m.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memUsers) mutate(id uint64, fn func(*model.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&u)
	m.byID[id] = u
	return nil
}

func (m *memUsers) UpdateRole(_ context.Context, id uint64, role model.Role) error {
	return m.mutate(id, func(u *model.User) { u.Role = role })
}

func (m *memUsers) SetBlocked(_ context.Context, id uint64, blocked bool) error {
	return m.mutate(id, func(u *model.User) { u.Blocked = blocked })
}

func (m *memUsers) UpdateUsername(_ context.Context, id uint64, username string) error {
	return m.mutate(id, func(u *model.User) { u.Username = username })
}

func (m *memUsers) UpdatePasswordHash(_ context.Context, id uint64, hash string) error {
	return m.mutate(id, func(u *model.User) { u.PasswordHash = hash })
}

func (m *memUsers) UpdateProfileImage(_ context.Context, id uint64, image string) error {
	return m.mutate(id, func(u *model.User) { u.ProfileImage = image })
}

type memRequests struct {
	mu     sync.Mutex
	byID   map[uint64]model.AdminRequest
	nextID uint64
	users  *memUsers
}

func newMemRequests(users *memUsers) *memRequests {
	return &memRequests{byID: map[uint64]model.AdminRequest{}, users: users}
}

func (m *memRequests) Create(_ context.Context, ar *model.AdminRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	ar.ID = m.nextID
	ar.Status = model.StatusPending
	m.byID[ar.ID] = *ar
	return nil
}

func (m *memRequests) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ar := range m.byID {
		if ar.Email == email || ar.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRequests) GetByID(_ context.Context, id uint64) (model.AdminRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ar, ok := m.byID[id]
	if !ok {
		return model.AdminRequest{}, repository.ErrNotFound
	}
	return ar, nil
}

func (m *memRequests) List(_ context.Context, status model.RequestStatus) ([]model.AdminRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.AdminRequest{}
	for _, ar := range m.byID {
		if status == "" || ar.Status == status {
			out = append(out, ar)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memRequests) settle(id uint64, to model.RequestStatus, reason string) (model.AdminRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ar, ok := m.byID[id]
	if !ok {
		return model.AdminRequest{}, repository.ErrNotFound
	}
	if !ar.Status.CanTransition(to) {
		return model.AdminRequest{}, repository.ErrConflict
	}
	ar.Status = to
	ar.RejectionReason = reason
	m.byID[id] = ar
	return ar, nil
}

func (m *memRequests) Approve(ctx context.Context, id uint64) (model.User, error) {
	ar, err := m.settle(id, model.StatusApproved, "")
	if err != nil {
		return model.User{}, err
	}
	u := model.User{Username: ar.Username, Email: ar.Email, PasswordHash: ar.PasswordHash, Role: model.RoleAdmin}
	if err := m.users.Create(ctx, &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (m *memRequests) Reject(_ context.Context, id uint64, reason string) (model.AdminRequest, error) {
	return m.settle(id, model.StatusRejected, reason)
}

type memUploads struct {
	mu     sync.Mutex
	byID   map[uint64]model.Upload
	nextID uint64
}

func newMemUploads() *memUploads { return &memUploads{byID: map[uint64]model.Upload{}} }

func (m *memUploads) Create(_ context.Context, up *model.Upload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	up.ID = m.nextID
	up.UploadedAt = time.Now().UTC()
	m.byID[up.ID] = *up
	return nil
}

func (m *memUploads) GetByID(_ context.Context, id uint64) (model.Upload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	up, ok := m.byID[id]
	if !ok {
		return model.Upload{}, repository.ErrNotFound
	}
	return up, nil
}

func (m *memUploads) filter(keep func(model.Upload) bool) []model.Upload {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Upload{}
	for _, up := range m.byID {
		if keep(up) {
			out = append(out, up)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *memUploads) ListByUser(_ context.Context, userID uint64) ([]model.Upload, error) {
	return m.filter(func(up model.Upload) bool { return up.UserID == userID }), nil
}

func (m *memUploads) ListAll(_ context.Context) ([]model.Upload, error) {
	return m.filter(func(model.Upload) bool { return true }), nil
}

func (m *memUploads) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memAnalyses struct {
	mu     sync.Mutex
	byID   map[uint64]model.ChartAnalysis
	nextID uint64
}

func newMemAnalyses() *memAnalyses { return &memAnalyses{byID: map[uint64]model.ChartAnalysis{}} }

func (m *memAnalyses) Create(_ context.Context, a *model.ChartAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a.ID = m.nextID
	a.CreatedAt = time.Now().UTC()
	m.byID[a.ID] = *a
	return nil
}

func (m *memAnalyses) GetByID(_ context.Context, id uint64) (model.ChartAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return model.ChartAnalysis{}, repository.ErrNotFound
	}
	return a, nil
}

func (m *memAnalyses) filter(keep func(model.ChartAnalysis) bool) []model.ChartAnalysis {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.ChartAnalysis{}
	for _, a := range m.byID {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *memAnalyses) ListByEmail(_ context.Context, email string) ([]model.ChartAnalysis, error) {
	return m.filter(func(a model.ChartAnalysis) bool { return a.UserEmail == email }), nil
}

func (m *memAnalyses) ListAll(_ context.Context) ([]model.ChartAnalysis, error) {
	return m.filter(func(model.ChartAnalysis) bool { return true }), nil
}

func (m *memAnalyses) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}
