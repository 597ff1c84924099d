package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/excellense/internal/model"
	"github.com/iliyamo/excellense/internal/queue"
	"github.com/iliyamo/excellense/internal/repository"
)

// fakeUsers is an in-memory UserRepository with the same sentinel
// errors as the MySQL one.
type fakeUsers struct {
	byID   map[uint64]model.User
	nextID uint64
	err    error // returned by every method when set
}

func newFakeUsers(seed ...model.User) *fakeUsers {
	f := &fakeUsers{byID: map[uint64]model.User{}}
	for _, u := range seed {
		if u.ID == 0 {
			f.nextID++
			u.ID = f.nextID
		} else if u.ID > f.nextID {
			f.nextID = u.ID
		}
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.err != nil {
		return f.err
	}
	u.Email = strings.ToLower(u.Email)
	for _, x := range f.byID {
		if x.Email == u.Email || x.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	if f.err != nil {
		return model.User{}, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	if f.err != nil {
		return model.User{}, f.err
	}
	for _, u := range f.byID {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, u := range f.byID {
		if u.Email == strings.ToLower(email) || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) List(_ context.Context) ([]model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.User{}
	for _, u := range f.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeUsers) mutate(id uint64, fn func(*model.User)) error {
	if f.err != nil {
		return f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&u)
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, id uint64, role model.Role) error {
	return f.mutate(id, func(u *model.User) { u.Role = role })
}

func (f *fakeUsers) SetBlocked(_ context.Context, id uint64, blocked bool) error {
	return f.mutate(id, func(u *model.User) { u.Blocked = blocked })
}

func (f *fakeUsers) UpdateUsername(_ context.Context, id uint64, username string) error {
	for _, u := range f.byID {
		if u.ID != id && u.Username == username {
			return repository.ErrDuplicate
		}
	}
	return f.mutate(id, func(u *model.User) { u.Username = username })
}

func (f *fakeUsers) UpdatePasswordHash(_ context.Context, id uint64, hash string) error {
	return f.mutate(id, func(u *model.User) { u.PasswordHash = hash })
}

func (f *fakeUsers) UpdateProfileImage(_ context.Context, id uint64, image string) error {
	return f.mutate(id, func(u *model.User) { u.ProfileImage = image })
}

// fakeRequests is an in-memory AdminRequestRepository.  Approve writes
// through to users, mirroring the single transaction of the real one.
type fakeRequests struct {
	byID   map[uint64]model.AdminRequest
	nextID uint64
	users  *fakeUsers
}

func newFakeRequests(users *fakeUsers) *fakeRequests {
	return &fakeRequests{byID: map[uint64]model.AdminRequest{}, users: users}
}

func (f *fakeRequests) Create(_ context.Context, ar *model.AdminRequest) error {
	f.nextID++
	ar.ID = f.nextID
	ar.Status = model.StatusPending
	f.byID[ar.ID] = *ar
	return nil
}

func (f *fakeRequests) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	for _, ar := range f.byID {
		if ar.Email == email || ar.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRequests) GetByID(_ context.Context, id uint64) (model.AdminRequest, error) {
	ar, ok := f.byID[id]
	if !ok {
		return model.AdminRequest{}, repository.ErrNotFound
	}
	return ar, nil
}

func (f *fakeRequests) List(_ context.Context, status model.RequestStatus) ([]model.AdminRequest, error) {
	out := []model.AdminRequest{}
	for _, ar := range f.byID {
		if status == "" || ar.Status == status {
			out = append(out, ar)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeRequests) pending(id uint64) (model.AdminRequest, error) {
	ar, ok := f.byID[id]
	if !ok {
		return model.AdminRequest{}, repository.ErrNotFound
	}
	if ar.Status != model.StatusPending {
		return ar, repository.ErrConflict
	}
	return ar, nil
}

func (f *fakeRequests) Approve(ctx context.Context, id uint64) (model.User, error) {
	ar, err := f.pending(id)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{Username: ar.Username, Email: ar.Email, PasswordHash: ar.PasswordHash, Role: model.RoleAdmin}
	if err := f.users.Create(ctx, &u); err != nil {
		return model.User{}, err
	}
	ar.Status = model.StatusApproved
	f.byID[id] = ar
	return u, nil
}

func (f *fakeRequests) Reject(_ context.Context, id uint64, reason string) (model.AdminRequest, error) {
	ar, err := f.pending(id)
	if err != nil {
		return model.AdminRequest{}, err
	}
	ar.Status = model.StatusRejected
	ar.RejectionReason = reason
	f.byID[id] = ar
	return ar, nil
}

type fakeUploads struct {
	byID   map[uint64]model.Upload
	nextID uint64
	err    error
}

func newFakeUploads() *fakeUploads { return &fakeUploads{byID: map[uint64]model.Upload{}} }

func (f *fakeUploads) Create(_ context.Context, up *model.Upload) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	up.ID = f.nextID
	f.byID[up.ID] = *up
	return nil
}

func (f *fakeUploads) GetByID(_ context.Context, id uint64) (model.Upload, error) {
	up, ok := f.byID[id]
	if !ok {
		return model.Upload{}, repository.ErrNotFound
	}
	return up, nil
}

func (f *fakeUploads) ListByUser(_ context.Context, userID uint64) ([]model.Upload, error) {
	out := []model.Upload{}
	for _, up := range f.byID {
		if up.UserID == userID {
			out = append(out, up)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeUploads) ListAll(ctx context.Context) ([]model.Upload, error) {
	out := []model.Upload{}
	for _, up := range f.byID {
		out = append(out, up)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeUploads) Delete(_ context.Context, id uint64) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeAnalyses struct {
	byID   map[uint64]model.ChartAnalysis
	nextID uint64
}

func newFakeAnalyses() *fakeAnalyses { return &fakeAnalyses{byID: map[uint64]model.ChartAnalysis{}} }

func (f *fakeAnalyses) Create(_ context.Context, a *model.ChartAnalysis) error {
	f.nextID++
	a.ID = f.nextID
	f.byID[a.ID] = *a
	return nil
}

func (f *fakeAnalyses) GetByID(_ context.Context, id uint64) (model.ChartAnalysis, error) {
	a, ok := f.byID[id]
	if !ok {
		return model.ChartAnalysis{}, repository.ErrNotFound
	}
	return a, nil
}

func (f *fakeAnalyses) ListByEmail(_ context.Context, email string) ([]model.ChartAnalysis, error) {
	out := []model.ChartAnalysis{}
	for _, a := range f.byID {
		if a.UserEmail == email {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeAnalyses) ListAll(_ context.Context) ([]model.ChartAnalysis, error) {
	out := []model.ChartAnalysis{}
	for _, a := range f.byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeAnalyses) Delete(_ context.Context, id uint64) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeNotifier struct {
	sent []queue.Notification
	err  error
}

func (f *fakeNotifier) Publish(_ context.Context, n queue.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}
