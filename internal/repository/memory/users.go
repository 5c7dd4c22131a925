package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/noah-isme/maintenance-api/internal/models"
)

// UserRepository is the user view of a Store.
type UserRepository struct {
	s *Store
}

func (r *UserRepository) List(_ context.Context, filter models.UserFilter) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.User, 0)
	r.s.users.each(func(u models.User) bool {
		if filter.Role != "" && u.Role != filter.Role {
			return true
		}
		if filter.Department != "" && u.Department != filter.Department {
			return true
		}
		if filter.Active != nil && u.IsActive != *filter.Active {
			return true
		}
		out = append(out, u)
		return true
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users.get(id)
	if !ok {
		return nil, errNotFound
	}
	return &u, nil
}

func (r *UserRepository) FindByIDs(_ context.Context, ids []string) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users.get(id); ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.emailTaken(user.Email, "") {
		return &models.DuplicateKeyError{Field: "email"}
	}
	user.ID = newID(user.ID)
	ts := r.s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = ts
	}
	user.UpdatedAt = ts
	r.s.users.put(user.ID, *user)
	return nil
}

func (r *UserRepository) Update(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users.get(user.ID); !ok {
		return errNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return &models.DuplicateKeyError{Field: "email"}
	}
	user.UpdatedAt = r.s.now()
	r.s.users.put(user.ID, *user)
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if !r.s.users.remove(id) {
		return errNotFound
	}
	return nil
}

// RoleStats counts users and active users per role, largest first.
func (r *UserRepository) RoleStats(_ context.Context) ([]models.RoleStat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	index := make(map[models.Role]int)
	stats := make([]models.RoleStat, 0)
	r.s.users.each(func(u models.User) bool {
		i, ok := index[u.Role]
		if !ok {
			i = len(stats)
			index[u.Role] = i
			stats = append(stats, models.RoleStat{Role: u.Role})
		}
		stats[i].Count++
		if u.IsActive {
			stats[i].Active++
		}
		return true
	})
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Count > stats[j].Count })
	return stats, nil
}

// emailTaken must be called with the lock held.
func (r *UserRepository) emailTaken(email, exceptID string) bool {
	taken := false
	r.s.users.each(func(u models.User) bool {
		if u.ID != exceptID && strings.EqualFold(u.Email, email) {
			taken = true
			return false
		}
		return true
	})
	return taken
}
