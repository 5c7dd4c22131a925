package memory

import (
	"context"

	"github.com/noah-isme/maintenance-api/internal/models"
	"github.com/noah-isme/maintenance-api/internal/rules"
)

// RequestRepository is the maintenance request view of a Store.
type RequestRepository struct {
	s *Store
}

func hasStatus(set []models.RequestStatus, status models.RequestStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

func matches(req models.MaintenanceRequest, f models.RequestFilter) bool {
	switch {
	case f.Status != "" && req.Status != f.Status:
		return false
	case f.Type != "" && req.Type != f.Type:
		return false
	case f.EquipmentID != "" && req.EquipmentID != f.EquipmentID:
		return false
	case f.TeamID != "" && req.MaintenanceTeamID != f.TeamID:
		return false
	case f.Priority != "" && req.Priority != f.Priority:
		return false
	case len(f.StatusIn) > 0 && !hasStatus(f.StatusIn, req.Status):
		return false
	case len(f.ExcludeStatuses) > 0 && hasStatus(f.ExcludeStatuses, req.Status):
		return false
	}
	if w := f.Window; w != nil {
		scheduled := req.ScheduledDate != nil && !req.ScheduledDate.Before(w.From) && !req.ScheduledDate.After(w.To)
		created := !req.CreatedAt.Before(w.From) && !req.CreatedAt.After(w.To)
		if !scheduled && !created {
			return false
		}
	}
	return true
}

func (r *RequestRepository) List(_ context.Context, filter models.RequestFilter) ([]models.MaintenanceRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.MaintenanceRequest, 0)
	r.s.requests.each(func(req models.MaintenanceRequest) bool {
		if matches(req, filter) {
			out = append(out, cloneRequest(req))
		}
		return true
	})
	rules.SortRequests(out, filter.Sort)
	return out, nil
}

func (r *RequestRepository) Count(_ context.Context, filter models.RequestFilter) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	total := 0
	r.s.requests.each(func(req models.MaintenanceRequest) bool {
		if matches(req, filter) {
			total++
		}
		return true
	})
	return total, nil
}

func (r *RequestRepository) FindByID(_ context.Context, id string) (*models.MaintenanceRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	req, ok := r.s.requests.get(id)
	if !ok {
		return nil, errNotFound
	}
	req = cloneRequest(req)
	return &req, nil
}

// CreateNumbered numbers and inserts req under the write lock, so the count
// it reads cannot be raced by another creation. Deletions can leave the
// count pointing at a number still in use; the sequence then steps forward
// to the next free one.
func (r *RequestRepository) CreateNumbered(_ context.Context, req *models.MaintenanceRequest, number func(existing int) string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	taken := func(candidate string) bool {
		found := false
		r.s.requests.each(func(existing models.MaintenanceRequest) bool {
			found = existing.RequestNumber == candidate
			return !found
		})
		return found
	}

	if req.RequestNumber == "" {
		count := r.s.requests.len()
		for seq := count; seq <= 2*count; seq++ {
			req.RequestNumber = number(seq)
			if !taken(req.RequestNumber) {
				break
			}
		}
	}
	if taken(req.RequestNumber) {
		return &models.DuplicateKeyError{Field: "request_number"}
	}

	req.ID = newID(req.ID)
	ts := r.s.now()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = ts
	}
	req.UpdatedAt = ts
	r.s.requests.put(req.ID, cloneRequest(*req))
	return nil
}

// Update writes every mutable field. The number and equipment snapshot keep
// their stored values.
func (r *RequestRepository) Update(_ context.Context, req *models.MaintenanceRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.requests.get(req.ID)
	if !ok {
		return errNotFound
	}
	req.RequestNumber = stored.RequestNumber
	req.EquipmentID = stored.EquipmentID
	req.EquipmentCategory = stored.EquipmentCategory
	req.MaintenanceTeamID = stored.MaintenanceTeamID
	req.CreatedAt = stored.CreatedAt
	req.UpdatedAt = r.s.now()
	r.s.requests.put(req.ID, cloneRequest(*req))
	return nil
}

func (r *RequestRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if !r.s.requests.remove(id) {
		return errNotFound
	}
	return nil
}

// CountBy folds the requests with the same rule the reports use.
func (r *RequestRepository) CountBy(_ context.Context, group models.RequestGroup) ([]models.GroupCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]models.MaintenanceRequest, 0, r.s.requests.len())
	r.s.requests.each(func(req models.MaintenanceRequest) bool {
		all = append(all, req)
		return true
	})
	key := rules.ByTeam
	if group == models.GroupByCategory {
		key = rules.ByCategory
	}
	return rules.FoldCounts(all, key), nil
}
