package memory

import (
	"context"
	"sort"

	"github.com/noah-isme/maintenance-api/internal/models"
	"github.com/noah-isme/maintenance-api/internal/rules"
)

// EquipmentRepository is the equipment view of a Store.
type EquipmentRepository struct {
	s *Store
}

func (r *EquipmentRepository) List(_ context.Context, filter models.EquipmentFilter) ([]models.Equipment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.Equipment, 0)
	r.s.equipment.each(func(eq models.Equipment) bool {
		if filter.Department != "" && eq.Department != filter.Department {
			return true
		}
		if filter.Category != "" && eq.Category != filter.Category {
			return true
		}
		if filter.Status != "" && eq.Status != filter.Status {
			return true
		}
		if filter.TeamID != "" && eq.MaintenanceTeamID != filter.TeamID {
			return true
		}
		out = append(out, cloneEquipment(eq))
		return true
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *EquipmentRepository) FindByID(_ context.Context, id string) (*models.Equipment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	eq, ok := r.s.equipment.get(id)
	if !ok {
		return nil, errNotFound
	}
	eq = cloneEquipment(eq)
	return &eq, nil
}

func (r *EquipmentRepository) FindByIDs(_ context.Context, ids []string) ([]models.Equipment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.Equipment, 0, len(ids))
	for _, id := range ids {
		if eq, ok := r.s.equipment.get(id); ok {
			out = append(out, cloneEquipment(eq))
		}
	}
	return out, nil
}

func (r *EquipmentRepository) Create(_ context.Context, eq *models.Equipment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.serialTaken(eq.SerialNumber, "") {
		return &models.DuplicateKeyError{Field: "serial_number"}
	}
	eq.ID = newID(eq.ID)
	ts := r.s.now()
	if eq.CreatedAt.IsZero() {
		eq.CreatedAt = ts
	}
	eq.UpdatedAt = ts
	r.s.equipment.put(eq.ID, cloneEquipment(*eq))
	return nil
}

func (r *EquipmentRepository) Update(_ context.Context, eq *models.Equipment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.equipment.get(eq.ID); !ok {
		return errNotFound
	}
	if r.serialTaken(eq.SerialNumber, eq.ID) {
		return &models.DuplicateKeyError{Field: "serial_number"}
	}
	eq.UpdatedAt = r.s.now()
	r.s.equipment.put(eq.ID, cloneEquipment(*eq))
	return nil
}

func (r *EquipmentRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if !r.s.equipment.remove(id) {
		return errNotFound
	}
	return nil
}

// Scrap applies mutate and cascades to open requests under the store lock.
func (r *EquipmentRepository) Scrap(_ context.Context, id string, mutate func(*models.Equipment) error) (*models.Equipment, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	eq, ok := r.s.equipment.get(id)
	if !ok {
		return nil, 0, errNotFound
	}
	eq = cloneEquipment(eq)
	if err := mutate(&eq); err != nil {
		return nil, 0, err
	}
	ts := r.s.now()
	eq.UpdatedAt = ts
	r.s.equipment.put(eq.ID, cloneEquipment(eq))

	cascaded := 0
	for _, reqID := range r.s.requests.order {
		req := r.s.requests.rows[reqID]
		if req.EquipmentID != id || !rules.CascadesOnScrap(req.Status) {
			continue
		}
		req.Status = models.StatusScrap
		req.UpdatedAt = ts
		r.s.requests.rows[reqID] = req
		cascaded++
	}
	return &eq, cascaded, nil
}

// serialTaken must be called with the lock held.
func (r *EquipmentRepository) serialTaken(serial, exceptID string) bool {
	taken := false
	r.s.equipment.each(func(eq models.Equipment) bool {
		if eq.ID != exceptID && eq.SerialNumber == serial {
			taken = true
			return false
		}
		return true
	})
	return taken
}
