// Package memory provides a process-local simulation store used for local runs
// (MONGODB_URI=memory://) and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mamadbah2/peixeiro/internal/domain/models"
)

// Repository keeps simulations and engine versions in maps guarded by a mutex.
type Repository struct {
	mu          sync.RWMutex
	simulations map[string]models.Simulation
	versions    map[string]models.EngineVersion
}

// NewRepository returns an empty store.
func NewRepository() *Repository {
	return &Repository{
		simulations: make(map[string]models.Simulation),
		versions:    make(map[string]models.EngineVersion),
	}
}

// SaveSimulation stores sim; ids must be unique.
func (r *Repository) SaveSimulation(_ context.Context, sim models.Simulation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.simulations[sim.ID]; exists {
		return fmt.Errorf("simulation %s already exists", sim.ID)
	}
	r.simulations[sim.ID] = cloneSimulation(sim)
	return nil
}

// ListSimulations returns the user's simulations, newest first.
func (r *Repository) ListSimulations(_ context.Context, userID string) ([]models.Simulation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Simulation, 0)
	for _, sim := range r.simulations {
		if sim.UserID == userID {
			out = append(out, cloneSimulation(sim))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID > out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

// GetSimulation returns one simulation owned by userID.
func (r *Repository) GetSimulation(_ context.Context, userID, id string) (models.Simulation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sim, ok := r.simulations[id]
	if !ok || sim.UserID != userID {
		return models.Simulation{}, models.ErrSimulationNotFound
	}
	return cloneSimulation(sim), nil
}

// DeleteSimulation removes one simulation owned by userID.
func (r *Repository) DeleteSimulation(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sim, ok := r.simulations[id]
	if !ok || sim.UserID != userID {
		return models.ErrSimulationNotFound
	}
	delete(r.simulations, id)
	return nil
}

// DeleteSimulationsBefore removes simulations dated before cutoff.
func (r *Repository) DeleteSimulationsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, sim := range r.simulations {
		if sim.Date.Before(cutoff) {
			delete(r.simulations, id)
			n++
		}
	}
	return n, nil
}

// RegisterEngineVersion upserts version, keeping the first CreatedAt.
func (r *Repository) RegisterEngineVersion(_ context.Context, version models.EngineVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.versions[version.Version]; ok {
		version.CreatedAt = existing.CreatedAt
	}
	r.versions[version.Version] = version
	return nil
}

// EngineVersion returns a registered version.
func (r *Repository) EngineVersion(version string) (models.EngineVersion, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.versions[version]
	return v, ok
}

func cloneSimulation(sim models.Simulation) models.Simulation {
	sim.Output.Projections = append([]models.WeeklyProjection(nil), sim.Output.Projections...)
	return sim
}
