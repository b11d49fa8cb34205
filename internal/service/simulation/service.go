package simulation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/peixeiro/internal/domain/models"
	"github.com/mamadbah2/peixeiro/internal/engine"
	"github.com/mamadbah2/peixeiro/pkg/metrics"
)

// ErrInvalidArguments indicates a save request without a usable name.
var ErrInvalidArguments = errors.New("invalid simulation arguments")

const maxNameLength = 120

// Repository is the storage the service persists simulations to.
type Repository interface {
	SaveSimulation(ctx context.Context, sim models.Simulation) error
	ListSimulations(ctx context.Context, userID string) ([]models.Simulation, error)
	GetSimulation(ctx context.Context, userID, id string) (models.Simulation, error)
	DeleteSimulation(ctx context.Context, userID, id string) error
	DeleteSimulationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	RegisterEngineVersion(ctx context.Context, version models.EngineVersion) error
}

// Service runs the engine and manages stored simulations.
type Service struct {
	repo    Repository
	metrics *metrics.Collector
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
}

// NewService constructs a simulation service. repo may be nil for calculate-only use.
func NewService(repository Repository, collector *metrics.Collector, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:    repository,
		metrics: collector,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Calculate runs the engine on validated input.
func (s *Service) Calculate(input models.SimulationInput) models.CalculateResponse {
	start := time.Now()
	output := engine.Simulate(input)
	elapsed := time.Since(start)

	s.metrics.RecordSimulation(output.FeedType, input.Weeks, elapsed)
	s.logger.Debug("simulation computed",
		zap.Float64("initial_weight", input.InitialWeight),
		zap.Int("quantity", input.Quantity),
		zap.Float64("temperature", input.Temperature),
		zap.Int("weeks", input.Weeks),
		zap.String("feed_type", output.FeedType),
		zap.Duration("duration", elapsed))

	return models.CalculateResponse{Output: output, EngineVersion: engine.Version}
}

// Save recomputes the output for input and stores it under userID.
func (s *Service) Save(ctx context.Context, userID, name string, input models.SimulationInput) (models.Simulation, error) {
	name = strings.TrimSpace(name)
	if userID == "" || name == "" || len(name) > maxNameLength {
		return models.Simulation{}, ErrInvalidArguments
	}

	result := s.Calculate(input)
	sim := models.Simulation{
		ID:            s.newID(),
		UserID:        userID,
		Name:          name,
		Date:          s.now().UTC(),
		Input:         input,
		Output:        result.Output,
		EngineVersion: result.EngineVersion,
	}

	if err := s.repo.SaveSimulation(ctx, sim); err != nil {
		s.metrics.RecordStorageError("save")
		return models.Simulation{}, fmt.Errorf("save simulation: %w", err)
	}

	s.metrics.RecordStored()
	s.logger.Info("simulation saved", zap.String("id", sim.ID), zap.String("user_id", userID))
	return sim, nil
}

// List returns the user's saved simulations, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]models.Simulation, error) {
	sims, err := s.repo.ListSimulations(ctx, userID)
	if err != nil {
		s.metrics.RecordStorageError("list")
		return nil, fmt.Errorf("list simulations: %w", err)
	}
	return sims, nil
}

// Get returns one saved simulation owned by userID.
func (s *Service) Get(ctx context.Context, userID, id string) (models.Simulation, error) {
	sim, err := s.repo.GetSimulation(ctx, userID, id)
	if err != nil {
		if !errors.Is(err, models.ErrSimulationNotFound) {
			s.metrics.RecordStorageError("get")
		}
		return models.Simulation{}, fmt.Errorf("get simulation: %w", err)
	}
	return sim, nil
}

// Delete removes one saved simulation owned by userID.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.DeleteSimulation(ctx, userID, id); err != nil {
		if !errors.Is(err, models.ErrSimulationNotFound) {
			s.metrics.RecordStorageError("delete")
		}
		return fmt.Errorf("delete simulation: %w", err)
	}
	s.logger.Info("simulation deleted", zap.String("id", id), zap.String("user_id", userID))
	return nil
}

// PurgeOlderThan deletes simulations saved more than maxAge ago.
func (s *Service) PurgeOlderThan(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-maxAge)
	n, err := s.repo.DeleteSimulationsBefore(ctx, cutoff)
	if err != nil {
		s.metrics.RecordStorageError("purge")
		return 0, fmt.Errorf("purge simulations: %w", err)
	}
	s.metrics.RecordPurged(n)
	s.logger.Info("old simulations purged", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	return n, nil
}

// RegisterEngine records the running engine version and table fingerprint.
func (s *Service) RegisterEngine(ctx context.Context) error {
	version := EngineInfo(s.now())
	if err := s.repo.RegisterEngineVersion(ctx, version); err != nil {
		return fmt.Errorf("register engine: %w", err)
	}
	s.logger.Info("engine version registered", zap.String("version", version.Version), zap.String("logic_hash", version.LogicHash))
	return nil
}

// EngineInfo describes the running engine.
func EngineInfo(now time.Time) models.EngineVersion {
	return models.EngineVersion{
		Version:   engine.Version,
		LogicHash: engine.Fingerprint(),
		Status:    "active",
		CreatedAt: now.UTC(),
	}
}
