package export

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"github.com/mamadbah2/peixeiro/internal/domain/models"
	repo "github.com/mamadbah2/peixeiro/internal/repository/sheets"
)

// ErrSheetsDisabled is returned when no spreadsheet was configured.
var ErrSheetsDisabled = errors.New("google sheets export is not configured")

const (
	projectionsRange = "Projections!A:I"
	dateLayout       = "2006-01-02"
)

// WriteProjectionsCSV writes one row per week with a header line.
func WriteProjectionsCSV(w io.Writer, projections []models.WeeklyProjection) error {
	if err := gocsv.Marshal(projections, w); err != nil {
		return fmt.Errorf("writing projections csv: %w", err)
	}
	return nil
}

// Service pushes stored simulations to external spreadsheets.
type Service struct {
	repo   repo.Repository
	logger *zap.Logger
}

// NewService wires an export service. A nil repository disables Sheets export.
func NewService(repository repo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repository, logger: logger}
}

// Enabled reports whether a spreadsheet is available.
func (s *Service) Enabled() bool {
	return s != nil && s.repo != nil
}

// ExportToSheets appends every projected week of sim to the projections sheet.
func (s *Service) ExportToSheets(ctx context.Context, sim models.Simulation) (int, error) {
	if !s.Enabled() {
		return 0, ErrSheetsDisabled
	}

	rows := make([][]interface{}, 0, len(sim.Output.Projections))
	for _, p := range sim.Output.Projections {
		rows = append(rows, []interface{}{
			sim.ID,
			sim.Name,
			sim.Date.Format(dateLayout),
			p.Week,
			p.AverageWeight,
			p.FeedConsumption,
			p.AccumulatedConsumption,
			p.Biomass,
			p.Cost,
		})
	}

	written, err := s.repo.AppendRows(ctx, projectionsRange, rows)
	if err != nil {
		return 0, fmt.Errorf("export simulation %s: %w", sim.ID, err)
	}

	s.logger.Info("simulation exported to sheets", zap.String("id", sim.ID), zap.Int("rows", written))
	return written, nil
}
