package sheets

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/peixeiro/internal/config"
)

// ErrRaggedRows is returned when the rows of one append differ in width.
var ErrRaggedRows = errors.New("rows must all have the same number of columns")

// Repository defines the spreadsheet operations used by the export service.
type Repository interface {
	// AppendRows writes rows below the data in sheetRange and returns how many
	// rows the spreadsheet reports as written.
	AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) (int, error)
}

// GoogleSheetRepository appends projection rows to one spreadsheet.
type GoogleSheetRepository struct {
	values        *sheetsapi.SpreadsheetsValuesService
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository connects to the spreadsheet named in cfg. Extra client
// options are applied after the credentials file, if one is configured.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("spreadsheet id must not be empty")
	}

	clientOpts := []option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsScope)}
	if cfg.CredentialsPath != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsPath))
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := sheetsapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("init sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		values:        sheetsapi.NewSpreadsheetsValuesService(svc),
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendRows implements Repository. Values are stored as sent, so ids and names
// are never reinterpreted as numbers or formulas.
func (r *GoogleSheetRepository) AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) (int, error) {
	if sheetRange == "" {
		return 0, errors.New("sheet range must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	for i, row := range rows {
		if len(row) != len(rows[0]) {
			return 0, fmt.Errorf("row %d has %d columns, want %d: %w", i, len(row), len(rows[0]), ErrRaggedRows)
		}
	}

	resp, err := r.values.Append(r.spreadsheetID, sheetRange, &sheetsapi.ValueRange{
		MajorDimension: "ROWS",
		Values:         rows,
	}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("append %d rows to %s: %w", len(rows), sheetRange, err)
	}

	written := len(rows)
	if resp.Updates != nil {
		written = int(resp.Updates.UpdatedRows)
	}
	r.logger.Debug("rows appended",
		zap.String("range", sheetRange),
		zap.Int("sent", len(rows)),
		zap.Int("written", written))
	return written, nil
}
