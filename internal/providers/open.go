package providers

import (
	"context"
	"fmt"

	"forage-map/orchard/internal/config"
	"forage-map/orchard/internal/constants"
	"forage-map/orchard/internal/logging"
	"forage-map/orchard/internal/metrics"

	"google.golang.org/api/option"
)

// OpenTable connects to the configured backend, wraps it with metrics and
// makes sure the header is in place before any other call.
func OpenTable(ctx context.Context, cfg config.TableConfig, m *metrics.MetricsRegistry) (TableProvider, error) {
	var (
		inner TableProvider
		err   error
	)

	switch cfg.Backend {
	case config.BackendSheets:
		var opts []option.ClientOption
		if cfg.GoogleCredentialsJSON != "" {
			opts = append(opts, option.WithCredentialsJSON([]byte(cfg.GoogleCredentialsJSON)))
		} else if cfg.GoogleCredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
		}
		inner, err = OpenSheetsProvider(ctx, cfg.Location, cfg.Sheet, opts...)
	case config.BackendAirtable:
		inner, err = OpenAirtableProvider(ctx, cfg.AirtableBaseURL, cfg.AirtableAPIKey, cfg.Location, cfg.Sheet)
	case config.BackendSQL:
		inner, err = OpenSQLProvider(ctx, cfg.Location, cfg.Sheet)
	default:
		return nil, newTableError(ErrConnection, constants.ErrCodeUnsupportedBackend, nil, cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s table: %w", cfg.Backend, err)
	}

	table := NewInstrumentedTable(inner, m)
	if err := table.EnsureHeader(ctx); err != nil {
		_ = table.Close()
		return nil, fmt.Errorf("ensure %s header: %w", cfg.Backend, err)
	}

	logging.Info("Table opened", "backend", cfg.Backend, "sheet", cfg.Sheet)
	return table, nil
}
