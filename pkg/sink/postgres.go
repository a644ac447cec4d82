// pkg/sink/postgres.go
package sink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"transport-climate-etl/pkg/config"
	"transport-climate-etl/pkg/model"
)

// integratedColumnDefs is the DDL for the single flat integrated table.
var integratedColumnDefs = []string{
	"country TEXT NOT NULL",
	"year INTEGER NOT NULL",
	"share_buses_trains DOUBLE PRECISION NOT NULL",
	"ghg_per_capita DOUBLE PRECISION NOT NULL",
	"road_co2_per_capita DOUBLE PRECISION NOT NULL",
	"obs_flag_bt TEXT",
	"obs_flag_ghg TEXT",
	"obs_flag_road TEXT",
}

// PostgresSink persists the integrated table into PostgreSQL. Each run
// replaces the table contents wholesale; the pipeline is batch-only and
// recomputes from scratch.
type PostgresSink struct {
	db     *sqlx.DB
	logger *zap.Logger
	cfg    *config.PostgresConfig
}

// NewPostgresSink connects to PostgreSQL and verifies the connection.
func NewPostgresSink(ctx context.Context, cfg *config.PostgresConfig) (*PostgresSink, error) {
	logger := zap.L().Named("postgres-sink")

	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	db, err := sqlx.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	return &PostgresSink{db: db, logger: logger, cfg: cfg}, nil
}

// Close closes the database connection.
func (s *PostgresSink) Close() error {
	s.logger.Info("Closing PostgreSQL connection")
	return s.db.Close()
}

// StoreIntegrated replaces the sink table contents with the given rows.
func (s *PostgresSink) StoreIntegrated(ctx context.Context, rows []model.IntegratedRecord) error {
	if err := s.ensureTable(ctx); err != nil {
		return err
	}

	fullTableName := fmt.Sprintf("%s.%s", s.cfg.Schema, s.cfg.Table)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", fullTableName)); err != nil {
		return fmt.Errorf("failed to clear %s: %w", fullTableName, err)
	}

	inserted, err := s.batchInsert(ctx, tx, fullTableName, rows)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Stored integrated table",
		zap.String("table", fullTableName),
		zap.Int64("rows", inserted))
	return nil
}

// batchInsert bulk-inserts rows in chunks of up to batchSize.
func (s *PostgresSink) batchInsert(
	ctx context.Context,
	tx *sqlx.Tx,
	fullTableName string,
	rows []model.IntegratedRecord,
) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	const batchSize = 1000
	columns := []string{
		"country", "year",
		"share_buses_trains", "ghg_per_capita", "road_co2_per_capita",
		"obs_flag_bt", "obs_flag_ghg", "obs_flag_road",
	}

	var totalRowsInserted int64
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		currentBatch := rows[i:end]

		placeholders := make([]string, len(currentBatch))
		args := make([]interface{}, 0, len(currentBatch)*len(columns))
		for j, row := range currentBatch {
			rowPlaceholders := make([]string, len(columns))
			for k := range columns {
				rowPlaceholders[k] = fmt.Sprintf("$%d", j*len(columns)+k+1)
			}
			placeholders[j] = fmt.Sprintf("(%s)", strings.Join(rowPlaceholders, ", "))
			args = append(args,
				row.Country, row.Year,
				row.ShareBusesTrains, row.GHGPerCapita, row.RoadCO2PerCapita,
				row.ShareFlag, row.GHGFlag, row.RoadFlag,
			)
		}

		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
			fullTableName, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return totalRowsInserted, fmt.Errorf("batch insert failed: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			s.logger.Warn("Couldn't get rows affected", zap.Error(err))
		} else {
			totalRowsInserted += rowsAffected
		}
	}

	return totalRowsInserted, nil
}

// ensureTable creates the sink table if it doesn't exist.
func (s *PostgresSink) ensureTable(ctx context.Context) error {
	fullTableName := fmt.Sprintf("%s.%s", s.cfg.Schema, s.cfg.Table)

	var exists bool
	query := `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2
		)
	`
	if err := s.db.QueryRowContext(ctx, query, s.cfg.Schema, s.cfg.Table).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check if table exists: %w", err)
	}

	if exists {
		s.logger.Debug("Table already exists", zap.String("table", fullTableName))
		return nil
	}

	// No primary key: duplicate source keys legitimately fan out into
	// repeated (country, year) rows.
	createSQL := fmt.Sprintf(
		"CREATE TABLE %s (\n\t%s\n)",
		fullTableName,
		strings.Join(integratedColumnDefs, ",\n\t"),
	)

	execCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := s.db.ExecContext(execCtx, createSQL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", fullTableName, err)
	}

	s.logger.Info("Created table", zap.String("table", fullTableName))
	return nil
}
