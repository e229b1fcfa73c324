package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/upb/structured-logger/models"
	"github.com/upb/structured-logger/repositories"
	"go.uber.org/zap"
)

const insertRecordQuery = `
	INSERT INTO structured_logs (
		args, causer_id, causer_type, context, data_id, data_type, datetime, delta,
		env, impersonator, level, message, process_context, process_id, process_start,
		remote_address, request_method, request_query, request_url, service, status_code, type
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22
	)
`

const selectRecordsByProcessQuery = `
	SELECT args, causer_id, causer_type, context, data_id, data_type, datetime, delta,
	       env, impersonator, level, message, process_context, process_id, process_start,
	       remote_address, request_method, request_query, request_url, service, status_code, type
	FROM structured_logs
	WHERE process_id = $1
	ORDER BY id
`

// RecordRepository implements repositories.RecordRepository on the structured_logs table
type RecordRepository struct {
	db     *DB
	txm    repositories.TransactionManager
	logger *zap.Logger
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *DB, logger *zap.Logger) *RecordRepository {
	return &RecordRepository{
		db:     db,
		txm:    NewTransactionManager(db, logger),
		logger: logger,
	}
}

// Name reports the transport name used in metrics
func (r *RecordRepository) Name() string {
	return "postgres"
}

// Write inserts the batch in a single transaction; either every record is stored or none
func (r *RecordRepository) Write(ctx context.Context, records []models.StructuredRecord) error {
	if len(records) == 0 {
		return nil
	}

	err := r.txm.InTransaction(ctx, func(ctx context.Context, _ repositories.Transaction) error {
		executor := GetExecutor(ctx, r.db)
		for i, rec := range records {
			if _, err := executor.ExecContext(ctx, insertRecordQuery, insertArgs(rec)...); err != nil {
				return fmt.Errorf("failed to insert record %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Debug("structured records inserted",
		zap.Int("count", len(records)),
		zap.String("process_id", records[0].ProcessID))
	return nil
}

// ListByProcessID returns the records of one process in insertion order
func (r *RecordRepository) ListByProcessID(ctx context.Context, processID string) ([]models.StructuredRecord, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, selectRecordsByProcessQuery, processID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []models.StructuredRecord
	for rows.Next() {
		var rec models.StructuredRecord
		if err := rows.Scan(
			&rec.Args,
			&rec.CauserID,
			&rec.CauserType,
			&rec.ContextAsString,
			&rec.DataID,
			&rec.DataType,
			&rec.Datetime,
			&rec.Delta,
			&rec.Env,
			&rec.Impersonator,
			&rec.Level,
			&rec.Message,
			&rec.ProcessContext,
			&rec.ProcessID,
			&rec.ProcessStart,
			&rec.RemoteAddress,
			&rec.RequestMethod,
			&rec.RequestQuery,
			&rec.RequestURL,
			&rec.Service,
			&rec.StatusCode,
			&rec.Type,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		var context map[string]any
		if err := json.Unmarshal([]byte(rec.ContextAsString), &context); err != nil {
			return nil, fmt.Errorf("failed to decode record context: %w", err)
		}
		rec.Context = context
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}

	return records, nil
}

func insertArgs(rec models.StructuredRecord) []any {
	return []any{
		rec.Args,
		rec.CauserID,
		rec.CauserType,
		rec.ContextAsString,
		rec.DataID,
		rec.DataType,
		rec.Datetime,
		rec.Delta,
		rec.Env,
		rec.Impersonator,
		rec.Level,
		rec.Message,
		string(rec.ProcessContext),
		rec.ProcessID,
		rec.ProcessStart,
		rec.RemoteAddress,
		rec.RequestMethod,
		rec.RequestQuery,
		rec.RequestURL,
		rec.Service,
		rec.StatusCode,
		string(rec.Type),
	}
}
