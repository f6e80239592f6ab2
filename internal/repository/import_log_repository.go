package repository

import (
	"context"
	"fmt"

	"freight-enquiry-importer/internal/db"
	"freight-enquiry-importer/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// importLogRepository implements ImportLogRepository over raw SQL. It is
// bound to the pool rather than the import session so log rows survive a
// rolled-back batch.
type importLogRepository struct {
	q db.DBTX
}

// NewImportLogRepository creates a new import log repository.
func NewImportLogRepository(q db.DBTX) ImportLogRepository {
	return &importLogRepository{q: q}
}

// Record persists one row-level failure.
func (r *importLogRepository) Record(ctx context.Context, entry domain.ImportLogEntry) error {
	var rowNumber any
	if entry.RowNumber != nil {
		rowNumber = *entry.RowNumber
	}

	_, err := r.q.Exec(
		ctx,
		`INSERT INTO import_log (run_id, source_file, row_number, error_message)
		 VALUES ($1, $2, $3, $4)`,
		entry.RunID,
		entry.SourceFile,
		rowNumber,
		entry.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to record import log: %w", err)
	}

	return nil
}

// List returns the log entries of one run, newest first.
func (r *importLogRepository) List(ctx context.Context, runID uuid.UUID, limit, offset int) ([]domain.ImportLogEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.q.Query(
		ctx,
		`SELECT id, run_id, source_file, row_number, error_message, created_at
		 FROM import_log
		 WHERE run_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		runID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list import logs: %w", err)
	}
	defer rows.Close()

	logs := []domain.ImportLogEntry{}
	for rows.Next() {
		var (
			entry     domain.ImportLogEntry
			rowNumber pgtype.Int4
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.RunID,
			&entry.SourceFile,
			&rowNumber,
			&entry.ErrorMessage,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan import log: %w", err)
		}

		if rowNumber.Valid {
			value := int(rowNumber.Int32)
			entry.RowNumber = &value
		}
		if createdAt.Valid {
			entry.CreatedAt = createdAt.Time
		}

		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate import logs: %w", err)
	}

	return logs, nil
}
