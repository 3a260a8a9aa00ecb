package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pointsd/internal/auditlog"
)

// PostgresStore persists audit entries in the audit_entries table. Primary
// keys are assigned by the rotation logic, never by the database.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) IDsAscending(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM audit_entries ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query audit ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan audit id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit ids: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_entries`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) OldestIDs(ctx context.Context, limit int) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM audit_entries ORDER BY recorded_at ASC, id ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query oldest audit ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan oldest audit id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate oldest audit ids: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) Insert(ctx context.Context, entry auditlog.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (
			id, user_id, operation_type, operation_amount, plugin_name,
			comment, status_code, previous_value, new_value, transaction_id, recorded_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.ID,
		entry.UserID,
		entry.Operation,
		nullInt(entry.Amount),
		entry.PluginName,
		nullString(entry.Comment),
		entry.StatusCode,
		nullInt(entry.PreviousValue),
		nullInt(entry.NewValue),
		nullString(entry.TransactionID),
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry %d: %w", entry.ID, err)
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, entry auditlog.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (
			id, user_id, operation_type, operation_amount, plugin_name,
			comment, status_code, previous_value, new_value, transaction_id, recorded_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			operation_type = EXCLUDED.operation_type,
			operation_amount = EXCLUDED.operation_amount,
			plugin_name = EXCLUDED.plugin_name,
			comment = EXCLUDED.comment,
			status_code = EXCLUDED.status_code,
			previous_value = EXCLUDED.previous_value,
			new_value = EXCLUDED.new_value,
			transaction_id = EXCLUDED.transaction_id,
			recorded_at = EXCLUDED.recorded_at`,
		entry.ID,
		entry.UserID,
		entry.Operation,
		nullInt(entry.Amount),
		entry.PluginName,
		nullString(entry.Comment),
		entry.StatusCode,
		nullInt(entry.PreviousValue),
		nullInt(entry.NewValue),
		nullString(entry.TransactionID),
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("upsert audit entry %d: %w", entry.ID, err)
	}
	return nil
}

func (s *PostgresStore) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf("DELETE FROM audit_entries WHERE id IN (%s)", strings.Join(placeholders, ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete audit entries: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]auditlog.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, operation_type, operation_amount, plugin_name,
			   comment, status_code, previous_value, new_value, transaction_id, recorded_at
		FROM audit_entries
		ORDER BY recorded_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []auditlog.Entry
	for rows.Next() {
		var (
			entry   auditlog.Entry
			amount  sql.NullInt64
			comment sql.NullString
			prev    sql.NullInt64
			next    sql.NullInt64
			txnID   sql.NullString
		)
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Operation,
			&amount,
			&entry.PluginName,
			&comment,
			&entry.StatusCode,
			&prev,
			&next,
			&txnID,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Amount = fromNullInt(amount)
		entry.Comment = comment.String
		entry.PreviousValue = fromNullInt(prev)
		entry.NewValue = fromNullInt(next)
		entry.TransactionID = txnID.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

// Get returns the entry at id. Integration tests use it to assert slot
// contents.
func (s *PostgresStore) Get(ctx context.Context, id int64) (auditlog.Entry, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, operation_type, operation_amount, plugin_name,
			   comment, status_code, previous_value, new_value, transaction_id, recorded_at
		FROM audit_entries
		WHERE id = $1`, id)

	var (
		entry   auditlog.Entry
		amount  sql.NullInt64
		comment sql.NullString
		prev    sql.NullInt64
		next    sql.NullInt64
		txnID   sql.NullString
	)
	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Operation,
		&amount,
		&entry.PluginName,
		&comment,
		&entry.StatusCode,
		&prev,
		&next,
		&txnID,
		&entry.Timestamp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return auditlog.Entry{}, false, nil
	}
	if err != nil {
		return auditlog.Entry{}, false, fmt.Errorf("get audit entry %d: %w", id, err)
	}
	entry.Amount = fromNullInt(amount)
	entry.Comment = comment.String
	entry.PreviousValue = fromNullInt(prev)
	entry.NewValue = fromNullInt(next)
	entry.TransactionID = txnID.String
	return entry, true, nil
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func fromNullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
