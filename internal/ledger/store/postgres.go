package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pointsd/internal/ledger/models"
)

// PostgresBalanceStore persists balances in the balances table, keyed by
// the unique user_id column.
type PostgresBalanceStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresBalanceStore {
	return &PostgresBalanceStore{db: db}
}

func (s *PostgresBalanceStore) Get(ctx context.Context, userID string) (*models.Balance, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, display_name, balance FROM balances WHERE user_id = $1`, userID)

	var record models.Balance
	err := row.Scan(&record.UserID, &record.DisplayName, &record.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get balance for %q: %w", userID, err)
	}
	return &record, nil
}

func (s *PostgresBalanceStore) Create(ctx context.Context, record models.Balance) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO balances (user_id, display_name, balance) VALUES ($1, $2, $3)`,
		record.UserID, record.DisplayName, record.Balance)
	if err != nil {
		return fmt.Errorf("create balance for %q: %w", record.UserID, err)
	}
	return nil
}

func (s *PostgresBalanceStore) Upsert(ctx context.Context, record models.Balance) error {
	// ON CONFLICT closes the create/create race between concurrent writers.
	// An empty display name on upsert keeps the stored one.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO balances (user_id, display_name, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			balance = EXCLUDED.balance,
			display_name = CASE
				WHEN EXCLUDED.display_name = '' THEN balances.display_name
				ELSE EXCLUDED.display_name
			END`,
		record.UserID, record.DisplayName, record.Balance)
	if err != nil {
		return fmt.Errorf("upsert balance for %q: %w", record.UserID, err)
	}
	return nil
}

func (s *PostgresBalanceStore) SetBalance(ctx context.Context, userID string, balance int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE balances SET balance = $2 WHERE user_id = $1`, userID, balance)
	if err != nil {
		return fmt.Errorf("set balance for %q: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set balance for %q: %w", userID, err)
	}
	if affected == 0 {
		return fmt.Errorf("no balance record for %q", userID)
	}
	return nil
}

func (s *PostgresBalanceStore) SetDisplayName(ctx context.Context, userID, name string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE balances SET display_name = $2 WHERE user_id = $1`, userID, name)
	if err != nil {
		return fmt.Errorf("set display name for %q: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set display name for %q: %w", userID, err)
	}
	if affected == 0 {
		return fmt.Errorf("no balance record for %q", userID)
	}
	return nil
}

func (s *PostgresBalanceStore) TopN(ctx context.Context, n int) ([]models.TopEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, display_name, balance
		FROM balances
		ORDER BY balance DESC
		LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("query top balances: %w", err)
	}
	defer rows.Close()

	var entries []models.TopEntry
	for rows.Next() {
		var entry models.TopEntry
		if err := rows.Scan(&entry.UserID, &entry.DisplayName, &entry.Balance); err != nil {
			return nil, fmt.Errorf("scan top balance: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top balances: %w", err)
	}
	return entries, nil
}
