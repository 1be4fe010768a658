package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/puntguard/internal/database"
	"github.com/yourusername/puntguard/internal/models"
)

// PostgresBankrollRepository implements BankrollRepository for PostgreSQL
type PostgresBankrollRepository struct {
	db *database.DB
}

// NewPostgresBankrollRepository creates a new bankroll snapshot repository
func NewPostgresBankrollRepository(db *database.DB) BankrollRepository {
	return &PostgresBankrollRepository{db: db}
}

// Insert stores a bankroll snapshot
func (r *PostgresBankrollRepository) Insert(ctx context.Context, snapshot *models.BankrollSnapshot) error {
	query := `
		INSERT INTO bankroll_snapshots (time, balance, initial, exposure, daily_loss)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		snapshot.Time, snapshot.Balance, snapshot.Initial, snapshot.Exposure, snapshot.DailyLoss,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bankroll snapshot: %w", err)
	}

	return nil
}

// GetLatest retrieves the most recent bankroll snapshot
func (r *PostgresBankrollRepository) GetLatest(ctx context.Context) (*models.BankrollSnapshot, error) {
	query := `
		SELECT time, balance, initial, exposure, daily_loss
		FROM bankroll_snapshots
		ORDER BY time DESC
		LIMIT 1
	`

	snapshot := &models.BankrollSnapshot{}
	err := r.db.GetPool().QueryRow(ctx, query).Scan(
		&snapshot.Time, &snapshot.Balance, &snapshot.Initial, &snapshot.Exposure, &snapshot.DailyLoss,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest bankroll snapshot: %w", err)
	}

	return snapshot, nil
}

// GetRange retrieves snapshots within a time window
func (r *PostgresBankrollRepository) GetRange(ctx context.Context, start, end time.Time) ([]*models.BankrollSnapshot, error) {
	query := `
		SELECT time, balance, initial, exposure, daily_loss
		FROM bankroll_snapshots
		WHERE time >= $1 AND time < $2
		ORDER BY time ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query bankroll snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.BankrollSnapshot
	for rows.Next() {
		snapshot := &models.BankrollSnapshot{}
		err := rows.Scan(&snapshot.Time, &snapshot.Balance, &snapshot.Initial, &snapshot.Exposure, &snapshot.DailyLoss)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bankroll snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, rows.Err()
}
