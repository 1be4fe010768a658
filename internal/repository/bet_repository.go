package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/puntguard/internal/database"
	"github.com/yourusername/puntguard/internal/models"
)

// PostgresBetRepository implements BetRepository for PostgreSQL
type PostgresBetRepository struct {
	db *database.DB
}

// NewPostgresBetRepository creates a new bet repository
func NewPostgresBetRepository(db *database.DB) BetRepository {
	return &PostgresBetRepository{db: db}
}

const betColumns = `id, runner_name, race_id, plan_name, odds, stake, status,
	       placed_at, settled_at, return_amount, created_at, updated_at`

// Create inserts a new bet
func (b *PostgresBetRepository) Create(ctx context.Context, bet *models.Bet) error {
	query := `
		INSERT INTO bets (id, runner_name, race_id, plan_name, odds, stake, status, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := b.db.GetPool().Exec(ctx, query,
		bet.ID, bet.RunnerName, bet.RaceID, bet.PlanName, bet.Odds, bet.Stake, bet.Status, bet.PlacedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create bet: %w", err)
	}

	return nil
}

// GetByID retrieves a bet by ID
func (b *PostgresBetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Bet, error) {
	query := fmt.Sprintf(`SELECT %s FROM bets WHERE id = $1`, betColumns)

	bet := &models.Bet{}
	err := b.db.GetPool().QueryRow(ctx, query, id).Scan(
		&bet.ID, &bet.RunnerName, &bet.RaceID, &bet.PlanName, &bet.Odds, &bet.Stake, &bet.Status,
		&bet.PlacedAt, &bet.SettledAt, &bet.ReturnAmount, &bet.CreatedAt, &bet.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrUnknownBet
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}

	return bet, nil
}

// GetByRaceID retrieves all bets for a specific race
func (b *PostgresBetRepository) GetByRaceID(ctx context.Context, raceID string) ([]*models.Bet, error) {
	query := fmt.Sprintf(`SELECT %s FROM bets WHERE race_id = $1 ORDER BY placed_at DESC`, betColumns)

	rows, err := b.db.GetPool().Query(ctx, query, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bets by race: %w", err)
	}
	defer rows.Close()

	return scanBets(rows)
}

// Update updates the settlement fields of an existing bet
func (b *PostgresBetRepository) Update(ctx context.Context, bet *models.Bet) error {
	query := `
		UPDATE bets SET
			status = $2, settled_at = $3, return_amount = $4, updated_at = NOW()
		WHERE id = $1
	`

	commandTag, err := b.db.GetPool().Exec(ctx, query,
		bet.ID, bet.Status, bet.SettledAt, bet.ReturnAmount,
	)
	if err != nil {
		return fmt.Errorf("failed to update bet: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return models.ErrUnknownBet
	}

	return nil
}

// GetPendingBets retrieves all unsettled bets
func (b *PostgresBetRepository) GetPendingBets(ctx context.Context) ([]*models.Bet, error) {
	query := fmt.Sprintf(`SELECT %s FROM bets WHERE status = $1 ORDER BY placed_at ASC`, betColumns)

	rows, err := b.db.GetPool().Query(ctx, query, models.BetStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending bets: %w", err)
	}
	defer rows.Close()

	return scanBets(rows)
}

// GetSettledBets retrieves bets settled within a time window
func (b *PostgresBetRepository) GetSettledBets(ctx context.Context, start, end time.Time) ([]*models.Bet, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bets
		WHERE settled_at IS NOT NULL AND settled_at >= $1 AND settled_at < $2
		ORDER BY settled_at DESC
	`, betColumns)

	rows, err := b.db.GetPool().Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query settled bets: %w", err)
	}
	defer rows.Close()

	return scanBets(rows)
}

func scanBets(rows pgx.Rows) ([]*models.Bet, error) {
	var bets []*models.Bet
	for rows.Next() {
		bet := &models.Bet{}
		err := rows.Scan(
			&bet.ID, &bet.RunnerName, &bet.RaceID, &bet.PlanName, &bet.Odds, &bet.Stake, &bet.Status,
			&bet.PlacedAt, &bet.SettledAt, &bet.ReturnAmount, &bet.CreatedAt, &bet.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}

	return bets, rows.Err()
}
