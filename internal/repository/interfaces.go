package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/puntguard/internal/models"
)

// BetRepository defines the interface for bet data access
type BetRepository interface {
	Create(ctx context.Context, bet *models.Bet) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Bet, error)
	GetByRaceID(ctx context.Context, raceID string) ([]*models.Bet, error)
	Update(ctx context.Context, bet *models.Bet) error
	GetPendingBets(ctx context.Context) ([]*models.Bet, error)
	GetSettledBets(ctx context.Context, start, end time.Time) ([]*models.Bet, error)
}

// BankrollRepository defines the interface for bankroll snapshot persistence
type BankrollRepository interface {
	Insert(ctx context.Context, snapshot *models.BankrollSnapshot) error
	GetLatest(ctx context.Context) (*models.BankrollSnapshot, error)
	GetRange(ctx context.Context, start, end time.Time) ([]*models.BankrollSnapshot, error)
}
