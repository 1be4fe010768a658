package ledger

import "github.com/yourusername/puntguard/internal/models"

// Summary holds derived performance statistics. Values are recomputed
// from the ledger on every call; nothing here is cached.
type Summary struct {
	Balance      float64 `json:"balance"`
	Initial      float64 `json:"initial"`
	Exposure     float64 `json:"exposure"`
	TotalBets    int     `json:"total_bets"`
	PendingBets  int     `json:"pending_bets"`
	SettledBets  int     `json:"settled_bets"`
	WinningBets  int     `json:"winning_bets"`
	TotalStakes  float64 `json:"total_stakes"`
	TotalReturns float64 `json:"total_returns"`
	ProfitLoss   float64 `json:"profit_loss"`
	WinRate      float64 `json:"win_rate"`
	ROI          float64 `json:"roi"`
	Growth       float64 `json:"growth"`
}

// Summary derives read-only performance statistics from the ledger.
// Win rate and ROI consider won and lost bets only; voids refunded the
// stake and carry no information about performance.
func (l *Ledger) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Summary{
		Balance:   l.balance,
		Initial:   l.initial,
		Exposure:  l.exposure,
		TotalBets: len(l.order),
	}

	for _, id := range l.order {
		bet := l.bets[id]
		switch bet.Status {
		case models.BetStatusPending:
			s.PendingBets++
		case models.BetStatusWon:
			s.SettledBets++
			s.WinningBets++
			s.TotalStakes += bet.Stake
			s.TotalReturns += bet.Return()
		case models.BetStatusLost:
			s.SettledBets++
			s.TotalStakes += bet.Stake
		}
	}

	s.ProfitLoss = s.TotalReturns - s.TotalStakes
	if s.SettledBets > 0 {
		s.WinRate = float64(s.WinningBets) / float64(s.SettledBets) * 100
	}
	if s.TotalStakes > 0 {
		s.ROI = s.ProfitLoss / s.TotalStakes * 100
	}
	if l.initial > 0 {
		s.Growth = (l.balance - l.initial) / l.initial
	}

	return s
}
