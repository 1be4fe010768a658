package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/yourusername/puntguard/internal/models"
)

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	plan, err := s.resolvePlan(req.Plan)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	rec, err := s.ledger.EvaluateOpportunity(req.Probability, req.Odds, plan)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, EvaluateResponse{
		Accept: rec.Accepted,
		Stake:  rec.Stake,
		Edge:   rec.Edge,
		Reason: rec.Reason,
	})
}

func (s *Server) handlePlaceBet(w http.ResponseWriter, r *http.Request) {
	var req PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if req.RunnerName == "" || req.RaceID == "" {
		writeError(w, http.StatusBadRequest, "runner_name and race_id are required", "")
		return
	}

	plan, err := s.resolvePlan(req.Plan)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	bet, err := s.ledger.PlaceBet(r.Context(), models.BetCandidate{
		RunnerName: req.RunnerName,
		RaceID:     req.RaceID,
		PlanName:   plan.Name,
		Odds:       req.Odds,
		Stake:      req.Stake,
		Limits:     plan.Risk,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, bet)
}

func (s *Server) handleGetBet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid bet id", "")
		return
	}

	bet, err := s.ledger.GetBet(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bet)
}

func (s *Server) handleListBets(w http.ResponseWriter, r *http.Request) {
	bets := s.ledger.Bets()
	if r.URL.Query().Get("status") == string(models.BetStatusPending) {
		bets = s.ledger.PendingBets()
	}
	writeJSON(w, http.StatusOK, bets)
}

func (s *Server) handleSettleBet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid bet id", "")
		return
	}

	var req SettleBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	bet, err := s.ledger.SettleBet(r.Context(), id, req.Outcome, req.ReturnAmount)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bet)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum := s.ledger.Summary()
	writeJSON(w, http.StatusOK, SummaryResponse{
		Balance:     sum.Balance,
		Initial:     sum.Initial,
		Exposure:    sum.Exposure,
		TotalBets:   sum.TotalBets,
		PendingBets: sum.PendingBets,
		SettledBets: sum.SettledBets,
		WinRate:     sum.WinRate,
		ROI:         sum.ROI,
		Growth:      sum.Growth,
	})
}

// resolvePlan looks up the named staking plan, falling back to the
// configured default when the name is empty.
func (s *Server) resolvePlan(name string) (models.StakingPlan, error) {
	if name == "" {
		return s.cfg.DefaultPlan()
	}
	return s.cfg.Plan(name)
}

// writeDomainError maps core error types onto HTTP status codes
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	if rle, ok := models.AsRiskLimitError(err); ok {
		writeError(w, http.StatusUnprocessableEntity, "risk limit exceeded", rle.Reason)
		return
	}

	switch {
	case errors.Is(err, models.ErrInvalidOdds), errors.Is(err, models.ErrInvalidProbability),
		errors.Is(err, models.ErrInvalidStake), errors.Is(err, models.ErrInvalidReturn):
		writeError(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, models.ErrUnknownBet):
		writeError(w, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, models.ErrAlreadySettled), errors.Is(err, models.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, err.Error(), "")
	default:
		s.logger.WithError(err).Error("Unhandled error in API handler")
		writeError(w, http.StatusInternalServerError, "internal error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message, reason string) {
	writeJSON(w, status, ErrorResponse{Error: message, Reason: reason})
}
