package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yourusername/arb-hedger/internal/models"
	"github.com/yourusername/arb-hedger/internal/service"
)

// OpportunitiesResponse lists active opportunities, best first
type OpportunitiesResponse struct {
	Opportunities []*models.ArbitrageOpportunity `json:"opportunities"`
	Count         int                            `json:"count"`
}

// EligibilityResponse is the sportsbook intersection for jurisdictions
type EligibilityResponse struct {
	Jurisdictions []string `json:"jurisdictions"`
	Bookmakers    []string `json:"bookmakers"`
}

// BetUpdate toggles tracking or settles a bet; at least one field is required
type BetUpdate struct {
	IsTracked *bool             `json:"is_tracked,omitempty"`
	Status    *models.BetStatus `json:"status,omitempty"`
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return models.InvalidInputf("invalid request body: %v", err)
	}
	return nil
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var filter service.ScanFilter
	if err := decodeJSON(r, &filter); err != nil {
		s.respondError(w, r, err)
		return
	}
	est, err := s.deps.Scans.Estimate(filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, est)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req service.ScanRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	req.Actor = actorFrom(r)

	result, err := s.deps.Scans.Scan(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	opps, err := s.deps.Opportunities.ListActive(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if opps == nil {
		opps = []*models.ArbitrageOpportunity{}
	}
	respondJSON(w, http.StatusOK, OpportunitiesResponse{Opportunities: opps, Count: len(opps)})
}

// handleEligibility accepts repeated or comma-separated jurisdiction params
func (s *Server) handleEligibility(w http.ResponseWriter, r *http.Request) {
	var jurisdictions []string
	for _, v := range r.URL.Query()["jurisdiction"] {
		for _, j := range strings.Split(v, ",") {
			if j = strings.TrimSpace(j); j != "" {
				jurisdictions = append(jurisdictions, j)
			}
		}
	}

	books, err := s.deps.Eligibility.EligibleBookmakers(jurisdictions)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, EligibilityResponse{Jurisdictions: jurisdictions, Bookmakers: books})
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.deps.Jobs.Status())
}

func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	run, err := s.deps.Jobs.Trigger(r.Context(), chi.URLParam(r, "name"), actorFrom(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, run)
}

func (s *Server) handleCreateBet(w http.ResponseWriter, r *http.Request) {
	var bet models.UserBet
	if err := decodeJSON(r, &bet); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.deps.Bets.Create(r.Context(), actorFrom(r), &bet); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, bet)
}

func (s *Server) handleUpdateBet(w http.ResponseWriter, r *http.Request) {
	id, err := betID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var upd BetUpdate
	if err := decodeJSON(r, &upd); err != nil {
		s.respondError(w, r, err)
		return
	}
	if upd.IsTracked == nil && upd.Status == nil {
		s.respondError(w, r, models.InvalidInputf("is_tracked or status is required"))
		return
	}

	actor := actorFrom(r)
	var bet *models.UserBet
	if upd.Status != nil {
		if bet, err = s.deps.Bets.Settle(r.Context(), actor, id, *upd.Status); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	// settling already stops tracking
	if upd.IsTracked != nil && (bet == nil || *upd.IsTracked) {
		if bet, err = s.deps.Bets.SetTracking(r.Context(), actor, id, *upd.IsTracked); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, bet)
}

func (s *Server) handleBetHedges(w http.ResponseWriter, r *http.Request) {
	id, err := betID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	hedges, err := s.deps.Bets.Hedges(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if hedges == nil {
		hedges = []*models.HedgeSuggestion{}
	}
	respondJSON(w, http.StatusOK, hedges)
}

func betID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, models.InvalidInputf("bet id: %v", err)
	}
	return id, nil
}
