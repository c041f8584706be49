package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/mcdev12/gridiron/go/internal/models"
	"github.com/mcdev12/gridiron/go/internal/roster"
	"github.com/mcdev12/gridiron/go/internal/scheduler"
	"github.com/mcdev12/gridiron/go/internal/sync"
	"github.com/mcdev12/gridiron/go/internal/trades"
	"github.com/rs/zerolog/log"
)

// apiServer exposes the on-demand surfaces: sync runs, trade lifecycle and
// roster moves. The settlement passes themselves stay scheduler-driven; the
// API can only wake the scheduler early.
type apiServer struct {
	sync      *sync.Orchestrator
	trades    *trades.App
	roster    *roster.App
	scheduler *scheduler.Scheduler
}

func (s *apiServer) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/sync", s.handleSync)
	mux.HandleFunc("POST /v1/sync/fetch", s.handleFetch)
	mux.HandleFunc("POST /v1/trades", s.handleTradeOffer)
	mux.HandleFunc("POST /v1/trades/accept", s.handleTradeAccept)
	mux.HandleFunc("POST /v1/trades/reject", s.handleTradeReject)
	mux.HandleFunc("POST /v1/trades/cancel", s.handleTradeCancel)
	mux.HandleFunc("POST /v1/trades/veto", s.handleTradeVeto)
	mux.HandleFunc("POST /v1/roster/activate", s.rosterMove(s.roster.Activate))
	mux.HandleFunc("POST /v1/roster/deactivate", s.rosterMove(s.roster.Deactivate))
	mux.HandleFunc("POST /v1/roster/reserve", s.rosterMove(s.roster.ReserveIR))
	mux.HandleFunc("POST /v1/roster/release", s.rosterMove(s.roster.Release))
	mux.HandleFunc("POST /v1/roster/extend", s.rosterMove(s.roster.Extend))
	mux.HandleFunc("POST /v1/roster/tag", s.handleTag)
	mux.HandleFunc("POST /v1/settle", s.handleSettle)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *apiServer) handleSync(w http.ResponseWriter, r *http.Request) {
	var params sync.Params
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := s.sync.Sync(r.Context(), params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleFetch(w http.ResponseWriter, r *http.Request) {
	var params sync.Params
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := s.sync.FetchLeagueData(r.Context(), params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleTradeOffer(w http.ResponseWriter, r *http.Request) {
	var params trades.OfferParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	trade, err := s.trades.Offer(r.Context(), params)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusCreated, trade)
}

type tradeActionRequest struct {
	TradeID uuid.UUID `json:"trade_id"`
}

func (s *apiServer) tradeAction(w http.ResponseWriter, r *http.Request,
	action func(r *http.Request, tradeID uuid.UUID) error) {
	var req tradeActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := action(r, req.TradeID); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleTradeAccept(w http.ResponseWriter, r *http.Request) {
	s.tradeAction(w, r, func(r *http.Request, id uuid.UUID) error {
		return s.trades.Accept(r.Context(), id)
	})
}

func (s *apiServer) handleTradeReject(w http.ResponseWriter, r *http.Request) {
	s.tradeAction(w, r, func(r *http.Request, id uuid.UUID) error {
		return s.trades.Reject(r.Context(), id)
	})
}

func (s *apiServer) handleTradeCancel(w http.ResponseWriter, r *http.Request) {
	s.tradeAction(w, r, func(r *http.Request, id uuid.UUID) error {
		return s.trades.Cancel(r.Context(), id)
	})
}

func (s *apiServer) handleTradeVeto(w http.ResponseWriter, r *http.Request) {
	s.tradeAction(w, r, func(r *http.Request, id uuid.UUID) error {
		return s.trades.Veto(r.Context(), id)
	})
}

type rosterMoveRequest struct {
	LeagueID uuid.UUID `json:"league_id"`
	TeamID   uuid.UUID `json:"team_id"`
	PlayerID uuid.UUID `json:"player_id"`
	Week     int       `json:"week"`
	Year     int       `json:"year"`
}

func (s *apiServer) rosterMove(move func(ctx context.Context, leagueID, teamID, playerID uuid.UUID, week, year int) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rosterMoveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := move(r.Context(), req.LeagueID, req.TeamID, req.PlayerID, req.Week, req.Year); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type tagRequest struct {
	rosterMoveRequest
	Tag models.Tag `json:"tag"`
}

func (s *apiServer) handleTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.roster.ApplyTag(r.Context(), req.LeagueID, req.TeamID, req.PlayerID, req.Tag, req.Week, req.Year); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSettle wakes the scheduler for an immediate settlement pass.
func (s *apiServer) handleSettle(w http.ResponseWriter, r *http.Request) {
	s.scheduler.Wake()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}
