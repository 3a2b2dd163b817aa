package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/engine"
	"github.com/radieske/prediction-market-poc/internal/game-service/cache"
	"github.com/radieske/prediction-market-poc/internal/game-service/dto"
	"github.com/radieske/prediction-market-poc/internal/game-service/ws"
)

// Server expõe a API REST do engine de mercados de previsão.
// Dir e Hub são opcionais: sem Redis o diretório responde direto do registry,
// sem hub o endpoint /ws não é registrado.
type Server struct {
	Log      *zap.Logger
	Bank     engine.Bank
	Registry *engine.Registry
	Dir      *cache.Directory
	Hub      *ws.Hub
}

// Router retorna o roteador HTTP com os endpoints REST e o WebSocket
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/v1/accounts/{id}/deposit", s.deposit)
	r.Get("/v1/accounts/{id}", s.balance)

	r.Post("/v1/games", s.createGame)
	r.Get("/v1/games", s.listGames)
	r.Get("/v1/games/{id}", s.getGame)
	r.Get("/v1/games/{id}/players", s.listPlayers)
	r.Get("/v1/games/{id}/winners", s.listWinners)
	r.Get("/v1/games/{id}/events", s.listEvents)

	r.Post("/v1/games/{id}/fund", s.fundPool)
	r.Post("/v1/games/{id}/bets", s.placeBet)
	r.Post("/v1/games/{id}/finalize", s.finalize)
	r.Post("/v1/games/{id}/claims", s.claimPrize)
	r.Post("/v1/games/{id}/withdraw", s.withdrawPool)
	r.Post("/v1/games/{id}/emergency-withdraw", s.emergencyWithdraw)
	r.Post("/v1/games/{id}/deactivate", s.deactivate)

	r.Get("/v1/creators/{id}/games", s.creatorGames)
	r.Post("/v1/registry/owner", s.updateOwner)

	if s.Hub != nil {
		r.Get("/ws", s.Hub.HandleWS)
	}
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr mapeia a taxonomia de erros do engine para status HTTP
func writeErr(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, engine.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrGameNotActive),
		errors.Is(err, engine.ErrGameNotFinalized),
		errors.Is(err, engine.ErrAlreadyBet),
		errors.Is(err, engine.ErrAlreadyClaimed),
		errors.Is(err, engine.ErrNotAWinner),
		errors.Is(err, engine.ErrUnclaimedPrizes):
		return http.StatusConflict
	case errors.Is(err, engine.ErrInsufficientPoolCoverage),
		errors.Is(err, engine.ErrInsufficientFunds),
		errors.Is(err, engine.ErrTransferFailure):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrInvalidConfiguration),
		errors.Is(err, engine.ErrInvalidBet),
		errors.Is(err, engine.ErrInvalidOption),
		errors.Is(err, engine.ErrInvalidAmount):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// entryFromPath resolve o jogo do path param {id} no diretório do registry
func (s *Server) entryFromPath(r *http.Request) (engine.GameEntry, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return engine.GameEntry{}, engine.ErrGameNotFound
	}
	e, ok := s.Registry.Entry(id)
	if !ok {
		return engine.GameEntry{}, engine.ErrGameNotFound
	}
	return e, nil
}

func summarize(e engine.GameEntry) dto.GameSummary {
	return dto.GameSummary{
		GameID:    e.ID,
		Address:   e.Address,
		Creator:   e.Creator,
		Question:  e.Question,
		CreatedAt: e.CreatedAt,
		IsActive:  e.IsActive,
		Phase:     e.Game.Phase().String(),
		PoolCents: e.Game.Pool(),
	}
}

func detail(e engine.GameEntry) dto.GameDetail {
	g := e.Game
	winners, claimed := g.Totals()
	return dto.GameDetail{
		GameSummary:       summarize(e),
		Options:           g.Options(),
		Odds:              g.Odds(),
		FinalOption:       g.FinalOption(),
		WinnerCount:       winners,
		ClaimedCount:      claimed,
		LiabilityByOption: g.LiabilityByOption(),
		MaxLiability:      g.MaxLiability(),
	}
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "id")
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if err := s.Bank.Deposit(r.Context(), account, req.AmountCents); err != nil {
		writeErr(w, err)
		return
	}
	bal, err := s.Bank.Balance(r.Context(), account)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BalanceResponse{Account: account, BalanceCents: bal})
}

func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "id")
	bal, err := s.Bank.Balance(r.Context(), account)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BalanceResponse{Account: account, BalanceCents: bal})
}

func (s *Server) createGame(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}

	entry, err := s.Registry.CreateGame(r.Context(), req.Creator, req.Question, req.Options, req.Odds, req.AmountCents)
	if err != nil {
		writeErr(w, err)
		return
	}

	// listagem por criador muda; derruba o cache de diretório
	if s.Dir != nil {
		if err := s.Dir.InvalidateCreator(r.Context(), req.Creator); err != nil {
			s.Log.Warn("directory cache invalidate failed", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusCreated, detail(entry))
}

func (s *Server) listGames(w http.ResponseWriter, r *http.Request) {
	entries := s.Registry.List()
	out := make([]dto.GameSummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, summarize(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getGame(w http.ResponseWriter, r *http.Request) {
	e, err := s.entryFromPath(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail(e))
}

func (s *Server) creatorGames(w http.ResponseWriter, r *http.Request) {
	creator := chi.URLParam(r, "id")

	if s.Dir != nil {
		var cached []dto.GameSummary
		if ok, _ := s.Dir.GetCreatorGames(r.Context(), creator, &cached); ok {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	entries := s.Registry.GamesByCreator(creator)
	out := make([]dto.GameSummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, summarize(e))
	}

	if s.Dir != nil {
		_ = s.Dir.SetCreatorGames(r.Context(), creator, out, 30*time.Second)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) fundPool(w http.ResponseWriter, r *http.Request) {
	e, err := s.entryFromPath(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var req dto.FundPoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if err := e.Game.FundPool(r.Context(), req.Caller, req.AmountCents); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(mustEntry(s, e.ID)))
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	e, err := s.entryFromPath(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if err := e.Game.PlaceBet(r.Context(), req.Player, req.Option, req.StakeCents); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.BetResponse{
		GameID:     e.ID,
		Player:     req.Player,
		Option:     req.Option,
		StakeCents: req.StakeCents,
		Status:     "ACCEPTED",
	})
}

func (s *Server) finalize(w http.ResponseWriter, r *http.Request) {
	e, err := s.entryFromPath(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var req dto.FinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if err := e.Game.Finalize(r.Context(), req.Caller, req.Option); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail(mustEntry(s, e.ID)))
}

func (s *Server) claimPrize(w http.ResponseWriter, r *http.Request) {
	e, err := s.entryFromPath(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var req dto.ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	amount, err := e.Game.ClaimPrize(r.Context(), req.Player)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ClaimResponse{GameID: e.ID, Player: req.Player, AmountCents: amount})
}

func (s *Server) withdrawPool(w http.ResponseWriter, r *http.Request) {
	e, err := s.entryFromPath(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var req dto.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	amount, err := e.Game.WithdrawRemainingPool(r.Context(), req.Caller)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.WithdrawResponse{GameID: e.ID, AmountCents: amount})
}

func (s *Server) emergencyWithdraw(w http.ResponseWriter, r *http.Request) {
	e, err := s.entryFromPath(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var req dto.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	amount, err := e.Game.EmergencyWithdraw(r.Context(), req.Caller)
	if err != nil {
		writeErr(w, err)
		return
	}
	s.Log.Warn("emergency withdraw executed",
		zap.Int64("gameId", e.ID),
		zap.String("caller", req.Caller),
		zap.Int64("amountCents", amount),
	)
	writeJSON(w, http.StatusOK, dto.WithdrawResponse{GameID: e.ID, AmountCents: amount})
}

func (s *Server) deactivate(w http.ResponseWriter, r *http.Request) {
	e, err := s.entryFromPath(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var req dto.DeactivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if err := s.Registry.MarkGameInactive(req.Caller, e.ID); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(mustEntry(s, e.ID)))
}

func (s *Server) updateOwner(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateOwnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if err := s.Registry.UpdateOwner(req.Caller, req.NewOwner); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"owner": s.Registry.Owner()})
}

func (s *Server) listPlayers(w http.ResponseWriter, r *http.Request) {
	e, err := s.entryFromPath(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e.Game.Players())
}

func (s *Server) listWinners(w http.ResponseWriter, r *http.Request) {
	e, err := s.entryFromPath(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e.Game.Winners())
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	e, err := s.entryFromPath(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e.Game.Events())
}

// mustEntry relê o registro após uma mutação; o id acabou de ser resolvido
func mustEntry(s *Server, id int64) engine.GameEntry {
	e, _ := s.Registry.Entry(id)
	return e
}
