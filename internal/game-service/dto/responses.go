package dto

import "time"

type BalanceResponse struct {
	Account      string `json:"account"`
	BalanceCents int64  `json:"balance_cents"`
}

// GameSummary é a visão de diretório de um jogo (registro do registry).
type GameSummary struct {
	GameID    int64     `json:"game_id"`
	Address   string    `json:"address"`
	Creator   string    `json:"creator"`
	Question  string    `json:"question"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
	Phase     string    `json:"phase"`
	PoolCents int64     `json:"pool_cents"`
}

// GameDetail inclui o estado contábil completo de um jogo.
type GameDetail struct {
	GameSummary
	Options           []string `json:"options"`
	Odds              []int64  `json:"odds"`
	FinalOption       int      `json:"final_option,omitempty"`
	WinnerCount       int      `json:"winner_count"`
	ClaimedCount      int      `json:"claimed_count"`
	LiabilityByOption []int64  `json:"liability_by_option"`
	MaxLiability      int64    `json:"max_liability"`
}

type BetResponse struct {
	GameID     int64  `json:"game_id"`
	Player     string `json:"player"`
	Option     int    `json:"option"`
	StakeCents int64  `json:"stake_cents"`
	Status     string `json:"status"`
}

type ClaimResponse struct {
	GameID      int64  `json:"game_id"`
	Player      string `json:"player"`
	AmountCents int64  `json:"amount_cents"`
}

type WithdrawResponse struct {
	GameID      int64 `json:"game_id"`
	AmountCents int64 `json:"amount_cents"`
}
