package dto

// Identidade vem no corpo das requisições: o serviço é um PoC sem camada de
// autenticação, igual ao restante da plataforma.

type DepositRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

type CreateGameRequest struct {
	Creator     string   `json:"creator"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Odds        []int64  `json:"odds"` // percentual por opção: payout = stake * odd / 100
	AmountCents int64    `json:"amount_cents"`
}

type FundPoolRequest struct {
	Caller      string `json:"caller"`
	AmountCents int64  `json:"amount_cents"`
}

type PlaceBetRequest struct {
	Player     string `json:"player"`
	Option     int    `json:"option"` // 1-indexed
	StakeCents int64  `json:"stake_cents"`
}

type FinalizeRequest struct {
	Caller string `json:"caller"`
	Option int    `json:"option"`
}

type ClaimRequest struct {
	Player string `json:"player"`
}

type WithdrawRequest struct {
	Caller string `json:"caller"`
}

type DeactivateRequest struct {
	Caller string `json:"caller"`
}

type UpdateOwnerRequest struct {
	Caller   string `json:"caller"`
	NewOwner string `json:"new_owner"`
}
