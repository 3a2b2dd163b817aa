package engine

import "errors"

// Taxonomia de erros do core. Toda operação rejeitada retorna (ou embrulha com %w)
// um destes sentinelas, sem deixar mutação parcial de estado.
var (
	ErrInvalidConfiguration     = errors.New("invalid configuration")
	ErrUnauthorized             = errors.New("unauthorized")
	ErrGameNotActive            = errors.New("game not active")
	ErrGameNotFinalized         = errors.New("game not finalized")
	ErrInvalidBet               = errors.New("invalid bet")
	ErrAlreadyBet               = errors.New("bet already placed")
	ErrInvalidOption            = errors.New("invalid option")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrInsufficientPoolCoverage = errors.New("insufficient pool coverage")
	ErrNotAWinner               = errors.New("not a winner")
	ErrAlreadyClaimed           = errors.New("prize already claimed")
	ErrUnclaimedPrizes          = errors.New("unclaimed prizes outstanding")
	ErrInsufficientFunds        = errors.New("insufficient funds")
	ErrTransferFailure          = errors.New("transfer failure")
	ErrGameNotFound             = errors.New("game not found")
)
