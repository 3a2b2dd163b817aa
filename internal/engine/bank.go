package engine

import (
	"context"
	"sync"
)

// Bank abstrai a movimentação de fundos entre contas (jogadores, criador,
// dono do registry e a conta de cada jogo). Toda transferência é falível:
// o chamador é responsável por reverter mutações de estado quando ela falha.
type Bank interface {
	Deposit(ctx context.Context, account string, amountCents int64) error
	Transfer(ctx context.Context, from, to string, amountCents int64) error
	Balance(ctx context.Context, account string) (int64, error)
}

// MemBank é a implementação em memória usada pelo game-service e pelos testes.
type MemBank struct {
	mu       sync.Mutex
	balances map[string]int64
}

func NewMemBank() *MemBank {
	return &MemBank{balances: make(map[string]int64)}
}

func (b *MemBank) Deposit(_ context.Context, account string, amountCents int64) error {
	if account == "" || amountCents <= 0 {
		return ErrInvalidAmount
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[account] += amountCents
	return nil
}

func (b *MemBank) Transfer(_ context.Context, from, to string, amountCents int64) error {
	if from == "" || to == "" || amountCents <= 0 {
		return ErrInvalidAmount
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.balances[from] < amountCents {
		return ErrInsufficientFunds
	}
	b.balances[from] -= amountCents
	b.balances[to] += amountCents
	return nil
}

func (b *MemBank) Balance(_ context.Context, account string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[account], nil
}
