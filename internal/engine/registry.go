package engine

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// GameEntry é o registro de diretório de um jogo criado via registry.
// Append-only, exceto pela flag IsActive (dica de descoberta, não afeta a
// fase do jogo em si).
type GameEntry struct {
	ID        int64
	Game      *Game
	Address   string
	Creator   string
	Question  string
	CreatedAt time.Time
	IsActive  bool
}

// Registry cria jogos, desconta a taxa de criação e mantém o diretório por
// id sequencial e por criador. O dono corrente do registry é o árbitro de
// todos os jogos que ele criou (resolvido ao vivo em Game.Finalize).
type Registry struct {
	mu         sync.RWMutex
	owner      string
	feePercent int64
	nextID     int64
	games      map[int64]*GameEntry
	byCreator  map[string][]int64

	bank Bank
	sink Sink
	log  []Notification
}

// NewRegistry monta um registry com taxa fixa (0..100%).
func NewRegistry(owner string, feePercent int64, bank Bank, sink Sink) (*Registry, error) {
	if owner == "" || bank == nil {
		return nil, ErrInvalidConfiguration
	}
	if feePercent < 0 || feePercent > 100 {
		return nil, ErrInvalidConfiguration
	}
	if sink == nil {
		sink = NopSink{}
	}
	return &Registry{
		owner:      owner,
		feePercent: feePercent,
		nextID:     1,
		games:      make(map[int64]*GameEntry),
		byCreator:  make(map[string][]int64),
		bank:       bank,
		sink:       sink,
	}, nil
}

func (r *Registry) Owner() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.owner
}

func (r *Registry) FeePercent() int64 { return r.feePercent }

// UpdateOwner troca o dono do registry. Efeito imediato e retroativo: o novo
// dono passa a poder finalizar todos os jogos já criados.
func (r *Registry) UpdateOwner(caller, newOwner string) error {
	if newOwner == "" {
		return ErrInvalidConfiguration
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if caller != r.owner {
		return ErrUnauthorized
	}
	r.owner = newOwner
	return nil
}

// CreateGame valida os argumentos, cobra a taxa e constrói o jogo com o
// restante como pool inicial, tudo como uma unidade: a sequência de
// transferências é ordenada para que nenhuma possa falhar depois que a
// primeira (única falível) foi aceita.
func (r *Registry) CreateGame(ctx context.Context, caller, question string, options []string, odds []int64, amountCents int64) (GameEntry, error) {
	if caller == "" || question == "" || amountCents <= 0 {
		return GameEntry{}, ErrInvalidConfiguration
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Valida a configuração ANTES de mover qualquer fundo.
	g, err := newGame(GameConfig{
		Creator:  caller,
		Question: question,
		Options:  options,
		Odds:     odds,
	}, r, r.bank, r.sink)
	if err != nil {
		return GameEntry{}, err
	}

	fee := amountCents * r.feePercent / 100

	// 1) valor integral sai do criador para a conta do jogo (única etapa falível)
	if err := r.bank.Transfer(ctx, caller, g.account, amountCents); err != nil {
		return GameEntry{}, fmt.Errorf("%w: %w", ErrTransferFailure, err)
	}
	// 2) taxa segue da conta do jogo para o dono; o saldo acabou de entrar
	if fee > 0 {
		if err := r.bank.Transfer(ctx, g.account, r.owner, fee); err != nil {
			return GameEntry{}, fmt.Errorf("%w: %w", ErrTransferFailure, err)
		}
	}

	id := r.nextID
	r.nextID++
	g.id = id
	g.seedPool(ctx, amountCents-fee)

	e := &GameEntry{
		ID:        id,
		Game:      g,
		Address:   g.account,
		Creator:   caller,
		Question:  question,
		CreatedAt: time.Now(),
		IsActive:  true,
	}
	r.games[id] = e
	r.byCreator[caller] = append(r.byCreator[caller], id)

	n := Notification{
		Kind:        NotifGameCreated,
		GameID:      id,
		Address:     g.account,
		Creator:     caller,
		Question:    question,
		AmountCents: amountCents - fee,
		Ts:          time.Now(),
	}
	r.log = append(r.log, n)
	r.sink.Emit(ctx, n)

	return *e, nil
}

// MarkGameInactive limpa a flag de descoberta de um jogo. Só o criador
// original pode chamar; a fase do jogo não muda.
func (r *Registry) MarkGameInactive(caller string, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.games[id]
	if !ok {
		return ErrGameNotFound
	}
	if caller != e.Creator {
		return ErrUnauthorized
	}
	e.IsActive = false
	return nil
}

// Entry retorna o registro de diretório de um jogo por id.
func (r *Registry) Entry(id int64) (GameEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.games[id]
	if !ok {
		return GameEntry{}, false
	}
	return *e, true
}

// GamesByCreator lista, em ordem de criação, os jogos de um criador.
func (r *Registry) GamesByCreator(creator string) []GameEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byCreator[creator]
	out := make([]GameEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, *r.games[id])
	}
	return out
}

// List retorna todos os registros por id crescente.
func (r *Registry) List() []GameEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]GameEntry, 0, len(r.games))
	for id := int64(1); id < r.nextID; id++ {
		if e, ok := r.games[id]; ok {
			out = append(out, *e)
		}
	}
	return out
}

// Events retorna o log ordenado de notificações GameCreated deste registry.
func (r *Registry) Events() []Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Notification, len(r.log))
	copy(out, r.log)
	return out
}
