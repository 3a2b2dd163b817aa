package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Phase int

const (
	PhaseActive Phase = iota
	PhaseFinalized
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "ACTIVE"
	case PhaseFinalized:
		return "FINALIZED"
	}
	return "UNKNOWN"
}

// Bet é o registro de aposta de um participante: no máximo uma por jogo.
type Bet struct {
	Option     int // 1-indexed
	StakeCents int64
	Claimed    bool
}

// GameConfig são os argumentos de construção de um jogo.
type GameConfig struct {
	Creator      string
	Question     string
	Options      []string
	Odds         []int64 // percentual: payout = stake * odds / 100
	FundingCents int64
}

// Game é uma instância de mercado de previsão com odds fixas.
//
// O pool é contabilidade interna, distinta do saldo bancário da conta do jogo:
// stakes de apostas creditam o saldo mas nunca o pool; prêmios debitam ambos.
// Toda operação pública é atômica em relação às demais no mesmo Game (mutex
// único), e mutações são revertidas integralmente se a transferência bancária
// associada falhar.
type Game struct {
	mu sync.Mutex

	id       int64
	account  string
	creator  string
	registry *Registry // árbitro = dono corrente do registry, resolvido a cada Finalize
	question string
	options  []string
	odds     []int64

	pool   int64
	ledger oddsLedger

	bets    map[string]*Bet
	order   []string // ordem de inserção das apostas
	winners []string

	winnerCount  int
	claimedCount int
	finalOption  int // 1-indexed, zerado até finalizar

	phase  Phase
	active bool

	bank Bank
	sink Sink
	log  []Notification
}

// NewGame constrói um jogo standalone. Se FundingCents > 0, transfere o valor
// da conta do criador para a conta do jogo e marca o jogo como ativado.
// Jogos criados via Registry.CreateGame usam o mesmo caminho interno.
func NewGame(ctx context.Context, cfg GameConfig, reg *Registry, bank Bank, sink Sink) (*Game, error) {
	g, err := newGame(cfg, reg, bank, sink)
	if err != nil {
		return nil, err
	}
	if cfg.FundingCents > 0 {
		if err := bank.Transfer(ctx, cfg.Creator, g.account, cfg.FundingCents); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransferFailure, err)
		}
		g.seedPool(ctx, cfg.FundingCents)
	}
	return g, nil
}

// newGame valida a configuração e monta o jogo sem mover fundos.
func newGame(cfg GameConfig, reg *Registry, bank Bank, sink Sink) (*Game, error) {
	if cfg.Creator == "" || len(cfg.Options) == 0 || len(cfg.Options) > MaxOptions {
		return nil, ErrInvalidConfiguration
	}
	if len(cfg.Odds) != len(cfg.Options) {
		return nil, ErrInvalidConfiguration
	}
	for _, o := range cfg.Odds {
		if o <= 0 {
			return nil, ErrInvalidConfiguration
		}
	}
	if cfg.FundingCents < 0 {
		return nil, ErrInvalidConfiguration
	}
	if bank == nil {
		return nil, ErrInvalidConfiguration
	}
	if sink == nil {
		sink = NopSink{}
	}

	options := make([]string, len(cfg.Options))
	copy(options, cfg.Options)
	odds := make([]int64, len(cfg.Odds))
	copy(odds, cfg.Odds)

	return &Game{
		account:  "game:" + uuid.NewString(),
		creator:  cfg.Creator,
		registry: reg,
		question: cfg.Question,
		options:  options,
		odds:     odds,
		ledger:   newOddsLedger(len(options)),
		bets:     make(map[string]*Bet),
		phase:    PhaseActive,
		bank:     bank,
		sink:     sink,
	}, nil
}

// seedPool credita o pool após os fundos já estarem na conta do jogo.
func (g *Game) seedPool(ctx context.Context, amountCents int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pool += amountCents
	g.active = true
	g.emit(ctx, Notification{Kind: NotifPoolFunded, GameID: g.id, AmountCents: amountCents})
}

// FundPool adiciona fundos ao pool. Só o criador pode chamar.
// Nota: a operação não é bloqueada por fase — o design original aceita funding
// mesmo depois de finalizado, e esse comportamento é preservado aqui.
func (g *Game) FundPool(ctx context.Context, caller string, amountCents int64) error {
	if amountCents <= 0 {
		return ErrInvalidAmount
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if caller != g.creator {
		return ErrUnauthorized
	}
	if err := g.bank.Transfer(ctx, caller, g.account, amountCents); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailure, err)
	}
	g.pool += amountCents
	g.active = true
	g.emit(ctx, Notification{Kind: NotifPoolFunded, GameID: g.id, AmountCents: amountCents})
	return nil
}

// PlaceBet aceita uma aposta de stakeCents na opção option (1-indexed).
//
// Invariante de solvência: após toda aposta aceita, o pool cobre a maior
// responsabilidade contingente entre as opções — isto é, seja qual for a opção
// vencedora, todo prêmio já prometido pode ser pago. O prêmio usa divisão
// inteira truncada (sempre a favor do pool) e é o mesmo valor, bit a bit,
// pago depois em ClaimPrize.
func (g *Game) PlaceBet(ctx context.Context, caller string, option int, stakeCents int64) error {
	if caller == "" || stakeCents <= 0 {
		return ErrInvalidBet
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseActive {
		return ErrGameNotActive
	}
	if option < 1 || option > len(g.options) {
		return ErrInvalidBet
	}
	if _, dup := g.bets[caller]; dup {
		return ErrAlreadyBet
	}

	idx := option - 1
	prize := stakeCents * g.odds[idx] / 100
	if g.ledger.maxWith(idx, prize) > g.pool {
		return ErrInsufficientPoolCoverage
	}

	// Stake entra no saldo da conta do jogo, não no pool.
	if err := g.bank.Transfer(ctx, caller, g.account, stakeCents); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailure, err)
	}

	g.ledger.add(idx, prize)
	g.bets[caller] = &Bet{Option: option, StakeCents: stakeCents}
	g.order = append(g.order, caller)
	g.emit(ctx, Notification{Kind: NotifBetPlaced, GameID: g.id, Player: caller, Option: option, AmountCents: stakeCents})
	return nil
}

// Finalize encerra o jogo na opção vencedora. Só o dono corrente do registry
// (árbitro) pode chamar — resolvido ao vivo, então trocar o dono do registry
// reatribui o direito de finalizar todos os jogos já criados. Transição
// terminal: não há re-finalização nem reversão.
func (g *Game) Finalize(ctx context.Context, caller string, option int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.registry == nil || caller != g.registry.Owner() {
		return ErrUnauthorized
	}
	if g.phase != PhaseActive {
		return ErrGameNotActive
	}
	if option < 1 || option > len(g.options) {
		return ErrInvalidOption
	}

	g.phase = PhaseFinalized
	g.finalOption = option
	g.claimedCount = 0
	g.winners = g.winners[:0]
	for _, p := range g.order {
		if g.bets[p].Option == option {
			g.winners = append(g.winners, p)
		}
	}
	g.winnerCount = len(g.winners)
	g.emit(ctx, Notification{Kind: NotifGameFinalized, GameID: g.id, Option: option})
	return nil
}

// ClaimPrize paga o prêmio de um vencedor, exatamente uma vez.
func (g *Game) ClaimPrize(ctx context.Context, caller string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseFinalized {
		return 0, ErrGameNotFinalized
	}
	b, ok := g.bets[caller]
	if !ok || b.Option != g.finalOption {
		return 0, ErrNotAWinner
	}
	if b.Claimed {
		return 0, ErrAlreadyClaimed
	}

	prize := b.StakeCents * g.odds[g.finalOption-1] / 100

	// Defensivo: o invariante de solvência garante cobertura pelo pool, mas o
	// saldo real pode ter sido drenado por EmergencyWithdraw.
	bal, err := g.bank.Balance(ctx, g.account)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransferFailure, err)
	}
	if bal < prize {
		return 0, ErrInsufficientFunds
	}

	// Mutação primeiro, transferência depois; falha reverte tudo.
	b.Claimed = true
	g.claimedCount++
	g.pool -= prize
	if err := g.bank.Transfer(ctx, g.account, caller, prize); err != nil {
		b.Claimed = false
		g.claimedCount--
		g.pool += prize
		return 0, fmt.Errorf("%w: %w", ErrTransferFailure, err)
	}
	g.emit(ctx, Notification{Kind: NotifPrizeClaimed, GameID: g.id, Player: caller, AmountCents: prize})
	return prize, nil
}

// WithdrawRemainingPool devolve ao criador o que sobrou do pool, somente
// depois que todos os vencedores sacaram — protege os prêmios ainda devidos.
func (g *Game) WithdrawRemainingPool(ctx context.Context, caller string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if caller != g.creator {
		return 0, ErrUnauthorized
	}
	if g.phase != PhaseFinalized {
		return 0, ErrGameNotFinalized
	}
	if g.pool <= 0 {
		return 0, ErrInvalidAmount
	}
	if g.claimedCount != g.winnerCount {
		return 0, ErrUnclaimedPrizes
	}

	amount := g.pool
	g.pool = 0
	if err := g.bank.Transfer(ctx, g.account, caller, amount); err != nil {
		g.pool = amount
		return 0, fmt.Errorf("%w: %w", ErrTransferFailure, err)
	}
	return amount, nil
}

// EmergencyWithdraw varre todo o saldo da conta do jogo para o criador,
// ignorando a proteção de cobertura de vencedores. Operação administrativa
// de circuito de emergência: permitida com o jogo finalizado ou nunca ativado.
// Depois de usada, claims pendentes passam a falhar com ErrInsufficientFunds.
func (g *Game) EmergencyWithdraw(ctx context.Context, caller string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if caller != g.creator {
		return 0, ErrUnauthorized
	}
	if g.phase != PhaseFinalized && g.active {
		return 0, ErrGameNotFinalized
	}

	bal, err := g.bank.Balance(ctx, g.account)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransferFailure, err)
	}
	if bal <= 0 {
		g.pool = 0
		return 0, nil
	}

	prevPool := g.pool
	g.pool = 0
	if err := g.bank.Transfer(ctx, g.account, caller, bal); err != nil {
		g.pool = prevPool
		return 0, fmt.Errorf("%w: %w", ErrTransferFailure, err)
	}
	return bal, nil
}

// emit registra a notificação no log interno e repassa ao sink, dentro da
// seção crítica para preservar a ordem de commit.
func (g *Game) emit(ctx context.Context, n Notification) {
	n.Ts = time.Now()
	g.log = append(g.log, n)
	g.sink.Emit(ctx, n)
}

// --- acessores de leitura ---

func (g *Game) ID() int64       { return g.id }
func (g *Game) Account() string { return g.account }
func (g *Game) Creator() string { return g.creator }

func (g *Game) Question() string {
	return g.question
}

func (g *Game) Options() []string {
	out := make([]string, len(g.options))
	copy(out, g.options)
	return out
}

func (g *Game) Odds() []int64 {
	out := make([]int64, len(g.odds))
	copy(out, g.odds)
	return out
}

func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

func (g *Game) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

func (g *Game) Pool() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pool
}

// FinalOption retorna a opção vencedora (1-indexed) ou 0 se não finalizado.
func (g *Game) FinalOption() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.finalOption
}

func (g *Game) Players() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

func (g *Game) Winners() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.winners))
	copy(out, g.winners)
	return out
}

// Totals retorna (vencedores, claims efetuados).
func (g *Game) Totals() (winners, claimed int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.winnerCount, g.claimedCount
}

// BetOf retorna a aposta de um participante, se existir.
func (g *Game) BetOf(player string) (Bet, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.bets[player]
	if !ok {
		return Bet{}, false
	}
	return *b, true
}

// LiabilityByOption expõe a responsabilidade contingente corrente por opção.
func (g *Game) LiabilityByOption() []int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ledger.snapshot()
}

// MaxLiability é o pior caso que o pool precisa cobrir agora.
func (g *Game) MaxLiability() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ledger.max()
}

// Events retorna o log ordenado de notificações emitidas por este jogo.
func (g *Game) Events() []Notification {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Notification, len(g.log))
	copy(out, g.log)
	return out
}
