package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerAcct   = "acct:owner"
	creatorAcct = "acct:creator"
)

func newTestBank(t *testing.T, accounts map[string]int64) *MemBank {
	t.Helper()
	bank := NewMemBank()
	ctx := context.Background()
	for acct, amount := range accounts {
		require.NoError(t, bank.Deposit(ctx, acct, amount))
	}
	return bank
}

// jogo padrão dos testes: Yes/No com odds 150/150 e pool 1000, criado via registry.
func newTestGame(t *testing.T, bank *MemBank) (*Registry, *Game) {
	t.Helper()
	reg, err := NewRegistry(ownerAcct, 0, bank, nil)
	require.NoError(t, err)
	entry, err := reg.CreateGame(context.Background(), creatorAcct, "Vai chover amanhã?",
		[]string{"Yes", "No"}, []int64{150, 150}, 1000)
	require.NoError(t, err)
	return reg, entry.Game
}

func TestPlaceBet_SolvencyScenario(t *testing.T) {
	ctx := context.Background()
	bank := newTestBank(t, map[string]int64{
		creatorAcct: 1000,
		"acct:x":    300,
		"acct:y":    500,
		"acct:z":    300,
	})
	_, g := newTestGame(t, bank)

	require.NoError(t, g.PlaceBet(ctx, "acct:x", 1, 300)) // prêmio 450
	assert.Equal(t, []int64{450, 0}, g.LiabilityByOption())

	require.NoError(t, g.PlaceBet(ctx, "acct:y", 2, 500)) // prêmio 750
	assert.Equal(t, []int64{450, 750}, g.LiabilityByOption())
	assert.Equal(t, int64(750), g.MaxLiability())

	require.NoError(t, g.PlaceBet(ctx, "acct:z", 1, 300)) // "Yes" vai a 900, ainda <= 1000
	assert.Equal(t, []int64{900, 750}, g.LiabilityByOption())
	assert.LessOrEqual(t, g.MaxLiability(), g.Pool())

	// os stakes entram no saldo da conta do jogo, não no pool
	assert.Equal(t, int64(1000), g.Pool())
	bal, err := bank.Balance(ctx, g.Account())
	require.NoError(t, err)
	assert.Equal(t, int64(2100), bal)
}

func TestPlaceBet_RejectsWhenPoolCannotCover(t *testing.T) {
	ctx := context.Background()
	bank := newTestBank(t, map[string]int64{
		creatorAcct: 1000,
		"acct:x":    5000,
	})
	_, g := newTestGame(t, bank)

	// prêmio seria 1050 > pool 1000
	err := g.PlaceBet(ctx, "acct:x", 1, 700)
	assert.ErrorIs(t, err, ErrInsufficientPoolCoverage)
	assert.Empty(t, g.Players())
	assert.Equal(t, []int64{0, 0}, g.LiabilityByOption())
}

func TestPlaceBet_SecondBetAlwaysRejected(t *testing.T) {
	ctx := context.Background()
	bank := newTestBank(t, map[string]int64{creatorAcct: 1000, "acct:x": 1000})
	_, g := newTestGame(t, bank)

	require.NoError(t, g.PlaceBet(ctx, "acct:x", 1, 100))
	assert.ErrorIs(t, g.PlaceBet(ctx, "acct:x", 1, 100), ErrAlreadyBet)
	assert.ErrorIs(t, g.PlaceBet(ctx, "acct:x", 2, 100), ErrAlreadyBet)
	assert.Len(t, g.Players(), 1)
}

func TestPlaceBet_Validation(t *testing.T) {
	ctx := context.Background()
	bank := newTestBank(t, map[string]int64{creatorAcct: 1000, "acct:x": 1000})
	_, g := newTestGame(t, bank)

	assert.ErrorIs(t, g.PlaceBet(ctx, "acct:x", 0, 100), ErrInvalidBet)
	assert.ErrorIs(t, g.PlaceBet(ctx, "acct:x", 3, 100), ErrInvalidBet)
	assert.ErrorIs(t, g.PlaceBet(ctx, "acct:x", 1, 0), ErrInvalidBet)
	assert.ErrorIs(t, g.PlaceBet(ctx, "acct:x", 1, -5), ErrInvalidBet)

	require.NoError(t, g.Finalize(ctx, ownerAcct, 1))
	assert.ErrorIs(t, g.PlaceBet(ctx, "acct:x", 1, 100), ErrGameNotActive)
}

func TestPlaceBet_StakeTransferFailureLeavesStateIntact(t *testing.T) {
	ctx := context.Background()
	bank := newTestBank(t, map[string]int64{creatorAcct: 1000, "acct:x": 50})
	_, g := newTestGame(t, bank)

	// saldo do apostador não cobre o stake
	err := g.PlaceBet(ctx, "acct:x", 1, 100)
	require.ErrorIs(t, err, ErrTransferFailure)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Empty(t, g.Players())
	assert.Equal(t, int64(0), g.MaxLiability())
}

func TestFinalize_CollectsWinnersInBetOrder(t *testing.T) {
	ctx := context.Background()
	bank := newTestBank(t, map[string]int64{
		creatorAcct: 1000,
		"acct:x":    300, "acct:y": 500, "acct:z": 300,
	})
	_, g := newTestGame(t, bank)
	require.NoError(t, g.PlaceBet(ctx, "acct:x", 1, 300))
	require.NoError(t, g.PlaceBet(ctx, "acct:y", 2, 500))
	require.NoError(t, g.PlaceBet(ctx, "acct:z", 1, 300))

	require.NoError(t, g.Finalize(ctx, ownerAcct, 1))

	assert.Equal(t, PhaseFinalized, g.Phase())
	assert.Equal(t, 1, g.FinalOption())
	assert.Equal(t, []string{"acct:x", "acct:z"}, g.Winners())
	winners, claimed := g.Totals()
	assert.Equal(t, 2, winners)
	assert.Equal(t, 0, claimed)

	// segundo finalize sempre falha
	assert.ErrorIs(t, g.Finalize(ctx, ownerAcct, 2), ErrGameNotActive)
}

func TestFinalize_Authorization(t *testing.T) {
	ctx := context.Background()
	bank := newTestBank(t, map[string]int64{creatorAcct: 1000})
	reg, g := newTestGame(t, bank)

	assert.ErrorIs(t, g.Finalize(ctx, creatorAcct, 1), ErrUnauthorized)
	assert.ErrorIs(t, g.Finalize(ctx, "acct:random", 1), ErrUnauthorized)
	assert.ErrorIs(t, g.Finalize(ctx, ownerAcct, 0), ErrInvalidOption)
	assert.ErrorIs(t, g.Finalize(ctx, ownerAcct, 3), ErrInvalidOption)

	// árbitro é resolvido ao vivo: trocar o dono do registry reatribui o
	// direito de finalizar jogos já criados
	require.NoError(t, reg.UpdateOwner(ownerAcct, "acct:newowner"))
	assert.ErrorIs(t, g.Finalize(ctx, ownerAcct, 1), ErrUnauthorized)
	require.NoError(t, g.Finalize(ctx, "acct:newowner", 1))
}

func TestClaimPrize_ExactlyOnce(t *testing.T) {
	ctx := context.Background()
	bank := newTestBank(t, map[string]int64{
		creatorAcct: 1000,
		"acct:x":    300, "acct:y": 500, "acct:z": 300,
	})
	_, g := newTestGame(t, bank)
	require.NoError(t, g.PlaceBet(ctx, "acct:x", 1, 300))
	require.NoError(t, g.PlaceBet(ctx, "acct:y", 2, 500))
	require.NoError(t, g.PlaceBet(ctx, "acct:z", 1, 300))
	require.NoError(t, g.Finalize(ctx, ownerAcct, 1))

	prize, err := g.ClaimPrize(ctx, "acct:x")
	require.NoError(t, err)
	assert.Equal(t, int64(450), prize)
	assert.Equal(t, int64(550), g.Pool())

	_, err = g.ClaimPrize(ctx, "acct:x")
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	_, err = g.ClaimPrize(ctx, "acct:y")
	assert.ErrorIs(t, err, ErrNotAWinner)
	_, err = g.ClaimPrize(ctx, "acct:ghost")
	assert.ErrorIs(t, err, ErrNotAWinner)

	prize, err = g.ClaimPrize(ctx, "acct:z")
	require.NoError(t, err)
	assert.Equal(t, int64(450), prize)
	assert.Equal(t, int64(100), g.Pool())

	winners, claimed := g.Totals()
	assert.Equal(t, winners, claimed)

	balX, _ := bank.Balance(ctx, "acct:x")
	assert.Equal(t, int64(450), balX) // stake já tinha saído, prêmio entrou
}

func TestClaimPrize_RequiresFinalized(t *testing.T) {
	ctx := context.Background()
	bank := newTestBank(t, map[string]int64{creatorAcct: 1000, "acct:x": 300})
	_, g := newTestGame(t, bank)
	require.NoError(t, g.PlaceBet(ctx, "acct:x", 1, 300))

	_, err := g.ClaimPrize(ctx, "acct:x")
	assert.ErrorIs(t, err, ErrGameNotFinalized)
}

func TestClaimPrize_TruncatesTowardZero(t *testing.T) {
	ctx := context.Background()
	bank := newTestBank(t, map[string]int64{creatorAcct: 1000, "acct:x": 333})
	reg, err := NewRegistry(ownerAcct, 0, bank, nil)
	require.NoError(t, err)
	entry, err := reg.CreateGame(ctx, creatorAcct, "q", []string{"A", "B"}, []int64{133, 150}, 1000)
	require.NoError(t, err)
	g := entry.Game

	// 333 * 133 / 100 = 442.89 -> 442, sempre a favor do pool
	require.NoError(t, g.PlaceBet(ctx, "acct:x", 1, 333))
	assert.Equal(t, []int64{442, 0}, g.LiabilityByOption())
	require.NoError(t, g.Finalize(ctx, ownerAcct, 1))

	prize, err := g.ClaimPrize(ctx, "acct:x")
	require.NoError(t, err)
	assert.Equal(t, int64(442), prize)
}

func TestClaimPrize_RollbackOnTransferFailure(t *testing.T) {
	ctx := context.Background()
	bank := newTestBank(t, map[string]int64{creatorAcct: 1000, "acct:x": 300})
	failing := &failingBank{Bank: bank}
	reg, err := NewRegistry(ownerAcct, 0, bank, nil)
	require.NoError(t, err)

	g, err := NewGame(ctx, GameConfig{
		Creator:      creatorAcct,
		Question:     "q",
		Options:      []string{"Yes", "No"},
		Odds:         []int64{150, 150},
		FundingCents: 1000,
	}, reg, failing, nil)
	require.NoError(t, err)

	require.NoError(t, g.PlaceBet(ctx, "acct:x", 1, 300))
	require.NoError(t, g.Finalize(ctx, ownerAcct, 1))

	failing.fail = true
	_, err = g.ClaimPrize(ctx, "acct:x")
	require.ErrorIs(t, err, ErrTransferFailure)

	// mutações revertidas por completo
	assert.Equal(t, int64(1000), g.Pool())
	_, claimed := g.Totals()
	assert.Equal(t, 0, claimed)
	b, _ := g.BetOf("acct:x")
	assert.False(t, b.Claimed)

	// com o banco saudável de novo, o claim passa
	failing.fail = false
	prize, err := g.ClaimPrize(ctx, "acct:x")
	require.NoError(t, err)
	assert.Equal(t, int64(450), prize)
}

func TestWithdrawRemainingPool_Gating(t *testing.T) {
	ctx := context.Background()
	bank := newTestBank(t, map[string]int64{
		creatorAcct: 1000,
		"acct:x":    300, "acct:z": 300,
	})
	_, g := newTestGame(t, bank)
	require.NoError(t, g.PlaceBet(ctx, "acct:x", 1, 300))
	require.NoError(t, g.PlaceBet(ctx, "acct:z", 1, 300))

	_, err := g.WithdrawRemainingPool(ctx, creatorAcct)
	assert.ErrorIs(t, err, ErrGameNotFinalized)

	require.NoError(t, g.Finalize(ctx, ownerAcct, 1))

	_, err = g.WithdrawRemainingPool(ctx, "acct:x")
	assert.ErrorIs(t, err, ErrUnauthorized)

	// ainda há vencedores sem sacar
	_, err = g.WithdrawRemainingPool(ctx, creatorAcct)
	assert.ErrorIs(t, err, ErrUnclaimedPrizes)

	_, err = g.ClaimPrize(ctx, "acct:x")
	require.NoError(t, err)
	_, err = g.WithdrawRemainingPool(ctx, creatorAcct)
	assert.ErrorIs(t, err, ErrUnclaimedPrizes)

	_, err = g.ClaimPrize(ctx, "acct:z")
	require.NoError(t, err)

	amount, err := g.WithdrawRemainingPool(ctx, creatorAcct)
	require.NoError(t, err)
	assert.Equal(t, int64(100), amount) // 1000 - 450 - 450
	assert.Equal(t, int64(0), g.Pool())

	// pool vazio: segunda retirada falha
	_, err = g.WithdrawRemainingPool(ctx, creatorAcct)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestEmergencyWithdraw(t *testing.T) {
	ctx := context.Background()
	bank := newTestBank(t, map[string]int64{creatorAcct: 1000, "acct:x": 300})
	_, g := newTestGame(t, bank)
	require.NoError(t, g.PlaceBet(ctx, "acct:x", 1, 300))

	// ativo e não finalizado: bloqueado
	_, err := g.EmergencyWithdraw(ctx, creatorAcct)
	assert.ErrorIs(t, err, ErrGameNotFinalized)
	_, err = g.EmergencyWithdraw(ctx, "acct:x")
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, g.Finalize(ctx, ownerAcct, 1))

	// varre saldo inteiro (pool 1000 + stake 300), ignorando o vencedor
	swept, err := g.EmergencyWithdraw(ctx, creatorAcct)
	require.NoError(t, err)
	assert.Equal(t, int64(1300), swept)
	assert.Equal(t, int64(0), g.Pool())

	// o claim do vencedor agora cai no cheque defensivo de saldo
	_, err = g.ClaimPrize(ctx, "acct:x")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestEmergencyWithdraw_NeverActivatedGame(t *testing.T) {
	ctx := context.Background()
	bank := newTestBank(t, map[string]int64{creatorAcct: 100})
	reg, err := NewRegistry(ownerAcct, 0, bank, nil)
	require.NoError(t, err)

	// construção direta sem funding: jogo nunca ativado
	g, err := NewGame(ctx, GameConfig{
		Creator:  creatorAcct,
		Question: "q",
		Options:  []string{"Yes"},
		Odds:     []int64{100},
	}, reg, bank, nil)
	require.NoError(t, err)
	assert.False(t, g.Active())

	swept, err := g.EmergencyWithdraw(ctx, creatorAcct)
	require.NoError(t, err)
	assert.Equal(t, int64(0), swept)

	// depois do primeiro funding o jogo ativa e o bypass fecha
	require.NoError(t, g.FundPool(ctx, creatorAcct, 100))
	assert.True(t, g.Active())
	_, err = g.EmergencyWithdraw(ctx, creatorAcct)
	assert.ErrorIs(t, err, ErrGameNotFinalized)
}

func TestFundPool(t *testing.T) {
	ctx := context.Background()
	bank := newTestBank(t, map[string]int64{creatorAcct: 2000})
	_, g := newTestGame(t, bank)

	assert.ErrorIs(t, g.FundPool(ctx, "acct:x", 100), ErrUnauthorized)
	assert.ErrorIs(t, g.FundPool(ctx, creatorAcct, 0), ErrInvalidAmount)
	assert.ErrorIs(t, g.FundPool(ctx, creatorAcct, -10), ErrInvalidAmount)

	require.NoError(t, g.FundPool(ctx, creatorAcct, 500))
	assert.Equal(t, int64(1500), g.Pool())

	// sem gate de fase: comportamento original preservado
	require.NoError(t, g.Finalize(ctx, ownerAcct, 1))
	require.NoError(t, g.FundPool(ctx, creatorAcct, 500))
	assert.Equal(t, int64(2000), g.Pool())
}

func TestNewGame_Validation(t *testing.T) {
	ctx := context.Background()
	bank := newTestBank(t, map[string]int64{creatorAcct: 1000})

	cases := []struct {
		name string
		cfg  GameConfig
	}{
		{"sem opções", GameConfig{Creator: creatorAcct, Options: nil, Odds: nil}},
		{"tamanhos diferentes", GameConfig{Creator: creatorAcct, Options: []string{"A", "B"}, Odds: []int64{100}}},
		{"mais de dez opções", GameConfig{
			Creator: creatorAcct,
			Options: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"},
			Odds:    []int64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100},
		}},
		{"odd zero", GameConfig{Creator: creatorAcct, Options: []string{"A"}, Odds: []int64{0}}},
		{"odd negativa", GameConfig{Creator: creatorAcct, Options: []string{"A"}, Odds: []int64{-50}}},
		{"sem criador", GameConfig{Options: []string{"A"}, Odds: []int64{100}}},
		{"funding negativo", GameConfig{Creator: creatorAcct, Options: []string{"A"}, Odds: []int64{100}, FundingCents: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewGame(ctx, tc.cfg, nil, bank, nil)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}

	// dez opções é o limite, não além dele
	g, err := NewGame(ctx, GameConfig{
		Creator: creatorAcct,
		Options: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"},
		Odds:    []int64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100},
	}, nil, bank, nil)
	require.NoError(t, err)
	assert.Len(t, g.Options(), 10)
}

func TestGame_NotificationLogOrder(t *testing.T) {
	ctx := context.Background()
	bank := newTestBank(t, map[string]int64{creatorAcct: 1000, "acct:x": 300})
	_, g := newTestGame(t, bank)
	require.NoError(t, g.PlaceBet(ctx, "acct:x", 1, 300))
	require.NoError(t, g.Finalize(ctx, ownerAcct, 1))
	_, err := g.ClaimPrize(ctx, "acct:x")
	require.NoError(t, err)

	kinds := make([]NotificationKind, 0)
	for _, n := range g.Events() {
		kinds = append(kinds, n.Kind)
	}
	assert.Equal(t, []NotificationKind{
		NotifPoolFunded, NotifBetPlaced, NotifGameFinalized, NotifPrizeClaimed,
	}, kinds)
}

// failingBank deixa qualquer transferência falhar sob demanda.
type failingBank struct {
	Bank
	fail bool
}

func (f *failingBank) Transfer(ctx context.Context, from, to string, amount int64) error {
	if f.fail {
		return errors.New("wire down")
	}
	return f.Bank.Transfer(ctx, from, to, amount)
}
