package engine

import (
	"context"
	"time"
)

type NotificationKind string

const (
	NotifGameCreated   NotificationKind = "game_created"
	NotifPoolFunded    NotificationKind = "pool_funded"
	NotifBetPlaced     NotificationKind = "bet_placed"
	NotifGameFinalized NotificationKind = "game_finalized"
	NotifPrizeClaimed  NotificationKind = "prize_claimed"
)

// Notification é o registro append-only emitido pelo core a cada operação aceita.
// A ordem de emissão dentro de um mesmo Game/Registry é a ordem de commit.
type Notification struct {
	Kind        NotificationKind `json:"kind"`
	GameID      int64            `json:"game_id"`
	Address     string           `json:"address,omitempty"`
	Creator     string           `json:"creator,omitempty"`
	Question    string           `json:"question,omitempty"`
	Player      string           `json:"player,omitempty"`
	Option      int              `json:"option,omitempty"`
	AmountCents int64            `json:"amount_cents,omitempty"`
	Ts          time.Time        `json:"ts"`
}

// Sink recebe notificações já commitadas. A entrega é best-effort: falha no
// sink não desfaz a operação, o log interno do Game/Registry segue autoritativo.
type Sink interface {
	Emit(ctx context.Context, n Notification)
}

// NopSink descarta notificações; usado quando nenhum publisher está plugado.
type NopSink struct{}

func (NopSink) Emit(context.Context, Notification) {}
