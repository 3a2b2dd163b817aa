package producer

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/engine"
	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

// GameEventPublisher implementa engine.Sink: repassa cada notificação do core
// para o tópico Kafka correspondente e para o canal Redis Pub/Sub consumido
// pelo hub WebSocket. Entrega best-effort: falha de publicação é logada e
// contada, nunca desfaz a operação já commitada no engine.
type GameEventPublisher struct {
	Log     *zap.Logger
	Writers map[engine.NotificationKind]*kafkago.Writer
	Rdb     *redis.Client
	Channel string

	OnPublished func(topic string) // métricas (counter++)
	OnError     func(stage string) // métricas por fase
}

// WSUpdate é o payload padrão enviado ao canal de broadcast do WebSocket.
type WSUpdate struct {
	GameID  int64       `json:"gameId"`
	Payload interface{} `json:"payload"`
}

func (p *GameEventPublisher) Emit(ctx context.Context, n engine.Notification) {
	payload, err := json.Marshal(toContract(n))
	if err != nil {
		p.fail("encode")
		return
	}

	// publicação síncrona com timeout curto preserva a ordem de commit
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if w, ok := p.Writers[n.Kind]; ok && w != nil {
		msg := kafkago.Message{
			Key:   []byte(strconv.FormatInt(n.GameID, 10)),
			Value: payload,
			Time:  n.Ts,
		}
		if err := w.WriteMessages(wctx, msg); err != nil {
			p.Log.Warn("kafka publish failed", zap.String("kind", string(n.Kind)), zap.Error(err))
			p.fail("kafka")
		} else if p.OnPublished != nil {
			p.OnPublished(w.Topic)
		}
	}

	if p.Rdb != nil && p.Channel != "" {
		b, _ := json.Marshal(WSUpdate{GameID: n.GameID, Payload: n})
		if err := p.Rdb.Publish(wctx, p.Channel, b).Err(); err != nil {
			p.Log.Warn("ws broadcast publish failed", zap.Error(err))
			p.fail("redis")
		}
	}
}

func (p *GameEventPublisher) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

// toContract converte a notificação interna para o payload público do tópico.
func toContract(n engine.Notification) any {
	switch n.Kind {
	case engine.NotifGameCreated:
		return events.GameCreated{
			GameID:    n.GameID,
			Address:   n.Address,
			Creator:   n.Creator,
			Question:  n.Question,
			PoolCents: n.AmountCents,
			TsUnixMs:  n.Ts.UnixMilli(),
		}
	case engine.NotifBetPlaced:
		return events.BetPlaced{
			GameID:     n.GameID,
			Player:     n.Player,
			Option:     n.Option,
			StakeCents: n.AmountCents,
			TsUnixMs:   n.Ts.UnixMilli(),
		}
	case engine.NotifGameFinalized:
		return events.GameFinalized{
			GameID: n.GameID,
			Option: n.Option,
			Ts:     n.Ts,
		}
	case engine.NotifPrizeClaimed:
		return events.PrizeClaimed{
			GameID:      n.GameID,
			Player:      n.Player,
			AmountCents: n.AmountCents,
			TsUnixMs:    n.Ts.UnixMilli(),
		}
	case engine.NotifPoolFunded:
		return events.PoolFunded{
			GameID:      n.GameID,
			AmountCents: n.AmountCents,
			TsUnixMs:    n.Ts.UnixMilli(),
		}
	}
	return n
}
