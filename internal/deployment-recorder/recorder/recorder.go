package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/deployment-recorder/repo"
	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

// Recorder consome eventos game_created e persiste o registro de deployment
// correspondente, com transições explícitas PENDING -> DEPLOYED/FAILED e log
// append-only por tentativa. O recorder é um consumidor puro da interface
// pública do core: só enxerga os eventos, nunca o estado interno dos jogos.
type Recorder struct {
	Log    *zap.Logger
	Reader *kafka.Reader
	Repo   *repo.Postgres
	DLQ    *kafka.Writer

	NetworkID       string
	CompilerVersion string

	OnConsumed func()       // métricas (counter++)
	OnRecorded func(string) // métricas por status final
	OnError    func(string) // métricas por fase
}

// Run inicia o loop principal de consumo e gravação
func (rec *Recorder) Run(ctx context.Context) error {
	for {
		m, err := rec.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			rec.Log.Warn("kafka read failed", zap.Error(err))
			rec.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if rec.OnConsumed != nil {
			rec.OnConsumed()
		}

		var ev events.GameCreated
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			rec.Log.Error("unmarshal game_created", zap.Error(err))
			rec.fail("decode")
			rec.toDLQ(ctx, m)
			continue
		}

		// Retry simples no caminho de consumo; cada tentativa persistida é
		// independente e nunca é reprocessada depois de FAILED
		const retries = 3
		var perr error
		for i := 0; i < retries; i++ {
			if perr = rec.processOne(ctx, &ev); perr == nil {
				break
			}
			time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
		}
		if perr != nil {
			rec.Log.Error("record deployment", zap.Int64("gameId", ev.GameID), zap.Error(perr))
			rec.fail("process")
			rec.toDLQ(ctx, m)
		}
	}
}

// processOne grava uma tentativa de deployment para o jogo criado:
// 1. Insere o registro PENDING com os metadados do evento
// 2. Grava as linhas de log da tentativa
// 3. Marca DEPLOYED; qualquer erro intermediário marca FAILED com log de erro
func (rec *Recorder) processOne(ctx context.Context, ev *events.GameCreated) error {
	d := &repo.Deployment{
		GameID:          ev.GameID,
		Address:         ev.Address,
		InterfaceDesc:   interfaceDescriptor(),
		NetworkID:       rec.NetworkID,
		CompilerVersion: rec.CompilerVersion,
	}

	attemptID, err := rec.Repo.CreatePending(ctx, d)
	if err != nil {
		return fmt.Errorf("create pending: %w", err)
	}
	_ = rec.Repo.AppendLog(ctx, attemptID, "INFO",
		fmt.Sprintf("deployment attempt registered for game %d at %s", ev.GameID, ev.Address))

	if err := rec.Repo.MarkDeployed(ctx, attemptID); err != nil {
		// melhor esforço: registra FAILED com a mensagem de erro e não re-tenta
		_ = rec.Repo.MarkFailed(ctx, attemptID)
		_ = rec.Repo.AppendLog(ctx, attemptID, "ERROR", err.Error())
		if rec.OnRecorded != nil {
			rec.OnRecorded("FAILED")
		}
		return err
	}

	_ = rec.Repo.AppendLog(ctx, attemptID, "INFO", "status transition PENDING -> DEPLOYED")
	if rec.OnRecorded != nil {
		rec.OnRecorded("DEPLOYED")
	}
	return nil
}

func (rec *Recorder) toDLQ(ctx context.Context, m kafka.Message) {
	if rec.DLQ == nil {
		return
	}
	if err := rec.DLQ.WriteMessages(ctx, kafka.Message{Key: m.Key, Value: m.Value, Time: time.Now()}); err != nil {
		rec.Log.Error("dlq publish", zap.Error(err))
	}
}

func (rec *Recorder) fail(stage string) {
	if rec.OnError != nil {
		rec.OnError(stage)
	}
}

// interfaceDescriptor descreve as operações públicas expostas por um jogo,
// persistida junto ao registro de deployment para consumo externo.
func interfaceDescriptor() string {
	desc := map[string]any{
		"operations": []string{
			"fundPool", "bet", "finalize", "claimPrize",
			"withdrawRemainingPool", "emergencyWithdraw",
		},
		"reads": []string{
			"pool", "options", "odds", "playersList", "winners", "totals", "phase",
		},
	}
	b, _ := json.Marshal(desc)
	return string(b)
}
