package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Postgres persiste registros de deployment e seu log append-only
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Deployment é o registro persistido de uma tentativa de deployment de jogo.
// Status: PENDING -> DEPLOYED | FAILED. Cada tentativa é independente e tem
// seu próprio attempt id.
type Deployment struct {
	AttemptID       string
	GameID          int64
	Address         string
	InterfaceDesc   string // descrição JSON das operações públicas do jogo
	Status          string
	NetworkID       string
	CompilerVersion string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreatePending insere uma nova tentativa com status PENDING
func (p *Postgres) CreatePending(ctx context.Context, d *Deployment) (string, error) {
	id := uuid.NewString()
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO deployments (attempt_id,game_id,address,interface_desc,status,network_id,compiler_version)
		VALUES ($1,$2,$3,$4,'PENDING',$5,$6)`,
		id, d.GameID, d.Address, d.InterfaceDesc, d.NetworkID, d.CompilerVersion,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// MarkDeployed efetiva a transição PENDING -> DEPLOYED
func (p *Postgres) MarkDeployed(ctx context.Context, attemptID string) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE deployments SET status='DEPLOYED', updated_at=NOW() WHERE attempt_id=$1`, attemptID)
	return err
}

// MarkFailed registra a falha; a tentativa não é reprocessada automaticamente
func (p *Postgres) MarkFailed(ctx context.Context, attemptID string) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE deployments SET status='FAILED', updated_at=NOW() WHERE attempt_id=$1`, attemptID)
	return err
}

// AppendLog grava uma linha no log estruturado da tentativa (append-only)
func (p *Postgres) AppendLog(ctx context.Context, attemptID, level, message string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO deployment_logs (attempt_id, level, message, created_at)
		VALUES ($1,$2,$3,NOW())`, attemptID, level, message)
	return err
}

// GetStatus retorna o status atual de uma tentativa
func (p *Postgres) GetStatus(ctx context.Context, attemptID string) (string, error) {
	var s string
	err := p.db.QueryRowContext(ctx,
		`SELECT status FROM deployments WHERE attempt_id=$1`, attemptID).Scan(&s)
	return s, err
}
