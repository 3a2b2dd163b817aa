package events

// Evento publicado no tópico "game_created" quando o registry cria um jogo.
// Address é o handle da conta bancária do jogo (equivalente ao endereço do contrato).
type GameCreated struct {
	GameID    int64  `json:"game_id"`
	Address   string `json:"address"`
	Creator   string `json:"creator"`
	Question  string `json:"question"`
	PoolCents int64  `json:"pool_cents"`
	TsUnixMs  int64  `json:"ts_unix_ms"`
}
