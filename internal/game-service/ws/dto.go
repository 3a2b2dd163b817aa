package ws

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// GameID: obrigatório para subscribe/unsubscribe
type ClientMsg struct {
	Type   string `json:"type"`   // subscribe | unsubscribe | ping
	GameID int64  `json:"gameId"` // requerido em subscribe/unsubscribe
}

// GameUpdate representa uma notificação de jogo enviada para clientes WebSocket
type GameUpdate struct {
	GameID  int64       `json:"gameId"`
	Payload interface{} `json:"payload"`
}
