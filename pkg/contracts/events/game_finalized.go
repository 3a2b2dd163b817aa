package events

import "time"

// Evento emitido quando o árbitro finaliza um jogo.
type GameFinalized struct {
	GameID int64     `json:"game_id"`
	Option int       `json:"option"` // opção vencedora, 1-indexed
	Ts     time.Time `json:"ts"`
}
