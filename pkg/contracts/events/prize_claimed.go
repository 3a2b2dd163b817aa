package events

type PrizeClaimed struct {
	GameID      int64  `json:"game_id"`
	Player      string `json:"player"`
	AmountCents int64  `json:"amount_cents"`
	TsUnixMs    int64  `json:"ts_unix_ms"`
}
