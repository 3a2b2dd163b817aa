package events

type PoolFunded struct {
	GameID      int64  `json:"game_id"`
	AmountCents int64  `json:"amount_cents"`
	TsUnixMs    int64  `json:"ts_unix_ms"`
}
