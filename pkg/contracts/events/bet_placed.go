package events

type BetPlaced struct {
	GameID     int64  `json:"game_id"`
	Player     string `json:"player"`
	Option     int    `json:"option"` // 1-indexed
	StakeCents int64  `json:"stake_cents"`
	TsUnixMs   int64  `json:"ts_unix_ms"`
}
