package topics

const (
	// Ciclo de vida dos jogos
	GameCreated   = "game_created"
	GameFinalized = "game_finalized"

	// Apostas e pagamentos
	BetPlaced    = "bet_placed"
	PrizeClaimed = "prize_claimed"
	PoolFunded   = "pool_funded"

	// DLQs
	GameCreatedDLQ = "game_created_dlq"
)
