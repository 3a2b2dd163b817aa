package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Directory cacheia listagens de diretório (jogos por criador) no Redis.
// TTL curto: o registry em memória é a fonte de verdade, o cache só alivia
// leituras repetidas da listagem.
type Directory struct{ R *redis.Client }

func New(r *redis.Client) *Directory { return &Directory{R: r} }

func keyCreator(creator string) string { return "games:creator:" + creator }

func (d *Directory) GetCreatorGames(ctx context.Context, creator string, dst any) (bool, error) {
	b, err := d.R.Get(ctx, keyCreator(creator)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (d *Directory) SetCreatorGames(ctx context.Context, creator string, v any, ttl time.Duration) error {
	b, _ := json.Marshal(v)
	return d.R.Set(ctx, keyCreator(creator), b, ttl).Err()
}

// InvalidateCreator remove a listagem cacheada após uma criação de jogo.
func (d *Directory) InvalidateCreator(ctx context.Context, creator string) error {
	return d.R.Del(ctx, keyCreator(creator)).Err()
}
