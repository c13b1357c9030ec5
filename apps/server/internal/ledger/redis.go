package ledger

import (
	"context"
	"encoding/json"
	"time"

	"blackjack-lite/blackjack"

	"github.com/redis/go-redis/v9"
)

const roundKeyPrefix = "blackjack:rounds:"

// RedisService keeps a capped newest-first list of records per player.
type RedisService struct {
	client      *redis.Client
	recentLimit int
}

func NewRedisService(url string, recentLimit int) (*RedisService, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedisServiceWithClient(client, recentLimit), nil
}

// NewRedisServiceWithClient wraps an existing client (for testing).
func NewRedisServiceWithClient(client *redis.Client, recentLimit int) *RedisService {
	if recentLimit <= 0 {
		recentLimit = defaultRecentLimit
	}
	return &RedisService{client: client, recentLimit: recentLimit}
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

func roundsKey(playerID string) string {
	return roundKeyPrefix + playerID
}

func (s *RedisService) RecordSettlement(ctx context.Context, tableID string, result *blackjack.SettlementResult) error {
	records := recordsFromSettlement(tableID, result, time.Now().UTC())
	if len(records) == 0 {
		return nil
	}

	pipe := s.client.TxPipeline()
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		key := roundsKey(r.PlayerID)
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, int64(s.recentLimit-1))
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisService) ListRecent(ctx context.Context, playerID blackjack.PlayerID, limit int) ([]RoundRecord, error) {
	raw, err := s.client.LRange(ctx, roundsKey(playerID.String()), 0, int64(clampLimit(limit)-1)).Result()
	if err != nil {
		return nil, err
	}
	items := make([]RoundRecord, 0, len(raw))
	for _, data := range raw {
		var r RoundRecord
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, nil
}
