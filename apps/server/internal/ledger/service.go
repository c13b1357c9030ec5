package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"blackjack-lite/blackjack"
	"blackjack-lite/card"
)

const (
	defaultRecentLimit = 200
	defaultListLimit   = 20
	maxListLimit       = 100
)

var ErrUnknownMode = errors.New("unknown ledger mode")

// Service is an append-only audit of settled rounds. It never restores
// balances.
type Service interface {
	Close() error
	RecordSettlement(ctx context.Context, tableID string, result *blackjack.SettlementResult) error
	ListRecent(ctx context.Context, playerID blackjack.PlayerID, limit int) ([]RoundRecord, error)
}

// RoundRecord is one player's line of one settled round.
type RoundRecord struct {
	TableID     string    `json:"table_id"`
	Round       uint32    `json:"round"`
	PlayerID    string    `json:"player_id"`
	Bet         float64   `json:"bet"`
	Payout      float64   `json:"payout"`
	Outcome     string    `json:"outcome"`
	Hand        []string  `json:"hand"`
	HandValue   int       `json:"hand_value"`
	DealerHand  []string  `json:"dealer_hand"`
	DealerValue int       `json:"dealer_value"`
	SettledAt   time.Time `json:"settled_at"`
}

// Config selects and tunes a backend.
type Config struct {
	Mode              string
	DatabaseDSN       string
	LocalDatabasePath string
	RedisURL          string
	RecentLimit       int
}

// NewService builds the backend named by cfg.Mode and returns it with the
// resolved mode name.
func NewService(cfg Config) (Service, string, error) {
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = defaultRecentLimit
	}
	switch mode := strings.ToLower(strings.TrimSpace(cfg.Mode)); mode {
	case "", "memory":
		return NewMemoryService(cfg.RecentLimit), "memory", nil
	case "local", "sqlite":
		service, err := NewSQLiteService(cfg.LocalDatabasePath, cfg.RecentLimit)
		if err != nil {
			return nil, "", err
		}
		return service, "sqlite", nil
	case "postgres":
		service, err := NewPostgresService(cfg.DatabaseDSN, cfg.RecentLimit)
		if err != nil {
			return nil, "", err
		}
		return service, "postgres", nil
	case "redis":
		service, err := NewRedisService(cfg.RedisURL, cfg.RecentLimit)
		if err != nil {
			return nil, "", err
		}
		return service, "redis", nil
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}
}

// recordsFromSettlement flattens a settlement into per-player records in seat
// order.
func recordsFromSettlement(tableID string, result *blackjack.SettlementResult, at time.Time) []RoundRecord {
	if result == nil {
		return nil
	}
	dealer := cardNames(result.DealerHand)
	records := make([]RoundRecord, 0, len(result.Players))
	for _, p := range result.Players {
		records = append(records, RoundRecord{
			TableID:     tableID,
			Round:       result.Round,
			PlayerID:    p.Player.String(),
			Bet:         float64(p.Bet),
			Payout:      float64(p.Payout),
			Outcome:     p.Outcome.String(),
			Hand:        cardNames(p.Hand),
			HandValue:   p.Value,
			DealerHand:  dealer,
			DealerValue: result.DealerValue,
			SettledAt:   at,
		})
	}
	return records
}

func cardNames(cards []card.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.String())
	}
	return out
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// memoryService keeps the newest records per player in process memory.
type memoryService struct {
	mu          sync.Mutex
	recentLimit int
	byPlayer    map[string][]RoundRecord
}

func NewMemoryService(recentLimit int) Service {
	if recentLimit <= 0 {
		recentLimit = defaultRecentLimit
	}
	return &memoryService{
		recentLimit: recentLimit,
		byPlayer:    make(map[string][]RoundRecord),
	}
}

func (m *memoryService) Close() error { return nil }

func (m *memoryService) RecordSettlement(_ context.Context, tableID string, result *blackjack.SettlementResult) error {
	records := recordsFromSettlement(tableID, result, time.Now().UTC())

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		// newest first
		list := append([]RoundRecord{r}, m.byPlayer[r.PlayerID]...)
		if len(list) > m.recentLimit {
			list = list[:m.recentLimit]
		}
		m.byPlayer[r.PlayerID] = list
	}
	return nil
}

func (m *memoryService) ListRecent(_ context.Context, playerID blackjack.PlayerID, limit int) ([]RoundRecord, error) {
	limit = clampLimit(limit)

	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.byPlayer[playerID.String()]
	if len(list) > limit {
		list = list[:limit]
	}
	return append([]RoundRecord{}, list...), nil
}
