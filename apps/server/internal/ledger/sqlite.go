package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"blackjack-lite/blackjack"

	_ "modernc.org/sqlite"
)

type SQLiteService struct {
	db          *sql.DB
	recentLimit int
}

func NewSQLiteService(dbPath string, recentLimit int) (*SQLiteService, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLiteLedgerSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if recentLimit <= 0 {
		recentLimit = defaultRecentLimit
	}
	return &SQLiteService{db: db, recentLimit: recentLimit}, nil
}

func (s *SQLiteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteService) RecordSettlement(ctx context.Context, tableID string, result *blackjack.SettlementResult) error {
	now := time.Now().UTC()
	records := recordsFromSettlement(tableID, result, now)
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, r := range records {
		handRaw, err := json.Marshal(r.Hand)
		if err != nil {
			return err
		}
		dealerRaw, err := json.Marshal(r.DealerHand)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO round_history (
    table_id, round, player_id, bet, payout, outcome, hand_json, hand_value, dealer_json, dealer_value, settled_at_ms
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (table_id, round, player_id) DO UPDATE
SET
    bet = excluded.bet,
    payout = excluded.payout,
    outcome = excluded.outcome,
    hand_json = excluded.hand_json,
    hand_value = excluded.hand_value,
    dealer_json = excluded.dealer_json,
    dealer_value = excluded.dealer_value,
    settled_at_ms = excluded.settled_at_ms
`, r.TableID, int64(r.Round), r.PlayerID, r.Bet, r.Payout, r.Outcome,
			string(handRaw), r.HandValue, string(dealerRaw), r.DealerValue, now.UnixMilli())
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
DELETE FROM round_history
WHERE player_id = ?
  AND id IN (
      SELECT id
      FROM round_history
      WHERE player_id = ?
      ORDER BY settled_at_ms DESC, id DESC
      LIMIT -1 OFFSET ?
  )
`, r.PlayerID, r.PlayerID, s.recentLimit)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteService) ListRecent(ctx context.Context, playerID blackjack.PlayerID, limit int) ([]RoundRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT table_id, round, player_id, bet, payout, outcome, hand_json, hand_value, dealer_json, dealer_value, settled_at_ms
FROM round_history
WHERE player_id = ?
ORDER BY settled_at_ms DESC, id DESC
LIMIT ?
`, playerID.String(), clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]RoundRecord, 0)
	for rows.Next() {
		var (
			r           RoundRecord
			round       int64
			handRaw     string
			dealerRaw   string
			settledAtMs int64
		)
		if err := rows.Scan(&r.TableID, &round, &r.PlayerID, &r.Bet, &r.Payout, &r.Outcome,
			&handRaw, &r.HandValue, &dealerRaw, &r.DealerValue, &settledAtMs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(handRaw), &r.Hand); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(dealerRaw), &r.DealerHand); err != nil {
			return nil, err
		}
		r.Round = uint32(round)
		r.SettledAt = time.UnixMilli(settledAtMs).UTC()
		items = append(items, r)
	}
	return items, rows.Err()
}

func ensureSQLiteLedgerSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS round_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    table_id TEXT NOT NULL,
    round INTEGER NOT NULL,
    player_id TEXT NOT NULL,
    bet REAL NOT NULL,
    payout REAL NOT NULL,
    outcome TEXT NOT NULL,
    hand_json TEXT NOT NULL DEFAULT '[]',
    hand_value INTEGER NOT NULL,
    dealer_json TEXT NOT NULL DEFAULT '[]',
    dealer_value INTEGER NOT NULL,
    settled_at_ms INTEGER NOT NULL,
    UNIQUE (table_id, round, player_id)
)`,
		`CREATE INDEX IF NOT EXISTS idx_round_history_recent ON round_history(player_id, settled_at_ms DESC)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
