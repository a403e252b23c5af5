package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"waystone/internal/economy"
)

// LedgerStore appends immutable activity entries. Entries are never updated
// or deleted; they are the audit trail for every stipend grant.
type LedgerStore struct {
	db *pgxpool.Pool
}

func NewLedgerStore(db *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{db: db}
}

func (s *LedgerStore) Append(ctx context.Context, entry economy.LedgerEntry) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO econ.ledger_entries (id, character_id, guild_id, activity, gold, xp, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.ID, entry.CharacterID, entry.GuildID, entry.Activity,
		entry.Gold, entry.XP, entry.Reason, entry.CreatedAt)
	return err
}

// ListForCharacter returns the most recent entries for a character, newest
// first.
func (s *LedgerStore) ListForCharacter(ctx context.Context, characterID int64, limit int) ([]economy.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, character_id, guild_id, activity, gold, xp, reason, created_at
		FROM econ.ledger_entries
		WHERE character_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, characterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []economy.LedgerEntry
	for rows.Next() {
		var e economy.LedgerEntry
		if err := rows.Scan(&e.ID, &e.CharacterID, &e.GuildID, &e.Activity,
			&e.Gold, &e.XP, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
