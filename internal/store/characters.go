package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"waystone/internal/economy"
)

type CharacterStore struct {
	db *pgxpool.Pool
}

func NewCharacterStore(db *pgxpool.Pool) *CharacterStore {
	return &CharacterStore{db: db}
}

func (s *CharacterStore) ListActive(ctx context.Context, guildID int64) ([]economy.Character, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, player_id, guild_id, name, xp, diverted_xp, gold, diverted_gold, active
		FROM econ.characters
		WHERE guild_id = $1 AND active
	`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []economy.Character
	for rows.Next() {
		var c economy.Character
		if err := rows.Scan(&c.ID, &c.PlayerID, &c.GuildID, &c.Name, &c.XP,
			&c.DivertedXP, &c.Gold, &c.DivertedGold, &c.Active); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *CharacterStore) ActiveByPlayer(ctx context.Context, guildID, playerID int64) (economy.Character, error) {
	var c economy.Character
	err := s.db.QueryRow(ctx, `
		SELECT id, player_id, guild_id, name, xp, diverted_xp, gold, diverted_gold, active
		FROM econ.characters
		WHERE guild_id = $1 AND player_id = $2 AND active
		LIMIT 1
	`, guildID, playerID).Scan(&c.ID, &c.PlayerID, &c.GuildID, &c.Name, &c.XP,
		&c.DivertedXP, &c.Gold, &c.DivertedGold, &c.Active)
	if err == pgx.ErrNoRows {
		return economy.Character{}, economy.ErrNoActiveCharacter
	}
	if err != nil {
		return economy.Character{}, err
	}
	return c, nil
}

func (s *CharacterStore) Update(ctx context.Context, c economy.Character) error {
	_, err := s.db.Exec(ctx, `
		UPDATE econ.characters
		SET xp = $1,
		    diverted_xp = $2,
		    gold = $3,
		    diverted_gold = $4,
		    active = $5,
		    updated_at = now()
		WHERE id = $6
	`, c.XP, c.DivertedXP, c.Gold, c.DivertedGold, c.Active, c.ID)
	return err
}
