package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"waystone/internal/economy"
)

type StipendStore struct {
	db *pgxpool.Pool
}

func NewStipendStore(db *pgxpool.Pool) *StipendStore {
	return &StipendStore{db: db}
}

func (s *StipendStore) List(ctx context.Context, guildID int64) ([]economy.StipendRule, error) {
	rows, err := s.db.Query(ctx, `
		SELECT role_id, guild_id, ratio, reason, leadership
		FROM econ.stipend_rules
		WHERE guild_id = $1
	`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []economy.StipendRule
	for rows.Next() {
		var r economy.StipendRule
		if err := rows.Scan(&r.RoleID, &r.GuildID, &r.Ratio, &r.Reason, &r.Leadership); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *StipendStore) Upsert(ctx context.Context, rule economy.StipendRule) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO econ.stipend_rules (role_id, guild_id, ratio, reason, leadership)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (role_id) DO UPDATE
		SET ratio = $3, reason = $4, leadership = $5
	`, rule.RoleID, rule.GuildID, rule.Ratio, rule.Reason, rule.Leadership)
	return err
}

func (s *StipendStore) Delete(ctx context.Context, rule economy.StipendRule) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM econ.stipend_rules
		WHERE role_id = $1 AND guild_id = $2
	`, rule.RoleID, rule.GuildID)
	return err
}
