package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"waystone/internal/economy"
)

// GuildStore is the postgres-backed guild record store.
type GuildStore struct {
	db *pgxpool.Pool
}

func NewGuildStore(db *pgxpool.Pool) *GuildStore {
	return &GuildStore{db: db}
}

func (s *GuildStore) GetOrCreate(ctx context.Context, guildID int64) (economy.Guild, error) {
	g, err := s.get(ctx, guildID)
	if err == nil {
		return g, nil
	}
	if err != pgx.ErrNoRows {
		return economy.Guild{}, err
	}

	g = economy.Guild{
		ID:         guildID,
		MaxLevel:   economy.DefaultMaxLevel,
		XPAdjust:   economy.DefaultXPAdjust,
		MaxRerolls: economy.DefaultMaxRerolls,
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO econ.guilds (id, max_level, xp_adjust, max_rerolls, last_reset)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO NOTHING
	`, g.ID, g.MaxLevel, g.XPAdjust, g.MaxRerolls)
	if err != nil {
		return economy.Guild{}, err
	}
	return s.get(ctx, guildID)
}

func (s *GuildStore) get(ctx context.Context, guildID int64) (economy.Guild, error) {
	var g economy.Guild
	err := s.db.QueryRow(ctx, `
		SELECT id, max_level, server_xp, week_xp, weeks_elapsed, xp_adjust,
		       max_rerolls, reset_day, reset_hour, last_reset
		FROM econ.guilds
		WHERE id = $1
	`, guildID).Scan(&g.ID, &g.MaxLevel, &g.ServerXP, &g.WeekXP, &g.WeeksElapsed,
		&g.XPAdjust, &g.MaxRerolls, &g.ResetDay, &g.ResetHour, &g.LastReset)
	if err != nil {
		return economy.Guild{}, err
	}
	return g, nil
}

func (s *GuildStore) Update(ctx context.Context, g economy.Guild) error {
	_, err := s.db.Exec(ctx, `
		UPDATE econ.guilds
		SET max_level = $1,
		    server_xp = $2,
		    week_xp = $3,
		    weeks_elapsed = $4,
		    xp_adjust = $5,
		    max_rerolls = $6,
		    reset_day = $7,
		    reset_hour = $8,
		    last_reset = $9,
		    updated_at = now()
		WHERE id = $10
	`, g.MaxLevel, g.ServerXP, g.WeekXP, g.WeeksElapsed, g.XPAdjust,
		g.MaxRerolls, g.ResetDay, g.ResetHour, g.LastReset, g.ID)
	return err
}

func (s *GuildStore) ListWithResetWindow(ctx context.Context, weekday, hour int) ([]economy.Guild, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, max_level, server_xp, week_xp, weeks_elapsed, xp_adjust,
		       max_rerolls, reset_day, reset_hour, last_reset
		FROM econ.guilds
		WHERE reset_day = $1 AND reset_hour = $2
	`, weekday, hour)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []economy.Guild
	for rows.Next() {
		var g economy.Guild
		if err := rows.Scan(&g.ID, &g.MaxLevel, &g.ServerXP, &g.WeekXP, &g.WeeksElapsed,
			&g.XPAdjust, &g.MaxRerolls, &g.ResetDay, &g.ResetHour, &g.LastReset); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
