package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"waystone/internal/economy"
)

type ShopStore struct {
	db *pgxpool.Pool
}

func NewShopStore(db *pgxpool.Pool) *ShopStore {
	return &ShopStore{db: db}
}

func (s *ShopStore) List(ctx context.Context, guildID int64) ([]economy.Shop, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, guild_id, owner_id, name, network_level, seeks_remaining, inventory_rolled, active
		FROM econ.shops
		WHERE guild_id = $1 AND active
	`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []economy.Shop
	for rows.Next() {
		var sh economy.Shop
		if err := rows.Scan(&sh.ID, &sh.GuildID, &sh.OwnerID, &sh.Name, &sh.NetworkLevel,
			&sh.SeeksRemaining, &sh.InventoryRolled, &sh.Active); err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

func (s *ShopStore) Update(ctx context.Context, sh economy.Shop) error {
	_, err := s.db.Exec(ctx, `
		UPDATE econ.shops
		SET network_level = $1,
		    seeks_remaining = $2,
		    inventory_rolled = $3,
		    active = $4,
		    updated_at = now()
		WHERE id = $5
	`, sh.NetworkLevel, sh.SeeksRemaining, sh.InventoryRolled, sh.Active, sh.ID)
	return err
}
