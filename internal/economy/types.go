package economy

import (
	"time"
)

type Guild struct {
	ID           int64     `json:"id"`
	MaxLevel     int       `json:"max_level"`
	ServerXP     int64     `json:"server_xp"`
	WeekXP       int64     `json:"week_xp"`
	WeeksElapsed int64     `json:"weeks_elapsed"`
	XPAdjust     int64     `json:"xp_adjust"`
	MaxRerolls   int       `json:"max_rerolls"`
	ResetDay     *int      `json:"reset_day,omitempty"`
	ResetHour    *int      `json:"reset_hour,omitempty"`
	LastReset    time.Time `json:"last_reset"`
}

type Character struct {
	ID           int64  `json:"id"`
	PlayerID     int64  `json:"player_id"`
	GuildID      int64  `json:"guild_id"`
	Name         string `json:"name"`
	XP           int64  `json:"xp"`
	DivertedXP   int64  `json:"diverted_xp"`
	Gold         int64  `json:"gold"`
	DivertedGold int64  `json:"diverted_gold"`
	Active       bool   `json:"active"`
}

type StipendRule struct {
	RoleID     int64   `json:"role_id"`
	GuildID    int64   `json:"guild_id"`
	Ratio      float64 `json:"ratio"`
	Reason     string  `json:"reason"`
	Leadership bool    `json:"leadership"`
}

type Shop struct {
	ID              int64  `json:"id"`
	GuildID         int64  `json:"guild_id"`
	OwnerID         int64  `json:"owner_id"`
	Name            string `json:"name"`
	NetworkLevel    int    `json:"network_level"`
	SeeksRemaining  int    `json:"seeks_remaining"`
	InventoryRolled bool   `json:"inventory_rolled"`
	Active          bool   `json:"active"`
}

// LevelCaps bounds a character's weekly diversion accrual. Derived, never stored.
type LevelCaps struct {
	MaxGold int64 `json:"max_gold"`
	MaxXP   int64 `json:"max_xp"`
}

type LedgerEntry struct {
	ID          string    `json:"id"`
	CharacterID int64     `json:"character_id"`
	GuildID     int64     `json:"guild_id"`
	Activity    string    `json:"activity"`
	Gold        int64     `json:"gold"`
	XP          int64     `json:"xp"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

// ResetReport summarizes one weekly reset run for a guild.
type ResetReport struct {
	GuildID        int64         `json:"guild_id"`
	WeeklyServerXP int64         `json:"weekly_server_xp"`
	PlayerXP       int64         `json:"player_xp"`
	PlayerGold     int64         `json:"player_gold"`
	CharactersSeen int           `json:"characters_seen"`
	StipendsPaid   int           `json:"stipends_paid"`
	RulesPruned    int           `json:"rules_pruned"`
	ShopsReset     int           `json:"shops_reset"`
	Failures       int           `json:"failures"`
	Duration       time.Duration `json:"duration"`
}

func (r ResetReport) OK() bool {
	return r.Failures == 0
}
