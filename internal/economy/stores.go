package economy

import (
	"context"
	"time"
)

// GuildStore owns guild records. Guilds are created lazily on first
// interaction and never deleted while served.
type GuildStore interface {
	GetOrCreate(ctx context.Context, guildID int64) (Guild, error)
	Update(ctx context.Context, g Guild) error
	// ListWithResetWindow returns every guild configured to reset at the
	// given weekday (0 = Monday) and UTC hour.
	ListWithResetWindow(ctx context.Context, weekday, hour int) ([]Guild, error)
}

type CharacterStore interface {
	ListActive(ctx context.Context, guildID int64) ([]Character, error)
	// ActiveByPlayer resolves a player's single active character, or
	// ErrNoActiveCharacter.
	ActiveByPlayer(ctx context.Context, guildID, playerID int64) (Character, error)
	Update(ctx context.Context, c Character) error
}

type StipendStore interface {
	List(ctx context.Context, guildID int64) ([]StipendRule, error)
	Upsert(ctx context.Context, rule StipendRule) error
	Delete(ctx context.Context, rule StipendRule) error
}

type ShopStore interface {
	List(ctx context.Context, guildID int64) ([]Shop, error)
	Update(ctx context.Context, s Shop) error
}

// LedgerSink records immutable grant entries. It is the audit trail for every
// change the reset engine makes to a character's totals.
type LedgerSink interface {
	Append(ctx context.Context, entry LedgerEntry) error
}

// LedgerBrowser reads the audit trail back, newest first.
type LedgerBrowser interface {
	ListForCharacter(ctx context.Context, characterID int64, limit int) ([]LedgerEntry, error)
}

// RoleResolver answers membership questions against the chat platform. The
// engine has no compile-time dependency on the platform's object model.
type RoleResolver interface {
	// RoleName returns ErrStaleStipendRole when the role no longer exists.
	RoleName(ctx context.Context, guildID, roleID int64) (string, error)
	RoleMembers(ctx context.Context, guildID, roleID int64) ([]int64, error)
}

// Announcer delivers the reset-complete event to a human-visible surface.
type Announcer interface {
	ResetComplete(ctx context.Context, guildID int64, d time.Duration, ok bool)
}
