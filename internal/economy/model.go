package economy

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	XPPerLevel        = int64(1000)
	MaxCharacterLevel = 20

	DefaultMaxLevel   = 3
	DefaultXPAdjust   = int64(1)
	DefaultMaxRerolls = 1

	ActivityStipend = "STIPEND"

	// MinResetCycle is the single-fire guard: a guild whose last reset is
	// younger than this never fires again inside the same reset window.
	MinResetCycle = 6 * 24 * time.Hour
)

var (
	ErrGuildNotFound     = errors.New("guild not found")
	ErrNoActiveCharacter = errors.New("no active character")
	ErrResetInFlight     = errors.New("reset already in progress for guild")
	ErrStaleStipendRole  = errors.New("stipend role no longer exists")
)

// levelCapTable holds the per-level weekly diversion caps before guild tuning.
// Caps are non-decreasing in level.
var levelCapTable = [MaxCharacterLevel]LevelCaps{
	{MaxGold: 50, MaxXP: 1000},
	{MaxGold: 100, MaxXP: 1000},
	{MaxGold: 150, MaxXP: 1500},
	{MaxGold: 200, MaxXP: 1500},
	{MaxGold: 250, MaxXP: 2000},
	{MaxGold: 300, MaxXP: 2000},
	{MaxGold: 350, MaxXP: 2500},
	{MaxGold: 400, MaxXP: 2500},
	{MaxGold: 450, MaxXP: 3000},
	{MaxGold: 500, MaxXP: 3000},
	{MaxGold: 600, MaxXP: 3500},
	{MaxGold: 700, MaxXP: 3500},
	{MaxGold: 800, MaxXP: 4000},
	{MaxGold: 900, MaxXP: 4000},
	{MaxGold: 1000, MaxXP: 4500},
	{MaxGold: 1200, MaxXP: 4500},
	{MaxGold: 1400, MaxXP: 5000},
	{MaxGold: 1600, MaxXP: 5000},
	{MaxGold: 1800, MaxXP: 5500},
	{MaxGold: 2000, MaxXP: 5500},
}

// CharacterLevel derives level from lifetime XP: one level per 1000 XP,
// capped at 20.
func CharacterLevel(xp int64) int {
	if xp < 0 {
		return 1
	}
	level := int((xp / XPPerLevel) + 1)
	if level > MaxCharacterLevel {
		return MaxCharacterLevel
	}
	return level
}

// CapsFor computes a character's weekly diversion caps from its level and the
// guild's tuning. Deterministic and never negative; caps never decrease as
// the character levels.
func CapsFor(c Character, g Guild) LevelCaps {
	level := CharacterLevel(c.XP)
	if g.MaxLevel > 0 && level > g.MaxLevel {
		level = g.MaxLevel
	}
	if level > MaxCharacterLevel {
		level = MaxCharacterLevel
	}
	base := levelCapTable[level-1]

	adjust := g.XPAdjust
	if adjust < 1 {
		adjust = 1
	}
	return LevelCaps{
		MaxGold: base.MaxGold * adjust,
		MaxXP:   base.MaxXP * adjust,
	}
}

// GrantAmounts applies a stipend ratio to a cap pair, rounding half away
// from zero. Ratios above 1.0 are allowed.
func GrantAmounts(caps LevelCaps, ratio float64) (gold, xp int64) {
	if ratio < 0 {
		ratio = 0
	}
	gold = int64(math.Round(float64(caps.MaxGold) * ratio))
	xp = int64(math.Round(float64(caps.MaxXP) * ratio))
	return gold, xp
}

// IsShopkeeperRule reports whether a stipend rule is the deferred shopkeeper
// stipend, identified by role name or reason text.
func IsShopkeeperRule(roleName string, rule StipendRule) bool {
	return strings.Contains(strings.ToLower(roleName), "shopkeeper") ||
		strings.Contains(strings.ToLower(rule.Reason), "shopkeeper")
}

// WeekdayIndex maps a UTC instant onto the guild reset-day convention,
// 0 = Monday through 6 = Sunday.
func WeekdayIndex(t time.Time) int {
	return (int(t.UTC().Weekday()) + 6) % 7
}

// ResetDue reports whether a guild's configured window matches the given
// instant and the single-fire guard allows another run. Guilds without a
// configured window never fire automatically.
func (g Guild) ResetDue(now time.Time) bool {
	if g.ResetDay == nil || g.ResetHour == nil {
		return false
	}
	now = now.UTC()
	if *g.ResetDay != WeekdayIndex(now) || *g.ResetHour != now.Hour() {
		return false
	}
	return now.Sub(g.LastReset) > MinResetCycle
}

// NextReset returns the next scheduled reset instant, or the zero time for
// guilds on manual resets only.
func (g Guild) NextReset(now time.Time) time.Time {
	if g.ResetDay == nil || g.ResetHour == nil {
		return time.Time{}
	}
	now = now.UTC()
	dayOffset := (*g.ResetDay - WeekdayIndex(now) + 7) % 7
	next := time.Date(now.Year(), now.Month(), now.Day(), *g.ResetHour, 0, 0, 0, time.UTC).
		AddDate(0, 0, dayOffset)
	if !next.After(now) || !next.After(g.LastReset.Add(MinResetCycle)) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}
