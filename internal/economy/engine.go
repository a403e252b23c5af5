package economy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Deps is the full dependency set of the reset engine. Every collaborator is
// an interface; nothing reaches for ambient state.
type Deps struct {
	Guilds     GuildStore
	Characters CharacterStore
	Stipends   StipendStore
	Shops      ShopStore
	Ledger     LedgerSink
	Roles      RoleResolver
	Announcer  Announcer
}

// Engine executes one guild's weekly economic reset: fold weekly diversion
// counters into the guild pool, advance the week, pay stipends, close the
// shop cycle.
type Engine struct {
	deps Deps
	log  *slog.Logger
	now  func() time.Time

	mu       sync.Mutex
	inFlight map[int64]bool
}

func NewEngine(deps Deps, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		deps:     deps,
		log:      logger,
		now:      time.Now,
		inFlight: make(map[int64]bool),
	}
}

// RunWeeklyReset runs the full weekly cycle for one guild and reports what
// happened. Per-entity failures are tolerated and counted; the guild's weekly
// clock advances regardless, so one bad record can never stall the cycle.
// A second concurrent run for the same guild returns ErrResetInFlight.
func (e *Engine) RunWeeklyReset(ctx context.Context, guildID int64) (ResetReport, error) {
	if !e.acquire(guildID) {
		return ResetReport{GuildID: guildID}, ErrResetInFlight
	}
	defer e.release(guildID)

	g, err := e.deps.Guilds.GetOrCreate(ctx, guildID)
	if err != nil {
		return ResetReport{GuildID: guildID}, fmt.Errorf("read guild %d: %w", guildID, err)
	}
	return e.run(ctx, g), nil
}

func (e *Engine) run(ctx context.Context, g Guild) ResetReport {
	start := e.now()
	report := ResetReport{GuildID: g.ID, WeeklyServerXP: g.WeekXP}

	e.accumulate(ctx, g, &report)

	g.ServerXP += g.WeekXP
	g.WeekXP = 0
	g.WeeksElapsed++
	g.LastReset = e.now().UTC()

	pending, pendingRole := e.distributeStipends(ctx, g, &report)
	e.resetShops(ctx, g, pending, pendingRole, &report)

	if err := e.deps.Guilds.Update(ctx, g); err != nil {
		e.log.Error("guild update failed", "guild_id", g.ID, "err", err)
		report.Failures++
		resetEntityFailures.WithLabelValues("guild").Inc()
	}

	report.Duration = e.now().Sub(start)
	e.observe(ctx, report)
	return report
}

// accumulate folds every active character's weekly diversion into the report
// totals and zeroes the per-character counters. Each character is persisted
// independently; one failed write skips that character only.
func (e *Engine) accumulate(ctx context.Context, g Guild, report *ResetReport) {
	chars, err := e.deps.Characters.ListActive(ctx, g.ID)
	if err != nil {
		e.log.Warn("character list failed, skipping accumulation", "guild_id", g.ID, "err", err)
		report.Failures++
		resetEntityFailures.WithLabelValues("character").Inc()
		return
	}
	for _, c := range chars {
		report.PlayerXP += c.DivertedXP
		report.PlayerGold += c.DivertedGold
		c.DivertedXP = 0
		c.DivertedGold = 0
		if err := e.deps.Characters.Update(ctx, c); err != nil {
			e.log.Warn("character reset failed", "guild_id", g.ID, "character_id", c.ID, "err", err)
			report.Failures++
			resetEntityFailures.WithLabelValues("character").Inc()
			continue
		}
		report.CharactersSeen++
	}
}

// distributeStipends pays every configured role stipend in descending ratio
// order. Leadership stipends are mutually exclusive within one cycle: the
// highest-ratio rule a player qualifies for wins, and leadership rules are
// always paid here even when the role reads as a shopkeeper role. The
// non-leadership shopkeeper stipend is deferred to the shop pass. Rules whose
// role no longer exists are pruned.
func (e *Engine) distributeStipends(ctx context.Context, g Guild, report *ResetReport) (*StipendRule, string) {
	rules, err := e.deps.Stipends.List(ctx, g.ID)
	if err != nil {
		e.log.Warn("stipend list failed", "guild_id", g.ID, "err", err)
		report.Failures++
		resetEntityFailures.WithLabelValues("stipend_rule").Inc()
		return nil, ""
	}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Ratio > rules[j].Ratio })

	var pending *StipendRule
	var pendingRole string
	grantedLeadership := make(map[int64]bool)

	for _, rule := range rules {
		roleName, err := e.deps.Roles.RoleName(ctx, g.ID, rule.RoleID)
		if errors.Is(err, ErrStaleStipendRole) {
			if derr := e.deps.Stipends.Delete(ctx, rule); derr != nil {
				e.log.Warn("stale stipend prune failed", "guild_id", g.ID, "role_id", rule.RoleID, "err", derr)
				report.Failures++
				resetEntityFailures.WithLabelValues("stipend_rule").Inc()
				continue
			}
			e.log.Info("pruned stale stipend rule", "guild_id", g.ID, "role_id", rule.RoleID)
			report.RulesPruned++
			resetRulesPruned.Inc()
			continue
		}
		if err != nil {
			e.log.Warn("role lookup failed", "guild_id", g.ID, "role_id", rule.RoleID, "err", err)
			report.Failures++
			resetEntityFailures.WithLabelValues("stipend_rule").Inc()
			continue
		}

		if !rule.Leadership && IsShopkeeperRule(roleName, rule) {
			r := rule
			pending, pendingRole = &r, roleName
			continue
		}

		members, err := e.deps.Roles.RoleMembers(ctx, g.ID, rule.RoleID)
		if err != nil {
			e.log.Warn("role members lookup failed", "guild_id", g.ID, "role_id", rule.RoleID, "err", err)
			report.Failures++
			resetEntityFailures.WithLabelValues("stipend_rule").Inc()
			continue
		}

		eligible := members
		if rule.Leadership {
			eligible = make([]int64, 0, len(members))
			for _, playerID := range members {
				if !grantedLeadership[playerID] {
					eligible = append(eligible, playerID)
				}
			}
		}

		reason := fmt.Sprintf("Stipend Role: %s - %s", roleName, rule.Reason)
		for _, playerID := range eligible {
			c, err := e.deps.Characters.ActiveByPlayer(ctx, g.ID, playerID)
			if errors.Is(err, ErrNoActiveCharacter) {
				continue
			}
			if err != nil {
				e.log.Warn("character lookup failed", "guild_id", g.ID, "player_id", playerID, "err", err)
				report.Failures++
				resetEntityFailures.WithLabelValues("character").Inc()
				continue
			}
			e.grant(ctx, g, c, rule.Ratio, reason, report)
		}
		if rule.Leadership {
			for _, playerID := range eligible {
				grantedLeadership[playerID] = true
			}
		}
	}
	return pending, pendingRole
}

// resetShops closes the weekly shop cycle. Shops that rolled inventory earn
// their owner the deferred shopkeeper stipend; every shop gets its seek
// budget restored whether or not the owner resolves.
func (e *Engine) resetShops(ctx context.Context, g Guild, pending *StipendRule, pendingRole string, report *ResetReport) {
	shops, err := e.deps.Shops.List(ctx, g.ID)
	if err != nil {
		e.log.Warn("shop list failed", "guild_id", g.ID, "err", err)
		report.Failures++
		resetEntityFailures.WithLabelValues("shop").Inc()
		return
	}
	for _, shop := range shops {
		if pending != nil && shop.InventoryRolled {
			c, err := e.deps.Characters.ActiveByPlayer(ctx, g.ID, shop.OwnerID)
			switch {
			case errors.Is(err, ErrNoActiveCharacter):
				e.log.Info("shop owner has no active character, stipend skipped",
					"guild_id", g.ID, "shop_id", shop.ID, "owner_id", shop.OwnerID)
			case err != nil:
				e.log.Warn("shop owner lookup failed", "guild_id", g.ID, "shop_id", shop.ID, "err", err)
				report.Failures++
				resetEntityFailures.WithLabelValues("shop").Inc()
			default:
				reason := fmt.Sprintf("Stipend Role: %s - Shopkeeper Stipend", pendingRole)
				e.grant(ctx, g, c, pending.Ratio, reason, report)
			}
		}

		shop.SeeksRemaining = shop.NetworkLevel + 1
		shop.InventoryRolled = false
		if err := e.deps.Shops.Update(ctx, shop); err != nil {
			e.log.Warn("shop reset failed", "guild_id", g.ID, "shop_id", shop.ID, "err", err)
			report.Failures++
			resetEntityFailures.WithLabelValues("shop").Inc()
			continue
		}
		report.ShopsReset++
	}
}

// grant pays one stipend: a ledger entry first, then the character totals.
func (e *Engine) grant(ctx context.Context, g Guild, c Character, ratio float64, reason string, report *ResetReport) {
	caps := CapsFor(c, g)
	gold, xp := GrantAmounts(caps, ratio)

	entry := LedgerEntry{
		ID:          uuid.NewString(),
		CharacterID: c.ID,
		GuildID:     g.ID,
		Activity:    ActivityStipend,
		Gold:        gold,
		XP:          xp,
		Reason:      reason,
		CreatedAt:   e.now().UTC(),
	}
	if err := e.deps.Ledger.Append(ctx, entry); err != nil {
		e.log.Warn("ledger append failed", "guild_id", g.ID, "character_id", c.ID, "err", err)
		report.Failures++
		resetEntityFailures.WithLabelValues("ledger").Inc()
		return
	}

	c.Gold += gold
	c.XP += xp
	if err := e.deps.Characters.Update(ctx, c); err != nil {
		e.log.Warn("stipend apply failed", "guild_id", g.ID, "character_id", c.ID, "err", err)
		report.Failures++
		resetEntityFailures.WithLabelValues("character").Inc()
		return
	}
	report.StipendsPaid++
}

func (e *Engine) observe(ctx context.Context, report ResetReport) {
	outcome := "ok"
	if report.Failures > 0 {
		outcome = "partial"
	}
	resetRuns.WithLabelValues(outcome).Inc()
	resetDuration.Observe(report.Duration.Seconds())

	e.log.Info("weekly reset complete",
		"guild_id", report.GuildID,
		"weekly_server_xp", report.WeeklyServerXP,
		"player_xp", report.PlayerXP,
		"player_gold", report.PlayerGold,
		"characters", report.CharactersSeen,
		"stipends_paid", report.StipendsPaid,
		"rules_pruned", report.RulesPruned,
		"shops_reset", report.ShopsReset,
		"failures", report.Failures,
		"duration", report.Duration.String(),
	)
	if e.deps.Announcer != nil {
		e.deps.Announcer.ResetComplete(ctx, report.GuildID, report.Duration, report.OK())
	}
}

func (e *Engine) acquire(guildID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight[guildID] {
		return false
	}
	e.inFlight[guildID] = true
	return true
}

func (e *Engine) release(guildID int64) {
	e.mu.Lock()
	delete(e.inFlight, guildID)
	e.mu.Unlock()
}
