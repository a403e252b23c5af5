package main

import (
	"strings"

	"github.com/fatih/color"

	cl "waystone/internal/cli"
	"waystone/internal/economy"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

var weekdayLabels = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func printWarn(msg string) {
	warn.Println(msg)
}

func printGuildStatus(status cl.GuildStatus) {
	g := status.Guild
	accent.Printf("Guild %d\n", g.ID)
	neutral.Printf("  Max level:   %d\n", g.MaxLevel)
	neutral.Printf("  Server XP:   %d\n", g.ServerXP)
	neutral.Printf("  Week XP:     %d\n", g.WeekXP)
	neutral.Printf("  Weeks:       %d\n", g.WeeksElapsed)
	neutral.Printf("  XP adjust:   %d\n", g.XPAdjust)
	neutral.Printf("  Max rerolls: %d\n", g.MaxRerolls)

	if g.ResetDay != nil && g.ResetHour != nil {
		neutral.Printf("  Reset:       %s %02d:00 UTC\n", weekdayLabels[*g.ResetDay], *g.ResetHour)
		if status.NextReset != nil {
			neutral.Printf("  Next reset:  %s\n", status.NextReset.Format("Mon Jan 2 15:04 MST"))
		}
	} else {
		neutral.Printf("  Reset:       manual only\n")
	}
	if !g.LastReset.IsZero() {
		neutral.Printf("  Last reset:  %s\n", g.LastReset.Format("Mon Jan 2 15:04 MST"))
	}
}

func printResetReport(report economy.ResetReport) {
	if report.OK() {
		success.Printf("Weekly reset complete in %.2f seconds.\n", report.Duration.Seconds())
	} else {
		danger.Printf("Weekly reset completed with %d failures in %.2f seconds.\n",
			report.Failures, report.Duration.Seconds())
	}
	neutral.Printf("  Weekly server XP: %d\n", report.WeeklyServerXP)
	neutral.Printf("  Player XP folded: %d\n", report.PlayerXP)
	neutral.Printf("  Player gold:      %d\n", report.PlayerGold)
	neutral.Printf("  Characters:       %d\n", report.CharactersSeen)
	neutral.Printf("  Stipends paid:    %d\n", report.StipendsPaid)
	neutral.Printf("  Rules pruned:     %d\n", report.RulesPruned)
	neutral.Printf("  Shops reset:      %d\n", report.ShopsReset)
}

func printLedger(entries []economy.LedgerEntry) {
	if len(entries) == 0 {
		printWarn("No ledger entries.")
		return
	}
	accent.Println("Ledger")
	for _, e := range entries {
		neutral.Printf("  %s  %-10s  gold %+d  xp %+d  %s\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Activity, e.Gold, e.XP, e.Reason)
	}
}

func printStipends(rules []economy.StipendRule) {
	if len(rules) == 0 {
		printWarn("No stipend rules configured.")
		return
	}
	accent.Println("Stipend rules")
	for _, r := range rules {
		tag := ""
		if r.Leadership {
			tag = " [leadership]"
		}
		reason := r.Reason
		if strings.TrimSpace(reason) == "" {
			reason = "-"
		}
		neutral.Printf("  role %d  ratio %.2f%s  %s\n", r.RoleID, r.Ratio, tag, reason)
	}
}
