package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"waystone/internal/economy"
)

var weekdayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var guildCommand = &discordgo.ApplicationCommand{
	Name:        "guild",
	Description: "Guild economy settings and the weekly reset",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "status",
			Description: "Show the guild's economy settings and reset schedule",
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "weekly-reset",
			Description: "Run the weekly reset for this guild now",
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "schedule-reset",
			Description: "Schedule the weekly reset",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "day",
					Description: "Day of week, or none to disable automatic resets",
					Required:    true,
					Choices:     weekdayChoices(),
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "hour",
					Description: "Hour of the reset in UTC (0-23)",
					Required:    true,
					MinValue:    float64Ptr(0),
					MaxValue:    23,
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "add-stipend",
			Description: "Add or update a weekly stipend for a role",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "role",
					Description: "Role to pay the stipend to",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionNumber,
					Name:        "ratio",
					Description: "Fraction of the weekly cap (may exceed 1.0)",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "reason",
					Description: "Reason for the stipend",
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "leadership",
					Description: "Leadership stipends do not stack within one cycle",
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "remove-stipend",
			Description: "Remove a role's weekly stipend",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "role",
					Description: "Role to remove the stipend for",
					Required:    true,
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "set-xp",
			Description: "Override the guild's cumulative XP pool",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "XP amount to set",
					Required:    true,
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "max-level",
			Description: "Set the maximum character level (resets XP pools)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "Maximum character level",
					Required:    true,
					MinValue:    float64Ptr(1),
					MaxValue:    economy.MaxCharacterLevel,
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "xp-adjust",
			Description: "Set the XP tuning multiplier",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "XP adjustment multiplier",
					Required:    true,
					MinValue:    float64Ptr(1),
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "max-reroll",
			Description: "Set the maximum number of character rerolls",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "Maximum rerolls allowed",
					Required:    true,
					MinValue:    float64Ptr(0),
				},
			},
		},
	},
}

func weekdayChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(weekdayNames)+1)
	for _, name := range weekdayNames {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name})
	}
	return append(choices, &discordgo.ApplicationCommandOptionChoice{Name: "None", Value: "None"})
}

func float64Ptr(v float64) *float64 { return &v }

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.Name != "guild" || len(data.Options) == 0 {
		return
	}
	guildID, err := parseID(i.GuildID)
	if err != nil {
		b.respond(s, i, "This command only works inside a guild.")
		return
	}

	ctx := context.Background()
	sub := data.Options[0]
	opts := optionMap(sub.Options)

	switch sub.Name {
	case "status":
		b.handleStatus(ctx, s, i, guildID)
	case "weekly-reset":
		b.handleWeeklyReset(ctx, s, i, guildID)
	case "schedule-reset":
		b.handleScheduleReset(ctx, s, i, guildID, opts)
	case "add-stipend":
		b.handleAddStipend(ctx, s, i, guildID, opts)
	case "remove-stipend":
		b.handleRemoveStipend(ctx, s, i, guildID, opts)
	case "set-xp":
		b.mutateGuild(ctx, s, i, guildID, func(g *economy.Guild) {
			g.ServerXP = opts["amount"].IntValue()
		})
	case "max-level":
		b.mutateGuild(ctx, s, i, guildID, func(g *economy.Guild) {
			g.MaxLevel = int(opts["amount"].IntValue())
			g.WeekXP = 0
			g.ServerXP = 0
		})
	case "xp-adjust":
		b.mutateGuild(ctx, s, i, guildID, func(g *economy.Guild) {
			g.XPAdjust = opts["amount"].IntValue()
		})
	case "max-reroll":
		b.mutateGuild(ctx, s, i, guildID, func(g *economy.Guild) {
			g.MaxRerolls = int(opts["amount"].IntValue())
		})
	}
}

func (b *Bot) handleStatus(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, guildID int64) {
	g, err := b.guilds.GetOrCreate(ctx, guildID)
	if err != nil {
		b.respondErr(s, i, err)
		return
	}
	schedule := "manual only"
	if g.ResetDay != nil && g.ResetHour != nil {
		schedule = fmt.Sprintf("%s %02d:00 UTC (next: %s)",
			weekdayNames[*g.ResetDay], *g.ResetHour,
			g.NextReset(time.Now()).Format("Jan 2 15:04 MST"))
	}
	b.respond(s, i, fmt.Sprintf(
		"Max level: %d | Server XP: %d | Week XP: %d | Weeks: %d | XP adjust: %d | Max rerolls: %d\nReset: %s",
		g.MaxLevel, g.ServerXP, g.WeekXP, g.WeeksElapsed, g.XPAdjust, g.MaxRerolls, schedule))
}

func (b *Bot) handleWeeklyReset(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, guildID int64) {
	// The reset can take a while on large guilds; defer and edit.
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		b.log.Error("interaction defer failed", "guild_id", guildID, "err", err)
		return
	}

	report, err := b.engine.RunWeeklyReset(ctx, guildID)
	var msg string
	switch {
	case errors.Is(err, economy.ErrResetInFlight):
		msg = "A reset is already running for this guild."
	case err != nil:
		b.log.Error("manual reset failed", "guild_id", guildID, "err", err)
		msg = "Weekly reset failed; see the bot logs."
	default:
		msg = fmt.Sprintf(
			"Weekly reset complete in %.2f seconds: %d characters reconciled, %d stipends paid, %d shops reset.",
			report.Duration.Seconds(), report.CharactersSeen, report.StipendsPaid, report.ShopsReset)
		if report.Failures > 0 {
			msg += fmt.Sprintf(" %d records could not be updated.", report.Failures)
		}
	}
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &msg}); err != nil {
		b.log.Error("interaction edit failed", "guild_id", guildID, "err", err)
	}
}

func (b *Bot) handleScheduleReset(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate,
	guildID int64, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	day := opts["day"].StringValue()
	hour := int(opts["hour"].IntValue())

	b.mutateGuild(ctx, s, i, guildID, func(g *economy.Guild) {
		if day == "None" {
			g.ResetDay = nil
			g.ResetHour = nil
			return
		}
		for idx, name := range weekdayNames {
			if name == day {
				d := idx
				g.ResetDay = &d
				break
			}
		}
		g.ResetHour = &hour
	})
}

func (b *Bot) handleAddStipend(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate,
	guildID int64, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	role := opts["role"].RoleValue(nil, "")
	roleID, err := parseID(role.ID)
	if err != nil {
		b.respondErr(s, i, err)
		return
	}
	rule := economy.StipendRule{
		RoleID:  roleID,
		GuildID: guildID,
		Ratio:   opts["ratio"].FloatValue(),
	}
	if o, ok := opts["reason"]; ok {
		rule.Reason = o.StringValue()
	}
	if o, ok := opts["leadership"]; ok {
		rule.Leadership = o.BoolValue()
	}
	if err := b.stipends.Upsert(ctx, rule); err != nil {
		b.respondErr(s, i, err)
		return
	}
	b.respond(s, i, fmt.Sprintf("Stipend for <@&%s> at a ratio of %g added/updated.", role.ID, rule.Ratio))
}

func (b *Bot) handleRemoveStipend(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate,
	guildID int64, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	role := opts["role"].RoleValue(nil, "")
	roleID, err := parseID(role.ID)
	if err != nil {
		b.respondErr(s, i, err)
		return
	}
	if err := b.stipends.Delete(ctx, economy.StipendRule{RoleID: roleID, GuildID: guildID}); err != nil {
		b.respondErr(s, i, err)
		return
	}
	b.respond(s, i, fmt.Sprintf("Stipend for <@&%s> removed.", role.ID))
}

func (b *Bot) mutateGuild(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate,
	guildID int64, mutate func(*economy.Guild)) {
	g, err := b.guilds.GetOrCreate(ctx, guildID)
	if err != nil {
		b.respondErr(s, i, err)
		return
	}
	mutate(&g)
	if err := b.guilds.Update(ctx, g); err != nil {
		b.respondErr(s, i, err)
		return
	}
	b.handleStatus(ctx, s, i, guildID)
}

func (b *Bot) respond(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: msg},
	})
	if err != nil {
		b.log.Error("interaction respond failed", "err", err)
	}
}

func (b *Bot) respondErr(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	b.log.Error("guild command failed", "err", err)
	b.respond(s, i, "Something went wrong; see the bot logs.")
}

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		out[o.Name] = o
	}
	return out
}
