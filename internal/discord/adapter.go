package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"waystone/internal/economy"
)

// Adapter implements the engine's RoleResolver and Announcer against a live
// Discord session, keeping the engine free of the platform's object model.
type Adapter struct {
	session         *discordgo.Session
	announceChannel string
	log             *slog.Logger
}

func NewAdapter(session *discordgo.Session, announceChannel string, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		session:         session,
		announceChannel: announceChannel,
		log:             logger,
	}
}

// RoleName resolves a role's display name, or ErrStaleStipendRole when the
// role has been deleted from the guild.
func (a *Adapter) RoleName(_ context.Context, guildID, roleID int64) (string, error) {
	roles, err := a.session.GuildRoles(formatID(guildID))
	if err != nil {
		return "", fmt.Errorf("list roles for guild %d: %w", guildID, err)
	}
	want := formatID(roleID)
	for _, r := range roles {
		if r.ID == want {
			return r.Name, nil
		}
	}
	return "", economy.ErrStaleStipendRole
}

// RoleMembers pages through the guild's member list and returns the player
// ids currently holding the role.
func (a *Adapter) RoleMembers(_ context.Context, guildID, roleID int64) ([]int64, error) {
	gid := formatID(guildID)
	want := formatID(roleID)

	var out []int64
	after := ""
	for {
		members, err := a.session.GuildMembers(gid, after, 1000)
		if err != nil {
			return nil, fmt.Errorf("list members for guild %d: %w", guildID, err)
		}
		if len(members) == 0 {
			return out, nil
		}
		for _, m := range members {
			for _, r := range m.Roles {
				if r != want {
					continue
				}
				playerID, err := parseID(m.User.ID)
				if err != nil {
					a.log.Warn("unparseable member id", "guild_id", guildID, "user_id", m.User.ID)
					break
				}
				out = append(out, playerID)
				break
			}
		}
		after = members[len(members)-1].User.ID
		if len(members) < 1000 {
			return out, nil
		}
	}
}

// ResetComplete posts the completion notice to the guild's announcement
// channel. Delivery failures are logged, never surfaced; the reset itself is
// already durable.
func (a *Adapter) ResetComplete(_ context.Context, guildID int64, d time.Duration, ok bool) {
	channels, err := a.session.GuildChannels(formatID(guildID))
	if err != nil {
		a.log.Error("announcement channel lookup failed", "guild_id", guildID, "err", err)
		return
	}
	var target *discordgo.Channel
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText && ch.Name == a.announceChannel {
			target = ch
			break
		}
	}
	if target == nil {
		return
	}

	msg := fmt.Sprintf("Weekly reset complete in %.2f seconds.", d.Seconds())
	if !ok {
		msg = fmt.Sprintf("Weekly reset complete in %.2f seconds. Some records could not be updated; see the bot logs.", d.Seconds())
	}
	if _, err := a.session.ChannelMessageSend(target.ID, msg); err != nil {
		a.log.Error("announcement send failed", "guild_id", guildID, "err", err)
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseID(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}
