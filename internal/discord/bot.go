package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"waystone/internal/economy"
)

// Bot owns the gateway session and the guild-management slash commands. All
// economy semantics live in the engine and stores; the bot is presentation.
type Bot struct {
	session  *discordgo.Session
	engine   *economy.Engine
	guilds   economy.GuildStore
	stipends economy.StipendStore
	log      *slog.Logger
}

func NewBot(session *discordgo.Session, engine *economy.Engine, guilds economy.GuildStore,
	stipends economy.StipendStore, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		session:  session,
		engine:   engine,
		guilds:   guilds,
		stipends: stipends,
		log:      logger,
	}
}

// NewSession builds a gateway session with the intents the bot needs: guild
// metadata and the member list for role-stipend resolution.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	return session, nil
}

// Start opens the gateway connection and registers the slash commands.
func (b *Bot) Start(ctx context.Context) error {
	b.session.AddHandler(b.handleInteraction)
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	if _, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, "", guildCommand); err != nil {
		return fmt.Errorf("register guild command: %w", err)
	}
	b.log.Info("discord bot connected", "user", b.session.State.User.Username)

	go func() {
		<-ctx.Done()
		if err := b.session.Close(); err != nil {
			b.log.Error("discord session close failed", "err", err)
		}
	}()
	return nil
}
