package bot

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"warden/internal/config"
	"warden/internal/giveaways"
	"warden/internal/moderation"
	"warden/internal/sanctions"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type Bot struct {
	cfg       config.Config
	logger    *zap.Logger
	ledger    *moderation.Ledger
	scheduler *sanctions.Scheduler
	registry  *giveaways.Registry
	picker    *giveaways.Picker
	session   *discordgo.Session

	mutedRolesMu sync.Mutex
	mutedRoles   map[string]string
}

func New(cfg config.Config, logger *zap.Logger, ledger *moderation.Ledger, scheduler *sanctions.Scheduler, registry *giveaways.Registry, picker *giveaways.Picker) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildBans

	b := &Bot{
		cfg:        cfg,
		logger:     logger,
		ledger:     ledger,
		scheduler:  scheduler,
		registry:   registry,
		picker:     picker,
		session:    session,
		mutedRoles: make(map[string]string),
	}
	return b, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return err
	}

	return b.registerCommands()
}

func (b *Bot) Close(ctx context.Context) {
	_ = ctx
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready", zap.String("user", session.State.User.Username))
}

// Reverse undoes a punishment on Discord: role removal for a mute,
// unban for a tempban. Errors are platform rejections; the scheduler
// keeps the row so the reversal is retried later.
func (b *Bot) Reverse(ctx context.Context, guildID, userID int64, kind sanctions.Kind) error {
	guild := formatID(guildID)
	user := formatID(userID)

	switch kind {
	case sanctions.KindMute:
		roleID, err := b.ensureMutedRole(guild)
		if err != nil {
			return fmt.Errorf("resolve muted role: %w", err)
		}
		if err := b.session.GuildMemberRoleRemove(guild, user, roleID); err != nil {
			return fmt.Errorf("remove muted role: %w", err)
		}
	case sanctions.KindTempban:
		if err := b.session.GuildBanDelete(guild, user); err != nil {
			return fmt.Errorf("unban: %w", err)
		}
	default:
		return fmt.Errorf("unknown punishment kind %q", kind)
	}
	return nil
}

// ensureMutedRole resolves the configured muted role, creating it with
// send/speak/reaction denies across channels on first use.
func (b *Bot) ensureMutedRole(guildID string) (string, error) {
	b.mutedRolesMu.Lock()
	if roleID, ok := b.mutedRoles[guildID]; ok {
		b.mutedRolesMu.Unlock()
		return roleID, nil
	}
	b.mutedRolesMu.Unlock()

	roles, err := b.session.GuildRoles(guildID)
	if err != nil {
		return "", err
	}
	for _, role := range roles {
		if role.Name == b.cfg.Moderation.MutedRoleName {
			b.cacheMutedRole(guildID, role.ID)
			return role.ID, nil
		}
	}

	role, err := b.session.GuildRoleCreate(guildID, &discordgo.RoleParams{Name: b.cfg.Moderation.MutedRoleName})
	if err != nil {
		return "", err
	}

	deny := int64(discordgo.PermissionSendMessages | discordgo.PermissionVoiceSpeak | discordgo.PermissionAddReactions)
	channels, err := b.session.GuildChannels(guildID)
	if err == nil {
		for _, channel := range channels {
			// Best effort; channels the bot cannot manage are skipped.
			_ = b.session.ChannelPermissionSet(channel.ID, role.ID, discordgo.PermissionOverwriteTypeRole, 0, deny)
		}
	}

	b.logger.Info("muted role created", zap.String("guild_id", guildID), zap.String("role_id", role.ID))
	b.cacheMutedRole(guildID, role.ID)
	return role.ID, nil
}

func (b *Bot) cacheMutedRole(guildID, roleID string) {
	b.mutedRolesMu.Lock()
	b.mutedRoles[guildID] = roleID
	b.mutedRolesMu.Unlock()
}

func (b *Bot) applyMute(ctx context.Context, guildID, userID string, duration time.Duration) error {
	roleID, err := b.ensureMutedRole(guildID)
	if err != nil {
		return err
	}
	if err := b.session.GuildMemberRoleAdd(guildID, userID, roleID); err != nil {
		return err
	}
	if duration <= 0 {
		return nil
	}
	return b.scheduler.Schedule(ctx, parseIDOrZero(guildID), parseIDOrZero(userID), sanctions.KindMute, time.Now().Add(duration))
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func parseIDOrZero(s string) int64 {
	id, _ := parseID(s)
	return id
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= 24*time.Hour && d%(24*time.Hour) == 0:
		return fmt.Sprintf("%dd", d/(24*time.Hour))
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	default:
		return fmt.Sprintf("%dm", d/time.Minute)
	}
}
