package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"warden/internal/escalation"
	"warden/internal/sanctions"
	"warden/internal/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	ctx := context.Background()

	switch interaction.Type {
	case discordgo.InteractionApplicationCommand:
		data := interaction.ApplicationCommandData()
		if interaction.GuildID == "" {
			b.respondEmbed(session, interaction, b.commandEmbed("Moderation", "This command only works in a server.", b.cfg.EmbedColors.Error, nil), true)
			return
		}
		switch data.Name {
		case "warn":
			b.handleWarn(ctx, session, interaction, data.Options)
		case "warns":
			b.handleWarns(ctx, session, interaction, data.Options)
		case "mute":
			b.handleMute(ctx, session, interaction, data.Options)
		case "unmute":
			b.handleUnmute(ctx, session, interaction, data.Options)
		case "kick":
			b.handleKick(ctx, session, interaction, data.Options)
		case "ban":
			b.handleBan(ctx, session, interaction, data.Options)
		case "unban":
			b.handleUnban(ctx, session, interaction, data.Options)
		case "tempban":
			b.handleTempban(ctx, session, interaction, data.Options)
		case "giveaway_start":
			b.handleGiveawayStart(ctx, session, interaction, data.Options)
		case "giveaway_participants":
			b.handleGiveawayParticipants(ctx, session, interaction, data.Options)
		case "giveaway_cancel":
			b.handleGiveawayCancel(ctx, session, interaction, data.Options)
		case "giveaway_reroll":
			b.handleGiveawayReroll(ctx, session, interaction, data.Options)
		}
	case discordgo.InteractionMessageComponent:
		customID := interaction.MessageComponentData().CustomID
		if strings.HasPrefix(customID, "giveaway_join:") {
			b.handleGiveawayJoin(ctx, session, interaction, strings.TrimPrefix(customID, "giveaway_join:"))
		}
	}
}

func (b *Bot) handleWarn(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	opts := optionMap(options)
	target := opts["user"].UserValue(session)
	reason := opts["reason"].StringValue()
	permanent := false
	if opt, ok := opts["permanent"]; ok {
		permanent = opt.BoolValue()
	}

	guildID := parseIDOrZero(interaction.GuildID)
	userID := parseIDOrZero(target.ID)
	modID := parseIDOrZero(interaction.Member.User.ID)

	if _, err := b.ledger.RecordWarn(ctx, guildID, userID, modID, reason, permanent); err != nil {
		b.logger.Error("warn failed", zap.Error(err))
		b.respondEmbed(session, interaction, b.commandEmbed("Warn", "Could not record the warn.", b.cfg.EmbedColors.Error, nil), true)
		return
	}

	count, err := b.ledger.ActiveWarns(ctx, guildID, userID)
	if err != nil {
		b.logger.Error("warn count failed", zap.Error(err))
		b.respondEmbed(session, interaction, b.commandEmbed("Warn", "Warn recorded, but the active count is unavailable.", b.cfg.EmbedColors.Warning, nil), true)
		return
	}

	action := "none"
	directive := escalation.Evaluate(count)
	switch directive.Action {
	case escalation.ActionMute:
		if err := b.applyMute(ctx, interaction.GuildID, target.ID, directive.MuteDuration); err != nil {
			b.logger.Error("escalation mute failed", zap.Error(err))
			action = "mute failed"
		} else {
			action = "muted for " + formatDuration(directive.MuteDuration)
		}
	case escalation.ActionBan:
		if err := session.GuildBanCreateWithReason(interaction.GuildID, target.ID, "warn threshold reached", 0); err != nil {
			b.logger.Error("escalation ban failed", zap.Error(err))
			action = "ban failed"
		} else {
			action = "banned"
		}
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "User", Value: target.Mention(), Inline: true},
		{Name: "Active warns", Value: fmt.Sprintf("%d", count), Inline: true},
		{Name: "Escalation", Value: action, Inline: true},
		{Name: "Reason", Value: reason, Inline: false},
	}
	b.respondEmbed(session, interaction, b.commandEmbed("Warn issued", "", b.cfg.EmbedColors.Action, fields), false)
}

func (b *Bot) handleWarns(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	opts := optionMap(options)
	target := opts["user"].UserValue(session)

	count, err := b.ledger.ActiveWarns(ctx, parseIDOrZero(interaction.GuildID), parseIDOrZero(target.ID))
	if err != nil {
		b.logger.Error("warn count failed", zap.Error(err))
		b.respondEmbed(session, interaction, b.commandEmbed("Warns", "Could not read the warn count.", b.cfg.EmbedColors.Error, nil), true)
		return
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "User", Value: target.Mention(), Inline: true},
		{Name: "Active warns", Value: fmt.Sprintf("%d", count), Inline: true},
	}
	b.respondEmbed(session, interaction, b.commandEmbed("Warns", "", b.cfg.EmbedColors.Action, fields), true)
}

func (b *Bot) handleMute(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	opts := optionMap(options)
	target := opts["user"].UserValue(session)

	duration := time.Duration(0)
	if opt, ok := opts["duration"]; ok {
		parsed, err := utils.ParseDuration(opt.StringValue())
		if err != nil {
			b.respondEmbed(session, interaction, b.commandEmbed("Mute", err.Error(), b.cfg.EmbedColors.Error, nil), true)
			return
		}
		duration = parsed
	}

	if err := b.applyMute(ctx, interaction.GuildID, target.ID, duration); err != nil {
		b.logger.Error("mute failed", zap.Error(err))
		b.respondEmbed(session, interaction, b.commandEmbed("Mute", "Could not apply the mute.", b.cfg.EmbedColors.Error, nil), true)
		return
	}

	until := "indefinite"
	if duration > 0 {
		until = fmt.Sprintf("<t:%d:R>", time.Now().Add(duration).Unix())
	}
	fields := []*discordgo.MessageEmbedField{
		{Name: "User", Value: target.Mention(), Inline: true},
		{Name: "Expires", Value: until, Inline: true},
	}
	if opt, ok := opts["reason"]; ok {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Reason", Value: opt.StringValue()})
	}
	b.respondEmbed(session, interaction, b.commandEmbed("Muted", "", b.cfg.EmbedColors.Action, fields), false)
}

func (b *Bot) handleUnmute(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	opts := optionMap(options)
	target := opts["user"].UserValue(session)

	reversed, err := b.scheduler.Reverse(ctx, parseIDOrZero(interaction.GuildID), parseIDOrZero(target.ID), sanctions.KindMute)
	var platformErr *sanctions.PlatformError
	if errors.As(err, &platformErr) {
		b.respondEmbed(session, interaction, b.commandEmbed("Unmute", "Discord rejected the unmute; it will be retried.", b.cfg.EmbedColors.Error, nil), true)
		return
	}
	if err != nil {
		b.logger.Error("unmute failed", zap.Error(err))
		b.respondEmbed(session, interaction, b.commandEmbed("Unmute", "Could not lift the mute.", b.cfg.EmbedColors.Error, nil), true)
		return
	}

	if !reversed {
		// No timed mute pending: either already settled, or an
		// indefinite mute that only exists as the role.
		roleID, roleErr := b.ensureMutedRole(interaction.GuildID)
		if roleErr == nil {
			_ = session.GuildMemberRoleRemove(interaction.GuildID, target.ID, roleID)
		}
		b.respondEmbed(session, interaction, b.commandEmbed("Unmute", target.Mention()+" had no timed mute pending; role cleared.", b.cfg.EmbedColors.Warning, nil), true)
		return
	}

	b.respondEmbed(session, interaction, b.commandEmbed("Unmuted", target.Mention()+" can speak again.", b.cfg.EmbedColors.Action, nil), false)
}

func (b *Bot) handleKick(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	opts := optionMap(options)
	target := opts["user"].UserValue(session)
	reason := opts["reason"].StringValue()

	if err := session.GuildMemberDeleteWithReason(interaction.GuildID, target.ID, reason); err != nil {
		b.logger.Error("kick failed", zap.Error(err))
		b.respondEmbed(session, interaction, b.commandEmbed("Kick", "Could not kick the member.", b.cfg.EmbedColors.Error, nil), true)
		return
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "User", Value: target.Mention(), Inline: true},
		{Name: "Reason", Value: reason, Inline: false},
	}
	b.respondEmbed(session, interaction, b.commandEmbed("Kicked", "", b.cfg.EmbedColors.Action, fields), false)
}

func (b *Bot) handleBan(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	opts := optionMap(options)
	target := opts["user"].UserValue(session)
	reason := opts["reason"].StringValue()

	if err := session.GuildBanCreateWithReason(interaction.GuildID, target.ID, reason, 0); err != nil {
		b.logger.Error("ban failed", zap.Error(err))
		b.respondEmbed(session, interaction, b.commandEmbed("Ban", "Could not ban the member.", b.cfg.EmbedColors.Error, nil), true)
		return
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "User", Value: target.Mention(), Inline: true},
		{Name: "Reason", Value: reason, Inline: false},
	}
	b.respondEmbed(session, interaction, b.commandEmbed("Banned", "", b.cfg.EmbedColors.Action, fields), false)
}

func (b *Bot) handleUnban(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	opts := optionMap(options)
	userIDStr := opts["user_id"].StringValue()
	userID, err := parseID(userIDStr)
	if err != nil {
		b.respondEmbed(session, interaction, b.commandEmbed("Unban", "That is not a valid user id.", b.cfg.EmbedColors.Error, nil), true)
		return
	}

	reversed, err := b.scheduler.Reverse(ctx, parseIDOrZero(interaction.GuildID), userID, sanctions.KindTempban)
	var platformErr *sanctions.PlatformError
	if errors.As(err, &platformErr) {
		b.respondEmbed(session, interaction, b.commandEmbed("Unban", "Discord rejected the unban; it will be retried.", b.cfg.EmbedColors.Error, nil), true)
		return
	}
	if err != nil {
		b.logger.Error("unban failed", zap.Error(err))
		b.respondEmbed(session, interaction, b.commandEmbed("Unban", "Could not lift the ban.", b.cfg.EmbedColors.Error, nil), true)
		return
	}
	if !reversed {
		// Not a pending tempban; lift a manual ban directly.
		if err := session.GuildBanDelete(interaction.GuildID, userIDStr); err != nil {
			b.respondEmbed(session, interaction, b.commandEmbed("Unban", "No ban found for that user.", b.cfg.EmbedColors.Warning, nil), true)
			return
		}
	}

	b.respondEmbed(session, interaction, b.commandEmbed("Unbanned", "<@"+userIDStr+"> may rejoin.", b.cfg.EmbedColors.Action, nil), false)
}

func (b *Bot) handleTempban(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	opts := optionMap(options)
	target := opts["user"].UserValue(session)
	reason := opts["reason"].StringValue()

	duration, err := utils.ParseDuration(opts["duration"].StringValue())
	if err != nil {
		b.respondEmbed(session, interaction, b.commandEmbed("Tempban", err.Error(), b.cfg.EmbedColors.Error, nil), true)
		return
	}

	if err := session.GuildBanCreateWithReason(interaction.GuildID, target.ID, reason, 0); err != nil {
		b.logger.Error("tempban failed", zap.Error(err))
		b.respondEmbed(session, interaction, b.commandEmbed("Tempban", "Could not ban the member.", b.cfg.EmbedColors.Error, nil), true)
		return
	}

	expiresAt := time.Now().Add(duration)
	if err := b.scheduler.Schedule(ctx, parseIDOrZero(interaction.GuildID), parseIDOrZero(target.ID), sanctions.KindTempban, expiresAt); err != nil {
		b.logger.Error("tempban schedule failed", zap.Error(err))
		b.respondEmbed(session, interaction, b.commandEmbed("Tempban", "Banned, but the automatic unban could not be scheduled.", b.cfg.EmbedColors.Warning, nil), true)
		return
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "User", Value: target.Mention(), Inline: true},
		{Name: "Expires", Value: fmt.Sprintf("<t:%d:R>", expiresAt.Unix()), Inline: true},
		{Name: "Reason", Value: reason, Inline: false},
	}
	b.respondEmbed(session, interaction, b.commandEmbed("Tempbanned", "", b.cfg.EmbedColors.Action, fields), false)
}

func (b *Bot) commandEmbed(title, description string, color int, fields []*discordgo.MessageEmbedField) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields:      fields,
	}
}

func (b *Bot) respondEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.logger.Warn("interaction respond failed", zap.Error(err))
	}
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	result := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		result[opt.Name] = opt
	}
	return result
}
