package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"warden/internal/giveaways"
	"warden/internal/storage"
	"warden/internal/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) handleGiveawayStart(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	opts := optionMap(options)
	title := opts["title"].StringValue()
	winners := int(opts["winners"].IntValue())
	requirements := ""
	if opt, ok := opts["requirements"]; ok {
		requirements = opt.StringValue()
	}

	duration, err := utils.ParseDuration(opts["duration"].StringValue())
	if err != nil {
		b.respondEmbed(session, interaction, b.commandEmbed("Giveaway", err.Error(), b.cfg.EmbedColors.Error, nil), true)
		return
	}
	endAt := time.Now().Add(duration)

	hostID := interaction.Member.User.ID
	id, err := b.registry.Open(ctx,
		parseIDOrZero(interaction.GuildID),
		parseIDOrZero(interaction.ChannelID),
		parseIDOrZero(hostID),
		title, requirements, winners, endAt)
	if err != nil {
		if errors.Is(err, giveaways.ErrWinnersCount) || errors.Is(err, giveaways.ErrEndNotFuture) {
			b.respondEmbed(session, interaction, b.commandEmbed("Giveaway", err.Error(), b.cfg.EmbedColors.Error, nil), true)
			return
		}
		b.logger.Error("giveaway open failed", zap.Error(err))
		b.respondEmbed(session, interaction, b.commandEmbed("Giveaway", "Could not create the giveaway.", b.cfg.EmbedColors.Error, nil), true)
		return
	}

	embed := b.giveawayEmbed(title, hostID, winners, requirements, endAt)
	components := []discordgo.MessageComponent{discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{joinButton(id, 0, false)},
	}}
	err = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
	if err != nil {
		b.logger.Error("giveaway announce failed", zap.Error(err))
		return
	}

	message, err := session.InteractionResponse(interaction.Interaction)
	if err != nil {
		b.logger.Error("giveaway announcement lookup failed", zap.Int64("giveaway_id", id), zap.Error(err))
		return
	}
	if err := b.registry.Bind(ctx, id, parseIDOrZero(message.ID)); err != nil {
		b.logger.Error("giveaway bind failed", zap.Int64("giveaway_id", id), zap.Error(err))
	}
}

func (b *Bot) handleGiveawayJoin(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, idStr string) {
	id, err := parseID(idStr)
	if err != nil {
		return
	}
	userID := parseIDOrZero(interaction.Member.User.ID)

	joined, err := b.registry.Toggle(ctx, id, userID)
	if err != nil {
		if errors.Is(err, giveaways.ErrGiveawayClosed) || errors.Is(err, storage.ErrNotFound) {
			b.respondEmbed(session, interaction, b.commandEmbed("Giveaway", "This giveaway has ended.", b.cfg.EmbedColors.Warning, nil), true)
			return
		}
		b.logger.Error("giveaway toggle failed", zap.Int64("giveaway_id", id), zap.Error(err))
		b.respondEmbed(session, interaction, b.commandEmbed("Giveaway", "Could not update your entry.", b.cfg.EmbedColors.Error, nil), true)
		return
	}

	count, err := b.registry.EntryCount(ctx, id)
	if err != nil {
		b.logger.Warn("giveaway entry count failed", zap.Int64("giveaway_id", id), zap.Error(err))
	}

	err = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds: interaction.Message.Embeds,
			Components: []discordgo.MessageComponent{discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{joinButton(id, count, false)},
			}},
		},
	})
	if err != nil {
		b.logger.Warn("giveaway button update failed", zap.Error(err))
		return
	}

	g, err := b.registry.Get(ctx, id)
	if err != nil {
		return
	}
	content := fmt.Sprintf("🎉 You have entered **%s**. Good luck!", g.Title)
	if !joined {
		content = fmt.Sprintf("👋 You have left **%s**.", g.Title)
	}
	_, err = session.FollowupMessageCreate(interaction.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		b.logger.Warn("giveaway followup failed", zap.Error(err))
	}
}

func (b *Bot) handleGiveawayParticipants(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if interaction.Member.Permissions&discordgo.PermissionManageGuild == 0 {
		b.respondEmbed(session, interaction, b.commandEmbed("Giveaway", "You need Manage Server to inspect participants.", b.cfg.EmbedColors.Error, nil), true)
		return
	}

	g, ok := b.giveawayByMessageOption(ctx, session, interaction, options)
	if !ok {
		return
	}

	entries, err := b.registry.Entries(ctx, g.ID)
	if err != nil {
		b.logger.Error("giveaway entries failed", zap.Int64("giveaway_id", g.ID), zap.Error(err))
		b.respondEmbed(session, interaction, b.commandEmbed("Giveaway", "Could not read the participants.", b.cfg.EmbedColors.Error, nil), true)
		return
	}
	if len(entries) == 0 {
		b.respondEmbed(session, interaction, b.commandEmbed("Participants", "Nobody has entered yet.", b.cfg.EmbedColors.Warning, nil), true)
		return
	}

	embed := b.commandEmbed(fmt.Sprintf("Participants in %s (%d)", g.Title, len(entries)), mentionList(entries), b.cfg.EmbedColors.Action, nil)
	b.respondEmbed(session, interaction, embed, true)
}

func (b *Bot) handleGiveawayCancel(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	g, ok := b.giveawayByMessageOption(ctx, session, interaction, options)
	if !ok {
		return
	}

	count, _ := b.registry.EntryCount(ctx, g.ID)
	if err := b.registry.Cancel(ctx, g.ID); err != nil {
		if errors.Is(err, giveaways.ErrGiveawayClosed) {
			b.respondEmbed(session, interaction, b.commandEmbed("Giveaway", "That giveaway already ended.", b.cfg.EmbedColors.Warning, nil), true)
			return
		}
		b.logger.Error("giveaway cancel failed", zap.Int64("giveaway_id", g.ID), zap.Error(err))
		b.respondEmbed(session, interaction, b.commandEmbed("Giveaway", "Could not cancel the giveaway.", b.cfg.EmbedColors.Error, nil), true)
		return
	}

	b.disableJoinButton(g, count)
	b.respondEmbed(session, interaction, b.commandEmbed("Giveaway cancelled", fmt.Sprintf("**%s** was cancelled; entries were discarded.", g.Title), b.cfg.EmbedColors.Warning, nil), false)
}

func (b *Bot) handleGiveawayReroll(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	g, ok := b.giveawayByMessageOption(ctx, session, interaction, options)
	if !ok {
		return
	}

	entries, err := b.registry.Entries(ctx, g.ID)
	if err != nil {
		b.logger.Error("giveaway entries failed", zap.Int64("giveaway_id", g.ID), zap.Error(err))
		b.respondEmbed(session, interaction, b.commandEmbed("Giveaway", "Could not read the participants.", b.cfg.EmbedColors.Error, nil), true)
		return
	}

	winners := b.picker.Pick(entries, g.Winners)
	if len(winners) == 0 {
		b.respondEmbed(session, interaction, b.commandEmbed("Giveaway", "No participants to draw from.", b.cfg.EmbedColors.Warning, nil), true)
		return
	}

	embed := b.commandEmbed("🔁 Giveaway rerolled",
		fmt.Sprintf("Congratulations %s, you won **%s**!", mentionList(winners), g.Title),
		b.cfg.EmbedColors.Action, nil)
	b.respondEmbed(session, interaction, embed, false)
}

// GiveawayEnded announces a closed giveaway and retires its join button.
// It implements giveaways.Reporter for the sweeper.
func (b *Bot) GiveawayEnded(ctx context.Context, g storage.Giveaway, winners []int64) {
	count, err := b.registry.EntryCount(ctx, g.ID)
	if err != nil {
		count = len(winners)
	}
	b.disableJoinButton(g, count)

	channelID := formatID(g.ChannelID)
	if len(winners) == 0 {
		_, err := b.session.ChannelMessageSend(channelID, fmt.Sprintf("❌ **%s** ended with no entries; no winners were drawn.", g.Title))
		if err != nil {
			b.logger.Warn("giveaway end announce failed", zap.Int64("giveaway_id", g.ID), zap.Error(err))
		}
		return
	}

	embed := b.commandEmbed("🎉 Giveaway ended",
		fmt.Sprintf("Congratulations %s, you won **%s**!", mentionList(winners), g.Title),
		b.cfg.EmbedColors.Action, nil)
	if _, err := b.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
		b.logger.Warn("giveaway end announce failed", zap.Int64("giveaway_id", g.ID), zap.Error(err))
	}
}

// giveawayByMessageOption resolves the message_id option to a giveaway,
// responding to the interaction itself on failure.
func (b *Bot) giveawayByMessageOption(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) (storage.Giveaway, bool) {
	opts := optionMap(options)
	messageID, err := parseID(opts["message_id"].StringValue())
	if err != nil {
		b.respondEmbed(session, interaction, b.commandEmbed("Giveaway", "That is not a valid message id.", b.cfg.EmbedColors.Error, nil), true)
		return storage.Giveaway{}, false
	}

	g, err := b.registry.ByMessage(ctx, messageID)
	if errors.Is(err, storage.ErrNotFound) {
		b.respondEmbed(session, interaction, b.commandEmbed("Giveaway", "No giveaway found for that message.", b.cfg.EmbedColors.Warning, nil), true)
		return storage.Giveaway{}, false
	}
	if err != nil {
		b.logger.Error("giveaway lookup failed", zap.Int64("message_id", messageID), zap.Error(err))
		b.respondEmbed(session, interaction, b.commandEmbed("Giveaway", "Could not look up the giveaway.", b.cfg.EmbedColors.Error, nil), true)
		return storage.Giveaway{}, false
	}
	return g, true
}

func (b *Bot) disableJoinButton(g storage.Giveaway, count int) {
	if g.MessageID == 0 {
		return
	}
	components := []discordgo.MessageComponent{discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{joinButton(g.ID, count, true)},
	}}
	_, err := b.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    formatID(g.ChannelID),
		ID:         formatID(g.MessageID),
		Components: &components,
	})
	if err != nil {
		b.logger.Warn("giveaway button retire failed", zap.Int64("giveaway_id", g.ID), zap.Error(err))
	}
}

func (b *Bot) giveawayEmbed(title, hostID string, winners int, requirements string, endAt time.Time) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Hosted by", Value: "<@" + hostID + ">", Inline: true},
		{Name: "Winners", Value: fmt.Sprintf("%d", winners), Inline: true},
		{Name: "Ends", Value: fmt.Sprintf("<t:%d:R>", endAt.Unix()), Inline: true},
	}
	if requirements != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Requirements", Value: requirements})
	}
	return &discordgo.MessageEmbed{
		Title:  "🎉 " + title,
		Color:  b.cfg.EmbedColors.Action,
		Fields: fields,
		Footer: &discordgo.MessageEmbedFooter{Text: "Click the button below to join"},
	}
}

func joinButton(id int64, count int, disabled bool) discordgo.Button {
	return discordgo.Button{
		Label:    fmt.Sprintf("🎉 Join Giveaway (%d)", count),
		Style:    discordgo.SuccessButton,
		CustomID: fmt.Sprintf("giveaway_join:%d", id),
		Disabled: disabled,
	}
}

func mentionList(users []int64) string {
	mentions := make([]string, len(users))
	for i, user := range users {
		mentions[i] = "<@" + formatID(user) + ">"
	}
	return strings.Join(mentions, ", ")
}
