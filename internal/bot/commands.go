package bot

import "github.com/bwmarrin/discordgo"

func (b *Bot) registerCommands() error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "warn",
			Description: "Warn a member; warns escalate to mutes and a ban",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to warn", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Reason for the warn", Required: true},
				{Type: discordgo.ApplicationCommandOptionBoolean, Name: "permanent", Description: "Warn never expires", Required: false},
			},
		},
		{
			Name:        "warns",
			Description: "Show a member's active warn count",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to inspect", Required: true},
			},
		},
		{
			Name:        "mute",
			Description: "Mute a member, optionally for a limited time",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to mute", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "duration", Description: "Duration like 10m, 2h, 3d; omit for indefinite", Required: false},
				{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Reason for the mute", Required: false},
			},
		},
		{
			Name:        "unmute",
			Description: "Lift a member's mute",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to unmute", Required: true},
			},
		},
		{
			Name:        "kick",
			Description: "Kick a member",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to kick", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Reason for the kick", Required: true},
			},
		},
		{
			Name:        "ban",
			Description: "Permanently ban a member",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to ban", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Reason for the ban", Required: true},
			},
		},
		{
			Name:        "unban",
			Description: "Lift a ban by user id",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "user_id", Description: "Id of the banned user", Required: true},
			},
		},
		{
			Name:        "tempban",
			Description: "Ban a member for a limited time",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to ban", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "duration", Description: "Duration like 10m, 2h, 3d", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Reason for the ban", Required: true},
			},
		},
		{
			Name:        "giveaway_start",
			Description: "Start a new giveaway",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "title", Description: "Giveaway title", Required: true},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "winners", Description: "Number of winners", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "duration", Description: "Duration like 10m, 2h, 3d", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "requirements", Description: "Entry requirements", Required: false},
			},
		},
		{
			Name:        "giveaway_participants",
			Description: "See all participants in a giveaway",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "message_id", Description: "Giveaway announcement message id", Required: true},
			},
		},
		{
			Name:        "giveaway_cancel",
			Description: "Cancel an open giveaway",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "message_id", Description: "Giveaway announcement message id", Required: true},
			},
		},
		{
			Name:        "giveaway_reroll",
			Description: "Reroll winners for an ended giveaway",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "message_id", Description: "Giveaway announcement message id", Required: true},
			},
		},
	}

	for _, command := range commands {
		if _, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, "", command); err != nil {
			return err
		}
	}
	return nil
}
