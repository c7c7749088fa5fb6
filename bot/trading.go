package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/vincent-heng/discord-pokebot/bot/db"
	"github.com/vincent-heng/discord-pokebot/bot/session"
	"github.com/vincent-heng/discord-pokebot/bot/trade"
	"github.com/vincent-heng/discord-pokebot/bot/util"
)

func tradeErr(err error) _Response {
	switch {
	case errors.Is(err, db.ErrCreatureNotFound):
		return simpleErr(err, "You do not have that Pokémon in your Pokédex.")
	case errors.Is(err, db.ErrCreatureInParty):
		return simpleErr(err, "You cannot trade a Pokémon that is in your party.")
	case errors.Is(err, trade.ErrOfferOpen):
		return simpleErr(err, "You already have an open trade offer. Cancel it first to offer another Pokémon.")
	case errors.Is(err, session.ErrBusy):
		return simpleErr(err, "A trainer of this trade is already busy with a trade or battle. Please complete or cancel it first.")
	case errors.Is(err, trade.ErrSelfTrade):
		return simpleErr(err, "You cannot trade with yourself.")
	case errors.Is(err, trade.ErrNoOffer):
		return simpleErr(err, "That trainer has no open trade offer.")
	default:
		return simpleErr(fmt.Errorf("trade failed: %w", err), "The trade could not be registered.")
	}
}

func offerEmbed(o trade.Offer, trainer, prefix string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Trade Offer Registered!",
		Color: colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Trainer", Value: trainer},
			{Name: "Offering", Value: fmt.Sprintf("Level %d %s (Pokétag: `%s`)", o.Level, o.Species, strings.ToUpper(o.Tag))},
			{Name: "Duration", Value: fmt.Sprintf("Active for %d minutes", int(o.ExpiresAt.Sub(o.OpenedAt).Minutes()))},
			{Name: "How to Complete", Value: "Use `" + prefix + "trade <pokétag>` to match this offer"},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "The trainer can withdraw it with " + prefix + "trade cancel"},
	}
}

func (b *Bot) tradeCmd(s chat, m *discordgo.MessageCreate, args []string) _Response {
	if len(args) == 0 || len(args) > 2 {
		return simpleErr(fmt.Errorf("trade: %w", errIllegalArgument),
			"Syntax: `"+b.Prefix+"trade <pokétag> [@user]` or `"+b.Prefix+"trade cancel`")
	}

	if strings.EqualFold(args[0], "cancel") {
		o, err := b.trades.Withdraw(m.Author.ID)
		if err != nil {
			return simpleErr(err, "You have no open trade offer.")
		}
		return simpleResponse(fmt.Sprintf("%s, your trade offer for %s has been cancelled.", util.DiscordIDToText(m.Author.ID), o.Species))
	}

	tag := args[0]
	target := ""
	if len(args) == 2 {
		id, ok := util.ParseUserID(args[1])
		if !ok {
			return simpleErr(fmt.Errorf("trade target %q: %w", args[1], errIllegalArgument), "Mention the trainer you want to trade with.")
		}
		target = id
	}

	if target == "" && !b.trades.Pending(m.GuildID, m.Author.ID, "") {
		o, err := b.trades.Open(m.GuildID, m.ChannelID, m.Author.ID, tag)
		if err != nil {
			return tradeErr(err)
		}
		log.Info().Str("owner", o.OwnerID).Str("tag", o.Tag).Msg("trade offer opened")
		return embedResponse(offerEmbed(o, trainerName(m.Author, m.Member), b.Prefix))
	}

	deal, err := b.trades.Match(m.GuildID, m.Author.ID, tag, target)
	if err != nil {
		return tradeErr(err)
	}
	return b.confirmDeal(s, m, deal)
}

// confirmDeal waits for both trainers to react on the deal message
func (b *Bot) confirmDeal(s chat, m *discordgo.MessageCreate, deal *trade.Deal) _Response {
	a, c := deal.Offer, deal.Counter
	text := fmt.Sprintf("%s %s\nTrade: level %d %s (`%s`) for level %d %s (`%s`).\nBoth trainers react with %s to confirm, or %s to cancel.",
		util.DiscordIDToText(a.OwnerID), util.DiscordIDToText(c.OwnerID),
		a.Level, a.Species, strings.ToUpper(a.Tag), c.Level, c.Species, strings.ToUpper(c.Tag),
		trade.Confirm, trade.Cancel)

	msg, err := s.ChannelMessageSend(m.ChannelID, text)
	if err != nil {
		deal.Expire()
		return noResponse(fmt.Errorf("cannot post trade: %w", err))
	}

	participants := deal.Participants()
	sub := b.events.Subscribe(msg.ID, func(ev session.Event) bool {
		return indexOf(participants, ev.UserID) >= 0
	})
	defer sub.Close()

	for _, emoji := range []string{trade.Confirm, trade.Cancel} {
		if err := s.MessageReactionAdd(m.ChannelID, msg.ID, emoji); err != nil {
			log.Warn().Err(err).Str("message", msg.ID).Msg("cannot add trade reaction")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.trades.Timeout())
	defer cancel()

	for deal.State() == trade.StateAwaitingConfirm {
		ev, err := sub.Next(ctx)
		if err != nil {
			deal.Expire()
			break
		}
		if _, err := deal.React(ev.UserID, ev.Emoji); err != nil && !errors.Is(err, trade.ErrDealClosed) {
			return simpleErr(fmt.Errorf("cannot swap creatures: %w", err), "The trade failed, nothing was exchanged.")
		}
	}

	switch deal.State() {
	case trade.StateCompleted:
		log.Info().Str("a", a.OwnerID).Str("b", c.OwnerID).Msg("trade completed")
		return simpleResponse(fmt.Sprintf("The trade between %s and %s was completed successfully.",
			util.DiscordIDToText(a.OwnerID), util.DiscordIDToText(c.OwnerID)))
	case trade.StateExpired:
		return simpleErr(errTimeout, "Trade request timed out.")
	default:
		return simpleResponse("The trade was cancelled.")
	}
}
