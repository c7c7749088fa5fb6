package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/vincent-heng/discord-pokebot/bot/market"
)

type command struct {
	name  string
	usage string
	help  string
}

// help lines, in display order
var commands = []command{ //nolint:gochecknoglobals
	{"help", "help", "Shows this message."},
	{"setpokemonspawn", "setpokemonspawn <#channel> <rate%> [cooldown-minutes]", "Sets where and how often wild Pokémon appear."},
	{"spawn", "spawn", "Makes a wild Pokémon appear now (bot owner only)."},
	{"catch", "catch <name>", "Catches the wild Pokémon if you guess its name."},
	{"freepokemon", "freepokemon <tag>", "Releases a Pokémon from your Pokédex."},
	{"pokedex", "pokedex [page]", "Lists the Pokémon you caught."},
	{"party", "party [tag...]", "Shows your party, or sets it from up to 6 tags (`-` leaves a slot empty)."},
	{"trade", "trade <tag> [@user] | trade cancel", "Offers a Pokémon for trade, or answers an open offer."},
	{"battle", "battle @user", "Fights another trainer with your party."},
	{"evolve", "evolve <tag...>", "Evolves the Pokémon that reached their evolution level."},
	{"evolvenotify", "evolvenotify", "Turns the evolution alerts on or off."},
	{"cconv", "cconv <from> <to> <amount>", "Converts an amount between two currencies."},
	{"wowtoken", "wowtoken", "Shows the current WoW token price in the US region."},
}

func (b *Bot) helpCmd(_ chat, _ *discordgo.MessageCreate, _ []string) _Response {
	var sb strings.Builder
	sb.WriteString("**Commands**\n")
	for _, c := range commands {
		fmt.Fprintf(&sb, "`%s%s` %s\n", b.Prefix, c.usage, c.help)
	}
	return simpleResponse(sb.String())
}

// trainerName is the name shown for the author of a message
func trainerName(u *discordgo.User, member *discordgo.Member) string {
	if member != nil && member.Nick != "" {
		return member.Nick
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

func (b *Bot) evolveNotifyCmd(_ chat, m *discordgo.MessageCreate, _ []string) _Response {
	notify, err := b.db.ToggleEvolveNotify(m.Author.ID)
	if err != nil {
		return simpleErr(fmt.Errorf("cannot toggle evolve notify: %w", err), "Unable to change your notification setting.")
	}

	state := "disabled"
	if notify {
		state = "enabled"
	}
	return simpleResponse("Evolution notifications have been " + state + ".")
}

func (b *Bot) currencyCmd(_ chat, _ *discordgo.MessageCreate, args []string) _Response {
	if len(args) != 3 {
		return simpleErr(fmt.Errorf("cconv: %w", errIllegalArgument),
			"Bad arguments. Syntax: `"+b.Prefix+"cconv USD EUR 10`")
	}

	amount, err := strconv.ParseFloat(strings.ReplaceAll(args[2], ",", "."), 64)
	if err != nil {
		return simpleErr(fmt.Errorf("cconv amount %q: %w", args[2], errIllegalArgument), "The amount must be a number.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	conv, err := b.exchange.Convert(ctx, args[0], args[1], amount)
	switch {
	case errors.Is(err, market.ErrBadAmount), errors.Is(err, market.ErrBadCurrency), errors.Is(err, market.ErrUnknownRate):
		return simpleErr(err, "Sorry, "+err.Error()+".")
	case err != nil:
		return simpleErr(fmt.Errorf("cannot convert currency: %w", err), "The exchange rate service is not available right now.")
	}
	return simpleResponse(conv.String())
}

func (b *Bot) wowTokenCmd(_ chat, _ *discordgo.MessageCreate, _ []string) _Response {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	price, err := b.token.US(ctx)
	if err != nil {
		return simpleErr(fmt.Errorf("cannot fetch token price: %w", err), "Unable to fetch the WoW token price right now.")
	}
	return simpleResponse("The current WoW token price in the US region is **" + market.FormatGold(price) + "** gold.")
}
