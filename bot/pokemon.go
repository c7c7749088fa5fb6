package bot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/vincent-heng/discord-pokebot/bot/db"
	"github.com/vincent-heng/discord-pokebot/bot/spawn"
	"github.com/vincent-heng/discord-pokebot/bot/util"
)

const (
	pokedexPageSize = 9
	colorBlue       = 0x3498db
	colorGreen      = 0x2ecc71
	colorRed        = 0xe74c3c
)

func (b *Bot) setSpawnCmd(_ chat, m *discordgo.MessageCreate, args []string) _Response {
	syntax := "Bad arguments. Syntax: `" + b.Prefix + "setpokemonspawn #channel 5 15` (rate in percent, cooldown in minutes)"
	if len(args) < 2 || len(args) > 3 {
		return simpleErr(fmt.Errorf("setpokemonspawn: %w", errIllegalArgument), syntax)
	}

	channelID, ok := util.ParseChannelID(args[0])
	if !ok {
		return simpleErr(fmt.Errorf("setpokemonspawn channel %q: %w", args[0], errIllegalArgument), syntax)
	}

	rate, err := strconv.ParseFloat(strings.TrimSuffix(args[1], "%"), 64)
	if err != nil || math.IsNaN(rate) || rate < 0 || rate > 100 {
		return simpleErr(fmt.Errorf("setpokemonspawn rate %q: %w", args[1], errIllegalArgument),
			"The spawn rate must be a percentage between 0 and 100.")
	}

	cooldown := b.Spawn.DefaultCooldown
	if len(args) == 3 {
		minutes, err := strconv.Atoi(args[2])
		if err != nil || minutes < 0 {
			return simpleErr(fmt.Errorf("setpokemonspawn cooldown %q: %w", args[2], errIllegalArgument),
				"The cooldown must be a positive number of minutes.")
		}
		cooldown = time.Duration(minutes) * time.Minute
	}

	settings := db.GuildSettings{
		GuildID:        m.GuildID,
		SpawnChannelID: channelID,
		SpawnRate:      rate / 100,
		SpawnCooldown:  cooldown,
	}
	if err := b.db.SaveGuildSettings(settings); err != nil {
		return simpleErr(fmt.Errorf("cannot save guild settings: %w", err), "Unable to save the spawn settings.")
	}

	return simpleResponse(fmt.Sprintf("Pokémon will now spawn in %s with a spawn rate of %g%% per message and a cooldown of %d minutes.",
		util.ChannelIDToText(channelID), rate, int(cooldown.Minutes())))
}

func wildEmbed(w spawn.Wild, prefix string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:  fmt.Sprintf("A wild level %d Pokémon has appeared!", w.Level),
		Color:  colorGreen,
		Image:  &discordgo.MessageEmbedImage{URL: w.Artwork},
		Footer: &discordgo.MessageEmbedFooter{Text: "Use " + prefix + "catch <name> to catch it."},
	}
}

func caughtEmbed(w spawn.Wild, trainer string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Pokémon Caught",
		Description: fmt.Sprintf("Level %d %s was caught by %s.", w.Level, util.DisplayName(w.Name), trainer),
		Color:       colorBlue,
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: w.Artwork},
	}
}

// spawnWild draws a wild pokémon and posts it in channelID
func (b *Bot) spawnWild(s chat, guildID, channelID string) (spawn.Wild, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	w, err := b.spawner.Generate(ctx)
	if err != nil {
		return w, fmt.Errorf("cannot generate wild pokemon: %w", err)
	}
	w.GuildID, w.ChannelID = guildID, channelID

	msg, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{wildEmbed(w, b.Prefix)},
	})
	if err != nil {
		return w, fmt.Errorf("cannot post wild pokemon: %w", err)
	}
	w.MessageID = msg.ID

	w = b.spawner.Appear(w)
	log.Info().
		Str("guild", guildID).
		Str("pokemon", w.Name).
		Int("level", w.Level).
		Msg("wild pokemon appeared")
	return w, nil
}

func (b *Bot) spawnCmd(s chat, m *discordgo.MessageCreate, _ []string) _Response {
	settings, err := b.db.FetchGuildSettings(m.GuildID)
	if err != nil {
		return simpleErr(fmt.Errorf("cannot fetch guild settings: %w", err), "Unable to read the spawn settings.")
	}
	if !settings.Configured() {
		return simpleErr(errNoSpawnChannel, "Set the spawn channel first with `"+b.Prefix+"setpokemonspawn`.")
	}

	if _, err := b.spawnWild(s, m.GuildID, settings.SpawnChannelID); err != nil {
		return simpleErr(err, "The Pokémon ran away before it could appear. Try again later.")
	}
	return noResponse(nil)
}

func (b *Bot) catchCmd(s chat, m *discordgo.MessageCreate, args []string) _Response {
	if len(args) == 0 {
		return simpleErr(fmt.Errorf("catch: %w", errIllegalArgument), "Syntax: `"+b.Prefix+"catch <name>`")
	}

	w, err := b.spawner.Claim(m.GuildID, strings.Join(args, " "))
	if errors.Is(err, spawn.ErrNoWild) || errors.Is(err, spawn.ErrWrongGuess) {
		return simpleErr(err, "That is not the correct Pokémon name or there is no Pokémon to catch.")
	}
	if err != nil {
		return simpleErr(err, "")
	}

	c, err := b.db.CatchCreature(m.Author.ID, w.PokemonID, util.DisplayName(w.Name), w.Level)
	if err != nil {
		b.spawner.Return(w)
		return simpleErr(fmt.Errorf("cannot store caught pokemon: %w", err), "The Pokémon broke free! Try again.")
	}

	trainer := trainerName(m.Author, m.Member)
	if w.MessageID != "" {
		if _, err := s.ChannelMessageEditEmbed(w.ChannelID, w.MessageID, caughtEmbed(w, trainer)); err != nil {
			log.Warn().Err(err).Str("message", w.MessageID).Msg("cannot edit spawn message")
		}
	}

	return simpleResponse(fmt.Sprintf("Congratulations %s! You caught a level %d %s! Its Pokétag is `%s`.",
		trainer, c.Level, c.Name, strings.ToUpper(c.Tag)))
}

func (b *Bot) freeCmd(_ chat, m *discordgo.MessageCreate, args []string) _Response {
	if len(args) != 1 {
		return simpleErr(fmt.Errorf("freepokemon: %w", errIllegalArgument), "Syntax: `"+b.Prefix+"freepokemon <tag>`")
	}

	c, err := b.db.FreeCreature(m.Author.ID, args[0])
	switch {
	case errors.Is(err, db.ErrCreatureNotFound):
		return simpleErr(err, "You do not have that Pokémon in your Pokédex.")
	case errors.Is(err, db.ErrCreatureInParty):
		return simpleErr(err, "You cannot free a Pokémon that is in your party.")
	case err != nil:
		return simpleErr(fmt.Errorf("cannot free pokemon: %w", err), "Unable to free that Pokémon.")
	}

	return simpleResponse(fmt.Sprintf("You have freed your %s from your Pokédex.", c.Name))
}

// pokedexEmbed renders one page of creatures, pages start at 1
func pokedexEmbed(trainer string, creatures []db.Creature, page int) *discordgo.MessageEmbed {
	start := (page - 1) * pokedexPageSize
	end := start + pokedexPageSize
	if end > len(creatures) {
		end = len(creatures)
	}
	pages := (len(creatures) + pokedexPageSize - 1) / pokedexPageSize

	embed := &discordgo.MessageEmbed{
		Title: trainer + "'s Pokédex",
		Color: colorBlue,
	}
	for _, c := range creatures[start:end] {
		percent := c.ExperiencePercent()
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("#%d %s", c.SpeciesID, c.Name),
			Value:  fmt.Sprintf("Lv.%d | `%s`\nXP: %d%% %s", c.Level, strings.ToUpper(c.Tag), percent, util.ExperienceBar(percent, 5)),
			Inline: true,
		})
	}
	// keep the three column grid aligned
	for len(embed.Fields)%3 != 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "\u200b", Value: "\u200b", Inline: true})
	}
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("Showing Pokémon %d - %d of %d · page %d/%d", start+1, end, len(creatures), page, pages),
	}
	return embed
}

func (b *Bot) pokedexCmd(_ chat, m *discordgo.MessageCreate, args []string) _Response {
	page := 1
	if len(args) > 0 {
		p, err := strconv.Atoi(args[0])
		if err != nil {
			return simpleErr(fmt.Errorf("pokedex page %q: %w", args[0], errIllegalArgument), "The page must be a number.")
		}
		page = p
	}

	creatures, err := b.db.FetchCreatures(m.Author.ID)
	if err != nil {
		return simpleErr(fmt.Errorf("cannot fetch pokedex: %w", err), "Unable to open your Pokédex.")
	}
	if len(creatures) == 0 {
		return simpleResponse("You have not caught any Pokémon yet.")
	}

	pages := (len(creatures) + pokedexPageSize - 1) / pokedexPageSize
	if page < 1 || page > pages {
		return simpleErr(fmt.Errorf("pokedex page %d of %d: %w", page, pages, errIllegalArgument),
			fmt.Sprintf("Your Pokédex has %d page(s).", pages))
	}

	return embedResponse(pokedexEmbed(trainerName(m.Author, m.Member), creatures, page))
}

// partyTable lays the party out as a fixed width code block
func partyTable(members []db.Creature) string {
	width := len("Pokémon")
	for _, c := range members {
		if n := len([]rune(c.Name)); n > width {
			width = n
		}
	}

	var sb strings.Builder
	sb.WriteString("```\n")
	fmt.Fprintf(&sb, "%*s Tag    Lv  Exp\n", width, "Pokémon")
	sb.WriteString(strings.Repeat("─", width+17) + "\n")
	for _, c := range members {
		pad := width - len([]rune(c.Name))
		fmt.Fprintf(&sb, "%s%s %-6s %-3d %3d%%\n", strings.Repeat(" ", pad), c.Name, strings.ToUpper(c.Tag), c.Level, c.ExperiencePercent())
	}
	sb.WriteString("```")
	return sb.String()
}

func (b *Bot) partyCmd(_ chat, m *discordgo.MessageCreate, args []string) _Response {
	if len(args) == 0 {
		members, err := b.db.PartyCreatures(m.Author.ID)
		if err != nil && !errors.Is(err, db.ErrPartyNotFound) {
			return simpleErr(fmt.Errorf("cannot fetch party: %w", err), "Unable to read your party.")
		}
		if len(members) == 0 {
			return simpleResponse("You don't have a party yet. Set one with `" + b.Prefix + "party <tag...>`.")
		}
		return embedResponse(&discordgo.MessageEmbed{
			Title:       trainerName(m.Author, m.Member) + "'s Party",
			Description: partyTable(members),
			Color:       colorBlue,
		})
	}

	created, err := b.db.SetParty(m.Author.ID, args)
	switch {
	case errors.Is(err, db.ErrPartySize):
		return simpleErr(err, fmt.Sprintf("A party holds between 1 and %d Pokétags.", db.MaxPartySize))
	case errors.Is(err, db.ErrDuplicateTag):
		return simpleErr(err, "The same Pokétag cannot appear twice in your party.")
	case errors.Is(err, db.ErrCreatureNotFound):
		return simpleErr(err, "You do not have all of these Pokétags in your Pokédex.")
	case err != nil:
		return simpleErr(fmt.Errorf("cannot set party: %w", err), "Unable to update your party.")
	}

	if created {
		return simpleResponse("Your party has been created.")
	}
	return simpleResponse("Your party has been updated.")
}
