package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/vincent-heng/discord-pokebot/bot/db"
	"github.com/vincent-heng/discord-pokebot/bot/links"
	"github.com/vincent-heng/discord-pokebot/bot/util"
)

const levelMilestone = 10

// listen handles the messages that are not commands
func (b *Bot) listen(s chat, m *discordgo.MessageCreate) {
	if url, ok := links.RewriteTikTok(m.Content); ok {
		b.repostTikTok(s, m, url)
	}

	if m.GuildID == "" {
		return
	}

	settings, err := b.db.FetchGuildSettings(m.GuildID)
	if err != nil {
		log.Error().Err(err).Str("guild", m.GuildID).Msg("cannot fetch guild settings")
		return
	}
	if !settings.Configured() || m.ChannelID != settings.SpawnChannelID {
		return
	}

	if b.spawner.Roll(m.GuildID, settings.SpawnRate, settings.SpawnCooldown) {
		if _, err := b.spawnWild(s, m.GuildID, m.ChannelID); err != nil {
			b.spawner.Cancel(m.GuildID)
			log.Warn().Err(err).Str("guild", m.GuildID).Msg("spawn failed")
		}
		return
	}

	b.gainExperience(s, m)
}

func (b *Bot) repostTikTok(s chat, m *discordgo.MessageCreate, url string) {
	if _, err := s.ChannelMessageSend(m.ChannelID, links.Repost(trainerName(m.Author, m.Member), url)); err != nil {
		log.Error().Err(err).Msg("cannot repost tiktok")
		return
	}
	if err := s.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
		log.Warn().Err(err).Str("message", m.ID).Msg("cannot delete tiktok message")
	}
}

// gainExperience rewards the author's creatures for chatting and reports the
// milestones and evolutions it unlocked.
func (b *Bot) gainExperience(s chat, m *discordgo.MessageCreate) {
	ups, err := b.db.GainExperience(m.Author.ID)
	if err != nil {
		log.Error().Err(err).Str("user", m.Author.ID).Msg("cannot gain experience")
		return
	}
	if len(ups) == 0 {
		return
	}

	var milestones []string
	for _, up := range ups {
		if up.Creature.Level%levelMilestone == 0 {
			milestones = append(milestones, fmt.Sprintf("%s has leveled up to level %d!", up.Creature.Name, up.Creature.Level))
		}
	}
	if len(milestones) > 0 {
		b.send(s, m.ChannelID, []_Message{{
			Message: util.DiscordIDToText(m.Author.ID) + ",\n" + strings.Join(milestones, "\n"),
		}})
	}

	notify, err := b.db.EvolveNotify(m.Author.ID)
	if err != nil {
		log.Error().Err(err).Str("user", m.Author.ID).Msg("cannot read evolve notify")
		return
	}
	if !notify {
		return
	}
	for _, up := range ups {
		b.notifyEvolution(s, m, up.Creature)
	}
}

func (b *Bot) notifyEvolution(s chat, m *discordgo.MessageCreate, c db.Creature) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	evos, err := b.evolutionsOf(ctx, c)
	if err != nil {
		log.Debug().Err(err).Str("tag", c.Tag).Msg("evolution check failed")
		return
	}
	if len(evos) == 0 {
		return
	}

	b.send(s, m.ChannelID, []_Message{{
		Message: fmt.Sprintf("%s, %s is ready to evolve! Use `%sevolve %s` to transform it now. To turn off these alerts, use: `%sevolvenotify`",
			util.DiscordIDToText(m.Author.ID), c.Name, b.Prefix, strings.ToUpper(c.Tag), b.Prefix),
	}})
}
