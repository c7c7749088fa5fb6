package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/vincent-heng/discord-pokebot/bot/battle"
	"github.com/vincent-heng/discord-pokebot/bot/db"
	"github.com/vincent-heng/discord-pokebot/bot/session"
	"github.com/vincent-heng/discord-pokebot/bot/util"
)

// battleTTL bounds how long a battle may hold both trainers
const battleTTL = 30 * time.Minute

func mentioned(m *discordgo.MessageCreate, userID string) *discordgo.User {
	for _, u := range m.Mentions {
		if u != nil && u.ID == userID {
			return u
		}
	}
	return nil
}

// party loads the party of ownerID, empty when it has none
func (b *Bot) party(ownerID string) ([]db.Creature, error) {
	members, err := b.db.PartyCreatures(ownerID)
	if errors.Is(err, db.ErrPartyNotFound) {
		return nil, nil
	}
	return members, err
}

// side turns a party into battle combatants
func (b *Bot) side(ctx context.Context, ownerID, name string, members []db.Creature) *battle.Side {
	s := &battle.Side{OwnerID: ownerID, Name: name}
	for _, c := range members {
		s.Party = append(s.Party, b.dex.Combatant(ctx, c.Tag, c.Name, c.SpeciesID, c.Level))
	}
	return s
}

func hpLine(c *battle.Combatant) string {
	if c == nil {
		return "-"
	}
	return fmt.Sprintf("%d/%d", c.HP, c.MaxHP)
}

func moveName(a battle.Action) string {
	if a.Move.Name == "" {
		return "No move available"
	}
	return util.DisplayName(a.Move.Name)
}

func defeatedList(defeated []string) string {
	if len(defeated) == 0 {
		return "None"
	}
	return strings.Join(defeated, "\n")
}

func battleEmbed(sides [2]*battle.Side, turn battle.Turn) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Battle: %s VS %s", sides[0].Name, sides[1].Name),
		Color: colorRed,
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Turn", Value: fmt.Sprint(turn.Number)})

	for i, c := range turn.Active {
		name := sides[i].Name + " has no Pokémon left"
		if c != nil {
			name = c.Name + " HP"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: name, Value: hpLine(c), Inline: true})
	}
	if c := turn.Active[0]; c != nil && c.Artwork != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: c.Artwork}
	}

	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Defeated Pokémon", Value: defeatedList(turn.Defeated)})

	var moves strings.Builder
	for _, a := range turn.Actions {
		fmt.Fprintf(&moves, "%s's %s: %s - Damage: %d (%gx)\n", sides[a.Side].Name, a.Attacker, moveName(a), a.Damage, a.Multiplier)
		if a.Knockout {
			fmt.Fprintf(&moves, "%s's %s has been defeated!\n", sides[1-a.Side].Name, a.Defender)
		}
	}
	if moves.Len() == 0 {
		moves.WriteString("Waiting...")
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Moves", Value: moves.String()})
	return embed
}

func resultEmbed(sides [2]*battle.Side, res battle.Result) *discordgo.MessageEmbed {
	desc := "**It's a tie!**"
	if res.Winner != nil {
		desc = fmt.Sprintf("**%s wins the battle!**", res.Winner.Name)
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Battle: %s VS %s", sides[0].Name, sides[1].Name),
		Description: desc,
		Color:       colorRed,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Turns", Value: fmt.Sprint(res.Turns), Inline: true},
			{Name: "Defeated Pokémon", Value: defeatedList(res.Defeated)},
		},
	}
}

func (b *Bot) battleCmd(s chat, m *discordgo.MessageCreate, args []string) _Response {
	if len(args) != 1 {
		return simpleErr(fmt.Errorf("battle: %w", errIllegalArgument), "Syntax: `"+b.Prefix+"battle @user`")
	}
	opponentID, ok := util.ParseUserID(args[0])
	if !ok {
		return simpleErr(fmt.Errorf("battle opponent %q: %w", args[0], errIllegalArgument), "Mention the trainer you want to battle.")
	}

	opponent := mentioned(m, opponentID)
	if opponentID == m.Author.ID || (opponent != nil && opponent.Bot) {
		return simpleErr(errBotOpponent, "Cannot start battle due to one of the conditions not being met.")
	}
	opponentName := util.DiscordIDToText(opponentID)
	if opponent != nil {
		opponentName = trainerName(opponent, nil)
	}
	authorName := trainerName(m.Author, m.Member)

	parties := [2][]db.Creature{}
	for i, id := range []string{m.Author.ID, opponentID} {
		members, err := b.party(id)
		if err != nil {
			return simpleErr(fmt.Errorf("cannot fetch party: %w", err), "Unable to read the parties.")
		}
		parties[i] = members
	}
	for i, name := range []string{authorName, opponentName} {
		if len(parties[i]) == 0 {
			return simpleErr(errEmptyParty, name+" doesn't have a party. Both players need a party to battle.")
		}
	}

	sess, err := b.sessions.Acquire(session.KindBattle, battleTTL, m.Author.ID, opponentID)
	if err != nil {
		return simpleErr(err, "Cannot start battle: one of the trainers is busy with a trade or a battle.")
	}
	defer b.sessions.Release(sess.ID)
	if err := b.sessions.Transition(sess.ID, session.StateRunning); err != nil {
		return simpleErr(err, "")
	}

	ctx, cancel := context.WithTimeout(context.Background(), battleTTL)
	defer cancel()

	var sides [2]*battle.Side
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range []string{m.Author.ID, opponentID} {
		i, id := i, id
		name := []string{authorName, opponentName}[i]
		g.Go(func() error {
			sides[i] = b.side(gctx, id, name, parties[i])
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return simpleErr(fmt.Errorf("cannot build parties: %w", err), "The battle could not start.")
	}

	first := battle.Turn{Active: [2]*battle.Combatant{sides[0].Active(), sides[1].Active()}}
	msg, err := s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{battleEmbed(sides, first)},
	})
	if err != nil {
		return noResponse(fmt.Errorf("cannot post battle: %w", err))
	}
	if err := s.MessageReactionAdd(m.ChannelID, msg.ID, "⚔️"); err != nil {
		log.Warn().Err(err).Msg("cannot add battle reaction")
	}

	engine := battle.New(b.dex,
		battle.WithDelay(b.Battle.TurnDelay),
		battle.WithObserver(func(turn battle.Turn) {
			if _, err := s.ChannelMessageEditEmbed(m.ChannelID, msg.ID, battleEmbed(sides, turn)); err != nil {
				log.Warn().Err(err).Int("turn", turn.Number).Msg("cannot update battle")
			}
		}),
	)

	res, err := engine.Run(ctx, sides[0], sides[1])
	if err != nil {
		return simpleErr(fmt.Errorf("battle interrupted: %w", err), "The battle was interrupted.")
	}

	log.Info().
		Str("a", m.Author.ID).
		Str("b", opponentID).
		Str("outcome", res.Outcome.String()).
		Int("turns", res.Turns).
		Msg("battle done")

	if _, err := s.ChannelMessageEditEmbed(m.ChannelID, msg.ID, resultEmbed(sides, res)); err != nil {
		log.Warn().Err(err).Msg("cannot post battle result")
		return embedResponse(resultEmbed(sides, res))
	}
	return noResponse(nil)
}
