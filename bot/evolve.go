package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/vincent-heng/discord-pokebot/bot/db"
	"github.com/vincent-heng/discord-pokebot/bot/pokeapi"
	"github.com/vincent-heng/discord-pokebot/bot/session"
	"github.com/vincent-heng/discord-pokebot/bot/util"
)

const evolveChoiceTimeout = 30 * time.Second

var numberEmojis = []string{"1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣"} //nolint:gochecknoglobals

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

// speciesOf resolves the species behind a stored creature. The stored id
// is the one of the form, the species is reached through it.
func (b *Bot) speciesOf(ctx context.Context, c db.Creature) (pokeapi.Species, error) {
	if p, err := b.api.Pokemon(ctx, c.Name); err == nil && p.Species.URL != "" {
		return b.api.SpeciesByURL(ctx, p.Species.URL)
	}
	return b.api.Species(ctx, c.SpeciesID)
}

// evolutionsOf lists what c can become at its current level
func (b *Bot) evolutionsOf(ctx context.Context, c db.Creature) ([]pokeapi.Evolution, error) {
	species, err := b.speciesOf(ctx, c)
	if err != nil {
		return nil, err
	}
	if species.EvolutionChain.URL == "" {
		return nil, nil
	}
	chain, err := b.api.EvolutionChain(ctx, species.EvolutionChain.URL)
	if err != nil {
		return nil, err
	}
	return chain.EligibleEvolutions(c.Name, c.Level), nil
}

// chooseEvolution asks the author to pick one of evos with a number reaction
func (b *Bot) chooseEvolution(s chat, m *discordgo.MessageCreate, c db.Creature, evos []pokeapi.Evolution) (pokeapi.Evolution, error) {
	if len(evos) > len(numberEmojis) {
		evos = evos[:len(numberEmojis)]
	}
	choices := numberEmojis[:len(evos)]

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s can evolve into multiple Pokémon. React with the number to choose:\n", c.Name)
	for i, e := range evos {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, util.DisplayName(e.Name))
	}

	msg, err := s.ChannelMessageSend(m.ChannelID, sb.String())
	if err != nil {
		return pokeapi.Evolution{}, fmt.Errorf("cannot ask for evolution choice: %w", err)
	}

	sub := b.events.Subscribe(msg.ID, func(ev session.Event) bool {
		return ev.UserID == m.Author.ID && indexOf(choices, ev.Emoji) >= 0
	})
	defer sub.Close()

	for _, emoji := range choices {
		if err := s.MessageReactionAdd(m.ChannelID, msg.ID, emoji); err != nil {
			log.Warn().Err(err).Str("message", msg.ID).Msg("cannot add choice reaction")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.choiceTimeout)
	defer cancel()

	ev, err := sub.Next(ctx)
	if err != nil {
		return pokeapi.Evolution{}, fmt.Errorf("%v: %w", err, errTimeout)
	}
	return evos[indexOf(choices, ev.Emoji)], nil
}

// evolve turns c into evo, keeping its regional form when the evolution has one
func (b *Bot) evolve(ctx context.Context, c db.Creature, evo pokeapi.Evolution) (db.Creature, error) {
	species, err := b.api.SpeciesByURL(ctx, evo.SpeciesURL)
	if err != nil {
		return c, err
	}

	variety := species.Variety(c.Name)
	id, ok := pokeapi.IDFromURL(variety.URL)
	if !ok {
		id = species.ID
	}
	return b.db.EvolveCreature(c.OwnerID, c.Tag, id, util.DisplayName(variety.Name))
}

func (b *Bot) evolveCmd(s chat, m *discordgo.MessageCreate, args []string) _Response {
	if len(args) == 0 {
		return simpleErr(fmt.Errorf("evolve: %w", errIllegalArgument), "You must provide at least one Pokétag.")
	}

	var creatures []db.Creature
	for _, tag := range args {
		c, err := b.db.FetchCreature(m.Author.ID, tag)
		if errors.Is(err, db.ErrCreatureNotFound) {
			continue
		}
		if err != nil {
			return simpleErr(fmt.Errorf("cannot fetch creature: %w", err), "Unable to open your Pokédex.")
		}
		creatures = append(creatures, c)
	}
	if len(creatures) == 0 {
		return simpleErr(db.ErrCreatureNotFound, "You do not have any Pokémon in your Pokédex that match the provided Pokétags.")
	}

	sess, err := b.sessions.Acquire(session.KindEvolve, time.Duration(len(creatures))*b.choiceTimeout+commandTimeout, m.Author.ID)
	if err != nil {
		return simpleErr(err, "You are busy with a trade or a battle. Finish it first.")
	}
	defer b.sessions.Release(sess.ID)

	var evolved []string
	for _, c := range creatures {
		line, err := b.evolveOne(s, m, c)
		if err != nil {
			return simpleErr(err, fmt.Sprintf("%s could not evolve. Try again later.", c.Name))
		}
		if line != "" {
			evolved = append(evolved, line)
		}
	}

	if len(evolved) == 0 {
		return simpleErr(errNoEvolution, "No Pokémon were eligible for evolution.")
	}
	return simpleResponse(strings.Join(evolved, "\n"))
}

// evolveOne evolves c if it can, asking for a choice when it has several
// options. It returns the line to report, empty when nothing happened.
func (b *Bot) evolveOne(s chat, m *discordgo.MessageCreate, c db.Creature) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	evos, err := b.evolutionsOf(ctx, c)
	if err != nil {
		log.Warn().Err(err).Str("tag", c.Tag).Msg("cannot fetch evolution chain")
		b.send(s, m.ChannelID, []_Message{{Message: fmt.Sprintf("Error fetching the evolution chain of %s.", c.Name)}})
		return "", nil
	}
	if len(evos) == 0 {
		return "", nil
	}

	evo := evos[0]
	if len(evos) > 1 {
		evo, err = b.chooseEvolution(s, m, c, evos)
		if errors.Is(err, errTimeout) {
			b.send(s, m.ChannelID, []_Message{{Message: "Evolution cancelled due to timeout."}})
			return "", nil
		}
		if err != nil {
			return "", err
		}
	}

	after, err := b.evolve(ctx, c, evo)
	if err != nil {
		return "", fmt.Errorf("cannot evolve %s: %w", c.Tag, err)
	}
	log.Info().Str("owner", c.OwnerID).Str("from", c.Name).Str("to", after.Name).Msg("pokemon evolved")
	return fmt.Sprintf("%s evolved into %s!", c.Name, after.Name), nil
}
