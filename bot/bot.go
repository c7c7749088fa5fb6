package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vincent-heng/discord-pokebot/bot/db"
	"github.com/vincent-heng/discord-pokebot/bot/market"
	"github.com/vincent-heng/discord-pokebot/bot/pokeapi"
	"github.com/vincent-heng/discord-pokebot/bot/session"
	"github.com/vincent-heng/discord-pokebot/bot/spawn"
	"github.com/vincent-heng/discord-pokebot/bot/trade"
	"github.com/vincent-heng/discord-pokebot/bot/util"
	"github.com/vincent-heng/discord-pokebot/config"
)

// commandTimeout bounds the api calls of a single command
const commandTimeout = time.Minute

// Bot is the discord bot manager
type Bot struct {
	config.Config

	db       *db.DB
	api      *pokeapi.Client
	dex      *pokeapi.Dex
	spawner  *spawn.Spawner
	sessions *session.Table
	events   *session.Dispatcher
	trades   *trade.Negotiator
	exchange *market.Exchange
	token    *market.TokenPrice

	choiceTimeout time.Duration
}

// chat is the part of the discord session used by commands
type chat interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)
}

type _Message struct {
	Channel string
	Message string
	Embed   *discordgo.MessageEmbed
}

func (m _Message) getChan(id string) string {
	if m.Channel == "" {
		return id
	}
	return m.Channel
}

type _Response struct {
	msgs []_Message
	err  error
}

func simpleErr(err error, msg string) _Response {
	if msg == "" && err != nil {
		msg = err.Error()
	}

	return _Response{
		err: err,
		msgs: []_Message{
			{Message: msg},
		},
	}
}

func simpleResponse(msg string) _Response {
	return _Response{
		msgs: []_Message{
			{Message: msg},
		},
	}
}

func embedResponse(embed *discordgo.MessageEmbed) _Response {
	return _Response{
		msgs: []_Message{
			{Embed: embed},
		},
	}
}

// noResponse is returned by commands that already talked to the channel
func noResponse(err error) _Response {
	return _Response{err: err}
}

type _Handler func(*Bot, chat, *discordgo.MessageCreate, []string) _Response

// New instantiates a bot with config
func New(conf config.Config) (*Bot, error) {
	database, err := db.New(conf.Database)
	if err != nil {
		return nil, err
	}

	return newBot(conf, database), nil
}

func newBot(conf config.Config, database *db.DB) *Bot {
	api := pokeapi.New(conf.PokeAPI.BaseURL, conf.PokeAPI.Timeout, conf.PokeAPI.CacheSize)
	sessions := session.NewTable()

	return &Bot{
		Config:   conf,
		db:       database,
		api:      api,
		dex:      pokeapi.NewDex(api, nil),
		spawner:  spawn.New(api, conf.Spawn.SpeciesCount, nil, nil),
		sessions: sessions,
		events:   session.NewDispatcher(),
		trades:   trade.New(database, sessions, conf.Trade.Timeout),
		exchange: market.NewExchange(conf.Market.ExchangeRateURL, conf.PokeAPI.Timeout),
		token:    market.NewTokenPrice(conf.Market.WowTokenURL, conf.PokeAPI.Timeout),

		choiceTimeout: evolveChoiceTimeout,
	}
}

func (b *Bot) Close() error {
	return b.db.Close()
}

var (
	// cmd router
	router = map[string]_Handler{ //nolint:gochecknoglobals
		"help":         (*Bot).helpCmd,
		"catch":        guildOnlyCmdFunctor((*Bot).catchCmd),
		"freepokemon":  guildOnlyCmdFunctor((*Bot).freeCmd),
		"pokedex":      guildOnlyCmdFunctor((*Bot).pokedexCmd),
		"party":        guildOnlyCmdFunctor((*Bot).partyCmd),
		"trade":        guildOnlyCmdFunctor((*Bot).tradeCmd),
		"battle":       guildOnlyCmdFunctor((*Bot).battleCmd),
		"evolve":       guildOnlyCmdFunctor((*Bot).evolveCmd),
		"evolvenotify": (*Bot).evolveNotifyCmd,
		"cconv":        (*Bot).currencyCmd,
		"wowtoken":     (*Bot).wowTokenCmd,
		// server manager cmd
		"setpokemonspawn": guildOnlyCmdFunctor(managerCmdFunctor((*Bot).setSpawnCmd)),
		// game master cmd
		"spawn": guildOnlyCmdFunctor(gameMasterCmdFunctor((*Bot).spawnCmd)),
	}
)

func gameMasterCmdFunctor(handler _Handler) _Handler {
	return func(b *Bot, s chat, m *discordgo.MessageCreate, args []string) _Response {
		// GM commands
		if m.Author.ID != b.Config.GameMaster {
			return simpleErr(errNotGameMaster, "Only the owner of the bot can manually spawn a Pokémon.")
		}
		return handler(b, s, m, args)
	}
}

func managerCmdFunctor(handler _Handler) _Handler {
	return func(b *Bot, s chat, m *discordgo.MessageCreate, args []string) _Response {
		if m.Author.ID == b.Config.GameMaster {
			return handler(b, s, m, args)
		}
		perms, err := s.UserChannelPermissions(m.Author.ID, m.ChannelID)
		if err != nil {
			return simpleErr(fmt.Errorf("cannot read permissions: %w", err), "Unable to check your permissions.")
		}
		if perms&(discordgo.PermissionManageServer|discordgo.PermissionAdministrator) == 0 {
			return simpleErr(errNotManager, "You need the Manage Server permission to do that.")
		}
		return handler(b, s, m, args)
	}
}

func guildOnlyCmdFunctor(handler _Handler) _Handler {
	return func(b *Bot, s chat, m *discordgo.MessageCreate, args []string) _Response {
		if m.GuildID == "" {
			return simpleErr(errGuildOnly, "This command only works in a server.")
		}
		return handler(b, s, m, args)
	}
}

// parseCommand splits "!cmd a b" into its lower cased name and arguments
func parseCommand(prefix, content string) (string, []string, bool) {
	content = strings.TrimSpace(content)
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(content[len(prefix):])
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// Handler for discord message events
func (b *Bot) Handler(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore all messages created by the bot itself
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}
	b.handle(s, m)
}

func (b *Bot) handle(s chat, m *discordgo.MessageCreate) {
	if m.Author.Bot {
		return
	}

	name, args, ok := parseCommand(b.Prefix, m.Content)
	if !ok {
		b.listen(s, m)
		return
	}

	handler, ok := router[name]
	if !ok {
		// not a cmd
		return
	}

	cmdID := uuid.New().String()
	log.Debug().
		Str("cmd", name).
		Str("user", m.Author.ID).
		Strs("params", args).
		Str("cmdID", cmdID).
		Msg("calling handler for cmd")

	resp := b.call(handler, s, m, args, cmdID)
	b.send(s, m.ChannelID, resp.msgs)

	log.Debug().
		Str("cmdID", cmdID).
		Err(resp.err).
		Interface("message", resp.msgs).
		Msg("cmd done")
}

func (b *Bot) call(handler _Handler, s chat, m *discordgo.MessageCreate, args []string, cmdID string) (resp _Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("cmdID", cmdID).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")
			resp = simpleErr(fmt.Errorf("%v: %w", r, errPanic), fmt.Sprintf("Unexpected error: %v :cry:", r))
		}
	}()
	return handler(b, s, m, args)
}

func (b *Bot) send(s chat, channelID string, msgs []_Message) {
	for i := range msgs {
		msg := &msgs[i]
		target := msg.getChan(channelID)

		if msg.Embed != nil {
			data := &discordgo.MessageSend{Content: msg.Message, Embeds: []*discordgo.MessageEmbed{msg.Embed}}
			if _, err := s.ChannelMessageSendComplex(target, data); err != nil {
				log.Error().Err(err).Msg("cannot push embed")
			}
			continue
		}
		if msg.Message == "" {
			continue
		}
		for _, chunk := range util.SplitMessage(msg.Message, util.MessageLimit) {
			if _, err := s.ChannelMessageSend(target, chunk); err != nil {
				log.Error().Err(err).Msg("cannot push message")
			}
		}
	}
}

// ReactionHandler forwards reactions to the commands waiting for them
func (b *Bot) ReactionHandler(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.MessageReaction == nil || r.UserID == s.State.User.ID {
		return
	}
	b.dispatchReaction(r.MessageReaction)
}

func (b *Bot) dispatchReaction(r *discordgo.MessageReaction) int {
	return b.events.Dispatch(session.Event{
		Key:    r.MessageID,
		UserID: r.UserID,
		Emoji:  r.Emoji.Name,
	})
}

// Sweep drops the trade offers and sessions that outlived their timeout.
// The owner of an expired offer is told in the channel of the offer.
func (b *Bot) Sweep(s chat, now time.Time) {
	for _, o := range b.trades.Expire(now) {
		log.Info().Str("owner", o.OwnerID).Str("tag", o.Tag).Msg("trade offer expired")
		b.send(s, o.ChannelID, []_Message{{
			Message: fmt.Sprintf("%s, your trade offer for %s has expired.", util.DiscordIDToText(o.OwnerID), o.Species),
		}})
	}
	for _, sess := range b.sessions.Sweep(now) {
		log.Info().Str("session", sess.ID.String()).Str("kind", string(sess.Kind)).Msg("session expired")
	}
}

// RunSweeper calls Sweep every interval until ctx is done
func (b *Bot) RunSweeper(ctx context.Context, s chat, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			b.Sweep(s, now)
		}
	}
}
