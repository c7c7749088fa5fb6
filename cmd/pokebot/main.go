package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vincent-heng/discord-pokebot/bot"
	"github.com/vincent-heng/discord-pokebot/bot/db"
	"github.com/vincent-heng/discord-pokebot/config"
)

const sweepInterval = time.Minute

var configPath string

var rootCmd = &cobra.Command{
	Use:   "pokebot",
	Short: "Discord bot to catch, train, trade and battle Pokémon",
	Long: `Runs the bot until SIGINT or SIGTERM.

Settings come from the yaml file given with --config, then from .env and
the environment (DISCORD_BOT_KEY, GAME_MASTER, DB_DRIVER, ...).`,
	SilenceUsage: true,
	RunE:         runBot,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE:  runMigrate,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the yaml configuration file")
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogger applies the log settings to the global zerolog logger
func setupLogger(conf config.Log) error {
	level := zerolog.InfoLevel
	if conf.Level != "" {
		l, err := zerolog.ParseLevel(conf.Level)
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		level = l
	}
	zerolog.SetGlobalLevel(level)

	if conf.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return nil
}

func loadConfig() (config.Config, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return conf, err
	}
	if err := setupLogger(conf.Log); err != nil {
		return conf, err
	}
	return conf, nil
}

func runMigrate(_ *cobra.Command, _ []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	if err := conf.Database.Validate(); err != nil {
		return err
	}

	database, err := db.New(conf.Database)
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer database.Close()

	log.Info().Str("driver", conf.Database.Driver).Msg("database schema is up to date")
	return nil
}

func runBot(cmd *cobra.Command, _ []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	if err := conf.Validate(); err != nil {
		return err
	}

	log.Info().Msg("Starting...")

	b, err := bot.New(conf)
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer b.Close()

	dg, err := discordgo.New("Bot " + conf.DiscordBotKey)
	if err != nil {
		return fmt.Errorf("error creating Discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	dg.AddHandler(b.Handler)
	dg.AddHandler(b.ReactionHandler)

	// Open a websocket connection to Discord and begin listening.
	if err := dg.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}
	defer dg.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go b.RunSweeper(ctx, dg, sweepInterval)

	// Wait here until CTRL-C or other term signal is received.
	log.Info().Str("prefix", conf.Prefix).Msg("Bot is now running. Press CTRL-C to exit.")
	<-ctx.Done()

	log.Info().Msg("shutting down")
	return nil
}
