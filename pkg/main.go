package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	pkg "git.solsynth.dev/hypernet/ponder/pkg/internal"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/cache"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/database"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/events"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/gap"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/grpc"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/http"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/services"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
}

func configureLogger() {
	var writer io.Writer = zerolog.ConsoleWriter{Out: os.Stdout}
	if filename := viper.GetString("log.file"); len(filename) > 0 {
		writer = zerolog.MultiLevelWriter(writer, &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		})
	}

	level, err := zerolog.ParseLevel(viper.GetString("log.level"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(writer).With().Timestamp().Logger().Level(level)
}

func main() {
	// Booting screen
	fmt.Println(color.YellowString(" ____                 _\n|  _ \\ ___  _ __   __| | ___ _ __\n| |_) / _ \\| '_ \\ / _` |/ _ \\ '__|\n|  __/ (_) | | | | (_| |  __/ |\n|_|   \\___/|_| |_|\\__,_|\\___|_|"))
	fmt.Printf("%s v%s\n", color.New(color.FgHiYellow).Add(color.Bold).Sprintf("Hypernet.Ponder"), pkg.AppVersion)
	fmt.Printf("The prediction poll service in Hypernet\n")
	color.HiBlack("=====================================================\n")

	// Configure settings
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded, using settings and environment only.")
	}
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("settings")
	viper.SetConfigType("toml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Load settings
	if err := viper.ReadInConfig(); err != nil {
		log.Panic().Err(err).Msg("An error occurred when loading settings.")
	}
	configureLogger()

	// Connect to external collaborators
	if err := gap.InitializeToGateway(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when connecting to the gateway...")
	}

	// Connect to database
	var store database.Store
	switch viper.GetString("database.driver") {
	case "memory":
		store = database.NewMemoryStore()
		log.Warn().Msg("Using the in-memory store, nothing will survive a restart.")
	default:
		if err := database.NewGorm(); err != nil {
			log.Fatal().Err(err).Msg("An error occurred when connect to database.")
		} else if err := database.RunMigration(database.C); err != nil {
			log.Fatal().Err(err).Msg("An error occurred when running database auto migration.")
		}
		store = database.NewGormStore(database.C)
	}

	// Initialize cache
	if err := cache.NewStore(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when initializing cache.")
	}

	// Events
	bus := events.NewBus()
	if gap.Nc != nil {
		subject := viper.GetString("events.nats_subject")
		if len(subject) == 0 {
			subject = "ponder"
		}
		bus.Subscribe(events.TopicAll, events.NewNatsForwarder(gap.Nc, subject))
	}

	// Engine
	cfg, err := services.ReadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("An error occurred when reading engine settings.")
	}
	engine := services.NewEngine(
		store,
		gap.W,
		cfg,
		services.WithBus(bus),
		services.WithCache(cache.S),
		services.WithLanguageDetector(services.DetectLanguage),
	)

	// Configure timed tasks
	schedule := viper.GetString("keeper.schedule")
	if len(schedule) == 0 {
		schedule = "@every 1m"
	}
	quartz := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(&log.Logger)))
	if _, err := quartz.AddFunc(schedule, func() {
		engine.RunKeeper(context.Background())
	}); err != nil {
		log.Fatal().Err(err).Str("schedule", schedule).Msg("An error occurred when scheduling the keeper.")
	}
	quartz.Start()

	// Server
	server := http.NewServer(engine)
	go server.Listen()

	grpcServer := grpc.NewGrpc(bus)
	go func() {
		if err := grpcServer.Listen(); err != nil {
			log.Fatal().Err(err).Msg("An error occurred when starting grpc server...")
		}
	}()

	// Messages
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	quartz.Stop()
	if err := server.Shutdown(); err != nil {
		log.Error().Err(err).Msg("An error occurred when shutting down server...")
	}
	grpcServer.Stop()
	if gap.Nc != nil {
		_ = gap.Nc.Drain()
	}
}
