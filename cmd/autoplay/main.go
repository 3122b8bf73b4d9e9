package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/castlegate/autoplay/automatic"
	"github.com/castlegate/autoplay/config"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "path to a YAML config file")
		games   = flag.Int("games", 0, "number of games to play (overrides config)")
		threads = flag.Int("parallelism", 0, "number of concurrent games (overrides config)")
		output  = flag.String("output", "selfplay.log", "per-game summary output file")
		debug   = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	cfg, err := config.Setup(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *games > 0 {
		cfg.Games = *games
	}
	if *threads > 0 {
		cfg.Parallelism = *threads
	}
	if *debug {
		cfg.Debug = true
	}

	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	out.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}

	var logger zerolog.Logger
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger = zerolog.New(out).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		logger = zerolog.New(out).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	}
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	logger.Debug().Msg("Debug logging is on")

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("got quit signal...")
		cancel()
	}()

	summary, err := automatic.StartSelfPlayGames(ctx, cfg, cfg.Games,
		cfg.Parallelism, *output)
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("run aborted")
	} else if err != nil {
		log.Fatal().Err(err).Msg("self-play run failed")
	}

	log.Info().
		Int("games", summary.Games).
		Int("whiteWins", summary.WhiteWins).
		Int("blackWins", summary.BlackWins).
		Int("draws", summary.Draws).
		Int("undecided", summary.Undecided).
		Float64("meanPlies", summary.Plies.Mean()).
		Float64("meanWorstEval", summary.WorstEval.Mean()).
		Msg("run complete")
}
