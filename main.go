package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tictacd/attr"
	"tictacd/config"
	"tictacd/engine"
	"tictacd/game"
	"tictacd/negamax"
	"tictacd/pipeline"
	"tictacd/searcher"
	"tictacd/stream"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	fifo, err := stream.NewFIFO(cfg.FIFOCapacity)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot allocate export queue")
	}

	attrs := attr.New(cfg.Display, cfg.Resume, cfg.End)

	mcts := searcher.NewMCTS(
		searcher.WithGoroutines(cfg.Goroutines),
		searcher.WithEpisodes(cfg.Episodes),
	)
	sideA := engine.NewTimed(mcts, "mcts", cfg.MoveBudget)
	sideB := engine.NewTimed(negamax.New(), "negamax", cfg.MoveBudget)

	p := pipeline.New(cfg.TickDelay, cfg.Workers, sideA, sideB, attrs, fifo,
		pipeline.WithLoadSampler(mcts.ActiveNodes))
	defer p.Shutdown()

	dev := stream.NewDevice(fifo, p)
	sess := dev.Open()
	defer sess.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Dur("tick_delay", cfg.TickDelay).
		Int("workers", cfg.Workers).
		Msg("streaming board snapshots, ctrl-c to stop")

	buf := make([]byte, game.SnapshotSize)
	for {
		n, err := sess.Read(ctx, buf, false)
		if err != nil {
			if errors.Is(err, stream.ErrInterrupted) {
				log.Info().Msg("interrupted, shutting down")
				return
			}
			log.Error().Err(err).Msg("read failed")
			return
		}
		if _, err := os.Stdout.Write(buf[:n]); err != nil {
			log.Error().Err(err).Msg("write to stdout failed")
			return
		}
	}
}
