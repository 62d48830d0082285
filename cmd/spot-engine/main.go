// Command spot-engine is a move generator that speaks the line protocol on
// stdin and stdout. Logs go to stderr.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/icco/spot"
	"github.com/icco/spot/ai"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
)

type options struct {
	Level  string `long:"level" default:"intermediate" description:"beginner, intermediate or advanced"`
	Player string `long:"player" default:"2" description:"Side to move for, 1 or 2"`
	Seed   int64  `long:"seed" description:"Random seed, 0 picks one from the clock"`
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	log := logger.Sugar()
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, log); err != nil {
		if flags.WroteHelp(err) {
			return
		}
		log.Errorw("engine stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer, log *zap.SugaredLogger) error {
	var opts options
	if _, err := flags.ParseArgs(&opts, args); err != nil {
		return err
	}

	level, err := ai.ParseLevel(opts.Level)
	if err != nil {
		return err
	}
	player, err := spot.ParseOwner(opts.Player)
	if err != nil {
		return err
	}
	if !player.IsPlayer() {
		return spot.ErrInvalidPlayer
	}

	gen := ai.NewLocalGenerator(ai.AIConfig{Level: level, Player: player, Seed: opts.Seed})
	log.Infow("engine ready", "level", level.String(), "player", player.String())

	return ai.Serve(ctx, in, out, gen)
}
