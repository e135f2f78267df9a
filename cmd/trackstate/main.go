package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/delaneyj/trackstate/sched"
	"github.com/urfave/cli/v3"
)

const verboseKey = "verbose"

func main() {
	cmd := &cli.Command{
		Name:  "trackstate",
		Usage: "Exercise tracked stores and computed graphs",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  verboseKey,
				Usage: "Log scheduler and store activity",
			},
		},
		Commands: []*cli.Command{
			benchCommand(),
			wavesCommand(),
			replayCommand(),
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// newContext builds a scheduler context that logs to stderr and treats any
// contained fault as fatal, since the commands only run well formed graphs.
func newContext(cmd *cli.Command) *sched.Context {
	level := slog.LevelWarn
	if cmd.Bool(verboseKey) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return sched.New(
		sched.WithLogger(logger.With("component", "trackstate")),
		sched.WithErrorHandler(func(from string, err error) {
			log.Panicf("%s: %v", from, err)
		}),
	)
}
