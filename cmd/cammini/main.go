// Command cammini serves shortest collaboration-path queries over a named
// pipe, after loading an actor graph from two tab-separated files.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"code.hybscloud.com/cammini/internal/bfsworker"
	"code.hybscloud.com/cammini/internal/config"
	"code.hybscloud.com/cammini/internal/dispatcher"
	"code.hybscloud.com/cammini/internal/graphload"
	"code.hybscloud.com/cammini/internal/model"
	"code.hybscloud.com/cammini/internal/signalcoord"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	app := &cli.App{
		Name:      "cammini",
		Usage:     "serve shortest collaboration-path queries over a named pipe",
		ArgsUsage: "[names-file graph-file workers]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "names", Usage: "actor names file (code\\tname\\tyear)"},
			&cli.StringFlag{Name: "graph", Usage: "adjacency file (code\\tk\\tn1...nk)"},
			&cli.IntFlag{Name: "workers", Usage: "GraphLoader consumer count"},
			&cli.StringFlag{Name: "pipe", Usage: "override the query fifo path"},
			&cli.StringFlag{Name: "config", Usage: "path to cammini.toml"},
		},
		Action: func(c *cli.Context) error {
			return run(c, log)
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(2)
	}
}

// run wires every component together in dependency order: VertexStore,
// then GraphLoader, then the FIFO and QueryDispatcher's read loop.
func run(c *cli.Context, log *slog.Logger) error {
	namesPath, graphPath, workers, err := resolveArgs(c)
	if err != nil {
		return fmt.Errorf("cammini: %w", err)
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if pipe := c.String("pipe"); pipe != "" {
		cfg.FifoPath = pipe
	}

	flags := &signalcoord.Flags{}
	coordinator := signalcoord.New(flags, log)
	go coordinator.Run()

	log.Info("loading vertex store", "path", namesPath)
	store, err := model.LoadVertexStore(namesPath)
	if err != nil {
		return fmt.Errorf("cammini: loading names-file: %w", err)
	}

	log.Info("loading graph", "path", graphPath, "workers", workers)
	if err := graphload.Load(context.Background(), log, graphPath, store, workers, cfg.BufferCapacity); err != nil {
		return fmt.Errorf("cammini: loading graph-file: %w", err)
	}
	flags.SetFinishedGraph()
	log.Info("graph load complete")

	strategy := bfsworker.Strategy(cfg.ParentTableStrategy)
	worker := bfsworker.New(store, ".", strategy, cfg.FrontierCapacity, log)

	d := dispatcher.New(dispatcher.Options{
		FifoPath:          cfg.FifoPath,
		PollInterval:      cfg.FifoPollInterval,
		OpenRetryInterval: cfg.FifoOpenRetryInterval,
		ShutdownGrace:     cfg.ShutdownGrace,
	}, flags, worker, log)

	return d.Run()
}

// resolveArgs accepts both the flag form (--names/--graph/--workers) and
// the original positional form (`cammini nomi.txt grafo.txt W`), for
// drop-in compatibility with the original invocation.
func resolveArgs(c *cli.Context) (namesPath, graphPath string, workers int, err error) {
	namesPath = c.String("names")
	graphPath = c.String("graph")
	workers = c.Int("workers")

	if namesPath == "" && graphPath == "" && workers == 0 {
		if c.NArg() != 3 {
			return "", "", 0, fmt.Errorf("expected names-file, graph-file and workers (got %d positional args)", c.NArg())
		}
		namesPath = c.Args().Get(0)
		graphPath = c.Args().Get(1)
		workers, err = strconv.Atoi(c.Args().Get(2))
		if err != nil {
			return "", "", 0, fmt.Errorf("invalid workers count %q: %w", c.Args().Get(2), err)
		}
	}

	if namesPath == "" || graphPath == "" {
		return "", "", 0, fmt.Errorf("names-file and graph-file are required")
	}
	if workers <= 0 {
		return "", "", 0, fmt.Errorf("workers must be a positive integer, got %d", workers)
	}

	return namesPath, graphPath, workers, nil
}
