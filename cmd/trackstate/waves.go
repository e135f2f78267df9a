package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/delaneyj/trackstate/sched"
	"github.com/delaneyj/trackstate/store"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

const (
	widthKey      = "width"
	layersKey     = "layers"
	sourcesKey    = "sources"
	iterationsKey = "iterations"
)

func wavesCommand() *cli.Command {
	return &cli.Command{
		Name:  "waves",
		Usage: "Run update waves through a layered graph and check every node settles once per wave",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  widthKey,
				Usage: "Nodes per layer",
				Value: 10,
			},
			&cli.UintFlag{
				Name:  layersKey,
				Usage: "Layers including the source stores",
				Value: 5,
			},
			&cli.UintFlag{
				Name:  sourcesKey,
				Usage: "Upstream nodes each computed node reads",
				Value: 2,
			},
			&cli.UintFlag{
				Name:  iterationsKey,
				Usage: "Update waves to run",
				Value: 10_000,
			},
		},
		Action: waves,
	}
}

type graphConfig struct {
	width, layers, nSources int
}

func (cfg graphConfig) String() string {
	return fmt.Sprintf("%dx%d %d sources", cfg.width, cfg.layers, cfg.nSources)
}

type layeredGraph struct {
	sources []*store.Store[int]
	layers  [][]*store.Computed[int]
	// computations per node during the current wave
	counts map[*store.Computed[int]]int
}

type waveStats struct {
	waves        int
	computations int
	// most recomputations any single node did within one wave
	maxPerNode int
	sum        int
	duration   time.Duration
}

func waves(ctx context.Context, cmd *cli.Command) error {
	cfg := graphConfig{
		width:    int(cmd.Uint(widthKey)),
		layers:   int(cmd.Uint(layersKey)),
		nSources: int(cmd.Uint(sourcesKey)),
	}
	if cfg.width < 1 || cfg.layers < 2 || cfg.nSources < 1 {
		return fmt.Errorf("need width >= 1, layers >= 2 and sources >= 1, got %s", cfg)
	}
	iterations := int(cmd.Uint(iterationsKey))

	log.Printf("Running %s for %s waves", cfg, humanize.Comma(int64(iterations)))
	g, err := buildLayers(newContext(cmd), cfg)
	if err != nil {
		return err
	}
	stats, err := g.run(iterations)
	if err != nil {
		return err
	}

	rate := float64(stats.computations) / (float64(stats.duration) / float64(time.Millisecond))
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"graph", "nodes", "waves", "recomputes", "max/node/wave", "time", "recomputes/ms", "sum"})
	table.Append([]string{
		cfg.String(),
		humanize.Comma(int64(g.nodes())),
		humanize.Comma(int64(stats.waves)),
		humanize.Comma(int64(stats.computations)),
		fmt.Sprint(stats.maxPerNode),
		fmt.Sprint(stats.duration),
		humanize.Comma(int64(rate)),
		humanize.Comma(int64(stats.sum)),
	})
	table.Render()

	if stats.maxPerNode > 1 {
		return fmt.Errorf("a node recomputed %d times in one wave", stats.maxPerNode)
	}
	return nil
}

func buildLayers(sc *sched.Context, cfg graphConfig) (*layeredGraph, error) {
	g := &layeredGraph{counts: map[*store.Computed[int]]int{}}
	prev := make([]store.Readable[int], cfg.width)
	for i := 0; i < cfg.width; i++ {
		src := store.MustNew(sc, i, store.WithName(fmt.Sprintf("source-%d", i)))
		g.sources = append(g.sources, src)
		prev[i] = src
	}

	for l := 1; l < cfg.layers; l++ {
		row := make([]*store.Computed[int], cfg.width)
		next := make([]store.Readable[int], cfg.width)
		for i := range row {
			inputs := make([]store.Readable[int], 0, cfg.nSources)
			deps := make([]store.Source, 0, cfg.nSources)
			for s := 0; s < cfg.nSources; s++ {
				in := prev[(i+s)%len(prev)]
				inputs = append(inputs, in)
				deps = append(deps, in)
			}

			var node *store.Computed[int]
			node, err := store.NewComputed(sc, deps, func() (int, error) {
				g.counts[node]++
				sum := 0
				for _, in := range inputs {
					v, err := in.Read()
					if err != nil {
						return 0, err
					}
					sum += v
				}
				return sum, nil
			}, store.WithName(fmt.Sprintf("node-%d-%d", l, i)))
			if err != nil {
				return nil, err
			}
			row[i], next[i] = node, node
		}
		g.layers = append(g.layers, row)
		prev = next
	}

	for _, leaf := range g.layers[len(g.layers)-1] {
		leaf.Subscribe(func(int) error { return nil })
	}
	clear(g.counts)
	return g, nil
}

func (g *layeredGraph) nodes() int {
	return len(g.sources) + len(g.layers)*len(g.sources)
}

// run writes one source per wave and returns the sum of the leaves at the
// end.
func (g *layeredGraph) run(iterations int) (waveStats, error) {
	stats := waveStats{}
	start := time.Now()
	for i := 0; i < iterations; i++ {
		clear(g.counts)
		dex := i % len(g.sources)
		if _, err := g.sources[dex].Set(i + dex); err != nil {
			return stats, err
		}
		stats.waves++
		for _, n := range g.counts {
			stats.computations += n
			stats.maxPerNode = max(stats.maxPerNode, n)
		}
	}
	stats.duration = time.Since(start)

	for _, leaf := range g.layers[len(g.layers)-1] {
		v, err := leaf.Get()
		if err != nil {
			return stats, err
		}
		stats.sum += v
	}
	return stats, nil
}
