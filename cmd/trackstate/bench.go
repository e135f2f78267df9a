package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/delaneyj/trackstate/sched"
	"github.com/delaneyj/trackstate/store"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

const (
	maxWidthKey  = "max-width"
	maxHeightKey = "max-height"
	itersKey     = "iters"
)

func benchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Time Set on a root store feeding chains of computed nodes",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  maxWidthKey,
				Usage: "Largest number of chains, stepping by powers of ten",
				Value: 100,
			},
			&cli.UintFlag{
				Name:  maxHeightKey,
				Usage: "Largest chain length, stepping by powers of ten",
				Value: 100,
			},
			&cli.UintFlag{
				Name:  itersKey,
				Usage: "Timed updates per graph",
				Value: 100,
			},
		},
		Action: bench,
	}
}

func bench(ctx context.Context, cmd *cli.Command) error {
	ww := powersOfTen(int(cmd.Uint(maxWidthKey)))
	hh := powersOfTen(int(cmd.Uint(maxHeightKey)))
	iters := int(cmd.Uint(itersKey))
	if iters < 1 {
		return fmt.Errorf("%s must be at least 1", itersKey)
	}

	log.Printf("warming up")
	if _, err := propagate(newContext(cmd), 1, 1, iters); err != nil {
		return err
	}

	tbl := table.NewWriter()
	tbl.SetTitle("trackstate propagation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w := range ww {
		for _, h := range hh {
			calc, err := propagate(newContext(cmd), w, h, iters)
			if err != nil {
				return err
			}
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	tbl.Render()
	return nil
}

func addOne(v int) (int, error) {
	return v + 1, nil
}

// propagate builds w chains of h computed nodes over one root store, watches
// each chain's tail, and times iters root updates.
func propagate(sc *sched.Context, w, h, iters int) (*tachymeter.Metrics, error) {
	src := store.MustNew(sc, 1, store.WithName("src"))
	tails, err := buildChains(sc, src, w, h)
	if err != nil {
		return nil, err
	}
	for _, tail := range tails {
		tail.Subscribe(func(int) error { return nil })
	}

	tach := tachymeter.New(&tachymeter.Config{Size: iters})
	for i := 0; i < iters; i++ {
		start := time.Now()
		if _, err := src.Set(src.Get() + 1); err != nil {
			return nil, err
		}
		tach.AddTime(time.Since(start))
	}
	return tach.Calc(), nil
}

func buildChains(sc *sched.Context, src *store.Store[int], w, h int) ([]*store.Computed[int], error) {
	tails := make([]*store.Computed[int], 0, w)
	for i := 0; i < w; i++ {
		var last store.Readable[int] = src
		var tail *store.Computed[int]
		for j := 0; j < max(h, 1); j++ {
			c, err := store.Computed1(sc, last, addOne)
			if err != nil {
				return nil, err
			}
			last, tail = c, c
		}
		tails = append(tails, tail)
	}
	return tails, nil
}

func powersOfTen(limit int) []int {
	out := []int{1}
	for n := 10; n <= limit; n *= 10 {
		out = append(out, n)
	}
	return out
}
