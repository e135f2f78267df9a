package main

import (
	"context"
	"fmt"
	"go/format"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/delaneyj/trackstate/cmd/codegen/templates"
	"github.com/urfave/cli/v3"
)

const (
	genericParamCountKey = "count"
	outputKey            = "out"
)

func main() {
	cmd := &cli.Command{
		Name:  "generate",
		Usage: "Generate the typed ComputedN constructors",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  genericParamCountKey,
				Usage: "Number of upstream parameters to generate up to",
				Value: 4,
			},
			&cli.StringFlag{
				Name:  outputKey,
				Usage: "Output file",
				Value: filepath.Join("store", "computed_gen.go"),
			},
		},
		Action: generate,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func generate(ctx context.Context, cmd *cli.Command) error {
	start := time.Now()
	log.Printf("Codegen for store started !")
	defer func() {
		log.Printf("Codegen for store finished in %v", time.Since(start))
	}()

	count := int(cmd.Uint(genericParamCountKey))
	if count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", count)
	}

	src, err := format.Source([]byte(templates.ComputedGen(count)))
	if err != nil {
		return fmt.Errorf("format generated code: %w", err)
	}

	out := cmd.String(outputKey)
	if err := os.WriteFile(out, src, 0644); err != nil {
		return err
	}
	log.Printf("Wrote %d constructors to %s", count, out)
	return nil
}
