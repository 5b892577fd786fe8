package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/tagrid"
	"github.com/aretw0/tagrid/pkg/core"
)

func main() {
	count := flag.Int("count", 1000, "Number of notes to generate")
	moves := flag.Int("moves", 1000, "Number of moves into the same slot")
	size := flag.Int("size", 5, "Rows and columns of the board")
	adapter := flag.String("adapter", "fs", "Storage adapter to save and load with")
	keep := flag.Bool("keep", false, "Keep the benchmark board after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "tagrid_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	uri := benchDir
	if *adapter == "redis" {
		uri = os.Getenv("REDIS_URL")
	}
	repo, err := tagrid.Init(uri,
		tagrid.WithAdapter(*adapter),
		tagrid.WithAutoInit(true),
		tagrid.WithVersioning(false), // measure storage, not git
		tagrid.WithLogger(logger),
	)
	if err != nil {
		panic(err)
	}

	var rows, cols []string
	for i := range *size {
		rows = append(rows, fmt.Sprintf("Row %d #r%d", i+1, i+1))
		cols = append(cols, fmt.Sprintf("Col %d #c%d", i+1, i+1))
	}
	service, err := tagrid.New(uri, tagrid.WithRepository(repo), tagrid.WithLogger(logger), tagrid.WithSeed(rows, cols))
	if err != nil {
		panic(err)
	}
	b := service.Board()

	// 1. Generation
	fmt.Printf("Generating %d notes on a %dx%d board (%s)...\n", *count, *size, *size, *adapter)
	start := time.Now()
	for i := range *count {
		cell := core.Cell{Row: i%*size + 1, Col: (i/(*size))%*size + 1}
		if _, err := b.CreateNote(cell, fmt.Sprintf("note %d", i)); err != nil {
			panic(err)
		}
	}
	fmt.Printf("Generation took: %v\n", time.Since(start))

	// 2. Moves into the same slot halve the gap every time and force
	// renormalization once float precision runs out.
	dest := core.Cell{Row: 1, Col: 1}
	start = time.Now()
	for i := range *moves {
		notes := b.Notes()
		if len(notes) == 0 {
			break
		}
		n := notes[i%len(notes)]
		cells, err := b.CellsOf(n.ID)
		if err != nil {
			panic(err)
		}
		src := cells[len(cells)-1]
		if _, err := b.Move([]core.Instance{{NoteID: n.ID, Row: src.Row, Col: src.Col}}, dest, 1); err != nil {
			panic(err)
		}
	}
	elapsed := time.Since(start)
	fmt.Printf("Moves took: %v (%v/move)\n", elapsed, elapsed/time.Duration(max(*moves, 1)))

	// 3. Save
	ctx := context.Background()
	start = time.Now()
	if err := service.Save(ctx); err != nil {
		panic(err)
	}
	fmt.Printf("Save took: %v\n", time.Since(start))

	// 4. Load
	start = time.Now()
	snap, err := repo.Load(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Load took: %v (Notes: %d)\n", time.Since(start), len(snap.Notes))

	if err := b.Load(*snap); err != nil {
		panic(err)
	}
	fmt.Printf("Validate+replace took: %v\n", time.Since(start))
}
