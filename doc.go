// Package tagrid is the composition root for tagrid boards.
//
// A board is a grid whose rows and columns are headers carrying tags. A note
// belongs to a cell when its text carries every tag of the cell's row and
// column, so one note can show up in several cells and moving a note is an
// edit of its tags. Notes within a cell are ordered by a fractional index.
//
// The domain lives in pkg/core and knows nothing about storage. This package
// wires it to a repository adapter:
//
//   - fs (default): one JSON or YAML snapshot file, optionally versioned with git.
//   - bolt and sqlite: embedded databases, several boards per file.
//   - redis: shared boards with pub/sub change notifications.
//   - memory: tests and throwaway boards.
//
// Usage:
//
//	svc, err := tagrid.New("./boards",
//		tagrid.WithAutoInit(true),
//		tagrid.WithSeed([]string{"Todo #todo", "Done #done"}, []string{"Alice #alice"}),
//	)
//
//	err = svc.Update(ctx, func(b *core.Board) error {
//		_, err := b.CreateNote(core.Cell{Row: 1, Col: 1}, "write docs")
//		return err
//	})
package tagrid
