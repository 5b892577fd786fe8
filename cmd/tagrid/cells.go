package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/tagrid/pkg/core"
)

// parseCell reads "row,col" (or "row:col") header indexes.
func parseCell(s string) (core.Cell, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ':' })
	if len(parts) != 2 {
		return core.Cell{}, fmt.Errorf("invalid cell %q (expected row,col)", s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return core.Cell{}, fmt.Errorf("invalid row in cell %q: %w", s, err)
	}
	col, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return core.Cell{}, fmt.Errorf("invalid column in cell %q: %w", s, err)
	}
	return core.Cell{Row: row, Col: col}, nil
}

// parseInstance reads "id" or "id@row,col". Without a cell the note's first
// non-anchor cell is used, falling back to the anchor cell.
func parseInstance(b *core.Board, s string) (core.Instance, error) {
	short, cellSpec, hasCell := strings.Cut(s, "@")
	id, err := noteID(b, short)
	if err != nil {
		return core.Instance{}, err
	}
	if hasCell {
		cell, err := parseCell(cellSpec)
		if err != nil {
			return core.Instance{}, err
		}
		return core.Instance{NoteID: id, Row: cell.Row, Col: cell.Col}, nil
	}
	cell := homeCell(b, id)
	return core.Instance{NoteID: id, Row: cell.Row, Col: cell.Col}, nil
}

// homeCell is the first cell of a note outside the anchor row and column.
func homeCell(b *core.Board, id string) core.Cell {
	cells, _ := b.CellsOf(id)
	for _, c := range cells {
		if c.Row > 0 && c.Col > 0 {
			return c
		}
	}
	return core.Cell{}
}
