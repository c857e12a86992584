package partition

import (
	"testing"

	"github.com/Prabhath77/soduku-containereized-np-solver/internal/board"
)

func sampleBoard(t *testing.T) board.Board {
	t.Helper()
	b, err := board.FromRows([][]int{
		{5, 3, 0, 0, 7, 0, 0, 0, 0},
		{6, 0, 0, 1, 9, 5, 0, 0, 0},
		{0, 9, 8, 0, 0, 0, 0, 6, 0},
		{8, 0, 0, 0, 6, 0, 0, 0, 3},
		{4, 0, 0, 8, 0, 3, 0, 0, 1},
		{7, 0, 0, 0, 2, 0, 0, 0, 6},
		{0, 6, 0, 0, 0, 0, 2, 8, 0},
		{0, 0, 0, 4, 1, 9, 0, 0, 5},
		{0, 0, 0, 0, 8, 0, 0, 7, 9},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return b
}

func TestSplitColumnSkipsFullColumns(t *testing.T) {
	b := sampleBoard(t)
	specs, err := Split(b, Column)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, spec := range specs {
		hasEmpty := false
		for _, v := range spec.Values {
			if v == 0 {
				hasEmpty = true
			}
		}
		if !hasEmpty {
			t.Errorf("column %d has no empty cells and should have been skipped", spec.Index.Col)
		}
	}
}

func TestSplitBlockCoversAllCells(t *testing.T) {
	b := sampleBoard(t)
	specs, err := Split(b, Block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	covered := make(map[[2]int]bool)
	for _, spec := range specs {
		for _, cell := range spec.Cells {
			covered[[2]int{cell.Row, cell.Col}] = true
		}
	}

	n := b.N()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if b[i][j] == 0 && !covered[[2]int{i, j}] {
				t.Errorf("empty cell (%d,%d) not covered by any block partition", i, j)
			}
		}
	}
}

func TestCellsForIndexMatchesSplit(t *testing.T) {
	b := sampleBoard(t)
	specs, err := Split(b, Block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, spec := range specs {
		cells, err := CellsForIndex(b.N(), Block, spec.Index)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cells) != len(spec.Cells) {
			t.Fatalf("cell count mismatch for %v: got %d want %d", spec.Index, len(cells), len(spec.Cells))
		}
		for i := range cells {
			if cells[i] != spec.Cells[i] {
				t.Errorf("cell %d mismatch for %v: got %v want %v", i, spec.Index, cells[i], spec.Cells[i])
			}
		}
	}
}

func TestReassembleRoundTrip(t *testing.T) {
	b := sampleBoard(t)
	specs, err := Split(b, Column)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := Reassemble(b, specs)
	for i := range b {
		for j := range b[i] {
			if b[i][j] != out[i][j] {
				t.Errorf("round-trip mismatch at (%d,%d): got %d want %d", i, j, out[i][j], b[i][j])
			}
		}
	}
}
