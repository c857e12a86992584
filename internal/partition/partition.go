// Package partition splits a board into the sub-jobs the Partitioner
// hands to the Dispatcher, by either column or block-wise strategy, and
// supports reassembling partitions back into a full board.
package partition

import (
	"fmt"

	"github.com/Prabhath77/soduku-containereized-np-solver/internal/board"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/solver"
)

// Strategy selects how a board is split into sub-jobs.
type Strategy int

const (
	Column Strategy = iota
	Block
)

func (s Strategy) String() string {
	switch s {
	case Column:
		return "COLUMN"
	case Block:
		return "BLOCK"
	default:
		return "UNKNOWN"
	}
}

// ParseStrategy parses the COLUMN/BLOCK wire values.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "COLUMN", "column", "":
		return Column, nil
	case "BLOCK", "block":
		return Block, nil
	default:
		return 0, fmt.Errorf("partition: unknown strategy %q", s)
	}
}

// Index identifies one partition of a board: a column index for the
// COLUMN strategy, or a (blockRow, blockCol) pair for BLOCK.
type Index struct {
	Col      int // valid for Column
	BlockRow int // valid for Block
	BlockCol int // valid for Block
}

// SubJobSpec is the partitioner's output for one non-empty partition: its
// index, the cell coordinates and current values it covers, in a stable
// order that Reassemble relies on.
type SubJobSpec struct {
	Index  Index
	Cells  []solver.Cell
	Values []int
}

// Split partitions b by strategy, skipping any partition whose cells are
// all already filled. Cell order within a partition is row-major for
// BLOCK and top-to-bottom for COLUMN, matching Reassemble's expectations.
func Split(b board.Board, strategy Strategy) ([]SubJobSpec, error) {
	switch strategy {
	case Column:
		return splitColumns(b), nil
	case Block:
		return splitBlocks(b)
	default:
		return nil, fmt.Errorf("partition: unknown strategy %d", strategy)
	}
}

func splitColumns(b board.Board) []SubJobSpec {
	n := b.N()
	var specs []SubJobSpec
	for c := 0; c < n; c++ {
		cells := make([]solver.Cell, n)
		values := make([]int, n)
		hasEmpty := false
		for r := 0; r < n; r++ {
			cells[r] = solver.Cell{Row: r, Col: c}
			values[r] = b[r][c]
			if b[r][c] == 0 {
				hasEmpty = true
			}
		}
		if !hasEmpty {
			continue
		}
		specs = append(specs, SubJobSpec{Index: Index{Col: c}, Cells: cells, Values: values})
	}
	return specs
}

func splitBlocks(b board.Board) ([]SubJobSpec, error) {
	n := b.N()
	rBlk, cBlk, err := board.BlockDims(n)
	if err != nil {
		return nil, err
	}

	var specs []SubJobSpec
	for br := 0; br < n/rBlk; br++ {
		for bc := 0; bc < n/cBlk; bc++ {
			var cells []solver.Cell
			var values []int
			hasEmpty := false
			for i := br * rBlk; i < (br+1)*rBlk; i++ {
				for j := bc * cBlk; j < (bc+1)*cBlk; j++ {
					cells = append(cells, solver.Cell{Row: i, Col: j})
					values = append(values, b[i][j])
					if b[i][j] == 0 {
						hasEmpty = true
					}
				}
			}
			if !hasEmpty {
				continue
			}
			specs = append(specs, SubJobSpec{
				Index:  Index{BlockRow: br, BlockCol: bc},
				Cells:  cells,
				Values: values,
			})
		}
	}
	return specs, nil
}

// CellsForIndex returns the ordered cell coordinates owned by a single
// partition index for an N x N board under strategy, without regard to
// whether those cells are filled. Workers use it to map a pulled
// sub-job's flat value array back onto board coordinates.
func CellsForIndex(n int, strategy Strategy, idx Index) ([]solver.Cell, error) {
	switch strategy {
	case Column:
		cells := make([]solver.Cell, n)
		for r := 0; r < n; r++ {
			cells[r] = solver.Cell{Row: r, Col: idx.Col}
		}
		return cells, nil
	case Block:
		rBlk, cBlk, err := board.BlockDims(n)
		if err != nil {
			return nil, err
		}
		var cells []solver.Cell
		for i := idx.BlockRow * rBlk; i < (idx.BlockRow+1)*rBlk; i++ {
			for j := idx.BlockCol * cBlk; j < (idx.BlockCol+1)*cBlk; j++ {
				cells = append(cells, solver.Cell{Row: i, Col: j})
			}
		}
		return cells, nil
	default:
		return nil, fmt.Errorf("partition: unknown strategy %d", strategy)
	}
}

// Reassemble overlays each spec's Values back onto a copy of base at the
// spec's Cells, demonstrating the round-trip law: splitting a board and
// reassembling without modification reproduces the original.
func Reassemble(base board.Board, specs []SubJobSpec) board.Board {
	out := base.Clone()
	for _, spec := range specs {
		for i, cell := range spec.Cells {
			out[cell.Row][cell.Col] = spec.Values[i]
		}
	}
	return out
}
