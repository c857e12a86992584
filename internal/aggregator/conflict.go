package aggregator

import (
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/board"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/partition"
)

// ConflictingPartitions scans a tentative board for rows, columns, and
// blocks holding a duplicated non-zero value and maps each collision
// back to the partition index (or indices) that own the colliding
// cells, per spec §4.5.
func ConflictingPartitions(b board.Board, strategy partition.Strategy) map[partition.Index]bool {
	n := b.N()
	conflicts := make(map[partition.Index]bool)

	for r := 0; r < n; r++ {
		cols := make(map[int][]int)
		for c := 0; c < n; c++ {
			if v := b[r][c]; v != 0 {
				cols[v] = append(cols[v], c)
			}
		}
		for _, dupCols := range cols {
			if len(dupCols) > 1 {
				for _, c := range dupCols {
					markCellConflict(conflicts, n, strategy, r, c)
				}
			}
		}
	}

	for c := 0; c < n; c++ {
		rows := make(map[int][]int)
		for r := 0; r < n; r++ {
			if v := b[r][c]; v != 0 {
				rows[v] = append(rows[v], r)
			}
		}
		for _, dupRows := range rows {
			if len(dupRows) > 1 {
				for _, r := range dupRows {
					markCellConflict(conflicts, n, strategy, r, c)
				}
			}
		}
	}

	rBlk, cBlk, err := board.BlockDims(n)
	if err == nil {
		for br := 0; br < n/rBlk; br++ {
			for bc := 0; bc < n/cBlk; bc++ {
				seen := make(map[int]bool)
				dupe := false
				for i := br * rBlk; i < (br+1)*rBlk; i++ {
					for j := bc * cBlk; j < (bc+1)*cBlk; j++ {
						v := b[i][j]
						if v == 0 {
							continue
						}
						if seen[v] {
							dupe = true
						}
						seen[v] = true
					}
				}
				if dupe {
					markBlockConflict(conflicts, strategy, br, bc, rBlk, cBlk)
				}
			}
		}
	}

	return conflicts
}

// markCellConflict maps a single colliding cell to its owning partition.
func markCellConflict(conflicts map[partition.Index]bool, n int, strategy partition.Strategy, row, col int) {
	switch strategy {
	case partition.Column:
		conflicts[partition.Index{Col: col}] = true
	case partition.Block:
		rBlk, cBlk, err := board.BlockDims(n)
		if err != nil {
			return
		}
		conflicts[partition.Index{BlockRow: row / rBlk, BlockCol: col / cBlk}] = true
	}
}

// markBlockConflict maps a block found to contain an internal duplicate
// to its owning partition(s): itself under BLOCK strategy, or the
// columns it spans under COLUMN strategy.
func markBlockConflict(conflicts map[partition.Index]bool, strategy partition.Strategy, br, bc, rBlk, cBlk int) {
	switch strategy {
	case partition.Block:
		conflicts[partition.Index{BlockRow: br, BlockCol: bc}] = true
	case partition.Column:
		for c := bc * cBlk; c < (bc+1)*cBlk; c++ {
			conflicts[partition.Index{Col: c}] = true
		}
	}
}
