package board

import "errors"

// ErrInfeasible signals that propagation reduced some empty cell's
// candidate set to zero: the board cannot be extended to a solution.
var ErrInfeasible = errors.New("board: infeasible")

// Propagate repeatedly fills any empty cell whose candidate set has size
// one, until a fixed point. It never removes a value and never introduces
// an invalidity on well-formed input. It is idempotent: Propagate(Propagate(b))
// yields the same board as Propagate(b). Bounded by N² passes.
func Propagate(b Board) (Board, error) {
	n := b.N()
	out := b.Clone()

	for pass := 0; pass < n*n; pass++ {
		changed := false
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if out[i][j] != 0 {
					continue
				}
				candidates := possibleValues(out, i, j)
				if len(candidates) == 0 {
					return nil, ErrInfeasible
				}
				if len(candidates) == 1 {
					out[i][j] = candidates[0]
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}

	return out, nil
}

// possibleValues returns the candidate values for an empty cell given the
// row/column/block constraints of b. A non-empty cell yields its own value.
func possibleValues(b Board, row, col int) []int {
	n := b.N()
	if b[row][col] != 0 {
		return []int{b[row][col]}
	}

	used := make(map[int]bool, n)
	for j := 0; j < n; j++ {
		if v := b[row][j]; v != 0 {
			used[v] = true
		}
	}
	for i := 0; i < n; i++ {
		if v := b[i][col]; v != 0 {
			used[v] = true
		}
	}

	rBlk, cBlk, err := BlockDims(n)
	if err == nil {
		blockRow := (row / rBlk) * rBlk
		blockCol := (col / cBlk) * cBlk
		for i := blockRow; i < blockRow+rBlk; i++ {
			for j := blockCol; j < blockCol+cBlk; j++ {
				if v := b[i][j]; v != 0 {
					used[v] = true
				}
			}
		}
	}

	possible := make([]int, 0, n)
	for v := 1; v <= n; v++ {
		if !used[v] {
			possible = append(possible, v)
		}
	}
	return possible
}
