package solver

import "github.com/Prabhath77/soduku-containereized-np-solver/internal/board"

// NaiveSolver fills a partition's empty cells using naked-singles
// propagation against the context board; any cell left ambiguous after
// propagation is resolved by backtracking but marked unsure, since its
// value is a guess rather than a forced deduction. Grounded on
// parallelsudokusolver.go's solveBacktrackingSingle/getOrderedValues.
type NaiveSolver struct {
	// UseHeuristics orders backtracking guesses by least-constraining
	// value first, matching the teacher's getOrderedValues.
	UseHeuristics bool
}

func (s NaiveSolver) Solve(p Partition) (Result, error) {
	ctx := cloneContext(p.Context)
	n := p.N

	values := make([]int, len(p.Values))
	sure := make([]bool, len(p.Values))

	for i, v := range p.Values {
		if v != 0 {
			values[i] = v
			sure[i] = true
			ctx[p.Cells[i].Row][p.Cells[i].Col] = v
		}
	}

	// Naked-singles: fill any cell whose candidate set has size one,
	// iterating to a fixed point across the partition's own cells.
	changed := true
	for changed {
		changed = false
		for i, cell := range p.Cells {
			if values[i] != 0 {
				continue
			}
			candidates := possibleValues(ctx, n, cell.Row, cell.Col)
			if len(candidates) == 0 {
				return Result{}, ErrInfeasible
			}
			if len(candidates) == 1 {
				values[i] = candidates[0]
				sure[i] = true
				ctx[cell.Row][cell.Col] = candidates[0]
				changed = true
			}
		}
	}

	// Anything still unresolved is filled by backtracking, but stays
	// unsure: it is a guess made to return a complete partition, not a
	// constraint-forced deduction.
	var unresolved []int
	for i, v := range values {
		if v == 0 {
			unresolved = append(unresolved, i)
		}
	}

	if len(unresolved) > 0 {
		ok := s.backtrack(ctx, p.Cells, values, unresolved, 0, n)
		if !ok {
			return Result{}, ErrInfeasible
		}
	}

	return Result{Values: values, SureMask: sure}, nil
}

func (s NaiveSolver) backtrack(ctx [][]int, cells []Cell, values []int, unresolved []int, idx, n int) bool {
	if idx >= len(unresolved) {
		return true
	}

	i := unresolved[idx]
	cell := cells[i]
	candidates := possibleValues(ctx, n, cell.Row, cell.Col)
	if s.UseHeuristics {
		candidates = orderByLeastConstraining(ctx, n, cell, candidates)
	}

	for _, v := range candidates {
		if !board.IsValidPlacement(board.Board(ctx), cell.Row, cell.Col, v) {
			continue
		}
		ctx[cell.Row][cell.Col] = v
		values[i] = v

		if s.backtrack(ctx, cells, values, unresolved, idx+1, n) {
			return true
		}

		ctx[cell.Row][cell.Col] = 0
		values[i] = 0
	}

	return false
}

func possibleValues(ctx [][]int, n, row, col int) []int {
	if ctx[row][col] != 0 {
		return []int{ctx[row][col]}
	}
	used := make(map[int]bool, n)
	for j := 0; j < n; j++ {
		if v := ctx[row][j]; v != 0 {
			used[v] = true
		}
	}
	for i := 0; i < n; i++ {
		if v := ctx[i][col]; v != 0 {
			used[v] = true
		}
	}
	rBlk, cBlk, err := board.BlockDims(n)
	if err == nil {
		blockRow := (row / rBlk) * rBlk
		blockCol := (col / cBlk) * cBlk
		for i := blockRow; i < blockRow+rBlk; i++ {
			for j := blockCol; j < blockCol+cBlk; j++ {
				if v := ctx[i][j]; v != 0 {
					used[v] = true
				}
			}
		}
	}
	var possible []int
	for v := 1; v <= n; v++ {
		if !used[v] {
			possible = append(possible, v)
		}
	}
	return possible
}

// orderByLeastConstraining sorts candidates by how many peer cells they
// would eliminate a candidate from, ascending, matching the teacher's
// getOrderedValues/countConstraints heuristic.
func orderByLeastConstraining(ctx [][]int, n int, cell Cell, candidates []int) []int {
	type scored struct {
		value       int
		constraints int
	}
	scores := make([]scored, len(candidates))
	for idx, v := range candidates {
		scores[idx] = scored{v, countConstraints(ctx, n, cell.Row, cell.Col, v)}
	}
	for i := 0; i < len(scores)-1; i++ {
		for j := i + 1; j < len(scores); j++ {
			if scores[i].constraints > scores[j].constraints {
				scores[i], scores[j] = scores[j], scores[i]
			}
		}
	}
	ordered := make([]int, len(scores))
	for i, s := range scores {
		ordered[i] = s.value
	}
	return ordered
}

func countConstraints(ctx [][]int, n, row, col, value int) int {
	count := 0
	check := func(r, c int) {
		if ctx[r][c] == 0 {
			for _, pv := range possibleValues(ctx, n, r, c) {
				if pv == value {
					count++
					break
				}
			}
		}
	}
	for j := 0; j < n; j++ {
		if j != col {
			check(row, j)
		}
	}
	for i := 0; i < n; i++ {
		if i != row {
			check(i, col)
		}
	}
	rBlk, cBlk, err := board.BlockDims(n)
	if err == nil {
		blockRow := (row / rBlk) * rBlk
		blockCol := (col / cBlk) * cBlk
		for i := blockRow; i < blockRow+rBlk; i++ {
			for j := blockCol; j < blockCol+cBlk; j++ {
				if i != row || j != col {
					check(i, j)
				}
			}
		}
	}
	return count
}

func cloneContext(ctx [][]int) [][]int {
	out := make([][]int, len(ctx))
	for i, row := range ctx {
		out[i] = append([]int(nil), row...)
	}
	return out
}
