package solver

import (
	"math"
	"math/rand"
	"time"

	"github.com/Prabhath77/soduku-containereized-np-solver/internal/board"
)

// AnnealingSolver is an alternate BlockSolver that resolves forced cells
// by naked-singles propagation exactly as NaiveSolver does, then assigns
// remaining ambiguous cells by simulated annealing over candidate swaps,
// minimizing row/column/block conflicts instead of backtracking.
// Grounded on parallelsimulatedannealing.go's cooling-schedule shape
// (InitialTemperature/CoolingRate/MaxIterations), repurposed from
// continuous optimization to a discrete conflict-count objective. It
// exists to demonstrate that the coordination core is indifferent to
// which BlockSolver a worker wires in.
type AnnealingSolver struct {
	InitialTemperature float64
	CoolingRate        float64
	MaxIterations      int
	RandomSeed         int64
}

// DefaultAnnealingSolver returns an AnnealingSolver with the teacher's
// typical exponential-cooling defaults scaled down for per-partition use.
func DefaultAnnealingSolver() AnnealingSolver {
	return AnnealingSolver{
		InitialTemperature: 4.0,
		CoolingRate:        0.95,
		MaxIterations:      2000,
		RandomSeed:         time.Now().UnixNano(),
	}
}

func (s AnnealingSolver) Solve(p Partition) (Result, error) {
	ctx := cloneContext(p.Context)
	n := p.N

	values := make([]int, len(p.Values))
	sure := make([]bool, len(p.Values))
	var ambiguous []int

	for i, v := range p.Values {
		if v != 0 {
			values[i] = v
			sure[i] = true
			ctx[p.Cells[i].Row][p.Cells[i].Col] = v
			continue
		}
		candidates := possibleValues(ctx, n, p.Cells[i].Row, p.Cells[i].Col)
		if len(candidates) == 0 {
			return Result{}, ErrInfeasible
		}
		if len(candidates) == 1 {
			values[i] = candidates[0]
			sure[i] = true
			ctx[p.Cells[i].Row][p.Cells[i].Col] = candidates[0]
			continue
		}
		ambiguous = append(ambiguous, i)
	}

	if len(ambiguous) == 0 {
		return Result{Values: values, SureMask: sure}, nil
	}

	r := rand.New(rand.NewSource(s.RandomSeed))
	for _, i := range ambiguous {
		cands := possibleValues(ctx, n, p.Cells[i].Row, p.Cells[i].Col)
		values[i] = cands[r.Intn(len(cands))]
		ctx[p.Cells[i].Row][p.Cells[i].Col] = values[i]
	}

	temperature := s.InitialTemperature
	current := conflictCount(ctx, n, p.Cells, ambiguous)

	maxIterations := s.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 2000
	}

	for iter := 0; iter < maxIterations && current > 0; iter++ {
		i := ambiguous[r.Intn(len(ambiguous))]
		cell := p.Cells[i]
		candidates := possibleValues(ctx, n, cell.Row, cell.Col)
		if len(candidates) == 0 {
			continue
		}
		newValue := candidates[r.Intn(len(candidates))]
		if newValue == values[i] {
			continue
		}

		old := values[i]
		ctx[cell.Row][cell.Col] = newValue
		candidate := conflictCount(ctx, n, p.Cells, ambiguous)

		delta := candidate - current
		if delta <= 0 || r.Float64() < math.Exp(-float64(delta)/temperature) {
			values[i] = newValue
			current = candidate
		} else {
			ctx[cell.Row][cell.Col] = old
		}

		temperature *= s.CoolingRate
		if temperature < 0.01 {
			temperature = 0.01
		}
	}

	if current > 0 {
		return Result{}, ErrInfeasible
	}

	return Result{Values: values, SureMask: sure}, nil
}

// conflictCount counts, among the ambiguous cells, how many duplicate a
// peer value in their row, column, or block.
func conflictCount(ctx [][]int, n int, cells []Cell, ambiguous []int) int {
	conflicts := 0
	for _, i := range ambiguous {
		cell := cells[i]
		v := ctx[cell.Row][cell.Col]
		for j := 0; j < n; j++ {
			if j != cell.Col && ctx[cell.Row][j] == v {
				conflicts++
			}
			if j != cell.Row && ctx[j][cell.Col] == v {
				conflicts++
			}
		}
		if rBlk, cBlk, err := board.BlockDims(n); err == nil {
			blockRow := (cell.Row / rBlk) * rBlk
			blockCol := (cell.Col / cBlk) * cBlk
			for bi := blockRow; bi < blockRow+rBlk; bi++ {
				for bj := blockCol; bj < blockCol+cBlk; bj++ {
					if bi != cell.Row && bj != cell.Col && ctx[bi][bj] == v {
						conflicts++
					}
				}
			}
		}
	}
	return conflicts
}
