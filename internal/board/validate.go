package board

// IsValidPlacement reports whether placing v at (row, col) would not
// duplicate v elsewhere in its row, column, or enclosing block. v must be
// in [1, N]; the cell's current value is ignored during the check.
func IsValidPlacement(b Board, row, col, v int) bool {
	n := b.N()
	for j := 0; j < n; j++ {
		if j != col && b[row][j] == v {
			return false
		}
	}
	for i := 0; i < n; i++ {
		if i != row && b[i][col] == v {
			return false
		}
	}
	rBlk, cBlk, err := BlockDims(n)
	if err != nil {
		return false
	}
	blockRow := (row / rBlk) * rBlk
	blockCol := (col / cBlk) * cBlk
	for i := blockRow; i < blockRow+rBlk; i++ {
		for j := blockCol; j < blockCol+cBlk; j++ {
			if (i != row || j != col) && b[i][j] == v {
				return false
			}
		}
	}
	return true
}

// IsWellFormed reports whether no row, column, or block contains a
// repeated non-zero value.
func IsWellFormed(b Board) bool {
	n := b.N()
	if n == 0 {
		return true
	}
	rBlk, cBlk, err := BlockDims(n)
	if err != nil {
		return false
	}

	for i := 0; i < n; i++ {
		seen := make(map[int]bool, n)
		for j := 0; j < n; j++ {
			if v := b[i][j]; v != 0 {
				if seen[v] {
					return false
				}
				seen[v] = true
			}
		}
	}

	for j := 0; j < n; j++ {
		seen := make(map[int]bool, n)
		for i := 0; i < n; i++ {
			if v := b[i][j]; v != 0 {
				if seen[v] {
					return false
				}
				seen[v] = true
			}
		}
	}

	for br := 0; br < n/rBlk; br++ {
		for bc := 0; bc < n/cBlk; bc++ {
			seen := make(map[int]bool, n)
			for i := br * rBlk; i < (br+1)*rBlk; i++ {
				for j := bc * cBlk; j < (bc+1)*cBlk; j++ {
					if v := b[i][j]; v != 0 {
						if seen[v] {
							return false
						}
						seen[v] = true
					}
				}
			}
		}
	}

	return true
}

// IsComplete reports whether the board has no empty cells.
func IsComplete(b Board) bool {
	for _, row := range b {
		for _, v := range row {
			if v == 0 {
				return false
			}
		}
	}
	return true
}

// IsSolved reports whether the board is complete and well-formed.
func IsSolved(b Board) bool {
	return IsComplete(b) && IsWellFormed(b)
}
