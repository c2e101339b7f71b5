// Package surface turns a comma-separated integer grid into a banded 3-D
// surface description for a plotting front end.
package surface

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Grid is a rectangular integer matrix in row-major order.
type Grid [][]int

// Rows returns the number of rows.
func (g Grid) Rows() int { return len(g) }

// Cols returns the number of columns, or 0 for an empty grid.
func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Flipped returns a copy of the grid with the row order reversed.
func (g Grid) Flipped() Grid {
	out := make(Grid, len(g))
	for i, row := range g {
		cp := make([]int, len(row))
		copy(cp, row)
		out[len(g)-1-i] = cp
	}
	return out
}

// Dense returns the grid as a gonum matrix. The grid must not be empty.
func (g Grid) Dense() *mat.Dense {
	r, c := g.Rows(), g.Cols()
	data := make([]float64, 0, r*c)
	for _, row := range g {
		for _, v := range row {
			data = append(data, float64(v))
		}
	}
	return mat.NewDense(r, c, data)
}

// Parse reads newline separated rows of comma separated integers.
// Surrounding whitespace on the whole block and on each token is ignored, so
// CRLF input parses the same as LF input. Every row must be as long as the first.
func Parse(raw string) (Grid, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, &RenderError{Kind: ErrEmptyInput}
	}

	lines := strings.Split(text, "\n")
	grid := make(Grid, 0, len(lines))
	for i, line := range lines {
		tokens := strings.Split(line, ",")
		row := make([]int, 0, len(tokens))
		for j, tok := range tokens {
			v, err := strconv.Atoi(strings.TrimSpace(tok))
			if err != nil {
				var numErr *strconv.NumError
				if errors.As(err, &numErr) {
					err = numErr.Err
				}
				return nil, &RenderError{
					Kind:   ErrParse,
					Line:   i + 1,
					Column: j + 1,
					Err:    fmt.Errorf("invalid integer %q: %w", strings.TrimSpace(tok), err),
				}
			}
			row = append(row, v)
		}
		if len(grid) > 0 && len(row) != len(grid[0]) {
			return nil, &RenderError{
				Kind: ErrShape,
				Line: i + 1,
				Err:  fmt.Errorf("row has %d values, want %d", len(row), len(grid[0])),
			}
		}
		grid = append(grid, row)
	}
	return grid, nil
}

// DefaultInput builds the text box default: size rows of size copies of value.
func DefaultInput(size, value int) string {
	if size <= 0 {
		return ""
	}
	cell := strconv.Itoa(value)
	row := strings.TrimSuffix(strings.Repeat(cell+",", size), ",")
	return strings.TrimSuffix(strings.Repeat(row+"\n", size), "\n")
}
