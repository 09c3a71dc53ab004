package broker

import (
	"yqhp/matrix-engine/pkg/types"
)

// ResultAssembler collects unit outcomes into the product matrix.
type ResultAssembler struct{}

// NewResultAssembler creates a result assembler.
func NewResultAssembler() *ResultAssembler {
	return &ResultAssembler{}
}

// Assemble drains outcomes until the channel is closed. It returns the
// product only if every cell of dims arrived exactly once and succeeded;
// otherwise it returns a *types.AssemblyError whose First is the failure
// with the smallest (row, col).
func (a *ResultAssembler) Assemble(dims types.Dimensions, outcomes <-chan types.UnitOutcome) (types.Matrix, error) {
	rows, cols := dims.LeftRows, dims.RightCols
	result := types.NewMatrix(rows, cols)
	seen := make([]bool, rows*cols)

	var (
		failed int
		first  *failure
	)
	fail := func(row, col int, err error) {
		failed++
		if first == nil || less(row, col, first.row, first.col) {
			first = &failure{row: row, col: col, err: err}
		}
	}

	for out := range outcomes {
		if out.Row < 0 || out.Row >= rows || out.Col < 0 || out.Col >= cols {
			fail(out.Row, out.Col, &types.IndexError{Row: out.Row, Col: out.Col, Reason: "outside the product"})
			continue
		}

		idx := out.Row*cols + out.Col
		if seen[idx] {
			fail(out.Row, out.Col, &types.IndexError{Row: out.Row, Col: out.Col, Reason: "duplicate outcome"})
			continue
		}
		seen[idx] = true

		if out.Failed() {
			err := out.Err
			if _, ok := err.(*types.UnitError); !ok {
				err = &types.UnitError{Row: out.Row, Col: out.Col, Endpoint: out.Endpoint, Err: err}
			}
			fail(out.Row, out.Col, err)
			continue
		}
		result[out.Row][out.Col] = out.Value
	}

	for idx, ok := range seen {
		if !ok {
			row, col := idx/cols, idx%cols
			fail(row, col, &types.IndexError{Row: row, Col: col, Reason: "missing outcome"})
		}
	}

	if failed > 0 {
		return nil, &types.AssemblyError{Units: dims.Units(), Failed: failed, First: first.err}
	}
	return result, nil
}

type failure struct {
	row, col int
	err      error
}

func less(r1, c1, r2, c2 int) bool {
	return r1 < r2 || (r1 == r2 && c1 < c2)
}
