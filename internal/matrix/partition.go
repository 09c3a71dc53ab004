package matrix

import (
	"iter"

	"yqhp/matrix-engine/pkg/types"
)

// Partition returns the work units of left x right in row-major order, one
// per output cell. The sequence is lazy and can be ranged over any number of
// times. It stops early instead of panicking when the operands do not match
// dims; use Units to detect that case.
func Partition(left, right types.Matrix, dims types.Dimensions) iter.Seq[types.WorkUnit] {
	return func(yield func(types.WorkUnit) bool) {
		for i := 0; i < dims.LeftRows; i++ {
			for j := 0; j < dims.RightCols; j++ {
				unit, err := unitAt(left, right, dims, i, j)
				if err != nil {
					return
				}
				if !yield(unit) {
					return
				}
			}
		}
	}
}

// Units materialises Partition and fails with an IndexError when the
// operands are inconsistent with dims.
func Units(left, right types.Matrix, dims types.Dimensions) ([]types.WorkUnit, error) {
	units := make([]types.WorkUnit, 0, dims.Units())
	for unit := range Partition(left, right, dims) {
		units = append(units, unit)
	}

	if len(units) < dims.Units() {
		next := len(units)
		_, err := unitAt(left, right, dims, next/dims.RightCols, next%dims.RightCols)
		return nil, err
	}
	return units, nil
}

func unitAt(left, right types.Matrix, dims types.Dimensions, i, j int) (types.WorkUnit, error) {
	if i >= len(left) || len(left[i]) != dims.LeftCols {
		return types.WorkUnit{}, &types.IndexError{Row: i, Col: j, Reason: "left row out of range"}
	}

	row := make([]int32, dims.LeftCols)
	copy(row, left[i])

	col := make([]int32, dims.RightRows)
	for k := 0; k < dims.RightRows; k++ {
		if k >= len(right) || j >= len(right[k]) {
			return types.WorkUnit{}, &types.IndexError{Row: i, Col: j, Reason: "right column out of range"}
		}
		col[k] = right[k][j]
	}

	return types.WorkUnit{Row: i, Col: j, RowVector: row, ColVector: col}, nil
}
