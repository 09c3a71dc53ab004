package matrix

import (
	"yqhp/matrix-engine/pkg/types"
)

// Validate checks that left and right can be multiplied and returns their
// dimensions. Every row of both operands is checked for rectangularity.
func Validate(left, right types.Matrix) (types.Dimensions, error) {
	if left.Rows() == 0 {
		return types.Dimensions{}, &types.ShapeError{Operand: types.OperandLeft}
	}
	if right.Rows() == 0 {
		return types.Dimensions{}, &types.ShapeError{Operand: types.OperandRight}
	}

	if err := checkRectangular(types.OperandLeft, left); err != nil {
		return types.Dimensions{}, err
	}
	if err := checkRectangular(types.OperandRight, right); err != nil {
		return types.Dimensions{}, err
	}

	dims := types.Dimensions{
		LeftRows:  left.Rows(),
		LeftCols:  left.Cols(),
		RightRows: right.Rows(),
		RightCols: right.Cols(),
	}
	if dims.LeftCols != dims.RightRows {
		return types.Dimensions{}, &types.DimensionMismatchError{Dims: dims}
	}

	return dims, nil
}

func checkRectangular(operand types.Operand, m types.Matrix) error {
	want := m.Cols()
	for i, row := range m {
		if len(row) != want {
			return &types.RaggedMatrixError{
				Operand:  operand,
				Row:      i,
				Expected: want,
				Got:      len(row),
			}
		}
	}
	return nil
}
