package matrix

import (
	"math"

	"yqhp/matrix-engine/pkg/types"
)

// DotProduct returns sum(row[k] * col[k]). Every multiplication and addition
// saturates at the int32 bounds instead of wrapping.
func DotProduct(row, col []int32) (int32, error) {
	if len(row) != len(col) {
		return 0, &types.LengthMismatchError{RowLen: len(row), ColLen: len(col)}
	}

	var total int32
	for k := range row {
		total = saturatingAdd(total, saturatingMul(row[k], col[k]))
	}
	return total, nil
}

func saturatingMul(a, b int32) int32 {
	return clamp(int64(a) * int64(b))
}

func saturatingAdd(a, b int32) int32 {
	return clamp(int64(a) + int64(b))
}

func clamp(v int64) int32 {
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	}
	return int32(v)
}
