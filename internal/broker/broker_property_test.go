package broker

import (
	"context"
	"testing"

	"pgregory.net/rapid"

	"yqhp/matrix-engine/pkg/types"
)

func naiveProduct(left, right types.Matrix) types.Matrix {
	out := types.NewMatrix(left.Rows(), right.Cols())
	for i := range left {
		for j := 0; j < right.Cols(); j++ {
			var sum int32
			for k := range right {
				sum += left[i][k] * right[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

func matrixGen(rows, cols int) *rapid.Generator[types.Matrix] {
	return rapid.Custom(func(t *rapid.T) types.Matrix {
		m := types.NewMatrix(rows, cols)
		for i := range m {
			for j := range m[i] {
				m[i][j] = rapid.Int32Range(-100, 100).Draw(t, "v")
			}
		}
		return m
	})
}

// The distributed product equals a locally computed reference.
func TestMultiplyMatchesReferenceProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 5).Draw(t, "n")
		k := rapid.IntRange(1, 5).Draw(t, "k")
		m := rapid.IntRange(1, 5).Draw(t, "m")
		workers := rapid.IntRange(1, 4).Draw(t, "workers")

		left := matrixGen(n, k).Draw(t, "left")
		right := matrixGen(k, m).Draw(t, "right")

		addrs := make([]string, workers)
		for i := range addrs {
			addrs[i] = "http://w" + string(rune('a'+i))
		}
		b, err := New(DefaultConfig(), endpoints(addrs...), newFakeCaller())
		if err != nil {
			t.Fatal(err)
		}

		got, err := b.Multiply(context.Background(), left, right)
		if err != nil {
			t.Fatalf("multiply: %v", err)
		}

		want := naiveProduct(left, right)
		for i := range want {
			for j := range want[i] {
				if got[i][j] != want[i][j] {
					t.Fatalf("cell (%d, %d): got %d, want %d", i, j, got[i][j], want[i][j])
				}
			}
		}
	})
}
