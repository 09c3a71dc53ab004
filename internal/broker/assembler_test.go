package broker

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/matrix-engine/pkg/types"
)

var dims2x2 = types.Dimensions{LeftRows: 2, LeftCols: 2, RightRows: 2, RightCols: 2}

func feed(outcomes ...types.UnitOutcome) <-chan types.UnitOutcome {
	ch := make(chan types.UnitOutcome, len(outcomes))
	for _, o := range outcomes {
		ch <- o
	}
	close(ch)
	return ch
}

func successes() []types.UnitOutcome {
	return []types.UnitOutcome{
		{Row: 0, Col: 0, Value: 19},
		{Row: 0, Col: 1, Value: 22},
		{Row: 1, Col: 0, Value: 43},
		{Row: 1, Col: 1, Value: 50},
	}
}

func TestAssembleOrderIndependent(t *testing.T) {
	a := NewResultAssembler()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 20; i++ {
		outs := successes()
		rng.Shuffle(len(outs), func(i, j int) { outs[i], outs[j] = outs[j], outs[i] })

		got, err := a.Assemble(dims2x2, feed(outs...))
		require.NoError(t, err)
		assert.Equal(t, types.Matrix{{19, 22}, {43, 50}}, got)
	}
}

func TestAssembleReportsSmallestFailingCell(t *testing.T) {
	a := NewResultAssembler()
	late := &types.UnitError{Row: 1, Col: 1, Endpoint: "http://w2", Err: &types.TransportError{Endpoint: "http://w2", Err: errRefused}}
	early := &types.UnitError{Row: 0, Col: 1, Endpoint: "http://w2", Err: &types.TransportError{Endpoint: "http://w2", Err: errRefused}}

	outs := []types.UnitOutcome{
		{Row: 1, Col: 1, Endpoint: "http://w2", Err: late},
		{Row: 0, Col: 0, Value: 19},
		{Row: 1, Col: 0, Value: 43},
		{Row: 0, Col: 1, Endpoint: "http://w2", Err: early},
	}
	for _, order := range [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {2, 3, 0, 1}} {
		shuffled := make([]types.UnitOutcome, len(order))
		for i, idx := range order {
			shuffled[i] = outs[idx]
		}

		got, err := a.Assemble(dims2x2, feed(shuffled...))
		assert.Nil(t, got)

		var asm *types.AssemblyError
		require.ErrorAs(t, err, &asm)
		assert.Equal(t, 4, asm.Units)
		assert.Equal(t, 2, asm.Failed)
		assert.Same(t, early, asm.First)
	}
}

func TestAssembleWrapsBareFailure(t *testing.T) {
	outs := successes()
	outs[2] = types.UnitOutcome{Row: 1, Col: 0, Endpoint: "http://w1", Err: errRefused}

	_, err := NewResultAssembler().Assemble(dims2x2, feed(outs...))

	var unitErr *types.UnitError
	require.ErrorAs(t, err, &unitErr)
	assert.Equal(t, 1, unitErr.Row)
	assert.Equal(t, "http://w1", unitErr.Endpoint)
	assert.True(t, errors.Is(err, errRefused))
}

func TestAssembleMissingCell(t *testing.T) {
	outs := successes()[:3]

	got, err := NewResultAssembler().Assemble(dims2x2, feed(outs...))
	assert.Nil(t, got)

	var idx *types.IndexError
	require.ErrorAs(t, err, &idx)
	assert.Equal(t, 1, idx.Row)
	assert.Equal(t, 1, idx.Col)
	assert.Equal(t, types.ErrCodeDispatch, types.CodeOf(err))
}

func TestAssembleDuplicateCell(t *testing.T) {
	outs := append(successes(), types.UnitOutcome{Row: 0, Col: 1, Value: 22})

	_, err := NewResultAssembler().Assemble(dims2x2, feed(outs...))

	var idx *types.IndexError
	require.ErrorAs(t, err, &idx)
	assert.Equal(t, "duplicate outcome", idx.Reason)
}

func TestAssembleOutOfRangeCell(t *testing.T) {
	outs := append(successes(), types.UnitOutcome{Row: 2, Col: 0, Value: 1})

	_, err := NewResultAssembler().Assemble(dims2x2, feed(outs...))

	var idx *types.IndexError
	require.ErrorAs(t, err, &idx)
	assert.Equal(t, 2, idx.Row)
}
