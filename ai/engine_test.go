package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/icco/spot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBoard(t *testing.T, text string) spot.Board {
	t.Helper()
	b, err := spot.ParseBoard(text)
	require.NoError(t, err)
	return b
}

func engineTurn(t *testing.T, size int) spot.GameState {
	t.Helper()
	g, err := spot.NewGame(size, spot.PlayerTwo)
	require.NoError(t, err)
	return g
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    DifficultyLevel
		wantErr bool
	}{
		{"beginner", Beginner, false},
		{"Intermediate", Intermediate, false},
		{"", Intermediate, false},
		{"advanced", Advanced, false},
		{"expert", Advanced, false},
		{"grandmaster", Intermediate, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBridgeSerializeRequest(t *testing.T) {
	b := NewBridge(NewScripted())
	board, err := spot.NewBoard(4)
	require.NoError(t, err)

	assert.Equal(t, "1002:0000:0000:2001", b.SerializeRequest(board))
}

func TestBridgeParseResponse(t *testing.T) {
	b := NewBridge(NewScripted())

	m, err := b.ParseResponse("3,3>2,2")
	require.NoError(t, err)
	assert.Equal(t, spot.Move{From: spot.Cell{Row: 3, Col: 3}, To: spot.Cell{Row: 2, Col: 2}}, m)

	for _, text := range []string{"", "pass", "1,1>2,2;3,3>2,2"} {
		_, err := b.ParseResponse(text)
		assert.ErrorIs(t, err, ErrMalformedEngineResponse, text)
	}
}

func TestBridgePlayAdjacent(t *testing.T) {
	gen := NewScripted("0,3>1,2")
	b := NewBridge(gen)
	state := engineTurn(t, 4)

	next, m, err := b.Play(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, "0,3>1,2", m.String())
	assert.Equal(t, "1002:0020:0000:2001", next.Board.Serialize())
	assert.Equal(t, spot.PlayerOne, next.Turn)
	assert.Equal(t, []string{"1002:0000:0000:2001"}, gen.Sent())
}

func TestBridgePlayLeap(t *testing.T) {
	b := NewBridge(NewScripted("0,3>2,3"))
	state := engineTurn(t, 4)

	next, _, err := b.Play(context.Background(), state)
	require.NoError(t, err)

	// The leap vacates 0,3 and converts PlayerOne's corner at 3,3.
	assert.Equal(t, "1000:0000:0002:2002", next.Board.Serialize())
	assert.Equal(t, spot.PlayerOne, next.Turn)
}

func TestBridgeOutOfRangeRejected(t *testing.T) {
	b := NewBridge(NewScripted("0,0>3,3"))
	state := spot.GameState{
		Board: mustBoard(t, "2000:0000:0000:0001"),
		Turn:  spot.PlayerTwo,
	}

	next, _, err := b.Play(context.Background(), state)
	assert.ErrorIs(t, err, ErrEngineIllegalMove)
	assert.True(t, next.Board.Equal(state.Board))
	assert.Equal(t, spot.PlayerTwo, next.Turn)
}

func TestApplyEngineMove(t *testing.T) {
	b := NewBridge(NewScripted())
	state := engineTurn(t, 4)

	tests := map[string]spot.Move{
		"occupied":     {From: spot.Cell{Row: 0, Col: 3}, To: spot.Cell{Row: 0, Col: 0}},
		"not own cell": {From: spot.Cell{Row: 0, Col: 0}, To: spot.Cell{Row: 0, Col: 1}},
		"off board":    {From: spot.Cell{Row: 0, Col: 3}, To: spot.Cell{Row: 0, Col: 4}},
		"out of range": {From: spot.Cell{Row: 0, Col: 3}, To: spot.Cell{Row: 3, Col: 2}},
	}
	for name, m := range tests {
		t.Run(name, func(t *testing.T) {
			next, err := b.ApplyEngineMove(state, m)
			assert.ErrorIs(t, err, ErrEngineIllegalMove)
			assert.Equal(t, state, next)
		})
	}

	next, err := b.ApplyEngineMove(state, spot.Move{From: spot.Cell{Row: 3, Col: 0}, To: spot.Cell{Row: 2, Col: 0}})
	require.NoError(t, err)
	assert.Equal(t, spot.PlayerOne, next.Turn)
	assert.Equal(t, spot.PlayerTwo, next.Board.At(spot.Cell{Row: 3, Col: 0}))
}

func TestBridgeMalformedReply(t *testing.T) {
	b := NewBridge(NewScripted("I resign"))
	state := engineTurn(t, 4)

	next, _, err := b.Play(context.Background(), state)
	assert.ErrorIs(t, err, ErrMalformedEngineResponse)
	assert.Equal(t, state, next)
}

func TestBridgeGeneratorError(t *testing.T) {
	gen := NewScripted()
	gen.Err = errors.New("boom")
	b := NewBridge(gen)

	_, err := b.RequestMove(context.Background(), engineTurn(t, 4).Board)
	assert.ErrorIs(t, err, ErrEngineUnavailable)
	assert.ErrorContains(t, err, "boom")
}

func TestBridgeTimeout(t *testing.T) {
	gen := NewScripted("0,3>1,3")
	gen.Block = make(chan struct{})
	defer close(gen.Block)

	b := NewBridge(gen, WithTimeout(20*time.Millisecond))
	state := engineTurn(t, 4)

	start := time.Now()
	next, _, err := b.Play(context.Background(), state)
	assert.ErrorIs(t, err, ErrEngineUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, state, next)
}

func TestBridgeInvertPlayer(t *testing.T) {
	b := NewBridge(NewScripted())
	ctx := context.Background()

	for _, p := range []spot.Owner{spot.NoOne, spot.PlayerOne, spot.PlayerTwo} {
		got, err := b.InvertPlayer(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, spot.InvertPlayer(p), got)
	}

	bad := NewScripted()
	bad.Inversions = []string{"7"}
	_, err := NewBridge(bad).InvertPlayer(ctx, spot.PlayerOne)
	assert.ErrorIs(t, err, ErrMalformedEngineResponse)
}

func TestBridgePlayTurnMismatch(t *testing.T) {
	gen := NewScripted("0,3>1,3")
	gen.Inversions = []string{"2"}
	b := NewBridge(gen)
	state := engineTurn(t, 4)

	next, _, err := b.Play(context.Background(), state)
	assert.ErrorIs(t, err, ErrMalformedEngineResponse)
	assert.Equal(t, state, next)
}
