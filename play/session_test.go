package play

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/icco/spot"
	"github.com/icco/spot/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cell(r, c int) spot.Cell {
	return spot.Cell{Row: r, Col: c}
}

func newGame(t *testing.T, first spot.Owner) spot.GameState {
	t.Helper()
	g, err := spot.NewGame(5, first)
	require.NoError(t, err)
	return g
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": SinglePlayer, "SP": SinglePlayer, "single": SinglePlayer, "mp": HotSeat, "hotseat": HotSeat} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMode("online")
	assert.Error(t, err)
}

func TestSinglePlayerClickAndReply(t *testing.T) {
	gen := ai.NewScripted("0,4>1,3")
	s := New(newGame(t, spot.PlayerOne), SinglePlayer, ai.NewBridge(gen))
	ctx := context.Background()

	out, err := s.Click(ctx, cell(0, 0))
	require.NoError(t, err)
	assert.Nil(t, out.Human)
	assert.True(t, out.State.Selection.IsSelected())

	out, err = s.Click(ctx, cell(1, 1))
	require.NoError(t, err)
	require.NotNil(t, out.Human)
	require.NotNil(t, out.Engine)
	assert.Equal(t, "0,0>1,1", out.Human.String())
	assert.Equal(t, "0,4>1,3", out.Engine.String())
	assert.Equal(t, "10002:01020:00000:00000:20001", out.State.Board.Serialize())
	assert.Equal(t, spot.PlayerOne, out.State.Turn)
	assert.Equal(t, out.State, s.State())
	assert.Equal(t, []string{"10002:01000:00000:00000:20001"}, gen.Sent())
}

func TestSinglePlayerRejectsEngineSideInput(t *testing.T) {
	s := New(newGame(t, spot.PlayerTwo), SinglePlayer, ai.NewBridge(ai.NewScripted()))

	out, err := s.Click(context.Background(), cell(0, 4))
	assert.ErrorIs(t, err, ErrNotYourTurn)
	assert.False(t, out.State.Selection.IsSelected())

	_, err = s.Move(context.Background(), spot.Move{From: cell(0, 4), To: cell(1, 4)})
	assert.ErrorIs(t, err, ErrNotYourTurn)
}

func TestSinglePlayerHumanSide(t *testing.T) {
	gen := ai.NewScripted("0,0>1,0")
	s := New(newGame(t, spot.PlayerOne), SinglePlayer, ai.NewBridge(gen), WithHuman(spot.PlayerTwo))
	assert.Equal(t, spot.PlayerTwo, s.Human())

	out, err := s.EngineMove(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0,0>1,0", out.Engine.String())
	assert.Equal(t, spot.PlayerTwo, out.State.Turn)
}

func TestEngineFailureKeepsHumanMove(t *testing.T) {
	gen := ai.NewScripted()
	s := New(newGame(t, spot.PlayerOne), SinglePlayer, ai.NewBridge(gen))
	ctx := context.Background()

	_, err := s.Click(ctx, cell(4, 4))
	require.NoError(t, err)
	out, err := s.Click(ctx, cell(3, 3))
	assert.ErrorIs(t, err, ai.ErrEngineUnavailable)
	assert.ErrorIs(t, err, ai.ErrScriptExhausted)
	require.NotNil(t, out.Human)
	assert.Nil(t, out.Engine)
	assert.Equal(t, spot.PlayerTwo, s.State().Turn)
	assert.Equal(t, spot.PlayerOne, s.State().Board.At(cell(3, 3)))

	// The person cannot move for the engine.
	_, err = s.Click(ctx, cell(4, 0))
	assert.ErrorIs(t, err, ErrNotYourTurn)

	gen.Moves = []string{"4,0>3,0"}
	out, err = s.EngineMove(ctx)
	require.NoError(t, err)
	assert.Nil(t, out.Human)
	require.NotNil(t, out.Engine)
	assert.Equal(t, spot.PlayerOne, s.State().Turn)

	_, err = s.EngineMove(ctx)
	assert.ErrorIs(t, err, ErrNotYourTurn)
}

func TestEngineIllegalReply(t *testing.T) {
	s := New(newGame(t, spot.PlayerOne), SinglePlayer, ai.NewBridge(ai.NewScripted("0,0>0,1")))

	out, err := s.Move(context.Background(), spot.Move{From: cell(0, 0), To: cell(0, 1)})
	assert.ErrorIs(t, err, ai.ErrEngineIllegalMove)
	assert.NotNil(t, out.Human)
	assert.Equal(t, spot.PlayerTwo, s.State().Turn)
}

func TestMoveRejected(t *testing.T) {
	start := newGame(t, spot.PlayerOne)
	s := New(start, SinglePlayer, ai.NewBridge(ai.NewScripted()))

	out, err := s.Move(context.Background(), spot.Move{From: cell(0, 0), To: cell(3, 3)})
	assert.ErrorIs(t, err, spot.ErrIllegalTarget)
	assert.Nil(t, out.Human)
	assert.Equal(t, start, s.State())
}

func TestHotSeat(t *testing.T) {
	s := New(newGame(t, spot.PlayerOne), HotSeat, nil)
	ctx := context.Background()

	clicks := []spot.Cell{cell(0, 0), cell(1, 1), cell(0, 4), cell(2, 4)}
	var out Outcome
	var err error
	for _, c := range clicks {
		out, err = s.Click(ctx, c)
		require.NoError(t, err, c)
		assert.Nil(t, out.Engine)
	}
	require.NotNil(t, out.Human)
	assert.Equal(t, "0,4>2,4", out.Human.String())
	assert.Equal(t, spot.PlayerOne, s.State().Turn)

	_, err = s.EngineMove(ctx)
	assert.ErrorIs(t, err, ErrNotYourTurn)
}

func TestClickIgnored(t *testing.T) {
	start := newGame(t, spot.PlayerOne)
	s := New(start, HotSeat, nil)

	_, err := s.Click(context.Background(), cell(0, 4))
	assert.ErrorIs(t, err, spot.ErrIllegalSelection)
	_, err = s.Click(context.Background(), cell(2, 2))
	assert.ErrorIs(t, err, spot.ErrIllegalTarget)
	assert.Equal(t, start, s.State())
}

func TestBusy(t *testing.T) {
	gen := ai.NewScripted("0,4>1,4")
	gen.Block = make(chan struct{})
	s := New(newGame(t, spot.PlayerOne), SinglePlayer, ai.NewBridge(gen))
	ctx := context.Background()

	_, err := s.Click(ctx, cell(0, 0))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.Click(ctx, cell(0, 1))
		done <- err
	}()

	require.Eventually(t, func() bool {
		if s.busy.TryLock() {
			s.busy.Unlock()
			return false
		}
		return true
	}, 5*time.Second, time.Millisecond)

	_, err = s.Click(ctx, cell(4, 4))
	assert.ErrorIs(t, err, ErrBusy)
	_, err = s.EngineMove(ctx)
	assert.ErrorIs(t, err, ErrBusy)

	close(gen.Block)
	require.NoError(t, <-done)
	assert.Equal(t, spot.PlayerOne, s.State().Turn)
}

func TestEngineDelayHonorsContext(t *testing.T) {
	gen := ai.NewScripted("0,4>1,4")
	s := New(newGame(t, spot.PlayerOne), SinglePlayer, ai.NewBridge(gen), WithEngineDelay(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	out, err := s.Move(ctx, spot.Move{From: cell(0, 0), To: cell(0, 1)})
	assert.ErrorIs(t, err, ai.ErrEngineUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotNil(t, out.Human)
	assert.Empty(t, gen.Sent())
}

func TestRecorder(t *testing.T) {
	type call struct {
		before spot.GameState
		out    Outcome
	}
	var calls []call
	rec := func(ctx context.Context, before spot.GameState, out Outcome) error {
		require.NoError(t, ctx.Err())
		calls = append(calls, call{before, out})
		return nil
	}

	gen := ai.NewScripted("0,4>1,4")
	start := newGame(t, spot.PlayerOne)
	s := New(start, SinglePlayer, ai.NewBridge(gen), WithRecorder(rec))
	ctx := context.Background()

	_, err := s.Click(ctx, cell(0, 0))
	require.NoError(t, err)
	_, err = s.Click(ctx, cell(3, 3))
	assert.ErrorIs(t, err, spot.ErrIllegalTarget)
	_, err = s.Click(ctx, cell(1, 0))
	require.NoError(t, err)

	require.Len(t, calls, 2)
	assert.Equal(t, start, calls[0].before)
	assert.Nil(t, calls[0].out.Human)
	assert.Equal(t, "0,0>1,0", calls[1].out.Human.String())
	assert.Equal(t, "0,4>1,4", calls[1].out.Engine.String())
	assert.Equal(t, spot.PlayerOne, calls[1].before.Turn)
	assert.True(t, calls[1].before.Selection.IsSelected())
}

func TestRecorderFailure(t *testing.T) {
	boom := errors.New("disk full")
	s := New(newGame(t, spot.PlayerOne), HotSeat, nil, WithRecorder(func(context.Context, spot.GameState, Outcome) error {
		return boom
	}))

	out, err := s.Click(context.Background(), cell(0, 0))
	assert.ErrorIs(t, err, boom)
	assert.True(t, out.State.Selection.IsSelected())
}

func TestBridgeSourcePerEngineMove(t *testing.T) {
	dead := ai.NewScripted()
	dead.Err = errors.New("engine process closed")
	fresh := ai.NewScripted("4,0>3,0")

	bridges := []*ai.Bridge{ai.NewBridge(dead), ai.NewBridge(fresh)}
	calls := 0
	src := func() (*ai.Bridge, error) {
		b := bridges[calls]
		calls++
		return b, nil
	}

	s := New(newGame(t, spot.PlayerOne), SinglePlayer, nil, WithBridgeSource(src))
	ctx := context.Background()

	out, err := s.Move(ctx, spot.Move{From: cell(0, 0), To: cell(1, 1)})
	assert.ErrorIs(t, err, ai.ErrEngineUnavailable)
	require.NotNil(t, out.Human)
	assert.Equal(t, spot.PlayerTwo, s.State().Turn)

	// The retry asks the source again and gets the replacement.
	out, err = s.EngineMove(ctx)
	require.NoError(t, err)
	require.NotNil(t, out.Engine)
	assert.Equal(t, "4,0>3,0", out.Engine.String())
	assert.Equal(t, spot.PlayerOne, s.State().Turn)
	assert.Equal(t, 2, calls)
}

func TestBridgeSourceError(t *testing.T) {
	boom := errors.New("no engine binary")
	s := New(newGame(t, spot.PlayerOne), SinglePlayer, nil, WithBridgeSource(func() (*ai.Bridge, error) {
		return nil, boom
	}))

	out, err := s.Move(context.Background(), spot.Move{From: cell(0, 0), To: cell(1, 1)})
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, out.Human)
	assert.Nil(t, out.Engine)
	assert.Equal(t, spot.PlayerTwo, s.State().Turn)
}
