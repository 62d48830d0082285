package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/icco/spot"
	"go.uber.org/zap"
)

// DefaultTimeout bounds every generator call unless WithTimeout says
// otherwise.
const DefaultTimeout = 10 * time.Second

// Bridge turns generator replies into committed moves. It never guesses: a
// reply it cannot read or apply is returned as an error and the game is left
// as it was.
type Bridge struct {
	gen     Generator
	timeout time.Duration
	log     *zap.SugaredLogger
	metrics *engineMetrics
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithTimeout sets how long a single generator call may take.
func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithLogger sets the bridge logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.log = l
		}
	}
}

// NewBridge wraps gen.
func NewBridge(gen Generator, opts ...Option) *Bridge {
	b := &Bridge{
		gen:     gen,
		timeout: DefaultTimeout,
		log:     zap.NewNop().Sugar(),
		metrics: newEngineMetrics(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SerializeRequest is the text sent to the generator for board.
func (b *Bridge) SerializeRequest(board spot.Board) string {
	return board.Serialize()
}

// ParseResponse reads a generator move reply.
func (b *Bridge) ParseResponse(text string) (spot.Move, error) {
	m, err := spot.ParseMove(text)
	if err != nil {
		return spot.Move{}, fmt.Errorf("%w: %w", ErrMalformedEngineResponse, err)
	}
	return m, nil
}

// RequestMove asks the generator for a move on board.
func (b *Bridge) RequestMove(ctx context.Context, board spot.Board) (spot.Move, error) {
	req := b.SerializeRequest(board)
	reply, err := b.call(ctx, "move", func(ctx context.Context) (string, error) {
		return b.gen.GenerateMove(ctx, req)
	})
	if err != nil {
		return spot.Move{}, err
	}

	m, err := b.ParseResponse(reply)
	if err != nil {
		b.log.Errorw("unreadable engine move", "board", req, "reply", reply, zap.Error(err))
		return spot.Move{}, err
	}
	return m, nil
}

// ApplyEngineMove commits m for the player to move. A move that is out of
// range, starts from a cell the mover does not hold, or lands on an occupied
// cell is a protocol violation and state is returned unchanged.
func (b *Bridge) ApplyEngineMove(state spot.GameState, m spot.Move) (spot.GameState, error) {
	next, err := state.Commit(m)
	if err != nil {
		return state, fmt.Errorf("%w: %s: %w", ErrEngineIllegalMove, m, err)
	}
	return next, nil
}

// InvertPlayer asks the generator for the opponent of p, so the bridge and
// the generator agree on who is who.
func (b *Bridge) InvertPlayer(ctx context.Context, p spot.Owner) (spot.Owner, error) {
	req := string(p.Code())
	reply, err := b.call(ctx, "invert", func(ctx context.Context) (string, error) {
		return b.gen.InvertPlayer(ctx, req)
	})
	if err != nil {
		return spot.NoOne, err
	}

	inv, err := spot.ParseOwner(strings.TrimSpace(reply))
	if err != nil {
		return spot.NoOne, fmt.Errorf("%w: %w", ErrMalformedEngineResponse, err)
	}
	return inv, nil
}

// Play asks the generator to move for state.Turn and commits the reply. The
// generator's idea of the next player must match the committed turn.
func (b *Bridge) Play(ctx context.Context, state spot.GameState) (spot.GameState, spot.Move, error) {
	m, err := b.RequestMove(ctx, state.Board)
	if err != nil {
		return state, spot.Move{}, err
	}

	next, err := b.ApplyEngineMove(state, m)
	if err != nil {
		b.log.Errorw("engine move rejected", "board", state.Board.Serialize(), "move", m.String(), zap.Error(err))
		return state, m, err
	}

	inv, err := b.InvertPlayer(ctx, state.Turn)
	if err != nil {
		return state, m, err
	}
	if inv != next.Turn {
		return state, m, fmt.Errorf("%w: engine inverts %s to %s, want %s", ErrMalformedEngineResponse, state.Turn, inv, next.Turn)
	}

	b.log.Infow("engine moved", "move", m.String(), "board", next.Board.Serialize())
	return next, m, nil
}

type reply struct {
	text string
	err  error
}

// call runs fn under the bridge timeout. fn is abandoned at the deadline even
// if it ignores its context.
func (b *Bridge) call(ctx context.Context, op string, fn func(context.Context) (string, error)) (string, error) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	ch := make(chan reply, 1)
	go func() {
		text, err := fn(ctx)
		ch <- reply{text: text, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			b.metrics.record(ctx, op, "error", started)
			b.log.Errorw("engine call failed", "op", op, zap.Error(r.err))
			if errors.Is(r.err, ErrEngineUnavailable) {
				return "", r.err
			}
			return "", fmt.Errorf("%w: %w", ErrEngineUnavailable, r.err)
		}
		b.metrics.record(ctx, op, "ok", started)
		return r.text, nil
	case <-ctx.Done():
		b.metrics.record(context.WithoutCancel(ctx), op, "timeout", started)
		b.log.Errorw("engine call timed out", "op", op, "timeout", b.timeout)
		return "", fmt.Errorf("%w: %w", ErrEngineUnavailable, ctx.Err())
	}
}
