// Package play drives a Spot game for one client, either two people sharing
// the board or one person against a move generator.
package play

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/icco/spot"
	"github.com/icco/spot/ai"
	"go.uber.org/zap"
)

var (
	// ErrBusy is returned while an earlier input is still being handled.
	ErrBusy = errors.New("session is busy")
	// ErrNotYourTurn is returned for input from a side that is not to move.
	ErrNotYourTurn = errors.New("not your turn")
)

// Mode is how the two sides are played.
type Mode int

const (
	// SinglePlayer is one person against the engine.
	SinglePlayer Mode = iota
	// HotSeat is two people taking turns on the same client.
	HotSeat
)

func (m Mode) String() string {
	switch m {
	case SinglePlayer:
		return "single"
	case HotSeat:
		return "hotseat"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode reads a mode name. The empty string is SinglePlayer.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single", "sp":
		return SinglePlayer, nil
	case "hotseat", "mp":
		return HotSeat, nil
	}
	return SinglePlayer, fmt.Errorf("unknown mode %q", s)
}

// Outcome is the result of one input. Human and Engine are set when the
// respective side committed a move.
type Outcome struct {
	State  spot.GameState `json:"game"`
	Human  *spot.Move     `json:"human,omitempty"`
	Engine *spot.Move     `json:"engine,omitempty"`
}

// Session holds one game. Input is handled one at a time; concurrent input
// gets ErrBusy instead of waiting.
type Session struct {
	busy sync.Mutex

	mu    sync.RWMutex
	state spot.GameState

	mode   Mode
	human  spot.Owner
	bridge BridgeSource
	delay  time.Duration
	record Recorder
	log    *zap.SugaredLogger
}

// Recorder is told about every input that changed the game: a committed move,
// or a selection that moved or cleared. It runs before the next input is
// accepted. before is the state the input was applied to.
type Recorder func(ctx context.Context, before spot.GameState, out Outcome) error

// BridgeSource returns the bridge for the engine's next move. It is called
// once per engine move, so a source may hand out a new bridge after the old
// one has failed.
type BridgeSource func() (*ai.Bridge, error)

// Option configures a Session.
type Option func(*Session)

// WithHuman sets the side the person plays in SinglePlayer games.
func WithHuman(p spot.Owner) Option {
	return func(s *Session) {
		if p.IsPlayer() {
			s.human = p
		}
	}
}

// WithEngineDelay waits d before the engine is asked to answer.
func WithEngineDelay(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.delay = d
		}
	}
}

// WithBridgeSource asks src for the engine bridge on every engine move. It
// replaces the bridge given to New.
func WithBridgeSource(src BridgeSource) Option {
	return func(s *Session) {
		if src != nil {
			s.bridge = src
		}
	}
}

// WithRecorder calls r after every change.
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		s.record = r
	}
}

// WithLogger sets the session logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// New starts a session at state. bridge may be nil for HotSeat games or when
// WithBridgeSource is given.
func New(state spot.GameState, mode Mode, bridge *ai.Bridge, opts ...Option) *Session {
	s := &Session{
		state: state,
		mode:  mode,
		human: spot.PlayerOne,
		log:   zap.NewNop().Sugar(),
	}
	if bridge != nil {
		s.bridge = func() (*ai.Bridge, error) { return bridge, nil }
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current game.
func (s *Session) State() spot.GameState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Mode returns how the session is played.
func (s *Session) Mode() Mode {
	return s.mode
}

// Human returns the person's side in SinglePlayer games.
func (s *Session) Human() spot.Owner {
	return s.human
}

func (s *Session) set(g spot.GameState) {
	s.mu.Lock()
	s.state = g
	s.mu.Unlock()
}

// Click feeds a board click. A click that commits a move in a SinglePlayer
// game is followed by the engine's reply. If the reply fails the human move
// stays committed and the error is returned with the Outcome.
func (s *Session) Click(ctx context.Context, c spot.Cell) (Outcome, error) {
	if !s.busy.TryLock() {
		return Outcome{State: s.State()}, ErrBusy
	}
	defer s.busy.Unlock()

	cur := s.State()
	if err := s.humanToMove(cur); err != nil {
		return Outcome{State: cur}, err
	}

	next, err := cur.Click(c)
	if err != nil {
		return Outcome{State: cur}, err
	}
	s.set(next)

	out := Outcome{State: next}
	if next.Turn != cur.Turn {
		from, _ := cur.Selection.Cell()
		m := spot.Move{From: from, To: c}
		out.Human = &m
		s.log.Infow("human moved", "move", m.String(), "player", cur.Turn.String(), "board", next.Board.Serialize())

		out, err = s.reply(ctx, out)
	}
	return out, s.changed(ctx, cur, out, err)
}

// Move commits m for the side to move without going through selection.
func (s *Session) Move(ctx context.Context, m spot.Move) (Outcome, error) {
	if !s.busy.TryLock() {
		return Outcome{State: s.State()}, ErrBusy
	}
	defer s.busy.Unlock()

	cur := s.State()
	if err := s.humanToMove(cur); err != nil {
		return Outcome{State: cur}, err
	}

	next, err := cur.Commit(m)
	if err != nil {
		return Outcome{State: cur}, err
	}
	s.set(next)
	s.log.Infow("human moved", "move", m.String(), "player", cur.Turn.String(), "board", next.Board.Serialize())

	out, err := s.reply(ctx, Outcome{State: next, Human: &m})
	return out, s.changed(ctx, cur, out, err)
}

// EngineMove asks the engine to move now. It is how a SinglePlayer game
// continues after a failed engine reply.
func (s *Session) EngineMove(ctx context.Context) (Outcome, error) {
	if !s.busy.TryLock() {
		return Outcome{State: s.State()}, ErrBusy
	}
	defer s.busy.Unlock()

	cur := s.State()
	switch {
	case s.mode != SinglePlayer || s.bridge == nil:
		return Outcome{State: cur}, fmt.Errorf("%w: %s games have no engine", ErrNotYourTurn, s.mode)
	case cur.Turn == s.human:
		return Outcome{State: cur}, fmt.Errorf("%w: %s is to move", ErrNotYourTurn, cur.Turn)
	}

	out, err := s.engine(ctx, Outcome{State: cur})
	if err != nil {
		return out, err
	}
	return out, s.changed(ctx, cur, out, nil)
}

// changed hands a change to the recorder and returns the input's error, or the
// recorder's if the input succeeded.
func (s *Session) changed(ctx context.Context, before spot.GameState, out Outcome, err error) error {
	if s.record == nil {
		return err
	}
	if rerr := s.record(context.WithoutCancel(ctx), before, out); rerr != nil {
		s.log.Errorw("could not record game", zap.Error(rerr))
		if err == nil {
			return rerr
		}
	}
	return err
}

func (s *Session) humanToMove(g spot.GameState) error {
	if s.mode == SinglePlayer && g.Turn != s.human {
		return fmt.Errorf("%w: waiting for %s", ErrNotYourTurn, g.Turn)
	}
	return nil
}

// reply lets the engine answer a human move. Callers hold s.busy.
func (s *Session) reply(ctx context.Context, out Outcome) (Outcome, error) {
	if s.mode != SinglePlayer || s.bridge == nil {
		return out, nil
	}
	return s.engine(ctx, out)
}

func (s *Session) engine(ctx context.Context, out Outcome) (Outcome, error) {
	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return out, fmt.Errorf("%w: %w", ai.ErrEngineUnavailable, ctx.Err())
		}
	}

	bridge, err := s.bridge()
	if err != nil {
		s.log.Errorw("no engine", zap.Error(err))
		return out, err
	}

	next, m, err := bridge.Play(ctx, out.State)
	if err != nil {
		s.log.Errorw("engine reply failed", "board", out.State.Board.Serialize(), zap.Error(err))
		return out, err
	}
	s.set(next)

	out.State = next
	out.Engine = &m
	return out, nil
}
