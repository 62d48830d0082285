package ai

import (
	"context"
	"errors"
	"sync"

	"github.com/icco/spot"
)

// ErrScriptExhausted is returned by Scripted once it has no replies left.
var ErrScriptExhausted = errors.New("scripted generator has no more replies")

// Scripted is a stand-in Generator that replays canned move replies in
// order. It records every board it was sent. InvertPlayer answers correctly
// unless Inversions is set, in which case those replies are used in order.
type Scripted struct {
	mu         sync.Mutex
	Moves      []string
	Inversions []string
	Boards     []string
	Err        error
	// Block, if set, makes GenerateMove wait on it regardless of context.
	Block chan struct{}
}

// NewScripted replays moves.
func NewScripted(moves ...string) *Scripted {
	return &Scripted{Moves: moves}
}

// GenerateMove implements Generator.
func (s *Scripted) GenerateMove(ctx context.Context, board string) (string, error) {
	if s.Block != nil {
		<-s.Block
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.Boards = append(s.Boards, board)
	if s.Err != nil {
		return "", s.Err
	}
	if len(s.Moves) == 0 {
		return "", ErrScriptExhausted
	}

	next := s.Moves[0]
	s.Moves = s.Moves[1:]
	return next, nil
}

// InvertPlayer implements Generator.
func (s *Scripted) InvertPlayer(ctx context.Context, player string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Inversions) > 0 {
		next := s.Inversions[0]
		s.Inversions = s.Inversions[1:]
		return next, nil
	}

	p, err := spot.ParseOwner(player)
	if err != nil {
		return "", err
	}
	return string(spot.InvertPlayer(p).Code()), nil
}

// Sent returns the boards received so far.
func (s *Scripted) Sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Boards...)
}
