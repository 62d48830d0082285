// Package ai connects a Spot game to a move generator. The generator is an
// opaque collaborator that speaks a small text protocol: it is handed a
// serialized board and answers with a move such as "0,0>1,1", and it can be
// asked to invert a player code.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedEngineResponse is returned when a generator reply cannot be
	// read as a move or player code.
	ErrMalformedEngineResponse = errors.New("malformed engine response")

	// ErrEngineIllegalMove is returned when the generator proposes a move that
	// breaks range, ownership or occupancy rules.
	ErrEngineIllegalMove = errors.New("engine proposed an illegal move")

	// ErrEngineUnavailable is returned when the generator fails or does not
	// answer in time.
	ErrEngineUnavailable = errors.New("engine unavailable")

	// ErrNoLegalMoves is returned by the built-in generator when the side it
	// plays cannot move.
	ErrNoLegalMoves = errors.New("no legal moves")
)

// Generator is the move generator seen through the wire protocol. board is in
// the serialized board format and the reply must contain one
// "row,col>row,col" move. player and the reply to InvertPlayer are single
// digit player codes.
type Generator interface {
	GenerateMove(ctx context.Context, board string) (string, error)
	InvertPlayer(ctx context.Context, player string) (string, error)
}

// DifficultyLevel represents the built-in generator's strength.
type DifficultyLevel int

const (
	// Beginner plays a random legal move.
	Beginner DifficultyLevel = iota
	// Intermediate plays the move that wins the most cells right now.
	Intermediate
	// Advanced looks at the opponent's best reply before choosing.
	Advanced
)

func (l DifficultyLevel) String() string {
	switch l {
	case Beginner:
		return "beginner"
	case Intermediate:
		return "intermediate"
	case Advanced:
		return "advanced"
	}
	return fmt.Sprintf("DifficultyLevel(%d)", int(l))
}

// ParseLevel reads a level name as used in config and flags.
func ParseLevel(s string) (DifficultyLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner":
		return Beginner, nil
	case "intermediate", "":
		return Intermediate, nil
	case "advanced", "expert":
		return Advanced, nil
	}
	return Intermediate, fmt.Errorf("unknown level %q", s)
}
