package spot

import "errors"

var (
	// ErrBoardSize is returned for edge sizes outside MinEdgeSize to
	// MaxEdgeSize.
	ErrBoardSize = errors.New("edge size must be between 2 and 10")

	// ErrMalformedBoard is returned when board text cannot be parsed.
	ErrMalformedBoard = errors.New("malformed board")

	// ErrInvalidPlayer is returned for an owner that cannot take a turn or an
	// unknown owner code.
	ErrInvalidPlayer = errors.New("invalid player")

	// ErrIllegalSelection means the chosen origin is not owned by the player to
	// move. Callers may treat it as a no-op.
	ErrIllegalSelection = errors.New("illegal selection")

	// ErrIllegalTarget means the destination is out of range or occupied.
	// Callers may treat it as a no-op.
	ErrIllegalTarget = errors.New("illegal target")

	// ErrMalformedMove is returned when move text does not match
	// row,col>row,col exactly once.
	ErrMalformedMove = errors.New("malformed move")
)
