package spot

import "fmt"

// Owner is whoever holds a cell. The numeric value is the digit used on the
// wire.
type Owner int

const (
	// NoOne marks an empty cell.
	NoOne Owner = iota
	// PlayerOne moves first by convention.
	PlayerOne
	// PlayerTwo is the engine's side in single player games.
	PlayerTwo
)

func (o Owner) String() string {
	switch o {
	case NoOne:
		return "NoOne"
	case PlayerOne:
		return "PlayerOne"
	case PlayerTwo:
		return "PlayerTwo"
	}
	return fmt.Sprintf("Owner(%d)", int(o))
}

// Code is the wire digit for o.
func (o Owner) Code() byte {
	return byte('0' + o)
}

// Valid reports whether o is one of the three known owners.
func (o Owner) Valid() bool {
	return o == NoOne || o == PlayerOne || o == PlayerTwo
}

// IsPlayer reports whether o is someone who can hold a turn.
func (o Owner) IsPlayer() bool {
	return o == PlayerOne || o == PlayerTwo
}

// ParseOwner reads a single wire digit.
func ParseOwner(s string) (Owner, error) {
	if len(s) != 1 {
		return NoOne, fmt.Errorf("%w: %q", ErrInvalidPlayer, s)
	}
	return ownerFromCode(s[0])
}

func ownerFromCode(c byte) (Owner, error) {
	switch c {
	case '0':
		return NoOne, nil
	case '1':
		return PlayerOne, nil
	case '2':
		return PlayerTwo, nil
	}
	return NoOne, fmt.Errorf("%w: %q", ErrInvalidPlayer, c)
}

// InvertPlayer swaps PlayerOne and PlayerTwo. NoOne stays NoOne.
func InvertPlayer(p Owner) Owner {
	switch p {
	case PlayerOne:
		return PlayerTwo
	case PlayerTwo:
		return PlayerOne
	}
	return NoOne
}
