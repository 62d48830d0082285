package spot

import "fmt"

// Distance classifies how far a move travels.
type Distance int

const (
	// OutOfRange moves are never legal.
	OutOfRange Distance = iota
	// Adjacent moves claim a neighbouring cell and keep the origin.
	Adjacent
	// Leap moves jump two cells away and vacate the origin.
	Leap
)

func (d Distance) String() string {
	switch d {
	case Adjacent:
		return "adjacent"
	case Leap:
		return "leap"
	}
	return "out of range"
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// ClassifyDistance says whether to is a take or a jump away from from. The
// zero move classifies as Adjacent; it is rejected later because the
// destination is never empty.
func ClassifyDistance(from, to Cell) Distance {
	dr := abs(to.Row - from.Row)
	dc := abs(to.Col - from.Col)

	switch {
	case dr <= 1 && dc <= 1:
		return Adjacent
	case (dr == 2 && dc <= 2) || (dc == 2 && dr <= 2):
		return Leap
	}
	return OutOfRange
}

// ApplyAdjacentMove claims to for mover and converts its neighbours. The
// origin is left as it was.
func ApplyAdjacentMove(b Board, from, to Cell, mover Owner) Board {
	return Convert(b.with(map[Cell]Owner{to: mover}), to)
}

// ApplyLeapMove moves mover from from to to, leaving from empty, and converts
// the neighbours of to.
func ApplyLeapMove(b Board, from, to Cell, mover Owner) Board {
	return Convert(b.with(map[Cell]Owner{from: NoOne, to: mover}), to)
}

// Convert ("wololo") hands every opponent cell touching center, diagonals
// included, to whoever owns center. Empty cells are left alone.
func Convert(b Board, center Cell) Board {
	m := b.At(center)
	if !m.IsPlayer() {
		return b
	}
	enemy := InvertPlayer(m)

	flips := map[Cell]Owner{}
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			c := Cell{Row: center.Row + dr, Col: center.Col + dc}
			if b.InBounds(c) && b.At(c) == enemy {
				flips[c] = m
			}
		}
	}

	if len(flips) == 0 {
		return b
	}
	return b.with(flips)
}

// CheckMove reports how far m travels if mover may legally play it on b.
func CheckMove(b Board, m Move, mover Owner) (Distance, error) {
	if !mover.IsPlayer() {
		return OutOfRange, fmt.Errorf("%w: %s cannot move", ErrInvalidPlayer, mover)
	}
	if !b.InBounds(m.From) || b.At(m.From) != mover {
		return OutOfRange, fmt.Errorf("%w: %s is not held by %s", ErrIllegalSelection, m.From, mover)
	}
	if !b.InBounds(m.To) {
		return OutOfRange, fmt.Errorf("%w: %s is off the board", ErrIllegalTarget, m.To)
	}
	if b.At(m.To) != NoOne {
		return OutOfRange, fmt.Errorf("%w: %s is occupied", ErrIllegalTarget, m.To)
	}

	d := ClassifyDistance(m.From, m.To)
	if d == OutOfRange {
		return d, fmt.Errorf("%w: %s is out of range", ErrIllegalTarget, m)
	}
	return d, nil
}

// ApplyMove checks m and returns the board after mover plays it.
func ApplyMove(b Board, m Move, mover Owner) (Board, error) {
	d, err := CheckMove(b, m, mover)
	if err != nil {
		return b, err
	}

	if d == Adjacent {
		return ApplyAdjacentMove(b, m.From, m.To, mover), nil
	}
	return ApplyLeapMove(b, m.From, m.To, mover), nil
}

// LegalMoves lists every move mover can make, ordered by origin then
// destination in row-major order.
func LegalMoves(b Board, mover Owner) []Move {
	if !mover.IsPlayer() {
		return nil
	}

	var moves []Move
	size := b.Size()
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			from := Cell{Row: r, Col: c}
			if b.At(from) != mover {
				continue
			}
			for tr := r - 2; tr <= r+2; tr++ {
				for tc := c - 2; tc <= c+2; tc++ {
					to := Cell{Row: tr, Col: tc}
					if !b.InBounds(to) || b.At(to) != NoOne {
						continue
					}
					moves = append(moves, Move{From: from, To: to})
				}
			}
		}
	}
	return moves
}
