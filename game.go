package spot

import (
	"encoding/json"
	"fmt"
)

// Selection is either nothing or exactly one cell. Build one with
// NoSelection or Selected.
type Selection struct {
	cell     Cell
	selected bool
}

// NoSelection is the empty Selection.
func NoSelection() Selection {
	return Selection{}
}

// Selected holds c.
func Selected(c Cell) Selection {
	return Selection{cell: c, selected: true}
}

// Cell returns the selected cell and whether there is one.
func (s Selection) Cell() (Cell, bool) {
	return s.cell, s.selected
}

// IsSelected reports whether a cell is held.
func (s Selection) IsSelected() bool {
	return s.selected
}

func (s Selection) String() string {
	if !s.selected {
		return "none"
	}
	return s.cell.String()
}

// MarshalJSON renders null for NoSelection and the cell otherwise.
func (s Selection) MarshalJSON() ([]byte, error) {
	if !s.selected {
		return []byte("null"), nil
	}
	return json.Marshal(s.cell)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Selection) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = NoSelection()
		return nil
	}
	var c Cell
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	*s = Selected(c)
	return nil
}

// GameState is everything needed to continue a game. Transitions return a new
// GameState; a rejected transition returns the receiver untouched along with
// the reason.
type GameState struct {
	Board     Board     `json:"board"`
	Turn      Owner     `json:"turn"`
	Selection Selection `json:"selection"`
}

// NewGame starts a game on the canonical board with first to move.
func NewGame(edgeSize int, first Owner) (GameState, error) {
	if !first.IsPlayer() {
		return GameState{}, fmt.Errorf("%w: %s cannot move first", ErrInvalidPlayer, first)
	}

	b, err := NewBoard(edgeSize)
	if err != nil {
		return GameState{}, err
	}

	return GameState{Board: b, Turn: first, Selection: NoSelection()}, nil
}

// Select picks an origin cell for the player to move. Picking another owned
// cell while one is selected moves the selection there.
func (g GameState) Select(c Cell) (GameState, error) {
	if !g.Board.InBounds(c) || g.Board.At(c) != g.Turn {
		return g, fmt.Errorf("%w: %s is not held by %s", ErrIllegalSelection, c, g.Turn)
	}

	g.Selection = Selected(c)
	return g, nil
}

// Deselect drops the current selection. It does nothing when no cell is
// selected.
func (g GameState) Deselect() (GameState, error) {
	g.Selection = NoSelection()
	return g, nil
}

// Target moves the selected piece to dest, committing the move when dest is
// empty and within take or jump range.
func (g GameState) Target(dest Cell) (GameState, error) {
	from, ok := g.Selection.Cell()
	if !ok {
		return g, fmt.Errorf("%w: nothing selected", ErrIllegalTarget)
	}
	if !g.Board.InBounds(dest) || g.Board.At(dest) != NoOne {
		return g, fmt.Errorf("%w: %s is not empty", ErrIllegalTarget, dest)
	}
	if ClassifyDistance(from, dest) == OutOfRange {
		return g, fmt.Errorf("%w: %s is out of range of %s", ErrIllegalTarget, dest, from)
	}

	return g.Commit(Move{From: from, To: dest})
}

// Click handles a click on c the way the board does: an owned cell selects
// or, if already selected, deselects; an empty cell is a target; anything
// else is ignored with ErrIllegalSelection.
func (g GameState) Click(c Cell) (GameState, error) {
	if !g.Board.InBounds(c) {
		return g, fmt.Errorf("%w: %s is off the board", ErrIllegalSelection, c)
	}

	switch g.Board.At(c) {
	case g.Turn:
		if sel, ok := g.Selection.Cell(); ok && sel == c {
			return g.Deselect()
		}
		return g.Select(c)
	case NoOne:
		return g.Target(c)
	}
	return g, fmt.Errorf("%w: %s belongs to %s", ErrIllegalSelection, c, InvertPlayer(g.Turn))
}

// Commit plays m for the player to move, flips the turn and clears the
// selection.
func (g GameState) Commit(m Move) (GameState, error) {
	b, err := ApplyMove(g.Board, m, g.Turn)
	if err != nil {
		return g, err
	}

	return GameState{
		Board:     b,
		Turn:      InvertPlayer(g.Turn),
		Selection: NoSelection(),
	}, nil
}
