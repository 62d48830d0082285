package spot

import (
	"fmt"
	"strings"
)

// RowSeparator joins serialized rows.
const RowSeparator = ":"

const (
	// MinEdgeSize is the smallest board with four distinct corners.
	MinEdgeSize = 2
	// MaxEdgeSize is the largest board whose cells fit the one digit
	// coordinates of the move text.
	MaxEdgeSize = 10
)

// Cell is a zero-based board coordinate.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Cell) String() string {
	return fmt.Sprintf("%d,%d", c.Row, c.Col)
}

// Board is a square grid of owners. It is never modified in place: every
// change produces a new Board, so a Board can be shared freely.
type Board struct {
	cells [][]Owner
}

// NewBoard builds the starting layout. Opposite corners go to the same player:
// PlayerOne holds top-left and bottom-right, PlayerTwo the other two.
func NewBoard(edgeSize int) (Board, error) {
	if edgeSize < MinEdgeSize || edgeSize > MaxEdgeSize {
		return Board{}, fmt.Errorf("%w: got %d", ErrBoardSize, edgeSize)
	}

	last := edgeSize - 1
	cells := make([][]Owner, edgeSize)
	for r := range cells {
		cells[r] = make([]Owner, edgeSize)
	}
	cells[0][0] = PlayerOne
	cells[0][last] = PlayerTwo
	cells[last][0] = PlayerTwo
	cells[last][last] = PlayerOne

	return Board{cells: cells}, nil
}

// ParseBoard reads the wire format produced by Serialize.
func ParseBoard(text string) (Board, error) {
	if text == "" {
		return Board{}, fmt.Errorf("%w: empty", ErrMalformedBoard)
	}

	rows := strings.Split(text, RowSeparator)
	size := len(rows)
	if size < MinEdgeSize || size > MaxEdgeSize {
		return Board{}, fmt.Errorf("%w: need %d to %d rows, got %d", ErrMalformedBoard, MinEdgeSize, MaxEdgeSize, size)
	}

	cells := make([][]Owner, size)
	for r, row := range rows {
		if len(row) != size {
			return Board{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrMalformedBoard, r, len(row), size)
		}

		cells[r] = make([]Owner, size)
		for c := 0; c < len(row); c++ {
			o, err := ownerFromCode(row[c])
			if err != nil {
				return Board{}, fmt.Errorf("%w: bad cell %q at %d,%d", ErrMalformedBoard, row[c], r, c)
			}
			cells[r][c] = o
		}
	}

	return Board{cells: cells}, nil
}

// Size is the edge length. The zero Board has size 0.
func (b Board) Size() int {
	return len(b.cells)
}

// InBounds reports whether c is on the board.
func (b Board) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Col >= 0 && c.Row < len(b.cells) && c.Col < len(b.cells)
}

// At returns the owner of c, or NoOne when c is off the board.
func (b Board) At(c Cell) Owner {
	if !b.InBounds(c) {
		return NoOne
	}
	return b.cells[c.Row][c.Col]
}

// Count returns how many cells o holds.
func (b Board) Count(o Owner) int {
	n := 0
	for _, row := range b.cells {
		for _, cell := range row {
			if cell == o {
				n++
			}
		}
	}
	return n
}

// Equal reports whether both boards have the same size and owners.
func (b Board) Equal(other Board) bool {
	if b.Size() != other.Size() {
		return false
	}
	for r := range b.cells {
		for c := range b.cells[r] {
			if b.cells[r][c] != other.cells[r][c] {
				return false
			}
		}
	}
	return true
}

// Rows returns each row in wire form.
func (b Board) Rows() []string {
	rows := make([]string, len(b.cells))
	buf := make([]byte, len(b.cells))
	for r, row := range b.cells {
		for c, cell := range row {
			buf[c] = cell.Code()
		}
		rows[r] = string(buf)
	}
	return rows
}

// Serialize renders the board as the text exchanged with move generators,
// for example "1002:0000:0000:2001".
func (b Board) Serialize() string {
	return strings.Join(b.Rows(), RowSeparator)
}

func (b Board) String() string {
	return b.Serialize()
}

// MarshalText implements encoding.TextMarshaler.
func (b Board) MarshalText() ([]byte, error) {
	return []byte(b.Serialize()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Board) UnmarshalText(text []byte) error {
	parsed, err := ParseBoard(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// with returns a copy of b with each cell in set replaced.
func (b Board) with(set map[Cell]Owner) Board {
	cells := make([][]Owner, len(b.cells))
	for r, row := range b.cells {
		cells[r] = append([]Owner(nil), row...)
	}
	for c, o := range set {
		if b.InBounds(c) {
			cells[c.Row][c.Col] = o
		}
	}
	return Board{cells: cells}
}
