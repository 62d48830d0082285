package spot

import (
	"fmt"
	"regexp"
	"strconv"
)

// Move takes or jumps from one cell to another.
type Move struct {
	From Cell `json:"from"`
	To   Cell `json:"to"`
}

// (fromRow),(fromCol)>(toRow),(toCol)
var moveRegex = regexp.MustCompile(`(\d),(\d)>(\d),(\d)`)

// ParseMove reads move text such as "0,0>1,1". The text must contain exactly
// one move; anything around it is ignored.
func ParseMove(text string) (Move, error) {
	matches := moveRegex.FindAllStringSubmatch(text, -1)
	if len(matches) != 1 {
		return Move{}, fmt.Errorf("%w: found %d moves in %q", ErrMalformedMove, len(matches), text)
	}

	var n [4]int
	for i, part := range matches[0][1:] {
		v, err := strconv.Atoi(part)
		if err != nil {
			return Move{}, fmt.Errorf("%w: %v", ErrMalformedMove, err)
		}
		n[i] = v
	}

	return Move{
		From: Cell{Row: n[0], Col: n[1]},
		To:   Cell{Row: n[2], Col: n[3]},
	}, nil
}

// String renders m the way ParseMove reads it.
func (m Move) String() string {
	return fmt.Sprintf("%d,%d>%d,%d", m.From.Row, m.From.Col, m.To.Row, m.To.Col)
}

// Distance classifies m, see ClassifyDistance.
func (m Move) Distance() Distance {
	return ClassifyDistance(m.From, m.To)
}
