package spot

import (
	"errors"
	"testing"
)

func mustBoard(t *testing.T, text string) Board {
	t.Helper()
	b, err := ParseBoard(text)
	if err != nil {
		t.Fatalf("ParseBoard(%q): %v", text, err)
	}
	return b
}

func TestClassifyDistance(t *testing.T) {
	tests := []struct {
		from, to Cell
		want     Distance
	}{
		{Cell{0, 0}, Cell{0, 0}, Adjacent},
		{Cell{0, 0}, Cell{0, 1}, Adjacent},
		{Cell{3, 3}, Cell{2, 2}, Adjacent},
		{Cell{3, 3}, Cell{4, 2}, Adjacent},
		{Cell{0, 0}, Cell{2, 0}, Leap},
		{Cell{0, 0}, Cell{2, 2}, Leap},
		{Cell{0, 0}, Cell{1, 2}, Leap},
		{Cell{4, 4}, Cell{2, 3}, Leap},
		{Cell{0, 0}, Cell{3, 3}, OutOfRange},
		{Cell{0, 0}, Cell{0, 3}, OutOfRange},
		{Cell{0, 0}, Cell{3, 1}, OutOfRange},
	}

	for _, tc := range tests {
		t.Run(tc.from.String()+">"+tc.to.String(), func(t *testing.T) {
			if got := ClassifyDistance(tc.from, tc.to); got != tc.want {
				t.Errorf("ClassifyDistance = %s, want %s", got, tc.want)
			}
			if got := ClassifyDistance(tc.to, tc.from); got != tc.want {
				t.Errorf("ClassifyDistance reversed = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestClassifyDistanceSymmetricGrid(t *testing.T) {
	for r1 := 0; r1 < 5; r1++ {
		for c1 := 0; c1 < 5; c1++ {
			for r2 := 0; r2 < 5; r2++ {
				for c2 := 0; c2 < 5; c2++ {
					a, b := Cell{r1, c1}, Cell{r2, c2}
					if ClassifyDistance(a, b) != ClassifyDistance(b, a) {
						t.Fatalf("asymmetric for %s and %s", a, b)
					}
				}
			}
		}
	}
}

func TestApplyAdjacentMoveKeepsOrigin(t *testing.T) {
	b := mustBoard(t, "1000:0200:0000:0000")

	after := ApplyAdjacentMove(b, Cell{0, 0}, Cell{0, 1}, PlayerOne)

	if want := "1100:0100:0000:0000"; after.Serialize() != want {
		t.Errorf("after = %s, want %s", after, want)
	}
	if b.Serialize() != "1000:0200:0000:0000" {
		t.Errorf("input board was modified: %s", b)
	}
}

func TestApplyLeapMoveVacatesOrigin(t *testing.T) {
	b := mustBoard(t, "1000:0000:0000:2200")

	after := ApplyLeapMove(b, Cell{0, 0}, Cell{2, 0}, PlayerOne)

	if want := "0000:0000:1000:1100"; after.Serialize() != want {
		t.Errorf("after = %s, want %s", after, want)
	}
	if after.At(Cell{0, 0}) != NoOne {
		t.Errorf("leap must vacate origin")
	}
}

func TestConvertOnlyTouchesEnemyNeighbours(t *testing.T) {
	b := mustBoard(t, "22222:21012:20102:21012:22222")
	center := Cell{2, 2}
	b = b.with(map[Cell]Owner{center: PlayerOne})

	after := Convert(b, center)

	for r := 0; r < b.Size(); r++ {
		for c := 0; c < b.Size(); c++ {
			cell := Cell{r, c}
			before, now := b.At(cell), after.At(cell)
			near := abs(r-2) <= 1 && abs(c-2) <= 1

			switch {
			case before == PlayerTwo && near:
				if now != PlayerOne {
					t.Errorf("%s: enemy next to center not converted", cell)
				}
			case before != now:
				t.Errorf("%s changed from %s to %s", cell, before, now)
			}
		}
	}
}

func TestConvertLeavesNoOneAndMover(t *testing.T) {
	b := mustBoard(t, "012:010:210")

	after := Convert(b, Cell{1, 1})

	if want := "011:010:110"; after.Serialize() != want {
		t.Errorf("after = %s, want %s", after, want)
	}
}

func TestConvertEmptyCenter(t *testing.T) {
	b := mustBoard(t, "121:202:121")
	if after := Convert(b, Cell{1, 1}); !after.Equal(b) {
		t.Errorf("empty center converted cells: %s", after)
	}
}

func TestConvertAtEdge(t *testing.T) {
	b := mustBoard(t, "12:22")
	if after := Convert(b, Cell{0, 0}); after.Serialize() != "11:11" {
		t.Errorf("after = %s, want 11:11", after)
	}
}

func TestCheckMove(t *testing.T) {
	b := mustBoard(t, "1002:0000:0000:2001")

	tests := []struct {
		name  string
		move  Move
		want  Distance
		error error
	}{
		{"take", Move{Cell{0, 0}, Cell{1, 1}}, Adjacent, nil},
		{"jump", Move{Cell{0, 0}, Cell{2, 1}}, Leap, nil},
		{"too far", Move{Cell{0, 0}, Cell{3, 1}}, OutOfRange, ErrIllegalTarget},
		{"occupied", Move{Cell{3, 3}, Cell{3, 3}}, OutOfRange, ErrIllegalTarget},
		{"off board", Move{Cell{0, 0}, Cell{-1, 0}}, OutOfRange, ErrIllegalTarget},
		{"enemy origin", Move{Cell{0, 3}, Cell{1, 3}}, OutOfRange, ErrIllegalSelection},
		{"empty origin", Move{Cell{1, 1}, Cell{1, 2}}, OutOfRange, ErrIllegalSelection},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CheckMove(b, tc.move, PlayerOne)
			if tc.error == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.error != nil && !errors.Is(err, tc.error) {
				t.Fatalf("err = %v, want %v", err, tc.error)
			}
			if got != tc.want {
				t.Errorf("distance = %s, want %s", got, tc.want)
			}
		})
	}

	if _, err := CheckMove(b, Move{Cell{0, 0}, Cell{0, 1}}, NoOne); !errors.Is(err, ErrInvalidPlayer) {
		t.Errorf("NoOne mover err = %v", err)
	}
}

func TestApplyMoveRejectsWithoutChange(t *testing.T) {
	b := mustBoard(t, "1002:0000:0000:2001")
	after, err := ApplyMove(b, Move{Cell{0, 0}, Cell{3, 1}}, PlayerOne)
	if !errors.Is(err, ErrIllegalTarget) {
		t.Fatalf("err = %v", err)
	}
	if !after.Equal(b) {
		t.Errorf("rejected move changed the board")
	}
}

func TestLegalMoves(t *testing.T) {
	b := mustBoard(t, "100:000:002")

	moves := LegalMoves(b, PlayerOne)
	// Every empty cell of a 3x3 board is within two of the corner.
	if len(moves) != 7 {
		t.Fatalf("len(moves) = %d, want 7: %v", len(moves), moves)
	}
	if moves[0] != (Move{Cell{0, 0}, Cell{0, 1}}) {
		t.Errorf("first move = %s", moves[0])
	}
	for _, m := range moves {
		if _, err := CheckMove(b, m, PlayerOne); err != nil {
			t.Errorf("LegalMoves returned illegal %s: %v", m, err)
		}
	}

	if got := LegalMoves(mustBoard(t, "12:21"), PlayerOne); len(got) != 0 {
		t.Errorf("full board has moves: %v", got)
	}
	if got := LegalMoves(b, NoOne); got != nil {
		t.Errorf("NoOne has moves: %v", got)
	}
}
