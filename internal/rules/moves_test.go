package rules

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/park285/cheese-board/internal/board"
)

func sq(name string) board.Square { return board.MustSquare(name) }

func setOf(names ...string) board.SquareSet {
	var s board.SquareSet
	for _, n := range names {
		s = s.Add(sq(n))
	}
	return s
}

func mustRows(t *testing.T, rows ...string) board.Board {
	t.Helper()
	b, ok := board.FromRows(rows...)
	if !ok {
		t.Fatalf("bad layout %q", rows)
	}
	return b
}

func assertSet(t *testing.T, label string, want, got board.SquareSet) {
	t.Helper()
	if diff := cmp.Diff(want.Squares(), got.Squares()); diff != "" {
		t.Errorf("%s mismatch (-want +got):\n%s\nwant %s got %s", label, diff, want, got)
	}
}

func TestKnightFromCorner(t *testing.T) {
	var b board.Board
	b.Put(0, board.NewPiece(board.White, board.Knight))
	assertSet(t, "knight a8", board.SetOf(10, 17), MovesFor(&b, 0, Options{}))
}

func TestInitialPawnDoubleStep(t *testing.T) {
	b := board.Initial()
	assertSet(t, "e2", board.SetOf(44, 36), MovesFor(&b, 52, Options{}))

	next := Apply(b, 52, 36)
	if p := next.At(36); p.Kind != board.Pawn || p.IsFirstMove {
		t.Fatalf("e4 after double step = %+v", p)
	}
	assertSet(t, "e4", board.SetOf(28), MovesFor(&next, 36, Options{}))
}

func TestInitialBackRankIsBlocked(t *testing.T) {
	b := board.Initial()
	for _, name := range []string{"a1", "c1", "d1", "e1", "f1", "h1"} {
		if got := MovesFor(&b, sq(name), Options{}); !got.Empty() {
			t.Errorf("%s has moves %s in the initial position", name, got)
		}
	}
	assertSet(t, "b1", setOf("a3", "c3"), MovesFor(&b, sq("b1"), Options{}))
}

func TestSlidersStopAtFirstPiece(t *testing.T) {
	b := mustRows(t,
		"....k...",
		"........",
		"...P....",
		"........",
		".p.R.p..",
		"........",
		"........",
		"....K...",
	)
	want := setOf("d5", "d3", "d2", "d1", "e4", "f4", "c4", "b4")
	assertSet(t, "rook d4", want, MovesFor(&b, sq("d4"), Options{}))
}

func TestBishopDoesNotWrapAcrossFiles(t *testing.T) {
	var b board.Board
	b.Put(sq("h4"), board.NewPiece(board.Black, board.Bishop))
	want := setOf("g5", "f6", "e7", "d8", "g3", "f2", "e1")
	assertSet(t, "bishop h4", want, MovesFor(&b, sq("h4"), Options{}))
}

func TestQueenAndKingOnEmptyBoard(t *testing.T) {
	var b board.Board
	b.Put(sq("d4"), board.NewPiece(board.White, board.Queen))
	if got := MovesFor(&b, sq("d4"), Options{}).Len(); got != 27 {
		t.Errorf("queen d4 has %d moves; want 27", got)
	}
	b.Clear(sq("d4"))
	b.Put(sq("a1"), board.NewPiece(board.White, board.King))
	assertSet(t, "king a1", setOf("a2", "b2", "b1"), MovesFor(&b, sq("a1"), Options{}))
}

func TestPawnAttackModeReportsOnlyDiagonals(t *testing.T) {
	b := board.Initial()
	assertSet(t, "e2 attacks", setOf("d3", "f3"), MovesFor(&b, sq("e2"), attackMode))
	assertSet(t, "a7 attacks", setOf("b6"), MovesFor(&b, sq("a7"), attackMode))
	if IsSquareUnderAttack(&b, sq("e4"), board.White) {
		t.Error("a pawn push square is not an attacked square")
	}
	if !IsSquareUnderAttack(&b, sq("f3"), board.White) {
		t.Error("f3 is covered by the e2 and g2 pawns")
	}
}

func TestEnPassant(t *testing.T) {
	b := mustRows(t,
		"....k...",
		"........",
		"........",
		"...pP...",
		"........",
		"........",
		"........",
		"....K...",
	)
	victim := b.At(sq("d5"))
	victim.LastMove = board.LastMove{From: sq("d7"), WasFirst: true}
	b.Put(sq("d5"), victim)

	moves := MovesFor(&b, sq("e5"), Options{})
	assertSet(t, "e5", setOf("e6", "d6"), moves)
	if got, ok := EnPassantVictim(&b, sq("e5"), sq("d6")); !ok || got != sq("d5") {
		t.Fatalf("EnPassantVictim = %s,%v; want d5", got, ok)
	}

	next := Apply(b, sq("e5"), sq("d6"))
	if next.Occupied(sq("d5")) || next.At(sq("d6")).Kind != board.Pawn {
		t.Fatalf("en passant not applied:\n%s", next.String())
	}

	// Once any other move is played the right expires.
	later := Apply(b, sq("e1"), sq("e2"))
	if _, ok := EnPassantVictim(&later, sq("e5"), sq("d6")); ok {
		t.Error("en passant survived an intervening move")
	}
}

func TestEnPassantRequiresDoubleStep(t *testing.T) {
	b := mustRows(t,
		"....k...",
		"........",
		"........",
		"...pP...",
		"........",
		"........",
		"........",
		"....K...",
	)
	victim := b.At(sq("d5"))
	victim.LastMove = board.LastMove{From: sq("d6"), WasFirst: false}
	b.Put(sq("d5"), victim)
	if MovesFor(&b, sq("e5"), Options{}).Has(sq("d6")) {
		t.Error("single-step pawn was capturable en passant")
	}
}

func TestCastling(t *testing.T) {
	rows := []string{
		"r...k..r",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"R...K..R",
	}
	b := mustRows(t, rows...)
	moves := MovesFor(&b, sq("e1"), Options{})
	if !moves.Has(sq("g1")) || !moves.Has(sq("c1")) {
		t.Fatalf("white king moves %s; want both castles", moves)
	}
	black := MovesFor(&b, sq("e8"), Options{})
	if !black.Has(sq("g8")) || !black.Has(sq("c8")) {
		t.Fatalf("black king moves %s; want both castles", black)
	}

	short := Apply(b, sq("e1"), sq("g1"))
	if short.At(sq("f1")).Kind != board.Rook || short.Occupied(sq("h1")) || short.At(sq("g1")).Kind != board.King {
		t.Fatalf("kingside castle:\n%s", short.String())
	}
	long := Apply(b, sq("e8"), sq("c8"))
	if long.At(sq("d8")).Kind != board.Rook || long.Occupied(sq("a8")) || long.At(sq("c8")).Kind != board.King {
		t.Fatalf("queenside castle:\n%s", long.String())
	}
	if long.At(sq("d8")).IsFirstMove || long.At(sq("c8")).IsFirstMove {
		t.Error("castling must consume both first moves")
	}
}

func TestCastlingBlocked(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		want board.SquareSet
	}{
		{
			name: "piece between",
			rows: []string{"....k...", "........", "........", "........", "........", "........", "........", "RN..K.NR"},
			want: setOf("d1", "d2", "e2", "f2", "f1"),
		},
		{
			name: "transit attacked",
			rows: []string{"....kr..", "........", "........", "........", "........", "........", "........", "R...K..R"},
			want: setOf("d1", "d2", "e2", "c1"),
		},
		{
			name: "king in check",
			rows: []string{"....r..k", "........", "........", "........", "........", "........", "........", "R...K..R"},
			want: setOf("d1", "d2", "f2", "f1"),
		},
		{
			name: "queenside b-file occupied",
			rows: []string{"....k...", "........", "........", "........", "........", "........", "........", "RN..K..."},
			want: setOf("d1", "d2", "e2", "f2", "f1"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mustRows(t, tt.rows...)
			assertSet(t, "king e1", tt.want, MovesFor(&b, sq("e1"), Options{}))
		})
	}
}

func TestCastlingAfterKingMoved(t *testing.T) {
	b := mustRows(t,
		"....k...",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"R...K..R",
	)
	b = Apply(b, sq("e1"), sq("e2"))
	b = Apply(b, sq("e2"), sq("e1"))
	if got := MovesFor(&b, sq("e1"), Options{}); got.Has(sq("g1")) || got.Has(sq("c1")) {
		t.Errorf("castling offered after the king moved: %s", got)
	}
}

func TestKingAvoidsAttackedAndAdjacentSquares(t *testing.T) {
	b := mustRows(t,
		"........",
		"........",
		"........",
		"........",
		"........",
		"....k...",
		"r.......",
		"....K...",
	)
	// Rank 2 is covered by the rook and d2/e2/f2 touch the black king.
	assertSet(t, "king e1", setOf("d1", "f1"), MovesFor(&b, sq("e1"), Options{}))
}

func TestKingCannotCaptureProtectedPiece(t *testing.T) {
	rows := []string{
		"....k...",
		"........",
		"........",
		"........",
		"........",
		"..p.....",
		"...n....",
		"....K...",
	}
	b := mustRows(t, rows...)
	assertSet(t, "protected", setOf("d1", "e2", "f2"), MovesFor(&b, sq("e1"), Options{}))

	b.Clear(sq("c3"))
	assertSet(t, "unprotected", setOf("d1", "d2", "e2", "f2"), MovesFor(&b, sq("e1"), Options{}))
}

func TestKingCaptureDefendedAlongFile(t *testing.T) {
	b := mustRows(t,
		"k...r...",
		"........",
		"........",
		"........",
		"........",
		"........",
		"....r...",
		"....K...",
	)
	assertSet(t, "defended", setOf("d1", "f1"), MovesFor(&b, sq("e1"), Options{}))
	if !IsSquareProtected(&b, sq("e2"), board.Black) {
		t.Fatal("e2 should be protected by the e8 rook")
	}

	b.Clear(sq("e8"))
	assertSet(t, "undefended", setOf("d1", "f1", "e2"), MovesFor(&b, sq("e1"), Options{}))
}

func TestPromotionKeepsIdentity(t *testing.T) {
	b := mustRows(t,
		"....k...",
		"P.......",
		"........",
		"........",
		"........",
		"........",
		"........",
		"....K...",
	)
	pawn := b.At(sq("a7"))
	next := Apply(b, sq("a7"), sq("a8"))
	got := next.At(sq("a8"))
	if got.Kind != board.Queen || got.ID != pawn.ID || got.Color != board.White {
		t.Fatalf("promotion = %+v; want white queen with id %d", got, pawn.ID)
	}
}

func TestApplyIgnoresEmptyOrigin(t *testing.T) {
	b := board.Initial()
	if next := Apply(b, sq("e4"), sq("e5")); next != b {
		t.Error("Apply changed the board for an empty origin")
	}
}
