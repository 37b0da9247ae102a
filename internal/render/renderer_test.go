package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/game"
	"github.com/park285/cheese-board/internal/msgcat"
)

func decode(t *testing.T, raw []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

func TestRenderInitialPosition(t *testing.T) {
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatal(err)
	}
	r := New(cat)
	g := game.New()
	raw, err := r.RenderPNG(context.Background(), g.Snapshot(), Options{SquareSize: 32})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img := decode(t, raw)
	l := layoutFor(32)
	if b := img.Bounds(); b.Dx() != l.width() || b.Dy() != l.height() {
		t.Fatalf("size %v; want %dx%d", b, l.width(), l.height())
	}
}

func TestRenderHighlightsChangePixels(t *testing.T) {
	r := New(nil)
	g := game.New()
	opts := Options{SquareSize: 24}
	plain, err := r.RenderPNG(context.Background(), g.Snapshot(), opts)
	if err != nil {
		t.Fatal(err)
	}
	g.SelectSquare(board.MustSquare("e2"))
	selected, err := r.RenderPNG(context.Background(), g.Snapshot(), opts)
	if err != nil {
		t.Fatal(err)
	}

	l := layoutFor(24)
	e3 := squareRect(board.MustSquare("e3"), l, false)
	cx, cy := (e3.Min.X+e3.Max.X)/2, (e3.Min.Y+e3.Max.Y)/2
	before := decode(t, plain).At(cx, cy)
	after := decode(t, selected).At(cx, cy)
	if before == after {
		t.Errorf("e3 centre unchanged by the move marker: %v", after)
	}
}

func TestRenderFlipped(t *testing.T) {
	l := layoutFor(20)
	if got := squareRect(board.MustSquare("a8"), l, true); got.Min != l.origin().Add(image.Pt(7*20, 7*20)) {
		t.Errorf("flipped a8 at %v", got)
	}
	if got := squareRect(board.MustSquare("a8"), l, false); got.Min != l.origin() {
		t.Errorf("a8 at %v", got)
	}
	r := New(nil)
	if _, err := r.RenderPNG(context.Background(), game.New().Snapshot(), Options{SquareSize: 20, Flip: true}); err != nil {
		t.Fatalf("flipped render: %v", err)
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	r := New(nil)
	snap := game.New().Snapshot()
	if _, err := r.RenderPNG(context.Background(), snap, Options{SquareSize: 4}); !errors.Is(err, ErrSquareSize) {
		t.Errorf("tiny squares = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.RenderPNG(ctx, snap, Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled ctx = %v", err)
	}
}

func TestPieceAssetsParse(t *testing.T) {
	for _, c := range []board.Color{board.White, board.Black} {
		for k := board.Pawn; k <= board.King; k++ {
			if _, err := renderPieceImage(board.Piece{Color: c, Kind: k}, 16); err != nil {
				t.Errorf("%s %s: %v", c, k, err)
			}
		}
	}
	if _, err := renderPieceImage(board.Piece{}, 16); err == nil {
		t.Error("empty piece should have no asset")
	}
}
