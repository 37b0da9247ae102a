// Package render draws a game snapshot as a PNG board with a status HUD.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/game"
	"github.com/park285/cheese-board/internal/msgcat"
)

const DefaultSquareSize = 64

var ErrSquareSize = errors.New("square size out of range")

type Options struct {
	SquareSize int
	// Flip draws the board from Black's side.
	Flip  bool
	Title string
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, snap game.Snapshot, opts Options) ([]byte, error)
}

type Renderer struct {
	catalog *msgcat.Catalog
	face    font.Face
}

// New returns a renderer. catalog may be nil, in which case the HUD uses
// built in English text.
func New(catalog *msgcat.Catalog) *Renderer {
	return &Renderer{catalog: catalog, face: basicfont.Face7x13}
}

type layout struct {
	square int
	side   int
	top    int
	bottom int

	titleHeight  int
	statusHeight int
	gap          int
	radius       int
	padX         int
}

func layoutFor(square int) layout {
	return layout{
		square:       square,
		side:         square / 2,
		top:          84,
		bottom:       square / 2,
		titleHeight:  26,
		statusHeight: 26,
		gap:          10,
		radius:       8,
		padX:         14,
	}
}

func (l layout) boardSize() int { return l.square * board.Size }
func (l layout) width() int     { return l.boardSize() + l.side*2 }
func (l layout) height() int    { return l.boardSize() + l.top + l.bottom }
func (l layout) origin() image.Point {
	return image.Point{X: l.side, Y: l.top}
}

func (r *Renderer) RenderPNG(ctx context.Context, snap game.Snapshot, opts Options) ([]byte, error) {
	size := opts.SquareSize
	if size == 0 {
		size = DefaultSquareSize
	}
	if size < 16 || size > 256 {
		return nil, fmt.Errorf("%w: %d", ErrSquareSize, size)
	}
	l := layoutFor(size)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, l.width(), l.height()))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	boardRect := image.Rectangle{Min: l.origin(), Max: l.origin().Add(image.Pt(l.boardSize(), l.boardSize()))}
	drawBoardShadow(img, boardRect)
	r.drawHUD(img, snap, opts, l, boardRect)
	drawSquares(img, l, opts.Flip)
	drawLastMove(img, snap, l, opts.Flip)
	drawSelection(img, snap, l, opts.Flip)
	if err := drawPieces(ctx, img, snap.Board, l, opts.Flip); err != nil {
		return nil, err
	}
	drawMoveMarkers(img, snap, l, opts.Flip)
	r.drawCoordinates(img, l, opts.Flip)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return pngBuf.Bytes(), nil
}

var (
	backgroundColor     = color.RGBA{R: 22, G: 24, B: 36, A: 255}
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	selectedColor       = color.NRGBA{R: 90, G: 200, B: 120, A: 140}
	moveDotColor        = color.NRGBA{R: 30, G: 30, B: 30, A: 90}
	captureColor        = color.NRGBA{R: 220, G: 80, B: 60, A: 110}
	checkColor          = color.NRGBA{R: 235, G: 40, B: 40, A: 150}
	whiteLastMoveFill   = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	blackLastMoveArrow  = color.NRGBA{R: 148, G: 207, B: 255, A: 170}
	hudPanelColor       = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudStatusPanelColor = color.NRGBA{R: 32, G: 35, B: 52, A: 245}
	hudAlertPanelColor  = color.NRGBA{R: 96, G: 28, B: 36, A: 245}
	hudShadowColor      = color.NRGBA{0, 0, 0, 50}
	hudTextPrimary      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudStatusTextColor  = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	boardShadowColor    = color.NRGBA{0, 0, 0, 60}
	coordinateTextColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

const (
	defaultTitle           = "Cheese Board"
	statusSeparator        = "  |  "
	shadowOffsetY          = 4
	minTitleWidthInSquares = 4
	plyPanelWidthInSquares = 2
)

func drawBoardShadow(img *image.RGBA, boardRect image.Rectangle) {
	shadowRect := image.Rect(boardRect.Min.X+4, boardRect.Min.Y+8, boardRect.Max.X+10, boardRect.Max.Y+12)
	imagedraw.Draw(img, shadowRect, image.NewUniform(boardShadowColor), image.Point{}, imagedraw.Over)
}

// viewCell maps a board square onto its on-screen row and column.
func viewCell(sq board.Square, flip bool) (row, col int) {
	row, col = sq.Row(), sq.Col()
	if flip {
		row, col = board.Size-1-row, board.Size-1-col
	}
	return row, col
}

func squareRect(sq board.Square, l layout, flip bool) image.Rectangle {
	row, col := viewCell(sq, flip)
	o := l.origin()
	x := o.X + col*l.square
	y := o.Y + row*l.square
	return image.Rect(x, y, x+l.square, y+l.square)
}

func squareColor(sq board.Square) color.Color {
	if (sq.Row()+sq.Col())%2 == 0 {
		return lightSquare
	}
	return darkSquare
}

func drawSquares(dst imagedraw.Image, l layout, flip bool) {
	for i := 0; i < board.NumSquare; i++ {
		sq := board.Square(i)
		imagedraw.Draw(dst, squareRect(sq, l, flip), image.NewUniform(squareColor(sq)), image.Point{}, imagedraw.Src)
	}
}

func drawPieces(ctx context.Context, dst imagedraw.Image, b board.Board, l layout, flip bool) error {
	for i := range b {
		p := b[i]
		if p.Empty() {
			continue
		}
		if i%board.Size == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		img, err := renderPieceImage(p, l.square)
		if err != nil {
			return err
		}
		imagedraw.Draw(dst, squareRect(board.Square(i), l, flip), img, image.Point{}, imagedraw.Over)
	}
	return nil
}

func drawLastMove(img *image.RGBA, snap game.Snapshot, l layout, flip bool) {
	if snap.Plies == 0 || !snap.Last.From.Valid() || !snap.Last.To.Valid() {
		return
	}
	if snap.Last.Piece.Color == board.Black {
		return
	}
	drawSquareOverlay(img, squareRect(snap.Last.From, l, flip), whiteLastMoveFill)
	drawSquareOverlay(img, squareRect(snap.Last.To, l, flip), whiteLastMoveFill)
}

func drawSelection(img *image.RGBA, snap game.Snapshot, l layout, flip bool) {
	for i, h := range snap.Highlights {
		rect := squareRect(board.Square(i), l, flip)
		switch h {
		case game.HighlightSelectedOrigin:
			drawSquareOverlay(img, rect, selectedColor)
		case game.HighlightInCheck:
			drawSquareOverlay(img, rect, checkColor)
		}
	}
}

// drawMoveMarkers marks available destinations: a dot on empty squares and
// a tinted square on captures. Black's last move is drawn as an arrow on top.
func drawMoveMarkers(img *image.RGBA, snap game.Snapshot, l layout, flip bool) {
	for i, h := range snap.Highlights {
		if h != game.HighlightAvailableMove {
			continue
		}
		rect := squareRect(board.Square(i), l, flip)
		if snap.Board[i].Empty() {
			center := image.Pt(rect.Min.X+l.square/2, rect.Min.Y+l.square/2)
			drawDisc(img, center, l.square/7, moveDotColor)
			continue
		}
		drawSquareOverlay(img, rect, captureColor)
	}
	if snap.Plies > 0 && snap.Last.Piece.Color == board.Black && snap.Last.From.Valid() && snap.Last.To.Valid() {
		drawArrow(img, squareRect(snap.Last.From, l, flip), squareRect(snap.Last.To, l, flip), l.square, blackLastMoveArrow)
	}
}

func (r *Renderer) statusText(snap game.Snapshot) string {
	if r.catalog == nil {
		return fallbackStatus(snap)
	}
	status := r.catalog.StatusLine(snap)
	if mv := r.catalog.MoveLine(snap); mv != "" {
		status += statusSeparator + mv
	}
	return status
}

func fallbackStatus(snap game.Snapshot) string {
	st := snap.Status
	switch {
	case st.Checkmate:
		return "Checkmate, " + st.Winner().String() + " wins"
	case st.Stalemate:
		return "Stalemate"
	case st.InCheck():
		return st.SideToMove.String() + " to move, in check"
	default:
		return st.SideToMove.String() + " to move"
	}
}

func (r *Renderer) drawHUD(img *image.RGBA, snap game.Snapshot, opts Options, l layout, boardRect image.Rectangle) {
	drawer := &font.Drawer{Dst: img, Face: r.face}

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = defaultTitle
	}
	plyText := fmt.Sprintf("ply %d", snap.Plies)
	if r.catalog != nil {
		plyText = r.catalog.PlyLine(snap.Plies)
	}
	status := r.statusText(snap)

	statusBottom := boardRect.Min.Y - l.gap
	statusTop := statusBottom - l.statusHeight
	titleBottom := statusTop - l.gap/2
	titleTop := titleBottom - l.titleHeight

	plyWidth := l.square * plyPanelWidthInSquares
	if w := drawer.MeasureString(plyText).Round() + l.padX*2; w > plyWidth {
		plyWidth = w
	}
	titleWidth := drawer.MeasureString(title).Round() + l.padX*2
	if minW := l.square * minTitleWidthInSquares; titleWidth < minW {
		titleWidth = minW
	}
	if maxW := boardRect.Dx() - plyWidth - l.gap; titleWidth > maxW {
		titleWidth = maxW
	}

	titleRect := image.Rect(boardRect.Min.X, titleTop, boardRect.Min.X+titleWidth, titleBottom)
	plyRect := image.Rect(boardRect.Max.X-plyWidth, titleTop, boardRect.Max.X, titleBottom)
	statusRect := image.Rect(boardRect.Min.X, statusTop, boardRect.Max.X, statusBottom)

	statusPanel := hudStatusPanelColor
	if snap.Status.InCheck() || snap.Status.Over() {
		statusPanel = hudAlertPanelColor
	}

	for _, rect := range []image.Rectangle{titleRect, plyRect, statusRect} {
		drawRoundedPanel(img, rect.Add(image.Pt(0, shadowOffsetY)), l.radius, hudShadowColor)
	}
	drawRoundedPanel(img, titleRect, l.radius, hudPanelColor)
	drawRoundedPanel(img, plyRect, l.radius, hudPanelColor)
	drawRoundedPanel(img, statusRect, l.radius, statusPanel)

	title = truncateWithEllipsis(r.face, title, titleRect.Dx()-l.padX*2)
	status = truncateWithEllipsis(r.face, status, statusRect.Dx()-l.padX*2)

	drawCenteredString(drawer, titleRect, title, hudTextPrimary)
	drawCenteredString(drawer, plyRect, plyText, hudTextPrimary)
	drawCenteredString(drawer, statusRect, status, hudStatusTextColor)
}

func (r *Renderer) drawCoordinates(dst imagedraw.Image, l layout, flip bool) {
	drawer := &font.Drawer{Dst: dst, Face: r.face, Src: image.NewUniform(coordinateTextColor)}
	ascent := r.face.Metrics().Ascent.Ceil()
	o := l.origin()
	boardEndY := o.Y + l.boardSize()

	for i := 0; i < board.Size; i++ {
		rowSq, _ := board.SquareAt(i, 0)
		colSq, _ := board.SquareAt(board.Size-1, i)
		row, _ := viewCell(rowSq, flip)
		_, col := viewCell(colSq, flip)

		rank := string(rune('8' - i))
		file := string(rune('a' + i))

		rankBaseline := o.Y + row*l.square + l.square/2 + ascent/2
		drawCenteredText(drawer, rank, o.X-l.side/2, rankBaseline)

		fileCenter := o.X + col*l.square + l.square/2
		drawCenteredText(drawer, file, fileCenter, boardEndY+ascent+2)
	}
}
