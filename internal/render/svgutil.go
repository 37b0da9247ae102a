package render

import "bytes"

const (
	fillToken   = "#PIECE_FILL"
	strokeToken = "#PIECE_STROKE"
)

func sanitizeSVG(svg []byte) []byte {
	fixed := bytes.ReplaceAll(svg, []byte("fill:000000"), []byte("fill:#000000"))
	fixed = bytes.ReplaceAll(fixed, []byte("fill: #"), []byte("fill:#"))
	fixed = bytes.ReplaceAll(fixed, []byte("stroke: #"), []byte("stroke:#"))
	return fixed
}

// tintSVG substitutes the piece color tokens used by the embedded assets.
func tintSVG(svg []byte, fill, stroke string) []byte {
	out := bytes.ReplaceAll(svg, []byte(fillToken), []byte(fill))
	return bytes.ReplaceAll(out, []byte(strokeToken), []byte(stroke))
}
