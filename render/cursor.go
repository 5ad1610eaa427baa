package render

import (
	"image"
	"image/color"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/wl"
)

type CursorKind int

const (
	CursorDefault CursorKind = iota
	CursorHidden
	CursorSurface
)

// CursorStatus is what the pointer currently looks like
type CursorStatus struct {
	Kind CursorKind
	// Only for CursorSurface
	Surface wl.Surface
	Hotspot generaldata.Vector2i
}

const defaultCursorSize = 16

var defaultCursor = drawDefaultCursor()

// drawDefaultCursor paints a plain arrow, black with a white outline
func drawDefaultCursor() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, defaultCursorSize, defaultCursorSize))
	for y := 0; y < defaultCursorSize; y++ {
		width := y * 2 / 3
		for x := 0; x <= width && x < defaultCursorSize; x++ {
			c := color.RGBA{A: 0xff}
			if x == 0 || x == width || y == defaultCursorSize-1 {
				c = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// PointerElements builds the cursor elements. loc is the logical pointer location relative to the output
func PointerElements(status CursorStatus, loc generaldata.Vector2i, scale float64) []Element {
	switch status.Kind {
	case CursorSurface:
		if status.Surface == nil || !status.Surface.Alive() {
			return nil
		}
		return SurfaceTreeElements(status.Surface, loc.Sub(status.Hotspot), scale)
	case CursorDefault:
		size := generaldata.Size{W: defaultCursorSize, H: defaultCursorSize}.Scale(scale)
		return []Element{NewImageElement("default-cursor", defaultCursor, generaldata.Rect{Loc: loc.Scale(scale), Size: size}, 0)}
	}
	return nil
}
