package render

import (
	"image"
	"image/color"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"
)

// ErrNoBuffer is returned when drawing without a bound buffer
var ErrNoBuffer = errors.New("no buffer bound")

// SoftwareRenderer draws into an in-memory RGBA buffer
type SoftwareRenderer struct {
	buf *image.RGBA
}

var _ Renderer = (*SoftwareRenderer)(nil)

// NewSoftwareRenderer draws into buf. buf may be nil and bound later
func NewSoftwareRenderer(buf *image.RGBA) *SoftwareRenderer {
	return &SoftwareRenderer{buf: buf}
}

// Bind switches to another buffer
func (r *SoftwareRenderer) Bind(buf *image.RGBA) {
	r.buf = buf
}

func (r *SoftwareRenderer) Buffer() *image.RGBA {
	return r.buf
}

func (r *SoftwareRenderer) Size() generaldata.Size {
	if r.buf == nil {
		return generaldata.Size{}
	}
	b := r.buf.Bounds()
	return generaldata.Size{W: b.Dx(), H: b.Dy()}
}

func (r *SoftwareRenderer) Clear(c color.Color, damage []generaldata.Rect) error {
	if r.buf == nil {
		return ErrNoBuffer
	}
	src := image.NewUniform(c)
	for _, d := range damage {
		xdraw.Draw(r.buf, d.ToImage(), src, image.Point{}, xdraw.Src)
	}
	return nil
}

func (r *SoftwareRenderer) DrawImage(src image.Image, dst generaldata.Rect, damage []generaldata.Rect) error {
	if r.buf == nil {
		return ErrNoBuffer
	}
	if dst.IsEmpty() {
		return nil
	}
	sb := src.Bounds()
	sameSize := sb.Dx() == dst.Size.W && sb.Dy() == dst.Size.H
	for _, d := range damage {
		clip, ok := d.Intersection(dst)
		if !ok {
			continue
		}
		sub, ok := r.buf.SubImage(clip.ToImage()).(*image.RGBA)
		if !ok {
			return errors.New("unexpected sub image type")
		}
		if sameSize {
			xdraw.Draw(sub, dst.ToImage(), src, sb.Min, xdraw.Over)
			continue
		}
		xdraw.ApproxBiLinear.Scale(sub, dst.ToImage(), src, sb, xdraw.Over, nil)
	}
	return nil
}
