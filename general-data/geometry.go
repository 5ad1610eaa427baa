// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package generaldata holds the small geometry types shared by every part of the compositor.
// Unless stated otherwise all values are in logical coordinates relative to the global origin
package generaldata

import (
	"fmt"
	"image"
	"math"
)

type (
	// An integer point or offset
	Vector2i struct {
		X int
		Y int
	}

	// A fractional point, used for pointer locations
	Vector2f struct {
		X float64
		Y float64
	}

	// Width and height of something
	Size struct {
		W int
		H int
	}

	// A rectangle made of a location (top left corner) and a size
	Rect struct {
		Loc  Vector2i
		Size Size
	}
)

func (v Vector2i) Add(o Vector2i) Vector2i {
	return Vector2i{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vector2i) Sub(o Vector2i) Vector2i {
	return Vector2i{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vector2i) ToF() Vector2f {
	return Vector2f{X: float64(v.X), Y: float64(v.Y)}
}

// Scale converts a logical point into a physical one, rounding to the closest pixel
func (v Vector2i) Scale(scale float64) Vector2i {
	return Vector2i{
		X: int(math.Round(float64(v.X) * scale)),
		Y: int(math.Round(float64(v.Y) * scale)),
	}
}

func (v Vector2i) String() string {
	return fmt.Sprintf("(%d,%d)", v.X, v.Y)
}

func (v Vector2f) Add(o Vector2f) Vector2f {
	return Vector2f{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vector2f) Sub(o Vector2f) Vector2f {
	return Vector2f{X: v.X - o.X, Y: v.Y - o.Y}
}

// Round rounds both coordinates half away from zero
func (v Vector2f) Round() Vector2i {
	return Vector2i{X: int(math.Round(v.X)), Y: int(math.Round(v.Y))}
}

// Floor truncates both coordinates towards negative infinity
func (v Vector2f) Floor() Vector2i {
	return Vector2i{X: int(math.Floor(v.X)), Y: int(math.Floor(v.Y))}
}

func (v Vector2f) String() string {
	return fmt.Sprintf("(%.2f,%.2f)", v.X, v.Y)
}

func (s Size) IsEmpty() bool {
	return s.W <= 0 || s.H <= 0
}

func (s Size) Area() int {
	if s.IsEmpty() {
		return 0
	}
	return s.W * s.H
}

// Scale converts a logical size into a physical one
func (s Size) Scale(scale float64) Size {
	return Size{
		W: int(math.Round(float64(s.W) * scale)),
		H: int(math.Round(float64(s.H) * scale)),
	}
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.W, s.H)
}

func NewRect(x, y, w, h int) Rect {
	return Rect{Loc: Vector2i{X: x, Y: y}, Size: Size{W: w, H: h}}
}

// Right is the first column not part of the rectangle anymore
func (r Rect) Right() int {
	return r.Loc.X + r.Size.W
}

// Bottom is the first row not part of the rectangle anymore
func (r Rect) Bottom() int {
	return r.Loc.Y + r.Size.H
}

func (r Rect) IsEmpty() bool {
	return r.Size.IsEmpty()
}

func (r Rect) Area() int {
	return r.Size.Area()
}

func (r Rect) Contains(p Vector2i) bool {
	return p.X >= r.Loc.X && p.X < r.Right() && p.Y >= r.Loc.Y && p.Y < r.Bottom()
}

func (r Rect) ContainsF(p Vector2f) bool {
	return p.X >= float64(r.Loc.X) && p.X < float64(r.Right()) &&
		p.Y >= float64(r.Loc.Y) && p.Y < float64(r.Bottom())
}

// Intersection returns the overlapping part of both rectangles
// The bool is false if they don't overlap at all
func (r Rect) Intersection(o Rect) (Rect, bool) {
	x1 := max(r.Loc.X, o.Loc.X)
	y1 := max(r.Loc.Y, o.Loc.Y)
	x2 := min(r.Right(), o.Right())
	y2 := min(r.Bottom(), o.Bottom())
	if x2 <= x1 || y2 <= y1 {
		return Rect{}, false
	}
	return NewRect(x1, y1, x2-x1, y2-y1), true
}

func (r Rect) Overlaps(o Rect) bool {
	_, ok := r.Intersection(o)
	return ok
}

// Merge returns the smallest rectangle containing both
func (r Rect) Merge(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	x1 := min(r.Loc.X, o.Loc.X)
	y1 := min(r.Loc.Y, o.Loc.Y)
	x2 := max(r.Right(), o.Right())
	y2 := max(r.Bottom(), o.Bottom())
	return NewRect(x1, y1, x2-x1, y2-y1)
}

func (r Rect) Translate(by Vector2i) Rect {
	return Rect{Loc: r.Loc.Add(by), Size: r.Size}
}

// ToPhysical scales the rectangle by the given output scale
// Both corners are rounded separately so adjacent rectangles stay adjacent
func (r Rect) ToPhysical(scale float64) Rect {
	tl := r.Loc.Scale(scale)
	br := Vector2i{X: r.Right(), Y: r.Bottom()}.Scale(scale)
	return NewRect(tl.X, tl.Y, br.X-tl.X, br.Y-tl.Y)
}

// ToImage converts into the image package's representation
func (r Rect) ToImage() image.Rectangle {
	return image.Rect(r.Loc.X, r.Loc.Y, r.Right(), r.Bottom())
}

func FromImage(r image.Rectangle) Rect {
	return NewRect(r.Min.X, r.Min.Y, r.Dx(), r.Dy())
}

func (r Rect) String() string {
	return fmt.Sprintf("{loc: %s, size: %s}", r.Loc, r.Size)
}
