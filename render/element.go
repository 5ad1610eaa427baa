// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package render composes the frame of one output out of render elements and tracks damage
// between frames. Element lists are always ordered front to back, the first element is on top
package render

import (
	"fmt"
	"image"
	"image/color"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/wl"
)

// Stable identity of an element across frames
type ElementID string

// Element is something drawn onto an output. All geometry is physical and relative to the output
type Element interface {
	ID() ElementID
	Geometry() generaldata.Rect
	// CommitCounter changes whenever the content changed
	CommitCounter() uint64
	// Surface is the client surface shown, nil for content drawn by the compositor
	Surface() wl.Surface
	// Draw paints the element, limited to damage
	Draw(r Renderer, damage []generaldata.Rect) error
}

// Renderer draws into the current buffer of one output
type Renderer interface {
	// Size of the buffer in physical pixels
	Size() generaldata.Size
	Clear(c color.Color, damage []generaldata.Rect) error
	// DrawImage scales src into dst, limited to damage
	DrawImage(src image.Image, dst generaldata.Rect, damage []generaldata.Rect) error
}

// SurfaceElement shows the committed buffer of a client surface
type SurfaceElement struct {
	surface  wl.Surface
	location generaldata.Vector2i
	scale    float64
}

// NewSurfaceElement places s at the physical location loc
func NewSurfaceElement(s wl.Surface, loc generaldata.Vector2i, scale float64) *SurfaceElement {
	return &SurfaceElement{surface: s, location: loc, scale: scale}
}

func (e *SurfaceElement) ID() ElementID {
	return ElementID(fmt.Sprintf("surface-%d", uint32(e.surface.ID())))
}

func (e *SurfaceElement) Geometry() generaldata.Rect {
	return generaldata.Rect{Loc: e.location, Size: e.surface.BufferSize().Scale(e.scale)}
}

func (e *SurfaceElement) CommitCounter() uint64 {
	return e.surface.CommitCounter()
}

func (e *SurfaceElement) Surface() wl.Surface {
	return e.surface
}

func (e *SurfaceElement) Draw(r Renderer, damage []generaldata.Rect) error {
	content := e.surface.Content()
	if content == nil {
		return nil
	}
	return r.DrawImage(content, e.Geometry(), damage)
}

// ImageElement shows an image owned by the compositor, like the default cursor
type ImageElement struct {
	id       ElementID
	img      image.Image
	geometry generaldata.Rect
	commit   uint64
}

// NewImageElement shows img in geometry. commit has to change whenever img changes
func NewImageElement(id ElementID, img image.Image, geometry generaldata.Rect, commit uint64) *ImageElement {
	return &ImageElement{id: id, img: img, geometry: geometry, commit: commit}
}

func (e *ImageElement) ID() ElementID {
	return e.id
}

func (e *ImageElement) Geometry() generaldata.Rect {
	return e.geometry
}

func (e *ImageElement) CommitCounter() uint64 {
	return e.commit
}

func (e *ImageElement) Surface() wl.Surface {
	return nil
}

func (e *ImageElement) Draw(r Renderer, damage []generaldata.Rect) error {
	return r.DrawImage(e.img, e.geometry, damage)
}

// SurfaceTreeElements builds the elements of a surface and its subsurfaces, front to back.
// loc is the logical location of the root relative to the output
func SurfaceTreeElements(root wl.Surface, loc generaldata.Vector2i, scale float64) []Element {
	back := []Element{}
	wl.WithSurfaceTree(root, loc, func(s wl.Surface, l generaldata.Vector2i) {
		if s.Alive() && !s.BufferSize().IsEmpty() {
			back = append(back, NewSurfaceElement(s, l.Scale(scale), scale))
		}
	})
	return reversed(back)
}

func reversed(elements []Element) []Element {
	res := make([]Element, len(elements))
	for i, e := range elements {
		res[len(elements)-1-i] = e
	}
	return res
}
