// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package space is the 2D plane windows and outputs are placed on.
// All coordinates in here are global logical coordinates
package space

import (
	"sort"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/output"
	"github.com/mstarongithub/wayspace/window"
	"github.com/sirupsen/logrus"
)

type mappedElement struct {
	window *window.Window
	// Where the window geometry's origin is placed
	location generaldata.Vector2i
	// Outputs the window's surfaces were told about
	outputs map[*output.Output]bool
}

type mappedOutput struct {
	output   *output.Output
	location generaldata.Vector2i
}

// Space is not safe for concurrent use. It is owned by the event loop
type Space struct {
	// Stacking order, last raised last
	elements []*mappedElement
	outputs  []mappedOutput
}

func New() *Space {
	return &Space{}
}

func (s *Space) find(w *window.Window) (int, *mappedElement) {
	for i, e := range s.elements {
		if e.window == w {
			return i, e
		}
	}
	return -1, nil
}

// Map places w at loc and raises it. A window that is already mapped is moved.
// If activate is set, w becomes the activated window and all others are deactivated
func (s *Space) Map(w *window.Window, loc generaldata.Vector2i, activate bool) {
	i, e := s.find(w)
	if e == nil {
		logrus.WithFields(logrus.Fields{"window": w, "location": loc}).Debugln("Mapping window")
		e = &mappedElement{window: w, outputs: map[*output.Output]bool{}}
	} else {
		s.elements = append(s.elements[:i], s.elements[i+1:]...)
	}
	e.location = loc
	s.elements = append(s.elements, e)
	if activate {
		s.activate(w)
	}
}

// Unmap removes w from the space. Its surfaces leave every output they were on
func (s *Space) Unmap(w *window.Window) {
	i, e := s.find(w)
	if e == nil {
		return
	}
	logrus.WithField("window", w).Debugln("Unmapping window")
	for o := range e.outputs {
		w.OutputLeave(o)
	}
	s.elements = append(s.elements[:i], s.elements[i+1:]...)
}

// RaiseElement moves w to the top of its z-index group
func (s *Space) RaiseElement(w *window.Window, activate bool) {
	i, e := s.find(w)
	if e == nil {
		return
	}
	s.elements = append(s.elements[:i], s.elements[i+1:]...)
	s.elements = append(s.elements, e)
	if activate {
		s.activate(w)
	}
}

func (s *Space) activate(w *window.Window) {
	for _, e := range s.elements {
		if e.window != w {
			e.window.SetActivated(false)
		}
	}
	w.SetActivated(true)
}

// DeactivateAll clears the activated state of every window
func (s *Space) DeactivateAll() {
	for _, e := range s.elements {
		e.window.SetActivated(false)
	}
}

// ElementLocation is where w was last mapped to
func (s *Space) ElementLocation(w *window.Window) (generaldata.Vector2i, bool) {
	if _, e := s.find(w); e != nil {
		return e.location, true
	}
	return generaldata.Vector2i{}, false
}

// ElementRenderLocation is the global position of the window's surface origin.
// It differs from the location if the window draws outside of its geometry, like shadows
func (s *Space) ElementRenderLocation(w *window.Window) (generaldata.Vector2i, bool) {
	loc, ok := s.ElementLocation(w)
	if !ok {
		return loc, false
	}
	return loc.Sub(w.Geometry().Loc), true
}

// ElementGeometry is the window's geometry in global coordinates
func (s *Space) ElementGeometry(w *window.Window) (generaldata.Rect, bool) {
	loc, ok := s.ElementLocation(w)
	if !ok {
		return generaldata.Rect{}, false
	}
	return generaldata.Rect{Loc: loc, Size: w.Geometry().Size}, true
}

// ElementBBox covers everything the window draws, popups included, in global coordinates
func (s *Space) ElementBBox(w *window.Window) (generaldata.Rect, bool) {
	loc, ok := s.ElementRenderLocation(w)
	if !ok {
		return generaldata.Rect{}, false
	}
	return w.BBoxWithPopups().Translate(loc), true
}

// Elements returns the mapped windows bottom to top. The last one is drawn last
func (s *Space) Elements() []*window.Window {
	sorted := s.sorted()
	res := make([]*window.Window, 0, len(sorted))
	for _, e := range sorted {
		res = append(res, e.window)
	}
	return res
}

func (s *Space) sorted() []*mappedElement {
	res := make([]*mappedElement, len(s.elements))
	copy(res, s.elements)
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].window.ZIndex() < res[j].window.ZIndex()
	})
	return res
}

// ElementUnder finds the topmost window accepting input at point.
// Returns the window and its render location
func (s *Space) ElementUnder(point generaldata.Vector2f) (*window.Window, generaldata.Vector2i, bool) {
	sorted := s.sorted()
	for i := len(sorted) - 1; i >= 0; i-- {
		e := sorted[i]
		renderLoc := e.location.Sub(e.window.Geometry().Loc)
		if e.window.IsInInputRegion(point.Sub(renderLoc.ToF())) {
			return e.window, renderLoc, true
		}
	}
	return nil, generaldata.Vector2i{}, false
}

// OutputsForElement lists every output the window's bounding box overlaps
func (s *Space) OutputsForElement(w *window.Window) []*output.Output {
	bbox, ok := s.ElementBBox(w)
	if !ok {
		return nil
	}
	res := []*output.Output{}
	for _, mo := range s.outputs {
		if s.outputGeometry(mo).Overlaps(bbox) {
			res = append(res, mo.output)
		}
	}
	return res
}

// MapOutput places o with its top left corner at loc
func (s *Space) MapOutput(o *output.Output, loc generaldata.Vector2i) {
	for i := range s.outputs {
		if s.outputs[i].output == o {
			s.outputs[i].location = loc
			return
		}
	}
	logrus.WithFields(logrus.Fields{"output": o.Name(), "location": loc}).Debugln("Mapping output")
	s.outputs = append(s.outputs, mappedOutput{output: o, location: loc})
}

func (s *Space) UnmapOutput(o *output.Output) {
	for i := range s.outputs {
		if s.outputs[i].output == o {
			s.outputs = append(s.outputs[:i], s.outputs[i+1:]...)
			break
		}
	}
	for _, e := range s.elements {
		if e.outputs[o] {
			e.window.OutputLeave(o)
			delete(e.outputs, o)
		}
	}
}

// Outputs in the order they were mapped
func (s *Space) Outputs() []*output.Output {
	res := make([]*output.Output, 0, len(s.outputs))
	for _, mo := range s.outputs {
		res = append(res, mo.output)
	}
	return res
}

func (s *Space) outputGeometry(mo mappedOutput) generaldata.Rect {
	return generaldata.Rect{Loc: mo.location, Size: mo.output.LogicalSize()}
}

// OutputGeometry is the area o covers in global coordinates
func (s *Space) OutputGeometry(o *output.Output) (generaldata.Rect, bool) {
	for _, mo := range s.outputs {
		if mo.output == o {
			return s.outputGeometry(mo), true
		}
	}
	return generaldata.Rect{}, false
}

// OutputUnder returns the outputs containing point
func (s *Space) OutputUnder(point generaldata.Vector2f) []*output.Output {
	res := []*output.Output{}
	for _, mo := range s.outputs {
		if s.outputGeometry(mo).ContainsF(point) {
			res = append(res, mo.output)
		}
	}
	return res
}

// Refresh drops dead windows and tells the surfaces of every living window which outputs
// they are visible on. It has to be called once per loop iteration
func (s *Space) Refresh() {
	alive := s.elements[:0]
	for _, e := range s.elements {
		if !e.window.Alive() {
			logrus.WithField("window", e.window).Debugln("Dropping dead window")
			continue
		}
		alive = append(alive, e)
	}
	for i := len(alive); i < len(s.elements); i++ {
		s.elements[i] = nil
	}
	s.elements = alive

	for _, e := range s.elements {
		visible := map[*output.Output]bool{}
		for _, o := range s.OutputsForElement(e.window) {
			visible[o] = true
		}
		for o := range e.outputs {
			if !visible[o] {
				e.window.OutputLeave(o)
			}
		}
		for o := range visible {
			if !e.outputs[o] {
				e.window.OutputEnter(o)
			}
		}
		e.outputs = visible
	}

	for _, mo := range s.outputs {
		LayerMapFor(mo.output).Refresh()
	}
}
