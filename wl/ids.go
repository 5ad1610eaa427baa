// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package wl contains the contracts the compositor core consumes from the protocol layer.
// Surfaces, toplevels, popups, layer surfaces and X11 windows are all created and owned
// by whatever implements the wire protocol; the core only talks to them through these interfaces
package wl

import (
	"fmt"
	"sync/atomic"
)

// Stable identity of a protocol object for its whole life
type ObjectID uint32

// Identity of a connected client
type ClientID uint32

var lastObjectID atomic.Uint32

// NextObjectID hands out a process wide unique object id
func NextObjectID() ObjectID {
	return ObjectID(lastObjectID.Add(1))
}

func (id ObjectID) String() string {
	return fmt.Sprintf("obj#%d", uint32(id))
}

// A serial correlates a request with the input event or configure that authorized it
type Serial uint32

// IsNoOlderThan compares serials the way the protocol requires it, taking wraparound into account
func (s Serial) IsNoOlderThan(other Serial) bool {
	return int32(uint32(s)-uint32(other)) >= 0
}

// SerialCounter generates serials. All input events and configures of one display share one counter
type SerialCounter struct {
	last atomic.Uint32
}

func (c *SerialCounter) Next() Serial {
	return Serial(c.last.Add(1))
}

// Edges of a toplevel grabbed during an interactive resize
type Edges uint32

const (
	EdgeNone   = Edges(0)
	EdgeTop    = Edges(1)
	EdgeBottom = Edges(2)
	EdgeLeft   = Edges(4)
	EdgeRight  = Edges(8)

	EdgeTopLeft     = EdgeTop | EdgeLeft
	EdgeBottomLeft  = EdgeBottom | EdgeLeft
	EdgeTopRight    = EdgeTop | EdgeRight
	EdgeBottomRight = EdgeBottom | EdgeRight
)

// Intersects reports whether any of the given edges is set
func (e Edges) Intersects(o Edges) bool {
	return e&o != 0
}

func (e Edges) String() string {
	if e == EdgeNone {
		return "none"
	}
	names := ""
	for _, n := range []struct {
		edge Edges
		name string
	}{{EdgeTop, "top"}, {EdgeBottom, "bottom"}, {EdgeLeft, "left"}, {EdgeRight, "right"}} {
		if e&n.edge != 0 {
			if names != "" {
				names += "|"
			}
			names += n.name
		}
	}
	return names
}
