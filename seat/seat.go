// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package seat routes pointer and keyboard input to focus targets and holds the grab slots
package seat

import (
	"github.com/mstarongithub/wayspace/wl"
)

// Seat groups one pointer and one keyboard
type Seat struct {
	name     string
	serials  *wl.SerialCounter
	pointer  *Pointer
	keyboard *Keyboard
}

// New creates a seat. Serials are shared with the display so input serials and
// configure serials are comparable
func New(name string, serials *wl.SerialCounter) *Seat {
	if serials == nil {
		serials = &wl.SerialCounter{}
	}
	return &Seat{
		name:     name,
		serials:  serials,
		pointer:  newPointer(serials),
		keyboard: newKeyboard(),
	}
}

func (s *Seat) Name() string {
	return s.name
}

func (s *Seat) Pointer() *Pointer {
	return s.pointer
}

func (s *Seat) Keyboard() *Keyboard {
	return s.keyboard
}

// NextSerial hands out the serial for the next input event
func (s *Seat) NextSerial() wl.Serial {
	return s.serials.Next()
}
