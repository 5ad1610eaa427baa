// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package output describes a physical or virtual display the compositor draws to
package output

import (
	"fmt"
	"reflect"
	"sync"

	generaldata "github.com/mstarongithub/wayspace/general-data"
)

// A mode an output can be driven at
type Mode struct {
	// Size in physical pixels
	Size generaldata.Size
	// Refresh rate in millihertz
	Refresh int
}

func (m Mode) String() string {
	return fmt.Sprintf("%s@%d.%03dHz", m.Size, m.Refresh/1000, m.Refresh%1000)
}

// Output is owned by the backend that created it and registered into the space
// Outputs are compared by pointer identity
type Output struct {
	name        string
	description string
	mode        Mode
	preferred   Mode
	modes       []Mode
	scale       float64

	userDataLock sync.Mutex
	userData     map[reflect.Type]any
}

func New(name string, mode Mode) *Output {
	return &Output{
		name:      name,
		mode:      mode,
		preferred: mode,
		modes:     []Mode{mode},
		scale:     1,
		userData:  map[reflect.Type]any{},
	}
}

func (o *Output) Name() string {
	return o.name
}

func (o *Output) Description() string {
	return o.description
}

func (o *Output) SetDescription(desc string) {
	o.description = desc
}

func (o *Output) CurrentMode() Mode {
	return o.mode
}

func (o *Output) PreferredMode() Mode {
	return o.preferred
}

// Modes returns all modes this output is known to support, the current one included
func (o *Output) Modes() []Mode {
	return o.modes
}

// Scale is the fractional scale factor between logical and physical pixels
func (o *Output) Scale() float64 {
	return o.scale
}

// ChangeState updates mode and/or scale. Nil values are left untouched
func (o *Output) ChangeState(mode *Mode, scale *float64) {
	if mode != nil {
		o.mode = *mode
		known := false
		for _, m := range o.modes {
			if m == *mode {
				known = true
				break
			}
		}
		if !known {
			o.modes = append(o.modes, *mode)
		}
	}
	if scale != nil && *scale > 0 {
		o.scale = *scale
	}
}

// AddMode records a mode the hardware offers without switching to it
func (o *Output) AddMode(mode Mode, preferred bool) {
	known := false
	for _, m := range o.modes {
		if m == mode {
			known = true
			break
		}
	}
	if !known {
		o.modes = append(o.modes, mode)
	}
	if preferred {
		o.preferred = mode
	}
}

func (o *Output) SetPreferred(mode Mode) {
	o.preferred = mode
}

// LogicalSize is the size of the current mode in logical coordinates
func (o *Output) LogicalSize() generaldata.Size {
	return generaldata.Size{
		W: int(float64(o.mode.Size.W) / o.scale),
		H: int(float64(o.mode.Size.H) / o.scale),
	}
}

func (o *Output) String() string {
	return fmt.Sprintf("%s (%s, scale %.2f)", o.name, o.mode, o.scale)
}

// UserData returns the value of type T attached to the output
// If none exists yet, the result of init is stored and returned. A nil init only looks up
func UserData[T any](o *Output, init func() *T) *T {
	key := reflect.TypeOf((*T)(nil))
	o.userDataLock.Lock()
	defer o.userDataLock.Unlock()
	if val, ok := o.userData[key]; ok {
		return val.(*T)
	}
	if init == nil {
		return nil
	}
	val := init()
	o.userData[key] = val
	return val
}
