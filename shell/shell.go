// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package shell turns client requests into changes of the space, the seat and the windows.
// Requests that are stale, come from the wrong client or name something dead are dropped
// without telling the client
package shell

import (
	"time"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/backend"
	"github.com/mstarongithub/wayspace/focus"
	"github.com/mstarongithub/wayspace/grabs"
	"github.com/mstarongithub/wayspace/output"
	"github.com/mstarongithub/wayspace/seat"
	"github.com/mstarongithub/wayspace/space"
	"github.com/mstarongithub/wayspace/window"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/mstarongithub/wayspace/wl/memwl"
	"github.com/sirupsen/logrus"
)

// New windows are cascaded by this many pixels, wrapping after cascadeSteps windows
const (
	cascadeOffset = 32
	cascadeSteps  = 10
)

// Default lifetime of activation tokens
const DefaultActivationTimeout = 10 * time.Second

type Options struct {
	ActivationTimeout time.Duration
	// Clock used for activation tokens, time.Now if nil
	Clock func() time.Time
}

type Shell struct {
	space   *space.Space
	seat    *seat.Seat
	backend backend.Backend
	resize  *grabs.ResizeStates
	popups  *PopupManager

	// Every known window, mapped or not, in creation order
	windows []*window.Window
	// Where maximized or fullscreen windows go back to
	restore map[*window.Window]generaldata.Rect

	activation        map[string]time.Time
	activationTimeout time.Duration
	clock             func() time.Time
	nextToken         uint64
}

var _ memwl.RequestHandler = (*Shell)(nil)

func New(sp *space.Space, st *seat.Seat, be backend.Backend, opts Options) *Shell {
	if opts.ActivationTimeout <= 0 {
		opts.ActivationTimeout = DefaultActivationTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Shell{
		space:             sp,
		seat:              st,
		backend:           be,
		resize:            grabs.NewResizeStates(),
		popups:            NewPopupManager(),
		restore:           map[*window.Window]generaldata.Rect{},
		activation:        map[string]time.Time{},
		activationTimeout: opts.ActivationTimeout,
		clock:             opts.Clock,
	}
}

func (sh *Shell) Space() *space.Space {
	return sh.space
}

func (sh *Shell) Seat() *seat.Seat {
	return sh.seat
}

func (sh *Shell) Popups() *PopupManager {
	return sh.popups
}

func (sh *Shell) ResizeStates() *grabs.ResizeStates {
	return sh.resize
}

// Windows returns every known window, mapped or not
func (sh *Shell) Windows() []*window.Window {
	return append([]*window.Window{}, sh.windows...)
}

func (sh *Shell) windowForSurface(s wl.Surface) *window.Window {
	if s == nil {
		return nil
	}
	for _, w := range sh.windows {
		if w.WlSurface() == s {
			return w
		}
	}
	return nil
}

func (sh *Shell) windowForToplevel(t wl.Toplevel) *window.Window {
	for _, w := range sh.windows {
		if w.Wraps(t) {
			return w
		}
	}
	return nil
}

// Refresh drops everything that died. Called once per loop iteration
func (sh *Shell) Refresh() {
	sh.space.Refresh()
	sh.resize.Refresh()
	sh.popups.Refresh()

	alive := sh.windows[:0]
	for _, w := range sh.windows {
		if w.Alive() {
			alive = append(alive, w)
		} else {
			delete(sh.restore, w)
		}
	}
	for i := len(alive); i < len(sh.windows); i++ {
		sh.windows[i] = nil
	}
	sh.windows = alive

	now := sh.clock()
	for token, created := range sh.activation {
		if now.Sub(created) >= sh.activationTimeout {
			delete(sh.activation, token)
		}
	}
}

// Commit runs for every surface commit
func (sh *Shell) Commit(s wl.Surface) {
	sh.backend.EarlyImport(s)

	root := s
	if !s.IsSyncSubsurface() {
		for root.Parent() != nil {
			root = root.Parent()
		}
	}

	sh.ensureInitialConfigure(s)

	if w := sh.windowForSurface(root); w != nil {
		sh.resize.HandleCommit(sh.space, w)
	}
}

// ensureInitialConfigure sends the first configure once a surface with a role commits.
// Clients have to wait for it before attaching a buffer
func (sh *Shell) ensureInitialConfigure(s wl.Surface) {
	if w := sh.windowForSurface(s); w != nil {
		if w.SendInitialConfigure() {
			logrus.WithField("window", w).Debugln("Sent initial configure")
		}
		return
	}

	if p, ok := sh.popups.ForSurface(s); ok {
		if !p.InitialConfigureSent() {
			p.SendConfigure()
		}
		return
	}

	if l, o, ok := sh.space.LayerForSurface(s); ok {
		lm := space.LayerMapFor(o)
		if !l.InitialConfigureSent() {
			lm.Arrange()
			l.SendConfigure(lm.ConfiguredSize(l))
			return
		}
		if l.CurrentState().KeyboardInteractivity == wl.KeyboardInteractivityExclusive &&
			sh.seat.Keyboard().CurrentFocus() != focus.LayerSurface(l) {
			sh.seat.Keyboard().SetFocus(focus.LayerSurface(l), sh.seat.NextSerial())
		}
	}
}

// outputFor picks the output a window belongs to: the first one it is shown on, the first
// mapped output otherwise
func (sh *Shell) outputFor(w *window.Window) (*output.Output, bool) {
	if w != nil {
		if outputs := sh.space.OutputsForElement(w); len(outputs) > 0 {
			return outputs[0], true
		}
	}
	return sh.firstOutput()
}

func (sh *Shell) firstOutput() (*output.Output, bool) {
	outputs := sh.space.Outputs()
	if len(outputs) == 0 {
		return nil, false
	}
	return outputs[0], true
}

// outputUnderPointer is the output the pointer is on, the first output if it is off screen
func (sh *Shell) outputUnderPointer() (*output.Output, bool) {
	if outputs := sh.space.OutputUnder(sh.seat.Pointer().CurrentLocation()); len(outputs) > 0 {
		return outputs[0], true
	}
	return sh.firstOutput()
}

// placeNewWindow cascades new windows over the free area of the output under the pointer
func (sh *Shell) placeNewWindow(w *window.Window) generaldata.Vector2i {
	o, ok := sh.outputUnderPointer()
	if !ok {
		return generaldata.Vector2i{}
	}
	zone, _ := sh.space.NonExclusiveZone(o)
	step := len(sh.space.Elements()) % cascadeSteps
	return zone.Loc.Add(generaldata.Vector2i{X: step * cascadeOffset, Y: step * cascadeOffset})
}

// focusWindow raises w, activates it and hands it the keyboard
func (sh *Shell) focusWindow(w *window.Window, serial wl.Serial) {
	sh.space.RaiseElement(w, true)
	sh.seat.Keyboard().SetFocus(focus.Window(w), serial)
}
