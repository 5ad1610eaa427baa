package grabs

import (
	"fmt"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/space"
	"github.com/mstarongithub/wayspace/window"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/sirupsen/logrus"
)

// ResizeData is what an interactive resize started from
type ResizeData struct {
	Edges wl.Edges
	// Location and geometry size of the window when the resize started
	InitialRect generaldata.Rect
}

type ResizePhase int

const (
	ResizeIdle = ResizePhase(iota)
	// The pointer is still dragging
	ResizeResizing
	// The button was released, the final configure has to be acked
	ResizeWaitingForFinalAck
	// The final configure was acked, the matching buffer has to be committed
	ResizeWaitingForCommit
)

func (p ResizePhase) String() string {
	switch p {
	case ResizeIdle:
		return "idle"
	case ResizeResizing:
		return "resizing"
	case ResizeWaitingForFinalAck:
		return "waiting-for-final-ack"
	case ResizeWaitingForCommit:
		return "waiting-for-commit"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// ResizeState tracks one surface through an interactive resize
type ResizeState struct {
	phase ResizePhase
	data  ResizeData
	// Serial of the release event, only meaningful while waiting for the final ack
	serial wl.Serial
}

func (s *ResizeState) Phase() ResizePhase {
	return s.phase
}

func (s *ResizeState) Data() ResizeData {
	return s.data
}

// Start enters the resizing phase from whatever state the surface was in
func (s *ResizeState) Start(data ResizeData) {
	s.phase = ResizeResizing
	s.data = data
	s.serial = 0
}

// Release ends the drag. Surfaces that acknowledge configures wait for the ack of serial,
// all others go straight to waiting for the commit
func (s *ResizeState) Release(needsAck bool, serial wl.Serial) bool {
	if s.phase != ResizeResizing {
		return false
	}
	if needsAck {
		s.phase = ResizeWaitingForFinalAck
		s.serial = serial
	} else {
		s.phase = ResizeWaitingForCommit
	}
	return true
}

// AckConfigure moves on to waiting for the commit once the final configure got acked and the
// state the surface currently shows is still the resizing one
func (s *ResizeState) AckConfigure(serial wl.Serial, currentlyResizing bool) bool {
	if s.phase != ResizeWaitingForFinalAck {
		return false
	}
	if !serial.IsNoOlderThan(s.serial) || !currentlyResizing {
		return false
	}
	s.phase = ResizeWaitingForCommit
	return true
}

// Commit reports whether a commit belongs to an interactive resize.
// The commit completing a resize resets the state to idle
func (s *ResizeState) Commit() (ResizeData, bool) {
	switch s.phase {
	case ResizeResizing:
		return s.data, true
	case ResizeWaitingForCommit:
		data := s.data
		*s = ResizeState{}
		return data, true
	}
	return ResizeData{}, false
}

type resizeEntry struct {
	surface wl.Surface
	state   ResizeState
}

// ResizeStates holds the resize state of every surface, keyed by the surface's identity.
// A surface without an entry is idle
type ResizeStates struct {
	entries map[wl.ObjectID]*resizeEntry
}

func NewResizeStates() *ResizeStates {
	return &ResizeStates{entries: map[wl.ObjectID]*resizeEntry{}}
}

// Get returns the state of s, creating an idle one on first access
func (t *ResizeStates) Get(s wl.Surface) *ResizeState {
	e, ok := t.entries[s.ID()]
	if !ok {
		e = &resizeEntry{surface: s}
		t.entries[s.ID()] = e
	}
	return &e.state
}

// Len counts the surfaces that have a slot
func (t *ResizeStates) Len() int {
	return len(t.entries)
}

// Refresh drops the slots of destroyed surfaces
func (t *ResizeStates) Refresh() {
	for id, e := range t.entries {
		if !e.surface.Alive() {
			delete(t.entries, id)
		}
	}
}

// AckConfigure handles a window acknowledging a configure
func (t *ResizeStates) AckConfigure(w *window.Window, conf wl.ToplevelConfigure) {
	s := w.WlSurface()
	if s == nil {
		return
	}
	state := t.Get(s)
	if state.Phase() != ResizeWaitingForFinalAck {
		return
	}
	currentlyResizing := w.ShowsResizing()
	if !state.AckConfigure(conf.Serial, currentlyResizing) {
		logrus.WithFields(logrus.Fields{
			"serial":   conf.Serial,
			"expected": state.serial,
			"resizing": currentlyResizing,
		}).Debugln("Ack does not finish the resize yet")
	}
}

// HandleCommit keeps the edges opposite of the dragged ones in place once the window took
// its new size. It has to run for every commit of a window's root surface
func (t *ResizeStates) HandleCommit(sp *space.Space, w *window.Window) {
	s := w.WlSurface()
	if s == nil {
		return
	}
	loc, ok := sp.ElementLocation(w)
	if !ok {
		return
	}
	data, ok := t.Get(s).Commit()
	if !ok || !data.Edges.Intersects(wl.EdgeTop|wl.EdgeLeft) {
		return
	}

	geometry := w.Geometry()
	newLoc := loc
	if data.Edges.Intersects(wl.EdgeLeft) {
		newLoc.X = data.InitialRect.Loc.X + (data.InitialRect.Size.W - geometry.Size.W)
	}
	if data.Edges.Intersects(wl.EdgeTop) {
		newLoc.Y = data.InitialRect.Loc.Y + (data.InitialRect.Size.H - geometry.Size.H)
	}
	if newLoc == loc {
		return
	}
	sp.Map(w, newLoc, false)
	w.ConfigureAt(newLoc)
}
