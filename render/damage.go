package render

import (
	"image/color"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// How many frames of damage are remembered for buffer ages above 1
const maxDamageHistory = 4

// How a surface reached the output
type PresentationState int

const (
	PresentationRendered PresentationState = iota
	PresentationZeroCopy
)

type RenderElementState struct {
	// Pixels of the element inside the output
	VisibleArea  int
	Presentation PresentationState
}

// RenderElementStates records, per surface, how the last frame showed it
type RenderElementStates struct {
	States map[wl.ObjectID]RenderElementState
}

func (s RenderElementStates) ElementState(id wl.ObjectID) (RenderElementState, bool) {
	st, ok := s.States[id]
	return st, ok
}

// RenderResult is what one damage tracked frame produced.
// Damage is nil if nothing had to be drawn
type RenderResult struct {
	Damage []generaldata.Rect
	States RenderElementStates
}

type elementSnapshot struct {
	geometry generaldata.Rect
	commit   uint64
	rank     int
}

// DamageTracker remembers the elements of the previous frames of one output
// and only redraws what changed
type DamageTracker struct {
	size     generaldata.Size
	last     map[ElementID]elementSnapshot
	history  [][]generaldata.Rect
	hasFrame bool
}

func NewDamageTracker() *DamageTracker {
	return &DamageTracker{last: map[ElementID]elementSnapshot{}}
}

// Reset forgets every previous frame, the next one is drawn in full
func (t *DamageTracker) Reset() {
	t.last = map[ElementID]elementSnapshot{}
	t.history = nil
	t.hasFrame = false
}

// Render draws elements into r. age is how many frames ago the buffer of r was last drawn into,
// 0 if its content is unknown
func (t *DamageTracker) Render(r Renderer, age int, elements []Element, clear color.Color) (RenderResult, error) {
	size := r.Size()
	outputRect := generaldata.Rect{Size: size}
	if size != t.size {
		t.Reset()
		t.size = size
	}

	frameDamage := t.frameDamage(elements, outputRect)

	var damage []generaldata.Rect
	if age <= 0 || !t.hasFrame || age-1 > len(t.history) {
		damage = []generaldata.Rect{outputRect}
	} else {
		damage = append(damage, frameDamage...)
		for _, old := range t.history[:age-1] {
			damage = append(damage, old...)
		}
	}
	damage = simplifyDamage(damage)

	t.history = append([][]generaldata.Rect{frameDamage}, t.history...)
	if len(t.history) > maxDamageHistory {
		t.history = t.history[:maxDamageHistory]
	}
	t.hasFrame = true

	states := RenderElementStates{States: map[wl.ObjectID]RenderElementState{}}
	for _, e := range elements {
		s := e.Surface()
		if s == nil {
			continue
		}
		visible, ok := e.Geometry().Intersection(outputRect)
		if !ok {
			continue
		}
		st := states.States[s.ID()]
		st.VisibleArea += visible.Area()
		states.States[s.ID()] = st
	}

	if len(damage) == 0 {
		return RenderResult{States: states}, nil
	}

	if err := r.Clear(clear, damage); err != nil {
		return RenderResult{States: states}, errors.Wrap(err, "clearing damage")
	}
	for i := len(elements) - 1; i >= 0; i-- {
		e := elements[i]
		clipped := clipDamage(damage, e.Geometry())
		if len(clipped) == 0 {
			continue
		}
		if err := e.Draw(r, clipped); err != nil {
			return RenderResult{States: states}, errors.Wrapf(err, "drawing element %s", e.ID())
		}
	}
	logrus.WithField("rects", len(damage)).Debugln("Frame rendered")
	return RenderResult{Damage: damage, States: states}, nil
}

// frameDamage compares elements against the previous frame and stores them for the next one
func (t *DamageTracker) frameDamage(elements []Element, outputRect generaldata.Rect) []generaldata.Rect {
	current := make(map[ElementID]elementSnapshot, len(elements))
	for i, e := range elements {
		current[e.ID()] = elementSnapshot{geometry: e.Geometry(), commit: e.CommitCounter(), rank: i}
	}

	damage := []generaldata.Rect{}
	add := func(r generaldata.Rect) {
		if clipped, ok := r.Intersection(outputRect); ok {
			damage = append(damage, clipped)
		}
	}

	// Relative order of the elements both frames share
	prevOrder := map[ElementID]int{}
	curOrder := map[ElementID]int{}
	for id, prev := range t.last {
		if _, ok := current[id]; ok {
			prevOrder[id] = prev.rank
		}
	}
	for id, cur := range current {
		if _, ok := t.last[id]; ok {
			curOrder[id] = cur.rank
		}
	}
	prevRanks := denseRanks(prevOrder)
	curRanks := denseRanks(curOrder)

	for id, cur := range current {
		prev, ok := t.last[id]
		switch {
		case !ok:
			add(cur.geometry)
		case prev.geometry != cur.geometry:
			add(prev.geometry)
			add(cur.geometry)
		case prev.commit != cur.commit || prevRanks[id] != curRanks[id]:
			add(cur.geometry)
		}
	}
	for id, prev := range t.last {
		if _, ok := current[id]; !ok {
			add(prev.geometry)
		}
	}

	t.last = current
	return simplifyDamage(damage)
}

// denseRanks turns sparse ranks into 0..n-1 keeping their order
func denseRanks(ranks map[ElementID]int) map[ElementID]int {
	res := make(map[ElementID]int, len(ranks))
	for id, r := range ranks {
		dense := 0
		for _, other := range ranks {
			if other < r {
				dense++
			}
		}
		res[id] = dense
	}
	return res
}

// simplifyDamage drops empty rectangles and ones fully covered by another
func simplifyDamage(damage []generaldata.Rect) []generaldata.Rect {
	res := []generaldata.Rect{}
outer:
	for i, d := range damage {
		if d.IsEmpty() {
			continue
		}
		for j, o := range damage {
			if i == j {
				continue
			}
			inter, ok := d.Intersection(o)
			if ok && inter == d && (d != o || j < i) {
				continue outer
			}
		}
		res = append(res, d)
	}
	if len(res) == 0 {
		return nil
	}
	return res
}

func clipDamage(damage []generaldata.Rect, to generaldata.Rect) []generaldata.Rect {
	res := []generaldata.Rect{}
	for _, d := range damage {
		if clipped, ok := d.Intersection(to); ok {
			res = append(res, clipped)
		}
	}
	return res
}
