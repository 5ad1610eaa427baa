package memwl

import (
	"image"
	"image/color"
	"image/draw"
	"time"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/output"
	"github.com/mstarongithub/wayspace/wl"
)

type EventKind int

const (
	EventPointerEnter = EventKind(iota)
	EventPointerMotion
	EventPointerRelativeMotion
	EventPointerButton
	EventPointerAxis
	EventPointerLeave
	EventKeyboardEnter
	EventKeyboardLeave
	EventKeyboardKey
	EventKeyboardModifiers
)

// An input event a surface received
type Event struct {
	Kind     EventKind
	Serial   wl.Serial
	Location generaldata.Vector2f
	Button   uint32
	Key      uint32
	Pressed  bool
	Axis     wl.AxisFrame
	Mods     wl.Modifiers
}

type surfaceState struct {
	attached bool
	buffer   image.Image
	feedback []*Feedback
	frames   int
}

type Surface struct {
	id      wl.ObjectID
	client  *Client
	alive   bool
	parent  *Surface
	sync    bool
	subs    []wl.Subsurface
	popups  []wl.Popup
	data    wl.SurfaceData
	outputs map[*output.Output]bool

	pending surfaceState
	current surfaceState
	commits uint64

	inputRegion *generaldata.Rect
	roleCommit  func()

	// Everything the compositor sent to this surface, oldest first
	Events []Event
	// Number of frame callbacks fired so far
	FramesDone int
	// Time of the last fired frame callbacks
	LastFrameTime time.Duration
}

var _ wl.Surface = (*Surface)(nil)

// CreateSurface creates a surface without any role
func (c *Client) CreateSurface() *Surface {
	s := &Surface{
		id:      wl.NextObjectID(),
		client:  c,
		alive:   true,
		outputs: map[*output.Output]bool{},
	}
	s.data.PreferredScale = 1
	c.surfaces = append(c.surfaces, s)
	return s
}

// AddSubsurface makes child a subsurface of s at the given offset
func (s *Surface) AddSubsurface(child *Surface, loc generaldata.Vector2i, sync bool) {
	child.parent = s
	child.sync = sync
	s.subs = append(s.subs, wl.Subsurface{Surface: child, Location: loc})
}

// Attach queues a buffer for the next commit. Nil detaches
func (s *Surface) Attach(img image.Image) {
	s.pending.buffer = img
	s.pending.attached = true
}

// AttachColor queues a buffer of the given size filled with one color
func (s *Surface) AttachColor(size generaldata.Size, c color.Color) {
	if size.IsEmpty() {
		s.Attach(nil)
		return
	}
	img := image.NewRGBA(image.Rect(0, 0, size.W, size.H))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	s.Attach(img)
}

// Frame requests a frame callback with the next commit
func (s *Surface) Frame() {
	s.pending.frames++
}

// Feedback requests presentation feedback for the next commit
func (s *Surface) Feedback() *Feedback {
	fb := &Feedback{}
	s.pending.feedback = append(s.pending.feedback, fb)
	return fb
}

// SetInputRegion limits where the surface accepts input. Nil means everywhere
func (s *Surface) SetInputRegion(r *generaldata.Rect) {
	s.inputRegion = r
}

// Commit applies everything pending and notifies the compositor
func (s *Surface) Commit() {
	if !s.alive {
		return
	}
	if s.pending.attached {
		s.commits++
		s.current.buffer = s.pending.buffer
		s.pending.attached = false
	}
	s.current.frames += s.pending.frames
	s.pending.frames = 0
	if len(s.pending.feedback) > 0 {
		for _, old := range s.current.feedback {
			old.Discarded()
		}
		s.current.feedback = s.pending.feedback
		s.pending.feedback = nil
	}
	if s.roleCommit != nil {
		s.roleCommit()
	}
	if h := s.client.display.getHandler(); h != nil {
		h.Commit(s)
	}
}

// Destroy kills the surface and everything attached to it
func (s *Surface) Destroy() {
	if !s.alive {
		return
	}
	s.alive = false
	for _, fb := range s.current.feedback {
		fb.Discarded()
	}
	s.current.feedback = nil
	for _, sub := range s.subs {
		sub.Surface.(*Surface).Destroy()
	}
	for _, p := range s.popups {
		p.Surface().(*Surface).Destroy()
	}
}

// LastEvent returns the newest event of the given kind
func (s *Surface) LastEvent(kind EventKind) (Event, bool) {
	for i := len(s.Events) - 1; i >= 0; i-- {
		if s.Events[i].Kind == kind {
			return s.Events[i], true
		}
	}
	return Event{}, false
}

// CountEvents counts received events of the given kind
func (s *Surface) CountEvents(kind EventKind) int {
	n := 0
	for _, ev := range s.Events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// Outputs the surface was told it is shown on
func (s *Surface) Outputs() []*output.Output {
	res := []*output.Output{}
	for o, in := range s.outputs {
		if in {
			res = append(res, o)
		}
	}
	return res
}

func (s *Surface) ID() wl.ObjectID {
	return s.id
}

func (s *Surface) Client() wl.ClientID {
	return s.client.id
}

func (s *Surface) Alive() bool {
	return s.alive
}

func (s *Surface) Parent() wl.Surface {
	if s.parent == nil {
		return nil
	}
	return s.parent
}

func (s *Surface) IsSyncSubsurface() bool {
	return s.parent != nil && s.sync
}

func (s *Surface) Subsurfaces() []wl.Subsurface {
	return s.subs
}

func (s *Surface) Popups() []wl.Popup {
	alive := s.popups[:0]
	for _, p := range s.popups {
		if p.Alive() {
			alive = append(alive, p)
		}
	}
	s.popups = alive
	return s.popups
}

func (s *Surface) BufferSize() generaldata.Size {
	if s.current.buffer == nil {
		return generaldata.Size{}
	}
	b := s.current.buffer.Bounds()
	return generaldata.Size{W: b.Dx(), H: b.Dy()}
}

func (s *Surface) Content() image.Image {
	return s.current.buffer
}

func (s *Surface) CommitCounter() uint64 {
	return s.commits
}

func (s *Surface) InputRegionContains(p generaldata.Vector2f) bool {
	if s.inputRegion == nil {
		return true
	}
	return s.inputRegion.ContainsF(p)
}

func (s *Surface) Data() *wl.SurfaceData {
	return &s.data
}

func (s *Surface) EnterOutput(o *output.Output) {
	s.outputs[o] = true
}

func (s *Surface) LeaveOutput(o *output.Output) {
	delete(s.outputs, o)
}

func (s *Surface) SendFrameDone(t time.Duration) {
	if s.current.frames == 0 {
		return
	}
	s.current.frames = 0
	s.FramesDone++
	s.LastFrameTime = t
}

func (s *Surface) TakePresentationFeedback() []wl.PresentationFeedback {
	res := make([]wl.PresentationFeedback, 0, len(s.current.feedback))
	for _, fb := range s.current.feedback {
		res = append(res, fb)
	}
	s.current.feedback = nil
	return res
}

func (s *Surface) PointerEnter(ev *wl.MotionEvent) {
	s.Events = append(s.Events, Event{Kind: EventPointerEnter, Serial: ev.Serial, Location: ev.Location})
}

func (s *Surface) PointerMotion(ev *wl.MotionEvent) {
	s.Events = append(s.Events, Event{Kind: EventPointerMotion, Serial: ev.Serial, Location: ev.Location})
}

func (s *Surface) PointerRelativeMotion(ev *wl.RelativeMotionEvent) {
	s.Events = append(s.Events, Event{Kind: EventPointerRelativeMotion, Location: ev.Delta})
}

func (s *Surface) PointerButton(ev *wl.ButtonEvent) {
	s.Events = append(s.Events, Event{
		Kind:    EventPointerButton,
		Serial:  ev.Serial,
		Button:  ev.Button,
		Pressed: ev.State == wl.ButtonPressed,
	})
}

func (s *Surface) PointerAxis(frame wl.AxisFrame) {
	s.Events = append(s.Events, Event{Kind: EventPointerAxis, Axis: frame})
}

func (s *Surface) PointerLeave(serial wl.Serial, _ uint32) {
	s.Events = append(s.Events, Event{Kind: EventPointerLeave, Serial: serial})
}

func (s *Surface) KeyboardEnter(_ []uint32, serial wl.Serial) {
	s.Events = append(s.Events, Event{Kind: EventKeyboardEnter, Serial: serial})
}

func (s *Surface) KeyboardLeave(serial wl.Serial) {
	s.Events = append(s.Events, Event{Kind: EventKeyboardLeave, Serial: serial})
}

func (s *Surface) KeyboardKey(key uint32, state wl.KeyState, serial wl.Serial, _ uint32) {
	s.Events = append(s.Events, Event{
		Kind:    EventKeyboardKey,
		Serial:  serial,
		Key:     key,
		Pressed: state == wl.KeyPressed,
	})
}

func (s *Surface) KeyboardModifiers(mods wl.Modifiers, serial wl.Serial) {
	s.Events = append(s.Events, Event{Kind: EventKeyboardModifiers, Serial: serial, Mods: mods})
}

// Feedback is a presentation feedback object recording what it was told
type Feedback struct {
	Done        bool
	Discard     bool
	Kind        wl.PresentationKind
	Refresh     int
	Output      *output.Output
	PresentedAt time.Duration
}

func (f *Feedback) Presented(o *output.Output, at time.Duration, refresh int, _ uint64, kind wl.PresentationKind) {
	f.Done = true
	f.Output = o
	f.PresentedAt = at
	f.Refresh = refresh
	f.Kind = kind
}

func (f *Feedback) Discarded() {
	f.Done = true
	f.Discard = true
}
