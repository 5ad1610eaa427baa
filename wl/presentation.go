package wl

import (
	"time"

	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/output"
)

// Flags describing how a frame reached the screen
type PresentationKind uint32

const (
	PresentationVsync        = PresentationKind(0x1)
	PresentationHwClock      = PresentationKind(0x2)
	PresentationHwCompletion = PresentationKind(0x4)
	PresentationZeroCopy     = PresentationKind(0x8)
)

// A pending wp_presentation_feedback object of a client
type PresentationFeedback interface {
	// Presented reports the frame as shown. refresh is the output refresh in millihertz
	Presented(o *output.Output, at time.Duration, refresh int, seq uint64, kind PresentationKind)
	Discarded()
}

// Collects the feedback objects of everything shown on one output during one frame
type OutputPresentationFeedback struct {
	output    *output.Output
	feedbacks []pendingFeedback
}

type pendingFeedback struct {
	feedback PresentationFeedback
	flags    PresentationKind
}

func NewOutputPresentationFeedback(o *output.Output) *OutputPresentationFeedback {
	return &OutputPresentationFeedback{output: o}
}

func (f *OutputPresentationFeedback) Output() *output.Output {
	return f.output
}

func (f *OutputPresentationFeedback) Len() int {
	return len(f.feedbacks)
}

// Add queues a feedback object together with surface specific flags like zero copy
func (f *OutputPresentationFeedback) Add(fb PresentationFeedback, flags PresentationKind) {
	f.feedbacks = append(f.feedbacks, pendingFeedback{feedback: fb, flags: flags})
}

// Presented answers every collected feedback object and empties the collection
func (f *OutputPresentationFeedback) Presented(at time.Duration, refresh int, seq uint64, kind PresentationKind) {
	for _, fb := range f.feedbacks {
		fb.feedback.Presented(f.output, at, refresh, seq, kind|fb.flags)
	}
	f.feedbacks = nil
}

// Discarded tells every collected feedback object its frame never made it to the screen
func (f *OutputPresentationFeedback) Discarded() {
	for _, fb := range f.feedbacks {
		fb.feedback.Discarded()
	}
	f.feedbacks = nil
}

// TakePresentationFeedbackSurfaceTree moves the feedback of every surface of the tree that is
// primarily shown on the collection's output into the collection
func TakePresentationFeedbackSurfaceTree(
	root Surface,
	into *OutputPresentationFeedback,
	primary PrimaryScanoutOutputFunc,
	flags func(s Surface) PresentationKind,
) {
	WithSurfaceTree(root, generaldata.Vector2i{}, func(s Surface, _ generaldata.Vector2i) {
		if primary(s) != into.output {
			return
		}
		f := flags(s)
		for _, fb := range s.TakePresentationFeedback() {
			into.Add(fb, f)
		}
	})
}
