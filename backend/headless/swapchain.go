package headless

import (
	"image"

	generaldata "github.com/mstarongithub/wayspace/general-data"
)

const swapchainLength = 2

type slot struct {
	buf *image.RGBA
	// Frame number the buffer was last submitted in
	submittedAt uint64
	used        bool
}

// swapchain hands out in-memory buffers round robin and knows how old their content is
type swapchain struct {
	slots []*slot
	frame uint64
	next  int
}

func newSwapchain(size generaldata.Size) *swapchain {
	sc := &swapchain{}
	for i := 0; i < swapchainLength; i++ {
		sc.slots = append(sc.slots, &slot{buf: image.NewRGBA(image.Rect(0, 0, size.W, size.H))})
	}
	return sc
}

// acquire returns the next buffer and its age. Age 0 means the content is undefined
func (sc *swapchain) acquire() (*slot, int) {
	s := sc.slots[sc.next]
	sc.next = (sc.next + 1) % len(sc.slots)
	if !s.used {
		return s, 0
	}
	return s, int(sc.frame-s.submittedAt) + 1
}

func (sc *swapchain) submit(s *slot) {
	sc.frame++
	s.submittedAt = sc.frame
	s.used = true
}

// reset forgets the content of every buffer
func (sc *swapchain) reset() {
	for _, s := range sc.slots {
		s.used = false
	}
}
