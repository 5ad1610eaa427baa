// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package eventloop is a single threaded reactor. File descriptors, timers and functions posted
// from other goroutines are all dispatched on the goroutine calling Dispatch
package eventloop

import (
	"sort"
	"time"

	"github.com/mstarongithub/wayspace/util/multiplexer"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// DefaultTimeout is the longest a single Dispatch waits, about one frame
const DefaultTimeout = 16 * time.Millisecond

// How many posted functions can queue up before Post blocks
const postQueueSize = 256

var ErrClosed = errors.New("event loop closed")

type Interest int16

const (
	Readable = Interest(unix.POLLIN)
	Writable = Interest(unix.POLLOUT)
	// Reported only, hangups and errors can't be asked for
	Hangup = Interest(unix.POLLHUP)
	Error  = Interest(unix.POLLERR)
)

// FdCallback runs when fd became ready. Returning an error removes the source
type FdCallback func(fd int, ready Interest) error

// TimerCallback runs when a timer fired. It returns the delay until it should fire again,
// zero or less stops the timer
type TimerCallback func(now time.Time) time.Duration

type Source struct {
	loop     *Loop
	fd       int
	interest Interest
	callback FdCallback
	removed  bool
}

// Remove stops watching the source. The fd is not closed
func (s *Source) Remove() {
	if s.removed {
		return
	}
	s.removed = true
	if s.loop.sources[s.fd] == s {
		delete(s.loop.sources, s.fd)
	}
}

type Timer struct {
	loop     *Loop
	deadline time.Time
	callback TimerCallback
	stopped  bool
}

func (t *Timer) Stop() {
	t.stopped = true
}

// Loop is the reactor. Everything but Post must be called from the dispatching goroutine
type Loop struct {
	sources map[int]*Source
	timers  []*Timer
	posted  *multiplexer.ManyToOne[func()]

	// Pipe used to wake a blocked poll up when something got posted
	wakeRead  int
	wakeWrite int

	now    func() time.Time
	closed bool
}

func New() (*Loop, error) {
	var pipe [2]int
	if err := unix.Pipe2(pipe[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, errors.Wrap(err, "creating wake pipe")
	}
	l := &Loop{
		sources:   map[int]*Source{},
		posted:    multiplexer.NewManyToOne(make(chan func(), postQueueSize)),
		wakeRead:  pipe[0],
		wakeWrite: pipe[1],
		now:       time.Now,
	}
	l.posted.OnSend(l.wake)
	return l, nil
}

// AddFd watches fd for the given readiness. Only one source per fd is allowed
func (l *Loop) AddFd(fd int, interest Interest, cb FdCallback) (*Source, error) {
	if l.closed {
		return nil, ErrClosed
	}
	if _, exists := l.sources[fd]; exists {
		return nil, errors.Errorf("fd %d is already watched", fd)
	}
	s := &Source{loop: l, fd: fd, interest: interest, callback: cb}
	l.sources[fd] = s
	logrus.WithField("fd", fd).Debugln("Added event source")
	return s, nil
}

// AddTimer fires cb once after delay
func (l *Loop) AddTimer(delay time.Duration, cb TimerCallback) *Timer {
	t := &Timer{loop: l, deadline: l.now().Add(delay), callback: cb}
	l.timers = append(l.timers, t)
	return t
}

// Post queues fn to be run by the dispatching goroutine. Safe to call from anywhere.
// It blocks while the queue is full and gives up with ErrClosed once the loop is closed
func (l *Loop) Post(fn func()) error {
	if err := l.posted.Send(fn); err != nil {
		if errors.Is(err, multiplexer.ErrClosed) {
			return ErrClosed
		}
		return err
	}
	return nil
}

func (l *Loop) wake() {
	// A full pipe already guarantees a wake up
	_, _ = unix.Write(l.wakeWrite, []byte{1})
}

func (l *Loop) drainWake() {
	buf := make([]byte, 64)
	for {
		n, err := unix.Read(l.wakeRead, buf)
		if n <= 0 || err != nil {
			return
		}
	}
}

// nextTimeout shortens timeout so that the earliest timer is not missed
func (l *Loop) nextTimeout(timeout time.Duration) time.Duration {
	now := l.now()
	for _, t := range l.timers {
		if t.stopped {
			continue
		}
		if until := t.deadline.Sub(now); until < timeout {
			timeout = until
		}
	}
	return max(timeout, 0)
}

// Dispatch waits at most timeout for something to happen and runs every callback that is due.
// Callback errors of fd sources remove the source and are returned joined with the first one
func (l *Loop) Dispatch(timeout time.Duration) error {
	if l.closed {
		return ErrClosed
	}
	timeout = l.nextTimeout(timeout)

	fds := make([]unix.PollFd, 0, len(l.sources)+1)
	fds = append(fds, unix.PollFd{Fd: int32(l.wakeRead), Events: unix.POLLIN})
	polled := make([]*Source, 0, len(l.sources))
	for _, s := range l.sources {
		polled = append(polled, s)
	}
	sort.Slice(polled, func(i, j int) bool { return polled[i].fd < polled[j].fd })
	for _, s := range polled {
		fds = append(fds, unix.PollFd{Fd: int32(s.fd), Events: int16(s.interest)})
	}

	if _, err := unix.Poll(fds, int(timeout/time.Millisecond)); err != nil && err != unix.EINTR {
		return errors.Wrap(err, "polling event sources")
	}

	var firstErr error
	// Readiness belongs to the source that was polled. One added during this round waits
	// for the next poll, even if it reuses the fd of a removed one
	for i, pfd := range fds[1:] {
		s := polled[i]
		if pfd.Revents == 0 || s.removed {
			continue
		}
		if err := s.callback(s.fd, Interest(pfd.Revents)); err != nil {
			logrus.WithError(err).WithField("fd", s.fd).Warnln("Event source failed, removing it")
			s.Remove()
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "event source %d", s.fd)
			}
		}
	}

	if fds[0].Revents != 0 {
		l.drainWake()
	}
	l.runPosted()
	l.runTimers()
	return firstErr
}

func (l *Loop) runPosted() {
	for {
		fn, ok := l.posted.TryReceive()
		if !ok {
			return
		}
		fn()
	}
}

func (l *Loop) runTimers() {
	now := l.now()
	due := []*Timer{}
	alive := l.timers[:0]
	for _, t := range l.timers {
		switch {
		case t.stopped:
		case !t.deadline.After(now):
			due = append(due, t)
		default:
			alive = append(alive, t)
		}
	}
	l.timers = alive
	for _, t := range due {
		if next := t.callback(now); next > 0 && !t.stopped {
			t.deadline = now.Add(next)
			l.timers = append(l.timers, t)
		}
	}
}

// Run dispatches until running returns false or a Dispatch call fails hard
func (l *Loop) Run(running func() bool) error {
	for running() {
		if err := l.Dispatch(DefaultTimeout); err != nil {
			if errors.Is(err, ErrClosed) {
				return err
			}
			logrus.WithError(err).Debugln("Dispatch reported an error")
		}
	}
	return nil
}

// Close drops every source and releases the wake pipe. Functions posted afterwards are rejected
func (l *Loop) Close() {
	if l.closed {
		return
	}
	l.closed = true
	l.posted.Close()
	l.sources = map[int]*Source{}
	l.timers = nil
	_ = unix.Close(l.wakeRead)
	_ = unix.Close(l.wakeWrite)
}
