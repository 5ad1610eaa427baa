// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package compositor ties the pieces together: it owns the space, the seat and the shell,
// knows whether the compositor is still running and hands backends what they need per frame
package compositor

import (
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mstarongithub/wayspace/backend"
	"github.com/mstarongithub/wayspace/config"
	"github.com/mstarongithub/wayspace/eventloop"
	"github.com/mstarongithub/wayspace/render"
	"github.com/mstarongithub/wayspace/seat"
	"github.com/mstarongithub/wayspace/shell"
	"github.com/mstarongithub/wayspace/space"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type State struct {
	conf    *config.Config
	loop    *eventloop.Loop
	serials *wl.SerialCounter
	space   *space.Space
	seat    *seat.Seat
	shell   *shell.Shell
	backend backend.Backend

	start time.Time
	now   func() time.Time

	running atomic.Bool

	// Written by input handling, read by every frame
	cursorLock sync.Mutex
	cursor     render.CursorStatus
}

// New builds the compositor state around be. serials must be the counter the protocol
// objects of be hand out serials from, nil creates a new one
func New(conf *config.Config, be backend.Backend, loop *eventloop.Loop, serials *wl.SerialCounter) *State {
	if serials == nil {
		serials = &wl.SerialCounter{}
	}
	s := &State{
		conf:    conf,
		loop:    loop,
		serials: serials,
		space:   space.New(),
		backend: be,
		start:   time.Now(),
		now:     time.Now,
		cursor:  render.CursorStatus{Kind: render.CursorDefault},
	}
	s.seat = seat.New(be.SeatName(), serials)
	s.shell = shell.New(s.space, s.seat, be, shell.Options{
		ActivationTimeout: conf.ActivationTimeout,
	})
	s.running.Store(true)
	logrus.WithField("seat", s.seat.Name()).Debugln("Compositor state created")
	return s
}

func (s *State) Config() *config.Config {
	return s.conf
}

func (s *State) Loop() *eventloop.Loop {
	return s.loop
}

func (s *State) Serials() *wl.SerialCounter {
	return s.serials
}

func (s *State) Space() *space.Space {
	return s.space
}

func (s *State) Seat() *seat.Seat {
	return s.seat
}

func (s *State) Shell() *shell.Shell {
	return s.shell
}

func (s *State) Backend() backend.Backend {
	return s.backend
}

// Clock is the time since the compositor started, used for frame callbacks and feedback
func (s *State) Clock() time.Duration {
	return s.now().Sub(s.start)
}

func (s *State) Running() bool {
	return s.running.Load()
}

// Stop makes the loop exit after its current iteration. Safe from any goroutine
func (s *State) Stop() {
	if s.running.Swap(false) {
		logrus.Infoln("Stopping compositor")
	}
}

// HandleError deals with a render or backend error. Fatal errors stop the compositor,
// everything else costs one frame. Returns whether the error was fatal
func (s *State) HandleError(err error) bool {
	if err == nil {
		return false
	}
	if backend.IsFatal(err) {
		logrus.WithError(err).Errorln("Fatal backend error")
		s.Stop()
		return true
	}
	logrus.WithError(err).Warnln("Skipping frame")
	return false
}

func (s *State) SetCursorStatus(status render.CursorStatus) {
	s.cursorLock.Lock()
	defer s.cursorLock.Unlock()
	s.cursor = status
}

// CursorStatus is read once per frame. A cursor surface that died falls back to the default cursor
func (s *State) CursorStatus() render.CursorStatus {
	s.cursorLock.Lock()
	defer s.cursorLock.Unlock()
	if s.cursor.Kind == render.CursorSurface && (s.cursor.Surface == nil || !s.cursor.Surface.Alive()) {
		s.cursor = render.CursorStatus{Kind: render.CursorDefault}
	}
	return s.cursor
}

// Refresh drops everything that died since the last iteration
func (s *State) Refresh() {
	s.shell.Refresh()
}

// Dispatch runs one loop iteration followed by a refresh
func (s *State) Dispatch(timeout time.Duration) error {
	err := s.loop.Dispatch(timeout)
	s.Refresh()
	return err
}

// Run dispatches the loop until Stop is called
func (s *State) Run() error {
	logrus.Infoln("Compositor running")
	for s.Running() {
		if err := s.Dispatch(eventloop.DefaultTimeout); err != nil {
			if errors.Is(err, eventloop.ErrClosed) {
				return err
			}
			logrus.WithError(err).Debugln("Loop iteration reported an error")
		}
	}
	return nil
}

// CloseFocused asks the window with keyboard focus to close
func (s *State) CloseFocused() {
	if w, ok := s.seat.Keyboard().CurrentFocus().Window(); ok {
		w.Close()
	}
}

// Spawn starts cmdline as a client of this compositor. Its output goes to ours
func (s *State) Spawn(cmdline string) (*exec.Cmd, error) {
	parts := strings.Fields(cmdline)
	if len(parts) == 0 {
		return nil, errors.New("empty command")
	}
	cmd := exec.Command(parts[0], parts[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "starting %s", parts[0])
	}
	logrus.WithFields(logrus.Fields{
		"command": cmdline,
		"pid":     cmd.Process.Pid,
	}).Infoln("Started client")
	go func() {
		err := cmd.Wait()
		if exiterr, ok := err.(*exec.ExitError); ok {
			logrus.WithError(err).WithFields(logrus.Fields{
				"exit-code": exiterr.ExitCode(),
				"command":   cmdline,
			}).Warningln("Bad command completion")
		}
	}()
	return cmd, nil
}
