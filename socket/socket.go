// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package socket creates the listening socket clients connect to.
// Names are picked like every other compositor does it: the first free wayland-N
// in the runtime dir, guarded by a wayland-N.lock file
package socket

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/adrg/xdg"
	"github.com/mstarongithub/wayspace/eventloop"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

const (
	firstDisplay = 1
	lastDisplay  = 32
	backlog      = 128
	// Longest path fitting into sockaddr_un
	maxPathLen = 107
)

var ErrNoFreeName = errors.New("no free wayland socket name")

// ClientSink takes over a freshly accepted client connection
type ClientSink func(conn *os.File)

type Listener struct {
	name     string
	path     string
	lockPath string
	lockFd   int
	fd       int
	source   *eventloop.Source
	closed   bool
}

// OpenAuto binds the first free name in the xdg runtime dir
func OpenAuto() (*Listener, error) {
	if xdg.RuntimeDir == "" {
		return nil, errors.New("no runtime dir, XDG_RUNTIME_DIR is not set")
	}
	return Open(xdg.RuntimeDir)
}

// Open binds the first free wayland-N socket in dir
func Open(dir string) (*Listener, error) {
	for n := firstDisplay; n <= lastDisplay; n++ {
		name := "wayland-" + strconv.Itoa(n)
		l, err := tryBind(dir, name)
		if err == nil {
			logrus.WithFields(logrus.Fields{
				"name": name,
				"dir":  dir,
			}).Infoln("Listening for clients")
			return l, nil
		}
		logrus.WithError(err).WithField("name", name).Debugln("Socket name not usable")
	}
	return nil, ErrNoFreeName
}

func tryBind(dir, name string) (*Listener, error) {
	path := filepath.Join(dir, name)
	if len(path) > maxPathLen {
		return nil, errors.Errorf("socket path %s is too long", path)
	}
	lockPath := path + ".lock"

	lockFd, err := unix.Open(lockPath, unix.O_CREAT|unix.O_CLOEXEC|unix.O_RDWR, 0o660)
	if err != nil {
		return nil, errors.Wrapf(err, "opening lock file %s", lockPath)
	}
	if err = unix.Flock(lockFd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		unix.Close(lockFd)
		return nil, errors.Wrapf(err, "%s is taken", name)
	}

	// We hold the lock, so whatever socket is left there belongs to a dead compositor
	if err = os.Remove(path); err != nil && !os.IsNotExist(err) {
		releaseLock(lockFd, lockPath)
		return nil, errors.Wrapf(err, "removing stale socket %s", path)
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		releaseLock(lockFd, lockPath)
		return nil, errors.Wrap(err, "creating socket")
	}
	if err = unix.Bind(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		releaseLock(lockFd, lockPath)
		return nil, errors.Wrapf(err, "binding %s", path)
	}
	if err = unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		os.Remove(path)
		releaseLock(lockFd, lockPath)
		return nil, errors.Wrapf(err, "listening on %s", path)
	}

	return &Listener{
		name:     name,
		path:     path,
		lockPath: lockPath,
		lockFd:   lockFd,
		fd:       fd,
	}, nil
}

func releaseLock(fd int, path string) {
	unix.Close(fd)
	os.Remove(path)
}

// Name is what clients put into WAYLAND_DISPLAY
func (l *Listener) Name() string {
	return l.name
}

func (l *Listener) Path() string {
	return l.path
}

// Export sets WAYLAND_DISPLAY for everything started from this process
func (l *Listener) Export() error {
	return errors.Wrap(os.Setenv("WAYLAND_DISPLAY", l.name), "exporting WAYLAND_DISPLAY")
}

// Accept takes one pending connection. Returns nil, nil if nobody is waiting
func (l *Listener) Accept() (*os.File, error) {
	nfd, _, err := unix.Accept4(l.fd, unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EINTR || err == unix.ECONNABORTED {
			return nil, nil
		}
		return nil, errors.Wrap(err, "accepting client")
	}
	return os.NewFile(uintptr(nfd), l.name+"-client"), nil
}

// Register hands every new client of l to sink, from within the loop
func (l *Listener) Register(loop *eventloop.Loop, sink ClientSink) error {
	if l.closed {
		return errors.New("listener is closed")
	}
	src, err := loop.AddFd(l.fd, eventloop.Readable, func(int, eventloop.Interest) error {
		for {
			conn, err := l.Accept()
			if err != nil {
				return err
			}
			if conn == nil {
				return nil
			}
			logrus.WithField("socket", l.name).Debugln("Client connected")
			sink(conn)
		}
	})
	if err != nil {
		return errors.Wrap(err, "registering listening socket")
	}
	l.source = src
	return nil
}

// Close stops listening and removes the socket and its lock file
func (l *Listener) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	if l.source != nil {
		l.source.Remove()
	}
	err := unix.Close(l.fd)
	os.Remove(l.path)
	releaseLock(l.lockFd, l.lockPath)
	return errors.Wrap(err, "closing listening socket")
}
