// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package backend defines what the compositor needs from the thing driving the hardware
package backend

import (
	"github.com/mstarongithub/wayspace/output"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/pkg/errors"
)

// Backend is the contract every device backend has to fulfil
type Backend interface {
	SeatName() string
	// ResetBuffers forces the next frames of o to be drawn in full
	ResetBuffers(o *output.Output)
	// EarlyImport gives the backend a chance to import the surface's buffer before rendering
	EarlyImport(s wl.Surface)
}

// ErrContextLost means the graphics context is gone and nothing can be drawn anymore
var ErrContextLost = errors.New("graphics context lost")

type fatalError struct {
	err error
}

func (e *fatalError) Error() string {
	return "fatal: " + e.err.Error()
}

func (e *fatalError) Cause() error {
	return e.err
}

func (e *fatalError) Unwrap() error {
	return e.err
}

// Fatal marks err as an error the compositor can't continue after
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal classifies a render or backend error. Everything not fatal only costs one frame
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var fe *fatalError
	if errors.As(err, &fe) {
		return true
	}
	return errors.Is(err, ErrContextLost)
}
