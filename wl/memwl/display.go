// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package memwl implements the protocol contracts in process.
// Clients created here behave like well mannered wayland clients: they ack configures,
// attach buffers and commit, and forward their requests to the registered handler.
// The headless backend uses them for virtual windows, tests use them as fake clients
package memwl

import (
	"sync"

	"github.com/mstarongithub/wayspace/output"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/sirupsen/logrus"
)

// RequestHandler receives everything clients ask the compositor for
type RequestHandler interface {
	Commit(s wl.Surface)

	NewToplevel(t wl.Toplevel)
	MoveRequest(t wl.Toplevel, serial wl.Serial)
	ResizeRequest(t wl.Toplevel, serial wl.Serial, edges wl.Edges)
	MaximizeRequest(t wl.Toplevel)
	UnmaximizeRequest(t wl.Toplevel)
	FullscreenRequest(t wl.Toplevel, o *output.Output)
	UnfullscreenRequest(t wl.Toplevel)
	AckConfigure(s wl.Surface, configure wl.ToplevelConfigure)

	NewPopup(p wl.Popup, positioner wl.PositionerState)
	RepositionRequest(p wl.Popup, positioner wl.PositionerState, token uint32)
	PopupGrab(p wl.Popup, serial wl.Serial)

	NewLayerSurface(l wl.LayerSurface, o *output.Output)

	NewDecoration(t wl.Toplevel)
	RequestDecorationMode(t wl.Toplevel, mode wl.DecorationMode)
	UnsetDecorationMode(t wl.Toplevel)

	RequestActivation(token string, s wl.Surface)
}

// Display is the in process equivalent of a wayland display: it owns the clients and the serials
type Display struct {
	Serials *wl.SerialCounter

	lock       sync.Mutex
	handler    RequestHandler
	clients    map[wl.ClientID]*Client
	nextClient wl.ClientID
}

// NewDisplay creates a display handing out serials from the given counter
// A nil counter gets replaced by a fresh one
func NewDisplay(serials *wl.SerialCounter) *Display {
	if serials == nil {
		serials = &wl.SerialCounter{}
	}
	return &Display{
		Serials: serials,
		clients: map[wl.ClientID]*Client{},
	}
}

// SetHandler registers where client requests go. Without a handler, requests are dropped
func (d *Display) SetHandler(h RequestHandler) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.handler = h
}

func (d *Display) getHandler() RequestHandler {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.handler
}

func (d *Display) NewClient() *Client {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.nextClient++
	c := &Client{id: d.nextClient, display: d}
	d.clients[c.id] = c
	logrus.WithField("client", c.id).Debugln("New in-process client")
	return c
}

// Clients returns all clients that are still connected
func (d *Display) Clients() []*Client {
	d.lock.Lock()
	defer d.lock.Unlock()
	res := make([]*Client, 0, len(d.clients))
	for _, c := range d.clients {
		res = append(res, c)
	}
	return res
}

func (d *Display) removeClient(id wl.ClientID) {
	d.lock.Lock()
	defer d.lock.Unlock()
	delete(d.clients, id)
}

// A connected in-process client
type Client struct {
	id       wl.ClientID
	display  *Display
	surfaces []*Surface
}

func (c *Client) ID() wl.ClientID {
	return c.id
}

// Disconnect destroys every object of the client
func (c *Client) Disconnect() {
	for _, s := range c.surfaces {
		s.Destroy()
	}
	c.surfaces = nil
	c.display.removeClient(c.id)
}
