package main

import (
	"github.com/mstarongithub/wayspace/backend/headless"
	"github.com/mstarongithub/wayspace/backend/wlr"
	"github.com/mstarongithub/wayspace/compositor"
	"github.com/mstarongithub/wayspace/config"
	"github.com/mstarongithub/wayspace/eventloop"
	"github.com/mstarongithub/wayspace/socket"
	"github.com/mstarongithub/wayspace/xwm"
	"github.com/sirupsen/logrus"
)

func wlMain(conf *config.Config) {
	loop, err := eventloop.New()
	if err != nil {
		logrus.WithError(err).Fatalln("Creating event loop")
	}
	defer loop.Close()

	switch conf.Backend {
	case config.BACKEND_HEADLESS:
		runHeadless(conf, loop)
	default:
		runWlroots(conf, loop)
	}
}

func runHeadless(conf *config.Config, loop *eventloop.Loop) {
	be, err := headless.New(conf, loop)
	if err != nil {
		logrus.WithError(err).Fatalln("Initializing headless backend")
	}
	state := compositor.New(conf, be, loop, be.Serials())
	be.Attach(state)
	defer be.Close()

	l, err := socket.OpenAuto()
	if err != nil {
		logrus.WithError(err).Fatalln("Opening wayland socket")
	}
	defer l.Close()
	if err = l.Export(); err != nil {
		logrus.WithError(err).Fatalln("Exporting WAYLAND_DISPLAY")
	}
	if err = be.Listen(l); err != nil {
		logrus.WithError(err).Fatalln("Listening for clients")
	}
	logrus.WithField("WAYLAND_DISPLAY", l.Name()).Infoln("Running headless compositor")

	stop := startClients(conf, state, be)
	defer stop()
	if err = state.Run(); err != nil {
		logrus.WithError(err).Errorln("Compositor stopped")
	}
}

func runWlroots(conf *config.Config, loop *eventloop.Loop) {
	wlr.ForwardLogs()
	be, err := wlr.New(conf)
	if err != nil {
		logrus.WithError(err).Fatalln("Initializing server")
	}
	state := compositor.New(conf, be, loop, be.Serials())
	be.Attach(state)
	if err = be.Start(); err != nil {
		logrus.WithError(err).Fatalln("Starting server")
	}

	stop := startClients(conf, state, nil)
	defer stop()
	// The wayland event loop drives ours from the output frames
	if err = be.Run(); err != nil {
		logrus.WithError(err).Errorln("Running server")
	}
}

// startClients brings up the X11 window manager and whatever start_type asks for.
// The returned func tears the window manager down again
func startClients(conf *config.Config, state *compositor.State, virtual virtualBackend) func() {
	stop := func() {}
	if conf.XWayland.Enabled {
		if wm, err := xwm.Start(conf.XWayland.Display, state.Loop(), state.Shell()); err != nil {
			logrus.WithError(err).Errorln("Starting the X11 window manager failed, X11 clients won't work")
		} else {
			stop = wm.Stop
		}
	}

	switch conf.StartType {
	case config.START_SINGLE_COMMAND:
		if _, err := state.Spawn(conf.StartCommand); err != nil {
			logrus.WithError(err).Errorln("Start command failed")
		}
	case config.START_REPL:
		go replRunner(&commands{state: state, virtual: virtual, timeout: commandTimeout})
	}
	return stop
}
