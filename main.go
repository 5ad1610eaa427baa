// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"flag"
	"fmt"

	"github.com/mstarongithub/wayspace/config"
	"github.com/sirupsen/logrus"
)

var (
	configPath *string = flag.String("config", "", "Path to the config file. Searched in the xdg config dirs if empty")
	toolMode   *bool   = flag.Bool("tool", false, "Start as a tool instead of a compositor")
	help       *bool   = flag.Bool("help", false, "Show the help message for the selected mode")
	debug      *bool   = flag.Bool("debug", false, "Log at debug level, whatever the config says")
)

func main() {
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatalln("Loading config")
	}
	logrus.SetLevel(conf.Level())
	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if *toolMode {
		utilMain(conf)
		return
	}
	if *help {
		compositorHelpMessage()
		return
	}
	wlMain(conf)
}

func compositorHelpMessage() {
	fmt.Println("---- Help message for wayspace ----")
	fmt.Println("\nGeneral flags:")
	fmt.Println("\t-config: Path to the config file. Default is $XDG_CONFIG_HOME/wayspace/config.toml")
	fmt.Println("\t-tool: Start as a tool instead of a compositor")
	fmt.Println("\t-debug: Log at debug level")
	fmt.Println("\t-help: Show this help message (or the one for tool mode if -tool is set)")
	fmt.Println("\nThe start_type config option decides what happens after startup:")
	fmt.Println("\t- repl: Read commands from stdin. Type help for a list")
	fmt.Println("\t- command: Run start_command as the first client")
	fmt.Println("\t- none: Just run")
}
