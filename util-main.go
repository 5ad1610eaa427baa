package main

import (
	"encoding/json"
	"flag"
	"fmt"

	"github.com/mstarongithub/wayspace/backend/headless"
	"github.com/mstarongithub/wayspace/backend/wlr"
	"github.com/mstarongithub/wayspace/common/ipc"
	"github.com/mstarongithub/wayspace/compositor"
	"github.com/mstarongithub/wayspace/config"
	"github.com/mstarongithub/wayspace/eventloop"
	"github.com/mstarongithub/wayspace/output"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	utilAction *string = flag.String(
		"action",
		"outputs",
		"The action to perform. Can be one of:"+
			"\n\t- none: Do nothing"+
			"\n\t- outputs: List available outputs"+
			"\n\t- modes: List available modes for an output",
	)
	outputSelection *string = flag.String(
		"output",
		"",
		"Output to perform the action on. Required for some actions",
	)
)

func utilMain(conf *config.Config) {
	if *help {
		utilHelpMessage()
		return
	}

	req, err := outputRequest(*utilAction, *outputSelection)
	if err != nil {
		fmt.Println(err)
		return
	}
	if req == nil {
		return
	}

	outputs, cleanup, err := startForOutputs(conf)
	if err != nil {
		logrus.WithError(err).Fatalln("Probing outputs")
	}
	defer cleanup()

	data, err := json.MarshalIndent(compositor.BuildOutputResponse(*req, outputs), "", "  ")
	if err != nil {
		logrus.WithError(err).Fatalln("Encoding outputs")
	}
	fmt.Println(string(data))
}

// outputRequest turns the tool flags into a request. Nil means there is nothing to do
func outputRequest(action, selected string) (*ipc.OutputRequest, error) {
	switch action {
	case "none":
		return nil, nil
	case "outputs":
		return &ipc.OutputRequest{
			SpecifiesOutput: selected != "",
			TargetOutput:    selected,
		}, nil
	case "modes":
		if selected == "" {
			return nil, errors.New("Output has to be specified")
		}
		return &ipc.OutputRequest{
			IncludeModes:    true,
			SpecifiesOutput: true,
			TargetOutput:    selected,
		}, nil
	}
	return nil, errors.Errorf("Unknown action %q", action)
}

// startForOutputs starts the configured backend just far enough to learn its outputs
func startForOutputs(conf *config.Config) ([]*output.Output, func(), error) {
	loop, err := eventloop.New()
	if err != nil {
		return nil, nil, err
	}
	if conf.Backend == config.BACKEND_HEADLESS {
		be, err := headless.New(conf, loop)
		if err != nil {
			loop.Close()
			return nil, nil, err
		}
		return be.Outputs(), loop.Close, nil
	}

	be, err := wlr.New(conf)
	if err != nil {
		loop.Close()
		return nil, nil, errors.Wrap(err, "initializing server")
	}
	state := compositor.New(conf, be, loop, be.Serials())
	be.Attach(state)
	if err = be.Start(); err != nil {
		loop.Close()
		return nil, nil, errors.Wrap(err, "starting server")
	}
	return be.Outputs(), loop.Close, nil
}

func utilHelpMessage() {
	fmt.Println("---- Help message for wayspace in tool mode ----")
	fmt.Println("\nIn tool mode, wayspace offers various tools for figuring out configurations and similar")
	fmt.Println("\nGeneral flags:")
	fmt.Println("\t-config: Path to the config file. Default is $XDG_CONFIG_HOME/wayspace/config.toml")
	fmt.Println("\t-tool: Start as a tool instead of a compositor")
	fmt.Println("\t-help: Show this help message (or the one for compositor mode if -tool is not set)")
	fmt.Println("\nTool flags:")
	fmt.Println("\t-action: The action to perform. Can be one of:")
	fmt.Println("\t\t- (default) outputs: List available outputs")
	fmt.Println("\t\t- modes: List available modes for an output. Use with -output")
	fmt.Println("\t\t- none: Do nothing")
	fmt.Println("\t-output: Output to perform the action on. Required for -action modes")
}
