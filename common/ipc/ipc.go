// Package ipc holds the payloads tool mode and the repl print as JSON
package ipc

// TODO: Look into adding support for sway and hyprland ipc so that wayspace can interact with those in tool mode

type (
	// A request to list the available Outputs
	OutputRequest struct {
		// Whether to include the modes an output supports
		IncludeModes bool `json:"include_modes"`
		// Target one specific output
		SpecifiesOutput bool `json:"specifies_output"`
		// Name of the output you want info on. Only matters if SpecifiesOutput is set
		TargetOutput string `json:"target_output"`
	}

	// A mode an output supports
	OutputMode struct {
		// Mode height in pixel
		Height int
		// Mode width in pixel
		Width int
		// Refresh rate of the mode in millihertz
		RefreshRate int
		Preferred   bool `json:",omitempty"`
	}

	// Response to a OutputRequest message
	OutputResponse struct {
		// List of all outputs. Only contains target output if specified
		Outputs []string
		// A list of modes an output supports. Only set if IncludeModes is true
		OutputModes map[string][]OutputMode `json:",omitempty"`
		// Nr of outputs found
		OutputsFound int
	}
)

type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type (
	WindowInfo struct {
		Title     string `json:"title"`
		Kind      string `json:"kind"`
		Mapped    bool   `json:"mapped"`
		Activated bool   `json:"activated"`
		// Location and size in the space, only set for mapped windows
		Geometry *Rect `json:"geometry,omitempty"`
		// Phase of the interactive resize handshake
		ResizePhase string `json:"resize_phase"`
	}

	OutputInfo struct {
		Name string `json:"name"`
		// Logical area covered in the space
		Geometry Rect    `json:"geometry"`
		Mode     string  `json:"mode"`
		Scale    float64 `json:"scale"`
		// Title of the window shown fullscreen, if any
		Fullscreen string `json:"fullscreen,omitempty"`
		// What maximized windows get
		NonExclusiveZone Rect `json:"non_exclusive_zone"`
		Layers           int  `json:"layers"`
	}

	CursorInfo struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Status string  `json:"status"`
		// Description of what is under the pointer
		Focus   string   `json:"focus,omitempty"`
		Pressed []uint32 `json:"pressed,omitempty"`
	}

	GrabInfo struct {
		// none, move, resize, popup or click
		Pointer  string `json:"pointer"`
		Serial   uint32 `json:"serial,omitempty"`
		Window   string `json:"window,omitempty"`
		Edges    string `json:"edges,omitempty"`
		Keyboard bool   `json:"keyboard"`
	}
)
