package compositor

import (
	"encoding/json"
	"fmt"

	"github.com/mstarongithub/wayspace/common/ipc"
	generaldata "github.com/mstarongithub/wayspace/general-data"
	"github.com/mstarongithub/wayspace/grabs"
	"github.com/mstarongithub/wayspace/output"
	"github.com/mstarongithub/wayspace/render"
	"github.com/mstarongithub/wayspace/space"
	"github.com/mstarongithub/wayspace/window"
	"github.com/pkg/errors"
	"gitlab.com/mstarongitlab/goutils/sliceutils"
)

var ErrUnknownTarget = errors.New("unknown inspect target")

func ipcRect(r generaldata.Rect) ipc.Rect {
	return ipc.Rect{X: r.Loc.X, Y: r.Loc.Y, Width: r.Size.W, Height: r.Size.H}
}

// Windows describes every known window, mapped ones first in stacking order
func (s *State) Windows() []ipc.WindowInfo {
	res := []ipc.WindowInfo{}
	mapped := map[*window.Window]bool{}
	for _, w := range s.space.Elements() {
		mapped[w] = true
		res = append(res, s.windowInfo(w, true))
	}
	for _, w := range s.shell.Windows() {
		if !mapped[w] {
			res = append(res, s.windowInfo(w, false))
		}
	}
	return res
}

func (s *State) windowInfo(w *window.Window, mapped bool) ipc.WindowInfo {
	info := ipc.WindowInfo{
		Title:       w.Title(),
		Kind:        w.Kind().String(),
		Mapped:      mapped,
		Activated:   w.IsActivated(),
		ResizePhase: grabs.ResizeIdle.String(),
	}
	if mapped {
		if geo, ok := s.space.ElementGeometry(w); ok {
			r := ipcRect(geo)
			info.Geometry = &r
		}
	}
	if surf := w.WlSurface(); surf != nil {
		info.ResizePhase = s.shell.ResizeStates().Get(surf).Phase().String()
	}
	return info
}

func (s *State) Outputs() []ipc.OutputInfo {
	res := []ipc.OutputInfo{}
	for _, o := range s.space.Outputs() {
		geo, _ := s.space.OutputGeometry(o)
		info := ipc.OutputInfo{
			Name:     o.Name(),
			Geometry: ipcRect(geo),
			Mode:     o.CurrentMode().String(),
			Scale:    o.Scale(),
			Layers:   len(space.LayerMapFor(o).Layers()),
		}
		if zone, ok := s.space.NonExclusiveZone(o); ok {
			info.NonExclusiveZone = ipcRect(zone)
		}
		if fs := window.FullscreenSurfaceOf(o).Get(); fs != nil {
			info.Fullscreen = fs.Title()
		}
		res = append(res, info)
	}
	return res
}

func (s *State) Cursor() ipc.CursorInfo {
	ptr := s.seat.Pointer()
	loc := ptr.CurrentLocation()
	info := ipc.CursorInfo{X: loc.X, Y: loc.Y, Pressed: ptr.CurrentPressed()}
	switch status := s.CursorStatus(); status.Kind {
	case render.CursorHidden:
		info.Status = "hidden"
	case render.CursorSurface:
		info.Status = fmt.Sprintf("surface %s, hotspot %s", status.Surface.ID(), status.Hotspot)
	default:
		info.Status = "default"
	}
	if f, ok := ptr.CurrentFocus(); ok {
		info.Focus = f.Target.String()
	}
	return info
}

func (s *State) Grab() ipc.GrabInfo {
	ptr := s.seat.Pointer()
	info := ipc.GrabInfo{Pointer: "none", Keyboard: s.seat.Keyboard().IsGrabbed()}
	if !ptr.IsGrabbed() {
		return info
	}
	if serial, ok := ptr.GrabSerial(); ok {
		info.Serial = uint32(serial)
	}
	switch g := ptr.Grab().(type) {
	case *grabs.MoveSurfaceGrab:
		info.Pointer = "move"
		info.Window = g.Window().Title()
	case *grabs.ResizeSurfaceGrab:
		info.Pointer = "resize"
		info.Window = g.Window().Title()
		info.Edges = g.Edges().String()
	case *grabs.PopupPointerGrab:
		info.Pointer = "popup"
		info.Window = g.PopupGrab().Root().String()
	default:
		info.Pointer = "click"
	}
	return info
}

// Inspect answers the repl's inspect command with indented JSON
func (s *State) Inspect(target string) (string, error) {
	var payload any
	switch target {
	case "windows":
		payload = s.Windows()
	case "outputs":
		payload = s.Outputs()
	case "cursor":
		payload = s.Cursor()
	case "grab":
		payload = s.Grab()
	case "keybinds":
		payload = s.conf.Keybinds
	default:
		return "", errors.Wrapf(ErrUnknownTarget, "%q", target)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "encoding inspect result")
	}
	return string(data), nil
}

// BuildOutputResponse answers an output request of tool mode
func BuildOutputResponse(req ipc.OutputRequest, outputs []*output.Output) ipc.OutputResponse {
	if req.SpecifiesOutput {
		outputs = sliceutils.Filter(outputs, func(o *output.Output) bool {
			return o.Name() == req.TargetOutput
		})
	}
	res := ipc.OutputResponse{
		Outputs:      []string{},
		OutputsFound: len(outputs),
	}
	if req.IncludeModes {
		res.OutputModes = map[string][]ipc.OutputMode{}
	}
	for _, o := range outputs {
		res.Outputs = append(res.Outputs, o.Name())
		if !req.IncludeModes {
			continue
		}
		for _, m := range o.Modes() {
			res.OutputModes[o.Name()] = append(res.OutputModes[o.Name()], ipc.OutputMode{
				Width:       m.Size.W,
				Height:      m.Size.H,
				RefreshRate: m.Refresh,
				Preferred:   m == o.PreferredMode(),
			})
		}
	}
	return res
}
