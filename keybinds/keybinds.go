// Package keybinds turns the keybinds table of the config into actions. The compositor core
// never looks into the table, backends hand the filter built here to the seat
package keybinds

import (
	"os/exec"
	"sort"
	"strings"

	"github.com/mstarongithub/wayspace/config"
	"github.com/mstarongithub/wayspace/seat"
	"github.com/mstarongithub/wayspace/wl"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Actions is what a keybind can make the compositor do
type Actions interface {
	Spawn(cmdline string) (*exec.Cmd, error)
	CloseFocused()
	Stop()
}

// Names of the linux input event codes a keybind can use
var keyNames = map[uint32]string{
	1: "escape", 14: "backspace", 15: "tab", 28: "enter", 57: "space",
	2: "1", 3: "2", 4: "3", 5: "4", 6: "5", 7: "6", 8: "7", 9: "8", 10: "9", 11: "0",
	16: "q", 17: "w", 18: "e", 19: "r", 20: "t", 21: "y", 22: "u", 23: "i", 24: "o", 25: "p",
	30: "a", 31: "s", 32: "d", 33: "f", 34: "g", 35: "h", 36: "j", 37: "k", 38: "l",
	44: "z", 45: "x", 46: "c", 47: "v", 48: "b", 49: "n", 50: "m",
	59: "f1", 60: "f2", 61: "f3", 62: "f4", 63: "f5", 64: "f6",
	65: "f7", 66: "f8", 67: "f9", 68: "f10", 87: "f11", 88: "f12",
	103: "up", 105: "left", 106: "right", 108: "down",
}

// Combo names a key together with the held modifiers, e.g. "ctrl+alt+t".
// Modifiers come in a fixed order, keys without a name return ""
func Combo(key uint32, mods wl.Modifiers) string {
	name, ok := keyNames[key]
	if !ok {
		return ""
	}
	parts := []string{}
	if mods.Ctrl {
		parts = append(parts, "ctrl")
	}
	if mods.Alt {
		parts = append(parts, "alt")
	}
	if mods.Shift {
		parts = append(parts, "shift")
	}
	if mods.Logo {
		parts = append(parts, "logo")
	}
	return strings.Join(append(parts, name), "+")
}

// normalizeCombo brings a combo from the keybinds file into the order Combo produces
func normalizeCombo(combo string) string {
	order := map[string]int{"ctrl": 0, "alt": 1, "shift": 2, "logo": 3, "super": 3}
	parts := strings.Split(strings.ToLower(strings.ReplaceAll(combo, " ", "")), "+")
	if len(parts) == 0 {
		return ""
	}
	key := parts[len(parts)-1]
	mods := parts[:len(parts)-1]
	for i, m := range mods {
		if m == "super" {
			mods[i] = "logo"
		}
	}
	sort.Slice(mods, func(i, j int) bool { return order[mods[i]] < order[mods[j]] })
	return strings.Join(append(mods, key), "+")
}

type Bindings struct {
	binds   map[string][]string
	actions Actions
}

// New normalizes the combos of table once, key presses only look them up
func New(table config.Keybinds, actions Actions) *Bindings {
	b := &Bindings{binds: make(map[string][]string, len(table)), actions: actions}
	for combo, action := range table {
		b.binds[normalizeCombo(combo)] = action
	}
	return b
}

// Filter intercepts key presses that are bound and runs their action
func (b *Bindings) Filter() seat.FilterFunc {
	return b.filter
}

func (b *Bindings) filter(key uint32, state wl.KeyState, mods wl.Modifiers) bool {
	if state != wl.KeyPressed {
		return false
	}
	action, ok := b.binds[Combo(key, mods)]
	if !ok {
		return false
	}
	if err := b.Run(action); err != nil {
		logrus.WithError(err).WithField("action", action).Warnln("Keybind action failed")
	}
	return true
}

// Run executes one action: run <command...>, close or quit
func (b *Bindings) Run(action []string) error {
	if len(action) == 0 {
		return errors.New("empty action")
	}
	switch action[0] {
	case "run":
		_, err := b.actions.Spawn(strings.Join(action[1:], " "))
		return err
	case "close":
		b.actions.CloseFocused()
		return nil
	case "quit":
		b.actions.Stop()
		return nil
	default:
		return errors.Errorf("unknown action %q", action[0])
	}
}
