// Package input maps keyboard shortcuts to application actions.
// It knows nothing about the UI toolkit; adapters translate their key events
// into a key name plus Modifier flags.
package input

import (
	"slices"
	"strings"
)

// Action is something a shortcut can trigger.
type Action int

const (
	ActionNone Action = iota
	ActionPlayPause
	ActionNext
	ActionPrevious
	ActionToggleAnimation
	ActionToggleFullscreen
	ActionToggleTheater
	ActionToggleFPS
	ActionDebugDump
)

var actionNames = map[Action]string{
	ActionNone:             "none",
	ActionPlayPause:        "play/pause",
	ActionNext:             "next song",
	ActionPrevious:         "previous song",
	ActionToggleAnimation:  "toggle animation",
	ActionToggleFullscreen: "toggle fullscreen",
	ActionToggleTheater:    "toggle theater mode",
	ActionToggleFPS:        "toggle fps",
	ActionDebugDump:        "debug dump",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// Modifier is a bit set of held modifier keys.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
)

// Gate is the modifier combination required when the keymap is gated.
const Gate = ModCtrl | ModShift

// Binding pairs a key with its action.
type Binding struct {
	Key    string
	Action Action
}

// Keymap resolves key presses to actions.
// With requireModifier set, a press only counts while Ctrl and Shift are held.
type Keymap struct {
	bindings        map[string]Action
	requireModifier bool
}

// NewKeymap creates an empty keymap.
func NewKeymap(requireModifier bool) *Keymap {
	return &Keymap{bindings: make(map[string]Action), requireModifier: requireModifier}
}

// DefaultKeymap returns the standard bindings.
func DefaultKeymap(requireModifier bool) *Keymap {
	k := NewKeymap(requireModifier)
	k.Bind("p", ActionPlayPause)
	k.Bind("n", ActionNext)
	k.Bind("b", ActionPrevious)
	k.Bind("]", ActionToggleAnimation)
	k.Bind("f", ActionToggleFullscreen)
	k.Bind("t", ActionToggleTheater)
	k.Bind("s", ActionToggleFPS)
	k.Bind("d", ActionDebugDump)
	return k
}

// Bind maps key to action, replacing an earlier binding. ActionNone unbinds.
func (k *Keymap) Bind(key string, action Action) {
	key = normalize(key)
	if action == ActionNone {
		delete(k.bindings, key)
		return
	}
	k.bindings[key] = action
}

// Lookup returns the action for a press of key with mods held.
func (k *Keymap) Lookup(key string, mods Modifier) Action {
	if k.requireModifier && mods&Gate != Gate {
		return ActionNone
	}
	return k.bindings[normalize(key)]
}

// RequiresModifier reports whether presses are gated behind Ctrl+Shift.
func (k *Keymap) RequiresModifier() bool {
	return k.requireModifier
}

// Bindings lists the bindings sorted by key.
func (k *Keymap) Bindings() []Binding {
	out := make([]Binding, 0, len(k.bindings))
	for key, action := range k.bindings {
		out = append(out, Binding{Key: key, Action: action})
	}
	slices.SortFunc(out, func(a, b Binding) int { return strings.Compare(a.Key, b.Key) })
	return out
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
