package check

import (
	"sort"

	"github.com/leapstack-labs/tern/pkg/types"
)

// Environment maps names to types through a stack of frames. Lookups walk
// from the innermost frame outwards; bindings always go to the innermost.
type Environment struct {
	frames []map[string]*types.Ty
}

// NewEnvironment returns an environment with a single global frame.
func NewEnvironment() *Environment {
	return &Environment{frames: []map[string]*types.Ty{{}}}
}

// Push opens a new innermost frame.
func (e *Environment) Push() {
	e.frames = append(e.frames, map[string]*types.Ty{})
}

// Pop discards the innermost frame. The global frame is never popped.
func (e *Environment) Pop() {
	if len(e.frames) > 1 {
		e.frames = e.frames[:len(e.frames)-1]
	}
}

// Depth returns the number of open frames, including the global one.
func (e *Environment) Depth() int {
	return len(e.frames)
}

// Bind adds or replaces name in the innermost frame.
func (e *Environment) Bind(name string, ty *types.Ty) {
	e.frames[len(e.frames)-1][name] = ty
}

// Lookup resolves name, innermost frame first.
func (e *Environment) Lookup(name string) (*types.Ty, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if ty, ok := e.frames[i][name]; ok {
			return ty, true
		}
	}
	return nil, false
}

// Names returns the names bound in the innermost frame, sorted.
func (e *Environment) Names() []string {
	frame := e.frames[len(e.frames)-1]
	names := make([]string, 0, len(frame))
	for name := range frame {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
