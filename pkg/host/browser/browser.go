//go:build js && wasm

// Package browser implements host.Host on window.location and
// window.history when compiled to WebAssembly.
package browser

import (
	"strings"
	"sync"
	"syscall/js"

	"github.com/vango-dev/navroute/pkg/host"
)

// Host reads and mutates the page's real location.
type Host struct {
	window js.Value

	mu        sync.Mutex
	listeners map[host.EventKind]map[int]func(host.Location)
	nextID    int
	funcs     map[host.EventKind]js.Func
}

var _ host.Host = (*Host)(nil)

// New returns a Host bound to the global window.
func New() *Host {
	return &Host{
		window:    js.Global(),
		listeners: make(map[host.EventKind]map[int]func(host.Location)),
		funcs:     make(map[host.EventKind]js.Func),
	}
}

// Location implements host.Host.
func (h *Host) Location() host.Location {
	loc := h.window.Get("location")
	return host.Location{
		Path:     loc.Get("pathname").String(),
		Query:    strings.TrimPrefix(loc.Get("search").String(), "?"),
		Fragment: strings.TrimPrefix(loc.Get("hash").String(), "#"),
	}
}

// Push implements host.Host with history.pushState, which raises no event.
func (h *Host) Push(path string) {
	h.window.Get("history").Call("pushState", js.Null(), "", path)
}

// SetFragment implements host.Host. The browser raises hashchange when the
// value differs.
func (h *Host) SetFragment(fragment string) {
	h.window.Get("location").Set("hash", fragment)
}

// Listen implements host.Host. One DOM listener per event kind is attached
// on first use.
func (h *Host) Listen(kind host.EventKind, fn func(host.Location)) (cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.listeners[kind] == nil {
		h.listeners[kind] = make(map[int]func(host.Location))
	}
	id := h.nextID
	h.nextID++
	h.listeners[kind][id] = fn

	if _, ok := h.funcs[kind]; !ok {
		f := js.FuncOf(func(js.Value, []js.Value) any {
			h.fire(kind)
			return nil
		})
		h.funcs[kind] = f
		h.window.Call("addEventListener", kind.String(), f)
	}

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners[kind], id)
		if len(h.listeners[kind]) == 0 {
			if f, ok := h.funcs[kind]; ok {
				h.window.Call("removeEventListener", kind.String(), f)
				f.Release()
				delete(h.funcs, kind)
			}
		}
	}
}

func (h *Host) fire(kind host.EventKind) {
	loc := h.Location()

	h.mu.Lock()
	fns := make([]func(host.Location), 0, len(h.listeners[kind]))
	for id := 0; id < h.nextID; id++ {
		if fn, ok := h.listeners[kind][id]; ok {
			fns = append(fns, fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(loc)
	}
}
