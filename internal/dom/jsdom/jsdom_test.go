//go:build js && wasm

package jsdom

import (
	"syscall/js"
	"testing"

	"github.com/Zachkp/resume-weblog/internal/dom"
)

// fakeNode is a plain JS object with just enough of the EventTarget and
// Node surface for the wrappers.
const fakeNode = `(function () {
	return {
		listeners: {},
		isConnected: false,
		removed: 0,
		addEventListener: function (type, fn) {
			(this.listeners[type] = this.listeners[type] || []).push(fn);
		},
		removeEventListener: function (type, fn) {
			var l = this.listeners[type] || [];
			var i = l.indexOf(fn);
			if (i >= 0) { l.splice(i, 1); }
		},
		dispatch: function (type) {
			var l = (this.listeners[type] || []).slice();
			for (var i = 0; i < l.length; i++) { l[i]({type: type}); }
		},
		count: function () {
			var n = 0;
			for (var k in this.listeners) { n += this.listeners[k].length; }
			return n;
		},
		remove: function () { this.removed++; }
	};
})`

func newFake(t *testing.T) js.Value {
	t.Helper()
	return js.Global().Call("eval", fakeNode).Invoke()
}

func newTestDocument() *Document {
	return &Document{window: js.Global(), nodes: make(map[int]*element)}
}

func TestWrapReusesWrapper(t *testing.T) {
	d := newTestDocument()
	v := newFake(t)
	if d.wrap(v) != d.wrap(v) {
		t.Fatal("same node wrapped twice")
	}
	if len(d.nodes) != 1 {
		t.Fatalf("nodes = %d, want 1", len(d.nodes))
	}
}

func TestRemoveForgetsWrapper(t *testing.T) {
	d := newTestDocument()
	v := newFake(t)
	el := d.wrap(v)
	el.AddEventListener("click", func(dom.Event) {})
	el.Once("mouseup", func(dom.Event) {})

	el.Remove()

	if got := v.Get("removed").Int(); got != 1 {
		t.Fatalf("remove calls = %d, want 1", got)
	}
	if len(d.nodes) != 0 {
		t.Fatalf("nodes = %d, want 0", len(d.nodes))
	}
	if got := v.Call("count").Int(); got != 0 {
		t.Fatalf("listeners left = %d, want 0", got)
	}
	if !v.Get(nodeKey).IsUndefined() {
		t.Fatal("wrapper id left on node")
	}
}

func TestOnceDetachesAfterFirstEvent(t *testing.T) {
	d := newTestDocument()
	v := newFake(t)
	el := d.wrap(v)
	calls := 0
	el.Once("animationend", func(dom.Event) { calls++ })

	v.Call("dispatch", "animationend")
	v.Call("dispatch", "animationend")

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if got := v.Call("count").Int(); got != 0 {
		t.Fatalf("listeners left = %d, want 0", got)
	}
}

func TestImageSettleReleasesSibling(t *testing.T) {
	for _, event := range []string{"load", "error"} {
		t.Run(event, func(t *testing.T) {
			d := newTestDocument()
			v := newFake(t)
			img := &image{el: d.wrap(v)}
			var loaded, failed int
			img.OnLoad(func() { loaded++ })
			img.OnError(func() { failed++ })
			if got := v.Call("count").Int(); got != 2 {
				t.Fatalf("listeners = %d, want 2", got)
			}

			v.Call("dispatch", event)
			v.Call("dispatch", "load")
			v.Call("dispatch", "error")

			if loaded+failed != 1 {
				t.Fatalf("loaded = %d, failed = %d, want one outcome", loaded, failed)
			}
			if got := v.Call("count").Int(); got != 0 {
				t.Fatalf("listeners left = %d, want 0", got)
			}
			if len(d.nodes) != 0 {
				t.Fatalf("detached image still wrapped: %d nodes", len(d.nodes))
			}
		})
	}
}

func TestConnectedImageKeepsWrapper(t *testing.T) {
	d := newTestDocument()
	v := newFake(t)
	v.Set("isConnected", true)
	img := &image{el: d.wrap(v)}
	img.OnLoad(func() {})
	img.OnError(func() {})

	v.Call("dispatch", "load")

	if len(d.nodes) != 1 {
		t.Fatalf("nodes = %d, want 1", len(d.nodes))
	}
	if got := v.Call("count").Int(); got != 0 {
		t.Fatalf("listeners left = %d, want 0", got)
	}
}
