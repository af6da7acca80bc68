//go:build js && wasm

// Package jsdom implements the dom interfaces over the browser DOM through
// syscall/js, together with a setTimeout-backed scheduler.
package jsdom

import (
	"syscall/js"
	"time"

	"github.com/Zachkp/resume-weblog/internal/dom"
	"github.com/Zachkp/resume-weblog/internal/eventloop"
)

// nodeKey is the JS property holding a node's wrapper id, so one DOM node
// always maps to the same Go value.
const nodeKey = "__weblogNode"

// Document wraps window.document.
type Document struct {
	window js.Value
	doc    js.Value
	nodes  map[int]*element
	next   int
}

// New wraps the global document.
func New() *Document {
	return &Document{
		window: js.Global(),
		doc:    js.Global().Get("document"),
		nodes:  make(map[int]*element),
	}
}

func (d *Document) wrap(v js.Value) *element {
	if v.IsNull() || v.IsUndefined() {
		return nil
	}
	if id := v.Get(nodeKey); id.Type() == js.TypeNumber {
		if el, ok := d.nodes[id.Int()]; ok {
			return el
		}
	}
	d.next++
	v.Set(nodeKey, d.next)
	el := &element{doc: d, v: v, id: d.next}
	d.nodes[d.next] = el
	return el
}

// element converts a wrapper into a dom.Element without producing a typed
// nil interface.
func (d *Document) element(v js.Value) dom.Element {
	if el := d.wrap(v); el != nil {
		return el
	}
	return nil
}

func (d *Document) ReadyState() dom.ReadyState {
	switch d.doc.Get("readyState").String() {
	case "loading":
		return dom.Loading
	case "complete":
		return dom.Complete
	default:
		return dom.Interactive
	}
}

func (d *Document) OnContentLoaded(fn func()) {
	var cb js.Func
	cb = js.FuncOf(func(js.Value, []js.Value) any {
		cb.Release()
		fn()
		return nil
	})
	d.doc.Call("addEventListener", "DOMContentLoaded", cb, map[string]any{"once": true})
}

func (d *Document) ByID(id string) dom.Element {
	return d.element(d.doc.Call("getElementById", id))
}

func (d *Document) Query(selector string) dom.Element {
	return d.element(d.doc.Call("querySelector", selector))
}

func (d *Document) QueryAll(selector string) []dom.Element {
	list := d.doc.Call("querySelectorAll", selector)
	n := list.Length()
	out := make([]dom.Element, 0, n)
	for i := 0; i < n; i++ {
		if el := d.wrap(list.Index(i)); el != nil {
			out = append(out, el)
		}
	}
	return out
}

func (d *Document) Form(id string) dom.Form {
	el := d.wrap(d.doc.Call("getElementById", id))
	if el == nil || el.v.Get("tagName").String() != "FORM" {
		return nil
	}
	return &form{element: el}
}

func (d *Document) Images() []dom.Image {
	list := d.doc.Call("querySelectorAll", "img")
	n := list.Length()
	out := make([]dom.Image, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &image{el: d.wrap(list.Index(i))})
	}
	return out
}

func (d *Document) NewImage(src string) dom.Image {
	v := d.window.Get("Image").New()
	v.Set("src", src)
	return &image{el: d.wrap(v)}
}

func (d *Document) CreateElement(tag string) dom.Element {
	return d.element(d.doc.Call("createElement", tag))
}

func (d *Document) Body() dom.Element {
	return d.element(d.doc.Get("body"))
}

func (d *Document) AddEventListener(event string, fn func(dom.Event)) {
	d.doc.Call("addEventListener", event, d.listener(fn))
}

func (d *Document) OnScroll(fn func(float64)) {
	cb := js.FuncOf(func(js.Value, []js.Value) any {
		fn(d.window.Get("pageYOffset").Float())
		return nil
	})
	d.window.Call("addEventListener", "scroll", cb, map[string]any{"passive": true})
}

func (d *Document) NewIntersectionObserver(opts dom.IntersectionOptions, callback func([]dom.IntersectionEntry)) dom.IntersectionObserver {
	cb := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		list := args[0]
		n := list.Length()
		entries := make([]dom.IntersectionEntry, 0, n)
		for i := 0; i < n; i++ {
			e := list.Index(i)
			entries = append(entries, dom.IntersectionEntry{
				Target:         d.element(e.Get("target")),
				IsIntersecting: e.Get("isIntersecting").Bool(),
				Ratio:          e.Get("intersectionRatio").Float(),
			})
		}
		callback(entries)
		return nil
	})
	v := d.window.Get("IntersectionObserver").New(cb, map[string]any{
		"threshold":  opts.Threshold,
		"rootMargin": opts.RootMargin,
	})
	return &observer{v: v}
}

// listener adapts fn into a JS event handler that lives as long as the page.
func (d *Document) listener(fn func(dom.Event)) js.Func {
	return js.FuncOf(func(_ js.Value, args []js.Value) any {
		fn(d.eventArg(args))
		return nil
	})
}

func (d *Document) eventArg(args []js.Value) dom.Event {
	if len(args) == 0 {
		return dom.Event{}
	}
	return d.event(args[0])
}

func (d *Document) event(v js.Value) dom.Event {
	ev := dom.Event{
		Type:   v.Get("type").String(),
		Target: d.element(v.Get("target")),
		Cancel: func() { v.Call("preventDefault") },
	}
	if key := v.Get("key"); key.Type() == js.TypeString {
		ev.Key = key.String()
	}
	if x := v.Get("clientX"); x.Type() == js.TypeNumber {
		ev.ClientX = x.Float()
		ev.ClientY = v.Get("clientY").Float()
	}
	return ev
}

type handler struct {
	event string
	fn    js.Func
}

type element struct {
	doc      *Document
	v        js.Value
	id       int
	handlers map[int]handler
	nextH    int
}

// listen attaches fn for event and returns a handle for unlisten. Once
// handlers detach and release themselves after the first call.
func (e *element) listen(event string, fn func(dom.Event), once bool) int {
	e.nextH++
	h := e.nextH
	cb := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if once {
			defer e.unlisten(h)
		}
		fn(e.doc.eventArg(args))
		return nil
	})
	if e.handlers == nil {
		e.handlers = make(map[int]handler)
	}
	e.handlers[h] = handler{event: event, fn: cb}
	e.v.Call("addEventListener", event, cb)
	return h
}

func (e *element) unlisten(h int) {
	hd, ok := e.handlers[h]
	if !ok {
		return
	}
	delete(e.handlers, h)
	e.v.Call("removeEventListener", hd.event, hd.fn)
	hd.fn.Release()
}

// forget drops the wrapper and releases its handlers. The node must no
// longer be in the page.
func (e *element) forget() {
	for h := range e.handlers {
		e.unlisten(h)
	}
	delete(e.doc.nodes, e.id)
	e.v.Delete(nodeKey)
}

func (e *element) AddClass(name string)    { e.v.Get("classList").Call("add", name) }
func (e *element) RemoveClass(name string) { e.v.Get("classList").Call("remove", name) }

func (e *element) HasClass(name string) bool {
	return e.v.Get("classList").Call("contains", name).Bool()
}

func (e *element) SetStyle(property, value string) {
	style := e.v.Get("style")
	if value == "" {
		style.Call("removeProperty", property)
		return
	}
	style.Call("setProperty", property, value)
}

func (e *element) Style(property string) string {
	return e.v.Get("style").Call("getPropertyValue", property).String()
}

func (e *element) ComputedStyle(property string) string {
	return e.doc.window.Call("getComputedStyle", e.v).Call("getPropertyValue", property).String()
}

func (e *element) Attr(name string) (string, bool) {
	if !e.v.Call("hasAttribute", name).Bool() {
		return "", false
	}
	return e.v.Call("getAttribute", name).String(), true
}

func (e *element) SetText(text string) { e.v.Set("textContent", text) }

func (e *element) Rect() dom.Rect {
	r := e.v.Call("getBoundingClientRect")
	return dom.Rect{
		Left:   r.Get("left").Float(),
		Top:    r.Get("top").Float(),
		Width:  r.Get("width").Float(),
		Height: r.Get("height").Float(),
	}
}

func (e *element) AppendChild(child dom.Element) {
	switch c := child.(type) {
	case *element:
		e.v.Call("appendChild", c.v)
	case *form:
		e.v.Call("appendChild", c.v)
	}
}

func (e *element) Remove() {
	e.v.Call("remove")
	e.forget()
}

func (e *element) AddEventListener(event string, fn func(dom.Event)) {
	e.listen(event, fn, false)
}

func (e *element) Once(event string, fn func(dom.Event)) {
	e.listen(event, fn, true)
}

type form struct {
	*element
}

func (f *form) Value(name string) string {
	v := f.doc.window.Get("FormData").New(f.v).Call("get", name)
	if v.Type() != js.TypeString {
		return ""
	}
	return v.String()
}

func (f *form) Reset() { f.v.Call("reset") }

type image struct {
	el      *element
	pending []int
}

func (i *image) Src() string    { return i.el.v.Get("src").String() }
func (i *image) Complete() bool { return i.el.v.Get("complete").Bool() }

func (i *image) OnLoad(fn func())  { i.settle("load", fn) }
func (i *image) OnError(fn func()) { i.settle("error", fn) }

// settle attaches a one-shot outcome handler. Load and error exclude each
// other, so whichever fires first releases both. A detached image, such as
// the off-page background loader, is forgotten once it settles.
func (i *image) settle(event string, fn func()) {
	i.pending = append(i.pending, i.el.listen(event, func(dom.Event) {
		for _, h := range i.pending {
			i.el.unlisten(h)
		}
		i.pending = nil
		if !i.el.v.Get("isConnected").Truthy() {
			i.el.forget()
		}
		fn()
	}, false))
}

type observer struct {
	v js.Value
}

func (o *observer) Observe(el dom.Element) {
	if v, ok := value(el); ok {
		o.v.Call("observe", v)
	}
}

func (o *observer) Unobserve(el dom.Element) {
	if v, ok := value(el); ok {
		o.v.Call("unobserve", v)
	}
}

func value(el dom.Element) (js.Value, bool) {
	switch e := el.(type) {
	case *element:
		return e.v, true
	case *form:
		return e.v, true
	}
	return js.Undefined(), false
}

// Scheduler runs callbacks through window.setTimeout.
type Scheduler struct{}

func (Scheduler) AfterFunc(d time.Duration, fn func()) eventloop.Timer {
	t := &timer{}
	t.cb = js.FuncOf(func(js.Value, []js.Value) any {
		t.fired = true
		t.cb.Release()
		fn()
		return nil
	})
	t.id = js.Global().Call("setTimeout", t.cb, d.Milliseconds())
	return t
}

type timer struct {
	id      js.Value
	cb      js.Func
	fired   bool
	stopped bool
}

func (t *timer) Stop() bool {
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	js.Global().Call("clearTimeout", t.id)
	t.cb.Release()
	return true
}
