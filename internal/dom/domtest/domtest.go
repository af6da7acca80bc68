// Package domtest provides an in-memory dom.Document for tests.
//
// Elements live in a tree rooted at the body; queries walk it in document
// order. Events, image loads and intersection notifications are triggered
// explicitly by the test.
package domtest

import (
	"strings"

	"github.com/Zachkp/resume-weblog/internal/dom"
)

// Document is a fake dom.Document.
type Document struct {
	State dom.ReadyState

	body      *Element
	forms     map[*Element]*Form
	images    []*Image
	detached  []*Image
	observers []*Observer
	listeners listenerSet
	scroll    []func(float64)
	ready     []func()
}

// NewDocument returns an interactive document with an empty body.
func NewDocument() *Document {
	d := &Document{
		State: dom.Interactive,
		forms: make(map[*Element]*Form),
	}
	d.body = newElement(d, "body")
	return d
}

// Append adds a new element at the end of the body.
func (d *Document) Append(tag string) *Element {
	el := newElement(d, tag)
	d.body.appendChild(el)
	return el
}

// AppendForm adds a form with the given id at the end of the body.
func (d *Document) AppendForm(id string) *Form {
	el := d.Append("form").WithID(id)
	f := &Form{Element: el, values: make(map[string]string)}
	d.forms[el] = f
	return f
}

// AddImage adds an image element with the given load state.
func (d *Document) AddImage(src string, complete bool) *Image {
	img := &Image{src: src, complete: complete}
	img.el = d.Append("img").WithAttr("src", src)
	d.images = append(d.images, img)
	return img
}

// DetachedImages returns images created through NewImage.
func (d *Document) DetachedImages() []*Image {
	return d.detached
}

// Observers returns every intersection observer created so far.
func (d *Document) Observers() []*Observer {
	return d.observers
}

// FireContentLoaded switches the document to interactive and runs the
// content-loaded callbacks.
func (d *Document) FireContentLoaded() {
	d.State = dom.Interactive
	callbacks := d.ready
	d.ready = nil
	for _, fn := range callbacks {
		fn()
	}
}

// Dispatch fires a document-level event.
func (d *Document) Dispatch(ev dom.Event) {
	d.listeners.dispatch(ev)
}

// KeyDown fires a document keydown with the given key.
func (d *Document) KeyDown(key string) {
	d.Dispatch(dom.Event{Type: "keydown", Key: key})
}

// Scroll notifies scroll listeners.
func (d *Document) Scroll(y float64) {
	for _, fn := range d.scroll {
		fn(y)
	}
}

func (d *Document) ReadyState() dom.ReadyState { return d.State }

func (d *Document) OnContentLoaded(fn func()) {
	d.ready = append(d.ready, fn)
}

func (d *Document) ByID(id string) dom.Element {
	if el := d.find(func(e *Element) bool { return e.id == id }); el != nil {
		return d.wrap(el)
	}
	return nil
}

func (d *Document) Query(selector string) dom.Element {
	match := compile(selector)
	if el := d.find(match); el != nil {
		return d.wrap(el)
	}
	return nil
}

func (d *Document) QueryAll(selector string) []dom.Element {
	match := compile(selector)
	var out []dom.Element
	d.body.walk(func(e *Element) {
		if match(e) {
			out = append(out, d.wrap(e))
		}
	})
	return out
}

func (d *Document) Form(id string) dom.Form {
	el := d.find(func(e *Element) bool { return e.id == id })
	if el == nil {
		return nil
	}
	f, ok := d.forms[el]
	if !ok {
		return nil
	}
	return f
}

func (d *Document) Images() []dom.Image {
	var out []dom.Image
	for _, img := range d.images {
		if img.el.attached() {
			out = append(out, img)
		}
	}
	return out
}

func (d *Document) NewImage(src string) dom.Image {
	img := &Image{src: src}
	d.detached = append(d.detached, img)
	return img
}

func (d *Document) CreateElement(tag string) dom.Element {
	return newElement(d, tag)
}

func (d *Document) Body() dom.Element { return d.body }

func (d *Document) AddEventListener(event string, fn func(dom.Event)) {
	d.listeners.add(event, fn, false)
}

func (d *Document) OnScroll(fn func(float64)) {
	d.scroll = append(d.scroll, fn)
}

func (d *Document) NewIntersectionObserver(opts dom.IntersectionOptions, callback func([]dom.IntersectionEntry)) dom.IntersectionObserver {
	o := &Observer{Options: opts, callback: callback}
	d.observers = append(d.observers, o)
	return o
}

func (d *Document) find(match func(*Element) bool) *Element {
	var found *Element
	d.body.walk(func(e *Element) {
		if found == nil && match(e) {
			found = e
		}
	})
	return found
}

// wrap returns the form wrapper for form elements so identity is stable.
func (d *Document) wrap(el *Element) dom.Element {
	if f, ok := d.forms[el]; ok {
		return f
	}
	return el
}

// compile supports "#id", ".class", "[attr]" and bare tag selectors.
func compile(selector string) func(*Element) bool {
	selector = strings.TrimSpace(selector)
	switch {
	case strings.HasPrefix(selector, "#"):
		id := selector[1:]
		return func(e *Element) bool { return e.id == id }
	case strings.HasPrefix(selector, "."):
		class := selector[1:]
		return func(e *Element) bool { return e.HasClass(class) }
	case strings.HasPrefix(selector, "[") && strings.HasSuffix(selector, "]"):
		attr := selector[1 : len(selector)-1]
		return func(e *Element) bool {
			_, ok := e.attrs[attr]
			return ok
		}
	default:
		return func(e *Element) bool { return e.tag == selector }
	}
}

// Form is a fake dom.Form.
type Form struct {
	*Element
	values map[string]string
	resets int
}

// Set fills a named field.
func (f *Form) Set(name, value string) *Form {
	f.values[name] = value
	return f
}

// Submit dispatches a cancelable submit event and reports whether the
// default action was prevented.
func (f *Form) Submit() bool {
	prevented := false
	f.Dispatch(dom.Event{Type: "submit", Target: f, Cancel: func() { prevented = true }})
	return prevented
}

// Resets returns how many times Reset was called.
func (f *Form) Resets() int { return f.resets }

func (f *Form) Value(name string) string { return f.values[name] }

func (f *Form) Reset() {
	f.values = make(map[string]string)
	f.resets++
}

// Image is a fake dom.Image.
type Image struct {
	el       *Element
	src      string
	complete bool
	onLoad   []func()
	onError  []func()
}

// Load marks the image complete and fires its load listeners.
func (i *Image) Load() {
	i.complete = true
	for _, fn := range i.onLoad {
		fn()
	}
}

// Fail fires the image's error listeners.
func (i *Image) Fail() {
	i.complete = true
	for _, fn := range i.onError {
		fn()
	}
}

func (i *Image) Src() string { return i.src }
func (i *Image) Complete() bool { return i.complete }
func (i *Image) OnLoad(fn func()) { i.onLoad = append(i.onLoad, fn) }
func (i *Image) OnError(fn func()) { i.onError = append(i.onError, fn) }

// Listeners returns the number of load and error listeners registered.
func (i *Image) Listeners() (load, fail int) {
	return len(i.onLoad), len(i.onError)
}

// Observer is a fake intersection observer.
type Observer struct {
	Options  dom.IntersectionOptions
	callback func([]dom.IntersectionEntry)
	observed []dom.Element
}

// Observing reports whether el is currently observed.
func (o *Observer) Observing(el dom.Element) bool {
	for _, e := range o.observed {
		if e == el {
			return true
		}
	}
	return false
}

// Observed returns the observed elements in registration order.
func (o *Observer) Observed() []dom.Element {
	return append([]dom.Element(nil), o.observed...)
}

// Intersect delivers one batch of intersecting entries for the given
// elements that are still observed, the way the platform filters targets.
func (o *Observer) Intersect(els ...dom.Element) {
	var entries []dom.IntersectionEntry
	for _, el := range els {
		if o.Observing(el) {
			entries = append(entries, dom.IntersectionEntry{Target: el, IsIntersecting: true, Ratio: 1})
		}
	}
	if len(entries) > 0 {
		o.callback(entries)
	}
}

// Deliver hands entries to the callback without filtering.
func (o *Observer) Deliver(entries ...dom.IntersectionEntry) {
	o.callback(entries)
}

func (o *Observer) Observe(el dom.Element) {
	if el == nil || o.Observing(el) {
		return
	}
	o.observed = append(o.observed, el)
}

func (o *Observer) Unobserve(el dom.Element) {
	for i, e := range o.observed {
		if e == el {
			o.observed = append(o.observed[:i], o.observed[i+1:]...)
			return
		}
	}
}
