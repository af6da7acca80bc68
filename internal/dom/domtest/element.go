package domtest

import (
	"slices"

	"github.com/Zachkp/resume-weblog/internal/dom"
)

// Element is a fake dom.Element.
type Element struct {
	doc      *Document
	tag      string
	id       string
	classes  []string
	styles   map[string]string
	computed map[string]string
	attrs    map[string]string
	text     string
	rect     dom.Rect
	parent   *Element
	children []*Element

	listeners listenerSet
}

func newElement(doc *Document, tag string) *Element {
	return &Element{
		doc:      doc,
		tag:      tag,
		styles:   make(map[string]string),
		computed: make(map[string]string),
		attrs:    make(map[string]string),
	}
}

// WithID sets the element id.
func (e *Element) WithID(id string) *Element {
	e.id = id
	e.attrs["id"] = id
	return e
}

// WithClass adds classes.
func (e *Element) WithClass(names ...string) *Element {
	for _, name := range names {
		e.AddClass(name)
	}
	return e
}

// WithAttr sets an attribute.
func (e *Element) WithAttr(name, value string) *Element {
	e.attrs[name] = value
	return e
}

// WithComputed sets a computed style value.
func (e *Element) WithComputed(property, value string) *Element {
	e.computed[property] = value
	return e
}

// WithRect sets the bounding rectangle.
func (e *Element) WithRect(r dom.Rect) *Element {
	e.rect = r
	return e
}

// Tag returns the element's tag name.
func (e *Element) Tag() string { return e.tag }

// Text returns the element's text content.
func (e *Element) Text() string { return e.text }

// Classes returns the class list in insertion order.
func (e *Element) Classes() []string {
	return append([]string(nil), e.classes...)
}

// Children returns the attached children.
func (e *Element) Children() []*Element {
	return append([]*Element(nil), e.children...)
}

// Parent returns the parent element, or nil when detached.
func (e *Element) Parent() *Element { return e.parent }

// ListenerCount returns the number of listeners registered for event.
func (e *Element) ListenerCount(event string) int {
	return e.listeners.count(event)
}

// Dispatch fires ev on the element. Target defaults to the element.
func (e *Element) Dispatch(ev dom.Event) {
	if ev.Target == nil {
		ev.Target = e.doc.wrap(e)
	}
	e.listeners.dispatch(ev)
}

// Fire dispatches a bare event of the given type.
func (e *Element) Fire(event string) {
	e.Dispatch(dom.Event{Type: event})
}

// Click dispatches a click targeted at the element.
func (e *Element) Click() {
	e.Fire("click")
}

func (e *Element) AddClass(name string) {
	if !slices.Contains(e.classes, name) {
		e.classes = append(e.classes, name)
	}
}

func (e *Element) RemoveClass(name string) {
	e.classes = slices.DeleteFunc(e.classes, func(c string) bool { return c == name })
}

func (e *Element) HasClass(name string) bool {
	return slices.Contains(e.classes, name)
}

func (e *Element) SetStyle(property, value string) {
	if value == "" {
		delete(e.styles, property)
		return
	}
	e.styles[property] = value
}

func (e *Element) Style(property string) string {
	return e.styles[property]
}

func (e *Element) ComputedStyle(property string) string {
	if v, ok := e.styles[property]; ok {
		return v
	}
	return e.computed[property]
}

func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

func (e *Element) SetText(text string) { e.text = text }

func (e *Element) Rect() dom.Rect { return e.rect }

func (e *Element) AppendChild(child dom.Element) {
	switch c := child.(type) {
	case *Element:
		e.appendChild(c)
	case *Form:
		e.appendChild(c.Element)
	}
}

func (e *Element) Remove() {
	if e.parent == nil {
		return
	}
	p := e.parent
	p.children = slices.DeleteFunc(p.children, func(c *Element) bool { return c == e })
	e.parent = nil
}

func (e *Element) AddEventListener(event string, fn func(dom.Event)) {
	e.listeners.add(event, fn, false)
}

func (e *Element) Once(event string, fn func(dom.Event)) {
	e.listeners.add(event, fn, true)
}

func (e *Element) appendChild(child *Element) {
	child.Remove()
	child.parent = e
	e.children = append(e.children, child)
}

// attached reports whether the element is reachable from the body.
func (e *Element) attached() bool {
	for n := e; n != nil; n = n.parent {
		if n == e.doc.body {
			return true
		}
	}
	return false
}

func (e *Element) walk(fn func(*Element)) {
	for _, c := range e.children {
		fn(c)
		c.walk(fn)
	}
}

type listener struct {
	fn   func(dom.Event)
	once bool
}

type listenerSet struct {
	byType map[string][]*listener
}

func (s *listenerSet) add(event string, fn func(dom.Event), once bool) {
	if fn == nil {
		return
	}
	if s.byType == nil {
		s.byType = make(map[string][]*listener)
	}
	s.byType[event] = append(s.byType[event], &listener{fn: fn, once: once})
}

func (s *listenerSet) count(event string) int {
	return len(s.byType[event])
}

func (s *listenerSet) dispatch(ev dom.Event) {
	current := append([]*listener(nil), s.byType[ev.Type]...)
	for _, l := range current {
		if l.once {
			s.byType[ev.Type] = slices.DeleteFunc(s.byType[ev.Type], func(x *listener) bool { return x == l })
		}
		l.fn(ev)
	}
}
