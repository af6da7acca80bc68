// Package dom is the small rendering-surface interface the page code drives:
// lookups, class and inline style mutation, event subscription, computed
// style reads and the viewport intersection primitive.
//
// Lookups return a nil interface when nothing matches. Callers guard every
// interaction with a nil check and skip the dependent behaviour.
package dom

// ReadyState mirrors document.readyState.
type ReadyState int

const (
	Loading ReadyState = iota
	Interactive
	Complete
)

func (s ReadyState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Interactive:
		return "interactive"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Rect is an element's bounding client rectangle.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Event is the subset of a DOM event the page reads.
type Event struct {
	Type    string
	Target  Element
	Key     string
	ClientX float64
	ClientY float64
	// Cancel is invoked by PreventDefault when set.
	Cancel func()
}

// PreventDefault cancels the platform's default action, if the event has one.
func (e Event) PreventDefault() {
	if e.Cancel != nil {
		e.Cancel()
	}
}

// Element is a rendering node.
type Element interface {
	AddClass(name string)
	RemoveClass(name string)
	HasClass(name string) bool
	SetStyle(property, value string)
	Style(property string) string
	ComputedStyle(property string) string
	Attr(name string) (string, bool)
	SetText(text string)
	Rect() Rect
	AppendChild(child Element)
	Remove()
	AddEventListener(event string, fn func(Event))
	// Once registers fn for the next occurrence of event only.
	Once(event string, fn func(Event))
}

// Form is a form element with named fields.
type Form interface {
	Element
	Value(name string) string
	Reset()
}

// Image is a loadable image resource.
type Image interface {
	Src() string
	Complete() bool
	OnLoad(fn func())
	OnError(fn func())
}

// IntersectionOptions configures an intersection observer.
type IntersectionOptions struct {
	Threshold  float64
	RootMargin string
}

// IntersectionEntry is one target's intersection change.
type IntersectionEntry struct {
	Target         Element
	IsIntersecting bool
	Ratio          float64
}

// IntersectionObserver is the platform's viewport intersection primitive.
type IntersectionObserver interface {
	Observe(el Element)
	Unobserve(el Element)
}

// Document is the page the code runs against.
type Document interface {
	ReadyState() ReadyState
	// OnContentLoaded runs fn once the document is structurally ready.
	OnContentLoaded(fn func())
	ByID(id string) Element
	Query(selector string) Element
	QueryAll(selector string) []Element
	Form(id string) Form
	// Images returns every image element currently in the document.
	Images() []Image
	// NewImage starts loading src in a detached image.
	NewImage(src string) Image
	CreateElement(tag string) Element
	Body() Element
	AddEventListener(event string, fn func(Event))
	// OnScroll subscribes to window scrolling with the vertical offset.
	OnScroll(fn func(scrollY float64))
	NewIntersectionObserver(opts IntersectionOptions, callback func([]IntersectionEntry)) IntersectionObserver
}
