// Package reveal marks elements as animated the first time they scroll into
// view.
package reveal

import "github.com/Zachkp/resume-weblog/internal/dom"

const (
	// Threshold is the visible fraction that counts as intersecting.
	Threshold = 0.1
	// RootMargin shrinks the viewport bottom so reveal fires slightly before
	// the element reaches the literal edge.
	RootMargin = "0px 0px -50px 0px"
	// AnimatedClass is the durable marker left on revealed elements.
	AnimatedClass = "animated"
)

// State is an element's position in the reveal lifecycle.
type State int

const (
	Unregistered State = iota
	Registered
	Revealed
)

func (s State) String() string {
	switch s {
	case Registered:
		return "registered"
	case Revealed:
		return "revealed"
	default:
		return "unregistered"
	}
}

// Watcher tracks registered elements against the viewport. Each element
// moves registered -> revealed exactly once; revealed is terminal.
type Watcher struct {
	observer dom.IntersectionObserver
	states   map[dom.Element]State
	onReveal func(dom.Element)
}

// New creates a watcher backed by the document's intersection observer.
// onReveal, when non-nil, runs after each element is revealed.
func New(doc dom.Document, onReveal func(dom.Element)) *Watcher {
	w := &Watcher{
		states:   make(map[dom.Element]State),
		onReveal: onReveal,
	}
	w.observer = doc.NewIntersectionObserver(dom.IntersectionOptions{
		Threshold:  Threshold,
		RootMargin: RootMargin,
	}, w.handle)
	return w
}

// Observe registers el. Revealed elements are never registered again.
func (w *Watcher) Observe(el dom.Element) {
	if el == nil || w.states[el] != Unregistered {
		return
	}
	w.states[el] = Registered
	w.observer.Observe(el)
}

// Unobserve drops a registered element before it is revealed.
func (w *Watcher) Unobserve(el dom.Element) {
	if el == nil || w.states[el] != Registered {
		return
	}
	delete(w.states, el)
	w.observer.Unobserve(el)
}

// State returns el's current lifecycle state.
func (w *Watcher) State(el dom.Element) State {
	return w.states[el]
}

// Pending returns the number of registered, not yet revealed elements.
func (w *Watcher) Pending() int {
	n := 0
	for _, s := range w.states {
		if s == Registered {
			n++
		}
	}
	return n
}

func (w *Watcher) handle(entries []dom.IntersectionEntry) {
	for _, entry := range entries {
		if !entry.IsIntersecting {
			continue
		}
		w.reveal(entry.Target)
	}
}

// reveal is the only transition out of Registered.
func (w *Watcher) reveal(el dom.Element) {
	if el == nil || w.states[el] != Registered {
		return
	}
	w.states[el] = Revealed
	el.AddClass(AnimatedClass)
	w.observer.Unobserve(el)
	if w.onReveal != nil {
		w.onReveal(el)
	}
}
