// Package readiness holds the page back until its images have loaded.
package readiness

import (
	"log"
	"regexp"
	"time"

	"github.com/Zachkp/resume-weblog/internal/dom"
	"github.com/Zachkp/resume-weblog/internal/eventloop"
)

const (
	// DefaultTimeout is the ceiling after which the gate opens regardless.
	DefaultTimeout = 10 * time.Second
	// DefaultSettle is the pause inserted before opening when nothing is
	// left to wait for.
	DefaultSettle = 300 * time.Millisecond
	// DefaultBackground selects the element whose background image is
	// gated alongside the img elements.
	DefaultBackground = ".background-image"
)

var backgroundURL = regexp.MustCompile(`url\(['"]?([^'"]+)['"]?\)`)

// BackgroundURL extracts the URL from a computed background-image value.
func BackgroundURL(style string) (string, bool) {
	if style == "" || style == "none" {
		return "", false
	}
	m := backgroundURL.FindStringSubmatch(style)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Gate waits for every image discovered at call time to load or fail.
type Gate struct {
	Timeout    time.Duration
	Settle     time.Duration
	Background string

	doc    dom.Document
	sched  eventloop.Scheduler
	logger *log.Logger
}

// New returns a gate with the default timeout, settle delay and background
// selector. A nil logger logs through the standard logger.
func New(doc dom.Document, sched eventloop.Scheduler, logger *log.Logger) *Gate {
	if logger == nil {
		logger = log.Default()
	}
	return &Gate{
		Timeout:    DefaultTimeout,
		Settle:     DefaultSettle,
		Background: DefaultBackground,
		doc:        doc,
		sched:      sched,
		logger:     logger,
	}
}

// Wait returns a future that resolves once all discovered images are loaded
// or failed (after the settle delay), or once the timeout fires, whichever
// comes first. The future never rejects and resolves exactly once.
//
// Images are discovered once, when Wait is called. Images inserted later are
// not waited for.
func (g *Gate) Wait() *eventloop.Future {
	future, resolve := eventloop.NewFuture()

	if g.doc.ReadyState() == dom.Complete {
		g.logger.Println("All resources already loaded")
		g.sched.AfterFunc(g.Settle, func() { resolve() })
		return future
	}

	images := g.discover()
	g.logger.Printf("Loading %d images...", len(images))
	if len(images) == 0 {
		g.logger.Println("No images to load")
		g.sched.AfterFunc(g.Settle, func() { resolve() })
		return future
	}

	timeout := g.sched.AfterFunc(g.Timeout, func() {
		if resolve() {
			g.logger.Println("Loading timeout, opening the page")
		}
	})

	t := &tracker{total: len(images)}
	t.onComplete = func() {
		g.logger.Println("All images loaded")
		g.sched.AfterFunc(g.Settle, func() {
			if resolve() {
				timeout.Stop()
			}
		})
	}
	t.onProgress = func(done, total int) {
		g.logger.Printf("Loaded %d/%d images", done, total)
	}

	for _, img := range images {
		r := &resource{img: img}
		t.resources = append(t.resources, r)
		if img.Complete() {
			t.settle(r, loaded)
			continue
		}
		img.OnLoad(func() { t.settle(r, loaded) })
		img.OnError(func() {
			g.logger.Printf("WARNING: image failed to load: %s", img.Src())
			t.settle(r, failed)
		})
	}
	return future
}

// discover collects the document's images plus at most one synthetic image
// for the designated background element.
func (g *Gate) discover() []dom.Image {
	images := g.doc.Images()
	if g.Background == "" {
		return images
	}
	bg := g.doc.Query(g.Background)
	if bg == nil {
		return images
	}
	if src, ok := BackgroundURL(bg.ComputedStyle("background-image")); ok {
		images = append(images, g.doc.NewImage(src))
	}
	return images
}

type resourceState int

const (
	pending resourceState = iota
	loaded
	failed
)

type resource struct {
	img   dom.Image
	state resourceState
}

// tracker counts resources out of pending. done only ever grows and
// onComplete runs when it reaches total.
type tracker struct {
	resources  []*resource
	done       int
	total      int
	onProgress func(done, total int)
	onComplete func()
}

func (t *tracker) settle(r *resource, to resourceState) {
	if r.state != pending {
		return
	}
	r.state = to
	t.done++
	if t.onProgress != nil {
		t.onProgress(t.done, t.total)
	}
	if t.done == t.total && t.onComplete != nil {
		t.onComplete()
	}
}
