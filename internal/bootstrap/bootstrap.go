// Package bootstrap sequences page start-up: show the base chrome, wait for
// images, register reveal animations, wire up interactions and finally hide
// the loading overlay.
package bootstrap

import (
	"log"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Zachkp/resume-weblog/internal/animate"
	"github.com/Zachkp/resume-weblog/internal/contact"
	"github.com/Zachkp/resume-weblog/internal/dom"
	"github.com/Zachkp/resume-weblog/internal/eventloop"
	"github.com/Zachkp/resume-weblog/internal/i18n"
	"github.com/Zachkp/resume-weblog/internal/readiness"
	"github.com/Zachkp/resume-weblog/internal/reveal"
)

const (
	// StaggerStep is the extra reveal delay per tagged element in document
	// order.
	StaggerStep = 150 * time.Millisecond
	// HideSlack is added to the stagger total before the overlay hides.
	HideSlack = 300 * time.Millisecond
	// OverlayFade is how long the overlay fades before it is removed from
	// layout.
	OverlayFade = 500 * time.Millisecond
	// PulseDuration bounds the ripple and tag click effects.
	PulseDuration = 600 * time.Millisecond
	// ScrollThrottle limits scroll handling to roughly one call per frame.
	ScrollThrottle = 16 * time.Millisecond
	// ScrollTopOffset is the scroll position past which the back-to-top
	// button shows.
	ScrollTopOffset = 300
)

// Page hooks.
const (
	AnimateAttr  = "data-animate"
	DurationAttr = "data-animate-duration"
	DelayAttr    = "data-animate-delay"
	EasingAttr   = "data-animate-easing"

	appID          = "app"
	yearID         = "year"
	loadingID      = "loading-screen"
	designerNameID = "designerName"
	designerID     = "designerModal"
	closeModalID   = "closeModal"
	contactFormID  = "contactForm"
	scrollTopID    = "scrollTop"

	backgroundSelector = ".background-image"
	gradientSelector   = ".gradient-overlay"
	socialSelector     = ".social-btn"
	tagSelector        = ".tag"
	cardSelector       = ".glass-effect"
)

// StaggerDelay is the reveal delay of the index-th tagged element.
func StaggerDelay(index int) time.Duration {
	return time.Duration(index) * StaggerStep
}

// HideDelay estimates when count staggered animations have all started.
// It is a schedule, not a completion signal from the animations.
func HideDelay(count int) time.Duration {
	return time.Duration(count)*StaggerStep + HideSlack
}

// Options configures an App.
type Options struct {
	Logger *log.Logger
	// Lang selects notification language and footer digits.
	Lang language.Tag
	// Now supplies the current time for the footer year.
	Now func() time.Time
	// Submit receives each valid contact form after it is reset.
	Submit func(contact.Form)
}

// App drives one page.
type App struct {
	doc     dom.Document
	sched   eventloop.Scheduler
	logger  *log.Logger
	lang    language.Tag
	printer *message.Printer
	now     func() time.Time
	submit  func(contact.Form)

	gate    *readiness.Gate
	runner  *animate.Runner
	watcher *reveal.Watcher
	targets map[dom.Element]animate.Animatable

	ready   *eventloop.Future
	resolve func() bool
}

// New wires an App to doc. Nothing runs until Start.
func New(doc dom.Document, sched eventloop.Scheduler, opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	lang := opts.Lang
	if lang == language.Und {
		lang = language.English
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	a := &App{
		doc:     doc,
		sched:   sched,
		logger:  logger,
		lang:    lang,
		printer: i18n.Printer(lang),
		now:     now,
		submit:  opts.Submit,
		gate:    readiness.New(doc, sched, logger),
		runner:  animate.NewRunner(),
		targets: make(map[dom.Element]animate.Animatable),
	}
	a.watcher = reveal.New(doc, a.onReveal)
	a.ready, a.resolve = eventloop.NewFuture()
	return a
}

// Gate exposes the readiness gate so callers can tune its timings before
// Start.
func (a *App) Gate() *readiness.Gate { return a.gate }

// Watcher exposes the reveal watcher.
func (a *App) Watcher() *reveal.Watcher { return a.watcher }

// Start runs the sequence once the document is structurally ready. The
// returned future resolves when the page is interactive: animations are
// registered, listeners attached and the overlay hide is scheduled.
func (a *App) Start() *eventloop.Future {
	if a.doc.ReadyState() == dom.Loading {
		a.doc.OnContentLoaded(a.onReady)
	} else {
		a.onReady()
	}
	return a.ready
}

func (a *App) onReady() {
	a.logger.Println("App initialized")
	a.setCurrentYear()
	a.showContent()

	a.gate.Wait().Then(func() {
		count := a.setupAnimations()
		a.setupEventListeners()
		a.setupMouseEffects()
		a.setupScrollEffects()
		a.sched.AfterFunc(HideDelay(count), a.hideLoadingScreen)
		a.resolve()
	})
}

func (a *App) setCurrentYear() {
	el := a.doc.ByID(yearID)
	if el == nil {
		return
	}
	el.SetText(i18n.Year(a.lang, a.now().Year()))
}

// showContent reveals the base chrome regardless of resource loading.
func (a *App) showContent() {
	for _, el := range []dom.Element{
		a.doc.ByID(appID),
		a.doc.Query(backgroundSelector),
		a.doc.Query(gradientSelector),
	} {
		if el == nil {
			continue
		}
		el.SetStyle("opacity", "1")
		el.SetStyle("visibility", "visible")
	}
	if body := a.doc.Body(); body != nil {
		body.SetStyle("overflow", "auto")
	}
}

func (a *App) hideLoadingScreen() {
	el := a.doc.ByID(loadingID)
	if el == nil {
		return
	}
	el.SetStyle("opacity", "0")
	a.sched.AfterFunc(OverlayFade, func() {
		el.SetStyle("display", "none")
	})
}

// setupAnimations registers every tagged element in document order and
// returns how many there were.
func (a *App) setupAnimations() int {
	elements := a.doc.QueryAll("[" + AnimateAttr + "]")
	for i, el := range elements {
		delay := StaggerDelay(i)
		el.SetStyle(animate.PropDelay, animate.Millis(delay))
		name, _ := el.Attr(AnimateAttr)
		a.targets[el] = animate.Animatable{
			Element:   el,
			Animation: name,
			Options:   append([]animate.Option{animate.Delay(delay)}, elementOverrides(el)...),
		}
		a.watcher.Observe(el)
	}
	return len(elements)
}

func (a *App) onReveal(el dom.Element) {
	target, ok := a.targets[el]
	delete(a.targets, el)
	if !ok || target.Animation == "" {
		return
	}
	a.runner.Run(target)
}

// elementOverrides reads per-element timing from data attributes.
func elementOverrides(el dom.Element) []animate.Option {
	var opts []animate.Option
	if v, ok := el.Attr(DurationAttr); ok {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			opts = append(opts, animate.Duration(time.Duration(ms)*time.Millisecond))
		}
	}
	if v, ok := el.Attr(DelayAttr); ok {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			opts = append(opts, animate.Delay(time.Duration(ms)*time.Millisecond))
		}
	}
	if v, ok := el.Attr(EasingAttr); ok && v != "" {
		opts = append(opts, animate.Easing(v))
	}
	return opts
}
