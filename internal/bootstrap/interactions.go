package bootstrap

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/Zachkp/resume-weblog/internal/contact"
	"github.com/Zachkp/resume-weblog/internal/dom"
	"github.com/Zachkp/resume-weblog/internal/eventloop"
)

// Notification timings.
const (
	NotificationShowDelay = 10 * time.Millisecond
	NotificationLifetime  = 3 * time.Second
	NotificationExit      = 300 * time.Millisecond
)

func (a *App) setupEventListeners() {
	a.setupModal()

	if form := a.doc.Form(contactFormID); form != nil {
		form.AddEventListener("submit", func(ev dom.Event) {
			ev.PreventDefault()
			a.handleFormSubmit(form)
		})
	}

	for _, btn := range a.doc.QueryAll(socialSelector) {
		btn.AddEventListener("mousedown", func(ev dom.Event) {
			a.ripple(ev, btn)
		})
	}

	for _, tag := range a.doc.QueryAll(tagSelector) {
		tag.AddEventListener("click", func(dom.Event) {
			tag.AddClass("tag-clicked")
			a.sched.AfterFunc(PulseDuration, func() { tag.RemoveClass("tag-clicked") })
		})
	}
}

func (a *App) setupModal() {
	trigger := a.doc.ByID(designerNameID)
	modal := a.doc.ByID(designerID)
	closeBtn := a.doc.ByID(closeModalID)

	if trigger != nil && modal != nil {
		trigger.AddEventListener("click", func(dom.Event) {
			modal.AddClass("active")
		})
	}
	if closeBtn == nil || modal == nil {
		return
	}
	closeBtn.AddEventListener("click", func(dom.Event) {
		modal.RemoveClass("active")
	})
	// Clicks on the overlay itself, not its content, close the modal.
	modal.AddEventListener("click", func(ev dom.Event) {
		if ev.Target == modal {
			modal.RemoveClass("active")
		}
	})
	a.doc.AddEventListener("keydown", func(ev dom.Event) {
		if ev.Key == "Escape" && modal.HasClass("active") {
			modal.RemoveClass("active")
		}
	})
}

func (a *App) handleFormSubmit(form dom.Form) {
	submission := contact.Form{
		Name:    form.Value(contact.FieldName),
		Contact: form.Value(contact.FieldContact),
		Subject: form.Value(contact.FieldSubject),
		Message: form.Value(contact.FieldMessage),
	}
	err := contact.Validate(submission)
	a.showNotification(contact.Notify(a.printer, err))
	if err != nil {
		return
	}

	a.logger.Printf("Form submitted: %s <%s> %q", submission.Name, submission.Contact, submission.Subject)
	form.Reset()
	if a.submit != nil {
		a.submit(submission.Trimmed())
	}
}

// ShowNotification displays a transient notification on the page.
func (a *App) ShowNotification(n contact.Notification) {
	a.showNotification(n)
}

func (a *App) showNotification(n contact.Notification) {
	body := a.doc.Body()
	if body == nil {
		return
	}
	el := a.doc.CreateElement("div")
	el.AddClass("notification")
	if n.Kind == contact.Error {
		el.AddClass("notification-error")
	}
	el.SetText(n.Text)
	body.AppendChild(el)

	a.sched.AfterFunc(NotificationShowDelay, func() { el.AddClass("show") })
	a.sched.AfterFunc(NotificationLifetime, func() {
		el.RemoveClass("show")
		a.sched.AfterFunc(NotificationExit, el.Remove)
	})
}

func (a *App) ripple(ev dom.Event, el dom.Element) {
	rect := el.Rect()
	size := math.Max(rect.Width, rect.Height)
	x := ev.ClientX - rect.Left - size/2
	y := ev.ClientY - rect.Top - size/2

	r := a.doc.CreateElement("span")
	r.AddClass("ripple")
	r.SetStyle("width", px(size))
	r.SetStyle("height", px(size))
	r.SetStyle("left", px(x))
	r.SetStyle("top", px(y))

	el.SetStyle("position", "relative")
	el.SetStyle("overflow", "hidden")
	el.AppendChild(r)

	a.sched.AfterFunc(PulseDuration, r.Remove)
}

func (a *App) setupMouseEffects() {
	for _, card := range a.doc.QueryAll(cardSelector) {
		card.AddEventListener("mousemove", func(ev dom.Event) {
			card.SetStyle("transform", TiltTransform(card.Rect(), ev.ClientX, ev.ClientY))
		})
		card.AddEventListener("mouseleave", func(dom.Event) {
			card.SetStyle("transform", "")
		})
	}
}

// TiltTransform tilts a card toward the pointer.
func TiltTransform(rect dom.Rect, clientX, clientY float64) string {
	x := clientX - rect.Left
	y := clientY - rect.Top
	centerX := rect.Width / 2
	centerY := rect.Height / 2
	rotateX := (y - centerY) / 20
	rotateY := (centerX - x) / 20
	return fmt.Sprintf("perspective(1000px) rotateX(%sdeg) rotateY(%sdeg) scale3d(1.02, 1.02, 1.02)",
		num(rotateX), num(rotateY))
}

func (a *App) setupScrollEffects() {
	a.doc.OnScroll(Throttle(a.sched, ScrollThrottle, a.toggleScrollTopButton))
}

func (a *App) toggleScrollTopButton(scrollY float64) {
	btn := a.doc.ByID(scrollTopID)
	if btn == nil {
		return
	}
	if scrollY > ScrollTopOffset {
		btn.AddClass("visible")
	} else {
		btn.RemoveClass("visible")
	}
}

// Throttle calls fn at most once per limit, dropping calls in between.
func Throttle(sched eventloop.Scheduler, limit time.Duration, fn func(float64)) func(float64) {
	blocked := false
	return func(v float64) {
		if blocked {
			return
		}
		fn(v)
		blocked = true
		sched.AfterFunc(limit, func() { blocked = false })
	}
}

func px(v float64) string {
	return num(v) + "px"
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
