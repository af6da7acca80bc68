//go:build js && wasm

// Command weblog-wasm runs the page start-up sequence in the browser.
//
//	GOOS=js GOARCH=wasm go build -o static/js/weblog.wasm ./cmd/weblog-wasm
package main

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"syscall/js"

	"github.com/Zachkp/resume-weblog/internal/bootstrap"
	"github.com/Zachkp/resume-weblog/internal/contact"
	"github.com/Zachkp/resume-weblog/internal/dom/jsdom"
	"github.com/Zachkp/resume-weblog/internal/i18n"
	"golang.org/x/text/language"
)

func main() {
	doc := jsdom.New()
	lang := pageLang()
	key := metaContent("weblog-access-key")

	var app *bootstrap.App
	app = bootstrap.New(doc, jsdom.Scheduler{}, bootstrap.Options{
		Lang: lang,
		Submit: func(f contact.Form) {
			// net/http blocks on fetch; keep it off the event callback.
			go func() {
				if n, ok := postContact(f, key, lang); !ok && n != nil {
					app.ShowNotification(*n)
				}
			}()
		},
	})
	app.Start().Then(func() {
		log.Println("Resume Weblog loaded successfully!")
	})

	select {}
}

// postContact forwards a validated form to the server. It returns a
// notification to show when delivery failed.
func postContact(f contact.Form, key string, lang language.Tag) (*contact.Notification, bool) {
	body, err := json.Marshal(f)
	if err != nil {
		log.Printf("Error encoding contact form: %v", err)
		return nil, false
	}
	req, err := http.NewRequest(http.MethodPost, "/api/contact?"+i18n.LangParam+"="+lang.String(), bytes.NewReader(body))
	if err != nil {
		log.Printf("Error building contact request: %v", err)
		return nil, false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", key)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("Error sending contact form: %v", err)
		n := contact.Undelivered(i18n.Printer(lang))
		return &n, false
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		return nil, true
	}
	var n contact.Notification
	if err := json.NewDecoder(resp.Body).Decode(&n); err != nil || n.Text == "" {
		n = contact.Undelivered(i18n.Printer(lang))
	}
	return &n, false
}

func pageLang() language.Tag {
	raw := js.Global().Get("document").Get("documentElement").Get("lang").String()
	if tag, ok := i18n.Parse(raw); ok {
		return tag
	}
	return language.English
}

func metaContent(name string) string {
	v := js.Global().Get("document").Call("querySelector", `meta[name="`+name+`"]`)
	if v.IsNull() || v.IsUndefined() {
		return ""
	}
	return v.Call("getAttribute", "content").String()
}
