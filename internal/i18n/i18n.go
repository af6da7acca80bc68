// Package i18n resolves the page language and formats locale-specific text.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// LangParam is the query parameter that selects a language.
const LangParam = "lang"

var supported = []language.Tag{language.English, language.Persian}

var matcher = language.NewMatcher(supported)

// Supported returns the languages the site is translated into.
func Supported() []language.Tag {
	return append([]language.Tag(nil), supported...)
}

// Parse returns the supported tag for value, if any.
func Parse(value string) (language.Tag, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return language.Und, false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return language.Und, false
	}
	base, _ := tag.Base()
	for _, s := range supported {
		if sb, _ := s.Base(); sb == base {
			return s, true
		}
	}
	return language.Und, false
}

// Resolve picks the language from an explicit choice, then the
// Accept-Language header, then the fallback.
func Resolve(explicit, acceptLanguage string, fallback language.Tag) language.Tag {
	if tag, ok := Parse(explicit); ok {
		return tag
	}
	if acceptLanguage = strings.TrimSpace(acceptLanguage); acceptLanguage != "" {
		if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil && len(tags) > 0 {
			_, idx, conf := matcher.Match(tags...)
			if conf != language.No {
				return supported[idx]
			}
		}
	}
	if tag, ok := Parse(fallback.String()); ok {
		return tag
	}
	return language.English
}

// Printer returns a message printer for tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// IsRTL reports whether tag is written right to left.
func IsRTL(tag language.Tag) bool {
	base, _ := tag.Base()
	switch base.String() {
	case "fa", "ar", "he", "ur":
		return true
	}
	return false
}

// Dir returns the HTML dir attribute value for tag.
func Dir(tag language.Tag) string {
	if IsRTL(tag) {
		return "rtl"
	}
	return "ltr"
}

// Year formats year in the digits of tag, without grouping separators.
func Year(tag language.Tag, year int) string {
	return Printer(tag).Sprint(number.Decimal(year, number.NoSeparator()))
}
