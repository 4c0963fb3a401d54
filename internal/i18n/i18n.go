// Package i18n localizes user-facing audit strings: execution-state display
// names and the generic action verbs shown in activity feeds.
package i18n

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// LangParam is the query parameter used to select a language.
const LangParam = "lang"

var supported = []language.Tag{
	language.AmericanEnglish,
	language.Korean,
}

var matcher = language.NewMatcher(supported)

var catalog = map[language.Tag]map[string]string{
	language.AmericanEnglish: {
		"state.done":   "Completed",
		"state.undone": "Undone",
		"state.failed": "Failed",
		"state.redone": "Redone",

		"event.command.executed": "executed %s",
		"event.command.undone":   "undid %s",
		"event.command.redone":   "redid %s",
	},
	language.Korean: {
		"state.done":   "완료됨",
		"state.undone": "실행 취소됨",
		"state.failed": "실패함",
		"state.redone": "다시 실행됨",

		"event.command.executed": "%s 실행함",
		"event.command.undone":   "%s 실행 취소함",
		"event.command.redone":   "%s 다시 실행함",
	},
}

func init() {
	for tag, messages := range catalog {
		for key, value := range messages {
			message.SetString(tag, key, value)
		}
	}
}

// DefaultTag returns the fallback language.
func DefaultTag() language.Tag {
	return supported[0]
}

// SupportedTags returns the supported language tags.
func SupportedTags() []language.Tag {
	out := make([]language.Tag, len(supported))
	copy(out, supported)
	return out
}

// ResolveTag determines the best language tag for the request: explicit
// query parameter first, then the Accept-Language header.
func ResolveTag(r *http.Request) language.Tag {
	if r == nil {
		return DefaultTag()
	}
	return Resolve(r.URL.Query().Get(LangParam), r.Header.Get("Accept-Language"))
}

// Resolve matches an explicit language choice, then an Accept-Language
// header value, against the supported set.
func Resolve(lang, acceptLanguage string) language.Tag {
	// Match returns a synthesized tag carrying the request's locale; index
	// into the supported set so callers always get a canonical tag.
	if v := strings.TrimSpace(lang); v != "" {
		if tag, err := language.Parse(v); err == nil {
			_, idx, _ := matcher.Match(tag)
			return supported[idx]
		}
	}

	if accept := strings.TrimSpace(acceptLanguage); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			_, idx, _ := matcher.Match(tags...)
			return supported[idx]
		}
	}

	return DefaultTag()
}

// Printer returns a message printer for the supplied tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// StateLabel returns the localized display name for an execution state.
// Unknown states fall through to the raw state string.
func StateLabel(p *message.Printer, state string) string {
	key := "state." + state
	if label := p.Sprintf(key); label != key {
		return label
	}
	return state
}

// EventLabel formats a localized activity line for a bus event, e.g.
// "undid Created todo Buy milk".
func EventLabel(p *message.Printer, event, actionLabel string) string {
	key := "event." + event
	if line := p.Sprintf(key, actionLabel); !strings.HasPrefix(line, "event.") {
		return line
	}
	return actionLabel
}
