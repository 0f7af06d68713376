// Package i18n holds the user-facing labels (statuses, error kinds) in
// Spanish and English.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	mu            sync.RWMutex
	bundle        *i18n.Bundle
	defaultLocale = "es"
	supported     = []language.Tag{language.Spanish, language.English}
	matcher       = language.NewMatcher(supported)
)

type ctxKey struct{}

// Init loads all locale files and sets the default locale.
func Init(defLocale string) {
	b := i18n.NewBundle(language.Spanish)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		logrus.Fatalf("i18n: read locales dir: %v", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			logrus.Fatalf("i18n: read %s: %v", e.Name(), err)
		}
		b.MustParseMessageFileBytes(data, e.Name())
	}

	mu.Lock()
	bundle = b
	if defLocale != "" {
		defaultLocale = defLocale
	}
	mu.Unlock()
	logrus.WithFields(logrus.Fields{"files": len(entries), "default": defLocale}).Debug("i18n: locales loaded")
}

func current() (*i18n.Bundle, string) {
	mu.RLock()
	b, def := bundle, defaultLocale
	mu.RUnlock()
	if b == nil {
		Init("")
		return current()
	}
	return b, def
}

// WithLocale returns a new context carrying the given locale string (e.g. "es", "en").
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ctxKey{}, locale)
}

// LocaleFromContext extracts the locale from the context.
// Returns the configured default locale if not set.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	_, def := current()
	return def
}

// Match picks the supported locale closest to an Accept-Language header.
// An empty or unparseable header yields "".
func Match(acceptLanguage string) string {
	if acceptLanguage == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return ""
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return ""
	}
	base, _ := supported[idx].Base()
	return base.String()
}

// T translates a message ID using the locale from the context.
// Optional templateData provides values for template placeholders.
func T(ctx context.Context, messageID string, templateData ...map[string]any) string {
	b, _ := current()
	l := i18n.NewLocalizer(b, LocaleFromContext(ctx))

	cfg := &i18n.LocalizeConfig{MessageID: messageID}
	if len(templateData) > 0 && templateData[0] != nil {
		cfg.TemplateData = templateData[0]
	}

	msg, err := l.Localize(cfg)
	if err != nil {
		return messageID
	}
	return msg
}

// StatusLabel is the display name of a request status.
func StatusLabel(ctx context.Context, status string) string {
	return T(ctx, "status."+status)
}

// ErrorLabel is the display name of an error kind ("validation", "conflict"...).
func ErrorLabel(ctx context.Context, kind string) string {
	return T(ctx, "error."+kind)
}
