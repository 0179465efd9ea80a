// Package i18n resolves UI locales and renders dictionary messages.
package i18n

import (
	"strings"

	"github.com/edumap/desk/internal/platform/i18n/catalog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Locale identifies one supported UI language.
type Locale string

const (
	// LocaleRU is Russian, the default UI language.
	LocaleRU Locale = "ru"
	// LocaleEN is English.
	LocaleEN Locale = "en"
)

// DefaultLocale is used whenever a requested locale is unknown.
const DefaultLocale = LocaleRU

var supported = []Locale{LocaleRU, LocaleEN}

// SupportedLocales returns the supported locales in display order.
func SupportedLocales() []Locale {
	out := make([]Locale, len(supported))
	copy(out, supported)
	return out
}

// SupportedTags returns the supported locales as language tags.
func SupportedTags() []language.Tag {
	tags := make([]language.Tag, 0, len(supported))
	for _, locale := range supported {
		tags = append(tags, locale.Tag())
	}
	return tags
}

// Tag returns the language tag for the locale.
func (l Locale) Tag() language.Tag {
	switch l {
	case LocaleEN:
		return language.English
	default:
		return language.Russian
	}
}

// String implements fmt.Stringer.
func (l Locale) String() string {
	return string(l)
}

// Parse reports the supported locale matching value.
//
// Exact identifiers match first. A BCP-47 tag whose base language is
// supported (en-US, ru-RU) resolves to that base.
func Parse(value string) (Locale, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return "", false
	}
	for _, locale := range supported {
		if trimmed == string(locale) {
			return locale, true
		}
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", false
	}
	// Only an explicit base counts; und-* tags would otherwise get a guessed one.
	base, confidence := tag.Base()
	if confidence != language.Exact || base.String() == "und" {
		return "", false
	}
	for _, locale := range supported {
		if candidate, _ := locale.Tag().Base(); candidate == base {
			return locale, true
		}
	}
	return "", false
}

// Normalize returns the supported locale for value, or DefaultLocale.
func Normalize(value string) Locale {
	if locale, ok := Parse(value); ok {
		return locale
	}
	return DefaultLocale
}

// Localizer renders dictionary messages for one locale.
type Localizer struct {
	locale  Locale
	bundle  *catalog.Bundle
	printer *message.Printer
}

// NewLocalizer returns a localizer over the embedded dictionary.
func NewLocalizer(locale Locale) Localizer {
	return NewLocalizerWithBundle(locale, catalog.Default())
}

// NewLocalizerWithBundle returns a localizer over bundle.
func NewLocalizerWithBundle(locale Locale, bundle *catalog.Bundle) Localizer {
	locale = Normalize(string(locale))
	return Localizer{
		locale:  locale,
		bundle:  bundle,
		printer: message.NewPrinter(locale.Tag()),
	}
}

// Locale returns the localizer's locale.
func (l Localizer) Locale() Locale {
	if l.locale == "" {
		return DefaultLocale
	}
	return l.locale
}

// T returns the translation for key: the current locale, then the default
// locale, then the raw key.
func (l Localizer) T(key string) string {
	if l.bundle == nil {
		return key
	}
	return l.bundle.Lookup(string(l.Locale()), key)
}

// Sprintf formats the translated template for key with locale-aware number
// formatting.
func (l Localizer) Sprintf(key string, args ...any) string {
	template := l.T(key)
	if len(args) == 0 {
		return template
	}
	printer := l.printer
	if printer == nil {
		printer = message.NewPrinter(l.Locale().Tag())
	}
	return printer.Sprintf(template, args...)
}
