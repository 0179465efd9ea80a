package i18n

import (
	"testing"

	"golang.org/x/text/language"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Locale
	}{
		{in: "ru", want: LocaleRU},
		{in: "en", want: LocaleEN},
		{in: " EN ", want: LocaleEN},
		{in: "en-US", want: LocaleEN},
		{in: "ru-RU", want: LocaleRU},
		{in: "", want: LocaleRU},
		{in: "kk", want: LocaleRU},
		{in: "not a tag!", want: LocaleRU},
		{in: "und", want: LocaleRU},
		{in: "und-US", want: LocaleRU},
		{in: "und-Latn", want: LocaleRU},
	}
	for _, tc := range tests {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseReportsUnsupported(t *testing.T) {
	t.Parallel()

	if _, ok := Parse("de"); ok {
		t.Fatal("expected de to be unsupported")
	}
	if locale, ok := Parse("und-US"); ok {
		t.Fatalf("Parse(und-US) = %q, want no match", locale)
	}
	if locale, ok := Parse("en"); !ok || locale != LocaleEN {
		t.Fatalf("Parse(en) = %q, %t", locale, ok)
	}
}

func TestSupportedTags(t *testing.T) {
	t.Parallel()

	tags := SupportedTags()
	if len(tags) != 2 || tags[0] != language.Russian || tags[1] != language.English {
		t.Fatalf("SupportedTags() = %v", tags)
	}
	locales := SupportedLocales()
	locales[0] = "xx"
	if SupportedLocales()[0] != LocaleRU {
		t.Fatal("SupportedLocales must return a copy")
	}
}

func TestLocalizerTranslatesWithFallback(t *testing.T) {
	t.Parallel()

	en := NewLocalizer(LocaleEN)
	if got := en.T("school.signIn"); got != "Sign in" {
		t.Fatalf("en T(school.signIn) = %q", got)
	}
	ru := NewLocalizer(LocaleRU)
	if got := ru.T("school.signIn"); got != "Войти" {
		t.Fatalf("ru T(school.signIn) = %q", got)
	}
	if got := en.T("school.doesNotExist"); got != "school.doesNotExist" {
		t.Fatalf("missing key = %q, want raw key", got)
	}
	unknown := NewLocalizer(Locale("fr"))
	if unknown.Locale() != LocaleRU {
		t.Fatalf("unknown locale resolved to %q, want ru", unknown.Locale())
	}
	if got := unknown.T("school.signIn"); got != "Войти" {
		t.Fatalf("unknown locale T = %q, want default-locale text", got)
	}
}

func TestLocalizerSprintfGroupsDigits(t *testing.T) {
	t.Parallel()

	en := NewLocalizer(LocaleEN)
	if got := en.Sprintf("school.ecpCurrent", "school.p12", 2048); got != "Submitted: school.p12 (2,048 bytes)" {
		t.Fatalf("Sprintf = %q", got)
	}
	if got := en.Sprintf("school.signIn"); got != "Sign in" {
		t.Fatalf("Sprintf without args = %q", got)
	}
}

func TestZeroLocalizer(t *testing.T) {
	t.Parallel()

	var l Localizer
	if l.Locale() != DefaultLocale {
		t.Fatalf("zero Locale() = %q", l.Locale())
	}
	if got := l.T("home.title"); got != "home.title" {
		t.Fatalf("zero T() = %q, want raw key", got)
	}
}
