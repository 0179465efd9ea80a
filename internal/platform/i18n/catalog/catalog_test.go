package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadEmbeddedHasExpectedLocales(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	if !bundle.HasLocale(BaseLocale) {
		t.Fatalf("expected base locale %s", BaseLocale)
	}
	if !bundle.HasLocale("en") {
		t.Fatalf("expected locale en")
	}
	if got := bundle.Locales(); len(got) != 2 || got[0] != "en" || got[1] != "ru" {
		t.Fatalf("Locales() = %v, want [en ru]", got)
	}
	if got := bundle.Namespaces("en"); len(got) != 3 {
		t.Fatalf("Namespaces(en) = %v, want three namespaces", got)
	}
}

func TestEmbeddedLocalesHaveKeyParity(t *testing.T) {
	bundle := Default()
	if missing := bundle.MissingKeys("en"); len(missing) != 0 {
		t.Fatalf("en is missing keys: %v", missing)
	}
	ru := bundle.LocaleMessages("ru")
	for key := range bundle.LocaleMessages("en") {
		if _, ok := ru[key]; !ok {
			t.Fatalf("ru is missing key %q", key)
		}
	}
}

func TestLookupFallbackChain(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/ru/home.yaml"), `locale: "ru"
namespace: "home"
messages:
  "home.title": "Заголовок"
  "home.only_ru": "Только русский"
  "home.blank": "Пусто"
`)
	mustWriteFile(t, filepath.Join(tempDir, "locales/en/home.yaml"), `locale: "en"
namespace: "home"
messages:
  "home.title": "Title"
  "home.blank": ""
`)
	bundle, err := LoadFromFS(os.DirFS(tempDir))
	if err != nil {
		t.Fatalf("LoadFromFS() error = %v", err)
	}

	tests := []struct {
		locale string
		key    string
		want   string
	}{
		{locale: "en", key: "home.title", want: "Title"},
		{locale: "ru", key: "home.title", want: "Заголовок"},
		{locale: "en", key: "home.only_ru", want: "Только русский"},
		{locale: "en", key: "home.blank", want: "Пусто"},
		{locale: "fr", key: "home.title", want: "Заголовок"},
		{locale: "en", key: "home.unknown", want: "home.unknown"},
		{locale: "ru", key: "home.unknown", want: "home.unknown"},
	}
	for _, tc := range tests {
		if got := bundle.Lookup(tc.locale, tc.key); got != tc.want {
			t.Fatalf("Lookup(%q, %q) = %q, want %q", tc.locale, tc.key, got, tc.want)
		}
	}
	if missing := bundle.MissingKeys("en"); len(missing) != 2 {
		t.Fatalf("MissingKeys(en) = %v, want two keys", missing)
	}
}

func TestMessageRejectsBlankKey(t *testing.T) {
	t.Parallel()

	if _, ok := Default().Message("en", "  "); ok {
		t.Fatal("expected blank key lookup to fail")
	}
	var nilBundle *Bundle
	if got := nilBundle.Lookup("en", "home.title"); got != "home.title" {
		t.Fatalf("nil bundle Lookup = %q, want key", got)
	}
}

func TestLoadFromFSRejectsKeyOutsideNamespace(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/ru/home.yaml"), `locale: "ru"
namespace: "home"
messages:
  "school.title": "nope"
`)

	if _, err := LoadFromFS(os.DirFS(tempDir)); err == nil {
		t.Fatal("expected namespace prefix error")
	}
}

func TestLoadFromFSRejectsLocaleMismatch(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/ru/home.yaml"), `locale: "en"
namespace: "home"
messages:
  "home.title": "Title"
`)

	if _, err := LoadFromFS(os.DirFS(tempDir)); err == nil {
		t.Fatal("expected locale mismatch error")
	}
}

func TestLoadFromFSRequiresBaseLocale(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/en/home.yaml"), `locale: "en"
namespace: "home"
messages:
  "home.title": "Title"
`)

	if _, err := LoadFromFS(os.DirFS(tempDir)); err == nil {
		t.Fatal("expected missing base locale error")
	}
}

func TestLoadFromFSRejectsMalformedYAML(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/ru/home.yaml"), "locale: [unclosed\n")

	if _, err := LoadFromFS(os.DirFS(tempDir)); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadFromFSRejectsDuplicateKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		files   map[string]string
		wantKey string
	}{
		{
			name: "two namespaces",
			files: map[string]string{
				"locales/ru/home.yaml": `locale: "ru"
namespace: "home"
messages:
  "home.title": "Title"
  "home.hero.title": "Hero"
`,
				"locales/ru/home.hero.yaml": `locale: "ru"
namespace: "home.hero"
messages:
  "home.hero.title": "Hero again"
`,
			},
			wantKey: "home.hero.title",
		},
		{
			name: "keys equal after trimming",
			files: map[string]string{
				"locales/ru/home.yaml": `locale: "ru"
namespace: "home"
messages:
  "home.title": "Title"
  " home.title ": "Title again"
`,
			},
			wantKey: "home.title",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tempDir := t.TempDir()
			for name, content := range tc.files {
				mustWriteFile(t, filepath.Join(tempDir, name), content)
			}
			_, err := LoadFromFS(os.DirFS(tempDir))
			if err == nil {
				t.Fatal("expected duplicate key error")
			}
			want := `duplicate key "` + tc.wantKey + `"`
			if !strings.Contains(err.Error(), want) {
				t.Fatalf("LoadFromFS() error = %q, want %q", err, want)
			}
		})
	}
}

func mustWriteFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
