// Package lang holds the supported interface languages and picks the default
// one for the first run prompt.
package lang

import (
	"strings"

	"github.com/jeandeaual/go-locale"
	"golang.org/x/text/language"
)

// Fallback is used when the system language is not supported.
const Fallback = "en"

// Language is one entry of the picker.
type Language struct {
	Name string
	Code string
}

// Supported is the fixed language table, in display order.
var Supported = []Language{
	{"Afrikaans", "af"},
	{"Bahasa Melayu", "ms"},
	{"Català", "ca"},
	{"Dansk", "da"},
	{"Deutsch", "de"},
	{"Eesti", "et"},
	{"English", "en"},
	{"Español", "es"},
	{"Esperanto", "eo"},
	{"Euskara", "eu"},
	{"Français", "fr"},
	{"Galego", "gl"},
	{"Italiano", "it"},
	{"Lenga d'òc", "oc"},
	{"Magyar", "hu"},
	{"Nederlands", "nl"},
	{"Norsk", "nb"},
	{"Polski", "pl"},
	{"Português Brasileiro", "pt_BR"},
	{"Português", "pt"},
	{"Română", "ro"},
	{"Slovenčina", "sk"},
	{"Slovenščina", "sl"},
	{"Suomi", "fi"},
	{"Svenska", "sv"},
	{"Tiếng Việt", "vi"},
	{"Türkçe", "tr"},
	{"简体中文", "zh_CN"},
	{"日本語", "ja"},
	{"繁體中文", "zh_TW"},
	{"한국어", "ko"},
	{"Čeština", "cs"},
	{"Ελληνικά", "el"},
	{"български език", "bg"},
	{"Монгол хэл", "mn"},
	{"русский язык", "ru"},
	{"Српски", "sr"},
	{"українська мова", "uk"},
	{"Հայերեն", "hy"},
	{"עִבְרִית", "he"},
	{"العربية", "ar"},
	{"فارسی", "fa"},
	{"ภาษาไทย", "th"},
}

// Languages that keep their region.
var regional = map[string]bool{
	"pt_BR": true,
	"zh_CN": true,
	"zh_TW": true,
}

// DefaultFor returns the supported language code closest to a system locale
// such as "de_AT.UTF-8" or "pt-BR". The region is dropped except for
// pt_BR, zh_CN and zh_TW. Unknown or unparsable locales give Fallback.
func DefaultFor(loc string) string {
	loc, _, _ = strings.Cut(loc, ".")
	loc, _, _ = strings.Cut(loc, "@")
	loc = strings.TrimSpace(loc)
	if loc == "" || loc == "C" || loc == "POSIX" {
		return Fallback
	}

	tag, err := language.Parse(strings.ReplaceAll(loc, "_", "-"))
	if err != nil {
		return Fallback
	}
	base, _ := tag.Base()
	code := base.String()
	if region, conf := tag.Region(); conf == language.Exact {
		if full := code + "_" + region.String(); regional[full] {
			code = full
		}
	}

	if Index(code) < 0 {
		return Fallback
	}
	return code
}

// Index returns the position of code in Supported, or -1.
func Index(code string) int {
	for i, l := range Supported {
		if l.Code == code {
			return i
		}
	}
	return -1
}

// Names returns the display names of Supported in order.
func Names() []string {
	names := make([]string, len(Supported))
	for i, l := range Supported {
		names[i] = l.Name
	}
	return names
}

// SystemLocale returns the user's locale as reported by the OS, or "" when
// it cannot be read.
func SystemLocale() string {
	loc, err := locale.GetLocale()
	if err != nil {
		return ""
	}
	return loc
}
