package assess

import "strings"

// Supported advisory locales.
const (
	LocaleEnglish    = "en"
	LocaleIndonesian = "id"
)

var advisories = map[string]map[Status]string{
	LocaleEnglish: {
		PotentialDepression:  "Try talking to someone or seeking professional help.",
		PotentialAngerIssues: "Try relaxation techniques such as meditation or deep breathing.",
		StableMentalState:    "Keep up your good habits.",
		Normal:               "Stay calm and take care of your mental health.",
	},
	LocaleIndonesian: {
		PotentialDepression:  "Cobalah untuk berbicara dengan seseorang atau mencari bantuan profesional.",
		PotentialAngerIssues: "Cobalah teknik relaksasi seperti meditasi atau pernapasan dalam.",
		StableMentalState:    "Pertahankan kebiasaan baik Anda.",
		Normal:               "Tetap tenang dan jaga kesehatan mental Anda.",
	},
}

// Advisor maps statuses to advisory text for one locale.
type Advisor struct {
	locale string
	table  map[Status]string
}

// DefaultAdvisor gives English advice.
var DefaultAdvisor = NewAdvisor(LocaleEnglish)

// NewAdvisor returns the advisor for locale. Region suffixes are ignored
// ("id-ID" is "id") and unknown locales fall back to English.
func NewAdvisor(locale string) *Advisor {
	lang := BaseLanguage(locale)
	table, ok := advisories[lang]
	if !ok {
		lang = LocaleEnglish
		table = advisories[LocaleEnglish]
	}
	return &Advisor{locale: lang, table: table}
}

// BaseLanguage lowercases locale and strips any region suffix,
// so "id-ID" and "id_id" both become "id".
func BaseLanguage(locale string) string {
	lang := strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	return lang
}

// Locale returns the resolved locale.
func (a *Advisor) Locale() string {
	return a.locale
}

// Advice returns the advisory sentence for s.
func (a *Advisor) Advice(s Status) string {
	if text, ok := a.table[s]; ok {
		return text
	}
	return a.table[Normal]
}

// Label returns the status label. Labels are not translated.
func (a *Advisor) Label(s Status) string {
	return s.String()
}

// Locales lists the supported locales.
func Locales() []string {
	return []string{LocaleEnglish, LocaleIndonesian}
}
