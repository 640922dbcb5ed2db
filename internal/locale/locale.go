// Package locale maps typed message keys to per-language strings.
// Lookups fall back to English for unknown languages and missing keys.
package locale

// Key identifies a UI message.
type Key int

const (
	AppName Key = iota
	AppSub
	InitHW
	ErrorInit
	MenuTitle
	ModeAuto
	ModeManual
	ModeTarget
	ModeSettings
	ModeAbout
	SettingsTitle
	SetLanguage
	SetStep
	SetDebounce
	Back
	PWM
	RPM
	Target
	Temp
	StallAlert
	BtnNav
	BtnBack
	Saved
	LangName
	numKeys
)

// Fallback is the language used when a lookup misses.
const Fallback = "en"

// Lookup returns the message for key in lang.
func Lookup(lang string, key Key) string {
	if t, ok := tables[lang]; ok {
		if s, ok := t[key]; ok {
			return s
		}
	}
	return tables[Fallback][key]
}

// Name returns the native display name of lang, e.g. "Magyar".
func Name(lang string) string {
	if t, ok := tables[lang]; ok {
		if s, ok := t[LangName]; ok {
			return s
		}
	}
	return lang
}

// Supported reports whether lang has a table.
func Supported(lang string) bool {
	_, ok := tables[lang]
	return ok
}

// Translator binds a language for repeated lookups.
type Translator string

// T returns the message for key.
func (tr Translator) T(key Key) string {
	return Lookup(string(tr), key)
}
