package plan

import (
	"strings"
)

// Theme names a registered badge glyph set.
type Theme string

const (
	ThemeDefault Theme = "default"
	ThemeSquares Theme = "squares"
	ThemeSymbols Theme = "symbols"
)

// BadgeSet holds the glyph shown in front of each change category.
type BadgeSet struct {
	Import  string
	Create  string
	Update  string
	Destroy string
}

var themes = map[Theme]BadgeSet{
	ThemeDefault: {Import: "🔵", Create: "🟢", Update: "🟡", Destroy: "🔴"},
	ThemeSquares: {Import: "🟦", Create: "🟩", Update: "🟨", Destroy: "🟥"},
	ThemeSymbols: {Import: "📥", Create: "➕", Update: "✏️", Destroy: "➖"},
}

// themeOrder keeps Themes() stable for help text and log messages.
var themeOrder = []Theme{ThemeDefault, ThemeSquares, ThemeSymbols}

// Themes returns the registered theme names.
func Themes() []string {
	names := make([]string, 0, len(themeOrder))
	for _, t := range themeOrder {
		names = append(names, string(t))
	}
	return names
}

// LookupTheme resolves a theme name. An empty name selects the default theme.
// For an unknown name it returns ThemeDefault and false so the caller can report it.
func LookupTheme(name string) (Theme, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ThemeDefault, true
	}
	t := Theme(name)
	if _, ok := themes[t]; ok {
		return t, true
	}
	return ThemeDefault, false
}

// Badges returns the glyphs of t, or the default glyphs if t is not registered.
func (t Theme) Badges() BadgeSet {
	if b, ok := themes[t]; ok {
		return b
	}
	return themes[ThemeDefault]
}

func (t Theme) String() string {
	return string(t)
}
