package keybinding

import (
	"fmt"
	"strings"
)

// Modifier is a bit set of held modifier keys.
type Modifier uint8

const (
	ModControl Modifier = 1 << iota
	ModShift
	ModSuper
	ModAlt
)

var modifierLetters = []struct {
	letter string
	mod    Modifier
	name   string
}{
	{"C", ModControl, "control"},
	{"S", ModShift, "shift"},
	{"M", ModSuper, "super"},
	{"A", ModAlt, "alt"},
}

// specialKeys maps bracketed key names to their canonical names.
var specialKeys = map[string]string{
	"tab":       "Tab",
	"enter":     "Return",
	"return":    "Return",
	"esc":       "Escape",
	"escape":    "Escape",
	"space":     "space",
	"backspace": "BackSpace",
}

// Chord is a parsed key string such as "M-S-<enter>".
type Chord struct {
	Modifiers Modifier `json:"-"`
	Key       string   `json:"key"`
}

// Names lists the held modifiers in C, S, M, A order.
func (c Chord) Names() []string {
	names := make([]string, 0, len(modifierLetters))
	for _, m := range modifierLetters {
		if c.Modifiers&m.mod != 0 {
			names = append(names, m.name)
		}
	}
	return names
}

// String renders the chord in canonical MOD-MOD-key form.
func (c Chord) String() string {
	var b strings.Builder
	for _, m := range modifierLetters {
		if c.Modifiers&m.mod != 0 {
			b.WriteString(m.letter)
			b.WriteByte('-')
		}
	}
	if isSpecialName(c.Key) {
		b.WriteString("<" + specialShortName(c.Key) + ">")
		return b.String()
	}
	b.WriteString(c.Key)
	return b.String()
}

// Parse reads a key string: zero or more modifier letters followed by a key,
// all joined with '-'. The key is either a single name ("q", "F1") or a
// bracketed special key ("<tab>", "<enter>", "<esc>", "<space>",
// "<backspace>"). Keychords, written as space-separated key strings, are not
// supported.
func Parse(keys string) (Chord, error) {
	keys = strings.TrimSpace(keys)
	if keys == "" {
		return Chord{}, ErrEmpty
	}
	if strings.ContainsAny(keys, " \t") {
		return Chord{}, fmt.Errorf("%w: %q", ErrKeychordUnsupported, keys)
	}

	parts := strings.Split(keys, "-")
	last := parts[len(parts)-1]

	// A trailing '-' means the key itself is the minus key.
	if last == "" && len(parts) > 1 && parts[len(parts)-2] == "" {
		parts = append(parts[:len(parts)-2], "-")
		last = "-"
	}

	var chord Chord
	for _, p := range parts[:len(parts)-1] {
		mod, ok := lookupModifier(p)
		if !ok {
			return Chord{}, fmt.Errorf("%w: %q in %q", ErrUnknownModifier, p, keys)
		}
		chord.Modifiers |= mod
	}

	if _, isMod := lookupModifier(last); isMod && len(parts) > 1 {
		return Chord{}, fmt.Errorf("%w: %q ends with a modifier", ErrMissingKey, keys)
	}

	key, err := parseKey(last)
	if err != nil {
		return Chord{}, fmt.Errorf("%w in %q", err, keys)
	}
	chord.Key = key
	return chord, nil
}

func parseKey(s string) (string, error) {
	if s == "" {
		return "", ErrMissingKey
	}
	opens := strings.HasPrefix(s, "<")
	closes := strings.HasSuffix(s, ">")
	switch {
	case opens && closes && len(s) > 2:
		name := strings.ToLower(s[1 : len(s)-1])
		canonical, ok := specialKeys[name]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownKey, s)
		}
		return canonical, nil
	case opens != closes:
		return "", fmt.Errorf("%w: %q", ErrUnbalancedBrackets, s)
	case opens && closes:
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, s)
	}
	if len(s) == 1 {
		return strings.ToLower(s), nil
	}
	return s, nil
}

func lookupModifier(s string) (Modifier, bool) {
	for _, m := range modifierLetters {
		if m.letter == s {
			return m.mod, true
		}
	}
	return 0, false
}

func isSpecialName(key string) bool {
	for _, canonical := range specialKeys {
		if canonical == key {
			return true
		}
	}
	return false
}

func specialShortName(key string) string {
	switch key {
	case "Return":
		return "enter"
	case "Escape":
		return "esc"
	default:
		return strings.ToLower(key)
	}
}
