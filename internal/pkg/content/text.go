// Package content holds the bilingual text values used by announcements.
package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Language selects one side of a localized text.
type Language string

const (
	English    Language = "English"
	Indonesian Language = "Indonesia"
)

var ErrUnsupportedShape = errors.New("text must be a string or an object with English/Indonesia fields")

type kind uint8

const (
	kindPlain kind = iota
	kindLocalized
)

// Text is either a plain string or an English/Indonesia pair.
// The zero value is an empty plain text.
type Text struct {
	kind      kind
	plain     string
	english   string
	indonesia string
}

// Plain returns a single-language text.
func Plain(s string) Text {
	return Text{kind: kindPlain, plain: s}
}

// Localized returns a text carrying both languages.
func Localized(english, indonesia string) Text {
	return Text{kind: kindLocalized, english: english, indonesia: indonesia}
}

// IsLocalized reports whether t carries per-language values.
func (t Text) IsLocalized() bool {
	return t.kind == kindLocalized
}

// SlugSource returns the text a slug should be derived from.
// Localized values prefer English and fall back to Indonesia.
func (t Text) SlugSource() string {
	if t.kind == kindPlain {
		return t.plain
	}
	if t.english != "" {
		return t.english
	}
	return t.indonesia
}

// In returns the text for lang, falling back to the other language when
// the requested one is blank.
func (t Text) In(lang Language) string {
	if t.kind == kindPlain {
		return t.plain
	}
	primary, secondary := t.english, t.indonesia
	if lang == Indonesian {
		primary, secondary = t.indonesia, t.english
	}
	if strings.TrimSpace(primary) != "" {
		return primary
	}
	return secondary
}

// IsEmpty reports whether every value held by t is blank.
func (t Text) IsEmpty() bool {
	if t.kind == kindPlain {
		return strings.TrimSpace(t.plain) == ""
	}
	return strings.TrimSpace(t.english) == "" && strings.TrimSpace(t.indonesia) == ""
}

// Map applies fn to every value held by t.
func (t Text) Map(fn func(string) string) Text {
	if t.kind == kindPlain {
		return Plain(fn(t.plain))
	}
	return Localized(fn(t.english), fn(t.indonesia))
}

// Contains reports whether any value of t contains needle, case-insensitively.
func (t Text) Contains(needle string) bool {
	needle = strings.ToLower(needle)
	if t.kind == kindPlain {
		return strings.Contains(strings.ToLower(t.plain), needle)
	}
	return strings.Contains(strings.ToLower(t.english), needle) ||
		strings.Contains(strings.ToLower(t.indonesia), needle)
}

type localizedJSON struct {
	English   string `json:"English"`
	Indonesia string `json:"Indonesia"`
}

func (t Text) MarshalJSON() ([]byte, error) {
	if t.kind == kindPlain {
		return json.Marshal(t.plain)
	}
	return json.Marshal(localizedJSON{English: t.english, Indonesia: t.indonesia})
}

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = Plain("")
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Plain(s)
		return nil
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		var l localizedJSON
		if v, ok := raw["English"]; ok {
			if err := json.Unmarshal(v, &l.English); err != nil {
				return ErrUnsupportedShape
			}
		}
		if v, ok := raw["Indonesia"]; ok {
			if err := json.Unmarshal(v, &l.Indonesia); err != nil {
				return ErrUnsupportedShape
			}
		}
		*t = Localized(l.English, l.Indonesia)
		return nil
	default:
		return ErrUnsupportedShape
	}
}

// Decode parses a stored text value. Malformed input yields an empty plain
// text instead of an error.
func Decode(raw []byte) Text {
	var t Text
	if err := t.UnmarshalJSON(raw); err != nil {
		return Plain("")
	}
	return t
}
