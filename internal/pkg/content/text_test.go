package content

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugSource(t *testing.T) {
	tests := []struct {
		name string
		text Text
		want string
	}{
		{"plain", Plain("Visa Update"), "Visa Update"},
		{"localized prefers english", Localized("Visa Update", "Pembaruan Visa"), "Visa Update"},
		{"localized falls back to indonesia", Localized("", "Pembaruan Visa"), "Pembaruan Visa"},
		{"localized empty", Localized("", ""), ""},
		{"zero value", Text{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.text.SlugSource())
		})
	}
}

func TestIn(t *testing.T) {
	l := Localized("Hello", "Halo")
	assert.Equal(t, "Hello", l.In(English))
	assert.Equal(t, "Halo", l.In(Indonesian))

	onlyEnglish := Localized("Hello", "  ")
	assert.Equal(t, "Hello", onlyEnglish.In(Indonesian))

	assert.Equal(t, "same", Plain("same").In(Indonesian))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, Plain("   ").IsEmpty())
	assert.True(t, Localized("", " ").IsEmpty())
	assert.False(t, Localized("", "Halo").IsEmpty())
	assert.False(t, Plain("x").IsEmpty())
}

func TestJSON(t *testing.T) {
	t.Run("plain string", func(t *testing.T) {
		var got Text
		require.NoError(t, json.Unmarshal([]byte(`"Promo"`), &got))
		assert.False(t, got.IsLocalized())
		assert.Equal(t, "Promo", got.SlugSource())

		out, err := json.Marshal(got)
		require.NoError(t, err)
		assert.JSONEq(t, `"Promo"`, string(out))
	})

	t.Run("localized object", func(t *testing.T) {
		var got Text
		require.NoError(t, json.Unmarshal([]byte(`{"English":"Promo","Indonesia":"Promosi"}`), &got))
		assert.True(t, got.IsLocalized())
		assert.Equal(t, "Promosi", got.In(Indonesian))

		out, err := json.Marshal(got)
		require.NoError(t, err)
		assert.JSONEq(t, `{"English":"Promo","Indonesia":"Promosi"}`, string(out))
	})

	t.Run("unsupported shapes", func(t *testing.T) {
		for _, raw := range []string{`12345`, `true`, `["a"]`, `{"English": 5}`} {
			var got Text
			assert.Error(t, json.Unmarshal([]byte(raw), &got), raw)
		}
	})

	t.Run("decode degrades to empty", func(t *testing.T) {
		assert.Equal(t, "", Decode([]byte(`42`)).SlugSource())
		assert.Equal(t, "", Decode(nil).SlugSource())
		assert.Equal(t, "Promo", Decode([]byte(`{"English":"Promo"}`)).SlugSource())
	})
}
