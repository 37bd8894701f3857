package announcement

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordFilter_MatchesValuesOnly(t *testing.T) {
	sql, args, err := keywordFilter("Indonesia").ToSql()
	require.NoError(t, err)

	assert.NotContains(t, sql, "::text")
	assert.Contains(t, sql, "title->>'English' ILIKE ?")
	assert.Contains(t, sql, "title->>'Indonesia' ILIKE ?")
	assert.Contains(t, sql, "jsonb_typeof(short_description) = 'string'")
	assert.Contains(t, sql, "regexp_replace(content->>'English'")
	assert.Equal(t, 9, strings.Count(sql, "ILIKE ?"))
	require.Len(t, args, 9)
	for _, a := range args {
		assert.Equal(t, "%Indonesia%", a)
	}
}

func TestKeywordFilter_EscapesWildcards(t *testing.T) {
	_, args, err := keywordFilter(`50%_off\`).ToSql()
	require.NoError(t, err)
	require.NotEmpty(t, args)
	assert.Equal(t, `%50\%\_off\\%`, args[0])
}
